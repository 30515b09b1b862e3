package adapter

// Defaults returns the built-in adapters, enabled and disabled by default,
// each in descending priority order. The lists are built on every call.
func Defaults() (enabled, disabled []Adapter) {
	enabled = []Adapter{
		NewFFmpegAdapter(),
		NewPandocAdapter(),
		NewPopplerAdapter(),
		NewZipAdapter(),
		NewTarAdapter(),
		NewDecompressAdapter(),
		NewSqliteAdapter(),
	}
	disabled = []Adapter{
		NewPDFNativeAdapter(),
		NewMailAdapter(),
	}
	return enabled, disabled
}

// All returns enabled and disabled adapters in one list, enabled first.
func All() []Adapter {
	enabled, disabled := Defaults()
	return append(enabled, disabled...)
}
