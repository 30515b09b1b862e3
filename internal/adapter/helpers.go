package adapter

func extensionMatchers(exts ...string) []FastMatcher {
	matchers := make([]FastMatcher, 0, len(exts))
	for _, ext := range exts {
		matchers = append(matchers, FileExtension(ext))
	}
	return matchers
}

func mimeMatchers(types ...string) []SlowMatcher {
	matchers := make([]SlowMatcher, 0, len(types))
	for _, t := range types {
		matchers = append(matchers, MimeType(t))
	}
	return matchers
}
