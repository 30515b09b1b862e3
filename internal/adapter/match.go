package adapter

// Match is the adapter chosen for a file and the rule that selected it.
type Match struct {
	Adapter Adapter
	Rule    SlowMatcher
}

// Find returns the first adapter in adapters, which is in priority order,
// that has a matcher accepting f. With slow set, adapters that declare slow
// matchers are tested with those instead of their fast matchers.
// When an adapter appears more than once, its first position counts.
func Find(adapters []Adapter, f FileMeta, slow bool) (Match, bool) {
	for _, a := range adapters {
		for m := range a.Metadata().Matchers(slow) {
			if m.match(f) {
				return Match{Adapter: a, Rule: m}, true
			}
		}
	}
	return Match{}, false
}
