package adapter

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

var (
	// ErrUnknownAdapter is returned when an override names no known adapter.
	ErrUnknownAdapter = errors.New("unknown adapter")
	// ErrNotInList is returned when a "-" override removes an adapter that is
	// not in the current list.
	ErrNotInList = errors.New("not in list")
)

// Select filters the default adapters by an override expression:
//
//   - no tokens uses the default enabled list
//   - "-a", "b" uses the default list except for a and b
//   - "+a", "b" uses the default list plus a and b
//   - "a", "b" uses exactly a and b, in that order
//
// Only the first token may carry a "+" or "-".
func Select(tokens []string) ([]Adapter, error) {
	enabled, disabled := Defaults()
	adapters, err := selectFrom(enabled, disabled, tokens)
	if err != nil {
		return nil, err
	}
	slog.Debug("chosen adapters", "adapters", strings.Join(Names(adapters), ","))
	return adapters, nil
}

func selectFrom(enabled, disabled []Adapter, tokens []string) ([]Adapter, error) {
	if len(tokens) == 0 {
		return enabled, nil
	}

	byName := make(map[string]Adapter, len(enabled)+len(disabled))
	for _, a := range enabled {
		byName[a.Metadata().Name] = a
	}
	for _, a := range disabled {
		byName[a.Metadata().Name] = a
	}

	var adapters []Adapter
	subtractive := false
	for i, name := range tokens {
		if i == 0 {
			switch {
			case strings.HasPrefix(name, "-"):
				subtractive = true
				name = name[1:]
				adapters = append([]Adapter(nil), enabled...)
			case strings.HasPrefix(name, "+"):
				name = name[1:]
				adapters = append([]Adapter(nil), enabled...)
			}
		}

		if subtractive {
			idx := indexOf(adapters, name)
			if idx < 0 {
				return nil, fmt.Errorf("could not remove %q: %w", name, ErrNotInList)
			}
			adapters = append(adapters[:idx], adapters[idx+1:]...)
			continue
		}

		a, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownAdapter, name)
		}
		adapters = append(adapters, a)
	}
	return adapters, nil
}

func indexOf(adapters []Adapter, name string) int {
	for i, a := range adapters {
		if a.Metadata().Name == name {
			return i
		}
	}
	return -1
}

// ParseOverride splits a comma separated override such as "-zip,tar" into
// tokens. Blank entries are dropped.
func ParseOverride(s string) []string {
	var tokens []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			tokens = append(tokens, part)
		}
	}
	return tokens
}

// Names returns the adapter names in list order.
func Names(adapters []Adapter) []string {
	names := make([]string, 0, len(adapters))
	for _, a := range adapters {
		names = append(names, a.Metadata().Name)
	}
	return names
}
