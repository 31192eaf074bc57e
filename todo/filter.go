package todo

import (
	"fmt"
	"sort"
	"strings"
)

// FilterMode selects which todos a view shows.
type FilterMode string

const (
	// FilterAll shows every todo.
	FilterAll FilterMode = "all"

	// FilterActive shows only incomplete todos.
	FilterActive FilterMode = "active"

	// FilterCompleted shows only completed todos.
	FilterCompleted FilterMode = "completed"
)

// ValidFilterModes returns all valid filter modes.
func ValidFilterModes() []FilterMode {
	return []FilterMode{FilterAll, FilterActive, FilterCompleted}
}

// ParseFilterMode normalizes a filter mode string. Empty input defaults
// to FilterAll.
func ParseFilterMode(value string) (FilterMode, error) {
	mode := FilterMode(strings.ToLower(strings.TrimSpace(value)))
	if mode == "" {
		return FilterAll, nil
	}
	for _, valid := range ValidFilterModes() {
		if mode == valid {
			return mode, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidFilterMode, value)
}

// Filter returns the todos visible under the given mode. It is a pure
// projection: the input slice is not modified and the relative order of
// the surviving todos is preserved.
func Filter(items []Todo, mode FilterMode) []Todo {
	if mode == FilterAll {
		return append([]Todo(nil), items...)
	}
	filtered := make([]Todo, 0, len(items))
	for _, item := range items {
		switch mode {
		case FilterActive:
			if !item.Completed {
				filtered = append(filtered, item)
			}
		case FilterCompleted:
			if item.Completed {
				filtered = append(filtered, item)
			}
		}
	}
	return filtered
}

// Less reports whether a sorts before b in the canonical display order:
// newest first by CreatedAt, ties broken by ID ascending. The tie-break
// keeps re-sorts deterministic so equal timestamps never cause visible
// item jitter.
func Less(a, b Todo) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID < b.ID
}

// SortNewestFirst sorts items in place into the canonical display order.
func SortNewestFirst(items []Todo) {
	sort.SliceStable(items, func(i, j int) bool {
		return Less(items[i], items[j])
	})
}
