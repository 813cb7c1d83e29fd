// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"fmt"
	"strings"
)

// Filter selects which projection of a thread is visible.
type Filter string

const (
	FilterAll    Filter = "all"
	FilterSearch Filter = "search"
	FilterPinned Filter = "pinned"
	FilterRated  Filter = "rated"
)

// ParseFilter parses a locally computable filter. "search" is rejected
// because it is entered only by running a query.
func ParseFilter(s string) (Filter, error) {
	switch f := Filter(strings.ToLower(strings.TrimSpace(s))); f {
	case FilterAll, FilterPinned, FilterRated:
		return f, nil
	case "":
		return FilterAll, nil
	default:
		return FilterAll, &ValidationError{Field: "filter", Reason: fmt.Sprintf("unknown filter %q (want all, pinned or rated)", s)}
	}
}

// Next cycles all -> pinned -> rated -> all. Search cycles back to all.
func (f Filter) Next() Filter {
	switch f {
	case FilterAll:
		return FilterPinned
	case FilterPinned:
		return FilterRated
	default:
		return FilterAll
	}
}

// Match reports whether m belongs to the predicate-based projection f.
// FilterAll and FilterSearch match everything; search membership is decided
// by the backend, not by a local predicate.
func (f Filter) Match(m Message) bool {
	switch f {
	case FilterPinned:
		return m.Pinned
	case FilterRated:
		return m.IsRated()
	default:
		return true
	}
}

// Project returns the messages of msgs matching f, preserving order.
func Project(msgs []Message, f Filter) []Message {
	out := make([]Message, 0, len(msgs))
	for _, m := range msgs {
		if f.Match(m) {
			out = append(out, m)
		}
	}
	return out
}
