// Package domain contains the shared data contracts for the WLA reporting
// toolkit. These types carry no behaviour beyond normalization and simple
// selection helpers; all computation lives in internal packages.
package domain

import (
	"sort"
	"strings"
	"time"
)

// Row is one cleaned observation from the master_data table.
type Row struct {
	State    string    `json:"state"`
	Month    time.Time `json:"month"`
	PopGroup string    `json:"pop_group"`
	Avg      float64   `json:"avg"`
}

// Table is the canonical dataset: rows sorted ascending by month.
// A Table is built once by the store loader and treated as read-only
// afterwards; filtering helpers return fresh slices.
type Table []Row

// IsEmpty reports whether the table holds no rows.
func (t Table) IsEmpty() bool {
	return len(t) == 0
}

// States returns the distinct state names in the table, sorted ascending.
func (t Table) States() []string {
	seen := make(map[string]bool, len(t))
	var states []string
	for _, row := range t {
		if !seen[row.State] {
			seen[row.State] = true
			states = append(states, row.State)
		}
	}
	sort.Strings(states)
	return states
}

// PopGroups returns the distinct population group labels, sorted ascending.
func (t Table) PopGroups() []string {
	seen := make(map[string]bool, len(t))
	var groups []string
	for _, row := range t {
		if !seen[row.PopGroup] {
			seen[row.PopGroup] = true
			groups = append(groups, row.PopGroup)
		}
	}
	sort.Strings(groups)
	return groups
}

// FilterStates returns the rows whose state is in the given set, preserving
// order. An empty selection returns the full table.
func (t Table) FilterStates(states []string) Table {
	if len(states) == 0 {
		return t
	}
	selected := make(map[string]bool, len(states))
	for _, s := range states {
		selected[s] = true
	}
	var filtered Table
	for _, row := range t {
		if selected[row.State] {
			filtered = append(filtered, row)
		}
	}
	return filtered
}

// NormalizeState trims whitespace and title-cases a raw state name.
func NormalizeState(raw string) string {
	fields := strings.Fields(strings.TrimSpace(raw))
	for i, f := range fields {
		fields[i] = titleCaseWord(f)
	}
	return strings.Join(fields, " ")
}

// NormalizePopGroup trims and lowercases a raw population group label, then
// applies the canonical alias rule: "s - urban" collapses to "s-urban".
func NormalizePopGroup(raw string) string {
	g := strings.ToLower(strings.TrimSpace(raw))
	if g == "s - urban" {
		return "s-urban"
	}
	return g
}

// CapitalizePopGroup renders a canonical group label for display,
// e.g. "s-urban" -> "S-urban".
func CapitalizePopGroup(group string) string {
	if group == "" {
		return ""
	}
	return strings.ToUpper(group[:1]) + group[1:]
}

func titleCaseWord(w string) string {
	if w == "" {
		return w
	}
	return strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
}
