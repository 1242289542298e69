package icp

import (
	"slices"
	"strings"
)

// ToggleMember removes value from f when present, otherwise appends it.
// d is not modified. Unknown fields return d unchanged.
func ToggleMember(d Definition, f Field, value string) Definition {
	if !f.Valid() {
		return d
	}
	current := d.Values(f)
	if i := slices.Index(current, value); i >= 0 {
		return d.with(f, slices.Delete(current, i, i+1))
	}
	return d.with(f, append(current, value))
}

// AddTag appends the trimmed raw value to f unless it is blank or already
// present (exact, case-sensitive match).
func AddTag(d Definition, f Field, raw string) Definition {
	value := strings.TrimSpace(raw)
	if value == "" || !f.Valid() {
		return d
	}
	current := d.Values(f)
	if slices.Contains(current, value) {
		return d
	}
	return d.with(f, append(current, value))
}

// RemoveTag removes every occurrence of value from f.
func RemoveTag(d Definition, f Field, value string) Definition {
	if !f.Valid() {
		return d
	}
	kept := slices.DeleteFunc(d.Values(f), func(v string) bool { return v == value })
	return d.with(f, kept)
}

// ClampTotalResults snaps n onto the result-count slider: bounded to
// [MinTotalResults, MaxTotalResults] in steps of TotalResultsStep.
func ClampTotalResults(n int) int {
	n = max(MinTotalResults, min(MaxTotalResults, n))
	return (n + TotalResultsStep/2) / TotalResultsStep * TotalResultsStep
}
