package xlsxturbo

import "strings"

// AllColumns is the pattern that matches every column.
const AllColumns = "_all"

// MatchPattern reports whether a column name matches a configuration key.
// A key is an exact name, the sentinel "_all", or a glob where '*' matches any
// run of characters ("price_*", "*_usd", "*total*", "*").
func MatchPattern(name, pattern string) bool {
	if pattern == AllColumns {
		return true
	}
	if !strings.Contains(pattern, "*") {
		return name == pattern
	}
	return globMatch(name, pattern)
}

func globMatch(name, pattern string) bool {
	parts := strings.Split(pattern, "*")
	if !strings.HasPrefix(name, parts[0]) {
		return false
	}
	name = name[len(parts[0]):]
	last := parts[len(parts)-1]
	for _, p := range parts[1 : len(parts)-1] {
		i := strings.Index(name, p)
		if i < 0 {
			return false
		}
		name = name[i+len(p):]
	}
	return strings.HasSuffix(name, last)
}

// firstMatch returns the index of the first pattern matching name, or -1.
// Declaration order is the only priority.
func firstMatch(name string, patterns []string) int {
	for i, p := range patterns {
		if MatchPattern(name, p) {
			return i
		}
	}
	return -1
}
