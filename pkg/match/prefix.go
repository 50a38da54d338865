package match

import (
	"sort"
	"strings"
)

// DerivePrefix extracts the longest static key prefix from a glob pattern:
// the portion before the first glob metacharacter, truncated to the last
// complete path segment.
//
//	"data/2024/**/*.parquet" → "data/2024/"
//	"*.json"                 → ""
//	"exact/path/file.txt"    → "exact/path/file.txt"
func DerivePrefix(pattern string) string {
	meta := strings.IndexAny(pattern, "*?[{")
	if meta < 0 {
		return pattern
	}
	if meta == 0 {
		return ""
	}
	prefix := pattern[:meta]
	// Truncate "data/2024-" to "data/" so the prefix names whole segments.
	if slash := strings.LastIndexByte(prefix, '/'); slash >= 0 {
		return prefix[:slash+1]
	}
	return ""
}

// DerivePrefixes derives prefixes for all patterns, removes prefixes
// subsumed by shorter ones, and sorts the result. An empty prefix subsumes
// everything (full listing required).
func DerivePrefixes(patterns []string) []string {
	if len(patterns) == 0 {
		return nil
	}

	prefixes := make([]string, 0, len(patterns))
	for _, p := range patterns {
		prefix := DerivePrefix(p)
		if prefix == "" {
			return []string{""}
		}
		prefixes = append(prefixes, prefix)
	}

	sort.Slice(prefixes, func(i, j int) bool {
		return len(prefixes[i]) < len(prefixes[j])
	})

	kept := make([]string, 0, len(prefixes))
	for _, candidate := range prefixes {
		subsumed := false
		for _, existing := range kept {
			if strings.HasPrefix(candidate, existing) {
				subsumed = true
				break
			}
		}
		if !subsumed {
			kept = append(kept, candidate)
		}
	}

	sort.Strings(kept)
	return kept
}
