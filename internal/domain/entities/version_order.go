package entities

import (
	"sort"
	"strings"

	"golang.org/x/mod/semver"
)

// canonicalSemver returns the semver form of a tag name ("1.2" and "v1.2" both work), or "".
func canonicalSemver(name string) string {
	candidate := name
	if !strings.HasPrefix(candidate, "v") {
		candidate = "v" + candidate
	}
	if !semver.IsValid(candidate) {
		return ""
	}
	return candidate
}

// SortVersionNames orders tag or branch names: semantic versions first, oldest to newest,
// then every other name alphabetically.
func SortVersionNames(names []string) []string {
	sorted := append([]string(nil), names...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := canonicalSemver(sorted[i]), canonicalSemver(sorted[j])
		switch {
		case a != "" && b != "":
			if cmp := semver.Compare(a, b); cmp != 0 {
				return cmp < 0
			}
			return sorted[i] < sorted[j]
		case a != "":
			return true
		case b != "":
			return false
		default:
			return sorted[i] < sorted[j]
		}
	})
	return sorted
}

// LatestVersionName returns the newest semantic version among names, or "" when none is one.
func LatestVersionName(names []string) string {
	latest, latestCanonical := "", ""
	for _, name := range names {
		canonical := canonicalSemver(name)
		if canonical == "" {
			continue
		}
		if latestCanonical == "" || semver.Compare(canonical, latestCanonical) > 0 {
			latest, latestCanonical = name, canonical
		}
	}
	return latest
}
