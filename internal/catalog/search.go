package catalog

import (
	"sort"
	"strings"

	"github.com/agroconnect-tz/marketplace/internal/domain"
)

// SearchCrops ranks crops against a free-text query. Substring hits on the
// name rank highest, then category/location hits, then a subsequence match
// on the name as a fuzzy fallback. Non-matches are dropped.
func SearchCrops(crops []domain.Crop, query string) []domain.Crop {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return crops
	}

	type scored struct {
		crop  domain.Crop
		score int
	}

	var matches []scored
	for _, crop := range crops {
		score := scoreCrop(crop, query)
		if score > 0 {
			matches = append(matches, scored{crop: crop, score: score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].score > matches[j].score
	})

	result := make([]domain.Crop, len(matches))
	for i, m := range matches {
		result[i] = m.crop
	}
	return result
}

func scoreCrop(crop domain.Crop, query string) int {
	name := strings.ToLower(crop.Name)

	switch {
	case name == query:
		return 100
	case strings.HasPrefix(name, query):
		return 80
	case strings.Contains(name, query):
		return 60
	}

	if strings.Contains(strings.ToLower(crop.Category), query) {
		return 40
	}
	if strings.Contains(strings.ToLower(crop.Location), query) {
		return 30
	}
	if isSubsequence(query, name) {
		return 10
	}
	return 0
}

// isSubsequence reports whether all runes of needle appear in haystack in
// order, not necessarily adjacent ("mhg" matches "mchicha ya maji... ").
func isSubsequence(needle, haystack string) bool {
	if needle == "" {
		return true
	}
	runes := []rune(needle)
	i := 0
	for _, r := range haystack {
		if r == runes[i] {
			i++
			if i == len(runes) {
				return true
			}
		}
	}
	return false
}
