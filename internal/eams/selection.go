package eams

import (
	"strconv"

	"eamsgrab/internal/components/telemetry"

	"github.com/antzucaro/matchr"
)

const report_selection_map = "selection.map"

// ids closer than this to an unknown token are offered as a suggestion
const suggestionDistance = 2

func isDigits(token string) bool {
	if token == "" {
		return false
	}
	for _, r := range token {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func (c Catalog) suggest(token string) string {
	best := ""
	bestDistance := suggestionDistance + 1
	for _, id := range c.Ids {
		distance := matchr.Levenshtein(token, id)
		if distance < bestDistance {
			best = id
			bestDistance = distance
		}
	}
	return best
}

// MapSelections resolves operator tokens to course ids in token order. A
// token is a catalog index if it is in range, otherwise it must be a course
// id listed in the catalog. Other tokens are reported and skipped.
// Duplicates are kept.
func MapSelections(tel telemetry.API, tokens []string, catalog Catalog) []string {
	var chosen []string
	for _, token := range tokens {
		if !isDigits(token) {
			tel.ReportWarning(report_selection_map, "invalid token", token)
			continue
		}

		idx, err := strconv.Atoi(token)
		if err == nil && idx < len(catalog.Entries) {
			chosen = append(chosen, catalog.Entries[idx].CourseId)
			continue
		}
		if catalog.HasCourse(token) {
			chosen = append(chosen, token)
			continue
		}

		if suggestion := catalog.suggest(token); suggestion != "" {
			tel.ReportWarning(report_selection_map, "no such index or course id", token, "did you mean "+suggestion)
			continue
		}
		tel.ReportWarning(report_selection_map, "no such index or course id", token)
	}
	return chosen
}
