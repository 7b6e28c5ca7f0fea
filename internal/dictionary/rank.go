package dictionary

import (
	"sort"

	"github.com/agnivade/levenshtein"
)

// fuzzyCandidate pairs a definition with its best edit distance and its
// insertion position, the stable tie-break.
type fuzzyCandidate struct {
	def      *CommandDefinition
	distance int
	position int
}

// bestDistance computes the minimum edit distance between the query and any
// surface form of the definition.
func bestDistance(query string, def *CommandDefinition) int {
	best := -1
	for _, text := range matchTexts(def) {
		d := levenshtein.ComputeDistance(query, text)
		if best < 0 || d < best {
			best = d
		}
	}
	return best
}

// rankFuzzy selects the winning candidate under the shared ranking rules:
// edit distance ascending, declared priority descending, insertion order.
// Candidates beyond maxDistance are excluded.
func rankFuzzy(query string, defs []*CommandDefinition, maxDistance int) (*CommandDefinition, bool) {
	if maxDistance < 0 {
		return nil, false
	}

	candidates := make([]fuzzyCandidate, 0, len(defs))
	for position, def := range defs {
		distance := bestDistance(query, def)
		if distance < 0 || distance > maxDistance {
			continue
		}
		candidates = append(candidates, fuzzyCandidate{def: def, distance: distance, position: position})
	}

	if len(candidates) == 0 {
		return nil, false
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].distance != candidates[j].distance {
			return candidates[i].distance < candidates[j].distance
		}
		if candidates[i].def.Priority != candidates[j].def.Priority {
			return candidates[i].def.Priority > candidates[j].def.Priority
		}
		return candidates[i].position < candidates[j].position
	})

	return candidates[0].def, true
}

// findExact scans definitions in insertion order for a case-insensitive
// match on primary text or any synonym.
func findExact(query string, defs []*CommandDefinition) (*CommandDefinition, bool) {
	for _, def := range defs {
		for _, text := range matchTexts(def) {
			if text == query {
				return def, true
			}
		}
	}
	return nil, false
}
