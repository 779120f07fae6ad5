package match

import (
	"cmp"
	"slices"
)

// MinScore is the similarity below which no suggestion is made.
const MinScore = 0.6

// Candidate is a known name scored against an unrecognized one.
type Candidate struct {
	Name  string
	Score float64
}

// Rank scores every known name against name, best first. Ties keep the
// order of known.
func Rank(name string, known []string) []Candidate {
	out := make([]Candidate, 0, len(known))
	for _, k := range known {
		out = append(out, Candidate{Name: k, Score: Score(name, k)})
	}

	slices.SortStableFunc(out, func(a, b Candidate) int {
		return cmp.Compare(b.Score, a.Score)
	})

	return out
}

// Suggest returns the known name closest to name if it scores at least
// MinScore.
func Suggest(name string, known []string) (string, bool) {
	ranked := Rank(name, known)
	if len(ranked) == 0 || ranked[0].Score < MinScore {
		return "", false
	}

	return ranked[0].Name, true
}
