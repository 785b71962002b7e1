package discovery

import (
	"math"
	"strings"
)

// minNonExactScore keeps near-exact matches from collapsing onto a true
// exact match (score 0) when several keys are combined.
const minNonExactScore = 0.001

// epsilon replaces a zero key score so that a weighted product of scores
// still orders by the remaining keys.
const epsilon = 2.220446049250313e-16

// A matcher scores approximate substring matches of one pattern.
//
// The score of a candidate alignment is errors/len(pattern) plus, when
// location matters, the distance of the match start from the beginning of
// the text divided by distance. Lower is better; 0 is an exact match of the
// whole text.
type matcher struct {
	pattern        []rune
	raw            string
	threshold      float64
	distance       float64
	ignoreLocation bool
	minMatchLen    int
}

func newMatcher(pattern string, p SearchProfile) matcher {
	lowered := strings.ToLower(pattern)
	return matcher{
		pattern:        []rune(lowered),
		raw:            lowered,
		threshold:      p.Threshold,
		distance:       p.Distance,
		ignoreLocation: p.IgnoreLocation,
		minMatchLen:    p.MinMatchCharLength,
	}
}

// score returns the best alignment score for text and whether it is within
// the threshold.
func (m matcher) score(text string) (float64, bool) {
	if len(m.pattern) == 0 || len(m.pattern) < m.minMatchLen {
		return 1, false
	}

	lowered := strings.ToLower(text)
	if lowered == m.raw {
		return 0, true
	}

	t := []rune(lowered)
	if len(t) == 0 {
		return 1, false
	}

	best := math.Inf(1)
	n := len(m.pattern)

	// Approximate substring search: row i holds the edit distance of the
	// first i pattern runes against text ending at column j, with a free
	// start anywhere in the text. start tracks where that alignment began.
	prevCost := make([]int, len(t)+1)
	prevStart := make([]int, len(t)+1)
	curCost := make([]int, len(t)+1)
	curStart := make([]int, len(t)+1)

	for j := range prevCost {
		prevCost[j] = 0
		prevStart[j] = j
	}

	for i := 1; i <= n; i++ {
		curCost[0] = i
		curStart[0] = 0
		pc := m.pattern[i-1]
		for j := 1; j <= len(t); j++ {
			sub := 1
			if t[j-1] == pc {
				sub = 0
			}

			cost := prevCost[j-1] + sub
			start := prevStart[j-1]

			if c := prevCost[j] + 1; c < cost {
				cost, start = c, prevStart[j]
			}
			if c := curCost[j-1] + 1; c < cost {
				cost, start = c, curStart[j-1]
			}

			curCost[j] = cost
			curStart[j] = start
		}
		prevCost, curCost = curCost, prevCost
		prevStart, curStart = curStart, prevStart
	}

	for j := 1; j <= len(t); j++ {
		s := m.alignmentScore(prevCost[j], prevStart[j])
		if s < best {
			best = s
		}
	}

	if best > m.threshold {
		return best, false
	}
	return math.Max(minNonExactScore, best), true
}

func (m matcher) alignmentScore(errors, start int) float64 {
	accuracy := float64(errors) / float64(len(m.pattern))
	if m.ignoreLocation {
		return accuracy
	}
	if m.distance == 0 {
		if start != 0 {
			return 1
		}
		return accuracy
	}
	return accuracy + float64(start)/m.distance
}

// fieldNorm dampens matches in long fields: 1/sqrt(tokens), three decimals.
func fieldNorm(text string) float64 {
	tokens := len(strings.Fields(text))
	if tokens == 0 {
		tokens = 1
	}
	return math.Round(1/math.Sqrt(float64(tokens))*1000) / 1000
}
