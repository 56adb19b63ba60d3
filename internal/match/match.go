// Package match implements the pure string-matching core: exact-match
// lookup, the similarity ratio, threshold ranking and the strict
// selection-phase rule. Everything here is deterministic and side-effect
// free.
package match

import (
	"errors"
	"sort"
	"strings"

	"github.com/mohammad-safakhou/memedex/models"
)

var (
	// ErrNoMatch means no stored candidate scored above the selection
	// threshold.
	ErrNoMatch = errors.New("no candidate above threshold")
	// ErrAmbiguous means several candidates tied at the maximal score; the
	// caller re-prompts instead of guessing.
	ErrAmbiguous = errors.New("ambiguous selection")
)

// Similarity returns a normalized edit-similarity in [0,1]: twice the number
// of characters in matching runs divided by the total length, computed on
// case-folded strings. 1.0 means case-insensitive equality. Arguments are
// ordered canonically before matching, so the score is symmetric.
func Similarity(a, b string) float64 {
	x := []rune(strings.ToLower(a))
	y := []rune(strings.ToLower(b))
	if len(x) == 0 && len(y) == 0 {
		return 1.0
	}
	if string(x) > string(y) {
		x, y = y, x
	}
	matched := matchingRunes(x, y)
	return 2.0 * float64(matched) / float64(len(x)+len(y))
}

// matchingRunes sums the lengths of the matching blocks between x and y:
// the longest common run is found, then the regions to its left and right
// are matched recursively.
func matchingRunes(x, y []rune) int {
	positions := make(map[rune][]int, len(y))
	for j, r := range y {
		positions[r] = append(positions[r], j)
	}

	type region struct{ xlo, xhi, ylo, yhi int }
	stack := []region{{0, len(x), 0, len(y)}}
	total := 0

	for len(stack) > 0 {
		reg := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		besti, bestj, size := longestRun(x, positions, reg.xlo, reg.xhi, reg.ylo, reg.yhi)
		if size == 0 {
			continue
		}
		total += size
		stack = append(stack,
			region{reg.xlo, besti, reg.ylo, bestj},
			region{besti + size, reg.xhi, bestj + size, reg.yhi},
		)
	}
	return total
}

func longestRun(x []rune, positions map[rune][]int, xlo, xhi, ylo, yhi int) (besti, bestj, size int) {
	besti, bestj = xlo, ylo
	runLengths := make(map[int]int)
	for i := xlo; i < xhi; i++ {
		next := make(map[int]int)
		for _, j := range positions[x[i]] {
			if j < ylo {
				continue
			}
			if j >= yhi {
				break
			}
			k := runLengths[j-1] + 1
			next[j] = k
			if k > size {
				besti, bestj, size = i-k+1, j-k+1, k
			}
		}
		runLengths = next
	}
	return besti, bestj, size
}

// FindExact returns the index of the first candidate whose title equals the
// query under case folding, or -1. Listing order is source-provided
// relevance, so the first hit is authoritative.
func FindExact(query string, candidates []models.Candidate) int {
	query = strings.TrimSpace(query)
	for i, c := range candidates {
		if strings.EqualFold(query, strings.TrimSpace(c.Title)) {
			return i
		}
	}
	return -1
}

// RankSuggestions scores every candidate against the query, drops those
// below threshold and sorts the rest descending by score. Ties keep the
// original listing order.
func RankSuggestions(query string, candidates []models.Candidate, threshold float64) []models.ScoredCandidate {
	query = strings.TrimSpace(query)
	scored := make([]models.ScoredCandidate, 0, len(candidates))
	for _, c := range candidates {
		score := Similarity(query, c.Title)
		if score < threshold {
			continue
		}
		scored = append(scored, models.ScoredCandidate{Candidate: c, Score: score})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	return scored
}

// SelectReply matches a user's reply against the stored candidate list using
// the strict selection threshold. It returns the index of the unique best
// candidate at or above the threshold, ErrNoMatch when nothing qualifies, or
// ErrAmbiguous when several candidates tie at the maximal score.
func SelectReply(reply string, candidates []models.Candidate, threshold float64) (int, error) {
	reply = strings.TrimSpace(reply)
	best := -1
	bestScore := 0.0
	ties := 0

	for i, c := range candidates {
		score := Similarity(reply, c.Title)
		if score < threshold {
			continue
		}
		switch {
		case best == -1 || score > bestScore:
			best, bestScore, ties = i, score, 1
		case score == bestScore:
			ties++
		}
	}

	if best == -1 {
		return -1, ErrNoMatch
	}
	if ties > 1 {
		return -1, ErrAmbiguous
	}
	return best, nil
}
