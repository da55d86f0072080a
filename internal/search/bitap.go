package search

import (
	"strings"
)

// maxPatternBits is the widest pattern a single bitap pass handles.
// Longer queries are split into chunks of this size.
const maxPatternBits = 32

// minMatchScore is the floor for any non-exact match, so only a candidate
// equal to the query reaches a perfect 0.
const minMatchScore = 0.001

// Matcher is a compiled, case-insensitive approximate matcher for a single
// query. A Matcher is immutable and safe for concurrent use.
type Matcher struct {
	pattern  string
	chunks   []chunk
	opts     Options
	distance int
}

type chunk struct {
	pattern  []rune
	alphabet map[rune]uint64
	start    int
}

// NewMatcher compiles query for repeated matching against candidates.
func NewMatcher(query string, opts Options) *Matcher {
	pattern := strings.ToLower(query)
	m := &Matcher{
		pattern:  pattern,
		opts:     opts,
		distance: opts.distance(),
	}

	runes := []rune(pattern)
	if len(runes) <= maxPatternBits {
		if len(runes) > 0 {
			m.chunks = append(m.chunks, newChunk(runes, 0))
		}
		return m
	}

	remainder := len(runes) % maxPatternBits
	end := len(runes) - remainder
	for i := 0; i < end; i += maxPatternBits {
		m.chunks = append(m.chunks, newChunk(runes[i:i+maxPatternBits], i))
	}
	if remainder > 0 {
		start := len(runes) - maxPatternBits
		m.chunks = append(m.chunks, newChunk(runes[start:], start))
	}
	return m
}

func newChunk(pattern []rune, start int) chunk {
	alphabet := make(map[rune]uint64, len(pattern))
	for i, r := range pattern {
		alphabet[r] |= 1 << uint(len(pattern)-i-1)
	}
	return chunk{pattern: pattern, alphabet: alphabet, start: start}
}

// Match scores candidate against the query. The score is in [0,1], lower
// is better, and ok is false when no occurrence stays within the
// threshold. An empty query matches everything with 0; a blank candidate
// never matches a non-empty query.
func (m *Matcher) Match(candidate string) (score float64, ok bool) {
	if m.pattern == "" {
		return 0, true
	}
	text := strings.ToLower(candidate)
	if strings.TrimSpace(text) == "" {
		return 1, false
	}
	if text == m.pattern {
		return 0, true
	}

	runes := []rune(text)
	total := 0.0
	matched := false
	for i := range m.chunks {
		s, hit := m.chunks[i].search(runes, m.opts.Location+m.chunks[i].start, m.opts.Threshold, m.distance)
		if hit {
			matched = true
		}
		total += s
	}
	if !matched {
		return 1, false
	}
	return total / float64(len(m.chunks)), true
}

// search runs a bitap scan of c.pattern over text allowing up to
// len(pattern)-1 edits. The threshold shrinks as better matches are found,
// so the first level that matches near location wins.
func (c *chunk) search(text []rune, location int, threshold float64, distance int) (float64, bool) {
	patternLen := len(c.pattern)
	textLen := len(text)
	expected := max(0, min(location, textLen))

	score := func(errors, current int) float64 {
		return computeScore(errors, patternLen, current, expected, distance)
	}

	// Exact occurrences tighten the threshold before the fuzzy passes.
	best := expected
	for {
		idx := indexRunes(text, c.pattern, best)
		if idx < 0 {
			break
		}
		threshold = min(score(0, idx), threshold)
		best = idx + patternLen
	}

	best = -1
	finalScore := 1.0
	binMax := patternLen + textLen
	mask := uint64(1) << uint(patternLen-1)
	var lastBits []uint64

	for i := 0; i < patternLen; i++ {
		// Widest window around expected that could still beat threshold
		// with i errors.
		binMin, binMid := 0, binMax
		for binMin < binMid {
			if score(i, expected+binMid) <= threshold {
				binMin = binMid
			} else {
				binMax = binMid
			}
			binMid = (binMax-binMin)/2 + binMin
		}
		binMax = binMid

		start := max(1, expected-binMid+1)
		finish := min(expected+binMid, textLen) + patternLen

		bits := make([]uint64, finish+2)
		bits[finish+1] = (uint64(1) << uint(i)) - 1

		for j := finish; j >= start; j-- {
			current := j - 1
			var charMatch uint64
			if current < textLen {
				charMatch = c.alphabet[text[current]]
			}

			bits[j] = ((bits[j+1] << 1) | 1) & charMatch
			if i > 0 {
				bits[j] |= ((bitAt(lastBits, j+1) | bitAt(lastBits, j)) << 1) | 1 | bitAt(lastBits, j+1)
			}

			if bits[j]&mask != 0 {
				finalScore = score(i, current)
				if finalScore <= threshold {
					threshold = finalScore
					best = current
					if best <= expected {
						break
					}
					start = max(1, 2*expected-best)
				}
			}
		}

		if score(i+1, expected) > threshold {
			break
		}
		lastBits = bits
	}

	return max(minMatchScore, finalScore), best >= 0
}

// computeScore combines edit cost with distance from the expected
// location. distance 0 accepts only matches at the expected location.
func computeScore(errors, patternLen, current, expected, distance int) float64 {
	accuracy := float64(errors) / float64(patternLen)
	proximity := current - expected
	if proximity < 0 {
		proximity = -proximity
	}
	if distance == 0 {
		if proximity != 0 {
			return 1
		}
		return accuracy
	}
	return accuracy + float64(proximity)/float64(distance)
}

func bitAt(bits []uint64, i int) uint64 {
	if i < 0 || i >= len(bits) {
		return 0
	}
	return bits[i]
}

// indexRunes returns the first index >= from at which pattern occurs in
// text, or -1.
func indexRunes(text, pattern []rune, from int) int {
	if len(pattern) == 0 {
		return -1
	}
	for i := max(0, from); i+len(pattern) <= len(text); i++ {
		if text[i] != pattern[0] {
			continue
		}
		j := 1
		for j < len(pattern) && text[i+j] == pattern[j] {
			j++
		}
		if j == len(pattern) {
			return i
		}
	}
	return -1
}
