// Package tokens estimates model token counts for budgeting. The estimate is
// a word and punctuation heuristic, not a real tokenizer.
package tokens

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Ellipsis marks a hard cut made by Truncate.
const Ellipsis = "..."

// Multipliers applied to the base estimate per model family.
const (
	DefaultMultiplier = 1.0
	ClaudeMultiplier  = 1.10
	GPTMultiplier     = 0.95
)

const (
	longWordLength   = 10
	longWordDivisor  = 5
	punctuationCost  = 0.5
	searchResolution = 10
	sentenceFraction = 0.7
	wordFraction     = 0.9

	// absorbs float error from the multiplier before rounding up
	roundingSlack = 1e-9
)

// Estimator approximates token counts.
type Estimator struct {
	multiplier float64
}

// New returns an estimator with the default multiplier.
func New() *Estimator { return &Estimator{multiplier: DefaultMultiplier} }

// ForModel returns an estimator adjusted for the model's family.
func ForModel(model string) *Estimator {
	return &Estimator{multiplier: MultiplierFor(model)}
}

// MultiplierFor returns the family multiplier for a model identifier.
func MultiplierFor(model string) float64 {
	m := strings.ToLower(model)
	switch {
	case strings.Contains(m, "claude"):
		return ClaudeMultiplier
	case strings.HasPrefix(m, "gpt"), strings.Contains(m, "openai"):
		return GPTMultiplier
	default:
		return DefaultMultiplier
	}
}

// Multiplier returns the family multiplier in use.
func (e *Estimator) Multiplier() float64 { return e.multiplier }

// Count estimates the number of tokens in text.
func (e *Estimator) Count(text string) int {
	words := strings.Fields(text)
	base := float64(len(words))
	for _, w := range words {
		if n := utf8.RuneCountInString(w); n > longWordLength {
			base += float64(n / longWordDivisor)
		}
	}
	for _, r := range text {
		if unicode.IsPunct(r) {
			base += punctuationCost
		}
	}
	return int(math.Ceil(base*e.multiplier - roundingSlack))
}

// Truncate returns a prefix of text whose estimate fits maxTokens. It prefers
// a sentence end in the last 30% of the fitting prefix, then a word break in
// the last 10%, and otherwise cuts hard and appends Ellipsis.
func (e *Estimator) Truncate(text string, maxTokens int) string {
	if e.Count(text) <= maxTokens {
		return text
	}
	if maxTokens <= 0 {
		return ""
	}
	runes := []rune(text)
	cut, snapped := e.cutPoint(runes, maxTokens)
	if snapped {
		return strings.TrimRightFunc(string(runes[:cut]), unicode.IsSpace)
	}
	for cut > 0 && e.Count(string(runes[:cut])+Ellipsis) > maxTokens {
		cut--
	}
	if cut == 0 {
		return ""
	}
	return string(runes[:cut]) + Ellipsis
}

// Split cuts text into consecutive parts that each fit maxTokens. Parts carry
// no ellipsis marker. A single rune that alone exceeds the budget is still
// emitted so that splitting always makes progress.
func (e *Estimator) Split(text string, maxTokens int) []string {
	if maxTokens <= 0 {
		return nil
	}
	var parts []string
	rest := []rune(strings.TrimSpace(text))
	for len(rest) > 0 {
		if e.Count(string(rest)) <= maxTokens {
			parts = append(parts, string(rest))
			break
		}
		cut, _ := e.cutPoint(rest, maxTokens)
		if cut == 0 {
			cut = 1
		}
		if part := strings.TrimSpace(string(rest[:cut])); part != "" {
			parts = append(parts, part)
		}
		rest = []rune(strings.TrimLeftFunc(string(rest[cut:]), unicode.IsSpace))
	}
	return parts
}

// cutPoint binary searches the longest prefix that fits, then snaps it to
// a sentence or word boundary when one is close enough. snapped reports
// whether a boundary was used.
func (e *Estimator) cutPoint(runes []rune, maxTokens int) (cut int, snapped bool) {
	lo, hi := 0, len(runes)
	for hi-lo > searchResolution {
		mid := (lo + hi) / 2
		if e.Count(string(runes[:mid])) <= maxTokens {
			lo = mid
		} else {
			hi = mid
		}
	}
	// Refine within the final window so the cut is as long as possible.
	for lo < hi && e.Count(string(runes[:lo+1])) <= maxTokens {
		lo++
	}
	if lo == 0 {
		return 0, false
	}

	if end := lastSentenceEnd(runes[:lo]); end > 0 && float64(end) >= sentenceFraction*float64(lo) {
		return end, true
	}
	if ws := lastSpace(runes[:lo]); ws > 0 && float64(ws) >= wordFraction*float64(lo) {
		return ws, true
	}
	return lo, false
}

// lastSentenceEnd returns the length of the prefix ending after the last
// terminator that is followed by whitespace or the end of the window.
func lastSentenceEnd(runes []rune) int {
	for i := len(runes) - 1; i >= 0; i-- {
		switch runes[i] {
		case '.', '!', '?':
			if i == len(runes)-1 || unicode.IsSpace(runes[i+1]) {
				return i + 1
			}
		}
	}
	return 0
}

func lastSpace(runes []rune) int {
	for i := len(runes) - 1; i >= 0; i-- {
		if unicode.IsSpace(runes[i]) {
			return i
		}
	}
	return 0
}
