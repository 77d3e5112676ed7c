// Package summarizer picks the most representative sentences of a corpus
// within a token budget.
package summarizer

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"ragcore/internal/tokens"
)

// DefaultMaxSentences is used when a non-positive sentence count is requested.
const DefaultMaxSentences = 3

var (
	sentencePattern = regexp.MustCompile(`[^.!?]+[.!?]+|[^.!?]+$`)
	wordPattern     = regexp.MustCompile(`[\p{L}\p{N}]+`)
)

// Summarizer ranks sentences by the normalized frequency of their content
// words.
type Summarizer struct {
	estimator *tokens.Estimator
	stopwords map[string]struct{}
}

// New creates a summarizer that measures budgets with est. A nil estimator
// uses the default calibration.
func New(est *tokens.Estimator) *Summarizer {
	if est == nil {
		est = tokens.New()
	}
	return &Summarizer{estimator: est, stopwords: defaultStopwords()}
}

// Summarize returns up to maxSentences sentences in source order. When
// maxTokens is positive, lower ranked sentences are dropped until the summary
// fits; the best sentence is kept and truncated if it alone is too long.
func (s *Summarizer) Summarize(text string, maxSentences, maxTokens int) string {
	if maxSentences <= 0 {
		maxSentences = DefaultMaxSentences
	}
	var sentences []string
	for _, raw := range sentencePattern.FindAllString(text, -1) {
		if t := strings.TrimSpace(raw); t != "" {
			sentences = append(sentences, t)
		}
	}
	if len(sentences) == 0 {
		return ""
	}

	freq := s.frequencies(sentences)
	type ranked struct {
		idx   int
		score float64
	}
	order := make([]ranked, len(sentences))
	for i, sent := range sentences {
		order[i] = ranked{i, s.score(sent, freq)}
	}
	sort.SliceStable(order, func(i, j int) bool { return order[i].score > order[j].score })

	var picked []int
	used := 0
	for _, r := range order {
		if len(picked) == maxSentences {
			break
		}
		cost := s.estimator.Count(sentences[r.idx])
		if maxTokens > 0 && len(picked) > 0 && used+cost > maxTokens {
			continue
		}
		picked = append(picked, r.idx)
		used += cost
	}
	sort.Ints(picked)

	out := make([]string, len(picked))
	for i, idx := range picked {
		out[i] = sentences[idx]
	}
	summary := strings.Join(out, " ")
	if maxTokens > 0 {
		summary = s.estimator.Truncate(summary, maxTokens)
	}
	return summary
}

func (s *Summarizer) frequencies(sentences []string) map[string]float64 {
	freq := map[string]float64{}
	peak := 0.0
	for _, sent := range sentences {
		for _, w := range words(sent) {
			if _, stop := s.stopwords[w]; stop {
				continue
			}
			freq[w]++
			peak = math.Max(peak, freq[w])
		}
	}
	for w, v := range freq {
		freq[w] = v / peak
	}
	return freq
}

// score is length normalized so long sentences are not favoured.
func (s *Summarizer) score(sentence string, freq map[string]float64) float64 {
	ws := words(sentence)
	if len(ws) == 0 {
		return 0
	}
	total := 0.0
	for _, w := range ws {
		total += freq[w]
	}
	return total / math.Sqrt(float64(len(ws)))
}

func words(text string) []string {
	return wordPattern.FindAllString(strings.ToLower(text), -1)
}

func defaultStopwords() map[string]struct{} {
	list := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at", "by", "with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "its", "this", "that", "these", "those", "from", "up", "down", "over", "under", "again", "further", "than", "so", "such", "into", "about", "between", "through", "during", "before", "after", "above", "below", "out", "off", "own", "same", "too", "very", "can", "will", "just", "should", "now",
	}
	m := make(map[string]struct{}, len(list))
	for _, w := range list {
		m[w] = struct{}{}
	}
	return m
}
