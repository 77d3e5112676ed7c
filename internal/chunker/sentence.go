package chunker

import (
	"regexp"
	"strings"

	"ragcore/internal/domain"
)

// DefaultSentencesPerChunk is used when a non-positive count is requested.
const DefaultSentencesPerChunk = 5

// A run of terminators ends a sentence; a trailing unterminated fragment is
// kept as its own sentence.
var sentencePattern = regexp.MustCompile(`[^.!?]+[.!?]+|[^.!?]+$`)

// ChunkBySentences groups consecutive sentences into chunks of
// sentencesPerChunk, joined by a single space. Offsets are a running count of
// the joined chunk lengths plus one separator byte each.
func ChunkBySentences(text string, sentencesPerChunk int) []domain.TextChunk {
	if sentencesPerChunk <= 0 {
		sentencesPerChunk = DefaultSentencesPerChunk
	}
	raw := sentencePattern.FindAllString(text, -1)
	sentences := raw[:0]
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			sentences = append(sentences, s)
		}
	}

	var chunks []domain.TextChunk
	offset := 0
	for i := 0; i < len(sentences); i += sentencesPerChunk {
		end := min(i+sentencesPerChunk, len(sentences))
		content := strings.Join(sentences[i:end], " ")
		chunks = append(chunks, domain.TextChunk{
			Content:     content,
			Index:       len(chunks),
			StartOffset: offset,
			EndOffset:   offset + len(content),
		})
		offset += len(content) + 1
	}
	return chunks
}
