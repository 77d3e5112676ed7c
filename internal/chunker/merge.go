package chunker

import (
	"maps"

	"ragcore/internal/domain"
)

// MergeSmallChunks folds each chunk shorter than minSize into its successor,
// joining contents with a blank line. Indexes are renumbered sequentially.
func MergeSmallChunks(chunks []domain.TextChunk, minSize int) []domain.TextChunk {
	if len(chunks) == 0 {
		return nil
	}
	out := make([]domain.TextChunk, 0, len(chunks))
	current := chunks[0]
	current.Metadata = maps.Clone(current.Metadata)
	for _, next := range chunks[1:] {
		if len(current.Content) < minSize {
			current.Content += "\n\n" + next.Content
			current.EndOffset = next.EndOffset
			continue
		}
		current.Index = len(out)
		out = append(out, current)
		current = next
		current.Metadata = maps.Clone(current.Metadata)
	}
	current.Index = len(out)
	return append(out, current)
}
