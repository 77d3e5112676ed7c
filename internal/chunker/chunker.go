// Package chunker splits raw text into bounded, overlapping segments.
// Sizes and offsets are measured in bytes; cuts never split a UTF-8 sequence.
package chunker

import (
	"strings"
	"unicode/utf8"

	"ragcore/internal/domain"
)

// Default values
const (
	DefaultMaxChunkSize = 1000
	DefaultChunkOverlap = 200
)

// DefaultSeparators are tried from coarsest to finest.
var DefaultSeparators = []string{"\n\n", "\n", ". ", ", ", " "}

// Config configures recursive chunking.
type Config struct {
	MaxChunkSize int
	ChunkOverlap int
	Separators   []string
	// PreserveStructure is not used by the splitter; it is carried for
	// downstream formatting.
	PreserveStructure bool
}

// DefaultConfig returns the default chunking configuration.
func DefaultConfig() Config {
	return Config{
		MaxChunkSize: DefaultMaxChunkSize,
		ChunkOverlap: DefaultChunkOverlap,
		Separators:   append([]string(nil), DefaultSeparators...),
	}
}

// Validate reports whether the configuration is usable.
func (c Config) Validate() error {
	if c.MaxChunkSize <= 0 {
		return domain.ConfigErrorf("max chunk size must be positive, got %d", c.MaxChunkSize)
	}
	if c.ChunkOverlap < 0 {
		return domain.ConfigErrorf("chunk overlap must not be negative, got %d", c.ChunkOverlap)
	}
	if c.ChunkOverlap >= c.MaxChunkSize {
		return domain.ConfigErrorf("chunk overlap %d must be smaller than max chunk size %d", c.ChunkOverlap, c.MaxChunkSize)
	}
	return nil
}

// Chunker splits text by recursively trying finer separators.
type Chunker struct {
	config Config
}

// New creates a chunker. A nil separator list selects DefaultSeparators.
func New(cfg Config) (*Chunker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Separators == nil {
		cfg.Separators = append([]string(nil), DefaultSeparators...)
	}
	return &Chunker{config: cfg}, nil
}

// Chunk splits text with the given configuration.
func Chunk(text string, cfg Config) ([]domain.TextChunk, error) {
	c, err := New(cfg)
	if err != nil {
		return nil, err
	}
	return c.Chunk(text), nil
}

// Config returns the chunker configuration.
func (c *Chunker) Config() Config { return c.config }

type span struct {
	start, end int
}

func (s span) len() int { return s.end - s.start }

// Chunk splits text into ordered chunks. Every chunk after the first is
// prefixed with the trailing ChunkOverlap bytes of the previous raw unit;
// offsets always describe the raw unit without that prefix.
func (c *Chunker) Chunk(text string) []domain.TextChunk {
	if len(text) <= c.config.MaxChunkSize {
		if strings.TrimSpace(text) == "" {
			return nil
		}
		return []domain.TextChunk{{Content: text, Index: 0, StartOffset: 0, EndOffset: len(text)}}
	}

	units := c.split(text, span{0, len(text)}, c.config.Separators)

	chunks := make([]domain.TextChunk, 0, len(units))
	for i, u := range units {
		content := text[u.start:u.end]
		if strings.TrimSpace(content) == "" {
			continue
		}
		if i > 0 && c.config.ChunkOverlap > 0 {
			prev := units[i-1]
			from := max(prev.start, prev.end-c.config.ChunkOverlap)
			from = runeStartAfter(text, from, prev.end)
			content = text[from:prev.end] + content
		}
		chunks = append(chunks, domain.TextChunk{
			Content:     content,
			Index:       len(chunks),
			StartOffset: u.start,
			EndOffset:   u.end,
		})
	}
	return chunks
}

func (c *Chunker) split(text string, s span, separators []string) []span {
	if s.len() <= c.config.MaxChunkSize {
		return []span{s}
	}
	if len(separators) == 0 {
		return c.hardSplit(text, s)
	}
	sep, finer := separators[0], separators[1:]
	segment := text[s.start:s.end]
	if sep == "" || !strings.Contains(segment, sep) {
		return c.split(text, s, finer)
	}

	var (
		out  []span
		buf  span
		have bool
	)
	pos := s.start
	for _, part := range strings.Split(segment, sep) {
		p := span{pos, pos + len(part)}
		pos = p.end + len(sep)

		// buf followed by sep and part is exactly text[buf.start:p.end].
		if have && p.end-buf.start <= c.config.MaxChunkSize {
			buf.end = p.end
			continue
		}
		if have {
			out = append(out, buf)
			have = false
		}
		if p.len() > c.config.MaxChunkSize {
			out = append(out, c.split(text, p, finer)...)
			continue
		}
		buf, have = p, true
	}
	if have {
		out = append(out, buf)
	}
	return out
}

// hardSplit cuts an indivisible span into consecutive windows of
// MaxChunkSize-ChunkOverlap bytes so that overlap-augmented content stays
// within MaxChunkSize.
func (c *Chunker) hardSplit(text string, s span) []span {
	stride := c.config.MaxChunkSize - c.config.ChunkOverlap
	var out []span
	for start := s.start; start < s.end; {
		end := min(start+stride, s.end)
		end = runeStartBefore(text, end, start)
		out = append(out, span{start, end})
		start = end
	}
	return out
}

// runeStartBefore moves i back to a rune boundary without reaching floor.
// When no boundary lies in (floor, i] it moves forward instead.
func runeStartBefore(text string, i, floor int) int {
	if i >= len(text) {
		return len(text)
	}
	j := i
	for j > floor && !utf8.RuneStart(text[j]) {
		j--
	}
	if j > floor {
		return j
	}
	for i < len(text) && !utf8.RuneStart(text[i]) {
		i++
	}
	return i
}

// runeStartAfter moves i forward to a rune boundary, stopping at ceil.
func runeStartAfter(text string, i, ceil int) int {
	for i < ceil && !utf8.RuneStart(text[i]) {
		i++
	}
	return i
}
