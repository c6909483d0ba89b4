package indexing

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/kailas-cloud/docrag/internal/domain/chunk"
	"github.com/kailas-cloud/docrag/internal/domain/document"
)

const (
	// DefaultSentencesPerChunk is the core size of a chunk.
	DefaultSentencesPerChunk = 1
	// DefaultWindowSize is the number of context sentences on each side of the core.
	DefaultWindowSize = 2
	// DefaultMaxSentenceRunes caps a single sentence; longer runs are cut on word boundaries.
	DefaultMaxSentenceRunes = 1500
)

// A sentence ends with terminal punctuation (plus closing quotes/brackets) or at the end of the text.
var sentenceRegex = regexp.MustCompile(`[^.!?]+(?:[.!?]+["'\x{201D}\x{2019})\]]*|$)`)

// ChunkOptions controls sentence-window chunking.
type ChunkOptions struct {
	SentencesPerChunk int
	WindowSize        int
	MaxSentenceRunes  int
}

// DefaultChunkOptions returns one-sentence cores with two sentences of context per side.
func DefaultChunkOptions() ChunkOptions {
	return ChunkOptions{
		SentencesPerChunk: DefaultSentencesPerChunk,
		WindowSize:        DefaultWindowSize,
		MaxSentenceRunes:  DefaultMaxSentenceRunes,
	}
}

// SentenceWindowChunker splits documents into sentence cores with a window of neighbouring sentences.
type SentenceWindowChunker struct {
	opts ChunkOptions
}

// NewSentenceWindowChunker creates a chunker. Non-positive options fall back to defaults.
func NewSentenceWindowChunker(opts ChunkOptions) *SentenceWindowChunker {
	if opts.SentencesPerChunk <= 0 {
		opts.SentencesPerChunk = DefaultSentencesPerChunk
	}
	if opts.WindowSize < 0 {
		opts.WindowSize = DefaultWindowSize
	}
	if opts.MaxSentenceRunes <= 0 {
		opts.MaxSentenceRunes = DefaultMaxSentenceRunes
	}
	return &SentenceWindowChunker{opts: opts}
}

// Split returns the chunks of doc in document order.
func (c *SentenceWindowChunker) Split(doc document.Document) ([]chunk.Chunk, error) {
	sentences := c.sentences(doc.Text())
	if len(sentences) == 0 {
		return nil, nil
	}

	n := len(sentences)
	chunks := make([]chunk.Chunk, 0, (n+c.opts.SentencesPerChunk-1)/c.opts.SentencesPerChunk)
	for start, order := 0, 0; start < n; start, order = start+c.opts.SentencesPerChunk, order+1 {
		end := min(start+c.opts.SentencesPerChunk, n)
		winStart := max(0, start-c.opts.WindowSize)
		winEnd := min(n, end+c.opts.WindowSize)

		ch, err := chunk.New(
			doc.ID(),
			strings.Join(sentences[start:end], " "),
			strings.Join(sentences[winStart:winEnd], " "),
			order,
		)
		if err != nil {
			return nil, fmt.Errorf("chunk %s: %w", doc.ID(), err)
		}
		chunks = append(chunks, ch)
	}
	return chunks, nil
}

// sentences splits text and normalizes whitespace so that joined cores are substrings of joined windows.
func (c *SentenceWindowChunker) sentences(text string) []string {
	var out []string
	for _, raw := range sentenceRegex.FindAllString(text, -1) {
		s := strings.Join(strings.Fields(raw), " ")
		if strings.IndexFunc(s, isWordRune) < 0 {
			continue
		}
		out = append(out, splitLong(s, c.opts.MaxSentenceRunes)...)
	}
	return out
}

// splitLong cuts s into pieces of at most maxRunes, breaking between words where possible.
func splitLong(s string, maxRunes int) []string {
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return []string{s}
	}

	var parts []string
	for len(runes) > maxRunes {
		cut := maxRunes
		for i := maxRunes; i > maxRunes/2; i-- {
			if runes[i] == ' ' {
				cut = i
				break
			}
		}
		parts = append(parts, strings.TrimSpace(string(runes[:cut])))
		runes = []rune(strings.TrimSpace(string(runes[cut:])))
	}
	if len(runes) > 0 {
		parts = append(parts, string(runes))
	}
	return parts
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
