package answer

import (
	"time"
	"unicode/utf8"

	"github.com/kailas-cloud/docrag/internal/domain/intent"
)

// PreviewLimit bounds the attribution preview length in runes.
const PreviewLimit = 200

// PlaceholderName is shown when an attribution could not be built.
const PlaceholderName = "Document Reference"

const ellipsis = "..."

// Attribution is the client-facing projection of one retrieved candidate.
type Attribution struct {
	DisplayName string
	FileName    string
	Page        string
	Size        int64
	Preview     string
	Score       float64
}

// Placeholder returns the attribution used in place of one that failed to build.
func Placeholder() Attribution {
	return Attribution{DisplayName: PlaceholderName, FileName: PlaceholderName}
}

// Preview truncates text to limit runes, appending "..." when anything was cut.
func Preview(text string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)
	return string(runes[:limit]) + ellipsis
}

// Response is the final answer to a query (immutable).
type Response struct {
	text    string
	sources []Attribution
	model   string
	intent  intent.Intent
	elapsed time.Duration
}

// New creates a Response. sources may be nil.
func New(text string, sources []Attribution, model string, in intent.Intent, elapsed time.Duration) Response {
	src := make([]Attribution, len(sources))
	copy(src, sources)
	return Response{text: text, sources: src, model: model, intent: in, elapsed: elapsed}
}

// Text returns the answer text.
func (r *Response) Text() string { return r.text }

// Sources returns the attributions, never nil.
func (r *Response) Sources() []Attribution { return r.sources }

// Model returns the identifier of the model that produced the text.
func (r *Response) Model() string { return r.model }

// Intent returns the classified intent.
func (r *Response) Intent() intent.Intent { return r.intent }

// Elapsed returns the wall-clock time from receipt to construction.
func (r *Response) Elapsed() time.Duration { return r.elapsed }
