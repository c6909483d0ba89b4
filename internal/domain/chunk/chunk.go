package chunk

import (
	"errors"
	"fmt"
	"strings"
)

// Chunk is a core span of document text plus its surrounding window (immutable value object).
// Only the core text is embedded; the window is handed to the model at synthesis time.
type Chunk struct {
	docID  string
	text   string
	window string
	order  int
}

// New validates and creates a Chunk. The window must contain the core text.
func New(docID, text, window string, order int) (Chunk, error) {
	if docID == "" {
		return Chunk{}, errors.New("chunk document ID is required")
	}
	if text == "" {
		return Chunk{}, errors.New("chunk text is required")
	}
	if !strings.Contains(window, text) {
		return Chunk{}, fmt.Errorf("chunk %s/%d: window does not contain core text", docID, order)
	}
	if order < 0 {
		return Chunk{}, fmt.Errorf("chunk %s: negative order %d", docID, order)
	}
	return Chunk{docID: docID, text: text, window: window, order: order}, nil
}

// DocID returns the owning document identifier.
func (c *Chunk) DocID() string { return c.docID }

// Text returns the core span used for similarity scoring.
func (c *Chunk) Text() string { return c.text }

// Window returns the core span with its surrounding context.
func (c *Chunk) Window() string { return c.window }

// Order returns the position of the chunk within its document, starting at 0.
func (c *Chunk) Order() int { return c.order }
