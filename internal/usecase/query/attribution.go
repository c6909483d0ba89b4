package query

import (
	"errors"
	"fmt"

	"github.com/kailas-cloud/docrag/internal/domain/answer"
	"github.com/kailas-cloud/docrag/internal/usecase/retrieval"
	"github.com/kailas-cloud/docrag/internal/usecase/synthesis"
)

var errMissingDocument = errors.New("candidate has no source document")

// attribute projects a candidate to a client-facing attribution.
func attribute(c retrieval.Candidate) (a answer.Attribution, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("attribution panic: %v", r)
		}
	}()

	name := c.Document.FileName()
	if name == "" {
		return answer.Attribution{}, errMissingDocument
	}

	return answer.Attribution{
		DisplayName: c.Document.DisplayName(),
		FileName:    name,
		Page:        c.Document.Page(),
		Size:        c.Document.Size(),
		Preview:     answer.Preview(c.Chunk.Text(), answer.PreviewLimit),
		Score:       c.Score,
	}, nil
}

// passages turns candidates into labelled synthesis context, best first.
func passages(candidates []retrieval.Candidate) []synthesis.Passage {
	out := make([]synthesis.Passage, 0, len(candidates))
	for _, c := range candidates {
		source := c.Document.DisplayName()
		if page := c.Document.Page(); page != "" {
			source += ", page " + page
		}
		out = append(out, synthesis.Passage{Source: source, Text: c.Chunk.Window()})
	}
	return out
}
