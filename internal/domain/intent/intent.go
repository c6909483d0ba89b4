// Package intent defines the closed set of query intents.
package intent

// Intent is the classified purpose of a query.
type Intent string

// Intents in classification priority order.
const (
	Unclear          Intent = "unclear"
	Greeting         Intent = "greeting"
	Farewell         Intent = "farewell"
	HelpRequest      Intent = "help_request"
	Creative         Intent = "creative"
	Comparison       Intent = "comparison"
	Technical        Intent = "technical"
	Transactional    Intent = "transactional"
	Hybrid           Intent = "hybrid"
	General          Intent = "general"
	Educational      Intent = "educational"
	Personal         Intent = "personal"
	Conversational   Intent = "conversational"
	DocumentSpecific Intent = "document_specific"
)

var all = []Intent{
	Unclear, Greeting, Farewell, HelpRequest, Creative, Comparison, Technical,
	Transactional, Hybrid, General, Educational, Personal, Conversational, DocumentSpecific,
}

// All returns every intent.
func All() []Intent {
	out := make([]Intent, len(all))
	copy(out, all)
	return out
}

// Valid reports whether i is a member of the closed set.
func (i Intent) Valid() bool {
	for _, v := range all {
		if v == i {
			return true
		}
	}
	return false
}

// UsesRetrieval reports whether the intent is answered from the document index.
func (i Intent) UsesRetrieval() bool {
	switch i {
	case General, Hybrid, DocumentSpecific:
		return true
	default:
		return false
	}
}

// AnswerableWithoutDocuments reports whether a retrieval intent may fall back to a direct
// answer when the corpus is empty.
func (i Intent) AnswerableWithoutDocuments() bool {
	return i != DocumentSpecific
}

func (i Intent) String() string { return string(i) }
