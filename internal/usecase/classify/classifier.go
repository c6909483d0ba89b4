// Package classify maps raw query text to an intent with an ordered rule table. No I/O, no randomness.
package classify

import (
	"strings"
	"unicode/utf8"

	"github.com/kailas-cloud/docrag/internal/domain/intent"
)

const (
	minQueryRunes   = 2
	minGeneralWords = 3
)

// rule is one row of the priority table; the first matching row wins.
type rule struct {
	intent intent.Intent
	match  func(q string) bool
}

var rules = []rule{
	{intent.Unclear, func(q string) bool { return utf8.RuneCountInString(q) < minQueryRunes }},
	{intent.Greeting, greetingPhrases.match},
	{intent.Farewell, farewellPhrases.match},
	{intent.HelpRequest, helpPhrases.match},
	{intent.Creative, creativePhrases.match},
	{intent.Comparison, comparisonPhrases.match},
	{intent.Technical, technicalPhrases.match},
	{intent.Transactional, transactionalPhrases.match},
	{intent.Hybrid, func(q string) bool { return informationalPhrases.match(q) && documentPhrases.match(q) }},
	{intent.General, informationalPhrases.match},
	{intent.Educational, educationalPhrases.match},
	{intent.Personal, personalPhrases.match},
	{intent.Conversational, conversationalPhrases.match},
	{intent.DocumentSpecific, documentPhrases.match},
}

// Classifier is the rule-table classifier. The zero value is ready to use.
type Classifier struct{}

// New returns a Classifier.
func New() *Classifier { return &Classifier{} }

// Classify implements the query service's classifier contract.
func (*Classifier) Classify(raw string) intent.Intent { return Classify(raw) }

// Classify returns the intent of raw. It lower-cases and trims before matching.
func Classify(raw string) intent.Intent {
	q := strings.ToLower(strings.TrimSpace(raw))

	for _, r := range rules {
		if r.match(q) {
			return r.intent
		}
	}

	if len(strings.Fields(q)) < minGeneralWords {
		return intent.Unclear
	}
	return intent.General
}

// Priority returns the rule order, first match wins. Fallback is not part of the table.
func Priority() []intent.Intent {
	out := make([]intent.Intent, len(rules))
	for i, r := range rules {
		out[i] = r.intent
	}
	return out
}
