package classify

import (
	"regexp"
	"strings"
)

// phraseSet matches any of its phrases as whole words, so "hi" does not fire inside "this".
type phraseSet struct {
	re *regexp.Regexp
}

func newPhraseSet(phrases ...string) phraseSet {
	quoted := make([]string, len(phrases))
	for i, p := range phrases {
		quoted[i] = regexp.QuoteMeta(p)
	}
	return phraseSet{re: regexp.MustCompile(
		`(?:^|[^\p{L}\p{N}])(?:` + strings.Join(quoted, "|") + `)(?:$|[^\p{L}\p{N}])`,
	)}
}

func (p phraseSet) match(q string) bool { return p.re.MatchString(q) }

var (
	greetingPhrases = newPhraseSet(
		"hello", "hi", "hey", "hiya", "howdy", "greetings", "yo",
		"good morning", "good afternoon", "good evening",
		"what's up", "whats up", "how are you", "how's it going", "hows it going",
	)

	farewellPhrases = newPhraseSet(
		"bye", "goodbye", "good bye", "bye bye", "farewell", "see you", "see ya", "cya",
		"see you later", "talk to you later", "catch you later", "take care", "good night", "have a nice day",
	)

	helpPhrases = newPhraseSet(
		"help", "help me", "need help", "can you help", "assist me", "guide me",
		"what can you do", "how do i use", "how to use this", "how does this work",
		"show me how", "get started", "instructions",
	)

	creativePhrases = newPhraseSet(
		"brainstorm", "come up with", "ideas for", "generate ideas", "suggest ideas",
		"imagine", "write a story", "write a poem", "poem", "story about", "creative",
		"invent", "slogan", "tagline", "design a",
	)

	comparisonPhrases = newPhraseSet(
		"compare", "comparison", "comparing", "versus", "vs", "difference between",
		"differences between", "better than", "worse than", "pros and cons",
		"which is better", "similarities", "contrast",
	)

	technicalPhrases = newPhraseSet(
		"error", "errors", "bug", "crash", "crashes", "not working", "doesn't work",
		"does not work", "broken", "fix", "troubleshoot", "debug", "exception",
		"stack trace", "install", "configure", "failed", "fails", "timeout",
	)

	transactionalPhrases = newPhraseSet(
		"buy", "purchase", "price", "pricing", "cost", "costs", "how much", "place an order",
		"subscribe", "subscription", "refund", "payment", "pay for", "discount", "checkout",
	)

	educationalPhrases = newPhraseSet(
		"learn", "learning", "teach me", "study", "tutorial", "lesson", "course",
		"homework", "exam", "quiz me", "understand", "concept", "theory", "lecture",
	)

	personalPhrases = newPhraseSet(
		"i feel", "i am feeling", "i'm feeling", "my life", "my day", "advice", "should i",
		"my health", "my family", "relationship", "stressed", "stress", "motivation",
		"hobby", "diet", "workout", "lonely", "my goals",
	)

	conversationalPhrases = newPhraseSet(
		"thanks", "thank you", "thx", "appreciate it", "much appreciated", "sorry",
		"no problem", "you're welcome", "ok", "okay", "cool", "awesome", "great job",
		"i agree", "i disagree", "in my opinion", "i think", "i believe",
		"do you like", "your opinion", "do you think",
	)

	informationalPhrases = newPhraseSet(
		"what", "who", "when", "where", "why", "how", "which",
		"define", "definition", "explain", "describe", "meaning of",
		"tell me about", "summarize", "summarise", "summary",
	)

	documentPhrases = newPhraseSet(
		"document", "documents", "doc", "docs", "pdf", "pdfs", "file", "files",
		"report", "reports", "paper", "papers", "uploaded", "upload", "attachment",
		"manual", "page", "pages", "section", "chapter", "contract", "slides",
	)
)
