package synthesis

import (
	"fmt"

	"github.com/kailas-cloud/docrag/internal/domain/intent"
)

// template is a system instruction plus a user prompt with one %s for the query.
type template struct {
	system string
	prompt string
}

func (t template) request(query string) (system, prompt string) {
	return t.system, fmt.Sprintf(t.prompt, query)
}

const assistantPersona = "You are a helpful document assistant. Users upload documents and ask questions about them, " +
	"but you also answer general questions. Keep answers clear and well structured."

var genericKnowledge = template{
	system: assistantPersona,
	prompt: "Answer the following question from your general knowledge. " +
		"If the question seems to be about the user's documents, say that no relevant document content was found " +
		"and answer as well as you can.\n\nQuestion: %s",
}

// directTemplates maps every direct-answer intent to its instruction template.
// Intents missing here use genericKnowledge.
var directTemplates = map[intent.Intent]template{
	intent.Greeting: {
		system: assistantPersona,
		prompt: "The user greeted you: %q. Greet them back warmly in one or two sentences and mention " +
			"that you can answer questions about their uploaded documents or general topics.",
	},
	intent.Farewell: {
		system: assistantPersona,
		prompt: "The user is saying goodbye: %q. Reply with a short, friendly farewell.",
	},
	intent.HelpRequest: {
		system: assistantPersona,
		prompt: "The user asks for help: %q. Explain briefly what you can do: answer questions about uploaded " +
			"documents (PDF, DOCX, TXT, Markdown), summarize them, compare them, and answer general questions. " +
			"Give two or three example questions.",
	},
	intent.Unclear: {
		system: assistantPersona,
		prompt: "The user's message is unclear: %q. Politely ask them to rephrase or add detail, " +
			"and suggest what kind of questions you can answer.",
	},
	intent.Creative: {
		system: assistantPersona + " For creative requests, be imaginative and offer several distinct ideas.",
		prompt: "Help with this creative request. Offer varied, concrete ideas as a short list.\n\nRequest: %s",
	},
	intent.Comparison: {
		system: assistantPersona + " For comparisons, be balanced and structured.",
		prompt: "Compare the items in the following question. Cover similarities, differences " +
			"and when each is the better choice. Use a short table or list where it helps.\n\nQuestion: %s",
	},
	intent.Technical: {
		system: assistantPersona + " For technical problems, be precise and practical.",
		prompt: "Help troubleshoot the following problem. List likely causes, then concrete steps " +
			"to diagnose and fix it.\n\nProblem: %s",
	},
	intent.Educational: {
		system: assistantPersona + " For learning questions, teach step by step.",
		prompt: "Explain the following topic to a learner. Start with the core idea, then build up " +
			"with an example.\n\nTopic: %s",
	},
	intent.Personal: {
		system: assistantPersona + " For personal questions, be supportive and practical without giving " +
			"medical, legal or financial diagnoses.",
		prompt: "Respond thoughtfully to the following personal question with practical suggestions.\n\nQuestion: %s",
	},
	intent.Transactional: {
		system: assistantPersona + " You cannot place orders, process payments or look up live prices.",
		prompt: "The user has a purchase or pricing question. Give general guidance and point out what " +
			"information they should check with the vendor.\n\nQuestion: %s",
	},
	intent.Conversational: {
		system: assistantPersona,
		prompt: "Reply naturally and briefly to the following message.\n\nMessage: %s",
	},
	intent.General:          genericKnowledge,
	intent.Hybrid:           genericKnowledge,
	intent.DocumentSpecific: genericKnowledge,
}

func templateFor(in intent.Intent) template {
	if t, ok := directTemplates[in]; ok {
		return t
	}
	return genericKnowledge
}

const groundedSystem = "You are a helpful document assistant. Prefer the provided document context when answering. " +
	"If the context is insufficient, supplement it with general knowledge and say which parts come from the documents. " +
	"Never invent document content."

const qaPrompt = "Context information from the user's documents is below.\n" +
	"---------------------\n%s\n---------------------\n" +
	"Using the context and, where needed, general knowledge, answer the question.\n" +
	"Question: %s\nAnswer:"

const refinePrompt = "The original question is: %s\n" +
	"We have an existing answer:\n%s\n" +
	"We can refine the existing answer (only if needed) with more context below.\n" +
	"---------------------\n%s\n---------------------\n" +
	"Given the new context, refine the original answer. " +
	"If the context isn't useful, return the existing answer unchanged.\nRefined answer:"
