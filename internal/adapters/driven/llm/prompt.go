// Package llm holds the prompt contract shared by the chat provider
// adapters.
package llm

import "fmt"

// SystemPrompt pins answers to the supplied context pack and the [#n]
// citation convention. All chat providers use it verbatim so answers
// stay comparable across providers.
const SystemPrompt = "You are Vectorpenter: answer ONLY using the provided Context Pack. " +
	"If the context is insufficient, say what's missing and suggest a next step. " +
	"Cite with bracketed numbers like [#1], [#2] that refer to the Context Pack entries."

// UserMessage renders the question and context pack into the user turn.
func UserMessage(question, contextPack string) string {
	return fmt.Sprintf("QUESTION: %s\n\nCONTEXT PACK:\n%s", question, contextPack)
}
