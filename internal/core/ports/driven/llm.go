package driven

import "context"

// ChatService generates an answer from a question and an assembled
// context pack. The system contract (answer only from context, cite by
// bracket number) is fixed by the implementation.
//
// Providers are tried in priority order by the query service; a
// provider failure falls through to the next one.
type ChatService interface {
	// Answer generates an answer to the question using only the
	// provided context pack.
	Answer(ctx context.Context, question, contextPack string) (string, error)

	// ModelName returns the name of the chat model being used.
	ModelName() string
}
