package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/machinecraft-tech/vectorpenter/internal/core/domain"
	"github.com/machinecraft-tech/vectorpenter/internal/resilience"
)

func testChatService(t *testing.T, handler http.HandlerFunc) *ChatService {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	s, err := NewChatService(Config{APIKey: "sk-test", BaseURL: srv.URL})
	require.NoError(t, err)
	return s
}

func chatResponse(text string) []byte {
	b, _ := json.Marshal(openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Role: "assistant", Content: text}},
		},
	})
	return b
}

func TestAnswerSendsPromptContract(t *testing.T) {
	var gotReq openai.ChatCompletionRequest
	s := testChatService(t, func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "/chat/completions", req.URL.Path)
		assert.Equal(t, "Bearer sk-test", req.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(req.Body).Decode(&gotReq))

		w.Header().Set("Content-Type", "application/json")
		w.Write(chatResponse("The answer is 42 [#1]."))
	})

	answer, err := s.Answer(context.Background(), "What is the answer?", "[#1] life.md::0\nThe answer is 42.\n\n")
	require.NoError(t, err)
	assert.Equal(t, "The answer is 42 [#1].", answer)

	assert.Equal(t, DefaultModel, gotReq.Model)
	assert.Equal(t, float32(0.2), gotReq.Temperature)
	require.Len(t, gotReq.Messages, 2)
	assert.Equal(t, openai.ChatMessageRoleSystem, gotReq.Messages[0].Role)
	assert.Contains(t, gotReq.Messages[0].Content, "You are Vectorpenter:")
	assert.Equal(t, openai.ChatMessageRoleUser, gotReq.Messages[1].Role)
	assert.Contains(t, gotReq.Messages[1].Content, "QUESTION: What is the answer?")
	assert.Contains(t, gotReq.Messages[1].Content, "CONTEXT PACK:\n[#1] life.md::0")
}

func TestAnswerServerError(t *testing.T) {
	s := testChatService(t, func(w http.ResponseWriter, req *http.Request) {
		http.Error(w, `{"error": {"message": "invalid key"}}`, http.StatusUnauthorized)
	})
	s.retry = resilience.RetryPolicy{MaxAttempts: 1}

	_, err := s.Answer(context.Background(), "q", "pack")
	require.Error(t, err)
	assert.True(t, domain.IsService(err, domain.ServiceGeneration))
}

func TestAnswerNoChoices(t *testing.T) {
	s := testChatService(t, func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices": []}`))
	})

	_, err := s.Answer(context.Background(), "q", "pack")
	require.Error(t, err)
	assert.True(t, domain.IsService(err, domain.ServiceGeneration))
}

func TestNewChatServiceRequiresKey(t *testing.T) {
	_, err := NewChatService(Config{})
	assert.Error(t, err)
}

func TestNewChatServiceDefaults(t *testing.T) {
	s, err := NewChatService(Config{APIKey: "sk"})
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, s.ModelName())
}
