// Package vertex provides a chat service adapter backed by the Vertex
// AI Gemini REST API. It is the optional primary chat provider; when
// it fails the pipeline falls back to OpenAI.
package vertex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/machinecraft-tech/vectorpenter/internal/adapters/driven/llm"
	"github.com/machinecraft-tech/vectorpenter/internal/core/domain"
	"github.com/machinecraft-tech/vectorpenter/internal/core/ports/driven"
)

// Ensure ChatService implements the interface.
var _ driven.ChatService = (*ChatService)(nil)

// Default configuration values.
const (
	DefaultModel    = "gemini-1.5-pro"
	DefaultLocation = "us-central1"
	DefaultTimeout  = 60 * time.Second

	cloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"
)

// Config holds configuration for the Vertex AI chat service.
type Config struct {
	// ProjectID is the GCP project (required).
	ProjectID string

	// Location is the Vertex AI region (default: us-central1).
	Location string

	// Model is the Gemini model to use (default: gemini-1.5-pro).
	Model string

	// Timeout is the request timeout (default: 60s).
	Timeout time.Duration

	// BaseURL overrides the regional endpoint; used in tests.
	BaseURL string

	// TokenSource overrides application default credentials; used in
	// tests.
	TokenSource oauth2.TokenSource
}

// ChatService generates cited answers via Vertex AI Gemini.
type ChatService struct {
	client  *http.Client
	baseURL string
	model   string
}

// NewChatService creates a new Vertex AI chat service using
// application default credentials.
func NewChatService(ctx context.Context, cfg Config) (*ChatService, error) {
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("vertex: project ID is required")
	}
	if cfg.Location == "" {
		cfg.Location = DefaultLocation
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	ts := cfg.TokenSource
	if ts == nil {
		var err error
		ts, err = google.DefaultTokenSource(ctx, cloudPlatformScope)
		if err != nil {
			return nil, fmt.Errorf("vertex: loading credentials: %w", err)
		}
	}

	client := oauth2.NewClient(ctx, ts)
	client.Timeout = cfg.Timeout

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s-aiplatform.googleapis.com", cfg.Location)
	}

	return &ChatService{
		client: client,
		baseURL: fmt.Sprintf("%s/v1/projects/%s/locations/%s/publishers/google/models",
			baseURL, cfg.ProjectID, cfg.Location),
		model: cfg.Model,
	}, nil
}

// generateRequest is the Gemini generateContent request format.
type generateRequest struct {
	Contents          []content     `json:"contents"`
	SystemInstruction *content      `json:"systemInstruction,omitempty"`
	GenerationConfig  generationCfg `json:"generationConfig"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationCfg struct {
	Temperature     float64 `json:"temperature"`
	TopP            float64 `json:"topP"`
	TopK            int     `json:"topK"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

// generateResponse is the Gemini generateContent response format.
type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// Answer generates a cited answer for the question from the context
// pack.
func (s *ChatService) Answer(ctx context.Context, question, contextPack string) (string, error) {
	reqBody := generateRequest{
		Contents: []content{
			{Role: "user", Parts: []part{{Text: llm.UserMessage(question, contextPack)}}},
		},
		SystemInstruction: &content{Parts: []part{{Text: llm.SystemPrompt}}},
		GenerationConfig: generationCfg{
			Temperature:     0.2,
			TopP:            0.8,
			TopK:            40,
			MaxOutputTokens: 2048,
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", domain.GenerationError("answer", err)
	}

	url := fmt.Sprintf("%s/%s:generateContent", s.baseURL, s.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return "", domain.GenerationError("answer", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", domain.GenerationError("answer", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", domain.GenerationError("answer", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", domain.GenerationError("answer",
			fmt.Errorf("vertex error (status %d): %s", resp.StatusCode, string(body)))
	}

	var gr generateResponse
	if err := json.Unmarshal(body, &gr); err != nil {
		return "", domain.GenerationError("answer", err)
	}

	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		return "", domain.GenerationError("answer", fmt.Errorf("empty response"))
	}
	return gr.Candidates[0].Content.Parts[0].Text, nil
}

// ModelName returns the chat model in use.
func (s *ChatService) ModelName() string {
	return s.model
}
