package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"
)

// MockTransport implements http.RoundTripper for testing
type MockTransport struct {
	mu             sync.RWMutex
	responses      map[string]*http.Response
	responseBodies map[string]string
	requests       []*http.Request
	requestBodies  []string
}

func NewMockTransport() *MockTransport {
	return &MockTransport{
		responses:      make(map[string]*http.Response),
		responseBodies: make(map[string]string),
	}
}

func (m *MockTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, req)
	var body string
	if req.Body != nil {
		b, _ := io.ReadAll(req.Body)
		body = string(b)
	}
	m.requestBodies = append(m.requestBodies, body)

	key := fmt.Sprintf("%s %s", req.Method, req.URL.String())
	if respData, exists := m.responses[key]; exists {
		return &http.Response{
			StatusCode: respData.StatusCode,
			Status:     respData.Status,
			Body:       io.NopCloser(strings.NewReader(m.responseBodies[key])),
			Header:     make(http.Header),
		}, nil
	}

	return &http.Response{
		StatusCode: 500,
		Status:     "500 Internal Server Error",
		Body:       io.NopCloser(strings.NewReader(`{"error": {"message": "Mock not configured"}}`)),
		Header:     make(http.Header),
	}, nil
}

func (m *MockTransport) AddResponse(method, url string, statusCode int, body string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := fmt.Sprintf("%s %s", method, url)
	m.responses[key] = &http.Response{
		StatusCode: statusCode,
		Status:     fmt.Sprintf("%d %s", statusCode, http.StatusText(statusCode)),
	}
	m.responseBodies[key] = body
}

func (m *MockTransport) LastRequestBody() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.requestBodies) == 0 {
		return ""
	}
	return m.requestBodies[len(m.requestBodies)-1]
}

// Helper function to create a client with mock transport
func createMockClient(transport *MockTransport) *OpenAIClient {
	config := &ClientConfig{
		APIKey:     "test-api-key",
		EmbedModel: "text-embedding-3-small",
		QuizModel:  "gpt-4o-mini",
		Dim:        512,
		ProjectID:  "test-project",
	}

	client := NewOpenAIClient(config)
	client.http = &http.Client{
		Transport: transport,
		Timeout:   20 * time.Second,
	}

	return client
}

func TestNewOpenAIClientDefaults(t *testing.T) {
	tests := []struct {
		name       string
		embedModel string
		wantDim    int
	}{
		{"default small model", "", 1536},
		{"large model", "text-embedding-3-large", 3072},
		{"ada model", "text-embedding-ada-002", 1536},
		{"unknown model", "custom-model", 1536},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewOpenAIClient(&ClientConfig{APIKey: "k", EmbedModel: tt.embedModel})
			if c.Dim() != tt.wantDim {
				t.Errorf("expected dim %d, got %d", tt.wantDim, c.Dim())
			}
			if c.config.QuizModel != "gpt-4o-mini" {
				t.Errorf("expected default quiz model, got %q", c.config.QuizModel)
			}
		})
	}
}

func TestOpenAIClientEmbedBatch(t *testing.T) {
	transport := NewMockTransport()
	transport.AddResponse("POST", "https://api.openai.com/v1/embeddings", 200, `{
		"data": [
			{"index": 1, "embedding": [0.4, 0.5, 0.6]},
			{"index": 0, "embedding": [0.1, 0.2, 0.3]}
		]
	}`)

	client := createMockClient(transport)
	vecs, err := client.EmbedBatch(context.Background(), []string{"first chunk", "second chunk"})
	if err != nil {
		t.Fatalf("EmbedBatch failed: %v", err)
	}
	if len(vecs) != 2 {
		t.Fatalf("expected 2 vectors, got %d", len(vecs))
	}
	// Response order must not matter; vectors align by index.
	if vecs[0][0] != 0.1 || vecs[1][0] != 0.4 {
		t.Errorf("vectors not aligned by index: %v", vecs)
	}

	var payload struct {
		Input []string `json:"input"`
		Model string   `json:"model"`
	}
	if err := json.Unmarshal([]byte(transport.LastRequestBody()), &payload); err != nil {
		t.Fatalf("request body not valid JSON: %v", err)
	}
	if len(payload.Input) != 2 || payload.Input[0] != "first chunk" {
		t.Errorf("unexpected request input: %v", payload.Input)
	}
	if payload.Model != "text-embedding-3-small" {
		t.Errorf("unexpected request model: %q", payload.Model)
	}
}

func TestOpenAIClientEmbedBatchErrors(t *testing.T) {
	t.Run("missing API key", func(t *testing.T) {
		client := NewOpenAIClient(&ClientConfig{})
		if _, err := client.EmbedBatch(context.Background(), []string{"x"}); err == nil {
			t.Fatal("expected error for missing API key")
		}
	})

	t.Run("empty input", func(t *testing.T) {
		client := createMockClient(NewMockTransport())
		if _, err := client.EmbedBatch(context.Background(), nil); err == nil {
			t.Fatal("expected error for empty input")
		}
	})

	t.Run("non-200 response", func(t *testing.T) {
		transport := NewMockTransport()
		transport.AddResponse("POST", "https://api.openai.com/v1/embeddings", 429, `{"error": {"message": "rate limited"}}`)
		client := createMockClient(transport)
		if _, err := client.EmbedBatch(context.Background(), []string{"x"}); err == nil {
			t.Fatal("expected error for non-200 response")
		}
	})

	t.Run("count mismatch", func(t *testing.T) {
		transport := NewMockTransport()
		transport.AddResponse("POST", "https://api.openai.com/v1/embeddings", 200,
			`{"data": [{"index": 0, "embedding": [0.1]}]}`)
		client := createMockClient(transport)
		_, err := client.EmbedBatch(context.Background(), []string{"a", "b"})
		if err == nil || !strings.Contains(err.Error(), "mismatch") {
			t.Fatalf("expected count mismatch error, got %v", err)
		}
	})
}

func TestOpenAIClientGenerate(t *testing.T) {
	transport := NewMockTransport()
	transport.AddResponse("POST", "https://api.openai.com/v1/chat/completions", 200, `{
		"choices": [{"message": {"content": "  Q1: What is a goroutine?  "}}]
	}`)

	client := createMockClient(transport)
	out, err := client.Generate(context.Background(), "you are a quiz writer", "write a quiz")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if out != "Q1: What is a goroutine?" {
		t.Errorf("expected trimmed content, got %q", out)
	}
}

func TestOpenAIClientGenerateError(t *testing.T) {
	transport := NewMockTransport()
	transport.AddResponse("POST", "https://api.openai.com/v1/chat/completions", 400,
		`{"error": {"message": "bad request"}}`)

	client := createMockClient(transport)
	_, err := client.Generate(context.Background(), "s", "u")
	if err == nil || !strings.Contains(err.Error(), "bad request") {
		t.Fatalf("expected API error message, got %v", err)
	}
}

func TestOpenAIClientSetHeaders(t *testing.T) {
	transport := NewMockTransport()
	transport.AddResponse("POST", "https://api.openai.com/v1/embeddings", 200,
		`{"data": [{"index": 0, "embedding": [0.1]}]}`)

	config := &ClientConfig{APIKey: "sk-proj-abc", ProjectID: "proj-1"}
	client := NewOpenAIClient(config)
	client.http = &http.Client{Transport: transport}

	if _, err := client.EmbedBatch(context.Background(), []string{"x"}); err != nil {
		t.Fatalf("EmbedBatch failed: %v", err)
	}

	transport.mu.RLock()
	req := transport.requests[len(transport.requests)-1]
	transport.mu.RUnlock()

	if got := req.Header.Get("Authorization"); got != "Bearer sk-proj-abc" {
		t.Errorf("unexpected Authorization header: %q", got)
	}
	if got := req.Header.Get("OpenAI-Project"); got != "proj-1" {
		t.Errorf("expected OpenAI-Project header for project-scoped keys, got %q", got)
	}
}
