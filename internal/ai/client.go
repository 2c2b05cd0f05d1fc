package ai

import (
	"context"
	"errors"
	"hash/fnv"
	"math"
	"strings"
)

// Client provides embedding and text-generation capabilities. Implementations
// are constructed once at process start and shared read-only by the batch; they
// must return one vector per input text, in input order, with a fixed Dim().
type Client interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Generate(ctx context.Context, system, user string) (string, error)
	Dim() int
}

// Provider is enumeration of supported AI providers
type Provider string

const (
	ProviderOpenAI   Provider = "openai"
	ProviderVertexAI Provider = "vertexai"
	ProviderStub     Provider = "stub"
)

// ClientConfig holds configuration for AI clients
type ClientConfig struct {
	APIKey     string
	EmbedModel string
	QuizModel  string
	Dim        int
	ProjectID  string
	Provider   Provider
	Location   string
}

// NewClient creates a new AI client based on configuration
func NewClient(config *ClientConfig) (Client, error) {
	if config == nil {
		return nil, errors.New("client config is required")
	}

	ctx := context.Background()
	switch config.Provider {
	case ProviderOpenAI:
		return NewOpenAIClient(config), nil
	case ProviderVertexAI:
		return NewVertexAIClient(ctx, config)
	case ProviderStub:
		return NewStubClient(config.Dim), nil
	default:
		return nil, errors.New("unsupported provider: " + string(config.Provider))
	}
}

// StubClient is a deterministic implementation of the Client interface for
// testing. Vectors are normalized bag-of-words hash histograms, so identical
// texts embed identically and word-overlapping texts score high cosine.
type StubClient struct {
	dim int
}

// NewStubClient creates a new StubClient
func NewStubClient(dim int) *StubClient {
	if dim <= 0 {
		dim = 64
	}
	return &StubClient{dim: dim}
}

// EmbedBatch implements the embedding functionality
func (s *StubClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = s.embedOne(t)
	}
	return out, nil
}

func (s *StubClient) embedOne(text string) []float32 {
	v := make([]float32, s.dim)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(w))
		v[int(h.Sum32())%s.dim]++
	}
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if norm == 0 {
		return v
	}
	norm = math.Sqrt(norm)
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
	return v
}

// Generate implements the text-generation functionality
func (s *StubClient) Generate(ctx context.Context, system, user string) (string, error) {
	// Echo enough of the request for callers to assert against
	lines := strings.Split(user, "\n")
	return "stub response: " + strings.TrimSpace(lines[0]), nil
}

// Dim returns the embedding dimension
func (s *StubClient) Dim() int {
	return s.dim
}
