package embed

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/dgallion1/secgest/internal/llm"
)

const (
	// DefaultModel is the OpenAI model used for chunk and question embeddings.
	DefaultModel = openai.SmallEmbedding3
	// DefaultDimensions is the vector width DefaultModel returns.
	DefaultDimensions = 1536
)

var (
	// ErrEmptyText is returned when text is empty
	ErrEmptyText = errors.New("text cannot be empty")
	// ErrWrongDimensions is returned when an embedding has an unexpected width
	ErrWrongDimensions = errors.New("embedding has wrong dimensions")
)

// Embedder turns text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// EmbeddingAPI is the raw provider call, separated out for tests.
type EmbeddingAPI interface {
	CreateEmbeddings(ctx context.Context, text string) ([]float32, error)
}

// OpenAIAdapter implements EmbeddingAPI over go-openai.
type OpenAIAdapter struct {
	client *openai.Client
	model  openai.EmbeddingModel
}

func NewOpenAIAdapter(apiKey, baseURL string, model openai.EmbeddingModel) *OpenAIAdapter {
	if model == "" {
		model = DefaultModel
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIAdapter{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// CreateEmbeddings calls the OpenAI API to create one embedding.
func (a *OpenAIAdapter) CreateEmbeddings(ctx context.Context, text string) ([]float32, error) {
	resp, err := a.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: a.model,
	})
	if err != nil {
		return nil, llm.FromOpenAIError(err)
	}

	if len(resp.Data) == 0 {
		return nil, errors.New("no embedding data returned")
	}

	return resp.Data[0].Embedding, nil
}

type Config struct {
	APIKey     string
	BaseURL    string // empty uses the public API
	Model      string
	Dimensions int
}

// OpenAIEmbedder validates inputs and outputs around an EmbeddingAPI.
type OpenAIEmbedder struct {
	api        EmbeddingAPI
	dimensions int
}

// New creates an OpenAIEmbedder. It is built once per process and shared.
func New(cfg Config) *OpenAIEmbedder {
	return NewWithAPI(NewOpenAIAdapter(cfg.APIKey, cfg.BaseURL, openai.EmbeddingModel(cfg.Model)), cfg.Dimensions)
}

// NewWithAPI wraps an arbitrary EmbeddingAPI.
func NewWithAPI(api EmbeddingAPI, dimensions int) *OpenAIEmbedder {
	if dimensions <= 0 {
		dimensions = DefaultDimensions
	}
	return &OpenAIEmbedder{api: api, dimensions: dimensions}
}

// Dimensions is the vector width this embedder produces.
func (e *OpenAIEmbedder) Dimensions() int { return e.dimensions }

// Embed generates an embedding for the given text.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	embedding, err := e.api.CreateEmbeddings(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding: %w", err)
	}

	if len(embedding) != e.dimensions {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrWrongDimensions, len(embedding), e.dimensions)
	}

	return embedding, nil
}
