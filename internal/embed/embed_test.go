package embed

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/secgest/internal/llm"
)

// MockEmbeddingAPI is a mock for the provider call
type MockEmbeddingAPI struct {
	mock.Mock
}

func (m *MockEmbeddingAPI) CreateEmbeddings(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

func TestEmbed_Success(t *testing.T) {
	mockAPI := new(MockEmbeddingAPI)
	e := NewWithAPI(mockAPI, 0)

	ctx := context.Background()
	text := "We intend to use the net proceeds to repay outstanding borrowings."
	expected := make([]float32, DefaultDimensions)
	for i := range expected {
		expected[i] = float32(i) * 0.001
	}

	mockAPI.On("CreateEmbeddings", ctx, text).Return(expected, nil)

	got, err := e.Embed(ctx, text)

	assert.NoError(t, err)
	assert.Equal(t, expected, got)
	mockAPI.AssertExpectations(t)
}

func TestEmbed_EmptyText(t *testing.T) {
	mockAPI := new(MockEmbeddingAPI)
	e := NewWithAPI(mockAPI, 0)

	got, err := e.Embed(context.Background(), "")

	assert.Nil(t, got)
	assert.Equal(t, ErrEmptyText, err)
	mockAPI.AssertNotCalled(t, "CreateEmbeddings", mock.Anything, mock.Anything)
}

func TestEmbed_APIError(t *testing.T) {
	mockAPI := new(MockEmbeddingAPI)
	e := NewWithAPI(mockAPI, 0)
	ctx := context.Background()

	mockAPI.On("CreateEmbeddings", ctx, "text").Return(nil, &llm.RetryableError{StatusCode: 429, Message: "slow down"})

	got, err := e.Embed(ctx, "text")

	assert.Nil(t, got)
	assert.Contains(t, err.Error(), "failed to create embedding")
	assert.True(t, llm.IsRetryable(err))
	mockAPI.AssertExpectations(t)
}

func TestEmbed_WrongDimensions(t *testing.T) {
	mockAPI := new(MockEmbeddingAPI)
	e := NewWithAPI(mockAPI, 8)
	ctx := context.Background()

	mockAPI.On("CreateEmbeddings", ctx, "text").Return(make([]float32, 512), nil)

	got, err := e.Embed(ctx, "text")

	assert.Nil(t, got)
	assert.True(t, errors.Is(err, ErrWrongDimensions))
}

func TestOpenAIAdapter_AgainstFakeServer(t *testing.T) {
	var req openai.EmbeddingRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embeddings", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data":   []map[string]any{{"object": "embedding", "index": 0, "embedding": []float32{0.1, 0.2, 0.3}}},
			"model":  "text-embedding-3-small",
		})
	}))
	defer srv.Close()

	e := New(Config{APIKey: "sk-test", BaseURL: srv.URL + "/v1", Dimensions: 3})
	got, err := e.Embed(context.Background(), "risk factors")

	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, got)
	assert.Equal(t, DefaultModel, req.Model)
	assert.Equal(t, 3, e.Dimensions())
}
