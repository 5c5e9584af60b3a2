package vectorstore

import (
	"context"
	"fmt"
	"math"

	"github.com/dgallion1/secgest/internal/filing"
)

// Record is one embedded chunk.
type Record struct {
	ID        string
	FilingID  string
	Text      string
	Metadata  map[string]any
	Embedding []float32
}

// Match is a stored record with its similarity to a query vector.
type Match struct {
	Record
	Score float64 // cosine similarity, 1 is identical
}

// Store is the vector index the pipeline writes to and questions read from.
type Store interface {
	Add(ctx context.Context, records []Record) error
	Query(ctx context.Context, vec []float32, n int) ([]Match, error)
	HasFiling(ctx context.Context, filingID string) (bool, error)
	Reset(ctx context.Context) error
}

// RecordID is the id of the n-th chunk of a filing.
func RecordID(filingID string, n int) string {
	return fmt.Sprintf("%s-%d", filingID, n)
}

// FromChunks pairs chunks with their embeddings as records of one filing.
// Chunks without an embedding are skipped; record ids keep the chunk's
// position, so a skipped chunk leaves a gap.
func FromChunks(filingID string, chunks []filing.Chunk, embeddings [][]float32) ([]Record, error) {
	if len(chunks) != len(embeddings) {
		return nil, fmt.Errorf("have %d chunks but %d embeddings", len(chunks), len(embeddings))
	}
	records := make([]Record, 0, len(chunks))
	for i, c := range chunks {
		if embeddings[i] == nil {
			continue
		}
		records = append(records, Record{
			ID:        RecordID(filingID, i),
			FilingID:  filingID,
			Text:      c.Text,
			Metadata:  c.Metadata(),
			Embedding: embeddings[i],
		})
	}
	return records, nil
}

// cosineSimilarity calculates cosine similarity between two vectors
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0.0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dotProduct += x * y
		normA += x * x
		normB += y * y
	}

	if normA == 0 || normB == 0 {
		return 0.0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}
