package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/dgallion1/secgest/internal/embed"
	"github.com/dgallion1/secgest/internal/filing"
	"github.com/dgallion1/secgest/internal/parser"
	"github.com/dgallion1/secgest/internal/vectorstore"
)

// Observer receives per-job measurements.
type Observer interface {
	FilingParsed(chunks int, d time.Duration)
	EmbedRequest(err error)
	JobFinished(status string)
}

type nopObserver struct{}

func (nopObserver) FilingParsed(int, time.Duration) {}
func (nopObserver) EmbedRequest(error)              {}
func (nopObserver) JobFinished(string)              {}

// Worker processes a single filing job.
type Worker struct {
	parser   *parser.Parser
	embedder embed.Embedder
	store    vectorstore.Store
	log      *slog.Logger
	observer Observer
	backoff  func(attempt int) time.Duration

	maxConcurrentEmbed int
}

func NewWorker(p *parser.Parser, e embed.Embedder, s vectorstore.Store, log *slog.Logger, obs Observer, maxEmbed int) *Worker {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if obs == nil {
		obs = nopObserver{}
	}
	if maxEmbed <= 0 {
		maxEmbed = 1
	}
	return &Worker{
		parser:             p,
		embedder:           e,
		store:              s,
		log:                log,
		observer:           obs,
		backoff:            Backoff,
		maxConcurrentEmbed: maxEmbed,
	}
}

// Process runs the full ingest pipeline for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "source", job.Source)
	status := w.process(ctx, job, log)
	w.observer.JobFinished(string(status))
}

func (w *Worker) process(ctx context.Context, job *Job, log *slog.Logger) JobStatus {
	fail := func(phase string, err error) JobStatus {
		log.Error(phase+" failed", "error", err)
		job.AddError(fmt.Sprintf("%s: %s", phase, err))
		job.SetStatus(StatusFailed, phase)
		return StatusFailed
	}

	// Phase 1: Dedup check
	doc := job.Document()
	filingID := ContentHashHex(doc.Content)
	job.setContentHash(filingID)

	exists, err := w.store.HasFiling(ctx, filingID)
	if err != nil {
		log.Warn("dedup check failed, proceeding", "error", err)
	} else if exists {
		log.Info("duplicate filing, skipping", "content_hash", filingID)
		job.SetStatus(StatusDupSkipped, "dedup")
		return StatusDupSkipped
	}

	// Phase 2: Parse
	job.SetStatus(StatusParsing, "parsing")
	res, err := w.parser.ParseDetailed(doc)
	job.releaseDocument()
	if err != nil {
		return fail("parsing", err)
	}
	w.observer.FilingParsed(len(res.Chunks), res.Duration)
	job.SetParsed(string(res.FilingType), len(res.Sections), len(res.Chunks))
	log.Info("parsed filing", "filing_type", res.FilingType, "sections", len(res.Sections), "chunks", len(res.Chunks))

	if len(res.Chunks) == 0 {
		log.Warn("no chunks produced")
		job.AddError("no extractable content")
		job.SetStatus(StatusFailed, "parsing")
		return StatusFailed
	}

	// Phase 3: Embed chunks with bounded concurrency.
	job.SetStatus(StatusEmbedding, "embedding")
	embeddings, hadErrors := w.embedAll(ctx, job, log, res.Chunks)

	records, err := vectorstore.FromChunks(filingID, res.Chunks, embeddings)
	if err != nil {
		return fail("embedding", err)
	}
	log.Info("embedding complete", "embedded", len(records), "errors", hadErrors)

	if len(records) == 0 {
		job.SetStatus(StatusFailed, "embedding")
		return StatusFailed
	}

	// Phase 4: Store vectors.
	job.SetStatus(StatusStoring, "storing")
	if err := w.store.Add(ctx, records); err != nil {
		return fail("storing", err)
	}
	job.SetChunksStored(len(records))
	log.Info("storage complete", "stored", len(records), "total", len(res.Chunks))

	if hadErrors {
		job.SetStatus(StatusPartial, "done")
		return StatusPartial
	}
	job.SetStatus(StatusCompleted, "done")
	return StatusCompleted
}

// embedAll embeds every chunk, retrying transient failures. A chunk that
// could not be embedded has a nil slot in the result.
func (w *Worker) embedAll(ctx context.Context, job *Job, log *slog.Logger, chunks []filing.Chunk) ([][]float32, bool) {
	type embedResult struct {
		vec []float32
		err error
		idx int
	}
	results := make(chan embedResult, len(chunks))
	sem := make(chan struct{}, w.maxConcurrentEmbed)

	for i, chunk := range chunks {
		sem <- struct{}{}
		go func(i int, text string) {
			defer func() { <-sem }()
			var vec []float32
			var lastErr error
			for attempt := range MaxRetries {
				vec, lastErr = w.embedder.Embed(ctx, text)
				w.observer.EmbedRequest(lastErr)
				if lastErr == nil || !IsRetryable(lastErr) {
					break
				}
				log.Warn("retryable embedding error", "chunk", i, "attempt", attempt, "error", lastErr)
				select {
				case <-time.After(w.backoff(attempt)):
				case <-ctx.Done():
					results <- embedResult{err: ctx.Err(), idx: i}
					return
				}
			}
			results <- embedResult{vec: vec, err: lastErr, idx: i}
		}(i, chunk.Text)
	}

	embeddings := make([][]float32, len(chunks))
	hadErrors := false
	for range chunks {
		r := <-results
		if r.err != nil {
			log.Error("embedding failed", "chunk", r.idx, "error", r.err)
			job.AddError(fmt.Sprintf("chunk %d: %s", r.idx, r.err))
			hadErrors = true
			continue
		}
		job.IncrChunksEmbedded()
		embeddings[r.idx] = r.vec
	}
	return embeddings, hadErrors
}
