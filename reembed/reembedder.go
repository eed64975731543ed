// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package reembed

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/poiesic/knowit/ai"
	"github.com/poiesic/knowit/core"
	"github.com/poiesic/knowit/storage"
)

// Config holds configuration for the reembedding operation.
type Config struct {
	// BatchSize is the number of chunks to embed in each batch
	BatchSize int

	// ReportInterval is how often to report progress (number of chunks)
	ReportInterval int

	// MaxRetries is the maximum number of retry attempts for failed batches
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      100,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
	}
}

// Reembedder regenerates embeddings for every chunk in the repository.
type Reembedder struct {
	repo     storage.ChunkRepository
	embedder ai.Embedder
	config   *Config
	progress io.Writer
}

// NewReembedder creates a new reembedder.
// progress: where to write progress output (typically os.Stderr)
func NewReembedder(repo storage.ChunkRepository, embedder ai.Embedder, config *Config, progress io.Writer) (*Reembedder, error) {
	if repo == nil {
		return nil, ErrRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if config == nil {
		config = DefaultConfig()
	}

	return &Reembedder{
		repo:     repo,
		embedder: embedder,
		config:   config,
		progress: progress,
	}, nil
}

// Run reembeds all stored chunks with the configured embedder. Chunk IDs,
// sources and ordinals are preserved; only vectors change. Progress is
// reported to the configured writer.
func (r *Reembedder) Run(ctx context.Context) error {
	chunks, err := r.repo.GetAllChunks(ctx)
	if err != nil {
		return fmt.Errorf("failed to load chunks: %w", err)
	}

	total := len(chunks)
	if total == 0 {
		fmt.Fprintf(r.progress, "No chunks found in index (0 chunks)\n")
		return nil
	}

	fmt.Fprintf(r.progress, "Starting reembedding of %d chunks (batch size: %d)\n",
		total, r.config.BatchSize)

	tracker := NewProgressTracker(r.progress, total, r.config.ReportInterval)
	tracker.Start()

	processed := 0
	for start := 0; start < total; start += r.config.BatchSize {
		end := start + r.config.BatchSize
		if end > total {
			end = total
		}
		batch := chunks[start:end]

		if err := r.processBatch(ctx, batch); err != nil {
			return fmt.Errorf("failed to process batch: %w", err)
		}

		processed += len(batch)
		tracker.Update(processed)
	}

	tracker.Finish()

	elapsed := tracker.Elapsed()
	fmt.Fprintf(r.progress, "Reembedding complete. Processed %d chunks in %v (%.1f chunks/sec)\n",
		total, elapsed.Round(time.Second), float64(total)/elapsed.Seconds())

	return nil
}

// processBatch embeds one batch of chunks and writes them back, retrying
// transient failures with exponential backoff.
func (r *Reembedder) processBatch(ctx context.Context, batch []*core.Chunk) error {
	texts := make([]string, len(batch))
	for i, chunk := range batch {
		texts[i] = chunk.Text
	}

	return RetryWithBackoff(ctx, func() error {
		vectors, err := r.embedder.EmbedTexts(ctx, texts)
		if err != nil {
			return err
		}
		if len(vectors) != len(batch) {
			return fmt.Errorf("embedding result mismatch. expected %d, received %d", len(batch), len(vectors))
		}

		for i, chunk := range batch {
			chunk.Vector = vectors[i]
		}
		return r.repo.PutChunks(ctx, batch...)
	}, r.config.MaxRetries, r.config.RetryDelay)
}
