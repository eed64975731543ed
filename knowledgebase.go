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


// Package knowit is a local retrieval core for knowledge-base chat bots.
// It ingests markdown documents into a persistent chunk index and answers
// queries with hybrid retrieval: vector similarity, keyword routing and
// exact substring matching fused into one ranked context.
package knowit

import (
	"io"
	"log/slog"

	"github.com/poiesic/knowit/ai"
	"github.com/poiesic/knowit/ai/openai"
	"github.com/poiesic/knowit/chunker"
	"github.com/poiesic/knowit/index"
	"github.com/poiesic/knowit/ingest"
	"github.com/poiesic/knowit/reembed"
	"github.com/poiesic/knowit/router"
	"github.com/poiesic/knowit/search"
	"github.com/poiesic/knowit/storage"
	"github.com/poiesic/knowit/storage/badger"
)

// KnowledgeBase wires the persistent chunk index, the embedder and the
// keyword router, and hands out the ingestion, search and maintenance
// components built on top of them.
type KnowledgeBase struct {
	backend  *badger.Backend
	repo     storage.ChunkRepository
	embedder ai.Embedder
	index    *index.Index
	router   *router.Router
	splitter *chunker.Splitter
	logger   *slog.Logger
}

// KnowledgeBaseOption configures a KnowledgeBase.
type KnowledgeBaseOption func(*knowledgeBaseOptions)

type knowledgeBaseOptions struct {
	aiConfig     *ai.Config
	rules        []router.Rule
	chunkSize    int
	chunkOverlap int
	inMemory     bool
}

// WithAIConfig sets the embedding endpoint configuration.
// Default is ai.DefaultConfig().
func WithAIConfig(config *ai.Config) KnowledgeBaseOption {
	return func(o *knowledgeBaseOptions) {
		if config != nil {
			o.aiConfig = config
		}
	}
}

// WithKeywordRules replaces the built-in keyword routing rules.
func WithKeywordRules(rules []router.Rule) KnowledgeBaseOption {
	return func(o *knowledgeBaseOptions) {
		o.rules = rules
	}
}

// WithChunking sets the splitter geometry.
// Default is 500 runes per chunk with an overlap of 100.
func WithChunking(chunkSize, overlap int) KnowledgeBaseOption {
	return func(o *knowledgeBaseOptions) {
		o.chunkSize = chunkSize
		o.chunkOverlap = overlap
	}
}

// WithEphemeralStorage keeps the index in memory instead of on disk.
// Intended for tests and experiments.
func WithEphemeralStorage() KnowledgeBaseOption {
	return func(o *knowledgeBaseOptions) {
		o.inMemory = true
	}
}

// Open creates a KnowledgeBase with its index stored at indexPath.
func Open(indexPath string, opts ...KnowledgeBaseOption) (*KnowledgeBase, error) {
	options := &knowledgeBaseOptions{
		aiConfig:     ai.DefaultConfig(),
		rules:        router.DefaultRules(),
		chunkSize:    500,
		chunkOverlap: 100,
	}
	for _, opt := range opts {
		opt(options)
	}

	splitter, err := chunker.NewSplitter(options.chunkSize, options.chunkOverlap)
	if err != nil {
		return nil, err
	}

	backend, err := badger.OpenBackend(indexPath, options.inMemory)
	if err != nil {
		return nil, err
	}

	repo, err := badger.NewChunkRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	embedder, err := openai.NewEmbedder(options.aiConfig)
	if err != nil {
		repo.Close()
		backend.Close()
		return nil, err
	}

	idx, err := index.NewIndex(repo, embedder)
	if err != nil {
		repo.Close()
		backend.Close()
		return nil, err
	}

	return &KnowledgeBase{
		backend:  backend,
		repo:     repo,
		embedder: embedder,
		index:    idx,
		router:   router.NewRouter(options.rules),
		splitter: splitter,
		logger:   slog.Default(),
	}, nil
}

// Close releases the knowledge base's storage.
func (kb *KnowledgeBase) Close() error {
	if err := kb.repo.Close(); err != nil {
		kb.logger.Error("error closing chunk repository", "err", err)
		return err
	}
	if err := kb.backend.Close(); err != nil {
		kb.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

// Index returns the underlying chunk index.
func (kb *KnowledgeBase) Index() *index.Index {
	return kb.index
}

// Router returns the keyword router.
func (kb *KnowledgeBase) Router() *router.Router {
	return kb.router
}

// ChunkRepository returns the underlying chunk repository.
func (kb *KnowledgeBase) ChunkRepository() storage.ChunkRepository {
	return kb.repo
}

// NewIngestionPipeline creates a rebuild pipeline for this knowledge base.
func (kb *KnowledgeBase) NewIngestionPipeline(opts ...ingest.Option) (*ingest.Pipeline, error) {
	return ingest.NewPipeline(kb.index, kb.splitter, opts...)
}

// NewSearcher creates a hybrid searcher for this knowledge base.
func (kb *KnowledgeBase) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	return search.NewSearcher(kb.index, kb.router, opts...)
}

// NewReembedder creates a reembedder writing progress to the given writer.
func (kb *KnowledgeBase) NewReembedder(config *reembed.Config, progress io.Writer) (*reembed.Reembedder, error) {
	return reembed.NewReembedder(kb.repo, kb.embedder, config, progress)
}
