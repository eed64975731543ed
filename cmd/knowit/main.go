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


package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/poiesic/knowit"
	"github.com/poiesic/knowit/ai"
	"github.com/poiesic/knowit/config"
	"github.com/poiesic/knowit/ingest"
	"github.com/poiesic/knowit/reembed"
	"github.com/poiesic/knowit/router"
	"github.com/poiesic/knowit/search"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "knowit",
		Usage: "Local hybrid retrieval core for knowledge-base chat bots",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML configuration file",
				Value:   "config.yaml",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setup,
		Commands: []*cli.Command{
			{
				Name:   "load",
				Usage:  "Rebuild the index from the knowledge base directory",
				Action: loadCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "dir",
						Usage: "Knowledge base directory (overrides config)",
					},
					&cli.IntFlag{
						Name:  "pool-size",
						Usage: "Worker pool size for embedding batches",
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Run a hybrid search and print ranked results",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "top-k",
						Aliases: []string{"k"},
						Usage:   "Number of results to request (overrides config)",
					},
				},
			},
			{
				Name:      "context",
				Usage:     "Print the assembled context for a query",
				ArgsUsage: "<query>",
				Action:    contextCommand,
			},
			{
				Name:   "reembed",
				Usage:  "Regenerate embeddings for all indexed chunks",
				Action: reembedCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of chunks to process in each batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N chunks",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed operations",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func setup(c *cli.Context) error {
	// Load .env if present; the embedding API key usually lives there.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return setupLogger(c)
}

func loadCommand(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	dir := cfg.KnowledgeBaseDir
	if c.String("dir") != "" {
		dir = c.String("dir")
	}

	kb, err := openKnowledgeBase(cfg)
	if err != nil {
		return err
	}
	defer kb.Close()

	pipeline, err := kb.NewIngestionPipeline(pipelineOptions(c, cfg)...)
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	defer pipeline.Release()

	stats, err := pipeline.Rebuild(context.Background(), dir)
	if err != nil {
		return fmt.Errorf("rebuild failed: %w", err)
	}

	fmt.Printf("Loaded %d documents (%d chunks) from %s\n", stats.Documents, stats.Chunks, dir)
	return nil
}

func searchCommand(c *cli.Context) error {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("query is required")
	}

	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	topK := cfg.TopKResults
	if c.Int("top-k") > 0 {
		topK = c.Int("top-k")
	}

	kb, searcher, err := openSearcher(cfg)
	if err != nil {
		return err
	}
	defer kb.Close()

	results := searcher.Search(context.Background(), query, topK)
	if len(results) == 0 {
		fmt.Println("No results.")
		return nil
	}

	for i, result := range results {
		fmt.Printf("%d. [%s] %s (distance %.4f)\n", i+1, result.Tier, result.Chunk.Source, result.Distance)
		fmt.Printf("   %s\n", firstLine(result.Chunk.Text))
	}
	return nil
}

func contextCommand(c *cli.Context) error {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("query is required")
	}

	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	kb, searcher, err := openSearcher(cfg)
	if err != nil {
		return err
	}
	defer kb.Close()

	fmt.Println(searcher.GetContext(context.Background(), query))
	return nil
}

func reembedCommand(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	reembedConfig := &reembed.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}
	if reembedConfig.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if reembedConfig.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if reembedConfig.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	kb, err := openKnowledgeBase(cfg)
	if err != nil {
		return err
	}
	defer kb.Close()

	reembedder, err := kb.NewReembedder(reembedConfig, os.Stderr)
	if err != nil {
		return fmt.Errorf("failed to create reembedder: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Index: %s\n", cfg.IndexDir)
	fmt.Fprintf(os.Stderr, "Embedding host: %s\n", cfg.Embedding.Host)
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", cfg.Embedding.Model)
	fmt.Fprintln(os.Stderr)

	if err := reembedder.Run(context.Background()); err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}
	return nil
}

// openKnowledgeBase turns the app configuration into a KnowledgeBase.
func openKnowledgeBase(cfg *config.AppConfig) (*knowit.KnowledgeBase, error) {
	aiConfig := ai.NewConfig(
		ai.WithHost(cfg.Embedding.Host),
		ai.WithModel(cfg.Embedding.Model),
		ai.WithAPIKey(cfg.APIKey()),
	)

	rules := router.DefaultRules()
	if cfg.KeywordRules != "" {
		loaded, err := router.LoadRules(cfg.KeywordRules)
		if err != nil {
			return nil, fmt.Errorf("failed to load keyword rules: %w", err)
		}
		rules = loaded
	}

	kb, err := knowit.Open(cfg.IndexDir,
		knowit.WithAIConfig(aiConfig),
		knowit.WithKeywordRules(rules),
		knowit.WithChunking(cfg.ChunkSize, cfg.ChunkOverlap),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open knowledge base: %w", err)
	}
	return kb, nil
}

// openSearcher opens the knowledge base and builds a searcher carrying the
// configured top_k_results, so GetContext honours the config without an
// explicit limit. The caller owns the returned KnowledgeBase.
func openSearcher(cfg *config.AppConfig) (*knowit.KnowledgeBase, *search.Searcher, error) {
	kb, err := openKnowledgeBase(cfg)
	if err != nil {
		return nil, nil, err
	}

	searcher, err := kb.NewSearcher(search.WithTopK(cfg.TopKResults))
	if err != nil {
		kb.Close()
		return nil, nil, fmt.Errorf("failed to create searcher: %w", err)
	}
	return kb, searcher, nil
}

// pipelineOptions maps CLI flags and config onto ingestion options.
func pipelineOptions(c *cli.Context, cfg *config.AppConfig) []ingest.Option {
	opts := []ingest.Option{ingest.WithBatchSize(cfg.BatchSize)}
	if c.Int("pool-size") > 0 {
		opts = append(opts, ingest.WithPoolSize(c.Int("pool-size")))
	}
	return opts
}

func firstLine(text string) string {
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		return text[:i]
	}
	return text
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
