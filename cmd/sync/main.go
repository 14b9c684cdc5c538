// Package main provides the knowledge-base indexing CLI.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/avoronov/kbase/internal/chunker"
	"github.com/avoronov/kbase/internal/config"
	"github.com/avoronov/kbase/internal/convert"
	"github.com/avoronov/kbase/internal/embedding"
	"github.com/avoronov/kbase/internal/indexer"
	"github.com/avoronov/kbase/internal/storage"
	"github.com/avoronov/kbase/internal/watcher"
)

var rootCmd = &cobra.Command{
	Use:   "kbase-sync",
	Short: "Knowledge base indexing tool",
	Long:  "CLI tool for indexing a local document tree into Qdrant",
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Index the knowledge base tree once",
	Long: `Walks the knowledge base directory and indexes every document.

Files whose content hash and modification time are unchanged since the
last run are skipped. Changed files only re-embed the sections whose
text actually changed.

Environment variables:
  KNOWLEDGE_BASE_PATH  Directory to index (default: ./knowledge_base)
  QDRANT_HOST          Qdrant hostname (default: localhost)
  QDRANT_PORT          Qdrant gRPC port (default: 6334)
  OPENAI_API_KEY       API key for embeddings (required)`,
	RunE: runSync,
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Index the tree, then watch it for changes",
	Long: `Performs a full sync, then watches the knowledge base directory and
re-indexes files as they are created, modified, or removed. Runs until
interrupted.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(watchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// buildPipeline wires storage, conversion, chunking, and embedding from
// the environment configuration.
func buildPipeline(ctx context.Context, cfg *config.Config) (*indexer.Pipeline, *storage.QdrantStore, error) {
	fmt.Printf("Connecting to Qdrant at %s:%d...\n", cfg.QdrantHost, cfg.QdrantPort)
	store, err := storage.NewQdrantStore(cfg.QdrantHost, cfg.QdrantPort, cfg.QdrantCollection, cfg.EmbeddingDim)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to Qdrant: %w", err)
	}

	if err := store.EnsureCollection(ctx); err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("failed to ensure collection: %w", err)
	}
	fmt.Println("Qdrant healthy")

	client, err := embedding.NewClient(cfg.LLMBaseURL)
	if err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("failed to create embedding client: %w", err)
	}
	embedder := embedding.NewEmbedder(client, cfg.EmbeddingModel, cfg.EmbedBatchSize)

	pipeline := indexer.NewPipeline(
		store,
		convert.NewConverter(),
		chunker.New(cfg.ChunkSize),
		embedder,
		slog.Default(),
	)
	return pipeline, store, nil
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	start := time.Now()
	cfg := config.Load()

	fmt.Println("Starting sync...")
	fmt.Println()

	pipeline, store, err := buildPipeline(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	fmt.Println()
	fmt.Printf("Indexing documents under %s...\n", cfg.KnowledgeBasePath)
	result, err := pipeline.LoadTree(ctx, cfg.KnowledgeBasePath)
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}

	printResult(result)
	fmt.Println()
	fmt.Printf("Total time: %s\n", time.Since(start).Round(time.Second))
	return nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	cfg := config.Load()

	pipeline, store, err := buildPipeline(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	fmt.Printf("Indexing documents under %s...\n", cfg.KnowledgeBasePath)
	result, err := pipeline.LoadTree(ctx, cfg.KnowledgeBasePath)
	if err != nil {
		return fmt.Errorf("initial indexing failed: %w", err)
	}
	printResult(result)

	fmt.Println()
	fmt.Printf("Watching %s for changes (Ctrl-C to stop)...\n", cfg.KnowledgeBasePath)
	w := watcher.New(cfg.KnowledgeBasePath, pipeline, slog.Default())
	if err := w.Run(ctx); err != nil {
		return fmt.Errorf("watcher failed: %w", err)
	}
	return nil
}

func printResult(result *indexer.LoadResult) {
	fmt.Println()
	fmt.Println("Sync complete!")
	fmt.Printf("  Files: %d/%d\n", result.IndexedFiles, result.TotalFiles)
	fmt.Printf("  Chunks: %d\n", result.TotalChunks)
	fmt.Printf("  Duration: %s\n", result.Duration.Round(time.Second))

	if len(result.FailedFiles) > 0 {
		fmt.Println()
		fmt.Println("Failed files:")
		for _, failed := range result.FailedFiles {
			fmt.Printf("  - %s: %s\n", failed.Path, failed.Reason)
		}
	}
}
