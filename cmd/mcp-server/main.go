// Package main provides the knowledge-base assistant server entry point.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/avoronov/kbase/internal/answer"
	"github.com/avoronov/kbase/internal/config"
	"github.com/avoronov/kbase/internal/embedding"
	"github.com/avoronov/kbase/internal/feedback"
	mcpserver "github.com/avoronov/kbase/internal/mcp"
	"github.com/avoronov/kbase/internal/memory"
	"github.com/avoronov/kbase/internal/retrieval"
	"github.com/avoronov/kbase/internal/storage"
)

func main() {
	// Create context that cancels on SIGTERM/SIGINT
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	cfg := config.Load()

	// Initialize storage
	store, err := storage.NewQdrantStore(cfg.QdrantHost, cfg.QdrantPort, cfg.QdrantCollection, cfg.EmbeddingDim)
	if err != nil {
		log.Fatalf("failed to connect to Qdrant: %v", err)
	}
	defer store.Close()

	if err := store.EnsureCollection(ctx); err != nil {
		log.Fatalf("failed to ensure collection: %v", err)
	}

	// Embedding and chat share one client
	client, err := embedding.NewClient(cfg.LLMBaseURL)
	if err != nil {
		log.Fatalf("failed to create embedding client: %v", err)
	}
	embedder := embedding.NewEmbedder(client, cfg.EmbeddingModel, cfg.EmbedBatchSize)

	// Query pipeline: retrieval with consolidating memory, then generation
	mem := memory.New(cfg.MemorySize)
	assembler := retrieval.NewAssembler(store, embedder, mem)
	generator := answer.NewGenerator(client.Client(), cfg.LLMModel, assembler, nil)

	// Feedback persistence
	fb, err := feedback.NewStore(cfg.FeedbackDB)
	if err != nil {
		log.Fatalf("failed to open feedback store: %v", err)
	}
	defer fb.Close()

	// Create MCP server
	server := mcpserver.NewServer(&mcpserver.Config{
		Store:     store,
		Assembler: assembler,
		Generator: generator,
		Feedback:  fb,
	})

	// HTTP endpoints: landing page, health probe, MCP transport
	mux := http.NewServeMux()
	mux.HandleFunc("/", mcpserver.NewLandingHandler())
	mux.HandleFunc("/health", mcpserver.NewHealthHandler(store))
	mux.Handle("/mcp", mcpserver.NewHTTPHandler(server, nil))

	// SERVER_MODE=true serves MCP over HTTP for remote clients; default is
	// stdio for local clients, with the HTTP endpoints in the background.
	serverMode := os.Getenv("SERVER_MODE") == "true"

	if serverMode {
		addr := "0.0.0.0:" + cfg.Port
		log.Printf("Starting HTTP server on %s (MCP at /mcp, health at /health)", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Fatalf("HTTP server error: %v", err)
		}
	} else {
		go func() {
			addr := "0.0.0.0:" + cfg.Port
			log.Printf("Starting health server on %s", addr)
			if err := http.ListenAndServe(addr, mux); err != nil {
				log.Printf("health server error: %v", err)
			}
		}()

		log.Println("Starting knowledge base assistant (stdio mode)...")
		if err := server.Run(ctx); err != nil {
			log.Printf("server error: %v", err)
			os.Exit(1)
		}
	}
}
