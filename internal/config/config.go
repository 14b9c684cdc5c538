// Package config loads application configuration from the environment.
package config

import (
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds every tunable the system reads at startup.
type Config struct {
	KnowledgeBasePath string

	EmbeddingModel string
	EmbeddingDim   int
	LLMModel       string
	LLMBaseURL     string

	QdrantHost       string
	QdrantPort       int
	QdrantCollection string

	ChunkSize      int
	EmbedBatchSize int
	MemorySize     int

	FeedbackDB string
	Port       string
}

// Load reads configuration from the environment, consulting a .env file if
// one exists. Every value has a default so a bare environment still yields
// a usable config.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, using environment variables")
	}

	return &Config{
		KnowledgeBasePath: getEnv("KNOWLEDGE_BASE_PATH", "./knowledge_base"),

		EmbeddingModel: getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
		EmbeddingDim:   getEnvInt("EMBEDDING_DIM", 1536),
		LLMModel:       getEnv("LLM_MODEL", "gpt-4o"),
		LLMBaseURL:     getEnv("LLM_BASE_URL", ""),

		QdrantHost:       getEnv("QDRANT_HOST", "localhost"),
		QdrantPort:       getEnvInt("QDRANT_PORT", 6334),
		QdrantCollection: getEnv("QDRANT_COLLECTION", "documents"),

		ChunkSize:      getEnvInt("CHUNK_SIZE", 500),
		EmbedBatchSize: getEnvInt("EMBED_BATCH_SIZE", 8),
		MemorySize:     getEnvInt("MEMORY_SIZE", 1000),

		FeedbackDB: getEnv("FEEDBACK_DB", "feedback.db"),
		Port:       getEnv("PORT", "8080"),
	}
}

func getEnv(key, defaultValue string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}
