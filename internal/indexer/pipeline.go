// Package indexer orchestrates hash-based change detection, chunking,
// delta embedding and vector-store upserts for knowledge-base files.
package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/avoronov/kbase/internal/chunker"
	"github.com/avoronov/kbase/internal/convert"
	"github.com/avoronov/kbase/internal/fingerprint"
	"github.com/avoronov/kbase/internal/storage"
)

// Converter turns a file into text plus conversion metadata.
type Converter interface {
	Convert(ctx context.Context, path string) (*convert.Result, error)
}

// Embedder turns texts into vectors, result[i] matching texts[i].
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Pipeline drives the per-file ingestion state machine. Safe for
// concurrent use; runs for the same path serialize on a per-path lock so
// rapid watcher events cost one re-index plus cheap short-circuits.
type Pipeline struct {
	store     storage.VectorStore
	converter Converter
	chunker   *chunker.Chunker
	embedder  Embedder
	logger    *slog.Logger

	mu       sync.Mutex
	locks    map[string]*sync.Mutex
	lastHash map[string]string // last successfully indexed hash per path
}

// NewPipeline creates an ingestion pipeline from its components.
func NewPipeline(
	store storage.VectorStore,
	converter Converter,
	ch *chunker.Chunker,
	embedder Embedder,
	logger *slog.Logger,
) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		store:     store,
		converter: converter,
		chunker:   ch,
		embedder:  embedder,
		logger:    logger,
		locks:     make(map[string]*sync.Mutex),
		lastHash:  make(map[string]string),
	}
}

func (p *Pipeline) pathLock(path string) *sync.Mutex {
	p.mu.Lock()
	defer p.mu.Unlock()
	l, ok := p.locks[path]
	if !ok {
		l = &sync.Mutex{}
		p.locks[path] = l
	}
	return l
}

func (p *Pipeline) rememberHash(path, hash string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if hash == "" {
		delete(p.lastHash, path)
		return
	}
	p.lastHash[path] = hash
}

func (p *Pipeline) lastKnownHash(path string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastHash[path]
}

// ProcessFile indexes one file, returning the number of chunks now stored
// for it. Unchanged files (same hash, same mtime) cost a single metadata
// lookup. Changed files re-chunk fully but re-embed only chunks whose
// text differs from the stored version; unchanged chunks reuse their
// stored vectors.
func (p *Pipeline) ProcessFile(ctx context.Context, path string) (int, error) {
	lock := p.pathLock(path)
	lock.Lock()
	defer lock.Unlock()

	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("stat: %w", err)
	}
	lastModified := info.ModTime()

	hash, err := fingerprint.File(path)
	if err != nil {
		return 0, fmt.Errorf("fingerprint: %w", err)
	}

	existing, err := p.store.Get(ctx, storage.Filter{FileHash: hash}, false)
	if err != nil {
		return 0, fmt.Errorf("store lookup: %w", err)
	}
	if len(existing) > 0 && existing[0].Meta.LastModified.Equal(lastModified) {
		p.logger.Debug("document unchanged, skipping", "path", path)
		p.rememberHash(path, hash)
		return len(existing), nil
	}
	if len(existing) > 0 {
		p.logger.Info("document changed, updating", "path", path)
	} else {
		p.logger.Info("indexing new document", "path", path)
	}

	result, err := p.converter.Convert(ctx, path)
	if err != nil {
		return 0, fmt.Errorf("convert: %w", err)
	}

	clean := convert.Normalize(result.Content)
	chunks := p.chunker.Split(clean)
	p.logger.Debug("chunked document", "path", path, "chunks", len(chunks))

	// Prior chunks for this path, vectors included so unchanged chunks
	// keep their embeddings without another model call.
	prior, err := p.store.Get(ctx, storage.Filter{SourcePath: path}, true)
	if err != nil {
		return 0, fmt.Errorf("store lookup: %w", err)
	}
	priorByText := make(map[string]storage.ChunkRecord, len(prior))
	for _, rec := range prior {
		key := fingerprint.Text(rec.Text)
		if _, ok := priorByText[key]; !ok {
			priorByText[key] = rec
		}
	}

	records := make([]storage.ChunkRecord, len(chunks))
	var toEmbed []string
	var embedSlots []int
	for i, c := range chunks {
		records[i] = storage.ChunkRecord{
			ID:   fmt.Sprintf("%s_%d", hash, c.Index),
			Text: c.Text,
			Meta: storage.ChunkMetadata{
				SourcePath:   path,
				FileHash:     hash,
				LastModified: lastModified,
				Section:      c.Section,
				ChunkStart:   c.Start,
				ChunkEnd:     c.End,
				ChunkIndex:   c.Index,
				FileType:     result.Meta.FileType,
				Title:        result.Meta.Title,
			},
		}

		if old, ok := priorByText[fingerprint.Text(c.Text)]; ok && old.Text == c.Text && len(old.Embedding) > 0 {
			records[i].Embedding = old.Embedding
			continue
		}
		toEmbed = append(toEmbed, c.Text)
		embedSlots = append(embedSlots, i)
	}

	if len(toEmbed) > 0 {
		embeddings, err := p.embedder.EmbedTexts(ctx, toEmbed)
		if err != nil {
			return 0, fmt.Errorf("embed: %w", err)
		}
		for j, slot := range embedSlots {
			records[slot].Embedding = embeddings[j]
		}
	}

	if err := p.store.Upsert(ctx, records); err != nil {
		return 0, fmt.Errorf("store upsert: %w", err)
	}

	// Record IDs embed the file hash, so prior versions must go or they
	// would linger as orphans.
	for _, oldHash := range priorHashes(prior, hash) {
		if err := p.store.Delete(ctx, storage.Filter{FileHash: oldHash}); err != nil {
			return 0, fmt.Errorf("store delete stale: %w", err)
		}
	}

	p.rememberHash(path, hash)
	p.logger.Info("document indexed", "path", path,
		"chunks", len(chunks), "embedded", len(toEmbed))
	return len(chunks), nil
}

// priorHashes returns the distinct file hashes present in prior records,
// excluding the current one.
func priorHashes(prior []storage.ChunkRecord, current string) []string {
	seen := make(map[string]bool)
	var hashes []string
	for _, rec := range prior {
		h := rec.Meta.FileHash
		if h == "" || h == current || seen[h] {
			continue
		}
		seen[h] = true
		hashes = append(hashes, h)
	}
	return hashes
}

// RemoveFile deletes every stored chunk for a path that disappeared from
// disk, keyed by the last hash this process indexed for it. Paths indexed
// by an earlier process fall back to a source-path match.
func (p *Pipeline) RemoveFile(ctx context.Context, path string) error {
	lock := p.pathLock(path)
	lock.Lock()
	defer lock.Unlock()

	f := storage.Filter{SourcePath: path}
	if hash := p.lastKnownHash(path); hash != "" {
		f = storage.Filter{FileHash: hash}
	}
	if err := p.store.Delete(ctx, f); err != nil {
		return fmt.Errorf("store delete: %w", err)
	}

	p.rememberHash(path, "")
	p.logger.Info("document removed from index", "path", path)
	return nil
}

// LoadResult contains statistics about a full-tree load.
type LoadResult struct {
	TotalFiles   int
	IndexedFiles int
	TotalChunks  int
	FailedFiles  []FailedFile
	Duration     time.Duration
}

// FailedFile records one file that could not be indexed.
type FailedFile struct {
	Path   string
	Reason string
}

// LoadTree indexes every file under root. Per-file failures (unsupported
// type, conversion, embedding, store) are collected and logged, never
// aborting sibling files.
func (p *Pipeline) LoadTree(ctx context.Context, root string) (*LoadResult, error) {
	start := time.Now()
	result := &LoadResult{}

	paths, err := walkFiles(root)
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	result.TotalFiles = len(paths)
	p.logger.Info("starting initial load", "root", root, "files", len(paths))

	for _, path := range paths {
		chunks, err := p.ProcessFile(ctx, path)
		if err != nil {
			p.logger.Warn("failed to index file", "path", path, "error", err)
			result.FailedFiles = append(result.FailedFiles, FailedFile{
				Path:   path,
				Reason: err.Error(),
			})
			continue
		}
		result.IndexedFiles++
		result.TotalChunks += chunks
	}

	result.Duration = time.Since(start)
	p.logger.Info("initial load complete",
		"indexed", result.IndexedFiles,
		"failed", len(result.FailedFiles),
		"chunks", result.TotalChunks,
		"duration", result.Duration,
	)
	return result, nil
}
