package storage

import "time"

// ChunkMetadata is the payload stored alongside every indexed chunk. The
// ingestion pipeline filters on SourcePath and FileHash; retrieval keys on
// Section.
type ChunkMetadata struct {
	SourcePath   string    // absolute path of the source file
	FileHash     string    // fingerprint of the source file's bytes
	LastModified time.Time // file mtime at index time
	Section      string    // dotted section label, "" when none
	ChunkStart   int       // character offset into the normalized text
	ChunkEnd     int
	ChunkIndex   int // ordinal within the document
	FileType     string
	Title        string // document title from conversion metadata
}

// ChunkRecord is the persisted unit in the vector store. ID is
// "{file_hash}_{ordinal}"; the backing store may map it to its own point
// identity but must round-trip it unchanged.
type ChunkRecord struct {
	ID        string
	Text      string
	Embedding []float32
	Meta      ChunkMetadata
}

// ScoredChunk is a query result: a record plus its similarity score,
// higher is more similar.
type ScoredChunk struct {
	Record ChunkRecord
	Score  float64
}

// Filter selects records by exact metadata match. Zero-valued fields are
// ignored; set fields combine with AND.
type Filter struct {
	FileHash   string
	SourcePath string
	Section    string
}

// IsZero reports whether the filter matches everything.
func (f Filter) IsZero() bool {
	return f.FileHash == "" && f.SourcePath == "" && f.Section == ""
}
