package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// recordingPipeline reports pipeline calls on channels.
type recordingPipeline struct {
	processed chan string
	removed   chan string
}

func newRecordingPipeline() *recordingPipeline {
	return &recordingPipeline{
		processed: make(chan string, 16),
		removed:   make(chan string, 16),
	}
}

func (p *recordingPipeline) ProcessFile(ctx context.Context, path string) (int, error) {
	p.processed <- path
	return 1, nil
}

func (p *recordingPipeline) RemoveFile(ctx context.Context, path string) error {
	p.removed <- path
	return nil
}

// TestRun_CleanShutdown verifies cancellation stops the watcher without an
// error.
func TestRun_CleanShutdown(t *testing.T) {
	w := New(t.TempDir(), newRecordingPipeline(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Expected clean shutdown, got %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Watcher did not stop after cancellation")
	}
}

// TestRun_DispatchesEvents verifies file creation and removal reach the
// pipeline.
func TestRun_DispatchesEvents(t *testing.T) {
	dir := t.TempDir()
	pipeline := newRecordingPipeline()
	w := New(dir, pipeline, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()
	time.Sleep(100 * time.Millisecond)

	path := filepath.Join(dir, "doc.md")
	if err := os.WriteFile(path, []byte("content"), 0o644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	select {
	case got := <-pipeline.processed:
		if got != path {
			t.Errorf("Expected %s processed, got %s", path, got)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("File creation never reached the pipeline")
	}

	if err := os.Remove(path); err != nil {
		t.Fatalf("Failed to remove file: %v", err)
	}

	select {
	case got := <-pipeline.removed:
		if got != path {
			t.Errorf("Expected %s removed, got %s", path, got)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("File removal never reached the pipeline")
	}
}
