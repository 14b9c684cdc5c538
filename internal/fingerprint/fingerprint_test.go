package fingerprint

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestText verifies the fingerprint against a known digest.
func TestText(t *testing.T) {
	if got := Text("abc"); got != "900150983cd24fb0d6963f7d28e17f72" {
		t.Errorf("Unexpected fingerprint: %s", got)
	}
	if Text("abc") == Text("abd") {
		t.Error("Expected different fingerprints for different content")
	}
}

// TestSum_MatchesText verifies streaming and in-memory hashing agree,
// including content larger than one read block.
func TestSum_MatchesText(t *testing.T) {
	content := strings.Repeat("block spanning content. ", 2000) // ~48KB

	sum, err := Sum(strings.NewReader(content))
	if err != nil {
		t.Fatalf("Sum failed: %v", err)
	}
	if sum != Text(content) {
		t.Error("Expected streaming sum to match in-memory fingerprint")
	}
}

// TestFile verifies file hashing matches the content fingerprint.
func TestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.txt")
	content := "file content for hashing"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	got, err := File(path)
	if err != nil {
		t.Fatalf("File failed: %v", err)
	}
	if got != Text(content) {
		t.Error("Expected file fingerprint to match content fingerprint")
	}
}

// TestFile_Missing verifies a missing file surfaces an error.
func TestFile_Missing(t *testing.T) {
	if _, err := File(filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Error("Expected error for missing file")
	}
}
