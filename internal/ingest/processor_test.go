package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeDocs(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestProcessorScanFiltersUnsupported(t *testing.T) {
	dir := writeDocs(t, map[string]string{
		"b.txt":    "beta",
		"a.txt":    "alpha",
		"skip.png": "binary",
	})
	p, err := NewProcessor(dir, 600, 200)
	if err != nil {
		t.Fatalf("NewProcessor: %v", err)
	}

	files, err := p.Scan()
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("got %d files: %v", len(files), files)
	}
	if filepath.Base(files[0]) != "a.txt" || filepath.Base(files[1]) != "b.txt" {
		t.Errorf("files not sorted by name: %v", files)
	}
}

func TestProcessorProcess(t *testing.T) {
	dir := writeDocs(t, map[string]string{
		"a.txt": "The QUICK Brown Fox. Visit https://example.com now!",
		"b.txt": "Second document content here.",
	})
	p, err := NewProcessor(dir, 600, 200, WithWorkers(2))
	if err != nil {
		t.Fatalf("NewProcessor: %v", err)
	}

	passages, err := p.Process(context.Background())
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(passages) != 2 {
		t.Fatalf("got %d passages: %+v", len(passages), passages)
	}

	// Deterministic order: a.txt first, chunk IDs sequential from 1.
	if passages[0].Source() != "a.txt" || passages[1].Source() != "b.txt" {
		t.Errorf("sources = %s, %s", passages[0].Source(), passages[1].Source())
	}
	if passages[0].Metadata["chunk_id"] != 1 || passages[1].Metadata["chunk_id"] != 2 {
		t.Errorf("chunk ids = %v, %v", passages[0].Metadata["chunk_id"], passages[1].Metadata["chunk_id"])
	}
	if passages[0].Content != "the quick brown fox. visit now!" {
		t.Errorf("content not cleaned: %q", passages[0].Content)
	}
}

func TestProcessorProcessChunksLongDocument(t *testing.T) {
	dir := writeDocs(t, map[string]string{"long.txt": wordText(20)})
	p, err := NewProcessor(dir, 8, 2)
	if err != nil {
		t.Fatalf("NewProcessor: %v", err)
	}

	passages, err := p.Process(context.Background())
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(passages) < 3 {
		t.Fatalf("got %d passages, want several", len(passages))
	}
	for i, p := range passages {
		if p.Metadata["chunk_id"] != i+1 {
			t.Errorf("passage %d chunk_id = %v", i, p.Metadata["chunk_id"])
		}
		if p.Source() != "long.txt" {
			t.Errorf("passage %d source = %q", i, p.Source())
		}
	}
}

func TestProcessorEmptyDir(t *testing.T) {
	p, err := NewProcessor(t.TempDir(), 600, 200)
	if err != nil {
		t.Fatalf("NewProcessor: %v", err)
	}
	passages, err := p.Process(context.Background())
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if passages != nil {
		t.Errorf("got %v, want nil", passages)
	}
}

func TestProcessorMissingDir(t *testing.T) {
	if _, err := NewProcessor("/nonexistent/path", 600, 200); err == nil {
		t.Error("want error for missing directory")
	}
}

func TestProcessorRemoveStored(t *testing.T) {
	dir := writeDocs(t, map[string]string{"doc.txt": "content"})
	p, err := NewProcessor(dir, 600, 200)
	if err != nil {
		t.Fatal(err)
	}

	if err := p.RemoveStored("../escape.txt"); err == nil {
		t.Error("want error for path traversal")
	}
	if err := p.RemoveStored("doc.txt"); err != nil {
		t.Errorf("RemoveStored: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "doc.txt")); !os.IsNotExist(err) {
		t.Error("file not removed")
	}
}
