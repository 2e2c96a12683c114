package manifest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/retrodocs/digitizer/internal/core/domain"
)

func TestLoadMissingManifestIsEmpty(t *testing.T) {
	store := NewStore(t.TempDir())

	m, err := store.Load("doc-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if m.Len() != 0 {
		t.Fatalf("expected empty manifest, got %d entries", m.Len())
	}
	if m.Has("page001_img01.png") {
		t.Fatalf("empty manifest should not report entries")
	}
}

func TestPutFlushesToDiskImmediately(t *testing.T) {
	assetsDir := t.TempDir()
	store := NewStore(assetsDir)

	m, err := store.Load("doc-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	analysis := domain.ImageAnalysis{
		Category:    "screenshot",
		Description: "Finder desktop with two windows",
		Entities:    []string{"Finder", "System 6"},
	}
	if err := m.Put("page001_img01.png", analysis); err != nil {
		t.Fatalf("put: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(assetsDir, "doc-1", "_manifest.json"))
	if err != nil {
		t.Fatalf("manifest file should exist after put: %v", err)
	}
	var onDisk map[string]domain.ImageAnalysis
	if err := json.Unmarshal(raw, &onDisk); err != nil {
		t.Fatalf("unmarshal manifest: %v", err)
	}
	if onDisk["page001_img01.png"].Category != "screenshot" {
		t.Fatalf("flushed entry mismatch: %+v", onDisk)
	}
}

func TestLoadResumesFromPreviousRun(t *testing.T) {
	assetsDir := t.TempDir()
	store := NewStore(assetsDir)

	first, err := store.Load("doc-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := first.Put("page001_img01.png", domain.ImageAnalysis{Category: "diagram"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := first.Put("page002_img01.png", domain.ImageAnalysis{Category: "table"}); err != nil {
		t.Fatalf("put: %v", err)
	}

	// A fresh load simulates the rerun after a crash.
	second, err := store.Load("doc-1")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if second.Len() != 2 {
		t.Fatalf("expected 2 resumed entries, got %d", second.Len())
	}
	if !second.Has("page001_img01.png") || !second.Has("page002_img01.png") {
		t.Fatalf("resumed manifest is missing entries: %+v", second.Snapshot())
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	store := NewStore(t.TempDir())

	m, err := store.Load("doc-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := m.Put("page001_img01.png", domain.ImageAnalysis{Category: "photo"}); err != nil {
		t.Fatalf("put: %v", err)
	}

	snap := m.Snapshot()
	delete(snap, "page001_img01.png")
	if !m.Has("page001_img01.png") {
		t.Fatalf("mutating a snapshot must not affect the manifest")
	}
}
