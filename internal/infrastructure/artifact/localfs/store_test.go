package localfs

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/retrodocs/digitizer/internal/core/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	root := t.TempDir()
	store, err := New(Layout{
		SourceDir:    filepath.Join(root, "source"),
		ExtractedDir: filepath.Join(root, "extracted"),
		AssetsDir:    filepath.Join(root, "assets"),
		EnhancedDir:  filepath.Join(root, "enhanced"),
		FinalDir:     filepath.Join(root, "final"),
	})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store
}

func TestStageCompleteRequiresOutputFile(t *testing.T) {
	store := newTestStore(t)

	if store.StageComplete("doc-1", domain.StageEnhance) {
		t.Fatalf("stage should be incomplete before any write")
	}
	if err := store.WriteStageOutput("doc-1", domain.StageEnhance, []byte("# cleaned")); err != nil {
		t.Fatalf("write stage output: %v", err)
	}
	if !store.StageComplete("doc-1", domain.StageEnhance) {
		t.Fatalf("stage should be complete after write")
	}
}

func TestExtractStageCompleteRequiresAssetDir(t *testing.T) {
	store := newTestStore(t)

	if err := store.WriteStageOutput("doc-1", domain.StageExtract, []byte("text")); err != nil {
		t.Fatalf("write stage output: %v", err)
	}
	if store.StageComplete("doc-1", domain.StageExtract) {
		t.Fatalf("extract stage should be incomplete without its asset dir")
	}

	if _, err := store.EnsureAssetDir("doc-1"); err != nil {
		t.Fatalf("ensure asset dir: %v", err)
	}
	if !store.StageComplete("doc-1", domain.StageExtract) {
		t.Fatalf("extract stage should be complete with output and asset dir")
	}
}

func TestReadStageOutputMissingIsNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.ReadStageOutput("ghost", domain.StageExtract)
	if !errors.Is(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
}

func TestWriteStageOutputRoundTrip(t *testing.T) {
	store := newTestStore(t)

	content := []byte("## Section\n\nbody")
	if err := store.WriteStageOutput("doc-1", domain.StageSynthesize, content); err != nil {
		t.Fatalf("write stage output: %v", err)
	}
	got, err := store.ReadStageOutput("doc-1", domain.StageSynthesize)
	if err != nil {
		t.Fatalf("read stage output: %v", err)
	}
	if string(got) != string(content) {
		t.Fatalf("read back %q, want %q", got, content)
	}
}

func TestWriteAtomicLeavesNoTempFiles(t *testing.T) {
	store := newTestStore(t)

	if err := store.WriteStageOutput("doc-1", domain.StageEnhance, []byte("one")); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := store.WriteStageOutput("doc-1", domain.StageEnhance, []byte("two")); err != nil {
		t.Fatalf("second write: %v", err)
	}

	entries, err := os.ReadDir(store.Layout().EnhancedDir)
	if err != nil {
		t.Fatalf("read enhanced dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected exactly one file after overwrite, got %d", len(entries))
	}

	got, err := store.ReadStageOutput("doc-1", domain.StageEnhance)
	if err != nil {
		t.Fatalf("read stage output: %v", err)
	}
	if string(got) != "two" {
		t.Fatalf("expected last write to win, got %q", got)
	}
}

func TestWriteSummaryUsesStageFilename(t *testing.T) {
	store := newTestStore(t)

	summary := domain.RunSummary{
		RunID:      "run-1",
		Stage:      domain.StageExtract,
		TotalFiles: 2,
		Successful: 1,
		Failed:     1,
	}
	if err := store.WriteSummary(domain.StageExtract, summary); err != nil {
		t.Fatalf("write summary: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(store.Layout().ExtractedDir, "_stage1_processing.json"))
	if err != nil {
		t.Fatalf("read summary file: %v", err)
	}
	var got domain.RunSummary
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal summary: %v", err)
	}
	if got.RunID != "run-1" || got.TotalFiles != 2 {
		t.Fatalf("summary round trip mismatch: %+v", got)
	}
}

func TestWriteQualityReport(t *testing.T) {
	store := newTestStore(t)

	metrics := domain.QualityMetrics{TotalLines: 10, HeaderCount: 3}
	if err := store.WriteQualityReport("manual", metrics); err != nil {
		t.Fatalf("write quality report: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(store.Layout().FinalDir, "manual_quality_report.json"))
	if err != nil {
		t.Fatalf("read quality report: %v", err)
	}
	var got domain.QualityMetrics
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal quality report: %v", err)
	}
	if got != metrics {
		t.Fatalf("quality report mismatch: got %+v want %+v", got, metrics)
	}
}
