package localfs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/retrodocs/digitizer/internal/core/domain"
)

// Layout maps a document identity to its per-stage output paths. Every path
// derivation lives here so the idempotency policy never depends on string
// manipulation scattered through the stages.
type Layout struct {
	SourceDir    string
	ExtractedDir string
	AssetsDir    string
	EnhancedDir  string
	FinalDir     string
}

func summaryFilename(stage domain.Stage) string {
	switch stage {
	case domain.StageExtract:
		return "_stage1_processing.json"
	case domain.StageEnhance:
		return "_stage2_processing.json"
	default:
		return "_stage3_processing.json"
	}
}

func (l Layout) stageDir(stage domain.Stage) string {
	switch stage {
	case domain.StageExtract:
		return l.ExtractedDir
	case domain.StageEnhance:
		return l.EnhancedDir
	default:
		return l.FinalDir
	}
}

// Store is the filesystem artifact store. The tree it manages is the sole
// source of truth for stage completion.
type Store struct {
	layout Layout
}

func New(layout Layout) (*Store, error) {
	for _, dir := range []string{layout.ExtractedDir, layout.AssetsDir, layout.EnhancedDir, layout.FinalDir} {
		if dir == "" {
			return nil, fmt.Errorf("artifact layout has an empty directory")
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create artifact dir: %w", err)
		}
	}
	return &Store{layout: layout}, nil
}

func (s *Store) Layout() Layout { return s.layout }

// StageComplete reports whether the stage's expected outputs already exist.
// The extract stage requires both the Markdown file and the asset directory;
// later stages only produce a Markdown file.
func (s *Store) StageComplete(docID string, stage domain.Stage) bool {
	if !exists(s.stageOutputPath(docID, stage)) {
		return false
	}
	if stage == domain.StageExtract {
		info, err := os.Stat(s.AssetDir(docID))
		return err == nil && info.IsDir()
	}
	return true
}

func (s *Store) WriteStageOutput(docID string, stage domain.Stage, content []byte) error {
	return writeAtomic(s.stageOutputPath(docID, stage), content)
}

func (s *Store) ReadStageOutput(docID string, stage domain.Stage) ([]byte, error) {
	content, err := os.ReadFile(s.stageOutputPath(docID, stage))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.WrapError(domain.ErrDocumentNotFound, "read stage output", err)
		}
		return nil, fmt.Errorf("read stage output: %w", err)
	}
	return content, nil
}

// AssetDir returns the document's asset directory, creating it on first use.
func (s *Store) AssetDir(docID string) string {
	return filepath.Join(s.layout.AssetsDir, docID)
}

func (s *Store) EnsureAssetDir(docID string) (string, error) {
	dir := s.AssetDir(docID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create asset dir: %w", err)
	}
	return dir, nil
}

func (s *Store) WriteSummary(stage domain.Stage, summary domain.RunSummary) error {
	payload, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal run summary: %w", err)
	}
	path := filepath.Join(s.layout.stageDir(stage), summaryFilename(stage))
	return writeAtomic(path, payload)
}

func (s *Store) WriteQualityReport(docID string, metrics domain.QualityMetrics) error {
	payload, err := json.MarshalIndent(metrics, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal quality report: %w", err)
	}
	path := filepath.Join(s.layout.FinalDir, docID+"_quality_report.json")
	return writeAtomic(path, payload)
}

func (s *Store) stageOutputPath(docID string, stage domain.Stage) string {
	return filepath.Join(s.layout.stageDir(stage), docID+".md")
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// writeAtomic stages the content in a temp file next to the target and
// renames it into place, so a reader never observes a partially written
// file as existing.
func writeAtomic(path string, content []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create parent dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// WriteFileAtomic exposes the store's atomic write for collaborators that
// persist beside the artifacts, such as the image manifest.
func WriteFileAtomic(path string, content []byte) error {
	return writeAtomic(path, content)
}
