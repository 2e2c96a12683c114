package domain

import (
	"path/filepath"
	"strings"
)

// Stage is one discrete transformation step of the pipeline.
type Stage string

const (
	StageExtract    Stage = "extract"
	StageEnhance    Stage = "enhance"
	StageSynthesize Stage = "synthesize"
)

// Stages lists the pipeline stages in execution order. Each stage consumes
// the previous stage's output, so the order is fixed.
func Stages() []Stage {
	return []Stage{StageExtract, StageEnhance, StageSynthesize}
}

type StageStatus string

const (
	StatusPending    StageStatus = "pending"
	StatusProcessing StageStatus = "processing"
	StatusSuccess    StageStatus = "success"
	StatusFailed     StageStatus = "failed"
	StatusSkipped    StageStatus = "skipped"
)

// Document identifies one source file moving through the pipeline. The ID is
// the base filename with its extension stripped; it keys every per-stage
// output path. SourceHash is filled in by the extract stage for traceability.
type Document struct {
	ID         string `json:"id"`
	SourcePath string `json:"source_path"`
	SourceHash string `json:"source_hash,omitempty"`
}

// NewDocument derives a Document identity from a source file path.
func NewDocument(sourcePath string) Document {
	base := filepath.Base(sourcePath)
	return Document{
		ID:         strings.TrimSuffix(base, filepath.Ext(base)),
		SourcePath: sourcePath,
	}
}
