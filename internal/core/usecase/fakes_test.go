package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/retrodocs/digitizer/internal/core/domain"
	"github.com/retrodocs/digitizer/internal/core/ports"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type storeFake struct {
	mu        sync.Mutex
	assetRoot string
	outputs   map[string][]byte
	summaries []domain.RunSummary
	quality   map[string]domain.QualityMetrics

	writeErr      error
	summaryErr    error
	qualityErr    error
	writtenStages []domain.Stage
}

func newStoreFake(assetRoot string) *storeFake {
	return &storeFake{
		assetRoot: assetRoot,
		outputs:   make(map[string][]byte),
		quality:   make(map[string]domain.QualityMetrics),
	}
}

func outputKey(docID string, stage domain.Stage) string {
	return string(stage) + "/" + docID
}

func (f *storeFake) StageComplete(docID string, stage domain.Stage) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.outputs[outputKey(docID, stage)]
	return ok
}

func (f *storeFake) WriteStageOutput(docID string, stage domain.Stage, content []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	f.outputs[outputKey(docID, stage)] = content
	f.writtenStages = append(f.writtenStages, stage)
	return nil
}

func (f *storeFake) ReadStageOutput(docID string, stage domain.Stage) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	content, ok := f.outputs[outputKey(docID, stage)]
	if !ok {
		return nil, fmt.Errorf("read stage output: %w", domain.ErrDocumentNotFound)
	}
	return content, nil
}

func (f *storeFake) AssetDir(docID string) string {
	return filepath.Join(f.assetRoot, docID)
}

func (f *storeFake) WriteSummary(_ domain.Stage, summary domain.RunSummary) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.summaryErr != nil {
		return f.summaryErr
	}
	f.summaries = append(f.summaries, summary)
	return nil
}

func (f *storeFake) WriteQualityReport(docID string, metrics domain.QualityMetrics) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.qualityErr != nil {
		return f.qualityErr
	}
	f.quality[docID] = metrics
	return nil
}

type manifestFake struct {
	mu      sync.Mutex
	entries map[string]domain.ImageAnalysis
	putErr  error
}

func newManifestFake() *manifestFake {
	return &manifestFake{entries: make(map[string]domain.ImageAnalysis)}
}

func (f *manifestFake) Has(filename string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.entries[filename]
	return ok
}

func (f *manifestFake) Put(filename string, analysis domain.ImageAnalysis) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		return f.putErr
	}
	f.entries[filename] = analysis
	return nil
}

func (f *manifestFake) Snapshot() map[string]domain.ImageAnalysis {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]domain.ImageAnalysis, len(f.entries))
	for k, v := range f.entries {
		out[k] = v
	}
	return out
}

func (f *manifestFake) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}

type manifestStoreFake struct {
	manifest *manifestFake
	loadErr  error
}

func (f *manifestStoreFake) Load(string) (ports.ImageManifest, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return f.manifest, nil
}

type textExtractorFake struct {
	text string
	err  error
}

func (f *textExtractorFake) ExtractText(context.Context, string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

type imageExtractorFake struct {
	files []string
	err   error
}

func (f *imageExtractorFake) ExtractImages(context.Context, string, string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.files, nil
}

type ocrFake struct {
	pages   map[string]string
	pageErr map[string]error
	calls   []string
}

func (f *ocrFake) RecognizeImage(_ context.Context, imagePath string) (string, error) {
	name := filepath.Base(imagePath)
	f.calls = append(f.calls, name)
	if err := f.pageErr[name]; err != nil {
		return "", err
	}
	return f.pages[name], nil
}

type analyzerFake struct {
	analysis domain.ImageAnalysis
	failFor  map[string]error
	calls    []string
}

func (f *analyzerFake) AnalyzeImage(_ context.Context, imagePath string) (domain.ImageAnalysis, error) {
	name := filepath.Base(imagePath)
	f.calls = append(f.calls, name)
	if err := f.failFor[name]; err != nil {
		return domain.ImageAnalysis{}, err
	}
	return f.analysis, nil
}

type refinerFake struct {
	failOn map[string]error
	calls  int
}

func (f *refinerFake) RefineSection(_ context.Context, section string) (string, error) {
	f.calls++
	for marker, err := range f.failOn {
		if marker != "" && strings.Contains(section, marker) {
			return "", err
		}
	}
	return "CLEAN: " + section, nil
}

type chunkerFake struct {
	sections []string
}

func (f *chunkerFake) Split(string) []string { return f.sections }

type synthesizerFake struct {
	out string
	err error
}

func (f *synthesizerFake) Synthesize(context.Context, string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.out, nil
}

type runnerFake struct {
	stage   domain.Stage
	mu      sync.Mutex
	results map[string]domain.DocumentDetail
	calls   []string
}

func (f *runnerFake) Stage() domain.Stage { return f.stage }

func (f *runnerFake) Run(_ context.Context, doc domain.Document) domain.DocumentDetail {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, doc.ID)
	if detail, ok := f.results[doc.ID]; ok {
		return detail
	}
	return domain.DocumentDetail{Document: doc.ID, Status: domain.StatusSuccess}
}
