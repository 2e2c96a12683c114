package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/retrodocs/digitizer/internal/core/domain"
	"github.com/retrodocs/digitizer/internal/core/ports"
)

const (
	ocrMethodPDFText   = "pdf_text"
	ocrMethodTesseract = "fallback_tesseract"

	pageBreakSeparator = "\n\n--- Page Break ---\n\n"
)

// ExtractRunner is stage 1: PDF -> Markdown text plus embedded image assets.
// When the source has no text layer at all, the extracted page images are run
// through the fallback OCR engine instead.
type ExtractRunner struct {
	store  ports.ArtifactStore
	text   ports.TextExtractor
	images ports.ImageExtractor
	ocr    ports.OCREngine
	log    *slog.Logger
}

func NewExtractRunner(
	store ports.ArtifactStore,
	text ports.TextExtractor,
	images ports.ImageExtractor,
	ocr ports.OCREngine,
	log *slog.Logger,
) *ExtractRunner {
	return &ExtractRunner{
		store:  store,
		text:   text,
		images: images,
		ocr:    ocr,
		log:    log,
	}
}

func (r *ExtractRunner) Stage() domain.Stage { return domain.StageExtract }

func (r *ExtractRunner) Run(ctx context.Context, doc domain.Document) domain.DocumentDetail {
	detail := domain.DocumentDetail{Document: doc.ID, Status: domain.StatusSkipped}

	if r.store.StageComplete(doc.ID, domain.StageExtract) {
		r.log.Info("stage_skipped", "stage", r.Stage(), "document", doc.ID)
		return detail
	}

	r.log.Info("stage_processing", "stage", r.Stage(), "document", doc.ID)

	hash, err := hashFile(doc.SourcePath)
	if err != nil {
		return r.failed(detail, "hash source", err)
	}
	detail.SourceHash = hash

	// Images come out first so the OCR fallback has page scans to work
	// with when the text layer turns out to be empty.
	imageFiles, err := r.images.ExtractImages(ctx, doc.SourcePath, r.store.AssetDir(doc.ID))
	if err != nil {
		return r.failed(detail, "extract images", err)
	}
	detail.ImageCount = len(imageFiles)

	text, err := r.text.ExtractText(ctx, doc.SourcePath)
	if err != nil {
		return r.failed(detail, "extract text", err)
	}
	detail.OCRMethod = ocrMethodPDFText

	if strings.TrimSpace(text) == "" {
		text = r.fallbackOCR(ctx, doc, imageFiles)
		detail.OCRMethod = ocrMethodTesseract
	}
	detail.CharCount = len(text)

	// The Markdown file is the commit point: it is written last, so a
	// crash mid-extraction leaves the stage incomplete and rerunnable.
	if err := r.store.WriteStageOutput(doc.ID, domain.StageExtract, []byte(text)); err != nil {
		return r.failed(detail, "write output", err)
	}

	detail.Status = domain.StatusSuccess
	r.log.Info("stage_success",
		"stage", r.Stage(),
		"document", doc.ID,
		"ocr_method", detail.OCRMethod,
		"char_count", detail.CharCount,
		"image_count", detail.ImageCount,
	)
	return detail
}

// fallbackOCR recognizes each extracted page image in order. A page that
// fails recognition is logged and omitted rather than sinking the document.
func (r *ExtractRunner) fallbackOCR(ctx context.Context, doc domain.Document, imageFiles []string) string {
	if r.ocr == nil {
		r.log.Warn("fallback_ocr_unavailable", "document", doc.ID)
		return ""
	}

	r.log.Warn("fallback_ocr_engaged", "document", doc.ID, "pages", len(imageFiles))
	assetDir := r.store.AssetDir(doc.ID)

	var pages []string
	for _, name := range imageFiles {
		if ctx.Err() != nil {
			break
		}
		text, err := r.ocr.RecognizeImage(ctx, filepath.Join(assetDir, name))
		if err != nil {
			r.log.Warn("fallback_ocr_page_failed", "document", doc.ID, "image", name, "error", err)
			continue
		}
		pages = append(pages, text)
	}
	return strings.Join(pages, pageBreakSeparator)
}

func (r *ExtractRunner) failed(detail domain.DocumentDetail, operation string, err error) domain.DocumentDetail {
	detail.Status = domain.StatusFailed
	detail.Error = fmt.Sprintf("%s: %v", operation, err)
	r.log.Error("stage_failed", "stage", r.Stage(), "document", detail.Document, "error", detail.Error)
	return detail
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open source: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash source: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
