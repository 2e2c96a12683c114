package domain

import "time"

// DocumentDetail is the terminal record for one (document, stage) pair within
// a run. Failures are carried as values here rather than as errors so that a
// single bad document can never unwind the batch.
type DocumentDetail struct {
	Document string      `json:"document"`
	Status   StageStatus `json:"status"`
	Error    string      `json:"error,omitempty"`

	// extract stage
	SourceHash string `json:"source_hash,omitempty"`
	OCRMethod  string `json:"ocr_method,omitempty"`
	CharCount  int    `json:"char_count,omitempty"`
	ImageCount int    `json:"image_count,omitempty"`

	// enhance stage
	ImagesAnalyzed int `json:"images_analyzed,omitempty"`
	APICalls       int `json:"api_calls,omitempty"`

	// synthesize stage
	FinalSizeKB    float64         `json:"final_size_kb,omitempty"`
	QualityMetrics *QualityMetrics `json:"quality_metrics,omitempty"`
}

// RunSummary aggregates one driver invocation over a document set. It is
// finalized once at the end of the run and never mutated afterwards.
type RunSummary struct {
	RunID      string    `json:"run_id"`
	Stage      Stage     `json:"stage"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	TotalFiles int       `json:"total_files"`
	Successful int       `json:"successful"`
	Failed     int       `json:"failed"`
	Skipped    int       `json:"skipped"`

	TotalCharsExtracted  int `json:"total_chars_extracted,omitempty"`
	TotalImagesExtracted int `json:"total_images_extracted,omitempty"`
	TotalImagesAnalyzed  int `json:"total_images_analyzed,omitempty"`
	TotalAPICalls        int `json:"total_api_calls,omitempty"`

	ProcessingDetails []DocumentDetail `json:"processing_details"`
}

// Absorb folds one terminal document detail into the summary counters.
func (s *RunSummary) Absorb(detail DocumentDetail) {
	s.ProcessingDetails = append(s.ProcessingDetails, detail)
	switch detail.Status {
	case StatusSuccess:
		s.Successful++
		s.TotalCharsExtracted += detail.CharCount
		s.TotalImagesExtracted += detail.ImageCount
	case StatusFailed:
		s.Failed++
	default:
		s.Skipped++
	}
	s.TotalImagesAnalyzed += detail.ImagesAnalyzed
	s.TotalAPICalls += detail.APICalls
}
