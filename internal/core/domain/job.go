package domain

// Flow selects which stage sequence a queued document runs through.
type Flow string

const (
	// FlowFull runs extract -> enhance -> synthesize. Used for PDFs.
	FlowFull Flow = "full"
	// FlowSynthesis skips straight to the synthesis stage. Used for inputs
	// that are already Markdown or plain text.
	FlowSynthesis Flow = "synthesis"
)

// Job is the queue message handed from the ingress API to the worker.
type Job struct {
	Document   string `json:"document"`
	SourcePath string `json:"source_path"`
	Flow       Flow   `json:"flow"`
}
