package httpadapter

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/retrodocs/digitizer/internal/core/domain"
	"github.com/retrodocs/digitizer/internal/core/ports"
)

const maxUploadBytes = 256 << 20

// Router is the upload ingress: it persists incoming files into the source
// directory, routes them by extension to the right stage sequence, and hands
// them to the worker through the queue. Processing is asynchronous; the
// response is an accepted-with-identifier record per file.
type Router struct {
	sourceDir   string
	store       ports.ArtifactStore
	queue       ports.MessageQueue
	validatePDF func(path string) error
	log         *slog.Logger
}

// NewRouter builds the ingress. validatePDF may be nil; when set it runs
// against saved PDF uploads so corrupt or empty files are rejected here
// instead of failing inside the pipeline.
func NewRouter(sourceDir string, store ports.ArtifactStore, queue ports.MessageQueue, validatePDF func(string) error, log *slog.Logger) *Router {
	return &Router{
		sourceDir:   sourceDir,
		store:       store,
		queue:       queue,
		validatePDF: validatePDF,
		log:         log,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/documents", rt.uploadDocuments)
	mux.HandleFunc("/v1/documents/", rt.documentStatus)
	return requestIDMiddleware(accessLogMiddleware(mux))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type acceptedFile struct {
	Document string      `json:"document"`
	Filename string      `json:"filename"`
	Flow     domain.Flow `json:"flow"`
}

type rejectedFile struct {
	Filename string `json:"filename"`
	Reason   string `json:"reason"`
}

func (rt *Router) uploadDocuments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid multipart request"})
		return
	}
	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'files' is required"})
		return
	}

	var accepted []acceptedFile
	var rejected []rejectedFile
	for _, header := range files {
		record, err := rt.acceptUpload(r, header)
		if err != nil {
			rejected = append(rejected, rejectedFile{Filename: header.Filename, Reason: err.Error()})
			continue
		}
		accepted = append(accepted, record)
	}

	status := http.StatusAccepted
	if len(accepted) == 0 {
		status = http.StatusBadRequest
	}
	writeJSON(w, status, map[string]any{
		"accepted": accepted,
		"rejected": rejected,
	})
}

func (rt *Router) acceptUpload(r *http.Request, header *multipart.FileHeader) (acceptedFile, error) {
	flow, err := flowForFilename(header.Filename)
	if err != nil {
		return acceptedFile{}, err
	}

	file, err := header.Open()
	if err != nil {
		return acceptedFile{}, fmt.Errorf("open upload: %w", err)
	}
	defer file.Close()

	name := sanitizeFilename(header.Filename)
	path := filepath.Join(rt.sourceDir, name)
	if err := saveUpload(path, file); err != nil {
		return acceptedFile{}, err
	}

	if flow == domain.FlowFull && rt.validatePDF != nil {
		if err := rt.validatePDF(path); err != nil {
			os.Remove(path)
			return acceptedFile{}, fmt.Errorf("invalid pdf: %w", err)
		}
	}

	job := domain.Job{
		Document:   strings.TrimSuffix(name, filepath.Ext(name)),
		SourcePath: path,
		Flow:       flow,
	}
	if err := rt.queue.PublishDocumentQueued(r.Context(), job); err != nil {
		return acceptedFile{}, fmt.Errorf("queue document: %w", err)
	}

	rt.log.Info("document_accepted", "document", job.Document, "flow", job.Flow)
	return acceptedFile{Document: job.Document, Filename: name, Flow: flow}, nil
}

// documentStatus reports per-stage completion straight from the artifact
// store; presence on disk is the only completion state that exists.
func (rt *Router) documentStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/v1/documents/")
	if id == "" || strings.Contains(id, "/") {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "document id is required"})
		return
	}

	stages := make(map[string]bool, 3)
	for _, stage := range domain.Stages() {
		stages[string(stage)] = rt.store.StageComplete(id, stage)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"document": id,
		"stages":   stages,
	})
}

func flowForFilename(filename string) (domain.Flow, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return domain.FlowFull, nil
	case ".md", ".txt":
		return domain.FlowSynthesis, nil
	default:
		return "", fmt.Errorf("unsupported file type %q", filepath.Ext(filename))
	}
}

func saveUpload(path string, file multipart.File) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create source dir: %w", err)
	}
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create source file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, file); err != nil {
		return fmt.Errorf("write source file: %w", err)
	}
	return nil
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" || base == "." {
		return "document.bin"
	}
	return base
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
