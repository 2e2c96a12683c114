package bootstrap

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/time/rate"

	httpadapter "github.com/retrodocs/digitizer/internal/adapters/http"
	"github.com/retrodocs/digitizer/internal/config"
	"github.com/retrodocs/digitizer/internal/core/domain"
	"github.com/retrodocs/digitizer/internal/core/ports"
	"github.com/retrodocs/digitizer/internal/core/usecase"
	"github.com/retrodocs/digitizer/internal/infrastructure/artifact/localfs"
	"github.com/retrodocs/digitizer/internal/infrastructure/chunking"
	"github.com/retrodocs/digitizer/internal/infrastructure/llm/openai"
	"github.com/retrodocs/digitizer/internal/infrastructure/manifest"
	"github.com/retrodocs/digitizer/internal/infrastructure/ocr/tesseract"
	"github.com/retrodocs/digitizer/internal/infrastructure/pdf"
	natsqueue "github.com/retrodocs/digitizer/internal/infrastructure/queue/nats"
	"github.com/retrodocs/digitizer/internal/infrastructure/resilience"
	"github.com/retrodocs/digitizer/internal/observability/logging"
	"github.com/retrodocs/digitizer/internal/observability/metrics"
)

// App holds the fully wired object graph. Every binary builds the same graph
// and uses the slice of it that it needs; wiring mistakes then surface in one
// place instead of three.
type App struct {
	Config  config.Config
	Log     *slog.Logger
	Metrics *metrics.PipelineMetrics

	Store     *localfs.Store
	Manifests *manifest.Store

	Extract    ports.StageRunner
	Enhance    ports.StageRunner
	Synthesize ports.StageRunner

	Processor *usecase.Processor

	Queue *natsqueue.Queue
}

// New wires the core pipeline graph. Config validation happens here, before
// any work is accepted; missing model credentials abort startup.
func New(cfg config.Config, service string) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := logging.NewJSONLogger(service, cfg.LogLevel)
	slog.SetDefault(log)

	store, err := localfs.New(localfs.Layout{
		SourceDir:    cfg.SourceDir,
		ExtractedDir: cfg.ExtractedDir,
		AssetsDir:    cfg.AssetsDir,
		EnhancedDir:  cfg.EnhancedDir,
		FinalDir:     cfg.FinalDir,
	})
	if err != nil {
		return nil, fmt.Errorf("init artifact store: %w", err)
	}
	manifests := manifest.NewStore(cfg.AssetsDir)

	executorCfg := resilience.DefaultConfig()
	executorCfg.RetryMaxAttempts = cfg.RetryMaxAttempts
	executorCfg.RetryInitialBackoff = time.Duration(cfg.RetryInitialBackoffMS) * time.Millisecond
	executorCfg.RetryMaxBackoff = time.Duration(cfg.RetryMaxBackoffMS) * time.Millisecond
	executor := resilience.NewExecutor(executorCfg)

	limiter := rate.NewLimiter(rate.Limit(cfg.LLMRequestsPerSecond), 1)
	llmClient := openai.New(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, executor, limiter)

	var ocrEngine ports.OCREngine
	if cfg.FallbackOCREnabled {
		ocrEngine = tesseract.New(strings.Split(cfg.OCRLanguages, "+")...)
	}

	extract := usecase.NewExtractRunner(
		store,
		pdf.NewTextExtractor(),
		pdf.NewImageExtractor(),
		ocrEngine,
		log,
	)
	enhance := usecase.NewEnhanceRunner(
		store,
		manifests,
		openai.NewAnalyzer(llmClient),
		openai.NewRefiner(llmClient),
		chunking.NewSectionSplitter(),
		log,
	)
	synthesize := usecase.NewSynthesizeRunner(store, openai.NewSynthesizer(llmClient), log)

	return &App{
		Config:     cfg,
		Log:        log,
		Metrics:    metrics.NewPipelineMetrics(service),
		Store:      store,
		Manifests:  manifests,
		Extract:    extract,
		Enhance:    enhance,
		Synthesize: synthesize,
		Processor:  usecase.NewProcessor(store, extract, enhance, synthesize, log),
	}, nil
}

// ConnectQueue attaches the NATS queue. Only the api and worker binaries call
// this; the batch pipeline runs without a broker.
func (a *App) ConnectQueue() error {
	queue, err := natsqueue.New(a.Config.NATSURL, a.Config.NATSSubject)
	if err != nil {
		return fmt.Errorf("connect queue: %w", err)
	}
	a.Queue = queue
	return nil
}

func (a *App) Close() {
	if a.Queue != nil {
		a.Queue.Close()
	}
}

// StageDriver builds the batch driver for one stage.
func (a *App) StageDriver(runner ports.StageRunner, service string) *usecase.Driver {
	return usecase.NewDriver(runner, a.Store, a.Config.PipelineWorkers, service, a.Log, a.Metrics)
}

// IngressRouter builds the upload HTTP surface. ConnectQueue must have been
// called first.
func (a *App) IngressRouter() *httpadapter.Router {
	validate := func(path string) error {
		pages, err := pdf.PageCount(path)
		if err != nil {
			return err
		}
		if pages == 0 {
			return fmt.Errorf("pdf has no pages")
		}
		return nil
	}
	return httpadapter.NewRouter(a.Config.SourceDir, a.Store, a.Queue, validate, a.Log)
}

// DiscoverSourceDocuments lists the PDF documents sitting in the source
// directory, sorted by name so runs are reproducible.
func (a *App) DiscoverSourceDocuments() ([]domain.Document, error) {
	entries, err := os.ReadDir(a.Config.SourceDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read source dir: %w", err)
	}

	var docs []domain.Document
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !strings.EqualFold(filepath.Ext(entry.Name()), ".pdf") {
			continue
		}
		docs = append(docs, domain.NewDocument(filepath.Join(a.Config.SourceDir, entry.Name())))
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs, nil
}
