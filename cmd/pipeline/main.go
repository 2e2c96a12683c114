package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/retrodocs/digitizer/internal/bootstrap"
	"github.com/retrodocs/digitizer/internal/config"
	"github.com/retrodocs/digitizer/internal/core/domain"
	"github.com/retrodocs/digitizer/internal/core/ports"
)

// The batch pipeline walks the source directory and pushes every document
// through the requested stages. Individual document failures are recorded in
// the run summaries, never fatal; rerunning the binary resumes where the
// previous run stopped.
func main() {
	stageFlag := flag.String("stage", "all", "stage to run: extract, enhance, synthesize or all")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(cfg, "pipeline")
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	docs, err := app.DiscoverSourceDocuments()
	if err != nil {
		log.Fatalf("discover documents: %v", err)
	}
	if len(docs) == 0 {
		log.Printf("no documents in %s, nothing to do", cfg.SourceDir)
		return
	}

	runners, err := selectRunners(app, *stageFlag)
	if err != nil {
		log.Fatalf("%v", err)
	}

	for _, runner := range runners {
		summary := app.StageDriver(runner, "pipeline").Run(ctx, docs)
		log.Printf("stage %s done: %d ok, %d failed, %d skipped of %d",
			summary.Stage, summary.Successful, summary.Failed, summary.Skipped, summary.TotalFiles)
		if ctx.Err() != nil {
			log.Printf("run interrupted, summaries written for completed work")
			return
		}
	}
}

func selectRunners(app *bootstrap.App, stage string) ([]ports.StageRunner, error) {
	switch stage {
	case "all":
		return []ports.StageRunner{app.Extract, app.Enhance, app.Synthesize}, nil
	case string(domain.StageExtract):
		return []ports.StageRunner{app.Extract}, nil
	case string(domain.StageEnhance):
		return []ports.StageRunner{app.Enhance}, nil
	case string(domain.StageSynthesize):
		return []ports.StageRunner{app.Synthesize}, nil
	default:
		return nil, fmt.Errorf("unknown stage %q (want extract, enhance, synthesize or all)", stage)
	}
}
