package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"screening-onboarding-be/internal/bootstrap"
	"screening-onboarding-be/internal/config"
	"screening-onboarding-be/internal/pkg/logger"
	"screening-onboarding-be/internal/service"
	"screening-onboarding-be/pkg/database"
	"screening-onboarding-be/pkg/filestore"
	"screening-onboarding-be/pkg/rag/index"

	"github.com/fatih/color"
	"gorm.io/gorm"
)

func main() {
	corpus := flag.String("corpus", index.Documentation, "corpus to build (documentation or session-<id>)")
	fresh := flag.Bool("fresh", false, "drop existing entries and rebuild from source")
	source := flag.String("source", "", "override the source directory")
	flag.Parse()

	cfg := config.Load()
	log := logger.NewIsolatedLogger(cfg.App.LogFilePath)
	defer log.Sync()

	var db *gorm.DB
	if bootstrap.NeedsDatabase(cfg) {
		conn, err := database.NewGormDBFromDSN(cfg.Database.Connection)
		if err != nil {
			color.Red("Failed to connect to database: %v", err)
			os.Exit(1)
		}
		db = conn
	}

	retrieval, err := bootstrap.NewRetrieval(cfg, db, log)
	if err != nil {
		color.Red("Failed to initialise retrieval: %v", err)
		os.Exit(1)
	}
	defer retrieval.Index.Close()

	dir := *source
	if dir == "" {
		dir, err = service.SourceDir(filestore.NewLocalStore(cfg.Uploads.Dir), cfg.Index.DocsDir, *corpus)
		if err != nil {
			color.Red("Invalid corpus %q: %v", *corpus, err)
			os.Exit(1)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	color.Cyan("Indexing %s from %s (backend %s)", *corpus, dir, retrieval.Index.Backend())

	if *fresh {
		report, err := retrieval.Index.RebuildFresh(ctx, *corpus, dir, true)
		if err != nil {
			color.Red("Rebuild failed: %v", err)
			os.Exit(1)
		}
		color.Green("Rebuilt: %d documents, %d chunks, %d skipped", report.Documents, report.Chunks, report.Skipped)
	} else {
		built, err := retrieval.Index.EnsureBuilt(ctx, *corpus, dir)
		if err != nil {
			color.Red("Build failed: %v", err)
			os.Exit(1)
		}
		if !built {
			color.Yellow("Corpus already present, nothing to do (use --fresh to rebuild)")
		}
	}

	status, err := retrieval.Index.Status(ctx, *corpus)
	if err != nil {
		color.Red("Status failed: %v", err)
		os.Exit(1)
	}
	color.Green("Corpus %s: %d entries (ephemeral=%t)", status.Corpus, status.Entries, status.Ephemeral)
}
