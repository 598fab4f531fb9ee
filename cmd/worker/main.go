// Command worker runs the enrichment consumers. Each instance subscribes to
// a configurable subset of the job kinds (thumbnail, sentiment, translate,
// generate) and processes jobs until stopped. With -backfill it instead
// enqueues a sentiment job for every post that has no label yet and exits.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/go-social-backend/internal/config"
	"github.com/tbourn/go-social-backend/internal/enrich"
	"github.com/tbourn/go-social-backend/internal/media"
	"github.com/tbourn/go-social-backend/internal/queue"
	"github.com/tbourn/go-social-backend/internal/repo"
	"github.com/tbourn/go-social-backend/internal/sysutil"
)

func main() {
	backfill := flag.Bool("backfill", false, "enqueue sentiment jobs for posts without a label, then exit")
	flag.Parse()

	if err := run(*backfill); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(backfill bool) error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	sysutil.SetLogLevel(cfg.LogLevel)
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := repo.Open(cfg.Storage)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()

	nc, err := queue.Connect(cfg.Queue.URL)
	if err != nil {
		return fmt.Errorf("connect queue: %w", err)
	}
	defer nc.Close()
	if err := nc.EnsureStreams(); err != nil {
		return fmt.Errorf("ensure streams: %w", err)
	}

	if backfill {
		return runBackfill(ctx, db, nc)
	}

	workers, err := buildWorkers(cfg, db, nc)
	if err != nil {
		return err
	}

	runner := enrich.NewRunner(nc, workers...)
	if err := runner.Run(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("worker runner: %w", err)
	}
	log.Info().Msg("worker stopped")
	return nil
}

// buildWorkers assembles the worker set from the configured kinds. When a
// model endpoint is configured, sentiment scoring, translation, and
// generation call it; otherwise sentiment falls back to the built-in lexicon
// and translate/generate reply with a configuration error.
func buildWorkers(cfg config.Config, db *gorm.DB, nc *queue.Client) ([]enrich.Worker, error) {
	var model *enrich.ModelClient
	if cfg.Worker.ModelEndpoint != "" {
		model = enrich.NewModelClient(cfg.Worker.ModelEndpoint)
		log.Info().Str("endpoint", cfg.Worker.ModelEndpoint).Msg("using model backend")
	}

	var workers []enrich.Worker
	for _, name := range cfg.Worker.Kinds {
		switch queue.Kind(name) {
		case queue.KindThumbnail:
			store, err := media.NewStore(cfg.UploadDir)
			if err != nil {
				return nil, fmt.Errorf("media store: %w", err)
			}
			t := enrich.NewThumbnailer(db, store)
			workers = append(workers, enrich.Worker{Kind: queue.KindThumbnail, Handle: t.Handle})
		case queue.KindSentiment:
			var scorer enrich.Scorer = enrich.LexiconScorer{}
			if model != nil {
				scorer = model
			}
			w := enrich.NewSentimentWorker(db, scorer)
			workers = append(workers, enrich.Worker{Kind: queue.KindSentiment, Handle: w.Handle})
		case queue.KindTranslate:
			var tr enrich.Translator
			if model != nil {
				tr = model
			}
			w := enrich.NewTranslateWorker(nc, tr)
			workers = append(workers, enrich.Worker{Kind: queue.KindTranslate, Handle: w.Handle})
		case queue.KindGenerate:
			var gen enrich.Generator
			if model != nil {
				gen = model
			}
			w := enrich.NewGenerateWorker(nc, gen)
			workers = append(workers, enrich.Worker{Kind: queue.KindGenerate, Handle: w.Handle})
		default:
			return nil, fmt.Errorf("unknown worker kind %q", name)
		}
	}
	if len(workers) == 0 {
		return nil, errors.New("no worker kinds configured")
	}
	return workers, nil
}

// runBackfill publishes a sentiment job for every post that has no label.
func runBackfill(ctx context.Context, db *gorm.DB, nc *queue.Client) error {
	posts, err := repo.ListPostsWithoutSentiment(ctx, db)
	if err != nil {
		return fmt.Errorf("list posts: %w", err)
	}
	n := 0
	for _, p := range posts {
		body, err := json.Marshal(queue.SentimentJob{PostID: p.ID, Text: p.Text})
		if err != nil {
			continue
		}
		if err := nc.Publish(ctx, queue.KindSentiment.Subject(), body); err != nil {
			return fmt.Errorf("publish after %d jobs: %w", n, err)
		}
		n++
	}
	log.Info().Int("jobs", n).Msg("sentiment backfill enqueued")
	return nil
}
