package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/conorfennell/part66/internal/catalog"
	"github.com/conorfennell/part66/internal/config"
	"github.com/conorfennell/part66/internal/logging"
	"github.com/conorfennell/part66/internal/storage"
	"github.com/conorfennell/part66/internal/study"
	"github.com/conorfennell/part66/internal/sweeper"
	"github.com/conorfennell/part66/internal/sync"
	"github.com/conorfennell/part66/internal/web"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "part66:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	// 1. Define and parse command-line flags
	flags := pflag.NewFlagSet("part66", pflag.ExitOnError)
	config.RegisterFlags(flags)
	addSource := flags.String("add-source", "", "Register a local directory or git URL as a deck source and exit")
	runSync := flags.Bool("sync", false, "Sync all deck sources and exit")
	importPath := flags.String("import", "", "Import cards from a .md, .csv or .xlsx file and exit")
	if err := flags.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(flags)
	if err != nil {
		return err
	}
	logger, err := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Open the database and make sure the syllabus is present
	db, err := storage.Open(ctx, cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()
	logger.Info("database opened", "driver", cfg.Database.Driver)

	if err := catalog.Seed(ctx, db, logger, time.Now()); err != nil {
		return fmt.Errorf("failed to seed catalog: %w", err)
	}

	syncer := sync.New(db, cfg.Sources.ReposDir, logger)

	// 3. One-shot admin actions
	switch {
	case *addSource != "":
		_, err := syncer.AddSource(ctx, *addSource)
		return err
	case *runSync:
		_, err := syncer.RunSync(ctx)
		return err
	case *importPath != "":
		_, err := syncer.ImportFile(ctx, *importPath)
		return err
	}

	// 4. Serve
	manager, err := study.NewManager(db, cfg.Study.Policy(),
		study.WithBatchSize(cfg.Study.BatchSize),
		study.WithIDGenerator(uuid.NewString),
		study.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	jobs := sweeper.New(manager, sweeper.SyncFunc(func(ctx context.Context) error {
		_, err := syncer.RunSync(ctx)
		return err
	}), sweeper.Config{
		AbandonAfter: cfg.Study.AbandonAfter,
		SweepEvery:   cfg.Study.SweepEvery,
		SyncEvery:    cfg.Sources.SyncEvery,
	}, logger)
	if err := jobs.Start(); err != nil {
		return err
	}
	defer jobs.Stop()

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           web.NewServer(db, manager, syncer, logger, cfg.Auth.Admins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting server", "addr", cfg.HTTP.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
