package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"golang.org/x/sync/errgroup"

	"sdnscreen/internal/platform/config"
	"sdnscreen/internal/platform/httpserver"
	"sdnscreen/internal/platform/logger"
	"sdnscreen/internal/platform/metrics"
	"sdnscreen/internal/screening/catalog"
	"sdnscreen/internal/screening/handler"
	screeningmetrics "sdnscreen/internal/screening/metrics"
	"sdnscreen/internal/screening/service"
	"sdnscreen/internal/sdn/store"
	"sdnscreen/pkg/platform/middleware/requestid"
	"sdnscreen/pkg/platform/middleware/requesttime"
)

// main wires the snapshot store, the in-memory catalog and the HTTP
// screening API. Business logic lives in the internal packages.
func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_FILE"), "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	snapshots, closeStore, err := store.Open(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("open snapshot store: %w", err)
	}
	defer func() {
		if err := closeStore(); err != nil {
			log.Warn("close snapshot store", "error", err)
		}
	}()

	reg := metrics.NewRegistry()
	screenMetrics := screeningmetrics.New(reg)

	cat := catalog.New()
	refresher := catalog.NewRefresher(cat, snapshots, cfg.Screening.RefreshInterval,
		catalog.WithLogger(log),
		catalog.WithOnLoad(func(v *catalog.View) {
			screenMetrics.SnapshotLoaded(v.Info, v.Index.Len())
		}),
	)
	if _, err := refresher.Refresh(ctx); err != nil {
		return fmt.Errorf("load active snapshot: %w", err)
	}
	if cat.Current() == nil {
		log.Warn("no snapshot published yet; screening is unavailable until one is", "store", cfg.Store.Backend)
	}

	svc := service.New(cat,
		service.WithLogger(log),
		service.WithMetrics(screenMetrics),
		service.WithQueryTimeout(cfg.Screening.QueryTimeout),
	)

	r := chi.NewRouter()
	r.Use(cors.New(cors.Options{
		AllowedOrigins: cfg.Server.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type", requestid.Header},
		ExposedHeaders: []string{requestid.Header},
	}).Handler)
	r.Use(chimw.Recoverer)
	r.Use(requestid.Middleware)
	r.Use(requesttime.Middleware)
	handler.New(svc, log).Register(r)
	r.Handle("/metrics", metrics.Handler(reg))

	srv := httpserver.New(cfg.Server.Addr, r)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := refresher.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		log.Info("starting screening server", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
