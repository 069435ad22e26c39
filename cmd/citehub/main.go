package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/citehub/citehub/internal/api"
	"github.com/citehub/citehub/internal/config"
	"github.com/citehub/citehub/internal/extract"
	"github.com/citehub/citehub/internal/job"
	"github.com/citehub/citehub/internal/library"
	"github.com/citehub/citehub/internal/notebook"
	"github.com/citehub/citehub/internal/notify"
	"github.com/citehub/citehub/internal/storage"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}

	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		slog.Error("storage", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	client, err := extract.New(extract.Options{
		BaseURL: cfg.ExtractBaseURL,
		Token:   cfg.ExtractToken,
	})
	if err != nil {
		slog.Error("extract client", "error", err)
		os.Exit(1)
	}

	notifSvc := notify.NewService(notify.NewSQLiteStore(db), notify.NewHub())
	jobSvc := job.NewService(job.NewSQLiteStore(db), client, notifSvc)
	libSvc := library.NewService(library.NewSQLiteStore(db), client)
	nbStore := notebook.NewSQLiteStore(db)

	mux := http.NewServeMux()
	api.NewHandler(jobSvc, libSvc, notifSvc, nbStore).RegisterRoutes(mux)
	api.NewCallbackHandler(jobSvc, libSvc, cfg.CallbackSecret).RegisterRoutes(mux)

	handler := api.Chain(mux,
		api.CORS(cfg.CORSOrigins),
		api.RequestID,
		api.Logging,
		api.RateLimit(cfg.SubmitRPS),
		api.Auth(cfg.APIKeys),
	)

	srv := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		slog.Info("shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("citehub listening", "addr", cfg.ListenAddr)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}
