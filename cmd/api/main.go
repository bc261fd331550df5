package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"transcribeme/internal/calls"
	"transcribeme/internal/config"
	"transcribeme/internal/eligibility"
	"transcribeme/internal/events"
	"transcribeme/internal/format"
	"transcribeme/internal/pipeline"
	"transcribeme/internal/speech"
	"transcribeme/internal/telephony"
	"transcribeme/internal/transcripts"
	"transcribeme/pkg/logger"
	"transcribeme/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
)

const version = "0.1.0"

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Call record store: in-memory unless Postgres is configured.
	var callStore calls.Store = calls.NewMemoryStore()
	if cfg.UsePostgres() {
		db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
		if err != nil {
			log.Error("postgres init failed", "err", err)
			os.Exit(1)
		}
		defer db.Close()
		callStore = calls.NewPostgresStore(db)
	}

	// Transcript store: in-memory unless Redis is configured.
	var transcriptStore transcripts.Store = transcripts.NewMemoryStore()
	if cfg.UseRedis() {
		rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
		if err != nil {
			log.Error("redis init failed", "err", err)
			os.Exit(1)
		}
		defer rdb.Close()
		transcriptStore = transcripts.NewRedisStore(rdb)
	}

	twilio, err := telephony.NewClient(telephony.ClientConfig{
		AccountSID: cfg.Twilio.AccountSID,
		AuthToken:  cfg.Twilio.AuthToken,
		FromNumber: cfg.Twilio.PhoneNumber,
		Timeout:    cfg.Pipeline.GatewayTimeout,
	})
	if err != nil {
		log.Error("twilio client init failed", "err", err)
		os.Exit(1)
	}

	transcriber, err := speech.NewOpenAITranscriber(cfg.OpenAI.APIKey, twilio)
	if err != nil {
		log.Error("transcriber init failed", "err", err)
		os.Exit(1)
	}
	formatter, err := format.NewOpenAIFormatter(cfg.OpenAI.APIKey)
	if err != nil {
		log.Error("formatter init failed", "err", err)
		os.Exit(1)
	}

	filter := eligibility.New(eligibility.Config{
		CountryPrefixes:   cfg.Numbers.CountryPrefixes,
		MobileSubPrefixes: cfg.Numbers.MobileSubPrefixes,
	})

	eventRepo := events.NewMemoryRepo()
	trail := events.NewService(eventRepo)

	pipe := pipeline.New(pipeline.Config{
		BaseURL:             cfg.App.BaseURL,
		Retention:           cfg.Pipeline.Retention,
		MaxRecordingSeconds: cfg.Pipeline.MaxRecordingSeconds,
		SummaryMaxChars:     cfg.Pipeline.SummaryMaxChars,
		GatewayTimeout:      cfg.Pipeline.GatewayTimeout,
		Workers:             cfg.Pipeline.Workers,
		QueueSize:           cfg.Pipeline.QueueSize,
	}, callStore, transcriptStore, filter, transcriber, formatter, twilio, log).
		WithEventTrail(trail)
	pipe.Start(rootCtx)

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	registerRoutes(r, pipe, callStore, transcriptStore, eventRepo, cfg)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
	if err := pipe.Wait(shutdownCtx); err != nil {
		log.Error("pipeline shutdown timed out", "err", err)
	}
}
