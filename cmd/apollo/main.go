package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"apollo/internal/bigquery"
	"apollo/internal/config"
	cronrunner "apollo/internal/cron"
	"apollo/internal/db"
	"apollo/internal/handler"
	"apollo/internal/logger"
	"apollo/internal/pipeline"
	gormrepository "apollo/internal/repository/gorm"
	"apollo/internal/rule"
	"apollo/internal/service"
)

func main() {
	cfgPath := os.Getenv("APOLLO_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("APOLLO_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	dbConn, err := db.Open(cfg.DB)
	if err != nil {
		log.Fatal("db open failed", zap.Error(err))
	}
	defer db.Close(dbConn)

	if err := db.SetTimezone(dbConn, cfg.DB.Timezone); err != nil {
		log.Warn("failed to set timezone", zap.Error(err))
	}
	if err := db.AutoMigrate(dbConn); err != nil {
		log.Fatal("auto-migrate failed", zap.Error(err))
	}

	bqHTTP := &http.Client{Timeout: cfg.BigQuery.Timeout}
	source := bigquery.NewClient(bqHTTP, cfg.BigQuery.BaseURL, cfg.BigQuery.Project, cfg.BigQuery.Token)

	pipe := pipeline.New(log)
	registerRules(pipe, source, cfg.Rules)

	store := gormrepository.New(dbConn.Gorm)
	pipelineSvc := &service.PipelineService{
		Pipeline: pipe,
		Repo:     store,
		Logger:   log,
	}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())

	healthHandler := &handler.HealthHandler{DB: dbConn.Gorm}
	healthHandler.Register(engine)
	labelHandler := &handler.LabelHandler{Repo: store, Pipeline: pipe}
	labelHandler.Register(engine)
	pipelineHandler := &handler.PipelineHandler{Service: pipelineSvc, Repo: store}
	pipelineHandler.Register(engine)

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: engine,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cronRunner := cronrunner.New(log, ctx)
	if cfg.Pipeline.CronEnabled {
		spec := "@every " + cfg.Pipeline.ScanInterval.String()
		_, err := cronRunner.Add(spec, func(ctx context.Context) {
			result, err := pipelineSvc.RunAndStore(ctx)
			if err != nil {
				log.Warn("scheduled pipeline run failed", zap.Error(err))
				return
			}
			log.Info("scheduled pipeline run ok",
				zap.String("run_id", result.RunID),
				zap.String("status", result.Status),
				zap.Int("total_labels", result.Stats.TotalLabels),
			)
		})
		if err != nil {
			log.Warn("cron register pipeline run failed", zap.Error(err))
		}
	}
	cronRunner.Start()
	defer cronRunner.Stop()

	if cfg.Pipeline.RunOnStartup {
		log.Info("running initial labeling pass")
		result, err := pipelineSvc.RunAndStore(ctx)
		if err != nil {
			log.Warn("initial labeling pass failed (continuing)", zap.Error(err))
		} else {
			log.Info("initial labeling pass complete",
				zap.String("run_id", result.RunID),
				zap.String("status", result.Status),
				zap.Int("total_labels", result.Stats.TotalLabels),
			)
		}
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server starting", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown requested")
	case err := <-errCh:
		log.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func registerRules(pipe *pipeline.Pipeline, source rule.QueryRunner, cfg config.RulesConfig) {
	whale := &rule.WhaleRule{Source: source, Config: cfg.Whale}
	pipe.Register(whale.Category(), whale)
	dex := &rule.DEXUserRule{Source: source, Config: cfg.DEXUser}
	pipe.Register(dex.Category(), dex)
	nft := &rule.NFTTraderRule{Source: source, Config: cfg.NFTTrader}
	pipe.Register(nft.Category(), nft)
	fresh := &rule.NewWalletRule{Source: source, Config: cfg.NewWallet}
	pipe.Register(fresh.Category(), fresh)
}
