package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"TokenChart/internal/cache"
	"TokenChart/internal/chart"
	"TokenChart/internal/collector"
	"TokenChart/internal/config"
	"TokenChart/internal/logger"
	"TokenChart/internal/metrics"
	"TokenChart/internal/notifier"
	"TokenChart/internal/recorder"
	"TokenChart/internal/scheduler"
)

func main() {
	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	log.Info("TokenChart starting", zap.String("config", cfgPath))

	if err := cfg.Validate(); err != nil {
		log.Fatal("config validation", zap.Error(err))
	}
	windows, _ := cfg.ChartWindows()

	// Trade and rate sources
	trades := collector.NewCMSTradeSource(cfg.CMS.BaseURL, cfg.CMS.APIToken, cfg.Proxy)
	var rates collector.RateSource = collector.NewPriceFeed(cfg.PriceFeed.BaseURL, cfg.PriceFeed.APIKey, cfg.Proxy)
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		rates = cache.NewRateCache(rdb, rates, cfg.Redis.RateTTL, log.Named("cache"))
	}
	log.Info("data sources ready", zap.String("trades", trades.Name()), zap.String("rates", rates.Name()))

	col := collector.NewCollector(trades, rates, log.Named("collector"))
	col.SetLimits(cfg.CMS.PageSize, cfg.CMS.MaxTrades)
	charts := chart.NewService(col, log.Named("chart"))

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Database.SQLitePath), 0o755); err != nil {
			log.Warn("create data dir failed", zap.Error(err))
		}
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, log.Named("recorder"))
		if err != nil {
			log.Warn("init sqlite recorder failed, using noop", zap.Error(err))
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}
	defer rec.Close()

	metricsSrv := metrics.StartMetricsServer(cfg.Metrics.Addr)
	log.Info("metrics server listening", zap.String("addr", cfg.Metrics.Addr))

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var tn *notifier.TelegramNotifier
	var sender scheduler.Sender
	if cfg.Telegram.BotToken != "" {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, log.Named("telegram"))
		sender = tn
	}

	sched := scheduler.NewScheduler(ctx, charts, sender, rec, log.Named("scheduler"))
	sched.SetTracked(cfg.Chart.Assets, windows)
	if err := sched.Register(cfg.Chart.RefreshCron); err != nil {
		log.Fatal("register cron task", zap.Error(err))
	}
	sched.Start()
	defer sched.Stop()

	go func() {
		w := config.Watcher{Path: cfgPath, Logger: log.Named("config")}
		err := w.Run(ctx, func(c *config.Config) {
			ws, _ := c.ChartWindows()
			col.SetLimits(c.CMS.PageSize, c.CMS.MaxTrades)
			sched.SetTracked(c.Chart.Assets, ws)
		})
		if err != nil && ctx.Err() == nil {
			log.Warn("config watcher stopped", zap.Error(err))
		}
	}()

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Info("telegram polling started")
	}

	if os.Getenv("RUN_ON_START") == "true" {
		log.Info("RUN_ON_START enabled, refreshing now")
		go sched.RefreshNow()
	}

	log.Info("TokenChart is running")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutdown signal received, stopping")
	cancel()
	shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
	defer done()
	_ = metricsSrv.Shutdown(shutdownCtx)
	log.Info("TokenChart stopped")
}
