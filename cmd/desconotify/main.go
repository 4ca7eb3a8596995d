package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/milad/desconotify/internal/config"
	"github.com/milad/desconotify/internal/desco"
	"github.com/milad/desconotify/internal/metrics"
	"github.com/milad/desconotify/internal/pkg/logger"
	"github.com/milad/desconotify/internal/repo"
	"github.com/milad/desconotify/internal/repo/jsonrepo"
	"github.com/milad/desconotify/internal/service"
	"github.com/milad/desconotify/internal/telegram"
)

const (
	exitOK       = 0
	exitFailed   = 1
	exitBadSetup = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return exitBadSetup
	}

	metersFile := flag.String("meters", cfg.MetersFile, "path to meters.json (ignored when METERS_JSON is set)")
	pushURL := flag.String("pushgateway", cfg.PushgatewayURL, "Prometheus Pushgateway URL; empty disables push")
	flag.Parse()
	cfg.MetersFile = *metersFile

	log, err := logger.New("desconotify", cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		return exitBadSetup
	}
	defer func() { _ = log.Sync() }()

	meters, err := jsonrepo.Open(cfg.MeterSource())
	if err != nil {
		if meters == nil {
			log.Error("no meters configured", zap.Error(err))
			return exitBadSetup
		}
		// A few broken entries are fine as long as something usable loaded.
		log.Warn("some meter entries were skipped", zap.Error(err))
	}

	fetcher, err := desco.NewClient(cfg.Desco(), log)
	if err != nil {
		log.Error("desco client", zap.Error(err))
		return exitBadSetup
	}
	notifier := telegram.NewClient(cfg.TelegramAPIURL, cfg.RequestTimeout, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc := service.NewNotifyService(meters, fetcher, notifier, cfg.ServiceOptions(), log)
	res, runErr := svc.Run(ctx)

	if *pushURL != "" {
		pushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := metrics.Push(pushCtx, *pushURL, metrics.PushJob); err != nil {
			log.Warn("pushgateway push failed", zap.Error(err))
		}
		cancel()
	}

	switch {
	case errors.Is(runErr, repo.ErrNoMeters):
		log.Error("no meters configured", zap.Error(runErr))
		return exitBadSetup
	case runErr != nil:
		log.Error("run failed", zap.String("run_id", res.RunID), zap.Error(runErr))
		return exitFailed
	}
	return exitOK
}
