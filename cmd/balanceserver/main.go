package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/milad/desconotify/internal/config"
	"github.com/milad/desconotify/internal/desco"
	"github.com/milad/desconotify/internal/pkg/logger"
	"github.com/milad/desconotify/internal/repo/jsonrepo"
	"github.com/milad/desconotify/internal/repo/memstore"
	"github.com/milad/desconotify/internal/scheduler"
	"github.com/milad/desconotify/internal/service"
	"github.com/milad/desconotify/internal/telegram"
	grpcserver "github.com/milad/desconotify/internal/transport/grpc"
	httpserver "github.com/milad/desconotify/internal/transport/http"
)

const shutdownTimeout = 5 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}

	var (
		httpAddr = flag.String("http", cfg.HTTPAddr, "HTTP listen address")
		grpcAddr = flag.String("grpc", cfg.GRPCAddr, "gRPC listen address")
		interval = flag.Duration("interval", cfg.CheckInterval, "time between balance checks")
	)
	flag.Parse()

	log, err := logger.New("balanceserver", cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(2)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, *httpAddr, *grpcAddr, *interval, log); err != nil {
		log.Error("balanceserver stopped", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, httpAddr, grpcAddr string, interval time.Duration, log *zap.Logger) error {
	meters, err := jsonrepo.Open(cfg.MeterSource())
	if err != nil {
		if meters == nil {
			return fmt.Errorf("load meters: %w", err)
		}
		log.Warn("some meter entries were skipped", zap.Error(err))
	}

	fetcher, err := desco.NewClient(cfg.Desco(), log)
	if err != nil {
		return err
	}
	notifier := telegram.NewClient(cfg.TelegramAPIURL, cfg.RequestTimeout, log)

	store := memstore.New()
	opts := cfg.ServiceOptions()
	opts.Store = store
	svc := service.NewNotifyService(meters, fetcher, notifier, opts, log)

	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	hs.SetServingStatus(grpcserver.ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)

	sched := scheduler.New("balance-check", interval, func(ctx context.Context) {
		res, err := svc.Run(ctx)
		st := grpcserver.HealthStatus(res)
		hs.SetServingStatus("", st)
		hs.SetServingStatus(grpcserver.ServiceName, st)
		if err != nil {
			log.Warn("balance check failed", zap.String("run_id", res.RunID), zap.Error(err))
		}
	}, log)

	gs := grpc.NewServer()
	grpcserver.RegisterBalanceServiceServer(gs, grpcserver.New(store))
	healthpb.RegisterHealthServer(gs, hs)

	hsrv := &http.Server{
		Addr:              httpAddr,
		Handler:           httpserver.New(store, sched, log),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	httpLis, err := net.Listen("tcp", httpAddr)
	if err != nil {
		return fmt.Errorf("listen %q: %w", httpAddr, err)
	}
	grpcLis, err := net.Listen("tcp", grpcAddr)
	if err != nil {
		_ = httpLis.Close()
		return fmt.Errorf("listen %q: %w", grpcAddr, err)
	}
	log.Info("listening", zap.String("http", httpAddr), zap.String("grpc", grpcAddr), zap.Duration("interval", interval))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return sched.Run(gctx) })

	g.Go(func() error {
		if err := hsrv.Serve(httpLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http serve: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		if err := gs.Serve(grpcLis); err != nil {
			return fmt.Errorf("grpc serve: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		hs.Shutdown()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := hsrv.Shutdown(shutdownCtx); err != nil {
			log.Warn("http shutdown", zap.Error(err))
		}

		done := make(chan struct{})
		go func() {
			gs.GracefulStop()
			close(done)
		}()
		select {
		case <-done:
		case <-shutdownCtx.Done():
			gs.Stop()
		}
		return nil
	})

	return g.Wait()
}
