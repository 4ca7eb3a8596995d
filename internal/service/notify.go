package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/milad/desconotify/internal/domain"
	"github.com/milad/desconotify/internal/metrics"
	"github.com/milad/desconotify/internal/repo"
)

var ErrAllFailed = errors.New("all meters failed")

// DefaultPause spaces out sendMessage calls to stay clear of Telegram rate limits.
const DefaultPause = 500 * time.Millisecond

type BalanceFetcher interface {
	Fetch(ctx context.Context, accountNo string) (domain.Reading, error)
}

type Notifier interface {
	SendMessage(ctx context.Context, token, chatID, text string) error
}

type Options struct {
	DefaultToken string
	LowBalance   *decimal.Decimal
	Pause        time.Duration
	// Store receives every reading and the run summary. Optional.
	Store repo.SnapshotStore
}

// NotifyService walks the configured meters one by one: fetch, format, notify.
// A failing meter is recorded and never stops the run.
type NotifyService struct {
	meters   repo.MeterRepository
	fetcher  BalanceFetcher
	notifier Notifier
	opts     Options
	log      *zap.Logger

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration)
}

func NewNotifyService(meters repo.MeterRepository, fetcher BalanceFetcher, notifier Notifier, opts Options, log *zap.Logger) *NotifyService {
	if opts.Pause < 0 {
		opts.Pause = 0
	}
	return &NotifyService{
		meters:   meters,
		fetcher:  fetcher,
		notifier: notifier,
		opts:     opts,
		log:      log,
		now:      time.Now,
		sleep:    sleepContext,
	}
}

// Run processes every meter once. The error is repo.ErrNoMeters when nothing is
// configured (no network call is made), ErrAllFailed when no meter was notified,
// and nil otherwise, including when only some meters failed.
func (s *NotifyService) Run(ctx context.Context) (domain.RunResult, error) {
	res := domain.RunResult{
		RunID:     uuid.NewString(),
		StartedAt: s.now(),
	}
	log := s.log.With(zap.String("run_id", res.RunID))

	meters, err := s.meters.List(ctx)
	if err != nil {
		return res, fmt.Errorf("list meters: %w", err)
	}
	if len(meters) == 0 {
		return res, repo.ErrNoMeters
	}

	for i, m := range meters {
		m = m.WithDefaultToken(s.opts.DefaultToken)
		name := m.DisplayName()

		if err := m.Validate(); err != nil {
			res.Failures = append(res.Failures, domain.Failure{Name: name, Reason: domain.ErrIncompleteMeter.Error()})
			log.Warn("skipping meter: missing data", zap.String("meter", name))
			continue
		}

		if err := s.processMeter(ctx, log, m); err != nil {
			res.Failures = append(res.Failures, domain.Failure{Name: name, Reason: err.Error()})
			log.Warn("meter failed", zap.String("meter", name), zap.Error(err))
			continue
		}
		res.Sent++

		if i < len(meters)-1 && s.opts.Pause > 0 {
			s.sleep(ctx, s.opts.Pause)
		}
	}

	res.FinishedAt = s.now()
	s.finish(ctx, log, res)

	if !res.OK() {
		return res, fmt.Errorf("%w (%d meters)", ErrAllFailed, len(meters))
	}
	return res, nil
}

func (s *NotifyService) processMeter(ctx context.Context, log *zap.Logger, m domain.Meter) error {
	name := m.DisplayName()

	reading, err := s.fetcher.Fetch(ctx, m.AccountNo)
	if err != nil {
		return err
	}
	log.Info("balance fetched",
		zap.String("meter", name),
		zap.String("balance", reading.Balance.String()),
		zap.Bool("low", IsLowBalance(reading, s.opts.LowBalance)),
	)

	metrics.ObserveReading(name, reading)
	if s.opts.Store != nil {
		snap := domain.Snapshot{Meter: name, Reading: reading, CheckedAt: s.now()}
		if reading.AccountNo == "" {
			snap.Reading.AccountNo = m.AccountNo
		}
		if err := s.opts.Store.Put(ctx, snap); err != nil {
			log.Warn("store snapshot", zap.String("meter", name), zap.Error(err))
		}
	}

	return s.notifier.SendMessage(ctx, m.Token, m.ChatID, FormatMessage(name, reading, s.opts.LowBalance))
}

func (s *NotifyService) finish(ctx context.Context, log *zap.Logger, res domain.RunResult) {
	metrics.ObserveRun(res)
	if s.opts.Store != nil {
		if err := s.opts.Store.SaveRun(ctx, res); err != nil {
			log.Warn("store run result", zap.Error(err))
		}
	}

	switch {
	case !res.OK():
		log.Error("all meters failed", zap.Int("failures", len(res.Failures)), zap.Any("failed", res.Failures))
	case len(res.Failures) > 0:
		log.Warn("some meters failed",
			zap.Int("sent", res.Sent),
			zap.Int("failures", len(res.Failures)),
			zap.Any("failed", res.Failures),
		)
	default:
		log.Info("all meters notified successfully", zap.Int("sent", res.Sent))
	}
}

func sleepContext(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
