package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/milad/desconotify/internal/domain"
)

const (
	OutcomeOK       = "ok"
	OutcomeInsecure = "ok_insecure"
	OutcomeNoData   = "no_data"
	OutcomeError    = "error"

	// PushJob is the Pushgateway job name for one-shot runs.
	PushJob = "desconotify"
)

var (
	fetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "desco_fetch_total",
			Help: "Balance API calls by outcome.",
		},
		[]string{"outcome"},
	)
	fetchDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "desco_fetch_duration_seconds",
			Help:    "Balance API latency in seconds, including the insecure retry.",
			Buckets: prometheus.DefBuckets,
		},
	)
	notificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telegram_notifications_total",
			Help: "Telegram sendMessage calls by outcome.",
		},
		[]string{"outcome"},
	)

	meterBalance = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "desco_meter_balance",
			Help: "Last reported prepaid balance.",
		},
		[]string{"meter", "account"},
	)
	meterMonthConsumption = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "desco_meter_month_consumption",
			Help: "Last reported consumption for the current month.",
		},
		[]string{"meter", "account"},
	)

	lastRunSent = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "desconotify_last_run_sent",
		Help: "Meters notified in the last run.",
	})
	lastRunFailures = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "desconotify_last_run_failures",
		Help: "Meters that failed in the last run.",
	})
	lastRunTimestampSeconds = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "desconotify_last_run_timestamp_seconds",
		Help: "Unix time the last run finished.",
	})
)

func ObserveFetch(outcome string, dur time.Duration) {
	fetchTotal.WithLabelValues(outcome).Inc()
	fetchDurationSeconds.Observe(dur.Seconds())
}

func ObserveNotification(outcome string) {
	notificationsTotal.WithLabelValues(outcome).Inc()
}

func ObserveReading(meter string, r domain.Reading) {
	meterBalance.WithLabelValues(meter, r.AccountNo).Set(r.Balance.InexactFloat64())
	meterMonthConsumption.WithLabelValues(meter, r.AccountNo).Set(r.CurrentMonthConsumption.InexactFloat64())
}

func ObserveRun(r domain.RunResult) {
	lastRunSent.Set(float64(r.Sent))
	lastRunFailures.Set(float64(len(r.Failures)))
	lastRunTimestampSeconds.Set(float64(r.FinishedAt.Unix()))
}

// Push sends everything in the default registry to a Pushgateway under job.
// One-shot runs exit before anything could scrape them.
func Push(ctx context.Context, url, job string) error {
	if err := push.New(url, job).Gatherer(prometheus.DefaultGatherer).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics to %q: %w", url, err)
	}
	return nil
}
