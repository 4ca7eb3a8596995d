package repo

import (
	"context"
	"errors"

	"github.com/milad/desconotify/internal/domain"
)

var (
	ErrNoMeters = errors.New("no meters configured")
	ErrNotFound = errors.New("not found")
)

// MeterRepository provides the configured meters.
type MeterRepository interface {
	// List returns meters in configuration order, or ErrNoMeters when there are none.
	// The returned slice must be treated as read-only by callers.
	List(ctx context.Context) ([]domain.Meter, error)
}

// SnapshotStore keeps the most recent reading per account and the last run summary.
// It never holds history.
type SnapshotStore interface {
	Put(ctx context.Context, s domain.Snapshot) error
	Get(ctx context.Context, accountNo string) (domain.Snapshot, error)
	List(ctx context.Context) ([]domain.Snapshot, error)
	SaveRun(ctx context.Context, r domain.RunResult) error
	LastRun(ctx context.Context) (domain.RunResult, error)
}
