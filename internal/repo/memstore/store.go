package memstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/milad/desconotify/internal/domain"
	"github.com/milad/desconotify/internal/repo"
)

var _ repo.SnapshotStore = (*Store)(nil)

// Store keeps the latest snapshot per account in memory, in first-seen order.
type Store struct {
	mu      sync.RWMutex
	byAcct  map[string]domain.Snapshot
	order   []string
	lastRun *domain.RunResult
}

func New() *Store {
	return &Store{byAcct: make(map[string]domain.Snapshot)}
}

func (s *Store) Put(ctx context.Context, snap domain.Snapshot) error {
	_ = ctx
	acct := snap.Reading.AccountNo
	if acct == "" {
		return fmt.Errorf("put snapshot for %q: empty account number", snap.Meter)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byAcct[acct]; !ok {
		s.order = append(s.order, acct)
	}
	s.byAcct[acct] = snap
	return nil
}

func (s *Store) Get(ctx context.Context, accountNo string) (domain.Snapshot, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.byAcct[accountNo]
	if !ok {
		return domain.Snapshot{}, fmt.Errorf("snapshot for account %q: %w", accountNo, repo.ErrNotFound)
	}
	return snap, nil
}

func (s *Store) List(ctx context.Context) ([]domain.Snapshot, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Snapshot, 0, len(s.order))
	for _, acct := range s.order {
		out = append(out, s.byAcct[acct])
	}
	return out, nil
}

func (s *Store) SaveRun(ctx context.Context, r domain.RunResult) error {
	_ = ctx
	r.Failures = append([]domain.Failure(nil), r.Failures...)
	s.mu.Lock()
	s.lastRun = &r
	s.mu.Unlock()
	return nil
}

func (s *Store) LastRun(ctx context.Context) (domain.RunResult, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastRun == nil {
		return domain.RunResult{}, fmt.Errorf("last run: %w", repo.ErrNotFound)
	}
	r := *s.lastRun
	r.Failures = append([]domain.Failure(nil), r.Failures...)
	return r, nil
}
