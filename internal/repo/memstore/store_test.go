package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/milad/desconotify/internal/domain"
	"github.com/milad/desconotify/internal/repo"
	"github.com/shopspring/decimal"
)

func snap(name, acct string, balance float64) domain.Snapshot {
	return domain.Snapshot{
		Meter:     name,
		Reading:   domain.Reading{AccountNo: acct, Balance: decimal.NewFromFloat(balance)},
		CheckedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestStore_PutReplacesAndKeepsOrder(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New()
	for _, sn := range []domain.Snapshot{
		snap("B", "2", 10),
		snap("A", "1", 20),
		snap("B", "2", 5),
	} {
		if err := s.Put(ctx, sn); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}

	out, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if got, want := len(out), 2; got != want {
		t.Fatalf("len(out)=%d want %d", got, want)
	}
	if out[0].Meter != "B" || out[1].Meter != "A" {
		t.Fatalf("unexpected order: %+v", out)
	}
	if got, want := out[0].Reading.Balance.String(), "5"; got != want {
		t.Fatalf("balance=%s want %s", got, want)
	}
}

func TestStore_GetUnknownIsNotFound(t *testing.T) {
	t.Parallel()

	_, err := New().Get(context.Background(), "nope")
	if !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("err=%v want ErrNotFound", err)
	}
}

func TestStore_PutRejectsEmptyAccount(t *testing.T) {
	t.Parallel()

	if err := New().Put(context.Background(), snap("A", "", 1)); err == nil {
		t.Fatalf("expected error, got nil")
	}
}

func TestStore_LastRun(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New()
	if _, err := s.LastRun(ctx); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("err=%v want ErrNotFound", err)
	}

	in := domain.RunResult{RunID: "r1", Sent: 1, Failures: []domain.Failure{{Name: "B", Reason: "x"}}}
	if err := s.SaveRun(ctx, in); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	in.Failures[0].Name = "mutated"

	got, err := s.LastRun(ctx)
	if err != nil {
		t.Fatalf("LastRun: %v", err)
	}
	if got.RunID != "r1" || got.Failures[0].Name != "B" {
		t.Fatalf("unexpected last run: %+v", got)
	}
}
