package jsonrepo

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/milad/desconotify/internal/domain"
	"github.com/milad/desconotify/internal/repo"
)

var _ repo.MeterRepository = (*Repo)(nil)

// Repo is an immutable meter list loaded once at startup.
type Repo struct {
	meters []domain.Meter
}

// Source names where meters come from, in priority order: inline JSON, then the
// file, then a single account built from AccountNo and ChatID.
type Source struct {
	JSON      string
	File      string
	AccountNo string
	ChatID    string
}

func (s Source) single() (domain.Meter, bool) {
	if s.AccountNo == "" || s.ChatID == "" {
		return domain.Meter{}, false
	}
	return domain.Meter{AccountNo: s.AccountNo, ChatID: s.ChatID}, true
}

// Open loads meters from src. Like NewFromFile it may return a usable repo together
// with an error describing skipped entries.
func Open(src Source) (*Repo, error) {
	var (
		r   *Repo
		err error
	)
	switch {
	case strings.TrimSpace(src.JSON) != "":
		r, err = NewFromJSON(src.JSON)
	case src.File != "":
		r, err = NewFromFile(src.File)
		if errors.Is(err, fs.ErrNotExist) {
			if m, ok := src.single(); ok {
				return New([]domain.Meter{m}), nil
			}
			return nil, fmt.Errorf("%w: %v", repo.ErrNoMeters, err)
		}
	}
	if r == nil && err != nil {
		return nil, err
	}

	if r == nil || len(r.meters) == 0 {
		if m, ok := src.single(); ok {
			return New([]domain.Meter{m}), nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", repo.ErrNoMeters, err)
		}
		return nil, repo.ErrNoMeters
	}
	return r, err
}

func NewFromJSON(doc string) (*Repo, error) {
	meters, parseErr := ParseMeters(strings.NewReader(doc))
	if len(meters) == 0 && parseErr != nil {
		return nil, fmt.Errorf("parse inline meters: %w", parseErr)
	}
	if parseErr != nil {
		return New(meters), fmt.Errorf("parse inline meters: %w", parseErr)
	}
	return New(meters), nil
}

func NewFromFile(path string) (*Repo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open meters file %q: %w", path, err)
	}
	defer f.Close()

	meters, parseErr := ParseMeters(f)
	if len(meters) == 0 && parseErr != nil {
		return nil, fmt.Errorf("parse meters file %q: %w", path, parseErr)
	}

	// Parsing can be partially successful; surface warnings to the caller.
	if parseErr != nil {
		return New(meters), fmt.Errorf("parse meters file %q: %w", path, parseErr)
	}
	return New(meters), nil
}

func New(meters []domain.Meter) *Repo {
	return &Repo{meters: append([]domain.Meter(nil), meters...)}
}

func (r *Repo) List(ctx context.Context) ([]domain.Meter, error) {
	_ = ctx
	if len(r.meters) == 0 {
		return nil, repo.ErrNoMeters
	}
	return append([]domain.Meter(nil), r.meters...), nil
}
