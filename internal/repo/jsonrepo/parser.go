package jsonrepo

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/milad/desconotify/internal/domain"
	"github.com/milad/desconotify/internal/pkg/jsonx"
)

type meterJSON struct {
	Name      jsonx.String `json:"name"`
	AccountNo jsonx.String `json:"account_no"`
	ChatID    jsonx.String `json:"chat_id"`
	Token     jsonx.String `json:"token"`
}

// ParseMeters parses a JSON array of meter entries:
//
//	[{"name":"Home","account_no":"31363981","chat_id":"1921759057","token":"<optional>"}]
//
// account_no and chat_id may be strings or numbers. Entries that are not objects are
// skipped and returned as a joined error (errors.Join). Entries with missing fields
// are kept; they are rejected per meter at run time so the rest still get notified.
func ParseMeters(r io.Reader) ([]domain.Meter, error) {
	var raw []json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode meters: expected a JSON array: %w", err)
	}

	var (
		meters    []domain.Meter
		entryErrs []error
	)
	for i, entry := range raw {
		var m meterJSON
		if err := json.Unmarshal(entry, &m); err != nil {
			entryErrs = append(entryErrs, fmt.Errorf("entry %d: %w", i, err))
			continue
		}
		meters = append(meters, domain.Meter{
			Name:      strings.TrimSpace(m.Name.String()),
			AccountNo: strings.TrimSpace(m.AccountNo.String()),
			ChatID:    strings.TrimSpace(m.ChatID.String()),
			Token:     strings.TrimSpace(m.Token.String()),
		})
	}

	if meters == nil {
		meters = []domain.Meter{}
	}
	return meters, errors.Join(entryErrs...)
}
