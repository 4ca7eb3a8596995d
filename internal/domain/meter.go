package domain

import (
	"errors"
	"fmt"
)

var ErrIncompleteMeter = errors.New("missing account_no/chat_id/token")

// Meter is one tracked account and the chat its updates go to.
type Meter struct {
	Name      string
	AccountNo string
	ChatID    string
	Token     string // empty means the default bot token
}

// DisplayName returns Name, or the account number when no name was configured.
func (m Meter) DisplayName() string {
	if m.Name != "" {
		return m.Name
	}
	return m.AccountNo
}

func (m Meter) WithDefaultToken(token string) Meter {
	if m.Token == "" {
		m.Token = token
	}
	return m
}

func (m Meter) Validate() error {
	if m.AccountNo == "" || m.ChatID == "" || m.Token == "" {
		return fmt.Errorf("meter %q: %w", m.DisplayName(), ErrIncompleteMeter)
	}
	return nil
}
