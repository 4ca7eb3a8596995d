package config

import (
	"testing"
	"time"
)

// These tests use t.Setenv and therefore cannot run in parallel.

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "tok")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if got, want := cfg.MetersFile, "meters.json"; got != want {
		t.Fatalf("MetersFile=%q want %q", got, want)
	}
	if got, want := cfg.RequestTimeout, 20*time.Second; got != want {
		t.Fatalf("RequestTimeout=%s want %s", got, want)
	}
	if got, want := cfg.NotifyPause, 500*time.Millisecond; got != want {
		t.Fatalf("NotifyPause=%s want %s", got, want)
	}
	if got, want := cfg.Log.Encoding, "console"; got != want {
		t.Fatalf("Log.Encoding=%q want %q", got, want)
	}
	if cfg.LowBalanceThreshold() != nil {
		t.Fatalf("expected no low balance threshold")
	}
	if got, want := cfg.ServiceOptions().DefaultToken, "tok"; got != want {
		t.Fatalf("DefaultToken=%q want %q", got, want)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("METERS_JSON", `[{"account_no":"1","chat_id":"2"}]`)
	t.Setenv("LOW_BALANCE", "150.25")
	t.Setenv("NOTIFY_PAUSE", "0s")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("ACCOUNT_NO", " 31363981 ")
	t.Setenv("TELEGRAM_CHAT_ID", "42")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if got, want := cfg.LowBalanceThreshold().String(), "150.25"; got != want {
		t.Fatalf("LowBalance=%s want %s", got, want)
	}
	if got, want := cfg.Log.Level, "debug"; got != want {
		t.Fatalf("Log.Level=%q want %q", got, want)
	}
	src := cfg.MeterSource()
	if got, want := src.AccountNo, "31363981"; got != want {
		t.Fatalf("AccountNo=%q want %q", got, want)
	}
	if src.JSON == "" {
		t.Fatalf("expected inline meters JSON")
	}
	if got := cfg.ServiceOptions().Pause; got != 0 {
		t.Fatalf("Pause=%s want 0", got)
	}
}

func TestFromEnv_RejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"LOW_BALANCE":     "lots",
		"REQUEST_TIMEOUT": "0s",
		"NOTIFY_PAUSE":    "-1s",
		"CHECK_INTERVAL":  "soon",
	}
	for k, v := range cases {
		t.Run(k, func(t *testing.T) {
			t.Setenv(k, v)
			if _, err := FromEnv(); err == nil {
				t.Fatalf("expected error for %s=%q", k, v)
			}
		})
	}
}
