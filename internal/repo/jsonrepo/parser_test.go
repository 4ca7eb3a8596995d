package jsonrepo

import (
	"strings"
	"testing"
)

func TestParseMeters_OK(t *testing.T) {
	t.Parallel()

	doc := strings.NewReader(`[
		{"name":"Home","account_no":"31363981","chat_id":"1921759057"},
		{"account_no":41001234,"chat_id":-100200300,"token":"123:abc"}
	]`)

	meters, err := ParseMeters(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, want := len(meters), 2; got != want {
		t.Fatalf("len(meters)=%d want %d", got, want)
	}
	if got, want := meters[0].Name, "Home"; got != want {
		t.Fatalf("meters[0].Name=%q want %q", got, want)
	}
	if got, want := meters[1].AccountNo, "41001234"; got != want {
		t.Fatalf("meters[1].AccountNo=%q want %q", got, want)
	}
	if got, want := meters[1].ChatID, "-100200300"; got != want {
		t.Fatalf("meters[1].ChatID=%q want %q", got, want)
	}
	if got, want := meters[1].Token, "123:abc"; got != want {
		t.Fatalf("meters[1].Token=%q want %q", got, want)
	}
}

func TestParseMeters_SkipsInvalidEntriesKeepsIncomplete(t *testing.T) {
	t.Parallel()

	doc := strings.NewReader(`[
		{"name":"A","account_no":"1","chat_id":"2"},
		42,
		{"name":"B","account_no":"3"}
	]`)

	meters, err := ParseMeters(doc)
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
	if got, want := len(meters), 2; got != want {
		t.Fatalf("len(meters)=%d want %d", got, want)
	}
	if got, want := meters[1].Name, "B"; got != want {
		t.Fatalf("meters[1].Name=%q want %q", got, want)
	}
}

func TestParseMeters_RejectsNonArray(t *testing.T) {
	t.Parallel()

	if _, err := ParseMeters(strings.NewReader(`{"name":"A"}`)); err == nil {
		t.Fatalf("expected error, got nil")
	}
}
