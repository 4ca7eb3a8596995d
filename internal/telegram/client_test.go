package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

func TestSendMessage_PostsChatAndText(t *testing.T) {
	t.Parallel()

	var (
		gotPath string
		gotBody map[string]any
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if r.Method != http.MethodPost {
			t.Errorf("method=%s want POST", r.Method)
		}
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"ok":true,"result":{"message_id":7}}`)
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, time.Second, zaptest.NewLogger(t))
	if err := c.SendMessage(context.Background(), "123:abc", "1921759057", "hello\nworld"); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if got, want := gotPath, "/bot123:abc/sendMessage"; got != want {
		t.Fatalf("path=%q want %q", got, want)
	}
	if got, want := gotBody["chat_id"], "1921759057"; got != want {
		t.Fatalf("chat_id=%v want %v", got, want)
	}
	if got, want := gotBody["text"], "hello\nworld"; got != want {
		t.Fatalf("text=%v want %v", got, want)
	}
}

func TestSendMessage_NonSuccessIsError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`)
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, time.Second, zaptest.NewLogger(t))
	err := c.SendMessage(context.Background(), "t", "1", "x")
	if !errors.Is(err, ErrSendFailed) {
		t.Fatalf("err=%v want ErrSendFailed", err)
	}
	if !strings.Contains(err.Error(), "chat not found") {
		t.Fatalf("expected description in error, got %v", err)
	}
}

func TestSendMessage_OKFalseIsError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"ok":false,"description":"weird"}`)
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, time.Second, zaptest.NewLogger(t))
	if err := c.SendMessage(context.Background(), "t", "1", "x"); !errors.Is(err, ErrSendFailed) {
		t.Fatalf("err=%v want ErrSendFailed", err)
	}
}

func TestSendMessage_TransportErrorHidesToken(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	_ = ln.Close() // nothing listens here any more

	c := NewClient("http://"+addr, time.Second, zaptest.NewLogger(t))
	err = c.SendMessage(context.Background(), "secret-token", "1", "x")
	if !errors.Is(err, ErrSendFailed) {
		t.Fatalf("err=%v want ErrSendFailed", err)
	}
	if strings.Contains(err.Error(), "secret-token") {
		t.Fatalf("token leaked into error: %v", err)
	}
}
