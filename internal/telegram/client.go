package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/milad/desconotify/internal/metrics"
)

const (
	DefaultAPIURL  = "https://api.telegram.org"
	DefaultTimeout = 20 * time.Second
)

var ErrSendFailed = errors.New("telegram sendMessage failed")

// APIResponse is the envelope every Bot API method returns.
type APIResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description,omitempty"`
	ErrorCode   int    `json:"error_code,omitempty"`
}

type sendMessageRequest struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

// Client talks to the Bot API. The token is per call since meters may use
// different bots.
type Client struct {
	http *resty.Client
	log  *zap.Logger
}

func NewClient(apiURL string, timeout time.Duration, log *zap.Logger) *Client {
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		http: resty.New().
			SetBaseURL(strings.TrimRight(apiURL, "/")).
			SetTimeout(timeout).
			SetLogger(log.Sugar()),
		log: log,
	}
}

// SendMessage posts text to chatID. Any non-2xx answer or ok=false is an error;
// nothing is retried.
func (c *Client) SendMessage(ctx context.Context, token, chatID, text string) error {
	outcome := metrics.OutcomeError
	defer func() { metrics.ObserveNotification(outcome) }()

	var apiResp APIResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(sendMessageRequest{ChatID: chatID, Text: text}).
		SetResult(&apiResp).
		SetError(&apiResp).
		Post("/bot" + token + "/sendMessage")
	if err != nil {
		// The request URL embeds the token; keep it out of the error.
		return fmt.Errorf("%w: chat %s: %v", ErrSendFailed, chatID, redact(err, token))
	}

	if !resp.IsSuccess() || !apiResp.OK {
		c.log.Error("telegram API returned error",
			zap.String("chat_id", chatID),
			zap.Int("status_code", resp.StatusCode()),
			zap.Int("error_code", apiResp.ErrorCode),
			zap.String("description", apiResp.Description),
		)
		desc := apiResp.Description
		if desc == "" {
			desc = truncate(string(resp.Body()), 200)
		}
		return fmt.Errorf("%w: %d %s", ErrSendFailed, resp.StatusCode(), desc)
	}

	outcome = metrics.OutcomeOK
	c.log.Debug("message sent", zap.String("chat_id", chatID))
	return nil
}

func redact(err error, token string) string {
	msg := err.Error()
	if token == "" {
		return msg
	}
	return strings.ReplaceAll(msg, token, "<redacted>")
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) > n {
		return s[:n]
	}
	return s
}
