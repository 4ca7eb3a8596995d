package desco

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/milad/desconotify/internal/domain"
	"github.com/milad/desconotify/internal/metrics"
	"github.com/milad/desconotify/internal/pkg/jsonx"
)

const (
	DefaultURL     = "https://prepaid.desco.org.bd/api/tkdes/customer/getBalance"
	DefaultTimeout = 20 * time.Second

	maxBodySnippet = 400
)

var (
	ErrNoData           = errors.New("balance API returned data=null")
	ErrUnexpectedStatus = errors.New("unexpected status from balance API")
)

type Config struct {
	URL     string
	Timeout time.Duration
	// CABundlePath replaces the system roots for the verified attempt.
	CABundlePath string
}

// Client fetches balances. Every call first tries with certificate verification and,
// on a transport or TLS error, tries exactly once more without it. HTTP and payload
// errors are never retried.
type Client struct {
	url      string
	secure   *resty.Client
	insecure *resty.Client
	log      *zap.Logger
}

func NewClient(cfg Config, log *zap.Logger) (*Client, error) {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	secure := newRestyClient(cfg.Timeout, log)
	if cfg.CABundlePath != "" {
		pemData, err := os.ReadFile(cfg.CABundlePath)
		if err != nil {
			return nil, fmt.Errorf("read CA bundle %q: %w", cfg.CABundlePath, err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pemData) {
			return nil, fmt.Errorf("CA bundle %q: no PEM certificates found", cfg.CABundlePath)
		}
		secure.SetTLSClientConfig(&tls.Config{RootCAs: pool, MinVersion: tls.VersionTLS12})
	}

	insecure := newRestyClient(cfg.Timeout, log)
	insecure.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true}) //nolint:gosec

	return &Client{
		url:      cfg.URL,
		secure:   secure,
		insecure: insecure,
		log:      log,
	}, nil
}

func newRestyClient(timeout time.Duration, log *zap.Logger) *resty.Client {
	return resty.New().
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetLogger(log.Sugar())
}

type balanceResponse struct {
	Data *balanceData `json:"data"`
}

type balanceData struct {
	AccountNo               jsonx.String    `json:"accountNo"`
	MeterNo                 jsonx.String    `json:"meterNo"`
	Balance                 decimal.Decimal `json:"balance"`
	CurrentMonthConsumption decimal.Decimal `json:"currentMonthConsumption"`
	ReadingTime             jsonx.String    `json:"readingTime"`
}

func (c *Client) Fetch(ctx context.Context, accountNo string) (domain.Reading, error) {
	start := time.Now()
	outcome := metrics.OutcomeError
	defer func() { metrics.ObserveFetch(outcome, time.Since(start)) }()

	resp, err := c.get(ctx, c.secure, accountNo)
	insecure := false
	if err != nil {
		if ctx.Err() != nil {
			return domain.Reading{}, fmt.Errorf("fetch balance for %s: %w", accountNo, err)
		}
		c.log.Warn("TLS verify or network error, retrying without certificate verification",
			zap.String("account", accountNo),
			zap.Error(err),
		)
		resp, err = c.get(ctx, c.insecure, accountNo)
		if err != nil {
			return domain.Reading{}, fmt.Errorf("fetch balance for %s: %w", accountNo, err)
		}
		insecure = true
	}

	if !resp.IsSuccess() {
		return domain.Reading{}, fmt.Errorf("%w: %d %s", ErrUnexpectedStatus, resp.StatusCode(), snippet(resp.Body()))
	}

	reading, err := decodeReading(resp.Body())
	if err != nil {
		if errors.Is(err, ErrNoData) {
			outcome = metrics.OutcomeNoData
		}
		return domain.Reading{}, fmt.Errorf("account %s: %w", accountNo, err)
	}

	outcome = metrics.OutcomeOK
	if insecure {
		outcome = metrics.OutcomeInsecure
	}
	return reading, nil
}

func (c *Client) get(ctx context.Context, rc *resty.Client, accountNo string) (*resty.Response, error) {
	return rc.R().
		SetContext(ctx).
		SetQueryParam("accountNo", accountNo).
		Get(c.url)
}

func decodeReading(body []byte) (domain.Reading, error) {
	var br balanceResponse
	if err := json.Unmarshal(body, &br); err != nil {
		return domain.Reading{}, fmt.Errorf("decode balance response: %w (body: %s)", err, snippet(body))
	}
	if br.Data == nil {
		return domain.Reading{}, fmt.Errorf("%w (raw: %s)", ErrNoData, snippet(body))
	}
	d := br.Data
	return domain.Reading{
		AccountNo:               d.AccountNo.String(),
		MeterNo:                 d.MeterNo.String(),
		Balance:                 d.Balance,
		CurrentMonthConsumption: d.CurrentMonthConsumption,
		ReadingTime:             d.ReadingTime.String(),
	}, nil
}

func snippet(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > maxBodySnippet {
		s = s[:maxBodySnippet] + "..."
	}
	return s
}
