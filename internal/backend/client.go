package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/newthinker/pulse/internal/core"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// Endpoint paths on the backend.
const (
	PathBacktestRun    = "/api/forecast/backtest/run/"
	PathMarketOverview = "/api/dashboard/market-overview/"
	PathSignals        = "/api/dashboard/signals/"
	PathSentiment      = "/api/dashboard/sentiment/"
	PathPriceData      = "/api/dashboard/price-data/%s/"
)

const csrfHeader = "X-CSRFToken"

// Config holds backend client settings.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	CSRFCookie string
	CSRFToken  string
	CSRFPath   string
}

// Client talks to the dashboard REST backend.
type Client struct {
	http    *resty.Client
	jar     http.CookieJar
	baseURL *url.URL
	cfg     Config
	logger  *zap.Logger
}

// New creates a backend client.
func New(cfg Config, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("parsing base url: %w", err))
	}
	if cfg.CSRFCookie == "" {
		cfg.CSRFCookie = "csrftoken"
	}
	if cfg.CSRFPath == "" {
		cfg.CSRFPath = "/"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}

	rc := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetCookieJar(jar).
		SetHeader("Accept", "application/json")

	return &Client{
		http:    rc,
		jar:     jar,
		baseURL: base,
		cfg:     cfg,
		logger:  logger,
	}, nil
}

// RunBacktest posts a backtest request and decodes the result.
// A non-2xx answer yields core.ErrBackendStatus wrapping a *core.StatusError.
func (c *Client) RunBacktest(ctx context.Context, req core.BacktestRequest) (*core.BacktestResult, error) {
	token, err := c.CSRFToken(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader(csrfHeader, token).
		SetBody(req).
		Post(PathBacktestRun)
	if err != nil {
		return nil, core.WrapError(core.ErrBackendFailed, fmt.Errorf("running backtest: %w", err))
	}
	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var result core.BacktestResult
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, core.WrapError(core.ErrDecodeFailed, err)
	}
	return &result, nil
}

// MarketOverview fetches the indicator cards. The payload is loosely typed;
// indicators that are missing or null are left out of the result.
func (c *Client) MarketOverview(ctx context.Context) (core.MarketOverview, error) {
	body, err := c.get(ctx, PathMarketOverview, nil)
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(body) {
		return nil, core.WrapError(core.ErrDecodeFailed, fmt.Errorf("market overview is not valid JSON"))
	}

	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return nil, core.WrapError(core.ErrDecodeFailed, fmt.Errorf("market overview is not an object"))
	}

	overview := make(core.MarketOverview, len(core.IndicatorKeys))
	for _, key := range core.IndicatorKeys {
		v := root.Get(key)
		if !v.Exists() || !v.IsObject() {
			continue
		}
		overview[key] = core.Indicator{
			Value:         v.Get("value").Float(),
			ChangePercent: v.Get("change_percent").Float(),
		}
	}
	return overview, nil
}

// Signals fetches up to limit recent signals.
func (c *Client) Signals(ctx context.Context, limit int) ([]core.Signal, error) {
	body, err := c.get(ctx, PathSignals, map[string]string{"limit": strconv.Itoa(limit)})
	if err != nil {
		return nil, err
	}

	var signals []core.Signal
	if err := json.Unmarshal(body, &signals); err != nil {
		return nil, core.WrapError(core.ErrDecodeFailed, err)
	}
	return signals, nil
}

// Sentiment fetches the current sentiment score.
func (c *Client) Sentiment(ctx context.Context) (*core.Sentiment, error) {
	body, err := c.get(ctx, PathSentiment, nil)
	if err != nil {
		return nil, err
	}

	var s core.Sentiment
	if err := json.Unmarshal(body, &s); err != nil {
		return nil, core.WrapError(core.ErrDecodeFailed, err)
	}
	return &s, nil
}

// PriceData fetches the last hours of prices for symbol.
func (c *Client) PriceData(ctx context.Context, symbol string, hours int) ([]core.PricePoint, error) {
	path := fmt.Sprintf(PathPriceData, url.PathEscape(symbol))
	body, err := c.get(ctx, path, map[string]string{"hours": strconv.Itoa(hours)})
	if err != nil {
		return nil, err
	}

	var points []core.PricePoint
	if err := json.Unmarshal(body, &points); err != nil {
		return nil, core.WrapError(core.ErrDecodeFailed, err)
	}
	return points, nil
}

func (c *Client) get(ctx context.Context, path string, query map[string]string) ([]byte, error) {
	req := c.http.R().SetContext(ctx)
	if len(query) > 0 {
		req.SetQueryParams(query)
	}

	resp, err := req.Get(path)
	if err != nil {
		return nil, core.WrapError(core.ErrBackendFailed, fmt.Errorf("GET %s: %w", path, err))
	}
	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	c.logger.Debug("backend response",
		zap.String("path", path),
		zap.Int("status", resp.StatusCode()),
		zap.Duration("elapsed", resp.Time()),
	)
	return resp.Body(), nil
}

func checkStatus(resp *resty.Response) error {
	if resp.IsSuccess() {
		return nil
	}
	return core.WrapError(core.ErrBackendStatus, &core.StatusError{
		StatusCode: resp.StatusCode(),
		Body:       resp.String(),
	})
}
