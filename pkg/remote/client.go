// Package remote provides a client for a remote legalform detection service.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/legalform/internal/classify"
	"github.com/sells-group/legalform/internal/resilience"
	"github.com/sells-group/legalform/internal/store"
)

// codeLength is the length of an ELF code. Remote labels may carry a
// suffix after the code, which is dropped.
const codeLength = 4

// Option configures the client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithModel asks the remote to answer with the named model rather than the
// model of the requested jurisdiction.
func WithModel(name string) Option {
	return func(c *Client) {
		c.model = name
	}
}

// WithRateLimit caps requests per second.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithRetry replaces the retry policy.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *Client) {
		c.retry = cfg
	}
}

// Client calls POST /v1/detect on a remote service. It satisfies the
// detect.Detector interface.
type Client struct {
	baseURL string
	model   string
	http    *http.Client
	limiter *rate.Limiter
	retry   resilience.RetryConfig
	breaker *resilience.CircuitBreaker
}

// NewClient creates a client for the service at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
		limiter: rate.NewLimiter(10, 10),
		retry:   resilience.DefaultRetryConfig(),
		breaker: resilience.NewCircuitBreaker("remote", resilience.DefaultCircuitBreakerConfig()),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.retry.OnRetry == nil {
		c.retry.OnRetry = resilience.RetryLogger("remote", "detect")
	}
	return c
}

type detectRequest struct {
	Name         string `json:"name"`
	Jurisdiction string `json:"jurisdiction"`
	Top          int    `json:"top,omitempty"`
	Model        string `json:"model,omitempty"`
}

type detectResponse struct {
	Predictions []struct {
		Code  string  `json:"code"`
		Score float64 `json:"score"`
	} `json:"predictions"`
}

type modelsResponse struct {
	Models []string `json:"models"`
}

// TopK asks the remote for the k best codes. A 404 from the remote is
// reported as store.ErrModelNotFound.
func (c *Client) TopK(ctx context.Context, name, jurisdiction string, k int) ([]classify.Scored, error) {
	body, err := json.Marshal(detectRequest{Name: name, Jurisdiction: jurisdiction, Top: k, Model: c.model})
	if err != nil {
		return nil, eris.Wrap(err, "remote: marshal request")
	}

	var resp detectResponse
	if err := c.call(ctx, http.MethodPost, "/v1/detect", body, &resp); err != nil {
		return nil, err
	}

	out := make([]classify.Scored, 0, len(resp.Predictions))
	for _, p := range resp.Predictions {
		code := p.Code
		if len(code) > codeLength {
			code = code[:codeLength]
		}
		out = append(out, classify.Scored{Code: code, Score: p.Score})
	}
	classify.SortScored(out)
	return classify.Top(out, k), nil
}

// ListModels returns the model names the remote serves.
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	var resp modelsResponse
	if err := c.call(ctx, http.MethodGet, "/v1/models", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Models, nil
}

func (c *Client) call(ctx context.Context, method, path string, body []byte, out any) error {
	data, err := resilience.ExecuteVal(ctx, c.breaker, func(ctx context.Context) ([]byte, error) {
		return resilience.DoVal(ctx, c.retry, func(ctx context.Context) ([]byte, error) {
			return c.do(ctx, method, path, body)
		})
	})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return eris.Wrapf(err, "remote: decode %s", path)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "remote: rate limiter wait")
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, eris.Wrap(err, "remote: create request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "remote: %s %s", method, path)
	}
	defer resp.Body.Close() //nolint:errcheck

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, eris.Wrap(err, "remote: read body")
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, eris.Wrapf(store.ErrModelNotFound, "remote: %s", strings.TrimSpace(string(data)))
	}
	if err := resilience.CheckStatus(resp.StatusCode, "remote: "+method+" "+path); err != nil {
		return nil, err
	}
	return data, nil
}
