// Package transport talks to the site's AJAX endpoint.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sevigo/shiny-updates/internal/core"
)

const maxBodySize = 8 << 20

var (
	ErrUnknownAction = errors.New("backend does not know the action")
	ErrBadResponse   = errors.New("backend returned a malformed response")
)

// Client posts form-encoded requests to an admin-ajax style endpoint and
// decodes the {success, data} replies.
type Client struct {
	endpoint   string
	nonce      string
	cookie     string
	userAgent  string
	httpClient *http.Client
	logger     *slog.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the default client, e.g. to set a transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithCookie sets the session cookie header sent with every request.
func WithCookie(cookie string) Option {
	return func(c *Client) { c.cookie = cookie }
}

// WithNonce sets the nonce used for searches. Operation requests carry their own.
func WithNonce(nonce string) Option {
	return func(c *Client) { c.nonce = nonce }
}

func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

func NewClient(endpoint string, timeout time.Duration, logger *slog.Logger, opts ...Option) (*Client, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid endpoint %q: scheme must be http or https", endpoint)
	}
	c := &Client{
		endpoint:   endpoint,
		userAgent:  "shiny-updates",
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Send implements core.Transport. Failures the backend reports in the body
// come back as a Response; only transport problems return an error.
func (c *Client) Send(ctx context.Context, req *core.Request) (*core.Response, error) {
	body, status, err := c.post(ctx, req.Values())
	if err != nil {
		return nil, err
	}
	resp := &core.Response{}
	if err := decode(body, resp); err != nil {
		return nil, fmt.Errorf("%s (HTTP %d): %w", req.Action, status, err)
	}
	return resp, nil
}

// List implements core.Lister for the search-plugins and search-install-plugins
// style actions, returning the rendered rows.
func (c *Client) List(ctx context.Context, action, query string) (string, error) {
	form := url.Values{}
	form.Set("action", action)
	form.Set("s", query)
	form.Set("_ajax_nonce", c.nonce)

	body, status, err := c.post(ctx, form)
	if err != nil {
		return "", err
	}
	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			Count        int    `json:"count"`
			Items        string `json:"items"`
			ErrorMessage string `json:"errorMessage"`
		} `json:"data"`
	}
	if err := decode(body, &resp); err != nil {
		return "", fmt.Errorf("%s (HTTP %d): %w", action, status, err)
	}
	if !resp.Success {
		return "", fmt.Errorf("%s failed: %s", action, resp.Data.ErrorMessage)
	}
	return resp.Data.Items, nil
}

func (c *Client) post(ctx context.Context, form url.Values) ([]byte, int, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")
	httpReq.Header.Set("X-Requested-With", "XMLHttpRequest")
	httpReq.Header.Set("Accept", "application/json, text/javascript, */*; q=0.01")
	httpReq.Header.Set("User-Agent", c.userAgent)
	if c.cookie != "" {
		httpReq.Header.Set("Cookie", c.cookie)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, 0, fmt.Errorf("request to %s failed: %w", c.endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}
	c.logger.Debug("ajax request completed",
		"action", form.Get("action"),
		"status", resp.StatusCode,
		"duration", time.Since(start),
		"bytes", len(body),
	)
	return body, resp.StatusCode, nil
}

// decode handles the bare replies admin-ajax sends instead of JSON: "-1" when
// the nonce check fails and "0" when no handler is registered for the action.
func decode(body []byte, v any) error {
	trimmed := bytes.TrimSpace(body)
	switch string(trimmed) {
	case "-1":
		return core.ErrInvalidNonce
	case "0":
		return ErrUnknownAction
	}
	if err := json.Unmarshal(trimmed, v); err != nil {
		return fmt.Errorf("%w: %w", ErrBadResponse, err)
	}
	return nil
}
