// Package ghostfolio is a client of the Ghostfolio REST API.
//
// It authenticates with the user's security token, looks symbols up and
// imports activities. Requests are paced by a rate limiter and symbol
// lookups are cached in memory.
package ghostfolio

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/etnz/gfsync"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// Client talks to a Ghostfolio instance.
type Client struct {
	host        string
	accessToken string
	http        *http.Client
	limiter     *rate.Limiter
	lookups     *cache.Cache

	mu        sync.Mutex
	authToken string
}

// New returns a client of the instance described by cfg.
func New(cfg gfsync.GhostfolioConfig) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Client{
		host:        strings.TrimSuffix(cfg.Host, "/"),
		accessToken: cfg.AccessToken,
		http:        &http.Client{Timeout: 30 * time.Second},
		limiter:     rate.NewLimiter(rate.Every(200*time.Millisecond), 5),
		lookups:     cache.New(time.Hour, 10*time.Minute),
	}, nil
}

// APIError is returned for non successful responses.
type APIError struct {
	Method, Path string
	Status       int
	Message      string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("ghostfolio %s %s: %d %s", e.Method, e.Path, e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("ghostfolio %s %s: %d %s", e.Method, e.Path, e.Status, e.Message)
}

// IsUnauthorized reports whether err is a rejected authentication.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && (apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden)
}

// Login exchanges the security token for an auth token.
func (c *Client) Login(ctx context.Context) error {
	var resp struct {
		AuthToken string `json:"authToken"`
	}
	req := map[string]string{"accessToken": c.accessToken}
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/anonymous", nil, req, &resp, false); err != nil {
		return fmt.Errorf("cannot log in: %w", err)
	}
	if resp.AuthToken == "" {
		return errors.New("cannot log in: empty auth token")
	}
	c.mu.Lock()
	c.authToken = resp.AuthToken
	c.mu.Unlock()
	log.Debug("logged in ghostfolio", "host", c.host)
	return nil
}

// Symbol is a lookup result.
type Symbol struct {
	Symbol        string `json:"symbol"`
	Name          string `json:"name"`
	Currency      string `json:"currency"`
	DataSource    string `json:"dataSource"`
	AssetClass    string `json:"assetClass,omitempty"`
	AssetSubClass string `json:"assetSubClass,omitempty"`
}

// Lookup searches symbols matching query.
func (c *Client) Lookup(ctx context.Context, query string) ([]Symbol, error) {
	query = strings.TrimSpace(query)
	if cached, ok := c.lookups.Get(query); ok {
		return cached.([]Symbol), nil
	}
	var resp struct {
		Items []Symbol `json:"items"`
	}
	if err := c.call(ctx, http.MethodGet, "/api/v1/symbol/lookup", url.Values{"query": {query}}, nil, &resp); err != nil {
		return nil, err
	}
	c.lookups.SetDefault(query, resp.Items)
	return resp.Items, nil
}

// Account is a Ghostfolio account.
type Account struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Currency string `json:"currency"`
}

// Accounts lists the user's accounts.
func (c *Client) Accounts(ctx context.Context) ([]Account, error) {
	var resp struct {
		Accounts []Account `json:"accounts"`
	}
	if err := c.call(ctx, http.MethodGet, "/api/v1/account", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Accounts, nil
}

// Import imports the activities of imp. With dryRun Ghostfolio only
// validates them.
func (c *Client) Import(ctx context.Context, imp gfsync.Import, dryRun bool) error {
	var query url.Values
	if dryRun {
		query = url.Values{"dryRun": {"true"}}
	}
	if err := c.call(ctx, http.MethodPost, "/api/v1/import", query, imp, nil); err != nil {
		return fmt.Errorf("cannot import %d activities: %w", len(imp.Activities), err)
	}
	return nil
}

// call performs an authenticated request, logging in first if needed and
// once again if the auth token expired.
func (c *Client) call(ctx context.Context, method, path string, query url.Values, in, out any) error {
	c.mu.Lock()
	logged := c.authToken != ""
	c.mu.Unlock()
	if !logged {
		if err := c.Login(ctx); err != nil {
			return err
		}
	}
	err := c.do(ctx, method, path, query, in, out, true)
	if !IsUnauthorized(err) {
		return err
	}
	log.Debug("auth token rejected, logging in again", "path", path)
	if err := c.Login(ctx); err != nil {
		return err
	}
	return c.do(ctx, method, path, query, in, out, true)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any, auth bool) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	addr := c.host + path
	if len(query) > 0 {
		addr += "?" + query.Encode()
	}
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, addr, body)
	if err != nil {
		return fmt.Errorf("cannot create http request %q: %w", addr, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth {
		c.mu.Lock()
		req.Header.Set("Authorization", "Bearer "+c.authToken)
		c.mu.Unlock()
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("cannot execute http request: %w", err)
	}
	defer resp.Body.Close()
	log.Debug("ghostfolio", "method", method, "path", path, "status", resp.Status)

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, resp.Body); err != nil {
		return fmt.Errorf("cannot read receiving http body: %w", err)
	}
	if resp.StatusCode >= 300 {
		return &APIError{Method: method, Path: path, Status: resp.StatusCode, Message: errorMessage(buf.Bytes())}
	}
	if out == nil || buf.Len() == 0 {
		return nil
	}
	if err := json.Unmarshal(buf.Bytes(), out); err != nil {
		return fmt.Errorf("cannot decode %s response: %w", path, err)
	}
	return nil
}

// errorMessage extracts the message of a Ghostfolio error body.
// Messages are either a string or a list of validation messages.
func errorMessage(body []byte) string {
	var e struct {
		Message json.RawMessage `json:"message"`
	}
	if json.Unmarshal(body, &e) != nil || len(e.Message) == 0 {
		return ""
	}
	var msg string
	if json.Unmarshal(e.Message, &msg) == nil {
		return msg
	}
	var msgs []string
	if json.Unmarshal(e.Message, &msgs) == nil {
		return strings.Join(msgs, "; ")
	}
	return string(e.Message)
}
