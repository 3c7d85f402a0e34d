// Package upstream is the request layer for the laundry REST API. It attaches
// the bearer token found in a role family's flat token mirror and unwraps
// {success, data, message} envelopes.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/lavanderia/ops-console/internal/core/domain"
	"github.com/lavanderia/ops-console/internal/core/ports"
)

const (
	defaultTimeout = 10 * time.Second
	maxBodyBytes   = 4 << 20
)

// Config configures the client.
type Config struct {
	BaseURL string
	Timeout time.Duration
	// LoginPaths overrides the login endpoint per family. Families without
	// an entry use /auth/login (customer) or /<family>/auth/login.
	LoginPaths map[string]string
}

// Client talks to the laundry REST API.
type Client struct {
	baseURL    string
	http       *http.Client
	storage    ports.DurableStorage
	tokenKeys  map[string]string
	loginPaths map[string]string
	log        zerolog.Logger
}

// New builds a Client. tokenKeys maps each family to its flat mirror key in
// storage.
func New(cfg Config, storage ports.DurableStorage, tokenKeys map[string]string, log zerolog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		http:       &http.Client{Timeout: timeout},
		storage:    storage,
		tokenKeys:  tokenKeys,
		loginPaths: cfg.LoginPaths,
		log:        log.With().Str("component", "upstream").Logger(),
	}
}

// Authenticate satisfies ports.Authenticator by posting credentials to the
// family's login endpoint.
func (c *Client) Authenticate(ctx context.Context, req ports.LoginRequest) (domain.LoginData, error) {
	body := map[string]string{"email": req.Email, "password": req.Password}

	var env domain.Envelope[domain.LoginData]
	status, _, err := c.send(ctx, http.MethodPost, c.loginPath(req.Family), "", body, &env)
	if err != nil {
		return domain.LoginData{}, err
	}
	if !env.Success {
		if status == http.StatusUnauthorized || status == http.StatusBadRequest || status == http.StatusNotFound || status < 300 {
			return domain.LoginData{}, fmt.Errorf("%w: %s", domain.ErrInvalidCredentials, env.Message)
		}
		return domain.LoginData{}, fmt.Errorf("%w: login status %d: %s", domain.ErrUpstream, status, env.Message)
	}
	return env.Data, nil
}

// Do performs an authenticated request on behalf of family and returns the
// envelope's data. A 2xx with an empty body returns nil data. A 401 from the
// API, or a missing mirror token, yields domain.ErrNotAuthenticated so the
// caller can log the family out.
func (c *Client) Do(ctx context.Context, family, method, path string, body any) (json.RawMessage, error) {
	token, err := c.token(ctx, family)
	if err != nil {
		return nil, err
	}

	var env domain.Envelope[json.RawMessage]
	status, hasBody, err := c.send(ctx, method, path, token, body, &env)
	if err != nil {
		return nil, err
	}
	if !hasBody && status >= 200 && status < 300 {
		return nil, nil
	}
	if status == http.StatusUnauthorized {
		return nil, domain.ErrNotAuthenticated
	}
	if status == http.StatusForbidden {
		return nil, domain.ErrForbidden
	}
	if !env.Success {
		return nil, fmt.Errorf("%w: %s %s status %d: %s", domain.ErrUpstream, method, path, status, env.Message)
	}
	return env.Data, nil
}

func (c *Client) token(ctx context.Context, family string) (string, error) {
	key, ok := c.tokenKeys[family]
	if !ok {
		return "", fmt.Errorf("%w: %s", domain.ErrUnknownFamily, family)
	}
	tok, found, err := c.storage.Get(ctx, key)
	if err != nil {
		return "", fmt.Errorf("read token mirror: %w", err)
	}
	if !found || tok == "" {
		return "", domain.ErrNotAuthenticated
	}
	return tok, nil
}

func (c *Client) loginPath(family string) string {
	if p, ok := c.loginPaths[family]; ok {
		return p
	}
	if family == "" || family == "customer" {
		return "/auth/login"
	}
	return "/" + family + "/auth/login"
}

// send reports the status and whether the response carried a body.
func (c *Client) send(ctx context.Context, method, path, token string, body, out any) (int, bool, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return 0, false, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, false, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, false, fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return resp.StatusCode, false, fmt.Errorf("%w: read body: %v", domain.ErrUpstream, err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return resp.StatusCode, false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		c.log.Debug().Err(err).Int("status", resp.StatusCode).Str("path", path).Msg("non-envelope response")
		if resp.StatusCode >= 300 {
			return resp.StatusCode, true, nil
		}
		return resp.StatusCode, true, fmt.Errorf("%w: decode envelope: %v", domain.ErrUpstream, err)
	}
	return resp.StatusCode, true, nil
}
