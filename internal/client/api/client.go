// Package api is the shared request envelope for every backend call: one
// base URL, JSON bodies both ways, bearer auth when a token is stored, and
// a uniform error shape. It does not retry, queue, or deduplicate calls.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/studira/studira/internal/logging"
)

// DefaultTimeout bounds every request; the SPA this replaces had none and
// could hang a submit button forever.
const DefaultTimeout = 30 * time.Second

// TokenProvider supplies the current bearer token at call time, or "" when
// the session is anonymous. The session repository implements it.
type TokenProvider interface {
	Token() string
}

// Client executes requests against the backend API.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenProvider
	log     logging.Logger
}

// New builds a Client for baseURL (scheme://host[/prefix], no trailing
// slash required). A non-positive timeout falls back to DefaultTimeout.
func New(baseURL string, timeout time.Duration, tokens TokenProvider, log logging.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		tokens:  tokens,
		log:     log,
	}
}

// staticToken is a TokenProvider pinned to one value.
type staticToken string

func (s staticToken) Token() string { return string(s) }

// WithToken returns a copy of the client whose requests carry the given
// bearer token regardless of what the session store holds. Needed for the
// best-effort server logout, which runs after local state is cleared.
func (c *Client) WithToken(token string) *Client {
	clone := *c
	clone.tokens = staticToken(token)
	return &clone
}

// Get performs a GET with optional query params and decodes the JSON
// response into out. Params with empty values are omitted.
func (c *Client) Get(ctx context.Context, path string, params map[string]string, out any) error {
	return c.do(ctx, http.MethodGet, path, params, nil, out)
}

// Post sends body as JSON and decodes the response into out.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

// Put sends body as JSON and decodes the response into out.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPut, path, nil, body, out)
}

// Delete performs a bodyless DELETE and decodes the response into out.
func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil, out)
}

// Download performs a GET for a binary response. It returns the raw bytes
// and the filename suggested by the Content-Disposition header, if any.
func (c *Client) Download(ctx context.Context, path string) ([]byte, string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, "", err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Error(ctx, "api request failed", "method", http.MethodGet, "path", path, "error", err)
		return nil, "", fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", c.decodeError(ctx, http.MethodGet, path, resp)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read response: %w", err)
	}
	return data, dispositionFilename(resp.Header.Get("Content-Disposition")), nil
}

func (c *Client) do(ctx context.Context, method, path string, params map[string]string, body, out any) error {
	req, err := c.newRequest(ctx, method, path, params, body)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Error(ctx, "api request failed", "method", method, "path", path, "error", err)
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.decodeError(ctx, method, path, resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		// an empty 2xx body with a non-nil destination is fine
		if err == io.EOF {
			return nil
		}
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, params map[string]string, body any) (*http.Request, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		q := url.Values{}
		for k, v := range params {
			if v == "" {
				continue
			}
			q.Set(k, v)
		}
		if enc := q.Encode(); enc != "" {
			u += "?" + enc
		}
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if token := c.tokens.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

// decodeError turns a non-2xx response into *Error. The body is parsed
// best-effort for the server's {"error": "..."} shape; anything else falls
// back to a generic message. The failure is logged here so callers that
// swallow the error still leave a diagnostic trail.
func (c *Client) decodeError(ctx context.Context, method, path string, resp *http.Response) error {
	message := fmt.Sprintf("request failed with status %d", resp.StatusCode)

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err == nil && len(data) > 0 {
		var payload struct {
			Error string `json:"error"`
		}
		if jsonErr := json.Unmarshal(data, &payload); jsonErr == nil && payload.Error != "" {
			message = payload.Error
		}
	}

	c.log.Error(ctx, "api request failed", "method", method, "path", path,
		"status", resp.StatusCode, "message", message)
	return &Error{Status: resp.StatusCode, Message: message}
}

func dispositionFilename(header string) string {
	if header == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(header)
	if err != nil {
		return ""
	}
	return params["filename"]
}
