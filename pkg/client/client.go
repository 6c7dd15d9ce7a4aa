// Package client is a typed client for the task manager API. Every call goes
// through a Session, which holds the bearer token and the capability set of
// the logged in user; calls the session's role cannot make fail with
// ErrForbidden before reaching the network.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"taskmanager-backend/pkg/api"
)

type Client struct {
	baseURL string
	http    *http.Client
	session *Session
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithSession(s *Session) Option {
	return func(c *Client) { c.session = s }
}

// New returns a client for the server at baseURL, e.g.
// "http://localhost:8080". The /api prefix is added by the client.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/") + "/api",
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	if c.session == nil {
		c.session = NewSession()
	}
	return c
}

func (c *Client) Session() *Session { return c.session }

type request struct {
	method      string
	path        string
	query       url.Values
	body        any
	rawBody     io.Reader
	contentType string
	anonymous   bool
}

func (c *Client) do(ctx context.Context, r request, out any) error {
	raw, _, err := c.send(ctx, r)
	if err != nil {
		return err
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", r.method, r.path, err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, r request) ([]byte, http.Header, error) {
	token := c.session.Token()
	if !r.anonymous && token == "" {
		return nil, nil, ErrNotLoggedIn
	}

	u := c.baseURL + r.path
	if len(r.query) > 0 {
		u += "?" + r.query.Encode()
	}

	body := r.rawBody
	contentType := r.contentType
	if r.body != nil {
		b, err := json.Marshal(r.body)
		if err != nil {
			return nil, nil, err
		}
		body = bytes.NewReader(b)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, r.method, u, body)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if !r.anonymous {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("%s %s: %w", r.method, r.path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("read %s %s: %w", r.method, r.path, err)
	}

	if resp.StatusCode >= 300 {
		apiErr := decodeError(resp.StatusCode, raw)
		if resp.StatusCode == http.StatusUnauthorized && !r.anonymous {
			c.session.clear(EventExpired)
		}
		return nil, nil, apiErr
	}
	return raw, resp.Header, nil
}

func decodeError(status int, raw []byte) *APIError {
	e := &APIError{Status: status}
	var body api.ErrorBody
	if err := json.Unmarshal(raw, &body); err == nil {
		e.Kind = body.Error
		e.Message = body.Message
		e.Fields = body.Errors
	}
	if e.Message == "" {
		e.Message = http.StatusText(status)
	}
	return e
}
