package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rryowa/nexus/internal/models"
)

const (
	refreshPath = "/api/auth/refresh"

	defaultTimeout = 15 * time.Second
)

type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenStore
	log     *zap.SugaredLogger

	mu      sync.Mutex
	pending *refreshCall
}

// refreshCall is one in-flight refresh shared by every caller that joins it.
// token and err are written before done is closed.
type refreshCall struct {
	done  chan struct{}
	token string
	err   error
}

type Option func(*Client)

// WithHTTPClient uses a copy of hc for every request. When hc has no cookie
// jar the copy gets one; hc itself is left untouched.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		cp := *hc
		c.http = &cp
	}
}

func WithTokenStore(store TokenStore) Option {
	return func(c *Client) { c.tokens = store }
}

func WithLogger(log *zap.SugaredLogger) Option {
	return func(c *Client) { c.log = log }
}

func New(baseURL string, opts ...Option) (*Client, error) {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
		tokens:  NewMemoryTokenStore(),
		log:     zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.http.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("create cookie jar: %w", err)
		}
		c.http.Jar = jar
	}
	return c, nil
}

// AccessToken returns the token currently attached to requests.
func (c *Client) AccessToken() string { return c.tokens.Get() }

// Do sends body as JSON and decodes the envelope data into out. out may be nil.
//
// A call rejected with ACCESS_TOKEN_INVALID is resent at most once, after the
// session was refreshed. When the refresh fails the original error is returned.
func (c *Client) Do(ctx context.Context, method, path string, body, out interface{}) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	sent := c.tokens.Get()
	err := c.send(ctx, method, path, payload, sent, out)
	if err == nil || path == refreshPath || !HasCode(err, CodeAccessTokenInvalid) {
		return err
	}

	fresh, refreshErr := c.refreshAfter(ctx, sent)
	if refreshErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		c.log.Debugw("session refresh failed", "error", refreshErr)
		return err
	}

	return c.send(ctx, method, path, payload, fresh, out)
}

// refreshAfter returns a usable access token after rejected was refused. If the
// store already holds a different token, some other call refreshed in the
// meantime and that token is used as is. Otherwise the caller joins the pending
// refresh or starts one.
func (c *Client) refreshAfter(ctx context.Context, rejected string) (string, error) {
	c.mu.Lock()
	if current := c.tokens.Get(); current != "" && current != rejected {
		c.mu.Unlock()
		return current, nil
	}
	call := c.pending
	if call == nil {
		call = &refreshCall{done: make(chan struct{})}
		c.pending = call
		go c.runRefresh(call)
	}
	c.mu.Unlock()

	select {
	case <-call.done:
		return call.token, call.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// runRefresh is detached from every caller's context so that an abandoned
// call never cancels the refresh others are waiting on.
func (c *Client) runRefresh(call *refreshCall) {
	token, err := c.refresh(context.Background())

	c.mu.Lock()
	if err == nil {
		c.tokens.Set(token)
	}
	call.token, call.err = token, err
	c.pending = nil
	c.mu.Unlock()

	close(call.done)
}

func (c *Client) refresh(ctx context.Context) (string, error) {
	var resp models.RefreshResponse
	if err := c.send(ctx, http.MethodPost, refreshPath, nil, "", &resp); err != nil {
		return "", err
	}
	if resp.AccessToken == "" {
		return "", &TransportError{Op: "refresh", Err: errors.New("empty access token")}
	}
	return resp.AccessToken, nil
}

type envelope struct {
	Status  string          `json:"status"`
	Data    json.RawMessage `json:"data"`
	Code    string          `json:"code"`
	Message string          `json:"message"`
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte, token string, out interface{}) error {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return &TransportError{Op: method + " " + path, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.Warnw("request failed", "method", method, "path", path, "error", err)
		return &TransportError{Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close()

	return c.decode(method+" "+path, resp, out)
}

func (c *Client) decode(op string, resp *http.Response, out interface{}) error {
	if resp.StatusCode == http.StatusNoContent || resp.StatusCode == http.StatusNotModified {
		return nil
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Op: op, Status: resp.StatusCode, Err: err}
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		c.log.Warnw("undecodable response", "op", op, "status", resp.StatusCode, "error", err)
		return &TransportError{Op: op, Status: resp.StatusCode, Err: err}
	}

	switch env.Status {
	case models.StatusSuccess:
		if out == nil || len(env.Data) == 0 {
			return nil
		}
		if err := json.Unmarshal(env.Data, out); err != nil {
			return &TransportError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("decode data: %w", err)}
		}
		return nil
	case models.StatusFail:
		fields := map[string][]string{}
		if len(env.Data) > 0 {
			if err := json.Unmarshal(env.Data, &fields); err != nil {
				return &TransportError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("decode fail data: %w", err)}
			}
		}
		return &ValidationError{Status: resp.StatusCode, Fields: fields}
	case models.StatusError:
		return &APIError{Status: resp.StatusCode, Code: env.Code, Message: env.Message}
	default:
		c.log.Warnw("unexpected envelope status", "op", op, "status", resp.StatusCode, "envelope", env.Status)
		return &TransportError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("unexpected envelope status %q", env.Status)}
	}
}
