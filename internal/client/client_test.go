package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rryowa/nexus/internal/models"
)

// fakeServer accepts only the current access token on /api/data and hands out
// a new one on every successful refresh.
type fakeServer struct {
	mu            sync.Mutex
	current       string
	refreshCalls  atomic.Int32
	dataCalls     atomic.Int32
	refreshFails  bool
	alwaysReject  bool
	refreshGate   chan struct{}
	refreshIssued int
}

func (f *fakeServer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		f.refreshCalls.Add(1)
		if f.refreshGate != nil {
			<-f.refreshGate
		}
		if f.refreshFails {
			writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{
				Status: models.StatusError, Code: "REFRESH_TOKEN_INVALID", Message: "Refresh token is invalid",
			})
			return
		}
		f.mu.Lock()
		f.refreshIssued++
		f.current = "token-" + string(rune('A'+f.refreshIssued))
		token := f.current
		f.mu.Unlock()
		writeJSON(w, http.StatusOK, models.SuccessResponse{
			Status: models.StatusSuccess, Data: models.RefreshResponse{AccessToken: token},
		})
	})
	mux.HandleFunc("/api/data", func(w http.ResponseWriter, r *http.Request) {
		f.dataCalls.Add(1)
		f.mu.Lock()
		ok := !f.alwaysReject && r.Header.Get("Authorization") == "Bearer "+f.current
		f.mu.Unlock()
		if !ok {
			writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{
				Status: models.StatusError, Code: CodeAccessTokenInvalid, Message: "Access token is invalid or has expired",
			})
			return
		}
		writeJSON(w, http.StatusOK, models.SuccessResponse{Status: models.StatusSuccess, Data: map[string]string{"hello": "world"}})
	})
	return mux
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func newFakeClient(t *testing.T, f *fakeServer) *Client {
	t.Helper()
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)

	c, err := New(srv.URL)
	require.NoError(t, err)
	return c
}

func TestDo_ConcurrentFailuresShareOneRefresh(t *testing.T) {
	f := &fakeServer{current: "fresh-elsewhere", refreshGate: make(chan struct{})}
	c := newFakeClient(t, f)
	c.tokens.Set("stale")

	const n = 10
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var out map[string]string
			errs[i] = c.Do(context.Background(), http.MethodGet, "/api/data", nil, &out)
			if errs[i] == nil && out["hello"] != "world" {
				errs[i] = errors.New("unexpected payload")
			}
		}(i)
	}

	require.Eventually(t, func() bool { return f.dataCalls.Load() == n }, 5*time.Second, 5*time.Millisecond)
	close(f.refreshGate)
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "call %d", i)
	}
	assert.Equal(t, int32(1), f.refreshCalls.Load())
	assert.Equal(t, int32(2*n), f.dataCalls.Load())
	assert.Equal(t, "token-B", c.AccessToken())
}

func TestDo_RefreshFailureReturnsOriginalError(t *testing.T) {
	f := &fakeServer{current: "valid", refreshFails: true}
	c := newFakeClient(t, f)
	c.tokens.Set("stale")

	err := c.Do(context.Background(), http.MethodGet, "/api/data", nil, nil)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, CodeAccessTokenInvalid, apiErr.Code)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, int32(1), f.refreshCalls.Load())
	assert.Equal(t, int32(1), f.dataCalls.Load())
	assert.Equal(t, "stale", c.AccessToken())
}

func TestDo_RetriesAtMostOnce(t *testing.T) {
	f := &fakeServer{alwaysReject: true}
	c := newFakeClient(t, f)
	c.tokens.Set("stale")

	err := c.Do(context.Background(), http.MethodGet, "/api/data", nil, nil)
	require.True(t, HasCode(err, CodeAccessTokenInvalid))
	assert.Equal(t, int32(1), f.refreshCalls.Load())
	assert.Equal(t, int32(2), f.dataCalls.Load())
}

func TestDo_UsesTokenRotatedByAnotherCall(t *testing.T) {
	f := &fakeServer{current: "token-X"}
	c := newFakeClient(t, f)
	c.tokens.Set("token-X")

	// The stored token moved on after "stale" was sent.
	token, err := c.refreshAfter(context.Background(), "stale")
	require.NoError(t, err)
	assert.Equal(t, "token-X", token)
	assert.Equal(t, int32(0), f.refreshCalls.Load())
}

func TestDo_AbandonedCallerDoesNotCancelRefresh(t *testing.T) {
	f := &fakeServer{refreshGate: make(chan struct{})}
	c := newFakeClient(t, f)
	c.tokens.Set("stale")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Do(ctx, http.MethodGet, "/api/data", nil, nil) }()

	require.Eventually(t, func() bool { return f.refreshCalls.Load() == 1 }, 5*time.Second, 5*time.Millisecond)
	cancel()
	require.ErrorIs(t, <-done, context.Canceled)

	close(f.refreshGate)
	require.Eventually(t, func() bool { return c.AccessToken() == "token-B" }, 5*time.Second, 5*time.Millisecond)

	require.NoError(t, c.Do(context.Background(), http.MethodGet, "/api/data", nil, nil))
	assert.Equal(t, int32(1), f.refreshCalls.Load())
}

func TestDo_RefreshEndpointIsNotRetried(t *testing.T) {
	f := &fakeServer{refreshFails: true}
	c := newFakeClient(t, f)

	err := c.Do(context.Background(), http.MethodPost, refreshPath, nil, nil)
	require.True(t, HasCode(err, "REFRESH_TOKEN_INVALID"))
	assert.Equal(t, int32(1), f.refreshCalls.Load())
}

func TestNew_DoesNotModifyCallerHTTPClient(t *testing.T) {
	hc := &http.Client{Timeout: time.Second}

	c, err := New("http://localhost", WithHTTPClient(hc))
	require.NoError(t, err)

	assert.Nil(t, hc.Jar)
	assert.NotNil(t, c.http.Jar)
	assert.Equal(t, time.Second, c.http.Timeout)
}

func TestDecode(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/fail", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusUnprocessableEntity, models.FailResponse{
			Status: models.StatusFail, Data: map[string][]string{"email": {"is required"}},
		})
	})
	mux.HandleFunc("/error", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusForbidden, models.ErrorResponse{Status: models.StatusError, Code: "NOT_AUTHORIZED", Message: "no"})
	})
	mux.HandleFunc("/html", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>bad gateway</html>"))
	})
	mux.HandleFunc("/empty", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c, err := New(srv.URL)
	require.NoError(t, err)
	ctx := context.Background()

	err = c.Do(ctx, http.MethodPost, "/fail", map[string]string{}, nil)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"is required"}, verr.Fields["email"])

	err = c.Do(ctx, http.MethodGet, "/error", nil, nil)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "NOT_AUTHORIZED", apiErr.Code)
	assert.Equal(t, http.StatusForbidden, apiErr.Status)

	err = c.Do(ctx, http.MethodGet, "/html", nil, nil)
	var terr *TransportError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, http.StatusBadGateway, terr.Status)

	require.NoError(t, c.Do(ctx, http.MethodDelete, "/empty", nil, nil))
}

func TestDo_ServerUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := New(url)
	require.NoError(t, err)

	err = c.Do(context.Background(), http.MethodGet, "/api/data", nil, nil)
	var terr *TransportError
	require.ErrorAs(t, err, &terr)
	assert.True(t, strings.HasPrefix(terr.Op, "GET /api/data"))
}
