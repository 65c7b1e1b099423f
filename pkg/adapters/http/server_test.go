package http_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aretw0/onboard"
	onboardhttp "github.com/aretw0/onboard/pkg/adapters/http"
	"github.com/aretw0/onboard/pkg/adapters/mockbackend"
	"github.com/aretw0/onboard/pkg/auth"
	"github.com/aretw0/onboard/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, backend *mockbackend.Backend, opts ...onboardhttp.Option) *httptest.Server {
	t.Helper()
	engine, err := onboard.New(backend)
	require.NoError(t, err)
	ts := httptest.NewServer(onboardhttp.NewHandler(engine, opts...))
	t.Cleanup(func() {
		ts.Close()
		engine.Wait()
	})
	return ts
}

func do(t *testing.T, ts *httptest.Server, method, path string, body any, header ...string) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, ts.URL+path, r)
	require.NoError(t, err)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, out
}

func decodeView(t *testing.T, raw []byte) domain.View {
	t.Helper()
	var v domain.View
	require.NoError(t, json.Unmarshal(raw, &v), string(raw))
	return v
}

var user = map[string]any{"user": mockbackend.LoggedUser}

func TestHealthAndInfo(t *testing.T) {
	ts := newServer(t, mockbackend.New(), onboardhttp.WithVersion("1.2.3"))

	code, body := do(t, ts, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))

	code, body = do(t, ts, http.MethodGet, "/info", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"app":"onboard-http","version":"1.2.3","api_version":"1.0.0"}`, string(body))

	code, body = do(t, ts, http.MethodGet, "/openapi.yaml", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(body), "/sessions/{sessionId}/select")
}

func TestSessionFlow(t *testing.T) {
	ts := newServer(t, mockbackend.New())

	code, body := do(t, ts, http.MethodPost, "/sessions/s1/start", user)
	require.Equal(t, http.StatusOK, code, string(body))
	view := decodeView(t, body)
	assert.Equal(t, domain.StepSelect, view.Step)
	assert.Len(t, view.Candidates, 3)

	sel := map[string]any{"user": mockbackend.LoggedUser, "taxCode": mockbackend.TaxCodeSuccess}
	code, body = do(t, ts, http.MethodPost, "/sessions/s1/select", sel)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, string(body), domain.ErrContactRequired.Error())

	code, _ = do(t, ts, http.MethodPut, "/sessions/s1/email", map[string]string{"email": "pec@acme.it"})
	require.Equal(t, http.StatusOK, code)

	code, body = do(t, ts, http.MethodPost, "/sessions/s1/select", sel)
	require.Equal(t, http.StatusOK, code, string(body))
	view = decodeView(t, body)
	assert.Equal(t, domain.StepDone, view.Step)
	assert.True(t, view.Terminal)

	code, body = do(t, ts, http.MethodGet, "/sessions/s1", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, domain.StepDone, decodeView(t, body).Step)

	code, body = do(t, ts, http.MethodPost, "/sessions/s1/back", nil)
	require.Equal(t, http.StatusOK, code, string(body))
	assert.Equal(t, domain.StepConfirm, decodeView(t, body).Step)

	code, body = do(t, ts, http.MethodGet, "/sessions", nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `["s1"]`, string(body))

	code, _ = do(t, ts, http.MethodDelete, "/sessions/s1", nil)
	assert.Equal(t, http.StatusNoContent, code)

	code, body = do(t, ts, http.MethodGet, "/sessions/s1", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Contains(t, string(body), `"status":404`)
}

func TestInvalidBodies(t *testing.T) {
	ts := newServer(t, mockbackend.New())

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/sessions/s1/start", strings.NewReader("{"))
	require.NoError(t, err)
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	code, _ := do(t, ts, http.MethodPost, "/sessions/s1/manual", user)
	assert.Equal(t, http.StatusBadRequest, code, "a manual start needs a business")
}

func TestBearerTokenReachesBackend(t *testing.T) {
	guard := auth.NewGuard(auth.ContextToken{}, nil)
	ts := newServer(t, mockbackend.New(mockbackend.WithGuard(guard)))

	code, body := do(t, ts, http.MethodPost, "/sessions/anon/start", user)
	require.Equal(t, http.StatusOK, code)
	view := decodeView(t, body)
	assert.Equal(t, domain.StepSessionExpired, view.Step)
	assert.Equal(t, domain.KindUnauthorized, view.LastError)

	code, body = do(t, ts, http.MethodPost, "/sessions/authed/start", user, "Authorization", "Bearer abc")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, domain.StepSelect, decodeView(t, body).Step)
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "onboard_test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Inc()

	ts := newServer(t, mockbackend.New(), onboardhttp.WithMetrics(reg))
	code, body := do(t, ts, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(body), "onboard_test_total 1")

	bare := newServer(t, mockbackend.New())
	code, _ = do(t, bare, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestSubscribeEvents_Session(t *testing.T) {
	ts := newServer(t, mockbackend.New())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/sessions/s1/events?steps=done", nil)
	require.NoError(t, err)
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := bufio.NewScanner(resp.Body)
	readData := func() string {
		for lines.Scan() {
			if data, ok := strings.CutPrefix(lines.Text(), "data: "); ok {
				return data
			}
		}
		return ""
	}
	require.Equal(t, "connected", readData())

	code, _ := do(t, ts, http.MethodPost, "/sessions/s1/start", user)
	require.Equal(t, http.StatusOK, code)
	code, _ = do(t, ts, http.MethodPut, "/sessions/s1/email", map[string]string{"email": "pec@acme.it"})
	require.Equal(t, http.StatusOK, code)
	code, _ = do(t, ts, http.MethodPost, "/sessions/s1/select", map[string]any{"user": mockbackend.LoggedUser, "taxCode": mockbackend.TaxCodeSuccess})
	require.Equal(t, http.StatusOK, code)

	view := decodeView(t, []byte(readData()))
	assert.Equal(t, "s1", view.SessionID)
	assert.Equal(t, domain.StepDone, view.Step, "views at other steps are filtered out")
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{domain.ErrSessionNotFound, http.StatusNotFound},
		{fmt.Errorf("wrap: %w", domain.ErrWrongStep), http.StatusConflict},
		{domain.ErrCallInFlight, http.StatusConflict},
		{domain.ErrStale, http.StatusConflict},
		{domain.ErrNoHistory, http.StatusConflict},
		{domain.ErrUnknownBusiness, http.StatusBadRequest},
		{domain.ErrContactRequired, http.StatusBadRequest},
		{&domain.Error{Kind: domain.KindUnauthorized}, http.StatusUnauthorized},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, onboardhttp.StatusFor(tc.err), tc.err.Error())
	}
}
