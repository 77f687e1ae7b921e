package http_test

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/wayfarer"
	api "github.com/aretw0/wayfarer/pkg/adapters/http"
	"github.com/aretw0/wayfarer/pkg/domain"
	"github.com/aretw0/wayfarer/pkg/observability"
)

func newServer(t *testing.T) (*httptest.Server, *wayfarer.Planner) {
	t.Helper()
	reg := prometheus.NewRegistry()
	p, err := wayfarer.New(
		wayfarer.WithMetrics(observability.NewMetrics(reg)),
		wayfarer.WithClock(func() time.Time { return time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC) }),
	)
	require.NoError(t, err)

	srv := httptest.NewServer(api.NewHandler(p,
		api.WithMetricsHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))))
	t.Cleanup(srv.Close)
	return srv, p
}

func postMessage(t *testing.T, srv *httptest.Server, id, msg string) (*http.Response, domain.Reply) {
	t.Helper()
	body := strings.NewReader(`{"message":` + mustJSON(t, msg) + `}`)
	resp, err := http.Post(srv.URL+"/sessions/"+id+"/messages", "application/json", body)
	require.NoError(t, err)
	defer resp.Body.Close()

	var reply domain.Reply
	if resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&reply))
	}
	return resp, reply
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	var sb strings.Builder
	_, err = bufio.NewReader(resp.Body).WriteTo(&sb)
	require.NoError(t, err)
	return resp, sb.String()
}

func TestPostMessage(t *testing.T) {
	srv, _ := newServer(t)

	resp, reply := postMessage(t, srv, "s1", "Dallas")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, domain.NodeAskDestination, reply.Node)
	assert.NotEmpty(t, reply.Text)

	resp, body := get(t, srv.URL+"/sessions/s1")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var state domain.State
	require.NoError(t, json.Unmarshal([]byte(body), &state))
	assert.Equal(t, "Dallas", state.OriginCity)
}

func TestPostMessage_Errors(t *testing.T) {
	srv, _ := newServer(t)

	resp, err := http.Post(srv.URL+"/sessions/s1/messages", "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = postMessage(t, srv, "s1", strings.Repeat("a", 5000))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = get(t, srv.URL+"/sessions/missing")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSessionLifecycle(t *testing.T) {
	srv, _ := newServer(t)

	resp, err := http.Post(srv.URL+"/sessions", "application/json", nil)
	require.NoError(t, err)
	var created struct {
		SessionID string       `json:"session_id"`
		Reply     domain.Reply `json:"reply"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.NotEmpty(t, created.SessionID)
	assert.Contains(t, created.Reply.Text, "Where are you traveling from?")

	_, body := get(t, srv.URL+"/sessions")
	assert.Contains(t, body, created.SessionID)

	resp, body = get(t, srv.URL+"/sessions/"+created.SessionID+"/calendar.ics")
	assert.Equal(t, http.StatusConflict, resp.StatusCode, body)

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/sessions/"+created.SessionID, nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = get(t, srv.URL+"/sessions/"+created.SessionID)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGraphEndpoints(t *testing.T) {
	srv, p := newServer(t)

	_, body := get(t, srv.URL+"/graph")
	var g domain.GraphExport
	require.NoError(t, json.Unmarshal([]byte(body), &g))
	assert.Equal(t, p.Graph(), g)

	resp, body := get(t, srv.URL+"/graph.mmd")
	assert.Equal(t, "text/plain; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.True(t, strings.HasPrefix(body, "graph TD\n"))
	assert.NotContains(t, body, "classDef")

	postMessage(t, srv, "s1", "Dallas")
	_, body = get(t, srv.URL+"/sessions/s1/graph.mmd")
	assert.Contains(t, body, "class ask_destination current;")
	assert.Contains(t, body, "class ask_origin visited;")
}

func TestHealthInfoMetrics(t *testing.T) {
	srv, _ := newServer(t)

	_, body := get(t, srv.URL+"/health")
	assert.JSONEq(t, `{"status":"ok"}`, body)

	_, body = get(t, srv.URL+"/info")
	assert.Contains(t, body, `"api_version":"1.0.0"`)

	postMessage(t, srv, "s1", "Dallas")
	_, body = get(t, srv.URL+"/metrics")
	assert.Contains(t, body, "wayfarer_turns_total")
}

func TestSubscribeEvents(t *testing.T) {
	srv, _ := newServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/sessions/s1/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := bufio.NewScanner(resp.Body)
	require.True(t, lines.Scan())
	assert.Equal(t, "event: ping", lines.Text())

	postMessage(t, srv, "s1", "Dallas")

	var data string
	for lines.Scan() {
		if strings.HasPrefix(lines.Text(), "data: {") {
			data = strings.TrimPrefix(lines.Text(), "data: ")
			break
		}
	}
	var reply domain.Reply
	require.NoError(t, json.Unmarshal([]byte(data), &reply))
	assert.Equal(t, domain.NodeAskDestination, reply.Node)
}

func TestOpenAPIDocument(t *testing.T) {
	doc, err := api.GetSwagger()
	require.NoError(t, err)
	require.NoError(t, doc.Validate(context.Background()))

	router, ok := api.NewHandler(nil, api.WithMetricsHandler(http.NotFoundHandler())).(chi.Routes)
	require.True(t, ok)

	err = chi.Walk(router, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		path := strings.TrimSuffix(route, "/")
		item := doc.Paths.Find(path)
		if assert.NotNil(t, item, "route %s is documented", path) {
			assert.NotNil(t, item.GetOperation(method), "%s %s is documented", method, path)
		}
		return nil
	})
	require.NoError(t, err)
}
