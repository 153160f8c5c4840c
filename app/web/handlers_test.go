package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Semior001/newsportal/app/assistant"
	"github.com/Semior001/newsportal/app/portal"
	"github.com/Semior001/newsportal/app/session"
	"github.com/Semior001/newsportal/app/store"
	"github.com/Semior001/newsportal/pkg/logx"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() { gin.SetMode(gin.TestMode) }

// providerStub emulates an OpenAI-compatible chat completion endpoint.
type providerStub struct {
	calls   atomic.Int32
	fail    atomic.Bool
	block   chan struct{}
	started chan struct{}
}

func (p *providerStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.calls.Add(1)

	if p.started != nil {
		p.started <- struct{}{}
	}
	if p.block != nil {
		<-p.block
	}

	if p.fail.Load() {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"internal"}}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"choices":[{"index":0,"message":{"role":"assistant","content":"resposta do modelo"}}]}`))
}

type testEnv struct {
	srv      *Server
	rtr      *gin.Engine
	provider *providerStub
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWith(t, &providerStub{})
}

func newTestEnvWith(t *testing.T, provider *providerStub) *testEnv {
	t.Helper()

	catalogue, err := store.Load("")
	require.NoError(t, err)

	ts := httptest.NewServer(provider)
	t.Cleanup(ts.Close)

	lg := slog.New(logx.NoOp())
	reg := prometheus.NewRegistry()

	gateway := assistant.NewGateway(lg, ts.Client(), assistant.Params{
		Token:   "token",
		BaseURL: ts.URL,
	}, assistant.NewMetrics(reg))

	srv := &Server{
		Version:   "test",
		Logger:    lg,
		Store:     catalogue,
		Portal:    portal.NewPortal(lg, catalogue, portal.Params{}),
		Assistant: assistant.NewService(lg, catalogue, session.NewManager(session.Params{}), gateway),
		Gatherer:  reg,
	}

	return &testEnv{srv: srv, rtr: srv.routes(), provider: provider}
}

func (e *testEnv) do(t *testing.T, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, http.NoBody)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}

	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rec := httptest.NewRecorder()
	e.rtr.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func articleIDs(articles []store.Article) []string {
	res := make([]string, len(articles))
	for i, a := range articles {
		res[i] = a.ID
	}
	return res
}

func TestServer_Health(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","version":"test"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(HeaderRequestID))

	rec = e.do(t, http.MethodGet, "/health", "", HeaderRequestID, "req-1")
	assert.Equal(t, "req-1", rec.Header().Get(HeaderRequestID))
}

func TestServer_Articles(t *testing.T) {
	e := newTestEnv(t)

	t.Run("list", func(t *testing.T) {
		tests := []struct {
			filter string
			want   int
		}{
			{filter: "", want: 16},
			{filter: "all", want: 16},
			{filter: "featured", want: 3},
			{filter: "latest", want: 13},
		}

		for _, tt := range tests {
			rec := e.do(t, http.MethodGet, "/api/v1/articles?filter="+tt.filter, "")
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Len(t, decode[[]store.Article](t, rec), tt.want, tt.filter)
		}

		rec := e.do(t, http.MethodGet, "/api/v1/articles?filter=popular", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("get", func(t *testing.T) {
		rec := e.do(t, http.MethodGet, "/api/v1/articles/2", "")
		require.Equal(t, http.StatusOK, rec.Code)

		resp := decode[articleResponse](t, rec)
		assert.Equal(t, "2", resp.Article.ID)
		assert.Equal(t, store.CategoryTechnology, resp.Article.Category)
		assert.Equal(t, []string{"4", "7"}, articleIDs(resp.Related))
	})

	t.Run("related", func(t *testing.T) {
		rec := e.do(t, http.MethodGet, "/api/v1/articles/1/related", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, decode[[]store.Article](t, rec))
	})

	t.Run("not found", func(t *testing.T) {
		for _, path := range []string{"/api/v1/articles/999", "/api/v1/articles/999/related"} {
			rec := e.do(t, http.MethodGet, path, "")
			assert.Equal(t, http.StatusNotFound, rec.Code, path)
			assert.Equal(t, msgNotFound, decode[errorResponse](t, rec).Error)
		}
	})
}

func TestServer_SearchAndHome(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, http.MethodGet, "/api/v1/search?q=TECNOLOGIA", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"2", "4", "7"}, articleIDs(decode[[]store.Article](t, rec)))

	rec = e.do(t, http.MethodGet, "/api/v1/home?q=copa", "")
	require.Equal(t, http.StatusOK, rec.Code)
	home := decode[portal.Home](t, rec)
	assert.Equal(t, []string{"13"}, articleIDs(home.Results))
	assert.Empty(t, home.Ticker)
	assert.Len(t, home.Sidebar.Trending, 5)

	// no matches is an empty list, not a missing one
	rec = e.do(t, http.MethodGet, "/api/v1/home?q=zzz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"results":[]`)
	assert.Contains(t, rec.Body.String(), `"query":"zzz"`)

	rec = e.do(t, http.MethodGet, "/api/v1/home", "")
	require.Equal(t, http.StatusOK, rec.Code)
	home = decode[portal.Home](t, rec)
	assert.Len(t, home.Ticker, 5)
	assert.Len(t, home.Featured, 3)

	rec = e.do(t, http.MethodGet, "/api/v1/categories", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, store.AllCategories(), decode[[]store.Category](t, rec))
}

func TestServer_Assistant(t *testing.T) {
	t.Run("summary is memoized per session", func(t *testing.T) {
		e := newTestEnv(t)

		rec := e.do(t, http.MethodPost, "/api/v1/articles/1/summary", "")
		require.Equal(t, http.StatusOK, rec.Code)
		sid := rec.Header().Get(HeaderSessionID)
		require.NotEmpty(t, sid)

		resp := decode[summaryResponse](t, rec)
		assert.Equal(t, summaryResponse{ArticleID: "1", Summary: "resposta do modelo"}, resp)

		rec = e.do(t, http.MethodPost, "/api/v1/articles/1/summary", "", HeaderSessionID, sid)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, sid, rec.Header().Get(HeaderSessionID))
		assert.EqualValues(t, 1, e.provider.calls.Load())

		// another session asks the provider again
		rec = e.do(t, http.MethodPost, "/api/v1/articles/1/summary", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.NotEqual(t, sid, rec.Header().Get(HeaderSessionID))
		assert.EqualValues(t, 2, e.provider.calls.Load())
	})

	t.Run("provider failure", func(t *testing.T) {
		e := newTestEnv(t)
		e.provider.fail.Store(true)

		rec := e.do(t, http.MethodPost, "/api/v1/articles/1/summary", "")
		require.Equal(t, http.StatusOK, rec.Code)
		resp := decode[summaryResponse](t, rec)
		assert.Equal(t, assistant.SummaryFallback, resp.Summary)
		assert.True(t, resp.Fallback)

		rec = e.do(t, http.MethodPost, "/api/v1/articles/1/ask", `{"question":"por quê?"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, assistant.AnswerFallback, decode[askResponse](t, rec).Answer)
	})

	t.Run("ask and chat", func(t *testing.T) {
		e := newTestEnv(t)

		rec := e.do(t, http.MethodPost, "/api/v1/articles/3/ask", `{"question":"Quem?"}`, HeaderSessionID, "s1")
		require.Equal(t, http.StatusOK, rec.Code)
		resp := decode[askResponse](t, rec)
		assert.Equal(t, "resposta do modelo", resp.Answer)
		assert.Equal(t, []session.ChatTurn{
			{Role: session.RoleUser, Text: "Quem?"},
			{Role: session.RoleAssistant, Text: "resposta do modelo"},
		}, resp.Turns)

		rec = e.do(t, http.MethodGet, "/api/v1/articles/3/chat", "", HeaderSessionID, "s1")
		require.Equal(t, http.StatusOK, rec.Code)
		panel := decode[session.Session](t, rec)
		assert.Equal(t, resp.Turns, panel.Turns)
		assert.False(t, panel.InFlight)

		rec = e.do(t, http.MethodGet, "/api/v1/articles/4/chat", "", HeaderSessionID, "s1")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, decode[session.Session](t, rec).Turns)
	})

	t.Run("bad requests", func(t *testing.T) {
		e := newTestEnv(t)

		tests := []struct {
			name     string
			path     string
			body     string
			wantCode int
		}{
			{name: "empty question", path: "/api/v1/articles/1/ask", body: `{"question":"  "}`, wantCode: http.StatusBadRequest},
			{name: "no body", path: "/api/v1/articles/1/ask", wantCode: http.StatusBadRequest},
			{name: "broken json", path: "/api/v1/articles/1/ask", body: `{"question":`, wantCode: http.StatusBadRequest},
			{name: "ask unknown", path: "/api/v1/articles/999/ask", body: `{"question":"?"}`, wantCode: http.StatusNotFound},
			{name: "summary unknown", path: "/api/v1/articles/999/summary", wantCode: http.StatusNotFound},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				rec := e.do(t, http.MethodPost, tt.path, tt.body)
				assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			})
		}

		assert.Zero(t, e.provider.calls.Load())
	})

	t.Run("busy session", func(t *testing.T) {
		e := newTestEnvWith(t, &providerStub{
			block:   make(chan struct{}),
			started: make(chan struct{}, 1),
		})

		done := make(chan int, 1)
		go func() {
			done <- e.do(t, http.MethodPost, "/api/v1/articles/1/summary", "", HeaderSessionID, "s1").Code
		}()

		select {
		case <-e.provider.started:
		case <-time.After(5 * time.Second):
			t.Fatal("provider was not called")
		}

		rec := e.do(t, http.MethodPost, "/api/v1/articles/1/ask", `{"question":"?"}`, HeaderSessionID, "s1")
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, msgBusy, decode[errorResponse](t, rec).Error)

		close(e.provider.block)
		assert.Equal(t, http.StatusOK, <-done)
	})

	t.Run("another article while busy", func(t *testing.T) {
		e := newTestEnvWith(t, &providerStub{
			block:   make(chan struct{}),
			started: make(chan struct{}, 1),
		})

		done := make(chan *httptest.ResponseRecorder, 1)
		go func() {
			done <- e.do(t, http.MethodPost, "/api/v1/articles/1/ask", `{"question":"Quem?"}`, HeaderSessionID, "s1")
		}()

		select {
		case <-e.provider.started:
		case <-time.After(5 * time.Second):
			t.Fatal("provider was not called")
		}

		rec := e.do(t, http.MethodPost, "/api/v1/articles/2/summary", "", HeaderSessionID, "s1")
		assert.Equal(t, http.StatusConflict, rec.Code)

		close(e.provider.block)

		rec = <-done
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		resp := decode[askResponse](t, rec)
		assert.Equal(t, "resposta do modelo", resp.Answer)
		assert.Len(t, resp.Turns, 2)

		rec = e.do(t, http.MethodGet, "/api/v1/articles/1/chat", "", HeaderSessionID, "s1")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, decode[session.Session](t, rec).Turns, 2)
		assert.EqualValues(t, 1, e.provider.calls.Load())
	})
}

func TestServer_Pages(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, http.MethodGet, "/api/v1/pages/about", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, decode[portal.Page](t, rec).Title)

	rec = e.do(t, http.MethodGet, "/api/v1/pages/contact", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[portal.Page](t, rec).Subjects, 4)
}

func TestServer_Forms(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, http.MethodPost, "/api/v1/contact",
		`{"name":"João","email":"joao@exemplo.com","subject":"support","message":"Olá"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, portal.ContactAck, decode[ackResponse](t, rec).Message)

	rec = e.do(t, http.MethodPost, "/api/v1/contact", `{"name":"João","email":"joao"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[errorResponse](t, rec).Error, "message is required")

	rec = e.do(t, http.MethodPost, "/api/v1/newsletter", `{"email":"leitor@exemplo.com"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, decode[ackResponse](t, rec).Message, "leitor@exemplo.com")

	rec = e.do(t, http.MethodPost, "/api/v1/newsletter", `{"email":"leitor"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_Metrics(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, http.MethodPost, "/api/v1/articles/1/summary", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = e.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `newsportal_assistant_requests_total{intent="summary",outcome="ok"} 1`)
}

func TestServer_Recovery(t *testing.T) {
	e := newTestEnv(t)
	e.rtr.GET("/panic", func(*gin.Context) { panic("boom") })

	rec := e.do(t, http.MethodGet, "/panic", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, CrashMessage, decode[errorResponse](t, rec).Error)
}

func TestServer_Run(t *testing.T) {
	e := newTestEnv(t)
	e.srv.Addr = "127.0.0.1:0"
	e.srv.ShutdownTimeout = time.Second

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.srv.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
