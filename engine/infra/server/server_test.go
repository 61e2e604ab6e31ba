package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/devclub/formsheets/engine/webhook"
	"github.com/devclub/formsheets/pkg/config"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

const submission = `{"event_id":"evt-42","event_type":"form_response","form_response":{"form_id":"f1",
"submitted_at":"2024-05-01T10:00:00Z","answers":[
{"field":{"ref":"nome_completo"},"type":"text","text":"joão da silva"},
{"field":{"ref":"email"},"type":"email","email":"joao@example.com"}]}}`

type fakeSheets struct {
	mu   sync.Mutex
	rows [][]any
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if strings.HasSuffix(r.URL.Path, ":append") {
		var body struct {
			Values [][]any `json:"values"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		f.rows = append(f.rows, body.Values...)
		f.mu.Unlock()
		_, _ = w.Write([]byte(`{"spreadsheetId":"sheet-1"}`))
		return
	}
	_, _ = w.Write([]byte(`{"spreadsheetId":"sheet-1","properties":{"title":"Cadastros"}}`))
}

func (f *fakeSheets) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

func newTestServer(t *testing.T, mutate func(*config.Config)) (*Server, *fakeSheets) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	fake := &fakeSheets{}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	cfg := config.Default()
	cfg.Sheets.SpreadsheetID = "sheet-1"
	if mutate != nil {
		mutate(cfg)
	}
	ctx := context.Background()
	deps, err := BuildDependencies(ctx, cfg,
		WithSheetsClientOptions(option.WithEndpoint(srv.URL+"/"), option.WithHTTPClient(srv.Client())))
	require.NoError(t, err)
	s, err := NewServer(ctx, deps)
	require.NoError(t, err)
	t.Cleanup(func() { deps.Close() })
	return s, fake
}

func TestBuildDependencies(t *testing.T) {
	t.Run("Should return an error for a broken welcome template", func(t *testing.T) {
		cfg := config.Default()
		cfg.WhatsApp.WelcomeTemplate = "{{ .Name"
		var (
			deps *Dependencies
			err  error
		)
		require.NotPanics(t, func() {
			deps, err = BuildDependencies(context.Background(), cfg)
		})
		assert.ErrorContains(t, err, "failed to create whatsapp client")
		assert.Nil(t, deps)
	})

	t.Run("Should release the dedupe store when a later step fails", func(t *testing.T) {
		cfg := config.Default()
		cfg.Webhook.Dedupe.Enabled = true
		cfg.Webhook.Verify.Strategy = webhook.StrategyHMAC
		cfg.Webhook.Verify.Secret = ""
		var err error
		require.NotPanics(t, func() {
			_, err = BuildDependencies(context.Background(), cfg)
		})
		assert.ErrorContains(t, err, "failed to create webhook orchestrator")
	})

	t.Run("Should tolerate closing nil dependencies", func(t *testing.T) {
		var deps *Dependencies
		assert.NotPanics(t, deps.Close)
	})
}

func do(s *Server, method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, http.NoBody)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestServer_Routes(t *testing.T) {
	t.Run("Should store a submission through the webhook route", func(t *testing.T) {
		s, fake := newTestServer(t, nil)
		w := do(s, http.MethodPost, "/webhook", submission, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var body map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "success", body["status"])
		assert.Equal(t, "joao@example.com", body["data"].(map[string]any)["email"])
		assert.Equal(t, 1, fake.count())
		assert.NotEmpty(t, w.Header().Get(HeaderRequestID))
	})

	t.Run("Should keep the caller's request id", func(t *testing.T) {
		s, _ := newTestServer(t, nil)
		w := do(s, http.MethodGet, "/health", "", map[string]string{HeaderRequestID: "req-1"})
		assert.Equal(t, "req-1", w.Header().Get(HeaderRequestID))
	})

	t.Run("Should report degraded health without optional services", func(t *testing.T) {
		s, _ := newTestServer(t, nil)
		w := do(s, http.MethodGet, "/health", "", nil)
		assert.Equal(t, http.StatusPartialContent, w.Code)
	})

	t.Run("Should answer unknown routes with 404", func(t *testing.T) {
		s, _ := newTestServer(t, nil)
		w := do(s, http.MethodGet, "/nope", "", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "route not found")
	})

	t.Run("Should expose metrics", func(t *testing.T) {
		s, _ := newTestServer(t, nil)
		do(s, http.MethodPost, "/webhook", submission, nil)
		w := do(s, http.MethodGet, "/metrics", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "formsheets_webhook_received_total")
	})

	t.Run("Should drop duplicate deliveries when dedupe is on", func(t *testing.T) {
		s, fake := newTestServer(t, func(cfg *config.Config) { cfg.Webhook.Dedupe.Enabled = true })
		assert.Equal(t, http.StatusOK, do(s, http.MethodPost, "/webhook", submission, nil).Code)
		w := do(s, http.MethodPost, "/webhook", submission, nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "duplicate")
		assert.Equal(t, 1, fake.count())
	})

	t.Run("Should enforce Typeform signatures when configured", func(t *testing.T) {
		s, fake := newTestServer(t, func(cfg *config.Config) {
			cfg.Webhook.Verify = config.VerifyConfig{Strategy: webhook.StrategyTypeform, Secret: "shh"}
		})
		assert.Equal(t, http.StatusUnauthorized, do(s, http.MethodPost, "/webhook", submission, nil).Code)
		sig := webhook.SignTypeform("shh", []byte(submission))
		w := do(s, http.MethodPost, "/webhook", submission, map[string]string{webhook.HeaderTypeformSignature: sig})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 1, fake.count())
	})

	t.Run("Should rate limit the webhook but not health", func(t *testing.T) {
		s, _ := newTestServer(t, func(cfg *config.Config) {
			cfg.RateLimit.Enabled = true
			cfg.RateLimit.Rate = "1-M"
		})
		assert.Equal(t, http.StatusOK, do(s, http.MethodPost, "/webhook", submission, nil).Code)
		assert.Equal(t, http.StatusTooManyRequests, do(s, http.MethodPost, "/webhook", submission, nil).Code)
		assert.NotEqual(t, http.StatusTooManyRequests, do(s, http.MethodGet, "/health", "", nil).Code)
		assert.NotEqual(t, http.StatusTooManyRequests, do(s, http.MethodGet, "/health", "", nil).Code)
	})

	t.Run("Should reject bodies over the configured limit", func(t *testing.T) {
		s, fake := newTestServer(t, func(cfg *config.Config) { cfg.Webhook.MaxBody = 32 })
		w := do(s, http.MethodPost, "/webhook", submission, nil)
		assert.GreaterOrEqual(t, w.Code, 400)
		assert.Equal(t, 0, fake.count())
	})
}

func TestServer_Shutdown(t *testing.T) {
	t.Run("Should shut down an idle server", func(t *testing.T) {
		s, _ := newTestServer(t, nil)
		assert.NoError(t, s.Shutdown(context.Background()))
	})
}

func TestFriendlyHost(t *testing.T) {
	assert.Equal(t, hostLoopback, friendlyHost(hostAny))
	assert.Equal(t, hostLoopback, friendlyHost(""))
	assert.Equal(t, "example.com", friendlyHost("example.com"))
}
