package sheets

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/devclub/formsheets/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

type recorded struct {
	method string
	path   string
	query  map[string][]string
	values [][]any
}

type fakeSheets struct {
	mu       sync.Mutex
	requests []recorded
	status   int
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rec := recorded{method: r.Method, path: r.URL.Path, query: r.URL.Query()}
	if r.Body != nil && r.Method != http.MethodGet {
		var body struct {
			Values [][]any `json:"values"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		rec.values = body.Values
	}
	f.mu.Lock()
	f.requests = append(f.requests, rec)
	status := f.status
	f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"denied"}}`))
		return
	}
	switch {
	case strings.HasSuffix(r.URL.Path, ":append"):
		_, _ = w.Write([]byte(`{"spreadsheetId":"sheet-1","updates":{"updatedRange":"P!A2:K2","updatedCells":11}}`))
	case r.Method == http.MethodPut:
		_, _ = w.Write([]byte(`{"spreadsheetId":"sheet-1","updatedCells":11}`))
	default:
		_, _ = w.Write([]byte(`{"spreadsheetId":"sheet-1","properties":{"title":"Cadastros"}}`))
	}
}

func (f *fakeSheets) last() recorded {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func newTestRepository(t *testing.T, fake *fakeSheets, id string) *Repository {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	cfg := config.Default().Sheets
	cfg.SpreadsheetID = id
	repo, err := NewRepository(
		t.Context(),
		&cfg,
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	return repo
}

func TestRepository_AppendRow(t *testing.T) {
	t.Run("Should append with USER_ENTERED at the data range", func(t *testing.T) {
		fake := &fakeSheets{}
		repo := newTestRepository(t, fake, "sheet-1")
		cells := []string{"Maria", "m@x.com", "", "", "", "", "", "", "", "Novo", ""}
		require.NoError(t, repo.AppendRow(t.Context(), cells))
		req := fake.last()
		assert.Equal(t, http.MethodPost, req.method)
		assert.True(t, strings.HasSuffix(req.path, "/values/Página1!A2:append"), req.path)
		assert.Contains(t, req.path, "/spreadsheets/sheet-1/")
		assert.Equal(t, []string{"USER_ENTERED"}, req.query["valueInputOption"])
		require.Len(t, req.values, 1)
		require.Len(t, req.values[0], 11)
		assert.Equal(t, "Maria", req.values[0][0])
		assert.Equal(t, "Novo", req.values[0][9])
	})

	t.Run("Should propagate API failures", func(t *testing.T) {
		repo := newTestRepository(t, &fakeSheets{status: http.StatusForbidden}, "sheet-1")
		err := repo.AppendRow(t.Context(), []string{"x"})
		assert.Error(t, err)
	})

	t.Run("Should refuse to write without a spreadsheet id", func(t *testing.T) {
		fake := &fakeSheets{}
		repo := newTestRepository(t, fake, "")
		assert.ErrorIs(t, repo.AppendRow(t.Context(), []string{"x"}), ErrNoSpreadsheet)
		assert.Empty(t, fake.requests)
	})
}

func TestRepository_SetupHeaders(t *testing.T) {
	t.Run("Should write the header row at A1", func(t *testing.T) {
		fake := &fakeSheets{}
		repo := newTestRepository(t, fake, "sheet-1")
		require.NoError(t, repo.SetupHeaders(t.Context()))
		req := fake.last()
		assert.Equal(t, http.MethodPut, req.method)
		assert.True(t, strings.HasSuffix(req.path, "/values/Página1!A1"), req.path)
		require.Len(t, req.values, 1)
		assert.Len(t, req.values[0], len(Headers))
		assert.Equal(t, "BÔNUS ESCOLHIDO", req.values[0][10])
	})
}

func TestRepository_IsAvailable(t *testing.T) {
	t.Run("Should request only the title", func(t *testing.T) {
		fake := &fakeSheets{}
		repo := newTestRepository(t, fake, "sheet-1")
		assert.True(t, repo.IsAvailable(t.Context()))
		req := fake.last()
		assert.Equal(t, http.MethodGet, req.method)
		assert.Equal(t, []string{"properties/title"}, req.query["fields"])
	})

	t.Run("Should report failures as unavailable", func(t *testing.T) {
		repo := newTestRepository(t, &fakeSheets{status: http.StatusForbidden}, "sheet-1")
		assert.False(t, repo.IsAvailable(t.Context()))
	})

	t.Run("Should be unavailable without a spreadsheet id", func(t *testing.T) {
		repo := newTestRepository(t, &fakeSheets{}, "")
		assert.False(t, repo.IsAvailable(t.Context()))
	})
}

func TestNewRepository(t *testing.T) {
	t.Run("Should start without credentials when no spreadsheet is configured", func(t *testing.T) {
		cfg := config.Default().Sheets
		cfg.SpreadsheetID = ""
		repo, err := NewRepository(t.Context(), &cfg)
		require.NoError(t, err)
		assert.ErrorIs(t, repo.AppendRow(t.Context(), []string{"a"}), ErrNoSpreadsheet)
	})
}
