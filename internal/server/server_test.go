package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/koustreak/askdb/internal/database/dbtest"
	"github.com/koustreak/askdb/internal/generation"
	"github.com/koustreak/askdb/internal/pipeline"
	"github.com/koustreak/askdb/internal/prompt"
	"github.com/koustreak/askdb/internal/server"
	"github.com/koustreak/askdb/internal/speech"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	src   *dbtest.Source
	conn  *dbtest.Connector
	stmt  string
	heard speech.Audio
	srv   *server.Server
}

func newFixture(t *testing.T, stmt string) *fixture {
	t.Helper()

	f := &fixture{stmt: stmt}
	f.src = &dbtest.Source{
		Databases: []string{"crm", "shop"},
		Tables:    []string{"signup"},
		Columns:   map[string][]string{"signup": {"id", "name"}},
		QueryFunc: func(string, []any) (*dbtest.Result, error) {
			return &dbtest.Result{Columns: []string{"id", "name"}, Rows: [][]any{{int64(1), "Alex"}}}, nil
		},
	}
	f.conn = &dbtest.Connector{Source: f.src}

	backend := generation.BackendFunc(func(context.Context, prompt.Prompt, string) (string, error) {
		return f.stmt, nil
	})
	transcriber := speech.TranscriberFunc(func(_ context.Context, a speech.Audio) (string, error) {
		f.heard = a
		if string(a.Data) == "static" {
			return "", speech.ErrUnintelligible
		}
		return "show me every signup", nil
	})

	tr := pipeline.New(pipeline.Deps{Connector: f.conn, Backend: backend, Transcriber: transcriber})
	f.srv = server.New(tr, server.Config{MaxAudioBytes: 64}, nil)
	return f
}

func (f *fixture) do(t *testing.T, method, target string, body []byte, contentType string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(rec, req)

	var payload map[string]any
	if rec.Body.Len() > 0 && strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	}
	return rec, payload
}

func askBody(db, q string) []byte {
	b, _ := json.Marshal(map[string]string{"database": db, "query": q})
	return b
}

func TestHealthz(t *testing.T) {
	f := newFixture(t, "SELECT 1")
	rec, body := f.do(t, http.MethodGet, "/healthz", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t, "SELECT 1")
	f.do(t, http.MethodGet, "/healthz", nil, "")

	rec, _ := f.do(t, http.MethodGet, "/metrics", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "askdb_http_requests_total")
}

func TestAsk_ReadOnly(t *testing.T) {
	f := newFixture(t, "SELECT id, name FROM signup")
	rec, body := f.do(t, http.MethodPost, "/v1/ask", askBody("shop", "Show all signups"), "application/json")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "shop", body["database"])
	assert.Equal(t, "read_only", body["class"])
	result := body["result"].(map[string]any)
	assert.Equal(t, "rowset", result["kind"])
	assert.Equal(t, []any{"id", "name"}, result["columns"])
	assert.Contains(t, result, "elapsed_seconds")
}

func TestAsk_Mutating(t *testing.T) {
	f := newFixture(t, "INSERT INTO signup (name) VALUES ('Alex')")
	rec, body := f.do(t, http.MethodPost, "/v1/ask", askBody("shop", "Add Alex"), "application/json")

	require.Equal(t, http.StatusOK, rec.Code)
	result := body["result"].(map[string]any)
	assert.Equal(t, "acknowledgement", result["kind"])
	assert.Equal(t, float64(1), result["rows_affected"])
	assert.Equal(t, 1, f.src.Commits)
}

func TestAsk_RejectedIs422(t *testing.T) {
	f := newFixture(t, "DROP TABLE signup")
	rec, body := f.do(t, http.MethodPost, "/v1/ask", askBody("shop", "Drop it"), "application/json")

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "rejected", body["kind"])
	outcome := body["outcome"].(map[string]any)
	assert.Equal(t, "DROP TABLE signup", outcome["statement"])
	assert.Zero(t, f.src.Executions())
}

func TestAsk_Failures(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(f *fixture)
		body   []byte
		status int
	}{
		{"malformed body", nil, []byte(`{"database":`), http.StatusBadRequest},
		{"unknown field", nil, []byte(`{"db":"shop","query":"x"}`), http.StatusBadRequest},
		{"empty question", nil, askBody("shop", "  "), http.StatusBadRequest},
		{"source down", func(f *fixture) { f.conn.OpenErr = errors.New("dial tcp: refused") }, askBody("shop", "count"), http.StatusServiceUnavailable},
		{"driver error", func(f *fixture) {
			f.src.QueryFunc = func(string, []any) (*dbtest.Result, error) { return nil, errors.New("Unknown column 'foo'") }
		}, askBody("shop", "count"), http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, "SELECT foo FROM signup")
			if tt.setup != nil {
				tt.setup(f)
			}
			rec, body := f.do(t, http.MethodPost, "/v1/ask", tt.body, "application/json")
			assert.Equal(t, tt.status, rec.Code)
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestAskVoice(t *testing.T) {
	f := newFixture(t, "SELECT id, name FROM signup")
	rec, body := f.do(t, http.MethodPost, "/v1/ask/voice?database=shop", []byte("RIFFdata"), "audio/ogg; codecs=opus")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "show me every signup", body["transcript"])
	assert.Equal(t, "audio/ogg", f.heard.MIMEType)
}

func TestAskVoice_Unintelligible(t *testing.T) {
	f := newFixture(t, "SELECT 1")
	rec, _ := f.do(t, http.MethodPost, "/v1/ask/voice?database=shop", []byte("static"), "application/octet-stream")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "audio/wav", f.heard.MIMEType)
}

func TestAskVoice_TooLarge(t *testing.T) {
	f := newFixture(t, "SELECT 1")
	rec, _ := f.do(t, http.MethodPost, "/v1/ask/voice?database=shop", bytes.Repeat([]byte("a"), 65), "audio/wav")
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestDatabasesSchemaPreview(t *testing.T) {
	f := newFixture(t, "SELECT 1")

	rec, body := f.do(t, http.MethodGet, "/v1/databases", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{"crm", "shop"}, body["databases"])

	rec, body = f.do(t, http.MethodGet, "/v1/databases/shop/schema", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	tables := body["tables"].([]any)
	require.Len(t, tables, 1)

	rec, body = f.do(t, http.MethodGet, "/v1/databases/shop/tables/signup/preview?limit=5", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{"id", "name"}, body["columns"])

	rec, _ = f.do(t, http.MethodGet, "/v1/databases/shop/tables/ghost/preview", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = f.do(t, http.MethodGet, "/v1/databases/shop/tables/signup/preview?limit=abc", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
