package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragserver/internal/domain"
	"ragserver/internal/service"
)

type stubRetriever struct {
	results []domain.RankedResult
	err     error
}

func (s stubRetriever) Retrieve(context.Context, string, int) ([]domain.RankedResult, error) {
	return s.results, s.err
}

func newServer(ret service.Retriever) *Server {
	return New(service.New(ret, nil, nil, nil), nil, nil)
}

func do(t *testing.T, e http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func ranked(text, path string, score float64) domain.RankedResult {
	return domain.RankedResult{
		EmbeddedChunk: domain.EmbeddedChunk{
			Chunk: domain.Chunk{Text: text, Source: domain.SourceRef{Path: path, Title: "T", Section: "s"}},
		},
		Score: score,
	}
}

func TestChatHappyPath(t *testing.T) {
	srv := newServer(stubRetriever{results: []domain.RankedResult{ranked("chunk body text.", "docs/a.md", 0.87)}})
	rec := do(t, srv.Router(), http.MethodPost, "/api/chat", `{"message":"what is x?"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Reply)
	require.Len(t, resp.Sources, 1)
	assert.Equal(t, "docs/a.md", resp.Sources[0].File)
	assert.Equal(t, 87, resp.Sources[0].Confidence)
}

func TestChatRejectsMissingMessage(t *testing.T) {
	srv := newServer(stubRetriever{})
	assert.Equal(t, http.StatusBadRequest, do(t, srv.Router(), http.MethodPost, "/api/chat", `{}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, srv.Router(), http.MethodPost, "/api/chat", `{"message":123}`).Code)
}

func TestChatStoreNotInitialized(t *testing.T) {
	srv := newServer(stubRetriever{err: domain.ErrStoreNotFound})
	rec := do(t, srv.Router(), http.MethodPost, "/api/chat", `{"message":"q"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "not initialized")
}

func TestChatEmbeddingFailure(t *testing.T) {
	srv := newServer(stubRetriever{err: domain.ErrEmbeddingFailed})
	rec := do(t, srv.Router(), http.MethodPost, "/api/chat", `{"message":"q"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestChatDimensionMismatch(t *testing.T) {
	srv := newServer(stubRetriever{err: domain.ErrDimensionMismatch})
	rec := do(t, srv.Router(), http.MethodPost, "/api/chat", `{"message":"q"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestChatNoResults(t *testing.T) {
	srv := newServer(stubRetriever{})
	rec := do(t, srv.Router(), http.MethodPost, "/api/chat", `{"message":"q"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, service.NoAnswerReply, resp.Reply)
	assert.Empty(t, resp.Sources)
}

func TestSearchReturnsExcerpts(t *testing.T) {
	long := strings.Repeat("z", 400)
	srv := newServer(stubRetriever{results: []domain.RankedResult{ranked(long, "docs/long.md", 0.6)}})
	rec := do(t, srv.Router(), http.MethodPost, "/api/search", `{"query":"z","top_k":1}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp SearchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 1)
	assert.Len(t, resp.Results[0].Text, 303) // 300 chars + truncation marker
	assert.Equal(t, "docs/long.md", resp.Results[0].Source)
	assert.InDelta(t, 0.6, resp.Results[0].Score, 1e-9)
}

func TestSearchRejectsEmptyQuery(t *testing.T) {
	srv := newServer(stubRetriever{})
	assert.Equal(t, http.StatusBadRequest, do(t, srv.Router(), http.MethodPost, "/api/search", `{"query":""}`).Code)
}

func TestHealth(t *testing.T) {
	srv := newServer(stubRetriever{})
	rec := do(t, srv.Router(), http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

type fixedStats struct{ n int }

func (f fixedStats) Count() int { return f.n }

func TestStats(t *testing.T) {
	srv := New(service.New(stubRetriever{}, nil, nil, nil), fixedStats{n: 7}, nil)
	rec := do(t, srv.Router(), http.MethodGet, "/api/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"interactions":7`)
}
