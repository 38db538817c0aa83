package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"planbase/internal/chunker"
	"planbase/internal/kb"
	"planbase/internal/models"
	"planbase/internal/providers"
	"planbase/internal/usage"
)

type stubCodec struct{}

func (stubCodec) Encode(text string) []int { return make([]int, len(strings.Fields(text))) }
func (stubCodec) Decode([]int) string      { return "" }
func (stubCodec) Count(text string) int    { return len(strings.Fields(text)) }

type stubStore struct {
	results []models.SearchResult
}

func (s *stubStore) Upsert(_ context.Context, chunks []models.Chunk) (int, error) {
	return len(chunks), nil
}

func (s *stubStore) Search(context.Context, string, string, int) ([]models.SearchResult, error) {
	return s.results, nil
}

func (s *stubStore) Info(context.Context) (models.CollectionInfo, error) {
	return models.CollectionInfo{CollectionName: "insurance_plans", DocumentCount: int64(len(s.results)), HasDocuments: len(s.results) > 0}, nil
}

type stubPipeline struct{}

func (stubPipeline) Process(_, planID string) models.PlanRecord {
	return models.PlanRecord{PlanID: planID, Err: "not under test"}
}

func newTestHandler(t *testing.T, store *stubStore, docsDir string) http.Handler {
	t.Helper()
	monitor := usage.NewMonitor(filepath.Join(t.TempDir(), "usage.json"))
	ch := chunker.New(stubCodec{}, 600, 50)
	knowledgeBase := kb.New(stubPipeline{}, ch, store, providers.NewMockProvider(64), stubCodec{}, monitor, docsDir, 5)
	return NewServer(knowledgeBase).Routes()
}

func TestHealthz(t *testing.T) {
	h := newTestHandler(t, &stubStore{}, t.TempDir())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "healthy" {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestChatEmptyQueryRejected(t *testing.T) {
	h := newTestHandler(t, &stubStore{}, t.TempDir())
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(`{"query":"  "}`))
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", rec.Code)
	}
}

func TestChatInvalidJSONRejected(t *testing.T) {
	h := newTestHandler(t, &stubStore{}, t.TempDir())
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(`{"query":`))
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", rec.Code)
	}
}

func TestChatNoMatches(t *testing.T) {
	h := newTestHandler(t, &stubStore{}, t.TempDir())
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(`{"query":"what is the deductible"}`))
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", rec.Code)
	}
	var result models.QueryResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatal(err)
	}
	if !result.NoMatches {
		t.Fatal("expected no_matches result")
	}
	if result.Answer == "" {
		t.Fatal("expected fixed answer text")
	}
}

func TestChatWithSources(t *testing.T) {
	store := &stubStore{results: []models.SearchResult{{
		Text:     "Plan A deductible is $500.",
		Metadata: models.ChunkMetadata{ChunkID: "a1", PlanID: "plan-a"},
		Distance: 0.2,
	}}}
	h := newTestHandler(t, store, t.TempDir())
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(`{"query":"what is the deductible","plan_id":"plan-a"}`))
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", rec.Code)
	}
	var result models.QueryResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatal(err)
	}
	if result.NoMatches {
		t.Fatal("expected matches")
	}
	if len(result.SourceDocuments) != 1 || result.SourceDocuments[0].PlanID != "plan-a" {
		t.Fatalf("unexpected sources %+v", result.SourceDocuments)
	}
}

func TestChatMethodNotAllowed(t *testing.T) {
	h := newTestHandler(t, &stubStore{}, t.TempDir())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/chat", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status %d, want 405", rec.Code)
	}
}

func TestPlansEndpoint(t *testing.T) {
	docsDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(docsDir, "gold-hmo.pdf"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	h := newTestHandler(t, &stubStore{}, docsDir)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/plans", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var body struct {
		Plans []models.PlanInfo `json:"plans"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if len(body.Plans) != 1 || body.Plans[0].PlanID != "gold-hmo" {
		t.Fatalf("unexpected plans %+v", body.Plans)
	}
}

func TestCollectionEndpoint(t *testing.T) {
	h := newTestHandler(t, &stubStore{}, t.TempDir())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/collection", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var info models.CollectionInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &info); err != nil {
		t.Fatal(err)
	}
	if info.HasDocuments {
		t.Fatal("expected empty collection")
	}
}

func TestUsageEndpoint(t *testing.T) {
	h := newTestHandler(t, &stubStore{}, t.TempDir())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/usage", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var report usage.Report
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatal(err)
	}
	if report.DocumentsProcessed != 0 {
		t.Fatalf("expected zero documents, got %d", report.DocumentsProcessed)
	}
}

func TestCORSPreflight(t *testing.T) {
	h := newTestHandler(t, &stubStore{}, t.TempDir())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/v1/chat", nil))

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status %d, want 204", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatal("missing CORS header")
	}
}
