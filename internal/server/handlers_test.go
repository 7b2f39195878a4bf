package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/remixer1943/Ai/internal/builder"
	"github.com/remixer1943/Ai/internal/config"
	"github.com/remixer1943/Ai/internal/embedding"
	"github.com/remixer1943/Ai/internal/models"
	"github.com/remixer1943/Ai/internal/retriever"
	"github.com/remixer1943/Ai/internal/storage"
	"github.com/remixer1943/Ai/internal/store"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Embedding.Provider = "mock"
	cfg.Embedding.Dimensions = 256
	config.ApplyDefaults(cfg)
	return cfg
}

// newReadyServer builds a three-chunk store, loads it and returns a server over it.
func newReadyServer(t *testing.T, cfg *config.Config) (*Server, string) {
	t.Helper()
	ctx := context.Background()
	emb := embedding.NewMockEmbedder(256)
	vs, err := builder.New(emb).Build(ctx, []models.Chunk{
		{ID: "chunk-1", Text: "苹果是一种水果", Source: "fruit"},
		{ID: "chunk-2", Text: "猫是一种宠物", Source: "pets"},
		{ID: "chunk-3", Text: "汽车在路上行驶", Source: "cars"},
	})
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "store.bin")
	medium := storage.NewFileMedium(path, store.CompressionZstd)
	if err := medium.Save(ctx, vs); err != nil {
		t.Fatal(err)
	}
	r := retriever.New(emb)
	if err := r.Load(ctx, medium); err != nil {
		t.Fatal(err)
	}
	return NewServer(r, cfg, zap.NewNop(), WithDiskPaths(path)), path
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		r.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func TestHealth(t *testing.T) {
	srv, _ := newReadyServer(t, testConfig())
	w := do(t, srv.Handler(), http.MethodGet, "/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var out map[string]any
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out["status"] != "ok" || out["model_loaded"] != true {
		t.Errorf("unexpected body %v", out)
	}
}

func TestHealth_NotLoaded(t *testing.T) {
	srv := NewServer(retriever.New(embedding.NewMockEmbedder(8)), testConfig(), nil)
	w := do(t, srv.Handler(), http.MethodGet, "/health", "")
	if !strings.Contains(w.Body.String(), `"model_loaded":false`) {
		t.Errorf("body: %s", w.Body.String())
	}
}

func TestRetrieve(t *testing.T) {
	srv, _ := newReadyServer(t, testConfig())
	w := do(t, srv.Handler(), http.MethodPost, "/retrieve", `{"query":"苹果","top_k":2}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d body %s", w.Code, w.Body.String())
	}
	var out models.RetrieveResponse
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if len(out.Chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(out.Chunks))
	}
	if out.Chunks[0].ID != "chunk-1" || out.Chunks[0].Source != "fruit" {
		t.Errorf("unexpected first chunk %+v", out.Chunks[0])
	}
	if out.Chunks[0].Score < out.Chunks[1].Score {
		t.Error("chunks should be ordered by score")
	}
}

func TestRetrieve_DefaultAndMaxTopK(t *testing.T) {
	cfg := testConfig()
	cfg.Retrieval.DefaultTopK = 1
	cfg.Retrieval.MaxTopK = 2
	srv, _ := newReadyServer(t, cfg)
	h := srv.Handler()

	var out models.RetrieveResponse
	w := do(t, h, http.MethodPost, "/retrieve", `{"query":"苹果"}`)
	_ = json.NewDecoder(w.Body).Decode(&out)
	if len(out.Chunks) != 1 {
		t.Errorf("default top_k: got %d chunks", len(out.Chunks))
	}

	w = do(t, h, http.MethodPost, "/retrieve", `{"query":"苹果","top_k":50}`)
	_ = json.NewDecoder(w.Body).Decode(&out)
	if len(out.Chunks) != 2 {
		t.Errorf("max top_k: got %d chunks", len(out.Chunks))
	}
}

func TestRetrieve_BadRequests(t *testing.T) {
	srv, _ := newReadyServer(t, testConfig())
	h := srv.Handler()
	tests := map[string]string{
		"malformed":   `{"query":`,
		"empty body":  ``,
		"empty query": `{"query":""}`,
		"blank query": `{"query":"   "}`,
		"zero top_k":  `{"query":"苹果","top_k":0}`,
		"neg top_k":   `{"query":"苹果","top_k":-3}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			w := do(t, h, http.MethodPost, "/retrieve", body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status: got %d, want 400 (body %s)", w.Code, w.Body.String())
			}
			if !strings.Contains(w.Body.String(), `"error"`) {
				t.Errorf("expected error body, got %s", w.Body.String())
			}
		})
	}
}

func TestRetrieve_NotReady(t *testing.T) {
	srv := NewServer(retriever.New(embedding.NewMockEmbedder(8)), testConfig(), nil)
	w := do(t, srv.Handler(), http.MethodPost, "/retrieve", `{"query":"苹果"}`)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status: got %d, want 503", w.Code)
	}
}

func TestRetrieve_RateLimited(t *testing.T) {
	cfg := testConfig()
	cfg.Server.RateLimit = 0.001
	cfg.Server.RateBurst = 1
	srv, _ := newReadyServer(t, cfg)
	h := srv.Handler()

	if w := do(t, h, http.MethodPost, "/retrieve", `{"query":"苹果"}`); w.Code != http.StatusOK {
		t.Fatalf("first request: got %d", w.Code)
	}
	if w := do(t, h, http.MethodPost, "/retrieve", `{"query":"苹果"}`); w.Code != http.StatusTooManyRequests {
		t.Errorf("second request: got %d, want 429", w.Code)
	}
	// Health is not limited.
	if w := do(t, h, http.MethodGet, "/health", ""); w.Code != http.StatusOK {
		t.Errorf("health: got %d", w.Code)
	}
}

func TestCORS_Preflight(t *testing.T) {
	srv, _ := newReadyServer(t, testConfig())
	r := httptest.NewRequest(http.MethodOptions, "/retrieve", nil)
	r.Header.Set("Origin", "http://localhost:3000")
	r.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, r)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}

func TestStatus(t *testing.T) {
	srv, path := newReadyServer(t, testConfig())
	w := do(t, srv.Handler(), http.MethodGet, "/api/v1/status", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var out map[string]any
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out["ready"] != true || out["chunks"] != float64(3) || out["dimensions"] != float64(256) {
		t.Errorf("unexpected status %v", out)
	}
	info, _ := os.Stat(path)
	if out["disk_usage_bytes"] != float64(info.Size()) {
		t.Errorf("disk_usage_bytes = %v, want %d", out["disk_usage_bytes"], info.Size())
	}
	if out["location"] != path {
		t.Errorf("location = %v", out["location"])
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{models.NewError(models.KindInvalidQuery, "q"), http.StatusBadRequest},
		{models.NewError(models.KindBuildInput, "b"), http.StatusBadRequest},
		{models.NewError(models.KindNotReady, "n"), http.StatusServiceUnavailable},
		{models.NewError(models.KindLoadFailure, "l"), http.StatusServiceUnavailable},
		{models.WrapError(models.KindProviderFailure, errors.New("x"), "p"), http.StatusBadGateway},
		{errors.New("other"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestRedactHandle(t *testing.T) {
	if got := redactHandle("s3://key:secret@bucket/store.bin"); got != "s3://bucket/store.bin" {
		t.Errorf("got %s", got)
	}
	if got := redactHandle("/data/store.bin"); got != "/data/store.bin" {
		t.Errorf("got %s", got)
	}
}
