package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/remixer1943/Ai/internal/models"
	"github.com/remixer1943/Ai/internal/storage"
)

const maxRequestBody = 1 << 20

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]any{
		"status":       "ok",
		"model_loaded": s.retriever.Ready(),
	})
}

func (s *Server) handleRetrieve(w http.ResponseWriter, r *http.Request) {
	var req models.RetrieveRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err := dec.Decode(&req); err != nil {
		msg := "invalid request body"
		if errors.Is(err, io.EOF) {
			msg = "request body is required"
		}
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	topK := s.config.Retrieval.DefaultTopK
	if req.TopK != nil {
		topK = *req.TopK
	}
	if topK > s.config.Retrieval.MaxTopK {
		topK = s.config.Retrieval.MaxTopK
	}

	results, err := s.retriever.Retrieve(r.Context(), req.Query, topK)
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			s.logger.Error("retrieve failed", zap.Error(err))
		} else {
			s.logger.Debug("retrieve rejected", zap.Error(err))
		}
		s.respondError(w, status, err.Error())
		return
	}
	if results == nil {
		results = []models.RetrievalResult{}
	}
	s.respondJSON(w, http.StatusOK, models.RetrieveResponse{Chunks: results})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	stats := s.retriever.Stats()
	resp := map[string]any{
		"ready":      stats.Ready,
		"chunks":     stats.Chunks,
		"dimensions": stats.Dimensions,
		"build_id":   stats.BuildID,
		"model":      stats.Model,
		"location":   stats.Location,
	}
	if !stats.CreatedAt.IsZero() {
		resp["created_at"] = stats.CreatedAt
	}
	if len(s.diskPaths) > 0 {
		if n, err := storage.DiskUsageBytes(s.diskPaths...); err == nil {
			resp["disk_usage_bytes"] = n
		} else {
			s.logger.Warn("status: disk usage failed", zap.Error(err))
		}
	}
	resp["config"] = map[string]any{
		"embedding_provider": s.config.Embedding.Provider,
		"embedding_model":    s.config.Embedding.Model,
		"query_instruction":  s.config.Embedding.QueryInstruction,
		"default_top_k":      s.config.Retrieval.DefaultTopK,
		"max_top_k":          s.config.Retrieval.MaxTopK,
		"vector_store":       redactHandle(s.config.Storage.VectorStore),
	}
	s.respondJSON(w, http.StatusOK, resp)
}

// statusFor maps core error kinds to HTTP status codes.
func statusFor(err error) int {
	switch models.KindOf(err) {
	case models.KindInvalidQuery, models.KindBuildInput:
		return http.StatusBadRequest
	case models.KindNotReady, models.KindLoadFailure:
		return http.StatusServiceUnavailable
	case models.KindProviderFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// redactHandle strips userinfo from URL-style handles.
func redactHandle(h string) string {
	scheme, rest, ok := strings.Cut(h, "://")
	if !ok {
		return h
	}
	if at := strings.LastIndex(rest, "@"); at >= 0 {
		rest = rest[at+1:]
	}
	return scheme + "://" + rest
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
