package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/inkstack/papyr/internal/models"
)

const maxUploadBytes = 64 << 20

// handleUploadDocuments accepts one or more PDFs as multipart form files under
// the "files" field and ingests each one. A document that fails to extract or
// index does not abort the batch; its outcome is reported alongside the others.
func (s *Server) handleUploadDocuments(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid multipart request")
		return
	}
	uploads := r.MultipartForm.File["files"]
	if len(uploads) == 0 {
		s.respondError(w, http.StatusBadRequest, "no files provided")
		return
	}

	result := models.IngestResult{BatchID: uuid.NewString()}
	for _, hdr := range uploads {
		f, err := hdr.Open()
		if err != nil {
			result.Files = append(result.Files, models.FileReport{
				Filename: hdr.Filename,
				Status:   "failed",
				Error:    err.Error(),
			})
			continue
		}
		report, err := s.ingestor.IngestUpload(r.Context(), hdr.Filename, f)
		f.Close()
		if err != nil {
			s.logger.Error("ingest failed", zap.String("filename", hdr.Filename), zap.Error(err))
			result.Files = append(result.Files, models.FileReport{
				Filename: hdr.Filename,
				Status:   "failed",
				Error:    err.Error(),
			})
			continue
		}
		result.Files = append(result.Files, *report)
	}
	s.logger.Info("upload batch processed",
		zap.String("batch_id", result.BatchID),
		zap.Int("files", len(result.Files)),
	)
	s.respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	names, err := s.files.List()
	if err != nil {
		s.logger.Error("list documents failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"documents": names,
		"count":     len(names),
	})
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if !s.files.Exists(name) {
		s.respondError(w, http.StatusNotFound, "document not found")
		return
	}
	path, err := s.files.Path(name)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	http.ServeFile(w, r, path)
}

// handleQuery answers a question. Generation backend failures map to 502 so
// callers can tell an unreachable LLM apart from a bad request.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req models.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Debug("query request",
		zap.String("question", req.Question),
		zap.String("document", req.DocumentID),
		zap.Int("page", req.PageNumber),
	)
	resp, err := s.answerer.Answer(r.Context(), &req)
	if err != nil {
		s.logger.Error("query failed", zap.Error(err))
		s.respondError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleKeywordSearch(w http.ResponseWriter, r *http.Request) {
	if s.keywords == nil {
		s.respondError(w, http.StatusNotImplemented, "keyword search not enabled")
		return
	}
	q := r.URL.Query().Get("q")
	if q == "" {
		s.respondError(w, http.StatusBadRequest, "q is required")
		return
	}
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			s.respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	hits, err := s.keywords.Search(r.Context(), q, limit)
	if err != nil {
		s.logger.Error("keyword search failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"query": q,
		"hits":  hits,
		"count": len(hits),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	names, err := s.files.List()
	if err != nil {
		s.logger.Error("status: list documents failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	chunks, err := s.store.Count(r.Context())
	if err != nil {
		s.logger.Error("status: count chunks failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := map[string]interface{}{
		"documents": len(names),
		"chunks":    chunks,
		"config": map[string]interface{}{
			"chunk_size":           s.config.Chunking.ChunkSize,
			"chunk_overlap":        s.config.Chunking.Overlap,
			"top_k":                s.config.Retrieval.TopK,
			"embedding_provider":   s.config.Embedding.Provider,
			"embedding_dimensions": s.config.Embedding.Dimensions,
			"llm_model":            s.config.LLM.Model,
		},
	}
	if s.keywords != nil {
		if n, err := s.keywords.Count(); err == nil {
			resp["keyword_chunks"] = n
		}
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
