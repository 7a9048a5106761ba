package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kotaehq/kotae/internal/extract"
	"github.com/kotaehq/kotae/internal/models"
	"github.com/kotaehq/kotae/internal/rag"
	"github.com/kotaehq/kotae/pkg/utils"
)

// maxUploadBytes bounds one upload request.
const maxUploadBytes = 64 << 20

type queryRequest struct {
	Query string `json:"query"`
}

type queryResponse struct {
	Query          string   `json:"query"`
	Answer         string   `json:"answer"`
	Sources        []string `json:"sources"`
	RetrievedCount int      `json:"retrieved_count"`
	ProcessingTime float64  `json:"processing_time"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		s.respondError(w, http.StatusBadRequest, "query must not be empty")
		return
	}
	s.logger.Debug("query request", zap.String("query", utils.Truncate(req.Query, 200)))

	start := time.Now()
	result, err := s.handle.ProcessQuery(r.Context(), req.Query)
	if errors.Is(err, rag.ErrNoPipeline) {
		s.respondError(w, http.StatusNotFound, "No documents have been uploaded yet. Please upload documents first.")
		return
	}
	if err != nil {
		s.logger.Error("query failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, queryResponse{
		Query:          result.Query,
		Answer:         result.Answer,
		Sources:        result.Sources,
		RetrievedCount: result.RetrievedCount,
		ProcessingTime: float64(time.Since(start).Round(10*time.Millisecond)) / float64(time.Second),
	})
}

type mathRequest struct {
	Expression string `json:"expression"`
}

func (s *Server) handleMath(w http.ResponseWriter, r *http.Request) {
	var req mathRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Expression) == "" {
		s.respondError(w, http.StatusBadRequest, "expression must not be empty")
		return
	}
	// Evaluate always returns a string; bad input yields a diagnostic, not
	// an HTTP error.
	result := s.evaluator.Evaluate(req.Expression)
	s.respondJSON(w, http.StatusOK, map[string]string{
		"expression": req.Expression,
		"result":     result,
	})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid multipart request")
		return
	}
	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		s.respondError(w, http.StatusBadRequest, "no files provided")
		return
	}

	var uploaded []string
	for _, fh := range files {
		name := filepath.Base(fh.Filename)
		ext := filepath.Ext(name)
		if !extract.Supported(ext) {
			s.respondError(w, http.StatusBadRequest,
				fmt.Sprintf("File %s has an invalid extension. Allowed: %s", name, strings.Join(extract.SupportedExtensions, ", ")))
			return
		}

		// Re-uploading a filename replaces it: drop the previous stored copy
		// so the rebuild does not index both versions.
		if prev, err := s.registry.Get(r.Context(), name); err == nil {
			if err := s.processor.RemoveStored(prev.StoredName); err != nil && !os.IsNotExist(err) {
				s.logger.Warn("remove replaced file failed", zap.String("file", prev.StoredName), zap.Error(err))
			}
		}

		storedName := fmt.Sprintf("%s_%s", uuid.NewString(), name)
		if err := s.saveUpload(fh, storedName); err != nil {
			s.logger.Error("upload save failed", zap.String("file", name), zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}

		doc := &models.Document{
			ID:          uuid.NewString(),
			Name:        name,
			StoredName:  storedName,
			ContentType: fh.Header.Get("Content-Type"),
			SizeBytes:   fh.Size,
		}
		if err := s.registry.Create(r.Context(), doc); err != nil {
			s.logger.Error("registry create failed", zap.String("file", name), zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		uploaded = append(uploaded, storedName)
	}

	if _, err := s.builder.Rebuild(r.Context()); err != nil {
		s.logger.Error("rebuild after upload failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"message": fmt.Sprintf("Successfully uploaded %d files", len(uploaded)),
		"files":   uploaded,
	})
}

func (s *Server) saveUpload(fh *multipart.FileHeader, storedName string) error {
	src, err := fh.Open()
	if err != nil {
		return fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(filepath.Join(s.processor.Dir(), storedName))
	if err != nil {
		return fmt.Errorf("create stored file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("write stored file: %w", err)
	}
	return nil
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.registry.List(r.Context())
	if err != nil {
		s.logger.Error("list documents failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	names := make([]string, len(docs))
	for i, d := range docs {
		names[i] = d.Name
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"documents": names,
		"count":     len(names),
	})
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	doc, err := s.registry.Get(r.Context(), filename)
	if err != nil {
		s.respondError(w, http.StatusNotFound, fmt.Sprintf("Document %s not found", filename))
		return
	}
	if err := s.processor.RemoveStored(doc.StoredName); err != nil && !os.IsNotExist(err) {
		s.logger.Error("remove stored file failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := s.registry.Delete(r.Context(), filename); err != nil {
		s.logger.Error("registry delete failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if _, err := s.builder.Rebuild(r.Context()); err != nil {
		s.logger.Error("rebuild after delete failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Document %s deleted successfully", filename),
	})
}

func (s *Server) handleDeleteAllDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.registry.List(r.Context())
	if err != nil {
		s.logger.Error("list documents failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	for _, doc := range docs {
		if err := s.processor.RemoveStored(doc.StoredName); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("remove stored file failed", zap.String("file", doc.StoredName), zap.Error(err))
		}
	}
	if err := s.registry.DeleteAll(r.Context()); err != nil {
		s.logger.Error("registry delete all failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if _, err := s.builder.Rebuild(r.Context()); err != nil {
		s.logger.Error("rebuild after delete all failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{
		"message": "All documents deleted successfully",
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	docCount, err := s.registry.Count(r.Context())
	if err != nil {
		s.logger.Error("status: count documents failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	passageCount := 0
	if s.handle.Ready() {
		if passageCount, err = s.handle.Stats(r.Context()); err != nil {
			s.logger.Error("status: pipeline stats failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"documents": docCount,
		"passages":  passageCount,
		"ready":     s.handle.Ready(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
