package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/matome/internal/config"
	"github.com/hyperjump/matome/internal/models"
)

func (s *Server) handleIngestDocument(w http.ResponseWriter, r *http.Request) {
	var input models.IngestInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("ingest request", zap.String("title", input.Title), zap.String("source", input.Source))
	doc, err := s.org.Ingest(r.Context(), input)
	if err != nil {
		s.logger.Error("ingest failed", zap.Error(err))
		s.respondError(w, statusFor(err), err.Error())
		return
	}
	s.respondJSON(w, http.StatusCreated, doc)
}

type batchRequest struct {
	Documents []models.IngestInput `json:"documents"`
}

func (s *Server) handleIngestBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Documents) == 0 {
		s.respondError(w, http.StatusBadRequest, "documents is required")
		return
	}
	s.logger.Debug("batch ingest request", zap.Int("documents", len(req.Documents)))
	docs, err := s.org.IngestBatch(r.Context(), req.Documents)
	if err != nil {
		s.logger.Error("batch ingest failed", zap.Error(err))
		s.respondError(w, statusFor(err), err.Error())
		return
	}
	s.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"documents": docs,
		"total":     len(docs),
	})
}

// handleListDocuments serves GET /documents. With ?q= it runs a keyword
// lookup over titles and concepts; without it, it lists recent documents.
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			s.respondError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}
	if q := r.URL.Query().Get("q"); q != "" {
		hits, err := s.org.Lookup(r.Context(), q, limit)
		if err != nil {
			s.logger.Error("lookup failed", zap.Error(err))
			s.respondError(w, statusFor(err), err.Error())
			return
		}
		s.respondJSON(w, http.StatusOK, map[string]interface{}{"results": hits, "total": len(hits)})
		return
	}
	docs, err := s.org.Documents(r.Context(), limit)
	if err != nil {
		s.logger.Error("list documents failed", zap.Error(err))
		s.respondError(w, statusFor(err), err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"documents": docs, "total": len(docs)})
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	doc, err := s.org.Document(r.Context(), id)
	if err != nil {
		s.respondError(w, statusFor(err), err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, doc)
}

func (s *Server) handleUpdateDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	var input models.IngestInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("update request", zap.Int64("id", id))
	doc, err := s.org.Update(r.Context(), id, input)
	if err != nil {
		s.logger.Error("update failed", zap.Error(err))
		s.respondError(w, statusFor(err), err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, doc)
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	s.logger.Debug("delete request", zap.Int64("id", id))
	if err := s.org.Remove(r.Context(), id); err != nil {
		s.logger.Error("delete failed", zap.Error(err))
		s.respondError(w, statusFor(err), err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var query models.SearchQuery
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("search request", zap.String("query", query.Query), zap.Int("top_k", query.TopK))
	response, err := s.org.Search(r.Context(), query)
	if err != nil {
		s.logger.Error("search failed", zap.Error(err))
		s.respondError(w, statusFor(err), err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, response)
}

func (s *Server) handleListClusters(w http.ResponseWriter, r *http.Request) {
	clusters := s.org.Clusters()
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"clusters": clusters, "total": len(clusters)})
}

func (s *Server) handleGetCluster(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	c, err := s.org.Cluster(id)
	if err != nil {
		s.respondError(w, statusFor(err), err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, c)
}

type renameRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleRenameCluster(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	var req renameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		s.respondError(w, http.StatusBadRequest, "name is required")
		return
	}
	s.logger.Debug("rename cluster request", zap.Int64("id", id), zap.String("name", req.Name))
	if err := s.org.RenameCluster(r.Context(), id, req.Name); err != nil {
		s.respondError(w, statusFor(err), err.Error())
		return
	}
	c, err := s.org.Cluster(id)
	if err != nil {
		s.respondError(w, statusFor(err), err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, c)
}

func (s *Server) handleClusterDocuments(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	c, err := s.org.Cluster(id)
	if err != nil {
		s.respondError(w, statusFor(err), err.Error())
		return
	}
	docs := make([]*models.Document, 0, len(c.DocumentIDs))
	for _, docID := range c.DocumentIDs {
		doc, err := s.org.Document(r.Context(), docID)
		if err != nil {
			s.logger.Warn("cluster member missing from storage", zap.Int64("id", docID), zap.Error(err))
			continue
		}
		docs = append(docs, doc)
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"cluster":   c,
		"documents": docs,
		"total":     len(docs),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	stats, err := s.org.Stats(r.Context())
	if err != nil {
		s.logger.Error("status failed", zap.Error(err))
		s.respondError(w, statusFor(err), err.Error())
		return
	}
	resp := map[string]interface{}{
		"documents":       stats.Documents,
		"clusters":        stats.Clusters,
		"indexed_rows":    stats.IndexedRows,
		"vocabulary_size": stats.VocabularySize,
		"keyword_docs":    stats.KeywordDocs,
		"config": map[string]interface{}{
			"rebuild_threshold":    s.config.Engine.RebuildThreshold,
			"assign_threshold":     s.config.Engine.AssignThreshold,
			"name_boost":           s.config.Engine.NameBoost,
			"max_cluster_concepts": s.config.Engine.MaxClusterConcepts,
			"database_path":        s.config.Storage.DatabasePath,
			"bleve_index_path":     s.config.Storage.BleveIndexPath,
		},
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleWatchDirectoriesList(w http.ResponseWriter, r *http.Request) {
	if s.watch == nil {
		s.respondError(w, http.StatusNotImplemented, "watch not enabled")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"directories": s.watch.Directories()})
}

type watchAddRequest struct {
	Path string `json:"path"`
	Sync *bool  `json:"sync,omitempty"`
}

func (s *Server) handleWatchDirectoriesAdd(w http.ResponseWriter, r *http.Request) {
	if s.watch == nil {
		s.respondError(w, http.StatusNotImplemented, "watch not enabled")
		return
	}
	var req watchAddRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Path == "" {
		s.respondError(w, http.StatusBadRequest, "path is required")
		return
	}
	abs, err := filepath.Abs(req.Path)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid path")
		return
	}
	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			s.respondError(w, http.StatusNotFound, "directory not found")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !info.IsDir() {
		s.respondError(w, http.StatusBadRequest, "path is not a directory")
		return
	}
	syncExisting := true
	if req.Sync != nil {
		syncExisting = *req.Sync
	}
	s.logger.Debug("watch add directory request", zap.String("path", abs), zap.Bool("sync_existing", syncExisting))
	if err := s.watch.AddDirectory(abs, syncExisting); err != nil {
		s.logger.Error("watch add directory failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.persistWatchDirectories()
	s.respondJSON(w, http.StatusCreated, map[string]string{"path": abs, "status": "added"})
}

func (s *Server) handleWatchDirectoriesRemove(w http.ResponseWriter, r *http.Request) {
	if s.watch == nil {
		s.respondError(w, http.StatusNotImplemented, "watch not enabled")
		return
	}
	path := r.URL.Query().Get("path")
	if path == "" {
		s.respondError(w, http.StatusBadRequest, "path is required")
		return
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid path")
		return
	}
	s.logger.Debug("watch remove directory request", zap.String("path", abs))
	if err := s.watch.RemoveDirectory(abs); err != nil {
		s.logger.Error("watch remove directory failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.persistWatchDirectories()
	s.respondJSON(w, http.StatusOK, map[string]string{"path": abs, "status": "removed"})
}

func (s *Server) persistWatchDirectories() {
	if s.configPath == "" {
		return
	}
	s.configMu.Lock()
	s.config.Watch.Directories = s.watch.Directories()
	err := config.Save(s.configPath, s.config)
	s.configMu.Unlock()
	if err != nil {
		s.logger.Warn("failed to persist watch config", zap.Error(err))
	}
}

// statusFor maps the engine's sentinel errors onto HTTP statuses. Anything
// not wrapping a sentinel is an internal failure.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, models.ErrInvalidArgument),
		errors.Is(err, models.ErrEmptyDocument),
		errors.Is(err, models.ErrEmptyQuery):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// pathID parses the {id} URL parameter, responding 400 on garbage.
func (s *Server) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 0 {
		s.respondError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
