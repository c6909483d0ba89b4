package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docrag/internal/domain"
	"github.com/kailas-cloud/docrag/internal/domain/answer"
	logpkg "github.com/kailas-cloud/docrag/internal/logger"
	healthuc "github.com/kailas-cloud/docrag/internal/usecase/health"
	queryuc "github.com/kailas-cloud/docrag/internal/usecase/query"
)

const maxQueryBodyBytes = 1 << 20

const (
	statusIndexed = "indexed"
	statusPending = "pending"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server serves the query, reindex, status and health endpoints.
type Server struct {
	queries       QueryService
	corpus        CorpusService
	health        HealthService
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(queries QueryService, corpus CorpusService, health HealthService, logger *zap.Logger) *Server {
	s := &Server{
		queries: queries,
		corpus:  corpus,
		health:  health,
		logger:  logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidQuery, http.StatusBadRequest, "invalid_request"),
		sentinelHandler(domain.ErrNoDocumentsAvailable, http.StatusServiceUnavailable, "no_documents_available"),
		sentinelHandler(domain.ErrIndexBuildFailure, http.StatusServiceUnavailable, "index_unavailable"),
		sentinelHandler(domain.ErrReindexInProgress, http.StatusConflict, "reindex_in_progress"),
		sentinelHandler(domain.ErrQuotaExceeded, http.StatusTooManyRequests, "quota_exceeded"),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, "rate_limited"),
	}
	return s
}

// Query handles POST /query.
func (s *Server) Query(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxQueryBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return
	}

	resp, err := s.queries.Query(r.Context(), queryuc.Request{
		Query:     req.Query,
		UserID:    req.UserID,
		SessionID: req.SessionID,
	})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, queryResponseFrom(&resp))
}

// Reindex handles POST /reindex. An empty directory or a failed build is reported
// as success:false; the previous index stays active.
func (s *Server) Reindex(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	res, err := s.corpus.Reindex(r.Context())
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrEmptyCorpus):
		writeJSON(w, http.StatusOK, reindexResponse{Success: false, Message: "No documents found in directory"})
		return
	case errors.Is(err, domain.ErrDirectoryUnavailable), errors.Is(err, domain.ErrIndexBuildFailure):
		logpkg.FromContext(r.Context()).Warn("Reindex failed", zap.Error(err))
		writeJSON(w, http.StatusOK, reindexResponse{Success: false, Message: "Reindex failed: " + err.Error()})
		return
	default:
		s.handleDomainError(w, r, err)
		return
	}

	count := res.Documents
	elapsed := time.Since(start).Seconds()
	writeJSON(w, http.StatusOK, reindexResponse{
		Success:        true,
		Message:        fmt.Sprintf("Successfully reindexed %d documents", count),
		DocumentsCount: &count,
		ProcessingTime: &elapsed,
		IndexedFiles:   res.Files,
	})
}

// DocumentsStatus handles GET /documents/status.
func (s *Server) DocumentsStatus(w http.ResponseWriter, r *http.Request) {
	st, err := s.corpus.Status(r.Context())
	if err != nil {
		logpkg.FromContext(r.Context()).Warn("Document status failed", zap.Error(err))
		writeJSON(w, http.StatusOK, documentsStatusResponse{
			Success:            false,
			Message:            err.Error(),
			Documents:          []documentStatus{},
			DocumentsDirectory: s.corpus.Dir(),
		})
		return
	}

	docs := make([]documentStatus, 0, len(st.Files))
	for _, f := range st.Files {
		status := statusPending
		if f.Indexed {
			status = statusIndexed
		}
		docs = append(docs, documentStatus{
			FileName: f.Name,
			Size:     f.Size,
			Modified: f.Modified.UTC().Format(time.RFC3339),
			Status:   status,
			Path:     f.Path,
		})
	}

	writeJSON(w, http.StatusOK, documentsStatusResponse{
		Success:            true,
		Documents:          docs,
		TotalCount:         len(docs),
		DocumentsDirectory: st.Dir,
	})
}

// HealthCheck handles GET /health. deep=true also checks external dependencies.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	deep := r.URL.Query().Get("deep") == "true"
	report := s.health.Check(r.Context(), deep)

	var checks map[string]string
	if len(report.Checks) > 0 {
		checks = make(map[string]string, len(report.Checks))
		for k, v := range report.Checks {
			checks[k] = string(v)
		}
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status:             string(report.Status),
		Model:              report.Model,
		DocumentsLoaded:    report.DocumentsLoaded,
		DocumentsDirectory: report.DocumentsDir,
		Checks:             checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func queryResponseFrom(resp *answer.Response) queryResponse {
	sources := make([]sourceAttribution, 0, len(resp.Sources()))
	for _, a := range resp.Sources() {
		sources = append(sources, sourceAttribution{
			FileName:         a.DisplayName,
			OriginalFileName: a.FileName,
			Page:             a.Page,
			Size:             a.Size,
			Preview:          a.Preview,
			RelevanceScore:   a.Score,
		})
	}
	return queryResponse{
		Response:       resp.Text(),
		Sources:        sources,
		ModelUsed:      resp.Model(),
		ProcessingTime: resp.Elapsed().Seconds(),
		Intent:         resp.Intent().String(),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, err.Error())
		return true
	}
}

// handleDomainError maps known sentinels to their status. Anything else is a 500
// carrying the error message.
func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	logger := logpkg.FromContext(r.Context())
	for _, h := range s.errorHandlers {
		if h(w, err) {
			logger.Warn("domain error", zap.Error(err))
			return
		}
	}
	logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
}
