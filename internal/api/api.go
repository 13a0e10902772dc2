// Package api exposes ELF detection and abbreviation lookup over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/legalform/internal/detect"
	"github.com/sells-group/legalform/internal/elf"
)

// MaxTop caps the number of predictions one request may ask for.
const MaxTop = 50

// Detector is the detection capability the server needs.
type Detector interface {
	Detect(ctx context.Context, name, jurisdiction string, top int) ([]detect.Prediction, error)
}

// ModelLister lists the jurisdictions with a stored model.
type ModelLister interface {
	List(ctx context.Context) ([]string, error)
}

// DetectRequest is the body of POST /v1/detect. Model, when set, names the
// jurisdiction whose model answers instead of Jurisdiction.
type DetectRequest struct {
	Name         string `json:"name"`
	Jurisdiction string `json:"jurisdiction"`
	Top          int    `json:"top,omitempty"`
	Model        string `json:"model,omitempty"`
}

// DetectResponse is the body returned by POST /v1/detect.
type DetectResponse struct {
	Jurisdiction string              `json:"jurisdiction"`
	Predictions  []detect.Prediction `json:"predictions"`
}

// AbbreviationsResponse is the body returned by GET /v1/abbreviations/{jurisdiction}.
type AbbreviationsResponse struct {
	Jurisdiction  string   `json:"jurisdiction"`
	Abbreviation  string   `json:"abbreviation,omitempty"`
	Abbreviations []string `json:"abbreviations,omitempty"`
	Codes         []string `json:"codes,omitempty"`
}

// ModelsResponse is the body returned by GET /v1/models.
type ModelsResponse struct {
	Models []string `json:"models"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Server holds the handlers' dependencies.
type Server struct {
	detector Detector
	index    *elf.Index
	models   ModelLister
}

// NewServer returns a Server. models may be nil, which disables GET /v1/models.
func NewServer(d Detector, idx *elf.Index, models ModelLister) *Server {
	return &Server{detector: d, index: idx, models: models}
}

// Router returns the HTTP handler with all routes mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.health)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/detect", s.detect)
		r.Get("/abbreviations/{jurisdiction}", s.abbreviations)
		r.Get("/models", s.listModels)
	})
	return r
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) detect(w http.ResponseWriter, r *http.Request) {
	var req DetectRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	jurisdiction := req.Jurisdiction
	if req.Model != "" {
		jurisdiction = req.Model
	}
	if jurisdiction == "" {
		writeError(w, http.StatusBadRequest, "jurisdiction is required")
		return
	}
	if req.Top < 0 || req.Top > MaxTop {
		writeError(w, http.StatusBadRequest, "top out of range")
		return
	}

	preds, err := s.detector.Detect(r.Context(), req.Name, jurisdiction, req.Top)
	if errors.Is(err, detect.ErrNoDetector) {
		writeError(w, http.StatusNotFound, "no model for jurisdiction "+jurisdiction)
		return
	}
	if err != nil {
		zap.L().Error("detect failed",
			zap.String("jurisdiction", jurisdiction),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "detection failed")
		return
	}
	writeJSON(w, http.StatusOK, DetectResponse{Jurisdiction: jurisdiction, Predictions: preds})
}

func (s *Server) abbreviations(w http.ResponseWriter, r *http.Request) {
	j := chi.URLParam(r, "jurisdiction")
	if abbr := r.URL.Query().Get("abbr"); abbr != "" {
		writeJSON(w, http.StatusOK, AbbreviationsResponse{
			Jurisdiction: j,
			Abbreviation: abbr,
			Codes:        nonNil(s.index.ElfCodesFor(j, abbr)),
		})
		return
	}
	writeJSON(w, http.StatusOK, AbbreviationsResponse{
		Jurisdiction:  j,
		Abbreviations: nonNil(s.index.AbbreviationsFor(j)),
	})
}

func (s *Server) listModels(w http.ResponseWriter, r *http.Request) {
	if s.models == nil {
		writeJSON(w, http.StatusOK, ModelsResponse{Models: []string{}})
		return
	}
	models, err := s.models.List(r.Context())
	if err != nil {
		zap.L().Error("list models failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "list models failed")
		return
	}
	writeJSON(w, http.StatusOK, ModelsResponse{Models: nonNil(models)})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		zap.L().Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("write response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
