package webapi

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"adforge-ai/internal/creative"
	"adforge-ai/internal/gemini"
	"adforge-ai/internal/project"
)

// CreativeService is the slice of the orchestrator the handlers use.
// *creative.Generator satisfies it; tests substitute a fake.
type CreativeService interface {
	Generate(ctx context.Context, req creative.Request) (creative.Creative, error)
	Edit(ctx context.Context, image gemini.ImageInput, instruction string) (string, error)
}

type Options struct {
	Creative CreativeService
	Projects *project.Store
	Logger   *slog.Logger
}

type Server struct {
	creative CreativeService
	projects *project.Store
	logger   *slog.Logger
	mux      *http.ServeMux
}

func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	s := &Server{
		creative: opts.Creative,
		projects: opts.Projects,
		logger:   logger,
		mux:      http.NewServeMux(),
	}

	s.mux.HandleFunc("POST /api/generate", s.handleGenerate)
	s.mux.HandleFunc("POST /api/edit", s.handleEdit)
	s.mux.HandleFunc("GET /api/projects", s.handleListProjects)
	s.mux.HandleFunc("GET /api/projects/{id}", s.handleGetProject)
	s.mux.HandleFunc("DELETE /api/projects/{id}", s.handleDeleteProject)
	s.mux.HandleFunc("GET /api/styles", s.handleStyles)

	return s
}

// Handler returns the API routes wrapped with request-ID and access-log
// middleware.
func (s *Server) Handler() http.Handler {
	return withRequestID(withLogging(s.mux, s.logger))
}

type apiError struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
