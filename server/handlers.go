package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/smallnest/researchdeck/export"
	"github.com/smallnest/researchdeck/research"
	"github.com/smallnest/researchdeck/store"
)

const (
	statusSuccess = "success"
	statusFailed  = "failed"
)

type generateInput struct {
	Query  string                `json:"query"`
	Title  string                `json:"title"`
	Slides []research.SlideInput `json:"slides"`
}

// generateRequest accepts the fields under "input" or at the top level.
type generateRequest struct {
	Input *generateInput `json:"input"`
	generateInput
}

func (r generateRequest) input() generateInput {
	if r.Input != nil {
		return *r.Input
	}
	return r.generateInput
}

type generateResponse struct {
	Status    string           `json:"status"`
	ProjectID string           `json:"projectId,omitempty"`
	PDF       string           `json:"pdf,omitempty"`
	JSON      *export.Manifest `json:"json,omitempty"`
	Report    *research.Report `json:"report,omitempty"`
}

type errorResponse struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

type objectiveResponse struct {
	Status    string             `json:"status"`
	Error     string             `json:"error,omitempty"`
	Objective research.Objective `json:"objective"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("failed to write response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, errorResponse{Status: statusFailed, Error: err.Error()})
}

func (s *Server) handleAgentCard(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.card)
}

// handleGenerate runs the full pipeline for a query, or asset synthesis only
// for pre-researched slides, and returns the deck and manifest.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxRequestBytes)).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("%w: %v", research.ErrInvalidInput, err))
		return
	}
	in := req.input()

	var (
		project *research.Project
		err     error
	)
	switch {
	case strings.TrimSpace(in.Query) != "" && len(in.Slides) == 0:
		s.logger.Info("research mode: %q", in.Query)
		project, err = s.runner.Run(r.Context(), in.Query)
	case len(in.Slides) > 0:
		s.logger.Info("slide mode: %q with %d slides", in.Title, len(in.Slides))
		project, err = s.runner.GenerateSlides(r.Context(), in.Title, in.Slides)
	default:
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("%w: slides (or query) missing", research.ErrInvalidInput))
		return
	}
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, research.ErrInvalidInput) {
			status = http.StatusBadRequest
		}
		s.logger.Error("generation failed: %v", err)
		s.writeError(w, status, err)
		return
	}

	pdf, err := s.exporter.PDF(project)
	if err != nil {
		s.logger.Error("deck export failed: %v", err)
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	resp := generateResponse{
		Status: statusSuccess,
		PDF:    base64.StdEncoding.EncodeToString(pdf),
		Report: project.Report,
	}
	if err := s.store.Save(r.Context(), project); err != nil {
		s.logger.Error("failed to persist project %s: %v", project.ID, err)
	} else {
		resp.ProjectID = project.ID
	}
	manifest := s.exporter.Manifest(project)
	resp.JSON = &manifest

	s.logger.Info("generated %d slides for project %s (pdf %d bytes)", len(project.Objectives), project.ID, len(pdf))
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.List(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, list)
}

func (s *Server) loadProject(w http.ResponseWriter, r *http.Request) (*research.Project, bool) {
	p, err := s.store.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, store.ErrNotFound) {
			status = http.StatusNotFound
		}
		s.writeError(w, status, err)
		return nil, false
	}
	return p, true
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	p, ok := s.loadProject(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleBundle(w http.ResponseWriter, r *http.Request) {
	p, ok := s.loadProject(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := s.exporter.WriteBundle(&buf, p); err != nil {
		s.logger.Error("bundle export failed for %s: %v", p.ID, err)
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", s.exporter.BundleName(p)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		s.logger.Warn("failed to write bundle: %v", err)
	}
}

// handleRegenerate reruns asset synthesis for one objective. The project is
// saved either way, since a failed regeneration leaves the assets cleared.
// Requests for the same project run one at a time so that a save never
// overwrites another objective's regeneration.
func (s *Server) handleRegenerate(w http.ResponseWriter, r *http.Request) {
	unlock := s.projects.Lock(chi.URLParam(r, "id"))
	defer unlock()

	p, ok := s.loadProject(w, r)
	if !ok {
		return
	}
	objectiveID := chi.URLParam(r, "objectiveID")

	obj, err := s.runner.RegenerateProject(r.Context(), p, objectiveID)
	switch {
	case errors.Is(err, research.ErrObjectiveNotFound):
		s.writeError(w, http.StatusNotFound, err)
		return
	case errors.Is(err, research.ErrObjectiveNotCompleted):
		s.writeError(w, http.StatusConflict, err)
		return
	}

	if serr := s.store.Save(r.Context(), p); serr != nil {
		s.logger.Error("failed to persist project %s: %v", p.ID, serr)
		s.writeError(w, http.StatusInternalServerError, serr)
		return
	}
	if err != nil {
		s.writeJSON(w, http.StatusInternalServerError, objectiveResponse{Status: statusFailed, Error: err.Error(), Objective: obj})
		return
	}
	s.writeJSON(w, http.StatusOK, objectiveResponse{Status: statusSuccess, Objective: obj})
}
