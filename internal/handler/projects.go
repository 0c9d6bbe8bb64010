package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"

	"circuitmap/internal/domain"
	"circuitmap/internal/geo"
	"circuitmap/internal/store"
)

type ProjectsHandler struct {
	store    *store.Store
	onChange func(projectID int64)
	logger   *slog.Logger
}

// NewProjectsHandler serves the project REST API. onChange is called after
// a project is renamed or deleted.
func NewProjectsHandler(st *store.Store, onChange func(projectID int64), logger *slog.Logger) *ProjectsHandler {
	return &ProjectsHandler{
		store:    st,
		onChange: onChange,
		logger:   logger.With("handler", "projects"),
	}
}

type ProjectsResponse struct {
	Projects []domain.ProjectIDLabel `json:"projects"`
	Count    int                     `json:"count"`
}

type projectRequest struct {
	Label string `json:"label"`
}

func (h *ProjectsHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects := h.store.List()
	respondJSON(w, http.StatusOK, ProjectsResponse{Projects: projects, Count: len(projects)})
}

func (h *ProjectsHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	p, ok := h.project(w, r)
	if !ok {
		return
	}
	respondCached(w, r, p)
}

// GetProjectGeoJSON exports the circuits of a project as a feature collection.
func (h *ProjectsHandler) GetProjectGeoJSON(w http.ResponseWriter, r *http.Request) {
	p, ok := h.project(w, r)
	if !ok {
		return
	}
	fc := geo.CircuitCollection(p.Circuits, nil)
	for _, f := range geo.MarkerCollection(p.Markers).Features {
		fc.Append(f)
	}
	w.Header().Set("Content-Type", "application/geo+json")
	respondCached(w, r, fc)
}

func (h *ProjectsHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeProjectRequest(w, r)
	if !ok {
		return
	}
	p := h.store.CreateProject(req.Label)
	h.logger.Info("project created", "project_id", *p.ID, "label", p.Label)
	respondJSON(w, http.StatusCreated, p)
}

func (h *ProjectsHandler) RenameProject(w http.ResponseWriter, r *http.Request) {
	id, ok := projectID(w, r)
	if !ok {
		return
	}
	req, ok := decodeProjectRequest(w, r)
	if !ok {
		return
	}
	if err := h.store.RenameProject(id, req.Label); err != nil {
		respondStoreError(w, err)
		return
	}
	h.changed(id)
	p, _ := h.store.Get(id)
	respondJSON(w, http.StatusOK, p)
}

func (h *ProjectsHandler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	id, ok := projectID(w, r)
	if !ok {
		return
	}
	if err := h.store.DeleteProject(id); err != nil {
		respondStoreError(w, err)
		return
	}
	h.logger.Info("project deleted", "project_id", id)
	h.changed(id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *ProjectsHandler) changed(id int64) {
	if h.onChange != nil {
		h.onChange(id)
	}
}

func (h *ProjectsHandler) project(w http.ResponseWriter, r *http.Request) (*domain.Project, bool) {
	id, ok := projectID(w, r)
	if !ok {
		return nil, false
	}
	p, ok := h.store.Get(id)
	if !ok {
		respondError(w, http.StatusNotFound, "project not found")
		return nil, false
	}
	return p, true
}

func projectID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid project id")
		return 0, false
	}
	return id, true
}

func decodeProjectRequest(w http.ResponseWriter, r *http.Request) (projectRequest, bool) {
	var req projectRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return req, false
	}
	req.Label = strings.TrimSpace(req.Label)
	if req.Label == "" {
		respondError(w, http.StatusBadRequest, "label is required")
		return req, false
	}
	return req, true
}

func respondStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrNotFound) {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	respondError(w, http.StatusInternalServerError, err.Error())
}

// respondCached writes data with an ETag derived from its encoding and
// answers 304 when the client already holds it.
func respondCached(w http.ResponseWriter, r *http.Request, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "encoding failed")
		return
	}
	etag := `"` + strconv.FormatUint(xxhash.Sum64(body), 16) + `"`
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "no-cache")
	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "application/json")
	}
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

type errorResponse struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Error: message})
}
