package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/martagil/gestor-be/internal/http/respond"
	"github.com/martagil/gestor-be/internal/middleware"
	"github.com/martagil/gestor-be/internal/models"
	"github.com/martagil/gestor-be/internal/models/dto"
	"github.com/martagil/gestor-be/internal/storage"
)

// ProjectHandler owns the /proyectos endpoints.
type ProjectHandler struct {
	projects storage.ProjectStore
	logger   *zap.Logger
}

// NewProjectHandler constructs the handler.
func NewProjectHandler(projects storage.ProjectStore, logger *zap.Logger) *ProjectHandler {
	return &ProjectHandler{projects: projects, logger: logger}
}

// Register attaches project routes to the router.
func (h *ProjectHandler) Register(r *mux.Router, authn *middleware.Authenticator) {
	r.HandleFunc("/proyectos", authn.RequireAuth(h.handleList)).Methods(http.MethodGet)
	r.HandleFunc("/proyectos", authn.RequireAuth(h.handleCreate)).Methods(http.MethodPost)
	r.HandleFunc("/proyectos/{id}", authn.RequireAuth(h.handleGet)).Methods(http.MethodGet)
	r.HandleFunc("/proyectos/{id}", authn.RequireAuth(h.handleUpdate)).Methods(http.MethodPut)
	r.HandleFunc("/proyectos/{id}", authn.RequireAuth(h.handleDelete)).Methods(http.MethodDelete)
}

// handleList returns every project for admins and only owned projects for
// everyone else.
func (h *ProjectHandler) handleList(w http.ResponseWriter, r *http.Request) {
	principal, _ := middleware.Principal(r.Context())

	var (
		projects []models.Project
		err      error
	)
	if principal.IsAdmin() {
		projects, err = h.projects.ListAllProjects(r.Context())
	} else {
		projects, err = h.projects.ListProjects(r.Context(), principal.ID)
	}
	if err != nil {
		storeError(w, h.logger, err, "list projects")
		return
	}
	respond.JSON(w, http.StatusOK, "projects fetched", projects)
}

func (h *ProjectHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	principal, _ := middleware.Principal(r.Context())

	var req dto.CreateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if err := validateBoundedText("nombre", req.Nombre, true, maxProjectNameLen); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	now := time.Now()
	project := models.Project{
		ID:                uuid.NewString(),
		Nombre:            strings.TrimSpace(req.Nombre),
		Descripcion:       req.Descripcion,
		FechaCreacion:     now,
		FechaModificacion: now,
		UsuarioID:         principal.ID,
	}
	created, err := h.projects.CreateProject(r.Context(), project)
	if err != nil {
		storeError(w, h.logger, err, "create project")
		return
	}
	respond.JSON(w, http.StatusCreated, "project created successfully", created)
}

func (h *ProjectHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	project, ok := h.fetchAuthorized(w, r)
	if !ok {
		return
	}
	respond.JSON(w, http.StatusOK, "project fetched", project)
}

func (h *ProjectHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	project, ok := h.fetchAuthorized(w, r)
	if !ok {
		return
	}

	var req dto.UpdateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if req.Nombre != nil {
		if err := validateBoundedText("nombre", *req.Nombre, true, maxProjectNameLen); err != nil {
			respond.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		project.Nombre = strings.TrimSpace(*req.Nombre)
	}
	if req.Descripcion != nil {
		project.Descripcion = *req.Descripcion
	}

	// fecha_modificacion never moves backwards.
	if now := time.Now(); now.After(project.FechaModificacion) {
		project.FechaModificacion = now
	}

	updated, err := h.projects.UpdateProject(r.Context(), project)
	if err != nil {
		storeError(w, h.logger, err, "update project")
		return
	}
	respond.JSON(w, http.StatusOK, "project updated successfully", updated)
}

func (h *ProjectHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	project, ok := h.fetchAuthorized(w, r)
	if !ok {
		return
	}
	if err := h.projects.DeleteProject(r.Context(), project.ID); err != nil {
		storeError(w, h.logger, err, "delete project")
		return
	}
	respond.JSON(w, http.StatusOK, "project deleted successfully", nil)
}

// fetchAuthorized loads the project from the path id and enforces the
// owner-or-admin policy, writing the error response itself on failure.
func (h *ProjectHandler) fetchAuthorized(w http.ResponseWriter, r *http.Request) (models.Project, bool) {
	principal, _ := middleware.Principal(r.Context())

	project, err := h.projects.GetProject(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		storeError(w, h.logger, err, "get project")
		return models.Project{}, false
	}
	if project.UsuarioID != principal.ID && !principal.IsAdmin() {
		respond.Error(w, http.StatusForbidden, "not authorized")
		return models.Project{}, false
	}
	return project, true
}
