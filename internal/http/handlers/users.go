package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/martagil/gestor-be/internal/auth"
	"github.com/martagil/gestor-be/internal/http/respond"
	"github.com/martagil/gestor-be/internal/middleware"
	"github.com/martagil/gestor-be/internal/models"
	"github.com/martagil/gestor-be/internal/models/dto"
	"github.com/martagil/gestor-be/internal/storage"
)

// UserHandler owns the /usuarios endpoints.
type UserHandler struct {
	users  storage.UserStore
	logger *zap.Logger
}

// NewUserHandler constructs the handler.
func NewUserHandler(users storage.UserStore, logger *zap.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger}
}

// Register attaches user routes to the router. The fixed /usuarios/rol route
// is registered before the {id} routes so it is not captured as an id.
func (h *UserHandler) Register(r *mux.Router, authn *middleware.Authenticator) {
	r.HandleFunc("/usuarios/rol", authn.RequireAuth(h.handleRoles)).Methods(http.MethodGet)
	r.HandleFunc("/usuarios", authn.RequireAuth(h.handleList)).Methods(http.MethodGet)
	r.HandleFunc("/usuarios", authn.WithPrincipal(h.handleCreate)).Methods(http.MethodPost)
	r.HandleFunc("/usuarios/{id}", authn.RequireAuth(h.handleGet)).Methods(http.MethodGet)
	r.HandleFunc("/usuarios/{id}", authn.RequireAuth(h.handleUpdate)).Methods(http.MethodPut)
	r.HandleFunc("/usuarios/{id}", authn.RequireAdmin(h.handleDelete)).Methods(http.MethodDelete)
}

func (h *UserHandler) handleRoles(w http.ResponseWriter, r *http.Request) {
	principal, _ := middleware.Principal(r.Context())
	respond.JSON(w, http.StatusOK, "roles fetched", dto.RolesResponse{Roles: models.RoleStrings(principal.Roles)})
}

func (h *UserHandler) handleList(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.ListUsers(r.Context())
	if err != nil {
		storeError(w, h.logger, err, "list users")
		return
	}
	respond.JSON(w, http.StatusOK, "users fetched", users)
}

func (h *UserHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetUser(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		storeError(w, h.logger, err, "get user")
		return
	}
	respond.JSON(w, http.StatusOK, "user fetched", user)
}

// handleCreate serves both open self-registration and admin user creation.
// Anonymous callers always get the plain user role; only an admin may assign
// roles explicitly.
func (h *UserHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if err := h.validateNewUser(req); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	roles := []models.Role{models.RoleUser}
	if len(req.Roles) > 0 {
		principal, ok := middleware.Principal(r.Context())
		if !ok || !principal.IsAdmin() {
			respond.Error(w, http.StatusForbidden, "only an admin may assign roles")
			return
		}
		parsed, valid := models.ParseRoles(req.Roles)
		if !valid || len(parsed) == 0 {
			respond.Error(w, http.StatusBadRequest, "unknown role")
			return
		}
		roles = parsed
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.logger.Error("create user: hash password", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "unexpected error")
		return
	}

	user := models.User{
		ID:           uuid.NewString(),
		Username:     strings.TrimSpace(req.Username),
		Nombre:       strings.TrimSpace(req.Nombre),
		Apellidos:    strings.TrimSpace(req.Apellidos),
		Email:        strings.TrimSpace(req.Email),
		PasswordHash: passwordHash,
		Roles:        roles,
		Active:       true,
		CreatedAt:    time.Now(),
	}
	created, err := h.users.CreateUser(r.Context(), user)
	if err != nil {
		storeError(w, h.logger, err, "create user")
		return
	}
	respond.JSON(w, http.StatusCreated, "user created successfully", created)
}

func (h *UserHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	principal, _ := middleware.Principal(r.Context())
	id := mux.Vars(r)["id"]
	if principal.ID != id && !principal.IsAdmin() {
		respond.Error(w, http.StatusForbidden, "not authorized")
		return
	}

	var req dto.UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	user, err := h.users.GetUser(r.Context(), id)
	if err != nil {
		storeError(w, h.logger, err, "update user: fetch")
		return
	}
	if err := applyUserUpdate(&user, req); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := h.users.UpdateUser(r.Context(), user)
	if err != nil {
		storeError(w, h.logger, err, "update user")
		return
	}
	respond.JSON(w, http.StatusOK, "user updated successfully", updated)
}

func (h *UserHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.users.DeleteUser(r.Context(), mux.Vars(r)["id"]); err != nil {
		storeError(w, h.logger, err, "delete user")
		return
	}
	respond.JSON(w, http.StatusOK, "user deleted successfully", nil)
}

func (h *UserHandler) validateNewUser(req dto.CreateUserRequest) error {
	if err := validateUsername(req.Username); err != nil {
		return err
	}
	if err := validateBoundedText("nombre", req.Nombre, true, maxNombreLen); err != nil {
		return err
	}
	if err := validateBoundedText("apellidos", req.Apellidos, true, maxApellidosLen); err != nil {
		return err
	}
	if err := validateEmail(req.Email); err != nil {
		return err
	}
	return validatePassword(req.Password)
}

func applyUserUpdate(user *models.User, req dto.UpdateUserRequest) error {
	if req.Username != nil {
		if err := validateUsername(*req.Username); err != nil {
			return err
		}
		user.Username = strings.TrimSpace(*req.Username)
	}
	if req.Nombre != nil {
		if err := validateBoundedText("nombre", *req.Nombre, true, maxNombreLen); err != nil {
			return err
		}
		user.Nombre = strings.TrimSpace(*req.Nombre)
	}
	if req.Apellidos != nil {
		if err := validateBoundedText("apellidos", *req.Apellidos, true, maxApellidosLen); err != nil {
			return err
		}
		user.Apellidos = strings.TrimSpace(*req.Apellidos)
	}
	if req.Email != nil {
		if err := validateEmail(*req.Email); err != nil {
			return err
		}
		user.Email = strings.TrimSpace(*req.Email)
	}
	if req.Password != nil {
		if err := validatePassword(*req.Password); err != nil {
			return err
		}
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			return err
		}
		user.PasswordHash = hash
	}
	return nil
}
