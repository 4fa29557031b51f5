package storage

import (
	"context"
	"errors"

	"github.com/martagil/gestor-be/internal/models"
)

// ErrNotFound indicates a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness conflict.
var ErrAlreadyExists = errors.New("record already exists")

// ErrProtectedUser indicates an attempt to delete the bootstrap admin account.
var ErrProtectedUser = errors.New("user is protected")

// ErrHasProjects indicates the user still owns projects and cannot be deleted.
var ErrHasProjects = errors.New("user owns projects")

// UserStore captures identity persistence operations needed by handlers.
type UserStore interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	GetUser(ctx context.Context, id string) (models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	FindByUsernameOrEmail(ctx context.Context, identifier string) (models.User, error)
	UpdateUser(ctx context.Context, user models.User) (models.User, error)
	DeleteUser(ctx context.Context, id string) error
}

// ProjectStore captures project persistence operations needed by handlers.
type ProjectStore interface {
	CreateProject(ctx context.Context, project models.Project) (models.Project, error)
	GetProject(ctx context.Context, id string) (models.Project, error)
	ListProjects(ctx context.Context, ownerID string) ([]models.Project, error)
	ListAllProjects(ctx context.Context) ([]models.Project, error)
	UpdateProject(ctx context.Context, project models.Project) (models.Project, error)
	DeleteProject(ctx context.Context, id string) error
}

// Store bundles the two stores behind one backing engine.
type Store interface {
	UserStore
	ProjectStore
}
