// Package memory provides a map-backed storage.Store. It mirrors the
// Postgres store's semantics and backs the handler tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/martagil/gestor-be/internal/models"
	"github.com/martagil/gestor-be/internal/storage"
)

var _ storage.Store = (*Store)(nil)

// Store keeps users and projects in process memory.
type Store struct {
	mu        sync.RWMutex
	users     map[string]models.User
	projects  map[string]models.Project
	protected string
}

// NewStore returns an empty in-memory store.
func NewStore() *Store {
	return &Store{
		users:     make(map[string]models.User),
		projects:  make(map[string]models.Project),
		protected: "admin",
	}
}

// Bootstrap inserts the seed admin account if absent and marks it protected.
func (s *Store) Bootstrap(_ context.Context, admin models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.protected = admin.Username
	for _, u := range s.users {
		if u.Username == admin.Username || u.Email == admin.Email {
			return nil
		}
	}
	if admin.CreatedAt.IsZero() {
		admin.CreatedAt = time.Now()
	}
	s.users[admin.ID] = admin
	return nil
}

// CreateUser inserts a new user, enforcing username/email uniqueness.
func (s *Store) CreateUser(_ context.Context, user models.User) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == user.Username || u.Email == user.Email {
			return models.User{}, storage.ErrAlreadyExists
		}
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	s.users[user.ID] = user
	return user, nil
}

// GetUser fetches a user by id.
func (s *Store) GetUser(_ context.Context, id string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	return user, nil
}

// ListUsers returns every user ordered by username.
func (s *Store) ListUsers(_ context.Context) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users, nil
}

// FindByUsernameOrEmail fetches the user matching the identifier.
func (s *Store) FindByUsernameOrEmail(_ context.Context, identifier string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Username == identifier || u.Email == identifier {
			return u, nil
		}
	}
	return models.User{}, storage.ErrNotFound
}

// UpdateUser replaces mutable user fields, enforcing uniqueness.
func (s *Store) UpdateUser(_ context.Context, user models.User) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.users[user.ID]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	for id, u := range s.users {
		if id == user.ID {
			continue
		}
		if u.Username == user.Username || u.Email == user.Email {
			return models.User{}, storage.ErrAlreadyExists
		}
	}
	user.CreatedAt = current.CreatedAt
	s.users[user.ID] = user
	return user, nil
}

// DeleteUser removes a user, refusing the protected account and owners of projects.
func (s *Store) DeleteUser(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return storage.ErrNotFound
	}
	if user.Username == s.protected {
		return storage.ErrProtectedUser
	}
	for _, p := range s.projects {
		if p.UsuarioID == id {
			return storage.ErrHasProjects
		}
	}
	delete(s.users, id)
	return nil
}

// CreateProject inserts a new project; the owner must exist.
func (s *Store) CreateProject(_ context.Context, project models.Project) (models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[project.UsuarioID]; !ok {
		return models.Project{}, storage.ErrNotFound
	}
	s.projects[project.ID] = project
	return project, nil
}

// GetProject fetches a project by id.
func (s *Store) GetProject(_ context.Context, id string) (models.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	project, ok := s.projects[id]
	if !ok {
		return models.Project{}, storage.ErrNotFound
	}
	return project, nil
}

// ListProjects returns the projects owned by one user, ordered by nombre.
func (s *Store) ListProjects(_ context.Context, ownerID string) ([]models.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	projects := []models.Project{}
	for _, p := range s.projects {
		if p.UsuarioID == ownerID {
			projects = append(projects, p)
		}
	}
	sortProjects(projects)
	return projects, nil
}

// ListAllProjects returns every project ordered by nombre.
func (s *Store) ListAllProjects(_ context.Context) ([]models.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	projects := make([]models.Project, 0, len(s.projects))
	for _, p := range s.projects {
		projects = append(projects, p)
	}
	sortProjects(projects)
	return projects, nil
}

// UpdateProject replaces mutable project fields.
func (s *Store) UpdateProject(_ context.Context, project models.Project) (models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.projects[project.ID]
	if !ok {
		return models.Project{}, storage.ErrNotFound
	}
	project.FechaCreacion = current.FechaCreacion
	project.UsuarioID = current.UsuarioID
	s.projects[project.ID] = project
	return project, nil
}

// DeleteProject removes a project.
func (s *Store) DeleteProject(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.projects, id)
	return nil
}

func sortProjects(projects []models.Project) {
	sort.Slice(projects, func(i, j int) bool { return projects[i].Nombre < projects[j].Nombre })
}
