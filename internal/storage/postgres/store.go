package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/martagil/gestor-be/internal/models"
	"github.com/martagil/gestor-be/internal/storage"
	"github.com/martagil/gestor-be/internal/storage/postgres/migrations"
)

// Ensure Store satisfies the storage.Store interface at compile time.
var _ storage.Store = (*Store)(nil)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// Store provides Postgres-backed persistence for users and projects.
type Store struct {
	pool      *pgxpool.Pool
	protected string
}

// NewStore connects a pgx pool and applies pending migrations.
func NewStore(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := runMigrations(ctx, databaseURL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}

	return &Store{pool: pool, protected: "admin"}, nil
}

// runMigrations applies the embedded goose migrations. goose works against
// database/sql, so it gets its own short-lived connection.
func runMigrations(ctx context.Context, databaseURL string) error {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, ".")
}

// Close releases database resources.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Bootstrap inserts the seed admin account if it does not exist yet and marks
// its username as protected against deletion.
func (s *Store) Bootstrap(ctx context.Context, admin models.User) error {
	s.protected = admin.Username

	const query = `
	INSERT INTO usuarios (id, username, nombre, apellidos, email, password_hash, roles, active)
	SELECT $1, $2, $3, $4, $5, $6, $7, $8
	WHERE NOT EXISTS (SELECT 1 FROM usuarios WHERE username = $2 OR email = $5);
	`
	_, err := s.pool.Exec(ctx, query,
		admin.ID, admin.Username, admin.Nombre, admin.Apellidos, admin.Email,
		admin.PasswordHash, models.RoleStrings(admin.Roles), admin.Active)
	if err != nil {
		return fmt.Errorf("seed admin account: %w", err)
	}
	return nil
}

const userColumns = `id, username, nombre, apellidos, email, password_hash, roles, active, created_at`

// CreateUser inserts a new user row.
func (s *Store) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	const query = `
	INSERT INTO usuarios (id, username, nombre, apellidos, email, password_hash, roles, active)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	RETURNING created_at;
	`
	err := s.pool.QueryRow(ctx, query,
		user.ID, user.Username, user.Nombre, user.Apellidos, user.Email,
		user.PasswordHash, models.RoleStrings(user.Roles), user.Active,
	).Scan(&user.CreatedAt)
	if err != nil {
		return models.User{}, mapPgError(err)
	}
	return user, nil
}

// GetUser fetches a user by id.
func (s *Store) GetUser(ctx context.Context, id string) (models.User, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM usuarios WHERE id = $1;`, id)
	return scanUser(row)
}

// ListUsers returns every user ordered by username.
func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+userColumns+` FROM usuarios ORDER BY username;`)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// FindByUsernameOrEmail fetches the user matching the identifier as username or email.
func (s *Store) FindByUsernameOrEmail(ctx context.Context, identifier string) (models.User, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM usuarios WHERE username = $1 OR email = $1 LIMIT 1;`, identifier)
	return scanUser(row)
}

// UpdateUser persists mutable user fields.
func (s *Store) UpdateUser(ctx context.Context, user models.User) (models.User, error) {
	const query = `
	UPDATE usuarios
	SET username = $2, nombre = $3, apellidos = $4, email = $5, password_hash = $6, roles = $7, active = $8
	WHERE id = $1
	RETURNING created_at;
	`
	err := s.pool.QueryRow(ctx, query,
		user.ID, user.Username, user.Nombre, user.Apellidos, user.Email,
		user.PasswordHash, models.RoleStrings(user.Roles), user.Active,
	).Scan(&user.CreatedAt)
	if err != nil {
		return models.User{}, mapPgError(err)
	}
	return user, nil
}

// DeleteUser removes a user atomically, refusing the protected admin account
// and users that still own projects.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var username string
	err = tx.QueryRow(ctx, `SELECT username FROM usuarios WHERE id = $1;`, id).Scan(&username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return storage.ErrNotFound
		}
		return fmt.Errorf("fetch user: %w", err)
	}
	if username == s.protected {
		return storage.ErrProtectedUser
	}

	var owned int
	err = tx.QueryRow(ctx, `SELECT COUNT(*) FROM proyectos WHERE usuario_id = $1;`, id).Scan(&owned)
	if err != nil {
		return fmt.Errorf("count projects: %w", err)
	}
	if owned > 0 {
		return storage.ErrHasProjects
	}

	if _, err := tx.Exec(ctx, `DELETE FROM usuarios WHERE id = $1;`, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return tx.Commit(ctx)
}

const projectColumns = `id, nombre, descripcion, fecha_creacion, fecha_modificacion, usuario_id`

// CreateProject inserts a new project row.
func (s *Store) CreateProject(ctx context.Context, project models.Project) (models.Project, error) {
	const query = `
	INSERT INTO proyectos (id, nombre, descripcion, fecha_creacion, fecha_modificacion, usuario_id)
	VALUES ($1, $2, $3, $4, $5, $6);
	`
	_, err := s.pool.Exec(ctx, query,
		project.ID, project.Nombre, project.Descripcion,
		project.FechaCreacion, project.FechaModificacion, project.UsuarioID)
	if err != nil {
		return models.Project{}, mapPgError(err)
	}
	return project, nil
}

// GetProject fetches a project by id.
func (s *Store) GetProject(ctx context.Context, id string) (models.Project, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+projectColumns+` FROM proyectos WHERE id = $1;`, id)
	return scanProject(row)
}

// ListProjects returns the projects owned by one user.
func (s *Store) ListProjects(ctx context.Context, ownerID string) ([]models.Project, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+projectColumns+` FROM proyectos WHERE usuario_id = $1 ORDER BY nombre;`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query projects: %w", err)
	}
	defer rows.Close()
	return collectProjects(rows)
}

// ListAllProjects returns every project.
func (s *Store) ListAllProjects(ctx context.Context) ([]models.Project, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+projectColumns+` FROM proyectos ORDER BY nombre;`)
	if err != nil {
		return nil, fmt.Errorf("query projects: %w", err)
	}
	defer rows.Close()
	return collectProjects(rows)
}

// UpdateProject persists mutable project fields.
func (s *Store) UpdateProject(ctx context.Context, project models.Project) (models.Project, error) {
	const query = `
	UPDATE proyectos
	SET nombre = $2, descripcion = $3, fecha_modificacion = $4
	WHERE id = $1
	RETURNING fecha_creacion;
	`
	err := s.pool.QueryRow(ctx, query,
		project.ID, project.Nombre, project.Descripcion, project.FechaModificacion,
	).Scan(&project.FechaCreacion)
	if err != nil {
		return models.Project{}, mapPgError(err)
	}
	return project, nil
}

// DeleteProject removes a project row.
func (s *Store) DeleteProject(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM proyectos WHERE id = $1;`, id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	var roles []string
	err := row.Scan(&user.ID, &user.Username, &user.Nombre, &user.Apellidos, &user.Email,
		&user.PasswordHash, &roles, &user.Active, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, storage.ErrNotFound
		}
		return models.User{}, fmt.Errorf("scan user: %w", err)
	}
	parsed, ok := models.ParseRoles(roles)
	if !ok {
		return models.User{}, fmt.Errorf("user %s carries an unknown role", user.ID)
	}
	user.Roles = parsed
	return user, nil
}

func scanProject(row pgx.Row) (models.Project, error) {
	var project models.Project
	err := row.Scan(&project.ID, &project.Nombre, &project.Descripcion,
		&project.FechaCreacion, &project.FechaModificacion, &project.UsuarioID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Project{}, storage.ErrNotFound
		}
		return models.Project{}, fmt.Errorf("scan project: %w", err)
	}
	return project, nil
}

func collectProjects(rows pgx.Rows) ([]models.Project, error) {
	projects := []models.Project{}
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, project)
	}
	return projects, rows.Err()
}

func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolation:
			return storage.ErrAlreadyExists
		case foreignKeyViolation:
			return storage.ErrNotFound
		}
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.ErrNotFound
	}
	return err
}
