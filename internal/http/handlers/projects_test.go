package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/martagil/gestor-be/internal/models"
	"github.com/martagil/gestor-be/internal/models/dto"
)

// Register alice, create P1, list it back; bob must get 403 on alice's project.
func TestProjectOwnershipScenario(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "alice", "alice@x.com", "password123")
	aliceToken := env.login(t, "alice", "password123")

	p1 := env.createProject(t, aliceToken, "P1", "first project")
	assert.Equal(t, alice.ID, p1.UsuarioID)

	status, env2 := env.do(t, http.MethodGet, "/proyectos", aliceToken, nil)
	require.Equal(t, http.StatusOK, status)
	var projects []models.Project
	require.NoError(t, json.Unmarshal(env2.Data, &projects))
	require.Len(t, projects, 1)
	assert.Equal(t, "P1", projects[0].Nombre)
	assert.Equal(t, alice.ID, projects[0].UsuarioID)

	env.register(t, "bob", "bob@x.com", "password123")
	bobToken := env.login(t, "bob", "password123")

	status, _ = env.do(t, http.MethodGet, "/proyectos/"+p1.ID, bobToken, nil)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestProjectListScoping(t *testing.T) {
	env := newTestEnv(t)
	env.seedAdmin(t)
	alice := env.register(t, "alice", "alice@x.com", "password123")
	env.register(t, "bob", "bob@x.com", "password123")

	aliceToken := env.login(t, "alice", "password123")
	bobToken := env.login(t, "bob", "password123")
	adminToken := env.login(t, "admin", adminPassword)

	env.createProject(t, aliceToken, "A1", "")
	env.createProject(t, aliceToken, "A2", "")
	env.createProject(t, bobToken, "B1", "")

	status, env2 := env.do(t, http.MethodGet, "/proyectos", aliceToken, nil)
	require.Equal(t, http.StatusOK, status)
	var own []models.Project
	require.NoError(t, json.Unmarshal(env2.Data, &own))
	require.Len(t, own, 2)
	for _, p := range own {
		assert.Equal(t, alice.ID, p.UsuarioID)
	}

	status, env2 = env.do(t, http.MethodGet, "/proyectos", adminToken, nil)
	require.Equal(t, http.StatusOK, status)
	var all []models.Project
	require.NoError(t, json.Unmarshal(env2.Data, &all))
	assert.Len(t, all, 3)
}

func TestProjectUpdateTouchesModificationDate(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice", "alice@x.com", "password123")
	token := env.login(t, "alice", "password123")

	p := env.createProject(t, token, "P1", "before")
	time.Sleep(10 * time.Millisecond)

	descripcion := "after"
	status, env2 := env.do(t, http.MethodPut, "/proyectos/"+p.ID, token, dto.UpdateProjectRequest{
		Descripcion: &descripcion,
	})
	require.Equal(t, http.StatusOK, status)

	var updated models.Project
	require.NoError(t, json.Unmarshal(env2.Data, &updated))
	assert.Equal(t, "after", updated.Descripcion)
	assert.Equal(t, "P1", updated.Nombre)
	assert.False(t, updated.FechaModificacion.Before(p.FechaModificacion))
	assert.True(t, updated.FechaCreacion.Equal(p.FechaCreacion))
}

func TestProjectMutationsAreOwnerOrAdmin(t *testing.T) {
	env := newTestEnv(t)
	env.seedAdmin(t)
	env.register(t, "alice", "alice@x.com", "password123")
	env.register(t, "bob", "bob@x.com", "password123")

	aliceToken := env.login(t, "alice", "password123")
	bobToken := env.login(t, "bob", "password123")
	adminToken := env.login(t, "admin", adminPassword)

	p := env.createProject(t, aliceToken, "P1", "")
	nombre := "P1-bis"

	status, _ := env.do(t, http.MethodPut, "/proyectos/"+p.ID, bobToken, dto.UpdateProjectRequest{Nombre: &nombre})
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = env.do(t, http.MethodDelete, "/proyectos/"+p.ID, bobToken, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = env.do(t, http.MethodPut, "/proyectos/"+p.ID, adminToken, dto.UpdateProjectRequest{Nombre: &nombre})
	assert.Equal(t, http.StatusOK, status)

	status, _ = env.do(t, http.MethodDelete, "/proyectos/"+p.ID, adminToken, nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = env.do(t, http.MethodGet, "/proyectos/"+p.ID, aliceToken, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestProjectValidation(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice", "alice@x.com", "password123")
	token := env.login(t, "alice", "password123")

	status, _ := env.do(t, http.MethodPost, "/proyectos", token, dto.CreateProjectRequest{Nombre: ""})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = env.do(t, http.MethodPost, "/proyectos", token, dto.CreateProjectRequest{
		Nombre: strings.Repeat("x", 21),
	})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestProjectRoutesRequireAuth(t *testing.T) {
	env := newTestEnv(t)

	for _, route := range []struct{ method, path string }{
		{http.MethodGet, "/proyectos"},
		{http.MethodPost, "/proyectos"},
		{http.MethodGet, "/proyectos/" + uuid.NewString()},
		{http.MethodPut, "/proyectos/" + uuid.NewString()},
		{http.MethodDelete, "/proyectos/" + uuid.NewString()},
	} {
		status, _ := env.do(t, route.method, route.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, status, "%s %s", route.method, route.path)
	}
}

func TestProjectNotFound(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice", "alice@x.com", "password123")
	token := env.login(t, "alice", "password123")

	status, _ := env.do(t, http.MethodGet, "/proyectos/"+uuid.NewString(), token, nil)
	assert.Equal(t, http.StatusNotFound, status)
}
