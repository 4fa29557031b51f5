package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/martagil/gestor-be/internal/auth"
	"github.com/martagil/gestor-be/internal/middleware"
	"github.com/martagil/gestor-be/internal/models"
	"github.com/martagil/gestor-be/internal/models/dto"
	"github.com/martagil/gestor-be/internal/storage/memory"
)

const adminPassword = "admin-secret-1"

type testEnv struct {
	store  *memory.Store
	tokens *auth.TokenManager
	ts     *httptest.Server
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := memory.NewStore()
	tokens := auth.NewTokenManager("test-secret", "gestor-test", time.Hour)
	logger := zap.NewNop()
	authn := middleware.NewAuthenticator(tokens, store, logger)

	router := mux.NewRouter()
	NewAuthHandler(store, tokens, logger).Register(router)
	NewUserHandler(store, logger).Register(router, authn)
	NewProjectHandler(store, logger).Register(router, authn)

	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)

	return &testEnv{store: store, tokens: tokens, ts: ts}
}

func (e *testEnv) seedAdmin(t *testing.T) models.User {
	t.Helper()
	hash, err := auth.HashPassword(adminPassword)
	require.NoError(t, err)

	admin := models.User{
		ID:           uuid.NewString(),
		Username:     "admin",
		Nombre:       "admin",
		Apellidos:    "administrador",
		Email:        "admin@admin.es",
		PasswordHash: hash,
		Roles:        []models.Role{models.RoleAdmin},
		Active:       true,
	}
	require.NoError(t, e.store.Bootstrap(context.Background(), admin))
	return admin
}

// do issues a request and decodes the response envelope.
func (e *testEnv) do(t *testing.T, method, path, token string, body any) (int, envelope) {
	t.Helper()
	resp := e.doRaw(t, method, path, token, body)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

// doRaw issues a request and returns the undecoded response.
func (e *testEnv) doRaw(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}
	req, err := http.NewRequest(method, e.ts.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func (e *testEnv) register(t *testing.T, username, email, password string) models.User {
	t.Helper()
	status, env := e.do(t, http.MethodPost, "/usuarios", "", dto.CreateUserRequest{
		Username:  username,
		Nombre:    username,
		Apellidos: "test",
		Email:     email,
		Password:  password,
	})
	require.Equal(t, http.StatusCreated, status, env.Message)

	var user models.User
	require.NoError(t, json.Unmarshal(env.Data, &user))
	return user
}

func (e *testEnv) login(t *testing.T, identifier, password string) string {
	t.Helper()
	status, env := e.do(t, http.MethodPost, "/login", "", dto.LoginRequest{
		Username: identifier,
		Password: password,
	})
	require.Equal(t, http.StatusOK, status, env.Message)

	var out dto.LoginResponse
	require.NoError(t, json.Unmarshal(env.Data, &out))
	require.NotEmpty(t, out.Token)
	return out.Token
}

func (e *testEnv) createProject(t *testing.T, token, nombre, descripcion string) models.Project {
	t.Helper()
	status, env := e.do(t, http.MethodPost, "/proyectos", token, dto.CreateProjectRequest{
		Nombre:      nombre,
		Descripcion: descripcion,
	})
	require.Equal(t, http.StatusCreated, status, env.Message)

	var project models.Project
	require.NoError(t, json.Unmarshal(env.Data, &project))
	return project
}
