package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"user-service/internal/domain"
	oauth2svc "user-service/internal/service/oauth2"
	"user-service/internal/usecase"
	"user-service/pkg/id"
	"user-service/pkg/jwtutil"
	"user-service/pkg/middleware"
	"user-service/pkg/xerrors"
)

// memRepo is a minimal in-memory store for wiring real handlers in tests.
type memRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newMemRepo() *memRepo { return &memRepo{users: map[string]*domain.User{}} }

func (r *memRepo) Create(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; ok {
		return xerrors.ErrUserAlreadyExists
	}
	for _, u := range r.users {
		if u.Email == user.Email {
			return xerrors.ErrEmailAlreadyInUse
		}
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	c := *user
	r.users[user.ID] = &c
	return nil
}

func (r *memRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, xerrors.ErrUserNotFound
	}
	c := *u
	return &c, nil
}

func (r *memRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, xerrors.ErrUserNotFound
}

func (r *memRepo) List(ctx context.Context, filter domain.ListFilter) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*domain.User{}
	for _, u := range r.users {
		c := *u
		out = append(out, &c)
	}
	return out, nil
}

func (r *memRepo) Update(ctx context.Context, id string, update *domain.UserUpdate) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, xerrors.ErrUserNotFound
	}
	if update.Name != nil {
		u.Name = update.Name
	}
	if update.Phone != nil {
		u.Phone = update.Phone
	}
	if update.Bio != nil {
		u.Bio = update.Bio
	}
	if update.Location != nil {
		u.Location = update.Location
	}
	u.UpdatedAt = time.Now().UTC()
	c := *u
	return &c, nil
}

func (r *memRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return xerrors.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *memRepo) Health(ctx context.Context) error { return nil }

type dropProducer struct{}

func (dropProducer) PublishUserEvent(ctx context.Context, event *usecase.UserEvent) error {
	return nil
}
func (dropProducer) Close() error { return nil }

type staticVerifier struct {
	identity *oauth2svc.Identity
	err      error
}

func (v staticVerifier) Verify(ctx context.Context, assertion string) (*oauth2svc.Identity, error) {
	if v.err != nil {
		return nil, v.err
	}
	return v.identity, nil
}

type testEnv struct {
	router chi.Router
	repo   *memRepo
	gen    *jwtutil.Generator
}

func newTestEnv(t *testing.T, verifier oauth2svc.Verifier) *testEnv {
	t.Helper()

	secret := []byte("handler-secret")
	gen := jwtutil.NewGenerator(secret, "user-service", time.Hour)
	ver := jwtutil.NewVerifier(secret, "user-service")

	sf, err := id.NewSnowflake(3)
	require.NoError(t, err)

	repo := newMemRepo()
	uc := usecase.NewUserUsecase(repo, sf, verifier, gen, dropProducer{}, zap.NewNop())
	h := NewUserHandler(uc, zap.NewNop())

	// Route table mirrors the production router, minus CORS/rate limiting.
	r := chi.NewRouter()
	r.Get("/", h.Root)
	r.Get("/health", h.Health)
	r.Get("/health/{path_echo}", h.HealthWithPath)
	r.Route("/api/v1", func(api chi.Router) {
		api.Post("/auth/google", h.GoogleAuthHandler)
		api.Post("/users", h.CreateUser)
		api.Get("/users", h.ListUsers)
		api.Get("/users/{id}", h.GetUser)
		api.Group(func(g chi.Router) {
			g.Use(middleware.NewAuthMiddleware(ver).RequireAuth())
			g.Patch("/users/{id}", h.UpdateUser)
			g.Delete("/users/{id}", h.DeleteUser)
		})
	})

	return &testEnv{router: r, repo: repo, gen: gen}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) seed(t *testing.T, id, email string) *domain.User {
	t.Helper()
	u := &domain.User{ID: id, Email: email}
	require.NoError(t, e.repo.Create(context.Background(), u))
	return u
}

func TestCreateUserHandler(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, staticVerifier{})

	rec := env.do(t, http.MethodPost, "/api/v1/users", "", map[string]any{
		"email": "new@example.com",
		"name":  "New Person",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	// Same email again → conflict.
	rec = env.do(t, http.MethodPost, "/api/v1/users", "", map[string]any{
		"email": "new@example.com",
	})
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestCreateUserHandler_RejectsBadPayloads(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, staticVerifier{})

	rec := env.do(t, http.MethodPost, "/api/v1/users", "", map[string]any{"email": "not-an-email"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/users", "", map[string]any{
		"email": "ok@example.com",
		"phone": "12ab",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetUserHandler_NotFound(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, staticVerifier{})
	rec := env.do(t, http.MethodGet, "/api/v1/users/nope", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateUser_RequiresToken(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, staticVerifier{})
	env.seed(t, "u-1", "u1@example.com")

	rec := env.do(t, http.MethodPatch, "/api/v1/users/u-1", "", map[string]any{"bio": "x"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

// Subject mismatch is forbidden even when the target account does not exist.
func TestUpdateUser_ForbiddenForOtherSubject(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, staticVerifier{})
	tok, err := env.gen.Generate("u-1", "u1@example.com")
	require.NoError(t, err)

	rec := env.do(t, http.MethodPatch, "/api/v1/users/u-2", tok, map[string]any{"bio": "x"})
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/v1/users/does-not-exist", tok, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestUpdateUser_SelfSucceeds(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, staticVerifier{})
	env.seed(t, "u-1", "u1@example.com")

	tok, err := env.gen.Generate("u-1", "u1@example.com")
	require.NoError(t, err)

	rec := env.do(t, http.MethodPatch, "/api/v1/users/u-1", tok, map[string]any{"bio": "hello"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data domain.User `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Data.Bio)
	require.Equal(t, "hello", *resp.Data.Bio)
}

func TestDeleteUser_SelfSucceeds(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, staticVerifier{})
	env.seed(t, "u-9", "u9@example.com")

	tok, err := env.gen.Generate("u-9", "u9@example.com")
	require.NoError(t, err)

	rec := env.do(t, http.MethodDelete, "/api/v1/users/u-9", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/users/u-9", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGoogleAuthHandler(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, staticVerifier{identity: &oauth2svc.Identity{
		Email:     "login@example.com",
		FirstName: "Log",
		LastName:  "In",
	}})

	rec := env.do(t, http.MethodPost, "/api/v1/auth/google", "", map[string]any{"id_token": "assertion"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data usecase.LoginResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Data.Token)
	require.Equal(t, "login@example.com", resp.Data.User.Email)
}

func TestGoogleAuthHandler_BadAssertion(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, staticVerifier{err: xerrors.ErrUnauthorized})

	rec := env.do(t, http.MethodPost, "/api/v1/auth/google", "", map[string]any{"id_token": "bogus"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/auth/google", "", map[string]any{})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRootHandler(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, staticVerifier{})

	rec := env.do(t, http.MethodGet, "/", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "Welcome to the Users API", resp.Data["message"])
}

func TestHealthHandler(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, staticVerifier{})

	rec := env.do(t, http.MethodGet, "/health?echo=hi", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data HealthStatus `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "OK", resp.Data.StatusMessage)
	require.Equal(t, "hi", resp.Data.Echo)
	require.Equal(t, "up", resp.Data.Database)

	rec = env.do(t, http.MethodGet, "/health/ping", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "ping", resp.Data.PathEcho)
}
