package middleware

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"orgdash/database"
	"orgdash/models"
)

func newRepoWithUser(t *testing.T, role models.Role, active bool) (database.Repository, *models.User) {
	t.Helper()
	repo := database.NewMemoryRepository()
	u := &models.User{Username: "alice", Role: role, Active: active}
	require.NoError(t, repo.CreateUser(u))
	return repo, u
}

func decodeEnvelope(t *testing.T, body io.Reader) map[string]any {
	t.Helper()
	var env map[string]any
	require.NoError(t, json.NewDecoder(body).Decode(&env))
	return env
}

func TestGenerateAndValidateToken(t *testing.T) {
	SetJWTSecret("test-secret")
	user := &models.User{ID: 7, Username: "bob", Role: models.RoleSupervisor, OrganizationID: 3}

	token, err := GenerateToken(user, time.Hour)
	require.NoError(t, err)

	claims, err := ValidateToken(token)
	require.NoError(t, err)
	require.Equal(t, uint(7), claims.UserID)
	require.Equal(t, models.RoleSupervisor, claims.Role)
	require.Equal(t, uint(3), claims.OrganizationID)

	SetJWTSecret("other-secret")
	_, err = ValidateToken(token)
	require.Error(t, err)
}

func TestValidateToken_Expired(t *testing.T) {
	SetJWTSecret("test-secret")
	token, err := GenerateToken(&models.User{ID: 1}, -time.Minute)
	require.NoError(t, err)
	_, err = ValidateToken(token)
	require.Error(t, err)
}

func TestAuth(t *testing.T) {
	SetJWTSecret("test-secret")
	repo, user := newRepoWithUser(t, models.RoleAdmin, true)
	token, err := GenerateToken(user, time.Hour)
	require.NoError(t, err)

	var seen *models.User
	h := Auth(repo)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetUserFromContext(r.Context())
	}))

	t.Run("missing token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		env := decodeEnvelope(t, rec.Body)
		require.Equal(t, false, env["success"])
		require.Equal(t, "UNAUTHORIZED", env["code"])
	})

	t.Run("garbage token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer nope")
		h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, seen)
		require.Equal(t, user.ID, seen.ID)
	})
}

func TestAuth_InactiveUserRejected(t *testing.T) {
	SetJWTSecret("test-secret")
	repo, user := newRepoWithUser(t, models.RoleEmployee, false)
	token, err := GenerateToken(user, time.Hour)
	require.NoError(t, err)

	h := Auth(repo)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRole(t *testing.T) {
	h := RequireRole(models.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	h.ServeHTTP(rec, req.WithContext(WithUser(req.Context(), &models.User{Role: models.RoleEmployee})))
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req.WithContext(WithUser(req.Context(), &models.User{Role: models.RoleAdmin})))
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRequestID(t *testing.T) {
	var got string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	h.ServeHTTP(rec, req)
	require.Equal(t, "req-123", got)
	require.Equal(t, "req-123", rec.Header().Get(RequestIDHeader))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NotEmpty(t, got)
	require.NotEqual(t, "req-123", got)
}

func TestRecovery(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)
	h := Recovery(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}
