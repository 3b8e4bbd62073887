package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/finman/finman/pkg/user"
	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type failingResolver struct{}

func (failingResolver) GetUserByUid(ctx context.Context, uid string) (user.User, error) {
	return user.User{}, errors.New("connection refused")
}

func setupRouter(t *testing.T, users UserResolver, secret string) *mux.Router {
	t.Helper()
	r := mux.NewRouter()
	r.Use(UserMiddleware(users, secret))
	r.HandleFunc("/api/whoami", func(w http.ResponseWriter, req *http.Request) {
		u, err := user.CurrentUser(req.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		w.Write([]byte(u.Uid))
	})
	r.HandleFunc("/api/user", func(w http.ResponseWriter, req *http.Request) {
		uid, _ := user.Identity(req.Context())
		w.Write([]byte(uid))
	}).Methods("POST")
	return r
}

func signToken(t *testing.T, method jwt.SigningMethod, key any, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func newUsers(t *testing.T) *user.StubUserRepository {
	t.Helper()
	repo := user.NewStubUserRepository()
	_, err := repo.CreateUser(context.Background(), user.User{Uid: "uid-1", Username: "alice"})
	require.NoError(t, err)
	return repo
}

func TestUserMiddleware_Header(t *testing.T) {
	router := setupRouter(t, newUsers(t), "")

	t.Run("should put the header user into the context", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/whoami", nil)
		req.Header.Set("X-User-Id", "uid-1")
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "uid-1", rr.Body.String())
	})

	t.Run("should reject an unknown user", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/whoami", nil)
		req.Header.Set("X-User-Id", "uid-2")
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("should pass anonymous requests without a user", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/whoami", nil)
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("should fail when the user lookup fails", func(t *testing.T) {
		router := setupRouter(t, failingResolver{}, "")
		req := httptest.NewRequest(http.MethodGet, "/api/whoami", nil)
		req.Header.Set("X-User-Id", "uid-1")
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
	})
}

func TestUserMiddleware_Token(t *testing.T) {
	router := setupRouter(t, newUsers(t), testSecret)

	send := func(authorization string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/whoami", nil)
		if authorization != "" {
			req.Header.Set("Authorization", authorization)
		}
		// ignored once a secret is configured
		req.Header.Set("X-User-Id", "uid-1")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		return rr
	}

	t.Run("should accept a valid token", func(t *testing.T) {
		token := signToken(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{
			"sub": "uid-1",
			"exp": time.Now().Add(time.Hour).Unix(),
		})

		rr := send("Bearer " + token)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "uid-1", rr.Body.String())
	})

	t.Run("should ignore the header without a token", func(t *testing.T) {
		rr := send("")

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Contains(t, rr.Body.String(), user.ErrNoUser.Error())
	})

	t.Run("should reject a token signed with another secret", func(t *testing.T) {
		token := signToken(t, jwt.SigningMethodHS256, []byte("other"), jwt.MapClaims{"sub": "uid-1"})

		rr := send("Bearer " + token)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Contains(t, rr.Body.String(), errInvalidToken.Error())
	})

	t.Run("should reject an expired token", func(t *testing.T) {
		token := signToken(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{
			"sub": "uid-1",
			"exp": time.Now().Add(-time.Hour).Unix(),
		})

		rr := send("Bearer " + token)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("should reject a token without subject", func(t *testing.T) {
		token := signToken(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{"name": "alice"})

		rr := send("Bearer " + token)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("should reject a non bearer authorization", func(t *testing.T) {
		rr := send("Basic dXNlcjpwYXNz")

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("should let a new user register with the token subject", func(t *testing.T) {
		token := signToken(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{"sub": "uid-new"})
		req := httptest.NewRequest(http.MethodPost, "/api/user", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "uid-new", rr.Body.String())
	})

	t.Run("should reject registration with an invalid token", func(t *testing.T) {
		token := signToken(t, jwt.SigningMethodHS256, []byte("other"), jwt.MapClaims{"sub": "uid-new"})
		req := httptest.NewRequest(http.MethodPost, "/api/user", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("should forbid a token of an unknown user", func(t *testing.T) {
		token := signToken(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{"sub": "uid-9"})

		rr := send("Bearer " + token)

		assert.Equal(t, http.StatusForbidden, rr.Code)
	})
}
