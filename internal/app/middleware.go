package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/finman/finman/internal/config"
	"github.com/finman/finman/pkg/user"
	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

var errInvalidToken = errors.New("invalid token")

// UserResolver finds the user a request acts for.
type UserResolver interface {
	GetUserByUid(ctx context.Context, uid string) (user.User, error)
}

// SetupMiddleware wires all HTTP middlewares for the application.
func SetupMiddleware(r *mux.Router, deps *Dependencies, cfg config.Application) {
	r.Use(requestLogger)
	r.Use(UserMiddleware(deps.UserService, cfg.Auth.JwtSecret))
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, req)
		log.WithFields(log.Fields{
			"method":   req.Method,
			"path":     req.URL.Path,
			"duration": time.Since(start),
		}).Debug("request handled")
	})
}

// UserMiddleware puts the calling user into the request context. With a JWT secret the user uid is
// read from the "sub" claim of the Bearer token; without one the X-User-Id header is trusted.
// Requests carrying no identity pass through without a user and are rejected by the handlers.
// Registration only carries the identity, since its user does not exist yet.
func UserMiddleware(users UserResolver, jwtSecret string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := req.Context()

			uid, err := userUid(req, jwtSecret)
			if err != nil {
				log.Debugf("rejecting request to %s: %v", req.URL.Path, err)
				http.Error(w, err.Error(), http.StatusUnauthorized)
				return
			}

			if isRegistration(req) {
				if uid != "" {
					ctx = user.WithIdentity(ctx, uid)
				}
				next.ServeHTTP(w, req.WithContext(ctx))
				return
			}

			if uid != "" {
				u, err := users.GetUserByUid(ctx, uid)
				if err != nil {
					if errors.Is(err, user.ErrUserNotFound) {
						log.Debugf("user not found: %s", uid)
						http.Error(w, "user not found", http.StatusForbidden)
						return
					}
					log.Errorf("failed to get user: %v", err)
					http.Error(w, err.Error(), http.StatusInternalServerError)
					return
				}
				ctx = user.WithUser(ctx, u)
			}
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	}
}

func isRegistration(req *http.Request) bool {
	return req.Method == http.MethodPost && req.URL.Path == "/api/user"
}

func userUid(req *http.Request, jwtSecret string) (string, error) {
	if jwtSecret == "" {
		return req.Header.Get("X-User-Id"), nil
	}

	header := req.Header.Get("Authorization")
	if header == "" {
		return "", nil
	}
	tokenString, found := strings.CutPrefix(header, "Bearer ")
	if !found {
		return "", errInvalidToken
	}

	claims, err := parseToken(tokenString, jwtSecret)
	if err != nil {
		return "", err
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", fmt.Errorf("%w: missing subject", errInvalidToken)
	}
	return sub, nil
}

func parseToken(tokenString, secret string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, errInvalidToken
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errInvalidToken
	}
	return claims, nil
}
