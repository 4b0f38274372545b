package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/fjod/go_market/internal/domain"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ctxKey int

const (
	actorKey ctxKey = iota
	requestIDKey
)

const RequestIDHeader = "X-Request-ID"

// Claims are the bearer token claims issued by the identity service. The
// subject holds the user's ObjectID in hex.
type Claims struct {
	Role domain.Role `json:"role"`
	jwt.RegisteredClaims
}

var errInvalidToken = errors.New("invalid or expired token")

// AuthMiddleware verifies the HS256 bearer token and stores the caller in the
// request context.
func AuthMiddleware(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || raw == "" {
				respondError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			actor, err := parseToken(raw, secret)
			if err != nil {
				slog.DebugContext(r.Context(), "token rejected", "error", err)
				respondError(w, http.StatusUnauthorized, errInvalidToken.Error())
				return
			}

			ctx := context.WithValue(r.Context(), actorKey, actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func parseToken(raw string, secret []byte) (domain.Actor, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return domain.Actor{}, err
	}

	id, err := primitive.ObjectIDFromHex(claims.Subject)
	if err != nil {
		return domain.Actor{}, errInvalidToken
	}
	role := claims.Role
	if role == "" {
		role = domain.RoleCustomer
	}
	return domain.Actor{ID: id, Role: role}, nil
}

// RequireRole lets the request through only for the listed roles. Admins
// always pass.
func RequireRole(roles ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := actorFromContext(r.Context())
			if !ok {
				respondError(w, http.StatusUnauthorized, "missing user authentication")
				return
			}
			if !actor.IsAdmin() && !slices.Contains(roles, actor.Role) {
				respondError(w, http.StatusForbidden, "insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func actorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorKey).(domain.Actor)
	return actor, ok
}

// RequestIDMiddleware adds a unique request ID to each request
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		w.Header().Set(RequestIDHeader, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func getRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(requestIDKey).(string); ok {
		return requestID
	}
	return ""
}

func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			slog.InfoContext(r.Context(), "http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", getRequestID(r.Context()),
			)
		}()
		next.ServeHTTP(ww, r)
	})
}
