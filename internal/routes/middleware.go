package routes

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/oseayemenre/libsy/internal/jwt"
	"github.com/oseayemenre/libsy/internal/models"
	"github.com/oseayemenre/libsy/internal/store"
)

type responseWriterWrapper struct {
	http.ResponseWriter
	statusCode int
}

func newResponseWriterWrapper(w http.ResponseWriter) *responseWriterWrapper {
	return &responseWriterWrapper{ResponseWriter: w, statusCode: http.StatusOK}
}

func (w *responseWriterWrapper) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}

func (s *Server) LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := newResponseWriterWrapper(w)

		next.ServeHTTP(ww, r)

		duration := time.Since(start)

		s.Server.Logger.Info(
			"request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.String()),
			slog.Int("status", ww.statusCode),
			slog.String("duration", duration.String()),
			slog.String("remote_addr", r.RemoteAddr),
			slog.String("user_agent", r.UserAgent()),
		)
	})
}

// Authenticate accepts either a bearer Authorization header or the
// access_token cookie the login flow sets.
func (s *Server) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var token string

		if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
			token = strings.TrimPrefix(header, "Bearer ")
		} else if cookie, err := r.Cookie("access_token"); err == nil {
			token = cookie.Value
		}

		if token == "" {
			s.Logger.Warn("no credentials on request", "status", "permission denied")
			respondWithError(w, http.StatusUnauthorized, fmt.Errorf("authorization header or access token cookie required"))
			return
		}

		id, err := jwt.DecodeJWTToken(token, s.Config.Jwt_secret)

		if err != nil {
			s.Logger.Warn(err.Error(), "status", "permission denied")
			respondWithError(w, http.StatusUnauthorized, err)
			return
		}

		db_user, err := s.Store.GetUserById(r.Context(), id)

		if err != nil {
			if err == store.ErrUserNotFound {
				s.Logger.Warn(err.Error(), "service", "middleware")
				respondWithError(w, http.StatusNotFound, err)
				return
			}
			s.Logger.Error(err.Error(), "service", "middleware")
			respondWithError(w, http.StatusInternalServerError, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), "user", db_user)))
	})
}

func (s *Server) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := r.Context().Value("user").(*models.User)

		if !ok || user.Role != "admin" {
			s.Logger.Warn("admin access required", "status", "permission denied")
			respondWithError(w, http.StatusForbidden, fmt.Errorf("admin access required"))
			return
		}

		next.ServeHTTP(w, r)
	})
}
