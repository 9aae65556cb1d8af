package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/oseayemenre/libsy/internal/shared"
)

type Server struct {
	*shared.Server
	hub *hub
}

func NewServer(server *shared.Server) *Server {
	s := &Server{Server: server, hub: newHub()}

	go s.runHub()

	return s
}

func (s *Server) RegisterRoutes() {
	s.Server.Router.Route("/api/v1", func(r chi.Router) {
		r.Use(s.LoggingMiddleware)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", s.HandleRegister)
			r.Post("/login", s.HandleLogin)
			r.Post("/logout", s.HandleLogout)
			r.Post("/refresh-token", s.HandleRefreshToken)
			r.Post("/forgot-password", s.HandleForgotPassword)
			r.Post("/reset-password", s.HandleResetPassword)
			r.Get("/google", s.HandleGoogleSignIn)
			r.Get("/google/callback", s.HandleGoogleSignInCallback)

			r.Group(func(r chi.Router) {
				r.Use(s.Authenticate)
				r.Get("/profile", s.HandleGetProfile)
				r.Put("/profile", s.HandleUpdateProfile)
			})
		})

		r.Route("/books", func(r chi.Router) {
			r.Use(s.Authenticate)
			r.Get("/", s.HandleGetBooks)
			r.Get("/mine", s.HandleGetMyBooks)
			r.Post("/{bookID}/issue", s.HandleIssueBook)
			r.Post("/{bookID}/return", s.HandleReturnBook)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(s.Authenticate, s.RequireAdmin)
			r.Get("/users", s.HandleGetUsers)
			r.Delete("/users/{userID}", s.HandleDeleteUser)
			r.Post("/books", s.HandleCreateBook)
			r.Put("/books/{bookID}", s.HandleEditBook)
			r.Delete("/books/{bookID}", s.HandleDeleteBook)
			r.Get("/history", s.HandleGetHistory)
			r.Delete("/history", s.HandlePurgeHistory)
			r.Get("/events", s.HandleEvents)
		})
	})
}
