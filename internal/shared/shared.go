package shared

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/oseayemenre/libsy/internal/cache"
	"github.com/oseayemenre/libsy/internal/config"
	"github.com/oseayemenre/libsy/internal/logger"
	"github.com/oseayemenre/libsy/internal/notify"
	"github.com/oseayemenre/libsy/internal/store"
)

type Server struct {
	Router      *chi.Mux
	Logger      logger.Logger
	Store       store.Store
	ObjectStore store.ObjectStore
	Cache       cache.Cache
	Notifier    notify.Notifier
	Config      *config.Config
}

var Validate = validator.New()
