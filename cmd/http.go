package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/google"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/oseayemenre/libsy/internal/cache"
	"github.com/oseayemenre/libsy/internal/config"
	"github.com/oseayemenre/libsy/internal/logger"
	"github.com/oseayemenre/libsy/internal/migrate"
	"github.com/oseayemenre/libsy/internal/notify"
	"github.com/oseayemenre/libsy/internal/routes"
	"github.com/oseayemenre/libsy/internal/shared"
	"github.com/oseayemenre/libsy/internal/store"
)

type Server struct {
	*shared.Server
}

func NewServer(logger logger.Logger, objectStore store.ObjectStore, store store.Store, cache cache.Cache, notifier notify.Notifier, cfg *config.Config) *Server {
	return &Server{
		Server: &shared.Server{
			Logger:      logger,
			ObjectStore: objectStore,
			Store:       store,
			Cache:       cache,
			Notifier:    notifier,
			Config:      cfg,
		},
	}
}

func (s *Server) Mount() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("woosh! 🚀🚀\n"))
	})

	s.Server.Router = r

	server := routes.NewServer(s.Server)

	server.RegisterRoutes()

	return r
}

func loadConfig() (*config.Config, error) {
	viper.SetConfigFile("internal/config/.env")
	viper.SetConfigType("env")
	viper.AutomaticEnv()

	viper.SetDefault("MAX_ISSUED_BOOKS", 3)
	viper.SetDefault("LOAN_PERIOD_DAYS", 7)
	viper.SetDefault("OBJECT_STORE", "cloudinary")
	viper.SetDefault("HOST", "http://localhost:8080")

	if err := viper.ReadInConfig(); err != nil {
		// env vars alone are enough in containers
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return nil, fmt.Errorf("error reading in config: %v", err)
		}
	}

	var cfg config.Config

	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %v", err)
	}

	return &cfg, nil
}

func newObjectStore(ctx context.Context, cfg *config.Config) (store.ObjectStore, error) {
	switch cfg.Object_store {
	case "cloudinary":
		cloudinaryCfg, err := cloudinary.NewFromParams(cfg.Cloudinary_cloud, cfg.Cloudinary_key, cfg.Cloudinary_secret)

		if err != nil {
			return nil, fmt.Errorf("error configuring cloudinary: %v", err)
		}

		return store.NewCloudinaryStore(cloudinaryCfg), nil

	case "s3":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)

		if err != nil {
			return nil, fmt.Errorf("error loading aws config: %v", err)
		}

		return store.NewS3Store(s3.NewFromConfig(awsCfg), cfg.S3_bucket), nil
	}

	return nil, fmt.Errorf("object store can only be cloudinary or s3")
}

func HTTPCommand(ctx context.Context) *cobra.Command {
	var addr int
	var env string

	cmd := &cobra.Command{
		Use:   "http",
		Short: "run libsy http server",
		RunE: func(cmd *cobra.Command, args []string) error {
			sig := make(chan os.Signal, 1)
			signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

			var handler slog.Handler

			switch env {
			case "dev":
				handler = slog.Handler(slog.NewTextHandler(os.Stderr, nil))
			case "prod":
				handler = slog.Handler(slog.NewJSONHandler(os.Stderr, nil))
			default:
				return fmt.Errorf("environment can only be dev or prod")
			}

			baseLogger := slog.New(handler).With(
				slog.String("app", "libsy"),
				slog.String("runtime", runtime.Version()),
				slog.String("os", runtime.GOOS),
				slog.String("architecture", runtime.GOARCH),
				slog.String("version", "1.0"),
			)

			cfg, err := loadConfig()

			if err != nil {
				return err
			}

			goth.UseProviders(google.New(
				cfg.Google_client_id,
				cfg.Google_client_secret,
				fmt.Sprintf("%s/api/v1/auth/google/callback", cfg.Host),
				"email", "profile",
			))
			gothic.Store = sessions.NewCookieStore([]byte(cfg.Session_secret))

			log := logger.NewSlogLogger(baseLogger)

			objectStore, err := newObjectStore(ctx, cfg)

			if err != nil {
				return err
			}

			if err := migrate.Up(ctx, cfg.Db_conn); err != nil {
				return fmt.Errorf("error running migrations: %v", err)
			}

			db, err := store.NewPostgresStore(cfg.Db_conn)

			if err != nil {
				return err
			}

			var catalogCache cache.Cache

			if cfg.Redis_addr != "" {
				redisCache, err := cache.NewRedisCache(ctx, cfg.Redis_addr)

				if err != nil {
					return err
				}

				catalogCache = redisCache
			} else {
				log.Warn("server startup", "status", "no redis address set, catalog cache disabled")
			}

			notifier, err := notify.NewAmqpNotifier(cfg.Amqp_conn)

			if err != nil {
				return err
			}
			defer notifier.Close()

			baseServer := NewServer(log, objectStore, db, catalogCache, notifier, cfg)

			httpServer := &http.Server{
				Addr:        fmt.Sprintf(":%d", addr),
				Handler:     baseServer.Mount(),
				IdleTimeout: 15 * time.Minute,
			}
			errCh := make(chan error, 1)

			log.Info("server startup", "status", fmt.Sprintf("server starting on port: %d", addr))
			go func() {
				if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- err
				}
			}()

			select {
			case err := <-errCh:
				return err

			case <-sig:
				log.Info("server shutdown", "status", "kill signal recieved")
				ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
				defer cancel()

				if err := httpServer.Shutdown(ctx); err != nil {
					return fmt.Errorf("error shutting down server: %v", err)
				}

				log.Info("server shutdown", "status", "shutdown complete...")
				return nil
			}
		},
	}

	cmd.Flags().IntVarP(&addr, "addr", "a", 8080, "server address")
	cmd.Flags().StringVarP(&env, "env", "e", "dev", "current working environment")

	return cmd
}
