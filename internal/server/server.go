package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/trailtrace/apiserver/config"
	"github.com/trailtrace/apiserver/internal/db"
	"github.com/trailtrace/apiserver/internal/handlers"
	"github.com/trailtrace/apiserver/internal/logger"
	"github.com/trailtrace/apiserver/internal/media"
	"github.com/trailtrace/apiserver/internal/services"
	"github.com/trailtrace/apiserver/internal/store"
	"go.uber.org/zap"
)

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
}

// New constructs a Server with basic middleware and defaults.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	if err := logger.Init(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT")); err != nil {
		return nil, err
	}

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	jwtSecret := strings.TrimSpace(cfg.JWTSecret)
	if jwtSecret == "" {
		_ = dbConn.Close()
		return nil, errors.New("JWT_SECRET is required")
	}

	mediaStore, localBackend, err := newMediaStore(ctx, cfg.Media)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}
	if err := mediaStore.EnsureReady(ctx); err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	trailRepo := store.NewTrailRepository(dbConn)
	userRepo := store.NewUserRepository(dbConn)
	pointRepo := store.NewSpecialPointRepository(dbConn)

	pointService := services.NewSpecialPointService(pointRepo)
	trailService := services.NewTrailService(trailRepo, pointRepo)
	userService := services.NewUserService(userRepo)

	authMiddleware := handlers.RequireAuth(jwtSecret)

	userHandler := handlers.NewUserHandler(userService, trailService, mediaStore, jwtSecret)
	trailHandler := handlers.NewTrailHandler(trailService, mediaStore)
	pointHandler := handlers.NewSpecialPointHandler(pointService)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	router.Get("/", handlers.Welcome)
	router.Get("/healthz", handlers.Healthz)
	router.Get("/api/test", handlers.APITest)
	router.Route("/api/users", func(r chi.Router) {
		handlers.UserRouter(r, userHandler, authMiddleware)
	})
	router.Route("/api/trails", func(r chi.Router) {
		handlers.TrailRouter(r, trailHandler, authMiddleware)
	})
	router.Route("/api/special-points", func(r chi.Router) {
		handlers.SpecialPointRouter(r, pointHandler)
	})

	// Local media is served back under /uploads; bucket backends return
	// absolute URLs instead.
	if localBackend != nil {
		fileServer := http.FileServer(http.Dir(localBackend.Dir()))
		router.Handle(media.PublicPathPrefix+"/*", http.StripPrefix(media.PublicPathPrefix+"/", fileServer))
	}

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Get().Info("server configured",
		zap.Int("port", port),
		zap.String("media_backend", cfg.Media.Backend),
	)

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
	}, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown attempts a graceful shutdown.
func (s *Server) Shutdown() error {
	if s.db != nil {
		_ = s.db.Close()
	}
	_ = logger.Sync()
	return s.httpServer.Close()
}

func newMediaStore(ctx context.Context, cfg config.MediaConfig) (*media.Store, *media.LocalBackend, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "minio":
		backend, err := media.NewMinioBackend(cfg.Minio)
		if err != nil {
			return nil, nil, err
		}
		return media.NewStore(backend), nil, nil
	case "gcs":
		backend, err := media.NewGCSBackend(ctx, cfg.GCS)
		if err != nil {
			return nil, nil, err
		}
		return media.NewStore(backend), nil, nil
	default:
		backend, err := media.NewLocalBackend(cfg.UploadDir)
		if err != nil {
			return nil, nil, err
		}
		return media.NewStore(backend), backend, nil
	}
}
