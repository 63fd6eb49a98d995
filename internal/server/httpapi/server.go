// Package httpapi exposes the application over HTTP/JSON: a gin router with
// the auth endpoints, the bearer-protected todo endpoints and the static web
// UI. It is the single place where domain errors become status codes.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/todokeeper/internal/logging"
	"github.com/dmitrijs2005/todokeeper/internal/server/config"
	"github.com/dmitrijs2005/todokeeper/internal/server/services"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	address   string
	logger    logging.Logger
	users     *services.UserService
	todos     *services.TodoService
	jwtSecret []byte
	cfg       *config.Config
}

func NewServer(cfg *config.Config, l logging.Logger, us *services.UserService, ts *services.TodoService) *Server {
	return &Server{
		address:   cfg.EndpointAddr,
		logger:    l.With("module", "httpapi"),
		users:     us,
		todos:     ts,
		jwtSecret: []byte(cfg.JWTSecret),
		cfg:       cfg,
	}
}

// Router builds the gin engine with middleware and all routes registered.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(s.cfg.GinMode)

	router := gin.New()
	router.Use(s.requestID(), s.requestLogger(), gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = strings.Split(s.cfg.CORSAllowedOrigins, ",")
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	router.Use(cors.New(corsConfig))

	router.GET("/health", s.handleHealth)

	api := router.Group("/api")
	{
		api.GET("", s.handleAPIIndex)

		authRoutes := api.Group("/auth")
		{
			authRoutes.POST("/register", s.handleRegister)
			authRoutes.POST("/login", s.handleLogin)
		}

		protected := api.Group("/todos")
		protected.Use(s.requireAuth())
		{
			protected.GET("", s.handleListTodos)
			protected.POST("", s.handleCreateTodo)
			protected.GET("/:id", s.handleGetTodo)
			protected.PUT("/:id", s.handleUpdateTodo)
			protected.DELETE("/:id", s.handleDeleteTodo)
		}
	}

	// the web UI ships as a prebuilt static asset, nothing is rendered here
	if s.cfg.StaticDir != "" {
		router.StaticFile("/", filepath.Join(s.cfg.StaticDir, "index.html"))
		router.Static("/static", s.cfg.StaticDir)
	}

	return router
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {

	srv := &http.Server{
		Addr:    s.address,
		Handler: s.Router(),
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "shutdown error", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "todokeeper",
	})
}

// handleAPIIndex returns a JSON map of the available endpoints.
func (s *Server) handleAPIIndex(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Welcome to todokeeper API",
		"endpoints": gin.H{
			"auth": gin.H{
				"register": "POST /api/auth/register",
				"login":    "POST /api/auth/login",
			},
			"todos": gin.H{
				"get_all": "GET /api/todos",
				"create":  "POST /api/todos",
				"get_one": "GET /api/todos/:id",
				"update":  "PUT /api/todos/:id",
				"delete":  "DELETE /api/todos/:id",
			},
		},
	})
}
