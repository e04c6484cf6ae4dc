package http

import (
	"context"
	"log/slog"
	"time"

	"github.com/codetier/taskhub/internal/config"
	"github.com/codetier/taskhub/internal/http/handlers"
	"github.com/codetier/taskhub/internal/http/middlewares"
	"github.com/codetier/taskhub/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const maxBodyBytes = 1 << 20 // 1 MiB

// Deps carries every collaborator the router needs, explicitly
// constructed and passed in. No package-level connection state.
type Deps struct {
	Log *slog.Logger
	Cfg config.Config

	Users handlers.UserStore
	Tasks handlers.TaskStore
	Cache handlers.TaskListCache

	JWT interface {
		middlewares.TokenVerifier
		handlers.TokenIssuer
	}

	Metrics  *observability.Prom
	Registry *prometheus.Registry

	DBPing    func(context.Context) error
	CachePing func(context.Context) error
}

func NewRouter(d Deps) *gin.Engine {
	if d.Cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(d.Log))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(d.Cfg.AllowedOrigins))
	r.Use(middlewares.RequireJSON())
	r.Use(middlewares.MaxBodyBytes(maxBodyBytes))
	r.Use(otelgin.Middleware("taskhub"))

	if d.Metrics != nil {
		r.Use(d.Metrics.GinHandleMiddleware())
	}

	// health + metrics

	health := handlers.NewHealthHandler(readinessProbes(d))
	r.GET("/healthz", health.Healthz)
	r.GET("/readyz", health.Readyz)

	if d.Registry != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{})))
	}

	// handlers

	authHandler := handlers.NewAuthHandler(d.Users, d.JWT)

	var tasksHandler *handlers.TasksHandler

	if d.Cache != nil {
		tasksHandler = handlers.NewTasksHandlerWithCache(d.Tasks, d.Cache)
	} else {
		tasksHandler = handlers.NewTasksHandler(d.Tasks)
	}

	requireAuth := middlewares.NewAuthMiddleware(d.JWT).RequireAuth()

	// routes

	authGroup := r.Group("/auth")
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)

		protected := authGroup.Group("")
		protected.Use(requireAuth)
		protected.GET("/profile", authHandler.Profile)
		protected.PUT("/profile/update", authHandler.UpdateProfile)
	}

	tasksGroup := r.Group("/tasks")
	tasksGroup.Use(requireAuth)
	{
		tasksGroup.GET("", tasksHandler.ListTasks)
		tasksGroup.POST("", tasksHandler.CreateTask)
		tasksGroup.PUT("/:id", tasksHandler.UpdateTask)
		tasksGroup.DELETE("/:id", tasksHandler.DeleteTask)
	}

	return r
}

func readinessProbes(d Deps) map[string]func() error {
	probes := map[string]func() error{}

	if d.DBPing != nil {
		probes["db"] = func() error {
			ctx, cancel := config.WithTimeout(1 * time.Second)
			defer cancel()

			return d.DBPing(ctx)
		}
	}

	if d.CachePing != nil {
		probes["cache"] = func() error {
			ctx, cancel := config.WithTimeout(1 * time.Second)
			defer cancel()

			return d.CachePing(ctx)
		}
	}

	return probes
}
