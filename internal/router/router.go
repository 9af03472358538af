package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/course-registration-api/internal/handler"
	internalmiddleware "github.com/noah-isme/course-registration-api/internal/middleware"
	"github.com/noah-isme/course-registration-api/internal/models"
	"github.com/noah-isme/course-registration-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/course-registration-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/course-registration-api/pkg/middleware/requestid"
)

// Options carries everything the HTTP surface is built from.
type Options struct {
	APIPrefix      string
	AllowedOrigins []string
	EnableMetrics  bool
	EnableDocs     bool

	Logger    *zap.Logger
	Tokens    internalmiddleware.TokenValidator
	Observer  internalmiddleware.RequestObserver
	Auth      *handler.AuthHandler
	Catalog   *handler.CatalogHandler
	Registry  *handler.RegistrationHandler
	Drops     *handler.DropRequestHandler
	Dashboard *handler.DashboardHandler
	Metrics   *handler.MetricsHandler
}

// New wires middleware and routes onto a fresh gin engine.
func New(opts Options) *gin.Engine {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(opts.Logger))
	r.Use(corsmiddleware.New(opts.AllowedOrigins))
	if opts.EnableMetrics {
		r.Use(internalmiddleware.Metrics(opts.Observer))
	}

	r.GET("/health", opts.Metrics.Health)
	r.GET("/ready", opts.Metrics.Ready)
	if opts.EnableMetrics {
		r.GET("/metrics", opts.Metrics.Prometheus)
	}
	if opts.EnableDocs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(opts.APIPrefix)
	api.POST("/auth/session", opts.Auth.Login)

	secured := api.Group("")
	secured.Use(internalmiddleware.JWT(opts.Tokens))
	secured.DELETE("/auth/session", opts.Auth.Logout)

	anyRole := internalmiddleware.RequireRoles(models.RoleStudent, models.RoleAdmin)
	secured.GET("/catalog", anyRole, opts.Catalog.List)
	secured.GET("/catalog/:id", anyRole, opts.Catalog.Get)

	student := secured.Group("/me")
	student.Use(internalmiddleware.RequireRoles(models.RoleStudent))
	student.GET("/catalog", opts.Registry.Catalog)
	student.GET("/registrations", opts.Registry.List)
	student.POST("/registrations", opts.Registry.Register)
	student.DELETE("/registrations/:courseId", opts.Registry.Unregister)
	student.GET("/registrations/:courseId/conflict", opts.Registry.Conflict)
	student.GET("/timetable", opts.Registry.Timetable)
	student.GET("/timetable/export", opts.Registry.Export)
	student.POST("/drop-requests", opts.Drops.Create)
	student.GET("/drop-requests", opts.Drops.Mine)
	student.GET("/dashboard", opts.Dashboard.Student)

	admin := secured.Group("")
	admin.Use(internalmiddleware.RequireRoles(models.RoleAdmin))
	admin.POST("/catalog", opts.Catalog.Create)
	admin.PUT("/catalog/:id", opts.Catalog.Update)
	admin.DELETE("/catalog/:id", opts.Catalog.Delete)
	admin.GET("/drop-requests", opts.Drops.List)
	admin.GET("/drop-requests/:id", opts.Drops.Get)
	admin.POST("/drop-requests/:id/approve", opts.Drops.Approve)
	admin.POST("/drop-requests/:id/reject", opts.Drops.Reject)
	admin.GET("/dashboard", opts.Dashboard.Admin)

	return r
}
