package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/Kirusnabavani/UCMS/internal/handler"
	"github.com/Kirusnabavani/UCMS/internal/middleware"
	"github.com/Kirusnabavani/UCMS/internal/models"
	"github.com/Kirusnabavani/UCMS/internal/service"
	"github.com/Kirusnabavani/UCMS/pkg/config"
	"github.com/Kirusnabavani/UCMS/pkg/logger"
	corsmiddleware "github.com/Kirusnabavani/UCMS/pkg/middleware/cors"
	reqidmiddleware "github.com/Kirusnabavani/UCMS/pkg/middleware/requestid"
)

// Handlers groups the resource handlers wired into the route table.
type Handlers struct {
	Auth          *handler.AuthHandler
	Courses       *handler.CourseHandler
	Registrations *handler.RegistrationHandler
	Results       *handler.ResultHandler
	Metrics       *handler.MetricsHandler
}

// New assembles the gin engine with the full route table.
func New(cfg *config.Config, logr *zap.Logger, authSvc *service.AuthService, metricsSvc *service.MetricsService, h Handlers) *gin.Engine {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Health)
	r.GET("/metrics", h.Metrics.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", h.Auth.Login)

	secured := api.Group("", middleware.JWT(authSvc))
	secured.GET("/auth/me", h.Auth.Me)

	secured.GET("/courses", h.Courses.List)
	secured.GET("/courses/:id", h.Courses.Get)

	admin := middleware.RequireRoles(models.RoleAdmin)
	secured.POST("/courses", admin, h.Courses.Create)
	secured.PUT("/courses/:id", admin, h.Courses.Update)
	secured.DELETE("/courses/:id", admin, h.Courses.Delete)

	student := middleware.RequireRoles(models.RoleStudent)
	secured.GET("/registrations/my-courses", student, h.Registrations.MyCourses)
	secured.POST("/registrations/register/:courseId", student, h.Registrations.Register)
	secured.DELETE("/registrations/:courseId", student, h.Registrations.Drop)
	secured.GET("/registrations/course/:courseId", admin, h.Registrations.CourseRegistrations)
	secured.GET("/registrations/course/:courseId/export", admin, h.Registrations.ExportCourseRegistrations)

	secured.POST("/results", admin, h.Results.Assign)
	secured.GET("/results/my-results", student, h.Results.MyResults)
	secured.GET("/results/transcript", student, h.Results.Transcript)

	return r
}
