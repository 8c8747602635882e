package v1

import (
	"net/http"
	"time"

	"go-application-form/config"
	"go-application-form/internal/delivery/http/middleware"
	"go-application-form/internal/delivery/http/response"
	"go-application-form/internal/domain"
	"go-application-form/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type RouterDeps struct {
	FormUC   domain.ApplicationFormUsecase
	HealthUC usecase.HealthUsecase
	// RedisClient backs the rate limiter; nil means per-instance counters
	RedisClient *goredis.Client
	Config      *config.Config
}

func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()
	r.MaxMultipartMemory = deps.Config.MaxResumeBytes + 1<<20

	// Global Middlewares
	r.Use(middleware.CORSMiddleware(deps.Config.FrontendURL)) // CORS must be first!
	r.Use(gin.Recovery())
	r.Use(gin.Logger()) // Use standard Gin logger
	r.Use(middleware.RequestID())
	r.Use(middleware.SecurityHeadersMiddleware())
	r.Use(middleware.ErrorHandler())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/v1")

	// Health Check
	v1.GET("/health", func(c *gin.Context) {
		status := map[string]string{"status": "ok"}
		if deps.HealthUC != nil {
			status = deps.HealthUC.Check(c.Request.Context())
		}
		if status["status"] != "ok" {
			response.Error(c, http.StatusServiceUnavailable, "System degraded", status)
			return
		}
		response.Success(c, http.StatusOK, "System operational", status)
	})

	// Swagger
	if deps.Config.EnableSwagger {
		v1.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	globalLimit := middleware.DefaultRateLimitConfig()
	globalLimit.Limit = deps.Config.RateLimitGlobalThreshold
	globalLimit.Window = time.Duration(deps.Config.RateLimitWindowSeconds) * time.Second
	globalLimit.Client = deps.RedisClient

	uploadLimit := middleware.UploadRateLimitConfig()
	uploadLimit.Client = deps.RedisClient

	public := v1.Group("")
	public.Use(middleware.RateLimitMiddleware(globalLimit))
	if deps.Config.EnableCSRF {
		public.Use(middleware.CSRFMiddleware(middleware.CSRFConfig{
			ExemptPaths: map[string]bool{
				"/v1/forms":                 true, // session start hands out the cookie
				"/v1/applications/validate": true, // stateless
			},
			Secure: deps.Config.CookieSecure,
		}))
	}
	{
		NewApplicationFormHandler(public, middleware.RateLimitMiddleware(uploadLimit), deps.FormUC, deps.Config.MaxResumeBytes)
	}

	return r
}
