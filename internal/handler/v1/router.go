package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/pri-byte-bunny/CLINICAL-HISTORY-AI-AGENT/internal/config"
	"github.com/pri-byte-bunny/CLINICAL-HISTORY-AI-AGENT/internal/domain"
	"github.com/pri-byte-bunny/CLINICAL-HISTORY-AI-AGENT/pkg/auth"
	"github.com/pri-byte-bunny/CLINICAL-HISTORY-AI-AGENT/pkg/metrics"
)

// RouterDeps carries everything the router wires together.
type RouterDeps struct {
	Config     *config.Config
	Log        *zap.Logger
	DB         *gorm.DB
	JWTManager *auth.JWTManager
	Metrics    *metrics.Collector

	AuthHandler   *AuthHandler
	ReportHandler *ReportHandler
}

// NewRouter assembles the gin engine: global middleware, health and
// metrics endpoints, and the versioned API.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.MaxMultipartMemory = deps.Config.Upload.MaxFileBytes

	r.Use(
		gin.Recovery(),
		RequestID(),
		RequestLogger(deps.Log),
		Metrics(deps.Metrics),
		CORS(deps.Config.CORS),
		RateLimit(deps.Config.RateLimit),
	)

	r.GET("/healthz", healthz(deps.DB))
	r.GET("/metrics", gin.WrapH(metrics.MetricsHandler()))

	api := r.Group("/api/v1")

	authGroup := api.Group("/auth", AuthRateLimit(deps.Config.RateLimit))
	{
		authGroup.POST("/login", deps.AuthHandler.Login)
		authGroup.POST("/refresh", deps.AuthHandler.Refresh)
		authGroup.POST("/password", AuthRequired(deps.JWTManager), deps.AuthHandler.ChangePassword)
	}

	protected := api.Group("", AuthRequired(deps.JWTManager))
	{
		protected.POST("/documents", deps.ReportHandler.Upload)

		reports := protected.Group("/reports")
		{
			reports.GET("", deps.ReportHandler.List)
			reports.GET("/export", RequireRole(domain.RoleAdmin, domain.RoleClinician), deps.ReportHandler.Export)
			reports.GET("/:id", deps.ReportHandler.Get)
			reports.GET("/:id/download", deps.ReportHandler.Download)
		}
	}

	return r
}

func healthz(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": "unreachable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
