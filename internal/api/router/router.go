package router

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"pharmadms/config"
	"pharmadms/internal/api/handler"
	"pharmadms/internal/api/middleware"
	"pharmadms/internal/dto"
	"pharmadms/pkg/jwt"
	"pharmadms/pkg/redis"
)

// jsonBodyLimit JSON 接口请求体上限
const jsonBodyLimit = 1 << 20

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, verifier *jwt.Verifier, rdb *redis.Client, logger *zap.Logger) (*gin.Engine, error) {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := dto.RegisterValidators(v); err != nil {
			return nil, fmt.Errorf("注册自定义校验器失败: %w", err)
		}
	}

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.Metrics())

	// ── 健康检查与指标 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	writeLimit := middleware.RateLimit(rdb, cfg.RateLimit.Requests, cfg.RateLimit.Window)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	v1.Use(middleware.JWTAuth(verifier, rdb))
	v1.Use(middleware.RoleAuth("admin", "manager"))
	{
		// 拜访计划模块
		visitPlans := v1.Group("/visit-plans")
		{
			visitPlans.GET("", h.VisitPlan.List)
			visitPlans.POST("/preview", middleware.BodyLimit(jsonBodyLimit), h.VisitPlan.Preview)
			visitPlans.POST("/generate", writeLimit, middleware.BodyLimit(jsonBodyLimit), h.VisitPlan.Generate)
			visitPlans.GET("/calendar.ics", h.Calendar.Export)

			// 批量导入（multipart 额外预留 1MB 表单开销）
			visitPlans.POST("/import", writeLimit, middleware.BodyLimit(cfg.Import.MaxFileSize+jsonBodyLimit), h.Import.Import)
			visitPlans.GET("/import/template", h.Import.Template)
			visitPlans.GET("/import/batches", h.Import.ListBatches)
		}

		// 代表模块
		v1.GET("/representatives/:id/customers", h.VisitPlan.ListAssignedCustomers)
	}

	return r, nil
}
