package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/andeptrai/ocr-studio/api/handlers"
	"github.com/andeptrai/ocr-studio/api/middleware"
	"github.com/andeptrai/ocr-studio/pkg/metrics"
)

// SetupRoutes 配置所有路由
func SetupRoutes(r *gin.Engine, h *handlers.Handlers) {
	r.Use(middleware.CORS())

	r.GET("/", h.Studio.Index)
	r.GET("/healthz", h.Studio.Health)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	v1 := r.Group("/api/v1")

	docs := v1.Group("/documents")
	{
		docs.POST("", h.Studio.UploadDocument)
		docs.POST("/convert", h.Studio.ConvertDocument)
		docs.GET("/result", h.Studio.GetResult)
		docs.GET("/original", h.Studio.GetOriginal)
		docs.GET("/export", h.Studio.ExportResult)
		docs.GET("/stats", h.Studio.GetStats)
	}
}
