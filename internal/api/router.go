package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"goconcord/internal"
)

// NewRouter wires the report handler onto a gin engine
func NewRouter(h *ReportHandler, logger *internal.Logger) *gin.Engine {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	log := logger.With("HTTP")

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("%s %s %d %v", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	})

	r.GET("/healthz", h.Health)
	r.GET("/report", h.GetReportPage)

	api := r.Group("/api")
	{
		api.GET("/report", h.GetLatestReport)
		api.GET("/runs/:runId", h.GetReport)
		api.POST("/runs", h.CreateRun)
		api.POST("/cindex", h.ComputeCIndex)
	}
	return r
}
