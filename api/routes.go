package api

import (
	"github.com/gin-gonic/gin"

	"growth-scraper/utils"
)

// NewRouter builds the gin engine with every dashboard route.
// metrics may be nil, in which case /metrics is not mounted.
func NewRouter(h *Handler, metrics *utils.Metrics, logger *utils.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())
	router.Use(LoggerMiddleware(logger))

	router.GET("/", h.Dashboard)
	router.GET("/dados", h.Data)
	router.GET("/dados.xlsx", h.DataXLSX)
	router.GET("/health", h.Health)
	if metrics != nil {
		router.GET("/metrics", gin.WrapH(metrics.Handler()))
	}

	v1 := router.Group("/api/v1")
	v1.GET("/summary", h.Summary)

	charts := v1.Group("/charts")
	charts.GET("/histogram", h.Histogram)
	charts.GET("/box", h.BoxPlot)
	charts.GET("/scatter", h.Scatter)

	runs := v1.Group("/runs")
	runs.POST("", h.StartRun)
	runs.GET("/latest", h.LatestRun)

	return router
}
