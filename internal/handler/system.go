package handlers

import (
	"net/http"

	"CareAlert/pkg/response"

	"github.com/gin-gonic/gin"
)

func (h *Handlers) registerSystemRoutes(r *gin.RouterGroup) {
	r.GET("/health", h.handleHealth)
	r.GET("/stats", h.handleStats)
}

// handleHealth 健康检查，附带数据库连通性
func (h *Handlers) handleHealth(c *gin.Context) {
	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		response.FailWithStatus(c, http.StatusServiceUnavailable, "database unavailable")
		return
	}

	response.Success(c, "ok", gin.H{"status": "ok"})
}

// handleStats 调度器运行指标快照
func (h *Handlers) handleStats(c *gin.Context) {
	groups, ongoing, queued := h.dispatcher.Stats()
	response.Success(c, "success", gin.H{
		"groups":  groups,
		"ongoing": ongoing,
		"queued":  queued,
	})
}
