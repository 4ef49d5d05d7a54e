package handlers

import (
	"CareAlert/internal/dispatch"
	"CareAlert/internal/repository"
	"CareAlert/pkg/config"
	"CareAlert/pkg/metrics"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type Handlers struct {
	db         *gorm.DB
	dispatcher *dispatch.Dispatcher
	groups     *repository.GroupRepository
	resolver   *repository.CachedResolver
}

func NewHandlers(db *gorm.DB, dispatcher *dispatch.Dispatcher, groups *repository.GroupRepository, resolver *repository.CachedResolver) *Handlers {
	return &Handlers{
		db:         db,
		dispatcher: dispatcher,
		groups:     groups,
		resolver:   resolver,
	}
}

func (h *Handlers) Register(engine *gin.Engine, m *metrics.AlertMetrics) {
	if m != nil {
		engine.Use(metrics.MonitorMiddleware(m))
	}

	r := engine.Group(config.GlobalConfig.APIPrefix)

	// Register System Module Routes
	h.registerSystemRoutes(r)

	// Register Business Module Routes
	h.registerAlertRoutes(r)
	h.registerGroupRoutes(r)

	if config.GlobalConfig.AdminPrefix != "" {
		admin := r.Group(config.GlobalConfig.AdminPrefix)
		h.registerAdminRoutes(admin)
	}
}

// Alert Module
func (h *Handlers) registerAlertRoutes(r *gin.RouterGroup) {
	alerts := r.Group("/alerts")
	{
		// 自由文本求助，解析失败直接拒绝
		alerts.POST("/raw", h.handleSubmitRawAlert)

		// 结构化提交
		alerts.POST("", h.handleSubmitAlert)

		// 组当前调度状态（生效警报 + 等待队列）
		alerts.GET("/groups/:group_id", h.handleGroupAlertState)
	}
}

// Group Module
func (h *Handlers) registerGroupRoutes(r *gin.RouterGroup) {
	groups := r.Group("/groups")
	{
		groups.POST("", h.handleCreateGroup)

		groups.POST("/:group_id/members", h.handleAddMember)

		groups.DELETE("/:group_id/members/:user_id", h.handleRemoveMember)
	}
}

// Admin Module
func (h *Handlers) registerAdminRoutes(r *gin.RouterGroup) {
	r.POST("/alerts/reset", h.handleResetAlerts)
}
