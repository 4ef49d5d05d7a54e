package handlers

import (
	"net/http"

	"CareAlert/internal/models"
	"CareAlert/internal/repository"
	"CareAlert/pkg/errors"
	"CareAlert/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CreateGroupRequest 建组请求
type CreateGroupRequest struct {
	Name string `json:"name" binding:"required"`
}

// AddMemberRequest 成员加入请求
type AddMemberRequest struct {
	UserID string `json:"user_id" binding:"required"`
	Role   string `json:"role"`
}

func (h *Handlers) handleCreateGroup(c *gin.Context) {
	var req CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FailWithStatus(c, http.StatusBadRequest, "invalid request body")
		return
	}

	group := &models.Group{
		ID:   uuid.NewString(),
		Name: req.Name,
	}
	if err := h.groups.CreateGroup(c.Request.Context(), group); err != nil {
		response.FailWithStatus(c, http.StatusInternalServerError, err.Error())
		return
	}

	response.Success(c, "success", gin.H{"group_id": group.ID})
}

func (h *Handlers) handleAddMember(c *gin.Context) {
	groupID := c.Param("group_id")

	var req AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FailWithStatus(c, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.groups.AddMember(c.Request.Context(), groupID, req.UserID, req.Role); err != nil {
		if errors.GetCode(err) == repository.CodeGroupNotFound {
			response.FailWithStatus(c, http.StatusNotFound, err.Error())
			return
		}
		response.FailWithStatus(c, http.StatusInternalServerError, err.Error())
		return
	}

	// 成员变化后立刻失效缓存，下一次下发重新查库
	h.resolver.Invalidate(c.Request.Context(), groupID)

	response.Success(c, "success", nil)
}

func (h *Handlers) handleRemoveMember(c *gin.Context) {
	groupID := c.Param("group_id")
	userID := c.Param("user_id")

	if err := h.groups.RemoveMember(c.Request.Context(), groupID, userID); err != nil {
		response.FailWithStatus(c, http.StatusInternalServerError, err.Error())
		return
	}

	h.resolver.Invalidate(c.Request.Context(), groupID)

	response.Success(c, "success", nil)
}
