package handlers

import (
	"net/http"

	"CareAlert/internal/models"
	"CareAlert/internal/parser"
	"CareAlert/internal/repository"
	"CareAlert/pkg/errors"
	"CareAlert/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RawAlertRequest 自由文本求助请求
type RawAlertRequest struct {
	Text       string   `json:"text" binding:"required"`
	GroupID    string   `json:"group_id" binding:"required"`
	SenderID   string   `json:"sender_id" binding:"required"`
	Responders []string `json:"responders"`
}

// AlertRequest 结构化求助请求
type AlertRequest struct {
	GroupID     string   `json:"group_id" binding:"required"`
	SenderID    string   `json:"sender_id" binding:"required"`
	Priority    string   `json:"priority" binding:"required"`
	PatientID   string   `json:"patient_id"`
	PatientName string   `json:"patient_name"`
	NumNurse    int      `json:"num_nurse"`
	Responders  []string `json:"responders"`
}

// handleSubmitRawAlert 接收原始求助文本，解析后交给调度器。
// 响应体就是调度结果字符串，便于机器人等纯文本客户端直接回显。
func (h *Handlers) handleSubmitRawAlert(c *gin.Context) {
	var req RawAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FailWithStatus(c, http.StatusBadRequest, "invalid request body")
		return
	}

	parsed, ok := parser.Parse(req.Text)
	if !ok {
		response.FailWithStatus(c, http.StatusBadRequest, "unrecognized alert text")
		return
	}

	alert, err := models.NewAlert(uuid.NewString(), req.GroupID, req.SenderID, parser.PriorityFromText(req.Text))
	if err != nil {
		response.FailWithStatus(c, http.StatusBadRequest, err.Error())
		return
	}
	alert.PatientID = parsed.SelectedPatientID
	alert.PatientName = parsed.PatientName
	alert.NumNurse = parsed.ActualNurseCount
	alert.Responders = req.Responders

	outcome, err := h.dispatcher.Submit(c.Request.Context(), alert)
	if err != nil {
		h.failDispatch(c, err)
		return
	}

	c.String(http.StatusOK, string(outcome))
}

// handleSubmitAlert 结构化提交，优先级由调用方显式指定
func (h *Handlers) handleSubmitAlert(c *gin.Context) {
	var req AlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FailWithStatus(c, http.StatusBadRequest, "invalid request body")
		return
	}

	alert, err := models.NewAlert(uuid.NewString(), req.GroupID, req.SenderID, req.Priority)
	if err != nil {
		response.FailWithStatus(c, http.StatusBadRequest, err.Error())
		return
	}
	alert.PatientID = req.PatientID
	alert.PatientName = req.PatientName
	alert.NumNurse = req.NumNurse
	alert.Responders = req.Responders

	outcome, err := h.dispatcher.Submit(c.Request.Context(), alert)
	if err != nil {
		h.failDispatch(c, err)
		return
	}

	response.Success(c, "success", gin.H{
		"alert_id": alert.ID,
		"outcome":  outcome,
	})
}

// handleGroupAlertState 查询组当前生效警报与等待队列
func (h *Handlers) handleGroupAlertState(c *gin.Context) {
	groupID := c.Param("group_id")

	ongoing, queue := h.dispatcher.GroupSnapshot(groupID)
	response.Success(c, "success", gin.H{
		"group_id": groupID,
		"ongoing":  ongoing,
		"queue":    queue,
	})
}

// handleResetAlerts 清空所有调度状态，仅限管理端
func (h *Handlers) handleResetAlerts(c *gin.Context) {
	h.dispatcher.Reset()
	response.Success(c, "success", nil)
}

func (h *Handlers) failDispatch(c *gin.Context, err error) {
	if errors.GetCode(err) == repository.CodeGroupNotFound {
		response.FailWithStatus(c, http.StatusNotFound, err.Error())
		return
	}
	response.FailWithStatus(c, http.StatusInternalServerError, err.Error())
}
