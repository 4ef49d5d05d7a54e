package models

import (
	"fmt"
	"time"
)

// 警报优先级，从高到低：E（紧急）> U（急迫）> H（普通求助）
const (
	PriorityEmergency = "E"
	PriorityUrgent    = "U"
	PriorityHelp      = "H"
)

// 警报状态
const (
	StatusWaiting = "waiting" // 已入队，尚未下发
	StatusOngoing = "ongoing" // 当前在组内生效
	StatusSent    = "sent"    // 历史终态，保留字段
)

// priorityRank 优先级数值映射，未知取值按最低处理
var priorityRank = map[string]int{
	PriorityEmergency: 3,
	PriorityUrgent:    2,
	PriorityHelp:      1,
}

// PriorityRank 返回优先级数值，越大越紧急
func PriorityRank(p string) int {
	return priorityRank[p]
}

// ComparePriority 比较两个优先级：a 高于 b 返回正数，相等返回 0，低于返回负数
func ComparePriority(a, b string) int {
	return priorityRank[a] - priorityRank[b]
}

// IsValidPriority 检查优先级取值是否合法
func IsValidPriority(p string) bool {
	_, ok := priorityRank[p]
	return ok
}

// Alert 一次求助事件
type Alert struct {
	ID          string    `json:"id"`
	GroupID     string    `json:"groupId"`
	SenderID    string    `json:"senderId"`
	Priority    string    `json:"priority"`
	PatientID   string    `json:"patientId"`
	PatientName string    `json:"patientName"`
	NumNurse    int       `json:"numNurse"` // 请求的响应人数
	CreatedAt   time.Time `json:"createdAt"`
	Status      string    `json:"status"`
	Responders  []string  `json:"responders"` // 已关联的响应者，调度器透传
}

// NewAlert 构造校验过的警报记录，字段不合法时返回错误
func NewAlert(id, groupID, senderID, priority string) (*Alert, error) {
	if id == "" {
		return nil, fmt.Errorf("alert id is required")
	}
	if groupID == "" {
		return nil, fmt.Errorf("group id is required")
	}
	if senderID == "" {
		return nil, fmt.Errorf("sender id is required")
	}
	if !IsValidPriority(priority) {
		return nil, fmt.Errorf("invalid priority: %q", priority)
	}

	return &Alert{
		ID:        id,
		GroupID:   groupID,
		SenderID:  senderID,
		Priority:  priority,
		CreatedAt: time.Now(),
		Status:    StatusWaiting,
	}, nil
}
