package models

import "time"

// Group 通讯组（成员归属由本服务维护，警报调度只读）
type Group struct {
	ID        string `gorm:"primaryKey"`
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// GroupMember 组成员
type GroupMember struct {
	ID        uint   `gorm:"primaryKey"`
	GroupID   string `gorm:"index"`
	UserID    string
	Role      string // "caregiver" "nurse" "admin"
	CreatedAt time.Time
}
