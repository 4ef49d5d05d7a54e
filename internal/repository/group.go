package repository

import (
	"context"
	"fmt"

	"CareAlert/internal/models"
	"CareAlert/pkg/errors"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CodeGroupNotFound 组不存在的业务错误码
const CodeGroupNotFound = 40401

// ErrGroupNotFound 组不存在。调度下发解析成员失败时原样上抛
var ErrGroupNotFound = errors.WithCode(CodeGroupNotFound, "group not found")

// GroupRepository 通讯组与成员存储
type GroupRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewGroupRepository 创建组存储
func NewGroupRepository(db *gorm.DB, logger *zap.Logger) *GroupRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GroupRepository{db: db, logger: logger}
}

// AutoMigrate 建表
func (r *GroupRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&models.Group{}, &models.GroupMember{})
}

// ResolveMembers 返回组内全部成员的用户ID。组不存在时返回 ErrGroupNotFound
func (r *GroupRepository) ResolveMembers(ctx context.Context, groupID string) ([]string, error) {
	if groupID == "" {
		return nil, fmt.Errorf("group_id is required")
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Group{}).
		Where("id = ?", groupID).Count(&count).Error; err != nil {
		r.logger.Error("Failed to look up group",
			zap.String("group_id", groupID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to look up group %s: %w", groupID, err)
	}
	if count == 0 {
		return nil, fmt.Errorf("group %s: %w", groupID, ErrGroupNotFound)
	}

	var userIDs []string
	if err := r.db.WithContext(ctx).Model(&models.GroupMember{}).
		Where("group_id = ?", groupID).
		Order("created_at asc").
		Pluck("user_id", &userIDs).Error; err != nil {
		r.logger.Error("Failed to list group members",
			zap.String("group_id", groupID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to list members of group %s: %w", groupID, err)
	}
	return userIDs, nil
}

// CreateGroup 创建组
func (r *GroupRepository) CreateGroup(ctx context.Context, group *models.Group) error {
	if group == nil || group.ID == "" {
		return fmt.Errorf("group id is required")
	}
	if err := r.db.WithContext(ctx).Create(group).Error; err != nil {
		return fmt.Errorf("failed to create group %s: %w", group.ID, err)
	}
	r.logger.Info("Group created", zap.String("group_id", group.ID), zap.String("name", group.Name))
	return nil
}

// AddMember 向组添加成员
func (r *GroupRepository) AddMember(ctx context.Context, groupID, userID, role string) error {
	if groupID == "" || userID == "" {
		return fmt.Errorf("group_id and user_id are required")
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Group{}).
		Where("id = ?", groupID).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to look up group %s: %w", groupID, err)
	}
	if count == 0 {
		return fmt.Errorf("group %s: %w", groupID, ErrGroupNotFound)
	}

	member := &models.GroupMember{GroupID: groupID, UserID: userID, Role: role}
	if err := r.db.WithContext(ctx).Create(member).Error; err != nil {
		return fmt.Errorf("failed to add member %s to group %s: %w", userID, groupID, err)
	}
	return nil
}

// RemoveMember 从组移除成员
func (r *GroupRepository) RemoveMember(ctx context.Context, groupID, userID string) error {
	if groupID == "" || userID == "" {
		return fmt.Errorf("group_id and user_id are required")
	}
	return r.db.WithContext(ctx).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Delete(&models.GroupMember{}).Error
}
