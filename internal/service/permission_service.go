package service

import (
	"context"
	"errors"
	"fmt"
	"workTracker/internal/logger"
	"workTracker/internal/models/permission"
	rep "workTracker/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type PermissionRepository interface {
	GetPermission(ctx context.Context, spaceID, userID uuid.UUID) (*permission.SpacePermission, error)
	UpsertPermission(ctx context.Context, p *permission.SpacePermission) error
	DeletePermission(ctx context.Context, spaceID, userID uuid.UUID) error
}

// PermissionService отвечает на вопросы доступа к общим пространствам
// и управляет участниками. Роли admin и super-admin разрешают всё
type PermissionService struct {
	repo PermissionRepository
}

func NewPermissionService(repo PermissionRepository) *PermissionService {
	return &PermissionService{repo: repo}
}

func (s *PermissionService) CanEdit(ctx context.Context, spaceID, userID uuid.UUID, role permission.Role) (bool, error) {
	if role.Elevated() {
		return true, nil
	}
	level, err := s.level(ctx, spaceID, userID)
	if err != nil {
		return false, err
	}
	return level.CanEdit(), nil
}

func (s *PermissionService) CanManage(ctx context.Context, spaceID, userID uuid.UUID, role permission.Role) (bool, error) {
	if role.Elevated() {
		return true, nil
	}
	level, err := s.level(ctx, spaceID, userID)
	if err != nil {
		return false, err
	}
	return level.CanManage(), nil
}

// level: отсутствие строки означает отсутствие прав
func (s *PermissionService) level(ctx context.Context, spaceID, userID uuid.UUID) (permission.Level, error) {
	p, err := s.repo.GetPermission(ctx, spaceID, userID)
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("получение прав доступа: %w", err)
	}
	return p.Level, nil
}

// Grant выдаёт или меняет уровень доступа участника
func (s *PermissionService) Grant(ctx context.Context, actor permission.Actor, spaceID, userID uuid.UUID, level permission.Level) (*permission.SpacePermission, error) {
	if !level.Valid() {
		return nil, NewValidationError("level", "неизвестный уровень доступа")
	}
	if err := s.checkManage(ctx, actor, spaceID, "управление участниками"); err != nil {
		return nil, err
	}

	p := &permission.SpacePermission{
		SpaceID: spaceID,
		UserID:  userID,
		Level:   level,
	}
	if err := s.repo.UpsertPermission(ctx, p); err != nil {
		return nil, fmt.Errorf("сохранение прав доступа: %w", err)
	}

	logger.Info("Service: Права доступа выданы",
		zap.String("space_id", spaceID.String()),
		zap.String("user_id", userID.String()),
		zap.String("level", string(level)))
	return p, nil
}

func (s *PermissionService) Revoke(ctx context.Context, actor permission.Actor, spaceID, userID uuid.UUID) error {
	if err := s.checkManage(ctx, actor, spaceID, "управление участниками"); err != nil {
		return err
	}

	if err := s.repo.DeletePermission(ctx, spaceID, userID); err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			return NewNotFound("участник пространства", userID.String()).wrap(err)
		}
		return fmt.Errorf("удаление прав доступа: %w", err)
	}

	logger.Info("Service: Права доступа отозваны",
		zap.String("space_id", spaceID.String()),
		zap.String("user_id", userID.String()))
	return nil
}

func (s *PermissionService) checkManage(ctx context.Context, actor permission.Actor, spaceID uuid.UUID, action string) error {
	allowed, err := s.CanManage(ctx, spaceID, actor.UserID, actor.Role)
	if err != nil {
		return err
	}
	if !allowed {
		return NewForbidden(action, ToDetail("space_id", spaceID.String()))
	}
	return nil
}
