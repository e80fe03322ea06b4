package postgres

import (
	"context"
	"errors"
	"fmt"
	"workTracker/internal/logger"
	"workTracker/internal/models/permission"
	repo "workTracker/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

func (s *Storage) GetPermission(ctx context.Context, spaceID, userID uuid.UUID) (*permission.SpacePermission, error) {
	query := `SELECT space_id, user_id, level, created_at, updated_at
				FROM space_permissions
				WHERE space_id = $1 AND user_id = $2`

	p := &permission.SpacePermission{}
	err := s.pool.QueryRow(ctx, query, spaceID, userID).Scan(&p.SpaceID, &p.UserID, &p.Level, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить права доступа", err)
		return nil, fmt.Errorf("получение прав доступа: %w", err)
	}
	return p, nil
}

func (s *Storage) UpsertPermission(ctx context.Context, p *permission.SpacePermission) error {
	query := `INSERT INTO space_permissions (space_id, user_id, level)
				VALUES ($1, $2, $3)
				ON CONFLICT (space_id, user_id) DO UPDATE
					SET level = EXCLUDED.level,
					updated_at = NOW()
				RETURNING created_at, updated_at`

	err := s.pool.QueryRow(ctx, query, p.SpaceID, p.UserID, p.Level).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		logger.Error("Repository: Не удалось сохранить права доступа", err)
		return fmt.Errorf("сохранение прав доступа: %w", err)
	}
	return nil
}

func (s *Storage) DeletePermission(ctx context.Context, spaceID, userID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM space_permissions WHERE space_id = $1 AND user_id = $2`, spaceID, userID)
	if err != nil {
		logger.Error("Repository: Не удалось удалить права доступа", err)
		return fmt.Errorf("удаление прав доступа: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}
