package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"
	"workTracker/internal/logger"
	"workTracker/internal/models/timeentry"
	repo "workTracker/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const entryColumns = `e.uuid,
				e.user_id,
				e.project_id,
				e.task_id,
				e.shared_task_id,
				e.description,
				e.start_time,
				e.end_time,
				e.duration,
				e.status,
				e.paused_at,
				e.resumed_at,
				e.report_date,
				e.offline_id,
				e.is_offline,
				e.created_at,
				e.updated_at,
				e.version`

func entryFields(e *timeentry.Entry) []any {
	return []any{
		&e.UUID,
		&e.UserID,
		&e.ProjectID,
		&e.TaskID,
		&e.SharedTaskID,
		&e.Description,
		&e.StartTime,
		&e.EndTime,
		&e.Duration,
		&e.Status,
		&e.PausedAt,
		&e.ResumedAt,
		&e.ReportDate,
		&e.OfflineID,
		&e.IsOffline,
		&e.CreatedAt,
		&e.UpdatedAt,
		&e.Version,
	}
}

// CreateEntry полагается на уникальные индексы: активный таймер и (user, offline_id)
func (s *Storage) CreateEntry(ctx context.Context, entry *timeentry.Entry) error {
	start := time.Now()
	defer warnIfSlow(start, "create_entry")

	query := `INSERT INTO time_entries
				(uuid, user_id, project_id, task_id, shared_task_id, description, start_time, end_time,
				duration, status, paused_at, resumed_at, report_date, offline_id, is_offline)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
				RETURNING created_at, version`

	err := s.pool.QueryRow(ctx, query,
		entry.UUID,
		entry.UserID,
		entry.ProjectID,
		entry.TaskID,
		entry.SharedTaskID,
		entry.Description,
		entry.StartTime,
		entry.EndTime,
		entry.Duration,
		entry.Status,
		nonNilTimes(entry.PausedAt),
		nonNilTimes(entry.ResumedAt),
		entry.ReportDate,
		entry.OfflineID,
		entry.IsOffline,
	).Scan(&entry.CreatedAt, &entry.Version)

	if err != nil {
		mapped := mapError(err)
		if errors.Is(mapped, repo.ErrActiveTimerExists) || errors.Is(mapped, repo.ErrDuplicateOffline) {
			return mapped
		}
		logger.Error("Repository: Не удалось добавить запись времени", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("добавление записи времени: %w", mapped)
	}
	return nil
}

func (s *Storage) UpdateEntry(ctx context.Context, entry *timeentry.Entry) error {
	start := time.Now()
	defer warnIfSlow(start, "update_entry")

	query := `UPDATE time_entries
			SET project_id = $1,
				task_id = $2,
				shared_task_id = $3,
				description = $4,
				start_time = $5,
				end_time = $6,
				duration = $7,
				status = $8,
				paused_at = $9,
				resumed_at = $10,
				report_date = $11,
				version = version + 1,
				updated_at = NOW()
			WHERE uuid = $12 AND version = $13
			RETURNING updated_at, version`

	err := s.pool.QueryRow(ctx, query,
		entry.ProjectID,
		entry.TaskID,
		entry.SharedTaskID,
		entry.Description,
		entry.StartTime,
		entry.EndTime,
		entry.Duration,
		entry.Status,
		nonNilTimes(entry.PausedAt),
		nonNilTimes(entry.ResumedAt),
		entry.ReportDate,
		entry.UUID,
		entry.Version,
	).Scan(&entry.UpdatedAt, &entry.Version)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			logger.Warn("Repository: Строка не обновлена, конфликт версий при обновлении записи времени",
				zap.String("entry_id", entry.UUID.String()),
				zap.Int("expected_version", entry.Version))
			return s.missingOrConflict(ctx, "time_entries", entry.UUID)
		}
		logger.Error("Repository: Не удалось обновить запись времени", err)
		return fmt.Errorf("обновление записи времени: %w", mapError(err))
	}
	return nil
}

func (s *Storage) GetEntryByID(ctx context.Context, id uuid.UUID) (*timeentry.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM time_entries e WHERE e.uuid = $1`
	return s.getEntry(ctx, "get_entry", query, id)
}

func (s *Storage) GetActiveEntry(ctx context.Context, userID uuid.UUID) (*timeentry.Entry, error) {
	query := `SELECT ` + entryColumns + `
				FROM time_entries e
				WHERE e.user_id = $1 AND e.status IN ('running', 'paused')`
	return s.getEntry(ctx, "get_active_entry", query, userID)
}

func (s *Storage) GetEntryByOfflineID(ctx context.Context, userID uuid.UUID, offlineID string) (*timeentry.Entry, error) {
	query := `SELECT ` + entryColumns + `
				FROM time_entries e
				WHERE e.user_id = $1 AND e.offline_id = $2`
	return s.getEntry(ctx, "get_offline_entry", query, userID, offlineID)
}

func (s *Storage) getEntry(ctx context.Context, operation, query string, args ...any) (*timeentry.Entry, error) {
	start := time.Now()
	defer warnIfSlow(start, operation)

	entry := &timeentry.Entry{}
	err := s.pool.QueryRow(ctx, query, args...).Scan(entryFields(entry)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить запись времени", err, zap.String("operation", operation))
		return nil, fmt.Errorf("получение записи времени: %w", err)
	}
	return entry, nil
}

// ListStopped - остановленные записи за период с названиями проекта и задачи
func (s *Storage) ListStopped(ctx context.Context, userID uuid.UUID, from, to time.Time, projectID *uuid.UUID) ([]*timeentry.Resolved, error) {
	start := time.Now()
	defer warnIfSlow(start, "list_stopped_entries")

	query := `SELECT ` + entryColumns + `,
				p.name,
				COALESCE(t.title, st.title)
				FROM time_entries e
				LEFT JOIN projects p ON p.uuid = e.project_id
				LEFT JOIN tasks t ON t.uuid = e.task_id
				LEFT JOIN tasks st ON st.uuid = e.shared_task_id
				WHERE e.user_id = $1
					AND e.status = 'stopped'
					AND e.report_date BETWEEN $2::date AND $3::date
					AND ($4::uuid IS NULL OR e.project_id = $4::uuid)
				ORDER BY e.report_date, e.start_time`

	rows, err := s.pool.Query(ctx, query, userID, from, to, projectID)
	if err != nil {
		logger.Error("Repository: Не удалось получить записи времени", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение записей времени: %w", err)
	}
	defer rows.Close()

	res := []*timeentry.Resolved{}
	for rows.Next() {
		r := &timeentry.Resolved{}
		fields := append(entryFields(&r.Entry), &r.ProjectName, &r.TaskTitle)
		if err := rows.Scan(fields...); err != nil {
			logger.Warn("Repository: Ошибка сканирования записи времени", zap.Error(err))
			return nil, fmt.Errorf("сканирование записи времени: %w", err)
		}
		res = append(res, r)
	}

	if err := rows.Err(); err != nil {
		logger.Error("Repository: Ошибка итерации по строкам", err)
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}
	return res, nil
}

func (s *Storage) DeleteEntry(ctx context.Context, id uuid.UUID) error {
	start := time.Now()
	defer warnIfSlow(start, "delete_entry")

	tag, err := s.pool.Exec(ctx, `DELETE FROM time_entries WHERE uuid = $1`, id)
	if err != nil {
		logger.Error("Repository: Удаление записи времени", err)
		return fmt.Errorf("удаление записи времени: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func nonNilTimes(ts []time.Time) []time.Time {
	if ts == nil {
		return []time.Time{}
	}
	return ts
}
