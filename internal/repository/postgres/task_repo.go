package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"workTracker/internal/logger"
	"workTracker/internal/models/task"
	repo "workTracker/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const taskColumns = `t.uuid,
				t.title,
				t.description,
				t.priority,
				t.status,
				t.start_date,
				t.end_date,
				t.owner_id,
				t.space_id,
				t.assignees::text[],
				t.project_id,
				t.parent_uuid,
				ARRAY(SELECT c.uuid::text FROM tasks c WHERE c.parent_uuid = t.uuid ORDER BY c.created_at, c.uuid),
				t.inherit_rev,
				t.cascaded_rev,
				t.created_at,
				t.updated_at,
				t.version`

func scanTask(row pgx.Row) (*task.Task, error) {
	t := &task.Task{}
	var assignees, subtasks []string

	err := row.Scan(
		&t.UUID,
		&t.Title,
		&t.Description,
		&t.Priority,
		&t.Status,
		&t.StartDate,
		&t.EndDate,
		&t.OwnerID,
		&t.SpaceID,
		&assignees,
		&t.ProjectID,
		&t.ParentID,
		&subtasks,
		&t.InheritRev,
		&t.CascadedRev,
		&t.CreatedAt,
		&t.UpdatedAt,
		&t.Version,
	)
	if err != nil {
		return nil, err
	}

	if t.Assignees, err = parseUUIDs(assignees); err != nil {
		return nil, err
	}
	if t.Subtasks, err = parseUUIDs(subtasks); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Storage) Create(ctx context.Context, taskToCreate *task.Task) error {
	start := time.Now()
	defer warnIfSlow(start, "create_task")

	err := insertTask(ctx, s.pool, taskToCreate)
	if err != nil {
		logger.Error("Repository: Не удалось добавить задачу", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("добавление задачи: %w", mapError(err))
	}
	taskToCreate.Subtasks = []uuid.UUID{}
	return nil
}

// CreateSubtask блокирует родителя на время вставки, чтобы параллельное
// обновление родителя не разминулось с новой подзадачей
func (s *Storage) CreateSubtask(ctx context.Context, parentID uuid.UUID, sub *task.Task) error {
	start := time.Now()
	defer warnIfSlow(start, "create_subtask")

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("начало транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `SELECT parent_uuid, project_id, end_date, status
				FROM tasks
				WHERE uuid = $1
				FOR SHARE`

	var grandParent *uuid.UUID
	inherited := task.Inherited{}
	err = tx.QueryRow(ctx, query, parentID).Scan(&grandParent, &inherited.ProjectID, &inherited.EndDate, &inherited.Status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить родительскую задачу", err)
		return fmt.Errorf("получение родителя: %w", err)
	}
	if grandParent != nil {
		return repo.ErrInvalidHierarchy
	}

	sub.ParentID = &parentID
	sub.Inherit(inherited)

	if err := insertTask(ctx, tx, sub); err != nil {
		logger.Error("Repository: Не удалось добавить подзадачу", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("добавление подзадачи: %w", mapError(err))
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("фиксация транзакции: %w", mapError(err))
	}
	sub.Subtasks = []uuid.UUID{}
	return nil
}

func insertTask(ctx context.Context, q querier, t *task.Task) error {
	query := `INSERT INTO tasks
				(uuid, title, description, priority, status, start_date, end_date,
				owner_id, space_id, assignees, project_id, parent_uuid, inherit_rev, cascaded_rev)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10::uuid[], $11, $12, $13, $13)
				RETURNING created_at, version`

	return q.QueryRow(ctx, query,
		t.UUID,
		t.Title,
		t.Description,
		t.Priority,
		t.Status,
		t.StartDate,
		t.EndDate,
		t.OwnerID,
		t.SpaceID,
		formatUUIDs(t.Assignees),
		t.ProjectID,
		t.ParentID,
		t.InheritRev,
	).Scan(&t.CreatedAt, &t.Version)
}

func (s *Storage) Update(ctx context.Context, taskToUpdate *task.Task) error {
	start := time.Now()
	defer warnIfSlow(start, "update_task")

	query := `UPDATE tasks
			SET title = $1,
				description = $2,
				priority = $3,
				status = $4,
				start_date = $5,
				end_date = $6,
				assignees = $7::uuid[],
				project_id = $8,
				parent_uuid = $9,
				inherit_rev = $10,
				version = version + 1,
				updated_at = NOW()
			WHERE uuid = $11 AND version = $12
			RETURNING updated_at, version`

	err := s.pool.QueryRow(ctx, query,
		taskToUpdate.Title,
		taskToUpdate.Description,
		taskToUpdate.Priority,
		taskToUpdate.Status,
		taskToUpdate.StartDate,
		taskToUpdate.EndDate,
		formatUUIDs(taskToUpdate.Assignees),
		taskToUpdate.ProjectID,
		taskToUpdate.ParentID,
		taskToUpdate.InheritRev,
		taskToUpdate.UUID,
		taskToUpdate.Version,
	).Scan(&taskToUpdate.UpdatedAt, &taskToUpdate.Version)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			logger.Warn("Repository: Строка не обновлена, конфликт версий при обновлении задачи",
				zap.String("task_id", taskToUpdate.UUID.String()),
				zap.Int("expected_version", taskToUpdate.Version))
			return s.missingOrConflict(ctx, "tasks", taskToUpdate.UUID)
		}
		logger.Error("Repository: Не удалось обновить задачу", err)
		return fmt.Errorf("обновление задачи: %w", mapError(err))
	}
	return nil
}

func (s *Storage) GetByID(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	start := time.Now()
	defer warnIfSlow(start, "get_task")

	query := `SELECT ` + taskColumns + `
				FROM tasks t
				WHERE t.uuid = $1`

	t, err := scanTask(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить задачу", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение задачи: %w", err)
	}
	return t, nil
}

// получение родительских задач владельца с фильтрами
func (s *Storage) List(ctx context.Context, owner task.Owner, filter task.Filter) ([]*task.Task, error) {
	start := time.Now()
	defer warnIfSlow(start, "list_tasks")

	where := []string{"t.parent_uuid IS NULL"}
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if owner.SpaceID != nil {
		where = append(where, "t.space_id = "+arg(*owner.SpaceID))
	} else {
		where = append(where, "t.space_id IS NULL", "t.owner_id = "+arg(owner.UserID))
	}
	if filter.ProjectID != nil {
		where = append(where, "t.project_id = "+arg(*filter.ProjectID))
	}
	if filter.Priority != "" {
		where = append(where, "t.priority = "+arg(filter.Priority))
	}
	if filter.Status != "" {
		where = append(where, "t.status = "+arg(filter.Status))
	}
	if filter.From != nil {
		where = append(where, "t.start_date >= "+arg(*filter.From))
	}
	if filter.To != nil {
		where = append(where, "t.end_date <= "+arg(*filter.To))
	}

	query := `SELECT ` + taskColumns + `
				FROM tasks t
				WHERE ` + strings.Join(where, " AND ") + `
				ORDER BY t.created_at, t.uuid
				LIMIT ` + arg(filter.Limit) + ` OFFSET ` + arg((filter.Page-1)*filter.Limit)

	return s.queryTasks(ctx, start, query, args...)
}

func (s *Storage) ListSubtasks(ctx context.Context, parentID uuid.UUID) ([]*task.Task, error) {
	start := time.Now()
	defer warnIfSlow(start, "list_subtasks")

	var exists bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM tasks WHERE uuid = $1)`, parentID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("проверка родителя: %w", err)
	}
	if !exists {
		return nil, repo.ErrNotFound
	}

	query := `SELECT ` + taskColumns + `
				FROM tasks t
				WHERE t.parent_uuid = $1
				ORDER BY t.created_at, t.uuid`

	return s.queryTasks(ctx, start, query, parentID)
}

func (s *Storage) queryTasks(ctx context.Context, start time.Time, query string, args ...any) ([]*task.Task, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		logger.Error("Repository: Не удалось получить задачи", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение задач: %w", err)
	}
	defer rows.Close()

	tasks := []*task.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			logger.Warn("Repository: Ошибка сканирования задачи", zap.Error(err))
			return nil, fmt.Errorf("сканирование задачи: %w", err)
		}
		tasks = append(tasks, t)
	}

	if err := rows.Err(); err != nil {
		logger.Error("Repository: Ошибка итерации по строкам", err)
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}
	return tasks, nil
}

// CascadeInherited одним запросом переписывает наследуемые поля подзадач
// и отмечает ревизию родителя как доставленную
func (s *Storage) CascadeInherited(ctx context.Context, parentID uuid.UUID, inherited task.Inherited, rev int) (int, error) {
	start := time.Now()
	defer warnIfSlow(start, "cascade_inherited")

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("начало транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	// блокировка родителя упорядочивает каскад с созданием подзадач (FOR SHARE)
	var currentRev int
	err = tx.QueryRow(ctx, `SELECT inherit_rev FROM tasks WHERE uuid = $1 FOR UPDATE`, parentID).Scan(&currentRev)
	if err != nil {
		return 0, fmt.Errorf("блокировка родителя: %w", mapError(err))
	}
	if rev < currentRev {
		logger.Debug("Repository: Устаревшая ревизия каскада пропущена",
			zap.String("parent_id", parentID.String()),
			zap.Int("rev", rev),
			zap.Int("current_rev", currentRev))
		return 0, nil
	}

	query := `UPDATE tasks
				SET project_id = $2,
				end_date = $3,
				status = $4,
				start_date = CASE WHEN $3::timestamptz IS NOT NULL AND start_date > $3::timestamptz THEN $3::timestamptz ELSE start_date END,
				version = version + 1,
				updated_at = NOW()
			WHERE parent_uuid = $1`

	tag, err := tx.Exec(ctx, query, parentID, inherited.ProjectID, inherited.EndDate, inherited.Status)
	if err != nil {
		logger.Error("Repository: Не удалось обновить подзадачи", err, zap.String("parent_id", parentID.String()))
		return 0, fmt.Errorf("каскадное обновление: %w", mapError(err))
	}

	_, err = tx.Exec(ctx, `UPDATE tasks SET cascaded_rev = GREATEST(cascaded_rev, $2) WHERE uuid = $1`, parentID, rev)
	if err != nil {
		return 0, fmt.Errorf("отметка ревизии: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("фиксация транзакции: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (s *Storage) ListPendingCascades(ctx context.Context, limit int) ([]*task.Task, error) {
	start := time.Now()
	defer warnIfSlow(start, "list_pending_cascades")

	query := `SELECT ` + taskColumns + `
				FROM tasks t
				WHERE t.parent_uuid IS NULL AND t.inherit_rev > t.cascaded_rev
				ORDER BY t.created_at
				LIMIT $1`

	return s.queryTasks(ctx, start, query, limit)
}

func (s *Storage) DeleteSubtasks(ctx context.Context, parentID uuid.UUID) (int, error) {
	start := time.Now()
	defer warnIfSlow(start, "delete_subtasks")

	tag, err := s.pool.Exec(ctx, `DELETE FROM tasks WHERE parent_uuid = $1`, parentID)
	if err != nil {
		logger.Error("Repository: Удаление подзадач", err, zap.Duration("ms", time.Since(start)))
		return 0, fmt.Errorf("удаление подзадач: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// Delete удаляет задачу; ссылка родителя на подзадачу вычисляется из parent_uuid,
// поэтому отдельного отвязывания не требуется
func (s *Storage) Delete(ctx context.Context, id uuid.UUID) error {
	start := time.Now()
	defer warnIfSlow(start, "delete_task")

	tag, err := s.pool.Exec(ctx, `DELETE FROM tasks WHERE uuid = $1`, id)
	if err != nil {
		logger.Error("Repository: Удаление задачи", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("удаление задачи: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func formatUUIDs(ids []uuid.UUID) []string {
	res := make([]string, 0, len(ids))
	for _, id := range ids {
		res = append(res, id.String())
	}
	return res
}

func parseUUIDs(raw []string) ([]uuid.UUID, error) {
	res := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("разбор uuid %q: %w", s, err)
		}
		res = append(res, id)
	}
	return res, nil
}
