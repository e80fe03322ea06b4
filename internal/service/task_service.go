package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"workTracker/internal/logger"
	"workTracker/internal/models/permission"
	"workTracker/internal/models/task"
	rep "workTracker/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// здесь происходит проверка ошибок бизнес-логики иерархии задач

const resourceTask = "задача"

// TaskAttributes - набор атрибутов при создании задачи или подзадачи
type TaskAttributes struct {
	Title       string
	Description string
	Priority    task.Priority
	Status      task.Status
	StartDate   *time.Time
	EndDate     *time.Time
	ProjectID   *uuid.UUID
	Assignees   []uuid.UUID
}

type TaskService struct {
	repo     TaskRepository
	oracle   PermissionOracle
	repoType RepoType
	now      func() time.Time
}

func NewTaskService(repo TaskRepository, oracle PermissionOracle, repoType RepoType, opts ...Option) *TaskService {
	o := buildOptions(opts)
	return &TaskService{
		repo:     repo,
		oracle:   oracle,
		repoType: repoType,
		now:      o.now,
	}
}

func (s *TaskService) HealthCheck(ctx context.Context) error {
	if err := s.repo.HealthCheck(ctx); err != nil {
		logger.Error("Service: Хранилище недоступно", err, zap.String("repository", string(s.repoType)))
		return fmt.Errorf("проверка здоровья сервиса: %w", err)
	}
	return nil
}

// CreateTask создаёт родительскую задачу в личном или общем контексте
func (s *TaskService) CreateTask(ctx context.Context, owner task.Owner, attrs TaskAttributes, actor permission.Actor) (*task.Task, error) {
	if owner.IsShared() {
		if err := s.checkSpaceEdit(ctx, *owner.SpaceID, actor, "создание задачи"); err != nil {
			return nil, err
		}
		owner.UserID = actor.UserID
	} else if owner.UserID != actor.UserID {
		return nil, NewForbidden("создание задачи другого пользователя",
			ToDetail("owner_id", owner.UserID.String()))
	}

	newTask := &task.Task{
		UUID:        uuid.New(),
		Title:       strings.TrimSpace(attrs.Title),
		Description: attrs.Description,
		Priority:    defaultPriority(attrs.Priority),
		Status:      defaultStatus(attrs.Status),
		StartDate:   attrs.StartDate,
		EndDate:     attrs.EndDate,
		OwnerID:     owner.UserID,
		SpaceID:     owner.SpaceID,
		ProjectID:   attrs.ProjectID,
	}
	newTask.Apply(task.WithAssignees(assigneesFor(owner, attrs.Assignees)))

	if err := validateTask(newTask); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, newTask); err != nil {
		return nil, s.mapRepoError(err, newTask.UUID, "создание задачи")
	}

	logger.Info("Service: Задача создана",
		zap.String("task_id", newTask.UUID.String()),
		zap.Bool("shared", newTask.IsShared()))
	return newTask, nil
}

// CreateSubtask создаёт подзадачу; статус, проект и дата окончания
// всегда берутся у родителя, значения вызывающего для них игнорируются
func (s *TaskService) CreateSubtask(ctx context.Context, parentID uuid.UUID, attrs TaskAttributes, actor permission.Actor) (*task.Task, error) {
	parent, err := s.repo.GetByID(ctx, parentID)
	if err != nil {
		return nil, s.mapRepoError(err, parentID, "получение родительской задачи")
	}

	if err := s.authorize(ctx, parent, actor, "создание подзадачи"); err != nil {
		return nil, err
	}

	if parent.IsSubtask() {
		logger.Info("Service: Попытка создать подзадачу у подзадачи", zap.String("parent_id", parentID.String()))
		return nil, NewInvalidOperation("подзадача не может иметь собственных подзадач",
			ToDetail("parent_id", parentID.String()))
	}

	if attrs.StartDate != nil && parent.EndDate != nil && attrs.StartDate.After(*parent.EndDate) {
		return nil, NewInvalidOperation("дата начала подзадачи позже даты окончания родителя",
			ToDetail("start_date", *attrs.StartDate),
			ToDetail("end_date", *parent.EndDate))
	}

	sub := &task.Task{
		UUID:        uuid.New(),
		Title:       strings.TrimSpace(attrs.Title),
		Description: attrs.Description,
		Priority:    defaultPriority(attrs.Priority),
		StartDate:   attrs.StartDate,
		OwnerID:     parent.OwnerID,
		SpaceID:     parent.SpaceID,
	}
	owner := task.Personal(parent.OwnerID)
	if parent.IsShared() {
		sub.OwnerID = actor.UserID
		owner = task.Shared(*parent.SpaceID, actor.UserID)
	}
	sub.Apply(task.WithAssignees(assigneesFor(owner, attrs.Assignees)))
	sub.Inherit(parent.Inherited())

	if err := validateTask(sub); err != nil {
		return nil, err
	}

	if err := s.repo.CreateSubtask(ctx, parent.UUID, sub); err != nil {
		return nil, s.mapRepoError(err, parentID, "создание подзадачи")
	}

	logger.Info("Service: Подзадача создана",
		zap.String("task_id", sub.UUID.String()),
		zap.String("parent_id", parentID.String()))
	return sub, nil
}

// GetTask: личную задачу читает только владелец, общую - любой пользователь
func (s *TaskService) GetTask(ctx context.Context, id uuid.UUID, actor permission.Actor) (*task.Task, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapRepoError(err, id, "получение задачи")
	}
	if err := s.authorizeRead(t, actor, "просмотр задачи"); err != nil {
		return nil, err
	}
	return t, nil
}

// UpdateTask применяет частичное обновление; если у родителя изменились
// проект, дата окончания или статус, изменения рассылаются подзадачам
func (s *TaskService) UpdateTask(ctx context.Context, id uuid.UUID, actor permission.Actor, options ...task.TaskOption) (*task.Task, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapRepoError(err, id, "получение задачи")
	}

	if err := s.authorize(ctx, t, actor, "изменение задачи"); err != nil {
		return nil, err
	}

	before := t.Inherited()
	t.Apply(options...)
	t.Title = strings.TrimSpace(t.Title)
	if !t.IsShared() {
		t.Assignees = []uuid.UUID{t.OwnerID}
	}

	if err := validateTask(t); err != nil {
		return nil, err
	}

	cascade := !t.IsSubtask() && !before.Equal(t.Inherited())
	if cascade {
		if err := s.checkSubtaskDates(ctx, t); err != nil {
			return nil, err
		}
		t.InheritRev++
	}

	if err := s.repo.Update(ctx, t); err != nil {
		return nil, s.mapRepoError(err, id, "обновление задачи")
	}

	if cascade {
		s.cascade(ctx, t)
	}

	updated, err := s.repo.GetByID(ctx, id)
	if err != nil {
		logger.Warn("Service: Не удалось перечитать задачу после обновления",
			zap.String("task_id", id.String()), zap.Error(err))
		return t, nil
	}
	return updated, nil
}

// cascade - best-effort: запись родителя уже зафиксирована, сбой только логируется,
// а фоновый обработчик повторит рассылку по inherit_rev
func (s *TaskService) cascade(ctx context.Context, parent *task.Task) {
	updated, err := s.repo.CascadeInherited(ctx, parent.UUID, parent.Inherited(), parent.InheritRev)
	if err != nil {
		logger.Warn("Service: Каскадное обновление подзадач не выполнено",
			zap.String("parent_id", parent.UUID.String()),
			zap.Int("inherit_rev", parent.InheritRev),
			zap.Error(err))
		return
	}
	logger.Info("Service: Подзадачи обновлены",
		zap.String("parent_id", parent.UUID.String()),
		zap.Int("updated", updated))
}

func (s *TaskService) checkSubtaskDates(ctx context.Context, parent *task.Task) error {
	if parent.EndDate == nil || len(parent.Subtasks) == 0 {
		return nil
	}

	subtasks, err := s.repo.ListSubtasks(ctx, parent.UUID)
	if err != nil {
		return s.mapRepoError(err, parent.UUID, "получение подзадач")
	}
	for _, sub := range subtasks {
		if sub.StartDate != nil && sub.StartDate.After(*parent.EndDate) {
			return NewInvalidOperation("дата окончания раньше даты начала подзадачи",
				ToDetail("subtask_id", sub.UUID.String()),
				ToDetail("start_date", *sub.StartDate))
		}
	}
	return nil
}

// DeleteTask удаляет задачу вместе с подзадачами
func (s *TaskService) DeleteTask(ctx context.Context, id uuid.UUID, actor permission.Actor) error {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return s.mapRepoError(err, id, "получение задачи")
	}

	if err := s.authorize(ctx, t, actor, "удаление задачи"); err != nil {
		return err
	}

	if len(t.Subtasks) > 0 {
		deleted, err := s.repo.DeleteSubtasks(ctx, id)
		if err != nil {
			return s.mapRepoError(err, id, "удаление подзадач")
		}
		logger.Info("Service: Подзадачи удалены", zap.String("parent_id", id.String()), zap.Int("deleted", deleted))
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return s.mapRepoError(err, id, "удаление задачи")
	}

	logger.Info("Service: Задача удалена", zap.String("task_id", id.String()))
	return nil
}

// ListTasks возвращает только родительские задачи
func (s *TaskService) ListTasks(ctx context.Context, owner task.Owner, filter task.Filter) ([]*task.Task, error) {
	if filter.Priority != "" && !filter.Priority.Valid() {
		return nil, NewValidationError("priority", "неизвестный приоритет")
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, NewValidationError("status", "неизвестный статус")
	}
	if filter.From != nil && filter.To != nil && filter.From.After(*filter.To) {
		return nil, NewValidationError("from", "начало периода позже конца")
	}

	if filter.Page < 1 {
		filter.Page = defaultPage
	}
	if filter.Limit < 1 {
		filter.Limit = defaultLimit
	}
	if filter.Limit > maxLimit {
		filter.Limit = maxLimit
	}

	tasks, err := s.repo.List(ctx, owner, filter)
	if err != nil {
		return nil, fmt.Errorf("получение задач: %w", err)
	}
	return tasks, nil
}

func (s *TaskService) ListSubtasks(ctx context.Context, parentID uuid.UUID, actor permission.Actor) ([]*task.Task, error) {
	parent, err := s.repo.GetByID(ctx, parentID)
	if err != nil {
		return nil, s.mapRepoError(err, parentID, "получение подзадач")
	}
	if err := s.authorizeRead(parent, actor, "просмотр подзадач"); err != nil {
		return nil, err
	}

	subtasks, err := s.repo.ListSubtasks(ctx, parentID)
	if err != nil {
		return nil, s.mapRepoError(err, parentID, "получение подзадач")
	}
	return subtasks, nil
}

// authorize: личная задача - только владелец, общая - решение оракула
func (s *TaskService) authorize(ctx context.Context, t *task.Task, actor permission.Actor, action string) error {
	if t.IsShared() {
		return s.checkSpaceEdit(ctx, *t.SpaceID, actor, action)
	}
	return s.checkOwner(t, actor, action)
}

// authorizeRead: чтение общих задач оракулом не проверяется
func (s *TaskService) authorizeRead(t *task.Task, actor permission.Actor, action string) error {
	if t.IsShared() {
		return nil
	}
	return s.checkOwner(t, actor, action)
}

func (s *TaskService) checkOwner(t *task.Task, actor permission.Actor, action string) error {
	if t.OwnerID != actor.UserID {
		logger.Info("Service: Отказ в доступе к личной задаче",
			zap.String("task_id", t.UUID.String()),
			zap.String("user_id", actor.UserID.String()))
		return NewForbidden(action, ToDetail("task_id", t.UUID.String()))
	}
	return nil
}

// решение оракула не кэшируется, права могут поменяться между запросами
func (s *TaskService) checkSpaceEdit(ctx context.Context, spaceID uuid.UUID, actor permission.Actor, action string) error {
	allowed, err := s.oracle.CanEdit(ctx, spaceID, actor.UserID, actor.Role)
	if err != nil {
		return fmt.Errorf("проверка прав доступа: %w", err)
	}
	if !allowed {
		logger.Info("Service: Отказ в доступе к пространству",
			zap.String("space_id", spaceID.String()),
			zap.String("user_id", actor.UserID.String()))
		return NewForbidden(action, ToDetail("space_id", spaceID.String()))
	}
	return nil
}

func (s *TaskService) mapRepoError(err error, id uuid.UUID, operation string) error {
	switch {
	case errors.Is(err, rep.ErrNotFound):
		logger.Info("Service: Задача не найдена", zap.String("target_id", id.String()))
		return NewNotFound(resourceTask, id.String()).wrap(err)
	case errors.Is(err, rep.ErrInvalidHierarchy):
		return NewInvalidOperation("нарушение иерархии задач", ToDetail("task_id", id.String())).wrap(err)
	case errors.Is(err, rep.ErrInvalidDates):
		return NewInvalidOperation("дата начала позже даты окончания", ToDetail("task_id", id.String())).wrap(err)
	case errors.Is(err, rep.ErrVersionConflict):
		return NewConflict("задача была изменена параллельно, повторите запрос", ToDetail("task_id", id.String())).wrap(err)
	}
	return fmt.Errorf("%s: %w", operation, err)
}

func validateTask(t *task.Task) error {
	if t.Title == "" {
		return NewValidationError("title", "название не может быть пустым")
	}
	if !t.Priority.Valid() {
		return NewValidationError("priority", "неизвестный приоритет")
	}
	if !t.Status.Valid() {
		return NewValidationError("status", "неизвестный статус")
	}
	if t.ParentID != nil && *t.ParentID == t.UUID {
		return NewInvalidOperation("задача не может быть родителем самой себя", ToDetail("task_id", t.UUID.String()))
	}
	if !t.DatesValid() {
		return NewInvalidOperation("дата начала позже даты окончания",
			ToDetail("start_date", *t.StartDate),
			ToDetail("end_date", *t.EndDate))
	}
	return nil
}

func assigneesFor(owner task.Owner, requested []uuid.UUID) []uuid.UUID {
	if !owner.IsShared() {
		return []uuid.UUID{owner.UserID}
	}
	if requested == nil {
		return []uuid.UUID{}
	}
	return requested
}

func defaultPriority(p task.Priority) task.Priority {
	if p == "" {
		return task.PriorityNormal
	}
	return p
}

func defaultStatus(st task.Status) task.Status {
	if st == "" {
		return task.StatusTodo
	}
	return st
}
