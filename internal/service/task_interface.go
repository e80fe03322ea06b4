package service

import (
	"context"
	"time"
	"workTracker/internal/models/permission"
	"workTracker/internal/models/task"
	"workTracker/internal/models/timeentry"

	"github.com/google/uuid"
)

type TaskRepository interface {
	HealthCheck(context.Context) error
	Create(context.Context, *task.Task) error
	CreateSubtask(context.Context, uuid.UUID, *task.Task) error
	Update(context.Context, *task.Task) error
	GetByID(context.Context, uuid.UUID) (*task.Task, error)
	List(context.Context, task.Owner, task.Filter) ([]*task.Task, error)
	ListSubtasks(context.Context, uuid.UUID) ([]*task.Task, error)
	CascadeInherited(context.Context, uuid.UUID, task.Inherited, int) (int, error)
	ListPendingCascades(context.Context, int) ([]*task.Task, error)
	DeleteSubtasks(context.Context, uuid.UUID) (int, error)
	Delete(context.Context, uuid.UUID) error
}

type TimeEntryRepository interface {
	CreateEntry(context.Context, *timeentry.Entry) error
	UpdateEntry(context.Context, *timeentry.Entry) error
	GetEntryByID(context.Context, uuid.UUID) (*timeentry.Entry, error)
	GetActiveEntry(context.Context, uuid.UUID) (*timeentry.Entry, error)
	GetEntryByOfflineID(context.Context, uuid.UUID, string) (*timeentry.Entry, error)
	ListStopped(ctx context.Context, userID uuid.UUID, from, to time.Time, projectID *uuid.UUID) ([]*timeentry.Resolved, error)
	DeleteEntry(context.Context, uuid.UUID) error
}

// PermissionOracle - внешний компонент контроля доступа к пространствам
type PermissionOracle interface {
	CanEdit(ctx context.Context, spaceID, userID uuid.UUID, role permission.Role) (bool, error)
	CanManage(ctx context.Context, spaceID, userID uuid.UUID, role permission.Role) (bool, error)
}
