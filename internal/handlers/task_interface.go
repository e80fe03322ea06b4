package handlers

import (
	"context"
	"workTracker/internal/models/permission"
	"workTracker/internal/models/task"
	"workTracker/internal/models/timeentry"
	"workTracker/internal/report"
	"workTracker/internal/service"

	"github.com/google/uuid"
)

type TaskService interface {
	HealthCheck(context.Context) error
	CreateTask(ctx context.Context, owner task.Owner, attrs service.TaskAttributes, actor permission.Actor) (*task.Task, error)
	CreateSubtask(ctx context.Context, parentID uuid.UUID, attrs service.TaskAttributes, actor permission.Actor) (*task.Task, error)
	GetTask(ctx context.Context, id uuid.UUID, actor permission.Actor) (*task.Task, error)
	UpdateTask(ctx context.Context, id uuid.UUID, actor permission.Actor, options ...task.TaskOption) (*task.Task, error)
	DeleteTask(ctx context.Context, id uuid.UUID, actor permission.Actor) error
	ListTasks(ctx context.Context, owner task.Owner, filter task.Filter) ([]*task.Task, error)
	ListSubtasks(ctx context.Context, parentID uuid.UUID, actor permission.Actor) ([]*task.Task, error)
}

type TimerService interface {
	Start(ctx context.Context, userID uuid.UUID, links timeentry.Links) (*timeentry.Entry, error)
	Pause(ctx context.Context, userID uuid.UUID) (*timeentry.Entry, error)
	Resume(ctx context.Context, userID uuid.UUID) (*timeentry.Entry, error)
	Stop(ctx context.Context, userID uuid.UUID) (*timeentry.Entry, error)
	GetActive(ctx context.Context, userID uuid.UUID) (*timeentry.Entry, error)
	CreateManual(ctx context.Context, userID uuid.UUID, m timeentry.Manual) (*timeentry.Entry, error)
	SyncOffline(ctx context.Context, userID uuid.UUID, entries []timeentry.Manual) (*service.SyncResult, error)
	UpdateEntry(ctx context.Context, id, userID uuid.UUID, options ...timeentry.EntryOption) (*timeentry.Entry, error)
	DeleteEntry(ctx context.Context, id, userID uuid.UUID) error
}

type ReportService interface {
	Build(ctx context.Context, actor permission.Actor, q service.ReportQuery) (*report.Report, error)
}

type PermissionService interface {
	Grant(ctx context.Context, actor permission.Actor, spaceID, userID uuid.UUID, level permission.Level) (*permission.SpacePermission, error)
	Revoke(ctx context.Context, actor permission.Actor, spaceID, userID uuid.UUID) error
}
