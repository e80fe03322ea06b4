package task

import (
	"time"

	"github.com/google/uuid"
)

type TaskOption func(*Task)

func WithTitle(title string) TaskOption {
	if title == "" {
		return nil
	}
	return func(task *Task) {
		task.Title = title
	}
}

func WithDescription(description string) TaskOption {
	return func(task *Task) {
		task.Description = description
	}
}

func WithStatus(status Status) TaskOption {
	if status == "" {
		return nil
	}
	return func(task *Task) {
		task.Status = status
	}
}

func WithPriority(priority Priority) TaskOption {
	if priority == "" {
		return nil
	}
	return func(task *Task) {
		task.Priority = priority
	}
}

// WithStartDate с nil очищает дату
func WithStartDate(start *time.Time) TaskOption {
	return func(task *Task) {
		task.StartDate = copyTime(start)
	}
}

// WithEndDate с nil очищает дату
func WithEndDate(end *time.Time) TaskOption {
	return func(task *Task) {
		task.EndDate = copyTime(end)
	}
}

// WithProject с nil отвязывает задачу от проекта
func WithProject(projectID *uuid.UUID) TaskOption {
	return func(task *Task) {
		task.ProjectID = copyUUID(projectID)
	}
}

func WithAssignees(assignees []uuid.UUID) TaskOption {
	if assignees == nil {
		return nil
	}
	return func(task *Task) {
		task.Assignees = dedupe(assignees)
	}
}

// Apply применяет опции, пропуская nil
func (t *Task) Apply(options ...TaskOption) {
	for _, opt := range options {
		if opt != nil {
			opt(t)
		}
	}
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	res := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		res = append(res, id)
	}
	return res
}
