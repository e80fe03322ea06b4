package timeentry

import (
	"time"

	"github.com/google/uuid"
)

// EntryOption - частичное изменение записи времени
type EntryOption func(*Entry)

func WithDescription(description *string) EntryOption {
	return func(e *Entry) {
		if description == nil || *description == "" {
			e.Description = nil
			return
		}
		d := *description
		e.Description = &d
	}
}

func WithProject(projectID *uuid.UUID) EntryOption {
	return func(e *Entry) {
		e.ProjectID = copyUUID(projectID)
	}
}

func WithTask(taskID *uuid.UUID) EntryOption {
	return func(e *Entry) {
		e.TaskID = copyUUID(taskID)
	}
}

func WithSharedTask(taskID *uuid.UUID) EntryOption {
	return func(e *Entry) {
		e.SharedTaskID = copyUUID(taskID)
	}
}

func WithStartTime(start time.Time) EntryOption {
	if start.IsZero() {
		return nil
	}
	return func(e *Entry) {
		e.StartTime = start.UTC()
	}
}

func WithEndTime(end *time.Time) EntryOption {
	if end == nil {
		return nil
	}
	return func(e *Entry) {
		t := end.UTC()
		e.EndTime = &t
	}
}

func WithDuration(seconds int64) EntryOption {
	return func(e *Entry) {
		e.Duration = seconds
		e.durationSet = true
	}
}

func (e *Entry) Apply(options ...EntryOption) {
	e.durationSet = false
	for _, opt := range options {
		if opt != nil {
			opt(e)
		}
	}
}

// DurationSet сообщает, задавал ли последний Apply длительность явно,
// даже если значение совпало с прежним
func (e *Entry) DurationSet() bool {
	return e.durationSet
}
