package dto

import (
	"time"
	"workTracker/internal/models/permission"
	"workTracker/internal/models/task"
	"workTracker/internal/models/timeentry"

	"github.com/google/uuid"
)

type CreateTaskRequest struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Priority    string      `json:"priority,omitempty"`
	Status      string      `json:"status,omitempty"`
	StartDate   *time.Time  `json:"start_date,omitempty"`
	EndDate     *time.Time  `json:"end_date,omitempty"`
	ProjectID   *uuid.UUID  `json:"project_id,omitempty"`
	Assignees   []uuid.UUID `json:"assignees,omitempty"`
}

// UpdateTaskRequest: отсутствующее поле не меняется,
// в Clear перечисляются поля, которые нужно обнулить
type UpdateTaskRequest struct {
	Title       *string      `json:"title,omitempty"`
	Description *string      `json:"description,omitempty"`
	Priority    *string      `json:"priority,omitempty"`
	Status      *string      `json:"status,omitempty"`
	StartDate   *time.Time   `json:"start_date,omitempty"`
	EndDate     *time.Time   `json:"end_date,omitempty"`
	ProjectID   *uuid.UUID   `json:"project_id,omitempty"`
	Assignees   *[]uuid.UUID `json:"assignees,omitempty"`
	Clear       []string     `json:"clear,omitempty"`
}

const (
	ClearStartDate = "start_date"
	ClearEndDate   = "end_date"
	ClearProject   = "project_id"
)

type TaskResponse struct {
	UUID        uuid.UUID   `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Priority    string      `json:"priority"`
	Status      string      `json:"status"`
	StartDate   *time.Time  `json:"start_date,omitempty"`
	EndDate     *time.Time  `json:"end_date,omitempty"`
	OwnerID     uuid.UUID   `json:"owner_id"`
	SpaceID     *uuid.UUID  `json:"space_id,omitempty"`
	Assignees   []uuid.UUID `json:"assignees"`
	ProjectID   *uuid.UUID  `json:"project_id,omitempty"`
	ParentID    *uuid.UUID  `json:"parent_id,omitempty"`
	Subtasks    []uuid.UUID `json:"subtasks"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   *time.Time  `json:"updated_at,omitempty"`
	Version     int         `json:"version"`
}

func FromTask(t *task.Task) TaskResponse {
	resp := TaskResponse{
		UUID:        t.UUID,
		Title:       t.Title,
		Description: t.Description,
		Priority:    string(t.Priority),
		Status:      string(t.Status),
		StartDate:   t.StartDate,
		EndDate:     t.EndDate,
		OwnerID:     t.OwnerID,
		SpaceID:     t.SpaceID,
		Assignees:   t.Assignees,
		ProjectID:   t.ProjectID,
		ParentID:    t.ParentID,
		Subtasks:    t.Subtasks,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
		Version:     t.Version,
	}
	if resp.Assignees == nil {
		resp.Assignees = []uuid.UUID{}
	}
	if resp.Subtasks == nil {
		resp.Subtasks = []uuid.UUID{}
	}
	return resp
}

func FromTaskList(tasks []*task.Task) []TaskResponse {
	result := make([]TaskResponse, len(tasks))
	for i, t := range tasks {
		result[i] = FromTask(t)
	}
	return result
}

type StartTimerRequest struct {
	ProjectID    *uuid.UUID `json:"project_id,omitempty"`
	TaskID       *uuid.UUID `json:"task_id,omitempty"`
	SharedTaskID *uuid.UUID `json:"shared_task_id,omitempty"`
	Description  *string    `json:"description,omitempty"`
}

func (r StartTimerRequest) Links() timeentry.Links {
	return timeentry.Links{
		ProjectID:    r.ProjectID,
		TaskID:       r.TaskID,
		SharedTaskID: r.SharedTaskID,
		Description:  r.Description,
	}
}

type ManualEntryRequest struct {
	StartTimerRequest
	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	Duration  *int64     `json:"duration,omitempty"`
	Status    string     `json:"status,omitempty"`
	OfflineID *string    `json:"offline_id,omitempty"`
}

func (r ManualEntryRequest) Manual() timeentry.Manual {
	return timeentry.Manual{
		Links:     r.Links(),
		StartTime: r.StartTime,
		EndTime:   r.EndTime,
		Duration:  r.Duration,
		Status:    timeentry.Status(r.Status),
		OfflineID: r.OfflineID,
	}
}

type SyncRequest struct {
	Entries []ManualEntryRequest `json:"entries"`
}

type UpdateEntryRequest struct {
	Description  *string    `json:"description,omitempty"`
	ProjectID    *uuid.UUID `json:"project_id,omitempty"`
	TaskID       *uuid.UUID `json:"task_id,omitempty"`
	SharedTaskID *uuid.UUID `json:"shared_task_id,omitempty"`
	StartTime    *time.Time `json:"start_time,omitempty"`
	EndTime      *time.Time `json:"end_time,omitempty"`
	Duration     *int64     `json:"duration,omitempty"`
}

// Options переводит запрос в набор изменений записи; nil-поля не трогаются
func (r UpdateEntryRequest) Options() []timeentry.EntryOption {
	var opts []timeentry.EntryOption
	if r.Description != nil {
		opts = append(opts, timeentry.WithDescription(r.Description))
	}
	if r.ProjectID != nil {
		opts = append(opts, timeentry.WithProject(r.ProjectID))
	}
	if r.TaskID != nil {
		opts = append(opts, timeentry.WithTask(r.TaskID))
	}
	if r.SharedTaskID != nil {
		opts = append(opts, timeentry.WithSharedTask(r.SharedTaskID))
	}
	if r.StartTime != nil {
		opts = append(opts, timeentry.WithStartTime(*r.StartTime))
	}
	if r.EndTime != nil {
		opts = append(opts, timeentry.WithEndTime(r.EndTime))
	}
	if r.Duration != nil {
		opts = append(opts, timeentry.WithDuration(*r.Duration))
	}
	return opts
}

type EntryResponse struct {
	UUID         uuid.UUID   `json:"id"`
	UserID       uuid.UUID   `json:"user_id"`
	ProjectID    *uuid.UUID  `json:"project_id,omitempty"`
	TaskID       *uuid.UUID  `json:"task_id,omitempty"`
	SharedTaskID *uuid.UUID  `json:"shared_task_id,omitempty"`
	Description  *string     `json:"description,omitempty"`
	StartTime    time.Time   `json:"start_time"`
	EndTime      *time.Time  `json:"end_time,omitempty"`
	Duration     int64       `json:"duration"`
	Status       string      `json:"status"`
	PausedAt     []time.Time `json:"paused_at"`
	ResumedAt    []time.Time `json:"resumed_at"`
	ReportDate   string      `json:"report_date"`
	OfflineID    *string     `json:"offline_id,omitempty"`
	IsOffline    bool        `json:"is_offline"`
	Version      int         `json:"version"`
}

func FromEntry(e *timeentry.Entry) EntryResponse {
	resp := EntryResponse{
		UUID:         e.UUID,
		UserID:       e.UserID,
		ProjectID:    e.ProjectID,
		TaskID:       e.TaskID,
		SharedTaskID: e.SharedTaskID,
		Description:  e.Description,
		StartTime:    e.StartTime,
		EndTime:      e.EndTime,
		Duration:     e.Duration,
		Status:       string(e.Status),
		PausedAt:     e.PausedAt,
		ResumedAt:    e.ResumedAt,
		ReportDate:   e.ReportDate.Format(timeentry.ReportDateLayout),
		OfflineID:    e.OfflineID,
		IsOffline:    e.IsOffline,
		Version:      e.Version,
	}
	if resp.PausedAt == nil {
		resp.PausedAt = []time.Time{}
	}
	if resp.ResumedAt == nil {
		resp.ResumedAt = []time.Time{}
	}
	return resp
}

func FromEntryList(entries []*timeentry.Entry) []EntryResponse {
	result := make([]EntryResponse, len(entries))
	for i, e := range entries {
		result[i] = FromEntry(e)
	}
	return result
}

type SyncResponse struct {
	Created []EntryResponse `json:"created"`
	Skipped []string        `json:"skipped"`
}

type GrantRequest struct {
	Level string `json:"level"`
}

type PermissionResponse struct {
	SpaceID uuid.UUID `json:"space_id"`
	UserID  uuid.UUID `json:"user_id"`
	Level   string    `json:"level"`
}

func FromPermission(p *permission.SpacePermission) PermissionResponse {
	return PermissionResponse{
		SpaceID: p.SpaceID,
		UserID:  p.UserID,
		Level:   string(p.Level),
	}
}
