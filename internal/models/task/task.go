package task

import (
	"time"

	"github.com/google/uuid"
)

type Task struct {
	UUID        uuid.UUID   `json:"uuid" db:"uuid"`
	Title       string      `json:"title" db:"title"`
	Description string      `json:"description" db:"description"`
	Priority    Priority    `json:"priority" db:"priority"`
	Status      Status      `json:"status" db:"status"`
	StartDate   *time.Time  `json:"start_date,omitempty" db:"start_date"`
	EndDate     *time.Time  `json:"end_date,omitempty" db:"end_date"`
	OwnerID     uuid.UUID   `json:"owner_id" db:"owner_id"` // владелец личной задачи или автор общей
	SpaceID     *uuid.UUID  `json:"space_id,omitempty" db:"space_id"`
	Assignees   []uuid.UUID `json:"assignees" db:"assignees"`
	ProjectID   *uuid.UUID  `json:"project_id,omitempty" db:"project_id"`
	ParentID    *uuid.UUID  `json:"parent_id,omitempty" db:"parent_uuid"`
	Subtasks    []uuid.UUID `json:"subtasks" db:"-"`
	InheritRev  int         `json:"-" db:"inherit_rev"`
	CascadedRev int         `json:"-" db:"cascaded_rev"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt   *time.Time  `json:"updated_at,omitempty" db:"updated_at,omitempty"`
	Version     int         `db:"version" json:"version"`
}

type Status string
type Priority string

const StatusTodo Status = "todo"
const StatusInProgress Status = "in-progress"
const StatusDone Status = "done"
const StatusCancelled Status = "cancelled"

const PriorityUrgent Priority = "urgent"
const PriorityHigh Priority = "high"
const PriorityNormal Priority = "normal"
const PriorityLow Priority = "low"

func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone, StatusCancelled:
		return true
	}
	return false
}

func (p Priority) Valid() bool {
	switch p {
	case PriorityUrgent, PriorityHigh, PriorityNormal, PriorityLow:
		return true
	}
	return false
}

// Owner - контекст владения: один пользователь либо пространство с автором
type Owner struct {
	UserID  uuid.UUID
	SpaceID *uuid.UUID
}

func Personal(userID uuid.UUID) Owner {
	return Owner{UserID: userID}
}

func Shared(spaceID, creatorID uuid.UUID) Owner {
	return Owner{UserID: creatorID, SpaceID: &spaceID}
}

func (o Owner) IsShared() bool {
	return o.SpaceID != nil
}

func (t *Task) IsShared() bool {
	return t.SpaceID != nil
}

func (t *Task) IsSubtask() bool {
	return t.ParentID != nil
}

// DatesValid проверяет start <= end, если обе даты заданы
func (t *Task) DatesValid() bool {
	if t.StartDate == nil || t.EndDate == nil {
		return true
	}
	return !t.StartDate.After(*t.EndDate)
}

// Inherited - поля, которые подзадача всегда получает от родителя
type Inherited struct {
	ProjectID *uuid.UUID
	EndDate   *time.Time
	Status    Status
}

func (t *Task) Inherited() Inherited {
	return Inherited{
		ProjectID: copyUUID(t.ProjectID),
		EndDate:   copyTime(t.EndDate),
		Status:    t.Status,
	}
}

// Inherit перезаписывает наследуемые поля; дата начала подтягивается к новой дате окончания
func (t *Task) Inherit(in Inherited) {
	t.ProjectID = copyUUID(in.ProjectID)
	t.EndDate = copyTime(in.EndDate)
	t.Status = in.Status
	if !t.DatesValid() {
		t.StartDate = copyTime(in.EndDate)
	}
}

func (i Inherited) Equal(other Inherited) bool {
	if i.Status != other.Status {
		return false
	}
	if (i.ProjectID == nil) != (other.ProjectID == nil) {
		return false
	}
	if i.ProjectID != nil && *i.ProjectID != *other.ProjectID {
		return false
	}
	if (i.EndDate == nil) != (other.EndDate == nil) {
		return false
	}
	return i.EndDate == nil || i.EndDate.Equal(*other.EndDate)
}

// Clone возвращает независимую копию задачи
func (t *Task) Clone() *Task {
	c := *t
	c.StartDate = copyTime(t.StartDate)
	c.EndDate = copyTime(t.EndDate)
	c.SpaceID = copyUUID(t.SpaceID)
	c.ProjectID = copyUUID(t.ProjectID)
	c.ParentID = copyUUID(t.ParentID)
	c.UpdatedAt = copyTime(t.UpdatedAt)
	c.Assignees = append([]uuid.UUID(nil), t.Assignees...)
	c.Subtasks = append([]uuid.UUID(nil), t.Subtasks...)
	return &c
}

// Filter - параметры выборки родительских задач
type Filter struct {
	ProjectID *uuid.UUID
	Priority  Priority
	Status    Status
	From      *time.Time
	To        *time.Time
	Page      int
	Limit     int
}

func (f Filter) Match(t *Task) bool {
	if t.ParentID != nil {
		return false
	}
	if f.ProjectID != nil && (t.ProjectID == nil || *t.ProjectID != *f.ProjectID) {
		return false
	}
	if f.Priority != "" && t.Priority != f.Priority {
		return false
	}
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.From != nil && (t.StartDate == nil || t.StartDate.Before(*f.From)) {
		return false
	}
	if f.To != nil && (t.EndDate == nil || t.EndDate.After(*f.To)) {
		return false
	}
	return true
}

func copyUUID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
