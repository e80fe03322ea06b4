package timeentry

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const StatusRunning Status = "running"
const StatusPaused Status = "paused"
const StatusStopped Status = "stopped"

const ReportDateLayout = "2006-01-02"

type Entry struct {
	UUID         uuid.UUID   `json:"uuid" db:"uuid"`
	UserID       uuid.UUID   `json:"user_id" db:"user_id"`
	ProjectID    *uuid.UUID  `json:"project_id,omitempty" db:"project_id"`
	TaskID       *uuid.UUID  `json:"task_id,omitempty" db:"task_id"`
	SharedTaskID *uuid.UUID  `json:"shared_task_id,omitempty" db:"shared_task_id"`
	Description  *string     `json:"description,omitempty" db:"description"`
	StartTime    time.Time   `json:"start_time" db:"start_time"`
	EndTime      *time.Time  `json:"end_time,omitempty" db:"end_time"`
	Duration     int64       `json:"duration" db:"duration"` // секунды
	Status       Status      `json:"status" db:"status"`
	PausedAt     []time.Time `json:"paused_at" db:"paused_at"`
	ResumedAt    []time.Time `json:"resumed_at" db:"resumed_at"`
	ReportDate   time.Time   `json:"report_date" db:"report_date"`
	OfflineID    *string     `json:"offline_id,omitempty" db:"offline_id"`
	IsOffline    bool        `json:"is_offline" db:"is_offline"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt    *time.Time  `json:"updated_at,omitempty" db:"updated_at"`
	Version      int         `json:"version" db:"version"`

	// durationSet отмечает, что последний Apply содержал WithDuration
	durationSet bool
}

// Links - необязательные привязки записи
type Links struct {
	ProjectID    *uuid.UUID
	TaskID       *uuid.UUID
	SharedTaskID *uuid.UUID
	Description  *string
}

func (e *Entry) IsActive() bool {
	return e.Status == StatusRunning || e.Status == StatusPaused
}

// ReportDateOf - календарный день (UTC) момента t
func ReportDateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ElapsedSeconds - целые секунды между from и to, floor от миллисекунд
func ElapsedSeconds(from, to time.Time) int64 {
	ms := to.Sub(from).Milliseconds()
	if ms <= 0 {
		return 0
	}
	return ms / 1000
}

func (e *Entry) Clone() *Entry {
	c := *e
	c.ProjectID = copyUUID(e.ProjectID)
	c.TaskID = copyUUID(e.TaskID)
	c.SharedTaskID = copyUUID(e.SharedTaskID)
	if e.Description != nil {
		d := *e.Description
		c.Description = &d
	}
	if e.EndTime != nil {
		t := *e.EndTime
		c.EndTime = &t
	}
	if e.UpdatedAt != nil {
		t := *e.UpdatedAt
		c.UpdatedAt = &t
	}
	if e.OfflineID != nil {
		o := *e.OfflineID
		c.OfflineID = &o
	}
	c.PausedAt = append([]time.Time(nil), e.PausedAt...)
	c.ResumedAt = append([]time.Time(nil), e.ResumedAt...)
	return &c
}

// Manual - запись, добавленная вручную или из офлайн-режима
type Manual struct {
	Links
	StartTime time.Time
	EndTime   *time.Time
	Duration  *int64
	Status    Status
	OfflineID *string
}

// Resolved - остановленная запись с подставленными названиями проекта и задачи
type Resolved struct {
	Entry
	ProjectName *string
	TaskTitle   *string
}

func copyUUID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
