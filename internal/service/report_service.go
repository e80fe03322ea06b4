package service

import (
	"context"
	"fmt"
	"time"
	"workTracker/internal/logger"
	"workTracker/internal/models/permission"
	"workTracker/internal/models/timeentry"
	"workTracker/internal/report"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StoppedEntryLister - часть хранилища записей, нужная отчётам
type StoppedEntryLister interface {
	ListStopped(ctx context.Context, userID uuid.UUID, from, to time.Time, projectID *uuid.UUID) ([]*timeentry.Resolved, error)
}

// ReportQuery: пустые From/To означают текущую неделю с понедельника
type ReportQuery struct {
	TargetUserID *uuid.UUID
	From         *time.Time
	To           *time.Time
	ProjectID    *uuid.UUID
}

type ReportService struct {
	repo StoppedEntryLister
	now  func() time.Time
}

func NewReportService(repo StoppedEntryLister, opts ...Option) *ReportService {
	o := buildOptions(opts)
	return &ReportService{
		repo: repo,
		now:  o.now,
	}
}

func (s *ReportService) Build(ctx context.Context, actor permission.Actor, q ReportQuery) (*report.Report, error) {
	target := actor.UserID
	if q.TargetUserID != nil && *q.TargetUserID != actor.UserID {
		if !actor.Role.Elevated() {
			logger.Info("Service: Отказ в доступе к чужому отчёту",
				zap.String("user_id", actor.UserID.String()),
				zap.String("target_id", q.TargetUserID.String()))
			return nil, NewForbidden("просмотр отчёта другого пользователя",
				ToDetail("user_id", q.TargetUserID.String()))
		}
		target = *q.TargetUserID
	}

	from, to := report.WeekRange(s.now())
	if q.From != nil {
		from = timeentry.ReportDateOf(*q.From)
	}
	if q.To != nil {
		to = timeentry.ReportDateOf(*q.To)
	}
	if from.After(to) {
		return nil, NewValidationError("from", "начало периода позже конца")
	}

	entries, err := s.repo.ListStopped(ctx, target, from, to, q.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("получение записей для отчёта: %w", err)
	}

	rep := report.Aggregate(entries)
	rep.UserID = target
	rep.From = from.Format(timeentry.ReportDateLayout)
	rep.To = to.Format(timeentry.ReportDateLayout)

	logger.Debug("Service: Отчёт построен",
		zap.String("user_id", target.String()),
		zap.Int("entries", len(entries)),
		zap.Int64("total_duration", rep.TotalDuration))
	return rep, nil
}
