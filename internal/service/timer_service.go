package service

import (
	"context"
	"errors"
	"fmt"
	"time"
	"workTracker/internal/logger"
	"workTracker/internal/models/timeentry"
	rep "workTracker/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	resourceEntry       = "запись времени"
	resourceActiveTimer = "активный таймер пользователя"

	maxTransitionAttempts = 3
)

// SyncResult - итог офлайн-синхронизации
type SyncResult struct {
	Created []*timeentry.Entry `json:"created"`
	Skipped []string           `json:"skipped"`
}

type TimerService struct {
	repo TimeEntryRepository
	now  func() time.Time
}

func NewTimerService(repo TimeEntryRepository, opts ...Option) *TimerService {
	o := buildOptions(opts)
	return &TimerService{
		repo: repo,
		now:  o.now,
	}
}

// Start запускает новый таймер; у пользователя может быть только один активный
func (s *TimerService) Start(ctx context.Context, userID uuid.UUID, links timeentry.Links) (*timeentry.Entry, error) {
	active, err := s.repo.GetActiveEntry(ctx, userID)
	if err == nil {
		return nil, activeTimerConflict(active)
	}
	if !errors.Is(err, rep.ErrNotFound) {
		return nil, fmt.Errorf("получение активного таймера: %w", err)
	}

	now := s.now()
	entry := &timeentry.Entry{
		UUID:         uuid.New(),
		UserID:       userID,
		ProjectID:    links.ProjectID,
		TaskID:       links.TaskID,
		SharedTaskID: links.SharedTaskID,
		StartTime:    now,
		Status:       timeentry.StatusRunning,
		PausedAt:     []time.Time{},
		ResumedAt:    []time.Time{},
		ReportDate:   timeentry.ReportDateOf(now),
	}
	entry.Apply(timeentry.WithDescription(links.Description))

	if err := s.repo.CreateEntry(ctx, entry); err != nil {
		if errors.Is(err, rep.ErrActiveTimerExists) {
			logger.Info("Service: Параллельный запуск таймера отклонён", zap.String("user_id", userID.String()))
			return nil, NewConflict("у пользователя уже есть активный таймер",
				ToDetail("user_id", userID.String())).wrap(err)
		}
		return nil, fmt.Errorf("запуск таймера: %w", err)
	}

	logger.Info("Service: Таймер запущен",
		zap.String("entry_id", entry.UUID.String()),
		zap.String("user_id", userID.String()))
	return entry, nil
}

func (s *TimerService) Pause(ctx context.Context, userID uuid.UUID) (*timeentry.Entry, error) {
	return s.transition(ctx, userID, "пауза", func(e *timeentry.Entry, now time.Time) error {
		if e.Status != timeentry.StatusRunning {
			return NewInvalidOperation("поставить на паузу можно только запущенный таймер",
				ToDetail("status", e.Status))
		}
		e.Duration += timeentry.ElapsedSeconds(e.StartTime, now)
		e.PausedAt = append(e.PausedAt, now)
		e.Status = timeentry.StatusPaused
		return nil
	})
}

// Resume начинает новый отрезок: start сдвигается на now, накопленная длительность не меняется
func (s *TimerService) Resume(ctx context.Context, userID uuid.UUID) (*timeentry.Entry, error) {
	return s.transition(ctx, userID, "возобновление", func(e *timeentry.Entry, now time.Time) error {
		if e.Status != timeentry.StatusPaused {
			return NewInvalidOperation("возобновить можно только таймер на паузе",
				ToDetail("status", e.Status))
		}
		e.ResumedAt = append(e.ResumedAt, now)
		e.StartTime = now
		e.Status = timeentry.StatusRunning
		return nil
	})
}

func (s *TimerService) Stop(ctx context.Context, userID uuid.UUID) (*timeentry.Entry, error) {
	return s.transition(ctx, userID, "остановка", func(e *timeentry.Entry, now time.Time) error {
		if e.Status == timeentry.StatusRunning {
			e.Duration += timeentry.ElapsedSeconds(e.StartTime, now)
		}
		e.EndTime = &now
		e.Status = timeentry.StatusStopped
		return nil
	})
}

// transition перечитывает активную запись при конфликте версий, не более maxTransitionAttempts раз
func (s *TimerService) transition(ctx context.Context, userID uuid.UUID, action string,
	apply func(e *timeentry.Entry, now time.Time) error) (*timeentry.Entry, error) {

	for attempt := 1; attempt <= maxTransitionAttempts; attempt++ {
		entry, err := s.repo.GetActiveEntry(ctx, userID)
		if err != nil {
			if errors.Is(err, rep.ErrNotFound) {
				return nil, NewNotFound(resourceActiveTimer, userID.String()).wrap(err)
			}
			return nil, fmt.Errorf("получение активного таймера: %w", err)
		}

		if err := apply(entry, s.now()); err != nil {
			return nil, err
		}

		err = s.repo.UpdateEntry(ctx, entry)
		if err == nil {
			logger.Info("Service: Состояние таймера изменено",
				zap.String("action", action),
				zap.String("entry_id", entry.UUID.String()),
				zap.String("status", string(entry.Status)),
				zap.Int64("duration", entry.Duration))
			return entry, nil
		}
		if !errors.Is(err, rep.ErrVersionConflict) {
			return nil, fmt.Errorf("%s таймера: %w", action, err)
		}
		logger.Warn("Service: Конфликт версий таймера, повтор",
			zap.String("entry_id", entry.UUID.String()),
			zap.Int("attempt", attempt))
	}

	return nil, NewConflict("таймер изменяется параллельно, повторите запрос",
		ToDetail("user_id", userID.String()))
}

func (s *TimerService) GetActive(ctx context.Context, userID uuid.UUID) (*timeentry.Entry, error) {
	entry, err := s.repo.GetActiveEntry(ctx, userID)
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			return nil, NewNotFound(resourceActiveTimer, userID.String()).wrap(err)
		}
		return nil, fmt.Errorf("получение активного таймера: %w", err)
	}
	return entry, nil
}

// CreateManual добавляет запись задним числом, минуя проверку активного таймера на уровне сервиса
func (s *TimerService) CreateManual(ctx context.Context, userID uuid.UUID, m timeentry.Manual) (*timeentry.Entry, error) {
	entry, err := s.buildManual(userID, m, false)
	if err != nil {
		return nil, err
	}
	if err := s.repo.CreateEntry(ctx, entry); err != nil {
		return nil, s.mapEntryError(err, entry)
	}

	logger.Info("Service: Добавлена ручная запись",
		zap.String("entry_id", entry.UUID.String()),
		zap.String("user_id", userID.String()))
	return entry, nil
}

// SyncOffline идемпотентна по (user, offline id): повторно присланные записи пропускаются
func (s *TimerService) SyncOffline(ctx context.Context, userID uuid.UUID, entries []timeentry.Manual) (*SyncResult, error) {
	result := &SyncResult{
		Created: []*timeentry.Entry{},
		Skipped: []string{},
	}

	for ind, m := range entries {
		if m.OfflineID != nil && *m.OfflineID != "" {
			_, err := s.repo.GetEntryByOfflineID(ctx, userID, *m.OfflineID)
			if err == nil {
				result.Skipped = append(result.Skipped, *m.OfflineID)
				continue
			}
			if !errors.Is(err, rep.ErrNotFound) {
				return nil, fmt.Errorf("поиск офлайн-записи: %w", err)
			}
		}

		entry, err := s.buildManual(userID, m, true)
		if err != nil {
			logger.Info("Service: Офлайн-запись отклонена", zap.Int("index", ind), zap.Error(err))
			return nil, err
		}

		if err := s.repo.CreateEntry(ctx, entry); err != nil {
			if errors.Is(err, rep.ErrDuplicateOffline) {
				result.Skipped = append(result.Skipped, *entry.OfflineID)
				continue
			}
			return nil, s.mapEntryError(err, entry)
		}
		result.Created = append(result.Created, entry)
	}

	logger.Info("Service: Офлайн-синхронизация завершена",
		zap.String("user_id", userID.String()),
		zap.Int("created", len(result.Created)),
		zap.Int("skipped", len(result.Skipped)))
	return result, nil
}

func (s *TimerService) buildManual(userID uuid.UUID, m timeentry.Manual, offline bool) (*timeentry.Entry, error) {
	if m.StartTime.IsZero() {
		return nil, NewValidationError("start_time", "время начала обязательно")
	}

	status := m.Status
	if status == "" {
		status = timeentry.StatusStopped
	}
	switch status {
	case timeentry.StatusRunning, timeentry.StatusPaused, timeentry.StatusStopped:
	default:
		return nil, NewValidationError("status", "неизвестный статус записи")
	}

	start := m.StartTime.UTC()
	var end *time.Time
	if m.EndTime != nil {
		e := m.EndTime.UTC()
		if e.Before(start) {
			return nil, NewInvalidOperation("время окончания раньше времени начала",
				ToDetail("start_time", start),
				ToDetail("end_time", e))
		}
		end = &e
	}
	if end != nil && status != timeentry.StatusStopped {
		return nil, NewInvalidOperation("у активного таймера не может быть времени окончания",
			ToDetail("status", string(status)))
	}

	var duration int64
	switch {
	case m.Duration != nil:
		if *m.Duration < 0 {
			return nil, NewValidationError("duration", "длительность не может быть отрицательной")
		}
		duration = *m.Duration
	case end != nil:
		duration = timeentry.ElapsedSeconds(start, *end)
	}

	entry := &timeentry.Entry{
		UUID:         uuid.New(),
		UserID:       userID,
		ProjectID:    m.ProjectID,
		TaskID:       m.TaskID,
		SharedTaskID: m.SharedTaskID,
		StartTime:    start,
		EndTime:      end,
		Duration:     duration,
		Status:       status,
		PausedAt:     []time.Time{},
		ResumedAt:    []time.Time{},
		ReportDate:   timeentry.ReportDateOf(start),
		IsOffline:    offline,
	}
	entry.Apply(timeentry.WithDescription(m.Description))
	if m.OfflineID != nil && *m.OfflineID != "" {
		id := *m.OfflineID
		entry.OfflineID = &id
	}
	return entry, nil
}

// UpdateEntry правит запись владельца; новое начало пересчитывает дату отчёта,
// у остановленной записи длительность считается по границам, если не задана явно
func (s *TimerService) UpdateEntry(ctx context.Context, id, userID uuid.UUID, options ...timeentry.EntryOption) (*timeentry.Entry, error) {
	entry, err := s.ownedEntry(ctx, id, userID, "изменение записи времени")
	if err != nil {
		return nil, err
	}

	before := entry.Clone()
	entry.Apply(options...)
	explicitDuration := entry.DurationSet()

	if entry.Duration < 0 {
		return nil, NewValidationError("duration", "длительность не может быть отрицательной")
	}
	if entry.IsActive() && entry.EndTime != nil {
		return nil, NewInvalidOperation("у активного таймера не может быть времени окончания",
			ToDetail("entry_id", id.String()))
	}
	if entry.EndTime != nil && entry.EndTime.Before(entry.StartTime) {
		return nil, NewInvalidOperation("время окончания раньше времени начала",
			ToDetail("start_time", entry.StartTime),
			ToDetail("end_time", *entry.EndTime))
	}

	startChanged := !entry.StartTime.Equal(before.StartTime)
	if startChanged {
		entry.ReportDate = timeentry.ReportDateOf(entry.StartTime)
	}
	endChanged := (entry.EndTime == nil) != (before.EndTime == nil) ||
		(entry.EndTime != nil && !entry.EndTime.Equal(*before.EndTime))
	if entry.Status == timeentry.StatusStopped && entry.EndTime != nil &&
		(startChanged || endChanged) && !explicitDuration {
		entry.Duration = timeentry.ElapsedSeconds(entry.StartTime, *entry.EndTime)
	}

	if err := s.repo.UpdateEntry(ctx, entry); err != nil {
		return nil, s.mapEntryError(err, entry)
	}

	logger.Info("Service: Запись времени изменена", zap.String("entry_id", id.String()))
	return entry, nil
}

func (s *TimerService) DeleteEntry(ctx context.Context, id, userID uuid.UUID) error {
	if _, err := s.ownedEntry(ctx, id, userID, "удаление записи времени"); err != nil {
		return err
	}

	if err := s.repo.DeleteEntry(ctx, id); err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			return NewNotFound(resourceEntry, id.String()).wrap(err)
		}
		return fmt.Errorf("удаление записи времени: %w", err)
	}

	logger.Info("Service: Запись времени удалена", zap.String("entry_id", id.String()))
	return nil
}

func (s *TimerService) ownedEntry(ctx context.Context, id, userID uuid.UUID, action string) (*timeentry.Entry, error) {
	entry, err := s.repo.GetEntryByID(ctx, id)
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			return nil, NewNotFound(resourceEntry, id.String()).wrap(err)
		}
		return nil, fmt.Errorf("получение записи времени: %w", err)
	}
	if entry.UserID != userID {
		return nil, NewForbidden(action, ToDetail("entry_id", id.String()))
	}
	return entry, nil
}

func (s *TimerService) mapEntryError(err error, entry *timeentry.Entry) error {
	switch {
	case errors.Is(err, rep.ErrActiveTimerExists):
		return NewConflict("у пользователя уже есть активный таймер",
			ToDetail("user_id", entry.UserID.String())).wrap(err)
	case errors.Is(err, rep.ErrDuplicateOffline):
		return NewConflict("офлайн-запись уже синхронизирована",
			ToDetail("offline_id", *entry.OfflineID)).wrap(err)
	case errors.Is(err, rep.ErrVersionConflict):
		return NewConflict("запись была изменена параллельно, повторите запрос",
			ToDetail("entry_id", entry.UUID.String())).wrap(err)
	case errors.Is(err, rep.ErrNotFound):
		return NewNotFound(resourceEntry, entry.UUID.String()).wrap(err)
	}
	return fmt.Errorf("сохранение записи времени: %w", err)
}

func activeTimerConflict(active *timeentry.Entry) *BusinessError {
	logger.Info("Service: Таймер уже запущен", zap.String("entry_id", active.UUID.String()))
	return NewConflict("у пользователя уже есть активный таймер",
		ToDetail("entry_id", active.UUID.String()),
		ToDetail("status", active.Status))
}
