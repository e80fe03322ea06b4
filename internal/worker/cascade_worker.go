package worker

import (
	"context"
	"fmt"
	"time"
	"workTracker/internal/logger"
	"workTracker/internal/models/task"
	"workTracker/internal/service"

	"go.uber.org/zap"
)

// CascadeWorker дорассылает наследуемые поля родителей, у которых
// каскад после обновления не прошёл (inherit_rev > cascaded_rev)
type CascadeWorker struct {
	repo      service.TaskRepository
	interval  time.Duration
	batchSize int
}

func NewCascadeWorker(repo service.TaskRepository, interval *time.Duration, batchSize *int) *CascadeWorker {
	var intervalToSet time.Duration
	if interval == nil {
		intervalToSet = time.Minute
	} else {
		intervalToSet = *interval
	}

	var batchToSet int
	if batchSize == nil {
		batchToSet = 100
	} else {
		batchToSet = *batchSize
	}
	return &CascadeWorker{
		repo:      repo,
		interval:  intervalToSet,
		batchSize: batchToSet,
	}
}

func (w *CascadeWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			logger.Debug("Worker: Проверка незавершённых каскадов", zap.Time("started_at", time.Now()))
			w.Check(ctx)
		case <-ctx.Done():
			logger.Info("Worker: Каскадный обработчик останавливается")
			return
		}
	}
}

// Check возвращает число родителей, для которых каскад выполнен
func (w *CascadeWorker) Check(ctx context.Context) int {
	start := time.Now()

	parents, err := w.pendingParents(ctx)
	if err != nil {
		logger.Warn("Worker: Ошибка получения задач", zap.Error(err))
		return 0
	}
	if len(parents) == 0 {
		return 0
	}

	repaired, subtasks := 0, 0
	for _, parent := range parents {
		n, err := w.Repair(ctx, parent)
		if err != nil {
			logger.Warn("Worker: Ошибка каскадного обновления",
				zap.String("parent_id", parent.UUID.String()),
				zap.Error(err))
			continue
		}
		repaired++
		subtasks += n
	}

	logger.Info(
		"Worker: Завершение дорассылки каскадов",
		zap.Duration("ms", time.Since(start)),
		zap.Int("checked", len(parents)),
		zap.Int("repaired", repaired),
		zap.Int("subtasks", subtasks),
	)
	return repaired
}

func (w *CascadeWorker) pendingParents(ctx context.Context) ([]*task.Task, error) {
	parents, err := w.repo.ListPendingCascades(ctx, w.batchSize)
	if err != nil {
		return nil, fmt.Errorf("получение родителей с незавершённым каскадом: %w", err)
	}
	return parents, nil
}

func (w *CascadeWorker) Repair(ctx context.Context, parent *task.Task) (int, error) {
	n, err := w.repo.CascadeInherited(ctx, parent.UUID, parent.Inherited(), parent.InheritRev)
	if err != nil {
		return 0, fmt.Errorf("каскадное обновление: %w", err)
	}
	return n, nil
}
