package service_test

import (
	"context"
	"errors"
	"testing"
	"time"
	"workTracker/internal/models/timeentry"
	rep "workTracker/internal/repository"
	"workTracker/internal/repository/inmemory"
	"workTracker/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var clockStart = time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)

func newInMemoryTimer() (*service.TimerService, *fakeClock) {
	clock := newFakeClock(clockStart)
	return service.NewTimerService(inmemory.NewStorage(), service.WithClock(clock.Now)), clock
}

func ptr[T any](v T) *T {
	return &v
}

// TestTimerService_Lifecycle тестирует полный цикл таймера: старт, пауза, возобновление, остановка
func TestTimerService_Lifecycle(t *testing.T) {
	ctx := context.Background()
	svc, clock := newInMemoryTimer()
	userID := uuid.New()
	projectID := uuid.New()

	started, err := svc.Start(ctx, userID, timeentry.Links{ProjectID: &projectID, Description: ptr("код")})
	require.NoError(t, err)
	assert.Equal(t, timeentry.StatusRunning, started.Status)
	assert.Equal(t, int64(0), started.Duration)
	assert.Equal(t, timeentry.ReportDateOf(clockStart), started.ReportDate)

	clock.Advance(10*time.Minute + 900*time.Millisecond)
	paused, err := svc.Pause(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, timeentry.StatusPaused, paused.Status)
	assert.Equal(t, int64(600), paused.Duration)
	assert.Len(t, paused.PausedAt, 1)

	// время на паузе не учитывается
	clock.Advance(time.Hour)
	resumed, err := svc.Resume(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, timeentry.StatusRunning, resumed.Status)
	assert.Equal(t, int64(600), resumed.Duration)
	assert.True(t, resumed.StartTime.Equal(clock.Now()))
	assert.Len(t, resumed.ResumedAt, 1)

	clock.Advance(5 * time.Minute)
	stopped, err := svc.Stop(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, timeentry.StatusStopped, stopped.Status)
	assert.Equal(t, int64(900), stopped.Duration)
	require.NotNil(t, stopped.EndTime)
	assert.True(t, stopped.EndTime.Equal(clock.Now()))

	_, err = svc.GetActive(ctx, userID)
	assert.Equal(t, service.CodeNotFound, service.CodeOf(err))

	// после остановки можно запустить новый таймер
	_, err = svc.Start(ctx, userID, timeentry.Links{})
	require.NoError(t, err)
}

func TestTimerService_StopWhilePaused(t *testing.T) {
	ctx := context.Background()
	svc, clock := newInMemoryTimer()
	userID := uuid.New()

	_, err := svc.Start(ctx, userID, timeentry.Links{})
	require.NoError(t, err)
	clock.Advance(2 * time.Minute)
	_, err = svc.Pause(ctx, userID)
	require.NoError(t, err)
	clock.Advance(30 * time.Minute)

	stopped, err := svc.Stop(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(120), stopped.Duration)
}

func TestTimerService_TransitionErrors(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name         string
		prepare      func(*service.TimerService, uuid.UUID) error
		action       func(*service.TimerService, uuid.UUID) error
		expectedCode string
	}{
		{
			name:    "double start",
			prepare: start,
			action: func(s *service.TimerService, id uuid.UUID) error {
				_, err := s.Start(ctx, id, timeentry.Links{})
				return err
			},
			expectedCode: service.CodeConflict,
		},
		{
			name:    "start while paused",
			prepare: startAndPause,
			action: func(s *service.TimerService, id uuid.UUID) error {
				_, err := s.Start(ctx, id, timeentry.Links{})
				return err
			},
			expectedCode: service.CodeConflict,
		},
		{
			name:    "pause a paused timer",
			prepare: startAndPause,
			action: func(s *service.TimerService, id uuid.UUID) error {
				_, err := s.Pause(ctx, id)
				return err
			},
			expectedCode: service.CodeInvalidOperation,
		},
		{
			name:    "resume a running timer",
			prepare: start,
			action: func(s *service.TimerService, id uuid.UUID) error {
				_, err := s.Resume(ctx, id)
				return err
			},
			expectedCode: service.CodeInvalidOperation,
		},
		{
			name:    "pause without timer",
			prepare: func(*service.TimerService, uuid.UUID) error { return nil },
			action: func(s *service.TimerService, id uuid.UUID) error {
				_, err := s.Pause(ctx, id)
				return err
			},
			expectedCode: service.CodeNotFound,
		},
		{
			name:    "stop without timer",
			prepare: func(*service.TimerService, uuid.UUID) error { return nil },
			action: func(s *service.TimerService, id uuid.UUID) error {
				_, err := s.Stop(ctx, id)
				return err
			},
			expectedCode: service.CodeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newInMemoryTimer()
			userID := uuid.New()
			require.NoError(t, tt.prepare(svc, userID))

			err := tt.action(svc, userID)
			require.Error(t, err)
			assert.Equal(t, tt.expectedCode, service.CodeOf(err))
		})
	}
}

func start(s *service.TimerService, userID uuid.UUID) error {
	_, err := s.Start(context.Background(), userID, timeentry.Links{})
	return err
}

func startAndPause(s *service.TimerService, userID uuid.UUID) error {
	if err := start(s, userID); err != nil {
		return err
	}
	_, err := s.Pause(context.Background(), userID)
	return err
}

func TestTimerService_TimersAreIndependentPerUser(t *testing.T) {
	ctx := context.Background()
	svc, _ := newInMemoryTimer()

	_, err := svc.Start(ctx, uuid.New(), timeentry.Links{})
	require.NoError(t, err)
	_, err = svc.Start(ctx, uuid.New(), timeentry.Links{})
	require.NoError(t, err)
}

func TestTimerService_TransitionRetriesVersionConflict(t *testing.T) {
	userID := uuid.New()
	active := &timeentry.Entry{
		UUID:      uuid.New(),
		UserID:    userID,
		StartTime: clockStart,
		Status:    timeentry.StatusRunning,
		Version:   4,
	}
	clock := newFakeClock(clockStart.Add(time.Minute))

	t.Run("succeeds on second attempt", func(t *testing.T) {
		mockRepo := new(MockEntryRepository)
		mockRepo.On("GetActiveEntry", mock.Anything, userID).Return(active, nil)
		mockRepo.On("UpdateEntry", mock.Anything, mock.Anything).Return(rep.ErrVersionConflict).Once()
		mockRepo.On("UpdateEntry", mock.Anything, mock.Anything).Return(nil).Once()

		svc := service.NewTimerService(mockRepo, service.WithClock(clock.Now))
		paused, err := svc.Pause(context.Background(), userID)

		require.NoError(t, err)
		assert.Equal(t, int64(60), paused.Duration)
		mockRepo.AssertNumberOfCalls(t, "GetActiveEntry", 2)
		mockRepo.AssertExpectations(t)
	})

	t.Run("gives up after three attempts", func(t *testing.T) {
		mockRepo := new(MockEntryRepository)
		mockRepo.On("GetActiveEntry", mock.Anything, userID).Return(active, nil)
		mockRepo.On("UpdateEntry", mock.Anything, mock.Anything).Return(rep.ErrVersionConflict)

		svc := service.NewTimerService(mockRepo, service.WithClock(clock.Now))
		_, err := svc.Stop(context.Background(), userID)

		assert.Equal(t, service.CodeConflict, service.CodeOf(err))
		mockRepo.AssertNumberOfCalls(t, "UpdateEntry", 3)
	})

	t.Run("other storage errors are not retried", func(t *testing.T) {
		mockRepo := new(MockEntryRepository)
		mockRepo.On("GetActiveEntry", mock.Anything, userID).Return(active, nil)
		mockRepo.On("UpdateEntry", mock.Anything, mock.Anything).Return(errors.New("connection refused"))

		svc := service.NewTimerService(mockRepo, service.WithClock(clock.Now))
		_, err := svc.Stop(context.Background(), userID)

		require.Error(t, err)
		assert.Empty(t, service.CodeOf(err))
		mockRepo.AssertNumberOfCalls(t, "UpdateEntry", 1)
	})
}

func TestTimerService_StartRaceReportsConflict(t *testing.T) {
	userID := uuid.New()
	mockRepo := new(MockEntryRepository)
	mockRepo.On("GetActiveEntry", mock.Anything, userID).Return(nil, rep.ErrNotFound)
	mockRepo.On("CreateEntry", mock.Anything, mock.Anything).Return(rep.ErrActiveTimerExists)

	svc := service.NewTimerService(mockRepo)
	_, err := svc.Start(context.Background(), userID, timeentry.Links{})

	assert.Equal(t, service.CodeConflict, service.CodeOf(err))
	mockRepo.AssertExpectations(t)
}

// TestTimerService_CreateManual тестирует ручное добавление записей
func TestTimerService_CreateManual(t *testing.T) {
	startTime := time.Date(2025, 6, 1, 23, 30, 0, 0, time.FixedZone("MSK", 3*60*60))
	endTime := startTime.Add(90*time.Minute + 500*time.Millisecond)

	tests := []struct {
		name         string
		manual       timeentry.Manual
		expectedCode string
		check        func(*testing.T, *timeentry.Entry)
	}{
		{
			name:   "success - duration from bounds, stopped by default",
			manual: timeentry.Manual{StartTime: startTime, EndTime: &endTime},
			check: func(t *testing.T, e *timeentry.Entry) {
				assert.Equal(t, timeentry.StatusStopped, e.Status)
				assert.Equal(t, int64(5400), e.Duration)
				assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), e.ReportDate)
				assert.Equal(t, time.UTC, e.StartTime.Location())
				assert.False(t, e.IsOffline)
			},
		},
		{
			name:   "success - explicit duration wins",
			manual: timeentry.Manual{StartTime: startTime, EndTime: &endTime, Duration: ptr(int64(60))},
			check: func(t *testing.T, e *timeentry.Entry) {
				assert.Equal(t, int64(60), e.Duration)
			},
		},
		{
			name:   "success - no end and no duration",
			manual: timeentry.Manual{StartTime: startTime},
			check: func(t *testing.T, e *timeentry.Entry) {
				assert.Equal(t, int64(0), e.Duration)
				assert.Nil(t, e.EndTime)
			},
		},
		{
			name:   "success - empty description is dropped",
			manual: timeentry.Manual{StartTime: startTime, Links: timeentry.Links{Description: ptr("")}},
			check: func(t *testing.T, e *timeentry.Entry) {
				assert.Nil(t, e.Description)
			},
		},
		{
			name:         "error - missing start",
			manual:       timeentry.Manual{EndTime: &endTime},
			expectedCode: service.CodeValidation,
		},
		{
			name:         "error - end before start",
			manual:       timeentry.Manual{StartTime: endTime, EndTime: &startTime},
			expectedCode: service.CodeInvalidOperation,
		},
		{
			name:         "error - negative duration",
			manual:       timeentry.Manual{StartTime: startTime, Duration: ptr(int64(-1))},
			expectedCode: service.CodeValidation,
		},
		{
			name:         "error - unknown status",
			manual:       timeentry.Manual{StartTime: startTime, Status: "archived"},
			expectedCode: service.CodeValidation,
		},
		{
			name:         "error - running entry with end",
			manual:       timeentry.Manual{StartTime: startTime, EndTime: &endTime, Status: timeentry.StatusRunning},
			expectedCode: service.CodeInvalidOperation,
		},
		{
			name:         "error - paused entry with end",
			manual:       timeentry.Manual{StartTime: startTime, EndTime: &endTime, Status: timeentry.StatusPaused},
			expectedCode: service.CodeInvalidOperation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newInMemoryTimer()
			entry, err := svc.CreateManual(context.Background(), uuid.New(), tt.manual)

			if tt.expectedCode != "" {
				require.Error(t, err)
				assert.Equal(t, tt.expectedCode, service.CodeOf(err))
				return
			}
			require.NoError(t, err)
			tt.check(t, entry)
		})
	}
}

func TestTimerService_CreateManualRunningConflictsWithActiveTimer(t *testing.T) {
	ctx := context.Background()
	svc, _ := newInMemoryTimer()
	userID := uuid.New()

	_, err := svc.Start(ctx, userID, timeentry.Links{})
	require.NoError(t, err)

	_, err = svc.CreateManual(ctx, userID, timeentry.Manual{
		StartTime: clockStart.Add(-time.Hour),
		Status:    timeentry.StatusRunning,
	})
	assert.Equal(t, service.CodeConflict, service.CodeOf(err))

	_, err = svc.CreateManual(ctx, userID, timeentry.Manual{StartTime: clockStart.Add(-time.Hour)})
	assert.NoError(t, err)
}

func TestTimerService_SyncOffline(t *testing.T) {
	ctx := context.Background()
	svc, _ := newInMemoryTimer()
	userID := uuid.New()
	end := clockStart.Add(time.Hour)

	batch := []timeentry.Manual{
		{StartTime: clockStart, EndTime: &end, OfflineID: ptr("a-1")},
		{StartTime: clockStart.Add(2 * time.Hour), Duration: ptr(int64(300)), OfflineID: ptr("a-2")},
	}

	first, err := svc.SyncOffline(ctx, userID, batch)
	require.NoError(t, err)
	require.Len(t, first.Created, 2)
	assert.Empty(t, first.Skipped)
	for _, e := range first.Created {
		assert.True(t, e.IsOffline)
	}

	second, err := svc.SyncOffline(ctx, userID, batch)
	require.NoError(t, err)
	assert.Empty(t, second.Created)
	assert.Equal(t, []string{"a-1", "a-2"}, second.Skipped)

	// тот же офлайн-идентификатор у другого пользователя не конфликтует
	other, err := svc.SyncOffline(ctx, uuid.New(), batch[:1])
	require.NoError(t, err)
	assert.Len(t, other.Created, 1)

	t.Run("invalid entry aborts the batch", func(t *testing.T) {
		_, err := svc.SyncOffline(ctx, userID, []timeentry.Manual{
			{StartTime: clockStart, OfflineID: ptr("b-1")},
			{OfflineID: ptr("b-2")},
		})
		assert.Equal(t, service.CodeValidation, service.CodeOf(err))
	})

	t.Run("paused entry with end is rejected", func(t *testing.T) {
		_, err := svc.SyncOffline(ctx, userID, []timeentry.Manual{
			{StartTime: clockStart, EndTime: &end, Status: timeentry.StatusPaused, OfflineID: ptr("c-1")},
		})
		assert.Equal(t, service.CodeInvalidOperation, service.CodeOf(err))
	})
}

func TestTimerService_SyncOfflineRaceIsSkipped(t *testing.T) {
	userID := uuid.New()
	mockRepo := new(MockEntryRepository)
	mockRepo.On("GetEntryByOfflineID", mock.Anything, userID, "x").Return(nil, rep.ErrNotFound)
	mockRepo.On("CreateEntry", mock.Anything, mock.Anything).Return(rep.ErrDuplicateOffline)

	svc := service.NewTimerService(mockRepo)
	res, err := svc.SyncOffline(context.Background(), userID, []timeentry.Manual{
		{StartTime: clockStart, OfflineID: ptr("x")},
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, res.Skipped)
	assert.Empty(t, res.Created)
}

func TestTimerService_UpdateEntry(t *testing.T) {
	ctx := context.Background()
	svc, _ := newInMemoryTimer()
	userID := uuid.New()
	end := clockStart.Add(time.Hour)

	entry, err := svc.CreateManual(ctx, userID, timeentry.Manual{StartTime: clockStart, EndTime: &end})
	require.NoError(t, err)
	require.Equal(t, int64(3600), entry.Duration)

	t.Run("new start recomputes duration and report date", func(t *testing.T) {
		newStart := clockStart.Add(-24*time.Hour + 30*time.Minute)
		updated, err := svc.UpdateEntry(ctx, entry.UUID, userID,
			timeentry.WithStartTime(newStart),
			timeentry.WithEndTime(ptr(newStart.Add(20*time.Minute))))
		require.NoError(t, err)
		assert.Equal(t, int64(1200), updated.Duration)
		assert.Equal(t, timeentry.ReportDateOf(newStart), updated.ReportDate)
	})

	t.Run("explicit duration is kept", func(t *testing.T) {
		updated, err := svc.UpdateEntry(ctx, entry.UUID, userID,
			timeentry.WithEndTime(ptr(end.Add(time.Hour))),
			timeentry.WithDuration(42))
		require.NoError(t, err)
		assert.Equal(t, int64(42), updated.Duration)
	})

	t.Run("explicit duration equal to stored one is kept", func(t *testing.T) {
		current, err := svc.UpdateEntry(ctx, entry.UUID, userID, timeentry.WithDuration(42))
		require.NoError(t, err)
		require.Equal(t, int64(42), current.Duration)

		// границы задают 3 часа, но длительность передана явно
		updated, err := svc.UpdateEntry(ctx, entry.UUID, userID,
			timeentry.WithEndTime(ptr(current.StartTime.Add(3*time.Hour))),
			timeentry.WithDuration(42))
		require.NoError(t, err)
		assert.Equal(t, int64(42), updated.Duration)

		// без явной длительности она пересчитывается по границам
		updated, err = svc.UpdateEntry(ctx, entry.UUID, userID,
			timeentry.WithEndTime(ptr(current.StartTime.Add(2*time.Hour))))
		require.NoError(t, err)
		assert.Equal(t, int64(7200), updated.Duration)
	})

	t.Run("end before start", func(t *testing.T) {
		_, err := svc.UpdateEntry(ctx, entry.UUID, userID,
			timeentry.WithEndTime(ptr(clockStart.Add(-48*time.Hour))))
		assert.Equal(t, service.CodeInvalidOperation, service.CodeOf(err))
	})

	t.Run("negative duration", func(t *testing.T) {
		_, err := svc.UpdateEntry(ctx, entry.UUID, userID, timeentry.WithDuration(-5))
		assert.Equal(t, service.CodeValidation, service.CodeOf(err))
	})

	t.Run("other user", func(t *testing.T) {
		_, err := svc.UpdateEntry(ctx, entry.UUID, uuid.New(), timeentry.WithDuration(5))
		assert.Equal(t, service.CodeForbidden, service.CodeOf(err))
	})

	t.Run("missing entry", func(t *testing.T) {
		_, err := svc.UpdateEntry(ctx, uuid.New(), userID, timeentry.WithDuration(5))
		assert.Equal(t, service.CodeNotFound, service.CodeOf(err))
	})
}

func TestTimerService_UpdateActiveEntryCannotGetEnd(t *testing.T) {
	ctx := context.Background()
	svc, _ := newInMemoryTimer()
	userID := uuid.New()

	active, err := svc.Start(ctx, userID, timeentry.Links{})
	require.NoError(t, err)

	_, err = svc.UpdateEntry(ctx, active.UUID, userID, timeentry.WithEndTime(ptr(clockStart.Add(time.Hour))))
	assert.Equal(t, service.CodeInvalidOperation, service.CodeOf(err))

	updated, err := svc.UpdateEntry(ctx, active.UUID, userID, timeentry.WithDescription(ptr("созвон")))
	require.NoError(t, err)
	require.NotNil(t, updated.Description)
	assert.Equal(t, "созвон", *updated.Description)
}

func TestTimerService_DeleteEntry(t *testing.T) {
	ctx := context.Background()
	svc, _ := newInMemoryTimer()
	userID := uuid.New()

	active, err := svc.Start(ctx, userID, timeentry.Links{})
	require.NoError(t, err)

	err = svc.DeleteEntry(ctx, active.UUID, uuid.New())
	assert.Equal(t, service.CodeForbidden, service.CodeOf(err))

	require.NoError(t, svc.DeleteEntry(ctx, active.UUID, userID))

	err = svc.DeleteEntry(ctx, active.UUID, userID)
	assert.Equal(t, service.CodeNotFound, service.CodeOf(err))

	// удаление активной записи освобождает таймер
	_, err = svc.Start(ctx, userID, timeentry.Links{})
	assert.NoError(t, err)
}
