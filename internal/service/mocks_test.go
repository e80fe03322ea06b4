package service_test

import (
	"context"
	"sync"
	"time"
	"workTracker/internal/models/permission"
	"workTracker/internal/models/task"
	"workTracker/internal/models/timeentry"
	"workTracker/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockTaskRepository - мок репозитория задач
type MockTaskRepository struct {
	mock.Mock
}

func (m *MockTaskRepository) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockTaskRepository) Create(ctx context.Context, t *task.Task) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockTaskRepository) CreateSubtask(ctx context.Context, parentID uuid.UUID, t *task.Task) error {
	args := m.Called(ctx, parentID, t)
	return args.Error(0)
}

func (m *MockTaskRepository) Update(ctx context.Context, t *task.Task) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockTaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task).Clone(), args.Error(1)
}

func (m *MockTaskRepository) List(ctx context.Context, owner task.Owner, filter task.Filter) ([]*task.Task, error) {
	args := m.Called(ctx, owner, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*task.Task), args.Error(1)
}

func (m *MockTaskRepository) ListSubtasks(ctx context.Context, parentID uuid.UUID) ([]*task.Task, error) {
	args := m.Called(ctx, parentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*task.Task), args.Error(1)
}

func (m *MockTaskRepository) CascadeInherited(ctx context.Context, parentID uuid.UUID, in task.Inherited, rev int) (int, error) {
	args := m.Called(ctx, parentID, in, rev)
	return args.Int(0), args.Error(1)
}

func (m *MockTaskRepository) ListPendingCascades(ctx context.Context, limit int) ([]*task.Task, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*task.Task), args.Error(1)
}

func (m *MockTaskRepository) DeleteSubtasks(ctx context.Context, parentID uuid.UUID) (int, error) {
	args := m.Called(ctx, parentID)
	return args.Int(0), args.Error(1)
}

func (m *MockTaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

var _ service.TaskRepository = (*MockTaskRepository)(nil)

// MockOracle - мок оракула прав
type MockOracle struct {
	mock.Mock
}

func (m *MockOracle) CanEdit(ctx context.Context, spaceID, userID uuid.UUID, role permission.Role) (bool, error) {
	args := m.Called(ctx, spaceID, userID, role)
	return args.Bool(0), args.Error(1)
}

func (m *MockOracle) CanManage(ctx context.Context, spaceID, userID uuid.UUID, role permission.Role) (bool, error) {
	args := m.Called(ctx, spaceID, userID, role)
	return args.Bool(0), args.Error(1)
}

var _ service.PermissionOracle = (*MockOracle)(nil)

// MockEntryRepository - мок репозитория записей времени
type MockEntryRepository struct {
	mock.Mock
}

func (m *MockEntryRepository) CreateEntry(ctx context.Context, e *timeentry.Entry) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *MockEntryRepository) UpdateEntry(ctx context.Context, e *timeentry.Entry) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *MockEntryRepository) GetEntryByID(ctx context.Context, id uuid.UUID) (*timeentry.Entry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*timeentry.Entry).Clone(), args.Error(1)
}

func (m *MockEntryRepository) GetActiveEntry(ctx context.Context, userID uuid.UUID) (*timeentry.Entry, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*timeentry.Entry).Clone(), args.Error(1)
}

func (m *MockEntryRepository) GetEntryByOfflineID(ctx context.Context, userID uuid.UUID, offlineID string) (*timeentry.Entry, error) {
	args := m.Called(ctx, userID, offlineID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*timeentry.Entry), args.Error(1)
}

func (m *MockEntryRepository) ListStopped(ctx context.Context, userID uuid.UUID, from, to time.Time, projectID *uuid.UUID) ([]*timeentry.Resolved, error) {
	args := m.Called(ctx, userID, from, to, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*timeentry.Resolved), args.Error(1)
}

func (m *MockEntryRepository) DeleteEntry(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

var _ service.TimeEntryRepository = (*MockEntryRepository)(nil)

// fakeClock - управляемые часы для таймера и отчётов
type fakeClock struct {
	mtx sync.Mutex
	now time.Time
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now}
}

func (c *fakeClock) Now() time.Time {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.now = c.now.Add(d)
}
