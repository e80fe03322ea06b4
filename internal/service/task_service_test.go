package service_test

import (
	"context"
	"errors"
	"testing"
	"time"
	"workTracker/internal/models/permission"
	"workTracker/internal/models/task"
	rep "workTracker/internal/repository"
	"workTracker/internal/repository/inmemory"
	"workTracker/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func newInMemoryTaskService() (*service.TaskService, *inmemory.Storage) {
	storage := inmemory.NewStorage()
	return service.NewTaskService(storage, service.NewPermissionService(storage), service.InMemoryType), storage
}

// TestTaskService_HealthCheck тестирует HealthCheck
func TestTaskService_HealthCheck(t *testing.T) {
	tests := []struct {
		name        string
		setupMock   func(*MockTaskRepository)
		expectError bool
	}{
		{
			name: "success - health check passes",
			setupMock: func(m *MockTaskRepository) {
				m.On("HealthCheck", mock.Anything).Return(nil)
			},
		},
		{
			name: "error - health check fails",
			setupMock: func(m *MockTaskRepository) {
				m.On("HealthCheck", mock.Anything).Return(errors.New("db connection failed"))
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockTaskRepository)
			tt.setupMock(mockRepo)

			svc := service.NewTaskService(mockRepo, new(MockOracle), service.DBType)
			err := svc.HealthCheck(context.Background())

			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			mockRepo.AssertExpectations(t)
		})
	}
}

// TestTaskService_CreateTask тестирует создание родительской задачи
func TestTaskService_CreateTask(t *testing.T) {
	userID := uuid.New()
	spaceID := uuid.New()
	actor := permission.Actor{UserID: userID}

	tests := []struct {
		name         string
		owner        task.Owner
		actor        permission.Actor
		attrs        service.TaskAttributes
		setupMock    func(*MockTaskRepository, *MockOracle)
		expectedCode string
		check        func(*testing.T, *task.Task)
	}{
		{
			name:  "success - personal task gets owner as the only assignee",
			owner: task.Personal(userID),
			actor: actor,
			attrs: service.TaskAttributes{Title: "Отчёт", Assignees: []uuid.UUID{uuid.New()}},
			setupMock: func(r *MockTaskRepository, o *MockOracle) {
				r.On("Create", mock.Anything, mock.AnythingOfType("*task.Task")).Return(nil)
			},
			check: func(t *testing.T, created *task.Task) {
				assert.Equal(t, []uuid.UUID{userID}, created.Assignees)
				assert.Equal(t, task.PriorityNormal, created.Priority)
				assert.Equal(t, task.StatusTodo, created.Status)
				assert.Nil(t, created.ParentID)
				assert.Nil(t, created.SpaceID)
			},
		},
		{
			name:  "success - shared task with edit permission",
			owner: task.Shared(spaceID, userID),
			actor: actor,
			attrs: service.TaskAttributes{Title: "Релиз", Assignees: []uuid.UUID{userID, userID}},
			setupMock: func(r *MockTaskRepository, o *MockOracle) {
				o.On("CanEdit", mock.Anything, spaceID, userID, permission.RoleMember).Return(true, nil)
				r.On("Create", mock.Anything, mock.AnythingOfType("*task.Task")).Return(nil)
			},
			check: func(t *testing.T, created *task.Task) {
				require.NotNil(t, created.SpaceID)
				assert.Equal(t, spaceID, *created.SpaceID)
				assert.Equal(t, []uuid.UUID{userID}, created.Assignees)
			},
		},
		{
			name:  "error - shared task without edit permission",
			owner: task.Shared(spaceID, userID),
			actor: actor,
			attrs: service.TaskAttributes{Title: "Релиз"},
			setupMock: func(r *MockTaskRepository, o *MockOracle) {
				o.On("CanEdit", mock.Anything, spaceID, userID, permission.RoleMember).Return(false, nil)
			},
			expectedCode: service.CodeForbidden,
		},
		{
			name:         "error - personal task for another user",
			owner:        task.Personal(uuid.New()),
			actor:        actor,
			attrs:        service.TaskAttributes{Title: "Чужая"},
			setupMock:    func(r *MockTaskRepository, o *MockOracle) {},
			expectedCode: service.CodeForbidden,
		},
		{
			name:         "error - empty title",
			owner:        task.Personal(userID),
			actor:        actor,
			attrs:        service.TaskAttributes{Title: "   "},
			setupMock:    func(r *MockTaskRepository, o *MockOracle) {},
			expectedCode: service.CodeValidation,
		},
		{
			name:         "error - unknown priority",
			owner:        task.Personal(userID),
			actor:        actor,
			attrs:        service.TaskAttributes{Title: "Задача", Priority: "asap"},
			setupMock:    func(r *MockTaskRepository, o *MockOracle) {},
			expectedCode: service.CodeValidation,
		},
		{
			name:  "error - start date after end date",
			owner: task.Personal(userID),
			actor: actor,
			attrs: service.TaskAttributes{
				Title:     "Задача",
				StartDate: date(2025, 7, 2),
				EndDate:   date(2025, 7, 1),
			},
			setupMock:    func(r *MockTaskRepository, o *MockOracle) {},
			expectedCode: service.CodeInvalidOperation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockTaskRepository)
			mockOracle := new(MockOracle)
			tt.setupMock(mockRepo, mockOracle)

			svc := service.NewTaskService(mockRepo, mockOracle, service.DBType)
			created, err := svc.CreateTask(context.Background(), tt.owner, tt.attrs, tt.actor)

			if tt.expectedCode != "" {
				require.Error(t, err)
				assert.Equal(t, tt.expectedCode, service.CodeOf(err))
				assert.Nil(t, created)
			} else {
				require.NoError(t, err)
				require.NotNil(t, created)
				if tt.check != nil {
					tt.check(t, created)
				}
			}
			mockRepo.AssertExpectations(t)
			mockOracle.AssertExpectations(t)
		})
	}
}

func TestTaskService_CreateSubtask_ForcesInheritedFields(t *testing.T) {
	ctx := context.Background()
	svc, _ := newInMemoryTaskService()
	userID := uuid.New()
	actor := permission.Actor{UserID: userID}
	p1, p2 := uuid.New(), uuid.New()

	parent, err := svc.CreateTask(ctx, task.Personal(userID), service.TaskAttributes{
		Title:     "Родитель",
		ProjectID: &p1,
		EndDate:   date(2025, 6, 30),
		Status:    task.StatusTodo,
	}, actor)
	require.NoError(t, err)

	sub, err := svc.CreateSubtask(ctx, parent.UUID, service.TaskAttributes{
		Title:     "Подзадача",
		ProjectID: &p2,
		Status:    task.StatusDone,
		EndDate:   date(2025, 12, 31),
	}, actor)
	require.NoError(t, err)

	require.NotNil(t, sub.ProjectID)
	assert.Equal(t, p1, *sub.ProjectID)
	assert.Equal(t, task.StatusTodo, sub.Status)
	require.NotNil(t, sub.EndDate)
	assert.True(t, sub.EndDate.Equal(*date(2025, 6, 30)))
	assert.Equal(t, task.PriorityNormal, sub.Priority)
	require.NotNil(t, sub.ParentID)
	assert.Equal(t, parent.UUID, *sub.ParentID)

	reloaded, err := svc.GetTask(ctx, parent.UUID, actor)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{sub.UUID}, reloaded.Subtasks)
}

func TestTaskService_CreateSubtask_Errors(t *testing.T) {
	ctx := context.Background()
	svc, _ := newInMemoryTaskService()
	owner := uuid.New()
	actor := permission.Actor{UserID: owner}

	parent, err := svc.CreateTask(ctx, task.Personal(owner), service.TaskAttributes{
		Title:   "Родитель",
		EndDate: date(2025, 6, 30),
	}, actor)
	require.NoError(t, err)

	sub, err := svc.CreateSubtask(ctx, parent.UUID, service.TaskAttributes{Title: "Подзадача"}, actor)
	require.NoError(t, err)

	t.Run("subtask of subtask is rejected", func(t *testing.T) {
		_, err := svc.CreateSubtask(ctx, sub.UUID, service.TaskAttributes{Title: "Третий уровень"}, actor)
		assert.Equal(t, service.CodeInvalidOperation, service.CodeOf(err))
	})

	t.Run("missing parent", func(t *testing.T) {
		_, err := svc.CreateSubtask(ctx, uuid.New(), service.TaskAttributes{Title: "Сирота"}, actor)
		assert.Equal(t, service.CodeNotFound, service.CodeOf(err))
	})

	t.Run("not the owner", func(t *testing.T) {
		stranger := permission.Actor{UserID: uuid.New()}
		_, err := svc.CreateSubtask(ctx, parent.UUID, service.TaskAttributes{Title: "Чужая"}, stranger)
		assert.Equal(t, service.CodeForbidden, service.CodeOf(err))
	})

	t.Run("start after parent end date", func(t *testing.T) {
		_, err := svc.CreateSubtask(ctx, parent.UUID, service.TaskAttributes{
			Title:     "Поздняя",
			StartDate: date(2025, 7, 1),
		}, actor)
		assert.Equal(t, service.CodeInvalidOperation, service.CodeOf(err))
	})
}

func TestTaskService_CreateSubtask_Shared(t *testing.T) {
	ctx := context.Background()
	spaceID := uuid.New()
	author := permission.Actor{UserID: uuid.New()}
	member := permission.Actor{UserID: uuid.New()}
	assignee := uuid.New()

	mockRepo := new(MockTaskRepository)
	mockOracle := new(MockOracle)
	parent := &task.Task{
		UUID:     uuid.New(),
		Title:    "Общая",
		Priority: task.PriorityHigh,
		Status:   task.StatusInProgress,
		OwnerID:  author.UserID,
		SpaceID:  &spaceID,
		Version:  1,
	}

	mockRepo.On("GetByID", mock.Anything, parent.UUID).Return(parent, nil)
	mockOracle.On("CanEdit", mock.Anything, spaceID, member.UserID, permission.RoleMember).Return(true, nil)
	mockRepo.On("CreateSubtask", mock.Anything, parent.UUID, mock.MatchedBy(func(sub *task.Task) bool {
		return sub.SpaceID != nil && *sub.SpaceID == spaceID &&
			sub.OwnerID == member.UserID &&
			sub.Status == task.StatusInProgress &&
			len(sub.Assignees) == 1 && sub.Assignees[0] == assignee
	})).Return(nil)

	svc := service.NewTaskService(mockRepo, mockOracle, service.DBType)
	sub, err := svc.CreateSubtask(ctx, parent.UUID, service.TaskAttributes{
		Title:     "Часть",
		Assignees: []uuid.UUID{assignee},
	}, member)
	require.NoError(t, err)
	assert.Equal(t, task.PriorityNormal, sub.Priority)

	mockRepo.AssertExpectations(t)
	mockOracle.AssertExpectations(t)
}

func TestTaskService_UpdateTask_CascadesToSubtasks(t *testing.T) {
	ctx := context.Background()
	svc, _ := newInMemoryTaskService()
	userID := uuid.New()
	actor := permission.Actor{UserID: userID}
	p1, p2 := uuid.New(), uuid.New()

	parent, err := svc.CreateTask(ctx, task.Personal(userID), service.TaskAttributes{
		Title:     "Родитель",
		ProjectID: &p1,
		EndDate:   date(2025, 6, 30),
	}, actor)
	require.NoError(t, err)

	subs := make([]*task.Task, 2)
	for i := range subs {
		subs[i], err = svc.CreateSubtask(ctx, parent.UUID, service.TaskAttributes{Title: "Подзадача"}, actor)
		require.NoError(t, err)
	}

	updated, err := svc.UpdateTask(ctx, parent.UUID, actor,
		task.WithStatus(task.StatusDone),
		task.WithProject(&p2),
		task.WithEndDate(date(2025, 7, 15)))
	require.NoError(t, err)
	assert.Equal(t, task.StatusDone, updated.Status)
	assert.Len(t, updated.Subtasks, 2)

	for _, s := range subs {
		got, err := svc.GetTask(ctx, s.UUID, actor)
		require.NoError(t, err)
		assert.Equal(t, task.StatusDone, got.Status)
		require.NotNil(t, got.ProjectID)
		assert.Equal(t, p2, *got.ProjectID)
		require.NotNil(t, got.EndDate)
		assert.True(t, got.EndDate.Equal(*date(2025, 7, 15)))
	}
}

func TestTaskService_UpdateTask_DirectSubtaskEditSurvivesUntilParentChanges(t *testing.T) {
	ctx := context.Background()
	svc, _ := newInMemoryTaskService()
	userID := uuid.New()
	actor := permission.Actor{UserID: userID}

	parent, err := svc.CreateTask(ctx, task.Personal(userID), service.TaskAttributes{Title: "Родитель"}, actor)
	require.NoError(t, err)
	sub, err := svc.CreateSubtask(ctx, parent.UUID, service.TaskAttributes{Title: "Подзадача"}, actor)
	require.NoError(t, err)

	_, err = svc.UpdateTask(ctx, sub.UUID, actor, task.WithStatus(task.StatusInProgress))
	require.NoError(t, err)

	// изменение ненаследуемого поля родителя каскад не запускает
	_, err = svc.UpdateTask(ctx, parent.UUID, actor, task.WithTitle("Новое название"))
	require.NoError(t, err)
	got, err := svc.GetTask(ctx, sub.UUID, actor)
	require.NoError(t, err)
	assert.Equal(t, task.StatusInProgress, got.Status)

	_, err = svc.UpdateTask(ctx, parent.UUID, actor, task.WithStatus(task.StatusCancelled))
	require.NoError(t, err)
	got, err = svc.GetTask(ctx, sub.UUID, actor)
	require.NoError(t, err)
	assert.Equal(t, task.StatusCancelled, got.Status)
}

func TestTaskService_UpdateTask_EndDateBeforeSubtaskStart(t *testing.T) {
	ctx := context.Background()
	svc, _ := newInMemoryTaskService()
	userID := uuid.New()
	actor := permission.Actor{UserID: userID}

	parent, err := svc.CreateTask(ctx, task.Personal(userID), service.TaskAttributes{
		Title:   "Родитель",
		EndDate: date(2025, 6, 30),
	}, actor)
	require.NoError(t, err)
	sub, err := svc.CreateSubtask(ctx, parent.UUID, service.TaskAttributes{
		Title:     "Подзадача",
		StartDate: date(2025, 6, 20),
	}, actor)
	require.NoError(t, err)

	_, err = svc.UpdateTask(ctx, parent.UUID, actor, task.WithEndDate(date(2025, 6, 10)))
	assert.Equal(t, service.CodeInvalidOperation, service.CodeOf(err))

	got, err := svc.GetTask(ctx, parent.UUID, actor)
	require.NoError(t, err)
	assert.True(t, got.EndDate.Equal(*date(2025, 6, 30)))

	gotSub, err := svc.GetTask(ctx, sub.UUID, actor)
	require.NoError(t, err)
	assert.True(t, gotSub.EndDate.Equal(*date(2025, 6, 30)))
}

func TestTaskService_UpdateTask_CascadeFailureKeepsParentWrite(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	actor := permission.Actor{UserID: userID}
	subID := uuid.New()

	existing := &task.Task{
		UUID:      uuid.New(),
		Title:     "Родитель",
		Priority:  task.PriorityNormal,
		Status:    task.StatusTodo,
		OwnerID:   userID,
		Assignees: []uuid.UUID{userID},
		Subtasks:  []uuid.UUID{subID},
		Version:   3,
	}

	mockRepo := new(MockTaskRepository)
	mockRepo.On("GetByID", mock.Anything, existing.UUID).Return(existing, nil)
	mockRepo.On("Update", mock.Anything, mock.MatchedBy(func(t *task.Task) bool {
		return t.Status == task.StatusDone && t.InheritRev == 1
	})).Return(nil)
	mockRepo.On("CascadeInherited", mock.Anything, existing.UUID, mock.AnythingOfType("task.Inherited"), 1).
		Return(0, errors.New("connection reset"))

	svc := service.NewTaskService(mockRepo, new(MockOracle), service.DBType)
	_, err := svc.UpdateTask(ctx, existing.UUID, actor, task.WithStatus(task.StatusDone))

	require.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestTaskService_UpdateTask_Errors(t *testing.T) {
	userID := uuid.New()
	actor := permission.Actor{UserID: userID}
	spaceID := uuid.New()
	taskID := uuid.New()

	personal := &task.Task{UUID: taskID, Title: "Личная", Priority: task.PriorityNormal, Status: task.StatusTodo, OwnerID: uuid.New(), Version: 1}
	shared := &task.Task{UUID: taskID, Title: "Общая", Priority: task.PriorityNormal, Status: task.StatusTodo, OwnerID: uuid.New(), SpaceID: &spaceID, Version: 1}
	own := &task.Task{UUID: taskID, Title: "Своя", Priority: task.PriorityNormal, Status: task.StatusTodo, OwnerID: userID, Version: 1}

	tests := []struct {
		name         string
		options      []task.TaskOption
		setupMock    func(*MockTaskRepository, *MockOracle)
		expectedCode string
	}{
		{
			name: "error - not found",
			setupMock: func(r *MockTaskRepository, o *MockOracle) {
				r.On("GetByID", mock.Anything, taskID).Return(nil, rep.ErrNotFound)
			},
			expectedCode: service.CodeNotFound,
		},
		{
			name: "error - personal task of another user",
			setupMock: func(r *MockTaskRepository, o *MockOracle) {
				r.On("GetByID", mock.Anything, taskID).Return(personal, nil)
			},
			expectedCode: service.CodeForbidden,
		},
		{
			name: "error - shared task, oracle denies",
			setupMock: func(r *MockTaskRepository, o *MockOracle) {
				r.On("GetByID", mock.Anything, taskID).Return(shared, nil)
				o.On("CanEdit", mock.Anything, spaceID, userID, permission.RoleMember).Return(false, nil)
			},
			expectedCode: service.CodeForbidden,
		},
		{
			name:    "error - unknown status",
			options: []task.TaskOption{task.WithStatus("archived")},
			setupMock: func(r *MockTaskRepository, o *MockOracle) {
				r.On("GetByID", mock.Anything, taskID).Return(own, nil)
			},
			expectedCode: service.CodeValidation,
		},
		{
			name:    "error - version conflict",
			options: []task.TaskOption{task.WithTitle("Новое")},
			setupMock: func(r *MockTaskRepository, o *MockOracle) {
				r.On("GetByID", mock.Anything, taskID).Return(own, nil)
				r.On("Update", mock.Anything, mock.Anything).Return(rep.ErrVersionConflict)
			},
			expectedCode: service.CodeConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockTaskRepository)
			mockOracle := new(MockOracle)
			tt.setupMock(mockRepo, mockOracle)

			svc := service.NewTaskService(mockRepo, mockOracle, service.DBType)
			_, err := svc.UpdateTask(context.Background(), taskID, actor, tt.options...)

			require.Error(t, err)
			assert.Equal(t, tt.expectedCode, service.CodeOf(err))
			mockRepo.AssertExpectations(t)
			mockOracle.AssertExpectations(t)
		})
	}
}

func TestTaskService_DeleteTask(t *testing.T) {
	ctx := context.Background()
	svc, _ := newInMemoryTaskService()
	userID := uuid.New()
	actor := permission.Actor{UserID: userID}

	parent, err := svc.CreateTask(ctx, task.Personal(userID), service.TaskAttributes{Title: "Родитель"}, actor)
	require.NoError(t, err)
	first, err := svc.CreateSubtask(ctx, parent.UUID, service.TaskAttributes{Title: "Первая"}, actor)
	require.NoError(t, err)
	second, err := svc.CreateSubtask(ctx, parent.UUID, service.TaskAttributes{Title: "Вторая"}, actor)
	require.NoError(t, err)

	t.Run("deleting a subtask detaches it from the parent", func(t *testing.T) {
		require.NoError(t, svc.DeleteTask(ctx, second.UUID, actor))

		got, err := svc.GetTask(ctx, parent.UUID, actor)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{first.UUID}, got.Subtasks)
	})

	t.Run("stranger cannot delete", func(t *testing.T) {
		err := svc.DeleteTask(ctx, parent.UUID, permission.Actor{UserID: uuid.New()})
		assert.Equal(t, service.CodeForbidden, service.CodeOf(err))
	})

	t.Run("deleting the parent removes all subtasks", func(t *testing.T) {
		third, err := svc.CreateSubtask(ctx, parent.UUID, service.TaskAttributes{Title: "Третья"}, actor)
		require.NoError(t, err)

		require.NoError(t, svc.DeleteTask(ctx, parent.UUID, actor))

		for _, id := range []uuid.UUID{parent.UUID, first.UUID, third.UUID} {
			_, err := svc.GetTask(ctx, id, actor)
			assert.Equal(t, service.CodeNotFound, service.CodeOf(err))
		}
	})

	t.Run("deleting a missing task", func(t *testing.T) {
		err := svc.DeleteTask(ctx, uuid.New(), actor)
		assert.Equal(t, service.CodeNotFound, service.CodeOf(err))
	})
}

func TestTaskService_ListTasks(t *testing.T) {
	ctx := context.Background()
	svc, _ := newInMemoryTaskService()
	userID := uuid.New()
	actor := permission.Actor{UserID: userID}
	projectID := uuid.New()

	urgent, err := svc.CreateTask(ctx, task.Personal(userID), service.TaskAttributes{
		Title:     "Срочная",
		Priority:  task.PriorityUrgent,
		ProjectID: &projectID,
		StartDate: date(2025, 6, 1),
		EndDate:   date(2025, 6, 10),
	}, actor)
	require.NoError(t, err)
	_, err = svc.CreateSubtask(ctx, urgent.UUID, service.TaskAttributes{Title: "Подзадача"}, actor)
	require.NoError(t, err)
	_, err = svc.CreateTask(ctx, task.Personal(userID), service.TaskAttributes{Title: "Обычная"}, actor)
	require.NoError(t, err)
	_, err = svc.CreateTask(ctx, task.Personal(uuid.New()), service.TaskAttributes{Title: "Чужая"},
		permission.Actor{UserID: uuid.New()})
	require.Error(t, err)

	tests := []struct {
		name     string
		filter   task.Filter
		expected int
		code     string
	}{
		{name: "only parents of the owner", filter: task.Filter{}, expected: 2},
		{name: "by priority", filter: task.Filter{Priority: task.PriorityUrgent}, expected: 1},
		{name: "by project", filter: task.Filter{ProjectID: &projectID}, expected: 1},
		{name: "by date range", filter: task.Filter{From: date(2025, 5, 31), To: date(2025, 6, 30)}, expected: 1},
		{name: "page beyond the end", filter: task.Filter{Page: 2, Limit: 2}, expected: 0},
		{name: "unknown status", filter: task.Filter{Status: "archived"}, code: service.CodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tasks, err := svc.ListTasks(ctx, task.Personal(userID), tt.filter)
			if tt.code != "" {
				assert.Equal(t, tt.code, service.CodeOf(err))
				return
			}
			require.NoError(t, err)
			assert.Len(t, tasks, tt.expected)
			for _, got := range tasks {
				assert.Nil(t, got.ParentID)
			}
		})
	}
}

func TestTaskService_ListTasks_NormalizesPagination(t *testing.T) {
	userID := uuid.New()
	mockRepo := new(MockTaskRepository)
	mockRepo.On("List", mock.Anything, task.Personal(userID), task.Filter{Page: 1, Limit: 200}).
		Return([]*task.Task{}, nil)

	svc := service.NewTaskService(mockRepo, new(MockOracle), service.DBType)
	_, err := svc.ListTasks(context.Background(), task.Personal(userID), task.Filter{Page: -3, Limit: 5000})

	require.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

// TestTaskService_ReadsArePrivateForPersonalTasks проверяет, что чужую личную задачу прочитать нельзя,
// а общую задачу пространства читает любой пользователь
func TestTaskService_ReadsArePrivateForPersonalTasks(t *testing.T) {
	ctx := context.Background()
	svc, storage := newInMemoryTaskService()
	owner := permission.Actor{UserID: uuid.New()}
	stranger := permission.Actor{UserID: uuid.New()}

	private, err := svc.CreateTask(ctx, task.Personal(owner.UserID), service.TaskAttributes{Title: "Личная"}, owner)
	require.NoError(t, err)
	_, err = svc.CreateSubtask(ctx, private.UUID, service.TaskAttributes{Title: "Подзадача"}, owner)
	require.NoError(t, err)

	t.Run("owner reads task and subtasks", func(t *testing.T) {
		got, err := svc.GetTask(ctx, private.UUID, owner)
		require.NoError(t, err)
		assert.Equal(t, "Личная", got.Title)

		subs, err := svc.ListSubtasks(ctx, private.UUID, owner)
		require.NoError(t, err)
		assert.Len(t, subs, 1)
	})

	t.Run("stranger is forbidden", func(t *testing.T) {
		got, err := svc.GetTask(ctx, private.UUID, stranger)
		assert.Nil(t, got)
		assert.Equal(t, service.CodeForbidden, service.CodeOf(err))

		subs, err := svc.ListSubtasks(ctx, private.UUID, stranger)
		assert.Nil(t, subs)
		assert.Equal(t, service.CodeForbidden, service.CodeOf(err))
	})

	t.Run("subtasks of a missing parent", func(t *testing.T) {
		_, err := svc.ListSubtasks(ctx, uuid.New(), owner)
		assert.Equal(t, service.CodeNotFound, service.CodeOf(err))
	})

	t.Run("shared task is readable without membership", func(t *testing.T) {
		spaceID := uuid.New()
		require.NoError(t, storage.UpsertPermission(ctx, &permission.SpacePermission{
			SpaceID: spaceID, UserID: owner.UserID, Level: permission.LevelEditor,
		}))
		shared, err := svc.CreateTask(ctx, task.Shared(spaceID, owner.UserID), service.TaskAttributes{Title: "Общая"}, owner)
		require.NoError(t, err)

		got, err := svc.GetTask(ctx, shared.UUID, stranger)
		require.NoError(t, err)
		assert.Equal(t, "Общая", got.Title)

		_, err = svc.ListSubtasks(ctx, shared.UUID, stranger)
		assert.NoError(t, err)
	})
}
