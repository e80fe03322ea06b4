package inmemory

import (
	"context"
	"sync"
	"workTracker/internal/logger"
	"workTracker/internal/models/permission"
	"workTracker/internal/models/project"
	"workTracker/internal/models/task"
	"workTracker/internal/models/timeentry"

	"github.com/google/uuid"
)

type permissionKey struct {
	space uuid.UUID
	user  uuid.UUID
}

type offlineKey struct {
	user      uuid.UUID
	offlineID string
}

// Storage хранит все сущности в памяти под одним мьютексом,
// поэтому проверка инвариантов и запись атомарны
type Storage struct {
	mtx *sync.RWMutex

	tasks    map[uuid.UUID]*task.Task
	children map[uuid.UUID][]uuid.UUID
	taskIDs  []uuid.UUID

	entries  map[uuid.UUID]*timeentry.Entry
	active   map[uuid.UUID]uuid.UUID
	offline  map[offlineKey]uuid.UUID
	entryIDs []uuid.UUID

	permissions map[permissionKey]*permission.SpacePermission
	projects    map[uuid.UUID]*project.Project
}

func NewStorage() *Storage {
	return &Storage{
		mtx:         &sync.RWMutex{},
		tasks:       make(map[uuid.UUID]*task.Task),
		children:    make(map[uuid.UUID][]uuid.UUID),
		taskIDs:     []uuid.UUID{},
		entries:     make(map[uuid.UUID]*timeentry.Entry),
		active:      make(map[uuid.UUID]uuid.UUID),
		offline:     make(map[offlineKey]uuid.UUID),
		entryIDs:    []uuid.UUID{},
		permissions: make(map[permissionKey]*permission.SpacePermission),
		projects:    make(map[uuid.UUID]*project.Project),
	}
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	logger.Info("Repository: Соединение стабильно")
	return nil
}

func (s *Storage) SaveProject(ctx context.Context, p *project.Project) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	c := *p
	s.projects[p.UUID] = &c
	return nil
}
