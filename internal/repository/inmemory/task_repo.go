package inmemory

import (
	"context"
	"time"
	"workTracker/internal/models/task"
	repo "workTracker/internal/repository"

	"github.com/google/uuid"
)

func (s *Storage) Create(ctx context.Context, taskToCreate *task.Task) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if taskToCreate.ParentID != nil {
		if err := s.checkParentLocked(taskToCreate.UUID, *taskToCreate.ParentID); err != nil {
			return err
		}
	}

	s.insertLocked(taskToCreate)
	if taskToCreate.ParentID != nil {
		s.children[*taskToCreate.ParentID] = append(s.children[*taskToCreate.ParentID], taskToCreate.UUID)
	}
	return nil
}

// CreateSubtask атомарно проверяет родителя, копирует наследуемые поля и привязывает подзадачу
func (s *Storage) CreateSubtask(ctx context.Context, parentID uuid.UUID, sub *task.Task) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if err := s.checkParentLocked(sub.UUID, parentID); err != nil {
		return err
	}

	parent := s.tasks[parentID]
	sub.ParentID = &parentID
	sub.Inherit(parent.Inherited())

	s.insertLocked(sub)
	s.children[parentID] = append(s.children[parentID], sub.UUID)
	return nil
}

func (s *Storage) checkParentLocked(childID, parentID uuid.UUID) error {
	if childID == parentID {
		return repo.ErrInvalidHierarchy
	}
	parent, ok := s.tasks[parentID]
	if !ok {
		return repo.ErrNotFound
	}
	if parent.ParentID != nil {
		return repo.ErrInvalidHierarchy
	}
	return nil
}

func (s *Storage) insertLocked(taskToCreate *task.Task) {
	taskToCreate.CreatedAt = time.Now()
	taskToCreate.Version = 1
	taskToCreate.Subtasks = []uuid.UUID{}

	s.tasks[taskToCreate.UUID] = taskToCreate.Clone()
	s.taskIDs = append(s.taskIDs, taskToCreate.UUID)
}

func (s *Storage) Update(ctx context.Context, taskToUpdate *task.Task) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	existed, ok := s.tasks[taskToUpdate.UUID]
	if !ok {
		return repo.ErrNotFound
	}
	if existed.Version != taskToUpdate.Version {
		return repo.ErrVersionConflict
	}
	if !sameParent(existed.ParentID, taskToUpdate.ParentID) {
		if taskToUpdate.ParentID != nil {
			if err := s.checkParentLocked(taskToUpdate.UUID, *taskToUpdate.ParentID); err != nil {
				return err
			}
			if len(s.children[taskToUpdate.UUID]) > 0 {
				return repo.ErrInvalidHierarchy
			}
		}
		if existed.ParentID != nil {
			s.detachLocked(*existed.ParentID, taskToUpdate.UUID)
		}
		if taskToUpdate.ParentID != nil {
			s.children[*taskToUpdate.ParentID] = append(s.children[*taskToUpdate.ParentID], taskToUpdate.UUID)
		}
	}

	now := time.Now()
	taskToUpdate.UpdatedAt = &now
	taskToUpdate.Version++
	taskToUpdate.CreatedAt = existed.CreatedAt
	taskToUpdate.CascadedRev = existed.CascadedRev
	taskToUpdate.Subtasks = append([]uuid.UUID{}, s.children[taskToUpdate.UUID]...)
	s.tasks[taskToUpdate.UUID] = taskToUpdate.Clone()

	return nil
}

func (s *Storage) GetByID(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	taskToGet, ok := s.tasks[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return s.viewLocked(taskToGet), nil
}

func (s *Storage) viewLocked(t *task.Task) *task.Task {
	res := t.Clone()
	res.Subtasks = append([]uuid.UUID{}, s.children[t.UUID]...)
	return res
}

// получение родительских задач владельца с фильтрами и пагинацией
func (s *Storage) List(ctx context.Context, owner task.Owner, filter task.Filter) ([]*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := []*task.Task{}
	offset := (filter.Page - 1) * filter.Limit
	skipped := 0

	for _, id := range s.taskIDs {
		if len(res) >= filter.Limit {
			break
		}

		t := s.tasks[id]
		if !ownedBy(t, owner) || !filter.Match(t) {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}

		res = append(res, s.viewLocked(t))
	}

	return res, nil
}

func (s *Storage) ListSubtasks(ctx context.Context, parentID uuid.UUID) ([]*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	if _, ok := s.tasks[parentID]; !ok {
		return nil, repo.ErrNotFound
	}

	res := []*task.Task{}
	for _, id := range s.children[parentID] {
		res = append(res, s.viewLocked(s.tasks[id]))
	}
	return res, nil
}

// CascadeInherited перезаписывает наследуемые поля всех подзадач и отмечает ревизию как разосланную
func (s *Storage) CascadeInherited(ctx context.Context, parentID uuid.UUID, inherited task.Inherited, rev int) (int, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	parent, ok := s.tasks[parentID]
	if !ok {
		return 0, repo.ErrNotFound
	}
	// более новая ревизия уже разослана или будет разослана своим вызовом
	if rev < parent.InheritRev {
		return 0, nil
	}

	now := time.Now()
	updated := 0
	for _, id := range s.children[parentID] {
		child := s.tasks[id]
		child.Inherit(inherited)
		child.UpdatedAt = &now
		child.Version++
		updated++
	}

	if parent.CascadedRev < rev {
		parent.CascadedRev = rev
	}
	return updated, nil
}

// родители, у которых последняя смена наследуемых полей не дошла до подзадач
func (s *Storage) ListPendingCascades(ctx context.Context, limit int) ([]*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := []*task.Task{}
	for _, id := range s.taskIDs {
		if len(res) >= limit {
			break
		}
		t := s.tasks[id]
		if t.ParentID == nil && t.InheritRev > t.CascadedRev {
			res = append(res, s.viewLocked(t))
		}
	}
	return res, nil
}

func (s *Storage) DeleteSubtasks(ctx context.Context, parentID uuid.UUID) (int, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	ids := s.children[parentID]
	for _, id := range ids {
		s.removeLocked(id)
	}
	delete(s.children, parentID)
	return len(ids), nil
}

// Delete удаляет задачу и убирает её из списка подзадач родителя
func (s *Storage) Delete(ctx context.Context, id uuid.UUID) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	existed, ok := s.tasks[id]
	if !ok {
		return repo.ErrNotFound
	}
	if existed.ParentID != nil {
		s.detachLocked(*existed.ParentID, id)
	}
	for _, childID := range s.children[id] {
		s.removeLocked(childID)
	}
	delete(s.children, id)
	s.removeLocked(id)
	return nil
}

func (s *Storage) removeLocked(id uuid.UUID) {
	delete(s.tasks, id)
	for ind, val := range s.taskIDs {
		if val == id {
			s.taskIDs = append(s.taskIDs[:ind], s.taskIDs[ind+1:]...)
			break
		}
	}
	for _, e := range s.entries {
		if e.TaskID != nil && *e.TaskID == id {
			e.TaskID = nil
		}
		if e.SharedTaskID != nil && *e.SharedTaskID == id {
			e.SharedTaskID = nil
		}
	}
}

func (s *Storage) detachLocked(parentID, childID uuid.UUID) {
	ids := s.children[parentID]
	for ind, val := range ids {
		if val == childID {
			s.children[parentID] = append(ids[:ind], ids[ind+1:]...)
			return
		}
	}
}

func ownedBy(t *task.Task, owner task.Owner) bool {
	if owner.SpaceID != nil {
		return t.SpaceID != nil && *t.SpaceID == *owner.SpaceID
	}
	return t.SpaceID == nil && t.OwnerID == owner.UserID
}

func sameParent(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
