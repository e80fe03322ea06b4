package inmemory

import (
	"context"
	"sort"
	"time"
	"workTracker/internal/models/timeentry"
	repo "workTracker/internal/repository"

	"github.com/google/uuid"
)

// CreateEntry сохраняет запись, соблюдая уникальность активного таймера и офлайн-идентификатора
func (s *Storage) CreateEntry(ctx context.Context, entry *timeentry.Entry) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if entry.IsActive() {
		if _, ok := s.active[entry.UserID]; ok {
			return repo.ErrActiveTimerExists
		}
	}
	if entry.OfflineID != nil {
		if _, ok := s.offline[offlineKey{entry.UserID, *entry.OfflineID}]; ok {
			return repo.ErrDuplicateOffline
		}
	}

	entry.CreatedAt = time.Now()
	entry.Version = 1
	s.entries[entry.UUID] = entry.Clone()
	s.entryIDs = append(s.entryIDs, entry.UUID)
	if entry.IsActive() {
		s.active[entry.UserID] = entry.UUID
	}
	if entry.OfflineID != nil {
		s.offline[offlineKey{entry.UserID, *entry.OfflineID}] = entry.UUID
	}
	return nil
}

func (s *Storage) UpdateEntry(ctx context.Context, entry *timeentry.Entry) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	existed, ok := s.entries[entry.UUID]
	if !ok {
		return repo.ErrNotFound
	}
	if existed.Version != entry.Version {
		return repo.ErrVersionConflict
	}
	if entry.IsActive() {
		if activeID, ok := s.active[entry.UserID]; ok && activeID != entry.UUID {
			return repo.ErrActiveTimerExists
		}
	}

	now := time.Now()
	entry.UpdatedAt = &now
	entry.Version++
	entry.CreatedAt = existed.CreatedAt
	s.entries[entry.UUID] = entry.Clone()

	if entry.IsActive() {
		s.active[entry.UserID] = entry.UUID
	} else if activeID, ok := s.active[entry.UserID]; ok && activeID == entry.UUID {
		delete(s.active, entry.UserID)
	}
	return nil
}

func (s *Storage) GetEntryByID(ctx context.Context, id uuid.UUID) (*timeentry.Entry, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	entry, ok := s.entries[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return entry.Clone(), nil
}

func (s *Storage) GetActiveEntry(ctx context.Context, userID uuid.UUID) (*timeentry.Entry, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	id, ok := s.active[userID]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return s.entries[id].Clone(), nil
}

func (s *Storage) GetEntryByOfflineID(ctx context.Context, userID uuid.UUID, offlineID string) (*timeentry.Entry, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	id, ok := s.offline[offlineKey{userID, offlineID}]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return s.entries[id].Clone(), nil
}

// ListStopped - остановленные записи за период по возрастанию даты отчёта и начала
func (s *Storage) ListStopped(ctx context.Context, userID uuid.UUID, from, to time.Time, projectID *uuid.UUID) ([]*timeentry.Resolved, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := []*timeentry.Resolved{}
	for _, id := range s.entryIDs {
		e := s.entries[id]
		if e.UserID != userID || e.Status != timeentry.StatusStopped {
			continue
		}
		if e.ReportDate.Before(from) || e.ReportDate.After(to) {
			continue
		}
		if projectID != nil && (e.ProjectID == nil || *e.ProjectID != *projectID) {
			continue
		}

		r := &timeentry.Resolved{Entry: *e.Clone()}
		if e.ProjectID != nil {
			if p, ok := s.projects[*e.ProjectID]; ok {
				name := p.Name
				r.ProjectName = &name
			}
		}
		for _, taskID := range []*uuid.UUID{e.TaskID, e.SharedTaskID} {
			if taskID == nil {
				continue
			}
			if t, ok := s.tasks[*taskID]; ok {
				title := t.Title
				r.TaskTitle = &title
				break
			}
		}
		res = append(res, r)
	}

	sort.SliceStable(res, func(i, j int) bool {
		if !res[i].ReportDate.Equal(res[j].ReportDate) {
			return res[i].ReportDate.Before(res[j].ReportDate)
		}
		return res[i].StartTime.Before(res[j].StartTime)
	})
	return res, nil
}

func (s *Storage) DeleteEntry(ctx context.Context, id uuid.UUID) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	entry, ok := s.entries[id]
	if !ok {
		return repo.ErrNotFound
	}
	if activeID, ok := s.active[entry.UserID]; ok && activeID == id {
		delete(s.active, entry.UserID)
	}
	if entry.OfflineID != nil {
		delete(s.offline, offlineKey{entry.UserID, *entry.OfflineID})
	}
	delete(s.entries, id)
	for ind, val := range s.entryIDs {
		if val == id {
			s.entryIDs = append(s.entryIDs[:ind], s.entryIDs[ind+1:]...)
			break
		}
	}
	return nil
}
