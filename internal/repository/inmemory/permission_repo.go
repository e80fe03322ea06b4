package inmemory

import (
	"context"
	"time"
	"workTracker/internal/models/permission"
	repo "workTracker/internal/repository"

	"github.com/google/uuid"
)

func (s *Storage) GetPermission(ctx context.Context, spaceID, userID uuid.UUID) (*permission.SpacePermission, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	p, ok := s.permissions[permissionKey{spaceID, userID}]
	if !ok {
		return nil, repo.ErrNotFound
	}
	c := *p
	return &c, nil
}

// UpsertPermission - одна строка на пару (space, user)
func (s *Storage) UpsertPermission(ctx context.Context, p *permission.SpacePermission) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	key := permissionKey{p.SpaceID, p.UserID}
	now := time.Now()
	if existed, ok := s.permissions[key]; ok {
		p.CreatedAt = existed.CreatedAt
		p.UpdatedAt = &now
	} else {
		p.CreatedAt = now
	}
	c := *p
	s.permissions[key] = &c
	return nil
}

func (s *Storage) DeletePermission(ctx context.Context, spaceID, userID uuid.UUID) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	key := permissionKey{spaceID, userID}
	if _, ok := s.permissions[key]; !ok {
		return repo.ErrNotFound
	}
	delete(s.permissions, key)
	return nil
}
