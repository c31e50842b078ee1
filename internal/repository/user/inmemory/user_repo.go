package inmemory

import (
	"context"
	"sync"
	"taskManager/internal/models/user"
	repo "taskManager/internal/repository"
	"time"

	"github.com/google/uuid"
)

type UserStorage struct {
	byID    map[uuid.UUID]*user.User
	byEmail map[string]uuid.UUID
	mtx     *sync.RWMutex
}

func NewUserStorage() *UserStorage {
	return &UserStorage{
		byID:    make(map[uuid.UUID]*user.User),
		byEmail: make(map[string]uuid.UUID),
		mtx:     &sync.RWMutex{},
	}
}

func (s *UserStorage) Create(ctx context.Context, userToCreate *user.User) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.byID[userToCreate.UUID]; ok {
		return repo.ErrDuplicate
	}
	if _, ok := s.byEmail[userToCreate.Email]; ok {
		return repo.ErrDuplicate
	}

	now := time.Now().UTC()
	userToCreate.CreatedAt = now
	userToCreate.UpdatedAt = now

	stored := *userToCreate
	s.byID[stored.UUID] = &stored
	s.byEmail[stored.Email] = stored.UUID
	return nil
}

func (s *UserStorage) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	found, ok := s.byID[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	res := *found
	return &res, nil
}

func (s *UserStorage) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return nil, repo.ErrNotFound
	}
	res := *s.byID[id]
	return &res, nil
}

// Update перестраивает индекс email при его смене
func (s *UserStorage) Update(ctx context.Context, userToUpdate *user.User) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	existed, ok := s.byID[userToUpdate.UUID]
	if !ok {
		return repo.ErrNotFound
	}

	if userToUpdate.Email != existed.Email {
		if _, taken := s.byEmail[userToUpdate.Email]; taken {
			return repo.ErrDuplicate
		}
		delete(s.byEmail, existed.Email)
		s.byEmail[userToUpdate.Email] = userToUpdate.UUID
	}

	userToUpdate.CreatedAt = existed.CreatedAt
	userToUpdate.UpdatedAt = time.Now().UTC()

	stored := *userToUpdate
	s.byID[stored.UUID] = &stored
	return nil
}
