package inmemory

import (
	"context"
	"slices"
	"sync"
	"taskManager/internal/logger"
	"taskManager/internal/models/task"
	repo "taskManager/internal/repository"
	"time"

	"github.com/google/uuid"
)

// TaskStorage хранит копии задач, наружу тоже отдаются копии,
// чтобы изменения в сервисе не попадали в хранилище до Update
type TaskStorage struct {
	storage map[uuid.UUID]*task.Task
	mtx     *sync.RWMutex
	ids     []uuid.UUID
}

func NewTaskStorage() *TaskStorage {
	return &TaskStorage{
		storage: make(map[uuid.UUID]*task.Task),
		mtx:     &sync.RWMutex{},
		ids:     []uuid.UUID{},
	}
}

func (s *TaskStorage) HealthCheck(ctx context.Context) error {
	logger.Debug("Repository: Соединение стабильно")
	return nil
}

func (s *TaskStorage) Create(ctx context.Context, taskToCreate *task.Task) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.storage[taskToCreate.UUID]; ok {
		return repo.ErrDuplicate
	}

	now := time.Now().UTC()
	taskToCreate.CreatedAt = now
	taskToCreate.UpdatedAt = now

	s.storage[taskToCreate.UUID] = clone(taskToCreate)
	s.ids = append(s.ids, taskToCreate.UUID)
	return nil
}

func (s *TaskStorage) Update(ctx context.Context, taskToUpdate *task.Task) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	existed, ok := s.storage[taskToUpdate.UUID]
	if !ok || existed.Owner != taskToUpdate.Owner {
		return repo.ErrNotFound
	}

	taskToUpdate.CreatedAt = existed.CreatedAt
	taskToUpdate.UpdatedAt = time.Now().UTC()
	s.storage[taskToUpdate.UUID] = clone(taskToUpdate)

	return nil
}

func (s *TaskStorage) GetByID(ctx context.Context, owner, id uuid.UUID) (*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	taskToGet, ok := s.storage[id]
	if !ok || taskToGet.Owner != owner {
		return nil, repo.ErrNotFound
	}
	return clone(taskToGet), nil
}

func (s *TaskStorage) Delete(ctx context.Context, owner, id uuid.UUID) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	taskToDelete, ok := s.storage[id]
	if !ok || taskToDelete.Owner != owner {
		return repo.ErrNotFound
	}

	delete(s.storage, id)
	for ind, val := range s.ids {
		if val == id {
			s.ids = append(s.ids[:ind], s.ids[ind+1:]...)
			break
		}
	}
	return nil
}

// Find фильтрует, сортирует и режет страницу
func (s *TaskStorage) Find(ctx context.Context, query task.Query) ([]*task.Task, error) {
	s.mtx.RLock()
	matched := s.matching(query.Filter)
	s.mtx.RUnlock()

	slices.SortFunc(matched, query.Sort.Compare)

	offset := query.Pagination.Offset()
	if offset < 0 || offset >= len(matched) {
		return []*task.Task{}, nil
	}

	end := min(offset+query.Pagination.Limit, len(matched))
	return matched[offset:end], nil
}

func (s *TaskStorage) Count(ctx context.Context, filter task.Filter) (int, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	count := 0
	for _, id := range s.ids {
		if filter.Matches(s.storage[id]) {
			count++
		}
	}
	return count, nil
}

func (s *TaskStorage) CountByStatus(ctx context.Context, owner uuid.UUID) (map[task.Status]int, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := map[task.Status]int{}
	for _, id := range s.ids {
		if t := s.storage[id]; t.Owner == owner {
			res[t.Status]++
		}
	}
	return res, nil
}

func (s *TaskStorage) CountByPriority(ctx context.Context, owner uuid.UUID) (map[task.Priority]int, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := map[task.Priority]int{}
	for _, id := range s.ids {
		if t := s.storage[id]; t.Owner == owner {
			res[t.Priority]++
		}
	}
	return res, nil
}

// matching вызывается под блокировкой на чтение
func (s *TaskStorage) matching(filter task.Filter) []*task.Task {
	res := []*task.Task{}
	for _, id := range s.ids {
		if t := s.storage[id]; filter.Matches(t) {
			res = append(res, clone(t))
		}
	}
	return res
}

func clone(t *task.Task) *task.Task {
	c := *t
	if t.DueDate != nil {
		due := *t.DueDate
		c.DueDate = &due
	}
	return &c
}
