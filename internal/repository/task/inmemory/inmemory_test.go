package inmemory_test

import (
	"context"
	"fmt"
	"sync"
	"taskManager/internal/models/task"
	"taskManager/internal/repository"
	"taskManager/internal/repository/task/inmemory"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, storage *inmemory.TaskStorage, owner uuid.UUID, n int, options ...task.TaskOption) []*task.Task {
	t.Helper()

	res := make([]*task.Task, 0, n)
	for i := 0; i < n; i++ {
		created := task.New(owner, fmt.Sprintf("Task %02d", i), options...)
		require.NoError(t, storage.Create(context.Background(), created))
		res = append(res, created)
	}
	return res
}

func listQuery(t *testing.T, owner uuid.UUID, params task.ListParams) task.Query {
	t.Helper()

	query, err := task.BuildQuery(owner, params, task.NewQueryDefaults())
	require.NoError(t, err)
	return query
}

// TestTaskStorage_HealthCheck тестирует проверку здоровья
func TestTaskStorage_HealthCheck(t *testing.T) {
	storage := inmemory.NewTaskStorage()
	assert.NoError(t, storage.HealthCheck(context.Background()))
}

// TestTaskStorage_CreateAndGet тестирует создание и получение задачи
func TestTaskStorage_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewTaskStorage()
	owner := uuid.New()

	created := task.New(owner, "Test Task")
	require.NoError(t, storage.Create(ctx, created))

	// Проверяем, что поля заполнены
	assert.False(t, created.CreatedAt.IsZero())
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)

	retrieved, err := storage.GetByID(ctx, owner, created.UUID)
	require.NoError(t, err)
	assert.Equal(t, "Test Task", retrieved.Title)

	// Повторное создание с тем же id
	assert.ErrorIs(t, storage.Create(ctx, created), repository.ErrDuplicate)

	// Несуществующая задача
	_, err = storage.GetByID(ctx, owner, uuid.New())
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

// TestTaskStorage_TenantIsolation тестирует недоступность чужих задач
func TestTaskStorage_TenantIsolation(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewTaskStorage()
	ownerA, ownerB := uuid.New(), uuid.New()

	tasksA := seed(t, storage, ownerA, 3)
	seed(t, storage, ownerB, 2)

	_, err := storage.GetByID(ctx, ownerB, tasksA[0].UUID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	foreign := *tasksA[0]
	foreign.Owner = ownerB
	foreign.Title = "hijacked"
	assert.ErrorIs(t, storage.Update(ctx, &foreign), repository.ErrNotFound)
	assert.ErrorIs(t, storage.Delete(ctx, ownerB, tasksA[0].UUID), repository.ErrNotFound)

	retrieved, err := storage.GetByID(ctx, ownerA, tasksA[0].UUID)
	require.NoError(t, err)
	assert.Equal(t, "Task 00", retrieved.Title)

	for _, params := range []task.ListParams{{}, {Search: "task"}, {Status: "pending"}, {Limit: "100"}} {
		found, err := storage.Find(ctx, listQuery(t, ownerB, params))
		require.NoError(t, err)
		assert.Len(t, found, 2)
		for _, f := range found {
			assert.Equal(t, ownerB, f.Owner)
		}
	}
}

// TestTaskStorage_UpdateIsolatedFromCopies тестирует, что изменения копии не попадают в хранилище
func TestTaskStorage_UpdateIsolatedFromCopies(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewTaskStorage()
	owner := uuid.New()

	created := seed(t, storage, owner, 1)[0]

	copyOf, err := storage.GetByID(ctx, owner, created.UUID)
	require.NoError(t, err)
	copyOf.Title = "changed without update"

	retrieved, err := storage.GetByID(ctx, owner, created.UUID)
	require.NoError(t, err)
	assert.Equal(t, "Task 00", retrieved.Title)

	copyOf.Status = task.StatusCompleted
	require.NoError(t, storage.Update(ctx, copyOf))

	retrieved, err = storage.GetByID(ctx, owner, created.UUID)
	require.NoError(t, err)
	assert.Equal(t, task.StatusCompleted, retrieved.Status)
	assert.Equal(t, created.CreatedAt, retrieved.CreatedAt)
	assert.False(t, retrieved.UpdatedAt.Before(retrieved.CreatedAt))
}

// TestTaskStorage_Delete тестирует удаление
func TestTaskStorage_Delete(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewTaskStorage()
	owner := uuid.New()

	created := seed(t, storage, owner, 2)

	require.NoError(t, storage.Delete(ctx, owner, created[0].UUID))

	_, err := storage.GetByID(ctx, owner, created[0].UUID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	count, err := storage.Count(ctx, task.Filter{Owner: owner})
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	assert.ErrorIs(t, storage.Delete(ctx, owner, created[0].UUID), repository.ErrNotFound)
}

// TestTaskStorage_Pagination тестирует, что страницы покрывают всю выборку ровно один раз
func TestTaskStorage_Pagination(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewTaskStorage()
	owner := uuid.New()

	seed(t, storage, owner, 12)

	query := listQuery(t, owner, task.ListParams{Page: "2", Limit: "5"})
	page, err := storage.Find(ctx, query)
	require.NoError(t, err)
	assert.Len(t, page, 5)

	total, err := storage.Count(ctx, query.Filter)
	require.NoError(t, err)
	assert.Equal(t, 12, total)
	assert.Equal(t, 3, query.Pagination.Pages(total))

	seen := map[uuid.UUID]bool{}
	sum := 0
	for p := 1; p <= query.Pagination.Pages(total); p++ {
		found, err := storage.Find(ctx, listQuery(t, owner, task.ListParams{Page: fmt.Sprint(p), Limit: "5"}))
		require.NoError(t, err)
		sum += len(found)
		for _, f := range found {
			assert.False(t, seen[f.UUID], "задача встретилась дважды")
			seen[f.UUID] = true
		}
	}
	assert.Equal(t, total, sum)

	beyond, err := storage.Find(ctx, listQuery(t, owner, task.ListParams{Page: "4", Limit: "5"}))
	require.NoError(t, err)
	assert.Empty(t, beyond)

	// отрицательное смещение считается выходом за пределы, а не паникой
	negative, err := storage.Find(ctx, task.Query{
		Filter:     task.Filter{Owner: owner},
		Sort:       task.Sort{Field: task.SortByCreatedAt, Order: task.SortDesc},
		Pagination: task.Pagination{Page: 0, Limit: 5},
	})
	require.NoError(t, err)
	assert.Empty(t, negative)
}

// TestTaskStorage_SearchAndFilters тестирует поиск и фильтры
func TestTaskStorage_SearchAndFilters(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewTaskStorage()
	owner := uuid.New()

	description := "semi-skimmed"
	milk := task.New(owner, "Buy Milk", task.WithPriority(task.PriorityHigh))
	bread := task.New(owner, "Bread", task.WithDescription(&description), task.WithStatus(task.StatusCompleted))
	require.NoError(t, storage.Create(ctx, milk))
	require.NoError(t, storage.Create(ctx, bread))

	tests := []struct {
		name     string
		params   task.ListParams
		expected []string
	}{
		{name: "case insensitive title", params: task.ListParams{Search: "milk"}, expected: []string{"Buy Milk"}},
		{name: "description", params: task.ListParams{Search: "SKIMMED"}, expected: []string{"Bread"}},
		{name: "regex characters are literal", params: task.ListParams{Search: "b.y"}, expected: []string{}},
		{name: "status", params: task.ListParams{Status: "completed"}, expected: []string{"Bread"}},
		{name: "priority", params: task.ListParams{Priority: "high"}, expected: []string{"Buy Milk"}},
		{name: "combined", params: task.ListParams{Priority: "high", Search: "bread"}, expected: []string{}},
		{name: "sorted by title", params: task.ListParams{SortBy: "title", SortOrder: "asc"}, expected: []string{"Bread", "Buy Milk"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			found, err := storage.Find(ctx, listQuery(t, owner, tt.params))
			require.NoError(t, err)

			titles := []string{}
			for _, f := range found {
				titles = append(titles, f.Title)
			}
			assert.Equal(t, tt.expected, titles)
		})
	}
}

// TestTaskStorage_Idempotent тестирует повторяемость выдачи
func TestTaskStorage_Idempotent(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewTaskStorage()
	owner := uuid.New()

	// одинаковые статусы дают равные ключи сортировки, порядок держит тай-брейк по id
	seed(t, storage, owner, 20)

	query := listQuery(t, owner, task.ListParams{SortBy: "status", Limit: "7", Page: "2"})
	first, err := storage.Find(ctx, query)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		again, err := storage.Find(ctx, query)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

// TestTaskStorage_Stats тестирует группировки
func TestTaskStorage_Stats(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewTaskStorage()
	owner := uuid.New()

	seed(t, storage, owner, 2, task.WithStatus(task.StatusPending))
	seed(t, storage, owner, 1, task.WithStatus(task.StatusCompleted), task.WithPriority(task.PriorityLow))
	seed(t, storage, uuid.New(), 4, task.WithStatus(task.StatusInProgress))

	byStatus, err := storage.CountByStatus(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, map[task.Status]int{task.StatusPending: 2, task.StatusCompleted: 1}, byStatus)

	byPriority, err := storage.CountByPriority(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, map[task.Priority]int{task.PriorityMedium: 2, task.PriorityLow: 1}, byPriority)
}

// TestTaskStorage_Concurrent тестирует конкурентный доступ
func TestTaskStorage_Concurrent(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewTaskStorage()
	owner := uuid.New()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = storage.Create(ctx, task.New(owner, fmt.Sprintf("Concurrent %d", i)))
			_, _ = storage.Find(ctx, task.Query{
				Filter:     task.Filter{Owner: owner},
				Sort:       task.Sort{Field: task.SortByCreatedAt, Order: task.SortDesc},
				Pagination: task.Pagination{Page: 1, Limit: 10},
			})
		}(i)
	}
	wg.Wait()

	count, err := storage.Count(ctx, task.Filter{Owner: owner})
	require.NoError(t, err)
	assert.Equal(t, 50, count)
}
