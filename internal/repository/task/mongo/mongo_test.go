package mongo_test

import (
	"context"
	"fmt"
	"taskManager/internal/config"
	"taskManager/internal/models/task"
	"taskManager/internal/repository"
	"taskManager/internal/repository/task/mongo"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/bson"
)

// MongoTestSuite интеграционные тесты с MongoDB
type MongoTestSuite struct {
	suite.Suite
	container testcontainers.Container
	storage   *mongo.Storage
	ctx       context.Context
}

func (s *MongoTestSuite) SetupSuite() {
	s.ctx = context.Background()

	container, err := testcontainers.GenericContainer(s.ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "mongo:7",
			ExposedPorts: []string{"27017/tcp"},
			WaitingFor:   wait.ForListeningPort("27017/tcp").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(s.T(), err)
	s.container = container

	host, err := container.Host(s.ctx)
	require.NoError(s.T(), err)

	port, err := container.MappedPort(s.ctx, "27017")
	require.NoError(s.T(), err)

	s.storage, err = mongo.Connect(s.ctx, config.MongoConfig{
		URI:      fmt.Sprintf("mongodb://%s:%s", host, port.Port()),
		Database: "task_manager_test",
	})
	require.NoError(s.T(), err)
	require.NoError(s.T(), s.storage.EnsureIndexes(s.ctx))
}

func (s *MongoTestSuite) TearDownSuite() {
	if s.storage != nil {
		_ = s.storage.Close(s.ctx)
	}
	if s.container != nil {
		_ = s.container.Terminate(s.ctx)
	}
}

func (s *MongoTestSuite) SetupTest() {
	_, err := s.storage.Database().Collection("tasks").DeleteMany(s.ctx, bson.M{})
	require.NoError(s.T(), err)
}

// TestMongoTestSuite запускает suite
func TestMongoTestSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Пропускаем интеграционные тесты в коротком режиме")
	}
	suite.Run(t, new(MongoTestSuite))
}

func (s *MongoTestSuite) seed(owner uuid.UUID, n int, options ...task.TaskOption) {
	for i := 0; i < n; i++ {
		require.NoError(s.T(), s.storage.Create(s.ctx, task.New(owner, fmt.Sprintf("Task %02d", i), options...)))
	}
}

func (s *MongoTestSuite) query(owner uuid.UUID, params task.ListParams) task.Query {
	query, err := task.BuildQuery(owner, params, task.NewQueryDefaults())
	require.NoError(s.T(), err)
	return query
}

// TestStorage_CRUD тестирует полный цикл задачи
func (s *MongoTestSuite) TestStorage_CRUD() {
	owner := uuid.New()
	due := time.Date(2030, 5, 6, 7, 8, 9, 0, time.UTC)

	created := task.New(owner, "Mongo Task", task.WithDueDate(&due))
	require.NoError(s.T(), s.storage.Create(s.ctx, created))
	assert.ErrorIs(s.T(), s.storage.Create(s.ctx, created), repository.ErrDuplicate)

	retrieved, err := s.storage.GetByID(s.ctx, owner, created.UUID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), created.UUID, retrieved.UUID)
	assert.True(s.T(), created.CreatedAt.Equal(retrieved.CreatedAt))
	require.NotNil(s.T(), retrieved.DueDate)
	assert.True(s.T(), due.Equal(*retrieved.DueDate))

	retrieved.Apply(task.WithStatus(task.StatusCompleted))
	retrieved.DueDate = nil
	require.NoError(s.T(), s.storage.Update(s.ctx, retrieved))
	assert.Equal(s.T(), task.StatusCompleted, retrieved.Status)
	assert.Nil(s.T(), retrieved.DueDate)

	_, err = s.storage.GetByID(s.ctx, uuid.New(), created.UUID)
	assert.ErrorIs(s.T(), err, repository.ErrNotFound)
	assert.ErrorIs(s.T(), s.storage.Delete(s.ctx, uuid.New(), created.UUID), repository.ErrNotFound)

	require.NoError(s.T(), s.storage.Delete(s.ctx, owner, created.UUID))
	_, err = s.storage.GetByID(s.ctx, owner, created.UUID)
	assert.ErrorIs(s.T(), err, repository.ErrNotFound)
}

// TestStorage_Pagination тестирует страницы и полноту выдачи
func (s *MongoTestSuite) TestStorage_Pagination() {
	owner := uuid.New()
	s.seed(owner, 12)
	s.seed(uuid.New(), 5)

	total, err := s.storage.Count(s.ctx, task.Filter{Owner: owner})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 12, total)

	page, err := s.storage.Find(s.ctx, s.query(owner, task.ListParams{Page: "2", Limit: "5"}))
	require.NoError(s.T(), err)
	assert.Len(s.T(), page, 5)

	seen := map[uuid.UUID]bool{}
	for p := 1; p <= 3; p++ {
		found, err := s.storage.Find(s.ctx, s.query(owner, task.ListParams{Page: fmt.Sprint(p), Limit: "5", SortBy: "priority"}))
		require.NoError(s.T(), err)
		for _, f := range found {
			assert.Equal(s.T(), owner, f.Owner)
			assert.False(s.T(), seen[f.UUID])
			seen[f.UUID] = true
		}
	}
	assert.Len(s.T(), seen, total)
}

// TestStorage_Search тестирует регистронезависимый буквальный поиск
func (s *MongoTestSuite) TestStorage_Search() {
	owner := uuid.New()
	description := "whole (2%) milk"
	require.NoError(s.T(), s.storage.Create(s.ctx, task.New(owner, "Groceries", task.WithDescription(&description))))
	require.NoError(s.T(), s.storage.Create(s.ctx, task.New(owner, "Buy bread")))

	tests := []struct {
		search   string
		expected int
	}{
		{search: "MILK", expected: 1},
		{search: "(2%)", expected: 1},
		{search: "b.y", expected: 0},
		{search: "buy", expected: 1},
	}

	for _, tt := range tests {
		s.Run(tt.search, func() {
			count, err := s.storage.Count(s.ctx, task.Filter{Owner: owner, Search: tt.search})
			require.NoError(s.T(), err)
			assert.Equal(s.T(), tt.expected, count)
		})
	}
}

// TestStorage_SortByDueDate тестирует место задач без срока
func (s *MongoTestSuite) TestStorage_SortByDueDate() {
	owner := uuid.New()
	early := time.Now().Add(time.Hour).UTC()
	late := early.Add(24 * time.Hour)

	require.NoError(s.T(), s.storage.Create(s.ctx, task.New(owner, "late", task.WithDueDate(&late))))
	require.NoError(s.T(), s.storage.Create(s.ctx, task.New(owner, "none")))
	require.NoError(s.T(), s.storage.Create(s.ctx, task.New(owner, "early", task.WithDueDate(&early))))

	titles := func(order string) []string {
		found, err := s.storage.Find(s.ctx, s.query(owner, task.ListParams{SortBy: "dueDate", SortOrder: order}))
		require.NoError(s.T(), err)
		res := []string{}
		for _, f := range found {
			res = append(res, f.Title)
		}
		return res
	}

	assert.Equal(s.T(), []string{"early", "late", "none"}, titles("asc"))
	assert.Equal(s.T(), []string{"none", "late", "early"}, titles("desc"))
}

// TestStorage_Stats тестирует агрегацию $group
func (s *MongoTestSuite) TestStorage_Stats() {
	owner := uuid.New()
	s.seed(owner, 3, task.WithPriority(task.PriorityLow))
	s.seed(owner, 1, task.WithStatus(task.StatusCompleted))

	byStatus, err := s.storage.CountByStatus(s.ctx, owner)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), map[task.Status]int{task.StatusPending: 3, task.StatusCompleted: 1}, byStatus)

	byPriority, err := s.storage.CountByPriority(s.ctx, owner)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), map[task.Priority]int{task.PriorityLow: 3, task.PriorityMedium: 1}, byPriority)
}
