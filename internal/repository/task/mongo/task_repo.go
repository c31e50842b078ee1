package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"taskManager/internal/config"
	"taskManager/internal/logger"
	"taskManager/internal/models/task"
	repo "taskManager/internal/repository"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	driver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const (
	collectionName = "tasks"
	slowQuery      = 100 * time.Millisecond
)

type Storage struct {
	client *driver.Client
	db     *driver.Database
	tasks  *driver.Collection
}

// Connect подключается к MongoDB и проверяет соединение
func Connect(ctx context.Context, cfg config.MongoConfig) (*Storage, error) {
	client, err := driver.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		logger.Error("Repository: Ошибка подключения к MongoDB", err)
		return nil, fmt.Errorf("подключение к mongo: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		logger.Error("Repository: Неудачная проверка ping", err)
		return nil, storeError("проверка соединения ping", err)
	}

	logger.Info("Repository: Успешное создание подключения к MongoDB", zap.String("database", cfg.Database))
	return New(client, cfg.Database), nil
}

func New(client *driver.Client, database string) *Storage {
	db := client.Database(database)
	return &Storage{
		client: client,
		db:     db,
		tasks:  db.Collection(collectionName),
	}
}

// Database общая база для хранилища пользователей
func (s *Storage) Database() *driver.Database {
	return s.db
}

func (s *Storage) Close(ctx context.Context) error {
	if err := s.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("отключение от mongo: %w", err)
	}
	logger.Info("Repository: Закрытие соединения MongoDB")
	return nil
}

// EnsureIndexes создаёт индексы под выборки владельца
func (s *Storage) EnsureIndexes(ctx context.Context) error {
	models := []driver.IndexModel{
		{Keys: bson.D{{Key: "user", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "user", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "user", Value: 1}, {Key: "priority", Value: 1}}},
		{Keys: bson.D{{Key: "user", Value: 1}, {Key: "dueDate", Value: 1}}},
	}

	if _, err := s.tasks.Indexes().CreateMany(ctx, models); err != nil {
		logger.Error("Repository: Не удалось создать индексы задач", err)
		return storeError("создание индексов", err)
	}
	return nil
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	if err := s.client.Ping(ctx, nil); err != nil {
		logger.Error("Repository: Неудачная проверка ping", err)
		return storeError("проверка соединения ping", err)
	}
	logger.Debug("Repository: Соединение стабильно")
	return nil
}

func (s *Storage) Create(ctx context.Context, taskToCreate *task.Task) error {
	start := time.Now()

	now := time.Now().UTC().Truncate(time.Millisecond)
	taskToCreate.CreatedAt = now
	taskToCreate.UpdatedAt = now

	doc := toDocument(taskToCreate)
	if _, err := s.tasks.InsertOne(ctx, doc); err != nil {
		if driver.IsDuplicateKeyError(err) {
			return repo.ErrDuplicate
		}
		logger.Error("Repository: Не удалось добавить задачу", err, zap.Duration("ms", time.Since(start)))
		return storeError("добавление задачи", err)
	}

	taskToCreate.DueDate = doc.DueDate
	logSlow("добавление задачи", start, slowQuery)
	return nil
}

func (s *Storage) Update(ctx context.Context, taskToUpdate *task.Task) error {
	start := time.Now()

	taskToUpdate.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)
	doc := toDocument(taskToUpdate)

	update := bson.M{"$set": bson.M{
		"title":       doc.Title,
		"description": doc.Description,
		"status":      doc.Status,
		"priority":    doc.Priority,
		"dueDate":     doc.DueDate,
		"updatedAt":   doc.UpdatedAt,
	}}

	var stored taskDocument
	err := s.tasks.FindOneAndUpdate(ctx, ownedBy(taskToUpdate.Owner, taskToUpdate.UUID), update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&stored)

	if err != nil {
		if errors.Is(err, driver.ErrNoDocuments) {
			return repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось обновить задачу", err, zap.Duration("ms", time.Since(start)))
		return storeError("обновление задачи", err)
	}

	updated, err := stored.toTask()
	if err != nil {
		return storeError("разбор задачи", err)
	}
	*taskToUpdate = *updated

	logSlow("обновление задачи", start, slowQuery)
	return nil
}

func (s *Storage) GetByID(ctx context.Context, owner, id uuid.UUID) (*task.Task, error) {
	start := time.Now()

	var doc taskDocument
	if err := s.tasks.FindOne(ctx, ownedBy(owner, id)).Decode(&doc); err != nil {
		if errors.Is(err, driver.ErrNoDocuments) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить задачу", err, zap.Duration("ms", time.Since(start)))
		return nil, storeError("получение задачи", err)
	}

	found, err := doc.toTask()
	if err != nil {
		return nil, storeError("разбор задачи", err)
	}

	logSlow("получение задачи", start, slowQuery)
	return found, nil
}

func (s *Storage) Delete(ctx context.Context, owner, id uuid.UUID) error {
	start := time.Now()

	res, err := s.tasks.DeleteOne(ctx, ownedBy(owner, id))
	if err != nil {
		logger.Error("Repository: Не удалось удалить задачу", err, zap.Duration("ms", time.Since(start)))
		return storeError("удаление задачи", err)
	}

	if res.DeletedCount == 0 {
		return repo.ErrNotFound
	}

	logSlow("удаление задачи", start, slowQuery)
	return nil
}

// Find выполняет отбор, сортировку с добором по _id и срез страницы
func (s *Storage) Find(ctx context.Context, query task.Query) ([]*task.Task, error) {
	start := time.Now()

	cursor, err := s.tasks.Aggregate(ctx, buildPipeline(query))
	if err != nil {
		logger.Error("Repository: Не удалось получить задачи", err, zap.Duration("ms", time.Since(start)))
		return nil, storeError("получение задач", err)
	}
	defer cursor.Close(ctx)

	tasks := []*task.Task{}
	for cursor.Next(ctx) {
		var doc taskDocument
		if err := cursor.Decode(&doc); err != nil {
			logger.Error("Repository: Ошибка декодирования задачи", err)
			return nil, storeError("декодирование задачи", err)
		}

		found, err := doc.toTask()
		if err != nil {
			return nil, storeError("разбор задачи", err)
		}
		tasks = append(tasks, found)
	}

	if err := cursor.Err(); err != nil {
		logger.Error("Repository: Ошибка итерации курсора", err)
		return nil, storeError("итерация курсора", err)
	}

	logSlow("получение задач", start, slowQuery+time.Millisecond*time.Duration(query.Pagination.Limit))
	return tasks, nil
}

func (s *Storage) Count(ctx context.Context, filter task.Filter) (int, error) {
	start := time.Now()

	count, err := s.tasks.CountDocuments(ctx, buildMatch(filter))
	if err != nil {
		logger.Error("Repository: Не удалось посчитать задачи", err, zap.Duration("ms", time.Since(start)))
		return 0, storeError("подсчёт задач", err)
	}

	logSlow("подсчёт задач", start, slowQuery)
	return int(count), nil
}

func (s *Storage) CountByStatus(ctx context.Context, owner uuid.UUID) (map[task.Status]int, error) {
	groups, err := s.group(ctx, "status", owner)
	if err != nil {
		return nil, err
	}

	res := make(map[task.Status]int, len(groups))
	for _, g := range groups {
		res[task.Status(g.Key)] = g.Count
	}
	return res, nil
}

func (s *Storage) CountByPriority(ctx context.Context, owner uuid.UUID) (map[task.Priority]int, error) {
	groups, err := s.group(ctx, "priority", owner)
	if err != nil {
		return nil, err
	}

	res := make(map[task.Priority]int, len(groups))
	for _, g := range groups {
		res[task.Priority(g.Key)] = g.Count
	}
	return res, nil
}

func (s *Storage) group(ctx context.Context, field string, owner uuid.UUID) ([]groupCount, error) {
	start := time.Now()

	pipeline := driver.Pipeline{
		{{Key: "$match", Value: bson.M{"user": owner.String()}}},
		{{Key: "$group", Value: bson.M{"_id": "$" + field, "count": bson.M{"$sum": 1}}}},
	}

	cursor, err := s.tasks.Aggregate(ctx, pipeline)
	if err != nil {
		logger.Error("Repository: Не удалось сгруппировать задачи", err, zap.String("field", field))
		return nil, storeError("группировка задач", err)
	}

	var groups []groupCount
	if err := cursor.All(ctx, &groups); err != nil {
		return nil, storeError("чтение группировки", err)
	}

	logSlow("группировка задач", start, slowQuery)
	return groups, nil
}

func ownedBy(owner, id uuid.UUID) bson.M {
	return bson.M{"_id": id.String(), "user": owner.String()}
}

// buildMatch условия отбора, поиск трактуется буквально
func buildMatch(filter task.Filter) bson.M {
	match := bson.M{"user": filter.Owner.String()}

	if filter.Status != "" {
		match["status"] = string(filter.Status)
	}
	if filter.Priority != "" {
		match["priority"] = string(filter.Priority)
	}
	if filter.Search != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(filter.Search), Options: "i"}
		match["$or"] = bson.A{
			bson.M{"title": pattern},
			bson.M{"description": pattern},
		}
	}
	return match
}

// buildPipeline сортировка по сроку ставит задачи без срока после датированных
// при возрастании, как NULL в PostgreSQL
func buildPipeline(query task.Query) driver.Pipeline {
	direction := -1
	if query.Sort.Ascending() {
		direction = 1
	}

	field := string(query.Sort.Field)
	if !query.Sort.Field.Valid() {
		field = string(task.SortByCreatedAt)
	}

	pipeline := driver.Pipeline{{{Key: "$match", Value: buildMatch(query.Filter)}}}

	sort := bson.D{}
	if query.Sort.Field == task.SortByDueDate {
		pipeline = append(pipeline, bson.D{{Key: "$addFields", Value: bson.M{
			"noDueDate": bson.M{"$cond": bson.A{
				bson.M{"$eq": bson.A{bson.M{"$ifNull": bson.A{"$dueDate", nil}}, nil}}, 1, 0,
			}},
		}}})
		sort = append(sort, bson.E{Key: "noDueDate", Value: direction})
	}
	sort = append(sort,
		bson.E{Key: field, Value: direction},
		bson.E{Key: "_id", Value: direction},
	)

	pipeline = append(pipeline,
		bson.D{{Key: "$sort", Value: sort}},
		bson.D{{Key: "$skip", Value: int64(query.Pagination.Offset())}},
		bson.D{{Key: "$limit", Value: int64(query.Pagination.Limit)}},
	)

	if query.Sort.Field == task.SortByDueDate {
		pipeline = append(pipeline, bson.D{{Key: "$project", Value: bson.M{"noDueDate": 0}}})
	}
	return pipeline
}

func storeError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, repo.ErrStoreUnavailable, err)
}

func logSlow(op string, start time.Time, threshold time.Duration) {
	if elapsed := time.Since(start); elapsed > threshold {
		logger.Warn("Repository: Медленный запрос", zap.String("op", op), zap.Duration("ms", elapsed))
	}
}
