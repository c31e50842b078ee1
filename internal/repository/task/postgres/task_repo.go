package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"taskManager/internal/config"
	"taskManager/internal/logger"
	"taskManager/internal/models/task"
	repo "taskManager/internal/repository"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const slowQuery = 100 * time.Millisecond

const taskColumns = `uuid, owner, title, description, status, priority, due_date, created_at, updated_at`

// колонки сортировки, ключи совпадают с допустимыми sortBy
var sortColumns = map[task.SortField]string{
	task.SortByCreatedAt: "created_at",
	task.SortByUpdatedAt: "updated_at",
	task.SortByDueDate:   "due_date",
	task.SortByTitle:     `title COLLATE "C"`,
	task.SortByStatus:    "status",
	task.SortByPriority:  "priority",
}

type Storage struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, cfg config.DatabaseConfig) (*Storage, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		logger.Error("Repository: Ошибка загрузки конфига", err)
		return nil, fmt.Errorf("загрузка конфига: %w", err)
	}

	poolConfig.MaxConns = cfg.MaxConnections
	poolConfig.MinConns = cfg.MinConnections
	if cfg.IdleTimeout > 0 {
		poolConfig.MaxConnIdleTime = cfg.IdleTimeout
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Error("Repository: Ошибка создания пула", err)
		return nil, fmt.Errorf("создание пула: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		logger.Error("Repository: Неудачная проверка ping", err)
		return nil, storeError("проверка соединения ping", err)
	}

	logger.Info("Repository: Успешное создание подключения к PostgreSQL")
	return &Storage{pool: pool}, nil
}

// Pool общий пул для хранилища пользователей
func (s *Storage) Pool() *pgxpool.Pool {
	return s.pool
}

func (s *Storage) Close() {
	s.pool.Close()
	logger.Info("Repository: Закрытие всех соединений PostgreSQL")
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		logger.Error("Repository: Неудачная проверка ping", err)
		return storeError("проверка соединения ping", err)
	}
	logger.Debug("Repository: Соединение стабильно")
	return nil
}

func (s *Storage) Create(ctx context.Context, taskToCreate *task.Task) error {
	start := time.Now()

	query := `INSERT INTO tasks
				(uuid, owner, title, description, status, priority, due_date, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
				RETURNING created_at, updated_at`

	err := s.pool.QueryRow(ctx, query,
		taskToCreate.UUID,
		taskToCreate.Owner,
		taskToCreate.Title,
		taskToCreate.Description,
		taskToCreate.Status,
		taskToCreate.Priority,
		taskToCreate.DueDate,
	).Scan(&taskToCreate.CreatedAt, &taskToCreate.UpdatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return repo.ErrDuplicate
		}
		logger.Error("Repository: Не удалось добавить задачу", err, zap.Duration("ms", time.Since(start)))
		return storeError("добавление задачи", err)
	}

	normalize(taskToCreate)
	logSlow("добавление задачи", start, slowQuery)
	return nil
}

func (s *Storage) Update(ctx context.Context, taskToUpdate *task.Task) error {
	start := time.Now()

	query := `UPDATE tasks
			SET title = $1,
				description = $2,
				status = $3,
				priority = $4,
				due_date = $5,
				updated_at = NOW()
			WHERE uuid = $6 AND owner = $7
			RETURNING created_at, updated_at`

	err := s.pool.QueryRow(ctx, query,
		taskToUpdate.Title,
		taskToUpdate.Description,
		taskToUpdate.Status,
		taskToUpdate.Priority,
		taskToUpdate.DueDate,
		taskToUpdate.UUID,
		taskToUpdate.Owner,
	).Scan(&taskToUpdate.CreatedAt, &taskToUpdate.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось обновить задачу", err, zap.Duration("ms", time.Since(start)))
		return storeError("обновление задачи", err)
	}

	normalize(taskToUpdate)
	logSlow("обновление задачи", start, slowQuery)
	return nil
}

func (s *Storage) GetByID(ctx context.Context, owner, id uuid.UUID) (*task.Task, error) {
	start := time.Now()

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE uuid = $1 AND owner = $2`

	found, err := scanTask(s.pool.QueryRow(ctx, query, id, owner))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить задачу", err, zap.Duration("ms", time.Since(start)))
		return nil, storeError("получение задачи", err)
	}

	logSlow("получение задачи", start, slowQuery)
	return found, nil
}

func (s *Storage) Delete(ctx context.Context, owner, id uuid.UUID) error {
	start := time.Now()

	tag, err := s.pool.Exec(ctx, `DELETE FROM tasks WHERE uuid = $1 AND owner = $2`, id, owner)
	if err != nil {
		logger.Error("Repository: Не удалось удалить задачу", err, zap.Duration("ms", time.Since(start)))
		return storeError("удаление задачи", err)
	}

	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}

	logSlow("удаление задачи", start, slowQuery)
	return nil
}

// Find выполняет отбор, сортировку с добором по uuid и срез страницы
func (s *Storage) Find(ctx context.Context, query task.Query) ([]*task.Task, error) {
	start := time.Now()

	where, args := buildWhere(query.Filter)
	args = append(args, query.Pagination.Limit, query.Pagination.Offset())

	sql := fmt.Sprintf(`SELECT %s FROM tasks WHERE %s ORDER BY %s LIMIT $%d OFFSET $%d`,
		taskColumns, where, buildOrderBy(query.Sort), len(args)-1, len(args))

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		logger.Error("Repository: Не удалось получить задачи", err, zap.Duration("ms", time.Since(start)))
		return nil, storeError("получение задач", err)
	}
	defer rows.Close()

	tasks := []*task.Task{}
	for rows.Next() {
		found, err := scanTask(rows)
		if err != nil {
			logger.Error("Repository: Ошибка сканирования задачи", err)
			return nil, storeError("сканирование задачи", err)
		}
		tasks = append(tasks, found)
	}

	if err := rows.Err(); err != nil {
		logger.Error("Repository: Ошибка итерации по строкам", err)
		return nil, storeError("итерация по строкам", err)
	}

	logSlow("получение задач", start, slowQuery+time.Millisecond*time.Duration(query.Pagination.Limit))
	return tasks, nil
}

func (s *Storage) Count(ctx context.Context, filter task.Filter) (int, error) {
	start := time.Now()

	where, args := buildWhere(filter)

	var count int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tasks WHERE `+where, args...).Scan(&count); err != nil {
		logger.Error("Repository: Не удалось посчитать задачи", err, zap.Duration("ms", time.Since(start)))
		return 0, storeError("подсчёт задач", err)
	}

	logSlow("подсчёт задач", start, slowQuery)
	return count, nil
}

func (s *Storage) CountByStatus(ctx context.Context, owner uuid.UUID) (map[task.Status]int, error) {
	res := map[task.Status]int{}
	err := s.groupCount(ctx, "status", owner, func(key string, count int) {
		res[task.Status(key)] = count
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *Storage) CountByPriority(ctx context.Context, owner uuid.UUID) (map[task.Priority]int, error) {
	res := map[task.Priority]int{}
	err := s.groupCount(ctx, "priority", owner, func(key string, count int) {
		res[task.Priority(key)] = count
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// groupCount column подставляется только из констант пакета
func (s *Storage) groupCount(ctx context.Context, column string, owner uuid.UUID, put func(string, int)) error {
	start := time.Now()

	query := fmt.Sprintf(`SELECT %[1]s, COUNT(*) FROM tasks WHERE owner = $1 GROUP BY %[1]s`, column)

	rows, err := s.pool.Query(ctx, query, owner)
	if err != nil {
		logger.Error("Repository: Не удалось сгруппировать задачи", err, zap.String("column", column))
		return storeError("группировка задач", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			key   string
			count int
		)
		if err := rows.Scan(&key, &count); err != nil {
			return storeError("сканирование группы", err)
		}
		put(key, count)
	}

	if err := rows.Err(); err != nil {
		logger.Error("Repository: Ошибка итерации по строкам", err)
		return storeError("итерация по строкам", err)
	}

	logSlow("группировка задач", start, slowQuery)
	return nil
}

// buildWhere собирает условие отбора, владелец всегда первый параметр
func buildWhere(filter task.Filter) (string, []any) {
	conditions := []string{"owner = $1"}
	args := []any{filter.Owner}

	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}

	if filter.Priority != "" {
		args = append(args, filter.Priority)
		conditions = append(conditions, fmt.Sprintf("priority = $%d", len(args)))
	}

	if filter.Search != "" {
		args = append(args, "%"+escapeLike(filter.Search)+"%")
		conditions = append(conditions, fmt.Sprintf("(title ILIKE $%[1]d OR description ILIKE $%[1]d)", len(args)))
	}

	return strings.Join(conditions, " AND "), args
}

func buildOrderBy(sort task.Sort) string {
	column, ok := sortColumns[sort.Field]
	if !ok {
		column = sortColumns[task.SortByCreatedAt]
	}

	direction := "DESC"
	if sort.Ascending() {
		direction = "ASC"
	}

	return fmt.Sprintf("%s %s, uuid %s", column, direction, direction)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike строка поиска трактуется буквально
func escapeLike(search string) string {
	return likeEscaper.Replace(search)
}

func scanTask(row pgx.Row) (*task.Task, error) {
	t := &task.Task{}
	err := row.Scan(
		&t.UUID,
		&t.Owner,
		&t.Title,
		&t.Description,
		&t.Status,
		&t.Priority,
		&t.DueDate,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	normalize(t)
	return t, nil
}

// normalize время из драйвера приходит в локальной зоне
func normalize(t *task.Task) {
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
	if t.DueDate != nil {
		due := t.DueDate.UTC()
		t.DueDate = &due
	}
}

func logSlow(op string, start time.Time, threshold time.Duration) {
	if elapsed := time.Since(start); elapsed > threshold {
		logger.Warn("Repository: Медленный запрос", zap.String("op", op), zap.Duration("ms", elapsed))
	}
}
