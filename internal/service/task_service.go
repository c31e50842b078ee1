package service

import (
	"context"
	"errors"
	"fmt"
	"taskManager/internal/logger"
	"taskManager/internal/models/task"
	"taskManager/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// здесь происходит проверка ошибок бизнес-логики

type TaskService struct {
	repo     TaskRepository
	defaults task.QueryDefaults
}

func NewTaskService(repo TaskRepository, defaults task.QueryDefaults) TaskService {
	return TaskService{
		repo:     repo,
		defaults: defaults,
	}
}

func (s *TaskService) HealthCheck(ctx context.Context) error {
	if err := s.repo.HealthCheck(ctx); err != nil {
		return fmt.Errorf("проверка хранилища: %w", err)
	}
	return nil
}

func (s *TaskService) CreateTask(ctx context.Context, owner uuid.UUID, title string, options ...task.TaskOption) (*task.Task, error) {
	newTask := task.New(owner, title, options...)

	if err := validateTask(newTask); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, newTask); err != nil {
		return nil, fmt.Errorf("создание задачи: %w", err)
	}

	logger.Info("Service: Задача создана",
		zap.String("task_id", newTask.UUID.String()),
		zap.String("owner", owner.String()))
	return newTask, nil
}

func (s *TaskService) GetTask(ctx context.Context, owner, id uuid.UUID) (*task.Task, error) {
	found, err := s.repo.GetByID(ctx, owner, id)
	if err != nil {
		return nil, s.taskError("получение задачи", id, err)
	}
	return found, nil
}

func (s *TaskService) UpdateTask(ctx context.Context, owner, id uuid.UUID, options ...task.TaskOption) (*task.Task, error) {
	found, err := s.repo.GetByID(ctx, owner, id)
	if err != nil {
		return nil, s.taskError("получение задачи", id, err)
	}

	found.Apply(options...)

	if err := validateTask(found); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, found); err != nil {
		return nil, s.taskError("обновление задачи", id, err)
	}
	return found, nil
}

// DeleteTask удаляет задачу и возвращает её последнее состояние
func (s *TaskService) DeleteTask(ctx context.Context, owner, id uuid.UUID) (*task.Task, error) {
	found, err := s.repo.GetByID(ctx, owner, id)
	if err != nil {
		return nil, s.taskError("получение задачи", id, err)
	}

	if err := s.repo.Delete(ctx, owner, id); err != nil {
		return nil, s.taskError("удаление задачи", id, err)
	}

	logger.Info("Service: Задача удалена", zap.String("task_id", id.String()))
	return found, nil
}

// ListTasks выполняет выборку страницы и подсчёт общего числа параллельно.
// Согласованность total и выборки при конкурентной записи не гарантируется.
func (s *TaskService) ListTasks(ctx context.Context, owner uuid.UUID, params task.ListParams) (*task.Page, error) {
	query, err := task.BuildQuery(owner, params, s.defaults)
	if err != nil {
		return nil, fromQueryError(err)
	}

	var (
		tasks []*task.Task
		total int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tasks, err = s.repo.Find(gctx, query)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.repo.Count(gctx, query.Filter)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("получение задач: %w", err)
	}

	if tasks == nil {
		tasks = []*task.Task{}
	}

	return &task.Page{
		Tasks: tasks,
		Count: len(tasks),
		Total: total,
		Page:  query.Pagination.Page,
		Pages: query.Pagination.Pages(total),
	}, nil
}

// Stats считает общее число задач и группировки по статусу и приоритету
func (s *TaskService) Stats(ctx context.Context, owner uuid.UUID) (*task.Stats, error) {
	stats := &task.Stats{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stats.Total, err = s.repo.Count(gctx, task.Filter{Owner: owner})
		return err
	})
	g.Go(func() error {
		var err error
		stats.ByStatus, err = s.repo.CountByStatus(gctx, owner)
		return err
	})
	g.Go(func() error {
		var err error
		stats.ByPriority, err = s.repo.CountByPriority(gctx, owner)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("статистика задач: %w", err)
	}

	if stats.ByStatus == nil {
		stats.ByStatus = map[task.Status]int{}
	}
	if stats.ByPriority == nil {
		stats.ByPriority = map[task.Priority]int{}
	}
	return stats, nil
}

func (s *TaskService) taskError(op string, id uuid.UUID, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		logger.Info("Service: Задача не найдена", zap.String("target_id", id.String()))
		return NewNotFound(ResourceTask)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func validateTask(t *task.Task) error {
	if t.Title == "" {
		return NewValidationError("title", "required")
	}
	if !t.Status.Valid() {
		return NewValidationError("status", "must be one of pending, in-progress, completed")
	}
	if !t.Priority.Valid() {
		return NewValidationError("priority", "must be one of low, medium, high")
	}
	return nil
}
