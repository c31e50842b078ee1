package service

import (
	"context"
	"taskManager/internal/models/task"
	"taskManager/internal/models/user"

	"github.com/google/uuid"
)

// TaskRepository хранилище задач. Все выборки и изменения
// ограничены владельцем, чужая задача неотличима от отсутствующей.
type TaskRepository interface {
	HealthCheck(context.Context) error
	Create(context.Context, *task.Task) error
	GetByID(ctx context.Context, owner, id uuid.UUID) (*task.Task, error)
	Update(context.Context, *task.Task) error
	Delete(ctx context.Context, owner, id uuid.UUID) error
	Find(context.Context, task.Query) ([]*task.Task, error)
	Count(context.Context, task.Filter) (int, error)
	CountByStatus(ctx context.Context, owner uuid.UUID) (map[task.Status]int, error)
	CountByPriority(ctx context.Context, owner uuid.UUID) (map[task.Priority]int, error)
}

type UserRepository interface {
	Create(context.Context, *user.User) error
	GetByID(context.Context, uuid.UUID) (*user.User, error)
	GetByEmail(context.Context, string) (*user.User, error)
	Update(context.Context, *user.User) error
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

type TokenIssuer interface {
	Generate(userID uuid.UUID) (string, error)
}
