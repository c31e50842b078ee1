package handlers

import (
	"context"
	"taskManager/internal/models/task"
	"taskManager/internal/models/user"

	"github.com/google/uuid"
)

type TaskService interface {
	HealthCheck(context.Context) error
	CreateTask(ctx context.Context, owner uuid.UUID, title string, options ...task.TaskOption) (*task.Task, error)
	GetTask(ctx context.Context, owner, id uuid.UUID) (*task.Task, error)
	UpdateTask(ctx context.Context, owner, id uuid.UUID, options ...task.TaskOption) (*task.Task, error)
	DeleteTask(ctx context.Context, owner, id uuid.UUID) (*task.Task, error)
	ListTasks(ctx context.Context, owner uuid.UUID, params task.ListParams) (*task.Page, error)
	Stats(ctx context.Context, owner uuid.UUID) (*task.Stats, error)
}

type AuthService interface {
	Register(ctx context.Context, name, email, password string) (*user.User, string, error)
	Login(ctx context.Context, email, password string) (*user.User, string, error)
	GetUser(ctx context.Context, id uuid.UUID) (*user.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, name, email string) (*user.User, error)
	ChangePassword(ctx context.Context, id uuid.UUID, current, next string) error
}
