package dto

import (
	"encoding/json"
	"net/url"
	"strings"
	"taskManager/internal/models/task"
	"taskManager/internal/models/user"
	"time"
)

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

func (r *RegisterRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = user.NormalizeEmail(r.Email)
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (r *LoginRequest) Normalize() {
	r.Email = user.NormalizeEmail(r.Email)
}

type UpdateProfileRequest struct {
	Name  *string `json:"name,omitempty" validate:"omitnil,min=2,max=50"`
	Email *string `json:"email,omitempty" validate:"omitnil,email"`
}

func (r *UpdateProfileRequest) Normalize() {
	r.Name = trimmed(r.Name)
	if r.Email != nil {
		email := user.NormalizeEmail(*r.Email)
		r.Email = &email
	}
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6"`
}

type CreateTaskRequest struct {
	Title       string     `json:"title" validate:"required,max=100"`
	Description *string    `json:"description,omitempty" validate:"omitnil,max=500"`
	Status      *string    `json:"status,omitempty" validate:"omitnil,oneof=pending in-progress completed"`
	Priority    *string    `json:"priority,omitempty" validate:"omitnil,oneof=low medium high"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
}

func (r *CreateTaskRequest) Normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.Description = trimmed(r.Description)
}

// Options опции поверх дефолтов новой задачи
func (r *CreateTaskRequest) Options() []task.TaskOption {
	return []task.TaskOption{
		task.WithDescription(r.Description),
		task.WithStatus(task.Status(deref(r.Status))),
		task.WithPriority(task.Priority(deref(r.Priority))),
		task.WithDueDate(r.DueDate),
	}
}

// UpdateTaskRequest отсутствующее поле не меняется, владельца сменить нельзя.
// Явный "dueDate": null снимает срок.
type UpdateTaskRequest struct {
	Title       *string      `json:"title,omitempty" validate:"omitnil,min=1,max=100"`
	Description *string      `json:"description,omitempty" validate:"omitnil,max=500"`
	Status      *string      `json:"status,omitempty" validate:"omitnil,oneof=pending in-progress completed"`
	Priority    *string      `json:"priority,omitempty" validate:"omitnil,oneof=low medium high"`
	DueDate     NullableTime `json:"dueDate"`
}

// NullableTime различает отсутствующее поле и явный null
type NullableTime struct {
	Set   bool
	Value *time.Time
}

func (n *NullableTime) UnmarshalJSON(data []byte) error {
	n.Set = true
	if string(data) == "null" {
		n.Value = nil
		return nil
	}

	var value time.Time
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}
	n.Value = &value
	return nil
}

func (n NullableTime) option() task.TaskOption {
	if n.Set && n.Value == nil {
		return task.WithoutDueDate()
	}
	return task.WithDueDate(n.Value)
}

func (r *UpdateTaskRequest) Normalize() {
	r.Title = trimmed(r.Title)
	r.Description = trimmed(r.Description)
}

func (r *UpdateTaskRequest) Options() []task.TaskOption {
	return []task.TaskOption{
		task.WithTitle(deref(r.Title)),
		task.WithDescription(r.Description),
		task.WithStatus(task.Status(deref(r.Status))),
		task.WithPriority(task.Priority(deref(r.Priority))),
		r.DueDate.option(),
	}
}

// ListTasksQuery параметры строки запроса списка. page, limit и sortBy
// разбирает построитель запроса.
type ListTasksQuery struct {
	Status    string `json:"status" validate:"omitempty,oneof=pending in-progress completed"`
	Priority  string `json:"priority" validate:"omitempty,oneof=low medium high"`
	Search    string `json:"search"`
	SortBy    string `json:"sortBy"`
	SortOrder string `json:"sortOrder" validate:"omitempty,oneof=asc desc"`
	Page      string `json:"page"`
	Limit     string `json:"limit"`
}

func ListTasksQueryFrom(values url.Values) ListTasksQuery {
	return ListTasksQuery{
		Status:    values.Get("status"),
		Priority:  values.Get("priority"),
		Search:    values.Get("search"),
		SortBy:    values.Get("sortBy"),
		SortOrder: values.Get("sortOrder"),
		Page:      values.Get("page"),
		Limit:     values.Get("limit"),
	}
}

func (q ListTasksQuery) Params() task.ListParams {
	return task.ListParams{
		Status:    q.Status,
		Priority:  q.Priority,
		Search:    q.Search,
		SortBy:    q.SortBy,
		SortOrder: q.SortOrder,
		Page:      q.Page,
		Limit:     q.Limit,
	}
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
