package task

import (
	"time"
)

// TaskOption изменяет одно поле задачи. Конструкторы возвращают nil,
// если значение не передано, и такая опция пропускается в Apply.
// Владелец задачи опцией не меняется.
type TaskOption func(*Task)

func WithTitle(title string) TaskOption {
	if title == "" {
		return nil
	}
	return func(task *Task) {
		task.Title = title
	}
}

func WithDescription(description *string) TaskOption {
	if description == nil {
		return nil
	}
	return func(task *Task) {
		task.Description = *description
	}
}

func WithStatus(status Status) TaskOption {
	if status == "" {
		return nil
	}
	return func(task *Task) {
		task.Status = status
	}
}

func WithPriority(priority Priority) TaskOption {
	if priority == "" {
		return nil
	}
	return func(task *Task) {
		task.Priority = priority
	}
}

func WithDueDate(dueDate *time.Time) TaskOption {
	if dueDate == nil || dueDate.IsZero() {
		return nil
	}
	return func(task *Task) {
		due := dueDate.UTC()
		task.DueDate = &due
	}
}

// WithoutDueDate снимает срок выполнения
func WithoutDueDate() TaskOption {
	return func(task *Task) {
		task.DueDate = nil
	}
}
