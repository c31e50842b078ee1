package task

import (
	"time"

	"github.com/google/uuid"
)

type Task struct {
	UUID        uuid.UUID  `json:"id" db:"uuid"`
	Owner       uuid.UUID  `json:"user" db:"owner"`
	Title       string     `json:"title" db:"title"`
	Description string     `json:"description" db:"description"`
	Status      Status     `json:"status" db:"status"`
	Priority    Priority   `json:"priority" db:"priority"`
	DueDate     *time.Time `json:"dueDate,omitempty" db:"due_date"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time  `json:"updatedAt" db:"updated_at"`
}

type Status string
type Priority string

const StatusPending Status = "pending"
const StatusInProgress Status = "in-progress"
const StatusCompleted Status = "completed"

const PriorityLow Priority = "low"
const PriorityMedium Priority = "medium"
const PriorityHigh Priority = "high"

const DefaultStatus = StatusPending
const DefaultPriority = PriorityMedium

func Statuses() []Status {
	return []Status{StatusPending, StatusInProgress, StatusCompleted}
}

func Priorities() []Priority {
	return []Priority{PriorityLow, PriorityMedium, PriorityHigh}
}

func (s Status) Valid() bool {
	for _, st := range Statuses() {
		if s == st {
			return true
		}
	}
	return false
}

func (p Priority) Valid() bool {
	for _, pr := range Priorities() {
		if p == pr {
			return true
		}
	}
	return false
}

// New собирает задачу владельца с дефолтными статусом и приоритетом,
// опции применяются поверх дефолтов
func New(owner uuid.UUID, title string, options ...TaskOption) *Task {
	t := &Task{
		UUID:     uuid.New(),
		Owner:    owner,
		Title:    title,
		Status:   DefaultStatus,
		Priority: DefaultPriority,
	}
	t.Apply(options...)
	return t
}

// Apply применяет опции обновления, nil-опции пропускаются
func (t *Task) Apply(options ...TaskOption) {
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(t)
	}
}

// Stats агрегаты по задачам одного пользователя.
// Значения без задач в картах отсутствуют.
type Stats struct {
	Total      int              `json:"total"`
	ByStatus   map[Status]int   `json:"byStatus"`
	ByPriority map[Priority]int `json:"byPriority"`
}

// Page одна страница выдачи списка задач
type Page struct {
	Tasks []*Task
	Count int
	Total int
	Page  int
	Pages int
}
