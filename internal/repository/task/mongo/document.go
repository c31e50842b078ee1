package mongo

import (
	"taskManager/internal/models/task"
	"time"

	"github.com/google/uuid"
)

// taskDocument представление задачи в коллекции tasks.
// Идентификаторы хранятся строками, их лексикографический порядок
// совпадает с побайтовым порядком uuid.
type taskDocument struct {
	ID          string     `bson:"_id"`
	Owner       string     `bson:"user"`
	Title       string     `bson:"title"`
	Description string     `bson:"description"`
	Status      string     `bson:"status"`
	Priority    string     `bson:"priority"`
	DueDate     *time.Time `bson:"dueDate"`
	CreatedAt   time.Time  `bson:"createdAt"`
	UpdatedAt   time.Time  `bson:"updatedAt"`
}

func toDocument(t *task.Task) taskDocument {
	doc := taskDocument{
		ID:          t.UUID.String(),
		Owner:       t.Owner.String(),
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		Priority:    string(t.Priority),
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
	if t.DueDate != nil {
		// BSON хранит время с точностью до миллисекунд
		due := t.DueDate.UTC().Truncate(time.Millisecond)
		doc.DueDate = &due
	}
	return doc
}

func (d taskDocument) toTask() (*task.Task, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, err
	}
	owner, err := uuid.Parse(d.Owner)
	if err != nil {
		return nil, err
	}

	t := &task.Task{
		UUID:        id,
		Owner:       owner,
		Title:       d.Title,
		Description: d.Description,
		Status:      task.Status(d.Status),
		Priority:    task.Priority(d.Priority),
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}
	if d.DueDate != nil {
		due := d.DueDate.UTC()
		t.DueDate = &due
	}
	return t, nil
}

type groupCount struct {
	Key   string `bson:"_id"`
	Count int    `bson:"count"`
}
