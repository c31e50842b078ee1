package task

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

type SortField string
type SortOrder string

const SortByCreatedAt SortField = "createdAt"
const SortByUpdatedAt SortField = "updatedAt"
const SortByDueDate SortField = "dueDate"
const SortByTitle SortField = "title"
const SortByStatus SortField = "status"
const SortByPriority SortField = "priority"

const SortAsc SortOrder = "asc"
const SortDesc SortOrder = "desc"

func SortFields() []SortField {
	return []SortField{SortByCreatedAt, SortByUpdatedAt, SortByDueDate, SortByTitle, SortByStatus, SortByPriority}
}

func (f SortField) Valid() bool {
	for _, sf := range SortFields() {
		if f == sf {
			return true
		}
	}
	return false
}

// ListParams сырые параметры запроса списка, как они пришли в query string
type ListParams struct {
	Status    string
	Priority  string
	Search    string
	SortBy    string
	SortOrder string
	Page      string
	Limit     string
}

// Filter условия отбора. Owner обязателен всегда,
// пустые Status/Priority/Search означают отсутствие условия.
type Filter struct {
	Owner    uuid.UUID
	Status   Status
	Priority Priority
	Search   string
}

type Sort struct {
	Field SortField
	Order SortOrder
}

type Pagination struct {
	Page  int
	Limit int
}

type Query struct {
	Filter     Filter
	Sort       Sort
	Pagination Pagination
}

// QueryDefaults значения по умолчанию для списка задач.
// Создаётся один раз на запрос и дальше не меняется.
type QueryDefaults struct {
	SortBy    SortField
	SortOrder SortOrder
	Page      int
	Limit     int
	MaxLimit  int
}

func NewQueryDefaults() QueryDefaults {
	return QueryDefaults{
		SortBy:    SortByCreatedAt,
		SortOrder: SortDesc,
		Page:      1,
		Limit:     10,
		MaxLimit:  100,
	}
}

// QueryError ошибка разбора параметров списка, Reason уходит клиенту как есть
type QueryError struct {
	Field  string
	Reason string
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("параметр %s: %s", e.Field, e.Reason)
}

// BuildQuery переводит параметры запроса в фильтр, сортировку и пагинацию.
// Принадлежность status/priority к перечислениям здесь не проверяется,
// это делает валидация на входе.
func BuildQuery(owner uuid.UUID, params ListParams, defaults QueryDefaults) (Query, error) {
	query := Query{
		Filter: Filter{
			Owner:    owner,
			Status:   Status(params.Status),
			Priority: Priority(params.Priority),
			Search:   strings.TrimSpace(params.Search),
		},
		Sort: Sort{
			Field: defaults.SortBy,
			Order: SortDesc,
		},
	}

	if params.SortBy != "" {
		field := SortField(params.SortBy)
		if !field.Valid() {
			return Query{}, &QueryError{Field: "sortBy", Reason: "must be one of createdAt, updatedAt, dueDate, title, status, priority"}
		}
		query.Sort.Field = field
	}

	order := SortOrder(params.SortOrder)
	if params.SortOrder == "" {
		order = defaults.SortOrder
	}
	if order == SortAsc {
		query.Sort.Order = SortAsc
	}

	page, err := parsePositive("page", params.Page, defaults.Page)
	if err != nil {
		return Query{}, err
	}

	limit, err := parsePositive("limit", params.Limit, defaults.Limit)
	if err != nil {
		return Query{}, err
	}

	if defaults.MaxLimit > 0 && limit > defaults.MaxLimit {
		return Query{}, &QueryError{Field: "limit", Reason: fmt.Sprintf("must not exceed %d", defaults.MaxLimit)}
	}

	// page*limit должно помещаться в int, иначе смещение переполнится
	if page > math.MaxInt/limit {
		return Query{}, &QueryError{Field: "page", Reason: "is too large"}
	}

	query.Pagination = Pagination{Page: page, Limit: limit}
	return query, nil
}

func parsePositive(field, raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}

	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, &QueryError{Field: field, Reason: "must be an integer"}
	}

	if value <= 0 {
		return 0, &QueryError{Field: field, Reason: "must be greater than 0"}
	}
	return value, nil
}

func (p Pagination) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Pages число страниц для total записей, округление вверх
func (p Pagination) Pages(total int) int {
	if p.Limit <= 0 {
		return 0
	}
	return (total + p.Limit - 1) / p.Limit
}

func (s Sort) Ascending() bool {
	return s.Order == SortAsc
}

// Matches проверяет задачу на соответствие фильтру.
// Поиск - подстрока без учёта регистра в title или description.
func (f Filter) Matches(t *Task) bool {
	if t.Owner != f.Owner {
		return false
	}

	if f.Status != "" && t.Status != f.Status {
		return false
	}

	if f.Priority != "" && t.Priority != f.Priority {
		return false
	}

	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(t.Title), needle) &&
			!strings.Contains(strings.ToLower(t.Description), needle) {
			return false
		}
	}

	return true
}

// Compare сравнивает задачи по полю сортировки с учётом направления.
// При равенстве ключа порядок определяется по id в том же направлении.
// Пустой dueDate считается больше любого значения, как NULL в PostgreSQL.
func (s Sort) Compare(a, b *Task) int {
	res := compareField(s.Field, a, b)
	if res == 0 {
		res = bytes.Compare(a.UUID[:], b.UUID[:])
	}

	if !s.Ascending() {
		return -res
	}
	return res
}

func compareField(field SortField, a, b *Task) int {
	switch field {
	case SortByUpdatedAt:
		return a.UpdatedAt.Compare(b.UpdatedAt)
	case SortByDueDate:
		return compareDue(a.DueDate, b.DueDate)
	case SortByTitle:
		return strings.Compare(a.Title, b.Title)
	case SortByStatus:
		return strings.Compare(string(a.Status), string(b.Status))
	case SortByPriority:
		return strings.Compare(string(a.Priority), string(b.Priority))
	default:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
}

func compareDue(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	default:
		return a.Compare(*b)
	}
}
