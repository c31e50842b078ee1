package handlers

import (
	"net/http"
	"taskManager/internal/handlers/dto"
	"taskManager/internal/logger"
	"taskManager/internal/middleware"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const taskNotFoundMessage = "Task not found"

type TaskHandler struct {
	TaskService TaskService
}

func NewTaskHandler(taskService TaskService) TaskHandler {
	return TaskHandler{
		TaskService: taskService,
	}
}

func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	owner, ok := ownerFrom(w, r)
	if !ok {
		return
	}

	query := dto.ListTasksQueryFrom(r.URL.Query())
	if !validateRequest(w, r, &query) {
		return
	}

	page, err := h.TaskService.ListTasks(r.Context(), owner, query.Params())
	if err != nil {
		handleError(w, r, err, "list_tasks")
		return
	}

	logger.Info("HTTP_OUT: Задачи получены",
		zap.Int("count", page.Count),
		zap.Int("total", page.Total),
		zap.Duration("ms", time.Since(start)))

	responseWithSuccess(w, http.StatusOK,
		toPayload("count", page.Count),
		toPayload("total", page.Total),
		toPayload("page", page.Page),
		toPayload("pages", page.Pages),
		toPayload("tasks", page.Tasks),
	)
}

func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerFrom(w, r)
	if !ok {
		return
	}

	id, ok := taskIDFrom(w, r)
	if !ok {
		return
	}

	found, err := h.TaskService.GetTask(r.Context(), owner, id)
	if err != nil {
		handleError(w, r, err, "get_task")
		return
	}

	responseWithSuccess(w, http.StatusOK, toPayload("task", found))
}

func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	owner, ok := ownerFrom(w, r)
	if !ok {
		return
	}

	var request dto.CreateTaskRequest
	if !decodeJSON(w, r, &request) {
		return
	}
	request.Normalize()
	if !validateRequest(w, r, &request) {
		return
	}

	created, err := h.TaskService.CreateTask(r.Context(), owner, request.Title, request.Options()...)
	if err != nil {
		handleError(w, r, err, "create_task")
		return
	}

	logger.Info("HTTP_OUT: Задача создана",
		zap.String("task_id", created.UUID.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusCreated))

	responseWithSuccess(w, http.StatusCreated,
		toPayload("message", "Task created successfully"),
		toPayload("task", created),
	)
}

func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	owner, ok := ownerFrom(w, r)
	if !ok {
		return
	}

	id, ok := taskIDFrom(w, r)
	if !ok {
		return
	}

	var request dto.UpdateTaskRequest
	if !decodeJSON(w, r, &request) {
		return
	}
	request.Normalize()
	if !validateRequest(w, r, &request) {
		return
	}

	updated, err := h.TaskService.UpdateTask(r.Context(), owner, id, request.Options()...)
	if err != nil {
		handleError(w, r, err, "update_task")
		return
	}

	logger.Info("HTTP_OUT: Задача обновлена",
		zap.String("task_id", id.String()),
		zap.Duration("ms", time.Since(start)))

	responseWithSuccess(w, http.StatusOK,
		toPayload("message", "Task updated successfully"),
		toPayload("task", updated),
	)
}

func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerFrom(w, r)
	if !ok {
		return
	}

	id, ok := taskIDFrom(w, r)
	if !ok {
		return
	}

	deleted, err := h.TaskService.DeleteTask(r.Context(), owner, id)
	if err != nil {
		handleError(w, r, err, "delete_task")
		return
	}

	responseWithSuccess(w, http.StatusOK,
		toPayload("message", "Task deleted successfully"),
		toPayload("task", deleted),
	)
}

func (h *TaskHandler) Stats(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerFrom(w, r)
	if !ok {
		return
	}

	stats, err := h.TaskService.Stats(r.Context(), owner)
	if err != nil {
		handleError(w, r, err, "task_stats")
		return
	}

	responseWithSuccess(w, http.StatusOK, toPayload("stats", stats))
}

func (h *TaskHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if err := h.TaskService.HealthCheck(r.Context()); err != nil {
		logger.Error("HTTP: Хранилище недоступно", err)
		responseWithError(w, http.StatusServiceUnavailable, "Service unavailable")
		return
	}

	responseWithSuccess(w, http.StatusOK,
		toPayload("message", "Server is healthy"),
		toPayload("time", time.Now().UTC()),
	)
}

func Root(w http.ResponseWriter, r *http.Request) {
	responseWithSuccess(w, http.StatusOK,
		toPayload("message", "Backend is running"),
		toPayload("api", map[string]string{
			"auth":   "/api/auth",
			"tasks":  "/api/tasks",
			"health": "/api/health",
		}),
	)
}

func NotFound(w http.ResponseWriter, r *http.Request) {
	responseWithError(w, http.StatusNotFound, "Route not found")
}

func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	responseWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
}

// ownerFrom владелец берётся только из контекста, его кладёт Authenticate
func ownerFrom(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	owner, ok := middleware.GetUserID(r.Context())
	if !ok {
		logger.Warn("HTTP: Нет пользователя в контексте", zap.String("path", r.URL.Path))
		responseWithError(w, http.StatusUnauthorized, "No token, authorization denied")
		return uuid.Nil, false
	}
	return owner, true
}

// taskIDFrom некорректный id отвечает так же, как отсутствующая задача
func taskIDFrom(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil || id == uuid.Nil {
		logger.Warn("HTTP: Неверный id задачи",
			zap.String("id", chi.URLParam(r, "id")),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusNotFound, taskNotFoundMessage)
		return uuid.Nil, false
	}
	return id, true
}
