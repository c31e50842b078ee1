package app_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"taskManager/internal/app"
	"taskManager/internal/config"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const testSecret = "0123456789abcdef0123456789abcdef"

// AppTestSuite гоняет HTTP API целиком поверх in-memory хранилища
type AppTestSuite struct {
	suite.Suite
	app    *app.App
	server *httptest.Server
}

func (s *AppTestSuite) SetupTest() {
	s.T().Setenv("TASKMANAGER_AUTH_JWT_SECRET", testSecret)
	s.T().Setenv("TASKMANAGER_AUTH_BCRYPT_COST", "4")
	s.T().Setenv("TASKMANAGER_REPOSITORY_TYPE", config.RepositoryInMemory)

	cfg, err := config.Load(filepath.Join(s.T().TempDir(), "missing.yml"))
	require.NoError(s.T(), err)

	s.app = app.New(cfg)
	require.NoError(s.T(), s.app.Init(context.Background()))
	s.server = httptest.NewServer(s.app.Handler())
}

func (s *AppTestSuite) TearDownTest() {
	s.server.Close()
	require.NoError(s.T(), s.app.Shutdown(context.Background()))
}

func TestAppTestSuite(t *testing.T) {
	suite.Run(t, new(AppTestSuite))
}

func (s *AppTestSuite) do(method, path, token string, body any) (int, map[string]any) {
	var payload bytes.Buffer
	if body != nil {
		require.NoError(s.T(), json.NewEncoder(&payload).Encode(body))
	}

	req, err := http.NewRequest(method, s.server.URL+path, &payload)
	require.NoError(s.T(), err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.server.Client().Do(req)
	require.NoError(s.T(), err)
	defer resp.Body.Close()

	var decoded map[string]any
	require.NoError(s.T(), json.NewDecoder(resp.Body).Decode(&decoded))
	return resp.StatusCode, decoded
}

func (s *AppTestSuite) register(name, email string) string {
	status, body := s.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": name, "email": email, "password": "secret1",
	})
	require.Equal(s.T(), http.StatusCreated, status, body)
	return body["token"].(string)
}

func (s *AppTestSuite) createTask(token string, fields map[string]any) string {
	status, body := s.do(http.MethodPost, "/api/tasks", token, fields)
	require.Equal(s.T(), http.StatusCreated, status, body)
	return body["task"].(map[string]any)["id"].(string)
}

// TestRootHealthAndUnknownRoute тестирует служебные маршруты
func (s *AppTestSuite) TestRootHealthAndUnknownRoute() {
	status, body := s.do(http.MethodGet, "/", "", nil)
	assert.Equal(s.T(), http.StatusOK, status)
	assert.Equal(s.T(), "Backend is running", body["message"])

	status, body = s.do(http.MethodGet, "/api/health", "", nil)
	assert.Equal(s.T(), http.StatusOK, status)
	assert.Equal(s.T(), "Server is healthy", body["message"])
	assert.NotEmpty(s.T(), body["time"])

	status, body = s.do(http.MethodGet, "/api/unknown", "", nil)
	assert.Equal(s.T(), http.StatusNotFound, status)
	assert.Equal(s.T(), "Route not found", body["message"])
}

// TestTasksRequireToken тестирует закрытые маршруты
func (s *AppTestSuite) TestTasksRequireToken() {
	for _, path := range []string{"/api/tasks", "/api/tasks/stats", "/api/auth/me"} {
		status, body := s.do(http.MethodGet, path, "", nil)
		assert.Equal(s.T(), http.StatusUnauthorized, status, path)
		assert.Equal(s.T(), false, body["success"])
	}

	status, _ := s.do(http.MethodGet, "/api/tasks", "not-a-token", nil)
	assert.Equal(s.T(), http.StatusUnauthorized, status)
}

// TestAuthFlow тестирует регистрацию, вход и профиль
func (s *AppTestSuite) TestAuthFlow() {
	token := s.register("Alice", "alice@example.com")

	status, body := s.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Alice", "email": "ALICE@example.com", "password": "secret1",
	})
	assert.Equal(s.T(), http.StatusBadRequest, status)
	assert.Equal(s.T(), "User already exists", body["message"])

	status, body = s.do(http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "alice@example.com", "password": "nope",
	})
	assert.Equal(s.T(), http.StatusUnauthorized, status)
	assert.Equal(s.T(), "Invalid credentials", body["message"])

	status, body = s.do(http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(s.T(), http.StatusOK, status)
	assert.Equal(s.T(), "alice@example.com", body["user"].(map[string]any)["email"])

	status, _ = s.do(http.MethodPut, "/api/auth/change-password", token, map[string]string{
		"currentPassword": "secret1", "newPassword": "secret2",
	})
	require.Equal(s.T(), http.StatusOK, status)

	status, body = s.do(http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "alice@example.com", "password": "secret2",
	})
	assert.Equal(s.T(), http.StatusOK, status)
	assert.NotEmpty(s.T(), body["token"])
}

// TestPaginationScenario 12 задач, page=2 limit=5: 5 штук, total 12, pages 3
func (s *AppTestSuite) TestPaginationScenario() {
	token := s.register("Alice", "alice@example.com")
	for i := 0; i < 12; i++ {
		s.createTask(token, map[string]any{"title": fmt.Sprintf("Task %02d", i)})
	}

	status, body := s.do(http.MethodGet, "/api/tasks?page=2&limit=5", token, nil)
	require.Equal(s.T(), http.StatusOK, status)
	assert.EqualValues(s.T(), 5, body["count"])
	assert.EqualValues(s.T(), 12, body["total"])
	assert.EqualValues(s.T(), 2, body["page"])
	assert.EqualValues(s.T(), 3, body["pages"])

	seen := map[string]bool{}
	for page := 1; page <= 3; page++ {
		_, body := s.do(http.MethodGet, fmt.Sprintf("/api/tasks?page=%d&limit=5&sortBy=title&sortOrder=asc", page), token, nil)
		for _, item := range body["tasks"].([]any) {
			id := item.(map[string]any)["id"].(string)
			assert.False(s.T(), seen[id], "задача на двух страницах")
			seen[id] = true
		}
	}
	assert.Len(s.T(), seen, 12)

	status, body = s.do(http.MethodGet, "/api/tasks?limit=0", token, nil)
	assert.Equal(s.T(), http.StatusBadRequest, status)
	assert.Equal(s.T(), "Validation failed", body["message"])

	status, _ = s.do(http.MethodGet, "/api/tasks?sortBy=owner", token, nil)
	assert.Equal(s.T(), http.StatusBadRequest, status)
}

// TestTenantIsolation чужая задача неотличима от отсутствующей
func (s *AppTestSuite) TestTenantIsolation() {
	alice := s.register("Alice", "alice@example.com")
	bob := s.register("Bob", "bob@example.com")

	id := s.createTask(alice, map[string]any{"title": "Secret plan"})

	foreignStatus, foreignBody := s.do(http.MethodGet, "/api/tasks/"+id, bob, nil)
	_, missingBody := s.do(http.MethodGet, "/api/tasks/00000000-0000-0000-0000-000000000001", bob, nil)
	assert.Equal(s.T(), http.StatusNotFound, foreignStatus)
	assert.Equal(s.T(), missingBody, foreignBody)

	status, _ := s.do(http.MethodPut, "/api/tasks/"+id, bob, map[string]any{"title": "Mine now"})
	assert.Equal(s.T(), http.StatusNotFound, status)

	status, _ = s.do(http.MethodDelete, "/api/tasks/"+id, bob, nil)
	assert.Equal(s.T(), http.StatusNotFound, status)

	_, body := s.do(http.MethodGet, "/api/tasks?search=secret", bob, nil)
	assert.EqualValues(s.T(), 0, body["total"])

	status, body = s.do(http.MethodGet, "/api/tasks/"+id, alice, nil)
	require.Equal(s.T(), http.StatusOK, status)
	assert.Equal(s.T(), "Secret plan", body["task"].(map[string]any)["title"])
}

// TestTaskLifecycleAndStats тестирует CRUD и статистику
func (s *AppTestSuite) TestTaskLifecycleAndStats() {
	token := s.register("Alice", "alice@example.com")

	first := s.createTask(token, map[string]any{"title": "One"})
	s.createTask(token, map[string]any{"title": "Two"})
	s.createTask(token, map[string]any{"title": "Three", "status": "completed", "priority": "high"})

	status, body := s.do(http.MethodGet, "/api/tasks/stats", token, nil)
	require.Equal(s.T(), http.StatusOK, status)
	stats := body["stats"].(map[string]any)
	assert.EqualValues(s.T(), 3, stats["total"])
	assert.Equal(s.T(), map[string]any{"pending": float64(2), "completed": float64(1)}, stats["byStatus"])
	assert.Equal(s.T(), map[string]any{"medium": float64(2), "high": float64(1)}, stats["byPriority"])

	status, body = s.do(http.MethodPut, "/api/tasks/"+first, token, map[string]any{"status": "in-progress"})
	require.Equal(s.T(), http.StatusOK, status)
	updated := body["task"].(map[string]any)
	assert.Equal(s.T(), "in-progress", updated["status"])
	assert.Equal(s.T(), "One", updated["title"])

	dated := s.createTask(token, map[string]any{"title": "Dated", "dueDate": "2030-01-01T00:00:00Z"})
	status, body = s.do(http.MethodPut, "/api/tasks/"+dated, token, map[string]any{"title": "Dated again"})
	require.Equal(s.T(), http.StatusOK, status)
	assert.Equal(s.T(), "2030-01-01T00:00:00Z", body["task"].(map[string]any)["dueDate"])

	status, body = s.do(http.MethodPut, "/api/tasks/"+dated, token, map[string]any{"dueDate": nil})
	require.Equal(s.T(), http.StatusOK, status)
	assert.NotContains(s.T(), body["task"], "dueDate")
	status, _ = s.do(http.MethodDelete, "/api/tasks/"+dated, token, nil)
	require.Equal(s.T(), http.StatusOK, status)

	status, body = s.do(http.MethodGet, "/api/tasks?status=in-progress", token, nil)
	require.Equal(s.T(), http.StatusOK, status)
	assert.EqualValues(s.T(), 1, body["total"])

	status, _ = s.do(http.MethodDelete, "/api/tasks/"+first, token, nil)
	require.Equal(s.T(), http.StatusOK, status)

	status, _ = s.do(http.MethodGet, "/api/tasks/"+first, token, nil)
	assert.Equal(s.T(), http.StatusNotFound, status)

	_, body = s.do(http.MethodGet, "/api/tasks/stats", token, nil)
	assert.EqualValues(s.T(), 2, body["stats"].(map[string]any)["total"])
}

// TestRateLimitIgnoresSpoofedAddress без trust_proxy лимит считается по адресу соединения
func TestRateLimitIgnoresSpoofedAddress(t *testing.T) {
	t.Setenv("TASKMANAGER_AUTH_JWT_SECRET", testSecret)
	t.Setenv("TASKMANAGER_REPOSITORY_TYPE", config.RepositoryInMemory)
	t.Setenv("TASKMANAGER_RATE_LIMIT_REQUESTS", "2")

	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.yml"))
	require.NoError(t, err)
	require.False(t, cfg.Server.TrustProxy)

	application := app.New(cfg)
	require.NoError(t, application.Init(context.Background()))
	defer func() { _ = application.Shutdown(context.Background()) }()

	codes := make([]int, 0, 4)
	for i := 0; i < 4; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		req.RemoteAddr = "10.0.0.1:1000"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("1.2.3.%d", i))
		w := httptest.NewRecorder()
		application.Handler().ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests, http.StatusTooManyRequests}, codes)
}
