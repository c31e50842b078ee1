package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"taskManager/internal/auth"
	"taskManager/internal/config"
	"taskManager/internal/handlers"
	"taskManager/internal/logger"
	"taskManager/internal/models/task"
	"taskManager/internal/service"

	"go.uber.org/zap"
)

type shutdownHook struct {
	name string
	fn   func(context.Context) error
}

type App struct {
	config *config.Config
	server *http.Server
	router http.Handler

	tasks service.TaskRepository
	users service.UserRepository

	shutdowns []shutdownHook // выполняются в обратном порядке
}

func New(cfg *config.Config) *App {
	return &App{
		config:    cfg,
		shutdowns: make([]shutdownHook, 0),
	}
}

// Init подключает хранилище, собирает сервисы и роутер.
// При ошибке уже открытые ресурсы закрываются.
func (a *App) Init(ctx context.Context) error {
	a.addShutdown("logger", func(context.Context) error {
		logger.Sync()
		return nil
	})

	if err := a.initRepositories(ctx); err != nil {
		a.runShutdowns(ctx)
		return fmt.Errorf("инициализация хранилища: %w", err)
	}

	tokens, err := auth.NewTokenService(a.config.Auth.JWTSecret, a.config.Auth.TokenTTL)
	if err != nil {
		a.runShutdowns(ctx)
		return fmt.Errorf("инициализация токенов: %w", err)
	}

	taskService := service.NewTaskService(a.tasks, a.queryDefaults())
	authService := service.NewAuthService(a.users, auth.NewBcryptHasher(a.config.Auth.BcryptCost), tokens)

	a.router = a.newRouter(
		handlers.NewTaskHandler(&taskService),
		handlers.NewAuthHandler(&authService),
		tokens,
	)

	a.server = &http.Server{
		Addr:         a.config.GetServerAddr(),
		Handler:      a.router,
		ReadTimeout:  a.config.Server.ReadTimeout,
		WriteTimeout: a.config.Server.WriteTimeout,
	}

	logger.Info("App: Приложение инициализировано",
		zap.String("repository", a.config.Repository.Type),
		zap.String("addr", a.server.Addr))
	return nil
}

func (a *App) Handler() http.Handler {
	return a.router
}

// Run блокируется до остановки сервера
func (a *App) Run() error {
	logger.Info("App: Сервер запущен", zap.String("addr", a.server.Addr))

	if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http сервер: %w", err)
	}
	return nil
}

func (a *App) Shutdown(ctx context.Context) error {
	logger.Info("App: Остановка сервера")

	var err error
	if a.server != nil {
		if shutdownErr := a.server.Shutdown(ctx); shutdownErr != nil {
			err = fmt.Errorf("остановка http сервера: %w", shutdownErr)
		}
	}

	a.runShutdowns(ctx)
	return err
}

func (a *App) addShutdown(name string, fn func(context.Context) error) {
	a.shutdowns = append(a.shutdowns, shutdownHook{name: name, fn: fn})
}

func (a *App) runShutdowns(ctx context.Context) {
	for i := len(a.shutdowns) - 1; i >= 0; i-- {
		hook := a.shutdowns[i]
		if err := hook.fn(ctx); err != nil {
			logger.Error("App: Ошибка при завершении", err, zap.String("resource", hook.name))
		}
	}
	a.shutdowns = a.shutdowns[:0]
}

func (a *App) queryDefaults() task.QueryDefaults {
	defaults := task.NewQueryDefaults()
	defaults.Limit = a.config.Pagination.DefaultLimit
	defaults.MaxLimit = a.config.Pagination.MaxLimit
	return defaults
}
