package app

import (
	"context"
	"taskManager/internal/config"
	"taskManager/internal/logger"
	taskinmemory "taskManager/internal/repository/task/inmemory"
	taskmongo "taskManager/internal/repository/task/mongo"
	taskpg "taskManager/internal/repository/task/postgres"
	userinmemory "taskManager/internal/repository/user/inmemory"
	usermongo "taskManager/internal/repository/user/mongo"
	userpg "taskManager/internal/repository/user/postgres"
)

func (a *App) initRepositories(ctx context.Context) error {
	switch a.config.Repository.Type {
	case config.RepositoryPostgres:
		return a.initPostgres(ctx)
	case config.RepositoryMongo:
		return a.initMongo(ctx)
	default:
		logger.Info("App: Используется in-memory хранилище, данные не сохраняются между запусками")
		a.tasks = taskinmemory.NewTaskStorage()
		a.users = userinmemory.NewUserStorage()
		return nil
	}
}

func (a *App) initPostgres(ctx context.Context) error {
	storage, err := taskpg.New(ctx, a.config.Database)
	if err != nil {
		return err
	}
	a.addShutdown("postgres", func(context.Context) error {
		storage.Close()
		return nil
	})

	if a.config.Database.Migrate {
		if err := storage.Migrate(); err != nil {
			return err
		}
	}

	a.tasks = storage
	a.users = userpg.NewUserStorage(storage.Pool())
	return nil
}

func (a *App) initMongo(ctx context.Context) error {
	storage, err := taskmongo.Connect(ctx, a.config.Mongo)
	if err != nil {
		return err
	}
	a.addShutdown("mongo", storage.Close)

	if err := storage.EnsureIndexes(ctx); err != nil {
		return err
	}

	users := usermongo.NewUserStorage(storage.Database())
	if err := users.EnsureIndexes(ctx); err != nil {
		return err
	}

	a.tasks = storage
	a.users = users
	return nil
}
