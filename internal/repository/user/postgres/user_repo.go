package postgres

import (
	"context"
	"errors"
	"fmt"
	"taskManager/internal/logger"
	"taskManager/internal/models/user"
	repo "taskManager/internal/repository"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const userColumns = `uuid, name, email, password_hash, created_at, updated_at`

// UserStorage работает поверх пула хранилища задач
type UserStorage struct {
	pool *pgxpool.Pool
}

func NewUserStorage(pool *pgxpool.Pool) *UserStorage {
	return &UserStorage{pool: pool}
}

func (s *UserStorage) Create(ctx context.Context, userToCreate *user.User) error {
	start := time.Now()

	query := `INSERT INTO users (uuid, name, email, password_hash, created_at, updated_at)
				VALUES ($1, $2, $3, $4, NOW(), NOW())
				RETURNING created_at, updated_at`

	err := s.pool.QueryRow(ctx, query,
		userToCreate.UUID,
		userToCreate.Name,
		userToCreate.Email,
		userToCreate.PasswordHash,
	).Scan(&userToCreate.CreatedAt, &userToCreate.UpdatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return repo.ErrDuplicate
		}
		logger.Error("Repository: Не удалось добавить пользователя", err, zap.Duration("ms", time.Since(start)))
		return storeError("добавление пользователя", err)
	}

	userToCreate.CreatedAt = userToCreate.CreatedAt.UTC()
	userToCreate.UpdatedAt = userToCreate.UpdatedAt.UTC()
	return nil
}

func (s *UserStorage) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	return s.getOne(ctx, "uuid", id)
}

func (s *UserStorage) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return s.getOne(ctx, "email", email)
}

func (s *UserStorage) Update(ctx context.Context, userToUpdate *user.User) error {
	start := time.Now()

	query := `UPDATE users
			SET name = $1,
				email = $2,
				password_hash = $3,
				updated_at = NOW()
			WHERE uuid = $4
			RETURNING created_at, updated_at`

	err := s.pool.QueryRow(ctx, query,
		userToUpdate.Name,
		userToUpdate.Email,
		userToUpdate.PasswordHash,
		userToUpdate.UUID,
	).Scan(&userToUpdate.CreatedAt, &userToUpdate.UpdatedAt)

	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return repo.ErrNotFound
		case isUniqueViolation(err):
			return repo.ErrDuplicate
		}
		logger.Error("Repository: Не удалось обновить пользователя", err, zap.Duration("ms", time.Since(start)))
		return storeError("обновление пользователя", err)
	}

	userToUpdate.CreatedAt = userToUpdate.CreatedAt.UTC()
	userToUpdate.UpdatedAt = userToUpdate.UpdatedAt.UTC()
	return nil
}

// getOne column подставляется только из констант пакета
func (s *UserStorage) getOne(ctx context.Context, column string, value any) (*user.User, error) {
	start := time.Now()

	query := fmt.Sprintf(`SELECT %s FROM users WHERE %s = $1`, userColumns, column)

	u := &user.User{}
	err := s.pool.QueryRow(ctx, query, value).Scan(
		&u.UUID,
		&u.Name,
		&u.Email,
		&u.PasswordHash,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить пользователя", err, zap.Duration("ms", time.Since(start)))
		return nil, storeError("получение пользователя", err)
	}

	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
	return u, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func storeError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, repo.ErrStoreUnavailable, err)
}
