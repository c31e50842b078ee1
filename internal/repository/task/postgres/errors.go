package postgres

import (
	"errors"
	"fmt"
	repo "taskManager/internal/repository"

	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// storeError помечает ошибку драйвера как недоступность хранилища
func storeError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, repo.ErrStoreUnavailable, err)
}
