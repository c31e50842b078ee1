package repository

import "errors"

var (
	// запись не найдена или принадлежит другому пользователю
	ErrNotFound = errors.New("запись не найдена")

	// нарушение уникальности (email пользователя)
	ErrDuplicate = errors.New("запись уже существует")

	// хранилище недоступно: сеть, пул, таймаут драйвера
	ErrStoreUnavailable = errors.New("хранилище недоступно")
)
