package auth

import "errors"

var (
	ErrInvalidToken = errors.New("невалидный токен")
	ErrExpiredToken = errors.New("срок действия токена истёк")
	ErrMissingToken = errors.New("токен не передан")

	ErrPasswordMismatch = errors.New("пароль не совпадает")
)
