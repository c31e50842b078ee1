package service

import (
	"context"
	"errors"
	"fmt"
	"taskManager/internal/auth"
	"taskManager/internal/logger"
	"taskManager/internal/models/user"
	"taskManager/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AuthService struct {
	users  UserRepository
	hasher PasswordHasher
	tokens TokenIssuer
}

func NewAuthService(users UserRepository, hasher PasswordHasher, tokens TokenIssuer) AuthService {
	return AuthService{
		users:  users,
		hasher: hasher,
		tokens: tokens,
	}
}

func (s *AuthService) Register(ctx context.Context, name, email, password string) (*user.User, string, error) {
	_, err := s.users.GetByEmail(ctx, user.NormalizeEmail(email))
	if err == nil {
		return nil, "", emailTaken()
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, "", fmt.Errorf("поиск пользователя: %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, "", err
	}

	newUser := user.New(name, email, hash)
	if err := s.users.Create(ctx, newUser); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, "", emailTaken()
		}
		return nil, "", fmt.Errorf("создание пользователя: %w", err)
	}

	token, err := s.tokens.Generate(newUser.UUID)
	if err != nil {
		return nil, "", err
	}

	logger.Info("Service: Пользователь зарегистрирован", zap.String("user_id", newUser.UUID.String()))
	return newUser, token, nil
}

// Login не различает неизвестный email и неверный пароль
func (s *AuthService) Login(ctx context.Context, email, password string) (*user.User, string, error) {
	found, err := s.users.GetByEmail(ctx, user.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", invalidCredentials()
		}
		return nil, "", fmt.Errorf("поиск пользователя: %w", err)
	}

	if err := s.hasher.Compare(found.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			logger.Warn("Service: Неверный пароль", zap.String("user_id", found.UUID.String()))
			return nil, "", invalidCredentials()
		}
		return nil, "", err
	}

	token, err := s.tokens.Generate(found.UUID)
	if err != nil {
		return nil, "", err
	}
	return found, token, nil
}

func (s *AuthService) GetUser(ctx context.Context, id uuid.UUID) (*user.User, error) {
	found, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, userError("получение пользователя", err)
	}
	return found, nil
}

func (s *AuthService) UpdateProfile(ctx context.Context, id uuid.UUID, name, email string) (*user.User, error) {
	found, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, userError("получение пользователя", err)
	}

	normalized := user.NormalizeEmail(email)
	if normalized != "" && normalized != found.Email {
		other, err := s.users.GetByEmail(ctx, normalized)
		switch {
		case err == nil && other.UUID != found.UUID:
			return nil, emailTaken()
		case err != nil && !errors.Is(err, repository.ErrNotFound):
			return nil, fmt.Errorf("поиск пользователя: %w", err)
		}
	}

	found.Apply(user.WithName(name), user.WithEmail(email))

	if err := s.users.Update(ctx, found); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, emailTaken()
		}
		return nil, userError("обновление пользователя", err)
	}
	return found, nil
}

func (s *AuthService) ChangePassword(ctx context.Context, id uuid.UUID, current, next string) error {
	found, err := s.users.GetByID(ctx, id)
	if err != nil {
		return userError("получение пользователя", err)
	}

	if err := s.hasher.Compare(found.PasswordHash, current); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return NewBusinessError(CodeInvalidCredentials, "Current password is incorrect")
		}
		return err
	}

	hash, err := s.hasher.Hash(next)
	if err != nil {
		return err
	}

	found.Apply(user.WithPasswordHash(hash))
	if err := s.users.Update(ctx, found); err != nil {
		return userError("обновление пароля", err)
	}

	logger.Info("Service: Пароль изменён", zap.String("user_id", id.String()))
	return nil
}

func userError(op string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return NewNotFound(ResourceUser)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func emailTaken() *BusinessError {
	return NewBusinessError(CodeEmailTaken, "User already exists", ToDetail("field", "email"))
}

func invalidCredentials() *BusinessError {
	return NewBusinessError(CodeInvalidCredentials, "Invalid credentials")
}
