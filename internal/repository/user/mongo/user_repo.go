package mongo

import (
	"context"
	"errors"
	"fmt"
	"taskManager/internal/logger"
	"taskManager/internal/models/user"
	repo "taskManager/internal/repository"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	driver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const collectionName = "users"

type userDocument struct {
	ID           string    `bson:"_id"`
	Name         string    `bson:"name"`
	Email        string    `bson:"email"`
	PasswordHash string    `bson:"password"`
	CreatedAt    time.Time `bson:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt"`
}

func toDocument(u *user.User) userDocument {
	return userDocument{
		ID:           u.UUID.String(),
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func (d userDocument) toUser() (*user.User, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, err
	}
	return &user.User{
		UUID:         id,
		Name:         d.Name,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
	}, nil
}

type UserStorage struct {
	users *driver.Collection
}

func NewUserStorage(db *driver.Database) *UserStorage {
	return &UserStorage{users: db.Collection(collectionName)}
}

// EnsureIndexes уникальность email держит индекс, а не проверка в сервисе
func (s *UserStorage) EnsureIndexes(ctx context.Context) error {
	_, err := s.users.Indexes().CreateOne(ctx, driver.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		logger.Error("Repository: Не удалось создать индекс email", err)
		return storeError("создание индексов", err)
	}
	return nil
}

func (s *UserStorage) Create(ctx context.Context, userToCreate *user.User) error {
	now := time.Now().UTC().Truncate(time.Millisecond)
	userToCreate.CreatedAt = now
	userToCreate.UpdatedAt = now

	if _, err := s.users.InsertOne(ctx, toDocument(userToCreate)); err != nil {
		if driver.IsDuplicateKeyError(err) {
			return repo.ErrDuplicate
		}
		logger.Error("Repository: Не удалось добавить пользователя", err)
		return storeError("добавление пользователя", err)
	}
	return nil
}

func (s *UserStorage) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	return s.findOne(ctx, bson.M{"_id": id.String()})
}

func (s *UserStorage) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return s.findOne(ctx, bson.M{"email": email})
}

func (s *UserStorage) Update(ctx context.Context, userToUpdate *user.User) error {
	userToUpdate.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)

	update := bson.M{"$set": bson.M{
		"name":      userToUpdate.Name,
		"email":     userToUpdate.Email,
		"password":  userToUpdate.PasswordHash,
		"updatedAt": userToUpdate.UpdatedAt,
	}}

	res, err := s.users.UpdateOne(ctx, bson.M{"_id": userToUpdate.UUID.String()}, update)
	if err != nil {
		if driver.IsDuplicateKeyError(err) {
			return repo.ErrDuplicate
		}
		logger.Error("Repository: Не удалось обновить пользователя", err, zap.String("user_id", userToUpdate.UUID.String()))
		return storeError("обновление пользователя", err)
	}

	if res.MatchedCount == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (s *UserStorage) findOne(ctx context.Context, filter bson.M) (*user.User, error) {
	var doc userDocument
	if err := s.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, driver.ErrNoDocuments) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить пользователя", err)
		return nil, storeError("получение пользователя", err)
	}

	found, err := doc.toUser()
	if err != nil {
		return nil, storeError("разбор пользователя", err)
	}
	return found, nil
}

func storeError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, repo.ErrStoreUnavailable, err)
}
