package domain

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tabshare/tabshare/internal/infrastructure/validate"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrUnauthorized      = errors.New("unauthorized")
)

type User struct {
	ID           string    `json:"id" bson:"_id"`
	Name         string    `json:"name" bson:"name"`
	Email        string    `json:"email" bson:"email"`
	PasswordHash string    `json:"-" bson:"password_hash"`
	CreatedAt    time.Time `json:"createdAt" bson:"created_at"`
}

type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
}

func NewUser(rawName, rawEmail, passwordHash string) (*User, error) {
	validateName := validate.Compose(
		validate.Required(),
		validate.MinLength(2),
		validate.MaxLength(64),
	)
	if err := validate.Field("name", validateName)(rawName); err != nil {
		return nil, err
	}

	if err := validate.Field("email", validate.Required(), validate.Email())(rawEmail); err != nil {
		return nil, err
	}

	if passwordHash == "" {
		return nil, ErrInvalidInput
	}

	return &User{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(rawName),
		Email:        strings.ToLower(strings.TrimSpace(rawEmail)),
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}, nil
}
