package storage

import (
	"context"
	"errors"

	"github.com/hongminglow/fruit-scanner-be/internal/models"
)

// ErrNotFound indicates a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness conflict.
var ErrAlreadyExists = errors.New("record already exists")

// UserReader is the read side used by request authentication.
type UserReader interface {
	FindByID(ctx context.Context, id int64) (models.User, error)
}

// UserStore captures persistence operations needed by handlers.
type UserStore interface {
	UserReader
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	Close() error
}
