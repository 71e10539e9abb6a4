package storage

import (
	"context"
	"errors"

	"github.com/lzhoang/userbase-be/internal/models"
)

// ErrNotFound indicates a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness conflict.
var ErrAlreadyExists = errors.New("record already exists")

// ErrUnavailable indicates the backing medium cannot be read or written.
// Callers must not treat it as an empty store.
var ErrUnavailable = errors.New("store unavailable")

// UserUpdate carries the fields of a partial update. Blank fields keep the
// stored value.
type UserUpdate struct {
	Name         string
	Email        string
	Role         string
	PasswordHash string
}

// UserStore captures persistence operations needed by the directory.
// Implementations must apply each mutation atomically: at most one mutating
// operation is in flight at any instant, and the duplicate-email check in
// CreateUser happens inside the same critical section as the write.
type UserStore interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	UpdateUser(ctx context.Context, id string, update UserUpdate) (models.User, error)
	DeleteUser(ctx context.Context, id string) error
}
