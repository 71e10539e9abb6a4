// Package directory implements user domain operations on top of a store and a
// password hasher: creation with uniqueness, lookups, partial updates, delete,
// credential checks. Everything it returns to callers is the public view of a
// record; password hashes stay inside.
package directory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lzhoang/userbase-be/internal/models"
	"github.com/lzhoang/userbase-be/internal/password"
	"github.com/lzhoang/userbase-be/internal/storage"
)

// MinPasswordLength applies to registration and password changes.
const MinPasswordLength = 6

// ErrDuplicateEmail indicates a create with an email that is already taken.
var ErrDuplicateEmail = errors.New("user with this email already exists")

// ErrNotFound indicates the target user does not exist.
var ErrNotFound = errors.New("user not found")

// ErrInvalidCredentials covers both unknown email and wrong password, so
// callers cannot tell which one failed.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrWrongPassword indicates a password change with an incorrect current
// password.
var ErrWrongPassword = errors.New("current password is incorrect")

// ValidationError marks user-correctable input problems.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

func invalid(format string, args ...any) error {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

// Update carries the optional fields of a profile update. Blank fields are
// left unchanged. A non-blank Password is re-hashed before it is stored.
type Update struct {
	Name     string
	Email    string
	Role     string
	Password string
}

// Directory exposes user operations backed by a store and hasher.
type Directory struct {
	store  storage.UserStore
	hasher password.Hasher
}

// New constructs a directory.
func New(store storage.UserStore, hasher password.Hasher) *Directory {
	return &Directory{store: store, hasher: hasher}
}

// Create registers a new user with the default role. The store enforces email
// uniqueness atomically with the write.
func (d *Directory) Create(ctx context.Context, name, email, plaintext string) (models.PublicUser, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" || plaintext == "" {
		return models.PublicUser{}, invalid("please provide name, email, and password")
	}
	if len(plaintext) < MinPasswordLength {
		return models.PublicUser{}, invalid("password must be at least %d characters", MinPasswordLength)
	}

	hash, err := d.hasher.Hash(plaintext)
	if err != nil {
		return models.PublicUser{}, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := models.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	created, err := d.store.CreateUser(ctx, user)
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return models.PublicUser{}, ErrDuplicateEmail
		}
		return models.PublicUser{}, err
	}
	return created.Public(), nil
}

// FindByID returns the public view of a user.
func (d *Directory) FindByID(ctx context.Context, id string) (models.PublicUser, error) {
	user, err := d.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.PublicUser{}, ErrNotFound
		}
		return models.PublicUser{}, err
	}
	return user.Public(), nil
}

// FindByEmailWithSecret returns the full record including the password hash.
// It exists only so credentials can be verified during login and password
// changes; the hash must not travel past the directory boundary.
func (d *Directory) FindByEmailWithSecret(ctx context.Context, email string) (models.User, error) {
	user, err := d.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

// FindAll returns the public view of every user.
func (d *Directory) FindAll(ctx context.Context) ([]models.PublicUser, error) {
	users, err := d.store.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	public := make([]models.PublicUser, 0, len(users))
	for _, user := range users {
		public = append(public, user.Public())
	}
	return public, nil
}

// Authenticate verifies an email/password pair and returns the matching user.
// Unknown email and wrong password both yield ErrInvalidCredentials.
func (d *Directory) Authenticate(ctx context.Context, email, plaintext string) (models.PublicUser, error) {
	user, err := d.FindByEmailWithSecret(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return models.PublicUser{}, ErrInvalidCredentials
		}
		return models.PublicUser{}, err
	}
	if !d.hasher.Verify(plaintext, user.PasswordHash) {
		return models.PublicUser{}, ErrInvalidCredentials
	}
	return user.Public(), nil
}

// Update merges the provided fields into the user's record. An unknown id is
// ErrNotFound, a lookup miss rather than a fault.
func (d *Directory) Update(ctx context.Context, id string, upd Update) (models.PublicUser, error) {
	if upd.Role != "" && !models.ValidRole(upd.Role) {
		return models.PublicUser{}, invalid("role must be %q or %q", models.RoleUser, models.RoleAdmin)
	}

	change := storage.UserUpdate{
		Name:  strings.TrimSpace(upd.Name),
		Email: strings.TrimSpace(upd.Email),
		Role:  upd.Role,
	}
	if upd.Password != "" {
		if len(upd.Password) < MinPasswordLength {
			return models.PublicUser{}, invalid("password must be at least %d characters", MinPasswordLength)
		}
		hash, err := d.hasher.Hash(upd.Password)
		if err != nil {
			return models.PublicUser{}, fmt.Errorf("hash password: %w", err)
		}
		change.PasswordHash = hash
	}

	user, err := d.store.UpdateUser(ctx, id, change)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.PublicUser{}, ErrNotFound
		}
		return models.PublicUser{}, err
	}
	return user.Public(), nil
}

// Delete removes a user. An unknown id is ErrNotFound.
func (d *Directory) Delete(ctx context.Context, id string) error {
	if err := d.store.DeleteUser(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// ChangePassword replaces the user's password. When requireCurrent is set the
// stored hash must verify against current first; admins skip that check.
func (d *Directory) ChangePassword(ctx context.Context, id, current, newPassword string, requireCurrent bool) error {
	if len(newPassword) < MinPasswordLength {
		return invalid("new password must be at least %d characters", MinPasswordLength)
	}

	user, err := d.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	if requireCurrent && !d.hasher.Verify(current, user.PasswordHash) {
		return ErrWrongPassword
	}

	hash, err := d.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if _, err := d.store.UpdateUser(ctx, id, storage.UserUpdate{PasswordHash: hash}); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}
