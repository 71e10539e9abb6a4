package directory

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lzhoang/userbase-be/internal/models"
	"github.com/lzhoang/userbase-be/internal/password"
	"github.com/lzhoang/userbase-be/internal/storage/jsonfile"
)

func newTestDirectory(t *testing.T) *Directory {
	t.Helper()
	store := jsonfile.New(filepath.Join(t.TempDir(), "users.json"))
	return New(store, password.NewHasher(4))
}

func TestCreateHashesPassword(t *testing.T) {
	ctx := context.Background()
	d := newTestDirectory(t)

	user, err := d.Create(ctx, "Ann", "ann@x.com", "secret1")
	require.NoError(t, err)
	require.NotEmpty(t, user.ID)
	require.Equal(t, models.RoleUser, user.Role)
	require.Equal(t, user.CreatedAt, user.UpdatedAt)

	stored, err := d.FindByEmailWithSecret(ctx, "ann@x.com")
	require.NoError(t, err)
	require.NotEmpty(t, stored.PasswordHash)
	require.NotEqual(t, "secret1", stored.PasswordHash)
	require.True(t, d.hasher.Verify("secret1", stored.PasswordHash))
}

func TestCreateValidation(t *testing.T) {
	ctx := context.Background()
	d := newTestDirectory(t)

	var vErr *ValidationError

	_, err := d.Create(ctx, "", "a@x.com", "secret1")
	require.ErrorAs(t, err, &vErr)

	_, err = d.Create(ctx, "Ann", "", "secret1")
	require.ErrorAs(t, err, &vErr)

	_, err = d.Create(ctx, "Ann", "a@x.com", "short")
	require.ErrorAs(t, err, &vErr)
}

func TestCreateDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	d := newTestDirectory(t)

	_, err := d.Create(ctx, "Ann", "ann@x.com", "secret1")
	require.NoError(t, err)

	_, err = d.Create(ctx, "Other Ann", "ann@x.com", "secret2")
	require.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestConcurrentCreateSameEmail(t *testing.T) {
	ctx := context.Background()
	d := newTestDirectory(t)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = d.Create(ctx, "Ann", "a@x.com", "secret1")
		}(i)
	}
	wg.Wait()

	var created, duplicates int
	for _, err := range errs {
		switch {
		case err == nil:
			created++
		case errors.Is(err, ErrDuplicateEmail):
			duplicates++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	require.Equal(t, 1, created)
	require.Equal(t, 1, duplicates)
}

func TestPublicViewsNeverCarryPasswordField(t *testing.T) {
	ctx := context.Background()
	d := newTestDirectory(t)

	created, err := d.Create(ctx, "Ann", "ann@x.com", "secret1")
	require.NoError(t, err)

	byID, err := d.FindByID(ctx, created.ID)
	require.NoError(t, err)

	all, err := d.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)

	updated, err := d.Update(ctx, created.ID, Update{Name: "Ann B"})
	require.NoError(t, err)

	for _, view := range []models.PublicUser{created, byID, all[0], updated} {
		data, err := json.Marshal(view)
		require.NoError(t, err)
		var fields map[string]any
		require.NoError(t, json.Unmarshal(data, &fields))
		require.NotContains(t, fields, "password")
		require.NotContains(t, fields, "passwordHash")
	}
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	d := newTestDirectory(t)

	created, err := d.Create(ctx, "Ann", "ann@x.com", "secret1")
	require.NoError(t, err)

	user, err := d.Authenticate(ctx, "ann@x.com", "secret1")
	require.NoError(t, err)
	require.Equal(t, created.ID, user.ID)

	// Unknown email and wrong password are indistinguishable.
	_, err = d.Authenticate(ctx, "nobody@x.com", "secret1")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = d.Authenticate(ctx, "ann@x.com", "wrongpass")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestUpdatePartialMerge(t *testing.T) {
	ctx := context.Background()
	d := newTestDirectory(t)

	created, err := d.Create(ctx, "Ann", "ann@x.com", "secret1")
	require.NoError(t, err)

	updated, err := d.Update(ctx, created.ID, Update{Name: "Ann B"})
	require.NoError(t, err)
	require.Equal(t, "Ann B", updated.Name)
	require.Equal(t, "ann@x.com", updated.Email)
	require.Equal(t, models.RoleUser, updated.Role)

	_, err = d.Update(ctx, created.ID, Update{Role: "superuser"})
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)

	promoted, err := d.Update(ctx, created.ID, Update{Role: models.RoleAdmin})
	require.NoError(t, err)
	require.Equal(t, models.RoleAdmin, promoted.Role)

	_, err = d.Update(ctx, "missing-id", Update{Name: "x"})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateRehashesPassword(t *testing.T) {
	ctx := context.Background()
	d := newTestDirectory(t)

	created, err := d.Create(ctx, "Ann", "ann@x.com", "secret1")
	require.NoError(t, err)

	_, err = d.Update(ctx, created.ID, Update{Password: "newpass123"})
	require.NoError(t, err)

	stored, err := d.FindByEmailWithSecret(ctx, "ann@x.com")
	require.NoError(t, err)
	require.False(t, d.hasher.Verify("secret1", stored.PasswordHash))
	require.True(t, d.hasher.Verify("newpass123", stored.PasswordHash))
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	d := newTestDirectory(t)

	created, err := d.Create(ctx, "Ann", "ann@x.com", "secret1")
	require.NoError(t, err)

	err = d.ChangePassword(ctx, created.ID, "wrong", "newpass123", true)
	require.ErrorIs(t, err, ErrWrongPassword)

	var vErr *ValidationError
	err = d.ChangePassword(ctx, created.ID, "secret1", "short", true)
	require.ErrorAs(t, err, &vErr)

	require.NoError(t, d.ChangePassword(ctx, created.ID, "secret1", "newpass123", true))

	_, err = d.Authenticate(ctx, "ann@x.com", "newpass123")
	require.NoError(t, err)

	// Admin path skips the current-password check.
	require.NoError(t, d.ChangePassword(ctx, created.ID, "", "adminset1", false))
	_, err = d.Authenticate(ctx, "ann@x.com", "adminset1")
	require.NoError(t, err)

	err = d.ChangePassword(ctx, "missing-id", "x", "newpass123", true)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	d := newTestDirectory(t)

	created, err := d.Create(ctx, "Ann", "ann@x.com", "secret1")
	require.NoError(t, err)

	require.NoError(t, d.Delete(ctx, created.ID))
	require.ErrorIs(t, d.Delete(ctx, created.ID), ErrNotFound)

	_, err = d.FindByID(ctx, created.ID)
	require.ErrorIs(t, err, ErrNotFound)
}
