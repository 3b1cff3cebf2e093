package user

import (
	"context"
	"errors"
	"testing"
	"time"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryRepository_PutGetRemove(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryRepository(nil)

	u := sampleUser("a@x.com", NewDate(1990, time.May, 15))

	exists, err := repo.Contains(ctx, u.Email)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, repo.Put(ctx, u.Email, u))

	exists, err = repo.Contains(ctx, u.Email)
	require.NoError(t, err)
	assert.True(t, exists)

	got, err := repo.Get(ctx, u.Email)
	require.NoError(t, err)
	assert.Equal(t, u, got)

	require.NoError(t, repo.Remove(ctx, u.Email))
	_, err = repo.Get(ctx, u.Email)
	assert.True(t, errors.Is(err, ErrNotFound))

	// removing again is a no-op
	assert.NoError(t, repo.Remove(ctx, u.Email))
}

func TestInMemoryRepository_PutOverwrites(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryRepository([]User{sampleUser("a@x.com", NewDate(1990, time.May, 15))})

	replacement := sampleUser("a@x.com", NewDate(1991, time.January, 1))
	replacement.Address = "1 Main St"
	require.NoError(t, repo.Put(ctx, "a@x.com", replacement))

	got, err := repo.Get(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, replacement, got)
	assert.Equal(t, 1, repo.Len())
}

func TestInMemoryRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryRepository([]User{sampleUser("a@x.com", NewDate(1990, time.May, 15))})

	got, err := repo.Get(ctx, "a@x.com")
	require.NoError(t, err)
	got.FirstName = "mutated"

	again, err := repo.Get(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "John", again.FirstName)
}

func TestInMemoryRepository_Values(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryRepository([]User{
		sampleUser("a@x.com", NewDate(1990, time.May, 15)),
		sampleUser("b@x.com", NewDate(1991, time.June, 16)),
	})

	values, err := repo.Values(ctx)
	require.NoError(t, err)
	require.Len(t, values, 2)

	emails := []string{values[0].Email, values[1].Email}
	assert.ElementsMatch(t, []string{"a@x.com", "b@x.com"}, emails)

	empty, err := NewInMemoryRepository(nil).Values(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestInMemoryRepository_Move(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryRepository([]User{sampleUser("old@x.com", NewDate(1990, time.May, 15))})

	moved := sampleUser("new@x.com", NewDate(1990, time.May, 15))
	require.NoError(t, repo.Move(ctx, "old@x.com", moved))

	_, err := repo.Get(ctx, "old@x.com")
	assert.ErrorIs(t, err, ErrNotFound)
	got, err := repo.Get(ctx, "new@x.com")
	require.NoError(t, err)
	assert.Equal(t, moved, got)
	assert.Equal(t, 1, repo.Len())
}

func TestInMemoryRepository_PutClonesKey(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryRepository(nil)

	// a key backed by a buffer the caller reuses afterwards
	buf := []byte("a@x.com")
	key := unsafe.String(&buf[0], len(buf))
	require.NoError(t, repo.Put(ctx, key, sampleUser("a@x.com", NewDate(1990, time.May, 15))))
	copy(buf, "zz@y.qq")

	exists, err := repo.Contains(ctx, "a@x.com")
	require.NoError(t, err)
	assert.True(t, exists)
}
