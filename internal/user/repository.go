package user

import (
	"context"
	"errors"
	"strings"

	"github.com/puzpuzpuz/xsync/v3"
)

var (
	ErrNotFound        = errors.New("user not found")
	ErrAlreadyExists   = errors.New("user already exists")
	ErrInvalidArgument = errors.New("invalid argument")
)

// Repository holds user records keyed by email. It only enforces key
// existence; business rules belong to Service.
type Repository interface {
	Contains(ctx context.Context, email string) (bool, error)
	Put(ctx context.Context, email string, user User) error
	Get(ctx context.Context, email string) (User, error)
	Remove(ctx context.Context, email string) error
	// Move stores user under user.Email and removes the record under from,
	// as one change.
	Move(ctx context.Context, from string, user User) error
	Values(ctx context.Context) ([]User, error)
}

type InMemoryRepository struct {
	users *xsync.MapOf[string, User]
}

var _ Repository = (*InMemoryRepository)(nil)

func NewInMemoryRepository(seed []User) *InMemoryRepository {
	repo := &InMemoryRepository{
		users: xsync.NewMapOf[string, User](),
	}

	for _, user := range seed {
		repo.users.Store(strings.Clone(user.Email), user)
	}

	return repo
}

func (r *InMemoryRepository) Contains(_ context.Context, email string) (bool, error) {
	_, ok := r.users.Load(email)
	return ok, nil
}

// Put clones email so the key never aliases a caller's buffer.
func (r *InMemoryRepository) Put(_ context.Context, email string, user User) error {
	r.users.Store(strings.Clone(email), user)
	return nil
}

func (r *InMemoryRepository) Get(_ context.Context, email string) (User, error) {
	user, ok := r.users.Load(email)
	if !ok {
		return User{}, ErrNotFound
	}
	return user, nil
}

func (r *InMemoryRepository) Remove(_ context.Context, email string) error {
	r.users.Delete(email)
	return nil
}

func (r *InMemoryRepository) Move(_ context.Context, from string, user User) error {
	r.users.Store(strings.Clone(user.Email), user)
	if from != user.Email {
		r.users.Delete(from)
	}
	return nil
}

func (r *InMemoryRepository) Values(_ context.Context) ([]User, error) {
	users := make([]User, 0, r.users.Size())
	r.users.Range(func(_ string, user User) bool {
		users = append(users, user)
		return true
	})
	return users, nil
}

func (r *InMemoryRepository) Len() int {
	return r.users.Size()
}
