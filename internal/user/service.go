package user

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Service applies the business rules on top of a Repository. Mutating
// operations are serialized so check-then-write sequences stay atomic when
// requests arrive concurrently.
type Service struct {
	repo   Repository
	minAge int
	logger zerolog.Logger
	now    func() time.Time

	mu sync.Mutex
}

func NewService(repo Repository, minAge int, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		minAge: minAge,
		logger: logger.With().Str("component", "user.service").Logger(),
		now:    time.Now,
	}
}

func (s *Service) MinAge() int {
	return s.minAge
}

func (s *Service) Create(ctx context.Context, user User) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	exists, err := s.repo.Contains(ctx, user.Email)
	if err != nil {
		return User{}, err
	}
	if exists {
		return User{}, fmt.Errorf("%w: user with email %s already exists", ErrAlreadyExists, user.Email)
	}

	if age := s.ageOf(user.BirthDate); age < s.minAge {
		return User{}, fmt.Errorf("%w: user must be at least %d years old", ErrInvalidArgument, s.minAge)
	}

	if err := s.repo.Put(ctx, user.Email, user); err != nil {
		return User{}, err
	}

	s.logger.Debug().Str("email", user.Email).Msg("user stored")
	return user, nil
}

// Update replaces the record stored under email with user. When user carries
// a different email the record is moved to that key, provided no other record
// owns it.
func (s *Service) Update(ctx context.Context, email string, user User) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	exists, err := s.repo.Contains(ctx, email)
	if err != nil {
		return User{}, err
	}
	if !exists {
		return User{}, fmt.Errorf("%w: no user with email %s", ErrNotFound, email)
	}

	if user.Email != email {
		taken, err := s.repo.Contains(ctx, user.Email)
		if err != nil {
			return User{}, err
		}
		if taken {
			return User{}, fmt.Errorf("%w: user with email %s already exists", ErrAlreadyExists, user.Email)
		}
		if err := s.repo.Move(ctx, email, user); err != nil {
			return User{}, err
		}
		s.logger.Debug().Str("from", email).Str("to", user.Email).Msg("user re-keyed")
		return user, nil
	}

	// user.Email equals email and is owned by the decoded body
	if err := s.repo.Put(ctx, user.Email, user); err != nil {
		return User{}, err
	}
	return user, nil
}

func (s *Service) Delete(ctx context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	exists, err := s.repo.Contains(ctx, email)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: no user with email %s", ErrNotFound, email)
	}

	return s.repo.Remove(ctx, email)
}

func (s *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	user, err := s.repo.Get(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, fmt.Errorf("%w: no user with email %s", ErrNotFound, email)
		}
		return User{}, err
	}
	return user, nil
}

// FindByBirthDateRange returns the users born between from and to, both
// inclusive, ordered by birth date and then email.
func (s *Service) FindByBirthDateRange(ctx context.Context, from, to Date) ([]User, error) {
	if from.After(to) {
		return nil, fmt.Errorf("%w: from date %s must not be after to date %s", ErrInvalidArgument, from, to)
	}

	all, err := s.repo.Values(ctx)
	if err != nil {
		return nil, err
	}

	matched := make([]User, 0)
	for _, user := range all {
		if user.BirthDate.Before(from) || user.BirthDate.After(to) {
			continue
		}
		matched = append(matched, user)
	}

	sort.Slice(matched, func(i, j int) bool {
		if c := matched[i].BirthDate.Compare(matched[j].BirthDate); c != 0 {
			return c < 0
		}
		return matched[i].Email < matched[j].Email
	})

	return matched, nil
}

// ageOf counts whole calendar years between the birth year and the current
// year; month and day are ignored.
func (s *Service) ageOf(birthDate Date) int {
	return s.now().Year() - birthDate.Year
}
