package user

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"storefront/internal/domain"
	userrepo "storefront/internal/repository/user"
)

const minPasswordLen = 6

type Service struct {
	repo   userrepo.Repository
	cost   int
	logger *log.Logger
}

func New(repo userrepo.Repository, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{repo: repo, cost: bcrypt.DefaultCost, logger: logger}
}

// Register creates a user account with role user. The returned user never
// carries the password.
func (s *Service) Register(ctx context.Context, u domain.User) (*domain.User, error) {
	u.Role = domain.RoleUser
	return s.create(ctx, u)
}

// EnsureAdmin creates the admin account unless one with the email exists.
func (s *Service) EnsureAdmin(ctx context.Context, u domain.User) (*domain.User, error) {
	u.Role = domain.RoleAdmin
	created, err := s.create(ctx, u)
	if errors.Is(err, domain.ErrAlreadyExists) {
		existing, lerr := s.repo.ListByEmail(ctx, domain.NormalizeEmail(u.Email))
		if lerr != nil {
			return nil, lerr
		}
		if len(existing) > 0 {
			out := existing[0].User
			return &out, nil
		}
	}
	return created, err
}

func (s *Service) create(ctx context.Context, u domain.User) (*domain.User, error) {
	u.Email = domain.NormalizeEmail(u.Email)
	u.FullName = strings.TrimSpace(u.FullName)
	if u.Email == "" || !strings.Contains(u.Email, "@") {
		return nil, domain.Validationf("a valid email is required")
	}
	if u.FullName == "" {
		return nil, domain.Validationf("full name is required")
	}
	if len(u.Password) < minPasswordLen {
		return nil, domain.Validationf("password must be at least %d characters", minPasswordLen)
	}

	existing, err := s.repo.ListByEmail(ctx, u.Email)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, domain.ErrAlreadyExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), s.cost)
	if err != nil {
		return nil, err
	}
	u.Password = ""
	rec, err := s.repo.Create(ctx, userrepo.Record{User: u, PasswordHash: string(hash)})
	if err != nil {
		return nil, err
	}
	s.logger.Printf("user service: created id=%s role=%s", rec.ID, rec.Role)
	out := rec.User
	return &out, nil
}

// Match returns the users whose email equals email and whose password
// matches. An empty password matches nothing.
func (s *Service) Match(ctx context.Context, email, password string) ([]domain.User, error) {
	recs, err := s.repo.ListByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	out := make([]domain.User, 0, 1)
	if password == "" {
		return out, nil
	}
	for _, rec := range recs {
		if bcrypt.CompareHashAndPassword([]byte(rec.PasswordHash), []byte(password)) == nil {
			out = append(out, rec.User)
		}
	}
	return out, nil
}

// ByEmail returns the users registered with email.
func (s *Service) ByEmail(ctx context.Context, email string) ([]domain.User, error) {
	recs, err := s.repo.ListByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	return users(recs), nil
}

func (s *Service) List(ctx context.Context) ([]domain.User, error) {
	recs, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return users(recs), nil
}

func users(recs []userrepo.Record) []domain.User {
	out := make([]domain.User, 0, len(recs))
	for _, rec := range recs {
		u := rec.User
		u.Password = ""
		out = append(out, u)
	}
	return out
}
