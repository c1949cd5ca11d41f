package auth

import (
	"context"
	"errors"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/kreasi-nusantara/compro/internal/shared"
)

// Service wraps authentication business rules.
type Service struct {
	repo Repository

	dummyOnce sync.Once
	dummyHash []byte
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Authenticate verifies username and password and resolves the employee's
// roles. Each failure wraps shared.ErrInvalidCredentials with a distinct
// subtype: ErrUserNotFound, ErrBadCredentials, ErrNotAnEmployee or ErrNoRoleAssigned.
func (s *Service) Authenticate(ctx context.Context, username, password string) (Identity, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		v := &shared.ValidationError{}
		if strings.TrimSpace(username) == "" {
			v.Add("username", "wajib diisi")
		}
		if password == "" {
			v.Add("password", "wajib diisi")
		}
		return Identity{}, v
	}

	cred, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			// Spend the same bcrypt work as a real comparison.
			_ = bcrypt.CompareHashAndPassword(s.dummy(), []byte(password))
			return Identity{}, shared.ErrUserNotFound
		}
		return Identity{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)); err != nil {
		return Identity{}, shared.ErrBadCredentials
	}
	return s.identity(ctx, cred)
}

// Identity resolves the identity of an already signed-in user.
func (s *Service) Identity(ctx context.Context, userID int64) (Identity, error) {
	cred, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return Identity{}, shared.ErrUserNotFound
		}
		return Identity{}, err
	}
	return s.identity(ctx, cred)
}

func (s *Service) identity(ctx context.Context, cred Credential) (Identity, error) {
	roles, err := s.repo.EmployeeRoles(ctx, cred.UserID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return Identity{}, shared.ErrNotAnEmployee
		}
		return Identity{}, err
	}
	if len(roles) == 0 {
		return Identity{}, shared.ErrNoRoleAssigned
	}
	return Identity{
		User:        PublicUser{ID: cred.UserID, Username: cred.Username, CreatedAt: cred.CreatedAt},
		Roles:       roles,
		PrimaryRole: roles[0],
	}, nil
}

func (s *Service) dummy() []byte {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("compro-dummy-password"), bcrypt.DefaultCost)
	})
	return s.dummyHash
}
