package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/bizdesk/bizdesk/internal/platform/httpx"
	"github.com/bizdesk/bizdesk/internal/shared"
)

// Service wraps authentication business rules.
type Service struct {
	repo   Repository
	tokens *TokenIssuer
	cost   int
}

// NewService constructs a new Service.
func NewService(repo Repository, tokens *TokenIssuer) *Service {
	return &Service{repo: repo, tokens: tokens, cost: bcrypt.DefaultCost}
}

// Authenticate validates email/password credentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return user, nil
}

// Login authenticates the credentials and issues a bearer token.
func (s *Service) Login(ctx context.Context, req LoginRequest) (LoginResponse, error) {
	user, err := s.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return LoginResponse{}, err
	}
	caller := user.Caller()
	token, expiresAt, err := s.tokens.Issue(caller)
	if err != nil {
		return LoginResponse{}, err
	}
	return LoginResponse{Token: token, ExpiresAt: expiresAt, User: caller}, nil
}

// Resolve maps a bearer token to its caller.
func (s *Service) Resolve(token string) (shared.Caller, error) {
	return s.tokens.Parse(token)
}

// CreateUser provisions an account with a bcrypt password hash.
func (s *Service) CreateUser(ctx context.Context, input NewUserInput) (*User, error) {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.Name = strings.TrimSpace(input.Name)
	if input.Role == "" {
		input.Role = shared.RoleSeller
	}
	switch {
	case input.Email == "" || !strings.Contains(input.Email, "@"):
		return nil, fmt.Errorf("%w: email is invalid", httpx.ErrValidation)
	case input.Name == "":
		return nil, fmt.Errorf("%w: name is required", httpx.ErrValidation)
	case len(input.Password) < 8:
		return nil, fmt.Errorf("%w: password must have at least 8 characters", httpx.ErrValidation)
	case input.Role != shared.RoleAdmin && input.Role != shared.RoleSeller:
		return nil, fmt.Errorf("%w: role must be admin or seller", httpx.ErrValidation)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := User{
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: string(hash),
		Role:         input.Role,
		IsActive:     true,
	}
	id, err := s.repo.CreateUser(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	user.ID = id
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	return &user, nil
}
