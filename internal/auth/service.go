package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/vovakirdan/bookstore-server/internal/store"
)

var (
	// ErrInvalidCredentials is returned when email/password don't match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserExists is returned when trying to register with an existing email.
	ErrUserExists = errors.New("email already exists")
	// ErrInvalidInput is returned when registration fields don't meet constraints.
	ErrInvalidInput = errors.New("invalid registration input")
)

var validate = validator.New()

// RegisterInput carries the fields needed to open an account.
type RegisterInput struct {
	FirstName string `validate:"required,max=64"`
	LastName  string `validate:"required,max=64"`
	Email     string `validate:"required,email"`
	Password  string `validate:"required,min=6,max=72"`
}

// Service provides authentication operations.
type Service struct {
	store     store.UserStore
	jwtConfig *JWTConfig
}

// NewService creates a new authentication service.
func NewService(userStore store.UserStore, jwtConfig *JWTConfig) *Service {
	return &Service{
		store:     userStore,
		jwtConfig: jwtConfig,
	}
}

// Register creates a new customer with a hashed password and returns a JWT token.
func (s *Service) Register(ctx context.Context, in RegisterInput) (string, *store.User, error) {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = normalizeEmail(in.Email)

	if err := validate.Struct(in); err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	hashedPassword, err := HashPassword(in.Password)
	if err != nil {
		return "", nil, err
	}

	user, err := s.store.CreateUser(ctx, store.NewUser{
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
		PasswordHash: hashedPassword,
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return "", nil, ErrUserExists
		}
		return "", nil, fmt.Errorf("create user: %w", err)
	}

	token, err := s.IssueToken(user)
	if err != nil {
		return "", nil, err
	}

	return token, user, nil
}

// Login validates credentials and returns a JWT token.
func (s *Service) Login(ctx context.Context, email, password string) (string, *store.User, error) {
	user, err := s.store.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("lookup user: %w", err)
	}

	if errPwd := ComparePassword(user.PasswordHash, password); errPwd != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.IssueToken(user)
	if err != nil {
		return "", nil, err
	}

	return token, user, nil
}

// IssueToken signs a token for an existing user.
func (s *Service) IssueToken(user *store.User) (string, error) {
	token, err := GenerateToken(s.jwtConfig, user.ID, string(user.Role))
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return token, nil
}

// ValidateToken validates a JWT token and returns the claims.
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	return ValidateToken(s.jwtConfig, tokenString)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
