// Package service holds the auth flow; handlers only translate its errors.
package service

import (
	"context"
	"errors"
	"strings"

	"github.com/iliyamo/portfolio-api/internal/logging"
	"github.com/iliyamo/portfolio-api/internal/model"
	"github.com/iliyamo/portfolio-api/internal/repository"
	"github.com/iliyamo/portfolio-api/internal/utils"
)

var (
	// ErrConflict means the username is already registered.
	ErrConflict = errors.New("username already exists")
	// ErrInvalidCredentials is returned for an unknown user and a wrong
	// password alike so callers cannot probe which usernames exist.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrRegistrationDisabled is returned once registration is switched off.
	ErrRegistrationDisabled = errors.New("registration is disabled")
)

// ValidationError lists every missing or malformed input field.
type ValidationError struct {
	Fields []model.FieldError
}

func (e *ValidationError) Error() string {
	names := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		names[i] = f.Field
	}
	return "invalid input: " + strings.Join(names, ", ")
}

// Session is what a successful login hands back to the client.
type Session struct {
	Username string
	Token    utils.AccessToken
}

type AuthService struct {
	users               repository.UserStore
	tokens              *utils.TokenService
	bcryptCost          int
	registrationEnabled bool
	log                 logging.Logger
}

type AuthOptions struct {
	BcryptCost          int
	RegistrationEnabled bool
}

func NewAuthService(users repository.UserStore, tokens *utils.TokenService, opts AuthOptions, log logging.Logger) *AuthService {
	return &AuthService{
		users:               users,
		tokens:              tokens,
		bcryptCost:          opts.BcryptCost,
		registrationEnabled: opts.RegistrationEnabled,
		log:                 log,
	}
}

// maxPasswordBytes is the longest input bcrypt accepts.
const maxPasswordBytes = 72

func credentialErrors(username, password string) error {
	var fields []model.FieldError
	if strings.TrimSpace(username) == "" {
		fields = append(fields, model.FieldError{Field: "username", Message: "username is required"})
	}
	switch {
	case password == "":
		fields = append(fields, model.FieldError{Field: "password", Message: "password is required"})
	case len(password) > maxPasswordBytes:
		fields = append(fields, model.FieldError{Field: "password", Message: "password must be at most 72 bytes"})
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// Register hashes password and stores a new credential. The lookup before
// insert gives the common case a clean error; the store's unique index
// settles concurrent registrations.
func (s *AuthService) Register(ctx context.Context, username, password string) error {
	if !s.registrationEnabled {
		return ErrRegistrationDisabled
	}
	if err := credentialErrors(username, password); err != nil {
		return err
	}
	username = strings.TrimSpace(username)

	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return ErrConflict
	} else if !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	hash, err := utils.HashPassword(password, s.bcryptCost)
	if err != nil {
		return err
	}
	if err := s.users.Create(ctx, &model.User{Username: username, PasswordHash: hash}); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return ErrConflict
		}
		return err
	}
	s.log.Info(ctx, "user registered", "username", username)
	return nil
}

// Login checks the password and issues a token whose subject is the username.
func (s *AuthService) Login(ctx context.Context, username, password string) (Session, error) {
	if err := credentialErrors(username, password); err != nil {
		return Session{}, err
	}
	username = strings.TrimSpace(username)

	u, err := s.users.GetByUsername(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, err
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		s.log.Warn(ctx, "login rejected", "username", username)
		return Session{}, ErrInvalidCredentials
	}

	tok, err := s.tokens.Issue(u.Username)
	if err != nil {
		return Session{}, err
	}
	return Session{Username: u.Username, Token: tok}, nil
}

// CheckAdminAccount logs whether the single admin account exists and whether
// registration should still be open. It reports false when nobody can log in.
func CheckAdminAccount(ctx context.Context, users repository.UserStore, registrationEnabled bool, log logging.Logger) (bool, error) {
	n, err := users.Count(ctx)
	if err != nil {
		return false, err
	}
	switch {
	case n == 0 && !registrationEnabled:
		log.Warn(ctx, "no admin account exists and registration is disabled; nobody can sign in")
		return false, nil
	case n == 0:
		log.Info(ctx, "no admin account yet; register one via /auth/register")
	case registrationEnabled:
		log.Warn(ctx, "admin account exists; set REGISTRATION_ENABLED=false to close registration", "users", n)
	}
	return true, nil
}
