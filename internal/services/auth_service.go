package services

import (
	"errors"
	"fmt"
	"strings"

	"pasar/internal/models"
	"pasar/internal/repositories"
	"pasar/internal/session"

	"golang.org/x/crypto/bcrypt"
)

// bcryptCost matches the work factor the credential store was seeded with.
const bcryptCost = 12

// AuthService handles registration, login and session resolution.
type AuthService struct {
	userRepo repositories.UserRepository
	codec    *session.Codec
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repositories.UserRepository, sessionSecret string) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		codec:    session.NewCodec(sessionSecret),
	}
}

// RegisterInput is the validated registration payload. Role defaults to
// Customer when empty.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	Role     models.Role
}

// Register creates a new user with a hashed password and returns it.
func (s *AuthService) Register(input RegisterInput) (*models.User, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.ToLower(strings.TrimSpace(input.Email))

	role := input.Role
	if role == "" {
		role = models.RoleCustomer
	}
	if !role.Valid() {
		return nil, &models.ValidationError{
			Code:    "INVALID_ROLE",
			Message: "Invalid role. Must be Customer, Seller, or Admin",
		}
	}

	if existing, err := s.userRepo.GetByUsername(username); err == nil && existing != nil {
		return nil, &models.ConflictError{Code: "USERNAME_EXISTS", Message: "Username already exists"}
	}
	if existing, err := s.userRepo.GetByEmail(email); err == nil && existing != nil {
		return nil, &models.ConflictError{Code: "EMAIL_EXISTS", Message: "Email already exists"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, fmt.Errorf("failed to register user: %w", err)
	}
	return user, nil
}

// Login authenticates by email and password. An unknown email surfaces
// as not-found, a wrong password as invalid credentials.
func (s *AuthService) Login(email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		var notFound *models.NotFoundError
		if errors.As(err, &notFound) {
			return nil, &models.NotFoundError{Resource: "User", Code: "USER_NOT_FOUND"}
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, models.ErrInvalidCredentials
	}
	return user, nil
}

// IssueSession mints a signed session token for the user.
func (s *AuthService) IssueSession(userID uint) string {
	return s.codec.Encode(userID)
}

// ResolveSession verifies a session token and resolves it to a live
// user. Every failure mode collapses to nil: a tampered token and a
// valid token for a since-deleted account are indistinguishable to the
// caller. Side-effect free, safe on every request.
func (s *AuthService) ResolveSession(token string) *models.User {
	userID, ok := s.codec.Decode(token)
	if !ok {
		return nil
	}
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil
	}
	return user
}
