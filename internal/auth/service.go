package auth

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/locallibrary/internal/config"
	"github.com/mrlokans/locallibrary/internal/database/users"
	"github.com/mrlokans/locallibrary/internal/entities"
	"github.com/mrlokans/locallibrary/internal/permissions"
)

// Validation patterns
var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_.-]{3,64}$`)
	emailPattern    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrUserExists       = errors.New("user already exists")
	ErrInvalidToken     = errors.New("invalid token")
	ErrTokenExpired     = errors.New("token expired")
	ErrUsernameRequired = errors.New("username is required")
	ErrUsernameInvalid  = errors.New("username must be 3-64 characters: letters, digits, dot, underscore or hyphen")
	ErrEmailInvalid     = errors.New("invalid email format")
)

// AuthAuditor receives authentication events. It is satisfied by
// *audit.Service.
type AuthAuditor interface {
	LogAuth(userID uint, action, description string, success bool)
}

// Service handles user management and credential checks.
type Service struct {
	users   *users.Repository
	config  config.Auth
	auditor AuthAuditor
	now     func() time.Time
}

// NewService creates a new authentication service. auditor may be nil.
func NewService(repo *users.Repository, cfg config.Auth, auditor AuthAuditor) *Service {
	return &Service{
		users:   repo,
		config:  cfg,
		auditor: auditor,
		now:     time.Now,
	}
}

// CreateUser registers a user holding the given permissions.
func (s *Service) CreateUser(username, email string, perms ...permissions.Permission) (*entities.User, error) {
	if username == "" {
		return nil, ErrUsernameRequired
	}
	if !usernamePattern.MatchString(username) {
		return nil, ErrUsernameInvalid
	}
	// RFC 5321 limit is 254
	if email != "" && (len(email) > 254 || !emailPattern.MatchString(email)) {
		return nil, ErrEmailInvalid
	}

	_, err := s.users.GetUserByUsername(username)
	if err == nil {
		return nil, ErrUserExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	user, err := s.users.CreateUser(username, email)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	for _, p := range perms {
		if err := s.setPermission(user, p, true); err != nil {
			return nil, err
		}
	}
	s.audit(user.ID, "user_created", "Created user "+username, true)
	return user, nil
}

// GetUserByID retrieves a user by their ID.
func (s *Service) GetUserByID(id uint) (*entities.User, error) {
	user, err := s.users.GetUserByID(id)
	if err != nil {
		return nil, notFound(err)
	}
	return user, nil
}

// GetUserByUsername retrieves a user by their username.
func (s *Service) GetUserByUsername(username string) (*entities.User, error) {
	user, err := s.users.GetUserByUsername(username)
	if err != nil {
		return nil, notFound(err)
	}
	return user, nil
}

// ListUsers returns every registered user.
func (s *Service) ListUsers() ([]entities.User, error) {
	return s.users.ListUsers()
}

// ValidateToken checks a plaintext token and returns the associated user.
// Returns ErrTokenExpired if the token is past its expiry time.
func (s *Service) ValidateToken(token string) (*entities.User, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}
	user, err := s.users.GetUserByTokenHash(HashToken(token))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	if s.config.TokenExpiry > 0 && user.TokenCreatedAt != nil {
		if s.now().Sub(*user.TokenCreatedAt) > s.config.TokenExpiry {
			return nil, ErrTokenExpired
		}
	}

	return user, nil
}

// GenerateToken creates a new API token for a user, replacing any previous one.
// Returns the plaintext token (show to user once) - only the hash is stored in DB.
func (s *Service) GenerateToken(userID uint) (string, error) {
	plaintext, hash, err := GenerateAPIToken()
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	now := s.now()
	if err := s.users.SetTokenHash(userID, hash, &now); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrUserNotFound
		}
		return "", fmt.Errorf("failed to save token: %w", err)
	}
	s.audit(userID, "token_issued", "Issued API token", true)
	return plaintext, nil
}

// RevokeToken removes a user's API token.
func (s *Service) RevokeToken(userID uint) error {
	if err := s.users.SetTokenHash(userID, "", nil); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	s.audit(userID, "token_revoked", "Revoked API token", true)
	return nil
}

// Grant gives a user a permission flag.
func (s *Service) Grant(username string, p permissions.Permission) error {
	user, err := s.GetUserByUsername(username)
	if err != nil {
		return err
	}
	return s.setPermission(user, p, true)
}

// Revoke takes a permission flag away from a user.
func (s *Service) Revoke(username string, p permissions.Permission) error {
	user, err := s.GetUserByUsername(username)
	if err != nil {
		return err
	}
	return s.setPermission(user, p, false)
}

func (s *Service) setPermission(user *entities.User, p permissions.Permission, value bool) error {
	var column string
	switch p {
	case permissions.CanMarkReturned:
		column = "can_mark_returned"
		user.CanMarkReturned = value
	case permissions.CanCreateUpdateDestroy:
		column = "can_create_update_destroy"
		user.CanCreateUpdateDestroy = value
	default:
		return fmt.Errorf("unknown permission %q", p)
	}
	if err := s.users.SetFlag(user.ID, column, value); err != nil {
		return fmt.Errorf("failed to update %s for %s: %w", p, user.Username, notFound(err))
	}
	action := "permission_granted"
	if !value {
		action = "permission_revoked"
	}
	s.audit(user.ID, action, fmt.Sprintf("%s for %s", p, user.Username), true)
	return nil
}

// ProxyUser returns the user a trusted proxy vouched for, registering it
// without permissions on first sight.
func (s *Service) ProxyUser(username string) (*entities.User, error) {
	user, err := s.users.GetUserByUsername(username)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if !usernamePattern.MatchString(username) {
		return nil, ErrUsernameInvalid
	}
	user, err = s.users.CreateUser(username, "")
	if err != nil {
		// Lost a race with a concurrent first request
		if existing, lookupErr := s.users.GetUserByUsername(username); lookupErr == nil {
			return existing, nil
		}
		return nil, fmt.Errorf("failed to provision proxy user: %w", err)
	}
	s.audit(user.ID, "user_provisioned", "Provisioned proxy user "+username, true)
	return user, nil
}

// Mode returns the configured authentication mode.
func (s *Service) Mode() config.AuthMode {
	return s.config.Mode
}

func (s *Service) audit(userID uint, action, description string, success bool) {
	if s.auditor != nil {
		s.auditor.LogAuth(userID, action, description, success)
	}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrUserNotFound
	}
	return err
}
