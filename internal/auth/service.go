package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"moodtune/internal/database"
	"moodtune/pkg/models"
)

var (
	// ErrInvalidCredentials is returned when login fails.
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// UserStore is the persistence surface the auth service needs.
type UserStore interface {
	CreateUser(user models.User) error
	GetUserByUsername(username string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	UpdateUser(id, email, phone, newPassword string) error
	AddLoginEvent(userID, username, device string) error
}

// Service provides registration, login and session validation backed by
// the user store.
type Service struct {
	store    UserStore
	sessions *SessionManager
	logger   *logrus.Logger
}

// NewService creates an authentication service. Sessions live for the
// given duration.
func NewService(store UserStore, sessionDuration time.Duration, secureCookies bool) *Service {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	return &Service{
		store:    store,
		sessions: NewSessionManager(sessionDuration, secureCookies),
		logger:   logger,
	}
}

// Register creates a new account with a bcrypt-hashed password.
func (s *Service) Register(username, password, email, phone string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, fmt.Errorf("username and password are required")
	}
	if len(password) < 6 {
		return nil, fmt.Errorf("password must be at least 6 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		ID:       uuid.New().String(),
		Username: username,
		Email:    strings.TrimSpace(email),
		Phone:    strings.TrimSpace(phone),
		Password: string(hash),
	}

	if err := s.store.CreateUser(user); err != nil {
		return nil, err
	}

	s.logger.WithField("username", username).Info("User registered")
	return &user, nil
}

// Login verifies credentials and opens a session. The login is recorded in
// the login history; a history write failure does not fail the login.
func (s *Service) Login(username, password, device string) (*models.User, *Session, error) {
	user, err := s.store.GetUserByUsername(strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, nil, ErrInvalidCredentials
	}

	session := s.sessions.CreateSession(user.ID, user.Username)

	if err := s.store.AddLoginEvent(user.ID, user.Username, device); err != nil {
		s.logger.WithError(err).WithField("username", user.Username).Warn("Failed to record login event")
	}

	s.logger.WithField("username", user.Username).Info("User logged in")
	return user, session, nil
}

// Logout invalidates the session.
func (s *Service) Logout(sessionID string) {
	s.sessions.DeleteSession(sessionID)
}

// ValidateSession returns the session for the ID if it is still live.
func (s *Service) ValidateSession(sessionID string) (*Session, bool) {
	return s.sessions.GetSession(sessionID)
}

// UpdateProfile changes a user's contact details and optionally their
// password.
func (s *Service) UpdateProfile(userID, email, phone, newPassword string) error {
	hashed := ""
	if newPassword != "" {
		if len(newPassword) < 6 {
			return fmt.Errorf("password must be at least 6 characters")
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		hashed = string(hash)
	}
	return s.store.UpdateUser(userID, strings.TrimSpace(email), strings.TrimSpace(phone), hashed)
}

// GetUser returns the account for a user ID.
func (s *Service) GetUser(userID string) (*models.User, error) {
	return s.store.GetUserByID(userID)
}

// Sessions exposes the session manager for HTTP middleware.
func (s *Service) Sessions() *SessionManager {
	return s.sessions
}
