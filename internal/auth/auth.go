package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/example/wortschatz/internal/apperr"
	"github.com/example/wortschatz/internal/database"
	"github.com/example/wortschatz/internal/logger"
	"github.com/example/wortschatz/pkg/models"
)

// Token TTLs mirror the short access / long refresh split.
const (
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

// Service issues and validates bearer credentials.
type Service struct {
	users         *database.UserRepository
	log           *logger.Logger
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

// NewService wires the auth collaborator. Access and refresh tokens are
// signed with distinct secrets.
func NewService(users *database.UserRepository, log *logger.Logger, accessSecret, refreshSecret string) *Service {
	return &Service{
		users:         users,
		log:           log.With("component", "auth"),
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     DefaultAccessTTL,
		refreshTTL:    DefaultRefreshTTL,
	}
}

// HashPassword returns the bcrypt hash of a plaintext password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// Authenticate checks credentials. A wrong password bumps the user's failed
// login counter; success stamps last_login and resets it.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	const op = "auth.Authenticate"

	user, err := s.users.GetByUsername(ctx, username)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, apperr.E(op, apperr.ErrUnauthorized, "incorrect username or password")
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		if recErr := s.users.RecordFailedLogin(ctx, user.ID); recErr != nil {
			s.log.Warn("failed to record failed login", "user_id", user.ID, "error", recErr)
		}
		return nil, apperr.E(op, apperr.ErrUnauthorized, "incorrect username or password")
	}

	if err := s.users.RecordLogin(ctx, user.ID); err != nil {
		return nil, err
	}
	return user, nil
}

// CreateAccessToken issues a short-lived bearer token for the user.
func (s *Service) CreateAccessToken(user *models.User) (string, error) {
	return s.createToken(user.Username, "access", s.accessSecret, s.accessTTL)
}

// CreateRefreshToken issues the long-lived refresh token.
func (s *Service) CreateRefreshToken(user *models.User) (string, error) {
	return s.createToken(user.Username, "refresh", s.refreshSecret, s.refreshTTL)
}

func (s *Service) createToken(username, tokenType string, secret []byte, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub":  username,
		"type": tokenType,
		"exp":  jwt.NewNumericDate(time.Now().Add(ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", tokenType, err)
	}
	return signed, nil
}

// CurrentUser validates an access token and loads its principal.
func (s *Service) CurrentUser(ctx context.Context, tokenString string) (*models.User, error) {
	const op = "auth.CurrentUser"

	username, err := s.parse(tokenString, "access", s.accessSecret)
	if err != nil {
		return nil, apperr.E(op, apperr.ErrUnauthorized, "could not validate credentials")
	}
	user, err := s.users.GetByUsername(ctx, username)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, apperr.E(op, apperr.ErrUnauthorized, "could not validate credentials")
	}
	if err != nil {
		return nil, err
	}
	if touchErr := s.users.TouchActivity(ctx, user.ID); touchErr != nil {
		s.log.Warn("failed to touch activity", "user_id", user.ID, "error", touchErr)
	}
	return user, nil
}

// ValidateRefreshToken checks a refresh token and returns its subject.
func (s *Service) ValidateRefreshToken(tokenString string) (string, error) {
	const op = "auth.ValidateRefreshToken"

	username, err := s.parse(tokenString, "refresh", s.refreshSecret)
	if err != nil {
		return "", apperr.E(op, apperr.ErrUnauthorized, "invalid refresh token")
	}
	return username, nil
}

func (s *Service) parse(tokenString, wantType string, secret []byte) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return "", fmt.Errorf("invalid token: %w", err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("invalid claims")
	}
	if tokenType, _ := claims["type"].(string); tokenType != wantType {
		return "", fmt.Errorf("invalid token type %q", tokenType)
	}
	username, _ := claims["sub"].(string)
	if username == "" {
		return "", errors.New("missing subject")
	}
	return username, nil
}
