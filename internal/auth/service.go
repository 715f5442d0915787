package auth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/chvishal182/finance-panorama/shared/errs"
	"github.com/chvishal182/finance-panorama/shared/events"
	"github.com/chvishal182/finance-panorama/shared/models"
	"github.com/chvishal182/finance-panorama/shared/utils"
	"github.com/golang-jwt/jwt/v5"
)

const refreshTokenTTL = 7 * 24 * time.Hour

var (
	jwtSecretOnce sync.Once
	jwtSecretVal  []byte
)

func jwtSecret() []byte {
	jwtSecretOnce.Do(func() {
		secret := os.Getenv("JWT_SECRET")
		if secret == "" {
			panic("JWT_SECRET environment variable is not set")
		}
		jwtSecretVal = []byte(secret)
	})
	return jwtSecretVal
}

// Claims is the JWT payload.
type Claims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// CredentialStore persists login credentials.
type CredentialStore interface {
	Create(ctx context.Context, c *models.Credential) error
	GetByUsername(ctx context.Context, username string) (*models.Credential, error)
}

// TokenStore persists refresh tokens.
type TokenStore interface {
	Create(ctx context.Context, t *models.RefreshToken) error
	GetByToken(ctx context.Context, token string) (*models.RefreshToken, error)
	Delete(ctx context.Context, token string) error
}

// Publisher dispatches change events without blocking the caller.
type Publisher interface {
	PublishAsync(stream, eventType, key string, version int64, data any)
}

// Service handles signup, login and token refresh. A successful signup
// also publishes the initial profile snapshot so the user service
// converges on the new user without a synchronous call.
type Service struct {
	credentials CredentialStore
	tokens      TokenStore
	publisher   Publisher
}

func NewService(credentials CredentialStore, tokens TokenStore, publisher Publisher) *Service {
	return &Service{credentials: credentials, tokens: tokens, publisher: publisher}
}

type SignupRequest struct {
	Username    string
	Email       string
	Password    string
	FirstName   string
	LastName    string
	PhoneNumber string
}

// TokenPair is the issued access token plus its refresh token.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"token"`
}

func (s *Service) Signup(ctx context.Context, req SignupRequest) (*TokenPair, error) {
	passwordHash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	cred := &models.Credential{
		UserID:       utils.GenerateID("usr"),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.credentials.Create(ctx, cred); err != nil {
		return nil, err
	}

	pair, err := s.issueTokens(ctx, cred)
	if err != nil {
		return nil, err
	}

	s.publisher.PublishAsync(events.UserEventsStream, events.ProfileUpserted, cred.UserID, time.Now().UTC().UnixNano(), events.ProfileUpsertedEvent{
		UserID:      cred.UserID,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
	})
	return pair, nil
}

func (s *Service) Login(ctx context.Context, username, password string) (*TokenPair, error) {
	cred, err := s.credentials.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", errs.ErrNotFound)
	}
	if !utils.CheckPassword(password, cred.PasswordHash) {
		return nil, fmt.Errorf("invalid credentials: %w", errs.ErrNotFound)
	}
	return s.issueTokens(ctx, cred)
}

// Refresh exchanges a stored, unexpired refresh token for a new access
// token. An expired token is deleted and rejected.
func (s *Service) Refresh(ctx context.Context, token string) (*TokenPair, error) {
	stored, err := s.tokens.GetByToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token: %w", errs.ErrNotFound)
	}
	if time.Now().After(stored.ExpiresAt) {
		if err := s.tokens.Delete(ctx, token); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("refresh token expired: %w", errs.ErrNotFound)
	}

	cred := &models.Credential{UserID: stored.UserID}
	access, err := s.generateToken(cred.UserID, "")
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: stored.Token}, nil
}

func (s *Service) issueTokens(ctx context.Context, cred *models.Credential) (*TokenPair, error) {
	access, err := s.generateToken(cred.UserID, cred.Email)
	if err != nil {
		return nil, err
	}

	refresh := &models.RefreshToken{
		UserID:    cred.UserID,
		Token:     utils.NewExternalID(),
		ExpiresAt: time.Now().UTC().Add(refreshTokenTTL),
	}
	if err := s.tokens.Create(ctx, refresh); err != nil {
		return nil, err
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh.Token}, nil
}

func (s *Service) generateToken(userID, email string) (string, error) {
	claims := Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(jwtSecret())
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return signed, nil
}

// IsConflict reports whether signup failed on a duplicate username/email.
func IsConflict(err error) bool {
	return errors.Is(err, errs.ErrConflict)
}
