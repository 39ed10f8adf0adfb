package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/qr-attendance-api/internal/dto"
	"github.com/noah-isme/qr-attendance-api/internal/models"
	"github.com/noah-isme/qr-attendance-api/pkg/config"
	apperrors "github.com/noah-isme/qr-attendance-api/pkg/errors"
)

// Claims is the JWT payload issued to staff sessions.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"uid"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

type userRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
	CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error
	FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, id string, at time.Time) error
	RevokeUserRefreshTokens(ctx context.Context, userID string, at time.Time) error
}

// AuthService issues and validates staff session tokens.
type AuthService struct {
	repo      userRepository
	cfg       config.AuthConfig
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewAuthService builds the auth service.
func NewAuthService(repo userRepository, cfg config.AuthConfig, validate *validator.Validate, logger *zap.Logger) *AuthService {
	return &AuthService{repo: repo, cfg: cfg, validator: validate, logger: logger, now: time.Now}
}

// Login checks credentials and issues an access plus refresh token pair.
func (s *AuthService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, apperrors.Wrap(err, "VALIDATION_ERROR", 400, "email and password are required")
	}

	user, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, apperrors.Wrap(err, "DATABASE_ERROR", 500, "failed to load user")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, apperrors.ErrInvalidCredentials
	}
	if !user.Active {
		return nil, apperrors.ErrInactiveAccount
	}

	now := s.now().UTC()
	if err := s.repo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		s.logger.Sugar().Warnw("failed to stamp last login", "user_id", user.ID, "error", err)
	}

	return s.issueTokens(ctx, user, req.IPAddress, req.UserAgent)
}

// Refresh rotates a refresh token into a fresh token pair.
func (s *AuthService) Refresh(ctx context.Context, req dto.RefreshRequest) (*dto.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, apperrors.Wrap(err, "VALIDATION_ERROR", 400, "refresh token is required")
	}

	stored, err := s.repo.FindRefreshToken(ctx, req.RefreshToken)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrUnauthorized
		}
		return nil, apperrors.Wrap(err, "DATABASE_ERROR", 500, "failed to load refresh token")
	}
	now := s.now().UTC()
	if stored.Revoked || now.After(stored.ExpiresAt) {
		return nil, apperrors.ErrUnauthorized
	}

	user, err := s.repo.FindByID(ctx, stored.UserID)
	if err != nil {
		return nil, apperrors.ErrUnauthorized
	}
	if !user.Active {
		return nil, apperrors.ErrInactiveAccount
	}

	if err := s.repo.RevokeRefreshToken(ctx, stored.ID, now); err != nil {
		return nil, apperrors.Wrap(err, "DATABASE_ERROR", 500, "failed to rotate refresh token")
	}

	ip := ""
	if stored.IPAddress != nil {
		ip = *stored.IPAddress
	}
	agent := ""
	if stored.UserAgent != nil {
		agent = *stored.UserAgent
	}
	return s.issueTokens(ctx, user, ip, agent)
}

// Logout revokes every active refresh token for the user.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	if err := s.repo.RevokeUserRefreshTokens(ctx, userID, s.now().UTC()); err != nil {
		return apperrors.Wrap(err, "DATABASE_ERROR", 500, "failed to revoke sessions")
	}
	return nil
}

// ValidateToken parses and checks an access token.
func (s *AuthService) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(s.cfg.Secret), nil
	})
	if err != nil || !token.Valid {
		return nil, apperrors.ErrUnauthorized
	}
	return claims, nil
}

func (s *AuthService) issueTokens(ctx context.Context, user *models.User, ip, agent string) (*dto.LoginResponse, error) {
	now := s.now().UTC()
	expiresAt := now.Add(s.cfg.Expiration)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
	}
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return nil, apperrors.Wrap(err, "TOKEN_ERROR", 500, "failed to sign access token")
	}

	refreshValue, err := randomToken()
	if err != nil {
		return nil, apperrors.Wrap(err, "TOKEN_ERROR", 500, "failed to generate refresh token")
	}
	refresh := &models.RefreshToken{
		UserID:    user.ID,
		Token:     refreshValue,
		ExpiresAt: now.Add(s.cfg.RefreshExpiration),
	}
	if ip != "" {
		refresh.IPAddress = &ip
	}
	if agent != "" {
		refresh.UserAgent = &agent
	}
	if err := s.repo.CreateRefreshToken(ctx, refresh); err != nil {
		return nil, apperrors.Wrap(err, "DATABASE_ERROR", 500, "failed to store refresh token")
	}

	return &dto.LoginResponse{
		AccessToken:  access,
		RefreshToken: refreshValue,
		ExpiresIn:    int64(s.cfg.Expiration.Seconds()),
		User: dto.UserInfo{
			ID:       user.ID,
			Email:    user.Email,
			FullName: user.FullName,
			Role:     user.Role,
		},
	}, nil
}

func randomToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
