package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/course-registration-api/internal/dto"
	"github.com/noah-isme/course-registration-api/internal/models"
	appErrors "github.com/noah-isme/course-registration-api/pkg/errors"
)

// AuthConfig defines configuration for session tokens.
type AuthConfig struct {
	Secret string
	Expiry time.Duration
	Issuer string
}

type sessionRegistrations interface {
	Restore(ctx context.Context, studentID string) (*models.ScheduleSummary, error)
	Release(studentID string)
}

// AuthService is the identity stub: it signs whatever role and name the caller asserts.
// Credentials are not checked.
type AuthService struct {
	registrations sessionRegistrations
	validator     *validator.Validate
	logger        *zap.Logger
	config        AuthConfig
	now           func() time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(registrations sessionRegistrations, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = dto.NewValidator()
	}
	if config.Expiry <= 0 {
		config.Expiry = 8 * time.Hour
	}
	return &AuthService{
		registrations: registrations,
		validator:     validate,
		logger:        logger,
		config:        config,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// StartSession issues a signed token for the asserted identity and restores a student's set.
func (s *AuthService) StartSession(ctx context.Context, req dto.CreateSessionRequest) (*models.Session, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session payload")
	}

	identity := models.Identity{
		UserID: strings.TrimSpace(req.UserID),
		Name:   strings.TrimSpace(req.Name),
		Role:   models.UserRole(strings.ToUpper(req.Role)),
	}
	if identity.UserID == "" {
		identity.UserID = uuid.NewString()
	}
	if identity.Name == "" {
		identity.Name = strings.ToLower(string(identity.Role))
	}

	token, err := s.sign(identity)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create session token")
	}

	if identity.Role == models.RoleStudent && s.registrations != nil {
		if _, err := s.registrations.Restore(ctx, identity.UserID); err != nil {
			return nil, err
		}
	}

	s.logger.Info("session started", zap.String("user_id", identity.UserID), zap.String("role", string(identity.Role)))
	return &models.Session{
		Token:     token,
		ExpiresIn: int64(s.config.Expiry.Seconds()),
		User:      identity,
	}, nil
}

// EndSession clears a student's in-memory set. Tokens are stateless and simply expire.
func (s *AuthService) EndSession(identity models.Identity) {
	if identity.Role == models.RoleStudent && s.registrations != nil {
		s.registrations.Release(identity.UserID)
	}
	s.logger.Info("session ended", zap.String("user_id", identity.UserID))
}

func (s *AuthService) sign(identity models.Identity) (string, error) {
	issuedAt := s.now()
	claims := models.IdentityClaims{
		UserID: identity.UserID,
		Name:   identity.Name,
		Role:   identity.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.UserID,
			Issuer:    s.config.Issuer,
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.config.Expiry)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.Secret))
}

// ValidateToken parses and validates a session token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.IdentityClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.IdentityClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.IdentityClaims)
	if !ok || !token.Valid || !claims.Role.Valid() || claims.UserID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	return claims, nil
}
