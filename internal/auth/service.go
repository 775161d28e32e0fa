package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrEmptySubject = errors.New("token subject is required")
)

const tokenTTL = 24 * time.Hour

// Service issues and checks HS256 bearer tokens. When disabled every
// request is let through as LocalUser.
type Service struct {
	jwtSecret []byte
	disabled  bool
}

// LocalUser is the subject attached to requests when auth is disabled.
const LocalUser = "local"

func NewService(jwtSecret string, disabled bool) *Service {
	return &Service{
		jwtSecret: []byte(jwtSecret),
		disabled:  disabled,
	}
}

// Enabled reports whether tokens are checked.
func (s *Service) Enabled() bool {
	return !s.disabled
}

func (s *Service) ValidateToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", ErrInvalidToken
	}

	subject, ok := claims["sub"].(string)
	if !ok || subject == "" {
		return "", fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	return subject, nil
}

// IssueToken signs a token for subject, valid for a day.
func (s *Service) IssueToken(subject string) (string, error) {
	if subject == "" {
		return "", ErrEmptySubject
	}
	claims := jwt.MapClaims{
		"sub": subject,
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(tokenTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}
