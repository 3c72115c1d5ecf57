package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/krishkalaria12/snapvault/apperr"
)

var (
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenMalformed = errors.New("token malformed")
	ErrTokenSignature = errors.New("token signature invalid")
)

type TokenService struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

type TokenOption func(*TokenService)

// WithClock overrides the time source used for issuing and verifying tokens.
func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenService) {
		s.now = now
	}
}

func NewTokenService(secret, issuer string, ttl time.Duration, opts ...TokenOption) *TokenService {
	s := &TokenService{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

func (s *TokenService) Issue(subjectID string) (string, error) {
	return s.IssueWithTTL(subjectID, s.ttl)
}

func (s *TokenService) IssueWithTTL(subjectID string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subjectID,
		Issuer:    s.issuer,
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
	})

	token, err := claims.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

// Verify returns the subject of a valid token. Every failure is an Unauthorized
// error; the specific cause is only visible through errors.Is and the debug log.
func (s *TokenService) Verify(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		cause := classify(err)
		slog.Debug("token rejected", "reason", cause.Error(), "error", err)
		return "", apperr.Unauthorized(cause)
	}

	if claims.Subject == "" {
		slog.Debug("token rejected", "reason", "missing subject")
		return "", apperr.Unauthorized(ErrTokenMalformed)
	}

	return claims.Subject, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrTokenSignature
	default:
		return ErrTokenMalformed
	}
}
