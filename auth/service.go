package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/krishkalaria12/snapvault/apperr"
	"github.com/krishkalaria12/snapvault/models"
	"gorm.io/gorm"
)

var ErrInvalidCredentials = apperr.Validation("invalid credentials")

// Service owns signup, login and the resolution of bearer tokens into users.
type Service struct {
	db     *gorm.DB
	hasher *Hasher
	tokens *TokenService
}

func NewService(db *gorm.DB, hasher *Hasher, tokens *TokenService) *Service {
	return &Service{
		db:     db,
		hasher: hasher,
		tokens: tokens,
	}
}

func (s *Service) Tokens() *TokenService {
	return s.tokens
}

// Signup creates a user. The username defaults to the local part of the email.
func (s *Service) Signup(ctx context.Context, email, password, username string) (*models.User, error) {
	email = normalizeEmail(email)
	if !isEmail(email) {
		return nil, apperr.Validation("a valid email is required")
	}
	if password == "" {
		return nil, apperr.Validation("password is required")
	}

	username = strings.TrimSpace(username)
	if username == "" {
		username = strings.SplitN(email, "@", 2)[0]
	}

	existing, err := s.getUserByEmail(ctx, email)
	if err != nil {
		return nil, apperr.Upstream("failed to look up user", err)
	}
	if existing != nil {
		return nil, apperr.Conflict("user with this email already exists")
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, apperr.Upstream("failed to hash password", err)
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.Conflict("user with this email already exists")
		}
		return nil, apperr.Upstream("failed to create user", err)
	}

	slog.InfoContext(ctx, "user signed up", "user_id", user.ID)
	return user, nil
}

// Login checks credentials and issues an access token. Unknown email and wrong
// password produce the same error.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.getUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return "", apperr.Upstream("failed to look up user", err)
	}

	if user == nil {
		s.hasher.VerifyNone(password)
		return "", ErrInvalidCredentials
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		return "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return "", apperr.Upstream("failed to generate token", err)
	}
	return token, nil
}

// Authenticate resolves a bearer token into its user. A valid token for a user
// that no longer exists is rejected as unauthorized.
func (s *Service) Authenticate(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, apperr.Unauthorized(ErrTokenMalformed)
	}

	subject, err := s.tokens.Verify(token)
	if err != nil {
		return nil, err
	}

	user, err := s.GetUser(ctx, subject)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			slog.DebugContext(ctx, "token rejected", "reason", "unknown subject", "user_id", subject)
			return nil, apperr.Unauthorized(err)
		}
		return nil, err
	}
	return user, nil
}

func (s *Service) GetUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, apperr.Upstream("failed to look up user", err)
	}
	return &user, nil
}

// normalizeEmail trims and lower-cases an address so one mailbox maps to one account.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func isEmail(identity string) bool {
	addr, err := mail.ParseAddress(identity)
	return err == nil && addr.Address == identity
}

func (s *Service) getUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}
