package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SlpAus/macro-tracker-backend/internal/platform/apperror"
	"github.com/SlpAus/macro-tracker-backend/pkg/token"
	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
)

const (
	MinPasswordLength = 8
	// bcrypt 只使用前72个字节
	maxPasswordLength = 72
)

var errInvalidCredentials = apperror.Unauthorized("Invalid email or password")

// Session 是登录成功后签发的会话
type Session struct {
	Token     string
	ExpiresAt time.Time
}

type Service struct {
	repo     *Repository
	issuer   *token.Issuer
	sessions SessionStore
	validate *validator.Validate
}

func NewService(repo *Repository, issuer *token.Issuer, sessions SessionStore) *Service {
	return &Service{
		repo:     repo,
		issuer:   issuer,
		sessions: sessions,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register 创建一个新用户
func (s *Service) Register(ctx context.Context, email, password, name string) (*User, error) {
	email = normalizeEmail(email)
	if err := s.validate.Var(email, "required,email"); err != nil {
		return nil, apperror.Validation("A valid email is required")
	}
	if len(password) < MinPasswordLength {
		return nil, apperror.Validation("Password must be at least %d characters", MinPasswordLength)
	}
	if len(password) > maxPasswordLength {
		return nil, apperror.Validation("Password must be at most %d bytes", maxPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("无法计算密码哈希: %w", err)
	}

	u := &User{
		Email:        email,
		Name:         strings.TrimSpace(name),
		PasswordHash: string(hash),
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, apperror.OrStorage(err)
	}
	slog.Info("新用户已注册", "user", u.ID)
	return u, nil
}

// Authenticate 校验邮箱和密码，成功时签发会话令牌
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, *Session, error) {
	u, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, apperror.ErrNotFound) {
		return nil, nil, errInvalidCredentials
	}
	if err != nil {
		return nil, nil, apperror.Storage(err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, nil, errInvalidCredentials
	}

	session, err := s.IssueSession(u.ID)
	if err != nil {
		return nil, nil, err
	}
	return u, session, nil
}

// IssueSession 为用户签发一个新令牌
func (s *Service) IssueSession(userID string) (*Session, error) {
	raw, claims, err := s.issuer.Issue(userID)
	if err != nil {
		return nil, err
	}
	return &Session{Token: raw, ExpiresAt: claims.ExpiresAt.Time}, nil
}

// Verify 解析令牌并确认它没有被注销
func (s *Service) Verify(ctx context.Context, raw string) (*token.Claims, error) {
	claims, err := s.issuer.Parse(raw)
	if err != nil {
		return nil, apperror.Unauthorized("Unauthorized")
	}
	revoked, err := s.sessions.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, apperror.Storage(err)
	}
	if revoked {
		return nil, apperror.Unauthorized("Session has been signed out")
	}
	return claims, nil
}

// Logout 注销令牌，直到它原本的过期时间
func (s *Service) Logout(ctx context.Context, claims *token.Claims) error {
	if claims == nil || claims.ExpiresAt == nil {
		return nil
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return nil
	}
	if err := s.sessions.Revoke(ctx, claims.ID, ttl); err != nil {
		return apperror.Storage(err)
	}
	return nil
}

// Get 返回用户信息
func (s *Service) Get(ctx context.Context, userID string) (*User, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, apperror.OrStorage(err)
	}
	return u, nil
}

// TokenTTL 返回新会话的有效期
func (s *Service) TokenTTL() time.Duration {
	return s.issuer.TTL()
}
