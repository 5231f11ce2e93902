package token

import (
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("无效的会话令牌")
	ErrExpiredToken = errors.New("会话令牌已过期")
)

// Claims 是会话令牌中携带的数据。Subject 是用户ID，ID 用于注销时吊销。
type Claims struct {
	jwt.RegisteredClaims
}

// Issuer 负责签发和校验HS256会话令牌
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer 创建签发器。secret 为空时生成一个进程内随机密钥，重启后旧令牌全部失效。
func NewIssuer(secret string, ttl time.Duration) (*Issuer, error) {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("无法生成安全的密钥: %w", err)
		}
	}
	return &Issuer{secret: key, ttl: ttl, now: time.Now}, nil
}

// TTL 返回令牌有效期
func (i *Issuer) TTL() time.Duration {
	return i.ttl
}

// Issue 为用户签发一个新令牌
func (i *Issuer) Issue(userID string) (string, *Claims, error) {
	now := i.now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", nil, fmt.Errorf("无法签发令牌: %w", err)
	}
	return signed, claims, nil
}

// Parse 校验签名和有效期，返回令牌中的声明
func (i *Issuer) Parse(raw string) (*Claims, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.now), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !tok.Valid || claims.Subject == "" || claims.ID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
