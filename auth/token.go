// ABOUTME: HS256 access and refresh tokens for the REST API
// ABOUTME: Refresh tokens carry typ=refresh and cannot be used as bearer tokens
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/manvote/crmdesk/models"
)

const (
	AccessTTL  = 15 * time.Minute
	RefreshTTL = 7 * 24 * time.Hour
)

// Token types carried in the typ claim.
const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrEmptySecret  = errors.New("token signing secret is empty")
)

type Claims struct {
	Username string      `json:"username"`
	Role     models.Role `json:"role"`
	Type     string      `json:"typ"`
	jwt.RegisteredClaims
}

// TokenPair matches the login response body.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}

type Issuer struct {
	secret []byte
	now    func() time.Time
}

// NewIssuer signs with secret, which must not be empty.
func NewIssuer(secret string) (*Issuer, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	return &Issuer{secret: []byte(secret), now: time.Now}, nil
}

func (i *Issuer) usable() bool {
	return i != nil && len(i.secret) > 0
}

func (i *Issuer) sign(u models.User, typ string, ttl time.Duration) (string, error) {
	if !i.usable() {
		return "", ErrEmptySecret
	}
	now := i.now()
	claims := Claims{
		Username: u.Username,
		Role:     NormalizeRole(string(u.Role)),
		Type:     typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Issue returns a fresh access and refresh token for u.
func (i *Issuer) Issue(u models.User) (TokenPair, error) {
	access, err := i.sign(u, TypeAccess, AccessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := i.sign(u, TypeRefresh, RefreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{Access: access, Refresh: refresh}, nil
}

// Parse validates signature, expiry and token type.
func (i *Issuer) Parse(token, typ string) (*Claims, error) {
	if !i.usable() {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, ErrEmptySecret)
	}
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.now))
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Type != typ {
		return nil, fmt.Errorf("%w: expected %s token", ErrInvalidToken, typ)
	}
	return claims, nil
}

// Refresh exchanges a refresh token for a new access token.
func (i *Issuer) Refresh(refreshToken string) (TokenPair, error) {
	claims, err := i.Parse(refreshToken, TypeRefresh)
	if err != nil {
		return TokenPair{}, err
	}
	access, err := i.sign(models.User{ID: claims.Subject, Username: claims.Username, Role: claims.Role}, TypeAccess, AccessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{Access: access}, nil
}
