package identity

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrTokenInvalid = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// Identity is the verified sender attached to a connection. A connection
// without one cannot join a room or append events.
type Identity struct {
	UserID string
	Name   string
}

type claims struct {
	Name string `json:"name"`
	jwt.RegisteredClaims
}

// Provider issues and verifies the signed tokens the HTTP and websocket
// layers authenticate with.
type Provider struct {
	secret   []byte
	tokenTTL time.Duration
}

func NewProvider(secret string, tokenTTL time.Duration) *Provider {
	if tokenTTL <= 0 {
		tokenTTL = 7 * 24 * time.Hour
	}

	return &Provider{
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
	}
}

func (p *Provider) IssueToken(userID, name string) (string, error) {
	now := time.Now()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Name: name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.tokenTTL)),
		},
	})

	return token.SignedString(p.secret)
}

func (p *Provider) Verify(tokenString string) (Identity, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return p.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, ErrTokenExpired
		}
		return Identity{}, ErrTokenInvalid
	}

	c, ok := parsed.Claims.(*claims)
	if !ok || !parsed.Valid || c.Subject == "" {
		return Identity{}, ErrTokenInvalid
	}

	return Identity{UserID: c.Subject, Name: c.Name}, nil
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
