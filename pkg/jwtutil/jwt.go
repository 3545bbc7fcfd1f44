package jwtutil

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenTypeAccess is the only token type the service mints or accepts.
// Tokens carrying any other declared type fail validation even when the
// signature is correct.
const TokenTypeAccess = "access"

const DefaultTTL = 3600 * time.Second

type Claims struct {
	UserID    string `json:"uid"`
	Email     string `json:"email,omitempty"`
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

// Generator mints the service's own signed session tokens. The same secret
// must validate what it signs.
type Generator struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

func NewGenerator(secret []byte, issuer string, ttl time.Duration) *Generator {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Generator{secret: secret, issuer: issuer, ttl: ttl}
}

func (g *Generator) Generate(userID, email string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID:    userID,
		Email:     email,
		TokenType: TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    g.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(g.ttl)),
		},
	})

	return token.SignedString(g.secret)
}

func (g *Generator) TTL() time.Duration { return g.ttl }
