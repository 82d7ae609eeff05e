package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/hackgods/blood-donation-coordination/internal/domain"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims is the identity issued by the auth service.
type Claims struct {
	UserID string      `json:"user_id"`
	Role   domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// Actor converts verified claims into the caller identity.
func (c *Claims) Actor() (domain.Actor, error) {
	id, err := uuid.Parse(c.UserID)
	if err != nil {
		return domain.Actor{}, fmt.Errorf("%w: user_id is not a uuid", ErrInvalidToken)
	}
	if !c.Role.Valid() {
		return domain.Actor{}, fmt.Errorf("%w: unknown role %q", ErrInvalidToken, c.Role)
	}
	return domain.Actor{UserID: id, Role: c.Role}, nil
}

// IssueToken signs an HS256 token for the actor.
func IssueToken(actor domain.Actor, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: actor.UserID.String(),
		Role:   actor.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   actor.UserID.String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ParseToken verifies an HS256 token and returns the caller identity.
func ParseToken(tokenString, secret string) (domain.Actor, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return domain.Actor{}, errors.Join(ErrInvalidToken, err)
	}
	if !token.Valid {
		return domain.Actor{}, ErrInvalidToken
	}
	return claims.Actor()
}
