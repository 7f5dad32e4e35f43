package auth

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// TokenValidator authenticates bearer tokens. The HTTP middleware and the
// websocket handshake share one implementation so both surfaces accept
// exactly the same credentials.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (int64, error)
}

// Claims is the JWT payload issued by the account service.
type Claims struct {
	jwt.RegisteredClaims
	UserID int64 `json:"user_id"`
}

// JWTValidator validates HMAC-signed tokens locally.
type JWTValidator struct {
	secret []byte
}

// NewJWTValidator constructs a validator over a shared secret.
func NewJWTValidator(secret string) *JWTValidator {
	return &JWTValidator{secret: []byte(secret)}
}

// ValidateToken parses and verifies the token and returns the user id.
func (v *JWTValidator) ValidateToken(_ context.Context, tokenString string) (int64, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return v.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, ErrExpiredToken
		}
		return 0, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return 0, ErrInvalidToken
	}

	userID := claims.UserID
	if userID == 0 && claims.Subject != "" {
		// Older tokens carry the id in the subject field.
		userID, _ = strconv.ParseInt(claims.Subject, 10, 64)
	}
	if userID == 0 {
		return 0, ErrInvalidToken
	}
	return userID, nil
}

// IssueToken signs a token for the user. Used by tests and local tooling;
// production tokens come from the account service with the same secret.
func (v *JWTValidator) IssueToken(userID int64, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID: userID,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(v.secret)
}
