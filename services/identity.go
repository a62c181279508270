package services

import (
	"context"
	"errors"
	"fmt"

	"main/repository"
	"main/utils"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for missing, malformed or expired bearer
// credentials. It is never retried.
var ErrInvalidToken = errors.New("invalid or expired token")

// Identity is the result of verifying a bearer credential.
type Identity struct {
	UserID string
	Email  string
}

// Verifier validates bearer credentials and resolves user e-mail
// addresses. The scheduler and the API surface both depend on this
// contract rather than on a concrete provider.
type Verifier interface {
	// Verify validates a bearer token and returns the identity it
	// carries. The e-mail may be empty when the provider does not know
	// it.
	Verify(ctx context.Context, token string) (*Identity, error)

	// LookupEmail resolves a user's e-mail by id. Failure is non-fatal
	// to callers: reminders proceed without an address.
	LookupEmail(ctx context.Context, userID string) (string, error)
}

// JWTVerifier verifies HMAC-signed access tokens and resolves e-mail
// addresses from the user store.
type JWTVerifier struct {
	Users *repository.UserRepo
}

func NewJWTVerifier(users *repository.UserRepo) *JWTVerifier {
	return &JWTVerifier{Users: users}
}

func (v *JWTVerifier) Verify(ctx context.Context, tokenString string) (*Identity, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(utils.JWTSecretKey), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || claims["user_id"] == nil || claims["exp"] == nil {
		return nil, ErrInvalidToken
	}

	// Refresh tokens are not accepted as access credentials.
	if tokenType, exists := claims["type"]; exists && tokenType == "refresh" {
		return nil, ErrInvalidToken
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return nil, ErrInvalidToken
	}

	identity := &Identity{UserID: userID}
	if email, ok := claims["email"].(string); ok {
		identity.Email = email
	}
	return identity, nil
}

func (v *JWTVerifier) LookupEmail(ctx context.Context, userID string) (string, error) {
	user, err := v.Users.FindUser(ctx, userID)
	if err != nil {
		return "", err
	}
	if user.Email == "" {
		return "", repository.ErrUserNotFound
	}
	return user.Email, nil
}
