package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hongminglow/fruit-scanner-be/internal/models"
	"github.com/hongminglow/fruit-scanner-be/internal/storage"
)

// Gate validates bearer credentials and resolves them to a user. It only reads
// from the store.
type Gate struct {
	tokens *TokenManager
	users  storage.UserReader
}

// NewGate constructs a Gate.
func NewGate(tokens *TokenManager, users storage.UserReader) *Gate {
	return &Gate{tokens: tokens, users: users}
}

// Authenticate resolves a raw bearer token to its owning user. Any credential
// problem yields ErrUnauthorized; store outages are returned wrapped.
func (g *Gate) Authenticate(ctx context.Context, bearerToken string) (models.User, error) {
	id, err := g.tokens.Verify(bearerToken)
	if err != nil {
		return models.User{}, ErrUnauthorized
	}
	user, err := g.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.User{}, ErrUnauthorized
		}
		return models.User{}, fmt.Errorf("load user %d: %w", id, err)
	}
	return user, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
