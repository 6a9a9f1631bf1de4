package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/hongminglow/fruit-scanner-be/internal/auth"
	"github.com/hongminglow/fruit-scanner-be/internal/http/respond"
	"github.com/hongminglow/fruit-scanner-be/internal/models"
)

// Authenticator resolves a bearer token to a user.
type Authenticator interface {
	Authenticate(ctx context.Context, bearerToken string) (models.User, error)
}

type userKey struct{}

// RequireUser rejects requests without a valid bearer token and stores the
// resolved user in the context for the next handler.
func RequireUser(authn Authenticator, log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := auth.BearerToken(r.Header.Get("Authorization"))
			if !ok {
				respond.Unauthorized(w, log, "not authenticated")
				return
			}
			user, err := authn.Authenticate(r.Context(), token)
			if err != nil {
				if errors.Is(err, auth.ErrUnauthorized) {
					respond.Unauthorized(w, log, "invalid or expired token")
					return
				}
				log.WithError(err).WithField("request_id", RequestIDFrom(r.Context())).Error("authenticate request")
				respond.Error(w, log, http.StatusInternalServerError, "failed to authenticate request")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// WithUser stores user in ctx.
func WithUser(ctx context.Context, user models.User) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

// UserFromContext returns the user stored by RequireUser.
func UserFromContext(ctx context.Context) (models.User, bool) {
	user, ok := ctx.Value(userKey{}).(models.User)
	return user, ok
}

// Chain applies middlewares so that the first one listed runs first.
func Chain(h http.Handler, mws ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
