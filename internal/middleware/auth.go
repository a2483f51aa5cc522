package middleware

import (
	"admin-service/pkg/apperror"
	"admin-service/pkg/jwtutil"
	"admin-service/pkg/logger"
	"admin-service/prometheus"
	"context"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Context keys set by RequireToken
const (
	ClaimsKey = "claims"
	UserIDKey = "user_id"
)

// Authenticator validates a raw bearer token of the given type
type Authenticator interface {
	Authenticate(ctx context.Context, token string, typ jwtutil.TokenType) (*jwtutil.UserClaims, error)
}

// RequireToken rejects requests without a valid bearer token of type typ.
// On success the claims and the user id are stored in the echo context.
func RequireToken(auth Authenticator, typ jwtutil.TokenType) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			const op = "middleware.RequireToken"
			log := logger.FromContext(c)

			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				log.Debug("Missing Authorization header")
				prometheus.RecordAuthError("missing_token")
				return apperror.Unauthorized(op, "missing authorization token")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
				log.Debug("Invalid Authorization header format")
				prometheus.RecordAuthError("invalid_auth_format")
				return apperror.Unauthorized(op, "invalid authorization format, expected Bearer token")
			}

			claims, err := auth.Authenticate(c.Request().Context(), strings.TrimSpace(parts[1]), typ)
			if err != nil {
				log.Info("Token rejected", zap.String("token_type", string(typ)), zap.Error(err))
				return err
			}

			userID, err := claims.UserID()
			if err != nil {
				prometheus.RecordAuthError("invalid_subject")
				return apperror.Unauthorized(op, "invalid token")
			}

			c.Set(ClaimsKey, claims)
			c.Set(UserIDKey, userID)
			return next(c)
		}
	}
}

// ClaimsFromContext returns the claims stored by RequireToken
func ClaimsFromContext(c echo.Context) (*jwtutil.UserClaims, bool) {
	claims, ok := c.Get(ClaimsKey).(*jwtutil.UserClaims)
	return claims, ok
}
