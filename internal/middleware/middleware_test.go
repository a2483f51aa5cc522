package middleware

import (
	"admin-service/pkg/apperror"
	"admin-service/pkg/config"
	"admin-service/pkg/jwtutil"
	"admin-service/pkg/logger"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tokenAuth struct {
	tokens *jwtutil.JWTUtil
}

func (a tokenAuth) Authenticate(_ context.Context, token string, typ jwtutil.TokenType) (*jwtutil.UserClaims, error) {
	claims, err := a.tokens.ValidateToken(token, typ)
	if err != nil {
		return nil, apperror.Unauthorized("test", "invalid token")
	}
	return claims, nil
}

func newTokens() *jwtutil.JWTUtil {
	return jwtutil.NewJWTUtil(config.JWTConfig{
		SigningKey:             "middleware-test",
		AccessTokenExpiration:  time.Hour,
		RefreshTokenExpiration: 24 * time.Hour,
	}, nil)
}

func TestRequireToken(t *testing.T) {
	tokens := newTokens()
	access, _, err := tokens.GenerateAccessToken(7)
	require.NoError(t, err)
	refresh, _, err := tokens.GenerateRefreshToken(7)
	require.NoError(t, err)

	mw := RequireToken(tokenAuth{tokens}, jwtutil.AccessToken)

	cases := []struct {
		name   string
		header string
		msg    string
	}{
		{"missing header", "", "missing authorization token"},
		{"basic scheme", "Basic dXNlcjpwYXNz", "invalid authorization format, expected Bearer token"},
		{"empty bearer", "Bearer ", "invalid authorization format, expected Bearer token"},
		{"refresh token", "Bearer " + refresh, "invalid token"},
		{"garbage", "Bearer not-a-jwt", "invalid token"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tc.header)
			}
			c := e.NewContext(req, httptest.NewRecorder())

			called := false
			err := mw(func(echo.Context) error { called = true; return nil })(c)
			assert.False(t, called)
			assert.Equal(t, apperror.EUnauthorized, apperror.ErrorCode(err))
			assert.Equal(t, tc.msg, apperror.ErrorMessage(err))
		})
	}

	t.Run("valid access token", func(t *testing.T) {
		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(echo.HeaderAuthorization, "bearer "+access)
		c := e.NewContext(req, httptest.NewRecorder())

		err := mw(func(c echo.Context) error {
			assert.Equal(t, uint(7), c.Get(UserIDKey))
			claims, ok := ClaimsFromContext(c)
			require.True(t, ok)
			assert.Equal(t, jwtutil.AccessToken, claims.TokenType)
			return nil
		})(c)
		assert.NoError(t, err)
	})
}

func TestRequestIDMiddleware(t *testing.T) {
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	require.NoError(t, RequestIDMiddleware(func(echo.Context) error { return nil })(c))
	generated := rec.Header().Get(logger.RequestIDKey)
	assert.Len(t, generated, 36)
	assert.Equal(t, generated, c.Get(logger.RequestIDKey))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(logger.RequestIDKey, "abc-123")
	rec = httptest.NewRecorder()
	c = e.NewContext(req, rec)
	require.NoError(t, RequestIDMiddleware(func(echo.Context) error { return nil })(c))
	assert.Equal(t, "abc-123", rec.Header().Get(logger.RequestIDKey))
}
