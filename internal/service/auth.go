package service

import (
	"admin-service/internal/model"
	"admin-service/internal/revocation"
	"admin-service/internal/store"
	"admin-service/pkg/apperror"
	"admin-service/pkg/jwtutil"
	"admin-service/prometheus"
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// ErrBadCredentials is the only login failure a client ever sees
const ErrBadCredentials = "invalid username or password"

// UserSummary is the user block returned on login
type UserSummary struct {
	ID          uint   `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	FullName    string `json:"full_name"`
	IsSuperuser bool   `json:"is_superuser"`
	TenantID    *uint  `json:"tenant_id"`
}

// LoginResult carries the issued token pair
type LoginResult struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	User         UserSummary `json:"user"`
}

// AuthService exchanges credentials for tokens
type AuthService struct {
	users   store.UserStore
	tokens  *jwtutil.JWTUtil
	revoked revocation.Store
	clock   clock.Clock
	log     *zap.Logger
}

// NewAuthService wires the auth service. A nil revocation store keeps
// logout stateless; a nil clock uses the wall clock.
func NewAuthService(users store.UserStore, tokens *jwtutil.JWTUtil, revoked revocation.Store, clk clock.Clock, log *zap.Logger) *AuthService {
	if revoked == nil {
		revoked = revocation.NoopStore{}
	}
	if clk == nil {
		clk = clock.New()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthService{users: users, tokens: tokens, revoked: revoked, clock: clk, log: log}
}

var (
	dummyHashOnce sync.Once
	dummyHash     []byte
)

// burnCompare spends the same bcrypt effort as a real password check so
// unknown usernames cannot be told apart by response time
func burnCompare(password string) {
	dummyHashOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("dummy-password"), bcrypt.DefaultCost)
	})
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
}

// Login checks the credentials, records the login time and issues an
// access/refresh token pair
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	const op = "service.Login"
	prometheus.LoginCounter.Inc()

	if strings.TrimSpace(username) == "" || password == "" {
		prometheus.RecordAuthError("incomplete_credentials")
		return nil, apperror.Invalid(op, "username and password are required")
	}

	user, err := s.users.FindUserByUsername(ctx, username)
	if err != nil {
		if apperror.ErrorCode(err) != apperror.ENotFound {
			return nil, err
		}
		burnCompare(password)
		s.log.Warn("Login failed", zap.String("username", username), zap.String("reason", "user_not_found"))
		prometheus.RecordAuthError("user_not_found")
		return nil, apperror.Unauthorized(op, ErrBadCredentials)
	}

	if !user.CheckPassword(password) {
		s.log.Warn("Login failed", zap.String("username", username), zap.String("reason", "invalid_password"))
		prometheus.RecordAuthError("invalid_password")
		return nil, apperror.Unauthorized(op, ErrBadCredentials)
	}

	if !user.IsActive {
		s.log.Warn("Login failed", zap.String("username", username), zap.String("reason", "account_disabled"))
		prometheus.RecordAuthError("account_disabled")
		return nil, apperror.Unauthorized(op, ErrBadCredentials)
	}

	now := s.clock.Now().UTC()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, err
	}

	access, _, err := s.tokens.GenerateAccessToken(user.ID)
	if err != nil {
		return nil, apperror.Internal(op, err)
	}
	refresh, _, err := s.tokens.GenerateRefreshToken(user.ID)
	if err != nil {
		return nil, apperror.Internal(op, err)
	}
	prometheus.RecordTokenIssued(string(jwtutil.AccessToken))
	prometheus.RecordTokenIssued(string(jwtutil.RefreshToken))

	s.log.Info("User logged in", zap.Uint("user_id", user.ID), zap.String("username", user.Username))

	return &LoginResult{
		AccessToken:  access,
		RefreshToken: refresh,
		User:         summarize(user),
	}, nil
}

func summarize(u *model.User) UserSummary {
	return UserSummary{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		FullName:    u.FullName,
		IsSuperuser: u.IsSuperuser,
		TenantID:    u.TenantID,
	}
}

// Authenticate validates a bearer token of the expected type and checks
// the denylist
func (s *AuthService) Authenticate(ctx context.Context, token string, typ jwtutil.TokenType) (*jwtutil.UserClaims, error) {
	const op = "service.Authenticate"

	claims, err := s.tokens.ValidateToken(token, typ)
	if err != nil {
		switch {
		case errors.Is(err, jwtutil.ErrTokenExpired):
			prometheus.RecordAuthError("token_expired")
			return nil, &apperror.Error{Code: apperror.EUnauthorized, Op: op, Msg: "token has expired", Err: err}
		case errors.Is(err, jwtutil.ErrWrongTokenType):
			prometheus.RecordAuthError("wrong_token_type")
			return nil, &apperror.Error{Code: apperror.EUnauthorized, Op: op, Msg: "only " + string(typ) + " tokens are allowed", Err: err}
		default:
			prometheus.RecordAuthError("invalid_token")
			return nil, &apperror.Error{Code: apperror.EUnauthorized, Op: op, Msg: "invalid token", Err: err}
		}
	}

	revoked, err := s.revoked.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, apperror.Internal(op, err)
	}
	if revoked {
		prometheus.RecordAuthError("token_revoked")
		return nil, apperror.Unauthorized(op, "token has been revoked")
	}

	return claims, nil
}

// Refresh mints a new access token for the subject of a validated refresh
// token. The refresh token itself is not rotated.
func (s *AuthService) Refresh(_ context.Context, claims *jwtutil.UserClaims) (string, error) {
	const op = "service.Refresh"

	userID, err := claims.UserID()
	if err != nil {
		return "", apperror.Unauthorized(op, "invalid token")
	}

	access, _, err := s.tokens.GenerateAccessToken(userID)
	if err != nil {
		return "", apperror.Internal(op, err)
	}
	prometheus.RecordTokenIssued(string(jwtutil.AccessToken))
	return access, nil
}

// Logout acknowledges the request. With a denylist configured the access
// token is rejected from now until it would have expired; without one the
// token remains usable until expiry.
func (s *AuthService) Logout(ctx context.Context, claims *jwtutil.UserClaims) error {
	ttl := claims.TTL(s.clock.Now())
	if err := s.revoked.Revoke(ctx, claims.ID, ttl); err != nil {
		return apperror.Internal("service.Logout", err)
	}
	if _, stateless := s.revoked.(revocation.NoopStore); !stateless {
		prometheus.RecordTokenRevoked()
	}
	s.log.Info("User logged out", zap.String("subject", claims.Subject))
	return nil
}
