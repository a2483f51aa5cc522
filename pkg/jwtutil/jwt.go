package jwtutil

import (
	"admin-service/pkg/config"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// TokenType distinguishes access tokens from refresh tokens
type TokenType string

const (
	AccessToken  TokenType = "access"
	RefreshToken TokenType = "refresh"
)

var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrTokenExpired   = errors.New("token has expired")
	ErrWrongTokenType = errors.New("wrong token type")
)

// UserClaims represents the JWT claims for user authentication.
// The subject is the user id.
type UserClaims struct {
	TokenType TokenType `json:"type"`
	jwt.RegisteredClaims
}

// UserID parses the subject claim
func (c *UserClaims) UserID() (uint, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad subject %q", ErrInvalidToken, c.Subject)
	}
	return uint(id), nil
}

// TTL returns how long the token stays valid after now
func (c *UserClaims) TTL(now time.Time) time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	return c.ExpiresAt.Sub(now)
}

// JWTUtil is a utility for JWT token operations
type JWTUtil struct {
	config config.JWTConfig
	clock  clock.Clock
}

// NewJWTUtil creates a new JWT utility with the given configuration.
// A nil clock means the wall clock.
func NewJWTUtil(cfg config.JWTConfig, clk clock.Clock) *JWTUtil {
	if clk == nil {
		clk = clock.New()
	}
	return &JWTUtil{
		config: cfg,
		clock:  clk,
	}
}

// GenerateAccessToken creates a short-lived token for API requests
func (j *JWTUtil) GenerateAccessToken(userID uint) (string, *UserClaims, error) {
	return j.generate(userID, AccessToken, j.config.AccessTokenExpiration)
}

// GenerateRefreshToken creates a long-lived token that can only mint access tokens
func (j *JWTUtil) GenerateRefreshToken(userID uint) (string, *UserClaims, error) {
	return j.generate(userID, RefreshToken, j.config.RefreshTokenExpiration)
}

func (j *JWTUtil) generate(userID uint, typ TokenType, ttl time.Duration) (string, *UserClaims, error) {
	if j.config.SigningKey == "" {
		return "", nil, errors.New("JWT signing key not configured")
	}

	now := j.clock.Now()
	claims := &UserClaims{
		TokenType: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   strconv.FormatUint(uint64(userID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(j.config.SigningKey))
	if err != nil {
		return "", nil, err
	}
	return signed, claims, nil
}

// ValidateToken validates the signature, expiry and type of the token
func (j *JWTUtil) ValidateToken(tokenString string, expected TokenType) (*UserClaims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		// Time based claims are checked below against the injected clock
		jwt.WithoutClaimsValidation(),
	)

	claims := &UserClaims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(j.config.SigningKey), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	now := j.clock.Now()
	if !claims.VerifyExpiresAt(now, true) {
		return nil, ErrTokenExpired
	}
	if !claims.VerifyNotBefore(now, false) {
		return nil, ErrInvalidToken
	}
	if claims.TokenType != expected {
		return nil, fmt.Errorf("%w: expected %s token", ErrWrongTokenType, expected)
	}
	if _, err := claims.UserID(); err != nil {
		return nil, err
	}

	return claims, nil
}
