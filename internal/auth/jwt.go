// Package auth issues and validates the HS256 bearer tokens that identify
// the requesting user. The token subject is the user id.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token type constants for the typ claim. Refresh tokens are minted by the
// identity service and are never accepted on API requests.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// AccessTokenExpiry is the lifetime of tokens minted by GenerateAccessToken.
const AccessTokenExpiry = 15 * time.Minute

// DefaultLeeway is the clock skew tolerated during validation.
const DefaultLeeway = 30 * time.Second

var (
	// ErrInvalidToken is returned when token validation fails.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken is returned when the token has expired.
	ErrExpiredToken = errors.New("token has expired")
	// ErrWrongTokenType is returned when a refresh token is presented as an access token.
	ErrWrongTokenType = errors.New("wrong token type")
	// ErrEmptyUserID is returned when userID is empty.
	ErrEmptyUserID = errors.New("userID cannot be empty")
)

// Claims represents the JWT claims issued by this service.
type Claims struct {
	jwt.RegisteredClaims
	Type string `json:"typ"`
}

// Option configures a JWTService.
type Option func(*JWTService)

// WithLeeway overrides DefaultLeeway.
func WithLeeway(d time.Duration) Option {
	return func(s *JWTService) { s.leeway = d }
}

// WithPreviousSecret accepts tokens signed with a retired secret during rotation.
// An empty secret is ignored.
func WithPreviousSecret(secret string) Option {
	return func(s *JWTService) {
		if secret != "" {
			s.previousSecret = []byte(secret)
		}
	}
}

// JWTService handles JWT token operations.
// Tokens are signed with currentSecret and validated against currentSecret,
// then previousSecret when one is configured.
type JWTService struct {
	currentSecret  []byte
	previousSecret []byte
	leeway         time.Duration
	now            func() time.Time
}

// NewJWTService creates a JWTService signing with secret.
func NewJWTService(secret string, opts ...Option) *JWTService {
	s := &JWTService{
		currentSecret: []byte(secret),
		leeway:        DefaultLeeway,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GenerateAccessToken creates an access token whose subject is userID.
func (s *JWTService) GenerateAccessToken(userID string) (string, error) {
	if userID == "" {
		return "", ErrEmptyUserID
	}
	now := s.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(AccessTokenExpiry)),
		},
		Type: TokenTypeAccess,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.currentSecret)
}

// ValidateToken parses and validates a token, returning its claims.
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	claims, err := s.parse(tokenString, s.currentSecret)
	if err != nil && s.previousSecret != nil && !errors.Is(err, jwt.ErrTokenExpired) {
		claims, err = s.parse(tokenString, s.previousSecret)
	}
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ValidateAccessToken validates an access token and returns its subject.
func (s *JWTService) ValidateAccessToken(tokenString string) (string, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return "", err
	}
	if claims.Type != TokenTypeAccess {
		return "", ErrWrongTokenType
	}
	if claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

func (s *JWTService) parse(tokenString string, secret []byte) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, ErrInvalidToken
		}
		return secret, nil
	},
		jwt.WithLeeway(s.leeway),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
