package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/MrSnakeDoc/jbmon/internal/domain"
)

// DefaultTokenTTL is the lifetime of an access token.
const DefaultTokenTTL = 12 * time.Hour

const issuer = "jbmon"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrMissingToken       = errors.New("missing token")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
)

// Claims are the access token claims. The environment is bound at login and
// selects the inventory partition for every later request.
type Claims struct {
	Environment domain.Environment `json:"env"`
	jwt.RegisteredClaims
}

// Identity is the authenticated caller.
type Identity struct {
	Username    string
	Environment domain.Environment
	ExpiresAt   time.Time
}

// Service issues and verifies HS256 access tokens.
type Service struct {
	secret []byte
	ttl    time.Duration
	users  map[domain.Environment]domain.Credentials
	now    func() time.Time
}

// NewService creates a token service. users holds the dashboard credential
// pair of each environment.
func NewService(secret string, ttl time.Duration, users map[domain.Environment]domain.Credentials) *Service {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Service{
		secret: []byte(secret),
		ttl:    ttl,
		users:  users,
		now:    time.Now,
	}
}

// Login checks username and password against env's credential pair and
// returns a signed token.
func (s *Service) Login(username, password string, env domain.Environment) (string, error) {
	want, ok := s.users[env]
	if !ok || !want.IsSet() {
		return "", ErrInvalidCredentials
	}

	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(want.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(want.Password)) == 1
	if !userOK || !passOK {
		return "", ErrInvalidCredentials
	}

	return s.Issue(username, env)
}

// Issue signs a token for username in env.
func (s *Service) Issue(username string, env domain.Environment) (string, error) {
	now := s.now()
	claims := Claims{
		Environment: env,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token.
func (s *Service) Verify(tokenString string) (Identity, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return Identity{}, ErrMissingToken
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, ErrTokenExpired
		}
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if claims.Subject == "" {
		return Identity{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	return Identity{
		Username:    claims.Subject,
		Environment: domain.ParseEnvironment(claims.Environment.String()),
		ExpiresAt:   claims.ExpiresAt.Time,
	}, nil
}

// FromBearer extracts the token from an Authorization header value.
func FromBearer(header string) (string, error) {
	const prefix = "Bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", ErrMissingToken
	}
	return strings.TrimSpace(header[len(prefix):]), nil
}

type identityKey struct{}

// WithIdentity stores id in ctx.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom returns the identity stored by WithIdentity.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}
