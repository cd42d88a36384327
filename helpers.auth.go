package main

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Roles granted by access tokens.
const (
	RoleAdmin     = "Admin"
	RoleUser      = "User"
	RoleLibrarian = "Librarian"
)

var (
	ErrMissingToken = errors.New("auth: missing bearer token")
	ErrInvalidToken = errors.New("auth: invalid token")
)

// AccessClaims are the claims carried by an access token.
type AccessClaims struct {
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// HasAnyRole tells if the claims grant at least one of roles.
func (c *AccessClaims) HasAnyRole(roles ...string) bool {
	for _, granted := range c.Roles {
		for _, role := range roles {
			if strings.EqualFold(granted, role) {
				return true
			}
		}
	}
	return false
}

// TokenValidator checks HS256 signed access tokens.
type TokenValidator struct {
	key     []byte
	options []jwt.ParserOption
}

// NewTokenValidator builds a validator for the configured issuer and audience.
func NewTokenValidator(config *AuthConfig, clock Clocker) *TokenValidator {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(clock.Now),
	}
	if config.Issuer != "" {
		options = append(options, jwt.WithIssuer(config.Issuer))
	}
	if config.Audience != "" {
		options = append(options, jwt.WithAudience(config.Audience))
	}
	return &TokenValidator{key: []byte(config.SigningKey), options: options}
}

// Validate parses the token and returns its claims when the signature,
// expiration, issuer and audience are all valid.
func (tv *TokenValidator) Validate(tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return tv.key, nil
	}, tv.options...)
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// BearerToken extracts the token of the Authorization header.
func BearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", ErrMissingToken
	}
	return strings.TrimSpace(token), nil
}

// NewAccessToken signs an access token for subject carrying roles. The
// service has no issuance endpoint, tokens come from an external provider.
func NewAccessToken(config *AuthConfig, subject string, roles []string, now time.Time, ttl time.Duration) (string, error) {
	claims := AccessClaims{
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    config.Issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if config.Audience != "" {
		claims.Audience = jwt.ClaimStrings{config.Audience}
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(config.SigningKey))
}
