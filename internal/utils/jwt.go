package utils

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidAuthorizationHeader is returned for headers that are not of the
// form "Bearer <token>".
var ErrInvalidAuthorizationHeader = errors.New("invalid authorization header")

// ParseBearerToken extracts the token from an "Authorization: Bearer <token>"
// header value.
func ParseBearerToken(authorizationHeader string) (string, error) {
	parts := strings.Fields(authorizationHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", ErrInvalidAuthorizationHeader
	}
	return parts[1], nil
}

// StripBearer accepts either a raw token or a full "Bearer <token>" value and
// returns the raw token.
func StripBearer(token string) string {
	if t, err := ParseBearerToken(token); err == nil {
		return t
	}
	return strings.TrimSpace(token)
}

// TokenExpired reports whether a JWT carries an exp claim at or before now.
//
// The signature is NOT verified; the client only inspects its own token to
// avoid sending requests the store would reject anyway. Tokens without an exp
// claim never expire. Opaque (non-JWT) tokens return an error and should be
// sent as-is.
func TokenExpired(tokenString string, now time.Time) (bool, error) {
	token, _, err := jwt.NewParser().ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		return false, fmt.Errorf("parse token: %w", err)
	}

	exp, err := token.Claims.GetExpirationTime()
	if err != nil {
		return false, fmt.Errorf("read exp claim: %w", err)
	}
	if exp == nil {
		return false, nil
	}

	return !now.Before(exp.Time), nil
}

// GenerateJWTToken creates an HMAC-SHA256 signed token for subject valid for
// tokenDuration. It is used by tests and local tooling to mint tokens for a
// development document store.
func GenerateJWTToken(issuer, subject string, tokenDuration time.Duration, signKey string) (string, error) {
	if issuer == "" || tokenDuration == 0 || signKey == "" {
		return "", errors.New("invalid params for generating JWT Token")
	}

	now := time.Now()
	claims := &jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(now.Add(tokenDuration)),
		IssuedAt:  jwt.NewNumericDate(now),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(signKey))
	if err != nil {
		return "", fmt.Errorf("error occurred during singing JWT token: %w", err)
	}
	return signed, nil
}
