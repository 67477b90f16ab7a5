// Package auth implements the stateless token provider. Tokens are
// self-contained HS256 JWTs carrying the user's email as subject; validation
// needs only the signing secret and the current time, never a store lookup.
// That trades revocability for the ability of any node holding the secret to
// validate any token.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMalformed means the token could not be parsed into the expected
	// structure at all.
	ErrMalformed = errors.New("auth: malformed token")
	// ErrInvalidSignature means the token parsed but the signature does not
	// verify against the configured secret.
	ErrInvalidSignature = errors.New("auth: invalid signature")
	// ErrExpired means the signature verified but the expiry claim is in
	// the past.
	ErrExpired = errors.New("auth: token expired")
)

// Claims extends the registered claim set; the subject carries the email.
type Claims struct {
	jwt.RegisteredClaims
}

// Provider issues and validates tokens. The clock is injectable so expiry
// behavior is testable without waiting real time.
type Provider struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewProvider builds a Provider. A nil now defaults to time.Now.
func NewProvider(secret []byte, ttl time.Duration, now func() time.Time) *Provider {
	if now == nil {
		now = time.Now
	}
	return &Provider{secret: secret, ttl: ttl, now: now}
}

// Issue signs a token whose subject is the given email, expiring one TTL
// from now. It persists nothing.
func (p *Provider) Issue(email string) (string, time.Time, error) {
	issued := p.now().UTC()
	exp := issued.Add(p.ttl)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})
	signed, err := t.SignedString(p.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Validate verifies signature and expiry and returns the subject email.
// Failures are reported as exactly one of ErrMalformed, ErrInvalidSignature
// or ErrExpired.
func (p *Provider) Validate(raw string) (string, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidSignature
		}
		return p.secret, nil
	}, jwt.WithTimeFunc(p.now))
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return "", ErrExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return "", ErrInvalidSignature
		case errors.Is(err, ErrInvalidSignature):
			return "", ErrInvalidSignature
		default:
			return "", ErrMalformed
		}
	}
	if !tok.Valid {
		return "", ErrInvalidSignature
	}
	return claims.Subject, nil
}
