// Package token issues and validates stateless, signed, time-bounded identity tokens.
//
// Tokens are HS256 JWTs carrying the subject, role, issued-at, expiry and a random
// token id. Validation needs nothing but the token text, the current time and the
// process-wide secret.
package token

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"authgate/internal/domain"
)

// MinSecretLength is the shortest signing secret NewCodec accepts (HS256 key size).
const MinSecretLength = 32

var signingMethod = jwt.SigningMethodHS256

// Claims is the JWT payload. exp is whole seconds rounded up; ExpiresAtNano
// carries the exact expiry and is what Validate enforces when present.
type Claims struct {
	Role          domain.Role `json:"role"`
	ExpiresAtNano int64       `json:"exp_ns,omitempty"`
	jwt.RegisteredClaims
}

// Token is an issued bearer token together with the claims it encodes.
type Token struct {
	Value     string
	ID        string
	Subject   string
	Role      domain.Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Principal is the identity proven by a valid token.
type Principal struct {
	Subject   string
	Role      domain.Role
	ExpiresAt time.Time
}

type Option func(*Codec)

// WithIssuer stamps tokens with iss and requires it on validation.
func WithIssuer(issuer string) Option {
	return func(c *Codec) {
		c.issuer = strings.TrimSpace(issuer)
	}
}

// Codec is immutable after construction and safe for concurrent use.
type Codec struct {
	secret []byte
	ttl    time.Duration
	issuer string
}

func NewCodec(secret []byte, ttl time.Duration, opts ...Option) (*Codec, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("signing secret must be at least %d bytes", MinSecretLength)
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("token ttl must be positive, got %s", ttl)
	}

	c := &Codec{
		secret: append([]byte(nil), secret...),
		ttl:    ttl,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// TTL returns the lifetime given to every issued token.
func (c *Codec) TTL() time.Duration { return c.ttl }

// Issue signs a token for subject valid from now for exactly the codec TTL.
func (c *Codec) Issue(subject string, role domain.Role, now time.Time) (Token, error) {
	if strings.TrimSpace(subject) == "" {
		return Token{}, errors.New("token subject is required")
	}
	if _, err := domain.ParseRole(string(role)); err != nil {
		return Token{}, err
	}

	issuedAt := now.UTC()
	expiresAt := issuedAt.Add(c.ttl)
	id := uuid.NewString()

	claims := Claims{
		Role:          role,
		ExpiresAtNano: expiresAt.UnixNano(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id,
			Issuer:    c.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(ceilSecond(expiresAt)),
		},
	}

	signed, err := jwt.NewWithClaims(signingMethod, claims).SignedString(c.secret)
	if err != nil {
		return Token{}, fmt.Errorf("sign token: %w", err)
	}

	return Token{
		Value:     signed,
		ID:        id,
		Subject:   subject,
		Role:      role,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}, nil
}

// Validate checks integrity first and only then decodes and trusts the claims.
// Every failure is a *RejectedError.
func (c *Codec) Validate(tokenText string, now time.Time) (Principal, error) {
	cut := strings.LastIndexByte(tokenText, '.')
	if cut < 0 {
		return Principal{}, rejected(ReasonMalformed, jwt.ErrTokenMalformed)
	}

	if err := c.verifySignature(tokenText[:cut], tokenText[cut+1:]); err != nil {
		return Principal{}, rejected(ReasonInvalidSignature, err)
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
	}
	if c.issuer != "" {
		opts = append(opts, jwt.WithIssuer(c.issuer))
	}

	var claims Claims
	if _, err := jwt.NewParser(opts...).ParseWithClaims(tokenText, &claims, c.key); err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return Principal{}, rejected(ReasonExpired, err)
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return Principal{}, rejected(ReasonInvalidSignature, err)
		default:
			return Principal{}, rejected(ReasonMalformed, err)
		}
	}

	if strings.TrimSpace(claims.Subject) == "" {
		return Principal{}, rejected(ReasonMalformed, fmt.Errorf("%w: sub", jwt.ErrTokenRequiredClaimMissing))
	}
	role, err := domain.ParseRole(string(claims.Role))
	if err != nil {
		return Principal{}, rejected(ReasonMalformed, err)
	}

	expiresAt, err := exactExpiry(claims)
	if err != nil {
		return Principal{}, rejected(ReasonMalformed, err)
	}
	if !now.Before(expiresAt) {
		return Principal{}, rejected(ReasonExpired, jwt.ErrTokenExpired)
	}

	return Principal{
		Subject:   claims.Subject,
		Role:      role,
		ExpiresAt: expiresAt,
	}, nil
}

// exactExpiry prefers exp_ns, which must round up to exp. Tokens without it
// expire at exp.
func exactExpiry(claims Claims) (time.Time, error) {
	exp := claims.ExpiresAt.Time.UTC()
	if claims.ExpiresAtNano == 0 {
		return exp, nil
	}
	exact := time.Unix(0, claims.ExpiresAtNano).UTC()
	if !ceilSecond(exact).Equal(exp) {
		return time.Time{}, fmt.Errorf("%w: exp_ns does not match exp", jwt.ErrTokenInvalidClaims)
	}
	return exact, nil
}

func ceilSecond(t time.Time) time.Time {
	whole := t.Truncate(time.Second)
	if whole.Before(t) {
		return whole.Add(time.Second)
	}
	return whole
}

func (c *Codec) key(t *jwt.Token) (any, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
	}
	return c.secret, nil
}

// verifySignature recomputes the HMAC over the raw signing input and compares it
// in constant time; hmac.Equal is used by SigningMethodHMAC.Verify.
func (c *Codec) verifySignature(signingInput, encodedSig string) error {
	sig, err := base64.RawURLEncoding.Strict().DecodeString(encodedSig)
	if err != nil {
		return fmt.Errorf("%w: decode signature: %v", jwt.ErrTokenSignatureInvalid, err)
	}
	if err := signingMethod.Verify(signingInput, sig, c.secret); err != nil {
		return fmt.Errorf("%w: %v", jwt.ErrTokenSignatureInvalid, err)
	}
	return nil
}
