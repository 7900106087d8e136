package tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	DefaultAccessTTL = 30 * time.Minute
	RefreshTTL       = 7 * 24 * time.Hour
)

var ErrWeakSecret = errors.New("signing secret must be at least 32 bytes")

// Codec signs and verifies session tokens. It is immutable after construction
// and safe for concurrent use.
type Codec struct {
	secret    []byte
	method    jwt.SigningMethod
	accessTTL time.Duration
	now       func() time.Time
}

func NewCodec(secret []byte, algorithm string, accessTTL time.Duration) (*Codec, error) {
	if len(secret) < 32 {
		return nil, ErrWeakSecret
	}
	if algorithm == "" {
		algorithm = jwt.SigningMethodHS256.Alg()
	}
	method, ok := jwt.GetSigningMethod(algorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("unsupported signing algorithm %q", algorithm)
	}
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTTL
	}

	return &Codec{
		secret:    append([]byte(nil), secret...),
		method:    method,
		accessTTL: accessTTL,
		now:       time.Now,
	}, nil
}

func (c *Codec) AccessTTL() time.Duration { return c.accessTTL }

func (c *Codec) IssueAccess(subject string) (string, error) {
	return c.issue(subject, KindAccess, c.accessTTL)
}

func (c *Codec) IssueAccessWithTTL(subject string, ttl time.Duration) (string, error) {
	return c.issue(subject, KindAccess, ttl)
}

func (c *Codec) IssueRefresh(subject string) (string, error) {
	return c.issue(subject, KindRefresh, RefreshTTL)
}

func (c *Codec) issue(subject string, kind Kind, ttl time.Duration) (string, error) {
	now := c.now()
	claims := Claims{
		Type: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}

	token, err := jwt.NewWithClaims(c.method, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", kind, err)
	}
	return token, nil
}

// Verify returns the claims of a validly signed, unexpired token of the
// expected kind, or nil. The reason for a rejection is deliberately not exposed.
func (c *Codec) Verify(token string, expected Kind) *Claims {
	if token == "" {
		return nil
	}

	var claims Claims
	tkn, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != c.method.Alg() {
			return nil, errors.New("unexpected sign method")
		}
		return c.secret, nil
	},
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil || !tkn.Valid {
		return nil
	}
	if claims.Type != KindAccess && claims.Type != KindRefresh {
		return nil
	}
	if expected != KindAny && claims.Type != expected {
		return nil
	}
	if claims.Subject == "" {
		return nil
	}
	return &claims
}
