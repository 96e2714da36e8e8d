// Package recovery issues and verifies password recovery tokens.
//
// A token is an HS256 JWT naming the principal and carrying a fingerprint of
// the credential it was issued against, so it stops working once the password
// changes or the lifetime runs out.
package recovery

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/divawifi/wifi/internal/models"
)

const issuer = "wifi-recovery"

// ErrInvalidToken covers malformed, expired, forged and stale tokens.
var ErrInvalidToken = errors.New("invalid recovery token")

// Claims is the token payload.
type Claims struct {
	Fingerprint string `json:"fp"`
	jwt.RegisteredClaims
}

// PrincipalID parses the subject.
func (c *Claims) PrincipalID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

// Issuer signs and checks tokens.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer creates an issuer. An empty secret generates a random one, which
// invalidates outstanding tokens on restart.
func NewIssuer(secret string, ttl time.Duration) (*Issuer, error) {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("generate recovery secret: %w", err)
		}
	}
	if ttl <= 0 {
		return nil, errors.New("recovery token lifetime must be positive")
	}
	return &Issuer{secret: key, ttl: ttl, now: time.Now}, nil
}

// Fingerprint derives a short digest of the stored credential.
func Fingerprint(auth *models.Auth) string {
	if auth == nil {
		return ""
	}
	sum := sha256.Sum256([]byte(auth.PasswordHash + ":" + auth.PasswordSalt))
	return hex.EncodeToString(sum[:8])
}

// Issue signs a token for principalID bound to fingerprint.
func (i *Issuer) Issue(principalID uuid.UUID, fingerprint string) (string, error) {
	now := i.now()
	claims := Claims{
		Fingerprint: fingerprint,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   principalID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
			ID:        uuid.NewString(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign recovery token: %w", err)
	}
	return signed, nil
}

func (i *Issuer) parse(tokenString string) (*Claims, uuid.UUID, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return i.secret, nil
	}, jwt.WithIssuer(issuer), jwt.WithExpirationRequired(), jwt.WithTimeFunc(i.now))
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	id, err := claims.PrincipalID()
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}
	return claims, id, nil
}

// Subject checks signature, issuer and expiry and returns the principal, so
// the caller can load the current credential before calling Verify.
func (i *Issuer) Subject(tokenString string) (uuid.UUID, error) {
	_, id, err := i.parse(tokenString)
	return id, err
}

// Verify is Subject plus a check that the token was issued against
// currentFingerprint.
func (i *Issuer) Verify(tokenString, currentFingerprint string) (*Claims, error) {
	claims, _, err := i.parse(tokenString)
	if err != nil {
		return nil, err
	}
	if subtle.ConstantTimeCompare([]byte(claims.Fingerprint), []byte(currentFingerprint)) != 1 {
		return nil, fmt.Errorf("%w: credential changed", ErrInvalidToken)
	}
	return claims, nil
}
