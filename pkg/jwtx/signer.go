package jwtx

import (
	"github.com/golang-jwt/jwt/v5"
)

// HS256Signer mints tokens verifiable by HS256Verifier.
type HS256Signer struct {
	secret []byte
}

// NewSignerHS256 returns a signer for secret.
func NewSignerHS256(secret []byte) (*HS256Signer, error) {
	if len(secret) < MinSecretLength {
		return nil, ErrShortSecret
	}
	return &HS256Signer{secret: secret}, nil
}

// Sign serialises claims into a compact JWT.
func (s *HS256Signer) Sign(claims Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}
