package mockapi

import (
	"bytes"
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

var (
	ErrMissingBearer   = errors.New("missing bearer token")
	ErrInvalidToken    = errors.New("invalid token")
	ErrInvalidSeedSize = errors.New("invalid ed25519 seed size")
)

const DefaultTokenTTL = 12 * time.Hour

type Claims struct {
	Subject   string `json:"sub"`
	TenantID  string `json:"tenant_id"`
	Role      string `json:"role"`
	ExpiresAt int64  `json:"exp"`
}

// Signer issues and verifies bearer tokens of the form
// base64url(claims) "." base64url(ed25519(sha256(claims))).
type Signer struct {
	priv ed25519.PrivateKey
	pub  ed25519.PublicKey
	ttl  time.Duration
	now  func() time.Time
}

// NewSigner derives the signing key from a 32-byte seed.
func NewSigner(seed []byte, ttl time.Duration) (*Signer, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, ErrInvalidSeedSize
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	priv := ed25519.NewKeyFromSeed(seed)
	return &Signer{
		priv: priv,
		pub:  priv.Public().(ed25519.PublicKey),
		ttl:  ttl,
		now:  time.Now,
	}, nil
}

func (s *Signer) Issue(user User) (string, error) {
	claims := Claims{
		Subject:   user.ID,
		TenantID:  user.TenantID,
		Role:      user.Role,
		ExpiresAt: s.now().Add(s.ttl).Unix(),
	}
	body, err := json.Marshal(claims)
	if err != nil {
		return "", err
	}
	digest := sha256.Sum256(body)
	sig := ed25519.Sign(s.priv, digest[:])
	enc := base64.RawURLEncoding
	return enc.EncodeToString(body) + "." + enc.EncodeToString(sig), nil
}

func (s *Signer) Verify(token string) (Claims, error) {
	head, tail, ok := strings.Cut(token, ".")
	if !ok {
		return Claims{}, ErrInvalidToken
	}
	enc := base64.RawURLEncoding
	body, err := enc.DecodeString(head)
	if err != nil {
		return Claims{}, ErrInvalidToken
	}
	sig, err := enc.DecodeString(tail)
	if err != nil {
		return Claims{}, ErrInvalidToken
	}
	digest := sha256.Sum256(body)
	if !ed25519.Verify(s.pub, digest[:], sig) {
		return Claims{}, ErrInvalidToken
	}

	var claims Claims
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&claims); err != nil {
		return Claims{}, ErrInvalidToken
	}
	if claims.Subject == "" || s.now().Unix() >= claims.ExpiresAt {
		return Claims{}, ErrInvalidToken
	}
	return claims, nil
}

func extractBearer(header string) (string, error) {
	if header == "" {
		return "", ErrMissingBearer
	}
	if !strings.HasPrefix(header, "Bearer ") {
		return "", ErrMissingBearer
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		return "", ErrMissingBearer
	}
	return token, nil
}
