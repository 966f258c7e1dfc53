package security

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/rsa"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken is returned when a token is malformed or invalid.
	ErrInvalidToken = errors.New("invalid token")
)

// Identity is the set of claims embedded in both access and refresh tokens.
// SessionVersion ties the token to the per-(user,platform) session row; a
// mismatch means the session has been re-established since issuance.
type Identity struct {
	UserID         string
	Email          string
	Role           string
	TenantID       string
	Platform       string
	SessionID      string
	SessionVersion int64
}

// Claims holds the JWT claims for access and refresh tokens.
type Claims struct {
	jwt.RegisteredClaims
	Email          string `json:"email"`
	Role           string `json:"role"`
	TenantID       string `json:"tenant_id,omitempty"`
	Platform       string `json:"platform"`
	SessionID      string `json:"session_id,omitempty"`
	SessionVersion int64  `json:"session_version"`
}

// Identity reconstructs the Identity carried by the claims.
func (c *Claims) Identity() Identity {
	return Identity{
		UserID:         c.Subject,
		Email:          c.Email,
		Role:           c.Role,
		TenantID:       c.TenantID,
		Platform:       c.Platform,
		SessionID:      c.SessionID,
		SessionVersion: c.SessionVersion,
	}
}

// TokenProvider issues and validates JWT access and refresh tokens using RS256 or ES256 (private/public key).
type TokenProvider struct {
	privateKey crypto.Signer
	publicKey  crypto.PublicKey
	issuer     string
	audience   string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenProvider returns a TokenProvider that signs with the given private key (RS256 or ES256).
// issuer and audience are set on claims and validated on every parse.
func NewTokenProvider(privateKey crypto.Signer, publicKey crypto.PublicKey, issuer, audience string, accessTTL, refreshTTL time.Duration) *TokenProvider {
	return &TokenProvider{
		privateKey: privateKey,
		publicKey:  publicKey,
		issuer:     issuer,
		audience:   audience,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// IssueAccess issues a short-lived access JWT carrying the identity.
// Returns the token string, its jti, and expiration time.
func (p *TokenProvider) IssueAccess(id Identity) (token string, jti string, expiresAt time.Time, err error) {
	return p.issue(id, p.accessTTL)
}

// IssueRefresh issues a long-lived refresh JWT carrying the same identity claims.
// The caller stores a hash of the token on the session for exact-match checks.
func (p *TokenProvider) IssueRefresh(id Identity) (token string, jti string, expiresAt time.Time, err error) {
	return p.issue(id, p.refreshTTL)
}

func (p *TokenProvider) issue(id Identity, ttl time.Duration) (string, string, time.Time, error) {
	jti, err := generateJTI()
	if err != nil {
		return "", "", time.Time{}, err
	}
	now := time.Now().UTC()
	expiresAt := now.Add(ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   id.UserID,
			Issuer:    p.issuer,
			Audience:  jwt.ClaimStrings{p.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Email:          id.Email,
		Role:           id.Role,
		TenantID:       id.TenantID,
		Platform:       id.Platform,
		SessionID:      id.SessionID,
		SessionVersion: id.SessionVersion,
	}
	token, err := p.sign(claims)
	return token, jti, expiresAt, err
}

func (p *TokenProvider) sign(claims jwt.Claims) (string, error) {
	var method jwt.SigningMethod
	switch p.privateKey.Public().(type) {
	case *rsa.PublicKey:
		method = jwt.SigningMethodRS256
	case *ecdsa.PublicKey:
		method = jwt.SigningMethodES256
	default:
		return "", ErrInvalidToken
	}
	t := jwt.NewWithClaims(method, claims)
	return t.SignedString(p.privateKey)
}

// Validate parses and validates a token (signature, exp, iss, aud) and
// returns its claims. Used for both access and refresh tokens.
func (p *TokenProvider) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); ok {
			return p.publicKey, nil
		}
		if _, ok := token.Method.(*jwt.SigningMethodECDSA); ok {
			return p.publicKey, nil
		}
		return nil, ErrInvalidToken
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Issuer != p.issuer {
		return nil, ErrInvalidToken
	}
	audOk := false
	for _, a := range claims.Audience {
		if a == p.audience {
			audOk = true
			break
		}
	}
	if !audOk {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func generateJTI() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
