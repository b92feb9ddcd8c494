// Package auth issues and verifies the JWTs used by the API.
// One Authenticator is shared by the auth service and the JWT middleware.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Token types carried in the "typ" claim.
const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

var (
	ErrInvalidToken = errors.New("token invalido o expirado")
	ErrWrongType    = errors.New("tipo de token incorrecto")
)

// Claims are the custom claims embedded in every token.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Nombre string `json:"nombre"`
	Rol    string `json:"rol"`
	Type   string `json:"typ"`
	jwt.RegisteredClaims
}

// UserUUID parses the subject id. Returns uuid.Nil on malformed tokens.
func (c *Claims) UserUUID() uuid.UUID {
	id, err := uuid.Parse(c.UserID)
	if err != nil {
		return uuid.Nil
	}
	return id
}

// Subject is the user data a token is issued for.
type Subject struct {
	ID     uuid.UUID
	Email  string
	Nombre string
	Rol    string
}

// Pair is an access/refresh token couple.
type Pair struct {
	Access    string
	Refresh   string
	ExpiresIn time.Duration
}

type Authenticator struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewAuthenticator(secret string, accessTTL, refreshTTL time.Duration) *Authenticator {
	return &Authenticator{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// IssuePair signs a fresh access and refresh token for s.
func (a *Authenticator) IssuePair(s Subject) (Pair, error) {
	access, err := a.sign(s, TypeAccess, a.accessTTL)
	if err != nil {
		return Pair{}, err
	}
	refresh, err := a.sign(s, TypeRefresh, a.refreshTTL)
	if err != nil {
		return Pair{}, err
	}
	return Pair{Access: access, Refresh: refresh, ExpiresIn: a.accessTTL}, nil
}

func (a *Authenticator) sign(s Subject, typ string, ttl time.Duration) (string, error) {
	now := a.now()
	claims := Claims{
		UserID: s.ID.String(),
		Email:  s.Email,
		Nombre: s.Nombre,
		Rol:    s.Rol,
		Type:   typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.ID.String(),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// Parse verifies signature, expiry and token type.
func (a *Authenticator) Parse(tokenStr, wantType string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return a.secret, nil
	}, jwt.WithTimeFunc(a.now))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Type != wantType {
		return nil, ErrWrongType
	}
	return claims, nil
}

// ── Passwords ────────────────────────────────────────────────────────────────

const bcryptCost = 12

func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func CheckPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
