// Package auth authenticates usuarios against a local store and issues the
// HS256 bearer tokens the session middleware verifies.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"recorridos/internal/core"
	"recorridos/internal/ports"
)

const issuer = "recorridos"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDisabled    = errors.New("account disabled")
	ErrInvalidToken       = errors.New("invalid token")
)

// Claims are the JWT claims carried by a session token.
type Claims struct {
	jwt.RegisteredClaims
	Email   string `json:"email"`
	IsAdmin bool   `json:"is_admin,omitempty"`
}

type Local struct {
	users  ports.UsuarioFinder
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewLocal(users ports.UsuarioFinder, secret string, ttl time.Duration) *Local {
	return &Local{users: users, secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Login checks email and password and returns a signed token.
func (a *Local) Login(ctx context.Context, email, password string) (ports.Credentials, error) {
	u, err := a.users.FindUsuarioByEmail(ctx, core.CleanString(email, true))
	if errors.Is(err, core.ErrNotFound) {
		return ports.Credentials{}, ErrInvalidCredentials
	}
	if err != nil {
		return ports.Credentials{}, fmt.Errorf("find usuario: %w", err)
	}
	if err := u.CheckPassword(password); err != nil {
		return ports.Credentials{}, ErrInvalidCredentials
	}
	if !u.Activo {
		return ports.Credentials{}, ErrAccountDisabled
	}

	now := a.now()
	exp := now.Add(a.ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   strconv.FormatInt(u.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Email:   u.Email,
		IsAdmin: u.IsAdmin(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return ports.Credentials{}, fmt.Errorf("sign token: %w", err)
	}
	u.PasswordHash = nil
	return ports.Credentials{Token: token, Usuario: u, ExpiresAt: exp}, nil
}

// Parse validates token and returns its claims.
func (a *Local) Parse(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims, nil
}

// Verify implements ports.TokenVerifier.
func (a *Local) Verify(token string) error {
	_, err := a.Parse(token)
	return err
}
