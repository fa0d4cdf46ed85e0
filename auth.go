package main

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

func hashPassword(p string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(p), bcrypt.DefaultCost)
	return string(b), err
}

func comparePassword(hash, p string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(p)) == nil
}

type sessionClaims struct {
	jwt.RegisteredClaims
}

// AuthService handles credential registration/verification and issues
// stateless bearer tokens. Token validity is determined entirely by
// signature and expiry; nothing is stored server-side.
type AuthService struct {
	db       DB
	secret   []byte
	tokenTTL time.Duration
}

func NewAuthService(db DB, secret []byte, tokenTTL time.Duration) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = time.Hour
	}
	return &AuthService{db: db, secret: secret, tokenTTL: tokenTTL}
}

// Register stores a new credential. Returns ErrInvalidInput when either
// field is empty and ErrConflict when the username is taken.
func (a *AuthService) Register(username, password string) error {
	if username == "" || password == "" {
		return fmt.Errorf("%w: username and password are required", ErrInvalidInput)
	}
	hashed, err := hashPassword(password)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	if _, err := a.db.CreateUser(username, hashed); err != nil {
		return err
	}
	return nil
}

// Authenticate verifies a credential pair and issues a fresh session
// token. The bcrypt comparison has no early-exit on mismatch position.
func (a *AuthService) Authenticate(username, password string) (string, error) {
	user, err := a.db.GetUserByUsername(username)
	if err != nil {
		return "", err
	}
	if user == nil || !comparePassword(user.PasswordHash, password) {
		return "", ErrInvalidCredentials
	}
	return a.issueToken(username)
}

func (a *AuthService) issueToken(subject string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.tokenTTL)),
		},
	})
	return token.SignedString(a.secret)
}

// Verify checks signature and expiry and returns the token subject.
// Malformed, expired, or unsigned tokens yield ErrUnauthorized.
func (a *AuthService) Verify(tokenString string) (string, error) {
	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil || !token.Valid || claims.Subject == "" {
		return "", ErrUnauthorized
	}
	return claims.Subject, nil
}
