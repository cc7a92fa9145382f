package main

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	jwtExpiry        = 12 * time.Hour
	bcryptCost       = 12
	loginRateWindow  = 60 * time.Second
	maxLoginAttempts = 10
	jwtSecretKey     = "admin_jwt_secret"
	adminSubject     = "admin"
)

var (
	ErrBadCredentials = errors.New("invalid password")
	ErrLoginRate      = errors.New("too many login attempts, try again later")
	ErrInvalidToken   = errors.New("invalid token")
)

// AdminAuth guards the admin API with a single bcrypt-hashed password and
// short-lived HS256 tokens.
type AdminAuth struct {
	passHash  []byte
	jwtSecret []byte

	// Rate limiting for login attempts (IP -> attempts)
	rateMu  sync.Mutex
	rateMap map[string]*rateEntry
}

type rateEntry struct {
	Count   int
	ResetAt time.Time
}

// NewAdminAuth hashes the configured password. Returns nil when no password
// is set, which disables the admin API.
func NewAdminAuth(db *DB, password string, cost int) (*AdminAuth, error) {
	if password == "" {
		return nil, nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return nil, fmt.Errorf("hash admin password: %w", err)
	}
	return &AdminAuth{
		passHash:  hash,
		jwtSecret: loadOrCreateSecret(db),
		rateMap:   make(map[string]*rateEntry),
	}, nil
}

// loadOrCreateSecret loads the JWT secret from the database, or generates
// and persists a new one if none exists.
func loadOrCreateSecret(db *DB) []byte {
	if h, err := db.GetSetting(jwtSecretKey); err == nil && h != "" {
		if b, err := hex.DecodeString(h); err == nil && len(b) == 32 {
			return b
		}
	}
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		panic("failed to generate JWT secret: " + err.Error())
	}
	if err := db.SetSetting(jwtSecretKey, hex.EncodeToString(secret)); err != nil {
		log.Printf("auth: could not persist JWT secret: %v", err)
	}
	return secret
}

// Login checks the admin password and returns a signed token
func (a *AdminAuth) Login(password, ip string) (string, error) {
	if !a.checkRate(ip) {
		return "", ErrLoginRate
	}
	if err := bcrypt.CompareHashAndPassword(a.passHash, []byte(password)); err != nil {
		return "", ErrBadCredentials
	}
	return a.generateToken()
}

// ValidateToken accepts only unexpired admin tokens signed with our secret
func (a *AdminAuth) ValidateToken(tokenStr string) error {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return a.jwtSecret, nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return ErrInvalidToken
	}
	if sub, _ := claims["sub"].(string); sub != adminSubject {
		return ErrInvalidToken
	}
	return nil
}

func (a *AdminAuth) generateToken() (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": adminSubject,
		"exp": now.Add(jwtExpiry).Unix(),
		"iat": now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.jwtSecret)
}

func (a *AdminAuth) checkRate(ip string) bool {
	a.rateMu.Lock()
	defer a.rateMu.Unlock()

	now := time.Now()
	entry, ok := a.rateMap[ip]
	if !ok || now.After(entry.ResetAt) {
		a.rateMap[ip] = &rateEntry{Count: 1, ResetAt: now.Add(loginRateWindow)}
		return true
	}
	entry.Count++
	return entry.Count <= maxLoginAttempts
}
