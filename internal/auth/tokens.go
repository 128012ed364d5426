package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidToken    = errors.New("invalid or expired token")
	ErrInvalidPassword = errors.New("invalid email or password")
)

const (
	audienceAccess = "access"
	audienceFile   = "file"
)

// Claims is what an access token asserts about its bearer.
type Claims struct {
	UserID string
	Role   string
}

// Tokens issues and verifies HS256 tokens for API access and signed file
// downloads. The two never verify as each other.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokens uses secret, or a random per-process secret when it is empty.
func NewTokens(secret string, ttl time.Duration) (*Tokens, error) {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("generate jwt secret: %w", err)
		}
		key = []byte(hex.EncodeToString(key))
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Tokens{secret: key, ttl: ttl, now: time.Now}, nil
}

// Issue returns a signed access token and its expiry.
func (t *Tokens) Issue(userID, role string) (string, time.Time, error) {
	now := t.now()
	exp := now.Add(t.ttl)
	claims := jwt.MapClaims{
		"sub":  userID,
		"role": role,
		"aud":  audienceAccess,
		"iat":  now.Unix(),
		"exp":  exp.Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign access token: %w", err)
	}
	return signed, exp, nil
}

// Parse verifies an access token.
func (t *Tokens) Parse(tokenString string) (Claims, error) {
	claims, err := t.parse(tokenString, audienceAccess)
	if err != nil {
		return Claims{}, err
	}
	userID, _ := claims["sub"].(string)
	if userID == "" {
		return Claims{}, ErrInvalidToken
	}
	role, _ := claims["role"].(string)
	return Claims{UserID: userID, Role: role}, nil
}

// SignPath returns a token granting download access to path until ttl passes.
func (t *Tokens) SignPath(path string, ttl time.Duration) (string, error) {
	now := t.now()
	claims := jwt.MapClaims{
		"path": path,
		"aud":  audienceFile,
		"iat":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign file token: %w", err)
	}
	return signed, nil
}

// VerifyPath reports whether token grants access to path.
func (t *Tokens) VerifyPath(tokenString, path string) error {
	claims, err := t.parse(tokenString, audienceFile)
	if err != nil {
		return err
	}
	if granted, _ := claims["path"].(string); granted != path {
		return ErrInvalidToken
	}
	return nil
}

func (t *Tokens) parse(tokenString, audience string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return t.secret, nil
	}, jwt.WithAudience(audience), jwt.WithTimeFunc(t.now), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

func CheckPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidPassword
	}
	return nil
}
