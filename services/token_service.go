package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/roadassist/roadassist-api/config"
	"github.com/roadassist/roadassist-api/models"
)

// Claims are the JWT claims carried by every issued access token
type Claims struct {
	UserID uint        `json:"uid"`
	Role   models.Role `json:"role"`
	jwt.RegisteredClaims
}

// TokenService issues and parses HS256 access tokens
type TokenService struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

var tokenServiceInstance *TokenService

// InitTokenService initializes the token service from the loaded config
func InitTokenService(cfg *config.Config) *TokenService {
	tokenServiceInstance = &TokenService{
		secret: []byte(cfg.JWTSecret),
		issuer: cfg.JWTIssuer,
		ttl:    time.Duration(cfg.JWTTTLMinutes) * time.Minute,
	}
	return tokenServiceInstance
}

// GetTokenService returns the initialized token service instance
func GetTokenService() *TokenService {
	return tokenServiceInstance
}

// SetTokenService sets the token service instance (primarily for testing)
func SetTokenService(s *TokenService) {
	tokenServiceInstance = s
}

// NewTokenService constructs a token service directly (used by tests)
func NewTokenService(secret, issuer string, ttl time.Duration) *TokenService {
	return &TokenService{secret: []byte(secret), issuer: issuer, ttl: ttl}
}

// Issue mints a signed access token for the given principal
func (s *TokenService) Issue(userID uint, role models.Role) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Parse validates a token string and returns its claims
func (s *TokenService) Parse(tokenStr string) (*Claims, error) {
	t, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithIssuer(s.issuer), jwt.WithLeeway(60*time.Second))
	if err != nil {
		return nil, err
	}
	if claims, ok := t.Claims.(*Claims); ok && t.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}
