package services

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
)

// TokenType distinguishes short-lived access tokens from refresh tokens.
type TokenType string

const (
	AccessToken  TokenType = "access"
	RefreshToken TokenType = "refresh"
)

// TokenClaims is the JWT payload. Subject carries the user id in decimal.
type TokenClaims struct {
	Type TokenType `json:"typ"`
	jwt.StandardClaims
}

// UserID parses the subject claim.
func (c *TokenClaims) UserID() (uint, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid subject %q", c.Subject)
	}
	return uint(id), nil
}

// TokenService issues and verifies HS256-signed tokens.
type TokenService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewTokenService creates a new TokenService.
func NewTokenService(secret string, accessTTL, refreshTTL time.Duration) *TokenService {
	return &TokenService{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// IssueAccess returns a signed access token for userID.
func (s *TokenService) IssueAccess(userID uint) (string, error) {
	return s.issue(userID, AccessToken, s.accessTTL)
}

// IssueRefresh returns a signed refresh token for userID.
func (s *TokenService) IssueRefresh(userID uint) (string, error) {
	return s.issue(userID, RefreshToken, s.refreshTTL)
}

func (s *TokenService) issue(userID uint, typ TokenType, ttl time.Duration) (string, error) {
	now := s.now()
	claims := TokenClaims{
		Type: typ,
		StandardClaims: jwt.StandardClaims{
			Id:        uuid.NewString(),
			Subject:   strconv.FormatUint(uint64(userID), 10),
			IssuedAt:  now.Unix(),
			NotBefore: now.Unix(),
			ExpiresAt: now.Add(ttl).Unix(),
		},
	}

	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", typ, err)
	}
	return tokenString, nil
}

// Parse verifies signature, expiry and type, returning the claims.
func (s *TokenService) Parse(tokenString string, want TokenType) (*TokenClaims, error) {
	claims := &TokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if claims.ExpiresAt == 0 {
		return nil, fmt.Errorf("invalid token: missing expiry")
	}
	if claims.Type != want {
		return nil, fmt.Errorf("invalid token: got %q token, want %q", claims.Type, want)
	}
	return claims, nil
}
