package service

import (
	"bingohall/internal/model"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrMissingToken = errors.New("no token provided")
)

// TokenVerifier turns a bearer token into the identity a connection acts as
type TokenVerifier interface {
	Verify(token string) (*model.Identity, error)
}

// AuthService verifies HS256 tokens issued by the account service
type AuthService struct {
	jwtSecret []byte
	issuer    string
}

func NewAuthService(secret, issuer string) *AuthService {
	return &AuthService{
		jwtSecret: []byte(secret),
		issuer:    issuer,
	}
}

// Verify validates the token and returns its identity
func (s *AuthService) Verify(tokenString string) (*model.Identity, error) {
	if tokenString == "" {
		return nil, ErrMissingToken
	}
	token, err := jwt.ParseWithClaims(tokenString, &model.TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*model.TokenClaims)
	if !ok || !token.Valid || claims.ID == "" {
		return nil, ErrInvalidToken
	}
	return claims.Identity(), nil
}

// IssueToken signs a token for id, for local development and tests.
// An empty id.ID gets a random one.
func (s *AuthService) IssueToken(id model.Identity, ttl time.Duration) (string, error) {
	if id.ID == "" {
		id.ID = uuid.New().String()
	}
	now := time.Now()
	claims := &model.TokenClaims{
		ID:        id.ID,
		Username:  id.Username,
		CreatedAt: now.UTC().Format(time.RFC3339),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if id.Picture != "" {
		claims.Picture = &id.Picture
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}
