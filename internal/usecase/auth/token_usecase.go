package auth

import (
	"fmt"
	"time"

	"github.com/gdugdh24/guildmatch/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

const issuer = "guildmatch"

// TokenUseCase issues and verifies the HS256 bearer tokens accepted by the
// HTTP API. The subject is the Discord user id.
type TokenUseCase struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenUseCase(secret string, ttl time.Duration) *TokenUseCase {
	return &TokenUseCase{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// TokenResponse represents an issued access token
type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IssueToken signs a token for userID, valid for ttl (or the default ttl when zero).
func (uc *TokenUseCase) IssueToken(userID string, ttl time.Duration) (*TokenResponse, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}
	if ttl <= 0 {
		ttl = uc.ttl
	}
	now := uc.now()
	expiresAt := now.Add(ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID,
		"iss": issuer,
		"exp": expiresAt.Unix(),
		"iat": now.Unix(),
	})

	tokenString, err := token.SignedString(uc.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &TokenResponse{Token: tokenString, ExpiresAt: expiresAt}, nil
}

// VerifyToken verifies JWT token and returns the user id it was issued for
func (uc *TokenUseCase) VerifyToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, domain.ErrInvalidToken
		}
		return uc.secret, nil
	},
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(uc.now),
	)
	if err != nil || !token.Valid {
		return "", domain.ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", domain.ErrInvalidToken
	}

	userID, ok := claims["sub"].(string)
	if !ok || userID == "" {
		return "", domain.ErrInvalidToken
	}

	return userID, nil
}
