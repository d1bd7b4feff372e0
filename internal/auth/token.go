package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenService mints the per-connection session token echoed in WELCOME.
type TokenService struct{ hmac []byte }

func NewTokenService(secret string) *TokenService { return &TokenService{hmac: []byte(secret)} }

type SessionClaims struct {
	Sub    string `json:"sub"` // playerId
	ConnID string `json:"cid"`
	jwt.RegisteredClaims
}

func (a *TokenService) IssueSessionToken(playerID, connID string) (string, error) {
	now := time.Now()
	claims := &SessionClaims{
		Sub:    playerID,
		ConnID: connID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "algoarena",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(8 * time.Hour)),
			// Fresh token per HELLO even within the same second.
			ID: uuid.NewString(),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(a.hmac)
}

func (a *TokenService) Parse(tokenStr string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &SessionClaims{}, func(t *jwt.Token) (interface{}, error) {
		return a.hmac, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenUnverifiable
	}
	c, _ := token.Claims.(*SessionClaims)
	return c, nil
}
