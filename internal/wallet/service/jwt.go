package service

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"subvault/pkg/pda"
)

type JWTManager struct {
	SecretKey string
}

func NewJWTManager(secret string) *JWTManager {
	return &JWTManager{
		SecretKey: secret,
	}
}

func (j *JWTManager) Generate(wallet pda.Address) (string, error) {
	claims := jwt.MapClaims{
		"sub": wallet.String(),
		"exp": time.Now().Add(24 * time.Hour).Unix(),
		"iat": time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString([]byte(j.SecretKey))
}
