package usecase

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// AuthUsecase validates and issues the access tokens the mobile app sends.
// Users are owned by the identity provider; this service only trusts the user_id claim.
type AuthUsecase interface {
	ValidateToken(tokenString string) (userID string, err error)
	// GenerateAccessToken signs a token with the shared secret. The server only
	// issues tokens through the -issue-token flag.
	GenerateAccessToken(userID string) (string, error)
}

type authUsecase struct {
	secret []byte
	expiry time.Duration
	now    func() time.Time
}

func NewAuthUsecase(secret string, expiry time.Duration) AuthUsecase {
	return &authUsecase{
		secret: []byte(secret),
		expiry: expiry,
		now:    time.Now,
	}
}

func (u *authUsecase) GenerateAccessToken(userID string) (string, error) {
	if userID == "" {
		return "", errors.New("user id is required")
	}
	now := u.now()
	claims := jwt.MapClaims{
		"user_id": userID,
		"iat":     now.Unix(),
		"exp":     now.Add(u.expiry).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(u.secret)
}

func (u *authUsecase) ValidateToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return u.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(u.now),
	)
	if err != nil || !token.Valid {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("%w: invalid token claims", ErrInvalidToken)
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return "", fmt.Errorf("%w: missing user_id claim", ErrInvalidToken)
	}
	return userID, nil
}
