package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type JWTService interface {
	GenerateToken(clientID string) (*string, error)
	ValidateToken(token string) (*string, error)
}

type jwtService struct {
	secretKey           string
	accessTokenDuration time.Duration
}

func NewJWTService(secretKey string, accessTokenDuration time.Duration) JWTService {
	return &jwtService{
		secretKey:           secretKey,
		accessTokenDuration: accessTokenDuration,
	}
}

func (s *jwtService) GenerateToken(clientID string) (*string, error) {
	claims := jwt.MapClaims{
		"client_id": clientID,
		"iat":       time.Now().Unix(),
		"iss":       "mongobridge",
		"exp":       time.Now().Add(s.accessTokenDuration).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.secretKey))
	if err != nil {
		return nil, err
	}
	return &tokenString, nil
}

func (s *jwtService) ValidateToken(tokenString string) (*string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.secretKey), nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		clientID, ok := claims["client_id"].(string)
		if !ok {
			return nil, errors.New("token is missing the client claim")
		}
		expiresAt := int64(claims["exp"].(float64))
		if expiresAt < time.Now().Unix() {
			return nil, errors.New("token has expired")
		}
		return &clientID, nil
	}

	return nil, err
}
