package auth

import (
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	// Load env file into environments.
	_ "github.com/joho/godotenv/autoload"
)

// JwtIssuer is the issuer every accepted access token must carry.
const JwtIssuer = "UniJobBoard"

// AccessTokenTTL is how long a freshly issued access token stays valid.
const AccessTokenTTL = time.Hour

// SecretKey signs and verifies access tokens.
var SecretKey = os.Getenv("SECRET_KEY")

// GenerateToken signs an access token whose subject is the profile id.
func GenerateToken(profileID uuid.UUID) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    JwtIssuer,
		Subject:   profileID.String(),
		ExpiresAt: jwt.NewNumericDate(now.Add(AccessTokenTTL)),
		IssuedAt:  jwt.NewNumericDate(now),
	})

	signed, err := token.SignedString([]byte(SecretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidatedToken parses encodeToken into registered claims and checks its HMAC signature.
func ValidatedToken(encodeToken string) (*jwt.Token, error) {
	return jwt.ParseWithClaims(encodeToken, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, isvalid := token.Method.(*jwt.SigningMethodHMAC); !isvalid {
			return nil, fmt.Errorf("invalid signing method %v", token.Header["alg"])
		}
		return []byte(SecretKey), nil
	})
}
