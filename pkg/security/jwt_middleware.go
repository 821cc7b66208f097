package security

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"

	"assetdesk/pkg/apperrors"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// jwtSecret resolves the signing key on use rather than at import, so the
// package stays importable without JWT_SECRET in the environment; only token
// issuance and validation need the key.
func jwtSecret() ([]byte, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, errors.New("JWT_SECRET environment variable is not set")
	}
	return []byte(secret), nil
}

// JWTMiddleware validates the bearer token and extracts claims. Token
// issuance lives in the surrounding auth service, not here.
func JWTMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		secret, err := jwtSecret()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Server configuration error"})
			c.Abort()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header missing"})
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method")
			}
			return secret, nil
		})

		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}

		claims := token.Claims.(jwt.MapClaims)
		c.Set("userID", claims["userID"])
		c.Set("role", claims["role"])
		c.Next()
	}
}

// ActorID resolves the authenticated user id from the gin context.
func ActorID(c *gin.Context) (int, error) {
	raw, exists := c.Get("userID")
	if !exists {
		return 0, apperrors.ErrUnauthorized
	}

	switch v := raw.(type) {
	case string:
		id, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("userID claim is not numeric: %w", err)
		}
		return id, nil
	case float64:
		return int(v), nil
	case int:
		return v, nil
	default:
		return 0, apperrors.ErrUnauthorized
	}
}
