package adminapi

import (
	"errors"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// claims carries the admin operator's identity in a signed token.
type claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

func signingKey() []byte {
	key := os.Getenv("ADMIN_JWT_SECRET")
	if key == "" {
		key = "dev-only-insecure-secret"
	}
	return []byte(key)
}

// issueToken signs a 12-hour bearer token for username.
func issueToken(username, role string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Username: username,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(12 * time.Hour)),
		},
	})
	return token.SignedString(signingKey())
}

func parseToken(tokenString string) (*claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &claims{}, func(t *jwt.Token) (interface{}, error) {
		return signingKey(), nil
	})
	if err != nil {
		return nil, err
	}
	c, ok := parsed.Claims.(*claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token")
	}
	return c, nil
}

// requireBearer rejects any request without a valid admin bearer
// token, mirroring the X-API-Key fallback the teacher's gateway
// offers: an ADMIN_API_KEY env var satisfies auth without a login
// round trip, useful for scripted operators.
func requireBearer() gin.HandlerFunc {
	apiKey := os.Getenv("ADMIN_API_KEY")
	return func(c *gin.Context) {
		if apiKey != "" && c.GetHeader("X-API-Key") == apiKey {
			c.Set("username", "api-key-operator")
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			token := strings.TrimPrefix(authHeader, "Bearer ")
			if cl, err := parseToken(token); err == nil {
				c.Set("username", cl.Username)
				c.Set("role", cl.Role)
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	}
}
