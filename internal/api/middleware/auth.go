package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/GodfreyNjoro/dawacare-pharmacy-system-sub003/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const actorKey = "actor"

// AuthClaims is the token payload issued at login and parsed on every
// authenticated request.
type AuthClaims struct {
	UserID   int64  `json:"user_id"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	BranchID int64  `json:"branch_id"`
	jwt.RegisteredClaims
}

// IssueToken signs a token for an authenticated user.
func IssueToken(secret string, actor domain.Actor, ttl time.Duration) (string, error) {
	claims := AuthClaims{
		UserID:   actor.ID,
		Name:     actor.Name,
		Role:     actor.Role,
		BranchID: actor.BranchID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// Auth validates the bearer token and stores the caller's Actor on the
// request context.
func Auth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		token, err := jwt.ParseWithClaims(tokenString, &AuthClaims{}, func(token *jwt.Token) (interface{}, error) {
			if token.Method != jwt.SigningMethodHS256 {
				return nil, errors.New("unexpected signing method")
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		claims, ok := token.Claims.(*AuthClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token claims"})
			return
		}

		c.Set(actorKey, domain.Actor{
			ID:       claims.UserID,
			Name:     claims.Name,
			Role:     claims.Role,
			BranchID: claims.BranchID,
		})
		c.Next()
	}
}

// DeviceAuth authenticates the sync endpoints. Desktop agents present a
// shared device token instead of a user JWT; a valid user token also
// passes so an online client can sync under its own identity.
func DeviceAuth(secret, deviceToken string) gin.HandlerFunc {
	userAuth := Auth(secret)
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if ok && deviceToken != "" && token == deviceToken {
			c.Set(actorKey, domain.Actor{
				Name: "sync-device",
				Role: domain.RoleDevice,
			})
			c.Next()
			return
		}
		userAuth(c)
	}
}

// Actor returns the authenticated caller set by Auth or DeviceAuth.
func Actor(c *gin.Context) (domain.Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return domain.Actor{}, false
	}
	actor, ok := v.(domain.Actor)
	return actor, ok
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return "", false
	}
	return strings.TrimSpace(header[len("Bearer "):]), true
}
