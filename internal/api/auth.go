package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	tokenContextKey = "AuthToken"
	userContextKey  = "UserID"
)

// RequireAuth rejects requests without a bearer token before any upstream
// call is attempted. The token is NOT validated here — the trading backend
// owns verification and answers 401 on bad tokens; this gate only guarantees
// a credential is present and well-formed.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":  "MISSING_TOKEN",
				"error": "missing Authorization header",
			})
			return
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":  "INVALID_AUTH_HEADER",
				"error": "invalid Authorization header",
			})
			return
		}

		c.Set(tokenContextKey, parts[1])
		if sub := tokenSubject(parts[1]); sub != "" {
			c.Set(userContextKey, sub)
		}
		c.Next()
	}
}

// Token returns the bearer token carried by the request, if any.
func Token(c *gin.Context) string {
	return c.GetString(tokenContextKey)
}

// tokenSubject peeks at the JWT subject claim without verifying the
// signature. Used only to enrich request logs; never for authorization.
func tokenSubject(token string) string {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return ""
	}
	sub, err := parsed.Claims.GetSubject()
	if err != nil {
		return ""
	}
	return sub
}
