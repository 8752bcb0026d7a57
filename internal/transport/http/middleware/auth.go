package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ErlanBelekov/account-model/internal/reqctx"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	errUnauthorized = "Unauthorized"
	errForbidden    = "Forbidden"
)

// SubjectKey is the gin context key holding the authenticated username.
const SubjectKey = "username"

// Auth validates an HS256 Bearer JWT and stores its "sub" claim as the
// caller's username in both the gin and request contexts.
func Auth(jwtKey []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errUnauthorized})
			return
		}

		rawToken := strings.TrimPrefix(header, "Bearer ")

		token, err := jwt.Parse(rawToken, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return jwtKey, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errUnauthorized})
			return
		}

		sub, err := token.Claims.GetSubject()
		if err != nil || sub == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errUnauthorized})
			return
		}

		c.Set(SubjectKey, sub)
		c.Request = c.Request.WithContext(reqctx.WithUsername(c.Request.Context(), sub))
		c.Next()
	}
}

// RequireSelf runs after Auth and rejects requests whose :username path
// parameter is not the authenticated subject.
func RequireSelf() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Param("username") != c.GetString(SubjectKey) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": errForbidden})
			return
		}
		c.Next()
	}
}
