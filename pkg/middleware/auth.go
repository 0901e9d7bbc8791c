package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const memberIDKey = "member_id"

// Verifier resolves a bearer credential into a stable member identifier.
// It must never fabricate an identity: an empty or unverifiable credential
// is always an error.
type Verifier interface {
	Verify(credential string) (string, error)
}

// JWTVerifier validates HS256-signed tokens issued by the identity service
// and returns the subject claim.
type JWTVerifier struct {
	Secret string
	Issuer string
}

func (v *JWTVerifier) Verify(credential string) (string, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	}
	if v.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.Issuer))
	}

	token, err := jwt.Parse(credential, func(t *jwt.Token) (interface{}, error) {
		return []byte(v.Secret), nil
	}, opts...)
	if err != nil {
		return "", err
	}

	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", jwt.ErrTokenInvalidSubject
	}

	return sub, nil
}

// Auth authenticates the request and stores the member ID in the gin
// context. Failures are rendered in the award API error shape.
func Auth(verifier Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := extractBearer(c)
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "Unauthorized",
			})
			return
		}

		memberID, err := verifier.Verify(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "Invalid token",
			})
			return
		}

		c.Set(memberIDKey, memberID)
		c.Next()
	}
}

// MemberID returns the authenticated member ID, or "" when the request is
// unauthenticated.
func MemberID(c *gin.Context) string {
	id, _ := c.Get(memberIDKey)
	s, _ := id.(string)
	return s
}

func extractBearer(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}
