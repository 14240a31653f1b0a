package gateway

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"

	"github.com/awnumar/memguard"
	"github.com/gin-gonic/gin"
)

// secretGuard holds the admin bearer secret in guarded memory for the
// life of the gateway. The plaintext only ever exists transiently inside
// authMiddleware, for the span of one constant-time comparison.
type secretGuard struct {
	enclave *memguard.Enclave
}

func newSecretGuard(secret string) (*secretGuard, error) {
	if secret == "" {
		return nil, fmt.Errorf("gateway: empty admin secret")
	}
	enclave := memguard.NewEnclave([]byte(secret))
	if enclave == nil {
		return nil, fmt.Errorf("gateway: failed to seal admin secret")
	}
	return &secretGuard{enclave: enclave}, nil
}

func (g *secretGuard) matches(candidate string) bool {
	buf, err := g.enclave.Open()
	if err != nil {
		return false
	}
	defer buf.Destroy()
	return subtle.ConstantTimeCompare(buf.Bytes(), []byte(candidate)) == 1
}

// authMiddleware requires a valid "Authorization: Bearer <secret>" header
// on every route it guards. /health is mounted outside this middleware's
// group per the gateway contract.
func authMiddleware(guard *secretGuard) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearerToken(c)
		if token == "" || !guard.matches(token) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}

func extractBearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
