// internal/interfaces/http/middleware/relay_secret.go
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/studio-storefront/internal/pkg/auth"
)

// RelaySecretHeader carries the shared secret of server-to-server callers
const RelaySecretHeader = "X-Relay-Secret"

// RelaySecret rejects requests whose X-Relay-Secret does not match the bcrypt
// hash. An empty hash rejects every request.
func RelaySecret(secretHash string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secretHash == "" {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"error": "Endpoint not configured",
			})
			c.Abort()
			return
		}

		secret := c.GetHeader(RelaySecretHeader)
		if secret == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Relay secret required",
			})
			c.Abort()
			return
		}

		if !auth.VerifySecret(secret, secretHash) {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid relay secret",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
