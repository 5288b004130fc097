// internal/interfaces/http/middleware/session.go
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/your-org/studio-storefront/internal/config"
)

// SessionCookie is the cookie holding the visitor's session id
const SessionCookie = "session_id"

const sessionKey = "session_id"

// Session assigns every visitor a session id cookie. Carts, pending orders
// and intake answers are keyed by it.
func Session(cfg *config.Config) gin.HandlerFunc {
	maxAge := int(cfg.Security.SessionCookieTTL.Seconds())

	return func(c *gin.Context) {
		sessionID, err := c.Cookie(SessionCookie)
		if err != nil || !validSessionID(sessionID) {
			sessionID = uuid.New().String()
		}

		// Refresh the cookie so active visitors keep their cart
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(SessionCookie, sessionID, maxAge, "/", "", cfg.Security.CookieSecure, true)
		c.Set(sessionKey, sessionID)

		c.Next()
	}
}

// GetSessionID extracts the session id from gin context
func GetSessionID(c *gin.Context) string {
	return c.GetString(sessionKey)
}

func validSessionID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
