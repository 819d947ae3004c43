package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"filevault/internal/server/services"
)

const (
	accessCookieName  = "access_token"
	refreshCookieName = "refresh_token"

	// The refresh cookie only travels to the endpoints that consume it.
	accessCookiePath  = "/api"
	refreshCookiePath = "/api/session/manage"
)

// setSessionCookies installs both credentials as HttpOnly cookies. Clients
// that prefer headers can ignore them; the same tokens are in the body.
func setSessionCookies(c *gin.Context, pair *services.TokenPair, accessTTL, refreshTTL time.Duration) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(accessCookieName, pair.AccessToken, int(accessTTL.Seconds()), accessCookiePath, "", false, true)
	c.SetCookie(refreshCookieName, pair.RefreshToken, int(refreshTTL.Seconds()), refreshCookiePath, "", false, true)
}

func clearSessionCookies(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(accessCookieName, "", -1, accessCookiePath, "", false, true)
	c.SetCookie(refreshCookieName, "", -1, refreshCookiePath, "", false, true)
}

// accessTokenFrom pulls the access token from the Authorization header or,
// failing that, the session cookie. An empty result means the request is
// anonymous.
func accessTokenFrom(c *gin.Context) string {
	const bearerPrefix = "Bearer "
	if h := c.GetHeader("Authorization"); len(h) > len(bearerPrefix) && h[:len(bearerPrefix)] == bearerPrefix {
		return h[len(bearerPrefix):]
	}
	if v, err := c.Cookie(accessCookieName); err == nil {
		return v
	}
	return ""
}

// refreshTokenFrom prefers the scoped cookie, falling back to the request
// body for header-based clients.
func refreshTokenFrom(c *gin.Context, bodyToken string) string {
	if v, err := c.Cookie(refreshCookieName); err == nil && v != "" {
		return v
	}
	return bodyToken
}
