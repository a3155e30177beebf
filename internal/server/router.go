// Package server is the thin HTTP boundary over the auth core: cookie
// handling, form trimming, status mapping, and redirects. It renders no HTML;
// protected views return plain JSON for whatever front end sits above.
package server

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	accessctl "session-gate/internal/access"
	adminservice "session-gate/internal/admin/service"
	authservice "session-gate/internal/auth/service"
)

// tokenCookie is the session cookie name. The token inside is the only
// client-held credential.
const tokenCookie = "token"

// Pinger reports storage readiness for /healthz (e.g. *sql.DB).
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Deps holds the core services the HTTP layer delegates to.
type Deps struct {
	Auth     *authservice.AuthService
	Admin    *adminservice.Service
	Resolver *accessctl.Resolver
	Guard    *accessctl.Guard
	// DB is used by /healthz; may be nil.
	DB Pinger
	// SessionTTL bounds the cookie Max-Age; the store enforces real expiry.
	SessionTTL time.Duration
	// CookieSecure marks the session cookie Secure; set behind TLS.
	CookieSecure bool
}

// NewRouter builds the gin engine with all routes wired.
func NewRouter(deps Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	h := &handlers{deps: deps}

	r.GET("/", h.index)
	r.GET("/healthz", h.healthz)

	r.GET("/login", func(c *gin.Context) { c.Redirect(302, "/") })
	r.POST("/login", h.login)
	r.POST("/register", h.register)
	r.POST("/logout", h.logout)

	authed := r.Group("/", requireAuth(deps.Resolver, deps.CookieSecure))
	authed.GET("/user", h.userView)

	admin := authed.Group("/admin", requireAdmin(deps.Guard, deps.CookieSecure))
	admin.GET("", h.adminView)
	admin.POST("/terminate", h.adminTerminate)
	admin.POST("/toggle-role", h.adminToggleRole)

	return r
}

// clearTokenCookie wipes the session cookie on the client.
func clearTokenCookie(c *gin.Context, secure bool) {
	c.SetCookie(tokenCookie, "", -1, "/", "", secure, true)
}
