package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	accessctl "session-gate/internal/access"
	accountdomain "session-gate/internal/account/domain"
)

// resolveTimeout bounds token resolution; past it the request is treated as
// unauthenticated rather than left hanging on a slow store.
const resolveTimeout = 3 * time.Second

// requireAuth resolves the session cookie and attaches the account to the
// request context. Anything short of Authenticated clears the cookie and
// redirects to login; store failures fail safe the same way. secure must
// match the flag the cookie was issued with.
func requireAuth(resolver *accessctl.Resolver, secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(tokenCookie)
		if err != nil || token == "" {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), resolveTimeout)
		defer cancel()

		out, err := resolver.Resolve(ctx, token)
		if err != nil {
			log.Printf("server: token resolution failed: %v", err)
		}
		if out.State != accessctl.Authenticated {
			clearTokenCookie(c, secure)
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}

		c.Request = c.Request.WithContext(accessctl.WithAccount(c.Request.Context(), out.Account))
		c.Next()
	}
}

// requireAdmin gates the admin surface. A non-admin presenting a valid
// session gets its cookie wiped and lands on the public entry point; an admin
// cookie on a non-admin account is not to be trusted.
func requireAdmin(guard *accessctl.Guard, secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		acct, ok := accessctl.AccountFrom(c.Request.Context())
		if !ok {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}
		if err := guard.RequireRole(c.Request.Context(), acct, accountdomain.RoleAdmin); err != nil {
			if errors.Is(err, accessctl.ErrForbidden) {
				clearTokenCookie(c, secure)
				c.Redirect(http.StatusFound, "/")
				c.Abort()
				return
			}
			log.Printf("server: role guard failed: %v", err)
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		c.Next()
	}
}
