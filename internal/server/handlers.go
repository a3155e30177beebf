package server

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	accessctl "session-gate/internal/access"
	accountdomain "session-gate/internal/account/domain"
	accountrepo "session-gate/internal/account/repository"
	authservice "session-gate/internal/auth/service"
)

type handlers struct {
	deps Deps
}

func (h *handlers) index(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "get started"})
}

func (h *handlers) healthz(c *gin.Context) {
	if h.deps.DB != nil {
		if err := h.deps.DB.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db unreachable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// login verifies credentials, issues the session cookie, and redirects by
// role: admins to the admin panel, everyone else to the user view.
func (h *handlers) login(c *gin.Context) {
	username := field(c, "username")
	password := field(c, "password")

	res, err := h.deps.Auth.Login(c.Request.Context(), username, password)
	if err != nil {
		switch {
		case errors.Is(err, authservice.ErrUnknownUsername):
			c.JSON(http.StatusNotFound, gin.H{"error": "username not found"})
		case errors.Is(err, authservice.ErrBadPassword):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "incorrect password"})
		default:
			log.Printf("server: login failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		}
		return
	}

	maxAge := int(time.Until(res.ExpiresAt).Seconds())
	c.SetCookie(tokenCookie, res.Token, maxAge, "/", "", h.deps.CookieSecure, true)

	if res.Account.Role == accountdomain.RoleAdmin {
		c.Redirect(http.StatusFound, "/admin")
		return
	}
	c.Redirect(http.StatusFound, "/user")
}

func (h *handlers) register(c *gin.Context) {
	name := field(c, "name")
	username := field(c, "username")
	email := field(c, "email")
	password := field(c, "password")

	acct, err := h.deps.Auth.Register(c.Request.Context(), name, username, email, password)
	if err != nil {
		switch {
		case errors.Is(err, accountrepo.ErrDuplicateUsername):
			c.JSON(http.StatusConflict, gin.H{"error": "username already taken"})
		case errors.Is(err, accountrepo.ErrDuplicateEmail):
			c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
		case errors.Is(err, accountdomain.ErrInvalidAccount):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, authservice.ErrIntegrity):
			log.Printf("server: FATAL registration integrity failure: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
		default:
			log.Printf("server: register failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":       acct.ID,
		"username": acct.Username,
		"role":     acct.Role,
	})
}

// logout destroys the session and clears the cookie. Always succeeds from
// the client's point of view, whether or not a session matched.
func (h *handlers) logout(c *gin.Context) {
	token, _ := c.Cookie(tokenCookie)
	h.deps.Auth.Logout(c.Request.Context(), token)
	clearTokenCookie(c, h.deps.CookieSecure)
	c.Redirect(http.StatusFound, "/")
}

func (h *handlers) userView(c *gin.Context) {
	acct, ok := accessctl.AccountFrom(c.Request.Context())
	if !ok {
		c.Redirect(http.StatusFound, "/login")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"name":     acct.Name,
		"username": acct.Username,
		"role":     acct.Role,
	})
}

func (h *handlers) adminView(c *gin.Context) {
	list, err := h.deps.Admin.ListSessions(c.Request.Context())
	if err != nil {
		log.Printf("server: list sessions failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list sessions"})
		return
	}

	rows := make([]gin.H, 0, len(list))
	for _, sa := range list {
		rows = append(rows, gin.H{
			"sessionId":  sa.ID,
			"username":   sa.Account.Username,
			"role":       sa.Account.Role,
			"loggedInAt": sa.LoggedInAt,
			"expiresAt":  sa.ExpiresAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"sessions": rows})
}

// adminTerminate deletes the named session and returns to the admin view
// whether or not anything matched.
func (h *handlers) adminTerminate(c *gin.Context) {
	sessionID := field(c, "sessionId")
	actor, _ := accessctl.AccountFrom(c.Request.Context())

	if err := h.deps.Admin.TerminateSession(c.Request.Context(), actorID(actor), sessionID); err != nil {
		log.Printf("server: terminate session failed: %v", err)
	}
	c.Redirect(http.StatusFound, "/admin")
}

func (h *handlers) adminToggleRole(c *gin.Context) {
	accountID := field(c, "accountId")
	claimed := accountdomain.Role(field(c, "currentRole"))
	actor, _ := accessctl.AccountFrom(c.Request.Context())

	_, err := h.deps.Admin.ToggleRole(c.Request.Context(), actorID(actor), accountID, claimed)
	if err != nil {
		if errors.Is(err, accountrepo.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "account not found"})
			return
		}
		log.Printf("server: toggle role failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "toggle failed"})
		return
	}
	c.Redirect(http.StatusFound, "/admin")
}

// field reads a form value with leading/trailing whitespace removed. Trimming
// raw input before it reaches the core is this layer's job.
func field(c *gin.Context, name string) string {
	return strings.TrimSpace(c.PostForm(name))
}

func actorID(a *accountdomain.Account) string {
	if a == nil {
		return ""
	}
	return a.ID
}
