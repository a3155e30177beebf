package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	accessctl "session-gate/internal/access"
	accountdomain "session-gate/internal/account/domain"
	accountrepo "session-gate/internal/account/repository"
	adminservice "session-gate/internal/admin/service"
	authservice "session-gate/internal/auth/service"
	credentialdomain "session-gate/internal/credential/domain"
	"session-gate/internal/security"
	sessiondomain "session-gate/internal/session/domain"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// memStore backs every repository interface the HTTP stack needs.
type memStore struct {
	mu         sync.Mutex
	byID       map[string]*accountdomain.Account
	byUsername map[string]*accountdomain.Account
	byEmail    map[string]*accountdomain.Account
	creds      map[string]*credentialdomain.Credential
	sessions   map[string]*sessiondomain.Session
}

func newMemStore() *memStore {
	return &memStore{
		byID:       map[string]*accountdomain.Account{},
		byUsername: map[string]*accountdomain.Account{},
		byEmail:    map[string]*accountdomain.Account{},
		creds:      map[string]*credentialdomain.Credential{},
		sessions:   map[string]*sessiondomain.Session{},
	}
}

func (s *memStore) GetByUsername(ctx context.Context, username string) (*accountdomain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.byUsername[username], nil
}

func (s *memStore) GetByID(ctx context.Context, id string) (*accountdomain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.byID[id], nil
}

func (s *memStore) CreateWithCredential(ctx context.Context, a *accountdomain.Account, c *credentialdomain.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byUsername[a.Username]; ok {
		return accountrepo.ErrDuplicateUsername
	}
	if _, ok := s.byEmail[a.Email]; ok {
		return accountrepo.ErrDuplicateEmail
	}
	a2 := *a
	s.byID[a.ID] = &a2
	s.byUsername[a.Username] = &a2
	s.byEmail[a.Email] = &a2
	c2 := *c
	s.creds[c.AccountID] = &c2
	return nil
}

func (s *memStore) SetRole(ctx context.Context, id string, role accountdomain.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byID[id]
	if !ok {
		return accountrepo.ErrNotFound
	}
	a.Role = role
	return nil
}

func (s *memStore) GetByAccount(ctx context.Context, accountID string) (*credentialdomain.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creds[accountID], nil
}

func (s *memStore) Replace(ctx context.Context, sess *sessiondomain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for tok, existing := range s.sessions {
		if existing.AccountID == sess.AccountID {
			delete(s.sessions, tok)
		}
	}
	s2 := *sess
	s.sessions[sess.Token] = &s2
	return nil
}

func (s *memStore) DeleteByToken(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}

func (s *memStore) DeleteByID(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for tok, sess := range s.sessions {
		if sess.ID == id {
			delete(s.sessions, tok)
		}
	}
	return nil
}

func (s *memStore) GetByToken(ctx context.Context, token string, now time.Time) (*sessiondomain.WithAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.sessions[token]
	if sess == nil || !sess.Live(now) {
		return nil, nil
	}
	acct := s.byID[sess.AccountID]
	if acct == nil {
		return nil, nil
	}
	return &sessiondomain.WithAccount{Session: *sess, Account: *acct}, nil
}

func (s *memStore) ListAll(ctx context.Context) ([]*sessiondomain.WithAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*sessiondomain.WithAccount, 0, len(s.sessions))
	for _, sess := range s.sessions {
		acct := s.byID[sess.AccountID]
		if acct == nil {
			continue
		}
		out = append(out, &sessiondomain.WithAccount{Session: *sess, Account: *acct})
	}
	return out, nil
}

func newTestRouter(t *testing.T) (*gin.Engine, *memStore) {
	t.Helper()
	store := newMemStore()
	return buildRouter(t, store, false), store
}

func buildRouter(t *testing.T, store *memStore, cookieSecure bool) *gin.Engine {
	t.Helper()
	hasher := security.NewHasher(bcrypt.MinCost)
	auth := authservice.NewAuthService(store, store, store, hasher, time.Hour, nil, nil)
	admin := adminservice.NewService(store, store, nil)
	guard, err := accessctl.NewGuard(context.Background())
	if err != nil {
		t.Fatalf("NewGuard: %v", err)
	}
	return NewRouter(Deps{
		Auth:         auth,
		Admin:        admin,
		Resolver:     accessctl.NewResolver(store),
		Guard:        guard,
		SessionTTL:   time.Hour,
		CookieSecure: cookieSecure,
	})
}

func seedAccount(t *testing.T, store *memStore, username, password string, role accountdomain.Role) *accountdomain.Account {
	t.Helper()
	hash, err := security.NewHasher(bcrypt.MinCost).Hash([]byte(password))
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	now := time.Now().UTC()
	acct := &accountdomain.Account{
		ID: "id-" + username, Name: "Test " + username, Username: username,
		Email: username + "@x.com", Role: role, CreatedAt: now, UpdatedAt: now,
	}
	cred := &credentialdomain.Credential{ID: "c-" + username, AccountID: acct.ID, PasswordHash: hash, CreatedAt: now}
	if err := store.CreateWithCredential(context.Background(), acct, cred); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return acct
}

func postForm(router *gin.Engine, path string, form url.Values, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func get(router *gin.Engine, path string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == "token" {
			return c
		}
	}
	t.Fatal("no token cookie in response")
	return nil
}

func TestLoginSetsCookieAndRedirectsByRole(t *testing.T) {
	router, store := newTestRouter(t)
	seedAccount(t, store, "alice1", "secret12", accountdomain.RoleUser)
	seedAccount(t, store, "root1", "secret12", accountdomain.RoleAdmin)

	w := postForm(router, "/login", url.Values{"username": {"alice1"}, "password": {"secret12"}}, nil)
	if w.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/user" {
		t.Errorf("redirect = %q, want /user", loc)
	}
	c := sessionCookie(t, w)
	if c.Value == "" || !c.HttpOnly {
		t.Errorf("cookie = %+v, want non-empty HttpOnly token", c)
	}
	if c.MaxAge <= 0 || c.MaxAge > int(time.Hour.Seconds()) {
		t.Errorf("cookie Max-Age = %d, want within session TTL", c.MaxAge)
	}

	w = postForm(router, "/login", url.Values{"username": {"root1"}, "password": {"secret12"}}, nil)
	if loc := w.Header().Get("Location"); loc != "/admin" {
		t.Errorf("admin redirect = %q, want /admin", loc)
	}
}

func TestLoginTrimsFormInput(t *testing.T) {
	router, store := newTestRouter(t)
	seedAccount(t, store, "alice1", "secret12", accountdomain.RoleUser)

	w := postForm(router, "/login", url.Values{"username": {"  alice1  "}, "password": {"secret12"}}, nil)
	if w.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302 for trimmed username", w.Code)
	}
}

func TestLoginFailureStatuses(t *testing.T) {
	router, store := newTestRouter(t)
	seedAccount(t, store, "alice1", "secret12", accountdomain.RoleUser)

	w := postForm(router, "/login", url.Values{"username": {"nobody"}, "password": {"x"}}, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown username status = %d, want 404", w.Code)
	}
	w = postForm(router, "/login", url.Values{"username": {"alice1"}, "password": {"wrong"}}, nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong password status = %d, want 401", w.Code)
	}
}

func TestRegisterEndpoint(t *testing.T) {
	router, store := newTestRouter(t)
	form := url.Values{
		"name": {"Alice"}, "username": {"alice1"},
		"email": {"a@x.com"}, "password": {"secret12"},
	}

	w := postForm(router, "/register", form, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201; body: %s", w.Code, w.Body.String())
	}
	var body struct {
		Username string `json:"username"`
		Role     string `json:"role"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Username != "alice1" || body.Role != string(accountdomain.RoleUser) {
		t.Errorf("body = %+v, want alice1/user", body)
	}

	if w := postForm(router, "/register", form, nil); w.Code != http.StatusConflict {
		t.Errorf("duplicate register status = %d, want 409", w.Code)
	}

	sameEmail := url.Values{
		"name": {"Mallory"}, "username": {"mallory1"},
		"email": {"a@x.com"}, "password": {"secret12"},
	}
	if w := postForm(router, "/register", sameEmail, nil); w.Code != http.StatusConflict {
		t.Errorf("duplicate email register status = %d, want 409", w.Code)
	}
	if _, ok := store.byUsername["mallory1"]; ok {
		t.Error("duplicate-email registration must not persist an account")
	}

	bad := url.Values{"name": {"Al"}, "username": {"ab"}, "email": {"b@x.com"}, "password": {"secret12"}}
	if w := postForm(router, "/register", bad, nil); w.Code != http.StatusBadRequest {
		t.Errorf("invalid register status = %d, want 400", w.Code)
	}
}

func TestUserViewRequiresSession(t *testing.T) {
	router, store := newTestRouter(t)
	seedAccount(t, store, "alice1", "secret12", accountdomain.RoleUser)

	w := get(router, "/user", nil)
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/login" {
		t.Errorf("no-cookie: status=%d loc=%q, want 302 /login", w.Code, w.Header().Get("Location"))
	}

	w = get(router, "/user", &http.Cookie{Name: "token", Value: "bogus"})
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/login" {
		t.Errorf("bad token: status=%d loc=%q, want 302 /login", w.Code, w.Header().Get("Location"))
	}
	if c := sessionCookie(t, w); c.MaxAge >= 0 || c.Value != "" {
		t.Errorf("bad token should clear the cookie, got %+v", c)
	}

	login := postForm(router, "/login", url.Values{"username": {"alice1"}, "password": {"secret12"}}, nil)
	w = get(router, "/user", sessionCookie(t, login))
	if w.Code != http.StatusOK {
		t.Fatalf("authed /user status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "alice1") {
		t.Errorf("body = %s, want username present", w.Body.String())
	}
}

func TestAdminSurfaceClearsNonAdminCookie(t *testing.T) {
	router, store := newTestRouter(t)
	seedAccount(t, store, "alice1", "secret12", accountdomain.RoleUser)

	login := postForm(router, "/login", url.Values{"username": {"alice1"}, "password": {"secret12"}}, nil)
	w := get(router, "/admin", sessionCookie(t, login))
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/" {
		t.Fatalf("status=%d loc=%q, want 302 /", w.Code, w.Header().Get("Location"))
	}
	if c := sessionCookie(t, w); c.MaxAge >= 0 || c.Value != "" {
		t.Errorf("non-admin on /admin should have its cookie wiped, got %+v", c)
	}
}

func TestAdminPanelFlow(t *testing.T) {
	router, store := newTestRouter(t)
	alice := seedAccount(t, store, "alice1", "secret12", accountdomain.RoleUser)
	seedAccount(t, store, "root1", "secret12", accountdomain.RoleAdmin)

	aliceLogin := postForm(router, "/login", url.Values{"username": {"alice1"}, "password": {"secret12"}}, nil)
	adminLogin := postForm(router, "/login", url.Values{"username": {"root1"}, "password": {"secret12"}}, nil)
	adminCookie := sessionCookie(t, adminLogin)

	w := get(router, "/admin", adminCookie)
	if w.Code != http.StatusOK {
		t.Fatalf("/admin status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "alice1") {
		t.Errorf("admin view should list alice's session, body: %s", w.Body.String())
	}

	// Terminate alice's session; her cookie stops working.
	var aliceSessionID string
	for _, sess := range store.sessions {
		if sess.AccountID == alice.ID {
			aliceSessionID = sess.ID
		}
	}
	w = postForm(router, "/admin/terminate", url.Values{"sessionId": {aliceSessionID}}, adminCookie)
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/admin" {
		t.Fatalf("terminate: status=%d loc=%q, want 302 /admin", w.Code, w.Header().Get("Location"))
	}
	w = get(router, "/user", sessionCookie(t, aliceLogin))
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/login" {
		t.Errorf("terminated session should be refused, status=%d loc=%q", w.Code, w.Header().Get("Location"))
	}

	// Promote alice.
	w = postForm(router, "/admin/toggle-role", url.Values{"accountId": {alice.ID}, "currentRole": {"user"}}, adminCookie)
	if w.Code != http.StatusFound {
		t.Fatalf("toggle: status = %d, want 302", w.Code)
	}
	if got := store.byID[alice.ID].Role; got != accountdomain.RoleAdmin {
		t.Errorf("alice role = %q, want admin", got)
	}

	w = postForm(router, "/admin/toggle-role", url.Values{"accountId": {"missing"}}, adminCookie)
	if w.Code != http.StatusNotFound {
		t.Errorf("toggle unknown account status = %d, want 404", w.Code)
	}
}

func TestLogoutClearsCookieAndSession(t *testing.T) {
	router, store := newTestRouter(t)
	seedAccount(t, store, "alice1", "secret12", accountdomain.RoleUser)

	login := postForm(router, "/login", url.Values{"username": {"alice1"}, "password": {"secret12"}}, nil)
	cookie := sessionCookie(t, login)

	w := postForm(router, "/logout", nil, cookie)
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/" {
		t.Fatalf("logout: status=%d loc=%q, want 302 /", w.Code, w.Header().Get("Location"))
	}
	if c := sessionCookie(t, w); c.MaxAge >= 0 || c.Value != "" {
		t.Errorf("logout should clear the cookie, got %+v", c)
	}
	if len(store.sessions) != 0 {
		t.Error("logout should remove the stored session")
	}

	// Logging out again with the dead cookie is still a clean redirect.
	if w := postForm(router, "/logout", nil, cookie); w.Code != http.StatusFound {
		t.Errorf("repeat logout status = %d, want 302", w.Code)
	}
}

func TestCookieSecureFlagMatchesIssue(t *testing.T) {
	store := newMemStore()
	router := buildRouter(t, store, true)
	seedAccount(t, store, "alice1", "secret12", accountdomain.RoleUser)

	login := postForm(router, "/login", url.Values{"username": {"alice1"}, "password": {"secret12"}}, nil)
	if c := sessionCookie(t, login); !c.Secure {
		t.Error("issued cookie should be Secure when configured")
	}

	// Every wipe path must carry the same Secure flag as issuance.
	w := get(router, "/user", &http.Cookie{Name: "token", Value: "bogus"})
	if c := sessionCookie(t, w); !c.Secure {
		t.Error("auth-middleware wipe should keep the Secure flag")
	}

	w = get(router, "/admin", sessionCookie(t, login))
	if c := sessionCookie(t, w); !c.Secure {
		t.Error("admin-gate wipe should keep the Secure flag")
	}
}

func TestHealthz(t *testing.T) {
	router, _ := newTestRouter(t)
	if w := get(router, "/healthz", nil); w.Code != http.StatusOK {
		t.Errorf("healthz status = %d, want 200", w.Code)
	}
}
