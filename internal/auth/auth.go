// Package auth gates the portal behind admin/employee logins and throttles
// searches per session.
package auth

import (
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
)

const sessionName = "searchdeck"

// Role is what a logged-in session is allowed to do.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleEmployee Role = "employee"
)

// ErrBadCredentials is returned for any failed login attempt; it carries no
// hint about which half was wrong.
var ErrBadCredentials = errors.New("invalid username or password")

// Accounts holds the two fixed logins, loaded from the environment.
type Accounts struct {
	AdminUser    string
	AdminPass    string
	EmployeeUser string
	EmployeePass string
}

// Manager owns the cookie session store and the per-session limiters.
type Manager struct {
	store    *sessions.CookieStore
	accounts Accounts
	limits   *limiterPool
}

// New builds a manager with the given session secret. perMinute and burst
// configure the per-session search rate limit.
func New(secret []byte, accounts Accounts, perMinute, burst int) *Manager {
	store := sessions.NewCookieStore(secret)
	store.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return &Manager{
		store:    store,
		accounts: accounts,
		limits:   newLimiterPool(perMinute, burst),
	}
}

func match(user, pass, wantUser, wantPass string) bool {
	if wantUser == "" {
		return false
	}
	u := subtle.ConstantTimeCompare([]byte(user), []byte(wantUser))
	p := subtle.ConstantTimeCompare([]byte(pass), []byte(wantPass))
	return u == 1 && p == 1
}

// Authenticate checks a username/password against the configured accounts.
func (m *Manager) Authenticate(user, pass string) (Role, error) {
	switch {
	case match(user, pass, m.accounts.AdminUser, m.accounts.AdminPass):
		return RoleAdmin, nil
	case match(user, pass, m.accounts.EmployeeUser, m.accounts.EmployeePass):
		return RoleEmployee, nil
	}
	return "", ErrBadCredentials
}

// Login authenticates and, on success, stores the role in the session and
// resets the session's rate limit.
func (m *Manager) Login(w http.ResponseWriter, r *http.Request, user, pass string) (Role, error) {
	role, err := m.Authenticate(user, pass)
	if err != nil {
		return "", err
	}
	session, _ := m.store.Get(r, sessionName)
	session.Values["role"] = string(role)
	session.Values["user"] = user
	id := uuid.NewString()
	session.Values["rate_id"] = id
	m.limits.Reset(limitKey(id))
	if err := session.Save(r, w); err != nil {
		return "", err
	}
	return role, nil
}

// Logout drops the session.
func (m *Manager) Logout(w http.ResponseWriter, r *http.Request) error {
	session, _ := m.store.Get(r, sessionName)
	session.Options.MaxAge = -1
	return session.Save(r, w)
}

// Role returns the request's role, if logged in.
func (m *Manager) Role(r *http.Request) (Role, bool) {
	session, err := m.store.Get(r, sessionName)
	if err != nil {
		return "", false
	}
	s, ok := session.Values["role"].(string)
	if !ok || s == "" {
		return "", false
	}
	return Role(s), true
}

// RateKey derives the session's rate-limit key, minting and persisting a
// session id for anonymous visitors on first use.
func (m *Manager) RateKey(w http.ResponseWriter, r *http.Request) string {
	session, _ := m.store.Get(r, sessionName)
	id, ok := session.Values["rate_id"].(string)
	if !ok || id == "" {
		id = uuid.NewString()
		session.Values["rate_id"] = id
		_ = session.Save(r, w)
	}
	return limitKey(id)
}

func limitKey(id string) string { return "session:" + id }

// Allow reports whether the keyed session may issue another search now.
func (m *Manager) Allow(key string) bool {
	return m.limits.Allow(key)
}
