// Package services contains the application services of the Studira client.
// This file defines the auth manager: the single owner of the session
// (user + token + loading flag) and of every operation that mutates it.
package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/studira/studira/internal/client/api"
	"github.com/studira/studira/internal/client/models"
	"github.com/studira/studira/internal/client/repositories/session"
	"github.com/studira/studira/internal/logging"
	"github.com/studira/studira/internal/validatex"
)

// ErrNotAuthenticated is returned by operations that require a stored token
// when the session is anonymous.
var ErrNotAuthenticated = errors.New("not authenticated")

// Session is an immutable snapshot of the auth state handed to observers.
type Session struct {
	User      *models.User
	Token     string
	IsLoading bool
}

// IsAuthenticated is true only when both user and token are present.
// A session with one but not the other fails closed.
func (s Session) IsAuthenticated() bool {
	return s.User != nil && s.Token != ""
}

// Credentials is the login form payload. Login accepts a username or an
// email; the server decides which.
type Credentials struct {
	Login    string `json:"login" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest is the registration form payload.
type RegisterRequest struct {
	Username  string `json:"username" validate:"required,min=3"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`

	DateOfBirth  string   `json:"dateOfBirth,omitempty"`
	Phone        string   `json:"phone,omitempty"`
	Faculty      string   `json:"faculty,omitempty"`
	AcademicYear int      `json:"academicYear,omitempty"`
	Major        string   `json:"major,omitempty"`
	SelectedPlan string   `json:"selectedPlan,omitempty"`
	WeakPoints   []string `json:"weakPoints,omitempty"`
}

type authResponse struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

type userResponse struct {
	User *models.User `json:"user"`
}

// AuthManager owns the in-memory session. All feature code reads the
// session through it and calls its operations to change it; nothing else
// writes the session repository.
//
// Operations that confirm a change with the server persist only after the
// call succeeds, so the stored session never reflects a state the server
// has not acknowledged.
type AuthManager struct {
	mu      sync.RWMutex
	user    *models.User
	token   string
	loading bool

	api   *api.Client
	store session.Repository
	log   logging.Logger

	subMu sync.Mutex
	subs  []func(Session)
}

// NewAuthManager constructs the process-wide auth manager. Exactly one
// instance should exist; consumers receive it by injection.
func NewAuthManager(apiClient *api.Client, store session.Repository, log logging.Logger) *AuthManager {
	return &AuthManager{api: apiClient, store: store, log: log}
}

// Subscribe registers fn to be called with a session snapshot after every
// state change. Callbacks run synchronously on the mutating goroutine.
func (m *AuthManager) Subscribe(fn func(Session)) {
	m.subMu.Lock()
	defer m.subMu.Unlock()
	m.subs = append(m.subs, fn)
}

// Session returns a snapshot of the current state. The user record is
// copied so observers cannot mutate manager state.
func (m *AuthManager) Session() Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshotLocked()
}

// IsAuthenticated reports whether both user and token are present.
func (m *AuthManager) IsAuthenticated() bool {
	return m.Session().IsAuthenticated()
}

func (m *AuthManager) snapshotLocked() Session {
	s := Session{Token: m.token, IsLoading: m.loading}
	if m.user != nil {
		u := *m.user
		s.User = &u
	}
	return s
}

func (m *AuthManager) notify() {
	snap := m.Session()
	m.subMu.Lock()
	subs := make([]func(Session), len(m.subs))
	copy(subs, m.subs)
	m.subMu.Unlock()
	for _, fn := range subs {
		fn(snap)
	}
}

// Restore seeds the session from the repository. It reports whether a
// stored session was found; when it was, the caller should verify it in
// the background (VerifySession) without blocking on the result. No
// network call is made here.
func (m *AuthManager) Restore() bool {
	token, user, ok := m.store.Load()

	m.mu.Lock()
	if ok {
		m.user = user
		m.token = token
	}
	m.mu.Unlock()

	if ok {
		m.notify()
	}
	return ok
}

// VerifySession asks the server whether the stored token is still good and
// refreshes the user record from the server's view of truth. Any failure
// forces a logout: the session is cleared locally before this returns, so
// callers normally just log the error.
func (m *AuthManager) VerifySession(ctx context.Context) error {
	if m.store.Token() == "" {
		return nil
	}

	m.setLoading(true)
	defer m.setLoading(false)

	var resp userResponse
	if err := m.api.Get(ctx, "/auth/me", nil, &resp); err != nil {
		m.log.Warn(ctx, "session verification failed, logging out", "error", err)
		m.clearSession()
		return err
	}

	m.mu.Lock()
	m.user = resp.User
	m.mu.Unlock()
	m.store.SaveUserOnly(resp.User)
	m.notify()
	return nil
}

// Login authenticates with a username-or-email and password. On success
// the new user and token replace the session in memory and on disk; on
// failure the session is left exactly as it was and the error is returned
// for the form to display.
func (m *AuthManager) Login(ctx context.Context, login, password string) error {
	creds := Credentials{Login: login, Password: password}
	if err := validatex.Struct(&creds); err != nil {
		return err
	}

	m.setLoading(true)
	defer m.setLoading(false)

	var resp authResponse
	if err := m.api.Post(ctx, "/auth/login", creds, &resp); err != nil {
		return err
	}

	m.replaceSession(resp.Token, resp.User)
	return nil
}

// Register creates an account. Same success/failure contract as Login.
func (m *AuthManager) Register(ctx context.Context, req RegisterRequest) error {
	if err := validatex.Struct(&req); err != nil {
		return err
	}

	m.setLoading(true)
	defer m.setLoading(false)

	var resp authResponse
	if err := m.api.Post(ctx, "/auth/register", req, &resp); err != nil {
		return err
	}

	m.replaceSession(resp.Token, resp.User)
	return nil
}

// Logout clears the session locally first — memory and storage — and only
// then tells the server, best effort. A failed notification is logged and
// ignored: client-side logout is authoritative and is never reverted.
func (m *AuthManager) Logout(ctx context.Context) {
	m.mu.RLock()
	token := m.token
	m.mu.RUnlock()

	m.clearSession()

	if token == "" {
		return
	}
	if err := m.api.WithToken(token).Post(ctx, "/auth/logout", nil, nil); err != nil {
		m.log.Warn(ctx, "server logout notification failed", "error", err)
	}
}

// UpdateUser merges partial fields into the in-memory and persisted user
// record without any network call. It exists for optimistic updates before
// a server-confirmed save; UpdateProfile is the authoritative counterpart.
func (m *AuthManager) UpdateUser(upd models.UserUpdate) {
	m.mu.Lock()
	if m.user == nil {
		m.mu.Unlock()
		return
	}
	m.user.Apply(upd)
	u := *m.user
	m.mu.Unlock()

	m.store.SaveUserOnly(&u)
	m.notify()
}

// FetchProfile replaces the user record with the server's current view.
// Without a token it is a no-op.
func (m *AuthManager) FetchProfile(ctx context.Context) error {
	if m.store.Token() == "" {
		return nil
	}

	var resp userResponse
	if err := m.api.Get(ctx, "/profile", nil, &resp); err != nil {
		return err
	}

	m.mu.Lock()
	m.user = resp.User
	m.mu.Unlock()
	m.store.SaveUserOnly(resp.User)
	m.notify()
	return nil
}

// UpdateProfile sends partial fields and, on success, replaces the user
// wholesale with the server's returned representation — the server is
// authoritative for the merged result.
func (m *AuthManager) UpdateProfile(ctx context.Context, upd models.UserUpdate) error {
	if m.store.Token() == "" {
		return ErrNotAuthenticated
	}

	var resp userResponse
	if err := m.api.Put(ctx, "/profile", upd, &resp); err != nil {
		return err
	}

	m.mu.Lock()
	m.user = resp.User
	m.mu.Unlock()
	m.store.SaveUserOnly(resp.User)
	m.notify()
	return nil
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8"`
}

// ChangePassword verifies the current password server-side and sets a new
// one. Session state is not touched on success.
func (m *AuthManager) ChangePassword(ctx context.Context, current, newPassword string) error {
	if m.store.Token() == "" {
		return ErrNotAuthenticated
	}

	req := changePasswordRequest{CurrentPassword: current, NewPassword: newPassword}
	if err := validatex.Struct(&req); err != nil {
		return err
	}
	return m.api.Put(ctx, "/profile/password", req, nil)
}

// ExportData downloads the account export and writes it into dir. The
// filename is derived from the username and the current date; it returns
// the full path of the written file.
func (m *AuthManager) ExportData(ctx context.Context, dir string) (string, error) {
	if m.store.Token() == "" {
		return "", ErrNotAuthenticated
	}

	data, _, err := m.api.Download(ctx, "/profile/export")
	if err != nil {
		return "", err
	}

	username := "account"
	if s := m.Session(); s.User != nil && s.User.Username != "" {
		username = s.User.Username
	}
	name := fmt.Sprintf("studira-export-%s-%s.json", username, time.Now().Format("2006-01-02"))

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return path, nil
}

// TokenExpiry inspects the stored token as a JWT, without verifying it,
// and returns the expiry claim. The token is treated as opaque otherwise:
// a non-JWT token simply reports no expiry.
func (m *AuthManager) TokenExpiry() (time.Time, bool) {
	token := m.store.Token()
	if token == "" {
		return time.Time{}, false
	}

	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, false
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

func (m *AuthManager) replaceSession(token string, user *models.User) {
	m.mu.Lock()
	m.user = user
	m.token = token
	m.mu.Unlock()

	m.store.Save(token, user)
	m.notify()
}

func (m *AuthManager) clearSession() {
	m.mu.Lock()
	m.user = nil
	m.token = ""
	m.mu.Unlock()

	m.store.Clear()
	m.notify()
}

func (m *AuthManager) setLoading(v bool) {
	m.mu.Lock()
	m.loading = v
	m.mu.Unlock()
	m.notify()
}
