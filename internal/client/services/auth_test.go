package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/studira/studira/internal/client/api"
	"github.com/studira/studira/internal/client/models"
	"github.com/studira/studira/internal/client/repositories/session"
	"github.com/studira/studira/internal/logging"
	"github.com/studira/studira/internal/validatex"
)

// ---- helpers ----

type authEnv struct {
	mgr      *AuthManager
	repo     *session.FileRepository
	requests *int64
	lastAuth *string
}

// newAuthEnv wires an AuthManager against a test server. handler may be nil
// for flows that must not touch the network; any request then fails the test.
func newAuthEnv(t *testing.T, handler http.HandlerFunc) *authEnv {
	t.Helper()

	var requests int64
	var lastAuth string

	wrapped := func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&requests, 1)
		lastAuth = r.Header.Get("Authorization")
		if handler == nil {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusTeapot)
			return
		}
		handler(w, r)
	}

	srv := httptest.NewServer(http.HandlerFunc(wrapped))
	t.Cleanup(srv.Close)

	log := logging.New(io.Discard, "error")
	repo := session.NewFileRepository(filepath.Join(t.TempDir(), "session.json"), log)
	client := api.New(srv.URL+"/api", time.Second, repo, log)

	return &authEnv{
		mgr:      NewAuthManager(client, repo, log),
		repo:     repo,
		requests: &requests,
		lastAuth: &lastAuth,
	}
}

func testUser() *models.User {
	return &models.User{
		ID:                 "u-1",
		Username:           "ana",
		Email:              "ana@example.com",
		FirstName:          "Ana",
		LastName:           "Anić",
		MonthlyPromptLimit: 100,
	}
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

// ---- tests ----

func TestLogin_Success_ReplacesMemoryAndStorage(t *testing.T) {
	env := newAuthEnv(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/auth/login", r.URL.Path)
		var creds Credentials
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		require.Equal(t, "ana", creds.Login)
		writeJSON(t, w, authResponse{User: testUser(), Token: "tok-1"})
	})

	require.NoError(t, env.mgr.Login(context.Background(), "ana", "lozinka123"))

	snap := env.mgr.Session()
	require.True(t, snap.IsAuthenticated())
	require.Equal(t, "tok-1", snap.Token)
	require.Equal(t, "ana", snap.User.Username)
	require.False(t, snap.IsLoading)

	// persisted copy matches the in-memory copy
	token, user, ok := env.repo.Load()
	require.True(t, ok)
	require.Equal(t, "tok-1", token)
	require.Equal(t, testUser(), user)
}

func TestLogin_Failure_SessionUnchanged(t *testing.T) {
	env := newAuthEnv(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		writeJSON(t, w, map[string]string{"error": "invalid credentials"})
	})
	env.repo.Save("tok-old", testUser())
	require.True(t, env.mgr.Restore())

	err := env.mgr.Login(context.Background(), "ana", "pogresna-lozinka")
	require.Error(t, err)

	var apiErr *api.Error
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, "invalid credentials", apiErr.Message)

	// both copies keep their pre-call values
	snap := env.mgr.Session()
	require.Equal(t, "tok-old", snap.Token)
	require.Equal(t, "ana", snap.User.Username)
	token, _, ok := env.repo.Load()
	require.True(t, ok)
	require.Equal(t, "tok-old", token)
}

func TestLogin_ValidationFailsBeforeNetwork(t *testing.T) {
	env := newAuthEnv(t, nil)

	err := env.mgr.Login(context.Background(), "ana", "")
	require.Error(t, err)

	var verr *validatex.ValidationError
	require.True(t, errors.As(err, &verr))
	require.Contains(t, verr.Fields, "password")
	require.Zero(t, atomic.LoadInt64(env.requests))
}

func TestRegister_Success(t *testing.T) {
	env := newAuthEnv(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/auth/register", r.URL.Path)
		var req RegisterRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "premium", req.SelectedPlan)
		require.Equal(t, []string{"integrali", "matrice"}, req.WeakPoints)
		writeJSON(t, w, authResponse{User: testUser(), Token: "tok-new"})
	})

	err := env.mgr.Register(context.Background(), RegisterRequest{
		Username:     "ana",
		Email:        "ana@example.com",
		Password:     "lozinka123",
		FirstName:    "Ana",
		LastName:     "Anić",
		Faculty:      "ETF",
		SelectedPlan: "premium",
		WeakPoints:   []string{"integrali", "matrice"},
	})
	require.NoError(t, err)
	require.True(t, env.mgr.IsAuthenticated())
	require.Equal(t, "tok-new", env.repo.Token())
}

func TestRegister_ValidationRejectsWeakPassword(t *testing.T) {
	env := newAuthEnv(t, nil)

	err := env.mgr.Register(context.Background(), RegisterRequest{
		Username:  "ana",
		Email:     "ana@example.com",
		Password:  "kratka",
		FirstName: "Ana",
		LastName:  "Anić",
	})
	require.Error(t, err)

	var verr *validatex.ValidationError
	require.True(t, errors.As(err, &verr))
	require.Contains(t, verr.Fields, "password")
	require.Zero(t, atomic.LoadInt64(env.requests))
}

func TestLogout_ClearsLocallyEvenWhenServerFails(t *testing.T) {
	env := newAuthEnv(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/auth/logout", r.URL.Path)
		w.WriteHeader(http.StatusInternalServerError)
	})
	env.repo.Save("tok-1", testUser())
	env.mgr.Restore()

	env.mgr.Logout(context.Background())

	require.False(t, env.mgr.IsAuthenticated())
	_, _, ok := env.repo.Load()
	require.False(t, ok)

	// the notification still carried the pre-clear token
	require.Equal(t, int64(1), atomic.LoadInt64(env.requests))
	require.Equal(t, "Bearer tok-1", *env.lastAuth)
}

func TestLogout_AnonymousSkipsServerCall(t *testing.T) {
	env := newAuthEnv(t, nil)

	env.mgr.Logout(context.Background())

	require.False(t, env.mgr.IsAuthenticated())
	require.Zero(t, atomic.LoadInt64(env.requests))
}

func TestRestore_NothingStored(t *testing.T) {
	env := newAuthEnv(t, nil)

	require.False(t, env.mgr.Restore())
	require.False(t, env.mgr.IsAuthenticated())
	require.Zero(t, atomic.LoadInt64(env.requests))
}

func TestVerifySession_NoTokenIsNoop(t *testing.T) {
	env := newAuthEnv(t, nil)

	require.NoError(t, env.mgr.VerifySession(context.Background()))
	require.Zero(t, atomic.LoadInt64(env.requests))
}

func TestVerifySession_Success_RefreshesUser(t *testing.T) {
	refreshed := testUser()
	refreshed.TotalConversations = 42

	env := newAuthEnv(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/auth/me", r.URL.Path)
		require.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		writeJSON(t, w, userResponse{User: refreshed})
	})
	env.repo.Save("tok-1", testUser())
	env.mgr.Restore()

	require.NoError(t, env.mgr.VerifySession(context.Background()))

	snap := env.mgr.Session()
	require.Equal(t, 42, snap.User.TotalConversations)
	_, stored, ok := env.repo.Load()
	require.True(t, ok)
	require.Equal(t, 42, stored.TotalConversations)
}

func TestVerifySession_Failure_ForcesLogout(t *testing.T) {
	env := newAuthEnv(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		writeJSON(t, w, map[string]string{"error": "token expired"})
	})
	env.repo.Save("tok-stale", testUser())
	env.mgr.Restore()
	require.True(t, env.mgr.IsAuthenticated())

	err := env.mgr.VerifySession(context.Background())
	require.True(t, api.IsUnauthorized(err))

	require.False(t, env.mgr.IsAuthenticated())
	_, _, ok := env.repo.Load()
	require.False(t, ok)
}

func TestUpdateUser_LocalOnlyMerge(t *testing.T) {
	env := newAuthEnv(t, nil)
	env.repo.Save("tok-1", testUser())
	env.mgr.Restore()

	major := "Fizika"
	env.mgr.UpdateUser(models.UserUpdate{Major: &major})

	require.Equal(t, "Fizika", env.mgr.Session().User.Major)
	_, stored, ok := env.repo.Load()
	require.True(t, ok)
	require.Equal(t, "Fizika", stored.Major)
	// keeps the rest of the record
	require.Equal(t, "ana", stored.Username)
	require.Zero(t, atomic.LoadInt64(env.requests))
}

func TestUpdateUser_NoUserIsNoop(t *testing.T) {
	env := newAuthEnv(t, nil)

	major := "Fizika"
	env.mgr.UpdateUser(models.UserUpdate{Major: &major})

	require.False(t, env.mgr.IsAuthenticated())
}

func TestFetchProfile_NoTokenIsNoop(t *testing.T) {
	env := newAuthEnv(t, nil)

	require.NoError(t, env.mgr.FetchProfile(context.Background()))
	require.Zero(t, atomic.LoadInt64(env.requests))
}

func TestUpdateProfile_ServerIsAuthoritative(t *testing.T) {
	// The server applies the partial update and also bumps a counter; the
	// whole returned record must replace the local one, not a shallow merge
	// of only the sent fields.
	serverResult := testUser()
	serverResult.Major = "Fizika"
	serverResult.TotalConversations = 7

	env := newAuthEnv(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "/api/profile", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		require.JSONEq(t, `{"major":"Fizika"}`, string(body))
		writeJSON(t, w, userResponse{User: serverResult})
	})
	env.repo.Save("tok-1", testUser())
	env.mgr.Restore()

	major := "Fizika"
	require.NoError(t, env.mgr.UpdateProfile(context.Background(), models.UserUpdate{Major: &major}))

	snap := env.mgr.Session()
	require.Equal(t, "Fizika", snap.User.Major)
	require.Equal(t, 7, snap.User.TotalConversations)
	_, stored, ok := env.repo.Load()
	require.True(t, ok)
	require.Equal(t, serverResult, stored)
}

func TestUpdateProfile_RequiresToken(t *testing.T) {
	env := newAuthEnv(t, nil)

	major := "Fizika"
	err := env.mgr.UpdateProfile(context.Background(), models.UserUpdate{Major: &major})
	require.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestChangePassword(t *testing.T) {
	env := newAuthEnv(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/profile/password", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		require.JSONEq(t, `{"currentPassword":"stara-lozinka","newPassword":"nova-lozinka"}`, string(body))
		w.WriteHeader(http.StatusNoContent)
	})
	env.repo.Save("tok-1", testUser())
	env.mgr.Restore()

	require.NoError(t, env.mgr.ChangePassword(context.Background(), "stara-lozinka", "nova-lozinka"))
	// session untouched
	require.True(t, env.mgr.IsAuthenticated())
}

func TestChangePassword_ValidatesBeforeNetwork(t *testing.T) {
	env := newAuthEnv(t, nil)
	env.repo.Save("tok-1", testUser())

	err := env.mgr.ChangePassword(context.Background(), "stara-lozinka", "kratka")
	require.Error(t, err)

	var verr *validatex.ValidationError
	require.True(t, errors.As(err, &verr))
	require.Zero(t, atomic.LoadInt64(env.requests))
}

func TestExportData_WritesDerivedFilename(t *testing.T) {
	env := newAuthEnv(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/profile/export", r.URL.Path)
		w.Write([]byte(`{"chats":[],"notes":[]}`))
	})
	env.repo.Save("tok-1", testUser())
	env.mgr.Restore()

	dir := t.TempDir()
	path, err := env.mgr.ExportData(context.Background(), dir)
	require.NoError(t, err)

	want := fmt.Sprintf("studira-export-ana-%s.json", time.Now().Format("2006-01-02"))
	require.Equal(t, filepath.Join(dir, want), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.JSONEq(t, `{"chats":[],"notes":[]}`, string(data))
}

func TestExportData_RequiresToken(t *testing.T) {
	env := newAuthEnv(t, nil)

	_, err := env.mgr.ExportData(context.Background(), t.TempDir())
	require.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestIsAuthenticated_RequiresBothUserAndToken(t *testing.T) {
	tests := []struct {
		name string
		sess Session
		want bool
	}{
		{"both", Session{User: testUser(), Token: "tok"}, true},
		{"user only", Session{User: testUser()}, false},
		{"token only", Session{Token: "tok"}, false},
		{"neither", Session{}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, tc.sess.IsAuthenticated())
		})
	}
}

func TestSubscribe_NotifiedOnLoginAndLogout(t *testing.T) {
	env := newAuthEnv(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/login":
			writeJSON(t, w, authResponse{User: testUser(), Token: "tok-1"})
		case "/api/auth/logout":
			writeJSON(t, w, map[string]string{"message": "ok"})
		}
	})

	var states []bool
	env.mgr.Subscribe(func(s Session) { states = append(states, s.IsAuthenticated()) })

	require.NoError(t, env.mgr.Login(context.Background(), "ana", "lozinka123"))
	env.mgr.Logout(context.Background())

	require.NotEmpty(t, states)
	require.False(t, states[len(states)-1])

	sawAuthenticated := false
	for _, s := range states {
		if s {
			sawAuthenticated = true
		}
	}
	require.True(t, sawAuthenticated)
}

func TestTokenExpiry(t *testing.T) {
	env := newAuthEnv(t, nil)

	// opaque token: no expiry
	env.repo.Save("opaque-token", testUser())
	_, ok := env.mgr.TokenExpiry()
	require.False(t, ok)

	// JWT token: expiry surfaces without verification
	exp := time.Now().Add(2 * time.Hour).Truncate(time.Second)
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "u-1",
		"exp": exp.Unix(),
	})
	signed, err := tok.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	env.repo.Save(signed, testUser())
	got, ok := env.mgr.TokenExpiry()
	require.True(t, ok)
	require.True(t, got.Equal(exp))

	// no token at all
	env.repo.Clear()
	_, ok = env.mgr.TokenExpiry()
	require.False(t, ok)
}

func TestLoadingFlag_TrueDuringLogin(t *testing.T) {
	release := make(chan struct{})
	env := newAuthEnv(t, func(w http.ResponseWriter, r *http.Request) {
		<-release
		writeJSON(t, w, authResponse{User: testUser(), Token: "tok-1"})
	})

	var sawLoading atomic.Bool
	env.mgr.Subscribe(func(s Session) {
		if s.IsLoading {
			sawLoading.Store(true)
		}
	})

	done := make(chan error, 1)
	go func() { done <- env.mgr.Login(context.Background(), "ana", "lozinka123") }()

	require.Eventually(t, func() bool { return env.mgr.Session().IsLoading }, time.Second, 5*time.Millisecond)
	close(release)
	require.NoError(t, <-done)

	require.True(t, sawLoading.Load())
	require.False(t, env.mgr.Session().IsLoading)
}
