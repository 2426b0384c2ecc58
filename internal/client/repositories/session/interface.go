// Package session persists the authenticated session between process runs:
// the bearer token and the serialized user record, under two fixed keys in
// one file. It is the only durable client-side state the application keeps.
package session

import "github.com/studira/studira/internal/client/models"

// Persisted key names. They are part of the on-disk format; changing them
// invalidates existing sessions.
const (
	KeyToken = "authToken"
	KeyUser  = "authUser"
)

// Repository is durable key-value persistence of exactly two values: the
// bearer token and the user record. Implementations never return errors:
// unreadable or corrupt state degrades to "no stored session", and storage
// failures on write are logged and swallowed.
type Repository interface {
	// Load returns the stored pair. ok is false when either key is absent
	// or the user record does not parse; a parse failure also clears both
	// keys so the corrupt state cannot resurface.
	Load() (token string, user *models.User, ok bool)

	// Save writes both keys, overwriting prior values.
	Save(token string, user *models.User)

	// SaveUserOnly overwrites only the user key, keeping the stored token.
	// Used for profile updates that do not re-authenticate.
	SaveUserOnly(user *models.User)

	// Clear removes both keys.
	Clear()

	// Token returns the currently stored bearer token, or "" when absent.
	// The request envelope consults this at call time.
	Token() string
}
