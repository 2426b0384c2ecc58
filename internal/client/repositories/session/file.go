package session

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/studira/studira/internal/client/models"
	"github.com/studira/studira/internal/logging"
)

// fileState is the on-disk layout. The user record is kept as a serialized
// string under its own key, mirroring how the two values are stored
// independently; the token stays usable even if the user blob is corrupt
// (although Load treats that as no session at all).
type fileState struct {
	AuthToken string `json:"authToken"`
	AuthUser  string `json:"authUser"`
}

// FileRepository stores the session in a single JSON file. All methods are
// synchronous and safe for concurrent use.
type FileRepository struct {
	mu   sync.Mutex
	path string
	log  logging.Logger

	// in-memory copy of the token so the request envelope does not hit
	// the filesystem on every call
	token string
}

var _ Repository = (*FileRepository)(nil)

// NewFileRepository builds a repository persisting to path. The parent
// directory is created on first write.
func NewFileRepository(path string, log logging.Logger) *FileRepository {
	r := &FileRepository{path: path, log: log}
	r.token, _, _ = r.load()
	return r
}

func (r *FileRepository) Load() (string, *models.User, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	token, user, ok := r.load()
	if !ok {
		r.token = ""
		return "", nil, false
	}
	r.token = token
	return token, user, true
}

// load reads and parses the file. Caller holds the lock (or is the
// constructor). A present but unparseable state removes the file.
func (r *FileRepository) load() (string, *models.User, bool) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return "", nil, false
	}

	var st fileState
	if err := json.Unmarshal(data, &st); err != nil {
		r.log.Warn(context.Background(), "stored session is corrupt, clearing", "path", r.path)
		r.remove()
		return "", nil, false
	}
	if st.AuthToken == "" || st.AuthUser == "" {
		return "", nil, false
	}

	var user models.User
	if err := json.Unmarshal([]byte(st.AuthUser), &user); err != nil {
		r.log.Warn(context.Background(), "stored user record is corrupt, clearing", "path", r.path)
		r.remove()
		return "", nil, false
	}
	return st.AuthToken, &user, true
}

func (r *FileRepository) Save(token string, user *models.User) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.token = token
	r.write(fileState{AuthToken: token, AuthUser: marshalUser(user)})
}

func (r *FileRepository) SaveUserOnly(user *models.User) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.write(fileState{AuthToken: r.token, AuthUser: marshalUser(user)})
}

func (r *FileRepository) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.token = ""
	r.remove()
}

func (r *FileRepository) Token() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.token
}

func (r *FileRepository) write(st fileState) {
	data, err := json.Marshal(st)
	if err != nil {
		r.log.Error(context.Background(), "marshal session state", "error", err)
		return
	}
	if err := os.MkdirAll(filepath.Dir(r.path), 0o700); err != nil {
		r.log.Error(context.Background(), "create session dir", "error", err)
		return
	}
	if err := os.WriteFile(r.path, data, 0o600); err != nil {
		r.log.Error(context.Background(), "write session file", "error", err)
	}
}

func (r *FileRepository) remove() {
	if err := os.Remove(r.path); err != nil && !os.IsNotExist(err) {
		r.log.Error(context.Background(), "remove session file", "error", err)
	}
}

func marshalUser(user *models.User) string {
	if user == nil {
		return ""
	}
	data, err := json.Marshal(user)
	if err != nil {
		return ""
	}
	return string(data)
}
