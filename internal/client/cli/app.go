// Package cli implements the studira command tree and the interactive
// tutoring REPL on top of the client services.
package cli

import (
	"bufio"
	"io"
	"os"

	"github.com/studira/studira/internal/client/api"
	"github.com/studira/studira/internal/client/config"
	"github.com/studira/studira/internal/client/models"
	"github.com/studira/studira/internal/client/repositories/session"
	"github.com/studira/studira/internal/client/services"
	"github.com/studira/studira/internal/logging"
)

// App wires configuration, the session repository, the request envelope
// and the services consumed by every command.
type App struct {
	config *config.Config
	log    logging.Logger

	auth  *services.AuthManager
	chats *services.ChatService

	reader *bufio.Reader
	out    io.Writer

	// REPL state: the open conversation, the last listing shown (so chats
	// can be addressed by number), and an unsent message kept for retry
	currentChat *models.Chat
	draft       *chatDraft
	lastListing []models.Chat
	pending     string
}

// NewApp builds the application. Exactly one App exists per process; the
// auth manager it owns is the single owner of session state.
func NewApp(c *config.Config, log logging.Logger) *App {
	store := session.NewFileRepository(c.SessionFile, log)
	apiClient := api.New(c.BaseURL, c.RequestTimeout, store, log)

	return &App{
		config: c,
		log:    log,
		auth:   services.NewAuthManager(apiClient, store, log),
		chats:  services.NewChatService(apiClient, log),
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}
}
