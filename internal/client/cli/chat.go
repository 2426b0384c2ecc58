package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/studira/studira/internal/client/models"
	"github.com/studira/studira/internal/client/services"
)

// chatDraft is a conversation that has been started locally but not yet
// created on the server; the actual chat is created when the first message
// is sent, so its title can be derived from that message.
type chatDraft struct {
	mode    models.Mode
	subject string
}

func (a *App) newChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Open the interactive tutoring session",
		RunE: a.requireAuth(func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			// warn live if the session dies under us (e.g. token expiry
			// caught by the background verification)
			a.auth.Subscribe(a.warnSessionEnded)

			fmt.Fprintln(a.out, "Studira tutoring — type 'help' for commands")
			_ = a.listChats(ctx, 1)

			scanner := bufio.NewScanner(os.Stdin)
			runChatREPL(ctx, a, a.replStatus, scanner)
			return nil
		}),
	}
}

// printlnFn is a test seam for user-facing output. In tests, replace it
// with a stub.
var printlnFn = fmt.Println

// chatExec defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a
// lightweight stub.
type chatExec interface {
	hasOpenChat() bool
	listChats(ctx context.Context, page int) error
	openChat(ctx context.Context, ref string) error
	newChat(ctx context.Context, args []string) error
	sendMessage(ctx context.Context, content string) error
	retrySend(ctx context.Context) error
	archiveChat(ctx context.Context, ref string, archived bool) error
	renameChat(ctx context.Context, ref, title string) error
	deleteChat(ctx context.Context, ref string) error
	closeChat()
}

// runChatREPL reads lines from the scanner and dispatches them.
//
// While no conversation is open, the first token of a line is a command.
// With an open conversation, plain lines are sent as messages and commands
// are prefixed with '/'. The loop exits on EOF or "exit"/"quit".
//
// Errors returned by handlers are ignored here; handlers print their own.
// This keeps the loop focused on I/O.
func runChatREPL(ctx context.Context, a chatExec, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("studira %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if a.hasOpenChat() && !strings.HasPrefix(line, "/") {
			_ = a.sendMessage(ctx, line)
			continue
		}

		parts := strings.Fields(strings.TrimPrefix(line, "/"))
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "help":
			if a.hasOpenChat() {
				printlnFn("Type your question, or: /list, /open <n>, /new <mode> [subject], /rename <title>, /retry, /close, /exit")
			} else {
				printlnFn("Available commands: list [page], open <n|id>, new <mode> [subject], archive <n|id>, unarchive <n|id>, rename <n|id> <title>, delete <n|id>, exit")
				printlnFn("Modes: explain, solve, summary, tests, learning")
			}

		case "l", "list":
			page := 1
			if len(args) > 0 {
				if n, err := strconv.Atoi(args[0]); err == nil {
					page = n
				}
			}
			_ = a.listChats(ctx, page)

		case "open":
			if len(args) == 0 {
				printlnFn("Usage: open <n|id>")
				continue
			}
			_ = a.openChat(ctx, args[0])

		case "new":
			_ = a.newChat(ctx, args)

		case "archive":
			if len(args) == 0 {
				printlnFn("Usage: archive <n|id>")
				continue
			}
			_ = a.archiveChat(ctx, args[0], true)

		case "unarchive":
			if len(args) == 0 {
				printlnFn("Usage: unarchive <n|id>")
				continue
			}
			_ = a.archiveChat(ctx, args[0], false)

		case "rename":
			if a.hasOpenChat() {
				if len(args) == 0 {
					printlnFn("Usage: /rename <title>")
					continue
				}
				_ = a.renameChat(ctx, "", strings.Join(args, " "))
				continue
			}
			if len(args) < 2 {
				printlnFn("Usage: rename <n|id> <title>")
				continue
			}
			_ = a.renameChat(ctx, args[0], strings.Join(args[1:], " "))

		case "delete":
			if len(args) == 0 {
				printlnFn("Usage: delete <n|id>")
				continue
			}
			_ = a.deleteChat(ctx, args[0])

		case "retry":
			_ = a.retrySend(ctx)

		case "close":
			a.closeChat()

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}

// warnSessionEnded fires from the verification goroutine, so it goes
// through printlnFn: one whole-line write, nothing interleaves mid-line
// with the REPL's own output.
func (a *App) warnSessionEnded(s services.Session) {
	if !s.IsAuthenticated() && !s.IsLoading {
		printlnFn(errorStyle.Render("session ended — run 'studira login' to continue"))
	}
}

func (a *App) replStatus() string {
	s := ""
	if sess := a.auth.Session(); sess.User != nil {
		s = sess.User.Username
	}
	if a.currentChat != nil {
		s += " / " + a.currentChat.Title
	} else if a.draft != nil {
		s += " / new " + string(a.draft.mode)
	}
	return "(" + s + ")"
}

func (a *App) hasOpenChat() bool {
	return a.currentChat != nil || a.draft != nil
}

func (a *App) listChats(ctx context.Context, page int) error {
	chats, pagination, err := a.chats.List(ctx, page, 10, false)
	if err != nil {
		fmt.Fprintln(a.out, errorStyle.Render(userFacingError(err)))
		return err
	}
	a.lastListing = chats
	fmt.Fprintln(a.out, renderChatList(chats, pagination))
	return nil
}

// resolveChatRef turns a listing number or a raw chat id into an id.
func (a *App) resolveChatRef(ref string) string {
	if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(a.lastListing) {
		return a.lastListing[n-1].ID
	}
	return ref
}

func (a *App) openChat(ctx context.Context, ref string) error {
	id := a.resolveChatRef(ref)

	chat, err := a.chats.Get(ctx, id)
	if err != nil {
		fmt.Fprintln(a.out, errorStyle.Render(userFacingError(err)))
		return err
	}
	messages, _, err := a.chats.Messages(ctx, id, 1, 20)
	if err != nil {
		fmt.Fprintln(a.out, errorStyle.Render(userFacingError(err)))
		return err
	}

	a.currentChat = chat
	a.draft = nil
	fmt.Fprintln(a.out, titleStyle.Render(chat.Title))
	for _, m := range messages {
		fmt.Fprintln(a.out, renderMessage(m))
	}
	return nil
}

func (a *App) newChat(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(a.out, "Usage: new <mode> [subject]  (modes: explain, solve, summary, tests, learning)")
		return nil
	}
	mode := models.Mode(args[0])
	if !mode.Valid() {
		fmt.Fprintf(a.out, "unknown mode %q\n", args[0])
		return nil
	}

	a.draft = &chatDraft{mode: mode, subject: strings.Join(args[1:], " ")}
	a.currentChat = nil
	fmt.Fprintln(a.out, "New conversation — type your first question.")
	return nil
}

// sendMessage delivers content either by creating the drafted chat with it
// as the initial message, or by appending to the open chat. On failure the
// content is kept so "/retry" can resend it without retyping.
func (a *App) sendMessage(ctx context.Context, content string) error {
	if a.draft != nil {
		return a.sendDraft(ctx, content)
	}
	if a.currentChat == nil {
		fmt.Fprintln(a.out, "No open conversation; use 'open <n>' or 'new <mode>'.")
		return nil
	}

	userMsg, botMsg, err := a.chats.Send(ctx, a.currentChat.ID, content, nil)
	if err != nil {
		a.pending = content
		fmt.Fprintln(a.out, errorStyle.Render(userFacingError(err)))
		fmt.Fprintln(a.out, mutedStyle.Render("message not sent — /retry to send it again"))
		return err
	}

	a.pending = ""
	fmt.Fprintln(a.out, renderMessage(*userMsg))
	fmt.Fprintln(a.out, renderMessage(*botMsg))
	return nil
}

func (a *App) sendDraft(ctx context.Context, content string) error {
	chat, err := a.chats.Create(ctx, services.CreateChatRequest{
		Title:          models.GenerateTitle(content, a.draft.mode),
		Mode:           a.draft.mode,
		Subject:        a.draft.subject,
		InitialMessage: content,
	})
	if err != nil {
		a.pending = content
		fmt.Fprintln(a.out, errorStyle.Render(userFacingError(err)))
		fmt.Fprintln(a.out, mutedStyle.Render("message not sent — /retry to send it again"))
		return err
	}

	a.pending = ""
	a.draft = nil
	a.currentChat = chat
	fmt.Fprintln(a.out, titleStyle.Render(chat.Title))

	messages, _, err := a.chats.Messages(ctx, chat.ID, 1, 20)
	if err != nil {
		// the chat exists; showing the reply can wait for the next open
		fmt.Fprintln(a.out, errorStyle.Render(userFacingError(err)))
		return nil
	}
	for _, m := range messages {
		fmt.Fprintln(a.out, renderMessage(m))
	}
	return nil
}

func (a *App) retrySend(ctx context.Context) error {
	if a.pending == "" {
		fmt.Fprintln(a.out, "Nothing to retry.")
		return nil
	}
	return a.sendMessage(ctx, a.pending)
}

func (a *App) archiveChat(ctx context.Context, ref string, archived bool) error {
	id := a.resolveChatRef(ref)
	chat, err := a.chats.SetArchived(ctx, id, archived)
	if err != nil {
		fmt.Fprintln(a.out, errorStyle.Render(userFacingError(err)))
		return err
	}
	if archived {
		fmt.Fprintf(a.out, "Archived %q.\n", chat.Title)
	} else {
		fmt.Fprintf(a.out, "Restored %q.\n", chat.Title)
	}
	return nil
}

func (a *App) renameChat(ctx context.Context, ref, title string) error {
	var id string
	if ref == "" && a.currentChat != nil {
		id = a.currentChat.ID
	} else {
		id = a.resolveChatRef(ref)
	}

	chat, err := a.chats.Rename(ctx, id, title)
	if err != nil {
		fmt.Fprintln(a.out, errorStyle.Render(userFacingError(err)))
		return err
	}
	if a.currentChat != nil && a.currentChat.ID == chat.ID {
		a.currentChat = chat
	}
	fmt.Fprintf(a.out, "Renamed to %q.\n", chat.Title)
	return nil
}

func (a *App) deleteChat(ctx context.Context, ref string) error {
	id := a.resolveChatRef(ref)
	msg, err := a.chats.Delete(ctx, id)
	if err != nil {
		fmt.Fprintln(a.out, errorStyle.Render(userFacingError(err)))
		return err
	}
	if a.currentChat != nil && a.currentChat.ID == id {
		a.closeChat()
	}
	fmt.Fprintln(a.out, msg)
	return nil
}

func (a *App) closeChat() {
	a.currentChat = nil
	a.draft = nil
	a.pending = ""
}
