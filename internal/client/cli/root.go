package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/studira/studira/internal/buildinfo"
	"github.com/studira/studira/internal/client/api"
	"github.com/studira/studira/internal/validatex"
)

// ErrLoginRequired gates commands that need an authenticated session.
var ErrLoginRequired = errors.New("you are not logged in (run 'studira login')")

// NewRootCmd builds the studira command tree.
//
// The persistent pre-run restores the persisted session, so every command
// starts from the stored state; commands gated by requireAuth refuse to run
// without it. The config-level flags are registered here only so cobra
// accepts them — their values were already resolved by config.LoadConfig
// before the App existed.
func (a *App) NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "studira",
		Short:         "Studira — AI tutoring assistant for students",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if a.auth.Restore() {
				// a dead token gets noticed even by commands that never
				// talk to the server themselves
				go func() { _ = a.auth.VerifySession(context.WithoutCancel(cmd.Context())) }()
			}
		},
	}

	pf := root.PersistentFlags()
	pf.StringP("api-url", "a", a.config.BaseURL, "base URL of the backend API")
	pf.IntP("timeout", "t", int(a.config.RequestTimeout.Seconds()), "request timeout in seconds")
	pf.StringP("session-file", "s", a.config.SessionFile, "session file path")
	pf.StringP("log-level", "l", a.config.LogLevel, "log level (debug|info|warn|error)")
	pf.StringP("config", "c", "", "path to config file")

	root.AddCommand(
		a.newLoginCmd(),
		a.newRegisterCmd(),
		a.newLogoutCmd(),
		a.newWhoamiCmd(),
		a.newChatCmd(),
		a.newProfileCmd(),
		a.newDashboardCmd(),
		newVersionCmd(),
	)
	return root
}

// Execute runs the command tree and prints failures in a user-facing form.
func (a *App) Execute() error {
	root := a.NewRootCmd()
	err := root.Execute()
	if err != nil {
		fmt.Fprintln(a.out, errorStyle.Render(userFacingError(err)))
	}
	return err
}

// requireAuth is the route guard: commands wrap their RunE with it.
func (a *App) requireAuth(run func(cmd *cobra.Command, args []string) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if !a.auth.IsAuthenticated() {
			return ErrLoginRequired
		}
		return run(cmd, args)
	}
}

// userFacingError picks the message worth showing on the form: the server's
// words for API errors, the translated field list for validation errors.
func userFacingError(err error) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	var verr *validatex.ValidationError
	if errors.As(err, &verr) {
		return verr.Error()
	}
	return err.Error()
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run: func(cmd *cobra.Command, args []string) {
			buildinfo.PrintBuildData(cmd.OutOrStdout())
		},
	}
}
