package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/studira/studira/internal/client/services"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var (
	getSimpleText = GetSimpleText
	getOptional   = GetOptionalText
	getPassword   = GetPassword
)

func (a *App) newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Sign in with your username or email",
		RunE: func(cmd *cobra.Command, args []string) error {
			login, err := getSimpleText(a.reader, "Username or email", a.out)
			if err != nil {
				return err
			}
			password, err := getPassword(a.out, "Password")
			if err != nil {
				return err
			}

			if err := a.auth.Login(cmd.Context(), login, password); err != nil {
				return err
			}

			s := a.auth.Session()
			fmt.Fprintf(a.out, "Welcome back, %s!\n", s.User.FirstName)
			return nil
		},
	}
}

func (a *App) newRegisterCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "register",
		Short: "Create a new account",
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := a.promptRegistration()
			if err != nil {
				return err
			}
			if err := a.auth.Register(cmd.Context(), *req); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Account created. Welcome, %s!\n", req.FirstName)
			return nil
		},
	}
}

// promptRegistration walks the registration form field by field. Required
// fields are validated by the auth manager before any network call.
func (a *App) promptRegistration() (*services.RegisterRequest, error) {
	req := &services.RegisterRequest{}

	prompts := []struct {
		label    string
		optional bool
		dest     *string
	}{
		{"Username", false, &req.Username},
		{"Email", false, &req.Email},
		{"First name", false, &req.FirstName},
		{"Last name", false, &req.LastName},
		{"Date of birth (YYYY-MM-DD)", true, &req.DateOfBirth},
		{"Phone", true, &req.Phone},
		{"Faculty", true, &req.Faculty},
		{"Major", true, &req.Major},
		{"Plan (free/premium)", true, &req.SelectedPlan},
	}

	for _, p := range prompts {
		read := getSimpleText
		if p.optional {
			read = getOptional
		}
		v, err := read(a.reader, p.label, a.out)
		if err != nil {
			return nil, err
		}
		*p.dest = v
	}

	if year, err := getOptional(a.reader, "Academic year", a.out); err != nil {
		return nil, err
	} else if year != "" {
		n, convErr := strconv.Atoi(year)
		if convErr != nil {
			return nil, fmt.Errorf("academic year must be a number")
		}
		req.AcademicYear = n
	}

	if weak, err := getOptional(a.reader, "Topics you struggle with (comma separated)", a.out); err != nil {
		return nil, err
	} else if weak != "" {
		for _, w := range strings.Split(weak, ",") {
			if w = strings.TrimSpace(w); w != "" {
				req.WeakPoints = append(req.WeakPoints, w)
			}
		}
	}

	password, err := getPassword(a.out, "Password")
	if err != nil {
		return nil, err
	}
	confirm, err := getPassword(a.out, "Confirm password")
	if err != nil {
		return nil, err
	}
	if password != confirm {
		return nil, fmt.Errorf("passwords do not match")
	}
	req.Password = password

	return req, nil
}

func (a *App) newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and clear the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			a.auth.Logout(cmd.Context())
			fmt.Fprintln(a.out, "Signed out.")
			return nil
		},
	}
}

func (a *App) newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			s := a.auth.Session()
			if !s.IsAuthenticated() {
				fmt.Fprintln(a.out, "Not logged in.")
				return nil
			}

			fmt.Fprintln(a.out, renderUser(s.User))
			if exp, ok := a.auth.TokenExpiry(); ok {
				if remaining := time.Until(exp); remaining > 0 {
					fmt.Fprintf(a.out, "session expires in %s\n", remaining.Round(time.Minute))
				} else {
					fmt.Fprintln(a.out, errorStyle.Render("session expired"))
				}
			}
			return nil
		},
	}
}
