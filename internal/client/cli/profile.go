package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/studira/studira/internal/client/models"
)

func (a *App) newProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "View and manage your profile",
	}
	cmd.AddCommand(
		a.newProfileShowCmd(),
		a.newProfileUpdateCmd(),
		a.newProfilePasswordCmd(),
		a.newProfileExportCmd(),
	)
	return cmd
}

func (a *App) newProfileShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show your profile as the server sees it",
		RunE: a.requireAuth(func(cmd *cobra.Command, args []string) error {
			if err := a.auth.FetchProfile(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(a.out, renderUser(a.auth.Session().User))
			return nil
		}),
	}
}

func (a *App) newProfileUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update profile fields",
		Long: "Update profile fields. Only flags you pass are sent; the server\n" +
			"returns the merged record, which replaces the local copy.",
	}

	flags := cmd.Flags()
	flags.String("first-name", "", "first name")
	flags.String("last-name", "", "last name")
	flags.String("phone", "", "phone number")
	flags.String("faculty", "", "faculty")
	flags.Int("year", 0, "academic year")
	flags.String("major", "", "major")
	flags.Int("semester", 0, "semester")
	flags.String("color-mode", "", "color mode (light|dark)")
	flags.String("chat-font", "", "chat font")
	flags.Bool("profile-public", false, "whether the profile is public")
	flags.Bool("share-activity", false, "whether activity is shared")

	cmd.RunE = a.requireAuth(func(cmd *cobra.Command, args []string) error {
		upd := models.UserUpdate{}
		changed := false

		setStr := func(flag string, dest **string) {
			if cmd.Flags().Changed(flag) {
				v, _ := cmd.Flags().GetString(flag)
				*dest = &v
				changed = true
			}
		}
		setInt := func(flag string, dest **int) {
			if cmd.Flags().Changed(flag) {
				v, _ := cmd.Flags().GetInt(flag)
				*dest = &v
				changed = true
			}
		}
		setBool := func(flag string, dest **bool) {
			if cmd.Flags().Changed(flag) {
				v, _ := cmd.Flags().GetBool(flag)
				*dest = &v
				changed = true
			}
		}

		setStr("first-name", &upd.FirstName)
		setStr("last-name", &upd.LastName)
		setStr("phone", &upd.Phone)
		setStr("faculty", &upd.Faculty)
		setInt("year", &upd.AcademicYear)
		setStr("major", &upd.Major)
		setInt("semester", &upd.Semester)
		setStr("color-mode", &upd.ColorMode)
		setStr("chat-font", &upd.ChatFont)
		setBool("profile-public", &upd.ProfilePublic)
		setBool("share-activity", &upd.ShareActivity)

		if !changed {
			return fmt.Errorf("nothing to update; pass at least one flag")
		}

		if err := a.auth.UpdateProfile(cmd.Context(), upd); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "Profile updated.")
		fmt.Fprintln(a.out, renderUser(a.auth.Session().User))
		return nil
	})
	return cmd
}

func (a *App) newProfilePasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "password",
		Short: "Change your password",
		RunE: a.requireAuth(func(cmd *cobra.Command, args []string) error {
			current, err := getPassword(a.out, "Current password")
			if err != nil {
				return err
			}
			newPassword, err := getPassword(a.out, "New password")
			if err != nil {
				return err
			}
			confirm, err := getPassword(a.out, "Confirm new password")
			if err != nil {
				return err
			}
			if newPassword != confirm {
				return fmt.Errorf("passwords do not match")
			}

			if err := a.auth.ChangePassword(cmd.Context(), current, newPassword); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Password changed.")
			return nil
		}),
	}
}

func (a *App) newProfileExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Download an export of your account data",
	}
	dir := cmd.Flags().String("dir", ".", "directory to write the export into")

	cmd.RunE = a.requireAuth(func(cmd *cobra.Command, args []string) error {
		path, err := a.auth.ExportData(cmd.Context(), *dir)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Export written to %s\n", path)
		return nil
	})
	return cmd
}

func (a *App) newDashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show usage counters for your account",
		RunE: a.requireAuth(func(cmd *cobra.Command, args []string) error {
			// refresh counters from the server first; stale numbers here
			// are worse than an extra round trip
			if err := a.auth.FetchProfile(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(a.out, renderDashboard(a.auth.Session().User))
			return nil
		}),
	}
}
