package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/studira/studira/internal/client/models"
)

var (
	userStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	botStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	titleStyle    = lipgloss.NewStyle().Bold(true)
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	archivedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Strikethrough(true)
)

func renderMessage(m models.Message) string {
	label := userStyle.Render("you")
	if m.Sender == models.SenderBot {
		label = botStyle.Render("tutor")
	}
	return fmt.Sprintf("%s  %s", label, m.Content)
}

// renderChatList formats one page of chats as a numbered list; the numbers
// are what "open <n>" accepts.
func renderChatList(chats []models.Chat, page *models.Pagination) string {
	if len(chats) == 0 {
		return mutedStyle.Render("no chats yet — start one with: new <mode> [subject]")
	}

	var b strings.Builder
	for i, c := range chats {
		title := titleStyle.Render(c.Title)
		if c.IsArchived {
			title = archivedStyle.Render(c.Title)
		}
		fmt.Fprintf(&b, "%2d. %s %s\n", i+1, title, mutedStyle.Render("["+string(c.Mode)+"]"))
	}
	if page != nil && page.TotalPages > 1 {
		fmt.Fprintf(&b, "%s\n", mutedStyle.Render(
			fmt.Sprintf("page %d/%d (%d total)", page.CurrentPage, page.TotalPages, page.TotalItems)))
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderUser(u *models.User) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", titleStyle.Render(u.FullName()), mutedStyle.Render("@"+u.Username))
	fmt.Fprintf(&b, "email:    %s\n", u.Email)
	if u.Faculty != "" {
		fmt.Fprintf(&b, "faculty:  %s", u.Faculty)
		if u.AcademicYear > 0 {
			fmt.Fprintf(&b, ", year %d", u.AcademicYear)
		}
		if u.Semester > 0 {
			fmt.Fprintf(&b, ", semester %d", u.Semester)
		}
		b.WriteString("\n")
	}
	if u.Major != "" {
		fmt.Fprintf(&b, "major:    %s\n", u.Major)
	}
	if !u.IsVerified {
		fmt.Fprintf(&b, "%s\n", errorStyle.Render("email not verified"))
	}
	return strings.TrimRight(b.String(), "\n")
}

// renderDashboard shows the account's usage counters.
func renderDashboard(u *models.User) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", titleStyle.Render("Dashboard"))
	fmt.Fprintf(&b, "conversations:  %d\n", u.TotalConversations)
	fmt.Fprintf(&b, "prompts used:   %d / %d this month\n", u.PromptsUsedThisMonth, u.MonthlyPromptLimit)
	if u.MonthlyPromptLimit > 0 && u.PromptsUsedThisMonth >= u.MonthlyPromptLimit {
		fmt.Fprintf(&b, "%s\n", errorStyle.Render("monthly prompt limit reached"))
	}
	if u.SelectedPlan != "" {
		fmt.Fprintf(&b, "plan:           %s\n", u.SelectedPlan)
	}
	return strings.TrimRight(b.String(), "\n")
}
