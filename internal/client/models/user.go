// Package models defines the data types exchanged with the Studira backend.
package models

import "time"

// User is the authenticated account record as the server represents it.
// The server is authoritative for every field; the client never computes
// any of them locally.
type User struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`

	DateOfBirth string `json:"dateOfBirth,omitempty"`
	Phone       string `json:"phone,omitempty"`

	// Academic profile.
	Faculty      string `json:"faculty,omitempty"`
	AcademicYear int    `json:"academicYear,omitempty"`
	Major        string `json:"major,omitempty"`
	Semester     int    `json:"semester,omitempty"`

	// Preferences.
	ColorMode     string `json:"colorMode,omitempty"`
	ChatFont      string `json:"chatFont,omitempty"`
	ProfilePublic bool   `json:"profilePublic"`
	ShareActivity bool   `json:"shareActivity"`

	SelectedPlan string   `json:"selectedPlan,omitempty"`
	WeakPoints   []string `json:"weakPoints,omitempty"`

	// Usage counters.
	TotalConversations   int `json:"totalConversations"`
	PromptsUsedThisMonth int `json:"promptsUsedThisMonth"`
	MonthlyPromptLimit   int `json:"monthlyPromptLimit"`

	IsVerified bool      `json:"isVerified"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// FullName joins first and last name, falling back to the username when
// neither is set.
func (u *User) FullName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	case u.LastName != "":
		return u.LastName
	default:
		return u.Username
	}
}

// UserUpdate is a partial user mutation. Nil fields are left untouched.
// It doubles as the request body for profile updates: omitted fields are
// not serialized, so the server only sees what actually changed.
type UserUpdate struct {
	FirstName     *string   `json:"firstName,omitempty"`
	LastName      *string   `json:"lastName,omitempty"`
	Email         *string   `json:"email,omitempty"`
	Phone         *string   `json:"phone,omitempty"`
	DateOfBirth   *string   `json:"dateOfBirth,omitempty"`
	Faculty       *string   `json:"faculty,omitempty"`
	AcademicYear  *int      `json:"academicYear,omitempty"`
	Major         *string   `json:"major,omitempty"`
	Semester      *int      `json:"semester,omitempty"`
	ColorMode     *string   `json:"colorMode,omitempty"`
	ChatFont      *string   `json:"chatFont,omitempty"`
	ProfilePublic *bool     `json:"profilePublic,omitempty"`
	ShareActivity *bool     `json:"shareActivity,omitempty"`
	WeakPoints    *[]string `json:"weakPoints,omitempty"`
}

// Apply merges the set fields of upd into u. Used for optimistic local-only
// updates; server-authoritative updates replace the whole record instead.
func (u *User) Apply(upd UserUpdate) {
	if upd.FirstName != nil {
		u.FirstName = *upd.FirstName
	}
	if upd.LastName != nil {
		u.LastName = *upd.LastName
	}
	if upd.Email != nil {
		u.Email = *upd.Email
	}
	if upd.Phone != nil {
		u.Phone = *upd.Phone
	}
	if upd.DateOfBirth != nil {
		u.DateOfBirth = *upd.DateOfBirth
	}
	if upd.Faculty != nil {
		u.Faculty = *upd.Faculty
	}
	if upd.AcademicYear != nil {
		u.AcademicYear = *upd.AcademicYear
	}
	if upd.Major != nil {
		u.Major = *upd.Major
	}
	if upd.Semester != nil {
		u.Semester = *upd.Semester
	}
	if upd.ColorMode != nil {
		u.ColorMode = *upd.ColorMode
	}
	if upd.ChatFont != nil {
		u.ChatFont = *upd.ChatFont
	}
	if upd.ProfilePublic != nil {
		u.ProfilePublic = *upd.ProfilePublic
	}
	if upd.ShareActivity != nil {
		u.ShareActivity = *upd.ShareActivity
	}
	if upd.WeakPoints != nil {
		u.WeakPoints = *upd.WeakPoints
	}
}
