package models

import "time"

// Mode classifies the tutoring intent of a chat.
type Mode string

const (
	ModeExplain  Mode = "explain"
	ModeSolve    Mode = "solve"
	ModeSummary  Mode = "summary"
	ModeTests    Mode = "tests"
	ModeLearning Mode = "learning"
)

// Modes lists every valid tutoring mode.
var Modes = []Mode{ModeExplain, ModeSolve, ModeSummary, ModeTests, ModeLearning}

// Valid reports whether m is one of the fixed tutoring modes.
func (m Mode) Valid() bool {
	switch m {
	case ModeExplain, ModeSolve, ModeSummary, ModeTests, ModeLearning:
		return true
	}
	return false
}

// defaultTitles are the fixed chat labels used when the opening message is
// too short to derive a title from.
var defaultTitles = map[Mode]string{
	ModeExplain:  "Objašnjenje gradiva",
	ModeSolve:    "Rešavanje zadatka",
	ModeSummary:  "Sažetak lekcije",
	ModeTests:    "Priprema za test",
	ModeLearning: "Učenje novog gradiva",
}

// DefaultTitle returns the fixed label for the mode, or a generic one for
// an unknown mode.
func (m Mode) DefaultTitle() string {
	if t, ok := defaultTitles[m]; ok {
		return t
	}
	return "Nova konverzacija"
}

// Chat is one tutoring conversation.
type Chat struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Mode       Mode      `json:"mode"`
	Subject    string    `json:"subject,omitempty"`
	Lessons    []string  `json:"lessons,omitempty"`
	IsArchived bool      `json:"isArchived"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Sender identifies who produced a message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// Message is a single chat message, either the student's or the tutor's.
type Message struct {
	ID          string       `json:"id"`
	ChatID      string       `json:"chatId"`
	Sender      Sender       `json:"sender"`
	Content     string       `json:"content"`
	Attachments []Attachment `json:"attachments,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
}

// Attachment is a file reference carried with a message.
type Attachment struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Size int64  `json:"size,omitempty"`
}

// Pagination describes one page of a paginated listing.
type Pagination struct {
	CurrentPage int `json:"currentPage"`
	TotalPages  int `json:"totalPages"`
	TotalItems  int `json:"totalItems"`
	Limit       int `json:"limit"`
}
