package commands

import (
	"context"
	"strings"

	"github.com/muratoffalex/poegram/internal/telegram"
)

type Command interface {
	Name() string
	Aliases() []string
	Access() Access
	Execute(ctx context.Context, event Event) error
}

// Access is the permission an event needs before a command runs.
type Access int

const (
	AccessAllowed Access = iota
	AccessPublic
	AccessAdmin
)

type EventKind int

const (
	EventCommand EventKind = iota
	EventText
	EventCallback
)

func (k EventKind) String() string {
	switch k {
	case EventCommand:
		return "command"
	case EventText:
		return "text"
	case EventCallback:
		return "callback"
	default:
		return "unknown"
	}
}

// Event is one inbound Telegram interaction reduced to what handlers use.
type Event struct {
	Kind EventKind

	UserID    int64
	FirstName string
	Username  string

	ChatID    int64
	ChatType  string
	MessageID int

	// Text is the raw message text, command included.
	Text string
	// Command is set for EventCommand, without the leading slash and @bot suffix.
	Command string
	// ArgsText is everything after the command, trimmed.
	ArgsText string

	CallbackID   string
	CallbackData string

	MentionsBot  bool
	RepliesToBot bool
}

// Args splits ArgsText on whitespace.
func (e Event) Args() []string {
	return strings.Fields(e.ArgsText)
}

// IsGroup reports whether the event comes from a group or supergroup.
func (e Event) IsGroup() bool {
	return e.ChatType == telegram.ChatTypeGroup || e.ChatType == telegram.ChatTypeSupergroup
}

// Nickname is how the sender is addressed in prompts.
func (e Event) Nickname() string {
	if e.FirstName != "" {
		return e.FirstName
	}
	return e.Username
}
