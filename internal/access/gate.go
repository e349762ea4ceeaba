package access

import (
	"slices"

	"github.com/muratoffalex/poegram/internal/config"
)

// Gate decides who may talk to the bot. With both lists empty the bot is open
// to everyone.
type Gate struct {
	users []int64
	chats []int64
}

func NewGate(users, chats []int64) *Gate {
	return &Gate{
		users: slices.Clone(users),
		chats: slices.Clone(chats),
	}
}

func NewGateFromConfig(cfg config.TelegramConfig) *Gate {
	return NewGate(cfg.AllowedUsers, cfg.AllowedChats)
}

func (g *Gate) Open() bool {
	return len(g.users) == 0 && len(g.chats) == 0
}

func (g *Gate) IsAuthorized(userID, chatID int64) bool {
	if g.Open() {
		return true
	}
	return slices.Contains(g.chats, chatID) || slices.Contains(g.users, userID)
}

// IsAdmin reports whether userID may change credentials or reset the bot.
func (g *Gate) IsAdmin(userID int64) bool {
	if g.Open() {
		return true
	}
	return slices.Contains(g.users, userID)
}
