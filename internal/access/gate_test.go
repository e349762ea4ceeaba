package access

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/muratoffalex/poegram/internal/config"
)

func TestGate_OpenMode(t *testing.T) {
	g := NewGate(nil, nil)

	for _, pair := range [][2]int64{{1, 1}, {0, 0}, {-5, 42}, {999, -100123}} {
		assert.True(t, g.IsAuthorized(pair[0], pair[1]))
		assert.True(t, g.IsAdmin(pair[0]))
	}
}

func TestGate_IsAuthorized(t *testing.T) {
	tests := []struct {
		name   string
		users  []int64
		chats  []int64
		userID int64
		chatID int64
		want   bool
	}{
		{name: "user listed", users: []int64{1}, userID: 1, chatID: 7, want: true},
		{name: "user not listed", users: []int64{1}, userID: 2, chatID: 7, want: false},
		{name: "chat listed", chats: []int64{-100}, userID: 2, chatID: -100, want: true},
		{name: "chat not listed", chats: []int64{-100}, userID: 2, chatID: -200, want: false},
		{name: "either list matches", users: []int64{1}, chats: []int64{-100}, userID: 3, chatID: -100, want: true},
		{name: "neither matches", users: []int64{1}, chats: []int64{-100}, userID: 3, chatID: -200, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGate(tt.users, tt.chats)
			assert.Equal(t, tt.want, g.IsAuthorized(tt.userID, tt.chatID))
		})
	}
}

func TestGate_IsAdmin(t *testing.T) {
	g := NewGateFromConfig(config.TelegramConfig{AllowedUsers: []int64{1}, AllowedChats: []int64{-100}})

	assert.True(t, g.IsAdmin(1))
	assert.False(t, g.IsAdmin(2), "allowed chat does not grant admin rights")

	chatsOnly := NewGate(nil, []int64{-100})
	assert.False(t, chatsOnly.IsAdmin(1))
}
