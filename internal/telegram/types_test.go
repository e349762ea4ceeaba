package telegram

import (
	"fmt"
	"testing"

	tgbotapi "github.com/OvyFlash/telegram-bot-api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkMedia(t *testing.T) {
	media := make([]PhotoMedia, 23)
	for i := range media {
		media[i] = NewPhotoMedia(FilePath(fmt.Sprintf("/tmp/%d.jpeg", i)))
	}

	groups := ChunkMedia(media, 10)
	assert.Len(t, groups, 3)
	assert.Len(t, groups[0], 8)
	assert.Len(t, groups[1], 8)
	assert.Len(t, groups[2], 7)
	assert.Equal(t, FilePath("/tmp/22.jpeg"), groups[2][6].Media)

	assert.Len(t, ChunkMedia(media, 50), 3, "oversized groups are clamped")
	assert.Empty(t, ChunkMedia(nil, 10))
}

func TestChunkMedia_NoLoneTrailingItem(t *testing.T) {
	sizes := func(groups [][]PhotoMedia) []int {
		var out []int
		for _, g := range groups {
			out = append(out, len(g))
		}
		return out
	}

	assert.Equal(t, []int{1}, sizes(ChunkMedia(make([]PhotoMedia, 1), 10)))
	assert.Equal(t, []int{6, 5}, sizes(ChunkMedia(make([]PhotoMedia, 11), 10)))
	assert.Equal(t, []int{10}, sizes(ChunkMedia(make([]PhotoMedia, 10), 10)))
	assert.Equal(t, []int{7, 7, 7}, sizes(ChunkMedia(make([]PhotoMedia, 21), 10)))
	assert.Equal(t, []int{2, 2}, sizes(ChunkMedia(make([]PhotoMedia, 4), 3)))
}

func TestTextMessage_ReplyParameters(t *testing.T) {
	reply, ok := NewMessage(5, "hi", 9).ToChattable().(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Equal(t, 9, reply.ReplyParameters.MessageID)
	assert.True(t, reply.ReplyParameters.AllowSendingWithoutReply)

	plain, ok := NewMessage(5, "hi", 0).ToChattable().(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Zero(t, plain.ReplyParameters.MessageID)
	assert.False(t, plain.ReplyParameters.AllowSendingWithoutReply)
}

func TestExtractRetryAfter(t *testing.T) {
	seconds, limited := extractRetryAfter("Too Many Requests: retry after 17")
	assert.True(t, limited)
	assert.Equal(t, 17, seconds)

	_, limited = extractRetryAfter("Bad Request: message is not modified")
	assert.False(t, limited)
}

func TestTestClient_RecordsCalls(t *testing.T) {
	c := NewTestClient(User{ID: 1, UserName: "bot", IsBot: true})

	sent, err := c.Send(NewMessage(5, "Working...", 0))
	assert.NoError(t, err)
	_, err = c.Send(NewEditMessageText(5, sent.MessageID, "done"))
	assert.NoError(t, err)
	assert.NoError(t, c.Request(NewCallback("cb", "ok")))
	assert.NoError(t, c.SendPhoto(NewPhotoMessage(5, NewPhotoMedia(FilePath("/tmp/a.jpeg")))))
	assert.NoError(t, c.DeleteMessage(5, sent.MessageID))

	assert.Equal(t, []string{"Working..."}, c.Texts())
	assert.Equal(t, sent.MessageID, c.Edits()[0].MessageID)
	assert.Equal(t, "ok", c.Callbacks()[0].Text)
	assert.Equal(t, []int{sent.MessageID}, c.Deleted())
	assert.Equal(t, FilePath("/tmp/a.jpeg"), c.Photos()[0].Photo.Media)
}
