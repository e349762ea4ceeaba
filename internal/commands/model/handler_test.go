package model

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muratoffalex/poegram/internal/commands"
	"github.com/muratoffalex/poegram/internal/commands/commandtest"
)

func TestExecute_ShowsKeyboard(t *testing.T) {
	f := commandtest.New(t, nil)

	require.NoError(t, New(f.Container).Execute(context.Background(), commandtest.Command(CommandName, "")))

	sent := f.Tg.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "Please select a bot/model:", sent[0].Text)
	require.NotNil(t, sent[0].ReplyMarkup)

	rows := sent[0].ReplyMarkup.InlineKeyboard
	require.Len(t, rows, len(commandtest.Catalog))
	for i, m := range commandtest.Catalog {
		require.Len(t, rows[i], 1)
		assert.Equal(t, m.DisplayName, rows[i][0].Text)
		button, err := json.Marshal(rows[i][0])
		require.NoError(t, err)
		assert.Contains(t, string(button), `"callback_data":"select `+m.Codename+`"`)
	}
}

func TestExecute_CallbackSelects(t *testing.T) {
	f := commandtest.New(t, nil)

	require.NoError(t, New(f.Container).Execute(context.Background(), commandtest.Callback("select a2")))

	assert.Equal(t, "a2", f.Models.Current())
	callbacks := f.Tg.Callbacks()
	require.Len(t, callbacks, 1)
	assert.Equal(t, "cb-1", callbacks[0].CallbackQueryID)
	assert.Equal(t, "Claude-instant model selected.", callbacks[0].Text)
}

func TestExecute_CallbackInvalid(t *testing.T) {
	for _, data := range []string{"select unknown", "select", "other a2"} {
		t.Run(data, func(t *testing.T) {
			f := commandtest.New(t, nil)

			err := New(f.Container).Execute(context.Background(), commandtest.Callback(data))

			var cmdErr *commands.Error
			require.ErrorAs(t, err, &cmdErr)
			assert.Equal(t, commands.KindInvalidSelection, cmdErr.Kind)
			assert.Equal(t, "capybara", f.Models.Current())
			assert.Empty(t, f.Tg.Callbacks())
		})
	}
}

func TestCallbackData(t *testing.T) {
	codename, ok := ParseCallbackData(CallbackData("chinchilla"))
	assert.True(t, ok)
	assert.Equal(t, "chinchilla", codename)
}
