package help

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muratoffalex/poegram/internal/commands"
	"github.com/muratoffalex/poegram/internal/commands/commandtest"
)

func TestExecute(t *testing.T) {
	f := commandtest.New(t, nil)
	cmd := New(f.Container)

	require.NoError(t, cmd.Execute(context.Background(), commandtest.Command(CommandName, "")))

	texts := f.Tg.Texts()
	require.Len(t, texts, 1)
	lines := strings.Split(texts[0], "\n")
	assert.Equal(t, f.L("help_header", nil), lines[0])
	assert.Len(t, lines, 9)
	assert.Contains(t, texts[0], "/imagine")
	assert.Contains(t, texts[0], "/setcookie")
	assert.Equal(t, commands.AccessPublic, cmd.Access())
}

func TestText_HidesDisabledCommands(t *testing.T) {
	f := commandtest.New(t, map[string]any{
		"commands.imagine.enabled": false,
		"commands.restart.enabled": false,
		"commands.help.enabled":    false,
	})
	text := New(f.Container).Text()

	assert.NotContains(t, text, "/imagine")
	assert.NotContains(t, text, "/restart")
	assert.Contains(t, text, "/select")
	assert.Contains(t, text, "/help")
}
