package restart

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muratoffalex/poegram/internal/commands"
	"github.com/muratoffalex/poegram/internal/commands/commandtest"
	"github.com/muratoffalex/poegram/internal/session"
)

type countingSession struct{ calls int }

func (s *countingSession) Invalidate() { s.calls++ }

func TestExecute(t *testing.T) {
	ctx := context.Background()
	f := commandtest.New(t, map[string]any{"poe.default_model": "chinchilla"})
	_, err := f.Models.Select(ctx, "a2")
	require.NoError(t, err)
	f.State.SetCredential(session.CredentialPoe, "override")

	poe := &countingSession{}
	cmd := New(f.Container)
	cmd.sessions = append(cmd.sessions, poe)

	require.NoError(t, cmd.Execute(ctx, commandtest.Command(CommandName, "")))

	assert.Equal(t, "chinchilla", f.Models.Current())
	assert.Equal(t, "poe-cookie", f.State.Credential(session.CredentialPoe))
	assert.False(t, f.State.HasOverride(session.CredentialPoe))
	assert.Equal(t, 1, poe.calls)
	assert.Equal(t, []string{"Credential overrides cleared, model reset to chinchilla."}, f.Tg.Texts())
	assert.Equal(t, commands.AccessAdmin, cmd.Access())
}
