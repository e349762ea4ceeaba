package purge

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/muratoffalex/poegram/internal/commands"
	"github.com/muratoffalex/poegram/internal/commands/commandtest"
)

func TestExecute(t *testing.T) {
	f := commandtest.New(t, nil)
	f.Backend.EXPECT().PurgeConversation(mock.Anything, "capybara").Return(nil).Once()

	require.NoError(t, New(f.Container).Execute(context.Background(), commandtest.Command(CommandName, "")))
	assert.Equal(t, []string{"Conversation purged."}, f.Tg.Texts())
}

func TestExecute_BackendFailure(t *testing.T) {
	f := commandtest.New(t, nil)
	f.Backend.EXPECT().PurgeConversation(mock.Anything, "capybara").Return(errors.New("boom")).Once()

	err := New(f.Container).Execute(context.Background(), commandtest.Command(CommandName, ""))

	var cmdErr *commands.Error
	require.ErrorAs(t, err, &cmdErr)
	assert.Equal(t, commands.KindBackend, cmdErr.Kind)
}
