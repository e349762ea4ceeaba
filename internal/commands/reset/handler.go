package reset

import (
	"context"

	"github.com/muratoffalex/poegram/internal/ai"
	"github.com/muratoffalex/poegram/internal/app/di"
	"github.com/muratoffalex/poegram/internal/commands"
	"github.com/muratoffalex/poegram/internal/commands/base"
)

const CommandName = "reset"

type Command struct {
	*base.Command
	backend ai.Backend
	models  *ai.ModelRegistry
}

func New(di *di.Container) *Command {
	cmd := &Command{
		backend: di.Backend,
		models:  di.Models,
	}
	cmd.Command = base.NewCommand(cmd, di)
	return cmd
}

func (c *Command) Name() string {
	return CommandName
}

func (c *Command) Execute(ctx context.Context, event commands.Event) error {
	codename := c.models.Current()
	if err := c.backend.SendChatBreak(ctx, codename); err != nil {
		return commands.BackendError(err, 0)
	}
	c.Log(event).WithField("model", codename).Info("Context cleared")
	_, err := c.Reply(event, c.L("reset_done", nil))
	return err
}
