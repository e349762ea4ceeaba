package restart

import (
	"context"

	"github.com/muratoffalex/poegram/internal/ai"
	"github.com/muratoffalex/poegram/internal/app/di"
	"github.com/muratoffalex/poegram/internal/commands"
	"github.com/muratoffalex/poegram/internal/commands/base"
	"github.com/muratoffalex/poegram/internal/session"
)

const CommandName = "restart"

type invalidator interface {
	Invalidate()
}

type Command struct {
	*base.Command
	state  *session.State
	models *ai.ModelRegistry
	// sessions are backend sessions rebuilt on restart.
	sessions []invalidator
}

func New(di *di.Container) *Command {
	cmd := &Command{
		state:  di.State,
		models: di.Models,
	}
	if di.Poe != nil {
		cmd.sessions = append(cmd.sessions, di.Poe)
	}
	cmd.Command = base.NewCommand(cmd, di)
	return cmd
}

func (c *Command) Name() string {
	return CommandName
}

func (c *Command) Access() commands.Access {
	return commands.AccessAdmin
}

func (c *Command) Execute(ctx context.Context, event commands.Event) error {
	c.state.ClearOverrides()
	for _, s := range c.sessions {
		s.Invalidate()
	}
	c.models.Invalidate()
	c.models.Reset()

	model := c.models.Default()
	c.Log(event).WithField("model", model).Info("Bot state restarted")
	_, err := c.Reply(event, c.L("restart_done", map[string]any{"Model": model}))
	return err
}
