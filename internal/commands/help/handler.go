package help

import (
	"context"
	"strings"

	"github.com/muratoffalex/poegram/internal/app/di"
	"github.com/muratoffalex/poegram/internal/commands"
	"github.com/muratoffalex/poegram/internal/commands/base"
)

const CommandName = "help"

// lines is the help order; each entry is a command name with a help_<name> text.
var lines = []string{"start", "purge", "reset", "select", "imagine", "setcookie", "restart", "help"}

type Command struct {
	*base.Command
}

func New(di *di.Container) *Command {
	cmd := &Command{}
	cmd.Command = base.NewCommand(cmd, di)
	return cmd
}

func (c *Command) Name() string {
	return CommandName
}

func (c *Command) Access() commands.Access {
	return commands.AccessPublic
}

func (c *Command) Execute(ctx context.Context, event commands.Event) error {
	_, err := c.Reply(event, c.Text())
	return err
}

// Text lists the enabled commands.
func (c *Command) Text() string {
	var sb strings.Builder
	sb.WriteString(c.L("help_header", nil))
	for _, name := range lines {
		if name != CommandName && !c.Cfg.GetCommandConfig(name).Enabled {
			continue
		}
		sb.WriteString("\n")
		sb.WriteString(c.L("help_"+name, nil))
	}
	return sb.String()
}
