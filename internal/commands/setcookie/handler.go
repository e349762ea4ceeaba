package setcookie

import (
	"context"
	"strings"

	"github.com/muratoffalex/poegram/internal/app/di"
	"github.com/muratoffalex/poegram/internal/commands"
	"github.com/muratoffalex/poegram/internal/commands/base"
	"github.com/muratoffalex/poegram/internal/session"
	"github.com/muratoffalex/poegram/internal/telegram"
)

const CommandName = "setcookie"

type Command struct {
	*base.Command
	state *session.State
}

func New(di *di.Container) *Command {
	cmd := &Command{
		state: di.State,
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
	// Any arguments may carry a secret, valid or not.
	if event.ArgsText != "" {
		if err := c.Tg.DeleteMessage(event.ChatID, event.MessageID); err != nil {
			c.Log(event).WithError(err).Warn("Failed to delete credential message")
		}
	}

	types := credentialList()
	args := event.Args()
	if len(args) != 2 {
		return commands.InvalidInput(c.L("setcookie_usage", map[string]any{"Types": types}))
	}

	credential, ok := session.ParseCredential(args[0])
	if !ok {
		return commands.InvalidInput(c.L("setcookie_unknown_type", map[string]any{
			"Type":  args[0],
			"Types": types,
		}))
	}

	c.state.SetCredential(credential, args[1])
	c.Log(event).WithField("credential", string(credential)).Info("Credential overridden")

	_, err := c.Tg.Send(telegram.NewMessage(event.ChatID, c.L("setcookie_done", map[string]any{"Type": string(credential)}), 0))
	return err
}

func credentialList() string {
	names := make([]string, 0, len(session.Credentials()))
	for _, c := range session.Credentials() {
		names = append(names, string(c))
	}
	return strings.Join(names, ", ")
}
