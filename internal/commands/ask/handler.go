package ask

import (
	"context"

	"github.com/muratoffalex/poegram/internal/ai"
	"github.com/muratoffalex/poegram/internal/app/di"
	"github.com/muratoffalex/poegram/internal/commands"
	"github.com/muratoffalex/poegram/internal/commands/base"
	"github.com/muratoffalex/poegram/internal/markdown"
	"github.com/muratoffalex/poegram/internal/prompt"
	"github.com/muratoffalex/poegram/internal/telegram"
)

// CommandName identifies the relay in logs; it is not a slash command.
const CommandName = "ask"

// Command relays plain chat text to the active model and posts the reply.
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
	placeholderID, err := c.Placeholder(event, "relay_working")
	if err != nil {
		return err
	}

	codename := c.models.Current()
	log := c.Log(event).WithField("model", codename)
	text := prompt.Build(event.Nickname(), event.Username, event.Text, c.Tg.Self().UserName)

	stream, err := c.backend.SendMessage(ctx, codename, text, false)
	if err != nil {
		return commands.BackendError(err, placeholderID)
	}
	reply, err := ai.Collect(ctx, stream)
	if err != nil {
		return commands.BackendError(err, placeholderID)
	}
	log.WithField("length", len(reply)).Debug("Reply received")

	parts := markdown.Split(markdown.Escape(reply), telegram.MaxMessageLength)
	if err := c.Edit(event.ChatID, placeholderID, parts[0], telegram.ModeMarkdownV2); err != nil {
		log.WithError(err).Error("Failed to edit placeholder")
		return commands.BackendError(err, placeholderID)
	}
	for _, part := range parts[1:] {
		msg := telegram.NewMessage(event.ChatID, part, 0)
		msg.ParseMode = telegram.ModeMarkdownV2
		if _, err := c.Tg.Send(msg); err != nil {
			log.WithError(err).Error("Failed to send reply part")
			return err
		}
	}
	return nil
}
