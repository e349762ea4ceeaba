package base

import (
	"context"

	"github.com/muratoffalex/poegram/internal/app/di"
	"github.com/muratoffalex/poegram/internal/commands"
	"github.com/muratoffalex/poegram/internal/config"
	"github.com/muratoffalex/poegram/internal/logger"
	"github.com/muratoffalex/poegram/internal/service"
	"github.com/muratoffalex/poegram/internal/telegram"
)

type Command struct {
	command   commands.Command
	Tg        telegram.Client
	Logger    logger.Logger
	Cfg       *config.Config
	Localizer *service.Localizer
}

func NewCommand(cmd commands.Command, di *di.Container) *Command {
	return &Command{
		command:   cmd,
		Tg:        di.BotClient,
		Logger:    di.Logger,
		Cfg:       di.Cfg,
		Localizer: di.Localizer,
	}
}

func (c *Command) Name() string {
	return ""
}

func (c *Command) Aliases() []string {
	return []string{}
}

func (c *Command) Access() commands.Access {
	return commands.AccessAllowed
}

func (c *Command) Execute(ctx context.Context, event commands.Event) error {
	return nil
}

func (c *Command) L(messageID string, data map[string]any) string {
	return c.Localizer.Localize(messageID, data)
}

// Log returns a logger annotated with the event and the command handling it.
func (c *Command) Log(event commands.Event) logger.Logger {
	return logger.Event(c.Logger, event.ChatID, event.UserID, event.Kind.String()).
		WithField("command", c.command.Name())
}

// Reply sends text to the event's chat as a reply to the triggering message.
func (c *Command) Reply(event commands.Event, text string) (*telegram.Message, error) {
	msg := telegram.NewMessage(event.ChatID, text, event.MessageID)
	sent, err := c.Tg.Send(msg)
	if err != nil {
		c.Log(event).WithError(err).Error("Failed to send message")
		return nil, err
	}
	return sent, nil
}

// Placeholder posts a temporary reply and returns its message id.
func (c *Command) Placeholder(event commands.Event, messageID string) (int, error) {
	sent, err := c.Reply(event, c.L(messageID, nil))
	if err != nil {
		return 0, err
	}
	return sent.MessageID, nil
}

func (c *Command) Edit(chatID int64, messageID int, text string, parseMode telegram.ParseMode) error {
	edit := telegram.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = parseMode
	_, err := c.Tg.Send(edit)
	return err
}
