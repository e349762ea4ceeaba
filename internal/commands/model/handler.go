package model

import (
	"context"
	"errors"
	"strings"

	"github.com/muratoffalex/poegram/internal/ai"
	"github.com/muratoffalex/poegram/internal/app/di"
	"github.com/muratoffalex/poegram/internal/commands"
	"github.com/muratoffalex/poegram/internal/commands/base"
	"github.com/muratoffalex/poegram/internal/telegram"
)

// CommandName doubles as the first word of the button callback data.
const CommandName = "select"

type Command struct {
	*base.Command
	models *ai.ModelRegistry
}

func New(di *di.Container) *Command {
	cmd := &Command{
		models: di.Models,
	}
	cmd.Command = base.NewCommand(cmd, di)
	return cmd
}

func (c *Command) Name() string {
	return CommandName
}

func (c *Command) Aliases() []string {
	return []string{"model"}
}

func (c *Command) Execute(ctx context.Context, event commands.Event) error {
	if event.Kind == commands.EventCallback {
		return c.choose(ctx, event)
	}

	models, err := c.models.List(ctx)
	if err != nil {
		return commands.BackendError(err, 0)
	}

	markup := Keyboard(models)
	msg := telegram.NewMessage(event.ChatID, c.L("select_prompt", nil), event.MessageID)
	msg.ReplyMarkup = &markup
	if _, err := c.Tg.Send(msg); err != nil {
		c.Log(event).WithError(err).Error("Failed to send model keyboard")
		return err
	}
	return nil
}

func (c *Command) choose(ctx context.Context, event commands.Event) error {
	codename, ok := ParseCallbackData(event.CallbackData)
	if !ok {
		return commands.InvalidSelection(errors.New("malformed callback data"))
	}

	model, err := c.models.Select(ctx, codename)
	if errors.Is(err, ai.ErrInvalidSelection) {
		return commands.InvalidSelection(err)
	}
	if err != nil {
		return commands.BackendError(err, 0)
	}

	c.Log(event).WithField("model", model.Codename).Info("Model selected")
	return c.Tg.Request(telegram.NewCallback(event.CallbackID, c.L("select_selected", map[string]any{
		"Name": model.DisplayName,
	})))
}

// Keyboard lays out one button per model, one model per row.
func Keyboard(models []ai.Model) telegram.InlineKeyboardMarkup {
	rows := make([][]telegram.InlineKeyboardButton, 0, len(models))
	for _, m := range models {
		rows = append(rows, telegram.NewInlineKeyboardRow(
			telegram.NewInlineKeyboardButtonData(m.DisplayName, CallbackData(m.Codename)),
		))
	}
	return telegram.NewInlineKeyboardMarkup(rows...)
}

func CallbackData(codename string) string {
	return CommandName + " " + codename
}

func ParseCallbackData(data string) (string, bool) {
	name, codename, found := strings.Cut(data, " ")
	if !found || name != CommandName {
		return "", false
	}
	codename = strings.TrimSpace(codename)
	return codename, codename != ""
}
