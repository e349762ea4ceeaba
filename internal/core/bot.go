package core

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"runtime/debug"
	"slices"
	"strings"
	"sync"
	"unicode/utf16"

	"github.com/muratoffalex/poegram/internal/access"
	"github.com/muratoffalex/poegram/internal/commands"
	"github.com/muratoffalex/poegram/internal/database"
	"github.com/muratoffalex/poegram/internal/logger"
	"github.com/muratoffalex/poegram/internal/service"
	"github.com/muratoffalex/poegram/internal/telegram"
)

type Bot struct {
	commands  map[string]commands.Command
	relay     commands.Command
	logger    logger.Logger
	db        database.Database
	tg        telegram.Client
	gate      *access.Gate
	localizer *service.Localizer

	wg sync.WaitGroup
}

// NewBot wires the router. db may be nil, in which case users are not recorded.
func NewBot(
	tg telegram.Client,
	logger logger.Logger,
	db database.Database,
	gate *access.Gate,
	localizer *service.Localizer,
) *Bot {
	return &Bot{
		commands:  make(map[string]commands.Command),
		tg:        tg,
		logger:    logger,
		db:        db,
		gate:      gate,
		localizer: localizer,
	}
}

// Start polls for updates until ctx is cancelled and waits for in-flight
// handlers before returning.
func (b *Bot) Start(ctx context.Context) error {
	updates := b.tg.GetUpdatesChan(telegram.UpdateConfig{Timeout: 60})
	b.logger.Info("Bot started")

	defer b.wg.Wait()
	for {
		select {
		case <-ctx.Done():
			b.tg.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.wg.Add(1)
			go func(update telegram.Update) {
				defer b.wg.Done()
				b.HandleUpdate(ctx, update)
			}(update)
		}
	}
}

func (b *Bot) RegisterCommand(cmd commands.Command) {
	if cmd == nil {
		b.logger.Error("Attempting to register nil command")
		return
	}

	name := cmd.Name()
	if name == "" {
		b.logger.Error("Attempting to register command with empty name")
		return
	}

	b.logger.WithFields(logger.Fields{
		"command": name,
	}).Debug("Registering command")

	b.commands[name] = cmd
}

// SetRelay installs the handler for plain text addressed to the bot.
func (b *Bot) SetRelay(cmd commands.Command) {
	b.relay = cmd
}

func (b *Bot) GetCommands() map[string]commands.Command {
	return b.commands
}

// HandleUpdate processes one update to completion. Failures are reported to
// the chat and logged; nothing escapes, panics included.
func (b *Bot) HandleUpdate(ctx context.Context, update telegram.Update) {
	event, ok := b.toEvent(update)
	if !ok {
		return
	}
	log := logger.Event(b.logger, event.ChatID, event.UserID, event.Kind.String())

	defer func() {
		if r := recover(); r != nil {
			log.WithFields(logger.Fields{
				"panic": r,
				"stack": string(debug.Stack()),
			}).Error("Handler panicked")
			b.handleError(event, log, fmt.Errorf("panic: %v", r))
		}
	}()

	if event.Kind != commands.EventCallback {
		b.saveUser(ctx, update.Message, log)
	}

	cmd := b.route(event)
	if cmd == nil {
		if event.Kind == commands.EventCallback {
			log.WithField("data", event.CallbackData).Debug("Unknown callback data")
			b.answerCallback(event, b.localizer.Localize("select_invalid", nil), log)
		}
		return
	}
	log = log.WithField("command", cmd.Name())

	if err := b.authorize(cmd, event); err != nil {
		b.handleError(event, log, err)
		return
	}

	if event.Kind == commands.EventCommand {
		log.WithField("username", event.Username).Info("Handling command")
	}
	if err := cmd.Execute(ctx, event); err != nil {
		b.handleError(event, log, err)
	}
}

func (b *Bot) route(event commands.Event) commands.Command {
	switch event.Kind {
	case commands.EventCommand:
		return b.lookup(event.Command)
	case commands.EventCallback:
		name, _, _ := strings.Cut(event.CallbackData, " ")
		return b.lookup(name)
	case commands.EventText:
		if event.IsGroup() && !event.MentionsBot && !event.RepliesToBot {
			return nil
		}
		return b.relay
	}
	return nil
}

func (b *Bot) lookup(name string) commands.Command {
	name = strings.ToLower(name)
	if cmd, ok := b.commands[name]; ok {
		return cmd
	}
	for _, cmd := range b.commands {
		if slices.Contains(cmd.Aliases(), name) {
			return cmd
		}
	}
	return nil
}

func (b *Bot) authorize(cmd commands.Command, event commands.Event) error {
	switch cmd.Access() {
	case commands.AccessPublic:
		return nil
	case commands.AccessAdmin:
		if !b.gate.IsAuthorized(event.UserID, event.ChatID) || !b.gate.IsAdmin(event.UserID) {
			return commands.Denied()
		}
	default:
		if !b.gate.IsAuthorized(event.UserID, event.ChatID) {
			return commands.Denied()
		}
	}
	return nil
}

func (b *Bot) handleError(event commands.Event, log logger.Logger, err error) {
	cmdErr := commands.AsError(err)

	switch cmdErr.Kind {
	case commands.KindDenied:
		log.WithField("username", event.Username).Warn("Unauthorized access attempt")
		b.respond(event, b.localizer.Localize("access_denied", nil), log)
	case commands.KindInvalidInput:
		log.Debug("Invalid command input")
		b.respond(event, cmdErr.Usage, log)
	case commands.KindInvalidSelection:
		log.WithError(cmdErr.Err).Warn("Invalid selection")
		b.respond(event, b.localizer.Localize("select_invalid", nil), log)
	default:
		log.WithError(cmdErr.Err).Error("Failed to handle event")
		text := b.localizer.Localize("error_generic", nil)
		if cmdErr.PlaceholderID != 0 {
			edit := telegram.NewEditMessageText(event.ChatID, cmdErr.PlaceholderID, text)
			_, err := b.tg.Send(edit)
			if err == nil {
				return
			}
			log.WithError(err).Error("Failed to edit placeholder")
		}
		b.respond(event, text, log)
	}
}

// respond answers a button press with a notification and anything else with
// a reply in the chat.
func (b *Bot) respond(event commands.Event, text string, log logger.Logger) {
	if event.Kind == commands.EventCallback {
		b.answerCallback(event, text, log)
		return
	}
	if _, err := b.tg.Send(telegram.NewMessage(event.ChatID, text, event.MessageID)); err != nil {
		log.WithError(err).Error("Failed to send message")
	}
}

func (b *Bot) answerCallback(event commands.Event, text string, log logger.Logger) {
	if err := b.tg.Request(telegram.NewCallback(event.CallbackID, text)); err != nil {
		log.WithError(err).Error("Failed to answer callback query")
	}
}

func (b *Bot) saveUser(ctx context.Context, msg *telegram.MessageOriginal, log logger.Logger) {
	if b.db == nil || msg == nil || msg.From == nil {
		return
	}

	user := database.User{
		ID:         int64(msg.From.ID),
		FirstName:  msg.From.FirstName,
		Username:   msg.From.UserName,
		LastChatID: msg.Chat.ID,
	}
	storedUser, err := b.db.GetUser(ctx, user.ID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		log.WithField("user", user).Info("Store new user")
	case err != nil:
		log.WithError(err).Error("Error get user by id")
		return
	case user.Equal(*storedUser):
		return
	}
	if err := b.db.SaveUser(ctx, user); err != nil {
		log.WithError(err).WithField("user", user).Error("Error save user")
	}
}

func (b *Bot) toEvent(update telegram.Update) (commands.Event, bool) {
	if cq := update.CallbackQuery; cq != nil {
		if cq.From == nil || cq.Message == nil {
			return commands.Event{}, false
		}
		return commands.Event{
			Kind:         commands.EventCallback,
			UserID:       int64(cq.From.ID),
			FirstName:    cq.From.FirstName,
			Username:     cq.From.UserName,
			ChatID:       cq.Message.Chat.ID,
			ChatType:     cq.Message.Chat.Type,
			MessageID:    cq.Message.MessageID,
			CallbackID:   cq.ID,
			CallbackData: cq.Data,
		}, true
	}

	msg := update.Message
	if msg == nil || msg.From == nil || msg.From.IsBot || strings.TrimSpace(msg.Text) == "" {
		return commands.Event{}, false
	}

	self := b.tg.Self()
	event := commands.Event{
		Kind:         commands.EventText,
		UserID:       int64(msg.From.ID),
		FirstName:    msg.From.FirstName,
		Username:     msg.From.UserName,
		ChatID:       msg.Chat.ID,
		ChatType:     msg.Chat.Type,
		MessageID:    msg.MessageID,
		Text:         msg.Text,
		MentionsBot:  mentions(msg.Text, msg.Entities, self),
		RepliesToBot: msg.ReplyToMessage != nil && msg.ReplyToMessage.From != nil && int64(msg.ReplyToMessage.From.ID) == self.ID,
	}

	if strings.HasPrefix(msg.Text, "/") {
		parts := strings.Fields(msg.Text)
		command, target, addressed := strings.Cut(strings.TrimPrefix(parts[0], "/"), "@")
		if addressed && !strings.EqualFold(target, self.UserName) {
			// skip commands addressed to other bots
			return commands.Event{}, false
		}
		event.Kind = commands.EventCommand
		event.Command = strings.ToLower(command)
		event.ArgsText = strings.TrimSpace(strings.TrimPrefix(msg.Text, parts[0]))
	}
	return event, true
}

// mentions reports whether any entity mentions self. Entity offsets count
// UTF-16 code units.
func mentions(text string, entities []telegram.MessageEntity, self telegram.User) bool {
	units := utf16.Encode([]rune(text))
	for _, e := range entities {
		switch e.Type {
		case "mention":
			if e.Offset < 0 || e.Length <= 0 || e.Offset+e.Length > len(units) {
				continue
			}
			mention := string(utf16.Decode(units[e.Offset : e.Offset+e.Length]))
			if strings.EqualFold(mention, "@"+self.UserName) {
				return true
			}
		case "text_mention":
			if e.User != nil && int64(e.User.ID) == self.ID {
				return true
			}
		}
	}
	return false
}
