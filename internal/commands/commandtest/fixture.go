// Package commandtest builds in-memory containers for command and router tests.
package commandtest

import (
	"context"
	"maps"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/muratoffalex/poegram/internal/access"
	"github.com/muratoffalex/poegram/internal/ai"
	"github.com/muratoffalex/poegram/internal/app/di"
	"github.com/muratoffalex/poegram/internal/cache"
	"github.com/muratoffalex/poegram/internal/commands"
	"github.com/muratoffalex/poegram/internal/config"
	"github.com/muratoffalex/poegram/internal/logger"
	"github.com/muratoffalex/poegram/internal/service"
	"github.com/muratoffalex/poegram/internal/session"
	"github.com/muratoffalex/poegram/internal/telegram"
)

const (
	BotID       = 999
	BotUsername = "PoeBot"
	UserID      = 42
	ChatID      = 42
)

var Catalog = []ai.Model{
	{Codename: "capybara", DisplayName: "Sage"},
	{Codename: "a2", DisplayName: "Claude-instant"},
	{Codename: "chinchilla", DisplayName: "ChatGPT"},
}

// StaticCatalog serves a fixed model list.
type StaticCatalog []ai.Model

func (s StaticCatalog) BotNames(context.Context) ([]ai.Model, error) {
	return append([]ai.Model(nil), s...), nil
}

type Fixture struct {
	Container *di.Container
	Tg        *telegram.TestClient
	Log       *logger.TestLogger
	Backend   *ai.MockBackend
	Models    *ai.ModelRegistry
	State     *session.State
}

// New returns a fixture in open access mode with no delay. values override
// configuration keys.
func New(t *testing.T, values map[string]any) *Fixture {
	t.Helper()

	settings := map[string]any{
		config.TELEGRAM_TOKEN: "123:test",
		config.POE_COOKIE:     "poe-cookie",
	}
	maps.Copy(settings, values)
	cfg, err := config.FromMap(settings)
	require.NoError(t, err)

	localizer, err := service.NewLocalizer("en")
	require.NoError(t, err)

	log := logger.NewTestLogger()
	tg := telegram.NewTestClient(telegram.User{ID: BotID, UserName: BotUsername, IsBot: true})
	backend := ai.NewMockBackend(t)
	models := ai.NewModelRegistry(StaticCatalog(Catalog), cache.NewMemoryCache(), cfg.Poe().CatalogTTL, cfg.Poe().DefaultModel, log)
	state := session.NewState(cfg.Poe().Cookie, cfg.Bing().AuthCookie)

	return &Fixture{
		Container: &di.Container{
			BotClient: tg,
			Logger:    log,
			Cfg:       cfg,
			Localizer: localizer,
			State:     state,
			Gate:      access.NewGateFromConfig(cfg.Telegram()),
			Delay:     service.NoDelay{},
			Backend:   backend,
			Models:    models,
		},
		Tg:      tg,
		Log:     log,
		Backend: backend,
		Models:  models,
		State:   state,
	}
}

// L resolves a message the same way handlers do.
func (f *Fixture) L(id string, data map[string]any) string {
	return f.Container.Localizer.Localize(id, data)
}

// Command returns a private-chat command event from the default user.
func Command(name, args string) commands.Event {
	text := "/" + name
	if args != "" {
		text += " " + args
	}
	return commands.Event{
		Kind:      commands.EventCommand,
		UserID:    UserID,
		FirstName: "Neo",
		Username:  "neo",
		ChatID:    ChatID,
		ChatType:  telegram.ChatTypePrivate,
		MessageID: 1,
		Text:      text,
		Command:   name,
		ArgsText:  args,
	}
}

// Text returns a private-chat text event from the default user.
func Text(text string) commands.Event {
	return commands.Event{
		Kind:      commands.EventText,
		UserID:    UserID,
		FirstName: "Neo",
		Username:  "neo",
		ChatID:    ChatID,
		ChatType:  telegram.ChatTypePrivate,
		MessageID: 1,
		Text:      text,
	}
}

// Callback returns a button press event carrying data.
func Callback(data string) commands.Event {
	return commands.Event{
		Kind:         commands.EventCallback,
		UserID:       UserID,
		FirstName:    "Neo",
		Username:     "neo",
		ChatID:       ChatID,
		ChatType:     telegram.ChatTypePrivate,
		MessageID:    7,
		CallbackID:   "cb-1",
		CallbackData: data,
	}
}
