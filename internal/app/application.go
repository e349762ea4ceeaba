package app

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/muratoffalex/poegram/internal/app/di"
	"github.com/muratoffalex/poegram/internal/commands"
	"github.com/muratoffalex/poegram/internal/commands/ask"
	"github.com/muratoffalex/poegram/internal/commands/help"
	"github.com/muratoffalex/poegram/internal/commands/imagine"
	"github.com/muratoffalex/poegram/internal/commands/model"
	"github.com/muratoffalex/poegram/internal/commands/purge"
	"github.com/muratoffalex/poegram/internal/commands/reset"
	"github.com/muratoffalex/poegram/internal/commands/restart"
	"github.com/muratoffalex/poegram/internal/commands/setcookie"
	"github.com/muratoffalex/poegram/internal/commands/start"
	"github.com/muratoffalex/poegram/internal/config"
	"github.com/muratoffalex/poegram/internal/core"
	"github.com/muratoffalex/poegram/internal/logger"
	"github.com/muratoffalex/poegram/internal/telegram"
)

type Application struct {
	Logger logger.Logger
	cfg    *config.Config
	bot    *core.Bot
	di     *di.Container
	ctx    context.Context
	cancel context.CancelFunc
}

func New() (*Application, error) {
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	di, err := di.NewContainer(cfg)
	if err != nil {
		return nil, err
	}
	di.Logger.Info("DI Container created")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	app := &Application{
		cfg:    cfg,
		bot:    core.NewBot(di.BotClient, di.Logger, di.DB, di.Gate, di.Localizer),
		di:     di,
		Logger: di.Logger,
		ctx:    ctx,
		cancel: cancel,
	}
	di.Logger.Info("Bot instance created")

	app.registerCommands()

	return app, nil
}

func (a *Application) Start() error {
	a.Logger.WithField("model", a.di.Models.Current()).Info("Starting application")
	a.setMenu()

	err := a.bot.Start(a.ctx)
	if a.ctx.Err() != nil {
		return nil
	}
	return err
}

func (a *Application) registerCommands() {
	// help lists commands and must work for everyone.
	a.bot.RegisterCommand(help.New(a.di))

	if a.cfg.GetCommandConfig(start.CommandName).Enabled {
		a.bot.RegisterCommand(start.New(a.di))
	}
	if a.cfg.GetCommandConfig(reset.CommandName).Enabled {
		a.bot.RegisterCommand(reset.New(a.di))
	}
	if a.cfg.GetCommandConfig(purge.CommandName).Enabled {
		a.bot.RegisterCommand(purge.New(a.di))
	}
	if a.cfg.GetCommandConfig(model.CommandName).Enabled {
		a.bot.RegisterCommand(model.New(a.di))
	}
	if a.cfg.GetCommandConfig(setcookie.CommandName).Enabled {
		a.bot.RegisterCommand(setcookie.New(a.di))
	}
	if a.cfg.GetCommandConfig(restart.CommandName).Enabled {
		a.bot.RegisterCommand(restart.New(a.di))
	}
	if a.cfg.Imagine().Enabled && a.di.Bing != nil {
		a.bot.RegisterCommand(imagine.New(a.di))
	}

	a.bot.SetRelay(ask.New(a.di))
}

// menuOrder is the order commands appear in the client's command menu.
var menuOrder = []string{
	start.CommandName,
	help.CommandName,
	reset.CommandName,
	purge.CommandName,
	model.CommandName,
	imagine.CommandName,
	setcookie.CommandName,
	restart.CommandName,
}

func (a *Application) setMenu() {
	names := Menu(a.bot.GetCommands())
	menu := make([]telegram.BotCommand, 0, len(names))
	for _, name := range names {
		menu = append(menu, telegram.BotCommand{
			Command:     name,
			Description: a.di.Localizer.Localize("menu_"+name, nil),
		})
	}
	if err := a.di.BotClient.SetCommands(menu); err != nil {
		a.Logger.WithError(err).Warn("Failed to set bot commands")
	}
}

// Menu returns the registered command names in menu order.
func Menu(registered map[string]commands.Command) []string {
	names := make([]string, 0, len(registered))
	for _, name := range menuOrder {
		if _, ok := registered[name]; ok {
			names = append(names, name)
		}
	}
	return names
}

func (a *Application) WaitForShutdown() {
	<-a.ctx.Done()
	a.cancel()
	if err := a.di.DB.Close(); err != nil {
		a.Logger.WithError(err).Error("Failed to close database")
	}
	a.Logger.Info("Application stopped")
}
