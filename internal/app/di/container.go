package di

import (
	"net/http"

	tgbotapi "github.com/OvyFlash/telegram-bot-api"

	"github.com/muratoffalex/poegram/internal/access"
	"github.com/muratoffalex/poegram/internal/ai"
	"github.com/muratoffalex/poegram/internal/cache"
	"github.com/muratoffalex/poegram/internal/config"
	"github.com/muratoffalex/poegram/internal/database"
	"github.com/muratoffalex/poegram/internal/logger"
	"github.com/muratoffalex/poegram/internal/network"
	"github.com/muratoffalex/poegram/internal/service"
	"github.com/muratoffalex/poegram/internal/service/bing"
	"github.com/muratoffalex/poegram/internal/session"
	"github.com/muratoffalex/poegram/internal/telegram"
)

type Container struct {
	BotClient  telegram.Client
	Logger     logger.Logger
	DB         database.Database
	Cache      cache.Cache
	Cfg        *config.Config
	Localizer  *service.Localizer
	HttpClient *http.Client
	State      *session.State
	Gate       *access.Gate
	Delay      service.Delayer
	Poe        *ai.PoeClient
	// Backend is Poe behind the random delay.
	Backend ai.Backend
	Models  *ai.ModelRegistry
	Bing    *bing.Client
}

func NewContainer(cfg *config.Config) (*Container, error) {
	logCfg := cfg.Log()
	l := logger.NewLogrusLogger(&logCfg)

	db, err := database.NewSQLiteDB(cfg, l)
	if err != nil {
		return nil, err
	}

	memoryCache := cache.NewMemoryCache()
	dbCache := cache.NewDBCache(db)
	c := cache.NewMultiLevelCache(memoryCache, dbCache, l)
	localizer, err := service.NewLocalizer(cfg.Global().InterfaceLanguage)
	if err != nil {
		l.WithError(err).Fatal("Error create localizer")
	}

	container := &Container{
		Logger:    l,
		DB:        db,
		Cache:     c,
		Cfg:       cfg,
		Localizer: localizer,
		Gate:      access.NewGateFromConfig(cfg.Telegram()),
		State:     session.NewState(cfg.Poe().Cookie, cfg.Bing().AuthCookie),
		Delay:     service.NewRandomDelay(cfg.Delay()),
	}

	httpCfg := network.NewDefaultHTTPClientConfig(cfg.HTTP())
	container.HttpClient, err = network.SetupHTTPClient(httpCfg, l)
	if err != nil {
		return nil, err
	}
	dialer, err := network.SetupWebsocketDialer(httpCfg, l)
	if err != nil {
		return nil, err
	}

	poeCfg := cfg.Poe()
	container.Poe = ai.NewPoeClient(poeCfg, func() string {
		return container.State.Credential(session.CredentialPoe)
	}, container.HttpClient, dialer, l)
	container.Backend = ai.NewDelayedBackend(container.Poe, container.Delay)
	container.Models = ai.NewModelRegistry(container.Backend, c, poeCfg.CatalogTTL, poeCfg.DefaultModel, l).
		ScopeTo(func() string {
			return container.State.Credential(session.CredentialPoe)
		})

	// A new Poe cookie means a new account: its session and bots differ.
	container.State.OnChange(func(cred session.Credential) {
		if cred != session.CredentialPoe {
			return
		}
		container.Poe.Invalidate()
		container.Models.Invalidate()
		l.WithField("credential", string(cred)).Info("Poe session invalidated")
	})

	if cfg.Imagine().Enabled {
		imageClient, err := network.SetupHTTPClient(network.NewImageHTTPClientConfig(cfg.HTTP()), l)
		if err != nil {
			return nil, err
		}
		container.Bing = bing.NewClient(cfg.Bing(), imageClient, container.HttpClient, l)
	}

	api, err := tgbotapi.NewBotAPI(cfg.Telegram().Token)
	if err != nil {
		l.WithError(err).Fatal("Bot API client initialization error")
	}
	l.Info("Bot API initialized")

	container.BotClient = telegram.NewBotClient(api, l)

	return container, nil
}
