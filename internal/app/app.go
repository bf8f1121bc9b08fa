// Package app assembles the shop bot: configuration, commerce client,
// catalog and cart services, the conversation engine, and the Telegram
// runtime wiring.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/m3rciful/shopbot/core/bootstrap"
	"github.com/m3rciful/shopbot/core/cmd"
	coreconfig "github.com/m3rciful/shopbot/core/config"
	coretelegram "github.com/m3rciful/shopbot/core/telegram"
	"github.com/m3rciful/shopbot/core/telegram/router"
	"github.com/m3rciful/shopbot/core/telegram/ui"
	"github.com/m3rciful/shopbot/internal/cart"
	"github.com/m3rciful/shopbot/internal/catalog"
	"github.com/m3rciful/shopbot/internal/commerce"
	"github.com/m3rciful/shopbot/internal/shop"
)

// Services holds the wired application components.
type Services struct {
	Commerce *commerce.Client
	Catalog  *catalog.Aggregator
	Carts    *cart.Service
	Sessions *shop.Store
	Engine   *shop.Engine
	Bot      *shop.Bot
}

// App carries configuration and services through the runtime lifecycle.
type App struct {
	cfg      *Config
	services Services
}

// Bootstrap initializes the logger and application services from the
// loaded configuration.
func Bootstrap(carrier cmd.ConfigCarrier) (cmd.TelegramApp, error) {
	cfg, ok := carrier.(*Config)
	if !ok {
		return nil, fmt.Errorf("app: unexpected config type %T", carrier)
	}

	res, err := bootstrap.Run(context.Background(), bootstrap.Options{
		Config: cfg.CoreConfig(),
		Services: bootstrap.TypedServiceProviderFunc[Services](
			func(ctx context.Context, _ *coreconfig.Config) (Services, error) {
				return buildServices(cfg)
			},
		),
	})
	if err != nil {
		return nil, err
	}

	services, ok := res.Services.(Services)
	if !ok {
		return nil, fmt.Errorf("app: unexpected services type %T", res.Services)
	}
	return &App{cfg: cfg, services: services}, nil
}

func buildServices(cfg *Config) (Services, error) {
	client, err := commerce.NewClient(commerce.Config{
		BaseURL:      cfg.Commerce.BaseURL,
		ClientID:     cfg.Commerce.ClientID,
		ClientSecret: cfg.Commerce.ClientSecret,
		Timeout:      time.Duration(cfg.Commerce.TimeoutSeconds) * time.Second,
	})
	if err != nil {
		return Services{}, err
	}

	aggregator := catalog.NewAggregator(client)
	carts := cart.NewService(client)
	sessions := shop.NewStore()
	engine := shop.NewEngine(sessions, aggregator, carts, client, shop.Config{})

	return Services{
		Commerce: client,
		Catalog:  aggregator,
		Carts:    carts,
		Sessions: sessions,
		Engine:   engine,
		Bot:      shop.NewBot(engine),
	}, nil
}

// Services exposes the wired components, mainly for tests.
func (a *App) Services() Services {
	return a.services
}

// TelegramRunOptions builds the Telegram runtime wiring: registry,
// middleware chain, and routes for commands, callbacks, and text.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	core := a.cfg.CoreConfig()
	bot := a.services.Bot

	reg := coretelegram.NewRegistry()
	bot.Register(reg)

	var fallbacks ui.FallbackProvider = bot

	routes := router.CommandRoutes(reg, router.CommandRouteOptions{
		AdminID: core.Telegram.AdminID,
	})
	routes = append(routes, router.CallbackRoute(reg, router.CallbackOptions{
		NotFound: fallbacks.UnknownCallback(),
	}))
	routes = append(routes, router.TextRoutes(bot, reg, router.TextOptions{
		UnknownText:     fallbacks.UnknownText(),
		UnknownDocument: fallbacks.UnknownDocument(),
	})...)

	return coretelegram.RunOptions{
		Config:      core,
		Registry:    reg,
		Middlewares: coretelegram.DefaultMiddlewares(core, nil),
		Routes:      routes,
		OnStart: func(_ context.Context, rt coretelegram.Runtime) error {
			bot.SetErrorCounter(rt.Dispatcher.ErrorCount)
			return nil
		},
	}, nil
}
