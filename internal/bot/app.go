package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/m3rciful/ordersbot/core/bootstrap"
	coredatabase "github.com/m3rciful/ordersbot/core/database"
	"github.com/m3rciful/ordersbot/core/logger"
	coretelegram "github.com/m3rciful/ordersbot/core/telegram"
	"github.com/m3rciful/ordersbot/core/telegram/commands"
	"github.com/m3rciful/ordersbot/core/telegram/router"
	"github.com/m3rciful/ordersbot/core/telegram/state"
	"github.com/m3rciful/ordersbot/internal/domain"
	"github.com/m3rciful/ordersbot/internal/service"
	"github.com/m3rciful/ordersbot/internal/storage"

	"log/slog"
)

// App wires configuration, storage, the order service, and the Telegram
// surface together.
type App struct {
	cfg      *Config
	notifier *teleNotifier
	handlers *handlers
}

// NewApp initializes logging and the configured ledger backend, then
// builds the order service on top of them.
func NewApp(cfg *Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bot: nil config")
	}

	var dbCfg *coredatabase.Config
	if cfg.Orders.Storage == StoragePostgres {
		dbCfg = &cfg.Database
	}
	res, err := bootstrap.Run(bootstrap.Options{
		Config:   cfg.CoreConfig(),
		Database: dbCfg,
	})
	if err != nil {
		return nil, err
	}

	loc, err := time.LoadLocation(cfg.Orders.Timezone)
	if err != nil {
		return nil, fmt.Errorf("bot: load timezone: %w", err)
	}

	var ledger storage.Ledger
	switch cfg.Orders.Storage {
	case StoragePostgres:
		ledger = storage.NewPostgresLedger(res.DB)
	default:
		ledger = storage.NewFileLedger(cfg.Orders.DataFile, loc)
	}

	notifier := &teleNotifier{}
	svc := service.New(service.Options{
		Ledger:         ledger,
		Notifier:       notifier,
		Catalog:        domain.Catalog(cfg.Orders.Tariffs),
		OperatorChatID: cfg.Orders.OperatorChatID,
		HourlyLimit:    *cfg.Orders.HourlyLimit,
		Location:       loc,
	})

	logger.SVCOrders.Info("order service ready",
		slog.String("event", "ready"),
		slog.String("storage", cfg.Orders.Storage),
		slog.Int("tariffs", len(cfg.Orders.Tariffs)),
		slog.Int("hourly_limit", *cfg.Orders.HourlyLimit),
	)

	return &App{
		cfg:      cfg,
		notifier: notifier,
		handlers: &handlers{
			svc:      svc,
			sessions: state.NewMemoryManager(),
			orders:   cfg.Orders,
		},
	}, nil
}

// TelegramRunOptions assembles the registry, routes, and middleware chain.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	h := a.handlers
	h.registerFSM()

	reg := coretelegram.NewRegistry()
	reg.RegisterCommand("/start", commands.Command{
		Handler:     h.handleStart,
		Description: "Start the purchase flow",
	})
	reg.RegisterCommand("/send_req", commands.Command{
		Handler:     h.handleSendReq,
		Description: "Send payment requisites to a client",
		AdminOnly:   true,
		Hidden:      true,
	})
	reg.RegisterCommand("/confirm", commands.Command{
		Handler:     h.handleConfirm,
		Description: "Confirm a client's payment",
		AdminOnly:   true,
		Hidden:      true,
	})

	if err := reg.RegisterCallback(cbMenu, h.handleMenu); err != nil {
		return coretelegram.RunOptions{}, err
	}
	if err := reg.RegisterCallback(cbBuy, h.handleBuy); err != nil {
		return coretelegram.RunOptions{}, err
	}
	if err := reg.RegisterCallback(cbTariff, h.handleTariff); err != nil {
		return coretelegram.RunOptions{}, err
	}
	routes := router.CommandRoutes(reg, router.CommandRouteOptions{
		OperatorChatID: a.cfg.Orders.OperatorChatID,
		OnAdminReject:  h.handleAdminReject,
	})
	routes = append(routes, router.CallbackRoute(reg, router.CallbackOptions{}))
	routes = append(routes, router.TextRoute(h.sessions, reg, router.TextOptions{}))
	routes = append(routes, router.MediaRoutes(router.MediaOptions{Handler: h.handleMedia})...)

	return coretelegram.RunOptions{
		Config:      a.cfg.CoreConfig(),
		Registry:    reg,
		Middlewares: coretelegram.DefaultMiddlewares(a.cfg.CoreConfig(), nil),
		Routes:      routes,
		OnStart: func(ctx context.Context, rt coretelegram.Runtime) error {
			a.notifier.Bind(rt.Bot)
			return nil
		},
	}, nil
}
