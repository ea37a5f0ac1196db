package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/Patoski-patoski/copperx-payout-bot-sub000/core/bootstrap"
	coreconfig "github.com/Patoski-patoski/copperx-payout-bot-sub000/core/config"
	coredatabase "github.com/Patoski-patoski/copperx-payout-bot-sub000/core/database"
	"github.com/Patoski-patoski/copperx-payout-bot-sub000/core/logger"
	coretelegram "github.com/Patoski-patoski/copperx-payout-bot-sub000/core/telegram"
	"github.com/Patoski-patoski/copperx-payout-bot-sub000/core/telegram/router"
	"github.com/Patoski-patoski/copperx-payout-bot-sub000/internal/audit"
	"github.com/Patoski-patoski/copperx-payout-bot-sub000/internal/copperx"
	"github.com/Patoski-patoski/copperx-payout-bot-sub000/internal/flows"
	"github.com/Patoski-patoski/copperx-payout-bot-sub000/internal/realtime"
	"github.com/Patoski-patoski/copperx-payout-bot-sub000/internal/scheduler"
	"github.com/Patoski-patoski/copperx-payout-bot-sub000/internal/session"

	"log/slog"
)

const defaultConfigPath = "config/config.yaml"

func main() {
	if err := run(); err != nil {
		log.Fatalf("payout-bot: %v", err)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var dbCfg coredatabase.Config
	if err := envconfig.Process("", &dbCfg); err != nil {
		return err
	}

	boot, err := bootstrap.Run(bootstrap.Options{
		Config:   cfg,
		Database: dbCfg,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := logger.Shutdown(); err != nil {
			log.Printf("logger shutdown error: %v", err)
		}
	}()

	recorder := audit.NewNoop()
	if boot.DB != nil {
		recorder = audit.NewRecorder(boot.DB)
		defer boot.DB.Close()
	}

	gateway := copperx.NewClient(cfg.Copperx.BaseURL, cfg.Copperx.Timeout())
	sessions := session.NewMemoryStore()
	sched := scheduler.New()

	// The realtime manager and the controller reference each other: deposits
	// flow manager -> controller, subscriptions controller -> manager.
	var bot *flows.Bot
	var notify flows.Notifications
	if cfg.Pusher.Enabled() {
		manager := realtime.NewManager(cfg.Pusher.Key, cfg.Pusher.Cluster, func(chatID int64, ev realtime.DepositEvent) {
			bot.HandleDeposit(chatID, ev)
		})
		notify = flows.WithManager(manager)
	}

	bot = flows.New(flows.Options{
		Sessions:  sessions,
		Gateway:   gateway,
		Notify:    notify,
		Scheduler: sched,
		Audit:     recorder,
	})
	defer bot.Shutdown()

	reg := coretelegram.NewRegistry()
	bot.Register(reg)

	routes := router.CommandRoutes(reg, router.CommandRouteOptions{
		AdminID: cfg.Telegram.AdminID,
	})
	routes = append(routes, router.TextRoutes(bot, reg, router.FallbackOptions(bot))...)
	routes = append(routes, router.CallbackRoute(reg, router.FallbackCallbackOptions(bot)))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	runOpts := coretelegram.RunOptions{
		Config:      cfg,
		Registry:    reg,
		Middlewares: coretelegram.DefaultMiddlewares(cfg, nil),
		Routes:      routes,
		OnStart: func(ctx context.Context, rt coretelegram.Runtime) error {
			bot.SetAnnouncer(rt.Bot)
			go bot.RunSweeper(ctx, cfg.Session.IdleTTL())
			logger.L.With("component", "app").Info("app ready",
				slog.String("event", "ready"),
			)
			return nil
		},
		OnStop: func(ctx context.Context, rt coretelegram.Runtime) error {
			logger.L.With("component", "app").Info("shutting down...",
				slog.String("event", "shutdown"),
			)
			return nil
		},
	}

	return coretelegram.RunTelegram(ctx, runOpts)
}

// loadConfig reads the YAML file when present and falls back to environment
// variables only. A missing bot token fails startup either way.
func loadConfig() (*coreconfig.Config, error) {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = defaultConfigPath
	}
	if _, err := os.Stat(path); err == nil {
		return coreconfig.Load(path)
	}

	var cfg coreconfig.Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := coreconfig.Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
