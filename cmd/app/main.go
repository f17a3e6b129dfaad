package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"telegram-shop-bot/internal/config"
	"telegram-shop-bot/internal/domain/ports/adapter"
	tele "telegram-shop-bot/internal/infra/adapters/telegram"
	"telegram-shop-bot/internal/infra/currency"
	pg "telegram-shop-bot/internal/infra/db/postgres"
	"telegram-shop-bot/internal/infra/i18n"
	"telegram-shop-bot/internal/infra/logging"
	"telegram-shop-bot/internal/infra/metrics"
	red "telegram-shop-bot/internal/infra/redis"
	"telegram-shop-bot/internal/infra/sched"
	"telegram-shop-bot/internal/infra/session"
	"telegram-shop-bot/internal/infra/web"
	"telegram-shop-bot/internal/infra/worker"
	"telegram-shop-bot/internal/usecase"

	"golang.org/x/sync/errgroup"
)

var (
	version = "dev"
	commit  = "none"
)

// botCommands is the slash-command menu published to Telegram.
var botCommands = map[string]string{
	"start":    "Main menu",
	"catalog":  "Browse the catalog",
	"cart":     "Your cart",
	"orders":   "Your recent orders",
	"settings": "Language and currency",
	"support":  "Contact support",
}

var botCommandOrder = []string{"start", "catalog", "cart", "orders", "settings", "support"}

type readyFunc func() bool

func (f readyFunc) Ready() bool { return f() }

func main() {
	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, unredacted PII)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("[DEV MODE] Enabled")
	}

	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, &cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	defer redisClient.Close()
	rateLimiter := red.NewRateLimiter(redisClient)
	ratesCache := red.NewRatesCache(redisClient, cfg.Currency.CacheTTL)
	rates := currency.NewProvider(cfg.Currency, ratesCache, logger)

	// ---- Repositories ----
	txManager := pg.NewTxManager(pool)
	categoryRepo := pg.NewCategoryRepo(pool)
	productRepo := pg.NewProductRepo(pool)
	tierRepo := pg.NewPricingTierRepo(pool)
	ratingRepo := pg.NewRatingRepo(pool)
	cartRepo := pg.NewCartRepo(pool)
	wishlistRepo := pg.NewWishlistRepo(pool)
	deliveryRepo := pg.NewDeliveryMethodRepo(pool)
	paymentRepo := pg.NewPaymentMethodRepo(pool)
	draftRepo := pg.NewCheckoutDraftRepo(pool)
	orderRepo := pg.NewOrderRepo(pool)
	inquiryRepo := pg.NewInquiryRepo(pool)
	prefRepo := pg.NewPreferenceRepoCacheDecorator(pg.NewPreferenceRepo(pool), redisClient, cfg.Redis.TTL)
	settingsRepo := pg.NewSettingsRepoCacheDecorator(pg.NewSettingsRepo(pool), redisClient, cfg.Redis.TTL)

	// ---- Use cases ----
	catalogUC := usecase.NewCatalogUseCase(categoryRepo, productRepo, wishlistRepo, ratingRepo, cfg.Shop.PageSize, logger)
	cartUC := usecase.NewCartUseCase(cartRepo, productRepo, tierRepo, logger)
	pricingUC := usecase.NewPricingUseCase(productRepo, tierRepo, txManager, logger)
	checkoutUC := usecase.NewCheckoutUseCase(cartRepo, productRepo, tierRepo, deliveryRepo, paymentRepo, draftRepo, orderRepo, txManager, time.Now, logger)
	settingsUC := usecase.NewSettingsUseCase(prefRepo, settingsRepo, inquiryRepo, orderRepo, usecase.SettingsOptions{
		DefaultLanguage: cfg.Shop.DefaultLanguage,
		BaseCurrency:    cfg.Shop.BaseCurrency,
		Languages:       cfg.Shop.Languages,
		Currencies:      cfg.Shop.Currencies,
		CommandSlots:    cfg.Shop.CustomCommandSlots,
	}, logger)

	// ---- i18n ----
	bundle, err := i18n.LoadBundle(i18n.LocalesFS, cfg.Shop.Languages, cfg.Shop.DefaultLanguage)
	if err != nil {
		logger.Fatal().Err(err).Msg("locales")
	}
	renderer := i18n.NewRenderer(bundle, settingsUC, rates, cfg.Shop.BaseCurrency, cfg.Shop.DefaultLanguage, logger)

	// ---- Telegram transport ----
	var (
		bot     adapter.TelegramBotAdapter
		realBot *tele.RealTelegramBotAdapter
		ready   readyFunc = func() bool { return true }
	)
	switch strings.ToLower(cfg.Bot.Mode) {
	case "noop":
		bot = tele.NewNoopBotAdapter(logger)
		logger.Warn().Msg("bot.mode=noop; Telegram updates are not received")
	default:
		realBot, err = tele.NewRealTelegramBotAdapter(&cfg.Bot, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("telegram")
		}
		bot = realBot
		ready = realBot.Ready
	}

	// ---- Conversation engine ----
	captures := session.NewCaptures(session.RealClock())
	conv := session.NewLifecycle(bot, session.RealClock(), session.LifecycleConfig{
		Retention: cfg.Conversation.Retention,
		NoticeTTL: cfg.Conversation.NoticeTTL,
		OnExpire:  captures.Cancel,
	}, func(ctx context.Context, chatID int64) string {
		return renderer.T(ctx, chatID, "history_cleared")
	}, logger)

	router := tele.NewRouter(bot, conv, captures, renderer,
		catalogUC, cartUC, pricingUC, checkoutUC, settingsUC,
		rateLimiter,
		tele.RouterConfig{ShopName: cfg.Bot.Username, RateLimit: cfg.RateLimit},
		logger,
	)
	dispatcher := session.NewDispatcher(router.Handle, session.DispatcherConfig{
		MailboxSize: cfg.Bot.MailboxSize,
		IdleTimeout: cfg.Bot.ActorIdle,
	}, logger)
	defer dispatcher.Close()

	// ---- Broadcast ----
	broadcastPool := worker.NewPool("broadcast", 4, logger)
	broadcastPool.Start(ctx)
	defer broadcastPool.Stop()
	broadcastUC := usecase.NewBroadcastUseCase(conv, broadcastPool, logger)

	// ---- Admin API ----
	admin := web.NewServer(pricingUC, broadcastUC, settingsUC, ready,
		web.NewAuthManager(cfg.Admin.JWTSecret, cfg.Admin.TokenTTL),
		web.ServerConfig{Port: cfg.Admin.Port, APIKey: cfg.Admin.APIKey, Version: version},
		logger,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return admin.ListenAndServe(gctx) })
	g.Go(func() error {
		pg.ReportPoolStats(gctx, pool, 15*time.Second, logger)
		return nil
	})
	g.Go(func() error {
		return sched.NewDraftJanitor(time.Hour, 24*time.Hour, checkoutUC, logger).Run(gctx)
	})
	g.Go(func() error {
		return sched.NewRatesRefresher(cfg.Currency.CacheTTL, cfg.Shop.BaseCurrency, rates, logger).Run(gctx)
	})
	if realBot != nil {
		if err := realBot.SetCommands(ctx, botCommands, botCommandOrder); err != nil {
			logger.Warn().Err(err).Msg("set bot commands")
		}
		g.Go(func() error { return realBot.StartPolling(gctx, dispatcher.Dispatch) })
	}

	logger.Info().Str("version", version).Str("mode", cfg.Bot.Mode).Int("admin_port", cfg.Admin.Port).Msg("shop bot started")

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("service stopped with error")
		os.Exit(1)
	}
	logger.Info().Msg("shutdown complete")
}
