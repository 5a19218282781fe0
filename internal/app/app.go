package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/GlebRadaev/profilebot/internal/bot"
	"github.com/GlebRadaev/profilebot/internal/config"
	"github.com/GlebRadaev/profilebot/internal/handlers"
	"github.com/GlebRadaev/profilebot/internal/kv"
	"github.com/GlebRadaev/profilebot/internal/notify"
	"github.com/GlebRadaev/profilebot/internal/pg"
	"github.com/GlebRadaev/profilebot/internal/repo"
	"github.com/GlebRadaev/profilebot/internal/service"
	"github.com/GlebRadaev/profilebot/pkg/auth"
	"github.com/GlebRadaev/profilebot/pkg/clients"
	"github.com/GlebRadaev/profilebot/pkg/logger"
)

const webhookPath = "/telegram/webhook"

type ApplicationI interface {
	Start(ctx context.Context) error
	Wait(ctx context.Context, cancel context.CancelFunc) error
}

type Application struct {
	cfg      *config.Config
	api      *handlers.Handlers
	srv      *service.Services
	repo     *repo.Repositories
	bot      *bot.Bot
	tg       *tgbotapi.BotAPI
	notifier *notify.Notifier

	// janitor purges expired rows; nil when the store expires keys itself.
	janitor func(ctx context.Context)
	closers []func()

	errCh chan error
	wg    sync.WaitGroup
	ready bool
}

func New() *Application {
	return &Application{
		errCh: make(chan error),
	}
}

func (a *Application) Start(ctx context.Context) error {
	cfg, err := config.New()
	if err != nil {
		return fmt.Errorf("can't load config: %w", err)
	}

	if err := logger.InitLogger(cfg); err != nil {
		return fmt.Errorf("can't init logger: %w", err)
	}
	if cfg.BotToken == "" {
		return errors.New("bot token is not set")
	}
	a.cfg = cfg

	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	a.repo = repo.New(store, cfg.LedgerCap)

	tg, err := tgbotapi.NewBotAPIWithClient(cfg.BotToken, tgbotapi.APIEndpoint, clients.NewHTTPClient(cfg.BotPollTimeout))
	if err != nil {
		zap.L().Error("bot api init failed: ", zap.Error(err))
		return fmt.Errorf("can't init bot api: %w", err)
	}
	a.tg = tg
	zap.L().Info("authorized on bot account", zap.String("username", tg.Self.UserName))

	a.notifier = notify.New(tg, cfg.NotifyWorkers)
	a.srv = service.New(a.repo, cfg, a.notifier)

	jwtService := auth.NewJWTService(cfg.JWTSecret)
	a.bot = bot.New(tg, bot.Services{
		Accounts: a.srv.AccountService,
		Balance:  a.srv.BalanceService,
		Topups:   a.srv.TopupService,
		Admin:    a.srv.AdminService,
		Profiles: a.srv.ProfileService,
		Tokens:   jwtService,
	}, bot.Options{
		Plans:       cfg.TopupPlans,
		CardNumber:  cfg.CardNumber,
		CardHolder:  cfg.CardHolder,
		TokenTTL:    cfg.AdminTokenTTL,
		PollTimeout: cfg.BotPollTimeout,
	})
	a.api = handlers.New(a.srv, cfg, jwtService, a.bot)

	if err = a.startHTTPServer(ctx); err != nil {
		return fmt.Errorf("can't start http server: %w", err)
	}
	if err = a.startBot(ctx); err != nil {
		return fmt.Errorf("can't start bot: %w", err)
	}
	a.startJanitor(ctx)

	a.ready = true
	zap.L().Info("all systems started successfully",
		zap.String("store", cfg.StoreBackend), zap.String("bot_mode", cfg.BotMode))
	return nil
}

func (a *Application) openStore(ctx context.Context) (kv.Store, error) {
	switch a.cfg.StoreBackend {
	case config.StorePostgres:
		pool, err := getPgxpool(ctx, a.cfg)
		if err != nil {
			zap.L().Error("build pgx pool failed: ", zap.Error(err))
			return nil, fmt.Errorf("can't build pgx pool: %w", err)
		}
		a.closers = append(a.closers, pool.Close)
		if err := pg.RunMigrations(pool); err != nil {
			zap.L().Error("migrations failed: ", zap.Error(err))
			return nil, fmt.Errorf("can't run migrations: %w", err)
		}
		store := kv.NewPostgresStore(pg.New(pool), pg.NewTXManager(pool))
		a.janitor = store.RunJanitor
		return store, nil
	default:
		client, err := kv.NewRedisClient(ctx, a.cfg.RedisAddr, a.cfg.RedisPassword, a.cfg.RedisDB)
		if err != nil {
			zap.L().Error("redis connect failed: ", zap.Error(err))
			return nil, fmt.Errorf("can't connect to redis: %w", err)
		}
		a.closers = append(a.closers, func() { _ = client.Close() })
		return kv.NewRedisStore(client), nil
	}
}

func getPgxpool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	cfgpool, err := pgxpool.ParseConfig(cfg.Database)
	if err != nil {
		return nil, err
	}
	dbpool, err := pgxpool.NewWithConfig(ctx, cfgpool)
	if err != nil {
		return nil, err
	}
	if err = dbpool.Ping(ctx); err != nil {
		dbpool.Close()
		return nil, err
	}
	return dbpool, nil
}

func (a *Application) startHTTPServer(ctx context.Context) error {
	router := chi.NewRouter()
	a.api.InitRoutes(router)
	server := http.Server{
		Addr:              a.cfg.Address,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		<-ctx.Done()

		sCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(sCtx); err != nil {
			zap.L().Warn("http server shutdown", zap.Error(err))
		}
	}()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		zap.L().Info("starting http server on port", zap.String("port", a.cfg.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.errCh <- fmt.Errorf("http server exited with error: %w", err)
		}
	}()

	return nil
}

// startBot registers the webhook or, in polling mode, removes any webhook
// left behind and starts the polling loop.
func (a *Application) startBot(ctx context.Context) error {
	if a.cfg.BotMode == config.BotModeWebhook {
		params := tgbotapi.Params{
			"url":          a.cfg.PublicURL + webhookPath,
			"secret_token": a.cfg.WebhookSecret,
		}
		if _, err := a.tg.MakeRequest("setWebhook", params); err != nil {
			zap.L().Error("set webhook failed: ", zap.Error(err))
			return err
		}
		zap.L().Info("webhook registered", zap.String("url", params["url"]))
		return nil
	}

	if _, err := a.tg.MakeRequest("deleteWebhook", tgbotapi.Params{}); err != nil {
		zap.L().Error("delete webhook failed: ", zap.Error(err))
		return err
	}
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.bot.Run(ctx)
	}()
	return nil
}

func (a *Application) startJanitor(ctx context.Context) {
	if a.janitor == nil {
		return
	}
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.janitor(ctx)
	}()
}

func (a *Application) Wait(ctx context.Context, cancel context.CancelFunc) error {
	var appErr error

	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		defer wg.Done()

		for err := range a.errCh {
			cancel()
			zap.L().Error(err.Error())
			appErr = err
		}
	}()

	<-ctx.Done()
	a.wg.Wait()
	close(a.errCh)
	wg.Wait()

	a.shutdown()
	return appErr
}

// shutdown runs after the producers stop: queued notifications are flushed
// before the store goes away.
func (a *Application) shutdown() {
	if a.notifier != nil {
		a.notifier.Close()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.ready = false
}
