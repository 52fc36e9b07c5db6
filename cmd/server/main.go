package main

import (
	"context"
	"database/sql"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	accounts "github.com/goliatone/go-accounts"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-persistence-bun"
	"github.com/goliatone/go-router"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

type App struct {
	config *AppConfig
	bunDB  *bun.DB
	auth   accounts.Authenticator
	repo   accounts.RepositoryManager
	srv    router.Server[*fiber.App]
	logger *glog.BaseLogger
}

func (a *App) GetLogger(name string) glog.Logger {
	return a.logger.GetLogger(name)
}

func main() {
	lgr := glog.NewLogger(
		glog.WithLoggerTypePretty(),
		glog.WithLevel(glog.Trace),
		glog.WithName("accounts"),
		glog.WithAddSource(false),
		glog.WithRichErrorHandler(errors.ToSlogAttributes),
	)

	app := &App{
		config: LoadConfig(),
		logger: lgr,
	}

	ctx := context.Background()

	if err := WithPersistence(ctx, app); err != nil {
		panic(err)
	}

	if err := WithAuth(ctx, app); err != nil {
		panic(err)
	}

	WithHTTPServer(ctx, app)

	go app.srv.Serve(app.config.Addr)

	WaitExitSignal()
}

func WithPersistence(ctx context.Context, app *App) error {
	db, err := sql.Open(sqliteshim.ShimName, app.config.Persistence.GetDSN())
	if err != nil {
		return err
	}

	persistence.RegisterModel((*accounts.Customer)(nil))
	persistence.RegisterModel((*accounts.Manager)(nil))
	persistence.RegisterModel((*accounts.RevokedToken)(nil))

	dialect := sqlitedialect.New()
	client, err := persistence.New(app.config.Persistence, db, dialect)
	if err != nil {
		return err
	}

	client.SetLogger(app.GetLogger("persistence"))

	migrationsFS, err := fs.Sub(accounts.GetMigrationsFS(), "data/sql/migrations")
	if err != nil {
		return err
	}
	client.RegisterDialectMigrations(
		migrationsFS,
		persistence.WithDialectSourceLabel("data/sql/migrations"),
		persistence.WithValidationTargets("postgres", "sqlite"),
	)

	if err := client.Migrate(ctx); err != nil {
		return err
	}

	app.bunDB = client.DB()
	app.repo = accounts.NewRepositoryManager(client.DB())

	return nil
}

func WithAuth(ctx context.Context, app *App) error {
	if err := app.repo.Validate(); err != nil {
		return err
	}

	var revocations accounts.Revocations
	if app.config.RedisURL != "" {
		registry, err := accounts.NewRedisRevocations(ctx, app.config.RedisURL)
		if err != nil {
			return err
		}
		revocations = registry
	} else {
		revocations = accounts.NewBunRevocations(app.bunDB)
	}

	auther := accounts.NewAuthenticator(app.repo, app.config.Auth).
		WithLogger(app.GetLogger("auth")).
		WithRevocations(revocations)

	app.auth = auther

	return nil
}

func WithHTTPServer(ctx context.Context, app *App) {
	srv := router.NewFiberAdapter(func(a *fiber.App) *fiber.App {
		return router.DefaultFiberOptions(fiber.New(fiber.Config{
			UnescapePath:  true,
			StrictRouting: false,
		}))
	})

	srv.Router().WithLogger(app.GetLogger("router"))

	cfg := app.config.Auth
	api := srv.Router().Group(cfg.GetAPIPrefix())

	errLogger := app.GetLogger("auth:http")
	protected := accounts.ProtectedRoute(app.auth, cfg, func(c router.Context, err error) error {
		return accounts.RenderError(c, errLogger, err)
	})

	accounts.RegisterAuthRoutes(api, protected,
		accounts.WithAuther(app.auth),
		accounts.WithContextKey(cfg.GetContextKey()),
		accounts.WithControllerLogger(app.GetLogger("auth:ctrl")),
	)

	accounts.RegisterAccountRoutes(api, protected,
		accounts.WithAccountsRepo(app.repo),
		accounts.WithAccountsLogger(app.GetLogger("accounts:ctrl")),
	)

	app.srv = srv
}

func WaitExitSignal() os.Signal {
	ch := make(chan os.Signal, 3)
	signal.Notify(ch,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	return <-ch
}
