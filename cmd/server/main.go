package main

import (
	"context"
	"database/sql"
	stderrors "errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	machines "github.com/goliatone/go-machines"
	"github.com/goliatone/go-machines/config"
	"github.com/goliatone/go-router"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

type App struct {
	config *config.App
	logger *glog.BaseLogger
	db     *bun.DB
	repo   machines.RepositoryManager
	auther *machines.Auther
	srv    router.Server[*fiber.App]
}

func (a *App) GetLogger(name string) glog.Logger {
	return a.logger.GetLogger(name)
}

func main() {
	lgr := glog.NewLogger(
		glog.WithLoggerTypePretty(),
		glog.WithLevel(glog.Trace),
		glog.WithName("machines"),
		glog.WithAddSource(false),
		glog.WithRichErrorHandler(errors.ToSlogAttributes),
	)

	cfg := config.New()
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	app := &App{
		config: cfg,
		logger: lgr,
	}

	ctx := context.Background()

	if err := WithPersistence(ctx, app); err != nil {
		log.Fatal(err)
	}

	if err := WithHTTPServer(ctx, app); err != nil {
		log.Fatal(err)
	}

	app.srv.Serve(cfg.Server.Address())

	app.GetLogger("server").Info("Server is running", "port", cfg.Server.Port)

	WaitExitSignal()
}

func WithPersistence(ctx context.Context, app *App) error {
	sqldb, err := sql.Open(sqliteshim.ShimName, app.config.Database.GetDSN())
	if err != nil {
		return err
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())

	if err := machines.Migrate(ctx, db); err != nil {
		return err
	}

	repo := machines.NewRepositoryManager(db)
	repo.MustValidate()

	app.db = db
	app.repo = repo

	return nil
}

func WithHTTPServer(ctx context.Context, app *App) error {
	srv := router.NewFiberAdapter(func(a *fiber.App) *fiber.App {
		return router.DefaultFiberOptions(fiber.New(fiber.Config{
			AppName:       "go-machines",
			UnescapePath:  true,
			StrictRouting: false,
			ErrorHandler:  fallbackErrorHandler,
		}))
	})

	srv.Router().Use(requestLogger(app.GetLogger("http")))

	provider := machines.NewUserProvider(app.repo.Users()).
		WithLogger(app.GetLogger("identity"))

	auther := machines.NewAuthenticator(provider, app.config.Auth).
		WithLogger(app.GetLogger("auth"))

	protected := machines.ProtectedRoute(app.repo, auther.TokenService(), app.config.Auth)

	api := srv.Router().Group("/api")

	machines.RegisterAuthRoutes(api.Group("/auth"),
		machines.WithAuthRepository(app.repo),
		machines.WithAuthAuthenticator(auther),
		machines.WithAuthLogger(app.GetLogger("auth-controller")),
	)

	machines.RegisterMachineRoutes(api.Group("/machine"), protected,
		machines.WithMachineRepository(app.repo),
		machines.WithMachineLogger(app.GetLogger("machine-controller")),
	)

	app.auther = auther
	app.srv = srv

	return nil
}

// requestLogger mirrors the access log every request emits before routing.
func requestLogger(lgr glog.Logger) router.MiddlewareFunc {
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			lgr.Info("request", "method", ctx.Method(), "path", ctx.OriginalURL())
			return next(ctx)
		}
	}
}

// fallbackErrorHandler catches anything the controllers did not turn into a
// JSON response themselves.
func fallbackErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if stderrors.As(err, &fe) && fe.Code < 500 {
		return c.Status(fe.Code).JSON(fiber.Map{
			"message": fe.Message,
		})
	}

	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"message": "Something went wrong!",
		"error":   err.Error(),
	})
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
