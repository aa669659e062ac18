package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpapi "github.com/immxrtalbeast/huddle/internal/api/http"
	"github.com/immxrtalbeast/huddle/internal/config"
	"github.com/immxrtalbeast/huddle/internal/live"
	"github.com/immxrtalbeast/huddle/internal/push"
	"github.com/immxrtalbeast/huddle/internal/repository"
	"github.com/immxrtalbeast/huddle/internal/service"
	"github.com/immxrtalbeast/huddle/lib/logger/sl"
	"github.com/immxrtalbeast/huddle/lib/logger/slogpretty"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	_ = godotenv.Load(".env")

	app := &cli.App{
		Name:  "huddle",
		Usage: "Shared calendars with live updates and date polls.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to the YAML config file",
				EnvVars: []string{"CONFIG_PATH"},
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			migrateCommand(),
		},
		DefaultCommand: "serve",
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("application failed", sl.Err(err))
		os.Exit(1)
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API and the live update channels.",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "migrate", Value: true, Usage: "Migrate the schema before serving."},
		},
		Action: func(c *cli.Context) error {
			cfg := config.MustLoadPath(config.ResolvePath(c.String("config")))
			log := setupLogger(cfg.Env)

			store, err := openStore(cfg.Storage, log, c.Bool("migrate"))
			if err != nil {
				return err
			}

			registry := live.NewRegistry()
			dispatcher := live.NewDispatcher(log, registry, store.Spaces)
			hub := live.NewHub(log, registry, live.HubOptions{
				HeartbeatInterval: cfg.Live.HeartbeatInterval,
				ClientBuffer:      cfg.Live.ClientBuffer,
			})

			var sender service.PushSender = push.Disabled{}
			if cfg.Push.Enabled {
				sender = push.NewLogSender(log)
			}
			services := service.New(log, store, dispatcher, sender)

			router := httpapi.SetupRouter(cfg.HTTP.AllowedOrigins, httpapi.Controllers{
				Auth:          httpapi.NewAuthenticator(services.Users, log),
				Users:         httpapi.NewUserController(services.Users, log),
				Spaces:        httpapi.NewSpaceController(services.Spaces, log),
				Proposals:     httpapi.NewProposalController(services.Proposals, log),
				Events:        httpapi.NewEventController(services.Events, log),
				Notifications: httpapi.NewNotificationController(services.Notifications, log),
				Comments:      httpapi.NewCommentController(services.Comments, log),
				Stream: httpapi.NewStreamController(hub, services.Users, log, httpapi.StreamOptions{
					WriteTimeout:   cfg.Live.WriteTimeout,
					AllowedOrigins: cfg.HTTP.AllowedOrigins,
				}),
			})

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			// Live channels hang off the base context so shutdown ends them
			// instead of waiting for clients to hang up.
			srv := &http.Server{
				Addr:              cfg.HTTP.Address,
				Handler:           router,
				ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
				BaseContext:       func(net.Listener) context.Context { return ctx },
			}

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				log.Info("starting application",
					slog.String("addr", cfg.HTTP.Address),
					slog.String("storage", cfg.Storage.Driver),
				)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("http server: %w", err)
				}
				return nil
			})
			g.Go(func() error {
				<-gctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), cfg.HTTP.ShutdownTimeout)
				defer cancel()
				log.Info("shutting down", slog.Int("live_connections", registry.Count()))
				return srv.Shutdown(shutdownCtx)
			})

			err = g.Wait()
			services.Wait()
			log.Info("application stopped")
			return err
		},
	}
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Create or update the database schema.",
		Action: func(c *cli.Context) error {
			cfg := config.MustLoadPath(config.ResolvePath(c.String("config")))
			log := setupLogger(cfg.Env)

			if cfg.Storage.Driver != config.StoragePostgres {
				log.Info("nothing to migrate", slog.String("storage", cfg.Storage.Driver))
				return nil
			}
			if _, err := openStore(cfg.Storage, log, true); err != nil {
				return err
			}
			log.Info("schema is up to date")
			return nil
		},
	}
}

func openStore(cfg config.StorageConfig, log *slog.Logger, migrate bool) (*repository.Store, error) {
	switch cfg.Driver {
	case config.StorageMemory:
		log.Warn("using in-memory storage, data is lost on restart")
		return repository.NewInMemoryStore(), nil
	case config.StoragePostgres:
		db, err := connectDatabase(cfg)
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		if migrate {
			if err := repository.Migrate(db); err != nil {
				return nil, fmt.Errorf("migrate: %w", err)
			}
		}
		return repository.NewPostgresStore(db), nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
}

func connectDatabase(cfg config.StorageConfig) (*gorm.DB, error) {
	if cfg.DSN == "" {
		return nil, errors.New("database dsn is empty")
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	return db, nil
}

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = setupPrettySlog()
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = setupPrettySlog()
	}

	return log
}

func setupPrettySlog() *slog.Logger {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: slog.LevelDebug,
		},
	}

	handler := opts.NewPrettyHandler(os.Stdout)

	return slog.New(handler)
}
