package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	ginzap "github.com/gin-contrib/zap"

	"github.com/flarexio/userdash"
	"github.com/flarexio/userdash/conf"
	"github.com/flarexio/userdash/persistence"
	"github.com/flarexio/userdash/remote"

	transHTTP "github.com/flarexio/userdash/transport/http"
	transPubSub "github.com/flarexio/userdash/transport/pubsub"
)

var (
	Version   string = "0.0.0"
	BuildTime string
	GitCommit string
)

var versionCmd = &cli.Command{
	Name:    "version",
	Aliases: []string{"ver", "v"},
	Usage:   "Show version",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:    "all",
			Aliases: []string{"a"},
			Usage:   "Show all infomation (include: Version, BuildTime, GitCommit)",
			Value:   false,
		},
	},
	Action: func(ctx *cli.Context) error {
		if !ctx.Bool("all") {
			fmt.Println(ctx.App.Version)
		} else {
			cli.ShowVersion(ctx)
		}
		return nil
	},
}

var purgeCmd = &cli.Command{
	Name:  "purge",
	Usage: "Remove the persisted state snapshot",
	Action: func(cli *cli.Context) error {
		if err := conf.LoadEnv(cli); err != nil {
			return err
		}

		cfg, err := conf.LoadConfig()
		if err != nil {
			return err
		}

		log, err := zap.NewDevelopment()
		if err != nil {
			return err
		}
		defer log.Sync()

		snapshots, err := persistence.NewSnapshotRepository(cfg.Persistence)
		if err != nil {
			return err
		}

		p := persistence.NewPersistor(snapshots, cfg.Persistence.Key, log)
		defer p.Close()

		return p.Purge(cli.Context)
	},
}

func main() {
	cli.VersionPrinter = func(cli *cli.Context) {
		fmt.Println("Version: " + cli.App.Version)
		fmt.Println("BuildTime: " + BuildTime)
		fmt.Println("GitCommit: " + GitCommit)
	}

	app := &cli.App{
		Name:     "userdash",
		Usage:    "User management dashboard backed by a remote user API",
		Version:  Version,
		Commands: []*cli.Command{versionCmd, purgeCmd},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "path",
				Usage:   "Specifies the working directory",
				EnvVars: []string{"USERDASH_PATH"},
			},
			&cli.IntFlag{
				Name:    "port",
				Usage:   "Specifies the HTTP service port",
				Value:   8080,
				EnvVars: []string{"USERDASH_HTTP_PORT"},
			},
			&cli.StringFlag{
				Name:    "nats",
				Usage:   "Specifies the NATS server for the state feed",
				EnvVars: []string{"NATS_URL"},
				Value:   "nats://localhost:4222",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(cli *cli.Context) error {
	err := conf.LoadEnv(cli)
	if err != nil {
		return err
	}

	cfg, err := conf.LoadConfig()
	if err != nil {
		return err
	}
	conf.ReplaceGlobals(cfg)

	log, err := zap.NewDevelopment()
	if err != nil {
		return err
	}
	defer log.Sync()

	zap.ReplaceGlobals(log)

	// Add Persistence
	snapshots, err := persistence.NewSnapshotRepository(cfg.Persistence)
	if err != nil {
		log.Error(err.Error(),
			zap.String("infra", "persistence"),
			zap.String("driver", cfg.Persistence.Driver.String()),
		)
		return err
	}

	persistor := persistence.NewPersistor(snapshots, cfg.Persistence.Key, log)
	defer persistor.Close()

	// Add Remote
	users, err := remote.NewUserRepository(cfg.Remote)
	if err != nil {
		log.Error(err.Error(), zap.String("infra", "remote"))
		return err
	}

	// Add Service and Middlewares
	svc := userdash.NewService(users)
	svc = userdash.LoggingMiddleware(log)(svc)
	defer svc.Close()

	// Add Endpoints
	endpoints := userdash.NewEndpointSet(svc)

	// Add PubSub Transport
	if cfg.Notify.Enabled {
		log := log.With(
			zap.String("infra", "pubsub"),
			zap.String("provider", "nats"),
		)

		nc, err := transPubSub.Connect(cli.String("nats"), cfg.Name)
		if err != nil {
			log.Error(err.Error())
			return err
		}
		defer nc.Drain()

		log.Info("connected")

		svc.Subscribe(transPubSub.StateListener(nc, cfg.Notify.Subject, log))
	}

	// Add HTTP Transport
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(ginzap.Ginzap(log, time.RFC3339, true))
	r.Use(ginzap.RecoveryWithZap(log, true))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"rehydrated": persistor.Rehydrated(),
		})
	})

	apiV1 := r.Group("/userdash/v1")
	apiV1.Use(transHTTP.Rehydrated(persistor.Ready()))

	transHTTP.AddRoutes(apiV1, endpoints, persistence.PurgeEndpoint(persistor))

	srv := &http.Server{
		Addr:    ":" + strconv.Itoa(conf.Port),
		Handler: r,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(err.Error(), zap.String("infra", "http"))
		}
	}()

	// Rehydrate and attach before the gate opens
	{
		ctx, cancel := context.WithTimeout(cli.Context, 30*time.Second)
		persistor.Bootstrap(ctx, svc)
		cancel()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sign := <-quit

	log.Info("shutdown", zap.String("singal", sign.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error(err.Error(), zap.String("infra", "http"))
	}

	persistor.Flush(ctx)
	return nil
}
