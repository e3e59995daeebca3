package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/nurkan-dev/ride-dispatch/config"
	"github.com/nurkan-dev/ride-dispatch/internal/adapter/eventbus"
	"github.com/nurkan-dev/ride-dispatch/internal/adapter/http/server"
	repo "github.com/nurkan-dev/ride-dispatch/internal/adapter/postgres"
	brokeradapter "github.com/nurkan-dev/ride-dispatch/internal/adapter/rabbit"
	"github.com/nurkan-dev/ride-dispatch/internal/adapter/ws"
	"github.com/nurkan-dev/ride-dispatch/internal/service/dispatch"
	"github.com/nurkan-dev/ride-dispatch/internal/service/driverstate"
	"github.com/nurkan-dev/ride-dispatch/internal/service/matching"
	"github.com/nurkan-dev/ride-dispatch/internal/service/rideflow"
	"github.com/nurkan-dev/ride-dispatch/pkg/ablysig"
	"github.com/nurkan-dev/ride-dispatch/pkg/logger"
	"github.com/nurkan-dev/ride-dispatch/pkg/postgres"
	"github.com/nurkan-dev/ride-dispatch/pkg/rabbit"
	"github.com/nurkan-dev/ride-dispatch/pkg/token"
	"github.com/nurkan-dev/ride-dispatch/pkg/trm"
	"github.com/nurkan-dev/ride-dispatch/pkg/wshub"
)

type App struct {
	postgresDB *postgres.PostgreDB
	rabbitMQ   *rabbit.RabbitMQ
	httpServer *server.API
	dispatcher *dispatch.Controller
	riderHub   *wshub.Hub
	driverHub  *wshub.Hub

	cfg config.Config
	log logger.Logger
}

func NewApplication(ctx context.Context, cfg config.Config, log logger.Logger) (*App, error) {
	postgresDB, err := postgres.New(ctx, cfg.Database)
	if err != nil {
		log.Error(ctx, "Failed to setup database", err)
		return nil, err
	}

	if cfg.Database.InitSchema {
		if err := postgres.InitSpatialIndex(ctx, postgresDB.Pool); err != nil {
			log.Error(ctx, "Failed to init spatial schema", err)
			return nil, err
		}
	}

	rabbitMQ, err := rabbit.New(ctx, cfg.RabbitMQ.GetDSN(), log)
	if err != nil {
		log.Error(ctx, "Failed to setup rabbitmq", err)
		return nil, err
	}

	broker, err := brokeradapter.NewEventBroker(ctx, rabbitMQ, log)
	if err != nil {
		log.Error(ctx, "Failed to setup event broker", err)
		return nil, err
	}

	riderHub := wshub.NewHub(log)
	driverHub := wshub.NewHub(log)
	bridge := ws.NewBridge(riderHub, driverHub, log)

	publisher := eventbus.NewFanout(broker, bridge)

	driverRepo := repo.NewDriverRepo(postgresDB.Pool)
	locationRepo := repo.NewLocationRepo(postgresDB.Pool)
	rideRepo := repo.NewRideRepo(postgresDB.Pool)
	txManager := trm.New(postgresDB.Pool)

	driverState := driverstate.NewService(driverRepo, locationRepo, log)
	matcher := matching.NewService(locationRepo, log)

	dispatchCfg := dispatch.DefaultConfig()
	if cfg.Dispatch.RoundInterval > 0 {
		dispatchCfg.RoundInterval = cfg.Dispatch.RoundInterval
	}
	if len(cfg.Dispatch.RadiiMeters) > 0 {
		dispatchCfg.RadiiMeters = cfg.Dispatch.RadiiMeters
	}
	if cfg.Dispatch.DriverLimit > 0 {
		dispatchCfg.DriverLimit = cfg.Dispatch.DriverLimit
	}
	dispatcher := dispatch.NewController(dispatchCfg, rideRepo, matcher, publisher, log)

	rideService := rideflow.NewService(rideRepo, driverState, dispatcher, publisher, txManager, log)

	verifier, err := ablysig.New(cfg.Ably.APIKey)
	if err != nil {
		log.Error(ctx, "Failed to parse realtime API key", err)
		return nil, err
	}

	tokens := token.NewManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL)

	httpServer, err := server.New(
		cfg,
		driverState,
		matcher,
		rideService,
		driverState,
		verifier,
		riderHub,
		driverHub,
		tokens,
		log,
	)
	if err != nil {
		log.Error(ctx, "Failed to setup http server", err)
		return nil, err
	}

	return &App{
		postgresDB: postgresDB,
		rabbitMQ:   rabbitMQ,
		httpServer: httpServer,
		dispatcher: dispatcher,
		riderHub:   riderHub,
		driverHub:  driverHub,
		cfg:        cfg,
		log:        log,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	a.httpServer.Run(ctx, errCh)
	defer func() {
		a.close(ctx)
		a.log.Info(ctx, "dispatch service closed")
	}()

	// Waiting signal
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	a.log.Info(ctx, "dispatch service started")

	select {
	case errRun := <-errCh:
		return errRun
	case sig := <-shutdownCh:
		a.log.Info(ctx, "shutting down application", "signal", sig.String())
		return nil
	}
}

func (a *App) close(ctx context.Context) {
	if a.httpServer != nil {
		if err := a.httpServer.Stop(ctx); err != nil {
			a.log.Warn(ctx, "Failed to gracefully close http server", "error", err.Error())
		}
	}

	if a.dispatcher != nil {
		a.dispatcher.Close()
	}

	if a.riderHub != nil {
		a.riderHub.Close()
	}
	if a.driverHub != nil {
		a.driverHub.Close()
	}

	if a.rabbitMQ != nil {
		if err := a.rabbitMQ.Close(ctx); err != nil {
			a.log.Warn(ctx, "Failed to close rabbitmq connection", "error", err.Error())
		}
	}

	if a.postgresDB != nil && a.postgresDB.Pool != nil {
		a.postgresDB.Pool.Close()
	}
}
