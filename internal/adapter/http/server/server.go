package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nurkan-dev/ride-dispatch/config"
	"github.com/nurkan-dev/ride-dispatch/internal/adapter/http/handler"
	"github.com/nurkan-dev/ride-dispatch/internal/adapter/http/middleware"
	"github.com/nurkan-dev/ride-dispatch/pkg/ablysig"
	"github.com/nurkan-dev/ride-dispatch/pkg/logger"
	wrap "github.com/nurkan-dev/ride-dispatch/pkg/logger/wrapper"
	"github.com/nurkan-dev/ride-dispatch/pkg/token"
	"github.com/nurkan-dev/ride-dispatch/pkg/wshub"
)

const (
	serverIPAddress = "%s:%s"
	serviceName     = "ride-dispatch"
)

type API struct {
	mux    *http.ServeMux
	server *http.Server
	routes *handlers
	m      *middleware.Middleware

	addr string
	cfg  config.Config
	log  logger.Logger
}

type handlers struct {
	dispatch *handler.Dispatch
	ride     *handler.Ride
	webhook  *handler.Webhook
	ws       *handler.WS
	health   *handler.Health
}

func New(
	cfg config.Config,
	driverState handler.DriverStateService,
	matching handler.MatchingService,
	rideService handler.RideService,
	presence handler.PresenceService,
	verifier *ablysig.Verifier,
	riderHub *wshub.Hub,
	driverHub *wshub.Hub,
	tokens *token.Manager,
	logger logger.Logger,
) (*API, error) {
	if verifier == nil {
		return nil, errors.New("webhook verifier is required")
	}
	if tokens == nil {
		return nil, errors.New("token manager is required")
	}

	addr := fmt.Sprintf(serverIPAddress, cfg.Server.Host, cfg.Server.Port)

	routes := &handlers{
		dispatch: handler.NewDispatch(driverState, matching, logger),
		ride:     handler.NewRide(rideService, logger),
		webhook:  handler.NewWebhook(verifier, presence, logger),
		ws:       handler.NewWS(riderHub, driverHub, logger),
		health:   handler.NewHealth(serviceName, logger),
	}

	mid := middleware.NewMiddleware(tokens, logger)

	api := &API{
		mux:    http.NewServeMux(),
		routes: routes,
		m:      mid,
		addr:   addr,
		cfg:    cfg,
		log:    logger,
	}

	api.server = &http.Server{
		Addr:    api.addr,
		Handler: api.withMiddleware(),
	}

	setupRoutes(api.mux, api.routes, api.m)

	return api, nil
}

func (a *API) Stop(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	ctx = wrap.WithAction(ctx, "http_server_stop")

	a.log.Debug(ctx, "shutting down HTTP server...", "address", a.addr)
	if err := a.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("error shutting down server: %w", err)
	}
	a.log.Debug(ctx, "shutting down HTTP server completed")

	return nil
}

func (a *API) Run(ctx context.Context, errCh chan<- error) {
	go func() {
		ctx = wrap.WithAction(ctx, "http_server_start")
		a.log.Info(ctx, "started http server", "address", a.addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("failed to start HTTP server: %w", err)
			return
		}
	}()
}

// withMiddleware applies middlewares to the mux
func (a *API) withMiddleware() http.Handler {
	return a.m.Recover(a.m.RequestID(a.m.Logging(a.m.Metrics(serviceName)(a.m.Auth(a.mux)))))
}
