package internal

import (
	"context"
	"fmt"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"
	"timekeeper/internal/backup/interfaces"
	"timekeeper/internal/controllers"
	"timekeeper/internal/providers"
	"timekeeper/internal/structures"
)

type App struct {
	WebServer *http.Server
	conf      *structures.Config
	logger    providers.Logger
	scheduler interfaces.SchedulerInterface
}

// NewHandler builds the full mux: API routes behind the metrics middleware,
// with /health and /metrics outside it.
func NewHandler(conf *structures.Config, logger providers.Logger, router providers.RouterProviderInterface, metrics providers.MetricsProviderInterface, healthController *controllers.HealthController) http.Handler {
	apiMux := http.NewServeMux()
	for _, route := range router.GetRoutes() {
		apiMux.Handle(route.Url, route.Handler)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthController.Health)
	if conf.Metrics.Enabled {
		mux.Handle("/metrics", promhttp.Handler())
	}
	mux.Handle("/", providers.MetricsMiddleware(metrics, logger, apiMux))
	return mux
}

func NewApp(conf *structures.Config, logger providers.Logger, handler http.Handler, scheduler interfaces.SchedulerInterface) *App {
	return &App{
		WebServer: &http.Server{
			Addr:         conf.WebServer.Host + ":" + strconv.Itoa(conf.WebServer.Port),
			Handler:      handler,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		conf:      conf,
		logger:    logger,
		scheduler: scheduler,
	}
}

// Run serves until SIGINT or SIGTERM, then drains requests and writes a final backup.
func (a *App) Run() error {
	a.logger.Infof(providers.TypeApp, "Starting %s", a.conf.AppName)

	if a.conf.Backup.Enabled && a.conf.Backup.Restore {
		if err := a.scheduler.Restore(); err != nil {
			a.logger.Errorf(providers.TypeApp, "Restore error: %s", err)
		}
	}
	a.scheduler.Init()

	serverErr := make(chan error, 1)
	go func() {
		a.logger.Infof(providers.TypeApp, "Listening HTTP clients on %s", a.WebServer.Addr)
		if err := a.WebServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case <-stop:
		a.logger.Infof(providers.TypeApp, "Shutdown signal received")
	case err := <-serverErr:
		a.scheduler.Stop()
		return fmt.Errorf("server error: %w", err)
	}

	a.scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := a.WebServer.Shutdown(ctx); err != nil {
		return err
	}
	if a.conf.Backup.Enabled {
		if err := a.scheduler.Persist(); err != nil {
			return err
		}
	}
	a.logger.Infof(providers.TypeApp, "gracefully stopped")
	return nil
}
