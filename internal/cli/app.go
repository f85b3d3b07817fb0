package cli

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrijs2005/chatex/internal/config"
	"github.com/dmitrijs2005/chatex/internal/tokenstore"
	"github.com/dmitrijs2005/chatex/pkg/chatex"
	"github.com/dmitrijs2005/chatex/pkg/chatex/metrics"
	"github.com/dmitrijs2005/chatex/pkg/chatex/transport"
	"github.com/dmitrijs2005/chatex/pkg/logging"
	"github.com/prometheus/client_golang/prometheus"
)

type App struct {
	config  *config.Config
	client  *chatex.Client
	logger  logging.Logger
	retry   chatex.RetryPolicy
	db      *sql.DB
	metrics *http.Server
}

// NewApp wires the client described by c: zap logging, the resty transport,
// the optional encrypted token cache and the optional metrics endpoint. The
// API key is prompted for when the configuration does not carry one.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger, err := logging.NewZap(c.LogLevel, false)
	if err != nil {
		return nil, err
	}

	apiKey := c.APIKey
	if apiKey == "" {
		apiKey, err = GetSecret(os.Stdout, "Chatex API key: ")
		if err != nil {
			return nil, fmt.Errorf("failed to read api key: %w", err)
		}
	}

	topts := []transport.Option{
		transport.WithTimeout(c.Timeout),
		transport.WithLogger(logger),
		transport.WithMiddleware(transport.LoggingMiddleware(logger)),
	}
	if c.RequestsPerSecond > 0 {
		topts = append(topts, transport.WithRateLimit(c.RequestsPerSecond, 1))
	}

	var metricsSrv *http.Server
	if c.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		collector, err := metrics.NewCollector(reg, "chatex")
		if err != nil {
			return nil, err
		}
		topts = append(topts, transport.WithMetricsCollector(collector))

		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler(reg))
		metricsSrv = &http.Server{Addr: c.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	}

	opts := []chatex.Option{
		chatex.WithLogger(logger),
		chatex.WithTransportOptions(topts...),
	}

	var db *sql.DB
	if c.TokenCache != "" {
		db, err = tokenstore.OpenDB(ctx, c.TokenCache)
		if err != nil {
			return nil, err
		}
		opts = append(opts, chatex.WithTokenStore(tokenstore.New(db, c.BaseURL, apiKey)))
	}

	client, err := chatex.New(c.BaseURL, apiKey, opts...)
	if err != nil {
		if db != nil {
			_ = db.Close()
		}
		return nil, err
	}

	app := newApp(c, client, logger)
	app.db = db
	app.metrics = metricsSrv
	return app, nil
}

func newApp(c *config.Config, client *chatex.Client, logger logging.Logger) *App {
	return &App{
		config: c,
		client: client,
		logger: logger,
		retry: chatex.RetryPolicy{
			MaxRetries: c.RateLimitRetries,
			MaxDelay:   c.RetryMaxDelay,
		},
	}
}

// initSignalHandler cancels ctx on the first signal, aborting the command in
// flight and ending the REPL. Handling is then reset so a second signal
// terminates the process.
func (a *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
		signal.Stop(sigs)
	}()
}

func (a *App) serveMetrics(ctx context.Context) {
	if a.metrics == nil {
		return
	}
	go func() {
		a.logger.Info(ctx, "metrics endpoint listening", "addr", a.metrics.Addr)
		if err := a.metrics.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error(ctx, "metrics endpoint stopped", "error", err)
		}
	}()
}

func (a *App) close(ctx context.Context) {
	if a.metrics != nil {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = a.metrics.Shutdown(shutdownCtx)
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn(ctx, "failed to close token cache", "error", err)
		}
	}
	if z, ok := a.logger.(*logging.ZapLogger); ok {
		_ = z.Sync()
	}
}

// Run reads commands from stdin until exit, EOF or a termination signal.
func (a *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()
	defer a.close(ctx)

	a.initSignalHandler(cancelFunc)
	a.serveMetrics(ctx)

	runREPL(ctx, a, bufio.NewScanner(os.Stdin))
	return nil
}
