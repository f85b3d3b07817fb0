package sandbox

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/chatex/pkg/logging"
)

type App struct {
	config *Config
	logger logging.Logger
}

func NewApp(c *Config) *App {
	return &App{
		config: c,
		logger: logging.NewJSONSlog(os.Stdout, c.LogLevel),
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves until ctx is cancelled or a termination signal arrives.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")
	app.initSignalHandler(cancelFunc)

	return New(app.config, app.logger).Run(ctx)
}
