// Package server wires the lotkeeper services together and runs the gRPC
// front end, the ops HTTP API and the auction scheduler until shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/lotkeeper/internal/logging"
	"github.com/dmitrijs2005/lotkeeper/internal/server/config"
	"github.com/dmitrijs2005/lotkeeper/internal/server/httpapi"
	"github.com/dmitrijs2005/lotkeeper/internal/server/notify"
	"github.com/dmitrijs2005/lotkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/lotkeeper/internal/server/scheduler"
	"github.com/dmitrijs2005/lotkeeper/internal/server/services"
	"github.com/dmitrijs2005/lotkeeper/internal/server/sessions"
	"github.com/dmitrijs2005/lotkeeper/internal/timex"

	gs "github.com/dmitrijs2005/lotkeeper/internal/server/grpc"
)

type App struct {
	config *config.Config
	logger logging.Logger

	db         *sql.DB
	dispatcher *notify.Dispatcher
	scheduler  *scheduler.Scheduler

	auctions *services.AuctionService
	bidding  *services.BiddingService
	users    *services.UserService
	photos   *services.PhotoService

	closers []io.Closer
}

// openRepositories is a seam for tests.
var openRepositories = repomanager.Open

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger, err := logging.NewJSONLogger(os.Stdout, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	app := &App{config: c, logger: logger}
	if err := app.init(ctx); err != nil {
		app.close()
		return nil, err
	}
	return app, nil
}

func (app *App) init(ctx context.Context) error {
	c := app.config
	clock := timex.RealClock()

	db, m, err := openRepositories(ctx, c.DatabaseDriver, c.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("db init error: %w", err)
	}
	app.db = db
	app.closers = append(app.closers, db)

	if err := m.RunMigrations(ctx, db); err != nil {
		return fmt.Errorf("migrations error: %w", err)
	}

	var notifier notify.Notifier
	if c.NATSURL != "" {
		n, err := notify.NewNATSNotifier(ctx, c.NATSURL)
		if err != nil {
			return err
		}
		app.closers = append(app.closers, n)
		notifier = n
	} else {
		app.logger.Warn(ctx, "NATS URL not set, notifications are only logged")
		notifier = notify.NewLogNotifier(app.logger.With("module", "notify"))
	}
	app.dispatcher = notify.NewDispatcher(notifier, c.NotifyTimeout, app.logger.With("module", "dispatcher"))

	var table sessions.Table
	if c.RedisAddr != "" {
		rt, err := sessions.NewRedisTable(ctx, c.RedisAddr, c.RedisPassword, c.RedisDB, clock)
		if err != nil {
			return err
		}
		app.closers = append(app.closers, rt)
		table = rt
	} else {
		table = sessions.NewMemoryTable(clock)
	}

	app.scheduler = scheduler.New(clock, app.logger.With("module", "scheduler"), scheduler.Settings{
		UpdateOffsets:   c.UpdateOffsets,
		ReminderOffsets: c.ReminderOffsets,
		Retries:         c.CompletionRetries,
		RetryDelay:      c.CompletionRetryDelay,
	})

	app.photos = services.NewPhotoService(db, m, c)
	app.auctions = services.NewAuctionService(db, m, app.scheduler, app.dispatcher, app.photos, clock,
		app.logger.With("module", "auctions"), services.AuctionSettings{
			Duration:  c.AuctionDuration,
			Increment: c.MinBidIncrement,
			Channel:   c.ChannelName,
		})
	app.bidding = services.NewBiddingService(db, m, app.auctions, table, clock,
		app.logger.With("module", "bidding"), c.BidTokenTTL)
	if app.users, err = services.NewUserService(db, m, c); err != nil {
		return fmt.Errorf("user service init error: %w", err)
	}

	app.scheduler.SetHandler(app.auctions)
	return nil
}

func (app *App) close() {
	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i].Close(); err != nil {
			app.logger.Warn(context.Background(), "close failed", "error", err)
		}
	}
	app.closers = nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, gs.Services{
		Users:    app.users,
		Auctions: app.auctions,
		Bidding:  app.bidding,
		Photos:   app.photos,
	}, app.config.SecretKey, app.config.MinBidIncrement)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	h := httpapi.NewHandler(app.auctions, app.scheduler, app.logger.With("module", "httpapi"), app.config.MinBidIncrement)
	if err := httpapi.NewServer(app.config.EndpointAddrHTTP, h, app.logger).Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run recovers scheduled jobs, serves until a signal or a server failure,
// then drains pending notifications and releases resources.
func (app *App) Run(ctx context.Context) error {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()
	defer app.close()

	app.logger.Info(ctx, "Starting app...")

	// Deadlines that passed while the process was down are settled before
	// any bid can arrive.
	if err := app.scheduler.Recover(ctx, app.auctions); err != nil {
		return fmt.Errorf("scheduler recovery error: %w", err)
	}

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(3)
	go func() {
		defer wg.Done()
		app.scheduler.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()
	app.dispatcher.Wait()

	app.logger.Info(context.Background(), "App stopped")
	return nil
}
