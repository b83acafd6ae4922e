package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/dmitrijs2005/lotkeeper/internal/client/client"
	"github.com/dmitrijs2005/lotkeeper/internal/client/config"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type App struct {
	config *config.Config
	client client.Client
	userID string
	Mode   Mode
	reader *bufio.Reader
	out    io.Writer

	// photos uploaded with "photo" and not yet attached to a lot
	stagedPhotos []string
}

func NewApp(c *config.Config) (*App, error) {
	apiClient, err := client.NewGRPCClient(c.ServerEndpointAddr)
	if err != nil {
		return nil, err
	}

	return &App{
		config: c,
		client: apiClient,
		userID: c.UserID,
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}, nil
}

func (a *App) setMode(mode Mode) {
	if a.Mode != mode {
		a.Mode = mode
		log.Printf("Switched to %s mode\n", mode)
	}
}

func (a *App) Run(ctx context.Context) {
	defer a.client.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	fmt.Fprintln(a.out, "Welcome to lotkeeper CLI (type 'help' for commands)")

	for a.userID == "" {
		id, err := getSimpleText(a.reader, "Enter your user id", a.out)
		if err != nil {
			return
		}
		a.userID = id
	}

	go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)

	runREPL(ctx, a, a.getStatus, a.reader)
}

func (a *App) getStatus() string {
	s := a.userID
	if a.Mode != "" {
		s += " " + string(a.Mode)
	}
	if a.isModerator() {
		s += " mod"
	}
	return s
}

func (a *App) isModerator() bool {
	return a.client != nil && a.client.IsModerator()
}

// rpcContext bounds a single server call.
func (a *App) rpcContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.config == nil || a.config.RequestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.config.RequestTimeout)
}

func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
			err := a.client.Ping(ctx)
			cancel()

			if err != nil {
				a.setMode(ModeOffline)
			} else {
				a.setMode(ModeOnline)
			}

		case <-ctx.Done():
			return
		}
	}
}
