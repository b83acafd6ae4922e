package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/lotkeeper/internal/client/client"
	"github.com/dmitrijs2005/lotkeeper/internal/common"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to.
type execIface interface {
	isModerator() bool
	Register(ctx context.Context) error
	Admin(ctx context.Context) error
	Lots(ctx context.Context, statuses []string) error
	Mine(ctx context.Context) error
	Show(ctx context.Context, lotID string) error
	Create(ctx context.Context) error
	Photo(ctx context.Context, path string) error
	Delete(ctx context.Context, lotID string) error
	Pending(ctx context.Context) error
	Approve(ctx context.Context, lotID string) error
	Reject(ctx context.Context, lotID, reason string) error
	Close(ctx context.Context, lotID string) error
	Bid(ctx context.Context, lotID string) error
	Buy(ctx context.Context, lotID string) error
	Sold(ctx context.Context, lotID string) error
	Stats(ctx context.Context) error
}

const (
	helpUser      = "Available commands: register, admin, lots [status...], mine, show <id>, create, photo <file>, delete <id>, bid [id], buy <id>, sold <id>, exit"
	helpModerator = "Moderator commands: pending, approve <id>, reject <id> <reason>, close <id>, stats"
)

// runREPL reads commands line by line from reader and dispatches them to a
// until EOF or "exit"/"quit". Command errors are reported and the loop goes on.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("lk (%s)> ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		withID := func(usage string, f func(string) error) error {
			if len(args) == 0 {
				printlnFn("Usage:", usage)
				return nil
			}
			return f(args[0])
		}

		var cmdErr error
		switch cmd {
		case "help":
			printlnFn(helpUser)
			if a.isModerator() {
				printlnFn(helpModerator)
			}
		case "register":
			cmdErr = a.Register(ctx)
		case "admin":
			cmdErr = a.Admin(ctx)
		case "lots", "l":
			cmdErr = a.Lots(ctx, args)
		case "mine":
			cmdErr = a.Mine(ctx)
		case "show":
			cmdErr = withID("show <id>", func(id string) error { return a.Show(ctx, id) })
		case "create":
			cmdErr = a.Create(ctx)
		case "photo":
			cmdErr = withID("photo <file>", func(p string) error { return a.Photo(ctx, p) })
		case "delete":
			cmdErr = withID("delete <id>", func(id string) error { return a.Delete(ctx, id) })
		case "pending":
			cmdErr = a.Pending(ctx)
		case "approve":
			cmdErr = withID("approve <id>", func(id string) error { return a.Approve(ctx, id) })
		case "reject":
			cmdErr = withID("reject <id> <reason>", func(id string) error {
				return a.Reject(ctx, id, strings.Join(args[1:], " "))
			})
		case "close":
			cmdErr = withID("close <id>", func(id string) error { return a.Close(ctx, id) })
		case "bid":
			id := ""
			if len(args) > 0 {
				id = args[0]
			}
			cmdErr = a.Bid(ctx, id)
		case "buy":
			cmdErr = withID("buy <id>", func(id string) error { return a.Buy(ctx, id) })
		case "sold":
			cmdErr = withID("sold <id>", func(id string) error { return a.Sold(ctx, id) })
		case "stats":
			cmdErr = a.Stats(ctx)
		case "exit", "quit":
			printlnFn("Bye!")
			return
		default:
			printlnFn("Unknown command:", cmd)
		}

		if cmdErr != nil {
			printlnFn("Error:", describe(cmdErr))
		}
	}
}

// describe renders an error for the user.
func describe(err error) string {
	var tooLow *common.BidTooLowError
	switch {
	case errors.As(err, &tooLow):
		return fmt.Sprintf("bid too low, the minimum is %d", tooLow.Minimum)
	case errors.Is(err, client.ErrNotModerator):
		return "moderator login required, run 'admin' first"
	case errors.Is(err, common.ErrTokenExpired):
		return "the bid or moderator session has expired, start again"
	case errors.Is(err, client.ErrUnavailable):
		return "server unavailable, try again later"
	case errors.Is(err, common.ErrorUnauthorized):
		return "not allowed"
	default:
		return err.Error()
	}
}
