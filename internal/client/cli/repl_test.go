package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/dmitrijs2005/lotkeeper/internal/client/client"
	"github.com/dmitrijs2005/lotkeeper/internal/common"
	"github.com/stretchr/testify/assert"
)

type fakeExec struct {
	moderator bool
	calls     []string
	err       error
}

func (f *fakeExec) record(call string) error {
	f.calls = append(f.calls, call)
	return f.err
}

func (f *fakeExec) isModerator() bool                 { return f.moderator }
func (f *fakeExec) Register(ctx context.Context) error { return f.record("register") }
func (f *fakeExec) Admin(ctx context.Context) error    { return f.record("admin") }
func (f *fakeExec) Lots(ctx context.Context, statuses []string) error {
	return f.record("lots " + strings.Join(statuses, ","))
}
func (f *fakeExec) Mine(ctx context.Context) error              { return f.record("mine") }
func (f *fakeExec) Show(ctx context.Context, id string) error   { return f.record("show " + id) }
func (f *fakeExec) Create(ctx context.Context) error            { return f.record("create") }
func (f *fakeExec) Photo(ctx context.Context, p string) error   { return f.record("photo " + p) }
func (f *fakeExec) Delete(ctx context.Context, id string) error { return f.record("delete " + id) }
func (f *fakeExec) Pending(ctx context.Context) error           { return f.record("pending") }
func (f *fakeExec) Approve(ctx context.Context, id string) error {
	return f.record("approve " + id)
}
func (f *fakeExec) Reject(ctx context.Context, id, reason string) error {
	return f.record("reject " + id + " " + reason)
}
func (f *fakeExec) Close(ctx context.Context, id string) error { return f.record("close " + id) }
func (f *fakeExec) Bid(ctx context.Context, id string) error   { return f.record("bid " + id) }
func (f *fakeExec) Buy(ctx context.Context, id string) error   { return f.record("buy " + id) }
func (f *fakeExec) Sold(ctx context.Context, id string) error  { return f.record("sold " + id) }
func (f *fakeExec) Stats(ctx context.Context) error            { return f.record("stats") }

func capturePrints(t *testing.T) *[]string {
	t.Helper()
	var lines []string
	orig := printlnFn
	printlnFn = func(a ...any) (int, error) {
		lines = append(lines, strings.TrimSuffix(fmt.Sprintln(a...), "\n"))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = orig })
	return &lines
}

func TestRunREPL_DispatchesCommands(t *testing.T) {
	capturePrints(t)

	input := strings.Join([]string{
		"register",
		"lots",
		"l pending approved",
		"show 1",
		"",
		"create",
		"photo bike.jpg",
		"bid 1",
		"bid",
		"reject 2 blurry photo",
		"close 3",
		"buy 4",
		"sold 5",
		"stats",
		"exit",
		"mine",
	}, "\n")

	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "42" }, bufio.NewReader(strings.NewReader(input)))

	assert.Equal(t, []string{
		"register",
		"lots ",
		"lots pending,approved",
		"show 1",
		"create",
		"photo bike.jpg",
		"bid 1",
		"bid ",
		"reject 2 blurry photo",
		"close 3",
		"buy 4",
		"sold 5",
		"stats",
	}, exec.calls)
}

func TestRunREPL_UsageAndQuit(t *testing.T) {
	lines := capturePrints(t)

	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "s" }, bufio.NewReader(strings.NewReader("show\napprove\nfoobar\nquit\n")))

	assert.Empty(t, exec.calls)
	assert.Contains(t, *lines, "Usage: show <id>")
	assert.Contains(t, *lines, "Usage: approve <id>")
	assert.Contains(t, *lines, "Unknown command: foobar")
	assert.Contains(t, *lines, "Bye!")
}

func TestRunREPL_LastLineWithoutNewline(t *testing.T) {
	capturePrints(t)

	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "s" }, bufio.NewReader(strings.NewReader("stats")))

	assert.Equal(t, []string{"stats"}, exec.calls)
}

func TestRunREPL_HelpShowsModeratorCommands(t *testing.T) {
	lines := capturePrints(t)
	runREPL(context.Background(), &fakeExec{}, func() string { return "s" }, bufio.NewReader(strings.NewReader("help\n")))
	assert.Contains(t, *lines, helpUser)
	assert.NotContains(t, *lines, helpModerator)

	lines = capturePrints(t)
	runREPL(context.Background(), &fakeExec{moderator: true}, func() string { return "s" }, bufio.NewReader(strings.NewReader("help\n")))
	assert.Contains(t, *lines, helpModerator)
}

func TestRunREPL_ReportsErrorsAndContinues(t *testing.T) {
	lines := capturePrints(t)

	exec := &fakeExec{err: client.ErrNotModerator}
	runREPL(context.Background(), exec, func() string { return "s" }, bufio.NewReader(strings.NewReader("pending\nstats\n")))

	assert.Equal(t, []string{"pending", "stats"}, exec.calls)
	assert.Contains(t, *lines, "Error: moderator login required, run 'admin' first")
}

func TestDescribe(t *testing.T) {
	cur := int64(1000)
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"bid too low", fmt.Errorf("confirm: %w", &common.BidTooLowError{Minimum: 2000, Attempted: 1500, Current: &cur}), "bid too low, the minimum is 2000"},
		{"expired", common.ErrTokenExpired, "the bid or moderator session has expired, start again"},
		{"unavailable", client.ErrUnavailable, "server unavailable, try again later"},
		{"unauthorized", common.ErrorUnauthorized, "not allowed"},
		{"other", errors.New("boom"), "boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, describe(tt.err))
		})
	}
}
