package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dmitrijs2005/lotkeeper/internal/common"
	"github.com/dmitrijs2005/lotkeeper/internal/logging"
	"github.com/dmitrijs2005/lotkeeper/internal/server/models"
	"github.com/dmitrijs2005/lotkeeper/internal/timex"
	"github.com/sethvargo/go-retry"
)

// Handler performs the work behind each job kind. Implementations must
// tolerate the lot having moved on since the job was planned.
type Handler interface {
	RunCompletion(ctx context.Context, lotID string) error
	RunUpdate(ctx context.Context, lotID string, offset time.Duration) error
	RunReminder(ctx context.Context, lotID string, offset time.Duration) error
}

// LotLister supplies the auctions that were running when the process stopped.
type LotLister interface {
	ActiveLots(ctx context.Context) ([]*models.Lot, error)
}

type Settings struct {
	UpdateOffsets   []time.Duration
	ReminderOffsets []time.Duration
	// Retries bounds how often a failed completion is attempted again.
	Retries    int
	RetryDelay time.Duration
}

type entry struct {
	job   Job
	timer timex.Timer
}

// Scheduler keeps one timer per job. Fired jobs run on the clock's
// goroutine, never on the caller's.
type Scheduler struct {
	clock    timex.Clock
	logger   logging.Logger
	settings Settings

	mu      sync.Mutex
	handler Handler
	entries map[string]*entry
	stopped bool
	wg      sync.WaitGroup

	baseCtx context.Context
	cancel  context.CancelFunc
}

func New(clock timex.Clock, logger logging.Logger, settings Settings) *Scheduler {
	if logger == nil {
		logger = logging.Nop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		clock:    clock,
		logger:   logger,
		settings: settings,
		entries:  map[string]*entry{},
		baseCtx:  ctx,
		cancel:   cancel,
	}
}

// SetHandler installs the job handler. It must be called before any job fires.
func (s *Scheduler) SetHandler(h Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handler = h
}

// ScheduleLot registers every remaining job of a started auction.
func (s *Scheduler) ScheduleLot(ctx context.Context, lot *models.Lot) {
	if lot.Timer == nil {
		return
	}
	jobs := Plan(lot.ID, lot.Timer.EndTime, s.clock.Now(), s.settings.UpdateOffsets, s.settings.ReminderOffsets)
	for _, j := range jobs {
		s.Add(j)
	}
	s.logger.Info(ctx, "auction scheduled", "lot_id", lot.ID, "end_time", lot.Timer.EndTime, "jobs", len(jobs))
}

// Add registers job, replacing any job with the same ID.
func (s *Scheduler) Add(job Job) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}
	if old, ok := s.entries[job.ID]; ok {
		old.timer.Stop()
	}
	e := &entry{job: job}
	e.timer = s.clock.AfterFunc(job.FireAt.Sub(s.clock.Now()), func() { s.fire(e) })
	s.entries[job.ID] = e
}

// CancelLot drops every pending job of the lot.
func (s *Scheduler) CancelLot(lotID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, e := range s.entries {
		if e.job.LotID == lotID {
			e.timer.Stop()
			delete(s.entries, id)
		}
	}
}

// Jobs returns the pending jobs ordered by fire time.
func (s *Scheduler) Jobs() []Job {
	s.mu.Lock()
	jobs := make([]Job, 0, len(s.entries))
	for _, e := range s.entries {
		jobs = append(jobs, e.job)
	}
	s.mu.Unlock()

	sortJobs(jobs)
	return jobs
}

// Recover rebuilds the job set from the running auctions. Auctions whose end
// time has passed are completed before Recover returns. A failure on one lot
// is logged and does not stop the others.
func (s *Scheduler) Recover(ctx context.Context, lister LotLister) error {
	lots, err := lister.ActiveLots(ctx)
	if err != nil {
		return err
	}

	now := s.clock.Now()
	completed, rescheduled := 0, 0
	for _, lot := range lots {
		if lot.Timer == nil {
			s.logger.Error(ctx, "active lot without auction timer", "lot_id", lot.ID)
			continue
		}
		if !now.Before(lot.Timer.EndTime) {
			s.runCompletion(ctx, lot.ID)
			completed++
			continue
		}
		s.ScheduleLot(ctx, lot)
		rescheduled++
	}

	s.logger.Info(ctx, "scheduler recovered", "completed", completed, "rescheduled", rescheduled)
	return nil
}

// Run blocks until ctx is done, then stops all timers and waits for jobs
// that are already running.
func (s *Scheduler) Run(ctx context.Context) {
	<-ctx.Done()

	s.mu.Lock()
	s.stopped = true
	for id, e := range s.entries {
		e.timer.Stop()
		delete(s.entries, id)
	}
	s.mu.Unlock()

	s.wg.Wait()
	s.cancel()
	s.logger.Info(ctx, "scheduler stopped")
}

func (s *Scheduler) fire(e *entry) {
	s.mu.Lock()
	if s.stopped || s.entries[e.job.ID] != e {
		s.mu.Unlock()
		return
	}
	delete(s.entries, e.job.ID)
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()

	ctx := s.baseCtx
	job := e.job
	s.logger.Debug(ctx, "job fired", "job_id", job.ID, "kind", job.Kind)

	switch job.Kind {
	case KindComplete:
		s.runCompletion(ctx, job.LotID)
	case KindUpdate:
		s.runBestEffort(ctx, job, func(h Handler) error { return h.RunUpdate(ctx, job.LotID, job.Offset) })
	case KindNotify:
		s.runBestEffort(ctx, job, func(h Handler) error { return h.RunReminder(ctx, job.LotID, job.Offset) })
	}
}

func (s *Scheduler) currentHandler() Handler {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handler
}

// runCompletion retries until the completion is persisted or the retry
// budget is spent. A deleted lot ends the job quietly.
func (s *Scheduler) runCompletion(ctx context.Context, lotID string) {
	h := s.currentHandler()
	if h == nil {
		s.logger.Error(ctx, "no job handler installed", "lot_id", lotID)
		return
	}

	delay := s.settings.RetryDelay
	if delay <= 0 {
		delay = time.Millisecond
	}
	backoff := retry.WithMaxRetries(uint64(max(s.settings.Retries, 0)), retry.NewExponential(delay))

	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		err := h.RunCompletion(ctx, lotID)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, common.ErrorNotFound):
			s.logger.Debug(ctx, "completion for missing lot ignored", "lot_id", lotID)
			return nil
		default:
			s.logger.Warn(ctx, "completion attempt failed", "lot_id", lotID, "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}
	})
	if err != nil {
		s.logger.Error(ctx, "completion failed", "lot_id", lotID, "attempts", attempt, "error", err)
	}
}

func (s *Scheduler) runBestEffort(ctx context.Context, job Job, f func(Handler) error) {
	h := s.currentHandler()
	if h == nil {
		s.logger.Error(ctx, "no job handler installed", "job_id", job.ID)
		return
	}
	if err := f(h); err != nil && !errors.Is(err, common.ErrorNotFound) {
		s.logger.Warn(ctx, "job failed", "job_id", job.ID, "error", err)
	}
}
