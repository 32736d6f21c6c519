// Package scheduler provides interval and cron-driven dispatch of data into
// pipelines registered with a manager.
package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/vnykmshr/stageflow/pkg/common/validation"
	"github.com/vnykmshr/stageflow/pkg/manager"
)

// InputFunc produces the input value for a scheduled dispatch. It is called
// once per firing, immediately before the dispatch.
type InputFunc func() interface{}

// Entry describes a scheduled dispatch.
type Entry struct {
	ID         string
	PipelineID string
	RunAt      time.Time
	Interval   time.Duration // Zero for one-time and cron entries
	Created    time.Time
}

// Scheduler fires dispatches into managed pipelines at fixed times, fixed
// intervals, or cron schedules. Dispatches run sequentially in the
// scheduler's own loop; pipeline failures are absorbed by the pipeline as
// usual and visible through the OnDispatch callback and pipeline statistics.
type Scheduler interface {
	// Basic scheduling
	Schedule(id, pipelineID string, input InputFunc, runAt time.Time) error
	ScheduleAfter(id, pipelineID string, input InputFunc, delay time.Duration) error
	ScheduleRepeating(id, pipelineID string, input InputFunc, interval time.Duration) error

	// Cron scheduling
	ScheduleCron(id, cronExpr, pipelineID string, input InputFunc) error

	// Entry management
	Cancel(id string) bool
	CancelAll()
	List() []Entry

	// Lifecycle
	Start() error
	Stop() <-chan struct{}
}

// Config holds scheduler configuration.
type Config struct {
	// Manager receives the scheduled dispatches. Required.
	Manager manager.Manager

	// Location is the time zone for cron scheduling (default: time.Local).
	Location *time.Location

	// TickInterval is how often to check for ready entries (default: 50ms).
	TickInterval time.Duration

	// MaxEntries is the maximum number of scheduled entries (default: 10000).
	MaxEntries int

	// OnDispatch observes each fired dispatch and its outcome.
	OnDispatch func(entryID, pipelineID string, output interface{}, err error)
}

type scheduledEntry struct {
	id           string
	pipelineID   string
	input        InputFunc
	runAt        time.Time
	interval     time.Duration
	cronSchedule cron.Schedule
	created      time.Time
}

// scheduler implements the Scheduler interface.
type scheduler struct {
	mgr          manager.Manager
	location     *time.Location
	tickInterval time.Duration
	maxEntries   int
	cronParser   cron.Parser
	onDispatch   func(entryID, pipelineID string, output interface{}, err error)

	mu      sync.RWMutex
	entries map[string]*scheduledEntry
	ticker  *time.Ticker
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

// New creates a scheduler dispatching into the given manager with default
// configuration.
func New(m manager.Manager) Scheduler {
	return NewWithConfig(Config{Manager: m})
}

// NewWithConfig creates a scheduler with custom configuration.
func NewWithConfig(cfg Config) Scheduler {
	location := cfg.Location
	if location == nil {
		location = time.Local
	}

	tickInterval := cfg.TickInterval
	if tickInterval <= 0 {
		tickInterval = 50 * time.Millisecond
	}

	maxEntries := cfg.MaxEntries
	if maxEntries <= 0 {
		maxEntries = 10000
	}

	return &scheduler{
		mgr:          cfg.Manager,
		location:     location,
		tickInterval: tickInterval,
		maxEntries:   maxEntries,
		cronParser:   cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow),
		onDispatch:   cfg.OnDispatch,
		entries:      make(map[string]*scheduledEntry),
		done:         make(chan struct{}),
	}
}

// validate checks the shared arguments of the Schedule variants.
func (s *scheduler) validate(id, pipelineID string, input InputFunc) error {
	if s.mgr == nil {
		return validation.ValidateNotNil("scheduler", "manager", nil)
	}
	if err := validation.ValidateNotEmpty("scheduler", "id", id); err != nil {
		return err
	}
	if err := validation.ValidateNotEmpty("scheduler", "pipelineID", pipelineID); err != nil {
		return err
	}
	if input == nil {
		return validation.ValidateNotNil("scheduler", "input", nil)
	}
	return nil
}

// insert stores an entry, enforcing uniqueness and the entry limit.
func (s *scheduler) insert(entry *scheduledEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[entry.id]; exists {
		return fmt.Errorf("entry with ID %q already exists, use a different ID or cancel the existing entry first", entry.id)
	}

	if len(s.entries) >= s.maxEntries {
		return fmt.Errorf("cannot schedule entry: maximum number of entries (%d) reached", s.maxEntries)
	}

	s.entries[entry.id] = entry
	return nil
}

func (s *scheduler) Schedule(id, pipelineID string, input InputFunc, runAt time.Time) error {
	if err := s.validate(id, pipelineID, input); err != nil {
		return err
	}
	if runAt.IsZero() {
		return fmt.Errorf("entry run time cannot be zero")
	}

	return s.insert(&scheduledEntry{
		id:         id,
		pipelineID: pipelineID,
		input:      input,
		runAt:      runAt,
		created:    time.Now(),
	})
}

func (s *scheduler) ScheduleAfter(id, pipelineID string, input InputFunc, delay time.Duration) error {
	return s.Schedule(id, pipelineID, input, time.Now().Add(delay))
}

func (s *scheduler) ScheduleRepeating(id, pipelineID string, input InputFunc, interval time.Duration) error {
	if err := s.validate(id, pipelineID, input); err != nil {
		return err
	}
	if err := validation.ValidatePositiveDuration("scheduler", "interval", int64(interval)); err != nil {
		return err
	}

	return s.insert(&scheduledEntry{
		id:         id,
		pipelineID: pipelineID,
		input:      input,
		runAt:      time.Now(),
		interval:   interval,
		created:    time.Now(),
	})
}

func (s *scheduler) ScheduleCron(id, cronExpr, pipelineID string, input InputFunc) error {
	if err := s.validate(id, pipelineID, input); err != nil {
		return err
	}
	if err := validation.ValidateNotEmpty("scheduler", "cronExpr", cronExpr); err != nil {
		return err
	}

	schedule, err := s.cronParser.Parse(cronExpr)
	if err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}

	now := time.Now().In(s.location)
	return s.insert(&scheduledEntry{
		id:           id,
		pipelineID:   pipelineID,
		input:        input,
		runAt:        schedule.Next(now),
		cronSchedule: schedule,
		created:      time.Now(),
	})
}

func (s *scheduler) Cancel(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[id]; exists {
		delete(s.entries, id)
		return true
	}
	return false
}

func (s *scheduler) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]*scheduledEntry)
}

func (s *scheduler) List() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		entries = append(entries, Entry{
			ID:         e.id,
			PipelineID: e.pipelineID,
			RunAt:      e.runAt,
			Interval:   e.interval,
			Created:    e.created,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].RunAt.Before(entries[j].RunAt)
	})

	return entries
}

func (s *scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mgr == nil {
		return validation.ValidateNotNil("scheduler", "manager", nil)
	}
	if s.running {
		return fmt.Errorf("scheduler already running, call Stop() first")
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.running = true
	s.done = make(chan struct{})
	s.ticker = time.NewTicker(s.tickInterval)

	go s.run(ctx, s.ticker, s.done)
	return nil
}

func (s *scheduler) Stop() <-chan struct{} {
	s.mu.Lock()
	started := s.cancel != nil
	if s.running {
		s.running = false
		s.cancel()
		if s.ticker != nil {
			s.ticker.Stop()
		}
	}
	done := s.done
	s.mu.Unlock()

	if !started {
		// Never started; nothing to wait for.
		closed := make(chan struct{})
		close(closed)
		return closed
	}

	return done
}

func (s *scheduler) run(ctx context.Context, ticker *time.Ticker, done chan struct{}) {
	defer close(done)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.dispatchReady(ctx)
		}
	}
}

// dispatchReady fires every entry whose run time has arrived. Dispatches run
// inline and in run-time order, preserving the sequential execution model.
func (s *scheduler) dispatchReady(ctx context.Context) {
	now := time.Now()

	s.mu.Lock()
	if len(s.entries) == 0 {
		s.mu.Unlock()
		return
	}

	ready := make([]*scheduledEntry, 0, len(s.entries))

	for id, entry := range s.entries {
		if now.Before(entry.runAt) {
			continue
		}
		ready = append(ready, entry)

		switch {
		case entry.interval > 0:
			entry.runAt = now.Add(entry.interval)
		case entry.cronSchedule != nil:
			entry.runAt = entry.cronSchedule.Next(now.In(s.location))
		default:
			delete(s.entries, id)
		}
	}
	s.mu.Unlock()

	sort.Slice(ready, func(i, j int) bool {
		return ready[i].runAt.Before(ready[j].runAt)
	})

	for _, entry := range ready {
		output, err := s.mgr.Dispatch(ctx, entry.pipelineID, entry.input())
		if s.onDispatch != nil {
			s.onDispatch(entry.id, entry.pipelineID, output, err)
		}
	}
}
