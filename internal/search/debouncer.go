package search

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"sync"
	"time"
)

// DefaultQuietPeriod is how long typing must pause before a search fires.
const DefaultQuietPeriod = 300 * time.Millisecond

// ErrClosed is returned by Submit after Close.
var ErrClosed = errors.New("debouncer closed")

// Target is what the debouncer drives, typically the products slice.
type Target interface {
	Search(ctx context.Context, query string) error
	FetchAll(ctx context.Context) error
}

// Timer is the part of *time.Timer the debouncer needs.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d. time.AfterFunc satisfies it.
type AfterFunc func(d time.Duration, f func()) Timer

// Debouncer turns per-keystroke query updates into at most one remote call
// per quiet period.
type Debouncer struct {
	target    Target
	quiet     time.Duration
	afterFunc AfterFunc
	ctx       context.Context
	logger    *log.Logger

	mu      sync.Mutex
	pending Timer
	seq     uint64
	closed  bool
}

type Option func(*Debouncer)

func WithQuietPeriod(d time.Duration) Option {
	return func(db *Debouncer) {
		if d > 0 {
			db.quiet = d
		}
	}
}

// WithAfterFunc replaces the timer source, mainly for tests.
func WithAfterFunc(fn AfterFunc) Option {
	return func(db *Debouncer) { db.afterFunc = fn }
}

func WithLogger(logger *log.Logger) Option {
	return func(db *Debouncer) {
		if logger != nil {
			db.logger = logger
		}
	}
}

// New builds a Debouncer. Timer-fired searches run with ctx.
func New(ctx context.Context, target Target, opts ...Option) *Debouncer {
	db := &Debouncer{
		target: target,
		quiet:  DefaultQuietPeriod,
		afterFunc: func(d time.Duration, f func()) Timer {
			return time.AfterFunc(d, f)
		},
		ctx:    ctx,
		logger: log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(db)
	}
	return db
}

// Schedule restarts the quiet period with query as the latest value.
func (d *Debouncer) Schedule(query string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.stopLocked()
	d.seq++
	seq := d.seq
	d.pending = d.afterFunc(d.quiet, func() { d.fire(seq, query) })
}

// Submit runs query now and drops any pending scheduled call.
func (d *Debouncer) Submit(ctx context.Context, query string) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrClosed
	}
	d.stopLocked()
	d.seq++
	d.mu.Unlock()
	return d.run(ctx, query)
}

// CancelPending drops the scheduled call, if any.
func (d *Debouncer) CancelPending() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()
	d.seq++
}

// Close cancels the pending call and ignores later schedules.
func (d *Debouncer) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()
	d.seq++
	d.closed = true
}

func (d *Debouncer) fire(seq uint64, query string) {
	d.mu.Lock()
	// A timer that could not be stopped in time still fires; only the
	// latest schedule may run.
	if seq != d.seq || d.closed {
		d.mu.Unlock()
		return
	}
	d.pending = nil
	d.mu.Unlock()

	if err := d.run(d.ctx, query); err != nil {
		d.logger.Printf("search debouncer: query=%q error=%v", query, err)
	}
}

func (d *Debouncer) run(ctx context.Context, query string) error {
	if strings.TrimSpace(query) == "" {
		return d.target.FetchAll(ctx)
	}
	return d.target.Search(ctx, query)
}

func (d *Debouncer) stopLocked() {
	if d.pending != nil {
		d.pending.Stop()
		d.pending = nil
	}
}
