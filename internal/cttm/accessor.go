package cttm

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Table addresses a ledger worksheet. Sheet is the spreadsheet id or file
// path, depending on the backend.
type Table struct {
	Sheet     string
	Worksheet string
	Columns   []string
}

// DefaultTable is the worksheet facts are submitted to.
func DefaultTable(sheet, worksheet string) Table {
	if worksheet == "" {
		worksheet = "CTTM_Facts"
	}
	return Table{Sheet: sheet, Worksheet: worksheet, Columns: Columns}
}

// Reader reads a ledger table. The first returned row is the header.
type Reader interface {
	ReadRows(ctx context.Context, t Table) ([][]string, error)
}

// Writer appends one row to a ledger table. There is no update or delete.
type Writer interface {
	AppendRow(ctx context.Context, t Table, row []string) error
}

// Ledger is a backend that can both read and append.
type Ledger interface {
	Reader
	Writer
}

// Fetch results reported to an Observer.
const (
	ResultHit    = "hit"
	ResultShared = "shared"
	ResultMiss   = "miss"
	ResultError  = "error"
)

// Observer receives one call per Fetch with its result and the number of
// facts served.
type Observer func(result string, facts int)

// Accessor serves the current fact set from a time-bounded cache in front
// of a ledger. It is safe for concurrent use.
type Accessor struct {
	reader   Reader
	writer   Writer
	table    Table
	ttl      time.Duration
	errorTTL time.Duration
	timeout  time.Duration
	shared   SnapshotCache
	observe  Observer
	now      func() time.Time
	log      *zap.Logger

	snap  atomic.Pointer[Snapshot]
	group singleflight.Group
}

// Option configures an Accessor.
type Option func(*Accessor)

func WithTTL(d time.Duration) Option         { return func(a *Accessor) { a.ttl = d } }
func WithTimeout(d time.Duration) Option     { return func(a *Accessor) { a.timeout = d } }
func WithSharedCache(c SnapshotCache) Option { return func(a *Accessor) { a.shared = c } }
func WithObserver(o Observer) Option         { return func(a *Accessor) { a.observe = o } }
func WithClock(now func() time.Time) Option  { return func(a *Accessor) { a.now = now } }
func WithLogger(l *zap.Logger) Option        { return func(a *Accessor) { a.log = l } }

// WithErrorTTL sets how long an empty snapshot from a failed read is
// served before the ledger is tried again. It never exceeds the TTL.
func WithErrorTTL(d time.Duration) Option { return func(a *Accessor) { a.errorTTL = d } }

// DefaultErrorTTL is the retry delay after a failed ledger read.
const DefaultErrorTTL = 30 * time.Second

// NewAccessor creates an accessor. A nil reader yields an always-empty fact
// set; a nil writer makes Append fail with ErrNotConfigured.
func NewAccessor(r Reader, w Writer, t Table, opts ...Option) *Accessor {
	a := &Accessor{
		reader:   r,
		writer:   w,
		table:    t,
		ttl:      10 * time.Minute,
		errorTTL: DefaultErrorTTL,
		timeout:  10 * time.Second,
		now:      time.Now,
		log:      zap.NewNop(),
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Fetch returns the facts sorted by confidence descending. It never fails:
// ledger errors degrade to an empty slice. The returned slice is shared and
// must not be modified.
//
// The refresh runs detached from ctx, bounded only by the accessor timeout.
// A caller whose ctx ends first gets no facts while the refresh completes.
// A failed read is served as empty for the error TTL, then retried.
func (a *Accessor) Fetch(ctx context.Context) []FactRecord {
	if cur := a.snap.Load(); cur.Fresh(a.now()) {
		a.report(ResultHit, len(cur.Facts))
		return cur.Facts
	}

	ch := a.group.DoChan("refresh", func() (any, error) {
		return a.refresh(context.WithoutCancel(ctx)), nil
	})
	select {
	case res := <-ch:
		return res.Val.(*Snapshot).Facts
	case <-ctx.Done():
		return nil
	}
}

func (a *Accessor) refresh(ctx context.Context) *Snapshot {
	now := a.now()
	if cur := a.snap.Load(); cur.Fresh(now) {
		return cur
	}
	if a.shared != nil {
		if s, ok := a.shared.Load(ctx); ok && s.Fresh(now) {
			a.snap.Store(s)
			a.report(ResultShared, len(s.Facts))
			return s
		}
	}

	result, ttl := ResultMiss, a.ttl
	facts, err := a.load(ctx)
	if err != nil {
		result, ttl = ResultError, min(a.ttl, a.errorTTL)
		a.log.Warn("cttm ledger unavailable, serving without facts",
			zap.Duration("retry_in", ttl), zap.Error(err))
	}
	next := Refresh(now, nil, ttl, func() []FactRecord { return facts })
	a.snap.Store(&next)
	if a.shared != nil && result == ResultMiss {
		a.shared.Save(ctx, next)
	}
	a.report(result, len(next.Facts))
	return &next
}

// load performs one bounded read and parse.
func (a *Accessor) load(ctx context.Context) ([]FactRecord, error) {
	if a.reader == nil {
		return nil, ErrNotConfigured
	}
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	rows, err := a.reader.ReadRows(ctx, a.table)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", a.table.Worksheet, err)
	}
	facts, skipped, err := ParseRows(rows)
	if err != nil {
		return nil, err
	}
	if skipped > 0 {
		a.log.Debug("skipped ledger rows without text", zap.Int("rows", skipped))
	}
	return facts, nil
}

// Append validates rec and writes it to the ledger, then drops the cached
// snapshot so the next Fetch sees it.
func (a *Accessor) Append(ctx context.Context, rec FactRecord) (FactRecord, error) {
	rec, err := rec.Normalize(a.now())
	if err != nil {
		return rec, err
	}
	if a.writer == nil {
		return rec, ErrNotConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	if err := a.writer.AppendRow(ctx, a.table, rec.Row()); err != nil {
		return rec, fmt.Errorf("append fact: %w", err)
	}
	a.Invalidate(ctx)
	return rec, nil
}

// Invalidate discards the cached snapshot, locally and in the shared cache.
func (a *Accessor) Invalidate(ctx context.Context) {
	a.snap.Store(nil)
	if a.shared != nil {
		a.shared.Delete(ctx)
	}
}

// Snapshot returns the cached snapshot without refreshing, or nil.
func (a *Accessor) Snapshot() *Snapshot {
	return a.snap.Load()
}

// Writable reports whether Append can succeed.
func (a *Accessor) Writable() bool {
	return a.writer != nil
}

func (a *Accessor) report(result string, n int) {
	if a.observe != nil {
		a.observe(result, n)
	}
}

// IsUnavailable reports whether err means the ledger could not be used, as
// opposed to a bad record.
func IsUnavailable(err error) bool {
	return err != nil && !errors.Is(err, ErrEmptyText)
}
