// Package calendar answers whether a date earns double-time: every Friday
// plus the dates on the holiday list. Holiday dates are cached in process
// for a short TTL and optionally shared between instances through a
// SharedCache.
package calendar

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DateLayout key format of every date set returned by the calendar
const DateLayout = "2006-01-02"

// DefaultTTL how long a loaded holiday list is trusted
const DefaultTTL = 5 * time.Minute

// HolidaySource the record store behind the holiday list
type HolidaySource interface {
	ListHolidayDates(ctx context.Context) ([]time.Time, error)
}

// SharedCache a cache layer shared by all server instances. A miss reports
// ok == false.
type SharedCache interface {
	GetHolidayDates(ctx context.Context) (dates []string, ok bool, err error)
	SetHolidayDates(ctx context.Context, dates []string, ttl time.Duration) error
	DeleteHolidayDates(ctx context.Context) error
}

// Calendar cached double-time lookup. Safe for concurrent use.
type Calendar struct {
	source HolidaySource
	shared SharedCache
	ttl    time.Duration
	now    func() time.Time
	logger *zap.Logger

	mu       sync.RWMutex
	holidays map[string]struct{}
	loadedAt time.Time
	loaded   bool
}

// Option configures a Calendar
type Option func(*Calendar)

// WithTTL overrides DefaultTTL; a non-positive value keeps the default
func WithTTL(ttl time.Duration) Option {
	return func(c *Calendar) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithSharedCache adds a cross-instance cache layer
func WithSharedCache(s SharedCache) Option {
	return func(c *Calendar) { c.shared = s }
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(c *Calendar) { c.now = now }
}

// WithLogger sets the logger, zap.NewNop by default
func WithLogger(l *zap.Logger) Option {
	return func(c *Calendar) { c.logger = l }
}

// New builds a Calendar over source
func New(source HolidaySource, opts ...Option) *Calendar {
	c := &Calendar{
		source: source,
		ttl:    DefaultTTL,
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// IsDoubleTimeDay true when date is a Friday or a marked holiday. Only the
// calendar date of the argument matters.
func (c *Calendar) IsDoubleTimeDay(ctx context.Context, date time.Time) (bool, error) {
	if date.Weekday() == time.Friday {
		return true, nil
	}
	holidays, err := c.holidaySet(ctx)
	if err != nil {
		return false, err
	}
	_, ok := holidays[date.Format(DateLayout)]
	return ok, nil
}

// DoubleTimeDays every qualifying date in [start, end], keyed by DateLayout.
// An inverted range yields an empty set.
func (c *Calendar) DoubleTimeDays(ctx context.Context, start, end time.Time) (map[string]time.Time, error) {
	holidays, err := c.holidaySet(ctx)
	if err != nil {
		return nil, err
	}

	result := make(map[string]time.Time)
	d := dateOnly(start)
	last := dateOnly(end)
	for !d.After(last) {
		key := d.Format(DateLayout)
		if _, ok := holidays[key]; ok || d.Weekday() == time.Friday {
			result[key] = d
		}
		d = d.AddDate(0, 0, 1)
	}
	return result, nil
}

// Holidays the cached holiday dates, sorted
func (c *Calendar) Holidays(ctx context.Context) ([]string, error) {
	holidays, err := c.holidaySet(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(holidays))
	for k := range holidays {
		out = append(out, k)
	}
	sort.Strings(out)
	return out, nil
}

// Invalidate drops the local and shared cache. The next lookup reloads from
// the source. Called synchronously on every holiday write.
func (c *Calendar) Invalidate(ctx context.Context) {
	c.mu.Lock()
	c.loaded = false
	c.holidays = nil
	c.mu.Unlock()

	if c.shared != nil {
		if err := c.shared.DeleteHolidayDates(ctx); err != nil {
			c.logger.Warn("drop shared holiday cache", zap.Error(err))
		}
	}
}

// Refresh reloads the holiday list from the source right away
func (c *Calendar) Refresh(ctx context.Context) error {
	dates, err := c.source.ListHolidayDates(ctx)
	if err != nil {
		return fmt.Errorf("load holidays: %w", err)
	}
	keys := toKeys(dates)
	c.store(keys)

	if c.shared != nil {
		if err := c.shared.SetHolidayDates(ctx, keys, c.ttl); err != nil {
			c.logger.Warn("publish shared holiday cache", zap.Error(err))
		}
	}
	return nil
}

// Bonus double-time bonus for hours worked on date: the full hours on a
// qualifying date, zero otherwise.
func (c *Calendar) Bonus(ctx context.Context, date time.Time, hours decimal.Decimal) (decimal.Decimal, error) {
	ok, err := c.IsDoubleTimeDay(ctx, date)
	if err != nil {
		return decimal.Zero, err
	}
	if !ok {
		return decimal.Zero, nil
	}
	return hours, nil
}

func (c *Calendar) holidaySet(ctx context.Context) (map[string]struct{}, error) {
	c.mu.RLock()
	if c.loaded && c.now().Sub(c.loadedAt) < c.ttl {
		h := c.holidays
		c.mu.RUnlock()
		return h, nil
	}
	stale := c.holidays
	c.mu.RUnlock()

	if c.shared != nil {
		keys, ok, err := c.shared.GetHolidayDates(ctx)
		if err != nil {
			c.logger.Warn("read shared holiday cache", zap.Error(err))
		} else if ok {
			return c.store(keys), nil
		}
	}

	if err := c.Refresh(ctx); err != nil {
		if stale != nil {
			c.logger.Warn("holiday reload failed, serving stale list", zap.Error(err))
			return stale, nil
		}
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.holidays, nil
}

func (c *Calendar) store(keys []string) map[string]struct{} {
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	c.mu.Lock()
	c.holidays = set
	c.loadedAt = c.now()
	c.loaded = true
	c.mu.Unlock()
	return set
}

func toKeys(dates []time.Time) []string {
	keys := make([]string, 0, len(dates))
	for _, d := range dates {
		keys = append(keys, d.Format(DateLayout))
	}
	return keys
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
