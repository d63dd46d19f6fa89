// Package feed keeps a small, live list of featured properties: an initial
// snapshot from the database, then every featured insert prepended as it
// arrives, capped at a fixed size.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/raderre/cresite/internal/events"
	"github.com/raderre/cresite/internal/model"
)

// DefaultLimit is the number of featured properties shown on the home page.
const DefaultLimit = 6

// Source runs the featured query: featured rows, newest received_at first,
// at most limit of them.
type Source interface {
	FeaturedProperties(ctx context.Context, limit int) ([]*model.Property, error)
}

// Feed owns the featured list. InitialLoad and Run write it; Snapshot and
// OnChange observers read it.
type Feed struct {
	source Source
	sub    events.Subscriber
	limit  int
	logger *slog.Logger

	mu        sync.Mutex
	items     []*model.Property
	ch        <-chan []byte
	cancel    func()
	closed    bool
	observers map[int]func([]*model.Property)
	nextObs   int
}

// New returns an empty feed. A non-positive limit means DefaultLimit.
func New(source Source, sub events.Subscriber, limit int) *Feed {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Feed{
		source:    source,
		sub:       sub,
		limit:     limit,
		logger:    slog.Default().With("component", "feed"),
		observers: make(map[int]func([]*model.Property)),
	}
}

// Limit returns the feed's capacity.
func (f *Feed) Limit() int { return f.limit }

// InitialLoad replaces the list with the source's current featured rows.
// A query error is logged and leaves the feed empty; it is never returned.
func (f *Feed) InitialLoad(ctx context.Context) {
	items, err := f.source.FeaturedProperties(ctx, f.limit)
	if err != nil {
		f.logger.Warn("featured query failed, showing empty feed", "error", err)
		items = nil
	}
	if len(items) > f.limit {
		items = items[:f.limit]
	}
	f.set(append([]*model.Property(nil), items...))
}

// Subscribe opens the insert stream. It is a no-op when already subscribed.
func (f *Feed) Subscribe() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return fmt.Errorf("feed closed")
	}
	if f.ch != nil {
		return nil
	}
	ch, cancel, err := f.sub.Subscribe(events.TopicPropertyCreated)
	if err != nil {
		return fmt.Errorf("subscribing to %s: %w", events.TopicPropertyCreated, err)
	}
	f.ch, f.cancel = ch, cancel
	return nil
}

// Run consumes inserts until ctx is done or the stream closes, subscribing
// first if needed. The subscription is released when Run returns.
func (f *Feed) Run(ctx context.Context) error {
	if err := f.Subscribe(); err != nil {
		return err
	}
	defer f.Unsubscribe()

	f.mu.Lock()
	ch := f.ch
	f.mu.Unlock()
	if ch == nil {
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				f.logger.Info("featured stream closed")
				return nil
			}
			f.apply(msg)
		}
	}
}

// Unsubscribe releases the insert stream, if any.
func (f *Feed) Unsubscribe() {
	f.mu.Lock()
	cancel := f.cancel
	f.cancel = nil
	f.ch = nil
	f.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Close stops the feed. Results that arrive afterwards are discarded.
func (f *Feed) Close() {
	f.mu.Lock()
	f.closed = true
	f.observers = make(map[int]func([]*model.Property))
	f.mu.Unlock()
	f.Unsubscribe()
}

// Snapshot returns a copy of the current list, newest first.
func (f *Feed) Snapshot() []*model.Property {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*model.Property(nil), f.items...)
}

// OnChange registers fn to receive a snapshot after every change and
// returns a function that unregisters it. fn runs on the goroutine that
// made the change and must not block.
func (f *Feed) OnChange(fn func([]*model.Property)) func() {
	f.mu.Lock()
	id := f.nextObs
	f.nextObs++
	f.observers[id] = fn
	f.mu.Unlock()
	return func() {
		f.mu.Lock()
		delete(f.observers, id)
		f.mu.Unlock()
	}
}

func (f *Feed) apply(msg []byte) {
	var ev events.PropertyCreated
	if err := json.Unmarshal(msg, &ev); err != nil {
		f.logger.Warn("skipping undecodable insert", "error", err)
		return
	}
	if ev.New == nil {
		f.logger.Warn("skipping insert without a row")
		return
	}
	if !ev.New.Featured {
		return
	}

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.items = Prepend(f.items, ev.New, f.limit)
	snap, obs := f.snapshotLocked()
	f.mu.Unlock()
	notify(obs, snap)
}

func (f *Feed) set(items []*model.Property) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.items = items
	snap, obs := f.snapshotLocked()
	f.mu.Unlock()
	notify(obs, snap)
}

func (f *Feed) snapshotLocked() ([]*model.Property, []func([]*model.Property)) {
	obs := make([]func([]*model.Property), 0, len(f.observers))
	for _, fn := range f.observers {
		obs = append(obs, fn)
	}
	return append([]*model.Property(nil), f.items...), obs
}

func notify(obs []func([]*model.Property), snap []*model.Property) {
	for _, fn := range obs {
		fn(append([]*model.Property(nil), snap...))
	}
}

// Prepend returns a new slice with p in front of current, cut to at most
// limit entries. current is not modified.
func Prepend(current []*model.Property, p *model.Property, limit int) []*model.Property {
	if limit <= 0 {
		return nil
	}
	keep := min(len(current), limit-1)
	out := make([]*model.Property, 0, keep+1)
	out = append(out, p)
	return append(out, current[:keep]...)
}
