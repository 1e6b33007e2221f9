// Package engine evaluates inbound LINE events against the auto-reply rules:
// matching, eligibility, response selection, dispatch, and statistics.
package engine

import (
	"sync"
	"time"

	"line-gateway/internal/logging"
	"line-gateway/internal/store"
	"line-gateway/pkg/models"

	"github.com/rs/zerolog"
)

// Gateway delivers a resolved response to a user. Any error (or panic) is
// treated as a failed send and recorded; it is never retried or propagated.
type Gateway interface {
	Send(userID, content string) error
}

// Notifier receives each activity record as it is written, for realtime
// dashboard feeds.
type Notifier interface {
	NotifyActivity(rec models.ActivityRecord)
}

type task struct {
	event models.InboundEvent
	user  models.UserProfile
}

// Engine owns the serialized auto-reply pipeline. Events are queued FIFO and
// drained by a single worker goroutine, so statistics updates never
// interleave.
type Engine struct {
	store        *store.RuleStore
	activity     *store.ActivityStore
	gateway      Gateway
	notifier     Notifier
	logger       zerolog.Logger
	fallbackName string
	now          func() time.Time

	queue     chan task
	wg        sync.WaitGroup
	closeOnce sync.Once
}

type Option func(*Engine)

// WithNotifier attaches a realtime activity feed
func WithNotifier(n Notifier) Option {
	return func(e *Engine) { e.notifier = n }
}

// WithClock overrides the engine clock
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithFallbackName sets the {username} substitution for profiles without a
// display name
func WithFallbackName(name string) Option {
	return func(e *Engine) { e.fallbackName = name }
}

func New(ruleStore *store.RuleStore, activity *store.ActivityStore, gateway Gateway, opts ...Option) *Engine {
	e := &Engine{
		store:        ruleStore,
		activity:     activity,
		gateway:      gateway,
		logger:       logging.GetLogger("engine"),
		fallbackName: "お客様",
		now:          time.Now,
		queue:        make(chan task, 256),
	}
	for _, opt := range opts {
		opt(e)
	}
	go e.run()
	return e
}

// Submit enqueues one inbound event. It returns once the event is queued;
// processing happens on the worker. Must not be called after Close.
func (e *Engine) Submit(event models.InboundEvent, user models.UserProfile) {
	e.wg.Add(1)
	e.queue <- task{event: event, user: user}
}

// Wait blocks until every submitted event has been fully processed
func (e *Engine) Wait() {
	e.wg.Wait()
}

// Close drains the queue and stops the worker
func (e *Engine) Close() {
	e.closeOnce.Do(func() {
		e.wg.Wait()
		close(e.queue)
	})
}

func (e *Engine) run() {
	for t := range e.queue {
		e.process(t)
		e.wg.Done()
	}
}

// process runs one event through the full pipeline. Per-rule failures are
// recorded and skipped; nothing here aborts the scan of remaining rules.
func (e *Engine) process(t task) {
	now := e.now()

	for _, rule := range e.store.Rules() { // ascending priority
		if !rule.IsActive {
			continue
		}
		stats := e.store.Stats(rule.ID) // read-only snapshot

		matched, err := MatchRule(rule, t.event, stats, now)
		if err != nil {
			e.store.RecordMatchFailure(rule.ID)
			e.logger.Warn().Err(err).Str("rule_id", rule.ID).Str("rule", rule.Name).
				Msg("Rule matching failed, skipping")
			continue
		}
		if !matched {
			continue
		}

		if !Eligible(rule, &t.user, stats, now) {
			e.logger.Debug().Str("rule_id", rule.ID).Str("user_id", t.user.ID).
				Msg("Matched rule not eligible")
			continue
		}

		content := ResolveResponse(rule, &t.user, now, e.fallbackName)
		e.dispatch(rule, &t.user, content)
	}
}
