// Package engine schedules alarms: it keeps the active alarm set in memory,
// polls the wall clock, rings the first matching alarm and applies the user's
// stop or snooze to the store.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"

	"github.com/Jondiko12/AlarmClock/internal/db"
)

const (
	// DefaultTick is how often the clock is compared against the alarm set.
	DefaultTick = time.Second

	// DefaultSnooze is how far a snooze pushes an alarm.
	DefaultSnooze = 5 * time.Minute
)

// Store persists alarm records.
type Store interface {
	CreateAlarm(ctx context.Context, a db.Alarm) (db.Alarm, error)
	ActiveAlarms(ctx context.Context) ([]db.Alarm, error)
	UpdateAlarmTime(ctx context.Context, id int64, t db.TimeOfDay) error
	DeactivateAlarm(ctx context.Context, id int64) error
	Close() error
}

// Player sounds alarms. Play must return promptly; a gradual fade-in runs in
// the background.
type Player interface {
	Play(path string, gradual bool) error
	Stop()
	Shutdown() error
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces time.Now as the engine's wall clock.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithTick sets the polling interval.
func WithTick(d time.Duration) Option {
	return func(e *Engine) { e.tick = d }
}

// WithSnooze sets how far a snooze moves an alarm.
func WithSnooze(d time.Duration) Option {
	return func(e *Engine) { e.snooze = d }
}

// WithGradual sets whether alarms fade in.
func WithGradual(gradual bool) Option {
	return func(e *Engine) { e.gradual = gradual }
}

// WithLogger sets the engine's logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithTriggerIDs replaces the trigger ID generator.
func WithTriggerIDs(next func() string) Option {
	return func(e *Engine) { e.newID = next }
}

type subscriber struct {
	id int
	fn func(Event)
}

// Engine owns the active alarm set and the pending trigger.
//
// mu guards alarms, pending, closed and subs, and is never held across store,
// player or subscriber calls. opMu serializes the operations that write to
// the store so that a stop and a snooze cannot both apply to one trigger; the
// polling loop never takes it.
type Engine struct {
	store  Store
	player Player
	logger *slog.Logger

	now     func() time.Time
	tick    time.Duration
	snooze  time.Duration
	gradual bool
	newID   func() string

	opMu sync.Mutex

	mu      sync.Mutex
	alarms  []db.Alarm
	pending *Trigger
	started bool
	closed  bool
	subs    []subscriber
	nextSub int

	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// New returns an engine over store and player. Call Run to load alarms and
// start polling.
func New(store Store, player Player, opts ...Option) *Engine {
	e := &Engine{
		store:   store,
		player:  player,
		logger:  slog.Default(),
		now:     time.Now,
		tick:    DefaultTick,
		snooze:  DefaultSnooze,
		gradual: true,
		newID:   newTriggerID,
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func newTriggerID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Run loads the active alarms and starts the polling loop in the background.
// The loop ends when ctx is canceled or Close is called.
func (e *Engine) Run(ctx context.Context) error {
	if err := e.Load(ctx); err != nil {
		return err
	}
	e.logger.Info("alarm engine started", "alarms", len(e.Alarms()), "tick", e.tick)

	e.wg.Add(1)
	go e.loop(ctx)
	return nil
}

// Load reads the active alarms from the store without starting the polling
// loop. It is for one-shot callers that edit alarms but never ring them; Run
// calls it itself.
func (e *Engine) Load(ctx context.Context) error {
	alarms, err := e.store.ActiveAlarms(ctx)
	if err != nil {
		return wrapError(ErrInternal, err, "load alarms")
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	switch {
	case e.closed:
		return errClosed()
	case e.started:
		return Errorf(ErrInvalid, "engine already running")
	}
	e.started = true
	e.alarms = alarms
	return nil
}

func (e *Engine) loop(ctx context.Context) {
	defer e.wg.Done()

	ticker := time.NewTicker(e.tick)
	defer ticker.Stop()

	e.check()
	for {
		select {
		case <-ctx.Done():
			return
		case <-e.done:
			return
		case <-ticker.C:
			e.check()
		}
	}
}

// check rings the first alarm matching the current minute, unless a trigger
// is already pending. Matches while pending are dropped, not queued.
func (e *Engine) check() {
	now := e.now()

	e.mu.Lock()
	if e.closed || e.pending != nil {
		e.mu.Unlock()
		return
	}
	var trig *Trigger
	for _, a := range e.alarms {
		if a.Time.Matches(now) {
			trig = &Trigger{ID: e.newID(), Alarm: a, At: now}
			break
		}
	}
	if trig == nil {
		e.mu.Unlock()
		return
	}
	e.pending = trig
	e.mu.Unlock()

	e.logger.Info("alarm triggered", "alarm", trig.Alarm.ID, "time", trig.Alarm.Time.String(), "trigger", trig.ID)
	e.emit(Event{Kind: EventTriggered, Alarm: trig.Alarm, Trigger: trig})

	if err := e.player.Play(trig.Alarm.SoundPath, e.gradual); err != nil {
		e.logger.Error("play alarm sound", "alarm", trig.Alarm.ID, "path", trig.Alarm.SoundPath, "err", err)
	}

	e.mu.Lock()
	acknowledged := e.pending != trig
	e.mu.Unlock()
	if acknowledged {
		// Stopped or snoozed while the sound was starting.
		e.player.Stop()
	}
}

// AddAlarm validates timeStr ("HH:MM", 24-hour), persists a new active alarm
// and adds it to the set.
func (e *Engine) AddAlarm(ctx context.Context, timeStr, soundPath, note string) (db.Alarm, error) {
	tod, err := db.ParseTimeOfDay(timeStr)
	if err != nil {
		return db.Alarm{}, wrapError(ErrInvalid, err, "invalid time format, use 24-hour HH:MM (00-23:00-59)")
	}

	e.opMu.Lock()
	defer e.opMu.Unlock()
	if e.isClosed() {
		return db.Alarm{}, errClosed()
	}

	a, err := e.store.CreateAlarm(ctx, db.Alarm{
		Time:      tod,
		SoundPath: strings.TrimSpace(soundPath),
		Note:      norm.NFC.String(strings.TrimSpace(note)),
	})
	if err != nil {
		e.logger.Error("save alarm", "time", tod.String(), "err", err)
		return db.Alarm{}, wrapError(ErrInternal, err, "save alarm")
	}

	e.mu.Lock()
	e.alarms = append(e.alarms, a)
	e.mu.Unlock()

	e.logger.Info("alarm added", "alarm", a.ID, "time", a.Time.String())
	e.emit(Event{Kind: EventAdded, Alarm: a})
	return a, nil
}

// DeleteAlarm deactivates the alarm with the given ID and drops it from the
// set. Deleting an alarm that is not in the set does nothing. Deleting the
// ringing alarm silences it.
func (e *Engine) DeleteAlarm(ctx context.Context, id int64) error {
	e.opMu.Lock()
	defer e.opMu.Unlock()

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return errClosed()
	}
	idx := e.indexOf(id)
	if idx < 0 {
		e.mu.Unlock()
		return nil
	}
	alarm := e.alarms[idx]
	e.mu.Unlock()

	if err := e.store.DeactivateAlarm(ctx, id); err != nil {
		e.logger.Error("delete alarm", "alarm", id, "err", err)
		return wrapError(ErrInternal, err, "delete alarm")
	}

	e.mu.Lock()
	e.remove(id)
	var trig *Trigger
	if e.pending != nil && e.pending.Alarm.ID == id {
		trig = e.pending
		e.pending = nil
	}
	e.mu.Unlock()

	if trig != nil {
		e.player.Stop()
	}

	alarm.Active = false
	e.logger.Info("alarm deleted", "alarm", id)
	e.emit(Event{Kind: EventDeleted, Alarm: alarm, Trigger: trig})
	return nil
}

// StopAlarm acknowledges the pending trigger by silencing it and
// deactivating its alarm.
func (e *Engine) StopAlarm(ctx context.Context) error {
	return e.acknowledge(ctx, "", ActionStop)
}

// Snooze acknowledges the pending trigger by silencing it and moving its
// alarm forward by the snooze duration. The alarm stays active.
func (e *Engine) Snooze(ctx context.Context) error {
	return e.acknowledge(ctx, "", ActionSnooze)
}

// Acknowledge applies action to the trigger with the given ID. It fails with
// ErrStale if that trigger is no longer the pending one.
func (e *Engine) Acknowledge(ctx context.Context, triggerID string, action Action) error {
	if triggerID == "" {
		return Errorf(ErrInvalid, "trigger id is required")
	}
	return e.acknowledge(ctx, triggerID, action)
}

// acknowledge leaves the trigger pending if the store write fails, so the
// caller can surface the error and retry. The sound stays off either way.
func (e *Engine) acknowledge(ctx context.Context, triggerID string, action Action) error {
	e.opMu.Lock()
	defer e.opMu.Unlock()

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return errClosed()
	}
	trig := e.pending
	if trig == nil {
		e.mu.Unlock()
		return Errorf(ErrNotPending, "no alarm is ringing")
	}
	if triggerID != "" && trig.ID != triggerID {
		e.mu.Unlock()
		return Errorf(ErrStale, "trigger %s is no longer ringing", triggerID)
	}
	e.mu.Unlock()

	e.player.Stop()

	alarm := trig.Alarm
	kind := EventStopped
	switch action {
	case ActionSnooze:
		next := alarm.Time.Add(e.snooze)
		if err := e.store.UpdateAlarmTime(ctx, alarm.ID, next); err != nil {
			e.logger.Error("snooze alarm", "alarm", alarm.ID, "err", err)
			return wrapError(ErrInternal, err, "snooze alarm")
		}
		alarm.Time = next
		alarm.SnoozeCount++
		kind = EventSnoozed
	default:
		if err := e.store.DeactivateAlarm(ctx, alarm.ID); err != nil {
			e.logger.Error("stop alarm", "alarm", alarm.ID, "err", err)
			return wrapError(ErrInternal, err, "stop alarm")
		}
		alarm.Active = false
	}

	e.mu.Lock()
	if kind == EventSnoozed {
		if idx := e.indexOf(alarm.ID); idx >= 0 {
			e.alarms[idx] = alarm
		}
	} else {
		e.remove(alarm.ID)
	}
	e.pending = nil
	e.mu.Unlock()

	e.logger.Info("alarm acknowledged", "alarm", alarm.ID, "action", action.String(), "time", alarm.Time.String())
	e.emit(Event{Kind: kind, Alarm: alarm, Trigger: trig})
	return nil
}

// Alarms returns a copy of the active alarm set in insertion order.
func (e *Engine) Alarms() []db.Alarm {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]db.Alarm, len(e.alarms))
	copy(out, e.alarms)
	return out
}

// Pending returns the ringing trigger, if any.
func (e *Engine) Pending() (Trigger, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.pending == nil {
		return Trigger{}, false
	}
	return *e.pending, true
}

// State reports whether a trigger is pending.
func (e *Engine) State() State {
	if _, ok := e.Pending(); ok {
		return StatePending
	}
	return StateIdle
}

// SnoozeDuration returns how far a snooze moves an alarm.
func (e *Engine) SnoozeDuration() time.Duration {
	return e.snooze
}

// Subscribe registers fn to be called after every state change and returns a
// function that removes it. Callbacks run on the goroutine that made the
// change, outside the engine's locks; they must not block and must not call
// Close.
func (e *Engine) Subscribe(fn func(Event)) (unsubscribe func()) {
	e.mu.Lock()
	id := e.nextSub
	e.nextSub++
	e.subs = append(e.subs, subscriber{id: id, fn: fn})
	e.mu.Unlock()

	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		for i, s := range e.subs {
			if s.id == id {
				e.subs = append(e.subs[:i], e.subs[i+1:]...)
				return
			}
		}
	}
}

func (e *Engine) emit(ev Event) {
	e.mu.Lock()
	fns := make([]func(Event), len(e.subs))
	for i, s := range e.subs {
		fns[i] = s.fn
	}
	e.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// Close stops the polling loop, silences a ringing alarm, and closes the
// store and player. Only the first call does anything.
func (e *Engine) Close() error {
	var err error
	e.closeOnce.Do(func() {
		err = e.teardown()
	})
	return err
}

func (e *Engine) teardown() error {
	e.opMu.Lock()
	defer e.opMu.Unlock()

	e.mu.Lock()
	e.closed = true
	trig := e.pending
	e.pending = nil
	e.mu.Unlock()

	close(e.done)
	e.wg.Wait()

	var errs []error
	if trig != nil {
		e.logger.Info("closing with alarm ringing", "alarm", trig.Alarm.ID, "trigger", trig.ID)
		e.player.Stop()
	}
	if err := e.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close store: %w", err))
	}
	if err := e.player.Shutdown(); err != nil {
		errs = append(errs, fmt.Errorf("shutdown player: %w", err))
	}
	e.logger.Info("alarm engine stopped")
	return errors.Join(errs...)
}

func (e *Engine) isClosed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

// indexOf and remove must be called with mu held.
func (e *Engine) indexOf(id int64) int {
	for i, a := range e.alarms {
		if a.ID == id {
			return i
		}
	}
	return -1
}

func (e *Engine) remove(id int64) {
	if idx := e.indexOf(id); idx >= 0 {
		e.alarms = append(e.alarms[:idx], e.alarms[idx+1:]...)
	}
}

func errClosed() error {
	return Errorf(ErrClosed, "engine is closed")
}
