// Package app is the alarm clock's terminal UI.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Jondiko12/AlarmClock/internal/db"
	"github.com/Jondiko12/AlarmClock/internal/engine"
	"github.com/Jondiko12/AlarmClock/internal/ui"
)

// SettingTheme is the settings key holding the theme name.
const SettingTheme = "theme"

const (
	eventBuffer  = 64
	storeTimeout = 5 * time.Second
)

// Engine is the part of the alarm engine the TUI drives.
type Engine interface {
	Alarms() []db.Alarm
	Pending() (engine.Trigger, bool)
	AddAlarm(ctx context.Context, timeStr, soundPath, note string) (db.Alarm, error)
	DeleteAlarm(ctx context.Context, id int64) error
	Acknowledge(ctx context.Context, triggerID string, action engine.Action) error
	Subscribe(fn func(engine.Event)) (unsubscribe func())
	SnoozeDuration() time.Duration
}

// Settings persists UI preferences.
type Settings interface {
	Setting(ctx context.Context, key string) (string, bool, error)
	SetSetting(ctx context.Context, key, value string) error
}

// Sounder plays the timer's completion sound.
type Sounder interface {
	Play(path string, gradual bool) error
	Stop()
}

// Tab is a top-level view.
type Tab int

const (
	TabAlarms Tab = iota
	TabTimer
	TabStopwatch
)

var tabNames = []string{"Alarms", "Timer", "Stopwatch"}

func (t Tab) String() string { return tabNames[t] }

// Option configures a Model.
type Option func(*Model)

// WithSettings persists the theme in s.
func WithSettings(s Settings) Option {
	return func(m *Model) { m.settings = s }
}

// WithSounder plays path through s when the timer finishes.
func WithSounder(s Sounder, path string) Option {
	return func(m *Model) {
		m.sounder = s
		m.timerSound = path
	}
}

// WithLogger sets the model's logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Model) { m.logger = l }
}

// Model is the root bubbletea model for the alarm clock TUI.
type Model struct {
	engine     Engine
	settings   Settings
	sounder    Sounder
	timerSound string
	logger     *slog.Logger

	events      chan engine.Event
	unsubscribe func()

	// UI state
	tab    Tab
	width  int
	height int
	now    time.Time
	theme  ui.Theme

	// Alarms
	alarms   []db.Alarm
	selected int
	pending  *engine.Trigger
	acking   bool
	formOpen bool
	form     inputForm

	timer     countdown
	stopwatch stopwatch

	// Errors
	errorMessage   string
	errorTransient bool

	statusText string
}

// New creates a Model over eng and subscribes to its events.
func New(eng Engine, opts ...Option) Model {
	m := Model{
		engine: eng,
		logger: slog.Default(),
		events: make(chan engine.Event, eventBuffer),
		now:    time.Now(),
		theme:  ui.Light(),
		form: newInputForm(
			formField{label: "Time", placeholder: "HH:MM", charLimit: 5},
			formField{label: "Sound", placeholder: "built-in tone"},
			formField{label: "Note", placeholder: engine.DefaultMessage, charLimit: 120},
		),
		timer: newCountdown(),
	}
	for _, opt := range opts {
		opt(&m)
	}

	events, logger := m.events, m.logger
	m.unsubscribe = eng.Subscribe(func(ev engine.Event) {
		select {
		case events <- ev:
		default:
			// The clock tick resyncs from the engine, so nothing is lost.
			logger.Warn("ui event buffer full, dropping event", "kind", ev.Kind.String())
		}
	})
	m.sync()
	m.timer.form.focusFirst()
	return m
}

// Init starts the clock, the engine event reader and the theme load.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		waitForEventCmd(m.events),
		clockTickCmd(),
		loadThemeCmd(m.settings),
	)
}

// waitForEventCmd reads the next engine event.
func waitForEventCmd(events <-chan engine.Event) tea.Cmd {
	return func() tea.Msg {
		return EngineEventMsg{Event: <-events}
	}
}

// clockTickCmd fires on the next whole second.
func clockTickCmd() tea.Cmd {
	return tea.Every(time.Second, func(t time.Time) tea.Msg {
		return ClockTickMsg{Time: t}
	})
}

// clearTransientErrorCmd fires after a delay to clear transient errors.
func clearTransientErrorCmd() tea.Cmd {
	return tea.Tick(5*time.Second, func(time.Time) tea.Msg {
		return ClearTransientErrorMsg{}
	})
}

func addAlarmCmd(eng Engine, timeStr, soundPath, note string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		a, err := eng.AddAlarm(ctx, timeStr, soundPath, note)
		return AlarmAddedMsg{Alarm: a, Err: err}
	}
}

func deleteAlarmCmd(eng Engine, id int64) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		return AlarmDeletedMsg{ID: id, Err: eng.DeleteAlarm(ctx, id)}
	}
}

func acknowledgeCmd(eng Engine, triggerID string, action engine.Action) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		err := eng.Acknowledge(ctx, triggerID, action)
		return AcknowledgedMsg{TriggerID: triggerID, Action: action, Err: err}
	}
}

// loadThemeCmd reads the saved theme.
func loadThemeCmd(s Settings) tea.Cmd {
	if s == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		name, _, err := s.Setting(ctx, SettingTheme)
		if err != nil {
			return ThemeLoadedMsg{} // keep the default theme
		}
		return ThemeLoadedMsg{Name: name}
	}
}

func saveThemeCmd(s Settings, name string) tea.Cmd {
	if s == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		return ThemeSavedMsg{Err: s.SetSetting(ctx, SettingTheme, name)}
	}
}

func playCmd(s Sounder, path string) tea.Cmd {
	return func() tea.Msg {
		_ = s.Play(path, false)
		return nil
	}
}

func stopSoundCmd(s Sounder) tea.Cmd {
	return func() tea.Msg {
		s.Stop()
		return nil
	}
}

// sync copies the alarm set and pending trigger from the engine.
func (m *Model) sync() {
	m.alarms = m.engine.Alarms()
	if m.selected >= len(m.alarms) {
		m.selected = max(0, len(m.alarms)-1)
	}
	if trig, ok := m.engine.Pending(); ok {
		m.pending = &trig
	} else {
		m.pending = nil
	}
}

// Update processes messages and returns the updated model and any commands.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case EngineEventMsg:
		m.handleEvent(msg.Event)
		return m, waitForEventCmd(m.events)

	case ClockTickMsg:
		m.now = msg.Time
		m.sync()
		m.stopwatch.tick()
		var cmd tea.Cmd
		if m.timer.tick() {
			cmd = m.timerFinished()
		}
		return m, tea.Batch(clockTickCmd(), cmd)

	case AlarmAddedMsg:
		if msg.Err != nil {
			m.errorMessage = "Could not set alarm: " + engine.ErrorDescription(msg.Err)
			m.errorTransient = false
			return m, nil
		}
		m.closeForm()
		m.errorMessage = ""
		m.sync()
		for i, a := range m.alarms {
			if a.ID == msg.Alarm.ID {
				m.selected = i
			}
		}
		return m, nil

	case AlarmDeletedMsg:
		if msg.Err != nil {
			return m.transientError("Could not delete alarm: " + engine.ErrorDescription(msg.Err))
		}
		m.sync()
		return m, nil

	case AcknowledgedMsg:
		m.acking = false
		if msg.Err != nil {
			switch engine.ErrorCode(msg.Err) {
			case engine.ErrStale, engine.ErrNotPending:
				// Answered elsewhere; the prompt is already gone.
			default:
				m.sync()
				return m.transientError(fmt.Sprintf("Could not %s alarm: %s", msg.Action, engine.ErrorDescription(msg.Err)))
			}
		}
		m.sync()
		return m, nil

	case ThemeLoadedMsg:
		if msg.Name != "" {
			m.theme = ui.ThemeByName(msg.Name)
		}
		return m, nil

	case ThemeSavedMsg:
		if msg.Err != nil {
			m.logger.Warn("save theme", "err", msg.Err)
		}
		return m, nil

	case ClearTransientErrorMsg:
		if m.errorTransient {
			m.errorMessage = ""
			m.errorTransient = false
		}
		return m, nil
	}

	// Cursor blink and other input messages.
	if m.formOpen {
		return m, m.form.update(msg)
	}
	if m.timer.state == countdownIdle {
		return m, m.timer.form.update(msg)
	}
	return m, nil
}

// handleEvent refreshes from the engine and reports what changed.
func (m *Model) handleEvent(ev engine.Event) {
	m.sync()
	switch ev.Kind {
	case engine.EventAdded:
		m.statusText = "Alarm set for " + ev.Alarm.Time.String()
	case engine.EventDeleted:
		m.statusText = "Alarm " + ev.Alarm.Time.String() + " deleted"
	case engine.EventTriggered:
		m.statusText = "Alarm ringing: " + ev.Alarm.Time.String()
	case engine.EventStopped:
		m.statusText = "Alarm " + ev.Alarm.Time.String() + " stopped"
	case engine.EventSnoozed:
		m.statusText = "Snoozed until " + ev.Alarm.Time.String()
	}
}

func (m Model) transientError(text string) (tea.Model, tea.Cmd) {
	m.errorMessage = text
	m.errorTransient = true
	return m, clearTransientErrorCmd()
}

// timerFinished surfaces the finished timer and starts its sound, unless an
// alarm already owns the speaker.
func (m *Model) timerFinished() tea.Cmd {
	m.tab = TabTimer
	m.statusText = "Timer Complete"
	if m.sounder == nil || m.pending != nil {
		return nil
	}
	return playCmd(m.sounder, m.timerSound)
}

func (m *Model) openForm() tea.Cmd {
	m.formOpen = true
	m.form.reset()
	return m.form.focusFirst()
}

func (m *Model) closeForm() {
	m.formOpen = false
	m.form.blur()
	m.form.reset()
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
	return m, tea.Quit
}

// handleKey processes key presses. A ringing alarm takes every key, then a
// finished timer, then an open form.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == KeyCtrlC {
		return m.quit()
	}

	if m.pending != nil {
		return m.handlePromptKey(key)
	}

	if m.timer.state == countdownDone {
		m.timer.acknowledge()
		m.statusText = ""
		if m.sounder != nil {
			return m, stopSoundCmd(m.sounder)
		}
		return m, nil
	}

	if m.formOpen {
		return m.handleFormKey(msg)
	}

	switch key {
	case KeyQuit, KeyQuitUpper:
		return m.quit()

	case KeyTab:
		m.tab = (m.tab + 1) % Tab(len(tabNames))
		return m, nil

	case KeyShiftTab:
		m.tab = (m.tab + Tab(len(tabNames)) - 1) % Tab(len(tabNames))
		return m, nil

	case KeyTheme:
		m.theme = m.theme.Toggle()
		return m, saveThemeCmd(m.settings, m.theme.Name)
	}

	switch m.tab {
	case TabAlarms:
		return m.handleAlarmsKey(key)
	case TabTimer:
		return m.handleTimerKey(msg)
	case TabStopwatch:
		return m.handleStopwatchKey(key)
	}
	return m, nil
}

func (m Model) handlePromptKey(key string) (tea.Model, tea.Cmd) {
	if m.acking {
		return m, nil
	}
	var action engine.Action
	switch key {
	case KeySnooze:
		action = engine.ActionSnooze
	case KeyStop, KeyEnter:
		action = engine.ActionStop
	default:
		return m, nil
	}
	m.acking = true
	return m, acknowledgeCmd(m.engine, m.pending.ID, action)
}

func (m Model) handleAlarmsKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case KeyNew:
		return m, m.openForm()

	case KeyJ, KeyDown:
		if m.selected < len(m.alarms)-1 {
			m.selected++
		}

	case KeyK, KeyUp:
		if m.selected > 0 {
			m.selected--
		}

	case KeyDelete:
		if m.selected >= len(m.alarms) {
			return m.transientError("Select an alarm to delete.")
		}
		return m, deleteAlarmCmd(m.engine, m.alarms[m.selected].ID)
	}
	return m, nil
}

func (m Model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case KeyEsc:
		m.closeForm()
		m.errorMessage = ""
		return m, nil

	case KeyEnter:
		return m, addAlarmCmd(m.engine, m.form.value(0), m.form.value(1), m.form.value(2))

	case KeyTab, KeyDown:
		return m, m.form.next()

	case KeyShiftTab, KeyUp:
		return m, m.form.prev()
	}
	return m, m.form.update(msg)
}

func (m Model) handleTimerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if m.timer.state == countdownIdle {
		switch {
		case key == KeyEnter || key == KeySpace:
			if err := m.timer.start(); err != nil {
				return m.transientError(err.Error())
			}
			m.statusText = ""
			return m, nil
		case key == KeyLeft:
			return m, m.timer.form.prev()
		case key == KeyRight:
			return m, m.timer.form.next()
		case key == KeyBackspace || isDigit(msg):
			return m, m.timer.form.update(msg)
		}
		return m, nil
	}

	switch key {
	case KeyEnter, KeySpace:
		m.timer.toggle()
	case KeyReset:
		m.timer.reset()
		return m, m.timer.form.focusFirst()
	}
	return m, nil
}

func (m Model) handleStopwatchKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case KeyEnter, KeySpace:
		m.stopwatch.toggle()
	case KeyReset:
		m.stopwatch.reset()
	}
	return m, nil
}

func isDigit(msg tea.KeyMsg) bool {
	if msg.Type != tea.KeyRunes || len(msg.Runes) != 1 {
		return false
	}
	r := msg.Runes[0]
	return r >= '0' && r <= '9'
}
