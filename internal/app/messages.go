package app

import (
	"time"

	"github.com/Jondiko12/AlarmClock/internal/db"
	"github.com/Jondiko12/AlarmClock/internal/engine"
)

// EngineEventMsg wraps a state change reported by the alarm engine.
type EngineEventMsg struct {
	Event engine.Event
}

// ClockTickMsg fires once a second and drives the clock, timer and
// stopwatch.
type ClockTickMsg struct {
	Time time.Time
}

// AlarmAddedMsg carries the result of adding an alarm.
type AlarmAddedMsg struct {
	Alarm db.Alarm
	Err   error
}

// AlarmDeletedMsg carries the result of deleting an alarm.
type AlarmDeletedMsg struct {
	ID  int64
	Err error
}

// AcknowledgedMsg carries the result of stopping or snoozing a trigger.
type AcknowledgedMsg struct {
	TriggerID string
	Action    engine.Action
	Err       error
}

// ThemeLoadedMsg carries the saved theme name, empty if none was saved.
type ThemeLoadedMsg struct {
	Name string
}

// ThemeSavedMsg reports a failure to persist the theme.
type ThemeSavedMsg struct {
	Err error
}

// ClearTransientErrorMsg clears a transient error after a timeout.
type ClearTransientErrorMsg struct{}
