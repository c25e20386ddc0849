package engine

import (
	"time"

	"github.com/Jondiko12/AlarmClock/internal/db"
)

// DefaultMessage is shown for a ringing alarm that has no note.
const DefaultMessage = "Time to wake up!"

// State is the trigger lifecycle state.
type State int

const (
	StateIdle State = iota
	StatePending
)

func (s State) String() string {
	if s == StatePending {
		return "pending"
	}
	return "idle"
}

// Trigger is an alarm that matched the clock and is waiting to be
// acknowledged.
type Trigger struct {
	ID    string
	Alarm db.Alarm
	At    time.Time
}

// Message is the prompt text for the trigger.
func (t Trigger) Message() string {
	if t.Alarm.Note != "" {
		return t.Alarm.Note
	}
	return DefaultMessage
}

// Action acknowledges a pending trigger.
type Action int

const (
	ActionStop Action = iota
	ActionSnooze
)

func (a Action) String() string {
	if a == ActionSnooze {
		return "snooze"
	}
	return "stop"
}

// EventKind names the mutation an Event reports.
type EventKind int

const (
	EventAdded EventKind = iota
	EventDeleted
	EventTriggered
	EventStopped
	EventSnoozed
)

func (k EventKind) String() string {
	switch k {
	case EventAdded:
		return "added"
	case EventDeleted:
		return "deleted"
	case EventTriggered:
		return "triggered"
	case EventStopped:
		return "stopped"
	case EventSnoozed:
		return "snoozed"
	}
	return "unknown"
}

// Event is delivered to subscribers after every state change. Alarm is the
// record after the change; Trigger is set for trigger lifecycle events.
type Event struct {
	Kind    EventKind
	Alarm   db.Alarm
	Trigger *Trigger
}
