// Package mcp exposes the alarm engine to agents as MCP tools over stdio.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/Jondiko12/AlarmClock/internal/db"
	"github.com/Jondiko12/AlarmClock/internal/engine"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Engine is the part of the alarm engine the tools drive.
type Engine interface {
	Alarms() []db.Alarm
	Pending() (engine.Trigger, bool)
	AddAlarm(ctx context.Context, timeStr, soundPath, note string) (db.Alarm, error)
	DeleteAlarm(ctx context.Context, id int64) error
	StopAlarm(ctx context.Context) error
	Snooze(ctx context.Context) error
	Acknowledge(ctx context.Context, triggerID string, action engine.Action) error
	SnoozeDuration() time.Duration
}

const instructions = `Alarm clock tools. Times are 24-hour local wall-clock "HH:MM".
Call alarm_status to see whether an alarm is ringing, then stop_alarm or snooze_alarm.
Pass the trigger_id from alarm_status so you never answer an alarm that has already
been dismissed.`

// NewServer creates an MCP server with every alarm tool registered.
func NewServer(eng Engine) *server.MCPServer {
	s := server.NewMCPServer(
		"alarmclock",
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(instructions),
	)

	t := NewTools(eng)
	s.AddTool(t.listAlarmsDefinition(), t.ListAlarms)
	s.AddTool(t.addAlarmDefinition(), t.AddAlarm)
	s.AddTool(t.deleteAlarmDefinition(), t.DeleteAlarm)
	s.AddTool(t.statusDefinition(), t.Status)
	s.AddTool(t.stopAlarmDefinition(), t.StopAlarm)
	s.AddTool(t.snoozeAlarmDefinition(), t.SnoozeAlarm)
	return s
}

// Serve runs the MCP server on stdin/stdout until the client disconnects.
func Serve(eng Engine) error {
	return server.ServeStdio(NewServer(eng))
}

// Tools holds the MCP tool handlers.
type Tools struct {
	engine Engine
}

func NewTools(eng Engine) *Tools {
	return &Tools{engine: eng}
}

type alarmView struct {
	ID          int64  `json:"id"`
	Time        string `json:"time"`
	Note        string `json:"note,omitempty"`
	SoundPath   string `json:"sound_path,omitempty"`
	SnoozeCount int    `json:"snooze_count"`
}

type statusView struct {
	State     string     `json:"state"`
	TriggerID string     `json:"trigger_id,omitempty"`
	Message   string     `json:"message,omitempty"`
	Since     string     `json:"since,omitempty"`
	Alarm     *alarmView `json:"alarm,omitempty"`
}

func toView(a db.Alarm) alarmView {
	return alarmView{
		ID:          a.ID,
		Time:        a.Time.String(),
		Note:        a.Note,
		SoundPath:   a.SoundPath,
		SnoozeCount: a.SnoozeCount,
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return mcp.NewToolResultText(string(b)), nil
}

// errorResult reports an engine failure as a tool error so the agent can
// read it and react.
func errorResult(err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(fmt.Sprintf("%s: %s", engine.ErrorCode(err), engine.ErrorDescription(err)))
}

func (t *Tools) listAlarmsDefinition() mcp.Tool {
	return mcp.NewTool("list_alarms",
		mcp.WithDescription("List active alarms in the order they were added."),
	)
}

// ListAlarms returns the active alarms.
func (t *Tools) ListAlarms(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	alarms := t.engine.Alarms()
	views := make([]alarmView, 0, len(alarms))
	for _, a := range alarms {
		views = append(views, toView(a))
	}
	return jsonResult(views)
}

func (t *Tools) addAlarmDefinition() mcp.Tool {
	return mcp.NewTool("add_alarm",
		mcp.WithDescription("Schedule a daily alarm. It rings every day at the given time until stopped or deleted."),
		mcp.WithString("time",
			mcp.Required(),
			mcp.Description(`24-hour wall-clock time "HH:MM", e.g. "07:30".`),
		),
		mcp.WithString("sound_path",
			mcp.Description("WAV or MP3 file to play. Omit for the built-in tone."),
		),
		mcp.WithString("note",
			mcp.Description("Message shown when the alarm rings."),
		),
	)
}

// AddAlarm validates and schedules a new alarm.
func (t *Tools) AddAlarm(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	timeStr, err := req.RequireString("time")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	a, err := t.engine.AddAlarm(ctx, timeStr, req.GetString("sound_path", ""), req.GetString("note", ""))
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(toView(a))
}

func (t *Tools) deleteAlarmDefinition() mcp.Tool {
	return mcp.NewTool("delete_alarm",
		mcp.WithDescription("Delete an alarm by id. Deleting a ringing alarm silences it. Unknown ids are ignored."),
		mcp.WithNumber("id",
			mcp.Required(),
			mcp.Description("Alarm id from list_alarms."),
		),
	)
}

// DeleteAlarm removes an alarm.
func (t *Tools) DeleteAlarm(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireInt("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := t.engine.DeleteAlarm(ctx, int64(id)); err != nil {
		return errorResult(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("alarm %d deleted", id)), nil
}

func (t *Tools) statusDefinition() mcp.Tool {
	return mcp.NewTool("alarm_status",
		mcp.WithDescription("Report whether an alarm is ringing and, if so, which one."),
	)
}

// Status reports the pending trigger, if any.
func (t *Tools) Status(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	trig, ok := t.engine.Pending()
	if !ok {
		return jsonResult(statusView{State: engine.StateIdle.String()})
	}
	v := toView(trig.Alarm)
	return jsonResult(statusView{
		State:     engine.StatePending.String(),
		TriggerID: trig.ID,
		Message:   trig.Message(),
		Since:     trig.At.Format(time.RFC3339),
		Alarm:     &v,
	})
}

func (t *Tools) stopAlarmDefinition() mcp.Tool {
	return mcp.NewTool("stop_alarm",
		mcp.WithDescription("Stop the ringing alarm and deactivate it."),
		mcp.WithString("trigger_id",
			mcp.Description("Trigger id from alarm_status. When set, the call fails if that alarm is no longer ringing."),
		),
	)
}

// StopAlarm dismisses the ringing alarm.
func (t *Tools) StopAlarm(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := t.acknowledge(ctx, req, engine.ActionStop); err != nil {
		return errorResult(err), nil
	}
	return mcp.NewToolResultText("alarm stopped"), nil
}

func (t *Tools) snoozeAlarmDefinition() mcp.Tool {
	return mcp.NewTool("snooze_alarm",
		mcp.WithDescription(fmt.Sprintf("Silence the ringing alarm and ring again in %s.", t.engine.SnoozeDuration())),
		mcp.WithString("trigger_id",
			mcp.Description("Trigger id from alarm_status. When set, the call fails if that alarm is no longer ringing."),
		),
	)
}

// SnoozeAlarm snoozes the ringing alarm.
func (t *Tools) SnoozeAlarm(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	trig, _ := t.engine.Pending()
	if err := t.acknowledge(ctx, req, engine.ActionSnooze); err != nil {
		return errorResult(err), nil
	}
	next := trig.Alarm.Time.Add(t.engine.SnoozeDuration())
	return mcp.NewToolResultText("alarm snoozed until " + next.String()), nil
}

func (t *Tools) acknowledge(ctx context.Context, req mcp.CallToolRequest, action engine.Action) error {
	if id := req.GetString("trigger_id", ""); id != "" {
		return t.engine.Acknowledge(ctx, id, action)
	}
	if action == engine.ActionSnooze {
		return t.engine.Snooze(ctx)
	}
	return t.engine.StopAlarm(ctx)
}
