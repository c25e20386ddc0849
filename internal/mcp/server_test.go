package mcp

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jondiko12/AlarmClock/internal/db"
	"github.com/Jondiko12/AlarmClock/internal/engine"
)

type fakeEngine struct {
	alarms  []db.Alarm
	pending *engine.Trigger
	calls   []string
	ackErr  error
}

func (f *fakeEngine) Alarms() []db.Alarm { return f.alarms }

func (f *fakeEngine) Pending() (engine.Trigger, bool) {
	if f.pending == nil {
		return engine.Trigger{}, false
	}
	return *f.pending, true
}

func (f *fakeEngine) AddAlarm(_ context.Context, timeStr, soundPath, note string) (db.Alarm, error) {
	tod, err := db.ParseTimeOfDay(timeStr)
	if err != nil {
		return db.Alarm{}, engine.Errorf(engine.ErrInvalid, "invalid time format, use 24-hour HH:MM (00-23:00-59)")
	}
	a := db.Alarm{ID: int64(len(f.alarms) + 1), Time: tod, SoundPath: soundPath, Note: note, Active: true}
	f.alarms = append(f.alarms, a)
	return a, nil
}

func (f *fakeEngine) DeleteAlarm(_ context.Context, id int64) error {
	f.calls = append(f.calls, "delete")
	for i, a := range f.alarms {
		if a.ID == id {
			f.alarms = append(f.alarms[:i], f.alarms[i+1:]...)
		}
	}
	return nil
}

func (f *fakeEngine) ack() error {
	if f.ackErr != nil {
		return f.ackErr
	}
	if f.pending == nil {
		return engine.Errorf(engine.ErrNotPending, "no alarm is ringing")
	}
	f.pending = nil
	return nil
}

func (f *fakeEngine) StopAlarm(context.Context) error {
	f.calls = append(f.calls, "stop")
	return f.ack()
}

func (f *fakeEngine) Snooze(context.Context) error {
	f.calls = append(f.calls, "snooze")
	return f.ack()
}

func (f *fakeEngine) Acknowledge(_ context.Context, triggerID string, action engine.Action) error {
	f.calls = append(f.calls, "ack:"+triggerID+":"+action.String())
	if f.pending != nil && f.pending.ID != triggerID {
		return engine.Errorf(engine.ErrStale, "trigger %s is no longer ringing", triggerID)
	}
	return f.ack()
}

func (f *fakeEngine) SnoozeDuration() time.Duration { return 5 * time.Minute }

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "content is %T", result.Content[0])
	return text.Text
}

func mustTime(t *testing.T, s string) db.TimeOfDay {
	t.Helper()
	tod, err := db.ParseTimeOfDay(s)
	require.NoError(t, err)
	return tod
}

func TestAddAndListAlarms(t *testing.T) {
	eng := &fakeEngine{}
	tools := NewTools(eng)
	ctx := context.Background()

	result, err := tools.AddAlarm(ctx, callRequest("add_alarm", map[string]any{
		"time": "07:30",
		"note": "standup",
	}))
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Contains(t, resultText(t, result), `"time": "07:30"`)

	result, err = tools.ListAlarms(ctx, callRequest("list_alarms", nil))
	require.NoError(t, err)

	var views []alarmView
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &views))
	require.Len(t, views, 1)
	assert.Equal(t, alarmView{ID: 1, Time: "07:30", Note: "standup"}, views[0])
}

func TestListAlarmsEmpty(t *testing.T) {
	result, err := NewTools(&fakeEngine{}).ListAlarms(context.Background(), callRequest("list_alarms", nil))
	require.NoError(t, err)
	assert.Equal(t, "[]", resultText(t, result))
}

func TestAddAlarmErrors(t *testing.T) {
	tools := NewTools(&fakeEngine{})
	ctx := context.Background()

	result, err := tools.AddAlarm(ctx, callRequest("add_alarm", map[string]any{"time": "25:00"}))
	require.NoError(t, err, "validation failures are tool errors, not protocol errors")
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "invalid: invalid time format")

	result, err = tools.AddAlarm(ctx, callRequest("add_alarm", map[string]any{}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestDeleteAlarm(t *testing.T) {
	eng := &fakeEngine{alarms: []db.Alarm{{ID: 4, Time: mustTime(t, "06:00")}}}
	tools := NewTools(eng)

	result, err := tools.DeleteAlarm(context.Background(), callRequest("delete_alarm", map[string]any{"id": float64(4)}))
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Equal(t, "alarm 4 deleted", resultText(t, result))
	assert.Empty(t, eng.alarms)

	result, err = tools.DeleteAlarm(context.Background(), callRequest("delete_alarm", map[string]any{}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestStatus(t *testing.T) {
	eng := &fakeEngine{}
	tools := NewTools(eng)
	ctx := context.Background()

	result, err := tools.Status(ctx, callRequest("alarm_status", nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"state":"idle"}`, resultText(t, result))

	at := time.Date(2024, 3, 1, 7, 30, 0, 0, time.UTC)
	eng.pending = &engine.Trigger{
		ID:    "trig-1",
		Alarm: db.Alarm{ID: 2, Time: mustTime(t, "07:30")},
		At:    at,
	}
	result, err = tools.Status(ctx, callRequest("alarm_status", nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"state": "pending",
		"trigger_id": "trig-1",
		"message": "Time to wake up!",
		"since": "2024-03-01T07:30:00Z",
		"alarm": {"id": 2, "time": "07:30", "snooze_count": 0}
	}`, resultText(t, result))
}

func TestStopAndSnooze(t *testing.T) {
	ctx := context.Background()
	ringingAt := func(eng *fakeEngine) {
		eng.pending = &engine.Trigger{ID: "trig-1", Alarm: db.Alarm{ID: 1, Time: mustTime(t, "23:58")}}
	}

	eng := &fakeEngine{}
	tools := NewTools(eng)

	result, err := tools.StopAlarm(ctx, callRequest("stop_alarm", nil))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "not_pending")

	ringingAt(eng)
	result, err = tools.SnoozeAlarm(ctx, callRequest("snooze_alarm", nil))
	require.NoError(t, err)
	assert.Equal(t, "alarm snoozed until 00:03", resultText(t, result))

	ringingAt(eng)
	result, err = tools.StopAlarm(ctx, callRequest("stop_alarm", map[string]any{"trigger_id": "old"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "stale")

	result, err = tools.StopAlarm(ctx, callRequest("stop_alarm", map[string]any{"trigger_id": "trig-1"}))
	require.NoError(t, err)
	assert.Equal(t, "alarm stopped", resultText(t, result))

	assert.Equal(t, []string{"stop", "snooze", "ack:old:stop", "ack:trig-1:stop"}, eng.calls)
}

func TestServerListsTools(t *testing.T) {
	s := NewServer(&fakeEngine{})
	ctx := context.Background()

	s.HandleMessage(ctx, json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05","capabilities":{},"clientInfo":{"name":"test","version":"1"}}}`))
	resp := s.HandleMessage(ctx, json.RawMessage(`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`))

	b, err := json.Marshal(resp)
	require.NoError(t, err)
	for _, name := range []string{"list_alarms", "add_alarm", "delete_alarm", "alarm_status", "stop_alarm", "snooze_alarm"} {
		assert.Contains(t, string(b), `"`+name+`"`)
	}
}
