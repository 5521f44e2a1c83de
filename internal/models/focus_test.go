package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPushMessage_AbsentFieldsStayNil(t *testing.T) {
	var msg PushMessage
	require.NoError(t, json.Unmarshal([]byte(`{"state":"off_task"}`), &msg))

	require.NotNil(t, msg.State)
	assert.Equal(t, FocusOffTask, *msg.State)
	assert.Nil(t, msg.Summary)
	assert.Nil(t, msg.Task)
	assert.Nil(t, msg.Timestamp)
	assert.Nil(t, msg.SessionActive)
	assert.Nil(t, msg.Error)
	assert.False(t, msg.Ends())
}

func TestPushMessage_Ends(t *testing.T) {
	var msg PushMessage
	require.NoError(t, json.Unmarshal([]byte(`{"session_active":false,"task":"x"}`), &msg))
	assert.True(t, msg.Ends())

	require.NoError(t, json.Unmarshal([]byte(`{"session_active":true}`), &msg))
	assert.False(t, msg.Ends())
}

func TestSessionSnapshot_Decode(t *testing.T) {
	body := `{
		"task_description": "Write report",
		"ends_at": "2025-03-01T10:25:00.123456+00:00",
		"seconds_remaining": 1500,
		"last_summary": null,
		"last_state": null,
		"session_active": true
	}`

	var snap SessionSnapshot
	require.NoError(t, json.Unmarshal([]byte(body), &snap))

	assert.Equal(t, "Write report", snap.TaskDescription)
	assert.Equal(t, 1500, snap.SecondsRemaining)
	assert.Nil(t, snap.LastSummary)
	assert.Nil(t, snap.LastState)
	assert.True(t, snap.SessionActive)
	require.NotNil(t, snap.EndsAt)
	assert.Equal(t, 25, snap.EndsAt.Minute())
}

func TestFocusState_Valid(t *testing.T) {
	assert.True(t, FocusOnTask.Valid())
	assert.True(t, FocusOffTask.Valid())
	assert.False(t, FocusState("distracted").Valid())
	assert.False(t, FocusState("").Valid())
}

func TestFormatSeconds(t *testing.T) {
	tests := []struct {
		name    string
		seconds *int
		want    string
	}{
		{"nil", nil, "--:--"},
		{"negative", Int(-1), "--:--"},
		{"zero", Int(0), "00:00"},
		{"full session", Int(1500), "25:00"},
		{"mixed", Int(61), "01:01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatSeconds(tt.seconds))
		})
	}
}

func TestSessionView_CloneIsDeep(t *testing.T) {
	v := NewSessionView()
	v.CurrentTask = String("a")
	v.SecondsRemaining = Int(10)

	c := v.Clone()
	*c.CurrentTask = "b"
	*c.SecondsRemaining = 3

	assert.Equal(t, "a", *v.CurrentTask)
	assert.Equal(t, 10, *v.SecondsRemaining)
}

func TestSessionView_Completed(t *testing.T) {
	v := NewSessionView()
	assert.False(t, v.Completed())

	v.SecondsRemaining = Int(0)
	assert.True(t, v.Completed())

	v.TimerRunning = true
	assert.False(t, v.Completed())
}
