package mockserver

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/focusagent/focusagent/internal/clock"
	"github.com/focusagent/focusagent/internal/models"
)

var epoch = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func newTestServer(opts ...Option) (*Server, *clock.Fake) {
	clk := clock.NewFake(epoch)
	opts = append([]Option{WithClock(clk), WithLogger(zerolog.Nop())}, opts...)
	return New(opts...), clk
}

func do(t *testing.T, app *fiber.App, method, path, body string) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func TestServer_Ping(t *testing.T) {
	s, _ := newTestServer()

	status, body := do(t, s.App(), "GET", "/ping", "")
	assert.Equal(t, 200, status)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))
}

func TestServer_SessionLifecycle(t *testing.T) {
	s, clk := newTestServer()
	app := s.App()

	status, body := do(t, app, "GET", "/session", "")
	assert.Equal(t, 404, status)
	assert.JSONEq(t, `{"detail":"No active session."}`, string(body))

	status, body = do(t, app, "POST", "/session", `{"task_description":"  Write report ","duration_minutes":25}`)
	require.Equal(t, 200, status)

	var snap models.SessionSnapshot
	require.NoError(t, json.Unmarshal(body, &snap))
	assert.Equal(t, "Write report", snap.TaskDescription)
	assert.Equal(t, 1500, snap.SecondsRemaining)
	assert.True(t, snap.SessionActive)
	require.NotNil(t, snap.EndsAt)
	assert.True(t, snap.EndsAt.Equal(epoch.Add(25*time.Minute)))

	clk.Advance(90 * time.Second)
	status, body = do(t, app, "GET", "/session", "")
	require.Equal(t, 200, status)
	require.NoError(t, json.Unmarshal(body, &snap))
	assert.Equal(t, 1410, snap.SecondsRemaining)

	status, body = do(t, app, "DELETE", "/session", "")
	assert.Equal(t, 200, status)
	assert.JSONEq(t, `{"status":"ended"}`, string(body))
	assert.Nil(t, s.Store().Get())

	status, _ = do(t, app, "DELETE", "/session", "")
	assert.Equal(t, 200, status, "ending twice is harmless")
}

func TestServer_StartSessionValidation(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
		detail string
	}{
		{"empty task", `{"task_description":"   ","duration_minutes":25}`, 400, "Task description cannot be empty."},
		{"zero minutes", `{"task_description":"x","duration_minutes":0}`, 400, "Duration must be between 1 and 480 minutes."},
		{"too long", `{"task_description":"x","duration_minutes":481}`, 400, "Duration must be between 1 and 480 minutes."},
		{"malformed", `{"task_description":`, 422, "Invalid request body."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestServer()
			status, body := do(t, s.App(), "POST", "/session", tt.body)
			assert.Equal(t, tt.status, status)

			var resp map[string]string
			require.NoError(t, json.Unmarshal(body, &resp))
			assert.Equal(t, tt.detail, resp["detail"])
			assert.Nil(t, s.Store().Get())
		})
	}
}

func TestServer_ExpiredSessionIsGone(t *testing.T) {
	s, clk := newTestServer()

	status, _ := do(t, s.App(), "POST", "/session", `{"task_description":"Read","duration_minutes":1}`)
	require.Equal(t, 200, status)

	clk.Advance(time.Minute)
	status, _ = do(t, s.App(), "GET", "/session", "")
	assert.Equal(t, 404, status)
	assert.Nil(t, s.Store().Get())
}

func TestServer_Analyze(t *testing.T) {
	s, _ := newTestServer(WithAnalyzer(NewScriptedAnalyzer(
		models.AnalyzeResult{Summary: "Reading docs", State: models.FocusOnTask},
	)))

	status, body := do(t, s.App(), "POST", "/analyze", `{"task_description":"Read"}`)
	require.Equal(t, 200, status)
	assert.JSONEq(t, `{"summary":"Reading docs","state":"on_task"}`, string(body))
}

func TestServer_AnalyzeErrors(t *testing.T) {
	capture, _ := newTestServer(WithAnalyzer(NewScriptedAnalyzer()))
	status, body := do(t, capture.App(), "POST", "/analyze", `{"task_description":"Read"}`)
	assert.Equal(t, 503, status)
	assert.JSONEq(t, `{"detail":"No screen capture available."}`, string(body))

	broken, _ := newTestServer(WithAnalyzer(AnalyzerFunc(func(ctx context.Context, task string) (models.AnalyzeResult, error) {
		return models.AnalyzeResult{}, assert.AnError
	})))
	status, body = do(t, broken.App(), "POST", "/analyze", `{"task_description":"Read"}`)
	assert.Equal(t, 500, status)
	assert.JSONEq(t, `{"detail":"Failed to analyze the screen."}`, string(body))
}

func TestServer_WebSocketRequiresUpgrade(t *testing.T) {
	s, _ := newTestServer()
	status, _ := do(t, s.App(), "GET", "/ws", "")
	assert.Equal(t, fiber.StatusUpgradeRequired, status)
}

func TestServer_AnalyzeOnceUpdatesSession(t *testing.T) {
	s, clk := newTestServer(WithAnalyzer(NewScriptedAnalyzer(
		models.AnalyzeResult{Summary: "Watching videos", State: models.FocusOffTask},
	)))

	s.AnalyzeOnce(context.Background())
	assert.Nil(t, s.Store().Get(), "nothing to analyze without a session")

	s.Store().Set("Write report", 25)
	clk.Advance(10 * time.Second)
	s.AnalyzeOnce(context.Background())

	sess := s.Store().Get()
	require.NotNil(t, sess)
	require.NotNil(t, sess.LastState)
	assert.Equal(t, models.FocusOffTask, *sess.LastState)
	assert.Equal(t, "Watching videos", *sess.LastSummary)
	assert.True(t, sess.LastUpdated.Equal(epoch.Add(10*time.Second)))

	snap := s.Store().Snapshot(sess)
	assert.Equal(t, models.FocusOffTask, *snap.LastState)
}

func TestServer_AnalyzeOnceExpiresSession(t *testing.T) {
	s, clk := newTestServer()

	s.Store().Set("Write report", 1)
	clk.Advance(2 * time.Minute)
	s.AnalyzeOnce(context.Background())

	assert.Nil(t, s.Store().Get())
}

func TestScriptedAnalyzer_Wraps(t *testing.T) {
	a := NewScriptedAnalyzer(
		models.AnalyzeResult{Summary: "a", State: models.FocusOnTask},
		models.AnalyzeResult{Summary: "b", State: models.FocusOffTask},
	)
	ctx := context.Background()

	var got []string
	for i := 0; i < 3; i++ {
		r, err := a.Analyze(ctx, "task")
		require.NoError(t, err)
		got = append(got, r.Summary)
	}
	assert.Equal(t, []string{"a", "b", "a"}, got)
}

func TestServer_SwaggerDocs(t *testing.T) {
	s, _ := newTestServer()

	status, body := do(t, s.App(), "GET", "/swagger/doc.json", "")
	require.Equal(t, 200, status)
	assert.Contains(t, string(body), "FocusAgent mock backend")
	for _, path := range []string{`"/ping"`, `"/session"`, `"/analyze"`, `"/ws"`} {
		assert.Contains(t, string(body), path)
	}

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &doc))
	assert.Equal(t, "2.0", doc["swagger"])
}
