package focus

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/focusagent/focusagent/internal/models"
)

// Ticket records how many signals had been applied when a REST request was
// issued. A response is judged against whatever was applied since.
type Ticket uint64

// Change describes the side effects a merge asks the owner to perform
type Change struct {
	// FocusSignaled is set whenever the signal carried a focus state, even
	// if it equals the current one.
	FocusSignaled bool
	Focus         models.FocusState
	SessionEnded  bool
	// Seeded is set when a snapshot supplied the remaining time.
	Seeded    bool
	Remaining int
	// Ignored is set when a snapshot was dropped as out of date.
	Ignored bool
}

// SessionReconciler merges push messages and REST snapshots into the one
// SessionView the rest of the client reads. Not safe for concurrent use.
type SessionReconciler struct {
	view   models.SessionView
	seq    uint64 // pushes, snapshots and local ends applied so far
	endSeq uint64 // seq at the most recent pushed or local session end
	log    zerolog.Logger
}

// NewSessionReconciler starts from the idle, on-task view
func NewSessionReconciler(log zerolog.Logger) *SessionReconciler {
	return &SessionReconciler{
		view: models.NewSessionView(),
		log:  log,
	}
}

// View returns a copy of the current view
func (r *SessionReconciler) View() models.SessionView {
	return r.view.Clone()
}

// Ticket stamps a REST request about to be issued
func (r *SessionReconciler) Ticket() Ticket {
	return Ticket(r.seq)
}

// ApplyPush merges a partial push message. Rules, in order: session end
// wins, then state, task, summary (clears error), error, timestamp.
// Absent fields are left alone.
func (r *SessionReconciler) ApplyPush(msg models.PushMessage) Change {
	r.seq++
	var ch Change

	if msg.Ends() {
		r.clearSession()
		r.endSeq = r.seq
		ch.SessionEnded = true
	}

	if msg.State != nil {
		if msg.State.Valid() {
			r.view.FocusState = *msg.State
			ch.FocusSignaled = true
			ch.Focus = *msg.State
		} else {
			r.log.Debug().Str("state", string(*msg.State)).Msg("ignoring unknown focus state")
		}
	}

	if !ch.SessionEnded && present(msg.Task) {
		r.view.CurrentTask = models.String(*msg.Task)
	}

	if present(msg.Summary) {
		r.view.LastSummary = models.String(*msg.Summary)
		r.view.LastError = nil
	}

	if present(msg.Error) {
		r.view.LastError = models.String(*msg.Error)
	}

	if present(msg.Timestamp) {
		if ts, ok := parseTimestamp(*msg.Timestamp); ok {
			r.view.LastUpdatedAt = &ts
		} else {
			r.log.Debug().Str("timestamp", *msg.Timestamp).Msg("ignoring unparseable timestamp")
		}
	}

	return ch
}

// ApplySnapshot merges a snapshot fetched with nothing applied in between
func (r *SessionReconciler) ApplySnapshot(s models.SessionSnapshot) Change {
	return r.ApplySnapshotSince(s, r.Ticket())
}

// ApplySnapshotSince merges a snapshot whose request was issued at t.
// If the session ended after t the snapshot is dropped. If anything else
// was applied after t it wins: the snapshot only seeds the countdown and
// fills fields that are still empty.
func (r *SessionReconciler) ApplySnapshotSince(s models.SessionSnapshot, t Ticket) Change {
	return r.merge(s, t, false)
}

// ApplyCreatedSince merges the reply to a session start issued at t. The
// backend created that session after any end seen so far, so a later end
// signal never drops it. Signals applied after t still win.
func (r *SessionReconciler) ApplyCreatedSince(s models.SessionSnapshot, t Ticket) Change {
	return r.merge(s, t, true)
}

func (r *SessionReconciler) merge(s models.SessionSnapshot, t Ticket, created bool) Change {
	var ch Change
	if !created && uint64(t) < r.endSeq {
		r.log.Debug().Uint64("ticket", uint64(t)).Uint64("end_seq", r.endSeq).Msg("dropping snapshot from an ended session")
		ch.Ignored = true
		return ch
	}
	stale := uint64(t) < r.seq
	r.seq++

	if !s.SessionActive {
		r.clearSession()
		ch.SessionEnded = true
	}

	if !stale && s.LastState != nil && s.LastState.Valid() {
		r.view.FocusState = *s.LastState
		ch.FocusSignaled = true
		ch.Focus = *s.LastState
	}

	if !ch.SessionEnded && s.TaskDescription != "" && (!stale || r.view.CurrentTask == nil) {
		r.view.CurrentTask = models.String(s.TaskDescription)
	}

	if present(s.LastSummary) && (!stale || r.view.LastSummary == nil) {
		r.view.LastSummary = models.String(*s.LastSummary)
		if !stale {
			r.view.LastError = nil
		}
	}

	if s.SessionActive {
		remaining := s.SecondsRemaining
		if remaining < 0 {
			remaining = 0
		}
		r.view.SecondsRemaining = models.Int(remaining)
		r.view.TimerRunning = remaining > 0
		ch.Seeded = true
		ch.Remaining = remaining
	}

	return ch
}

// ApplyNoSession handles a fetch that found no active session. Anything
// applied after t is newer and wins.
func (r *SessionReconciler) ApplyNoSession(t Ticket) Change {
	if uint64(t) < r.seq {
		return Change{Ignored: true}
	}
	r.seq++
	r.clearSession()
	return Change{SessionEnded: true}
}

// EndSession clears everything tied to the session when the user ends it
// locally. In-flight snapshots issued before this point are dropped.
func (r *SessionReconciler) EndSession() Change {
	r.seq++
	r.endSeq = r.seq
	r.clearSession()
	r.view.LastSummary = nil
	r.view.LastError = nil
	r.view.LastUpdatedAt = nil
	return Change{SessionEnded: true}
}

// SetRemaining records a countdown tick. Zero or below stops the timer.
func (r *SessionReconciler) SetRemaining(seconds int, running bool) {
	if r.view.SecondsRemaining == nil {
		return
	}
	if seconds <= 0 {
		seconds = 0
		running = false
	}
	r.view.SecondsRemaining = models.Int(seconds)
	r.view.TimerRunning = running
}

func (r *SessionReconciler) clearSession() {
	r.view.CurrentTask = nil
	r.view.SecondsRemaining = nil
	r.view.TimerRunning = false
}

func present(s *string) bool {
	return s != nil && *s != ""
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
}

func parseTimestamp(raw string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}
