package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "nested", "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })
	return j
}

// fixedClock returns a clock that advances one second per call.
func fixedClock(start time.Time) func() time.Time {
	now := start
	return func() time.Time {
		now = now.Add(time.Second)
		return now
	}
}

func TestOpen_CreatesSchema(t *testing.T) {
	j := openTestJournal(t)

	var version int
	err := j.db.QueryRow(`SELECT version FROM schema_version`).Scan(&version)

	require.NoError(t, err)
	assert.Equal(t, currentSchemaVersion, version)
}

func TestSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	j := openTestJournal(t)
	j.now = fixedClock(time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC))

	id, err := j.StartSession(ctx, Session{
		PlayerSession: 3,
		Source:        "http://example.com/a.mp4",
		MimeType:      "video/mp4",
		MediaType:     "video",
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	require.NoError(t, j.RecordTransition(ctx, id, Transition{State: "BUFFERING", Position: 0, HasPosition: true}))
	require.NoError(t, j.RecordTransition(ctx, id, Transition{State: "PLAYING", Position: 2 * time.Second, HasPosition: true}))
	require.NoError(t, j.EndSession(ctx, id, "PLAYING", ""))

	sessions, err := j.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	s := sessions[0]
	assert.Equal(t, id, s.ID)
	assert.Equal(t, uint64(3), s.PlayerSession)
	assert.Equal(t, "http://example.com/a.mp4", s.Source)
	assert.Equal(t, "video/mp4", s.MimeType)
	assert.Equal(t, "video", s.MediaType)
	assert.Equal(t, "PLAYING", s.FinalState)
	assert.True(t, s.HasPosition)
	assert.Equal(t, 2*time.Second, s.LastPosition)
	assert.False(t, s.EndedAt.IsZero())
	assert.Equal(t, 3*time.Second, s.Duration())
	assert.Empty(t, s.Error)

	transitions, err := j.Transitions(ctx, id)
	require.NoError(t, err)
	require.Len(t, transitions, 2)
	assert.Equal(t, "BUFFERING", transitions[0].State)
	assert.Equal(t, "PLAYING", transitions[1].State)
	assert.Equal(t, 2*time.Second, transitions[1].Position)
}

func TestRecordTransition_WithoutPositionKeepsLast(t *testing.T) {
	ctx := context.Background()
	j := openTestJournal(t)
	id, err := j.StartSession(ctx, Session{Source: "a.mp3"})
	require.NoError(t, err)

	require.NoError(t, j.RecordTransition(ctx, id, Transition{State: "PAUSED", Position: 9 * time.Second, HasPosition: true}))
	require.NoError(t, j.RecordTransition(ctx, id, Transition{State: "STOPPED"}))

	pos, ok, err := j.LastPosition(ctx, "a.mp3")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 9*time.Second, pos)

	transitions, err := j.Transitions(ctx, id)
	require.NoError(t, err)
	assert.False(t, transitions[1].HasPosition)
}

func TestEndSession_RecordsError(t *testing.T) {
	ctx := context.Background()
	j := openTestJournal(t)
	id, err := j.StartSession(ctx, Session{Source: "broken.mp4"})
	require.NoError(t, err)

	require.NoError(t, j.EndSession(ctx, id, "ERROR", "source element emitted error"))
	// A second end does not overwrite the first
	require.NoError(t, j.EndSession(ctx, id, "STOPPED", ""))

	sessions, err := j.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "ERROR", sessions[0].FinalState)
	assert.Equal(t, "source element emitted error", sessions[0].Error)
}

func TestSavePosition_FlushPersists(t *testing.T) {
	ctx := context.Background()
	j := openTestJournal(t)
	id, err := j.StartSession(ctx, Session{Source: "a.mp3"})
	require.NoError(t, err)

	j.SavePosition(id, 10*time.Second)
	j.SavePosition(id, 11*time.Second)
	j.Flush()

	pos, ok, err := j.LastPosition(ctx, "a.mp3")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 11*time.Second, pos)
}

func TestSavePosition_OtherSessionFlushesPrevious(t *testing.T) {
	ctx := context.Background()
	j := openTestJournal(t)
	first, err := j.StartSession(ctx, Session{Source: "a.mp3"})
	require.NoError(t, err)
	second, err := j.StartSession(ctx, Session{Source: "b.mp3"})
	require.NoError(t, err)

	j.SavePosition(first, 4*time.Second)
	j.SavePosition(second, 7*time.Second)
	j.Flush()

	pos, ok, err := j.LastPosition(ctx, "a.mp3")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 4*time.Second, pos)

	pos, ok, err = j.LastPosition(ctx, "b.mp3")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 7*time.Second, pos)
}

func TestClose_FlushesPendingPosition(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "journal.db")
	j, err := Open(path)
	require.NoError(t, err)
	id, err := j.StartSession(ctx, Session{Source: "a.mp3"})
	require.NoError(t, err)

	j.SavePosition(id, 42*time.Second)
	require.NoError(t, j.Close())

	j, err = Open(path)
	require.NoError(t, err)
	defer j.Close()
	pos, ok, err := j.LastPosition(ctx, "a.mp3")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 42*time.Second, pos)
}

func TestLastPosition(t *testing.T) {
	ctx := context.Background()
	j := openTestJournal(t)
	j.now = fixedClock(time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC))

	_, ok, err := j.LastPosition(ctx, "unknown.mp3")
	require.NoError(t, err)
	assert.False(t, ok, "never played")

	old, err := j.StartSession(ctx, Session{Source: "a.mp3"})
	require.NoError(t, err)
	require.NoError(t, j.RecordTransition(ctx, old, Transition{State: "PAUSED", Position: 5 * time.Second, HasPosition: true}))

	latest, err := j.StartSession(ctx, Session{Source: "a.mp3"})
	require.NoError(t, err)
	require.NoError(t, j.RecordTransition(ctx, latest, Transition{State: "PAUSED", Position: 30 * time.Second, HasPosition: true}))

	pos, ok, err := j.LastPosition(ctx, "a.mp3")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 30*time.Second, pos, "latest session wins")

	require.NoError(t, j.RecordTransition(ctx, latest, Transition{State: "COMPLETE", Position: 60 * time.Second, HasPosition: true}))

	_, ok, err = j.LastPosition(ctx, "a.mp3")
	require.NoError(t, err)
	assert.False(t, ok, "completed sources start over")
}

func TestRecent_NewestFirstWithLimit(t *testing.T) {
	ctx := context.Background()
	j := openTestJournal(t)
	j.now = fixedClock(time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC))

	for _, src := range []string{"a.mp3", "b.mp3", "c.mp3"} {
		_, err := j.StartSession(ctx, Session{Source: src})
		require.NoError(t, err)
	}

	sessions, err := j.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "c.mp3", sessions[0].Source)
	assert.Equal(t, "b.mp3", sessions[1].Source)
	assert.True(t, sessions[0].EndedAt.IsZero())
	assert.Zero(t, sessions[0].Duration())
	assert.Equal(t, "STOPPED", sessions[0].FinalState)
}

func TestResolveID(t *testing.T) {
	ctx := context.Background()
	j := openTestJournal(t)

	id, err := j.StartSession(ctx, Session{Source: "a.mp3"})
	require.NoError(t, err)

	got, err := j.ResolveID(ctx, id[:8])
	require.NoError(t, err)
	assert.Equal(t, id, got)

	got, err = j.ResolveID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, got)

	got, err = j.ResolveID(ctx, "zzzz")
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = j.ResolveID(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestResolveID_Ambiguous(t *testing.T) {
	ctx := context.Background()
	j := openTestJournal(t)

	for _, id := range []string{"abc-1", "abc-2"} {
		_, err := j.db.Exec(`INSERT INTO sessions (id, player_session, source, mime_type, media_type, started_at, final_state)
			VALUES (?, 1, 'a.mp3', '', '', 0, 'STOPPED')`, id)
		require.NoError(t, err)
	}

	_, err := j.ResolveID(ctx, "abc")
	assert.ErrorIs(t, err, ErrAmbiguousID)

	got, err := j.ResolveID(ctx, "abc-2")
	require.NoError(t, err)
	assert.Equal(t, "abc-2", got)
}
