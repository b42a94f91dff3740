// Package journal records playback sessions in a sqlite database.
//
// A session starts when a source is set and ends on error, when a new source
// replaces it, or when the recorder stops. Each state change is kept as a
// transition row; the last known position is kept on the session and is what
// resuming a source reads back.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	dbutil "github.com/llehouerou/mediaplayer/internal/db"
)

const saveDebounce = 500 * time.Millisecond

// Session is one source lifetime as recorded in the journal.
type Session struct {
	ID            string
	PlayerSession uint64
	Source        string
	MimeType      string
	MediaType     string
	StartedAt     time.Time
	EndedAt       time.Time // zero while the session is open
	FinalState    string
	LastPosition  time.Duration
	HasPosition   bool
	Error         string
}

// Duration returns how long the session lasted, or zero if it is still open.
func (s Session) Duration() time.Duration {
	if s.EndedAt.IsZero() {
		return 0
	}
	return s.EndedAt.Sub(s.StartedAt)
}

// Transition is one recorded state change.
type Transition struct {
	State       string
	Position    time.Duration
	HasPosition bool
	Message     string
	At          time.Time
}

type pendingPosition struct {
	sessionID string
	position  time.Duration
}

// Journal is the sqlite-backed session store.
type Journal struct {
	db  *sql.DB
	now func() time.Time

	saveMu    sync.Mutex
	saveTimer *time.Timer
	pending   *pendingPosition
}

// Open opens or creates the journal database at path.
func Open(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// Writes come from the recorder and the debounce timer.
	db.SetMaxOpenConns(1)

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Journal{db: db, now: time.Now}, nil
}

// Close flushes the pending position and closes the database.
func (j *Journal) Close() error {
	j.Flush()
	return j.db.Close()
}

// StartSession inserts a new open session and returns its id.
func (j *Journal) StartSession(ctx context.Context, s Session) (string, error) {
	id := uuid.NewString()
	started := s.StartedAt
	if started.IsZero() {
		started = j.now()
	}
	state := s.FinalState
	if state == "" {
		state = "STOPPED"
	}
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO sessions (id, player_session, source, mime_type, media_type, started_at, final_state)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, id, int64(s.PlayerSession), s.Source, s.MimeType, s.MediaType, dbutil.UnixMillis(started), state)
	if err != nil {
		return "", err
	}
	return id, nil
}

// RecordTransition appends a state change and updates the session summary.
func (j *Journal) RecordTransition(ctx context.Context, sessionID string, t Transition) error {
	at := t.At
	if at.IsZero() {
		at = j.now()
	}
	return dbutil.WithTx(ctx, j.db, func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO transitions (session_id, state, position_ms, message, at)
			VALUES (?, ?, ?, ?, ?)
		`, sessionID, t.State, dbutil.OptionalMillis(t.Position, t.HasPosition), t.Message, dbutil.UnixMillis(at))
		if err != nil {
			return err
		}

		if t.HasPosition {
			_, err = tx.Exec(`UPDATE sessions SET final_state = ?, last_position_ms = ? WHERE id = ?`,
				t.State, dbutil.Millis(t.Position), sessionID)
		} else {
			_, err = tx.Exec(`UPDATE sessions SET final_state = ? WHERE id = ?`, t.State, sessionID)
		}
		return err
	})
}

// SavePosition records the playback position of a session. Writes are
// debounced; Flush, EndSession and Close persist the pending one.
func (j *Journal) SavePosition(sessionID string, position time.Duration) {
	j.saveMu.Lock()
	defer j.saveMu.Unlock()

	// A different session must not lose its last position
	if j.pending != nil && j.pending.sessionID != sessionID {
		prev := *j.pending
		j.pending = nil
		_ = j.savePosition(prev)
	}
	j.pending = &pendingPosition{sessionID: sessionID, position: position}

	if j.saveTimer != nil {
		j.saveTimer.Stop()
	}
	j.saveTimer = time.AfterFunc(saveDebounce, j.Flush)
}

// Flush writes the pending position immediately.
func (j *Journal) Flush() {
	j.saveMu.Lock()
	if j.saveTimer != nil {
		j.saveTimer.Stop()
		j.saveTimer = nil
	}
	pending := j.pending
	j.pending = nil
	j.saveMu.Unlock()

	if pending != nil {
		_ = j.savePosition(*pending)
	}
}

func (j *Journal) savePosition(p pendingPosition) error {
	_, err := j.db.Exec(`UPDATE sessions SET last_position_ms = ? WHERE id = ?`,
		dbutil.Millis(p.position), p.sessionID)
	return err
}

// EndSession closes a session with its final state and error message.
func (j *Journal) EndSession(ctx context.Context, sessionID, finalState, errMsg string) error {
	j.Flush()
	var errCol any
	if errMsg != "" {
		errCol = errMsg
	}
	_, err := j.db.ExecContext(ctx, `
		UPDATE sessions SET ended_at = ?, final_state = ?, error = ?
		WHERE id = ? AND ended_at IS NULL
	`, dbutil.UnixMillis(j.now()), finalState, errCol, sessionID)
	return err
}

// LastPosition returns where playback of source was last seen. Sources whose
// latest session completed report no position.
func (j *Journal) LastPosition(ctx context.Context, source string) (time.Duration, bool, error) {
	j.Flush()
	var state string
	var pos sql.NullInt64
	err := j.db.QueryRowContext(ctx, `
		SELECT final_state, last_position_ms FROM sessions
		WHERE source = ? AND last_position_ms IS NOT NULL
		ORDER BY started_at DESC, rowid DESC
		LIMIT 1
	`, source).Scan(&state, &pos)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	if state == "COMPLETE" {
		return 0, false, nil
	}
	d, ok := dbutil.NullDuration(pos)
	return d, ok, nil
}

// Recent returns the latest sessions, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Session, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, player_session, source, mime_type, media_type, started_at, ended_at,
			final_state, last_position_ms, error
		FROM sessions
		ORDER BY started_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var s Session
		var playerSession, started int64
		var ended, pos sql.NullInt64
		var errMsg sql.NullString

		err := rows.Scan(&s.ID, &playerSession, &s.Source, &s.MimeType, &s.MediaType,
			&started, &ended, &s.FinalState, &pos, &errMsg)
		if err != nil {
			return nil, err
		}
		s.PlayerSession = uint64(playerSession) //nolint:gosec // stored from a uint64
		s.StartedAt = time.UnixMilli(started)
		s.EndedAt = dbutil.NullTime(ended)
		s.LastPosition, s.HasPosition = dbutil.NullDuration(pos)
		s.Error = dbutil.NullStringValue(errMsg)
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// Transitions returns the state changes of a session in order.
func (j *Journal) Transitions(ctx context.Context, sessionID string) ([]Transition, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT state, position_ms, message, at FROM transitions
		WHERE session_id = ?
		ORDER BY id
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Transition
	for rows.Next() {
		var t Transition
		var pos sql.NullInt64
		var msg sql.NullString
		var at int64
		if err := rows.Scan(&t.State, &pos, &msg, &at); err != nil {
			return nil, err
		}
		t.Position, t.HasPosition = dbutil.NullDuration(pos)
		t.Message = dbutil.NullStringValue(msg)
		t.At = time.UnixMilli(at)
		out = append(out, t)
	}
	return out, rows.Err()
}

// ErrAmbiguousID is returned when a session ID prefix matches more than one
// session.
var ErrAmbiguousID = errors.New("session id prefix is ambiguous")

// ResolveID returns the full ID of the session whose ID starts with prefix.
// It returns "" when no session matches.
func (j *Journal) ResolveID(ctx context.Context, prefix string) (string, error) {
	if prefix == "" {
		return "", nil
	}
	rows, err := j.db.QueryContext(ctx, `SELECT id FROM sessions WHERE substr(id, 1, ?) = ? LIMIT 2`,
		len(prefix), prefix)
	if err != nil {
		return "", err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	switch len(ids) {
	case 0:
		return "", nil
	case 1:
		return ids[0], nil
	default:
		return "", ErrAmbiguousID
	}
}
