// Package session persists chart sessions and their drawings in SQLite.
package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/example/chartink/internal/drawing"
)

var (
	// ErrSessionNotFound is returned when a session ID is unknown.
	ErrSessionNotFound = errors.New("session not found")
	// ErrDrawingNotFound is returned when a drawing ID is unknown within a session.
	ErrDrawingNotFound = errors.New("drawing not found")
)

// Session is one chart a user annotated.
type Session struct {
	ID        string    `json:"id"`
	Symbol    string    `json:"symbol"`
	Timeframe string    `json:"timeframe"`
	CreatedAt time.Time `json:"createdAt"`
}

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id         TEXT PRIMARY KEY,
	symbol     TEXT NOT NULL,
	timeframe  TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS drawings (
	id         TEXT PRIMARY KEY,
	session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
	seq        INTEGER NOT NULL,
	kind       TEXT NOT NULL,
	payload    BLOB NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_drawings_session ON drawings(session_id, seq);
`

// Repository stores sessions and drawings.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
	now func() time.Time
}

// Open opens (creating if needed) the database at path and applies the
// schema. ":memory:" gives a private in-memory database.
func Open(path string, log zerolog.Logger) (*Repository, error) {
	memory := path == ":memory:"
	if !memory {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if memory {
		// every connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &Repository{
		db:  db,
		log: log.With().Str("component", "session").Logger(),
		now: time.Now,
	}, nil
}

// Close closes the database.
func (r *Repository) Close() error { return r.db.Close() }

// CreateSession starts a new session for symbol and timeframe.
func (r *Repository) CreateSession(ctx context.Context, symbol, timeframe string) (Session, error) {
	s := Session{ID: uuid.NewString(), Symbol: symbol, Timeframe: timeframe, CreatedAt: r.now().UTC().Truncate(time.Second)}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (id, symbol, timeframe, created_at) VALUES (?, ?, ?, ?)`,
		s.ID, s.Symbol, s.Timeframe, s.CreatedAt.Unix())
	if err != nil {
		return Session{}, fmt.Errorf("failed to create session: %w", err)
	}
	r.log.Debug().Str("session", s.ID).Str("symbol", symbol).Msg("session created")
	return s, nil
}

// GetSession returns the session with the given ID.
func (r *Repository) GetSession(ctx context.Context, id string) (Session, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, symbol, timeframe, created_at FROM sessions WHERE id = ?`, id)
	s, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s, err
}

// LatestSession returns the most recent session for symbol and timeframe.
func (r *Repository) LatestSession(ctx context.Context, symbol, timeframe string) (Session, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, symbol, timeframe, created_at FROM sessions
		 WHERE symbol = ? AND timeframe = ? ORDER BY created_at DESC, rowid DESC LIMIT 1`,
		symbol, timeframe)
	s, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, fmt.Errorf("%w: %s %s", ErrSessionNotFound, symbol, timeframe)
	}
	return s, err
}

// ListSessions returns every session, newest first.
func (r *Repository) ListSessions(ctx context.Context) ([]Session, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, symbol, timeframe, created_at FROM sessions ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()
	var out []Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (Session, error) {
	var s Session
	var created int64
	if err := row.Scan(&s.ID, &s.Symbol, &s.Timeframe, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, err
		}
		return Session{}, fmt.Errorf("failed to scan session: %w", err)
	}
	s.CreatedAt = time.Unix(created, 0).UTC()
	return s, nil
}

func (r *Repository) requireSession(ctx context.Context, id string) error {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM sessions WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return err
}

// AddDrawing appends a to the session's drawings.
func (r *Repository) AddDrawing(ctx context.Context, sessionID string, a drawing.Annotation) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if err := r.requireSession(ctx, sessionID); err != nil {
		return err
	}
	payload, err := encodePayload(a)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO drawings (id, session_id, seq, kind, payload, updated_at)
		 VALUES (?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM drawings WHERE session_id = ?), ?, ?, ?)`,
		a.ID, sessionID, sessionID, string(a.Kind), payload, r.now().Unix())
	if err != nil {
		return fmt.Errorf("failed to insert drawing %s: %w", a.ID, err)
	}
	return nil
}

// Drawings returns the session's drawings in insertion order.
func (r *Repository) Drawings(ctx context.Context, sessionID string) ([]drawing.Annotation, error) {
	if err := r.requireSession(ctx, sessionID); err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, kind, payload FROM drawings WHERE session_id = ? ORDER BY seq`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query drawings: %w", err)
	}
	defer rows.Close()
	var out []drawing.Annotation
	for rows.Next() {
		var id, kind string
		var payload []byte
		if err := rows.Scan(&id, &kind, &payload); err != nil {
			return nil, fmt.Errorf("failed to scan drawing: %w", err)
		}
		a, err := decodePayload(id, drawing.Kind(kind), payload)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// getDrawing loads one drawing of the session.
func (r *Repository) getDrawing(ctx context.Context, sessionID, id string) (drawing.Annotation, error) {
	var kind string
	var payload []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT kind, payload FROM drawings WHERE session_id = ? AND id = ?`, sessionID, id).Scan(&kind, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return drawing.Annotation{}, fmt.Errorf("%w: %s", ErrDrawingNotFound, id)
	}
	if err != nil {
		return drawing.Annotation{}, fmt.Errorf("failed to load drawing %s: %w", id, err)
	}
	return decodePayload(id, drawing.Kind(kind), payload)
}

func (r *Repository) saveDrawing(ctx context.Context, sessionID string, a drawing.Annotation) error {
	payload, err := encodePayload(a)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`UPDATE drawings SET payload = ?, updated_at = ? WHERE session_id = ? AND id = ?`,
		payload, r.now().Unix(), sessionID, a.ID)
	if err != nil {
		return fmt.Errorf("failed to update drawing %s: %w", a.ID, err)
	}
	return nil
}

// UpdateDrawingText replaces the text of a note.
func (r *Repository) UpdateDrawingText(ctx context.Context, sessionID, id, text string) error {
	a, err := r.getDrawing(ctx, sessionID, id)
	if err != nil {
		return err
	}
	a.Text = text
	return r.saveDrawing(ctx, sessionID, a)
}

// UpdateDrawingPoints replaces the defining points of a drawing.
func (r *Repository) UpdateDrawingPoints(ctx context.Context, sessionID, id string, pts []drawing.Point) error {
	a, err := r.getDrawing(ctx, sessionID, id)
	if err != nil {
		return err
	}
	a.Points = append([]drawing.Point(nil), pts...)
	if err := a.Validate(); err != nil {
		return err
	}
	return r.saveDrawing(ctx, sessionID, a)
}

// RemoveDrawing deletes one drawing.
func (r *Repository) RemoveDrawing(ctx context.Context, sessionID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM drawings WHERE session_id = ? AND id = ?`, sessionID, id)
	if err != nil {
		return fmt.Errorf("failed to delete drawing %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrDrawingNotFound, id)
	}
	return nil
}

// ClearDrawings deletes every drawing of the session and returns how many
// were removed.
func (r *Repository) ClearDrawings(ctx context.Context, sessionID string) (int, error) {
	if err := r.requireSession(ctx, sessionID); err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM drawings WHERE session_id = ?`, sessionID)
	if err != nil {
		return 0, fmt.Errorf("failed to clear drawings: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}
