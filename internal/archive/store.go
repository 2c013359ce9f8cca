package archive

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Store provides read-write access to the EdgeLearn session archive.
type Store struct {
	db *sql.DB
}

const schema = `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		startedAt REAL NOT NULL,
		endedAt REAL,
		turnCount INTEGER NOT NULL DEFAULT 0,
		createdAt REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS turns (
		id TEXT PRIMARY KEY,
		sessionId TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		media TEXT,
		sequenceNumber INTEGER NOT NULL,
		createdAt REAL NOT NULL,
		UNIQUE(sessionId, sequenceNumber)
	);
`

// PathIn returns the archive database path under a data directory.
func PathIn(dataDir string) string {
	return filepath.Join(dataDir, "edgelearn.sqlite")
}

// Open opens the database with WAL, creating the file and schema if needed.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Verify connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateSession records the start of a new session.
func (s *Store) CreateSession(id string, startedAt time.Time) error {
	_, err := s.db.Exec(`
		INSERT INTO sessions (id, startedAt, createdAt)
		VALUES (?, ?, ?)
	`, id, unixFromTime(startedAt), unixFromTime(time.Now()))
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// EndSession marks a session as finished.
func (s *Store) EndSession(id string, endedAt time.Time) error {
	_, err := s.db.Exec(`
		UPDATE sessions SET endedAt = ? WHERE id = ?
	`, unixFromTime(endedAt), id)
	if err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	return nil
}

// AppendTurn records one transcript entry and bumps the session turn count.
func (s *Store) AppendTurn(t Turn) error {
	var media any
	if len(t.Media) > 0 {
		enc, err := json.Marshal(t.Media)
		if err != nil {
			return fmt.Errorf("encode media: %w", err)
		}
		media = string(enc)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		INSERT INTO turns (id, sessionId, role, content, media, sequenceNumber, createdAt)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, t.ID, t.SessionID, t.Role, t.Content, media, t.SequenceNumber, unixFromTime(t.CreatedAt)); err != nil {
		return fmt.Errorf("insert turn: %w", err)
	}

	if _, err := tx.Exec(`
		UPDATE sessions SET turnCount = turnCount + 1 WHERE id = ?
	`, t.SessionID); err != nil {
		return fmt.Errorf("bump turn count: %w", err)
	}

	return tx.Commit()
}

// Turns returns all turns for a session in transcript order.
func (s *Store) Turns(sessionID string) ([]Turn, error) {
	rows, err := s.db.Query(`
		SELECT id, sessionId, role, content, media, sequenceNumber, createdAt
		FROM turns
		WHERE sessionId = ?
		ORDER BY sequenceNumber ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query turns: %w", err)
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		var t Turn
		var media sql.NullString
		var createdAt float64
		if err := rows.Scan(&t.ID, &t.SessionID, &t.Role, &t.Content,
			&media, &t.SequenceNumber, &createdAt); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		t.CreatedAt = timeFromUnix(createdAt)
		if media.Valid && media.String != "" {
			if err := json.Unmarshal([]byte(media.String), &t.Media); err != nil {
				return nil, fmt.Errorf("decode media: %w", err)
			}
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

// RecentSessions returns the newest sessions first.
func (s *Store) RecentSessions(limit int) ([]Session, error) {
	rows, err := s.db.Query(`
		SELECT id, startedAt, endedAt, turnCount, createdAt
		FROM sessions
		ORDER BY startedAt DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var sess Session
		var startedAt, createdAt float64
		var endedAt sql.NullFloat64
		if err := rows.Scan(&sess.ID, &startedAt, &endedAt,
			&sess.TurnCount, &createdAt); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sess.StartedAt = timeFromUnix(startedAt)
		sess.CreatedAt = timeFromUnix(createdAt)
		if endedAt.Valid {
			t := timeFromUnix(endedAt.Float64)
			sess.EndedAt = &t
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// Stats derives dashboard statistics from the archive.
func (s *Store) Stats() (Stats, error) {
	var st Stats
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM sessions`).Scan(&st.Sessions); err != nil {
		return st, fmt.Errorf("count sessions: %w", err)
	}
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM turns`).Scan(&st.Turns); err != nil {
		return st, fmt.Errorf("count turns: %w", err)
	}
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM turns WHERE role = 'user'`).Scan(&st.Questions); err != nil {
		return st, fmt.Errorf("count questions: %w", err)
	}

	rows, err := s.db.Query(`SELECT startedAt FROM sessions ORDER BY startedAt DESC`)
	if err != nil {
		return st, fmt.Errorf("query study days: %w", err)
	}
	defer rows.Close()

	days := make(map[string]bool)
	for rows.Next() {
		var ts float64
		if err := rows.Scan(&ts); err != nil {
			return st, fmt.Errorf("scan study day: %w", err)
		}
		started := timeFromUnix(ts)
		days[started.Format("2006-01-02")] = true
		if st.LastStudiedAt == nil {
			t := started
			st.LastStudiedAt = &t
		}
	}
	if err := rows.Err(); err != nil {
		return st, err
	}

	st.StudyDays = len(days)
	st.StreakDays = streakFrom(days, time.Now())
	return st, nil
}

// streakFrom counts consecutive study days ending at now's date. A streak
// survives until a full calendar day passes with no session, so a gap of
// just today-so-far still counts back from yesterday.
func streakFrom(days map[string]bool, now time.Time) int {
	day := now
	if !days[day.Format("2006-01-02")] {
		day = day.AddDate(0, 0, -1)
	}
	streak := 0
	for days[day.Format("2006-01-02")] {
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak
}

func timeFromUnix(ts float64) time.Time {
	sec := int64(ts)
	nsec := int64((ts - float64(sec)) * 1e9)
	return time.Unix(sec, nsec)
}

func unixFromTime(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}
