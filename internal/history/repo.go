// Package history archives the terminal results of finished games in a
// SQLite database. Live game state is never persisted; only terminal
// summaries land here.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Match is one archived game result.
type Match struct {
	ID         string    `json:"id"`
	RoomID     string    `json:"game_id"`
	Player1    string    `json:"player1_name"`
	Player2    string    `json:"player2_name"`
	Winner     string    `json:"winner"`
	QuickMatch bool      `json:"quick_match"`
	EndReason  string    `json:"end_reason"`
	Moves      int       `json:"moves"`
	StartedAt  time.Time `json:"started_at"`
	EndedAt    time.Time `json:"ended_at"`
}

// Repo is the match-history database. Single writer; reads share the same
// serialized connection.
type Repo struct {
	db   *sql.DB
	path string
}

// OpenRepo opens (or creates) the history database under stateDir and
// applies migrations.
func OpenRepo(stateDir string) (*Repo, error) {
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return nil, fmt.Errorf("history repo mkdir %s: %w", stateDir, err)
	}
	path := filepath.Join(stateDir, "matches.db")

	db, err := openDB(path)
	if err != nil {
		return nil, err
	}
	if err := MigrateHistoryDB(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Repo{db: db, path: path}, nil
}

// openDB opens a SQLite database with the recommended pragmas: WAL journal
// mode, synchronous=NORMAL, busy_timeout=5000.
func openDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db %s: %w", path, err)
	}

	// Single-writer: only one connection needed.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec %q on %s: %w", p, path, err)
		}
	}
	return db, nil
}

// Close closes the database.
func (r *Repo) Close() error {
	if r.db != nil {
		err := r.db.Close()
		r.db = nil
		return err
	}
	return nil
}

// InsertBatch writes a batch of finished matches in one transaction and
// returns the number of rows inserted.
func (r *Repo) InsertBatch(matches []Match) (int, error) {
	if r.db == nil {
		return 0, fmt.Errorf("history repo: closed")
	}
	if len(matches) == 0 {
		return 0, nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("history repo begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.Prepare(`INSERT OR IGNORE INTO matches
		(id, room_id, player1, player2, winner, quick_match, end_reason, moves, started_ns, ended_ns)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("history repo prepare: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, m := range matches {
		qm := 0
		if m.QuickMatch {
			qm = 1
		}
		res, err := stmt.Exec(
			m.ID, m.RoomID, m.Player1, m.Player2, m.Winner,
			qm, m.EndReason, m.Moves,
			m.StartedAt.UnixNano(), m.EndedAt.UnixNano(),
		)
		if err != nil {
			return inserted, fmt.Errorf("history repo insert %s: %w", m.ID, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("history repo commit: %w", err)
	}
	return inserted, nil
}

// Recent returns the most recently finished matches, newest first.
func (r *Repo) Recent(limit int) ([]Match, error) {
	if r.db == nil {
		return nil, fmt.Errorf("history repo: closed")
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.Query(`SELECT id, room_id, player1, player2, winner,
		quick_match, end_reason, moves, started_ns, ended_ns
		FROM matches ORDER BY ended_ns DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("history repo query: %w", err)
	}
	defer rows.Close()

	out := []Match{}
	for rows.Next() {
		var m Match
		var qm int
		var startedNs, endedNs int64
		if err := rows.Scan(&m.ID, &m.RoomID, &m.Player1, &m.Player2, &m.Winner,
			&qm, &m.EndReason, &m.Moves, &startedNs, &endedNs); err != nil {
			return nil, fmt.Errorf("history repo scan: %w", err)
		}
		m.QuickMatch = qm != 0
		m.StartedAt = time.Unix(0, startedNs).UTC()
		m.EndedAt = time.Unix(0, endedNs).UTC()
		out = append(out, m)
	}
	return out, rows.Err()
}

// PruneOlderThan deletes matches that ended before the cutoff. Returns the
// number of rows deleted.
func (r *Repo) PruneOlderThan(cutoff time.Time) (int64, error) {
	if r.db == nil {
		return 0, fmt.Errorf("history repo: closed")
	}
	res, err := r.db.Exec(`DELETE FROM matches WHERE ended_ns < ?`, cutoff.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("history repo prune: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
