// Package sqlitestore provides a SQLite-backed convo.LinearStorage,
// adapted from the teacher's Session-scoped SQLiteStore: same driver
// (modernc.org/sqlite) and schema-migration idiom
// (addColumnIfMissing), repointed at a single ordered message history
// keyed by sequence number instead of a session_id-scoped record table.
package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/MoonshotAI/kosong/chat"
	"github.com/MoonshotAI/kosong/convo"
)

// SQLiteStorage implements convo.LinearStorage using SQLite, appending
// one row per message in arrival order.
type SQLiteStorage struct {
	mu sync.Mutex
	db *sql.DB
}

var _ convo.LinearStorage = (*SQLiteStorage)(nil)

// New opens (creating if needed) a SQLite-backed LinearStorage at
// dbPath. Use ":memory:" for an ephemeral store.
func New(dbPath string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: open %s: %w", dbPath, err)
	}

	s := &SQLiteStorage{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlitestore: init schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStorage) initSchema() error {
	const schema = `
CREATE TABLE IF NOT EXISTS messages (
    seq     INTEGER PRIMARY KEY AUTOINCREMENT,
    message TEXT NOT NULL
);
`
	_, err := s.db.Exec(schema)
	if err != nil {
		return err
	}
	return addColumnIfMissing(s.db, "messages", "message", "TEXT")
}

func addColumnIfMissing(db *sql.DB, table, column, colType string) error {
	_, err := db.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, colType))
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), "duplicate column name") {
		return nil
	}
	return err
}

// ListMessages returns the full history in arrival order.
func (s *SQLiteStorage) ListMessages() []chat.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`SELECT message FROM messages ORDER BY seq`)
	if err != nil {
		return nil
	}
	defer rows.Close()

	var out []chat.Message
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil
		}
		var msg chat.Message
		if err := json.Unmarshal([]byte(raw), &msg); err != nil {
			return nil
		}
		out = append(out, msg)
	}
	return out
}

// AppendMessage persists message as the next row in the history.
func (s *SQLiteStorage) AppendMessage(ctx context.Context, message chat.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("sqlitestore: encoding message: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO messages (message) VALUES (?)`, string(raw))
	if err != nil {
		return fmt.Errorf("sqlitestore: inserting message: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
