package repos

import (
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// OpenDB opens the local session bookkeeping database. Marketplace data is
// never stored here.
func OpenDB(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// One writer keeps SQLite happy and makes :memory: a single database.
	db.SetMaxOpenConns(1)
	if err = db.Ping(); err != nil {
		return nil, err
	}
	if err := ensureSchema(db); err != nil {
		return nil, err
	}
	return db, nil
}

func ensureSchema(db *sqlx.DB) error {
	schema := `
PRAGMA foreign_keys = ON;

-- Browser sessions (id = 'sid' cookie)
CREATE TABLE IF NOT EXISTS sessions(
  id TEXT PRIMARY KEY,
  token TEXT NOT NULL DEFAULT '',
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  last_seen  TEXT
);

-- Cart lines ticked for checkout
CREATE TABLE IF NOT EXISTS cart_selections(
  session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
  item_key   TEXT NOT NULL,
  PRIMARY KEY (session_id, item_key)
);
`
	_, err := db.Exec(schema)
	return err
}
