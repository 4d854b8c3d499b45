package repos

import (
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

type SessionRepo struct{ db *sqlx.DB }

func NewSessionRepo(db *sqlx.DB) *SessionRepo { return &SessionRepo{db: db} }

// SessionRow is the persisted part of a browser session.
type SessionRow struct {
	ID       string   `db:"id"`
	Token    string   `db:"token"`
	Selected []string `db:"-"`
}

func (r *SessionRepo) Load(sid string) (SessionRow, error) {
	var row SessionRow
	err := r.db.Get(&row, `SELECT id, token FROM sessions WHERE id = ?`, sid)
	if errors.Is(err, sql.ErrNoRows) {
		return SessionRow{ID: sid}, nil
	}
	if err != nil {
		return SessionRow{}, err
	}
	if err := r.db.Select(&row.Selected, `SELECT item_key FROM cart_selections WHERE session_id = ? ORDER BY item_key`, sid); err != nil {
		return SessionRow{}, err
	}
	return row, nil
}

func (r *SessionRepo) SaveToken(sid, token string) error {
	_, err := r.db.Exec(`
		INSERT INTO sessions(id, token, last_seen)
		VALUES(?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET token = excluded.token, last_seen = CURRENT_TIMESTAMP
	`, sid, token)
	return err
}

// SaveSelection replaces the stored selection set.
func (r *SessionRepo) SaveSelection(sid string, keys []string) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`
		INSERT INTO sessions(id, last_seen) VALUES(?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET last_seen = CURRENT_TIMESTAMP
	`, sid); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM cart_selections WHERE session_id = ?`, sid); err != nil {
		return err
	}
	for _, k := range keys {
		if _, err := tx.Exec(`INSERT INTO cart_selections(session_id, item_key) VALUES(?, ?)`, sid, k); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *SessionRepo) Delete(sid string) error {
	_, err := r.db.Exec(`DELETE FROM sessions WHERE id = ?`, sid)
	return err
}

// Touch records activity on a saved session.
func (r *SessionRepo) Touch(sid string) error {
	_, err := r.db.Exec(`UPDATE sessions SET last_seen = CURRENT_TIMESTAMP WHERE id = ?`, sid)
	return err
}

// Prune deletes sessions last active before cutoff and reports how many went.
func (r *SessionRepo) Prune(cutoff time.Time) (int64, error) {
	ts := cutoff.UTC().Format("2006-01-02 15:04:05")
	if _, err := r.db.Exec(`
		DELETE FROM cart_selections WHERE session_id IN (
			SELECT id FROM sessions WHERE COALESCE(last_seen, created_at) < ?
		)`, ts); err != nil {
		return 0, err
	}
	res, err := r.db.Exec(`DELETE FROM sessions WHERE COALESCE(last_seen, created_at) < ?`, ts)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
