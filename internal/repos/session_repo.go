package repos

import (
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

type SessionRepo struct{ DB *sqlx.DB }

func NewSessionRepo(db *sqlx.DB) *SessionRepo { return &SessionRepo{DB: db} }

type SessionRow struct {
	ID               string         `db:"id"`
	AccountID        sql.NullString `db:"account_id"`
	PublicKey        sql.NullString `db:"public_key"`
	PendingPublicKey sql.NullString `db:"pending_public_key"`
}

// Get returns the session row; an unknown sid yields an empty row.
func (r *SessionRepo) Get(sid string) (SessionRow, error) {
	var row SessionRow
	err := r.DB.Get(&row, `SELECT id,account_id,public_key,pending_public_key FROM sessions WHERE id=?`, sid)
	if errors.Is(err, sql.ErrNoRows) {
		return SessionRow{ID: sid}, nil
	}
	return row, err
}

// SetPending remembers the key a sign-in was started with.
func (r *SessionRepo) SetPending(sid, publicKey string) error {
	_, err := r.DB.Exec(`INSERT INTO sessions(id,pending_public_key,last_seen)
                          VALUES(?,?,CURRENT_TIMESTAMP)
                          ON CONFLICT(id) DO UPDATE SET pending_public_key=excluded.pending_public_key,last_seen=CURRENT_TIMESTAMP`,
		sid, publicKey)
	return err
}

func (r *SessionRepo) Bind(sid, accountID, publicKey string) error {
	_, err := r.DB.Exec(`INSERT INTO sessions(id,account_id,public_key,pending_public_key,last_seen)
                          VALUES(?,?,?,NULL,CURRENT_TIMESTAMP)
                          ON CONFLICT(id) DO UPDATE SET account_id=excluded.account_id,public_key=excluded.public_key,
                            pending_public_key=NULL,last_seen=CURRENT_TIMESTAMP`,
		sid, accountID, publicKey)
	return err
}

func (r *SessionRepo) Unbind(sid string) error {
	_, err := r.DB.Exec(`UPDATE sessions SET account_id=NULL,public_key=NULL,pending_public_key=NULL,last_seen=CURRENT_TIMESTAMP WHERE id=?`, sid)
	return err
}
