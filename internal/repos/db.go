package repos

import (
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

func OpenDB(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// :memory: databases are per connection.
	if dsn == ":memory:" {
		db.SetMaxOpenConns(1)
	}
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

-- Browser sessions bound to a wallet account
CREATE TABLE IF NOT EXISTS sessions(
  id TEXT PRIMARY KEY,               -- same value as the 'sid' cookie
  account_id TEXT,
  public_key TEXT,
  pending_public_key TEXT,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  last_seen  TEXT
);
CREATE INDEX IF NOT EXISTS idx_sessions_account ON sessions(account_id);

-- Function-call access keys, secret part sealed with secretbox
CREATE TABLE IF NOT EXISTS access_keys(
  public_key TEXT PRIMARY KEY,
  account_id TEXT,
  secret_box TEXT NOT NULL,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_access_keys_account ON access_keys(account_id);

-- Mutating contract calls
CREATE TABLE IF NOT EXISTS bridge_calls(
  id TEXT PRIMARY KEY,
  account_id TEXT NOT NULL,
  action TEXT NOT NULL,
  tx_hash TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL CHECK (status IN ('SUBMITTED','WALLET','FAILED')),
  detail TEXT NOT NULL DEFAULT '',
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_bridge_calls_created_at ON bridge_calls(created_at);
`
	_, err := db.Exec(schema)
	return err
}
