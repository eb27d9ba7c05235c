package repos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/oklog/ulid/v2"

	"nearauction/internal/domain"
)

type BridgeCallRepo struct{ db *sqlx.DB }

func NewBridgeCallRepo(db *sqlx.DB) *BridgeCallRepo { return &BridgeCallRepo{db: db} }

// RecordCall stores c under a fresh ULID, so ids sort by time.
func (r *BridgeCallRepo) RecordCall(ctx context.Context, c domain.BridgeCall) error {
	if c.ID == "" {
		c.ID = ulid.Make().String()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO bridge_calls(id, account_id, action, tx_hash, status, detail)
		VALUES (?, ?, ?, ?, ?, ?)
	`, c.ID, c.AccountID, c.Action, c.TxHash, c.Status, c.Detail)
	return err
}

// Latest returns the newest calls first.
func (r *BridgeCallRepo) Latest(limit int) ([]domain.BridgeCall, error) {
	var rows []domain.BridgeCall
	err := r.db.Select(&rows, `
		SELECT id, account_id, action, tx_hash, status, detail, created_at
		FROM bridge_calls
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	return rows, err
}
