package repos

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/nacl/secretbox"

	"nearauction/internal/near"
)

var ErrKeyNotFound = errors.New("access key not found")

// KeyStore keeps the function-call keys the server signs with, sealed under a
// key derived from a server secret.
type KeyStore struct {
	db  *sqlx.DB
	key [32]byte
}

func NewKeyStore(db *sqlx.DB, secret string) *KeyStore {
	return &KeyStore{db: db, key: sha256.Sum256([]byte(secret))}
}

func (k *KeyStore) seal(plain []byte) (string, error) {
	var nonce [24]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return "", err
	}
	box := secretbox.Seal(nonce[:], plain, &nonce, &k.key)
	return base64.StdEncoding.EncodeToString(box), nil
}

func (k *KeyStore) open(enc string) ([]byte, error) {
	box, err := base64.StdEncoding.DecodeString(enc)
	if err != nil {
		return nil, err
	}
	if len(box) < 24 {
		return nil, errors.New("sealed key too short")
	}
	var nonce [24]byte
	copy(nonce[:], box[:24])
	plain, ok := secretbox.Open(nil, box[24:], &nonce, &k.key)
	if !ok {
		return nil, errors.New("sealed key does not open with this secret")
	}
	return plain, nil
}

// Put stores kp; accountID may be empty while a sign-in is pending.
func (k *KeyStore) Put(ctx context.Context, accountID string, kp *near.KeyPair) error {
	sealed, err := k.seal([]byte(kp.String()))
	if err != nil {
		return fmt.Errorf("seal key: %w", err)
	}
	_, err = k.db.ExecContext(ctx, `INSERT INTO access_keys(public_key,account_id,secret_box) VALUES(?,?,?)
		ON CONFLICT(public_key) DO UPDATE SET account_id=excluded.account_id,secret_box=excluded.secret_box`,
		kp.PublicKey().String(), accountID, sealed)
	return err
}

func (k *KeyStore) Get(ctx context.Context, publicKey string) (*near.KeyPair, error) {
	var sealed string
	err := k.db.GetContext(ctx, &sealed, `SELECT secret_box FROM access_keys WHERE public_key=?`, publicKey)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, err
	}
	plain, err := k.open(sealed)
	if err != nil {
		return nil, fmt.Errorf("open key %s: %w", publicKey, err)
	}
	return near.ParseKeyPair(string(plain))
}

// Claim assigns a pending key to the account the wallet approved it for.
func (k *KeyStore) Claim(ctx context.Context, publicKey, accountID string) error {
	res, err := k.db.ExecContext(ctx, `UPDATE access_keys SET account_id=? WHERE public_key=?`, accountID, publicKey)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrKeyNotFound
	}
	return nil
}

func (k *KeyStore) Delete(ctx context.Context, publicKey string) error {
	_, err := k.db.ExecContext(ctx, `DELETE FROM access_keys WHERE public_key=?`, publicKey)
	return err
}
