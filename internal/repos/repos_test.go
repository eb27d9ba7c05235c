package repos_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jmoiron/sqlx"

	"nearauction/internal/domain"
	"nearauction/internal/near"
	"nearauction/internal/repos"
)

func memdb(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSessionRepo_PendingBindUnbind(t *testing.T) {
	r := repos.NewSessionRepo(memdb(t))

	row, err := r.Get("sid-1")
	if err != nil {
		t.Fatal(err)
	}
	if row.AccountID.Valid {
		t.Fatalf("unknown sid should have no account, got %+v", row)
	}

	if err := r.SetPending("sid-1", "ed25519:pk"); err != nil {
		t.Fatal(err)
	}
	row, _ = r.Get("sid-1")
	if row.PendingPublicKey.String != "ed25519:pk" {
		t.Fatalf("want pending key, got %+v", row)
	}

	if err := r.Bind("sid-1", "bob.testnet", "ed25519:pk"); err != nil {
		t.Fatal(err)
	}
	row, _ = r.Get("sid-1")
	if row.AccountID.String != "bob.testnet" || row.PublicKey.String != "ed25519:pk" || row.PendingPublicKey.Valid {
		t.Fatalf("bind did not take, got %+v", row)
	}

	if err := r.Unbind("sid-1"); err != nil {
		t.Fatal(err)
	}
	row, _ = r.Get("sid-1")
	if row.AccountID.Valid || row.PublicKey.Valid {
		t.Fatalf("unbind left account behind: %+v", row)
	}
}

func TestKeyStore_SealsAndReopens(t *testing.T) {
	db := memdb(t)
	ks := repos.NewKeyStore(db, "s3cret")
	ctx := context.Background()

	kp, err := near.GenerateKeyPair()
	if err != nil {
		t.Fatal(err)
	}
	if err := ks.Put(ctx, "", kp); err != nil {
		t.Fatal(err)
	}

	var sealed string
	if err := db.Get(&sealed, `SELECT secret_box FROM access_keys`); err != nil {
		t.Fatal(err)
	}
	if sealed == kp.String() {
		t.Fatal("secret stored in the clear")
	}

	got, err := ks.Get(ctx, kp.PublicKey().String())
	if err != nil {
		t.Fatal(err)
	}
	if got.PublicKey() != kp.PublicKey() {
		t.Fatal("reopened key does not match")
	}

	if err := ks.Claim(ctx, kp.PublicKey().String(), "bob.testnet"); err != nil {
		t.Fatal(err)
	}
	if err := ks.Claim(ctx, "ed25519:nope", "bob.testnet"); !errors.Is(err, repos.ErrKeyNotFound) {
		t.Fatalf("want ErrKeyNotFound, got %v", err)
	}

	other := repos.NewKeyStore(db, "different")
	if _, err := other.Get(ctx, kp.PublicKey().String()); err == nil {
		t.Fatal("key opened under the wrong secret")
	}

	if err := ks.Delete(ctx, kp.PublicKey().String()); err != nil {
		t.Fatal(err)
	}
	if _, err := ks.Get(ctx, kp.PublicKey().String()); !errors.Is(err, repos.ErrKeyNotFound) {
		t.Fatalf("want ErrKeyNotFound after delete, got %v", err)
	}
}

func TestBridgeCallRepo_LatestFirst(t *testing.T) {
	r := repos.NewBridgeCallRepo(memdb(t))
	ctx := context.Background()

	for _, a := range []string{"add_item", "start_auction", "produce_auction"} {
		if err := r.RecordCall(ctx, domain.BridgeCall{AccountID: "admin.testnet", Action: a, Status: "SUBMITTED", TxHash: "h-" + a}); err != nil {
			t.Fatal(err)
		}
	}
	if err := r.RecordCall(ctx, domain.BridgeCall{AccountID: "admin.testnet", Action: "x", Status: "BOGUS"}); err == nil {
		t.Fatal("status outside the enum should be rejected")
	}

	got, err := r.Latest(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Action != "produce_auction" || got[1].Action != "start_auction" {
		t.Fatalf("want newest two, got %+v", got)
	}
	if got[0].ID == "" || got[0].CreatedAt == "" {
		t.Fatalf("id/created_at not populated: %+v", got[0])
	}
}
