package near

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"math/big"

	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/pkg/errors"
)

// DefaultGas is the prepaid gas near-api-js attaches to function calls (30 Tgas).
const DefaultGas uint64 = 30_000_000_000_000

// action enum index of FunctionCall in the NEAR protocol.
const actionFunctionCall byte = 2

type FunctionCall struct {
	MethodName string
	Args       []byte
	Gas        uint64
	Deposit    *big.Int // yoctoNEAR, nil means zero
}

type Transaction struct {
	SignerID   string
	PublicKey  PublicKey
	Nonce      uint64
	ReceiverID string
	BlockHash  [32]byte
	Actions    []FunctionCall
}

type SignedTransaction struct {
	Transaction Transaction
	Signature   []byte
}

// Serialize returns the borsh encoding of the transaction.
func (t *Transaction) Serialize() ([]byte, error) {
	w := &borshWriter{}
	w.string(t.SignerID)
	w.u8(KeyTypeED25519)
	w.raw(t.PublicKey[:])
	w.u64(t.Nonce)
	w.string(t.ReceiverID)
	w.raw(t.BlockHash[:])
	w.u32(uint32(len(t.Actions)))
	for _, a := range t.Actions {
		w.u8(actionFunctionCall)
		w.string(a.MethodName)
		w.bytes(a.Args)
		w.u64(a.Gas)
		if err := w.u128(a.Deposit); err != nil {
			return nil, errors.Wrapf(err, "action %s", a.MethodName)
		}
	}
	return w.buf.Bytes(), nil
}

// Hash is the sha256 digest NEAR signs and identifies transactions by.
func (t *Transaction) Hash() ([32]byte, error) {
	b, err := t.Serialize()
	if err != nil {
		return [32]byte{}, err
	}
	return sha256.Sum256(b), nil
}

// Base64 is the encoding the wallet /sign page expects for unsigned transactions.
func (t *Transaction) Base64() (string, error) {
	b, err := t.Serialize()
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

func SignTransaction(t Transaction, kp *KeyPair) (*SignedTransaction, error) {
	h, err := t.Hash()
	if err != nil {
		return nil, err
	}
	return &SignedTransaction{Transaction: t, Signature: kp.Sign(h[:])}, nil
}

func (st *SignedTransaction) Serialize() ([]byte, error) {
	b, err := st.Transaction.Serialize()
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(b)+1+len(st.Signature))
	out = append(out, b...)
	out = append(out, KeyTypeED25519)
	out = append(out, st.Signature...)
	return out, nil
}

func (st *SignedTransaction) Base64() (string, error) {
	b, err := st.Serialize()
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// HashString is the base58 transaction hash shown by explorers.
func (st *SignedTransaction) HashString() (string, error) {
	h, err := st.Transaction.Hash()
	if err != nil {
		return "", err
	}
	return base58.Encode(h[:]), nil
}

// ParseBlockHash decodes a base58 block hash as returned by the RPC node.
func ParseBlockHash(s string) ([32]byte, error) {
	var h [32]byte
	raw := base58.Decode(s)
	if len(raw) != len(h) {
		return h, errors.Errorf("block hash %q: want 32 bytes, got %d", s, len(raw))
	}
	copy(h[:], raw)
	return h, nil
}

// borshWriter covers the handful of borsh shapes a transaction needs.
type borshWriter struct{ buf bytes.Buffer }

func (w *borshWriter) u8(v byte) { w.buf.WriteByte(v) }

func (w *borshWriter) u32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf.Write(b[:])
}

func (w *borshWriter) u64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.buf.Write(b[:])
}

func (w *borshWriter) u128(v *big.Int) error {
	var b [16]byte
	if v != nil {
		if v.Sign() < 0 || v.BitLen() > 128 {
			return errors.Errorf("u128 out of range: %s", v)
		}
		be := v.Bytes()
		for i := range be {
			b[i] = be[len(be)-1-i]
		}
	}
	w.buf.Write(b[:])
	return nil
}

func (w *borshWriter) raw(b []byte) { w.buf.Write(b) }

func (w *borshWriter) bytes(b []byte) {
	w.u32(uint32(len(b)))
	w.buf.Write(b)
}

func (w *borshWriter) string(s string) { w.bytes([]byte(s)) }
