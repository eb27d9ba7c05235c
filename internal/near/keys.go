package near

import (
	"crypto/ed25519"
	"crypto/rand"
	"strings"

	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/pkg/errors"
)

const ed25519Prefix = "ed25519:"

// KeyTypeED25519 is the borsh discriminant of ed25519 keys and signatures.
const KeyTypeED25519 byte = 0

type PublicKey [ed25519.PublicKeySize]byte

func (k PublicKey) String() string { return ed25519Prefix + base58.Encode(k[:]) }

func (k PublicKey) Verify(msg, sig []byte) bool {
	return ed25519.Verify(ed25519.PublicKey(k[:]), msg, sig)
}

// ParsePublicKey accepts "ed25519:<base58>" or a bare base58 string.
func ParsePublicKey(s string) (PublicKey, error) {
	var pk PublicKey
	raw := base58.Decode(strings.TrimPrefix(strings.TrimSpace(s), ed25519Prefix))
	if len(raw) != ed25519.PublicKeySize {
		return pk, errors.Errorf("public key %q: want %d bytes, got %d", s, ed25519.PublicKeySize, len(raw))
	}
	copy(pk[:], raw)
	return pk, nil
}

// KeyPair is an ed25519 key pair in the near-api-js string encoding.
type KeyPair struct {
	priv ed25519.PrivateKey
	pub  PublicKey
}

func GenerateKeyPair() (*KeyPair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, errors.Wrap(err, "generate ed25519 key")
	}
	kp := &KeyPair{priv: priv}
	copy(kp.pub[:], pub)
	return kp, nil
}

// ParseKeyPair decodes "ed25519:<base58 secret>", where the secret is either the
// 64 byte expanded key or the 32 byte seed.
func ParseKeyPair(s string) (*KeyPair, error) {
	raw := base58.Decode(strings.TrimPrefix(strings.TrimSpace(s), ed25519Prefix))
	var priv ed25519.PrivateKey
	switch len(raw) {
	case ed25519.PrivateKeySize:
		priv = ed25519.PrivateKey(raw)
	case ed25519.SeedSize:
		priv = ed25519.NewKeyFromSeed(raw)
	default:
		return nil, errors.Errorf("secret key: unexpected length %d", len(raw))
	}
	kp := &KeyPair{priv: priv}
	copy(kp.pub[:], priv.Public().(ed25519.PublicKey))
	return kp, nil
}

func (kp *KeyPair) PublicKey() PublicKey { return kp.pub }

func (kp *KeyPair) Sign(msg []byte) []byte { return ed25519.Sign(kp.priv, msg) }

// String returns the secret key encoding; never log it.
func (kp *KeyPair) String() string { return ed25519Prefix + base58.Encode(kp.priv) }
