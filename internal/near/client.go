package near

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/ethereum/go-ethereum/rpc"
	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
)

// Caller is the JSON-RPC surface the client needs; *rpc.Client satisfies it.
type Caller interface {
	CallContext(ctx context.Context, result interface{}, method string, args ...interface{}) error
	Close()
}

// QueryError is a failure reported inside a successful query response, e.g. a
// contract panic or an unknown access key.
type QueryError struct {
	Path    string
	Message string
}

func (e *QueryError) Error() string { return fmt.Sprintf("query %s: %s", e.Path, e.Message) }

type Client struct {
	rpc    Caller
	nonces *lru.Cache
}

// Dial connects to a NEAR JSON-RPC endpoint.
func Dial(ctx context.Context, nodeURL string) (*Client, error) {
	c, err := rpc.DialContext(ctx, nodeURL)
	if err != nil {
		return nil, errors.Wrapf(err, "dial %s", nodeURL)
	}
	return NewClient(c), nil
}

func NewClient(c Caller) *Client {
	nonces, _ := lru.New(1024)
	return &Client{rpc: c, nonces: nonces}
}

func (c *Client) Close() { c.rpc.Close() }

type NodeStatus struct {
	ChainID  string `json:"chain_id"`
	SyncInfo struct {
		LatestBlockHash   string `json:"latest_block_hash"`
		LatestBlockHeight uint64 `json:"latest_block_height"`
	} `json:"sync_info"`
}

func (c *Client) Status(ctx context.Context) (*NodeStatus, error) {
	var st NodeStatus
	if err := c.rpc.CallContext(ctx, &st, "status"); err != nil {
		return nil, errors.Wrap(err, "status")
	}
	return &st, nil
}

type queryResult struct {
	RawResult   []int    `json:"result"`
	Logs        []string `json:"logs"`
	BlockHeight uint64   `json:"block_height"`
	BlockHash   string   `json:"block_hash"`
}

// query uses the path form of the query method: params are [path, base58(data)].
func (c *Client) query(ctx context.Context, path string, data []byte, out interface{}) error {
	var raw json.RawMessage
	if err := c.rpc.CallContext(ctx, &raw, "query", path, base58.Encode(data)); err != nil {
		return errors.Wrapf(err, "query %s", path)
	}
	var probe struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &probe); err == nil && probe.Error != "" {
		return &QueryError{Path: path, Message: probe.Error}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return errors.Wrapf(err, "decode query %s", path)
	}
	return nil
}

// CallFunction runs a view method and returns the raw bytes it produced.
func (c *Client) CallFunction(ctx context.Context, contractID, method string, args interface{}) ([]byte, error) {
	var data []byte
	if args != nil {
		b, err := json.Marshal(args)
		if err != nil {
			return nil, errors.Wrapf(err, "encode args for %s", method)
		}
		data = b
	} else {
		data = []byte("{}")
	}
	var res queryResult
	if err := c.query(ctx, "call/"+contractID+"/"+method, data, &res); err != nil {
		return nil, err
	}
	out := make([]byte, len(res.RawResult))
	for i, v := range res.RawResult {
		out[i] = byte(v)
	}
	return out, nil
}

type AccessKeyView struct {
	Nonce     uint64 `json:"nonce"`
	BlockHash string `json:"block_hash"`
}

func (c *Client) ViewAccessKey(ctx context.Context, accountID string, pk PublicKey) (*AccessKeyView, error) {
	var v AccessKeyView
	if err := c.query(ctx, "access_key/"+accountID+"/"+pk.String(), nil, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// NextNonce returns the nonce to use for the next transaction signed by pk and
// the latest block hash. The nonce is cached so back to back calls do not reuse it.
func (c *Client) NextNonce(ctx context.Context, accountID string, pk PublicKey) (uint64, [32]byte, error) {
	view, err := c.ViewAccessKey(ctx, accountID, pk)
	if err != nil {
		return 0, [32]byte{}, err
	}
	hash, err := ParseBlockHash(view.BlockHash)
	if err != nil {
		return 0, [32]byte{}, err
	}
	nonce := view.Nonce + 1
	key := accountID + "|" + pk.String()
	if last, ok := c.nonces.Get(key); ok {
		if n := last.(uint64); n >= nonce {
			nonce = n + 1
		}
	}
	c.nonces.Add(key, nonce)
	return nonce, hash, nil
}

// ForgetNonce drops the cached nonce, used after a rejected transaction.
func (c *Client) ForgetNonce(accountID string, pk PublicKey) {
	c.nonces.Remove(accountID + "|" + pk.String())
}

// BroadcastTxAsync submits a signed transaction without waiting for it to be
// included and returns its hash.
func (c *Client) BroadcastTxAsync(ctx context.Context, st *SignedTransaction) (string, error) {
	enc, err := st.Base64()
	if err != nil {
		return "", err
	}
	var hash string
	if err := c.rpc.CallContext(ctx, &hash, "broadcast_tx_async", enc); err != nil {
		return "", errors.Wrap(err, "broadcast_tx_async")
	}
	return strings.TrimSpace(hash), nil
}
