package contract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"nearauction/internal/domain"
	"nearauction/internal/near"
)

var (
	ErrNoSession = errors.New("no wallet session")
	ErrBusy      = errors.New("another request for this action is in flight")
)

// Contract method names.
const (
	MethodGetItems        = "get_items"
	MethodGetLots         = "get_lots"
	MethodGetAuctionState = "get_auction_state"
	MethodAddItem         = "add_item_to_auction"
	MethodStartAuction    = "start_new_auction"
	MethodProduceAuction  = "produce_auction"
	MethodMakeBid         = "make_bid"
)

// produce_auction settles every lot in one call.
const produceGas uint64 = 300_000_000_000_000

// Node is the part of the NEAR client the bridge uses; *near.Client
// satisfies it.
type Node interface {
	CallFunction(ctx context.Context, contractID, method string, args interface{}) ([]byte, error)
	NextNonce(ctx context.Context, accountID string, pk near.PublicKey) (uint64, [32]byte, error)
	ForgetNonce(accountID string, pk near.PublicKey)
	BroadcastTxAsync(ctx context.Context, st *near.SignedTransaction) (string, error)
}

// Recorder keeps an audit trail of mutating calls.
type Recorder interface {
	RecordCall(ctx context.Context, call domain.BridgeCall) error
}

// Session is the wallet-bound identity a request acts as. The zero AccountID
// is an anonymous viewer who may only read.
type Session struct {
	AccountID string
	Key       *near.KeyPair
}

func (s *Session) SignedIn() bool { return s != nil && s.AccountID != "" }

func (s *Session) account() string {
	if s == nil {
		return ""
	}
	return s.AccountID
}

// Submission is what a mutating call produced: either the hash of a
// broadcast transaction or a wallet URL the user must approve it at.
type Submission struct {
	TxHash  string
	SignURL string
}

type Options struct {
	ContractID string
	WalletURL  string
	Timeout    time.Duration
	Logger     *zap.SugaredLogger
	Metrics    *Metrics
	Inflight   *Inflight
	Audit      Recorder
}

type Bridge struct {
	node       Node
	contractID string
	walletURL  string
	timeout    time.Duration
	logs       *zap.SugaredLogger
	metrics    *Metrics
	inflight   *Inflight
	audit      Recorder
}

func New(node Node, opts Options) *Bridge {
	b := &Bridge{
		node:       node,
		contractID: opts.ContractID,
		walletURL:  strings.TrimRight(opts.WalletURL, "/"),
		timeout:    opts.Timeout,
		logs:       opts.Logger,
		metrics:    opts.Metrics,
		inflight:   opts.Inflight,
		audit:      opts.Audit,
	}
	if b.logs == nil {
		b.logs = zap.NewNop().Sugar()
	}
	if b.inflight == nil {
		b.inflight = NewInflight()
	}
	return b
}

// Dial connects to the node and checks it answers before any call is made.
// A bridge that fails here is never handed out.
func Dial(ctx context.Context, nodeURL string, opts Options) (*Bridge, *near.Client, error) {
	client, err := near.Dial(ctx, nodeURL)
	if err != nil {
		return nil, nil, err
	}
	st, err := client.Status(ctx)
	if err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("probe node %s: %w", nodeURL, err)
	}
	if opts.Logger != nil {
		opts.Logger.Infow("connected to near node", "node", nodeURL, "chain_id", st.ChainID,
			"height", st.SyncInfo.LatestBlockHeight, "contract", opts.ContractID)
	}
	return New(client, opts), client, nil
}

func (b *Bridge) ContractID() string { return b.contractID }

func (b *Bridge) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if b.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, b.timeout)
}

func (b *Bridge) view(ctx context.Context, s *Session, method string, args any, out any) error {
	if s == nil {
		return ErrNoSession
	}
	ctx, cancel := b.withTimeout(ctx)
	defer cancel()
	raw, err := b.node.CallFunction(ctx, b.contractID, method, args)
	if err != nil {
		return err
	}
	if err := decodeView(raw, out); err != nil {
		return fmt.Errorf("decode %s result: %w", method, err)
	}
	return nil
}

// ListItems returns the items the session account won.
func (b *Bridge) ListItems(ctx context.Context, s *Session) Result[[]string] {
	start := time.Now()
	args := map[string]any{}
	if s.SignedIn() {
		args["account_id"] = s.AccountID
	}
	var items []string
	if err := b.view(ctx, s, MethodGetItems, args, &items); err != nil {
		b.logs.Errorw("list items failed", "account", s.account(), "error", err)
		b.metrics.observe(MethodGetItems, Failed, start)
		return failed[[]string](err)
	}
	r := succeeded(items, len(items) == 0)
	b.metrics.observe(MethodGetItems, r.Kind, start)
	return r
}

// ListLots returns the open lots annotated for the session account.
func (b *Bridge) ListLots(ctx context.Context, s *Session) Result[[]domain.Lot] {
	start := time.Now()
	var wire []wireLot
	if err := b.view(ctx, s, MethodGetLots, nil, &wire); err != nil {
		b.logs.Errorw("list lots failed", "account", s.account(), "error", err)
		b.metrics.observe(MethodGetLots, Failed, start)
		return failed[[]domain.Lot](err)
	}
	lots := NormalizeLots(fromWire(wire), s.account())
	r := succeeded(lots, len(lots) == 0)
	b.metrics.observe(MethodGetLots, r.Kind, start)
	return r
}

func (b *Bridge) AuctionIsOpen(ctx context.Context, s *Session) Result[bool] {
	start := time.Now()
	var open bool
	if err := b.view(ctx, s, MethodGetAuctionState, nil, &open); err != nil {
		b.logs.Errorw("auction state failed", "account", s.account(), "error", err)
		b.metrics.observe(MethodGetAuctionState, Failed, start)
		return failed[bool](err)
	}
	b.metrics.observe(MethodGetAuctionState, OK, start)
	return succeeded(open, false)
}

// AddItem registers item for the running auction with a minimum bid given as
// an integer string.
func (b *Bridge) AddItem(ctx context.Context, s *Session, item, minBid string) Result[Submission] {
	if item == "" || minBid == "" || strings.Trim(minBid, "0123456789") != "" {
		return failed[Submission](fmt.Errorf("add item %q with min bid %q: invalid arguments", item, minBid))
	}
	args := map[string]any{"item": item, "min_bid": json.Number(minBid)}
	return b.change(ctx, s, "add_item", MethodAddItem, args, near.DefaultGas)
}

func (b *Bridge) StartAuction(ctx context.Context, s *Session) Result[Submission] {
	return b.change(ctx, s, "start_auction", MethodStartAuction, map[string]any{}, near.DefaultGas)
}

func (b *Bridge) ProduceAuction(ctx context.Context, s *Session) Result[Submission] {
	return b.change(ctx, s, "produce_auction", MethodProduceAuction, map[string]any{}, produceGas)
}

func (b *Bridge) buildTx(ctx context.Context, s *Session, method string, args any, gas uint64, deposit *big.Int) (near.Transaction, error) {
	payload, err := json.Marshal(args)
	if err != nil {
		return near.Transaction{}, fmt.Errorf("encode %s args: %w", method, err)
	}
	nonce, blockHash, err := b.node.NextNonce(ctx, s.AccountID, s.Key.PublicKey())
	if err != nil {
		return near.Transaction{}, fmt.Errorf("access key for %s: %w", s.AccountID, err)
	}
	return near.Transaction{
		SignerID:   s.AccountID,
		PublicKey:  s.Key.PublicKey(),
		Nonce:      nonce,
		ReceiverID: b.contractID,
		BlockHash:  blockHash,
		Actions: []near.FunctionCall{{
			MethodName: method,
			Args:       payload,
			Gas:        gas,
			Deposit:    deposit,
		}},
	}, nil
}

// change signs a zero-deposit call with the session's function-call key and
// broadcasts it without waiting for the outcome.
func (b *Bridge) change(ctx context.Context, s *Session, action, method string, args any, gas uint64) Result[Submission] {
	start := time.Now()
	if !s.SignedIn() || s.Key == nil {
		b.metrics.observe(method, Failed, start)
		return failed[Submission](ErrNoSession)
	}
	release, err := b.inflight.Acquire(s.AccountID, action)
	if err != nil {
		b.metrics.observe(method, Failed, start)
		return failed[Submission](err)
	}
	defer release()

	ctx, cancel := b.withTimeout(ctx)
	defer cancel()

	res := func() Result[Submission] {
		tx, err := b.buildTx(ctx, s, method, args, gas, nil)
		if err != nil {
			return failed[Submission](err)
		}
		signed, err := near.SignTransaction(tx, s.Key)
		if err != nil {
			return failed[Submission](err)
		}
		hash, err := b.node.BroadcastTxAsync(ctx, signed)
		if err != nil {
			b.node.ForgetNonce(s.AccountID, s.Key.PublicKey())
			return failed[Submission](err)
		}
		return succeeded(Submission{TxHash: hash}, false)
	}()

	if res.Failed() {
		b.logs.Errorw("contract call failed", "method", method, "account", s.AccountID, "error", res.Err)
		b.record(ctx, s.AccountID, action, "", "FAILED", res.Err.Error())
	} else {
		b.logs.Infow("contract call submitted", "method", method, "account", s.AccountID, "tx", res.Value.TxHash)
		b.record(ctx, s.AccountID, action, res.Value.TxHash, "SUBMITTED", "")
	}
	b.metrics.observe(method, res.Kind, start)
	return res
}

// PlaceBid prepares a make_bid call carrying amountNEAR as deposit. Function
// call keys can not attach deposits, so the transaction is handed to the
// wallet, which redirects to callbackURL once the user decides.
func (b *Bridge) PlaceBid(ctx context.Context, s *Session, itemHash, amountNEAR, callbackURL string) Result[Submission] {
	start := time.Now()
	if !s.SignedIn() || s.Key == nil {
		b.metrics.observe(MethodMakeBid, Failed, start)
		return failed[Submission](ErrNoSession)
	}
	if itemHash == "" {
		b.metrics.observe(MethodMakeBid, Failed, start)
		return failed[Submission](errors.New("place bid: missing item hash"))
	}
	yocto, err := near.ParseNearAmount(amountNEAR)
	if err != nil {
		b.metrics.observe(MethodMakeBid, Failed, start)
		return failed[Submission](fmt.Errorf("place bid %q: %w", amountNEAR, err))
	}
	deposit, _ := new(big.Int).SetString(yocto, 10)
	if deposit.Sign() <= 0 {
		b.metrics.observe(MethodMakeBid, Failed, start)
		return failed[Submission](fmt.Errorf("place bid %q: %w", amountNEAR, near.ErrInvalidAmount))
	}

	release, err := b.inflight.Acquire(s.AccountID, "place_bid")
	if err != nil {
		b.metrics.observe(MethodMakeBid, Failed, start)
		return failed[Submission](err)
	}
	defer release()

	ctx, cancel := b.withTimeout(ctx)
	defer cancel()

	tx, err := b.buildTx(ctx, s, MethodMakeBid, map[string]any{"item_hash": itemHash}, near.DefaultGas, deposit)
	if err != nil {
		b.logs.Errorw("prepare bid failed", "account", s.AccountID, "item_hash", itemHash, "error", err)
		b.record(ctx, s.AccountID, "place_bid", "", "FAILED", err.Error())
		b.metrics.observe(MethodMakeBid, Failed, start)
		return failed[Submission](err)
	}
	enc, err := tx.Base64()
	if err != nil {
		b.logs.Errorw("encode bid failed", "account", s.AccountID, "item_hash", itemHash, "error", err)
		b.record(ctx, s.AccountID, "place_bid", "", "FAILED", err.Error())
		b.metrics.observe(MethodMakeBid, Failed, start)
		return failed[Submission](err)
	}
	q := url.Values{}
	q.Set("transactions", enc)
	q.Set("callbackUrl", callbackURL)
	signURL := b.walletURL + "/sign?" + q.Encode()

	b.logs.Infow("bid handed to wallet", "account", s.AccountID, "item_hash", itemHash, "yocto", yocto)
	b.record(ctx, s.AccountID, "place_bid", "", "WALLET", itemHash+" "+yocto)
	b.metrics.observe(MethodMakeBid, OK, start)
	return succeeded(Submission{SignURL: signURL}, false)
}

func (b *Bridge) record(ctx context.Context, account, action, txHash, status, detail string) {
	if b.audit == nil {
		return
	}
	call := domain.BridgeCall{AccountID: account, Action: action, TxHash: txHash, Status: status, Detail: detail}
	if err := b.audit.RecordCall(context.WithoutCancel(ctx), call); err != nil {
		b.logs.Warnw("record bridge call failed", "action", action, "error", err)
	}
}
