package wallet

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"

	"nearauction/internal/contract"
	"nearauction/internal/near"
	"nearauction/internal/repos"
	"nearauction/internal/validate"
)

// ErrBadState means a wallet callback does not match a sign-in this browser
// started.
var ErrBadState = errors.New("wallet callback does not match a pending sign-in")

const stateTTL = 15 * time.Minute

type Sessions interface {
	Get(sid string) (repos.SessionRow, error)
	SetPending(sid, publicKey string) error
	Bind(sid, accountID, publicKey string) error
	Unbind(sid string) error
}

type Keys interface {
	Put(ctx context.Context, accountID string, kp *near.KeyPair) error
	Get(ctx context.Context, publicKey string) (*near.KeyPair, error)
	Claim(ctx context.Context, publicKey, accountID string) error
}

// Node looks up access keys on chain; *near.Client satisfies it.
type Node interface {
	ViewAccessKey(ctx context.Context, accountID string, pk near.PublicKey) (*near.AccessKeyView, error)
}

type Config struct {
	WalletURL   string
	ContractID  string
	PublicURL   string
	StateSecret string
}

type Service struct {
	sessions   Sessions
	keys       Keys
	node       Node
	state      *StateTokens
	walletURL  string
	contractID string
	publicURL  string
	logs       *zap.SugaredLogger
}

func NewService(sessions Sessions, keys Keys, node Node, cfg Config, logs *zap.SugaredLogger) *Service {
	if logs == nil {
		logs = zap.NewNop().Sugar()
	}
	return &Service{
		sessions:   sessions,
		keys:       keys,
		node:       node,
		state:      NewStateTokens([]byte(cfg.StateSecret), stateTTL),
		walletURL:  strings.TrimRight(cfg.WalletURL, "/"),
		contractID: cfg.ContractID,
		publicURL:  strings.TrimRight(cfg.PublicURL, "/"),
		logs:       logs,
	}
}

// LoginURL starts a sign-in for the browser session sid: a fresh function-call
// key is stored as pending and the wallet is asked to add it for the contract.
func (s *Service) LoginURL(ctx context.Context, sid string) (string, error) {
	kp, err := near.GenerateKeyPair()
	if err != nil {
		return "", err
	}
	pk := kp.PublicKey().String()
	if err := s.keys.Put(ctx, "", kp); err != nil {
		return "", fmt.Errorf("store pending key: %w", err)
	}
	if err := s.sessions.SetPending(sid, pk); err != nil {
		return "", fmt.Errorf("set pending key: %w", err)
	}
	state, err := s.state.Issue(sid, pk)
	if err != nil {
		return "", err
	}

	success := s.publicURL + "/auth/callback?" + url.Values{"state": {state}}.Encode()
	failure := s.publicURL + "/?" + url.Values{"login": {"failed"}}.Encode()
	q := url.Values{}
	q.Set("success_url", success)
	q.Set("failure_url", failure)
	q.Set("contract_id", s.contractID)
	q.Set("public_key", pk)
	return s.walletURL + "/login/?" + q.Encode(), nil
}

// Complete finishes the sign-in the wallet redirected back for.
func (s *Service) Complete(ctx context.Context, sid, state, accountID, publicKey string) error {
	stateSID, pk, err := s.state.Parse(state)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadState, err)
	}
	if stateSID != sid {
		return fmt.Errorf("%w: session mismatch", ErrBadState)
	}
	if publicKey != "" && publicKey != pk {
		return fmt.Errorf("%w: wallet approved a different key", ErrBadState)
	}
	account, ok := validate.AccountID(accountID)
	if !ok {
		return fmt.Errorf("%w: bad account id", ErrBadState)
	}
	row, err := s.sessions.Get(sid)
	if err != nil {
		return err
	}
	if row.PendingPublicKey.String != pk {
		return fmt.Errorf("%w: no pending key for session", ErrBadState)
	}
	// The query string is user supplied; the key must be on chain for account.
	key, err := near.ParsePublicKey(pk)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadState, err)
	}
	if _, err := s.node.ViewAccessKey(ctx, account, key); err != nil {
		var qe *near.QueryError
		var re rpc.Error
		if errors.As(err, &qe) || errors.As(err, &re) {
			return fmt.Errorf("%w: key not on %s: %v", ErrBadState, account, err)
		}
		return fmt.Errorf("view access key: %w", err)
	}
	if err := s.keys.Claim(ctx, pk, account); err != nil {
		return fmt.Errorf("claim key: %w", err)
	}
	if err := s.sessions.Bind(sid, account, pk); err != nil {
		return fmt.Errorf("bind session: %w", err)
	}
	s.logs.Infow("wallet sign-in", "account", account, "public_key", pk)
	return nil
}

// Logout unbinds the browser session. The key stays in the store; the wallet
// still lists it until the user removes it there.
func (s *Service) Logout(sid string) error {
	return s.sessions.Unbind(sid)
}

// Session resolves the identity a request acts as. Browsers that never signed
// in get an anonymous session.
func (s *Service) Session(ctx context.Context, sid string) (*contract.Session, error) {
	row, err := s.sessions.Get(sid)
	if err != nil {
		return nil, err
	}
	if !row.AccountID.Valid || row.AccountID.String == "" {
		return &contract.Session{}, nil
	}
	kp, err := s.keys.Get(ctx, row.PublicKey.String)
	if errors.Is(err, repos.ErrKeyNotFound) {
		s.logs.Warnw("session key missing, signing out", "account", row.AccountID.String)
		return &contract.Session{}, s.sessions.Unbind(sid)
	}
	if err != nil {
		return nil, err
	}
	return &contract.Session{AccountID: row.AccountID.String, Key: kp}, nil
}
