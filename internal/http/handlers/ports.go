package handlers

import (
	"context"

	"nearauction/internal/contract"
	"nearauction/internal/domain"
)

// Auction is the contract bridge as the views use it.
type Auction interface {
	ListItems(ctx context.Context, s *contract.Session) contract.Result[[]string]
	ListLots(ctx context.Context, s *contract.Session) contract.Result[[]domain.Lot]
	AuctionIsOpen(ctx context.Context, s *contract.Session) contract.Result[bool]
	AddItem(ctx context.Context, s *contract.Session, item, minBid string) contract.Result[contract.Submission]
	StartAuction(ctx context.Context, s *contract.Session) contract.Result[contract.Submission]
	ProduceAuction(ctx context.Context, s *contract.Session) contract.Result[contract.Submission]
	PlaceBid(ctx context.Context, s *contract.Session, itemHash, amountNEAR, callbackURL string) contract.Result[contract.Submission]
}

type Wallet interface {
	LoginURL(ctx context.Context, sid string) (string, error)
	Complete(ctx context.Context, sid, state, accountID, publicKey string) error
	Logout(sid string) error
	Session(ctx context.Context, sid string) (*contract.Session, error)
}

type CallLog interface {
	Latest(limit int) ([]domain.BridgeCall, error)
}
