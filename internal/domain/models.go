package domain

// Lot is an item currently open for bidding, as the contract reports it plus
// the flags derived for the viewing account.
type Lot struct {
	Item       string `json:"item"`
	CurrentBid string `json:"current_bid"` // yoctoNEAR
	Winner     string `json:"winner"`
	Supplier   string `json:"supplier"`
	ItemHash   string `json:"item_hash"`

	IsOwner        bool `json:"is_owner"`
	AreYouWinner   bool `json:"are_u_winner"`
	AreYouSupplier bool `json:"are_u_supplier"`
}

// KnownAccount is one entry of the browser's cached account list.
type KnownAccount struct {
	ID     string
	Active bool
}

// BridgeCall is an audit row for a mutating contract call.
type BridgeCall struct {
	ID        string `db:"id"`
	AccountID string `db:"account_id"`
	Action    string `db:"action"`
	TxHash    string `db:"tx_hash"`
	Status    string `db:"status"` // SUBMITTED | WALLET | FAILED
	Detail    string `db:"detail"`
	CreatedAt string `db:"created_at"`
}
