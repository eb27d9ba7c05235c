package contract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"nearauction/internal/domain"
)

// amount accepts a u128 sent either as a JSON string or a bare number.
type amount string

func (a *amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = amount(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("amount %s: %w", b, err)
	}
	*a = amount(n.String())
	return nil
}

type wireLot struct {
	Item       string `json:"item"`
	CurrentBid amount `json:"current_bid"`
	Winner     string `json:"winner"`
	Supplier   string `json:"supplier"`
	ItemHash   string `json:"item_hash"`
}

// decodeView unmarshals a view call result. Some contract methods return their
// JSON serialized a second time inside a JSON string; both shapes are accepted.
func decodeView(raw []byte, out any) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return err
		}
		if strings.TrimSpace(inner) == "" {
			return nil
		}
		raw = []byte(inner)
	}
	return json.Unmarshal(raw, out)
}

// NormalizeLots annotates contract lots for the viewing account. An anonymous
// viewer is never the winner or the supplier.
func NormalizeLots(raw []domain.Lot, account string) []domain.Lot {
	out := make([]domain.Lot, 0, len(raw))
	for _, l := range raw {
		l.AreYouWinner = account != "" && l.Winner == account
		l.AreYouSupplier = account != "" && l.Supplier == account
		l.IsOwner = l.AreYouSupplier
		out = append(out, l)
	}
	return out
}

// BidEligible drops the lots the viewer supplied; a supplier can not bid on
// their own item.
func BidEligible(lots []domain.Lot) []domain.Lot {
	out := make([]domain.Lot, 0, len(lots))
	for _, l := range lots {
		if l.AreYouSupplier {
			continue
		}
		out = append(out, l)
	}
	return out
}

func fromWire(w []wireLot) []domain.Lot {
	out := make([]domain.Lot, 0, len(w))
	for _, l := range w {
		out = append(out, domain.Lot{
			Item:       l.Item,
			CurrentBid: string(l.CurrentBid),
			Winner:     l.Winner,
			Supplier:   l.Supplier,
			ItemHash:   l.ItemHash,
		})
	}
	return out
}
