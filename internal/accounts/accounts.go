// Package accounts maintains the list of wallet accounts a browser has used,
// kept client side in a single cookie.
package accounts

import (
	"encoding/base64"
	"encoding/json"
	"strings"

	"nearauction/internal/domain"
)

// CookieName is the fixed key the list is stored under.
const CookieName = "usersAccounts"

// Decode parses the cookie value: a JSON array of [id, active] pairs, either
// raw or base64url encoded. Malformed input yields an empty list. Duplicate ids
// keep their first position and their last flag.
func Decode(raw string) []domain.KnownAccount {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	b := []byte(raw)
	if dec, err := base64.RawURLEncoding.DecodeString(raw); err == nil {
		b = dec
	}
	var pairs [][]json.RawMessage
	if err := json.Unmarshal(b, &pairs); err != nil {
		return nil
	}
	var out []domain.KnownAccount
	pos := map[string]int{}
	for _, p := range pairs {
		if len(p) != 2 {
			continue
		}
		var id string
		var active bool
		if json.Unmarshal(p[0], &id) != nil || id == "" {
			continue
		}
		_ = json.Unmarshal(p[1], &active)
		if i, ok := pos[id]; ok {
			out[i].Active = active
			continue
		}
		pos[id] = len(out)
		out = append(out, domain.KnownAccount{ID: id, Active: active})
	}
	return out
}

// Encode is the inverse of Decode, always base64url so the value is a valid
// cookie octet sequence.
func Encode(list []domain.KnownAccount) string {
	pairs := make([][2]any, 0, len(list))
	for _, a := range list {
		pairs = append(pairs, [2]any{a.ID, a.Active})
	}
	b, _ := json.Marshal(pairs)
	return base64.RawURLEncoding.EncodeToString(b)
}

// Refresh folds the current session account into the list: it moves to the end
// and becomes the only active entry. With no session account only the last
// active entry keeps its flag.
func Refresh(list []domain.KnownAccount, current string) []domain.KnownAccount {
	out := make([]domain.KnownAccount, 0, len(list)+1)
	if current == "" {
		last := -1
		for i, a := range list {
			if a.Active {
				last = i
			}
		}
		for i, a := range list {
			out = append(out, domain.KnownAccount{ID: a.ID, Active: i == last})
		}
		return out
	}
	for _, a := range list {
		if a.ID == current {
			continue
		}
		out = append(out, domain.KnownAccount{ID: a.ID})
	}
	return append(out, domain.KnownAccount{ID: current, Active: true})
}

// DeactivateAll clears every active flag, keeping order.
func DeactivateAll(list []domain.KnownAccount) []domain.KnownAccount {
	out := make([]domain.KnownAccount, len(list))
	for i, a := range list {
		out[i] = domain.KnownAccount{ID: a.ID}
	}
	return out
}

// Active returns the active account id, if any.
func Active(list []domain.KnownAccount) string {
	for _, a := range list {
		if a.Active {
			return a.ID
		}
	}
	return ""
}
