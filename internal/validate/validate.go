package validate

import (
	"regexp"
	"strings"

	"github.com/jellydator/validation"
)

var (
	// NEAR account ids: dot separated parts of lowercase alnum joined by - or _
	reAccount = regexp.MustCompile(`^(([a-z\d]+[\-_])*[a-z\d]+\.)*([a-z\d]+[\-_])*[a-z\d]+$`)
	reHash    = regexp.MustCompile(`^[A-Za-z0-9_\-+/=]{1,128}$`)
	reSection = regexp.MustCompile(`^(accounts|auctions|items)$`)
	reMinBid  = regexp.MustCompile(`^[1-9][0-9]*$`)
)

// maxBidLen fits the longest u128 yoctoNEAR value written in NEAR with its
// decimal point.
const maxBidLen = 40

const u128Max = "340282366920938463463374607431768211455"

// MinBid keeps only the digits of s. An empty result or zero fails.
func MinBid(s string) (string, bool) {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := strings.TrimLeft(b.String(), "0")
	if digits == "" {
		return "", false
	}
	if len(digits) > len(u128Max) || len(digits) == len(u128Max) && digits > u128Max {
		return "", false
	}
	return digits, true
}

// Item validates a lot name.
func Item(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > 64 {
		return "", false
	}
	return s, true
}

func AccountID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || len(s) > 64 {
		return "", false
	}
	return s, reAccount.MatchString(s)
}

// ItemHash validates the opaque lot id the contract hands out.
func ItemHash(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, reHash.MatchString(s)
}

// BidAmount defaults an empty bid to one NEAR. Over-long input fails rather
// than being cut down to a different amount.
func BidAmount(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "1", true
	}
	if len(s) > maxBidLen {
		return "", false
	}
	return s, true
}

// Sections filters the ?open= list down to known sidebar sections.
func Sections(raw []string) map[string]bool {
	out := map[string]bool{}
	for _, r := range raw {
		for _, p := range strings.Split(r, ",") {
			p = strings.ToLower(strings.TrimSpace(p))
			if reSection.MatchString(p) {
				out[p] = true
			}
		}
	}
	return out
}

// AddItemForm is the admin "add item" submission after sanitizing.
type AddItemForm struct {
	Item   string
	MinBid string
}

func NewAddItemForm(item, minBid string) AddItemForm {
	digits, _ := MinBid(minBid)
	return AddItemForm{Item: strings.TrimSpace(item), MinBid: digits}
}

func (f AddItemForm) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.Item, validation.Required, validation.Length(1, 64)),
		validation.Field(&f.MinBid, validation.Required, validation.Match(reMinBid)),
	)
}
