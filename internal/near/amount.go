package near

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// NominationExp is the number of decimals between NEAR and yoctoNEAR.
const NominationExp = 24

var ErrInvalidAmount = errors.New("invalid amount")

// ParseNearAmount converts a human readable NEAR amount ("1.5", "1,000") into
// an integer yoctoNEAR string. Results that do not fit a u128 deposit fail.
func ParseNearAmount(s string) (string, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return "", ErrInvalidAmount
	}
	if i := strings.IndexByte(s, '.'); i >= 0 && len(s)-i-1 > NominationExp {
		return "", ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return "", ErrInvalidAmount
	}
	y := d.Shift(NominationExp)
	if !y.IsInteger() || y.BigInt().BitLen() > 128 {
		return "", ErrInvalidAmount
	}
	return y.StringFixed(0), nil
}

// FormatNearAmount renders a yoctoNEAR integer string as NEAR, grouping the
// integer part by thousands and trimming trailing zeros. Unparseable input is
// returned unchanged.
func FormatNearAmount(yocto string) string {
	d, err := decimal.NewFromString(strings.TrimSpace(yocto))
	if err != nil {
		return yocto
	}
	s := d.Shift(-NominationExp).String()
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	whole, frac, _ := strings.Cut(s, ".")
	out := groupThousands(whole)
	if frac != "" {
		out += "." + frac
	}
	if neg {
		out = "-" + out
	}
	return out
}

func groupThousands(s string) string {
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	head := len(s) % 3
	if head > 0 {
		b.WriteString(s[:head])
	}
	for i := head; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
