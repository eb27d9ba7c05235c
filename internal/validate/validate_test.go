package validate_test

import (
	"testing"

	"nearauction/internal/validate"
)

func TestMinBid(t *testing.T) {
	ok := map[string]string{
		"100":     "100",
		" 1,000 ": "1000",
		"12abc":   "12",
		"007":     "7",
		"1.5":     "15",
		"340282366920938463463374607431768211455": "340282366920938463463374607431768211455",
	}
	for in, want := range ok {
		got, valid := validate.MinBid(in)
		if !valid || got != want {
			t.Fatalf("MinBid(%q) = %q,%v want %q", in, got, valid, want)
		}
	}
	for _, bad := range []string{"", "0", "000", "abc", "-", "1234567890123456789012345678901234567890",
		"340282366920938463463374607431768211456"} {
		if _, valid := validate.MinBid(bad); valid {
			t.Fatalf("MinBid(%q) should fail", bad)
		}
	}
}

func TestAccountID(t *testing.T) {
	for _, good := range []string{"bob.testnet", "alice_01.testnet", "a-b.near", "98793cd91a3f870fb126f66285808c7e094afcfc4eda8a970f6648cdf0dbd6de"} {
		if _, ok := validate.AccountID(good); !ok {
			t.Fatalf("AccountID(%q) should pass", good)
		}
	}
	for _, bad := range []string{"", "a", "Bob.testnet", "bob..testnet", ".bob", "bob.", "bob testnet", "<script>"} {
		if _, ok := validate.AccountID(bad); ok {
			t.Fatalf("AccountID(%q) should fail", bad)
		}
	}
}

func TestAddItemForm(t *testing.T) {
	if err := validate.NewAddItemForm("sword", "5 NEAR").Validate(); err != nil {
		t.Fatalf("want valid, got %v", err)
	}
	if err := validate.NewAddItemForm("", "5").Validate(); err == nil {
		t.Fatal("empty item should fail")
	}
	if err := validate.NewAddItemForm("sword", "0").Validate(); err == nil {
		t.Fatal("zero min bid should fail")
	}
	if f := validate.NewAddItemForm("  sword ", "1,5"); f.Item != "sword" || f.MinBid != "15" {
		t.Fatalf("sanitize: %+v", f)
	}
}

func TestSectionsAndBidAmount(t *testing.T) {
	got := validate.Sections([]string{"Items,auctions", "bogus"})
	if !got["items"] || !got["auctions"] || got["bogus"] || len(got) != 2 {
		t.Fatalf("sections: %v", got)
	}
	if v, ok := validate.BidAmount("  "); !ok || v != "1" {
		t.Fatalf("bid amount default: %q %v", v, ok)
	}
	if v, ok := validate.BidAmount(" 2.5 "); !ok || v != "2.5" {
		t.Fatalf("bid amount: %q %v", v, ok)
	}
	u128Max := "340282366920938.463463374607431768211455"
	if v, ok := validate.BidAmount(u128Max); !ok || v != u128Max {
		t.Fatalf("u128 max rejected: %q %v", v, ok)
	}
	if v, ok := validate.BidAmount(u128Max + "1"); ok || v != "" {
		t.Fatalf("over-long bid accepted as %q", v)
	}
}
