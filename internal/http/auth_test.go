package handlers_test

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"nearauction/internal/wallet"
)

func TestLoginRedirectsToWalletWithSession(t *testing.T) {
	app, _ := newTestApp(t, &fakeAuction{})

	resp := get(t, app, "/login", "")
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected redirect, got %d", resp.StatusCode)
	}
	sid := extractCookie(resp, "sid")
	if sid == "" {
		t.Fatal("sid not set before wallet redirect")
	}
	if loc := resp.Header.Get("Location"); !strings.HasPrefix(loc, "https://wallet.test/login/") || !strings.HasSuffix(loc, sid) {
		t.Fatalf("unexpected wallet url %q", loc)
	}
}

func TestCallbackRejectsBadState(t *testing.T) {
	app, w := newTestApp(t, &fakeAuction{})
	w.completeErr = fmt.Errorf("%w: session mismatch", wallet.ErrBadState)

	resp := get(t, app, "/auth/callback?state=x&account_id=mallory.testnet", "sid-x")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	w.completeErr = nil
	resp = get(t, app, "/auth/callback?state=x&account_id=carol.testnet", "sid-x")
	if resp.StatusCode != http.StatusFound || resp.Header.Get("Location") != "/" {
		t.Fatalf("expected redirect home, got %d %s", resp.StatusCode, resp.Header.Get("Location"))
	}
}

func TestLogoutUnbindsSession(t *testing.T) {
	app, w := newTestApp(t, &fakeAuction{})

	resp := postForm(t, app, "/logout", sidCarol, "")
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected redirect, got %d", resp.StatusCode)
	}
	if len(w.logouts) != 1 || w.logouts[0] != sidCarol {
		t.Fatalf("logout not forwarded: %v", w.logouts)
	}
	if _, ok := w.sessions[sidCarol]; ok {
		t.Fatal("session still bound")
	}
}
