package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"nearauction/internal/config"
)

func TestLoadNetworksMergesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "networks.yaml")
	yml := "localnet:\n  node_url: http://127.0.0.1:3030\n  wallet_url: http://127.0.0.1:4000\n"
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}
	nets, err := config.LoadNetworks(path)
	if err != nil {
		t.Fatal(err)
	}
	if nets["localnet"].NodeURL != "http://127.0.0.1:3030" {
		t.Fatalf("localnet preset missing: %+v", nets)
	}
	if nets["testnet"].NodeURL == "" {
		t.Fatal("built-in presets dropped")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("NEAR_NETWORK", "mainnet")
	t.Setenv("NEAR_NODE_URL", "http://node.local")
	t.Setenv("ADMIN_ACCOUNTS", " admin.near, ops.near ,")
	t.Setenv("CALL_TIMEOUT", "3s")
	t.Setenv("PUBLIC_URL", "https://auction.example/")

	cfg := config.Load()
	if cfg.Network.NodeURL != "http://node.local" || cfg.Network.WalletURL != "https://wallet.near.org" {
		t.Fatalf("network: %+v", cfg.Network)
	}
	if !cfg.IsAdmin("ops.near") || cfg.IsAdmin("bob.near") || len(cfg.AdminAccounts) != 2 {
		t.Fatalf("admins: %v", cfg.AdminAccounts)
	}
	if cfg.CallTimeout != 3*time.Second || cfg.PublicURL != "https://auction.example" {
		t.Fatalf("cfg: %+v", cfg)
	}
}
