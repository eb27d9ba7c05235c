package config

import (
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v2"

	applog "nearauction/internal/log"
)

// Network holds the endpoints of one NEAR network.
type Network struct {
	NodeURL   string `yaml:"node_url"`
	WalletURL string `yaml:"wallet_url"`
	HelperURL string `yaml:"helper_url"`
}

var presets = map[string]Network{
	"testnet": {
		NodeURL:   "https://rpc.testnet.near.org",
		WalletURL: "https://wallet.testnet.near.org",
		HelperURL: "https://helper.testnet.near.org",
	},
	"mainnet": {
		NodeURL:   "https://rpc.mainnet.near.org",
		WalletURL: "https://wallet.near.org",
		HelperURL: "https://helper.mainnet.near.org",
	},
}

type Config struct {
	Port            string
	DBDSN           string
	LogFile         string
	NetworkID       string
	Network         Network
	ContractName    string
	AdminAccounts   []string
	KeystoreSecret  string
	StateSecret     string
	PublicURL       string
	RefreshInterval time.Duration
	CallTimeout     time.Duration
}

func (c Config) IsAdmin(accountID string) bool {
	for _, a := range c.AdminAccounts {
		if a == accountID {
			return true
		}
	}
	return false
}

func env(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func duration(key string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil && d > 0 {
		return d
	}
	return def
}

// LoadNetworks reads network presets from a yaml file keyed by network id.
// Entries override the built-in testnet/mainnet presets.
func LoadNetworks(path string) (map[string]Network, error) {
	out := make(map[string]Network, len(presets))
	for k, v := range presets {
		out[k] = v
	}
	if path == "" {
		return out, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file map[string]Network
	if err := yaml.Unmarshal(b, &file); err != nil {
		return nil, err
	}
	for k, v := range file {
		out[k] = v
	}
	return out, nil
}

func Load() Config {
	networkID := env("NEAR_NETWORK", "testnet")
	networks, err := LoadNetworks(os.Getenv("NETWORKS_FILE"))
	if err != nil {
		applog.Error(nil, "config.networks.fail", err, map[string]any{"file": os.Getenv("NETWORKS_FILE")})
		networks, _ = LoadNetworks("")
	}
	net := networks[networkID]
	net.NodeURL = env("NEAR_NODE_URL", net.NodeURL)
	net.WalletURL = env("NEAR_WALLET_URL", net.WalletURL)
	net.HelperURL = env("NEAR_HELPER_URL", net.HelperURL)

	var admins []string
	for _, a := range strings.Split(os.Getenv("ADMIN_ACCOUNTS"), ",") {
		if a = strings.TrimSpace(a); a != "" {
			admins = append(admins, a)
		}
	}

	cfg := Config{
		Port:            env("PORT", "8080"),
		DBDSN:           env("DB_DSN", "nearauction.db"),
		LogFile:         env("LOG_FILE", "./nearauction.log"),
		NetworkID:       networkID,
		Network:         net,
		ContractName:    env("CONTRACT_NAME", "contract.msolomodenko.testnet"),
		AdminAccounts:   admins,
		KeystoreSecret:  env("KEYSTORE_SECRET", "dev-keystore-secret-change-me"),
		StateSecret:     env("STATE_SECRET", "dev-state-secret-change-me"),
		PublicURL:       strings.TrimRight(env("PUBLIC_URL", "http://localhost:8080"), "/"),
		RefreshInterval: duration("REFRESH_INTERVAL", 15*time.Second),
		CallTimeout:     duration("CALL_TIMEOUT", 10*time.Second),
	}
	applog.Info(nil, "config.load", map[string]any{
		"port": cfg.Port, "db": cfg.DBDSN, "network": cfg.NetworkID, "node": cfg.Network.NodeURL,
		"contract": cfg.ContractName, "admins": cfg.AdminAccounts,
	})
	return cfg
}
