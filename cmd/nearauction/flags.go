package main

import (
	cli "gopkg.in/urfave/cli.v1"

	"nearauction/internal/config"
)

var (
	portFlag = cli.StringFlag{
		Name:  "port",
		Usage: "HTTP listen port (overrides PORT)",
	}
	dbFlag = cli.StringFlag{
		Name:  "db",
		Usage: "sqlite DSN (overrides DB_DSN)",
	}
	logFileFlag = cli.StringFlag{
		Name:  "log-file",
		Usage: "mirror JSON logs to this file (overrides LOG_FILE)",
	}
	networkFlag = cli.StringFlag{
		Name:  "network",
		Usage: "the NEAR network to use (testnet|mainnet|<preset>)",
	}
	networksFileFlag = cli.StringFlag{
		Name:  "networks-file",
		Usage: "yaml file with extra network presets",
	}
	nodeURLFlag = cli.StringFlag{
		Name:  "node-url",
		Usage: "NEAR JSON-RPC endpoint (overrides the network preset)",
	}
	contractFlag = cli.StringFlag{
		Name:  "contract",
		Usage: "account id of the auction contract",
	}
	adminsFlag = cli.StringSliceFlag{
		Name:  "admin",
		Usage: "account allowed to use /admin; repeatable",
	}
	publicURLFlag = cli.StringFlag{
		Name:  "public-url",
		Usage: "external base URL the wallet redirects back to",
	}
)

// applyFlags lets explicitly set flags win over the environment.
func applyFlags(ctx *cli.Context, cfg *config.Config) error {
	if ctx.IsSet(portFlag.Name) {
		cfg.Port = ctx.String(portFlag.Name)
	}
	if ctx.IsSet(dbFlag.Name) {
		cfg.DBDSN = ctx.String(dbFlag.Name)
	}
	if ctx.IsSet(logFileFlag.Name) {
		cfg.LogFile = ctx.String(logFileFlag.Name)
	}
	if ctx.IsSet(networkFlag.Name) || ctx.IsSet(networksFileFlag.Name) {
		networks, err := config.LoadNetworks(ctx.String(networksFileFlag.Name))
		if err != nil {
			return err
		}
		if ctx.IsSet(networkFlag.Name) {
			cfg.NetworkID = ctx.String(networkFlag.Name)
		}
		if n, ok := networks[cfg.NetworkID]; ok {
			cfg.Network = n
		}
	}
	if ctx.IsSet(nodeURLFlag.Name) {
		cfg.Network.NodeURL = ctx.String(nodeURLFlag.Name)
	}
	if ctx.IsSet(contractFlag.Name) {
		cfg.ContractName = ctx.String(contractFlag.Name)
	}
	if ctx.IsSet(adminsFlag.Name) {
		cfg.AdminAccounts = ctx.StringSlice(adminsFlag.Name)
	}
	if ctx.IsSet(publicURLFlag.Name) {
		cfg.PublicURL = ctx.String(publicURLFlag.Name)
	}
	return nil
}
