package handlers

import (
	"nearauction/internal/config"
)

type Deps struct {
	MainHandler     *MainHandler
	LotsHandler     *LotsHandler
	AccountsHandler *AccountsHandler
	AuthHandler     *AuthHandler
	AdminHandler    *AdminHandler
}

func NewDeps(cfg config.Config, auction Auction, wallet Wallet, calls CallLog) *Deps {
	return &Deps{
		MainHandler:     &MainHandler{Auction: auction, RefreshInterval: cfg.RefreshInterval},
		LotsHandler:     &LotsHandler{Auction: auction, PublicURL: cfg.PublicURL},
		AccountsHandler: &AccountsHandler{Wallet: wallet},
		AuthHandler:     &AuthHandler{Wallet: wallet},
		AdminHandler:    &AdminHandler{Auction: auction, Calls: calls},
	}
}
