package models

import "time"

// Wallet provider tags
const (
	ProviderMnemonic = "mnemonic"
	ProviderKMD      = "kmd"
)

// WalletAccount is the account produced by a successful provider connect.
// Exactly one is active per session; connecting again replaces it.
type WalletAccount struct {
	Address     string    `json:"address"`
	DisplayName string    `json:"display_name,omitempty"`
	Provider    string    `json:"provider"`
	ConnectedAt time.Time `json:"connected_at"`
}
