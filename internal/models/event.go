package models

import "time"

// Access policies
const (
	AccessPublic    = "public"
	AccessNFTGated  = "nft-gated"
	AccessTimeBased = "time-based"
)

func IsValidAccessType(t string) bool {
	switch t {
	case AccessPublic, AccessNFTGated, AccessTimeBased:
		return true
	}
	return false
}

// DynamicQREvent is the on-chain record behind a printed QR code. It is
// re-decoded from application state on every read; nothing here is cached
// as the source of truth.
type DynamicQREvent struct {
	EventID    string    `json:"event_id"`
	EventName  string    `json:"event_name"`
	CurrentURL string    `json:"current_url"`
	AccessType string    `json:"access_type"`
	Owner      string    `json:"owner"` // checksum address, immutable
	CreatedAt  time.Time `json:"created_at"`

	// ExpiryDate zero means the event never expires.
	ExpiryDate time.Time `json:"expiry_date,omitempty"`

	ScanCount       uint64 `json:"scan_count"`
	Active          bool   `json:"active"`
	RegisteredCount uint64 `json:"registered_count"`

	TicketPriceMicroAlgos uint64 `json:"ticket_price_microalgos"`
	// MaxCapacity zero means unlimited.
	MaxCapacity uint64 `json:"max_capacity"`
	// NFTAssetID zero means no attendance NFT has been configured.
	NFTAssetID uint64 `json:"nft_asset_id,omitempty"`
}

// TicketPriceAlgos is derived, never stored.
func (e *DynamicQREvent) TicketPriceAlgos() float64 {
	return float64(e.TicketPriceMicroAlgos) / 1e6
}

func (e *DynamicQREvent) HasExpiry() bool {
	return !e.ExpiryDate.IsZero()
}

func (e *DynamicQREvent) Expired(now time.Time) bool {
	return e.HasExpiry() && !now.Before(e.ExpiryDate)
}

func (e *DynamicQREvent) HasCapacity() bool {
	return e.MaxCapacity == 0 || e.RegisteredCount < e.MaxCapacity
}

// ContractStats are the contract-wide aggregate counters held next to the
// per-event keys in global state.
type ContractStats struct {
	EventCount         uint64 `json:"event_count"`
	ContractVersion    string `json:"contract_version"`
	TotalRegistrations uint64 `json:"total_registrations"`
	TotalRevenue       uint64 `json:"total_revenue"`
}
