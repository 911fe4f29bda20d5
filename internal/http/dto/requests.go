package dto

import (
	"time"

	"github.com/dynaqr/backend/internal/models"
)

type AuthChallengeRequest struct {
	Address string `json:"address"`
}

type AuthVerifyRequest struct {
	Address   string `json:"address"`
	Signature string `json:"signature"` // base64 over the challenge message
}

type ConnectWalletRequest struct {
	Provider string `json:"provider,omitempty"` // mnemonic / kmd; empty = auto-detect
}

type CreateEventRequest struct {
	EventID     string     `json:"event_id"`
	EventName   string     `json:"event_name"`
	URL         string     `json:"url"`
	AccessType  string     `json:"access_type"` // public / nft-gated / time-based
	ExpiryDate  *time.Time `json:"expiry_date,omitempty"`
	TicketPrice uint64     `json:"ticket_price_microalgos,omitempty"`
	MaxCapacity uint64     `json:"max_capacity,omitempty"`

	Description      string                      `json:"description,omitempty"`
	Tags             []string                    `json:"tags,omitempty"`
	Visibility       string                      `json:"visibility,omitempty"`
	TicketTiers      []models.TicketTierMetadata `json:"ticket_tiers,omitempty"`
	OrganizerName    string                      `json:"organizer_name,omitempty"`
	OrganizerContact string                      `json:"organizer_contact,omitempty"`
}

type UpdateURLRequest struct {
	URL string `json:"url"`
}

type UpdateTicketPriceRequest struct {
	TicketPrice uint64 `json:"ticket_price_microalgos"`
}

type UpdateMetadataRequest struct {
	Description        *string                      `json:"description,omitempty"`
	Tags               *[]string                    `json:"tags,omitempty"`
	Visibility         *string                      `json:"visibility,omitempty"`
	TicketTiers        *[]models.TicketTierMetadata `json:"ticket_tiers,omitempty"`
	OrganizerName      *string                      `json:"organizer_name,omitempty"`
	OrganizerContact   *string                      `json:"organizer_contact,omitempty"`
	PreviewTitle       *string                      `json:"preview_title,omitempty"`
	PreviewDescription *string                      `json:"preview_description,omitempty"`
}

type ConfirmAttendanceRequest struct {
	Attendee string `json:"attendee,omitempty"` // empty = the caller
	Status   string `json:"status"`
}

type MintNFTRequest struct {
	Attendee string `json:"attendee"`
	AssetID  uint64 `json:"asset_id"`
}

type RefundRequest struct {
	Attendee string `json:"attendee"`
}
