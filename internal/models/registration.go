package models

import "time"

// Registration statuses. The on-chain encoding is the ordinal below
// (0 = no record in local state).
const (
	RegStatusPending   = "pending"
	RegStatusConfirmed = "confirmed"
	RegStatusAttended  = "attended"
	RegStatusCancelled = "cancelled"
)

// Valid status transitions: from -> []to. Progression is forward-only;
// an attended registration can never move back.
var ValidRegistrationTransitions = map[string][]string{
	RegStatusPending:   {RegStatusConfirmed, RegStatusCancelled},
	RegStatusConfirmed: {RegStatusAttended, RegStatusCancelled},
	RegStatusAttended:  {},
	RegStatusCancelled: {},
}

func IsValidRegistrationTransition(from, to string) bool {
	allowed, ok := ValidRegistrationTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// RegStatusOrdinal maps a status to its on-chain uint encoding.
func RegStatusOrdinal(status string) (uint64, bool) {
	switch status {
	case RegStatusPending:
		return 1, true
	case RegStatusConfirmed:
		return 2, true
	case RegStatusAttended:
		return 3, true
	case RegStatusCancelled:
		return 4, true
	}
	return 0, false
}

// RegStatusFromOrdinal is the inverse of RegStatusOrdinal. Ordinal 0 means
// the account holds no registration for the event.
func RegStatusFromOrdinal(n uint64) (string, bool) {
	switch n {
	case 1:
		return RegStatusPending, true
	case 2:
		return RegStatusConfirmed, true
	case 3:
		return RegStatusAttended, true
	case 4:
		return RegStatusCancelled, true
	}
	return "", false
}

// EventRegistration is the per-account local-state record for one event.
// Composite key: (EventID, AttendeeAddress).
type EventRegistration struct {
	EventID               string    `json:"event_id"`
	AttendeeAddress       string    `json:"attendee_address"`
	Status                string    `json:"status"`
	RegistrationDate      time.Time `json:"registration_date"`
	TicketTierIndex       uint64    `json:"ticket_tier_index"`
	PaymentAmountMicroAlg uint64    `json:"payment_amount_microalgos"`
	NFTMinted             bool      `json:"nft_minted"`
}

// RegistrationRequest is the payload consumed from a registration form.
type RegistrationRequest struct {
	EventID               string `json:"event_id"`
	AttendeeAddress       string `json:"attendee_address"`
	TicketTierIndex       *int   `json:"ticket_tier_index,omitempty"`
	TicketTierName        string `json:"ticket_tier_name,omitempty"`
	PaymentAmountMicroAlg uint64 `json:"payment_amount_microalgos,omitempty"`
	AttendeeName          string `json:"attendee_name"`
	AttendeeEmail         string `json:"attendee_email"`
	AttendeePhone         string `json:"attendee_phone,omitempty"`
}
