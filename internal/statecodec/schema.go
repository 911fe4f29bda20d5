package statecodec

import (
	"bytes"
	"regexp"

	"github.com/dynaqr/backend/internal/ledger"
)

// On-chain key layout: per-event keys are "<eventID>::<suffix>", per-account
// registration keys use the same shape in local state, and contract-wide
// aggregates are bare keys in global state.

const keySeparator = "::"

// Event key suffixes
const (
	SuffixEventName       = "event_name"
	SuffixCurrentURL      = "current_url"
	SuffixAccessType      = "access_type"
	SuffixExpiryDate      = "expiry_date"
	SuffixCreatedAt       = "created_at"
	SuffixOwner           = "owner"
	SuffixScanCount       = "scan_count"
	SuffixActive          = "active"
	SuffixTicketPrice     = "ticket_price"
	SuffixMaxCapacity     = "max_capacity"
	SuffixRegisteredCount = "registered_count"
	SuffixNFTAssetID      = "nft_asset_id"
)

// Registration (local state) suffixes
const (
	SuffixRegStatus = "registration_status"
	SuffixRegDate   = "registration_date"
	SuffixRegTier   = "ticket_tier"
	SuffixRegAmount = "payment_amount"
	SuffixRegNFT    = "nft_minted"
)

// Global aggregate keys
const (
	KeyEventCount         = "event_count"
	KeyContractVersion    = "contract_version"
	KeyTotalRegistrations = "total_registrations"
	KeyTotalRevenue       = "total_revenue"
)

// fieldSpec is one entry of the declarative decode schema: which suffix,
// which value kind it must carry, and which field it lands in. The schema is
// compiled into a lookup map once at init, so a decode failure names the
// exact field instead of being discovered ad hoc.
type fieldSpec struct {
	suffix string
	kind   ledger.ValueKind
	field  string // target field name, reported in DecodeError
}

var eventSchema = []fieldSpec{
	{SuffixEventName, ledger.KindBytes, "event_name"},
	{SuffixCurrentURL, ledger.KindBytes, "current_url"},
	{SuffixAccessType, ledger.KindBytes, "access_type"},
	{SuffixExpiryDate, ledger.KindUint, "expiry_date"},
	{SuffixCreatedAt, ledger.KindUint, "created_at"},
	{SuffixOwner, ledger.KindBytes, "owner"},
	{SuffixScanCount, ledger.KindUint, "scan_count"},
	{SuffixActive, ledger.KindUint, "active"},
	{SuffixTicketPrice, ledger.KindUint, "ticket_price"},
	{SuffixMaxCapacity, ledger.KindUint, "max_capacity"},
	{SuffixRegisteredCount, ledger.KindUint, "registered_count"},
	{SuffixNFTAssetID, ledger.KindUint, "nft_asset_id"},
}

var registrationSchema = []fieldSpec{
	{SuffixRegStatus, ledger.KindUint, "registration_status"},
	{SuffixRegDate, ledger.KindUint, "registration_date"},
	{SuffixRegTier, ledger.KindUint, "ticket_tier"},
	{SuffixRegAmount, ledger.KindUint, "payment_amount"},
	{SuffixRegNFT, ledger.KindUint, "nft_minted"},
}

func compileSchema(specs []fieldSpec) map[string]fieldSpec {
	m := make(map[string]fieldSpec, len(specs))
	for _, s := range specs {
		m[s.suffix] = s
	}
	return m
}

var (
	eventFields        = compileSchema(eventSchema)
	registrationFields = compileSchema(registrationSchema)
)

// MaxEventIDLen keeps every derived key inside the ledger's 64-byte
// state-key limit, accounting for the separator and the longest suffix.
const MaxEventIDLen = 64 - len(keySeparator) - len(SuffixRegStatus)

var eventIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidEventID reports whether id is safe to embed in state keys: a
// URL-safe charset (which also rules out the key separator, so splitKey
// stays unambiguous) and short enough that every derived key fits the
// ledger limit.
func ValidEventID(id string) bool {
	return id != "" && len(id) <= MaxEventIDLen && eventIDPattern.MatchString(id)
}

// EventKey composes the on-chain key for an event field.
func EventKey(eventID, suffix string) []byte {
	return []byte(eventID + keySeparator + suffix)
}

// splitKey separates an entity-scoped key into its id prefix and suffix.
// Bare aggregate keys have no separator and report ok=false.
func splitKey(key []byte) (id, suffix string, ok bool) {
	i := bytes.Index(key, []byte(keySeparator))
	if i < 0 {
		return "", "", false
	}
	return string(key[:i]), string(key[i+len(keySeparator):]), true
}
