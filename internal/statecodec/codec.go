package statecodec

import (
	"errors"
	"time"
	"unicode/utf8"

	"github.com/algorand/go-algorand-sdk/v2/types"
	"github.com/dynaqr/backend/internal/apperrors"
	"github.com/dynaqr/backend/internal/ledger"
	"github.com/dynaqr/backend/internal/models"
)

// ErrNotFound means the raw state holds no record for the requested entity.
var ErrNotFound = errors.New("no state entries for entity")

// DecodeEvent decodes the raw application state entries belonging to eventID
// into a typed event.
//
// An unsigned-integer zero and an absent key both decode to the unset value:
// a zero expiry means "never expires", a zero nft_asset_id means "no NFT",
// a zero max_capacity means "unlimited". A zero ticket_price means literally
// free, not unset. Invalid UTF-8 and malformed addresses are decode errors,
// never best-effort values.
func DecodeEvent(raw []ledger.KeyValue, eventID string) (*models.DynamicQREvent, error) {
	ev := &models.DynamicQREvent{EventID: eventID}
	found := false

	for _, kv := range raw {
		id, suffix, ok := splitKey(kv.Key)
		if !ok || id != eventID {
			continue
		}
		spec, known := eventFields[suffix]
		if !known {
			// Unknown suffixes are tolerated for forward compatibility.
			continue
		}
		if kv.Value.Kind != spec.kind {
			return nil, apperrors.Decode(spec.field, "value kind mismatch: got %d, want %d", kv.Value.Kind, spec.kind)
		}
		found = true

		switch suffix {
		case SuffixEventName:
			s, err := decodeString(spec.field, kv.Value.Bytes)
			if err != nil {
				return nil, err
			}
			ev.EventName = s
		case SuffixCurrentURL:
			s, err := decodeString(spec.field, kv.Value.Bytes)
			if err != nil {
				return nil, err
			}
			ev.CurrentURL = s
		case SuffixAccessType:
			s, err := decodeString(spec.field, kv.Value.Bytes)
			if err != nil {
				return nil, err
			}
			ev.AccessType = s
		case SuffixOwner:
			addr, err := decodeAddress(spec.field, kv.Value.Bytes)
			if err != nil {
				return nil, err
			}
			ev.Owner = addr
		case SuffixExpiryDate:
			ev.ExpiryDate = decodeTimestamp(kv.Value.Uint)
		case SuffixCreatedAt:
			ev.CreatedAt = decodeTimestamp(kv.Value.Uint)
		case SuffixScanCount:
			ev.ScanCount = kv.Value.Uint
		case SuffixActive:
			ev.Active = kv.Value.Uint != 0
		case SuffixTicketPrice:
			ev.TicketPriceMicroAlgos = kv.Value.Uint
		case SuffixMaxCapacity:
			ev.MaxCapacity = kv.Value.Uint
		case SuffixRegisteredCount:
			ev.RegisteredCount = kv.Value.Uint
		case SuffixNFTAssetID:
			ev.NFTAssetID = kv.Value.Uint
		}
	}

	if !found || ev.Owner == "" {
		// The owner key is written unconditionally at creation; without it
		// there is no event.
		return nil, ErrNotFound
	}
	return ev, nil
}

// DecodeRegistration decodes an account's local state entries for eventID.
// ErrNotFound means the account holds no registration for the event
// (status ordinal zero or no keys at all).
func DecodeRegistration(raw []ledger.KeyValue, eventID, attendeeAddress string) (*models.EventRegistration, error) {
	reg := &models.EventRegistration{EventID: eventID, AttendeeAddress: attendeeAddress}
	var statusOrdinal uint64

	for _, kv := range raw {
		id, suffix, ok := splitKey(kv.Key)
		if !ok || id != eventID {
			continue
		}
		spec, known := registrationFields[suffix]
		if !known {
			continue
		}
		if kv.Value.Kind != spec.kind {
			return nil, apperrors.Decode(spec.field, "value kind mismatch: got %d, want %d", kv.Value.Kind, spec.kind)
		}

		switch suffix {
		case SuffixRegStatus:
			statusOrdinal = kv.Value.Uint
		case SuffixRegDate:
			reg.RegistrationDate = decodeTimestamp(kv.Value.Uint)
		case SuffixRegTier:
			reg.TicketTierIndex = kv.Value.Uint
		case SuffixRegAmount:
			reg.PaymentAmountMicroAlg = kv.Value.Uint
		case SuffixRegNFT:
			reg.NFTMinted = kv.Value.Uint != 0
		}
	}

	if statusOrdinal == 0 {
		return nil, ErrNotFound
	}
	status, ok := models.RegStatusFromOrdinal(statusOrdinal)
	if !ok {
		return nil, apperrors.Decode("registration_status", "unknown status ordinal %d", statusOrdinal)
	}
	reg.Status = status
	return reg, nil
}

// DecodeStats decodes the contract-wide aggregate counters.
func DecodeStats(raw []ledger.KeyValue) (*models.ContractStats, error) {
	stats := &models.ContractStats{}
	for _, kv := range raw {
		if _, _, scoped := splitKey(kv.Key); scoped {
			continue
		}
		switch string(kv.Key) {
		case KeyEventCount:
			stats.EventCount = kv.Value.Uint
		case KeyContractVersion:
			s, err := decodeString("contract_version", kv.Value.Bytes)
			if err != nil {
				return nil, err
			}
			stats.ContractVersion = s
		case KeyTotalRegistrations:
			stats.TotalRegistrations = kv.Value.Uint
		case KeyTotalRevenue:
			stats.TotalRevenue = kv.Value.Uint
		}
	}
	return stats, nil
}

// EncodeEvent is the inverse of DecodeEvent. Used by fakes and round-trip
// tests; production state is written by the contract, not by us.
func EncodeEvent(ev *models.DynamicQREvent) ([]ledger.KeyValue, error) {
	owner, err := types.DecodeAddress(ev.Owner)
	if err != nil {
		return nil, apperrors.Decode("owner", "invalid owner address %q: %v", ev.Owner, err)
	}

	bytesEntry := func(suffix string, val []byte) ledger.KeyValue {
		return ledger.KeyValue{
			Key:   EventKey(ev.EventID, suffix),
			Value: ledger.TealValue{Kind: ledger.KindBytes, Bytes: val},
		}
	}
	uintEntry := func(suffix string, val uint64) ledger.KeyValue {
		return ledger.KeyValue{
			Key:   EventKey(ev.EventID, suffix),
			Value: ledger.TealValue{Kind: ledger.KindUint, Uint: val},
		}
	}

	var active uint64
	if ev.Active {
		active = 1
	}

	return []ledger.KeyValue{
		bytesEntry(SuffixEventName, []byte(ev.EventName)),
		bytesEntry(SuffixCurrentURL, []byte(ev.CurrentURL)),
		bytesEntry(SuffixAccessType, []byte(ev.AccessType)),
		bytesEntry(SuffixOwner, owner[:]),
		uintEntry(SuffixExpiryDate, encodeTimestamp(ev.ExpiryDate)),
		uintEntry(SuffixCreatedAt, encodeTimestamp(ev.CreatedAt)),
		uintEntry(SuffixScanCount, ev.ScanCount),
		uintEntry(SuffixActive, active),
		uintEntry(SuffixTicketPrice, ev.TicketPriceMicroAlgos),
		uintEntry(SuffixMaxCapacity, ev.MaxCapacity),
		uintEntry(SuffixRegisteredCount, ev.RegisteredCount),
		uintEntry(SuffixNFTAssetID, ev.NFTAssetID),
	}, nil
}

// EncodeRegistration is the inverse of DecodeRegistration.
func EncodeRegistration(reg *models.EventRegistration) ([]ledger.KeyValue, error) {
	ordinal, ok := models.RegStatusOrdinal(reg.Status)
	if !ok {
		return nil, apperrors.Decode("registration_status", "unknown status %q", reg.Status)
	}

	uintEntry := func(suffix string, val uint64) ledger.KeyValue {
		return ledger.KeyValue{
			Key:   EventKey(reg.EventID, suffix),
			Value: ledger.TealValue{Kind: ledger.KindUint, Uint: val},
		}
	}

	var minted uint64
	if reg.NFTMinted {
		minted = 1
	}

	return []ledger.KeyValue{
		uintEntry(SuffixRegStatus, ordinal),
		uintEntry(SuffixRegDate, encodeTimestamp(reg.RegistrationDate)),
		uintEntry(SuffixRegTier, reg.TicketTierIndex),
		uintEntry(SuffixRegAmount, reg.PaymentAmountMicroAlg),
		uintEntry(SuffixRegNFT, minted),
	}, nil
}

func decodeString(field string, raw []byte) (string, error) {
	if !utf8.Valid(raw) {
		return "", apperrors.Decode(field, "value is not valid UTF-8")
	}
	return string(raw), nil
}

func decodeAddress(field string, raw []byte) (string, error) {
	addr, err := types.EncodeAddress(raw)
	if err != nil {
		return "", apperrors.Decode(field, "malformed address (%d bytes): %v", len(raw), err)
	}
	return addr, nil
}

func decodeTimestamp(unix uint64) time.Time {
	if unix == 0 {
		return time.Time{}
	}
	return time.Unix(int64(unix), 0).UTC()
}

func encodeTimestamp(t time.Time) uint64 {
	if t.IsZero() {
		return 0
	}
	return uint64(t.Unix())
}
