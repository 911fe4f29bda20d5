package statecodec

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/algorand/go-algorand-sdk/v2/types"
	"github.com/dynaqr/backend/internal/apperrors"
	"github.com/dynaqr/backend/internal/ledger"
	"github.com/dynaqr/backend/internal/models"
)

func testAddress(t *testing.T, fill byte) string {
	t.Helper()
	addr, err := types.EncodeAddress(bytes.Repeat([]byte{fill}, 32))
	if err != nil {
		t.Fatalf("failed to build test address: %v", err)
	}
	return addr
}

func TestDecodeEventRoundTrip(t *testing.T) {
	owner := testAddress(t, 0x11)

	events := []*models.DynamicQREvent{
		{
			EventID:    "evt-1",
			EventName:  "Launch Party",
			CurrentURL: "https://example.com/launch",
			AccessType: models.AccessPublic,
			Owner:      owner,
			CreatedAt:  time.Unix(1700000000, 0).UTC(),
			ExpiryDate: time.Unix(1800000000, 0).UTC(),
			ScanCount:  42,
			Active:     true,

			TicketPriceMicroAlgos: 2500000,
			MaxCapacity:           100,
			RegisteredCount:       7,
			NFTAssetID:            555,
		},
		{
			// No expiry, free tickets, unlimited capacity, no NFT.
			EventID:    "evt-free",
			EventName:  "Open Meetup",
			CurrentURL: "https://example.com/meetup",
			AccessType: models.AccessTimeBased,
			Owner:      owner,
			CreatedAt:  time.Unix(1700000001, 0).UTC(),
			Active:     false,
		},
	}

	for _, want := range events {
		t.Run(want.EventID, func(t *testing.T) {
			raw, err := EncodeEvent(want)
			if err != nil {
				t.Fatalf("EncodeEvent: %v", err)
			}
			got, err := DecodeEvent(raw, want.EventID)
			if err != nil {
				t.Fatalf("DecodeEvent: %v", err)
			}
			if !reflect.DeepEqual(got, want) {
				t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, want)
			}
		})
	}
}

func TestDecodeEventNotFound(t *testing.T) {
	owner := testAddress(t, 0x22)
	raw, err := EncodeEvent(&models.DynamicQREvent{
		EventID:    "evt-other",
		EventName:  "Other",
		CurrentURL: "https://example.com",
		AccessType: models.AccessPublic,
		Owner:      owner,
		CreatedAt:  time.Unix(1700000000, 0).UTC(),
		Active:     true,
	})
	if err != nil {
		t.Fatalf("EncodeEvent: %v", err)
	}

	if _, err := DecodeEvent(raw, "evt-missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("DecodeEvent for absent id: got %v, want ErrNotFound", err)
	}
	if _, err := DecodeEvent(nil, "evt-missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("DecodeEvent on empty state: got %v, want ErrNotFound", err)
	}
}

func TestDecodeEventMalformedAddress(t *testing.T) {
	raw := []ledger.KeyValue{
		{
			Key:   EventKey("evt-1", SuffixOwner),
			Value: ledger.TealValue{Kind: ledger.KindBytes, Bytes: []byte("short")},
		},
	}

	_, err := DecodeEvent(raw, "evt-1")
	var ae *apperrors.Error
	if !errors.As(err, &ae) || ae.Code != apperrors.CodeDecodeError || ae.Field != "owner" {
		t.Fatalf("got %v, want DecodeError on field owner", err)
	}
}

func TestDecodeEventInvalidUTF8(t *testing.T) {
	owner, _ := types.EncodeAddress(bytes.Repeat([]byte{0x33}, 32))
	raw := []ledger.KeyValue{
		{
			Key:   EventKey("evt-1", SuffixOwner),
			Value: ledger.TealValue{Kind: ledger.KindBytes, Bytes: mustDecodeAddr(owner)},
		},
		{
			Key:   EventKey("evt-1", SuffixEventName),
			Value: ledger.TealValue{Kind: ledger.KindBytes, Bytes: []byte{0xff, 0xfe}},
		},
	}

	_, err := DecodeEvent(raw, "evt-1")
	var ae *apperrors.Error
	if !errors.As(err, &ae) || ae.Field != "event_name" {
		t.Fatalf("got %v, want DecodeError on field event_name", err)
	}
}

func TestDecodeEventKindMismatch(t *testing.T) {
	raw := []ledger.KeyValue{
		{
			Key:   EventKey("evt-1", SuffixScanCount),
			Value: ledger.TealValue{Kind: ledger.KindBytes, Bytes: []byte("42")},
		},
	}

	_, err := DecodeEvent(raw, "evt-1")
	var ae *apperrors.Error
	if !errors.As(err, &ae) || ae.Field != "scan_count" {
		t.Fatalf("got %v, want DecodeError on field scan_count", err)
	}
}

func TestDecodeEventIgnoresUnknownSuffixes(t *testing.T) {
	owner := testAddress(t, 0x44)
	want := &models.DynamicQREvent{
		EventID:    "evt-1",
		EventName:  "Event",
		CurrentURL: "https://example.com",
		AccessType: models.AccessPublic,
		Owner:      owner,
		CreatedAt:  time.Unix(1700000000, 0).UTC(),
		Active:     true,
	}
	raw, err := EncodeEvent(want)
	if err != nil {
		t.Fatalf("EncodeEvent: %v", err)
	}
	raw = append(raw, ledger.KeyValue{
		Key:   EventKey("evt-1", "future_field"),
		Value: ledger.TealValue{Kind: ledger.KindUint, Uint: 9},
	})

	got, err := DecodeEvent(raw, "evt-1")
	if err != nil {
		t.Fatalf("DecodeEvent: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("unknown suffix altered decode:\n got %+v\nwant %+v", got, want)
	}
}

func TestDecodeRegistrationRoundTrip(t *testing.T) {
	attendee := testAddress(t, 0x55)
	want := &models.EventRegistration{
		EventID:               "evt-1",
		AttendeeAddress:       attendee,
		Status:                models.RegStatusConfirmed,
		RegistrationDate:      time.Unix(1700000500, 0).UTC(),
		TicketTierIndex:       2,
		PaymentAmountMicroAlg: 1500000,
		NFTMinted:             true,
	}

	raw, err := EncodeRegistration(want)
	if err != nil {
		t.Fatalf("EncodeRegistration: %v", err)
	}
	got, err := DecodeRegistration(raw, "evt-1", attendee)
	if err != nil {
		t.Fatalf("DecodeRegistration: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, want)
	}
}

func TestDecodeRegistrationAbsent(t *testing.T) {
	attendee := testAddress(t, 0x66)

	// Status ordinal zero means no registration, even if other keys exist.
	raw := []ledger.KeyValue{
		{
			Key:   EventKey("evt-1", SuffixRegStatus),
			Value: ledger.TealValue{Kind: ledger.KindUint, Uint: 0},
		},
	}
	if _, err := DecodeRegistration(raw, "evt-1", attendee); !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound for zero status", err)
	}
	if _, err := DecodeRegistration(nil, "evt-1", attendee); !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound for empty local state", err)
	}
}

func TestDecodeStats(t *testing.T) {
	raw := []ledger.KeyValue{
		{Key: []byte(KeyEventCount), Value: ledger.TealValue{Kind: ledger.KindUint, Uint: 12}},
		{Key: []byte(KeyContractVersion), Value: ledger.TealValue{Kind: ledger.KindBytes, Bytes: []byte("2.0.0")}},
		{Key: []byte(KeyTotalRegistrations), Value: ledger.TealValue{Kind: ledger.KindUint, Uint: 340}},
		{Key: []byte(KeyTotalRevenue), Value: ledger.TealValue{Kind: ledger.KindUint, Uint: 9000000}},
		// Event-scoped keys must not leak into aggregates.
		{Key: EventKey("evt-1", SuffixScanCount), Value: ledger.TealValue{Kind: ledger.KindUint, Uint: 999}},
	}

	stats, err := DecodeStats(raw)
	if err != nil {
		t.Fatalf("DecodeStats: %v", err)
	}
	want := &models.ContractStats{
		EventCount:         12,
		ContractVersion:    "2.0.0",
		TotalRegistrations: 340,
		TotalRevenue:       9000000,
	}
	if !reflect.DeepEqual(stats, want) {
		t.Errorf("got %+v, want %+v", stats, want)
	}
}

func mustDecodeAddr(s string) []byte {
	addr, err := types.DecodeAddress(s)
	if err != nil {
		panic(err)
	}
	return addr[:]
}

func TestValidEventID(t *testing.T) {
	tests := []struct {
		id string
		ok bool
	}{
		{"evt-1", true},
		{"Launch_Party_2026", true},
		{strings.Repeat("a", MaxEventIDLen), true},
		{"", false},
		{"evt::sneaky", false}, // would collide with the key separator
		{"evt 1", false},
		{"evt/1", false},
		{strings.Repeat("a", MaxEventIDLen+1), false},
	}
	for _, tt := range tests {
		if got := ValidEventID(tt.id); got != tt.ok {
			t.Errorf("ValidEventID(%q) = %v, want %v", tt.id, got, tt.ok)
		}
	}
}
