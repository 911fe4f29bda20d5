package resolver

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/algorand/go-algorand-sdk/v2/crypto"
	"github.com/algorand/go-algorand-sdk/v2/types"
	"github.com/dynaqr/backend/internal/access"
	"github.com/dynaqr/backend/internal/apperrors"
	"github.com/dynaqr/backend/internal/events"
	"github.com/dynaqr/backend/internal/ledger/ledgertest"
	"github.com/dynaqr/backend/internal/metadata"
	"github.com/dynaqr/backend/internal/models"
	"github.com/dynaqr/backend/internal/statecodec"
	"github.com/dynaqr/backend/internal/txbuilder"
	"github.com/dynaqr/backend/internal/wallet"
	"go.uber.org/zap"
)

const testAppID = 77

type stubProvider struct {
	address string
}

func (p *stubProvider) Tag() string { return models.ProviderMnemonic }

func (p *stubProvider) Connect(context.Context) (*models.WalletAccount, error) {
	return &models.WalletAccount{Address: p.address, Provider: models.ProviderMnemonic}, nil
}

func (p *stubProvider) SignTransactions(_ context.Context, txns []types.Transaction) ([][]byte, error) {
	out := make([][]byte, len(txns))
	for i := range txns {
		out[i] = []byte("signed")
	}
	return out, nil
}

func (p *stubProvider) Disconnect(context.Context) error { return nil }

type capturePublisher struct {
	mu        sync.Mutex
	published []events.Event
}

func (c *capturePublisher) Publish(_ context.Context, _ string, e events.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.published = append(c.published, e)
	return nil
}

func (c *capturePublisher) types() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.published))
	for i, e := range c.published {
		out[i] = e.Type
	}
	return out
}

type fixture struct {
	fake    *ledgertest.Fake
	store   metadata.Store
	pub     *capturePublisher
	service *Service
	owner   string
}

func newFixture(t *testing.T, withOperator bool) *fixture {
	t.Helper()
	fake := ledgertest.New()
	store := metadata.NewMemoryStore()
	pub := &capturePublisher{}
	owner := crypto.GenerateAccount().Address.String()

	builder := txbuilder.New(fake, testAppID)
	window := access.TimeWindow{OpenHour: 9, CloseHour: 18}
	engine := access.NewEngine(fake, window, zap.NewNop())

	var operator *wallet.Session
	if withOperator {
		opAddr := crypto.GenerateAccount().Address.String()
		operator = wallet.NewSession(fake, 10, zap.NewNop(), &stubProvider{address: opAddr})
		if _, err := operator.Connect(context.Background(), ""); err != nil {
			t.Fatalf("operator Connect: %v", err)
		}
	}

	svc := New(fake, builder, engine, store, operator, pub, zap.NewNop())
	return &fixture{fake: fake, store: store, pub: pub, service: svc, owner: owner}
}

func (f *fixture) seedEvent(t *testing.T, ev *models.DynamicQREvent) {
	t.Helper()
	if ev.Owner == "" {
		ev.Owner = f.owner
	}
	kvs, err := statecodec.EncodeEvent(ev)
	if err != nil {
		t.Fatalf("EncodeEvent: %v", err)
	}
	f.fake.AppendGlobal(testAppID, kvs...)
}

func publicEvent(id string) *models.DynamicQREvent {
	return &models.DynamicQREvent{
		EventID:    id,
		EventName:  "Launch Party",
		CurrentURL: "https://example.com/launch",
		AccessType: models.AccessPublic,
		Active:     true,
		ScanCount:  41,
	}
}

func TestResolvePublicEvent(t *testing.T) {
	f := newFixture(t, true)
	f.seedEvent(t, publicEvent("evt-1"))

	res, err := f.service.Resolve(context.Background(), "evt-1", access.ViewerContext{})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.RedirectURL != "https://example.com/launch" {
		t.Errorf("redirect = %q", res.RedirectURL)
	}
	if res.ScanCount != 41 {
		t.Errorf("scan count = %d, want the pre-increment value", res.ScanCount)
	}

	// The increment runs off the request path; drain before asserting.
	f.service.Drain()
	if f.fake.SubmitCount() != 1 {
		t.Errorf("increment submissions = %d, want 1", f.fake.SubmitCount())
	}

	found := false
	for _, typ := range f.pub.types() {
		if typ == events.EventScanRecorded {
			found = true
		}
	}
	if !found {
		t.Error("scan_recorded was not published")
	}
}

func TestResolveReportsLastScanned(t *testing.T) {
	f := newFixture(t, true)
	f.seedEvent(t, publicEvent("evt-1"))

	stamp := time.Date(2026, 8, 27, 14, 30, 0, 0, time.UTC)
	if err := f.store.Merge(context.Background(), "evt-1", models.MetadataPatch{
		LastScannedAt: &stamp,
	}); err != nil {
		t.Fatalf("Merge: %v", err)
	}

	res, err := f.service.Resolve(context.Background(), "evt-1", access.ViewerContext{})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.LastScanned == nil || !res.LastScanned.Equal(stamp) {
		t.Errorf("last scanned = %v, want %v", res.LastScanned, stamp)
	}
	f.service.Drain()

	// No companion record yet: the field stays empty, resolution still works.
	f.seedEvent(t, publicEvent("evt-2"))
	res, err = f.service.Resolve(context.Background(), "evt-2", access.ViewerContext{})
	if err != nil {
		t.Fatalf("Resolve without metadata: %v", err)
	}
	if res.LastScanned != nil {
		t.Errorf("last scanned = %v, want nil without a companion record", res.LastScanned)
	}
	f.service.Drain()
}

func TestResolveUnknownEvent(t *testing.T) {
	f := newFixture(t, true)

	_, err := f.service.Resolve(context.Background(), "no-such", access.ViewerContext{})
	if apperrors.CodeOf(err) != apperrors.CodeEventNotFound {
		t.Errorf("got %v, want EventNotFound", err)
	}
	f.service.Drain()
	if f.fake.SubmitCount() != 0 {
		t.Error("unknown event must not increment anything")
	}
}

func TestResolveDeniedDoesNotIncrement(t *testing.T) {
	f := newFixture(t, true)
	ev := publicEvent("evt-1")
	ev.Active = false
	f.seedEvent(t, ev)

	_, err := f.service.Resolve(context.Background(), "evt-1", access.ViewerContext{})
	if apperrors.CodeOf(err) != apperrors.CodeEventInactive {
		t.Fatalf("got %v, want EventInactive", err)
	}
	f.service.Drain()
	if f.fake.SubmitCount() != 0 {
		t.Error("denied scan must not reach the ledger")
	}
}

func TestResolveExpiredEvent(t *testing.T) {
	f := newFixture(t, true)
	ev := publicEvent("evt-1")
	ev.ExpiryDate = time.Now().Add(-time.Hour).UTC()
	f.seedEvent(t, ev)

	_, err := f.service.Resolve(context.Background(), "evt-1", access.ViewerContext{})
	if apperrors.CodeOf(err) != apperrors.CodeEventExpired {
		t.Errorf("got %v, want EventExpired", err)
	}
}

func TestResolveNFTGated(t *testing.T) {
	f := newFixture(t, true)
	holder := crypto.GenerateAccount().Address.String()
	ev := publicEvent("evt-1")
	ev.AccessType = models.AccessNFTGated
	ev.NFTAssetID = 9000
	f.seedEvent(t, ev)
	f.fake.SetAssetHolding(holder, 9000, 1)

	// Anonymous scan: wallet required.
	_, err := f.service.Resolve(context.Background(), "evt-1", access.ViewerContext{})
	if apperrors.CodeOf(err) != apperrors.CodeAccessDenied {
		t.Fatalf("got %v, want AccessDenied", err)
	}
	var ae *apperrors.Error
	if !asAppError(err, &ae) || ae.Details["reason"] != access.ReasonWalletRequired {
		t.Errorf("details = %+v, want wallet_required reason", ae)
	}

	// Non-holder: nft_required.
	stranger := crypto.GenerateAccount().Address.String()
	_, err = f.service.Resolve(context.Background(), "evt-1", access.ViewerContext{Address: stranger})
	if !asAppError(err, &ae) || ae.Details["reason"] != access.ReasonNFTRequired {
		t.Errorf("details = %+v, want nft_required reason", ae)
	}

	// Holder: allowed.
	res, err := f.service.Resolve(context.Background(), "evt-1", access.ViewerContext{Address: holder})
	if err != nil {
		t.Fatalf("Resolve for holder: %v", err)
	}
	if res.RedirectURL == "" {
		t.Error("holder should get the redirect")
	}
	f.service.Drain()
}

func TestResolveIdempotentDenial(t *testing.T) {
	f := newFixture(t, true)
	ev := publicEvent("evt-1")
	ev.Active = false
	f.seedEvent(t, ev)

	for i := 0; i < 3; i++ {
		_, err := f.service.Resolve(context.Background(), "evt-1", access.ViewerContext{})
		if apperrors.CodeOf(err) != apperrors.CodeEventInactive {
			t.Fatalf("attempt %d: got %v, want EventInactive every time", i, err)
		}
	}
	f.service.Drain()
	if f.fake.SubmitCount() != 0 {
		t.Error("repeated denied scans must stay side-effect free")
	}
}

func TestResolveWithoutOperator(t *testing.T) {
	f := newFixture(t, false)
	f.seedEvent(t, publicEvent("evt-1"))

	res, err := f.service.Resolve(context.Background(), "evt-1", access.ViewerContext{})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.RedirectURL == "" {
		t.Error("resolution must work with counting disabled")
	}
	f.service.Drain()
	if f.fake.SubmitCount() != 0 {
		t.Errorf("no operator, no submissions; got %d", f.fake.SubmitCount())
	}
}

func TestResolveIncrementFailurePublishes(t *testing.T) {
	f := newFixture(t, true)
	f.seedEvent(t, publicEvent("evt-1"))
	f.fake.SubmitErr = contextDeadline{}

	if _, err := f.service.Resolve(context.Background(), "evt-1", access.ViewerContext{}); err != nil {
		t.Fatalf("Resolve must succeed even when the increment will fail: %v", err)
	}
	f.service.Drain()

	found := false
	for _, typ := range f.pub.types() {
		if typ == events.EventScanIncrementFailed {
			found = true
		}
	}
	if !found {
		t.Error("scan_increment_failed was not published")
	}
}

type contextDeadline struct{}

func (contextDeadline) Error() string { return "node unreachable" }

func asAppError(err error, target **apperrors.Error) bool {
	return errors.As(err, target)
}
