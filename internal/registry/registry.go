package registry

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/algorand/go-algorand-sdk/v2/types"
	"github.com/dynaqr/backend/internal/apperrors"
	"github.com/dynaqr/backend/internal/events"
	"github.com/dynaqr/backend/internal/ledger"
	"github.com/dynaqr/backend/internal/metadata"
	"github.com/dynaqr/backend/internal/metrics"
	"github.com/dynaqr/backend/internal/models"
	"github.com/dynaqr/backend/internal/preview"
	"github.com/dynaqr/backend/internal/statecodec"
	"github.com/dynaqr/backend/internal/txbuilder"
	"github.com/dynaqr/backend/internal/wallet"
	"go.uber.org/zap"
)

// feeBuffer is headroom kept on top of the ticket price when pre-checking
// an attendee's balance (covers transaction fees and min-balance slack).
const feeBuffer = 10_000

// Result is the uniform outcome of every registry operation.
type Result struct {
	Success       bool   `json:"success"`
	TransactionID string `json:"transaction_id,omitempty"`
	Data          any    `json:"data,omitempty"`
}

// Registry is the public facade over the ledger-backed event state. All
// mutations go through the caller's wallet session; all reads re-decode
// on-chain state, never a cached copy.
type Registry struct {
	reader    ledger.Reader
	builder   *txbuilder.Builder
	store     metadata.Store
	previews  *preview.Fetcher
	publisher events.Publisher
	// resolverBase is the externally visible base for resolver URLs. The
	// derived URL is fixed at event creation and never regenerated.
	resolverBase string
	log          *zap.Logger
}

func New(
	reader ledger.Reader,
	builder *txbuilder.Builder,
	store metadata.Store,
	previews *preview.Fetcher,
	publisher events.Publisher,
	resolverBase string,
	log *zap.Logger,
) *Registry {
	return &Registry{
		reader:       reader,
		builder:      builder,
		store:        store,
		previews:     previews,
		publisher:    publisher,
		resolverBase: resolverBase,
		log:          log,
	}
}

// ResolverURL derives the permanent QR-encoded URL for an event.
func (r *Registry) ResolverURL(eventID string) string {
	return fmt.Sprintf("%s/resolve?event=%s", r.resolverBase, url.QueryEscape(eventID))
}

// GetEvent decodes the event's current on-chain record.
func (r *Registry) GetEvent(ctx context.Context, eventID string) (*models.DynamicQREvent, error) {
	raw, err := r.reader.GlobalState(ctx, r.builder.AppID())
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeConnectionFailed, err, "ledger read failed")
	}
	ev, err := statecodec.DecodeEvent(raw, eventID)
	if errors.Is(err, statecodec.ErrNotFound) {
		return nil, apperrors.New(apperrors.CodeEventNotFound, "event %s not found", eventID)
	}
	if err != nil {
		return nil, err
	}
	return ev, nil
}

// GetRegistration decodes the attendee's registration for the event.
func (r *Registry) GetRegistration(ctx context.Context, eventID, attendee string) (*models.EventRegistration, error) {
	raw, err := r.reader.LocalState(ctx, attendee, r.builder.AppID())
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeConnectionFailed, err, "ledger read failed")
	}
	reg, err := statecodec.DecodeRegistration(raw, eventID, attendee)
	if errors.Is(err, statecodec.ErrNotFound) {
		return nil, apperrors.New(apperrors.CodeEventNotFound, "no registration of %s for event %s", attendee, eventID)
	}
	if err != nil {
		return nil, err
	}
	return reg, nil
}

// GetStats decodes the contract-wide aggregate counters.
func (r *Registry) GetStats(ctx context.Context) (*models.ContractStats, error) {
	raw, err := r.reader.GlobalState(ctx, r.builder.AppID())
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeConnectionFailed, err, "ledger read failed")
	}
	return statecodec.DecodeStats(raw)
}

type CreateEventParams struct {
	EventID               string
	EventName             string
	URL                   string
	AccessType            string
	ExpiryDate            time.Time // zero = never expires
	TicketPriceMicroAlgos uint64
	MaxCapacity           uint64 // zero = unlimited

	// Off-chain companion fields.
	Description      string
	Tags             []string
	Visibility       string
	TicketTiers      []models.TicketTierMetadata
	OrganizerName    string
	OrganizerContact string
}

// CreateEvent validates the request, submits the creation call through the
// session's wallet, and persists metadata only after on-chain confirmation.
func (r *Registry) CreateEvent(ctx context.Context, session *wallet.Session, p CreateEventParams) (*Result, error) {
	if p.EventID == "" || p.EventName == "" || p.URL == "" {
		return nil, apperrors.New(apperrors.CodeInvalidArgument, "event id, name, and url are required")
	}
	if !statecodec.ValidEventID(p.EventID) {
		return nil, apperrors.New(apperrors.CodeInvalidArgument,
			"event id %q must be 1-%d characters of [A-Za-z0-9_-]", p.EventID, statecodec.MaxEventIDLen)
	}
	if !models.IsValidAccessType(p.AccessType) {
		return nil, apperrors.New(apperrors.CodeInvalidArgument, "invalid access type %q", p.AccessType)
	}

	account := session.Account()
	if account == nil {
		return nil, apperrors.New(apperrors.CodeWalletNotConnected, "connect a wallet to create events")
	}

	// Event ids are immutable and unique; reject a duplicate before paying
	// for a doomed transaction.
	if _, err := r.GetEvent(ctx, p.EventID); err == nil {
		return nil, apperrors.New(apperrors.CodeInvalidArgument, "event %s already exists", p.EventID)
	} else if apperrors.CodeOf(err) != apperrors.CodeEventNotFound {
		return nil, err
	}

	var expiry uint64
	if !p.ExpiryDate.IsZero() {
		expiry = uint64(p.ExpiryDate.Unix())
	}

	txn, err := r.builder.AppCall(ctx, txbuilder.MethodCreateEvent, p.EventID, account.Address,
		[]byte(p.EventName),
		[]byte(p.URL),
		[]byte(p.AccessType),
		txbuilder.Uint64Arg(expiry),
		txbuilder.Uint64Arg(p.TicketPriceMicroAlgos),
		txbuilder.Uint64Arg(p.MaxCapacity),
	)
	if err != nil {
		return nil, err
	}

	res, err := r.submit(ctx, session, "create_event", []types.Transaction{txn})
	if err != nil {
		return nil, err
	}

	// The resolver URL is derived exactly once, here. It stays valid for
	// the life of the QR code no matter how often the destination moves.
	md := &models.EventMetadata{
		EventID:          p.EventID,
		Description:      p.Description,
		ResolverURL:      r.ResolverURL(p.EventID),
		Tags:             p.Tags,
		Visibility:       p.Visibility,
		TicketTiers:      p.TicketTiers,
		OrganizerName:    p.OrganizerName,
		OrganizerContact: p.OrganizerContact,
		LastUpdatedAt:    time.Now().UTC(),
	}
	r.attachPreview(ctx, md, p.URL)

	if err := r.store.Put(ctx, p.EventID, md); err != nil {
		// The event is live on-chain; only the companion record is missing.
		r.log.Error("metadata write failed after confirmed creation",
			zap.String("event_id", p.EventID),
			zap.String("tx_id", res.TxID),
			zap.Error(err),
		)
		return nil, apperrors.Wrap(apperrors.CodePartialFailure, err,
			"event %s created on-chain (tx %s) but metadata write failed", p.EventID, res.TxID).
			WithDetails(map[string]any{"transaction_id": res.TxID})
	}

	_ = r.publisher.Publish(ctx, events.StreamRegistry, events.Event{
		Type: events.EventCreated,
		Payload: map[string]any{
			"event_id": p.EventID,
			"owner":    account.Address,
			"tx_id":    res.TxID,
		},
	})

	return &Result{Success: true, TransactionID: res.TxID, Data: md}, nil
}

// UpdateURL points the event's redirect at a new destination. Owner only;
// the ownership check runs before any transaction is built so a non-owner
// costs no network round trip.
func (r *Registry) UpdateURL(ctx context.Context, session *wallet.Session, eventID, newURL string) (*Result, error) {
	if newURL == "" {
		return nil, apperrors.New(apperrors.CodeInvalidArgument, "url is required")
	}

	account, ev, err := r.requireOwner(ctx, session, eventID)
	if err != nil {
		return nil, err
	}

	txn, err := r.builder.AppCall(ctx, txbuilder.MethodUpdateURL, eventID, account.Address, []byte(newURL))
	if err != nil {
		return nil, err
	}

	res, err := r.submit(ctx, session, "update_url", []types.Transaction{txn})
	if err != nil {
		return nil, err
	}

	patch := models.MetadataPatch{}
	mdPatched := &models.EventMetadata{}
	r.attachPreview(ctx, mdPatched, newURL)
	if mdPatched.PreviewTitle != "" {
		patch.PreviewTitle = &mdPatched.PreviewTitle
		patch.PreviewDescription = &mdPatched.PreviewDescription
	}
	if err := r.store.Merge(ctx, eventID, patch); err != nil {
		r.log.Warn("metadata merge failed after url update", zap.String("event_id", eventID), zap.Error(err))
	}

	_ = r.publisher.Publish(ctx, events.StreamRegistry, events.Event{
		Type: events.EventURLUpdated,
		Payload: map[string]any{
			"event_id": eventID,
			"old_url":  ev.CurrentURL,
			"new_url":  newURL,
			"tx_id":    res.TxID,
		},
	})

	return &Result{Success: true, TransactionID: res.TxID}, nil
}

// Deactivate flips the event inactive. One-way: there is no reactivate.
func (r *Registry) Deactivate(ctx context.Context, session *wallet.Session, eventID string) (*Result, error) {
	account, ev, err := r.requireOwner(ctx, session, eventID)
	if err != nil {
		return nil, err
	}
	if !ev.Active {
		return nil, apperrors.New(apperrors.CodeEventInactive, "event %s is already inactive", eventID)
	}

	txn, err := r.builder.AppCall(ctx, txbuilder.MethodDeactivateEvent, eventID, account.Address)
	if err != nil {
		return nil, err
	}

	res, err := r.submit(ctx, session, "deactivate_event", []types.Transaction{txn})
	if err != nil {
		return nil, err
	}

	if err := r.store.Merge(ctx, eventID, models.MetadataPatch{}); err != nil {
		r.log.Warn("metadata touch failed after deactivation", zap.String("event_id", eventID), zap.Error(err))
	}

	_ = r.publisher.Publish(ctx, events.StreamRegistry, events.Event{
		Type:    events.EventDeactivated,
		Payload: map[string]any{"event_id": eventID, "tx_id": res.TxID},
	})

	return &Result{Success: true, TransactionID: res.TxID}, nil
}

// UpdateTicketPrice changes the on-chain ticket price. Owner only.
func (r *Registry) UpdateTicketPrice(ctx context.Context, session *wallet.Session, eventID string, priceMicroAlgos uint64) (*Result, error) {
	account, _, err := r.requireOwner(ctx, session, eventID)
	if err != nil {
		return nil, err
	}

	txn, err := r.builder.AppCall(ctx, txbuilder.MethodUpdateTicketPrice, eventID, account.Address,
		txbuilder.Uint64Arg(priceMicroAlgos))
	if err != nil {
		return nil, err
	}

	res, err := r.submit(ctx, session, "update_ticket_price", []types.Transaction{txn})
	if err != nil {
		return nil, err
	}
	return &Result{Success: true, TransactionID: res.TxID}, nil
}

// RegisterForEvent opts the attendee in (when needed), pays the ticket
// price to the owner, and submits the registration call. Payment and
// registration travel in one atomic group: either both commit or neither
// does, so a paid-but-unregistered state cannot occur.
func (r *Registry) RegisterForEvent(ctx context.Context, session *wallet.Session, req models.RegistrationRequest) (*Result, error) {
	account := session.Account()
	if account == nil {
		return nil, apperrors.New(apperrors.CodeWalletNotConnected, "connect a wallet to register")
	}
	if req.AttendeeAddress != "" && req.AttendeeAddress != account.Address {
		return nil, apperrors.New(apperrors.CodeInvalidArgument,
			"registration address %s does not match connected wallet %s", req.AttendeeAddress, account.Address)
	}
	attendee := account.Address

	ev, err := r.GetEvent(ctx, req.EventID)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if !ev.Active {
		return nil, apperrors.New(apperrors.CodeEventInactive, "event %s is inactive", req.EventID)
	}
	if ev.Expired(now) {
		return nil, apperrors.New(apperrors.CodeEventExpired, "event %s expired at %s", req.EventID, ev.ExpiryDate)
	}
	if !ev.HasCapacity() {
		return nil, apperrors.New(apperrors.CodeInvalidArgument,
			"event %s is at capacity (%d/%d)", req.EventID, ev.RegisteredCount, ev.MaxCapacity)
	}

	rawLocal, err := r.reader.LocalState(ctx, attendee, r.builder.AppID())
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeConnectionFailed, err, "ledger read failed")
	}
	if _, err := statecodec.DecodeRegistration(rawLocal, req.EventID, attendee); err == nil {
		return nil, apperrors.New(apperrors.CodeInvalidArgument,
			"%s is already registered for event %s", attendee, req.EventID)
	} else if !errors.Is(err, statecodec.ErrNotFound) {
		return nil, err
	}

	tierIndex, amount, err := r.resolveTier(ctx, ev, req)
	if err != nil {
		return nil, err
	}

	// Balance pre-check: a priced registration with an underfunded wallet
	// fails here, before any transaction is built.
	if amount > 0 {
		balance, err := r.reader.AccountBalance(ctx, attendee)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CodeConnectionFailed, err, "balance check failed")
		}
		if balance < amount+feeBuffer {
			return nil, apperrors.New(apperrors.CodeInsufficientBalance,
				"balance %d µALGO below required %d", balance, amount+feeBuffer).
				WithDetails(map[string]any{"balance": balance, "required": amount + feeBuffer})
		}
	}

	var txns []types.Transaction

	if len(rawLocal) == 0 {
		// First interaction with the application: allocate local state.
		optIn, err := r.builder.OptIn(ctx, attendee)
		if err != nil {
			return nil, err
		}
		txns = append(txns, optIn)
	}

	if amount > 0 {
		pay, err := r.builder.Payment(ctx, attendee, ev.Owner, amount, txbuilder.PaymentNote(req.EventID, attendee))
		if err != nil {
			return nil, err
		}
		txns = append(txns, pay)
	}

	call, err := r.builder.AppCall(ctx, txbuilder.MethodRegisterEvent, req.EventID, attendee,
		txbuilder.Uint64Arg(tierIndex),
		txbuilder.Uint64Arg(amount),
	)
	if err != nil {
		return nil, err
	}
	txns = append(txns, call)

	if len(txns) > 1 {
		txns, err = r.builder.GroupAtomic(txns)
		if err != nil {
			return nil, err
		}
	}

	res, err := r.submit(ctx, session, "register_event", txns)
	if err != nil {
		return nil, err
	}

	reg := &models.EventRegistration{
		EventID:               req.EventID,
		AttendeeAddress:       attendee,
		Status:                models.RegStatusPending,
		RegistrationDate:      now,
		TicketTierIndex:       tierIndex,
		PaymentAmountMicroAlg: amount,
	}

	_ = r.publisher.Publish(ctx, events.StreamRegistry, events.Event{
		Type: events.EventRegistrationCreated,
		Payload: map[string]any{
			"event_id": req.EventID,
			"attendee": attendee,
			"tier":     tierIndex,
			"amount":   amount,
			"tx_id":    res.TxID,
		},
	})

	return &Result{Success: true, TransactionID: res.TxID, Data: reg}, nil
}

// ConfirmAttendance advances the registration status. Progression is
// forward only; the target ordinal travels as a call argument. The
// contract writes the transaction sender's own local record, so the call
// must be signed by the attendee's wallet; a verifying owner scans the
// attendee's proof off-chain and the attendee signs.
func (r *Registry) ConfirmAttendance(ctx context.Context, session *wallet.Session, eventID, attendee, newStatus string) (*Result, error) {
	account := session.Account()
	if account == nil {
		return nil, apperrors.New(apperrors.CodeWalletNotConnected, "connect a wallet to confirm attendance")
	}

	if _, err := r.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}
	if attendee == "" {
		attendee = account.Address
	}
	if account.Address != attendee {
		return nil, apperrors.New(apperrors.CodeNotAuthorized,
			"attendance for %s must be signed by their own wallet, not %s", attendee, account.Address)
	}

	reg, err := r.GetRegistration(ctx, eventID, attendee)
	if err != nil {
		return nil, err
	}
	if !models.IsValidRegistrationTransition(reg.Status, newStatus) {
		return nil, apperrors.New(apperrors.CodeInvalidArgument,
			"registration cannot move from %s to %s", reg.Status, newStatus)
	}
	ordinal, ok := models.RegStatusOrdinal(newStatus)
	if !ok {
		return nil, apperrors.New(apperrors.CodeInvalidArgument, "unknown status %q", newStatus)
	}

	txn, err := r.builder.AppCall(ctx, txbuilder.MethodConfirmAttendance, eventID, account.Address,
		txbuilder.Uint64Arg(ordinal))
	if err != nil {
		return nil, err
	}

	res, err := r.submit(ctx, session, "confirm_attendance", []types.Transaction{txn})
	if err != nil {
		return nil, err
	}

	_ = r.publisher.Publish(ctx, events.StreamRegistry, events.Event{
		Type: events.EventAttendanceConfirmed,
		Payload: map[string]any{
			"event_id": eventID,
			"attendee": attendee,
			"status":   newStatus,
			"tx_id":    res.TxID,
		},
	})

	return &Result{Success: true, TransactionID: res.TxID}, nil
}

// MintAttendanceNFT records the attendance NFT for an attended
// registration. Like ConfirmAttendance, the call flips the sender's own
// nft_minted flag, so the attendee's wallet signs it.
func (r *Registry) MintAttendanceNFT(ctx context.Context, session *wallet.Session, eventID, attendee string, assetID uint64) (*Result, error) {
	account := session.Account()
	if account == nil {
		return nil, apperrors.New(apperrors.CodeWalletNotConnected, "connect a wallet to mint the attendance NFT")
	}
	if assetID == 0 {
		return nil, apperrors.New(apperrors.CodeInvalidArgument, "asset id is required")
	}

	if _, err := r.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}
	if attendee == "" {
		attendee = account.Address
	}
	if account.Address != attendee {
		return nil, apperrors.New(apperrors.CodeNotAuthorized,
			"the attendance NFT for %s must be minted from their own wallet, not %s", attendee, account.Address)
	}

	reg, err := r.GetRegistration(ctx, eventID, attendee)
	if err != nil {
		return nil, err
	}
	if reg.Status != models.RegStatusAttended {
		return nil, apperrors.New(apperrors.CodeInvalidArgument,
			"attendance NFT requires status %s, registration is %s", models.RegStatusAttended, reg.Status)
	}

	txn, err := r.builder.AppCall(ctx, txbuilder.MethodMintNFT, eventID, account.Address,
		txbuilder.Uint64Arg(assetID))
	if err != nil {
		return nil, err
	}

	res, err := r.submit(ctx, session, "mint_nft", []types.Transaction{txn})
	if err != nil {
		return nil, err
	}
	return &Result{Success: true, TransactionID: res.TxID}, nil
}

// RefundRegistration returns the attendee's payment and releases their
// slot. Owner only; refund payment and the bookkeeping call are grouped so
// the money cannot move without the ledger recording the refund.
func (r *Registry) RefundRegistration(ctx context.Context, session *wallet.Session, eventID, attendee string) (*Result, error) {
	account, _, err := r.requireOwner(ctx, session, eventID)
	if err != nil {
		return nil, err
	}

	reg, err := r.GetRegistration(ctx, eventID, attendee)
	if err != nil {
		return nil, err
	}

	var txns []types.Transaction
	if reg.PaymentAmountMicroAlg > 0 {
		pay, err := r.builder.Payment(ctx, account.Address, attendee, reg.PaymentAmountMicroAlg,
			[]byte(fmt.Sprintf("dynaqr:refund:%s:%s", eventID, attendee)))
		if err != nil {
			return nil, err
		}
		txns = append(txns, pay)
	}

	call, err := r.builder.AppCall(ctx, txbuilder.MethodRefundRegistration, eventID, account.Address)
	if err != nil {
		return nil, err
	}
	txns = append(txns, call)

	if len(txns) > 1 {
		txns, err = r.builder.GroupAtomic(txns)
		if err != nil {
			return nil, err
		}
	}

	res, err := r.submit(ctx, session, "refund_registration", txns)
	if err != nil {
		return nil, err
	}

	_ = r.publisher.Publish(ctx, events.StreamRegistry, events.Event{
		Type: events.EventRegistrationRefunded,
		Payload: map[string]any{
			"event_id": eventID,
			"attendee": attendee,
			"amount":   reg.PaymentAmountMicroAlg,
			"tx_id":    res.TxID,
		},
	})

	return &Result{Success: true, TransactionID: res.TxID}, nil
}

// requireOwner loads the event and rejects callers whose connected address
// is not the owner, before anything is built or signed.
func (r *Registry) requireOwner(ctx context.Context, session *wallet.Session, eventID string) (*models.WalletAccount, *models.DynamicQREvent, error) {
	account := session.Account()
	if account == nil {
		return nil, nil, apperrors.New(apperrors.CodeWalletNotConnected, "no wallet connected")
	}
	ev, err := r.GetEvent(ctx, eventID)
	if err != nil {
		return nil, nil, err
	}
	if ev.Owner != account.Address {
		return nil, nil, apperrors.New(apperrors.CodeNotAuthorized,
			"%s is not the owner of event %s", account.Address, eventID)
	}
	return account, ev, nil
}

// resolveTier picks the ticket tier by explicit index or by name and
// returns (tierIndex, priceMicroAlgos).
func (r *Registry) resolveTier(ctx context.Context, ev *models.DynamicQREvent, req models.RegistrationRequest) (uint64, uint64, error) {
	// Default: single implicit tier at the on-chain price.
	tierIndex := uint64(0)
	amount := ev.TicketPriceMicroAlgos

	md, err := r.store.Get(ctx, ev.EventID)
	if err != nil && !errors.Is(err, metadata.ErrNotFound) {
		return 0, 0, apperrors.Wrap(apperrors.CodeConnectionFailed, err, "metadata read failed")
	}

	hasTiers := md != nil && len(md.TicketTiers) > 0
	switch {
	case req.TicketTierIndex != nil:
		idx := *req.TicketTierIndex
		if idx < 0 || (hasTiers && idx >= len(md.TicketTiers)) {
			return 0, 0, apperrors.New(apperrors.CodeInvalidArgument, "ticket tier index %d out of range", idx)
		}
		tierIndex = uint64(idx)
	case req.TicketTierName != "":
		if !hasTiers {
			return 0, 0, apperrors.New(apperrors.CodeInvalidArgument,
				"event %s has no named ticket tiers", ev.EventID)
		}
		idx := md.TierByName(req.TicketTierName)
		if idx < 0 {
			return 0, 0, apperrors.New(apperrors.CodeInvalidArgument,
				"unknown ticket tier %q", req.TicketTierName)
		}
		tierIndex = uint64(idx)
	}

	if hasTiers && int(tierIndex) < len(md.TicketTiers) {
		if micro, ok := parseAlgoPrice(md.TicketTiers[tierIndex].Price); ok {
			amount = micro
		}
	}
	if req.PaymentAmountMicroAlg > 0 {
		amount = req.PaymentAmountMicroAlg
	}
	return tierIndex, amount, nil
}

// submit signs and submits through the session, recording metrics and
// normalizing ledger-level failures into the error taxonomy.
func (r *Registry) submit(ctx context.Context, session *wallet.Session, operation string, txns []types.Transaction) (*wallet.TransactionResult, error) {
	res, err := session.SignAndSubmit(ctx, txns)
	if err != nil {
		outcome := string(apperrors.CodeOf(err))
		if outcome == "" {
			outcome = "error"
		}
		metrics.TransactionsSubmitted.WithLabelValues(operation, outcome).Inc()
		if apperrors.CodeOf(err) == apperrors.CodeConfirmationTimeout {
			metrics.ConfirmationTimeouts.Inc()
		}
		return nil, err
	}
	metrics.TransactionsSubmitted.WithLabelValues(operation, "confirmed").Inc()
	return res, nil
}

// attachPreview scrapes the destination page. Failures only cost the
// preview fields.
func (r *Registry) attachPreview(ctx context.Context, md *models.EventMetadata, destURL string) {
	if r.previews == nil {
		return
	}
	p, err := r.previews.Fetch(ctx, destURL)
	if err != nil {
		r.log.Debug("destination preview unavailable", zap.String("url", destURL), zap.Error(err))
		return
	}
	md.PreviewTitle = p.Title
	md.PreviewDescription = p.Description
}

// parseAlgoPrice converts a tier's decimal ALGO price string to microAlgos.
func parseAlgoPrice(s string) (uint64, bool) {
	if s == "" {
		return 0, false
	}
	var whole, frac uint64
	var fracDigits int
	seenDot := false
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
			d := uint64(c - '0')
			if seenDot {
				if fracDigits < 6 {
					frac = frac*10 + d
					fracDigits++
				}
			} else {
				whole = whole*10 + d
			}
		case c == '.' && !seenDot:
			seenDot = true
		default:
			return 0, false
		}
	}
	for fracDigits < 6 {
		frac *= 10
		fracDigits++
	}
	return whole*1_000_000 + frac, true
}
