package txbuilder

import (
	"context"
	"fmt"

	"github.com/algorand/go-algorand-sdk/v2/transaction"
	"github.com/algorand/go-algorand-sdk/v2/types"
	"github.com/dynaqr/backend/internal/apperrors"
	"github.com/dynaqr/backend/internal/ledger"
)

// Contract methods (application arg zero).
const (
	MethodCreateEvent        = "create_event"
	MethodUpdateURL          = "update_url"
	MethodRegisterEvent      = "register_event"
	MethodConfirmAttendance  = "confirm_attendance"
	MethodMintNFT            = "mint_nft"
	MethodDeactivateEvent    = "deactivate_event"
	MethodIncrementScan      = "increment_scan"
	MethodUpdateTicketPrice  = "update_ticket_price"
	MethodRefundRegistration = "refund_registration"
)

// Builder assembles unsigned transactions. Network parameters are fetched
// fresh on every build and never cached: fee and validity window are
// time-sensitive.
type Builder struct {
	reader ledger.Reader
	appID  uint64
}

func New(reader ledger.Reader, appID uint64) *Builder {
	if appID == 0 {
		// A missing application id is a deployment mistake, not a runtime
		// condition callers should handle.
		panic("txbuilder: application id must be configured")
	}
	return &Builder{reader: reader, appID: appID}
}

func (b *Builder) AppID() uint64 { return b.appID }

// AppCall builds an application no-op call invoking method for eventID.
// Extra args follow the contract's positional convention.
func (b *Builder) AppCall(ctx context.Context, method, eventID, sender string, extraArgs ...[]byte) (types.Transaction, error) {
	senderAddr, err := types.DecodeAddress(sender)
	if err != nil {
		return types.Transaction{}, apperrors.Transaction(apperrors.StageBuild, err, "invalid sender address %q", sender)
	}

	sp, err := b.reader.SuggestedParams(ctx)
	if err != nil {
		return types.Transaction{}, apperrors.Transaction(apperrors.StageBuild, err, "failed to fetch network params")
	}

	appArgs := make([][]byte, 0, 2+len(extraArgs))
	appArgs = append(appArgs, []byte(method), []byte(eventID))
	appArgs = append(appArgs, extraArgs...)

	txn, err := transaction.MakeApplicationNoOpTx(
		b.appID, appArgs, nil, nil, nil,
		sp, senderAddr, nil, types.Digest{}, [32]byte{}, types.Address{},
	)
	if err != nil {
		return types.Transaction{}, apperrors.Transaction(apperrors.StageBuild, err, "failed to build %s call", method)
	}
	return txn, nil
}

// OptIn builds the opt-in call that allocates local state for the sender.
// Required once per account before it can hold a registration record.
func (b *Builder) OptIn(ctx context.Context, sender string) (types.Transaction, error) {
	senderAddr, err := types.DecodeAddress(sender)
	if err != nil {
		return types.Transaction{}, apperrors.Transaction(apperrors.StageBuild, err, "invalid sender address %q", sender)
	}

	sp, err := b.reader.SuggestedParams(ctx)
	if err != nil {
		return types.Transaction{}, apperrors.Transaction(apperrors.StageBuild, err, "failed to fetch network params")
	}

	txn, err := transaction.MakeApplicationOptInTx(
		b.appID, nil, nil, nil, nil,
		sp, senderAddr, nil, types.Digest{}, [32]byte{}, types.Address{},
	)
	if err != nil {
		return types.Transaction{}, apperrors.Transaction(apperrors.StageBuild, err, "failed to build opt-in")
	}
	return txn, nil
}

// Payment builds a payment of amountMicroAlgos from -> to.
func (b *Builder) Payment(ctx context.Context, from, to string, amountMicroAlgos uint64, note []byte) (types.Transaction, error) {
	sp, err := b.reader.SuggestedParams(ctx)
	if err != nil {
		return types.Transaction{}, apperrors.Transaction(apperrors.StageBuild, err, "failed to fetch network params")
	}

	txn, err := transaction.MakePaymentTxn(from, to, amountMicroAlgos, note, "", sp)
	if err != nil {
		return types.Transaction{}, apperrors.Transaction(apperrors.StageBuild, err, "failed to build payment %s -> %s", from, to)
	}
	return txn, nil
}

// GroupAtomic assigns a shared group id so the transactions commit together
// or not at all. A multi-transaction submission left ungrouped is
// non-atomic; callers owning such a flow must handle partial failure
// explicitly.
func (b *Builder) GroupAtomic(txns []types.Transaction) ([]types.Transaction, error) {
	if len(txns) < 2 {
		return nil, apperrors.New(apperrors.CodeInvalidArgument, "atomic group needs at least 2 transactions, got %d", len(txns))
	}
	grouped, err := transaction.AssignGroupID(txns, "")
	if err != nil {
		return nil, apperrors.Transaction(apperrors.StageBuild, err, "failed to assign group id")
	}
	return grouped, nil
}

// Uint64Arg encodes a uint64 the way the contract's Btoi expects it.
func Uint64Arg(v uint64) []byte {
	buf := make([]byte, 8)
	for i := 7; i >= 0; i-- {
		buf[i] = byte(v)
		v >>= 8
	}
	return buf
}

// PaymentNote composes the note attached to a registration payment so the
// transfer can be tied back to the event off-chain.
func PaymentNote(eventID, attendee string) []byte {
	return []byte(fmt.Sprintf("dynaqr:reg:%s:%s", eventID, attendee))
}
