package ledger

import (
	"context"
	"errors"

	"github.com/algorand/go-algorand-sdk/v2/types"
)

// The ledger is an external collaborator. Everything above this package
// talks to it through Reader/Submitter, never through the SDK client
// directly, so tests can swap in a fake.

type ValueKind uint8

const (
	KindBytes ValueKind = 1
	KindUint  ValueKind = 2
)

// TealValue is one type-tagged application-state value.
type TealValue struct {
	Kind  ValueKind
	Bytes []byte
	Uint  uint64
}

// KeyValue is one raw application-state entry. Key is the decoded key bytes,
// not the API's base64 wrapping.
type KeyValue struct {
	Key   []byte
	Value TealValue
}

var (
	// ErrConfirmationTimeout means the transaction was not confirmed within
	// the round budget. It may still land later; resubmitting risks a
	// double-submission and is left to the caller.
	ErrConfirmationTimeout = errors.New("confirmation timeout")

	// ErrTransactionRejected means the node reported a pool error for the
	// transaction; it will never be confirmed.
	ErrTransactionRejected = errors.New("transaction rejected")
)

type Reader interface {
	// GlobalState returns the application's global key/value state.
	GlobalState(ctx context.Context, appID uint64) ([]KeyValue, error)

	// LocalState returns the key/value state the account has opted in to
	// hold for the application. A nil slice means the account is not
	// opted in (or holds no keys).
	LocalState(ctx context.Context, address string, appID uint64) ([]KeyValue, error)

	// SuggestedParams returns current network parameters. Time-sensitive;
	// callers must fetch fresh params per transaction build.
	SuggestedParams(ctx context.Context) (types.SuggestedParams, error)

	AccountBalance(ctx context.Context, address string) (uint64, error)

	// HoldsAsset reports whether the account holds a nonzero balance of
	// the asset.
	HoldsAsset(ctx context.Context, address string, assetID uint64) (bool, error)
}

type Submitter interface {
	// SubmitRawTransactions submits the signed transactions as a single
	// network call (a group is concatenated into one payload) and returns
	// the id of the first transaction.
	SubmitRawTransactions(ctx context.Context, stxs [][]byte) (string, error)

	// WaitForConfirmation blocks until the transaction is confirmed or
	// maxRounds rounds have elapsed, returning the confirmed round.
	WaitForConfirmation(ctx context.Context, txID string, maxRounds uint64) (uint64, error)
}

type Client interface {
	Reader
	Submitter
}
