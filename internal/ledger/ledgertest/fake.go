// Package ledgertest provides an in-memory ledger.Client for tests.
package ledgertest

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/algorand/go-algorand-sdk/v2/types"
	"github.com/dynaqr/backend/internal/ledger"
)

type Fake struct {
	mu sync.Mutex

	global   map[uint64][]ledger.KeyValue
	local    map[string][]ledger.KeyValue
	balances map[string]uint64
	assets   map[string]map[uint64]uint64

	// Submitted collects every batch passed to SubmitRawTransactions.
	Submitted [][][]byte

	Params     types.SuggestedParams
	ParamsErr  error
	SubmitErr  error
	ConfirmErr error

	ConfirmedRound uint64
	nextTxSeq      int
}

func New() *Fake {
	return &Fake{
		global:   make(map[uint64][]ledger.KeyValue),
		local:    make(map[string][]ledger.KeyValue),
		balances: make(map[string]uint64),
		assets:   make(map[string]map[uint64]uint64),
		Params: types.SuggestedParams{
			Fee:             0,
			MinFee:          1000,
			GenesisID:       "dynaqr-test-v1",
			GenesisHash:     bytes.Repeat([]byte{0x01}, 32),
			FirstRoundValid: 1000,
			LastRoundValid:  2000,
		},
		ConfirmedRound: 1001,
	}
}

func localKey(address string, appID uint64) string {
	return fmt.Sprintf("%s/%d", address, appID)
}

func (f *Fake) SetGlobal(appID uint64, kvs []ledger.KeyValue) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.global[appID] = kvs
}

func (f *Fake) AppendGlobal(appID uint64, kvs ...ledger.KeyValue) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.global[appID] = append(f.global[appID], kvs...)
}

func (f *Fake) SetLocal(address string, appID uint64, kvs []ledger.KeyValue) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.local[localKey(address, appID)] = kvs
}

func (f *Fake) SetBalance(address string, microAlgos uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.balances[address] = microAlgos
}

func (f *Fake) SetAssetHolding(address string, assetID, amount uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.assets[address] == nil {
		f.assets[address] = make(map[uint64]uint64)
	}
	f.assets[address][assetID] = amount
}

func (f *Fake) GlobalState(_ context.Context, appID uint64) ([]ledger.KeyValue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.global[appID], nil
}

func (f *Fake) LocalState(_ context.Context, address string, appID uint64) ([]ledger.KeyValue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.local[localKey(address, appID)], nil
}

func (f *Fake) SuggestedParams(_ context.Context) (types.SuggestedParams, error) {
	if f.ParamsErr != nil {
		return types.SuggestedParams{}, f.ParamsErr
	}
	return f.Params, nil
}

func (f *Fake) AccountBalance(_ context.Context, address string) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.balances[address], nil
}

func (f *Fake) HoldsAsset(_ context.Context, address string, assetID uint64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.assets[address][assetID] > 0, nil
}

func (f *Fake) SubmitRawTransactions(_ context.Context, stxs [][]byte) (string, error) {
	if f.SubmitErr != nil {
		return "", f.SubmitErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Submitted = append(f.Submitted, stxs)
	f.nextTxSeq++
	return fmt.Sprintf("FAKETX%06d", f.nextTxSeq), nil
}

func (f *Fake) WaitForConfirmation(_ context.Context, txID string, _ uint64) (uint64, error) {
	if f.ConfirmErr != nil {
		return 0, f.ConfirmErr
	}
	return f.ConfirmedRound, nil
}

// SubmitCount returns how many submissions were made.
func (f *Fake) SubmitCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Submitted)
}
