package ledger

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/algorand/go-algorand-sdk/v2/client/v2/algod"
	"github.com/algorand/go-algorand-sdk/v2/client/v2/common/models"
	"github.com/algorand/go-algorand-sdk/v2/types"
	"go.uber.org/zap"
)

// AlgodClient implements Client against an algod node.
type AlgodClient struct {
	client *algod.Client
	log    *zap.Logger
}

func NewAlgodClient(url, token string, log *zap.Logger) (*AlgodClient, error) {
	c, err := algod.MakeClient(url, token)
	if err != nil {
		return nil, fmt.Errorf("failed to create algod client: %w", err)
	}
	return &AlgodClient{client: c, log: log}, nil
}

func (c *AlgodClient) GlobalState(ctx context.Context, appID uint64) ([]KeyValue, error) {
	app, err := c.client.GetApplicationByID(appID).Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch application %d: %w", appID, err)
	}
	return convertTealState(app.Params.GlobalState)
}

func (c *AlgodClient) LocalState(ctx context.Context, address string, appID uint64) ([]KeyValue, error) {
	info, err := c.client.AccountApplicationInformation(address, appID).Do(ctx)
	if err != nil {
		// algod answers 404 for an account that never opted in; that is
		// "no local state", not a failure.
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch local state of %s for app %d: %w", address, appID, err)
	}
	return convertTealState(info.AppLocalState.KeyValue)
}

func (c *AlgodClient) SuggestedParams(ctx context.Context) (types.SuggestedParams, error) {
	sp, err := c.client.SuggestedParams().Do(ctx)
	if err != nil {
		return types.SuggestedParams{}, fmt.Errorf("failed to fetch suggested params: %w", err)
	}
	return sp, nil
}

func (c *AlgodClient) AccountBalance(ctx context.Context, address string) (uint64, error) {
	acct, err := c.client.AccountInformation(address).Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch account %s: %w", address, err)
	}
	return acct.Amount, nil
}

func (c *AlgodClient) HoldsAsset(ctx context.Context, address string, assetID uint64) (bool, error) {
	acct, err := c.client.AccountInformation(address).Do(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to fetch account %s: %w", address, err)
	}
	for _, h := range acct.Assets {
		if h.AssetId == assetID && h.Amount > 0 {
			return true, nil
		}
	}
	return false, nil
}

func (c *AlgodClient) SubmitRawTransactions(ctx context.Context, stxs [][]byte) (string, error) {
	// A grouped submission is one concatenated payload; the node accepts
	// the whole group or none of it.
	payload := bytes.Join(stxs, nil)
	txID, err := c.client.SendRawTransaction(payload).Do(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to submit transactions: %w", err)
	}
	return txID, nil
}

func (c *AlgodClient) WaitForConfirmation(ctx context.Context, txID string, maxRounds uint64) (uint64, error) {
	status, err := c.client.Status().Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch node status: %w", err)
	}

	start := status.LastRound
	for round := start; round < start+maxRounds; round++ {
		pending, _, err := c.client.PendingTransactionInformation(txID).Do(ctx)
		if err != nil {
			return 0, fmt.Errorf("failed to fetch pending info for %s: %w", txID, err)
		}
		if pending.ConfirmedRound > 0 {
			return pending.ConfirmedRound, nil
		}
		if pending.PoolError != "" {
			return 0, fmt.Errorf("%w: %s", ErrTransactionRejected, pending.PoolError)
		}

		// Block until the next round lands (or the caller gives up).
		if _, err := c.client.StatusAfterBlock(round).Do(ctx); err != nil {
			if ctx.Err() != nil {
				return 0, ctx.Err()
			}
			return 0, fmt.Errorf("failed waiting for round %d: %w", round+1, err)
		}
	}

	c.log.Warn("transaction not confirmed within round budget",
		zap.String("tx_id", txID),
		zap.Uint64("max_rounds", maxRounds),
	)
	return 0, fmt.Errorf("%w: %s after %d rounds", ErrConfirmationTimeout, txID, maxRounds)
}

// isNotFound spots algod's 404 responses. The client surfaces HTTP status
// only inside the error text ("HTTP 404: ...").
func isNotFound(err error) bool {
	return err != nil && strings.Contains(err.Error(), "HTTP 404")
}

func convertTealState(kvs []models.TealKeyValue) ([]KeyValue, error) {
	out := make([]KeyValue, 0, len(kvs))
	for _, kv := range kvs {
		key, err := base64.StdEncoding.DecodeString(kv.Key)
		if err != nil {
			return nil, fmt.Errorf("malformed state key %q: %w", kv.Key, err)
		}
		entry := KeyValue{Key: key}
		switch kv.Value.Type {
		case 1:
			raw, err := base64.StdEncoding.DecodeString(kv.Value.Bytes)
			if err != nil {
				return nil, fmt.Errorf("malformed bytes value for key %q: %w", key, err)
			}
			entry.Value = TealValue{Kind: KindBytes, Bytes: raw}
		case 2:
			entry.Value = TealValue{Kind: KindUint, Uint: kv.Value.Uint}
		default:
			return nil, fmt.Errorf("unknown value kind %d for key %q", kv.Value.Type, key)
		}
		out = append(out, entry)
	}
	return out, nil
}
