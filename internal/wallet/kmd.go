package wallet

import (
	"context"
	"fmt"
	"sync"

	"github.com/algorand/go-algorand-sdk/v2/client/kmd"
	"github.com/algorand/go-algorand-sdk/v2/types"
	"github.com/dynaqr/backend/internal/models"
	"go.uber.org/zap"
)

// KMDProvider signs through a kmd daemon. The connection handshake differs
// from the mnemonic provider: a wallet handle is acquired at connect time
// and released on disconnect.
type KMDProvider struct {
	client     kmd.Client
	walletName string
	walletPass string
	log        *zap.Logger

	mu      sync.Mutex
	handle  string
	address string
}

func NewKMDProvider(url, token, walletName, walletPassword string, log *zap.Logger) (*KMDProvider, error) {
	client, err := kmd.MakeClient(url, token)
	if err != nil {
		return nil, fmt.Errorf("failed to create kmd client: %w", err)
	}
	return &KMDProvider{
		client:     client,
		walletName: walletName,
		walletPass: walletPassword,
		log:        log,
	}, nil
}

func (p *KMDProvider) Tag() string { return models.ProviderKMD }

func (p *KMDProvider) Connect(_ context.Context) (*models.WalletAccount, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	wallets, err := p.client.ListWallets()
	if err != nil {
		return nil, fmt.Errorf("kmd unreachable: %w", err)
	}

	var walletID string
	for _, w := range wallets.Wallets {
		if w.Name == p.walletName {
			walletID = w.ID
			break
		}
	}
	if walletID == "" {
		return nil, fmt.Errorf("kmd wallet %q not found", p.walletName)
	}

	handleResp, err := p.client.InitWalletHandle(walletID, p.walletPass)
	if err != nil {
		return nil, fmt.Errorf("failed to open kmd wallet %q: %w", p.walletName, err)
	}
	p.handle = handleResp.WalletHandleToken

	keys, err := p.client.ListKeys(p.handle)
	if err != nil {
		p.releaseLocked()
		return nil, fmt.Errorf("failed to list kmd keys: %w", err)
	}
	if len(keys.Addresses) == 0 {
		p.releaseLocked()
		return nil, fmt.Errorf("kmd wallet %q holds no keys", p.walletName)
	}
	p.address = keys.Addresses[0]

	return &models.WalletAccount{
		Address:     p.address,
		DisplayName: p.walletName,
		Provider:    p.Tag(),
	}, nil
}

func (p *KMDProvider) SignTransactions(ctx context.Context, txns []types.Transaction) ([][]byte, error) {
	p.mu.Lock()
	handle := p.handle
	p.mu.Unlock()

	if handle == "" {
		return nil, fmt.Errorf("kmd wallet handle not open")
	}

	signed := make([][]byte, 0, len(txns))
	for i, txn := range txns {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		resp, err := p.client.SignTransaction(handle, p.walletPass, txn)
		if err != nil {
			return nil, fmt.Errorf("kmd failed to sign transaction %d: %w", i, err)
		}
		signed = append(signed, resp.SignedTransaction)
	}
	return signed, nil
}

func (p *KMDProvider) Disconnect(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.releaseLocked()
	return nil
}

func (p *KMDProvider) releaseLocked() {
	if p.handle == "" {
		return
	}
	if _, err := p.client.ReleaseWalletHandle(p.handle); err != nil {
		p.log.Warn("failed to release kmd wallet handle", zap.Error(err))
	}
	p.handle = ""
	p.address = ""
}
