package wallet

import (
	"context"
	"crypto/ed25519"
	"fmt"

	"github.com/algorand/go-algorand-sdk/v2/crypto"
	"github.com/algorand/go-algorand-sdk/v2/mnemonic"
	"github.com/algorand/go-algorand-sdk/v2/types"
	"github.com/dynaqr/backend/internal/models"
)

// MnemonicProvider signs locally with a key recovered from a 25-word
// mnemonic. Used for the operator account and for headless deployments.
type MnemonicProvider struct {
	sk      ed25519.PrivateKey
	address string
	name    string
}

func NewMnemonicProvider(phrase, displayName string) (*MnemonicProvider, error) {
	sk, err := mnemonic.ToPrivateKey(phrase)
	if err != nil {
		return nil, fmt.Errorf("invalid mnemonic: %w", err)
	}
	account, err := crypto.AccountFromPrivateKey(sk)
	if err != nil {
		return nil, fmt.Errorf("failed to derive account: %w", err)
	}
	return &MnemonicProvider{
		sk:      sk,
		address: account.Address.String(),
		name:    displayName,
	}, nil
}

func (p *MnemonicProvider) Tag() string { return models.ProviderMnemonic }

func (p *MnemonicProvider) Connect(_ context.Context) (*models.WalletAccount, error) {
	return &models.WalletAccount{
		Address:     p.address,
		DisplayName: p.name,
		Provider:    p.Tag(),
	}, nil
}

func (p *MnemonicProvider) SignTransactions(ctx context.Context, txns []types.Transaction) ([][]byte, error) {
	signed := make([][]byte, 0, len(txns))
	for i, txn := range txns {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		_, stx, err := crypto.SignTransaction(p.sk, txn)
		if err != nil {
			return nil, fmt.Errorf("failed to sign transaction %d: %w", i, err)
		}
		signed = append(signed, stx)
	}
	return signed, nil
}

func (p *MnemonicProvider) Disconnect(_ context.Context) error { return nil }

// Address is the provider's fixed account address.
func (p *MnemonicProvider) Address() string { return p.address }
