package wallet

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/algorand/go-algorand-sdk/v2/types"
	"github.com/dynaqr/backend/internal/apperrors"
	"github.com/dynaqr/backend/internal/ledger"
	"github.com/dynaqr/backend/internal/models"
	"go.uber.org/zap"
)

// Provider is the signing capability: a concrete wallet backend that can
// open a connection, sign a batch, and tear down. Variants are selected by
// explicit tag at connect time, never by probing ambient globals.
type Provider interface {
	Tag() string
	Connect(ctx context.Context) (*models.WalletAccount, error)
	SignTransactions(ctx context.Context, txns []types.Transaction) ([][]byte, error)
	Disconnect(ctx context.Context) error
}

// TransactionResult reports a confirmed submission.
type TransactionResult struct {
	TxID           string `json:"tx_id"`
	ConfirmedRound uint64 `json:"confirmed_round"`
}

// Session owns the active wallet connection. It is an explicit object
// passed to every operation that needs signing; there is no package-level
// state. One account is active at a time: Connect replaces, never merges.
type Session struct {
	mu        sync.Mutex
	providers []Provider
	submitter ledger.Submitter
	maxRounds uint64
	log       *zap.Logger

	active  Provider
	account *models.WalletAccount
}

func NewSession(submitter ledger.Submitter, maxRounds uint64, log *zap.Logger, providers ...Provider) *Session {
	if maxRounds == 0 {
		maxRounds = 10
	}
	return &Session{
		providers: providers,
		submitter: submitter,
		maxRounds: maxRounds,
		log:       log,
	}
}

// Connect opens a wallet connection. An empty providerHint tries the
// registered providers in order and keeps the first that connects.
func (s *Session) Connect(ctx context.Context, providerHint string) (*models.WalletAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active != nil {
		// Single slot: drop the previous connection first.
		_ = s.active.Disconnect(ctx)
		s.active = nil
		s.account = nil
	}

	var lastErr error
	for _, p := range s.providers {
		if providerHint != "" && p.Tag() != providerHint {
			continue
		}
		account, err := p.Connect(ctx)
		if err != nil {
			lastErr = err
			if providerHint != "" {
				break
			}
			continue
		}
		account.ConnectedAt = time.Now().UTC()
		s.active = p
		s.account = account
		s.log.Info("wallet connected",
			zap.String("provider", p.Tag()),
			zap.String("address", account.Address),
		)
		return account, nil
	}

	if lastErr != nil {
		return nil, apperrors.Wrap(apperrors.CodeConnectionFailed, lastErr, "wallet connection failed")
	}
	return nil, apperrors.New(apperrors.CodeConnectionFailed, "no wallet provider matches %q", providerHint)
}

func (s *Session) Disconnect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == nil {
		return nil
	}
	err := s.active.Disconnect(ctx)
	s.log.Info("wallet disconnected", zap.String("provider", s.active.Tag()))
	s.active = nil
	s.account = nil
	return err
}

// Account returns the active account, or nil when no wallet is connected.
func (s *Session) Account() *models.WalletAccount {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.account
}

// SignAndSubmit signs every transaction in the batch, submits them as one
// network call, and blocks until confirmation or the round budget runs out.
//
// Every transaction's sender must equal the connected account: a mismatch
// is a hard error, never silently re-signed with the wrong key. A caller
// abandoning the flow (context cancelled during signing) resolves as
// UserCancelled rather than hanging.
func (s *Session) SignAndSubmit(ctx context.Context, txns []types.Transaction) (*TransactionResult, error) {
	s.mu.Lock()
	provider := s.active
	account := s.account
	s.mu.Unlock()

	if provider == nil || account == nil {
		return nil, apperrors.New(apperrors.CodeWalletNotConnected, "no wallet connected")
	}
	for i, txn := range txns {
		if txn.Sender.String() != account.Address {
			return nil, apperrors.New(apperrors.CodeInvalidArgument,
				"transaction %d sender %s does not match connected account %s", i, txn.Sender, account.Address)
		}
	}

	signed, err := provider.SignTransactions(ctx, txns)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, apperrors.Wrap(apperrors.CodeUserCancelled, err, "signing abandoned")
		}
		return nil, apperrors.Transaction(apperrors.StageSign, err, "provider %s failed to sign", provider.Tag())
	}

	txID, err := s.submitter.SubmitRawTransactions(ctx, signed)
	if err != nil {
		return nil, apperrors.Transaction(apperrors.StageSubmit, err, "submission failed")
	}

	round, err := s.submitter.WaitForConfirmation(ctx, txID, s.maxRounds)
	if err != nil {
		if errors.Is(err, ledger.ErrConfirmationTimeout) {
			// The transaction may still land in a later round; retrying is
			// the caller's call, since resubmission risks a double-spend.
			return nil, apperrors.Wrap(apperrors.CodeConfirmationTimeout, err, "transaction %s unconfirmed", txID)
		}
		if errors.Is(err, context.Canceled) {
			return nil, apperrors.Wrap(apperrors.CodeUserCancelled, err, "confirmation wait abandoned")
		}
		return nil, apperrors.Transaction(apperrors.StageConfirm, err, "transaction %s not confirmed", txID)
	}

	return &TransactionResult{TxID: txID, ConfirmedRound: round}, nil
}
