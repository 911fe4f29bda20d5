package wallet

import (
	"context"
	"errors"
	"testing"

	"github.com/algorand/go-algorand-sdk/v2/crypto"
	"github.com/algorand/go-algorand-sdk/v2/mnemonic"
	"github.com/algorand/go-algorand-sdk/v2/types"
	"github.com/dynaqr/backend/internal/apperrors"
	"github.com/dynaqr/backend/internal/ledger"
	"github.com/dynaqr/backend/internal/ledger/ledgertest"
	"github.com/dynaqr/backend/internal/models"
	"github.com/dynaqr/backend/internal/txbuilder"
	"go.uber.org/zap"
)

// stubProvider is a scriptable in-memory Provider.
type stubProvider struct {
	tag        string
	address    string
	connectErr error
	signErr    error
	connected  bool
}

func (p *stubProvider) Tag() string { return p.tag }

func (p *stubProvider) Connect(_ context.Context) (*models.WalletAccount, error) {
	if p.connectErr != nil {
		return nil, p.connectErr
	}
	p.connected = true
	return &models.WalletAccount{Address: p.address, Provider: p.tag}, nil
}

func (p *stubProvider) SignTransactions(ctx context.Context, txns []types.Transaction) ([][]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p.signErr != nil {
		return nil, p.signErr
	}
	out := make([][]byte, len(txns))
	for i := range txns {
		out[i] = []byte("signed")
	}
	return out, nil
}

func (p *stubProvider) Disconnect(_ context.Context) error {
	p.connected = false
	return nil
}

func newTestAccount(t *testing.T) crypto.Account {
	t.Helper()
	return crypto.GenerateAccount()
}

func buildAppCall(t *testing.T, fake *ledgertest.Fake, sender string) types.Transaction {
	t.Helper()
	b := txbuilder.New(fake, 77)
	txn, err := b.AppCall(context.Background(), txbuilder.MethodIncrementScan, "evt-1", sender)
	if err != nil {
		t.Fatalf("AppCall: %v", err)
	}
	return txn
}

func TestConnectByHint(t *testing.T) {
	fake := ledgertest.New()
	acct := newTestAccount(t)
	kmdStub := &stubProvider{tag: models.ProviderKMD, connectErr: errors.New("kmd down")}
	mnStub := &stubProvider{tag: models.ProviderMnemonic, address: acct.Address.String()}
	s := NewSession(fake, 10, zap.NewNop(), kmdStub, mnStub)

	account, err := s.Connect(context.Background(), models.ProviderMnemonic)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if account.Provider != models.ProviderMnemonic || account.Address != acct.Address.String() {
		t.Errorf("unexpected account: %+v", account)
	}

	// A hinted provider that fails must not fall through to another one.
	if _, err := s.Connect(context.Background(), models.ProviderKMD); apperrors.CodeOf(err) != apperrors.CodeConnectionFailed {
		t.Errorf("got %v, want ConnectionFailed", err)
	}
}

func TestConnectAutoDetectFallsThrough(t *testing.T) {
	fake := ledgertest.New()
	acct := newTestAccount(t)
	kmdStub := &stubProvider{tag: models.ProviderKMD, connectErr: errors.New("kmd down")}
	mnStub := &stubProvider{tag: models.ProviderMnemonic, address: acct.Address.String()}
	s := NewSession(fake, 10, zap.NewNop(), kmdStub, mnStub)

	account, err := s.Connect(context.Background(), "")
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if account.Provider != models.ProviderMnemonic {
		t.Errorf("auto-detect picked %q, want mnemonic fallback", account.Provider)
	}
}

func TestConnectReplacesActiveAccount(t *testing.T) {
	fake := ledgertest.New()
	a1 := newTestAccount(t)
	a2 := newTestAccount(t)
	p1 := &stubProvider{tag: models.ProviderMnemonic, address: a1.Address.String()}
	p2 := &stubProvider{tag: models.ProviderKMD, address: a2.Address.String()}
	s := NewSession(fake, 10, zap.NewNop(), p1, p2)

	if _, err := s.Connect(context.Background(), models.ProviderMnemonic); err != nil {
		t.Fatalf("first Connect: %v", err)
	}
	if _, err := s.Connect(context.Background(), models.ProviderKMD); err != nil {
		t.Fatalf("second Connect: %v", err)
	}

	if p1.connected {
		t.Error("previous provider still connected; connect must replace, not merge")
	}
	if got := s.Account().Address; got != a2.Address.String() {
		t.Errorf("active account = %s, want %s", got, a2.Address)
	}
}

func TestSignAndSubmitRequiresConnection(t *testing.T) {
	fake := ledgertest.New()
	s := NewSession(fake, 10, zap.NewNop())

	_, err := s.SignAndSubmit(context.Background(), []types.Transaction{{}})
	if apperrors.CodeOf(err) != apperrors.CodeWalletNotConnected {
		t.Errorf("got %v, want WalletNotConnected", err)
	}
}

func TestSignAndSubmitSenderMismatch(t *testing.T) {
	fake := ledgertest.New()
	acct := newTestAccount(t)
	other := newTestAccount(t)
	p := &stubProvider{tag: models.ProviderMnemonic, address: acct.Address.String()}
	s := NewSession(fake, 10, zap.NewNop(), p)
	if _, err := s.Connect(context.Background(), ""); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	txn := buildAppCall(t, fake, other.Address.String())
	_, err := s.SignAndSubmit(context.Background(), []types.Transaction{txn})
	if apperrors.CodeOf(err) != apperrors.CodeInvalidArgument {
		t.Errorf("got %v, want hard error on sender mismatch", err)
	}
	if fake.SubmitCount() != 0 {
		t.Error("mismatched batch must not reach the network")
	}
}

func TestSignAndSubmitHappyPath(t *testing.T) {
	fake := ledgertest.New()
	acct := newTestAccount(t)
	p := &stubProvider{tag: models.ProviderMnemonic, address: acct.Address.String()}
	s := NewSession(fake, 10, zap.NewNop(), p)
	if _, err := s.Connect(context.Background(), ""); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	txn := buildAppCall(t, fake, acct.Address.String())
	res, err := s.SignAndSubmit(context.Background(), []types.Transaction{txn})
	if err != nil {
		t.Fatalf("SignAndSubmit: %v", err)
	}
	if res.TxID == "" || res.ConfirmedRound == 0 {
		t.Errorf("incomplete result: %+v", res)
	}
	if fake.SubmitCount() != 1 {
		t.Errorf("submissions = %d, want 1", fake.SubmitCount())
	}
}

func TestSignAndSubmitConfirmationTimeout(t *testing.T) {
	fake := ledgertest.New()
	fake.ConfirmErr = ledger.ErrConfirmationTimeout
	acct := newTestAccount(t)
	p := &stubProvider{tag: models.ProviderMnemonic, address: acct.Address.String()}
	s := NewSession(fake, 10, zap.NewNop(), p)
	if _, err := s.Connect(context.Background(), ""); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	txn := buildAppCall(t, fake, acct.Address.String())
	_, err := s.SignAndSubmit(context.Background(), []types.Transaction{txn})
	if apperrors.CodeOf(err) != apperrors.CodeConfirmationTimeout {
		t.Errorf("got %v, want ConfirmationTimeout (distinct from rejection)", err)
	}
}

func TestSignAndSubmitUserCancelled(t *testing.T) {
	fake := ledgertest.New()
	acct := newTestAccount(t)
	p := &stubProvider{tag: models.ProviderMnemonic, address: acct.Address.String()}
	s := NewSession(fake, 10, zap.NewNop(), p)
	if _, err := s.Connect(context.Background(), ""); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	txn := buildAppCall(t, fake, acct.Address.String())
	cancel() // abandon the signing flow before it starts

	_, err := s.SignAndSubmit(ctx, []types.Transaction{txn})
	if apperrors.CodeOf(err) != apperrors.CodeUserCancelled {
		t.Errorf("got %v, want UserCancelled", err)
	}
}

func TestMnemonicProviderDerivesAddress(t *testing.T) {
	acct := newTestAccount(t)
	phrase, err := mnemonic.FromPrivateKey(acct.PrivateKey)
	if err != nil {
		t.Fatalf("FromPrivateKey: %v", err)
	}

	p, err := NewMnemonicProvider(phrase, "operator")
	if err != nil {
		t.Fatalf("NewMnemonicProvider: %v", err)
	}
	if p.Address() != acct.Address.String() {
		t.Errorf("address = %s, want %s", p.Address(), acct.Address)
	}

	fake := ledgertest.New()
	txn := buildAppCall(t, fake, acct.Address.String())
	signed, err := p.SignTransactions(context.Background(), []types.Transaction{txn})
	if err != nil {
		t.Fatalf("SignTransactions: %v", err)
	}
	if len(signed) != 1 || len(signed[0]) == 0 {
		t.Errorf("expected one non-empty signed blob, got %v", signed)
	}

	if _, err := NewMnemonicProvider("not a mnemonic", ""); err == nil {
		t.Error("expected error for malformed mnemonic")
	}
}
