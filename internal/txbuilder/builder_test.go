package txbuilder

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/algorand/go-algorand-sdk/v2/types"
	"github.com/dynaqr/backend/internal/apperrors"
	"github.com/dynaqr/backend/internal/ledger/ledgertest"
)

func testAddress(t *testing.T, fill byte) string {
	t.Helper()
	addr, err := types.EncodeAddress(bytes.Repeat([]byte{fill}, 32))
	if err != nil {
		t.Fatalf("failed to build test address: %v", err)
	}
	return addr
}

func TestAppCallArgs(t *testing.T) {
	fake := ledgertest.New()
	b := New(fake, 77)
	sender := testAddress(t, 0x01)

	txn, err := b.AppCall(context.Background(), MethodUpdateURL, "evt-1", sender, []byte("https://new.example.com"))
	if err != nil {
		t.Fatalf("AppCall: %v", err)
	}

	if txn.Type != types.ApplicationCallTx {
		t.Errorf("type = %v, want appl", txn.Type)
	}
	if txn.ApplicationID != 77 {
		t.Errorf("app id = %d, want 77", txn.ApplicationID)
	}
	args := txn.ApplicationArgs
	if len(args) != 3 {
		t.Fatalf("got %d app args, want 3", len(args))
	}
	if string(args[0]) != MethodUpdateURL || string(args[1]) != "evt-1" || string(args[2]) != "https://new.example.com" {
		t.Errorf("unexpected app args: %q", args)
	}
	if txn.Sender.String() != sender {
		t.Errorf("sender = %s, want %s", txn.Sender, sender)
	}
	if txn.FirstValid != fake.Params.FirstRoundValid || txn.LastValid != fake.Params.LastRoundValid {
		t.Errorf("validity window = [%d, %d], want [%d, %d]",
			txn.FirstValid, txn.LastValid, fake.Params.FirstRoundValid, fake.Params.LastRoundValid)
	}
}

func TestAppCallInvalidSender(t *testing.T) {
	b := New(ledgertest.New(), 77)

	_, err := b.AppCall(context.Background(), MethodIncrementScan, "evt-1", "not-an-address")
	var ae *apperrors.Error
	if !errors.As(err, &ae) || ae.Code != apperrors.CodeTransactionFailed || ae.Stage != apperrors.StageBuild {
		t.Fatalf("got %v, want TransactionFailed at build stage", err)
	}
}

func TestAppCallParamsError(t *testing.T) {
	fake := ledgertest.New()
	fake.ParamsErr = errors.New("node unavailable")
	b := New(fake, 77)

	_, err := b.AppCall(context.Background(), MethodIncrementScan, "evt-1", testAddress(t, 0x01))
	var ae *apperrors.Error
	if !errors.As(err, &ae) || ae.Stage != apperrors.StageBuild {
		t.Fatalf("got %v, want build-stage failure", err)
	}
}

func TestPayment(t *testing.T) {
	fake := ledgertest.New()
	b := New(fake, 77)
	from := testAddress(t, 0x01)
	to := testAddress(t, 0x02)

	txn, err := b.Payment(context.Background(), from, to, 2500000, PaymentNote("evt-1", from))
	if err != nil {
		t.Fatalf("Payment: %v", err)
	}
	if txn.Type != types.PaymentTx {
		t.Errorf("type = %v, want pay", txn.Type)
	}
	if uint64(txn.Amount) != 2500000 {
		t.Errorf("amount = %d, want 2500000", txn.Amount)
	}
	if txn.Receiver.String() != to {
		t.Errorf("receiver = %s, want %s", txn.Receiver, to)
	}
	if !bytes.Contains(txn.Note, []byte("evt-1")) {
		t.Errorf("note %q should reference the event", txn.Note)
	}
}

func TestGroupAtomic(t *testing.T) {
	fake := ledgertest.New()
	b := New(fake, 77)
	from := testAddress(t, 0x01)
	to := testAddress(t, 0x02)

	pay, err := b.Payment(context.Background(), from, to, 1000000, nil)
	if err != nil {
		t.Fatalf("Payment: %v", err)
	}
	call, err := b.AppCall(context.Background(), MethodRegisterEvent, "evt-1", from, Uint64Arg(0), Uint64Arg(1000000))
	if err != nil {
		t.Fatalf("AppCall: %v", err)
	}

	grouped, err := b.GroupAtomic([]types.Transaction{pay, call})
	if err != nil {
		t.Fatalf("GroupAtomic: %v", err)
	}
	if len(grouped) != 2 {
		t.Fatalf("got %d transactions, want 2", len(grouped))
	}
	if grouped[0].Group == (types.Digest{}) {
		t.Error("group id not assigned")
	}
	if grouped[0].Group != grouped[1].Group {
		t.Error("group ids differ within the group")
	}
}

func TestGroupAtomicRejectsSingleton(t *testing.T) {
	b := New(ledgertest.New(), 77)
	txn, err := b.OptIn(context.Background(), testAddress(t, 0x01))
	if err != nil {
		t.Fatalf("OptIn: %v", err)
	}

	if _, err := b.GroupAtomic([]types.Transaction{txn}); err == nil {
		t.Error("expected error for single-transaction group")
	}
}

func TestUint64Arg(t *testing.T) {
	tests := []struct {
		in   uint64
		want []byte
	}{
		{0, []byte{0, 0, 0, 0, 0, 0, 0, 0}},
		{1, []byte{0, 0, 0, 0, 0, 0, 0, 1}},
		{258, []byte{0, 0, 0, 0, 0, 0, 1, 2}},
	}
	for _, tt := range tests {
		if got := Uint64Arg(tt.in); !bytes.Equal(got, tt.want) {
			t.Errorf("Uint64Arg(%d) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
