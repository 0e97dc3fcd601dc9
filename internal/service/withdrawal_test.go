package service

import (
	"context"
	"errors"
	"testing"

	"github.com/3dxteam/usdt_bot/internal/models"
)

func TestReserveWithdrawalDebitsImmediately(t *testing.T) {
	repo := newFakeRepo()
	repo.addUser(models.User{TelegramID: 1, Username: "alice", Balance: 200})
	svc := newTestService(repo, &fakeChain{})

	req, newBalance, err := svc.ReserveWithdrawal(context.Background(), 1, 50, models.MethodUSDTBEP20, "0x1234567890123456789012345678901234567890")
	if err != nil {
		t.Fatalf("ReserveWithdrawal: %v", err)
	}
	if newBalance != 150 {
		t.Errorf("new balance = %v, want 150", newBalance)
	}
	if req.Status != models.RequestStatusOpen {
		t.Errorf("status = %s, want open", req.Status)
	}

	user, _ := repo.GetUser(context.Background(), 1)
	if user.Balance != 150 {
		t.Errorf("stored balance = %v, want 150", user.Balance)
	}
}

func TestReserveWithdrawalInsufficientFunds(t *testing.T) {
	repo := newFakeRepo()
	repo.addUser(models.User{TelegramID: 1, Username: "alice", Balance: 10})
	svc := newTestService(repo, &fakeChain{})

	_, _, err := svc.ReserveWithdrawal(context.Background(), 1, 50, models.MethodUSDTBEP20, "0x1234567890123456789012345678901234567890")
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("err = %v, want ErrInsufficientFunds", err)
	}

	user, _ := repo.GetUser(context.Background(), 1)
	if user.Balance != 10 {
		t.Errorf("balance = %v, want 10 untouched", user.Balance)
	}
}

func TestReserveWithdrawalRollsBackOnCreateFailure(t *testing.T) {
	repo := newFakeRepo()
	repo.addUser(models.User{TelegramID: 1, Username: "alice", Balance: 200})
	repo.failCreateWithdrawal = true
	svc := newTestService(repo, &fakeChain{})

	_, _, err := svc.ReserveWithdrawal(context.Background(), 1, 50, models.MethodUSDTBEP20, "0x1234567890123456789012345678901234567890")
	if err == nil {
		t.Fatal("expected an error")
	}

	user, _ := repo.GetUser(context.Background(), 1)
	if user.Balance != 200 {
		t.Errorf("balance = %v, want 200 after rollback", user.Balance)
	}
}

func TestRejectWithdrawalRefunds(t *testing.T) {
	repo := newFakeRepo()
	repo.addUser(models.User{TelegramID: 1, Username: "alice", Balance: 200})
	svc := newTestService(repo, &fakeChain{})

	req, _, err := svc.ReserveWithdrawal(context.Background(), 1, 50, models.MethodUSDTBEP20, "0x1234567890123456789012345678901234567890")
	if err != nil {
		t.Fatalf("ReserveWithdrawal: %v", err)
	}

	rejected, err := svc.RejectWithdrawal(context.Background(), req.ID)
	if err != nil {
		t.Fatalf("RejectWithdrawal: %v", err)
	}
	if rejected.Status != models.RequestStatusRejected {
		t.Errorf("status = %s, want rejected", rejected.Status)
	}

	user, _ := repo.GetUser(context.Background(), 1)
	if user.Balance != 200 {
		t.Errorf("balance = %v, want 200 after refund", user.Balance)
	}

	// The round trip leaves no completed withdrawal behind.
	for _, tx := range repo.userTransactions(1, models.TxTypeWithdrawal) {
		if tx.Status == models.TxStatusCompleted {
			t.Errorf("unexpected completed withdrawal row: %+v", tx)
		}
	}
}

func TestApproveWithdrawalSendsOnChain(t *testing.T) {
	repo := newFakeRepo()
	repo.addUser(models.User{TelegramID: 1, Username: "alice", Balance: 200})
	chain := &fakeChain{sendHash: "0xdeadbeef00"}
	svc := newTestService(repo, chain)

	req, _, err := svc.ReserveWithdrawal(context.Background(), 1, 50, models.MethodUSDTBEP20, "0x1234567890123456789012345678901234567890")
	if err != nil {
		t.Fatalf("ReserveWithdrawal: %v", err)
	}

	approved, hash, err := svc.ApproveWithdrawal(context.Background(), req.ID)
	if err != nil {
		t.Fatalf("ApproveWithdrawal: %v", err)
	}
	if hash != "0xdeadbeef00" {
		t.Errorf("hash = %s, want 0xdeadbeef00", hash)
	}
	if approved.Status != models.RequestStatusApproved {
		t.Errorf("status = %s, want approved", approved.Status)
	}
	if len(chain.sentTo) != 1 || chain.sentTo[0] != req.WalletAddress {
		t.Errorf("sent to %v, want [%s]", chain.sentTo, req.WalletAddress)
	}

	withdrawals := repo.userTransactions(1, models.TxTypeWithdrawal)
	if len(withdrawals) != 1 || withdrawals[0].Status != models.TxStatusCompleted {
		t.Fatalf("expected one completed withdrawal row, got %+v", withdrawals)
	}
	if withdrawals[0].TxHash == nil || *withdrawals[0].TxHash != "0xdeadbeef00" {
		t.Errorf("tx hash not recorded: %v", withdrawals[0].TxHash)
	}

	// Approving again must report the request as closed.
	if _, _, err := svc.ApproveWithdrawal(context.Background(), req.ID); !errors.Is(err, ErrRequestNotOpen) {
		t.Errorf("second approve err = %v, want ErrRequestNotOpen", err)
	}
}

func TestApproveWithdrawalRefundsOnSendFailure(t *testing.T) {
	repo := newFakeRepo()
	repo.addUser(models.User{TelegramID: 1, Username: "alice", Balance: 200})
	svc := newTestService(repo, &fakeChain{sendErr: errTest})

	req, _, err := svc.ReserveWithdrawal(context.Background(), 1, 50, models.MethodUSDTBEP20, "0x1234567890123456789012345678901234567890")
	if err != nil {
		t.Fatalf("ReserveWithdrawal: %v", err)
	}

	failed, _, err := svc.ApproveWithdrawal(context.Background(), req.ID)
	if err == nil {
		t.Fatal("expected an error from the failed send")
	}
	if failed == nil || failed.Status != models.RequestStatusRejected {
		t.Fatalf("request = %+v, want rejected", failed)
	}

	user, _ := repo.GetUser(context.Background(), 1)
	if user.Balance != 200 {
		t.Errorf("balance = %v, want 200 after refund", user.Balance)
	}
}

func TestApproveSyriatelWithdrawalSkipsChain(t *testing.T) {
	repo := newFakeRepo()
	repo.addUser(models.User{TelegramID: 1, Username: "alice", Balance: 200})
	chain := &fakeChain{}
	svc := newTestService(repo, chain)

	req, _, err := svc.ReserveWithdrawal(context.Background(), 1, 50, models.MethodSyriatelCash, "0912345678")
	if err != nil {
		t.Fatalf("ReserveWithdrawal: %v", err)
	}
	if req.PhoneNumber != "0912345678" {
		t.Errorf("phone = %s, want 0912345678", req.PhoneNumber)
	}

	approved, hash, err := svc.ApproveWithdrawal(context.Background(), req.ID)
	if err != nil {
		t.Fatalf("ApproveWithdrawal: %v", err)
	}
	if hash != "" {
		t.Errorf("hash = %q, want empty for Syriatel Cash", hash)
	}
	if approved.Status != models.RequestStatusApproved {
		t.Errorf("status = %s, want approved", approved.Status)
	}
	if len(chain.sentTo) != 0 {
		t.Errorf("Syriatel approval must not touch the chain, sent: %v", chain.sentTo)
	}
}
