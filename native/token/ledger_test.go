package token

import (
	"errors"
	"math/big"
	"testing"
)

type mockState struct {
	metadata   map[[20]byte]*Metadata
	balances   map[string]*big.Int
	allowances map[string]*big.Int
	supplies   map[[20]byte]*big.Int
}

func newMockState() *mockState {
	return &mockState{
		metadata:   make(map[[20]byte]*Metadata),
		balances:   make(map[string]*big.Int),
		allowances: make(map[string]*big.Int),
		supplies:   make(map[[20]byte]*big.Int),
	}
}

func joinKey(parts ...[20]byte) string {
	out := make([]byte, 0, len(parts)*20)
	for _, part := range parts {
		out = append(out, part[:]...)
	}
	return string(out)
}

func (m *mockState) TokenMetadataGet(token [20]byte) (*Metadata, bool, error) {
	meta, ok := m.metadata[token]
	if !ok {
		return nil, false, nil
	}
	clone := *meta
	return &clone, true, nil
}

func (m *mockState) TokenMetadataPut(token [20]byte, meta *Metadata) error {
	clone := *meta
	m.metadata[token] = &clone
	return nil
}

func (m *mockState) TokenBalanceGet(token, account [20]byte) (*big.Int, error) {
	if b, ok := m.balances[joinKey(token, account)]; ok {
		return new(big.Int).Set(b), nil
	}
	return big.NewInt(0), nil
}

func (m *mockState) TokenBalancePut(token, account [20]byte, amount *big.Int) error {
	m.balances[joinKey(token, account)] = new(big.Int).Set(amount)
	return nil
}

func (m *mockState) TokenAllowanceGet(token, owner, spender [20]byte) (*big.Int, error) {
	if a, ok := m.allowances[joinKey(token, owner, spender)]; ok {
		return new(big.Int).Set(a), nil
	}
	return big.NewInt(0), nil
}

func (m *mockState) TokenAllowancePut(token, owner, spender [20]byte, amount *big.Int) error {
	m.allowances[joinKey(token, owner, spender)] = new(big.Int).Set(amount)
	return nil
}

func (m *mockState) TokenSupplyGet(token [20]byte) (*big.Int, error) {
	if s, ok := m.supplies[token]; ok {
		return new(big.Int).Set(s), nil
	}
	return big.NewInt(0), nil
}

func (m *mockState) TokenSupplyPut(token [20]byte, amount *big.Int) error {
	m.supplies[token] = new(big.Int).Set(amount)
	return nil
}

func addr(last byte) [20]byte {
	var out [20]byte
	out[19] = last
	return out
}

func newTestLedger(t *testing.T) (*Ledger, [20]byte) {
	t.Helper()
	ledger := NewLedger(newMockState())
	tokenAddr := addr(0xF0)
	if err := ledger.Init(tokenAddr, "Stake Token", "STK", 18); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	return ledger, tokenAddr
}

func TestInitOnce(t *testing.T) {
	ledger, tokenAddr := newTestLedger(t)
	if err := ledger.Init(tokenAddr, "Again", "AGN", 18); !errors.Is(err, ErrTokenExists) {
		t.Fatalf("second init must fail, got %v", err)
	}
	meta, err := ledger.Metadata(tokenAddr)
	if err != nil {
		t.Fatalf("metadata failed: %v", err)
	}
	if meta.Name != "Stake Token" || meta.Symbol != "STK" || meta.Decimals != 18 {
		t.Fatalf("metadata mismatch: %+v", meta)
	}
	if _, err := ledger.Metadata(addr(0xF1)); !errors.Is(err, ErrTokenNotFound) {
		t.Fatalf("unknown token must fail, got %v", err)
	}
}

func TestMintTransferBurn(t *testing.T) {
	ledger, tokenAddr := newTestLedger(t)
	alice, bob := addr(0x01), addr(0x02)

	if err := ledger.Mint(tokenAddr, alice, big.NewInt(1000)); err != nil {
		t.Fatalf("mint failed: %v", err)
	}
	if supply, _ := ledger.TotalSupply(tokenAddr); supply.Cmp(big.NewInt(1000)) != 0 {
		t.Fatalf("supply = %s, want 1000", supply)
	}
	if err := ledger.Transfer(tokenAddr, alice, bob, big.NewInt(400)); err != nil {
		t.Fatalf("transfer failed: %v", err)
	}
	if bal, _ := ledger.BalanceOf(tokenAddr, bob); bal.Cmp(big.NewInt(400)) != 0 {
		t.Fatalf("bob balance = %s, want 400", bal)
	}
	if err := ledger.Transfer(tokenAddr, alice, bob, big.NewInt(601)); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("overdraft must fail, got %v", err)
	}
	if err := ledger.Burn(tokenAddr, bob, big.NewInt(400)); err != nil {
		t.Fatalf("burn failed: %v", err)
	}
	if supply, _ := ledger.TotalSupply(tokenAddr); supply.Cmp(big.NewInt(600)) != 0 {
		t.Fatalf("supply after burn = %s, want 600", supply)
	}
	if err := ledger.Burn(tokenAddr, bob, big.NewInt(1)); !errors.Is(err, ErrBurnExceedsBalance) {
		t.Fatalf("over-burn must fail, got %v", err)
	}
}

func TestTransferFromSpendsAllowance(t *testing.T) {
	ledger, tokenAddr := newTestLedger(t)
	alice, bob, pool := addr(0x01), addr(0x02), addr(0xAA)

	if err := ledger.Mint(tokenAddr, alice, big.NewInt(1000)); err != nil {
		t.Fatalf("mint failed: %v", err)
	}
	if err := ledger.TransferFrom(tokenAddr, pool, alice, bob, big.NewInt(100)); !errors.Is(err, ErrInsufficientAllowance) {
		t.Fatalf("missing allowance must fail, got %v", err)
	}
	if err := ledger.Approve(tokenAddr, alice, pool, big.NewInt(300)); err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if err := ledger.TransferFrom(tokenAddr, pool, alice, bob, big.NewInt(100)); err != nil {
		t.Fatalf("transferFrom failed: %v", err)
	}
	remaining, err := ledger.Allowance(tokenAddr, alice, pool)
	if err != nil {
		t.Fatalf("allowance failed: %v", err)
	}
	if remaining.Cmp(big.NewInt(200)) != 0 {
		t.Fatalf("allowance = %s, want 200", remaining)
	}
	if err := ledger.TransferFrom(tokenAddr, pool, alice, bob, big.NewInt(201)); !errors.Is(err, ErrInsufficientAllowance) {
		t.Fatalf("exceeding allowance must fail, got %v", err)
	}
}

func TestDecreaseAllowanceFloor(t *testing.T) {
	ledger, tokenAddr := newTestLedger(t)
	alice, pool := addr(0x01), addr(0xAA)

	if err := ledger.Approve(tokenAddr, alice, pool, big.NewInt(100)); err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if err := ledger.DecreaseAllowance(tokenAddr, alice, pool, big.NewInt(101)); !errors.Is(err, ErrAllowanceBelowZero) {
		t.Fatalf("decrease below zero must fail, got %v", err)
	}
	if err := ledger.DecreaseAllowance(tokenAddr, alice, pool, big.NewInt(40)); err != nil {
		t.Fatalf("decrease failed: %v", err)
	}
	remaining, _ := ledger.Allowance(tokenAddr, alice, pool)
	if remaining.Cmp(big.NewInt(60)) != 0 {
		t.Fatalf("allowance = %s, want 60", remaining)
	}
}

func TestZeroAddressGuards(t *testing.T) {
	ledger, tokenAddr := newTestLedger(t)
	alice := addr(0x01)
	var zero [20]byte

	if err := ledger.Transfer(tokenAddr, zero, alice, big.NewInt(1)); !errors.Is(err, ErrTransferFromZero) {
		t.Fatalf("transfer from zero, got %v", err)
	}
	if err := ledger.Transfer(tokenAddr, alice, zero, big.NewInt(1)); !errors.Is(err, ErrTransferToZero) {
		t.Fatalf("transfer to zero, got %v", err)
	}
	if err := ledger.Approve(tokenAddr, alice, zero, big.NewInt(1)); !errors.Is(err, ErrApproveToZero) {
		t.Fatalf("approve to zero, got %v", err)
	}
	if err := ledger.Mint(tokenAddr, zero, big.NewInt(1)); !errors.Is(err, ErrMintToZero) {
		t.Fatalf("mint to zero, got %v", err)
	}
	if err := ledger.Burn(tokenAddr, zero, big.NewInt(1)); !errors.Is(err, ErrBurnFromZero) {
		t.Fatalf("burn from zero, got %v", err)
	}
}

func TestBoundViewDelegates(t *testing.T) {
	ledger, tokenAddr := newTestLedger(t)
	alice, bob := addr(0x01), addr(0x02)
	view := ledger.Bind(tokenAddr)

	if view.Address() != tokenAddr {
		t.Fatalf("bound address mismatch")
	}
	if err := view.Mint(alice, big.NewInt(500)); err != nil {
		t.Fatalf("mint failed: %v", err)
	}
	if err := view.Transfer(alice, bob, big.NewInt(200)); err != nil {
		t.Fatalf("transfer failed: %v", err)
	}
	bal, err := view.BalanceOf(bob)
	if err != nil {
		t.Fatalf("balance failed: %v", err)
	}
	if bal.Cmp(big.NewInt(200)) != 0 {
		t.Fatalf("bob balance = %s, want 200", bal)
	}
}
