package token

import (
	"math/big"
)

// Metadata describes a registered fungible token.
type Metadata struct {
	Name     string
	Symbol   string
	Decimals uint8
}

// LedgerState abstracts the persistence required by the token ledger. Balance
// and allowance getters return a zero value when no entry exists.
type LedgerState interface {
	TokenMetadataGet(token [20]byte) (*Metadata, bool, error)
	TokenMetadataPut(token [20]byte, meta *Metadata) error
	TokenBalanceGet(token, account [20]byte) (*big.Int, error)
	TokenBalancePut(token, account [20]byte, amount *big.Int) error
	TokenAllowanceGet(token, owner, spender [20]byte) (*big.Int, error)
	TokenAllowancePut(token, owner, spender [20]byte, amount *big.Int) error
	TokenSupplyGet(token [20]byte) (*big.Int, error)
	TokenSupplyPut(token [20]byte, amount *big.Int) error
}

// Ledger implements an ERC20-style fungible ledger over every registered
// token. The protocol uses it both for the stake asset and for each pool's
// claim token; pools hold a bound view via Bind.
type Ledger struct {
	state LedgerState
}

// NewLedger constructs a token ledger over the supplied state backend.
func NewLedger(state LedgerState) *Ledger {
	return &Ledger{state: state}
}

func isZero(addr [20]byte) bool {
	var zero [20]byte
	return addr == zero
}

func checkAmount(amount *big.Int) (*big.Int, error) {
	if amount == nil {
		return big.NewInt(0), nil
	}
	if amount.Sign() < 0 {
		return nil, ErrInvalidAmount
	}
	return amount, nil
}

// Init registers a token under the supplied address. A second registration for
// the same address fails. Zero decimals defaults to 18.
func (l *Ledger) Init(token [20]byte, name, symbol string, decimals uint8) error {
	if l == nil || l.state == nil {
		return ErrNilState
	}
	if decimals == 0 {
		decimals = 18
	}
	if _, ok, err := l.state.TokenMetadataGet(token); err != nil {
		return err
	} else if ok {
		return ErrTokenExists
	}
	return l.state.TokenMetadataPut(token, &Metadata{Name: name, Symbol: symbol, Decimals: decimals})
}

// Metadata returns the registered metadata for a token.
func (l *Ledger) Metadata(token [20]byte) (*Metadata, error) {
	if l == nil || l.state == nil {
		return nil, ErrNilState
	}
	meta, ok, err := l.state.TokenMetadataGet(token)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrTokenNotFound
	}
	clone := *meta
	return &clone, nil
}

// BalanceOf returns the balance held by account.
func (l *Ledger) BalanceOf(token, account [20]byte) (*big.Int, error) {
	if l == nil || l.state == nil {
		return nil, ErrNilState
	}
	return l.state.TokenBalanceGet(token, account)
}

// TotalSupply returns the amount of token currently in circulation.
func (l *Ledger) TotalSupply(token [20]byte) (*big.Int, error) {
	if l == nil || l.state == nil {
		return nil, ErrNilState
	}
	return l.state.TokenSupplyGet(token)
}

// Allowance returns the remaining amount spender may move on behalf of owner.
func (l *Ledger) Allowance(token, owner, spender [20]byte) (*big.Int, error) {
	if l == nil || l.state == nil {
		return nil, ErrNilState
	}
	return l.state.TokenAllowanceGet(token, owner, spender)
}

// Approve sets the allowance of spender over the caller's balance.
func (l *Ledger) Approve(token, owner, spender [20]byte, amount *big.Int) error {
	if l == nil || l.state == nil {
		return ErrNilState
	}
	if isZero(spender) {
		return ErrApproveToZero
	}
	amount, err := checkAmount(amount)
	if err != nil {
		return err
	}
	return l.state.TokenAllowancePut(token, owner, spender, new(big.Int).Set(amount))
}

// DecreaseAllowance lowers the allowance of spender, failing if the result
// would drop below zero.
func (l *Ledger) DecreaseAllowance(token, owner, spender [20]byte, amount *big.Int) error {
	if l == nil || l.state == nil {
		return ErrNilState
	}
	amount, err := checkAmount(amount)
	if err != nil {
		return err
	}
	current, err := l.state.TokenAllowanceGet(token, owner, spender)
	if err != nil {
		return err
	}
	if current.Cmp(amount) < 0 {
		return ErrAllowanceBelowZero
	}
	return l.state.TokenAllowancePut(token, owner, spender, new(big.Int).Sub(current, amount))
}

// Transfer moves amount from one account to another.
func (l *Ledger) Transfer(token, from, to [20]byte, amount *big.Int) error {
	if l == nil || l.state == nil {
		return ErrNilState
	}
	if isZero(from) {
		return ErrTransferFromZero
	}
	if isZero(to) {
		return ErrTransferToZero
	}
	amount, err := checkAmount(amount)
	if err != nil {
		return err
	}
	fromBal, err := l.state.TokenBalanceGet(token, from)
	if err != nil {
		return err
	}
	if fromBal.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	toBal, err := l.state.TokenBalanceGet(token, to)
	if err != nil {
		return err
	}
	if err := l.state.TokenBalancePut(token, from, new(big.Int).Sub(fromBal, amount)); err != nil {
		return err
	}
	return l.state.TokenBalancePut(token, to, new(big.Int).Add(toBal, amount))
}

// TransferFrom moves amount from one account to another, spending spender's
// allowance over the source balance.
func (l *Ledger) TransferFrom(token, spender, from, to [20]byte, amount *big.Int) error {
	if l == nil || l.state == nil {
		return ErrNilState
	}
	amount, err := checkAmount(amount)
	if err != nil {
		return err
	}
	allowance, err := l.state.TokenAllowanceGet(token, from, spender)
	if err != nil {
		return err
	}
	if allowance.Cmp(amount) < 0 {
		return ErrInsufficientAllowance
	}
	if err := l.Transfer(token, from, to, amount); err != nil {
		return err
	}
	return l.state.TokenAllowancePut(token, from, spender, new(big.Int).Sub(allowance, amount))
}

// Mint credits newly created token units to an account.
func (l *Ledger) Mint(token, to [20]byte, amount *big.Int) error {
	if l == nil || l.state == nil {
		return ErrNilState
	}
	if isZero(to) {
		return ErrMintToZero
	}
	amount, err := checkAmount(amount)
	if err != nil {
		return err
	}
	supply, err := l.state.TokenSupplyGet(token)
	if err != nil {
		return err
	}
	bal, err := l.state.TokenBalanceGet(token, to)
	if err != nil {
		return err
	}
	if err := l.state.TokenSupplyPut(token, new(big.Int).Add(supply, amount)); err != nil {
		return err
	}
	return l.state.TokenBalancePut(token, to, new(big.Int).Add(bal, amount))
}

// Burn destroys token units held by an account.
func (l *Ledger) Burn(token, from [20]byte, amount *big.Int) error {
	if l == nil || l.state == nil {
		return ErrNilState
	}
	if isZero(from) {
		return ErrBurnFromZero
	}
	amount, err := checkAmount(amount)
	if err != nil {
		return err
	}
	bal, err := l.state.TokenBalanceGet(token, from)
	if err != nil {
		return err
	}
	if bal.Cmp(amount) < 0 {
		return ErrBurnExceedsBalance
	}
	supply, err := l.state.TokenSupplyGet(token)
	if err != nil {
		return err
	}
	if err := l.state.TokenBalancePut(token, from, new(big.Int).Sub(bal, amount)); err != nil {
		return err
	}
	return l.state.TokenSupplyPut(token, new(big.Int).Sub(supply, amount))
}

// Token is a view of the ledger bound to a single token address. Pool engines
// hold bound views for their stake asset and claim token.
type Token struct {
	ledger *Ledger
	token  [20]byte
}

// Bind returns a view of the ledger scoped to one token.
func (l *Ledger) Bind(token [20]byte) *Token {
	return &Token{ledger: l, token: token}
}

// Address returns the bound token address.
func (t *Token) Address() [20]byte { return t.token }

func (t *Token) Metadata() (*Metadata, error) { return t.ledger.Metadata(t.token) }

func (t *Token) BalanceOf(account [20]byte) (*big.Int, error) {
	return t.ledger.BalanceOf(t.token, account)
}

func (t *Token) TotalSupply() (*big.Int, error) { return t.ledger.TotalSupply(t.token) }

func (t *Token) Transfer(from, to [20]byte, amount *big.Int) error {
	return t.ledger.Transfer(t.token, from, to, amount)
}

func (t *Token) TransferFrom(spender, from, to [20]byte, amount *big.Int) error {
	return t.ledger.TransferFrom(t.token, spender, from, to, amount)
}

func (t *Token) Approve(owner, spender [20]byte, amount *big.Int) error {
	return t.ledger.Approve(t.token, owner, spender, amount)
}

func (t *Token) Allowance(owner, spender [20]byte) (*big.Int, error) {
	return t.ledger.Allowance(t.token, owner, spender)
}

func (t *Token) Mint(to [20]byte, amount *big.Int) error {
	return t.ledger.Mint(t.token, to, amount)
}

func (t *Token) Burn(from [20]byte, amount *big.Int) error {
	return t.ledger.Burn(t.token, from, amount)
}
