// Package assets tracks which game-asset tokens an account currently
// holds. Ownership is derived, never stored: a token is owned exactly
// while its most recently seen balance is positive, so a balance update
// to zero removes it from every view without a deletion event.
package assets

import (
	"fmt"
	"log/slog"
	"math/big"
	"sort"
	"sync"

	"github.com/rsodre/d20-dojo/pkg/feed"
	"github.com/rsodre/d20-dojo/pkg/felt"
)

// Balance is one decoded balance record.
type Balance struct {
	Contract string // canonical address
	TokenID  *big.Int
	Balance  *big.Int
}

// DecodeBalance parses a TokenBalance feed item. Token ids and balances
// are arbitrary-precision; a u256 token id must round-trip untouched.
func DecodeBalance(it feed.Item) (Balance, error) {
	contract, err := felt.ParseAddress(it.Field("contract_address"))
	if err != nil {
		return Balance{}, fmt.Errorf("contract_address: %w", err)
	}
	tokenID, err := felt.ParseBig(it.Field("token_id"))
	if err != nil {
		return Balance{}, fmt.Errorf("token_id: %w", err)
	}
	bal, err := felt.ParseBig(it.Field("balance"))
	if err != nil {
		return Balance{}, fmt.Errorf("balance: %w", err)
	}
	return Balance{Contract: contract, TokenID: tokenID, Balance: bal}, nil
}

// Ledger is the balance cache for one subscription. The reconciler is the
// only writer; reads may run concurrently and observe a consistent copy.
type Ledger struct {
	logger *slog.Logger

	mu       sync.RWMutex
	balances map[string]map[string]*big.Int // contract -> token id (decimal) -> balance
}

// NewLedger creates an empty ledger.
func NewLedger(logger *slog.Logger) *Ledger {
	return &Ledger{
		logger:   logger,
		balances: make(map[string]map[string]*big.Int),
	}
}

// Reset drops every balance. Called by the reconciler before a snapshot.
func (l *Ledger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances = make(map[string]map[string]*big.Int)
}

// Apply merges one balance item. Later writes win on the same
// (contract, token) key, so replaying an event changes nothing.
func (l *Ledger) Apply(it feed.Item) error {
	if it.Model != feed.ModelTokenBalance {
		l.logger.Debug("Ignoring feed item for untracked model", "model", it.Model)
		return nil
	}
	b, err := DecodeBalance(it)
	if err != nil {
		return fmt.Errorf("token balance: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	tokens := l.balances[b.Contract]
	if tokens == nil {
		tokens = make(map[string]*big.Int)
		l.balances[b.Contract] = tokens
	}
	tokens[b.TokenID.String()] = b.Balance
	return nil
}

// ApplySnapshot clears the ledger and repopulates it from a full listing.
// Malformed items are skipped individually.
func (l *Ledger) ApplySnapshot(items []feed.Item) {
	l.Reset()
	for _, it := range items {
		if err := l.Apply(it); err != nil {
			l.logger.Debug("Skipping malformed snapshot item", "error", err)
		}
	}
}

// OwnedTokens returns the token ids currently held for the collection,
// strictly ascending by numeric value. The token id zero sentinel is
// excluded; the chain never mints it.
func (l *Ledger) OwnedTokens(collection string) []*big.Int {
	canon, err := felt.ParseAddress(collection)
	if err != nil {
		return nil
	}

	l.mu.RLock()
	out := make([]*big.Int, 0)
	for id, bal := range l.balances[canon] {
		if bal.Sign() <= 0 {
			continue
		}
		v, ok := new(big.Int).SetString(id, 10)
		if !ok || v.Sign() == 0 {
			continue
		}
		out = append(out, v)
	}
	l.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Cmp(out[j]) < 0 })
	return out
}

// Owns reports whether the collection's token is currently held.
func (l *Ledger) Owns(collection string, tokenID *big.Int) bool {
	canon, err := felt.ParseAddress(collection)
	if err != nil || tokenID == nil {
		return false
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	bal, ok := l.balances[canon][tokenID.String()]
	return ok && bal.Sign() > 0
}
