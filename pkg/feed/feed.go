// Package feed defines the contract between the reconciler and the
// streaming data sources that deliver on-chain game state. A source hands
// back a point-in-time snapshot plus a subscription that delivers
// incremental updates one item at a time, in arrival order.
package feed

import (
	"context"
	"sync"
)

// Model names carried on the wire. Each item names the model it updates;
// decoding of the field set belongs to the package that owns the model.
const (
	ModelTokenBalance     = "TokenBalance"
	ModelChamber          = "Chamber"
	ModelChamberExit      = "ChamberExit"
	ModelMonsterInstance  = "MonsterInstance"
	ModelFallenCharacter  = "FallenCharacter"
	ModelDungeonState     = "DungeonState"
	ModelCharacterStats   = "CharacterStats"
	ModelCharacterCombat  = "CharacterCombat"
	ModelCharacterInv     = "CharacterInventory"
	ModelCharacterPos     = "CharacterPosition"
)

// Item is one wire record: a model name and its raw string fields.
// Numeric fields are hex or decimal big-integer strings (see pkg/felt).
type Item struct {
	Model  string            `json:"model"`
	Fields map[string]string `json:"fields"`
}

// Field returns the named field, or "" when the feed omitted it.
func (it Item) Field(name string) string {
	return it.Fields[name]
}

// Query scopes a subscription. Empty slices mean "no filter".
type Query struct {
	Models            []string
	AccountAddresses  []string
	ContractAddresses []string
	Limit             int
}

// WantsModel reports whether the query covers the given model.
func (q Query) WantsModel(model string) bool {
	if len(q.Models) == 0 {
		return true
	}
	for _, m := range q.Models {
		if m == model {
			return true
		}
	}
	return false
}

// Event is one delivery from a live subscription. Err is set for
// connection-level failures; after an Err event no further items arrive
// from this subscription instance.
type Event struct {
	Item Item
	Err  error
}

// Subscription is a live incremental stream. The channel returned by
// Events is closed when the stream ends for any reason. Cancel releases
// the underlying connection and is safe to call more than once; the
// release itself happens exactly once.
type Subscription interface {
	Events() <-chan Event
	Cancel()
}

// Source opens subscriptions. Subscribe returns the initial snapshot and
// the live stream; the snapshot reflects the state at subscription time
// and every later change arrives as an event.
type Source interface {
	Subscribe(ctx context.Context, q Query) ([]Item, Subscription, error)
}

// Handle is a channel-backed Subscription for source implementations and
// test fakes. The release function runs exactly once, on the first Cancel.
type Handle struct {
	events  chan Event
	release func()
	once    sync.Once
}

// NewHandle creates a Handle with the given event buffer size.
func NewHandle(buf int, release func()) *Handle {
	return &Handle{
		events:  make(chan Event, buf),
		release: release,
	}
}

func (h *Handle) Events() <-chan Event { return h.events }

// Send delivers an event to the subscriber. It is the source's job to
// stop sending after Close.
func (h *Handle) Send(ev Event) { h.events <- ev }

// SendCtx delivers an event unless ctx ends first, so a producer never
// blocks on a subscriber that has already been torn down.
func (h *Handle) SendCtx(ctx context.Context, ev Event) bool {
	select {
	case h.events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// Close ends the stream. Call from the producing goroutine only.
func (h *Handle) Close() { close(h.events) }

func (h *Handle) Cancel() {
	h.once.Do(func() {
		if h.release != nil {
			h.release()
		}
	})
}
