// Package action derives the set of actions currently legal for a
// character from a reconciled state snapshot. Deriving is all it does:
// outcomes, costs and server-side enforcement belong to the chain, which
// rejects anything illegal regardless of what a client offers.
package action

import (
	"fmt"
	"strconv"

	"github.com/rsodre/d20-dojo/pkg/actor"
	"github.com/rsodre/d20-dojo/pkg/dungeon"
)

// Contracts holds the target contract addresses for the session.
type Contracts struct {
	Temple string
	Combat string
	VRF    string
}

// Action describes one submittable contract call. NeedsVRF marks actions
// whose batch must be led by a randomness request (see RandomnessRequest).
// Actions are built fresh on every call and never persisted.
type Action struct {
	ID         string
	Label      string
	Contract   string
	Entrypoint string
	Calldata   []string
	NeedsVRF   bool
}

// Context is the state snapshot the engine reads, assembled by the caller
// from the world, the ledger and the session's contract addresses.
// Monster may be nil; Exits and Fallen may be partial while syncing.
type Context struct {
	Character actor.CharacterState
	Chamber   dungeon.Chamber
	Exits     []dungeon.Exit
	Fallen    []dungeon.Fallen
	Monster   *dungeon.Monster
	Contracts Contracts
}

type spell struct {
	id      string
	variant string // wire enum variant passed as the cast_spell discriminator
	name    string
	note    string // appended to the slot annotation, e.g. "reaction"
	tier    int
}

// spellbook is ordered: emission order within a tier follows this table.
var spellbook = []spell{
	{id: "cast_firebolt", variant: "FireBolt", name: "Fire Bolt", note: "Cantrip", tier: 0},
	{id: "cast_magic_missile", variant: "MagicMissile", name: "Magic Missile", tier: 1},
	{id: "cast_sleep", variant: "Sleep", name: "Sleep", tier: 1},
	{id: "cast_shield", variant: "ShieldSpell", name: "Shield", note: "reaction", tier: 1},
	{id: "cast_scorching_ray", variant: "ScorchingRay", name: "Scorching Ray", tier: 2},
	{id: "cast_misty_step", variant: "MistyStep", name: "Misty Step", note: "disengage", tier: 2},
	{id: "cast_fireball", variant: "Fireball", name: "Fireball", tier: 3},
}

// Available returns the ordered list of legal actions for the snapshot.
// It is pure: no state, no side effects, and it never fails — missing or
// partial input degrades to a smaller list. Callers rely on the order.
func Available(ctx Context) []Action {
	ch := ctx.Character
	if ch.Dead || ch.DungeonID == 0 {
		return nil
	}
	if ch.InCombat {
		return combatActions(ctx)
	}
	return explorationActions(ctx)
}

func combatActions(ctx Context) []Action {
	ch := ctx.Character
	id := strconv.FormatUint(ch.CharacterID, 10)
	caps := ch.Class.Capabilities()

	actions := []Action{{
		ID:         "attack",
		Label:      "Attack",
		Contract:   ctx.Contracts.Combat,
		Entrypoint: "attack",
		Calldata:   []string{id},
		NeedsVRF:   true,
	}}

	if caps.SecondWind && !ch.SecondWindUsed {
		actions = append(actions, Action{
			ID:         "second_wind",
			Label:      "Second Wind",
			Contract:   ctx.Contracts.Combat,
			Entrypoint: "second_wind",
			Calldata:   []string{id},
			NeedsVRF:   true,
		})
	}

	if caps.CunningActionLevel > 0 && ch.Level >= caps.CunningActionLevel {
		actions = append(actions, Action{
			ID:         "cunning_action",
			Label:      "Cunning Action (Disengage)",
			Contract:   ctx.Contracts.Combat,
			Entrypoint: "cunning_action",
			Calldata:   []string{id},
		})
	}

	if caps.Spellcaster {
		for _, sp := range spellbook {
			if sp.tier > 0 && ch.SpellSlots[sp.tier-1] <= 0 {
				continue
			}
			label := fmt.Sprintf("%s (%s)", sp.name, sp.note)
			if sp.tier > 0 {
				slot := fmt.Sprintf("Lv%d", sp.tier)
				if sp.note != "" {
					slot += " " + sp.note
				}
				label = fmt.Sprintf("%s (%s, %d left)", sp.name, slot, ch.SpellSlots[sp.tier-1])
			}
			actions = append(actions, Action{
				ID:         sp.id,
				Label:      label,
				Contract:   ctx.Contracts.Combat,
				Entrypoint: "cast_spell",
				Calldata:   []string{id, sp.variant},
				NeedsVRF:   true,
			})
		}
	}

	if ch.Potions > 0 {
		actions = append(actions, Action{
			ID:         "use_item",
			Label:      fmt.Sprintf("Use Health Potion (%d)", ch.Potions),
			Contract:   ctx.Contracts.Combat,
			Entrypoint: "use_item",
			Calldata:   []string{id, "HealthPotion"},
			NeedsVRF:   true,
		})
	}

	return append(actions, Action{
		ID:         "flee",
		Label:      "Flee",
		Contract:   ctx.Contracts.Combat,
		Entrypoint: "flee",
		Calldata:   []string{id},
		NeedsVRF:   true,
	})
}

func explorationActions(ctx Context) []Action {
	ch := ctx.Character
	id := strconv.FormatUint(ch.CharacterID, 10)

	byIndex := make(map[int]dungeon.Exit, len(ctx.Exits))
	for _, e := range ctx.Exits {
		byIndex[e.ExitIndex] = e
	}

	var actions []Action
	for i := 0; i < ctx.Chamber.ExitCount; i++ {
		exit, known := byIndex[i]
		if !known || !exit.Discovered {
			actions = append(actions, Action{
				ID:         fmt.Sprintf("open_exit_%d", i),
				Label:      fmt.Sprintf("Exit %d: Open", i+1),
				Contract:   ctx.Contracts.Temple,
				Entrypoint: "open_exit",
				Calldata:   []string{id, strconv.Itoa(i)},
				NeedsVRF:   true,
			})
			continue
		}
		actions = append(actions, Action{
			ID:         fmt.Sprintf("move_%d", i),
			Label:      fmt.Sprintf("Exit %d: Enter Chamber #%d", i+1, exit.ToChamberID),
			Contract:   ctx.Contracts.Temple,
			Entrypoint: "move_to_chamber",
			Calldata:   []string{id, strconv.Itoa(i)},
			NeedsVRF:   true,
		})
	}

	if (ctx.Chamber.Kind == dungeon.KindTreasure || ctx.Chamber.Kind == dungeon.KindEmpty) &&
		!ctx.Chamber.TreasureLooted {
		actions = append(actions, Action{
			ID:         "loot_treasure",
			Label:      "Loot Treasure",
			Contract:   ctx.Contracts.Temple,
			Entrypoint: "loot_treasure",
			Calldata:   []string{id},
			NeedsVRF:   true,
		})
	}

	if ctx.Chamber.Kind == dungeon.KindTrap && !ctx.Chamber.TrapDisarmed {
		actions = append(actions, Action{
			ID:         "disarm_trap",
			Label:      "Disarm Trap",
			Contract:   ctx.Contracts.Temple,
			Entrypoint: "disarm_trap",
			Calldata:   []string{id},
			NeedsVRF:   true,
		})
	}

	// Fallen are index-addressed so two players looting concurrently
	// never collide on the same body.
	for _, f := range ctx.Fallen {
		if f.Looted {
			continue
		}
		actions = append(actions, Action{
			ID:         fmt.Sprintf("loot_fallen_%d", f.FallenIndex),
			Label:      fmt.Sprintf("Loot Fallen Explorer #%d", f.FallenIndex+1),
			Contract:   ctx.Contracts.Temple,
			Entrypoint: "loot_fallen",
			Calldata:   []string{id, strconv.Itoa(f.FallenIndex)},
		})
	}

	return append(actions, Action{
		ID:         "exit_dungeon",
		Label:      "Exit Temple",
		Contract:   ctx.Contracts.Temple,
		Entrypoint: "exit_temple",
		Calldata:   []string{id},
	})
}

// RandomnessRequest builds the VRF request_random call that must lead the
// batch of any NeedsVRF action. caller is the contract about to consume
// the randomness; source is the submitting account address.
func RandomnessRequest(vrfAddress, caller, source string) Action {
	return Action{
		ID:         "request_random",
		Label:      "Request Randomness",
		Contract:   vrfAddress,
		Entrypoint: "request_random",
		Calldata:   []string{caller, "0", source},
	}
}
