package dungeon

import (
	"fmt"
	"log/slog"

	"github.com/rsodre/d20-dojo/pkg/actor"
	"github.com/rsodre/d20-dojo/pkg/feed"
)

// World is the per-session aggregate of every entity store the game feed
// populates. It routes feed items to the right store by model name and is
// the reconciliation target for the entity subscription. One World is
// created when the player connects and torn down on disconnect.
type World struct {
	logger *slog.Logger

	chambers  *Store[ChamberKey, Chamber]
	exits     *Store[ExitKey, Exit]
	monsters  *Store[MonsterKey, Monster]
	fallen    *Store[FallenKey, Fallen]
	dungeons  *Store[uint64, State]
	stats     *Store[uint64, actor.Stats]
	combat    *Store[uint64, actor.Combat]
	inventory *Store[uint64, actor.Inventory]
	position  *Store[uint64, actor.Position]
}

// NewWorld creates an empty world.
func NewWorld(logger *slog.Logger) *World {
	return &World{
		logger: logger,
		chambers: NewStore(Chamber.Key, func(a, b Chamber) bool {
			if a.DungeonID != b.DungeonID {
				return a.DungeonID < b.DungeonID
			}
			return a.ChamberID < b.ChamberID
		}),
		exits: NewStore(Exit.Key, func(a, b Exit) bool {
			if a.DungeonID != b.DungeonID {
				return a.DungeonID < b.DungeonID
			}
			if a.FromChamberID != b.FromChamberID {
				return a.FromChamberID < b.FromChamberID
			}
			return a.ExitIndex < b.ExitIndex
		}),
		monsters: NewStore(Monster.Key, func(a, b Monster) bool {
			if a.DungeonID != b.DungeonID {
				return a.DungeonID < b.DungeonID
			}
			if a.ChamberID != b.ChamberID {
				return a.ChamberID < b.ChamberID
			}
			return a.MonsterID < b.MonsterID
		}),
		fallen: NewStore(Fallen.Key, func(a, b Fallen) bool {
			if a.DungeonID != b.DungeonID {
				return a.DungeonID < b.DungeonID
			}
			if a.ChamberID != b.ChamberID {
				return a.ChamberID < b.ChamberID
			}
			return a.FallenIndex < b.FallenIndex
		}),
		dungeons:  NewStore(State.Key, func(a, b State) bool { return a.DungeonID < b.DungeonID }),
		stats:     NewStore(actor.Stats.Key, func(a, b actor.Stats) bool { return a.CharacterID < b.CharacterID }),
		combat:    NewStore(actor.Combat.Key, func(a, b actor.Combat) bool { return a.CharacterID < b.CharacterID }),
		inventory: NewStore(actor.Inventory.Key, func(a, b actor.Inventory) bool { return a.CharacterID < b.CharacterID }),
		position:  NewStore(actor.Position.Key, func(a, b actor.Position) bool { return a.CharacterID < b.CharacterID }),
	}
}

// Reset drops every record. Called by the reconciler before a snapshot.
func (w *World) Reset() {
	w.chambers.Clear()
	w.exits.Clear()
	w.monsters.Clear()
	w.fallen.Clear()
	w.dungeons.Clear()
	w.stats.Clear()
	w.combat.Clear()
	w.inventory.Clear()
	w.position.Clear()
}

// Apply merges one feed item into the matching store. A malformed item is
// reported back for logging and otherwise skipped; items for models the
// world does not track are ignored.
func (w *World) Apply(it feed.Item) error {
	switch it.Model {
	case feed.ModelChamber:
		c, err := decodeChamber(it)
		if err != nil {
			return fmt.Errorf("chamber: %w", err)
		}
		w.chambers.Upsert(c)
	case feed.ModelChamberExit:
		e, err := decodeExit(it)
		if err != nil {
			return fmt.Errorf("exit: %w", err)
		}
		w.exits.Upsert(e)
	case feed.ModelMonsterInstance:
		m, err := decodeMonster(it)
		if err != nil {
			return fmt.Errorf("monster: %w", err)
		}
		w.monsters.Upsert(m)
	case feed.ModelFallenCharacter:
		f, err := decodeFallen(it)
		if err != nil {
			return fmt.Errorf("fallen: %w", err)
		}
		w.fallen.Upsert(f)
	case feed.ModelDungeonState:
		s, err := decodeState(it)
		if err != nil {
			return fmt.Errorf("dungeon state: %w", err)
		}
		w.dungeons.Upsert(s)
	case feed.ModelCharacterStats:
		s, err := actor.DecodeStats(it)
		if err != nil {
			return fmt.Errorf("character stats: %w", err)
		}
		w.stats.Upsert(s)
	case feed.ModelCharacterCombat:
		c, err := actor.DecodeCombat(it)
		if err != nil {
			return fmt.Errorf("character combat: %w", err)
		}
		w.combat.Upsert(c)
	case feed.ModelCharacterInv:
		inv, err := actor.DecodeInventory(it)
		if err != nil {
			return fmt.Errorf("character inventory: %w", err)
		}
		w.inventory.Upsert(inv)
	case feed.ModelCharacterPos:
		p, err := actor.DecodePosition(it)
		if err != nil {
			return fmt.Errorf("character position: %w", err)
		}
		w.position.Upsert(p)
	default:
		w.logger.Debug("Ignoring feed item for untracked model", "model", it.Model)
	}
	return nil
}

// Chamber returns one chamber record.
func (w *World) Chamber(dungeonID, chamberID uint64) (Chamber, bool) {
	return w.chambers.Get(ChamberKey{DungeonID: dungeonID, ChamberID: chamberID})
}

// ChambersIn returns the dungeon's chambers, chamber id ascending.
func (w *World) ChambersIn(dungeonID uint64) []Chamber {
	return w.chambers.Select(func(c Chamber) bool { return c.DungeonID == dungeonID })
}

// ExitsFrom returns a chamber's exits, exit index ascending.
func (w *World) ExitsFrom(dungeonID, chamberID uint64) []Exit {
	return w.exits.Select(func(e Exit) bool {
		return e.DungeonID == dungeonID && e.FromChamberID == chamberID
	})
}

// FallenIn returns a chamber's fallen characters, fallen index ascending.
func (w *World) FallenIn(dungeonID, chamberID uint64) []Fallen {
	return w.fallen.Select(func(f Fallen) bool {
		return f.DungeonID == dungeonID && f.ChamberID == chamberID
	})
}

// MonstersIn returns every monster instance in the dungeon.
func (w *World) MonstersIn(dungeonID uint64) []Monster {
	return w.monsters.Select(func(m Monster) bool { return m.DungeonID == dungeonID })
}

// MonsterAt returns the living monster in the chamber, if any. The rules
// spawn at most one active monster per chamber; if the feed ever shows
// more, the lowest monster id wins for determinism.
func (w *World) MonsterAt(dungeonID, chamberID uint64) (Monster, bool) {
	alive := w.monsters.Select(func(m Monster) bool {
		return m.DungeonID == dungeonID && m.ChamberID == chamberID && m.Alive
	})
	if len(alive) == 0 {
		return Monster{}, false
	}
	return alive[0], true
}

// Dungeon returns the dungeon-level summary record.
func (w *World) Dungeon(dungeonID uint64) (State, bool) {
	return w.dungeons.Get(dungeonID)
}

// CharacterState assembles the action-engine snapshot for a character.
// It reports false until the character's stats record has arrived; the
// remaining components default to zero values while still in flight.
func (w *World) CharacterState(characterID uint64) (actor.CharacterState, bool) {
	stats, ok := w.stats.Get(characterID)
	if !ok {
		return actor.CharacterState{}, false
	}
	combat, _ := w.combat.Get(characterID)
	inv, _ := w.inventory.Get(characterID)
	pos, _ := w.position.Get(characterID)
	return actor.Assemble(stats, combat, inv, pos), true
}
