// Package dungeon keeps the local view of dungeon topology: chambers,
// exits, monsters and fallen characters, as revealed by the feed. Records
// are append/update only; the chain never retracts a revealed chamber.
package dungeon

import (
	"fmt"

	"github.com/rsodre/d20-dojo/pkg/feed"
	"github.com/rsodre/d20-dojo/pkg/felt"
)

// Kind classifies a chamber.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindEntrance
	KindEmpty
	KindMonster
	KindTreasure
	KindTrap
	KindBoss
)

var kindNames = [...]string{
	KindUnknown:  "Unknown",
	KindEntrance: "Entrance",
	KindEmpty:    "Empty",
	KindMonster:  "Monster",
	KindTreasure: "Treasure",
	KindTrap:     "Trap",
	KindBoss:     "Boss",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Unknown"
}

// ParseKind maps the wire enum variant to a Kind. Unknown variants map to
// KindUnknown; an unrevealed chamber simply offers no chamber actions.
func ParseKind(s string) Kind {
	for k, name := range kindNames {
		if k != int(KindUnknown) && name == s {
			return Kind(k)
		}
	}
	return KindUnknown
}

// ChamberKey addresses a chamber within a dungeon.
type ChamberKey struct {
	DungeonID uint64
	ChamberID uint64
}

// Chamber is one node of a dungeon.
type Chamber struct {
	DungeonID      uint64
	ChamberID      uint64
	Kind           Kind
	Depth          int
	ExitCount      int
	Revealed       bool
	TreasureLooted bool
	TrapDisarmed   bool
	TrapDC         int
	FallenCount    int
}

func (c Chamber) Key() ChamberKey {
	return ChamberKey{DungeonID: c.DungeonID, ChamberID: c.ChamberID}
}

// ExitKey addresses one directed exit of a chamber.
type ExitKey struct {
	DungeonID     uint64
	FromChamberID uint64
	ExitIndex     int
}

// Exit is a directed edge between chambers. ToChamberID is meaningful
// only once Discovered is true.
type Exit struct {
	DungeonID     uint64
	FromChamberID uint64
	ExitIndex     int
	ToChamberID   uint64
	Discovered    bool
}

func (e Exit) Key() ExitKey {
	return ExitKey{DungeonID: e.DungeonID, FromChamberID: e.FromChamberID, ExitIndex: e.ExitIndex}
}

// MonsterKey addresses a monster instance.
type MonsterKey struct {
	DungeonID uint64
	ChamberID uint64
	MonsterID uint64
}

// Monster is a spawned monster instance.
type Monster struct {
	DungeonID uint64
	ChamberID uint64
	MonsterID uint64
	Kind      string
	CurrentHP int
	MaxHP     int
	Alive     bool
}

func (m Monster) Key() MonsterKey {
	return MonsterKey{DungeonID: m.DungeonID, ChamberID: m.ChamberID, MonsterID: m.MonsterID}
}

// FallenKey addresses one fallen character's remains within a chamber.
type FallenKey struct {
	DungeonID   uint64
	ChamberID   uint64
	FallenIndex int
}

// Fallen records a defeated character's dropped loot, independently
// lootable by index.
type Fallen struct {
	DungeonID      uint64
	ChamberID      uint64
	FallenIndex    int
	CharacterID    uint64
	DroppedWeapon  string
	DroppedArmor   string
	DroppedGold    int
	DroppedPotions int
	Looted         bool
}

func (f Fallen) Key() FallenKey {
	return FallenKey{DungeonID: f.DungeonID, ChamberID: f.ChamberID, FallenIndex: f.FallenIndex}
}

// State is the dungeon-level summary record.
type State struct {
	DungeonID      uint64
	DifficultyTier int
	NextChamberID  uint64
	BossChamberID  uint64
	BossAlive      bool
	MaxDepth       int
}

func (s State) Key() uint64 { return s.DungeonID }

func decodeChamber(it feed.Item) (Chamber, error) {
	var c Chamber
	var err error
	if c.DungeonID, err = felt.ParseU64(it.Field("dungeon_id")); err != nil {
		return Chamber{}, fmt.Errorf("dungeon_id: %w", err)
	}
	if c.ChamberID, err = felt.ParseU64(it.Field("chamber_id")); err != nil {
		return Chamber{}, fmt.Errorf("chamber_id: %w", err)
	}
	if c.Depth, err = felt.ParseInt(it.Field("depth")); err != nil {
		return Chamber{}, fmt.Errorf("depth: %w", err)
	}
	if c.ExitCount, err = felt.ParseInt(it.Field("exit_count")); err != nil {
		return Chamber{}, fmt.Errorf("exit_count: %w", err)
	}
	if c.Revealed, err = felt.ParseBool(it.Field("is_revealed")); err != nil {
		return Chamber{}, fmt.Errorf("is_revealed: %w", err)
	}
	if c.TreasureLooted, err = felt.ParseBool(it.Field("treasure_looted")); err != nil {
		return Chamber{}, fmt.Errorf("treasure_looted: %w", err)
	}
	if c.TrapDisarmed, err = felt.ParseBool(it.Field("trap_disarmed")); err != nil {
		return Chamber{}, fmt.Errorf("trap_disarmed: %w", err)
	}
	if c.TrapDC, err = felt.ParseInt(it.Field("trap_dc")); err != nil {
		return Chamber{}, fmt.Errorf("trap_dc: %w", err)
	}
	if c.FallenCount, err = felt.ParseInt(it.Field("fallen_count")); err != nil {
		return Chamber{}, fmt.Errorf("fallen_count: %w", err)
	}
	c.Kind = ParseKind(it.Field("chamber_type"))
	return c, nil
}

func decodeExit(it feed.Item) (Exit, error) {
	var e Exit
	var err error
	if e.DungeonID, err = felt.ParseU64(it.Field("dungeon_id")); err != nil {
		return Exit{}, fmt.Errorf("dungeon_id: %w", err)
	}
	if e.FromChamberID, err = felt.ParseU64(it.Field("from_chamber_id")); err != nil {
		return Exit{}, fmt.Errorf("from_chamber_id: %w", err)
	}
	if e.ExitIndex, err = felt.ParseInt(it.Field("exit_index")); err != nil {
		return Exit{}, fmt.Errorf("exit_index: %w", err)
	}
	if e.ToChamberID, err = felt.ParseU64(it.Field("to_chamber_id")); err != nil {
		return Exit{}, fmt.Errorf("to_chamber_id: %w", err)
	}
	if e.Discovered, err = felt.ParseBool(it.Field("is_discovered")); err != nil {
		return Exit{}, fmt.Errorf("is_discovered: %w", err)
	}
	return e, nil
}

func decodeMonster(it feed.Item) (Monster, error) {
	var m Monster
	var err error
	if m.DungeonID, err = felt.ParseU64(it.Field("dungeon_id")); err != nil {
		return Monster{}, fmt.Errorf("dungeon_id: %w", err)
	}
	if m.ChamberID, err = felt.ParseU64(it.Field("chamber_id")); err != nil {
		return Monster{}, fmt.Errorf("chamber_id: %w", err)
	}
	if m.MonsterID, err = felt.ParseU64(it.Field("monster_id")); err != nil {
		return Monster{}, fmt.Errorf("monster_id: %w", err)
	}
	if m.CurrentHP, err = felt.ParseInt(it.Field("current_hp")); err != nil {
		return Monster{}, fmt.Errorf("current_hp: %w", err)
	}
	if m.MaxHP, err = felt.ParseInt(it.Field("max_hp")); err != nil {
		return Monster{}, fmt.Errorf("max_hp: %w", err)
	}
	if m.Alive, err = felt.ParseBool(it.Field("is_alive")); err != nil {
		return Monster{}, fmt.Errorf("is_alive: %w", err)
	}
	m.Kind = it.Field("monster_type")
	return m, nil
}

func decodeFallen(it feed.Item) (Fallen, error) {
	var f Fallen
	var err error
	if f.DungeonID, err = felt.ParseU64(it.Field("dungeon_id")); err != nil {
		return Fallen{}, fmt.Errorf("dungeon_id: %w", err)
	}
	if f.ChamberID, err = felt.ParseU64(it.Field("chamber_id")); err != nil {
		return Fallen{}, fmt.Errorf("chamber_id: %w", err)
	}
	if f.FallenIndex, err = felt.ParseInt(it.Field("fallen_index")); err != nil {
		return Fallen{}, fmt.Errorf("fallen_index: %w", err)
	}
	if f.CharacterID, err = felt.ParseU64(it.Field("character_id")); err != nil {
		return Fallen{}, fmt.Errorf("character_id: %w", err)
	}
	if f.DroppedGold, err = felt.ParseInt(it.Field("dropped_gold")); err != nil {
		return Fallen{}, fmt.Errorf("dropped_gold: %w", err)
	}
	if f.DroppedPotions, err = felt.ParseInt(it.Field("dropped_potions")); err != nil {
		return Fallen{}, fmt.Errorf("dropped_potions: %w", err)
	}
	if f.Looted, err = felt.ParseBool(it.Field("is_looted")); err != nil {
		return Fallen{}, fmt.Errorf("is_looted: %w", err)
	}
	f.DroppedWeapon = it.Field("dropped_weapon")
	f.DroppedArmor = it.Field("dropped_armor")
	return f, nil
}

func decodeState(it feed.Item) (State, error) {
	var s State
	var err error
	if s.DungeonID, err = felt.ParseU64(it.Field("dungeon_id")); err != nil {
		return State{}, fmt.Errorf("dungeon_id: %w", err)
	}
	if s.DifficultyTier, err = felt.ParseInt(it.Field("difficulty_tier")); err != nil {
		return State{}, fmt.Errorf("difficulty_tier: %w", err)
	}
	if s.NextChamberID, err = felt.ParseU64(it.Field("next_chamber_id")); err != nil {
		return State{}, fmt.Errorf("next_chamber_id: %w", err)
	}
	if s.BossChamberID, err = felt.ParseU64(it.Field("boss_chamber_id")); err != nil {
		return State{}, fmt.Errorf("boss_chamber_id: %w", err)
	}
	if s.BossAlive, err = felt.ParseBool(it.Field("boss_alive")); err != nil {
		return State{}, fmt.Errorf("boss_alive: %w", err)
	}
	if s.MaxDepth, err = felt.ParseInt(it.Field("max_depth")); err != nil {
		return State{}, fmt.Errorf("max_depth: %w", err)
	}
	return s, nil
}
