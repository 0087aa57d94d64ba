// Package actor models player characters as the on-chain feed delivers
// them: a set of component records keyed by character id, plus the
// assembled snapshot the action engine consumes.
package actor

import (
	"fmt"

	"github.com/rsodre/d20-dojo/pkg/feed"
	"github.com/rsodre/d20-dojo/pkg/felt"
)

// SpellTiers is the number of slot-limited spell tiers.
const SpellTiers = 3

// Stats is the character's core progression component.
type Stats struct {
	CharacterID       uint64
	Level             int
	XP                int
	Class             Class
	CurrentHP         int
	MaxHP             int
	Dead              bool
	DungeonsConquered int
}

func (s Stats) Key() uint64 { return s.CharacterID }

// Combat is the character's expendable combat resources.
type Combat struct {
	CharacterID     uint64
	ArmorClass      int
	SpellSlots      [SpellTiers]int
	SecondWindUsed  bool
	ActionSurgeUsed bool
}

func (c Combat) Key() uint64 { return c.CharacterID }

// Inventory is the character's carried equipment and consumables.
type Inventory struct {
	CharacterID     uint64
	PrimaryWeapon   string
	SecondaryWeapon string
	Armor           string
	HasShield       bool
	Gold            int
	Potions         int
}

func (i Inventory) Key() uint64 { return i.CharacterID }

// Position is the character's location and combat engagement.
// DungeonID zero means the character is not inside any dungeon.
type Position struct {
	CharacterID     uint64
	DungeonID       uint64
	ChamberID       uint64
	InCombat        bool
	CombatMonsterID uint64
}

func (p Position) Key() uint64 { return p.CharacterID }

// CharacterState is the snapshot the action legality engine reads. It is
// assembled from the component records above; the engine never sees the
// components directly.
type CharacterState struct {
	CharacterID    uint64
	Class          Class
	Level          int
	CurrentHP      int
	MaxHP          int
	Dead           bool
	DungeonID      uint64
	ChamberID      uint64
	InCombat       bool
	SecondWindUsed bool
	SpellSlots     [SpellTiers]int
	Potions        int
}

// DecodeStats parses a CharacterStats feed item.
func DecodeStats(it feed.Item) (Stats, error) {
	var s Stats
	var err error
	if s.CharacterID, err = felt.ParseU64(it.Field("character_id")); err != nil {
		return Stats{}, fmt.Errorf("character_id: %w", err)
	}
	if s.Level, err = felt.ParseInt(it.Field("level")); err != nil {
		return Stats{}, fmt.Errorf("level: %w", err)
	}
	if s.XP, err = felt.ParseInt(it.Field("xp")); err != nil {
		return Stats{}, fmt.Errorf("xp: %w", err)
	}
	if s.CurrentHP, err = felt.ParseInt(it.Field("current_hp")); err != nil {
		return Stats{}, fmt.Errorf("current_hp: %w", err)
	}
	if s.MaxHP, err = felt.ParseInt(it.Field("max_hp")); err != nil {
		return Stats{}, fmt.Errorf("max_hp: %w", err)
	}
	if s.Dead, err = felt.ParseBool(it.Field("is_dead")); err != nil {
		return Stats{}, fmt.Errorf("is_dead: %w", err)
	}
	if s.DungeonsConquered, err = felt.ParseInt(it.Field("dungeons_conquered")); err != nil {
		return Stats{}, fmt.Errorf("dungeons_conquered: %w", err)
	}
	s.Class = ParseClass(it.Field("character_class"))
	return s, nil
}

// DecodeCombat parses a CharacterCombat feed item.
func DecodeCombat(it feed.Item) (Combat, error) {
	var c Combat
	var err error
	if c.CharacterID, err = felt.ParseU64(it.Field("character_id")); err != nil {
		return Combat{}, fmt.Errorf("character_id: %w", err)
	}
	if c.ArmorClass, err = felt.ParseInt(it.Field("armor_class")); err != nil {
		return Combat{}, fmt.Errorf("armor_class: %w", err)
	}
	for tier := 1; tier <= SpellTiers; tier++ {
		field := fmt.Sprintf("spell_slots_%d", tier)
		if c.SpellSlots[tier-1], err = felt.ParseInt(it.Field(field)); err != nil {
			return Combat{}, fmt.Errorf("%s: %w", field, err)
		}
	}
	if c.SecondWindUsed, err = felt.ParseBool(it.Field("second_wind_used")); err != nil {
		return Combat{}, fmt.Errorf("second_wind_used: %w", err)
	}
	if c.ActionSurgeUsed, err = felt.ParseBool(it.Field("action_surge_used")); err != nil {
		return Combat{}, fmt.Errorf("action_surge_used: %w", err)
	}
	return c, nil
}

// DecodeInventory parses a CharacterInventory feed item.
func DecodeInventory(it feed.Item) (Inventory, error) {
	var inv Inventory
	var err error
	if inv.CharacterID, err = felt.ParseU64(it.Field("character_id")); err != nil {
		return Inventory{}, fmt.Errorf("character_id: %w", err)
	}
	if inv.Gold, err = felt.ParseInt(it.Field("gold")); err != nil {
		return Inventory{}, fmt.Errorf("gold: %w", err)
	}
	if inv.Potions, err = felt.ParseInt(it.Field("potions")); err != nil {
		return Inventory{}, fmt.Errorf("potions: %w", err)
	}
	if inv.HasShield, err = felt.ParseBool(it.Field("has_shield")); err != nil {
		return Inventory{}, fmt.Errorf("has_shield: %w", err)
	}
	inv.PrimaryWeapon = it.Field("primary_weapon")
	inv.SecondaryWeapon = it.Field("secondary_weapon")
	inv.Armor = it.Field("armor")
	return inv, nil
}

// DecodePosition parses a CharacterPosition feed item.
func DecodePosition(it feed.Item) (Position, error) {
	var p Position
	var err error
	if p.CharacterID, err = felt.ParseU64(it.Field("character_id")); err != nil {
		return Position{}, fmt.Errorf("character_id: %w", err)
	}
	if p.DungeonID, err = felt.ParseU64(it.Field("dungeon_id")); err != nil {
		return Position{}, fmt.Errorf("dungeon_id: %w", err)
	}
	if p.ChamberID, err = felt.ParseU64(it.Field("chamber_id")); err != nil {
		return Position{}, fmt.Errorf("chamber_id: %w", err)
	}
	if p.InCombat, err = felt.ParseBool(it.Field("in_combat")); err != nil {
		return Position{}, fmt.Errorf("in_combat: %w", err)
	}
	if p.CombatMonsterID, err = felt.ParseU64(it.Field("combat_monster_id")); err != nil {
		return Position{}, fmt.Errorf("combat_monster_id: %w", err)
	}
	return p, nil
}

// Assemble combines the component records into the snapshot the action
// engine reads. Stats is required; the other components default to their
// zero values when the feed has not delivered them yet.
func Assemble(stats Stats, combat Combat, inv Inventory, pos Position) CharacterState {
	return CharacterState{
		CharacterID:    stats.CharacterID,
		Class:          stats.Class,
		Level:          stats.Level,
		CurrentHP:      stats.CurrentHP,
		MaxHP:          stats.MaxHP,
		Dead:           stats.Dead,
		DungeonID:      pos.DungeonID,
		ChamberID:      pos.ChamberID,
		InCombat:       pos.InCombat,
		SecondWindUsed: combat.SecondWindUsed,
		SpellSlots:     combat.SpellSlots,
		Potions:        inv.Potions,
	}
}
