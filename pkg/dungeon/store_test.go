package dungeon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newExitStore() *Store[ExitKey, Exit] {
	return NewStore(Exit.Key, func(a, b Exit) bool {
		if a.FromChamberID != b.FromChamberID {
			return a.FromChamberID < b.FromChamberID
		}
		return a.ExitIndex < b.ExitIndex
	})
}

func TestStoreUpsertReplacesByKey(t *testing.T) {
	s := newExitStore()

	s.Upsert(Exit{DungeonID: 1, FromChamberID: 2, ExitIndex: 0})
	s.Upsert(Exit{DungeonID: 1, FromChamberID: 2, ExitIndex: 0, Discovered: true, ToChamberID: 7})
	require.Equal(t, 1, s.Len())

	e, ok := s.Get(ExitKey{DungeonID: 1, FromChamberID: 2, ExitIndex: 0})
	require.True(t, ok)
	assert.True(t, e.Discovered)
	assert.Equal(t, uint64(7), e.ToChamberID)
}

func TestStoreSelectOrderIndependentOfInsertion(t *testing.T) {
	s := newExitStore()

	// Insert out of order, twice each to exercise idempotence.
	for i := 0; i < 2; i++ {
		s.Upsert(Exit{DungeonID: 1, FromChamberID: 2, ExitIndex: 2})
		s.Upsert(Exit{DungeonID: 1, FromChamberID: 2, ExitIndex: 0})
		s.Upsert(Exit{DungeonID: 1, FromChamberID: 2, ExitIndex: 1})
		s.Upsert(Exit{DungeonID: 1, FromChamberID: 9, ExitIndex: 0})
	}

	got := s.Select(func(e Exit) bool { return e.FromChamberID == 2 })
	require.Len(t, got, 3)
	for i, e := range got {
		assert.Equal(t, i, e.ExitIndex)
	}
}

func TestStoreSelectNoMatchesReturnsEmpty(t *testing.T) {
	s := newExitStore()
	s.Upsert(Exit{DungeonID: 1, FromChamberID: 2, ExitIndex: 0})

	got := s.Select(func(e Exit) bool { return e.DungeonID == 999 })
	assert.Empty(t, got)
	assert.NotNil(t, got)
}

func TestStoreClear(t *testing.T) {
	s := newExitStore()
	s.Upsert(Exit{DungeonID: 1, FromChamberID: 2, ExitIndex: 0})
	s.Clear()
	assert.Zero(t, s.Len())
}

func TestParseKind(t *testing.T) {
	assert.Equal(t, KindEntrance, ParseKind("Entrance"))
	assert.Equal(t, KindTrap, ParseKind("Trap"))
	assert.Equal(t, KindBoss, ParseKind("Boss"))
	assert.Equal(t, KindUnknown, ParseKind("None"))
	assert.Equal(t, KindUnknown, ParseKind(""))
	assert.Equal(t, "Treasure", KindTreasure.String())
}
