package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPlayer(t *testing.T, id, name string) *Player {
	t.Helper()
	p, err := NewPlayer(id, name, NewLocation("world", 0, 64, 0))
	require.NoError(t, err, "NewPlayer(%s, %s)", id, name)
	return p
}

func TestNewPlayer_Validation(t *testing.T) {
	_, err := NewPlayer("", "Alice", Location{})
	assert.Error(t, err)

	_, err = NewPlayer("1", "", Location{})
	assert.Error(t, err)

	p := newTestPlayer(t, "1", "Alice")
	assert.True(t, p.Online())
	assert.Equal(t, PersonalInventorySize, p.Inventory().Size())
}

func TestPlayer_Permissions(t *testing.T) {
	p := newTestPlayer(t, "1", "Alice")
	assert.False(t, p.HasPermission("simpletrade.trade"))

	p.Grant("SimpleTrade.Trade")
	assert.True(t, p.HasPermission("simpletrade.trade"))
	assert.False(t, p.HasPermission("simpletrade.reload"))

	p.Grant(PermissionAll)
	assert.True(t, p.HasPermission("simpletrade.reload"))
}

func TestPlayer_Experience(t *testing.T) {
	p := newTestPlayer(t, "1", "Alice")

	p.SetTotalExperience(394)
	assert.Equal(t, 394, p.TotalExperience())
	assert.Equal(t, 17, p.Level())

	p.SetTotalExperience(-5)
	assert.Equal(t, 0, p.TotalExperience())
	assert.Equal(t, 0, p.Level())
}

func TestPlayer_SendMessage(t *testing.T) {
	p := newTestPlayer(t, "1", "Alice")

	var got []string
	p.SetOutput(func(text string) { got = append(got, text) })
	p.SendMessage("hello")
	p.SendMessage("world")

	assert.Equal(t, []string{"hello", "world"}, p.Messages())
	assert.Equal(t, []string{"hello", "world"}, got)
}

func TestPlayer_DropItem(t *testing.T) {
	p := newTestPlayer(t, "1", "Alice")

	p.DropItem(NewItemStack("cobblestone", 0, 12))
	p.DropItem(ItemStack{})

	require.Len(t, p.Dropped(), 1)
	assert.Equal(t, 12, p.Dropped()[0].Amount)
}

func TestExperienceCurve(t *testing.T) {
	tests := []struct {
		level int
		total int
	}{
		{0, 0},
		{1, 7},
		{16, 352},
		{17, 394},
		{30, 1395},
		{31, 1507},
		{32, 1628},
		{40, 2920},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.total, TotalExperienceForLevel(tt.level), "TotalExperienceForLevel(%d)", tt.level)
		assert.Equal(t, tt.level, LevelForExperience(tt.total), "LevelForExperience(%d)", tt.total)
		if tt.total > 0 {
			assert.Equal(t, tt.level-1, LevelForExperience(tt.total-1), "LevelForExperience(%d)", tt.total-1)
		}
	}

	for level := range 50 {
		assert.Equal(t, ExpToNextLevel(level),
			TotalExperienceForLevel(level+1)-TotalExperienceForLevel(level),
			"curve step at level %d", level)
	}
}
