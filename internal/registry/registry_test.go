package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/XavierBriggs/Argus/sports/americanfootball_nfl"
	"github.com/XavierBriggs/Argus/sports/basketball_nba"
)

func TestSportRegistry_ResolveAliases(t *testing.T) {
	reg := NewSportRegistry()
	require.NoError(t, reg.Register(basketball_nba.NewModule()))
	require.NoError(t, reg.Register(americanfootball_nfl.NewModule()))

	for _, tag := range []string{"NBA", "nba", " basketball_nba ", "basketball/nba"} {
		sport, ok := reg.Resolve(tag)
		require.True(t, ok, tag)
		assert.Equal(t, "basketball_nba", sport.GetSportKey())
	}

	sport, ok := reg.Resolve("NFL")
	require.True(t, ok)
	assert.Equal(t, "americanfootball_nfl", sport.GetSportKey())

	_, ok = reg.Resolve("cricket")
	assert.False(t, ok)
}

func TestSportRegistry_DuplicateRegistration(t *testing.T) {
	reg := NewSportRegistry()
	require.NoError(t, reg.Register(basketball_nba.NewModule()))

	err := reg.Register(basketball_nba.NewModule())
	assert.Error(t, err)
	assert.Equal(t, 1, reg.Count())
}

func TestSportRegistry_GetAllSorted(t *testing.T) {
	reg := NewSportRegistry()
	require.NoError(t, reg.Register(basketball_nba.NewModule()))
	require.NoError(t, reg.Register(americanfootball_nfl.NewModule()))

	all := reg.GetAll()
	require.Len(t, all, 2)
	assert.Equal(t, "americanfootball_nfl", all[0].GetSportKey())
	assert.Equal(t, "basketball_nba", all[1].GetSportKey())
}
