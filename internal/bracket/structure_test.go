package bracket

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateRound1SeedOrder(t *testing.T) {
	testCases := []struct {
		name       string
		numEntries int
		expected   [][2]int
	}{
		{name: "2 entries", numEntries: 2, expected: [][2]int{{0, 1}}},
		{name: "4 entries", numEntries: 4, expected: [][2]int{{0, 3}, {1, 2}}},
		{name: "8 entries", numEntries: 8, expected: [][2]int{{0, 7}, {3, 4}, {1, 6}, {2, 5}}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, generateRound1Pairs(tc.numEntries))
		})
	}
}

func TestStructure(t *testing.T) {
	descriptors, err := Structure(FinalsSize)
	require.NoError(t, err)
	require.Len(t, descriptors, 15)

	firstRound := 0
	for i, d := range descriptors {
		assert.Equal(t, i+1, d.MatchNumber, "descriptors are ordered by match number")

		if d.Round == WinnersQF {
			firstRound++
			require.NotNil(t, d.Seed1)
			require.NotNil(t, d.Seed2)
		} else {
			assert.Nil(t, d.Seed1)
			assert.Nil(t, d.Seed2)
		}

		if d.Round == GrandFinal || d.Round == GrandFinalReset {
			assert.True(t, d.IsTerminal())
			continue
		}
		require.NotNil(t, d.WinnerGoesTo, "match %d must advance its winner", d.MatchNumber)
		assert.Greater(t, *d.WinnerGoesTo, d.MatchNumber)
		assert.Contains(t, []int{1, 2}, d.WinnerSlot)
		if d.LoserGoesTo != nil {
			assert.Greater(t, *d.LoserGoesTo, d.MatchNumber)
		}
	}
	assert.Equal(t, 4, firstRound)

	seeds := [][2]int{}
	for _, d := range descriptors[:4] {
		seeds = append(seeds, [2]int{*d.Seed1, *d.Seed2})
	}
	assert.Equal(t, [][2]int{{1, 8}, {4, 5}, {2, 7}, {3, 6}}, seeds)
}

func TestStructureSlotsAreFilledExactlyOnce(t *testing.T) {
	descriptors, err := Structure(FinalsSize)
	require.NoError(t, err)

	type target struct{ match, slot int }
	filled := map[target]int{}
	for _, d := range descriptors {
		if d.Seed1 != nil {
			filled[target{d.MatchNumber, 1}]++
			filled[target{d.MatchNumber, 2}]++
		}
		if d.WinnerGoesTo != nil {
			filled[target{*d.WinnerGoesTo, d.WinnerSlot}]++
		}
		if d.LoserGoesTo != nil {
			filled[target{*d.LoserGoesTo, d.LoserSlot}]++
		}
	}

	// Everything except the reset match is fed by seeds or advancement.
	for n := 1; n <= 14; n++ {
		assert.Equal(t, 1, filled[target{n, 1}], "match %d slot 1", n)
		assert.Equal(t, 1, filled[target{n, 2}], "match %d slot 2", n)
	}
}

func TestStructureIsDeterministic(t *testing.T) {
	a, err := Structure(FinalsSize)
	require.NoError(t, err)
	b, err := Structure(FinalsSize)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestStructureRejectsOtherSizes(t *testing.T) {
	for _, size := range []int{0, 4, 7, 16} {
		_, err := Structure(size)
		assert.ErrorIs(t, err, ErrUnsupportedBracketSize)
	}
}

func TestLookup(t *testing.T) {
	descriptors, err := Structure(FinalsSize)
	require.NoError(t, err)

	d, ok := Lookup(descriptors, 6)
	require.True(t, ok)
	assert.Equal(t, WinnersSF, d.Round)
	assert.Equal(t, 10, *d.LoserGoesTo)

	_, ok = Lookup(descriptors, 16)
	assert.False(t, ok)
}
