package sharing

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tessella/tessella/collections"
)

type (
	testParty struct{}
	testShare struct{}
)

type testCounts = PartyShareCounts[testParty, testShare]

func newTestCounts(t *testing.T, counts []int) *testCounts {
	t.Helper()
	c, err := NewPartyShareCounts[testParty, testShare](counts)
	require.NoError(t, err)
	return c
}

func TestPartyShareCountsValidation(t *testing.T) {
	_, err := NewPartyShareCounts[testParty, testShare](nil)
	require.Error(t, err, "no parties")
	_, err = NewPartyShareCounts[testParty, testShare]([]int{1, 0, 2})
	require.Error(t, err, "party with no shares")
	_, err = NewPartyShareCounts[testParty, testShare]([]int{MaxTotalShareCount, 1})
	require.Error(t, err, "total above cap")

	c := newTestCounts(t, []int{1, 2, 3, 4})
	require.Equal(t, 4, c.PartyCount())
	require.Equal(t, 10, c.TotalShareCount())
	require.Equal(t, []int{1, 2, 3, 4}, c.Counts())
}

func TestShareToPartyRoundTrip(t *testing.T) {
	c := newTestCounts(t, []int{1, 2, 3, 4})

	// share ids are laid out contiguously per party
	wantParty := []int{0, 1, 1, 2, 2, 2, 3, 3, 3, 3}
	for share, want := range wantParty {
		party, err := c.ShareToPartyID(collections.IDFromInt[testShare](share))
		require.NoError(t, err)
		require.Equal(t, want, party.AsInt())
	}

	share := 0
	for party := 0; party < c.PartyCount(); party++ {
		count, err := c.PartyShareCount(collections.IDFromInt[testParty](party))
		require.NoError(t, err)
		for k := 0; k < count; k++ {
			id, err := c.PartyToShareID(collections.IDFromInt[testParty](party), k)
			require.NoError(t, err)
			require.Equal(t, share, id.AsInt())
			share++
		}
	}

	_, err := c.ShareToPartyID(collections.IDFromInt[testShare](10))
	require.Error(t, err)
	_, err = c.PartyToShareID(collections.IDFromInt[testParty](0), 1)
	require.Error(t, err, "subshare beyond the party's count")
	_, err = c.PartyToShareID(collections.IDFromInt[testParty](4), 0)
	require.Error(t, err)
}

func TestShareIDSubset(t *testing.T) {
	c := newTestCounts(t, []int{1, 2, 3, 4})

	subset := collections.NewSubset[testParty](c.PartyCount())
	require.NoError(t, subset.Add(collections.IDFromInt[testParty](0)))
	require.NoError(t, subset.Add(collections.IDFromInt[testParty](1)))
	require.NoError(t, subset.Add(collections.IDFromInt[testParty](3)))

	ids, err := c.ShareIDSubset(subset)
	require.NoError(t, err)
	want := []int{0, 1, 2, 6, 7, 8, 9}
	require.Len(t, ids, len(want))
	for i, id := range ids {
		require.Equal(t, want[i], id.AsInt())
	}
}
