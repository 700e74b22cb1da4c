package tier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/kleanloop/internal/model"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		points int64
		want   model.Tier
	}{
		{points: -1, want: model.TierBronze},
		{points: 0, want: model.TierBronze},
		{points: 200, want: model.TierBronze},
		{points: 499, want: model.TierBronze},
		{points: 500, want: model.TierSilver},
		{points: 1999, want: model.TierSilver},
		{points: 2000, want: model.TierGold},
		{points: 4999, want: model.TierGold},
		{points: 5000, want: model.TierPlatinum},
		{points: 1_000_000, want: model.TierPlatinum},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Resolve(tt.points).Tier, "points=%d", tt.points)
	}
}

func TestResolve_IdempotentAtThreshold(t *testing.T) {
	for p := int64(0); p <= 6000; p += 37 {
		info := Resolve(p)
		assert.Equal(t, info.Tier, Resolve(info.MinPoints).Tier, "points=%d", p)
	}
}

func TestResolve_Monotonic(t *testing.T) {
	prev := Resolve(0).Tier
	for p := int64(1); p <= 6000; p++ {
		cur := Resolve(p).Tier
		assert.False(t, Less(cur, prev), "tier dropped from %s to %s at %d", prev, cur, p)
		prev = cur
	}
}

func TestLadder_Contiguous(t *testing.T) {
	l := Ladder()
	require.Len(t, l, 4)
	for i := 1; i < len(l); i++ {
		require.NotNil(t, l[i-1].MaxPoints)
		assert.Equal(t, *l[i-1].MaxPoints+1, l[i].MinPoints)
	}
	assert.Nil(t, l[len(l)-1].MaxPoints)
}

func TestForAccount_CorporatePinned(t *testing.T) {
	assert.Equal(t, model.TierCorporate, ForAccount(model.AccountCorporate, 10_000).Tier)
	assert.Equal(t, model.TierPlatinum, ForAccount(model.AccountPersonal, 10_000).Tier)
}

func TestProgress(t *testing.T) {
	assert.InDelta(t, 0, Progress(0), 0.001)
	assert.InDelta(t, 100, Progress(499), 0.001)
	assert.InDelta(t, 0, Progress(500), 0.001)
	assert.InDelta(t, 50, Progress(1250), 0.1)
	assert.InDelta(t, 100, Progress(5000), 0.001)
	assert.InDelta(t, 100, Progress(80000), 0.001)
}

func TestPointsToNext(t *testing.T) {
	assert.Equal(t, int64(500), PointsToNext(0))
	assert.Equal(t, int64(300), PointsToNext(200))
	assert.Equal(t, int64(1500), PointsToNext(500))
	assert.Equal(t, int64(1), PointsToNext(4999))
	assert.Equal(t, int64(0), PointsToNext(5000))
}

func TestLookupAndBonus(t *testing.T) {
	gold, ok := Lookup(model.TierGold)
	require.True(t, ok)
	assert.Equal(t, "25", gold.BonusPercent().String())
	assert.Equal(t, "2", gold.MinWeight.String())

	_, ok = Lookup(model.Tier("diamond"))
	assert.False(t, ok)

	corp, ok := Lookup(model.TierCorporate)
	require.True(t, ok)
	assert.True(t, corp.MinWeight.IsZero())
}
