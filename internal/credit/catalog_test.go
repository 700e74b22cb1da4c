package credit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	p, err := Resolve("500kg", 0)
	require.NoError(t, err)
	assert.Equal(t, int64(500), p.Amount)
	assert.Equal(t, "11000", p.TotalPrice().String())

	p, err = Resolve(CustomPackageID, 42)
	require.NoError(t, err)
	assert.Equal(t, "1050", p.TotalPrice().String())

	_, err = Resolve(CustomPackageID, 0)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = Resolve("2000kg", 0)
	assert.ErrorIs(t, err, ErrUnknownPackage)
}

func TestBreakdown(t *testing.T) {
	for _, p := range Packages() {
		b := Breakdown(p.PricePerCredit)
		sum := b.Logistics.Add(b.HouseholdReward).Add(b.Sorting).Add(b.Disposal).Add(b.Admin).Add(b.Margin)
		assert.True(t, sum.Equal(p.PricePerCredit), "package %s", p.ID)
	}
}
