package sponsors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParticleTypeIsValid(t *testing.T) {
	t.Parallel()

	for _, p := range ParticleTypes() {
		assert.True(t, p.IsValid(), "expected %q to be valid", p)
	}

	assert.False(t, ParticleType("rainbow").IsValid())
	assert.False(t, ParticleType("").IsValid())
	assert.False(t, ParticleType("Galaxy").IsValid(), "particle types are case sensitive")
}

func testDataset() *Dataset {
	return &Dataset{
		Version: 1,
		Tiers: []Tier{
			{ID: "bronze", Order: 20, ParticleType: ParticleNone},
			{ID: "gold", Order: 100, ParticleType: ParticleGalaxy},
			{ID: "silver", Order: 60, ParticleType: ParticleStars},
		},
		Sponsors: []Sponsor{
			{ID: "s1", Tier: "gold"},
			{ID: "s2", Tier: "bronze"},
			{ID: "s3", Tier: "gold"},
		},
	}
}

func TestTierByID(t *testing.T) {
	t.Parallel()

	ds := testDataset()

	tier := ds.TierByID("silver")
	assert.NotNil(t, tier)
	assert.Equal(t, 60, tier.Order)

	assert.Nil(t, ds.TierByID("platinum"))
}

func TestTiersByOrder(t *testing.T) {
	t.Parallel()

	ds := testDataset()

	ordered := ds.TiersByOrder()
	assert.Equal(t, []string{"gold", "silver", "bronze"}, []string{ordered[0].ID, ordered[1].ID, ordered[2].ID})

	// The dataset itself keeps document order.
	assert.Equal(t, "bronze", ds.Tiers[0].ID)
}

func TestSponsorsInTier(t *testing.T) {
	t.Parallel()

	ds := testDataset()

	gold := ds.SponsorsInTier("gold")
	assert.Len(t, gold, 2)
	assert.Equal(t, "s1", gold[0].ID)
	assert.Equal(t, "s3", gold[1].ID)

	assert.Empty(t, ds.SponsorsInTier("platinum"))
}
