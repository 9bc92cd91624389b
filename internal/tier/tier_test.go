package tier_test

import (
	"errors"
	"testing"

	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/apierror"
	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/tier"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveDefaults(t *testing.T) {
	tier.Reset()
	gold, err := tier.Resolve(tier.Gold)
	require.NoError(t, err)
	assert.True(t, gold.DiscountPercent.Equal(decimal.NewFromInt(20)))
	assert.Equal(t, 30, gold.PaymentTermsDays)

	for _, tt := range tier.All() {
		_, err := tier.Resolve(tt)
		assert.NoError(t, err, tt)
	}
}

func TestResolveUnknownTier(t *testing.T) {
	_, err := tier.Resolve(tier.Tier("bronze"))
	assert.True(t, errors.Is(err, apierror.ErrInvalidInput))
}

func TestParse(t *testing.T) {
	got, err := tier.Parse("  Platinum ")
	require.NoError(t, err)
	assert.Equal(t, tier.Platinum, got)

	_, err = tier.Parse("diamond")
	assert.Error(t, err)
}

func TestConfigureOverrides(t *testing.T) {
	t.Cleanup(tier.Reset)

	overrides, err := tier.ParseOverrides("gold:25:60")
	require.NoError(t, err)
	require.NoError(t, tier.Configure(overrides))

	gold, err := tier.Resolve(tier.Gold)
	require.NoError(t, err)
	assert.Equal(t, "25", gold.DiscountPercent.String())
	assert.Equal(t, 60, gold.PaymentTermsDays)

	silver, err := tier.Resolve(tier.Silver)
	require.NoError(t, err)
	assert.Equal(t, "10", silver.DiscountPercent.String())
}

func TestParseOverridesRejectsUnknownTier(t *testing.T) {
	_, err := tier.ParseOverrides("bronze:5:7")
	assert.ErrorContains(t, err, "unknown tier")
}

func TestConfigureRejectsOutOfRange(t *testing.T) {
	t.Cleanup(tier.Reset)

	overrides, err := tier.ParseOverrides("gold:120:30")
	require.NoError(t, err)
	assert.Error(t, tier.Configure(overrides))

	// the previous table stays in place
	gold, err := tier.Resolve(tier.Gold)
	require.NoError(t, err)
	assert.Equal(t, "20", gold.DiscountPercent.String())
}
