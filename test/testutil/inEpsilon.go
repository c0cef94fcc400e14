package testutil

import (
	"testing"

	subtensorMath "github.com/opentensor/subtensor-sub008/math"
	require "github.com/stretchr/testify/require"
)

func InEpsilon(t *testing.T, value subtensorMath.Dec, target subtensorMath.Dec, epsilon subtensorMath.Dec) {
	t.Helper()
	if target.IsZero() {
		require.True(t, value.IsZero(), "value: %s, target: 0", value.String())
		return
	}
	one := subtensorMath.OneDec()

	lowerMultiplier, err := one.Sub(epsilon)
	require.NoError(t, err)
	lowerBound, err := target.Mul(lowerMultiplier)
	require.NoError(t, err)

	upperMultiplier, err := one.Add(epsilon)
	require.NoError(t, err)
	upperBound, err := target.Mul(upperMultiplier)
	require.NoError(t, err)

	if lowerBound.Lt(upperBound) { // positive values, lower < value < upper
		require.True(
			t, value.Gte(lowerBound),
			"value: %s, target: %s, lowerBound: %s",
			value.String(), target.String(), lowerBound.String(),
		)
		require.True(
			t, value.Lte(upperBound),
			"value: %s, target %s, upperBound: %s",
			value.String(), target.String(), upperBound.String(),
		)
	} else { // negative values, upper < value < lower
		require.True(
			t, value.Lte(lowerBound),
			"value: %s, target %s, lowerBound: %s",
			value.String(), target.String(), lowerBound.String(),
		)
		require.True(
			t, value.Gte(upperBound),
			"value: %s, target %s, upperBound: %s",
			value.String(), target.String(), upperBound.String(),
		)
	}
}

func InEpsilon2(t *testing.T, value subtensorMath.Dec, target string) {
	t.Helper()
	InEpsilon(t, value, subtensorMath.MustNewDecFromString(target), subtensorMath.MustNewDecFromString("0.01"))
}

func InEpsilon3(t *testing.T, value subtensorMath.Dec, target string) {
	t.Helper()
	InEpsilon(t, value, subtensorMath.MustNewDecFromString(target), subtensorMath.MustNewDecFromString("0.001"))
}

func InEpsilon5(t *testing.T, value subtensorMath.Dec, target string) {
	t.Helper()
	InEpsilon(t, value, subtensorMath.MustNewDecFromString(target), subtensorMath.MustNewDecFromString("0.00001"))
}

// InEpsilon5Slice checks every value against the target at the same position.
func InEpsilon5Slice(t *testing.T, values []subtensorMath.Dec, targets ...string) {
	t.Helper()
	require.Len(t, values, len(targets))
	for i, target := range targets {
		InEpsilon5(t, values[i], target)
	}
}
