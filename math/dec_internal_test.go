package math

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// Needs the unexported apd value to inspect the coefficient directly.
func TestDecFromUint64Coefficient(t *testing.T) {
	x := NewDecFromUint64(18446744073709551615)
	require.Equal(t, "18446744073709551615", x.dec.Coeff.String())
	require.Equal(t, int32(0), x.dec.Exponent)
	require.False(t, x.dec.Negative)

	y, n := NewDecFromInt64(12345678900).Reduce()
	require.Equal(t, "123456789", y.dec.Coeff.String())
	require.Equal(t, 2, n)
}
