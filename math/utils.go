package math

import (
	"slices"
	"sort"
)

// all exponential moving average functions take the form
// x_average=α*x_current + (1-α)*x_previous
//
// this covers the bond update
// B_ij = α·ΔB_ij + (1 − α)·B_(i-1),j
func CalcEma(
	alpha,
	current,
	previous Dec,
	firstTime bool,
) (Dec, error) {
	// If first iteration, then return just the new value
	if firstTime || current.Equal(previous) {
		return current, nil
	}
	alphaCurrent, err := alpha.Mul(current)
	if err != nil {
		return ZeroDec(), err
	}
	oneMinusAlpha, err := OneDec().Sub(alpha)
	if err != nil {
		return ZeroDec(), err
	}
	oneMinusAlphaTimesPrev, err := oneMinusAlpha.Mul(previous)
	if err != nil {
		return ZeroDec(), err
	}
	ret, err := alphaCurrent.Add(oneMinusAlphaTimesPrev)
	if err != nil {
		return ZeroDec(), err
	}
	return ret, nil
}

var (
	expSafeMin = NewDecFromInt64(-20)
	expSafeMax = NewDecFromInt64(20)
)

// ExpSafe computes e^x with x clamped to [-20, 20].
func ExpSafe(x Dec) (Dec, error) {
	safe := x
	if x.Lt(expSafeMin) {
		safe = expSafeMin
	} else if x.Gt(expSafeMax) {
		safe = expSafeMax
	}
	return Exp(safe)
}

// SigmoidSafe implements 1 / (1 + e^(-rho·(x-kappa))).
func SigmoidSafe(x, rho, kappa Dec) (Dec, error) {
	offset, err := x.Sub(kappa)
	if err != nil {
		return Dec{}, err
	}
	scaled, err := rho.Mul(offset)
	if err != nil {
		return Dec{}, err
	}
	negScaled, err := scaled.Neg()
	if err != nil {
		return Dec{}, err
	}
	e, err := ExpSafe(negScaled)
	if err != nil {
		return Dec{}, err
	}
	denominator, err := OneDec().Add(e)
	if err != nil {
		return Dec{}, err
	}
	return OneDec().Quo(denominator)
}

// LnSafe is ln(x), or zero when x is not positive.
func LnSafe(x Dec) (Dec, error) {
	if !x.IsPositive() {
		return ZeroDec(), nil
	}
	return Ln(x)
}

// Quantile returns the q-quantile of data for q in [0, 1], interpolating linearly
// between the two nearest ranks. Empty data has a zero quantile.
func Quantile(data []Dec, q Dec) (Dec, error) {
	if len(data) == 0 {
		return ZeroDec(), nil
	}
	sorted := slices.Clone(data)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Lt(sorted[j]) })

	pos, err := q.Mul(NewDecFromInt64(int64(len(sorted) - 1)))
	if err != nil {
		return Dec{}, err
	}
	lowPos, err := pos.Floor()
	if err != nil {
		return Dec{}, err
	}
	low, err := lowPos.Int64()
	if err != nil {
		return Dec{}, err
	}
	if low < 0 {
		return sorted[0], nil
	}
	if int(low) >= len(sorted)-1 {
		return sorted[len(sorted)-1], nil
	}
	frac, err := pos.Sub(lowPos)
	if err != nil {
		return Dec{}, err
	}
	if frac.IsZero() {
		return sorted[low], nil
	}
	span, err := sorted[low+1].Sub(sorted[low])
	if err != nil {
		return Dec{}, err
	}
	step, err := frac.Mul(span)
	if err != nil {
		return Dec{}, err
	}
	return sorted[low].Add(step)
}
