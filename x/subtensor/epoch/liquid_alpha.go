package epoch

import (
	errorsmod "cosmossdk.io/errors"
	subtensorMath "github.com/opentensor/subtensor-sub008/math"
)

var (
	consensusLowQuantile  = subtensorMath.MustNewDecFromString("0.25")
	consensusHighQuantile = subtensorMath.MustNewDecFromString("0.75")
)

// liquidAlpha returns one bond rate per miner column. The rate follows the
// logistic curve through (consensus p25, alphaLow) and (consensus p75, alphaHigh)
// and is clamped to [alphaLow, alphaHigh]. ok is false when consensus carries no
// signal, in which case the fixed moving average applies.
func liquidAlpha(consensus []subtensorMath.Dec, alphaLow, alphaHigh subtensorMath.Dec) (alpha []subtensorMath.Dec, ok bool, err error) {
	if subtensorMath.IsZeroVec(consensus) {
		return nil, false, nil
	}
	low, err := subtensorMath.Quantile(consensus, consensusLowQuantile)
	if err != nil {
		return nil, false, errorsmod.Wrap(err, "consensus low quantile")
	}
	high, err := subtensorMath.Quantile(consensus, consensusHighQuantile)
	if err != nil {
		return nil, false, errorsmod.Wrap(err, "consensus high quantile")
	}
	if !high.Gt(low) && high.IsZero() {
		return nil, false, nil
	}

	a, b, err := logisticParams(alphaLow, alphaHigh, low, high)
	if err != nil {
		return nil, false, err
	}
	alpha = make([]subtensorMath.Dec, len(consensus))
	for j, c := range consensus {
		// 1 / (1 + e^(b - a·c))
		ac, err := a.Mul(c)
		if err != nil {
			return nil, false, err
		}
		exponent, err := b.Sub(ac)
		if err != nil {
			return nil, false, err
		}
		e, err := subtensorMath.ExpSafe(exponent)
		if err != nil {
			return nil, false, err
		}
		denominator, err := subtensorMath.OneDec().Add(e)
		if err != nil {
			return nil, false, err
		}
		v, err := subtensorMath.OneDec().Quo(denominator)
		if err != nil {
			return nil, false, errorsmod.Wrapf(err, "alpha of column %d", j)
		}
		if v.Gt(alphaHigh) {
			v = alphaHigh
		}
		if v.Lt(alphaLow) {
			v = alphaLow
		}
		alpha[j] = v
	}
	return alpha, true, nil
}

// logisticParams solves for the slope a and intercept b of the curve. Degenerate
// bounds yield a flat curve at one half.
//
//	a = (ln(1/alphaHigh - 1) - ln(1/alphaLow - 1)) / (consensusLow - consensusHigh)
//	b = ln(1/alphaLow - 1) + a·consensusLow
func logisticParams(alphaLow, alphaHigh, consensusLow, consensusHigh subtensorMath.Dec) (a, b subtensorMath.Dec, err error) {
	zero := subtensorMath.ZeroDec()
	if !consensusHigh.Gt(consensusLow) || alphaLow.IsZero() || alphaHigh.IsZero() {
		return zero, zero, nil
	}
	lnOdds := func(alpha subtensorMath.Dec) (subtensorMath.Dec, error) {
		inv, err := subtensorMath.OneDec().Quo(alpha)
		if err != nil {
			return subtensorMath.Dec{}, err
		}
		odds, err := inv.Sub(subtensorMath.OneDec())
		if err != nil {
			return subtensorMath.Dec{}, err
		}
		return subtensorMath.LnSafe(odds)
	}
	lnHigh, err := lnOdds(alphaHigh)
	if err != nil {
		return zero, zero, errorsmod.Wrap(err, "alpha high odds")
	}
	lnLow, err := lnOdds(alphaLow)
	if err != nil {
		return zero, zero, errorsmod.Wrap(err, "alpha low odds")
	}
	num, err := lnHigh.Sub(lnLow)
	if err != nil {
		return zero, zero, err
	}
	den, err := consensusLow.Sub(consensusHigh)
	if err != nil {
		return zero, zero, err
	}
	if a, err = num.Quo(den); err != nil {
		return zero, zero, err
	}
	aLow, err := a.Mul(consensusLow)
	if err != nil {
		return zero, zero, err
	}
	if b, err = lnLow.Add(aLow); err != nil {
		return zero, zero, err
	}
	return a, b, nil
}
