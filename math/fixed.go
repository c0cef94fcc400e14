package math

import (
	"math"

	errorsmod "cosmossdk.io/errors"
)

var (
	u16MaxDec = NewDecFromUint64(math.MaxUint16)
	u64MaxDec = NewDecFromUint64(math.MaxUint64)
)

// CompactEntry is a sparse (index, value) pair in storage form.
type CompactEntry struct {
	Index uint16
	Value uint16
}

// U16ToDec reads a u16 as a fraction of u16::MAX.
func U16ToDec(v uint16) Dec {
	d, err := NewDecFromUint64(uint64(v)).Quo(u16MaxDec)
	if err != nil {
		return ZeroDec()
	}
	return d
}

// U64ProportionToDec reads a u64 as a fraction of u64::MAX.
func U64ProportionToDec(v uint64) Dec {
	d, err := NewDecFromUint64(v).Quo(u64MaxDec)
	if err != nil {
		return ZeroDec()
	}
	return d
}

// FixedProportionToU16 maps a value in [0, 1] onto [0, u16::MAX]. Out of range inputs saturate.
func FixedProportionToU16(x Dec) (uint16, error) {
	if !x.IsPositive() {
		return 0, nil
	}
	if x.Gte(OneDec()) {
		return math.MaxUint16, nil
	}
	scaled, err := x.Mul(u16MaxDec)
	if err != nil {
		return 0, err
	}
	rounded, err := scaled.Round()
	if err != nil {
		return 0, err
	}
	v, err := rounded.UInt64()
	if err != nil {
		return 0, err
	}
	if v > math.MaxUint16 {
		return math.MaxUint16, nil
	}
	return uint16(v), nil
}

// MaxUpscaleToU16 rescales vec so its largest element maps to u16::MAX.
func MaxUpscaleToU16(vec []Dec) ([]uint16, error) {
	out := make([]uint16, len(vec))
	maxVal := ZeroDec()
	for _, v := range vec {
		if v.Gt(maxVal) {
			maxVal = v
		}
	}
	if maxVal.IsZero() {
		return out, nil
	}
	for i, v := range vec {
		frac, err := v.Quo(maxVal)
		if err != nil {
			return nil, errorsmod.Wrapf(err, "upscale index %d", i)
		}
		out[i], err = FixedProportionToU16(frac)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// MaxUpscaleU16 rescales raw u16 values so the largest becomes u16::MAX.
func MaxUpscaleU16(vec []uint16) []uint16 {
	out := make([]uint16, len(vec))
	var maxVal uint16
	for _, v := range vec {
		if v > maxVal {
			maxVal = v
		}
	}
	if maxVal == 0 {
		return out
	}
	for i, v := range vec {
		// rounded u32 arithmetic, cannot overflow
		out[i] = uint16((uint32(v)*math.MaxUint16 + uint32(maxVal)/2) / uint32(maxVal))
	}
	return out
}

// U16ProportionOf returns floor(part/u16::MAX * amount).
func U16ProportionOf(part uint16, amount Dec) (Dec, error) {
	scaled, err := U16ToDec(part).Mul(amount)
	if err != nil {
		return Dec{}, err
	}
	return scaled.Floor()
}

// WeightedAccumulateU16 returns existing + added*weight, saturating at u16::MAX.
func WeightedAccumulateU16(existing, added uint16, weight Dec) (uint16, error) {
	scaled, err := NewDecFromUint64(uint64(added)).Mul(weight)
	if err != nil {
		return existing, err
	}
	floored, err := scaled.Floor()
	if err != nil {
		return existing, err
	}
	inc, err := floored.UInt64()
	if err != nil {
		return math.MaxUint16, nil
	}
	total := uint64(existing) + inc
	if total > math.MaxUint16 {
		return math.MaxUint16, nil
	}
	return uint16(total), nil
}
