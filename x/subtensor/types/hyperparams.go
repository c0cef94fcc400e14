package types

import (
	"math"

	"cosmossdk.io/errors"
)

// SubnetHyperparams is the per-subnet configuration read fresh at every epoch.
type SubnetHyperparams struct {
	// blocks between epochs, 0 disables the subnet
	Tempo uint16 `json:"tempo"`
	// consensus majority as a fraction of u16::MAX
	Kappa uint16 `json:"kappa"`
	// temperature of the trust sigmoid
	Rho            uint16      `json:"rho"`
	ActivityCutoff BlockHeight `json:"activity_cutoff"`
	// parts per million of the previous bonds kept at each epoch
	BondsMovingAverage uint64 `json:"bonds_moving_average"`
	// per-miner bond rates from consensus, bounded by AlphaLow and AlphaHigh
	// as fractions of u16::MAX
	LiquidAlphaEnabled   bool   `json:"liquid_alpha_enabled"`
	AlphaLow             uint16 `json:"alpha_low"`
	AlphaHigh            uint16 `json:"alpha_high"`
	MaxAllowedValidators uint16 `json:"max_allowed_validators"`
	MaxAllowedUids       uint16 `json:"max_allowed_uids"`
	MechanismCount       uint8  `json:"mechanism_count"`
	// optional u16 shares per mechanism summing to u16::MAX, empty means even
	EmissionSplit []uint16 `json:"emission_split,omitempty"`
}

const BondsMovingAverageScale = 1_000_000

func DefaultSubnetHyperparams() SubnetHyperparams {
	return SubnetHyperparams{
		Tempo:                360,
		Kappa:                32767,
		Rho:                  10,
		ActivityCutoff:       5000,
		BondsMovingAverage:   900_000,
		AlphaLow:             45875,
		AlphaHigh:            58982,
		MaxAllowedValidators: 64,
		MaxAllowedUids:       4096,
		MechanismCount:       1,
	}
}

func (h SubnetHyperparams) Validate() error {
	if h.ActivityCutoff < 0 {
		return errors.Wrap(ErrInvalidHyperparams, "activity cutoff must be non-negative")
	}
	if h.BondsMovingAverage > BondsMovingAverageScale {
		return errors.Wrapf(ErrInvalidHyperparams, "bonds moving average %d above %d", h.BondsMovingAverage, BondsMovingAverageScale)
	}
	if h.LiquidAlphaEnabled && (h.AlphaLow == 0 || h.AlphaLow > h.AlphaHigh) {
		return errors.Wrapf(ErrInvalidHyperparams, "alpha bounds [%d, %d]", h.AlphaLow, h.AlphaHigh)
	}
	if h.MaxAllowedUids == 0 || h.MaxAllowedUids > GlobalNetuidStride {
		return errors.Wrapf(ErrInvalidHyperparams, "max allowed uids %d outside [1, %d]", h.MaxAllowedUids, GlobalNetuidStride)
	}
	if h.MechanismCount == 0 {
		return errors.Wrap(ErrInvalidMechanismCount, "mechanism count must be positive")
	}
	return ValidateEmissionSplit(h.EmissionSplit, h.MechanismCount)
}

// ValidateEmissionSplit accepts an empty split or one share per mechanism summing to u16::MAX.
func ValidateEmissionSplit(split []uint16, count uint8) error {
	if len(split) == 0 {
		return nil
	}
	if len(split) != int(count) {
		return errors.Wrapf(ErrInvalidEmissionSplit, "%d shares for %d mechanisms", len(split), count)
	}
	var sum uint64
	for _, s := range split {
		sum += uint64(s)
	}
	if sum != math.MaxUint16 {
		return errors.Wrapf(ErrInvalidEmissionSplit, "shares sum to %d", sum)
	}
	return nil
}
