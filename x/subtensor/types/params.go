package types

import (
	"cosmossdk.io/errors"
	cosmosMath "cosmossdk.io/math"
)

type BlockHeight = int64

// Params are the module-wide parameters.
type Params struct {
	MaxChildren                uint16         `json:"max_children"`
	StakeThreshold             cosmosMath.Int `json:"stake_threshold"`
	PendingChildKeyCooldown    BlockHeight    `json:"pending_child_key_cooldown"`
	SweepBatchSize             uint64         `json:"sweep_batch_size"`
	MaxMechanismCount          uint8          `json:"max_mechanism_count"`
	DefaultDelegateTake        uint16         `json:"default_delegate_take"`
	MaxDelegateTake            uint16         `json:"max_delegate_take"`
	MaxPendingChildrenPerBlock uint64         `json:"max_pending_children_per_block"`
}

// DefaultParams returns default module parameters.
func DefaultParams() Params {
	return Params{
		MaxChildren:                5,                   // children per (hotkey, netuid)
		StakeThreshold:             cosmosMath.ZeroInt(), // own stake a parent needs before setting children
		PendingChildKeyCooldown:    7200,                // blocks between scheduling and applying children
		SweepBatchSize:             256,                 // storage entries erased per block
		MaxMechanismCount:          16,                  // sub-subnets per subnet
		DefaultDelegateTake:        11796,               // ~18% of u16::MAX
		MaxDelegateTake:            11796,
		MaxPendingChildrenPerBlock: 64,
	}
}

func (p Params) Validate() error {
	if p.MaxChildren == 0 {
		return errors.Wrap(ErrInvalidParams, "max children must be positive")
	}
	if p.StakeThreshold.IsNil() || p.StakeThreshold.IsNegative() {
		return errors.Wrap(ErrInvalidParams, "stake threshold must be non-negative")
	}
	if p.PendingChildKeyCooldown < 0 {
		return errors.Wrap(ErrInvalidParams, "pending child key cooldown must be non-negative")
	}
	if p.SweepBatchSize == 0 {
		return errors.Wrap(ErrInvalidParams, "sweep batch size must be positive")
	}
	if p.MaxMechanismCount == 0 || p.MaxMechanismCount > 16 {
		return errors.Wrapf(ErrInvalidParams, "max mechanism count %d outside [1, 16]", p.MaxMechanismCount)
	}
	if p.DefaultDelegateTake > p.MaxDelegateTake {
		return errors.Wrap(ErrInvalidParams, "default delegate take above max delegate take")
	}
	if p.MaxPendingChildrenPerBlock == 0 {
		return errors.Wrap(ErrInvalidParams, "max pending children per block must be positive")
	}
	return nil
}
