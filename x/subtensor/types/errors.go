package types

import "cosmossdk.io/errors"

var (
	// ERROR 1 IS RESERVED BY COSMOS-SDK PACKAGE
	ErrSubnetNotExists              = errors.Register(ModuleName, 2, "subnet does not exist")
	ErrSubnetExists                 = errors.Register(ModuleName, 3, "subnet already exists")
	ErrHotkeyNotRegistered          = errors.Register(ModuleName, 4, "hotkey not registered on subnet")
	ErrNonAssociatedColdkey         = errors.Register(ModuleName, 5, "coldkey does not own hotkey")
	ErrTooManyChildren              = errors.Register(ModuleName, 6, "too many children")
	ErrDuplicateChild               = errors.Register(ModuleName, 7, "duplicate child")
	ErrInvalidChild                 = errors.Register(ModuleName, 8, "hotkey cannot be its own child")
	ErrProportionOverflow           = errors.Register(ModuleName, 9, "child proportions overflow")
	ErrNotEnoughStakeToSetChildkeys = errors.Register(ModuleName, 10, "not enough stake to set children")
	ErrChildCycle                   = errors.Register(ModuleName, 11, "children would form a cycle")
	ErrInvalidWeights               = errors.Register(ModuleName, 12, "invalid weights")
	ErrUidOutOfRange                = errors.Register(ModuleName, 13, "uid out of range")
	ErrInvalidMechanismCount        = errors.Register(ModuleName, 14, "invalid mechanism count")
	ErrInvalidEmissionSplit         = errors.Register(ModuleName, 15, "invalid emission split")
	ErrMechanismNotExists           = errors.Register(ModuleName, 16, "mechanism does not exist")
	ErrInvalidHyperparams           = errors.Register(ModuleName, 17, "invalid subnet hyperparameters")
	ErrInvalidParams                = errors.Register(ModuleName, 18, "invalid params")
	ErrNotEnoughStake               = errors.Register(ModuleName, 19, "not enough stake")
	ErrDelegateTakeTooHigh          = errors.Register(ModuleName, 20, "delegate take too high")
	ErrEmissionExceedsQuantum       = errors.Register(ModuleName, 21, "epoch emission exceeds pending emission")
	ErrInvalidGenesis               = errors.Register(ModuleName, 22, "invalid genesis")
	ErrInvalidAccountKey            = errors.Register(ModuleName, 23, "invalid account key")
	ErrTooManyPendingChildren       = errors.Register(ModuleName, 24, "too many child schedules due at one block")
	ErrHotkeyAlreadyRegistered      = errors.Register(ModuleName, 25, "hotkey already registered on subnet")
	ErrSubnetBeingErased            = errors.Register(ModuleName, 26, "subnet state is still being erased")
	ErrCoinbaseStagePanicked        = errors.Register(ModuleName, 27, "coinbase stage panicked")
)
