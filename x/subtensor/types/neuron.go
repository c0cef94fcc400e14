package types

import (
	cosmosMath "cosmossdk.io/math"
	subtensorMath "github.com/opentensor/subtensor-sub008/math"
)

// NeuronInfo holds the per-uid stats written by the last epoch that covered the slot.
type NeuronInfo struct {
	RegisteredAt    BlockHeight    `json:"registered_at"`
	Active          bool           `json:"active"`
	ValidatorPermit bool           `json:"validator_permit"`
	Rank            uint16         `json:"rank"`
	Trust           uint16         `json:"trust"`
	Consensus       uint16         `json:"consensus"`
	Incentive       uint16         `json:"incentive"`
	Dividends       uint16         `json:"dividends"`
	PruningScore    uint16         `json:"pruning_score"`
	ValidatorTrust  uint16         `json:"validator_trust"`
	Emission        cosmosMath.Int `json:"emission"`
}

func NewNeuronInfo(registeredAt BlockHeight) NeuronInfo {
	return NeuronInfo{
		RegisteredAt: registeredAt,
		Emission:     cosmosMath.ZeroInt(),
	}
}

// SparseRow is a weights or bonds row in storage form.
type SparseRow = []subtensorMath.CompactEntry
