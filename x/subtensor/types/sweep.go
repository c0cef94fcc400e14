package types

// SweepKind selects the store a SweepJob erases.
type SweepKind uint8

const (
	SweepWeights SweepKind = iota
	SweepBonds
	SweepLastUpdate
	SweepMechanismIncentive
	SweepKeys
	SweepUids
	SweepNeurons
	SweepStake
	SweepTotalHotkeyStake
	SweepLastAddStakeIncrease
	SweepPendingHotkeyEmission
	SweepChildKeys
	SweepParentKeys
)

func (k SweepKind) String() string {
	switch k {
	case SweepWeights:
		return "weights"
	case SweepBonds:
		return "bonds"
	case SweepLastUpdate:
		return "last_update"
	case SweepMechanismIncentive:
		return "mechanism_incentive"
	case SweepKeys:
		return "keys"
	case SweepUids:
		return "uids"
	case SweepNeurons:
		return "neurons"
	case SweepStake:
		return "stake"
	case SweepTotalHotkeyStake:
		return "total_hotkey_stake"
	case SweepLastAddStakeIncrease:
		return "last_add_stake_increase"
	case SweepPendingHotkeyEmission:
		return "pending_hotkey_emission"
	case SweepChildKeys:
		return "child_keys"
	case SweepParentKeys:
		return "parent_keys"
	}
	return "unknown"
}

// SweepJob is a resumable erase of every entry of one store that belongs to a
// netuid, or to a single sub-subnet storage index. Cursor is the encoded last
// key erased so far.
type SweepJob struct {
	Kind      SweepKind `json:"kind"`
	Netuid    uint16    `json:"netuid"`
	Index     uint16    `json:"index"`
	Cursor    []byte    `json:"cursor,omitempty"`
	HasCursor bool      `json:"has_cursor"`
}
