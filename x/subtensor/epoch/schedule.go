package epoch

import "math"

// BlocksUntilNextEpoch returns how many blocks remain before netuid runs its epoch.
// The netuid offset staggers subnets sharing a tempo. Tempo 0 never runs.
func BlocksUntilNextEpoch(netuid uint16, tempo uint16, block uint64) uint64 {
	if tempo == 0 {
		return math.MaxUint64
	}
	tempoPlusOne := uint64(tempo) + 1
	adjusted := block + uint64(netuid) + 1
	return uint64(tempo) - adjusted%tempoPlusOne
}

func ShouldRunEpoch(netuid uint16, tempo uint16, block uint64) bool {
	return BlocksUntilNextEpoch(netuid, tempo, block) == 0
}
