package types

import "cosmossdk.io/collections"

const (
	// module name
	ModuleName = "subtensor"

	// StoreKey is the default store key for subtensor
	StoreKey = ModuleName
)

// Sub-subnet state is addressed by subId*GlobalNetuidStride + netuid.
// Sub-subnet 0 shares its index with the netuid itself.
const GlobalNetuidStride = 4096

// MaxChildProportion is the denominator of every child proportion.
const MaxChildProportion = ^uint64(0)

var (
	ParamsKey                  = collections.NewPrefix(0)
	TotalIssuanceKey           = collections.NewPrefix(1)
	SubnetsKey                 = collections.NewPrefix(2)
	SubnetNeuronCountKey       = collections.NewPrefix(3)
	PendingEmissionKey         = collections.NewPrefix(4)
	KeysKey                    = collections.NewPrefix(5)
	UidsKey                    = collections.NewPrefix(6)
	NeuronsKey                 = collections.NewPrefix(7)
	LastUpdateKey              = collections.NewPrefix(8)
	WeightsKey                 = collections.NewPrefix(9)
	BondsKey                   = collections.NewPrefix(10)
	MechanismIncentiveKey      = collections.NewPrefix(11)
	OwnerKey                   = collections.NewPrefix(12)
	StakeKey                   = collections.NewPrefix(13)
	TotalHotkeyStakeKey        = collections.NewPrefix(14)
	LastAddStakeIncreaseKey    = collections.NewPrefix(15)
	ChildKeysKey               = collections.NewPrefix(16)
	ParentKeysKey              = collections.NewPrefix(17)
	PendingChildKeysKey        = collections.NewPrefix(18)
	PendingChildKeysByBlockKey = collections.NewPrefix(19)
	PendingHotkeyEmissionKey   = collections.NewPrefix(20)
	LastHotkeyEmissionDrainKey = collections.NewPrefix(21)
	HotkeyDrainIndexKey        = collections.NewPrefix(22)
	DrainScheduleKey           = collections.NewPrefix(23)
	NextDrainIndexKey          = collections.NewPrefix(24)
	DelegateTakeKey            = collections.NewPrefix(25)
	SweepJobsKey               = collections.NewPrefix(26)
	NextSweepJobIdKey          = collections.NewPrefix(27)
)

// StorageIndex addresses the per-uid state of sub-subnet subId of netuid.
func StorageIndex(netuid uint16, subId uint8) uint16 {
	return uint16(subId)*GlobalNetuidStride + netuid
}
