package keeper

import (
	"context"
	"errors"

	"cosmossdk.io/collections"
	coreStore "cosmossdk.io/core/store"
	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/log"
	cosmosMath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	subtensorMath "github.com/opentensor/subtensor-sub008/math"
	"github.com/opentensor/subtensor-sub008/x/subtensor/types"
)

type (
	Netuid      = uint16
	Uid         = uint16
	BlockHeight = types.BlockHeight
	AccountKey  = types.AccountKey
)

type Keeper struct {
	storeService   coreStore.KVStoreService
	emissionSource types.EmissionSource
	config         Config

	/// TYPES

	schema        collections.Schema
	params        collections.Item[types.Params]
	totalIssuance collections.Item[cosmosMath.Int]

	/// SUBNETS

	subnets           collections.Map[Netuid, types.SubnetHyperparams]
	subnetNeuronCount collections.Map[Netuid, uint16]
	// emission received from the root split and not yet distributed by an epoch
	pendingEmission collections.Map[Netuid, cosmosMath.Int]

	/// NEURONS

	keys    collections.Map[collections.Pair[Netuid, Uid], AccountKey]
	uids    collections.Map[collections.Pair[Netuid, AccountKey], Uid]
	neurons collections.Map[collections.Pair[Netuid, Uid], types.NeuronInfo]

	/// SUB-SUBNETS, keyed by types.StorageIndex

	lastUpdate         collections.Map[collections.Pair[uint16, Uid], BlockHeight]
	weights            collections.Map[collections.Pair[uint16, Uid], types.SparseRow]
	bonds              collections.Map[collections.Pair[uint16, Uid], types.SparseRow]
	mechanismIncentive collections.Map[collections.Pair[uint16, Uid], uint16]

	/// STAKE

	// hotkey -> owning coldkey
	owner                collections.Map[AccountKey, AccountKey]
	stake                collections.Map[collections.Triple[AccountKey, AccountKey, Netuid], cosmosMath.Int]
	totalHotkeyStake     collections.Map[collections.Pair[AccountKey, Netuid], cosmosMath.Int]
	lastAddStakeIncrease collections.Map[collections.Triple[AccountKey, AccountKey, Netuid], BlockHeight]
	delegateTake         collections.Map[AccountKey, uint16]

	/// STAKE GRAPH

	childKeys  collections.Map[collections.Pair[AccountKey, Netuid], types.ChildList]
	parentKeys collections.Map[collections.Pair[AccountKey, Netuid], types.ChildList]
	// schedules waiting for their cooldown, indexed by the block they apply at
	pendingChildKeys        collections.Map[collections.Pair[AccountKey, Netuid], types.PendingChildren]
	pendingChildKeysByBlock collections.KeySet[collections.Triple[BlockHeight, AccountKey, Netuid]]

	/// HOTKEY EMISSION

	pendingHotkeyEmission   collections.Map[collections.Pair[AccountKey, Netuid], cosmosMath.Int]
	lastHotkeyEmissionDrain collections.Map[collections.Pair[AccountKey, Netuid], BlockHeight]
	hotkeyDrainIndex        collections.Map[collections.Pair[AccountKey, Netuid], uint64]
	// (index mod drain period, hotkey, netuid)
	drainSchedule  collections.KeySet[collections.Triple[uint64, AccountKey, Netuid]]
	nextDrainIndex collections.Sequence

	/// SWEEPS

	sweepJobs      collections.Map[uint64, types.SweepJob]
	nextSweepJobId collections.Sequence
}

func NewKeeper(
	storeService coreStore.KVStoreService,
	emissionSource types.EmissionSource,
	config Config,
) Keeper {
	if config.DrainPeriod == 0 {
		config.DrainPeriod = DefaultConfig().DrainPeriod
	}
	sb := collections.NewSchemaBuilder(storeService)
	indexUid := collections.PairKeyCodec(collections.Uint16Key, collections.Uint16Key)
	hotkeyNetuid := collections.PairKeyCodec(types.AccountKeyKey, collections.Uint16Key)
	hotkeyColdkeyNetuid := collections.TripleKeyCodec(types.AccountKeyKey, types.AccountKeyKey, collections.Uint16Key)
	k := Keeper{
		storeService:            storeService,
		emissionSource:          emissionSource,
		config:                  config,
		params:                  collections.NewItem(sb, types.ParamsKey, "params", JSONValue[types.Params]("Params")),
		totalIssuance:           collections.NewItem(sb, types.TotalIssuanceKey, "total_issuance", sdk.IntValue),
		subnets:                 collections.NewMap(sb, types.SubnetsKey, "subnets", collections.Uint16Key, JSONValue[types.SubnetHyperparams]("SubnetHyperparams")),
		subnetNeuronCount:       collections.NewMap(sb, types.SubnetNeuronCountKey, "subnet_neuron_count", collections.Uint16Key, collections.Uint16Value),
		pendingEmission:         collections.NewMap(sb, types.PendingEmissionKey, "pending_emission", collections.Uint16Key, sdk.IntValue),
		keys:                    collections.NewMap(sb, types.KeysKey, "keys", indexUid, types.AccountKeyValue),
		uids:                    collections.NewMap(sb, types.UidsKey, "uids", collections.PairKeyCodec(collections.Uint16Key, types.AccountKeyKey), collections.Uint16Value),
		neurons:                 collections.NewMap(sb, types.NeuronsKey, "neurons", indexUid, JSONValue[types.NeuronInfo]("NeuronInfo")),
		lastUpdate:              collections.NewMap(sb, types.LastUpdateKey, "last_update", indexUid, collections.Int64Value),
		weights:                 collections.NewMap(sb, types.WeightsKey, "weights", indexUid, subtensorMath.CompactRowValue),
		bonds:                   collections.NewMap(sb, types.BondsKey, "bonds", indexUid, subtensorMath.CompactRowValue),
		mechanismIncentive:      collections.NewMap(sb, types.MechanismIncentiveKey, "mechanism_incentive", indexUid, collections.Uint16Value),
		owner:                   collections.NewMap(sb, types.OwnerKey, "owner", types.AccountKeyKey, types.AccountKeyValue),
		stake:                   collections.NewMap(sb, types.StakeKey, "stake", hotkeyColdkeyNetuid, sdk.IntValue),
		totalHotkeyStake:        collections.NewMap(sb, types.TotalHotkeyStakeKey, "total_hotkey_stake", hotkeyNetuid, sdk.IntValue),
		lastAddStakeIncrease:    collections.NewMap(sb, types.LastAddStakeIncreaseKey, "last_add_stake_increase", hotkeyColdkeyNetuid, collections.Int64Value),
		delegateTake:            collections.NewMap(sb, types.DelegateTakeKey, "delegate_take", types.AccountKeyKey, collections.Uint16Value),
		childKeys:               collections.NewMap(sb, types.ChildKeysKey, "child_keys", hotkeyNetuid, types.ChildListValue),
		parentKeys:              collections.NewMap(sb, types.ParentKeysKey, "parent_keys", hotkeyNetuid, types.ChildListValue),
		pendingChildKeys:        collections.NewMap(sb, types.PendingChildKeysKey, "pending_child_keys", hotkeyNetuid, JSONValue[types.PendingChildren]("PendingChildren")),
		pendingChildKeysByBlock: collections.NewKeySet(sb, types.PendingChildKeysByBlockKey, "pending_child_keys_by_block", collections.TripleKeyCodec(collections.Int64Key, types.AccountKeyKey, collections.Uint16Key)),
		pendingHotkeyEmission:   collections.NewMap(sb, types.PendingHotkeyEmissionKey, "pending_hotkey_emission", hotkeyNetuid, sdk.IntValue),
		lastHotkeyEmissionDrain: collections.NewMap(sb, types.LastHotkeyEmissionDrainKey, "last_hotkey_emission_drain", hotkeyNetuid, collections.Int64Value),
		hotkeyDrainIndex:        collections.NewMap(sb, types.HotkeyDrainIndexKey, "hotkey_drain_index", hotkeyNetuid, collections.Uint64Value),
		drainSchedule:           collections.NewKeySet(sb, types.DrainScheduleKey, "drain_schedule", collections.TripleKeyCodec(collections.Uint64Key, types.AccountKeyKey, collections.Uint16Key)),
		nextDrainIndex:          collections.NewSequence(sb, types.NextDrainIndexKey, "next_drain_index"),
		sweepJobs:               collections.NewMap(sb, types.SweepJobsKey, "sweep_jobs", collections.Uint64Key, JSONValue[types.SweepJob]("SweepJob")),
		nextSweepJobId:          collections.NewSequence(sb, types.NextSweepJobIdKey, "next_sweep_job_id"),
	}

	schema, err := sb.Build()
	if err != nil {
		panic(err)
	}

	k.schema = schema

	return k
}

func (k *Keeper) GetStorageService() coreStore.KVStoreService {
	return k.storeService
}

func (k *Keeper) GetEmissionSource() types.EmissionSource {
	return k.emissionSource
}

func (k *Keeper) Logger(ctx context.Context) log.Logger {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	return sdkCtx.Logger().With("module", "x/"+types.ModuleName)
}

/// PARAMS

func (k *Keeper) SetParams(ctx context.Context, params types.Params) error {
	if err := params.Validate(); err != nil {
		return err
	}
	return k.params.Set(ctx, params)
}

func (k *Keeper) GetParams(ctx context.Context) (types.Params, error) {
	ret, err := k.params.Get(ctx)
	if err != nil {
		if errors.Is(err, collections.ErrNotFound) {
			return types.DefaultParams(), nil
		}
		return types.Params{}, err
	}
	return ret, nil
}

/// ISSUANCE

func (k *Keeper) GetTotalIssuance(ctx context.Context) (cosmosMath.Int, error) {
	return getIntOrZero(ctx, k.totalIssuance.Get)
}

func (k *Keeper) AddTotalIssuance(ctx context.Context, amount cosmosMath.Int) error {
	if amount.IsZero() {
		return nil
	}
	current, err := k.GetTotalIssuance(ctx)
	if err != nil {
		return err
	}
	return k.totalIssuance.Set(ctx, current.Add(amount))
}

/// SUBNET EMISSION

func (k *Keeper) GetPendingEmission(ctx context.Context, netuid Netuid) (cosmosMath.Int, error) {
	return getMapIntOrZero(ctx, k.pendingEmission, netuid)
}

func (k *Keeper) SetPendingEmission(ctx context.Context, netuid Netuid, amount cosmosMath.Int) error {
	if amount.IsNegative() {
		return errorsmod.Wrapf(types.ErrEmissionExceedsQuantum, "negative pending emission %s on netuid %d", amount, netuid)
	}
	return k.pendingEmission.Set(ctx, netuid, amount)
}

func (k *Keeper) AddPendingEmission(ctx context.Context, netuid Netuid, amount cosmosMath.Int) error {
	current, err := k.GetPendingEmission(ctx, netuid)
	if err != nil {
		return err
	}
	return k.SetPendingEmission(ctx, netuid, current.Add(amount))
}

func getIntOrZero(ctx context.Context, get func(context.Context) (cosmosMath.Int, error)) (cosmosMath.Int, error) {
	v, err := get(ctx)
	if err != nil {
		if errors.Is(err, collections.ErrNotFound) {
			return cosmosMath.ZeroInt(), nil
		}
		return cosmosMath.Int{}, err
	}
	return v, nil
}

func getMapIntOrZero[K any](ctx context.Context, m collections.Map[K, cosmosMath.Int], key K) (cosmosMath.Int, error) {
	v, err := m.Get(ctx, key)
	if err != nil {
		if errors.Is(err, collections.ErrNotFound) {
			return cosmosMath.ZeroInt(), nil
		}
		return cosmosMath.Int{}, err
	}
	return v, nil
}

// getOrDefault reads key from m, falling back to def when it is missing.
func getOrDefault[K, V any](ctx context.Context, m collections.Map[K, V], key K, def V) (V, error) {
	v, err := m.Get(ctx, key)
	if err != nil {
		if errors.Is(err, collections.ErrNotFound) {
			return def, nil
		}
		return def, err
	}
	return v, nil
}
