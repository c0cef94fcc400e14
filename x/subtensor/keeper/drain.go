package keeper

import (
	"context"

	"cosmossdk.io/collections"
	errorsmod "cosmossdk.io/errors"
	cosmosMath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	subtensorMath "github.com/opentensor/subtensor-sub008/math"
	"github.com/opentensor/subtensor-sub008/x/subtensor/types"
)

// DrainHotkeyEmission pays out the pending emission of (hotkey, netuid) as stake.
// The owner keeps the delegate take. Nominators that did not add stake by hand
// since the previous drain split the rest pro rata, and truncation dust goes back
// to the owner. It returns the amount drained.
func (k *Keeper) DrainHotkeyEmission(ctx context.Context, hotkey AccountKey, netuid Netuid, block BlockHeight) (cosmosMath.Int, error) {
	key := collections.Join(hotkey, netuid)
	emission, err := k.GetPendingHotkeyEmission(ctx, hotkey, netuid)
	if err != nil {
		return cosmosMath.Int{}, err
	}
	if err := k.pendingHotkeyEmission.Remove(ctx, key); err != nil {
		return cosmosMath.Int{}, err
	}
	lastDrain, err := getOrDefault(ctx, k.lastHotkeyEmissionDrain, key, 0)
	if err != nil {
		return cosmosMath.Int{}, err
	}
	if err := k.lastHotkeyEmissionDrain.Set(ctx, key, block); err != nil {
		return cosmosMath.Int{}, err
	}
	if !emission.IsPositive() {
		return cosmosMath.ZeroInt(), nil
	}

	takeU16, err := k.GetDelegateTake(ctx, hotkey)
	if err != nil {
		return cosmosMath.Int{}, err
	}
	emissionDec, err := subtensorMath.NewDecFromSdkInt(emission)
	if err != nil {
		return cosmosMath.Int{}, err
	}
	takeDec, err := subtensorMath.U16ProportionOf(takeU16, emissionDec)
	if err != nil {
		return cosmosMath.Int{}, errorsmod.Wrap(err, "delegate take")
	}
	take, err := takeDec.SdkIntTrim()
	if err != nil {
		return cosmosMath.Int{}, err
	}
	toNominators := emission.Sub(take)

	total, err := k.GetTotalHotkeyStake(ctx, hotkey, netuid)
	if err != nil {
		return cosmosMath.Int{}, err
	}
	nominators, err := k.GetNominators(ctx, hotkey, netuid)
	if err != nil {
		return cosmosMath.Int{}, err
	}
	distributed := cosmosMath.ZeroInt()
	if total.IsPositive() {
		for _, n := range nominators {
			increased, err := k.GetLastAddStakeIncrease(ctx, hotkey, n.Coldkey, netuid)
			if err != nil {
				return cosmosMath.Int{}, err
			}
			if increased > lastDrain {
				continue
			}
			share := toNominators.Mul(n.Stake).Quo(total)
			if err := k.IncreaseStake(ctx, hotkey, n.Coldkey, netuid, share); err != nil {
				return cosmosMath.Int{}, err
			}
			distributed = distributed.Add(share)
		}
	}

	owner, err := k.GetOwnerOrSelf(ctx, hotkey)
	if err != nil {
		return cosmosMath.Int{}, err
	}
	if err := k.IncreaseStake(ctx, hotkey, owner, netuid, emission.Sub(distributed)); err != nil {
		return cosmosMath.Int{}, err
	}
	return emission, nil
}

// DrainDueHotkeys drains every hotkey whose drain slot matches block and returns
// the total drained. Entries of removed subnets are dropped on the way.
func (k *Keeper) DrainDueHotkeys(ctx context.Context, block BlockHeight) (cosmosMath.Int, error) {
	slot := uint64(block) % k.config.DrainPeriod
	iter, err := k.drainSchedule.Iterate(ctx, collections.NewPrefixedTripleRange[uint64, AccountKey, Netuid](slot))
	if err != nil {
		return cosmosMath.Int{}, err
	}
	due, err := iter.Keys()
	iter.Close()
	if err != nil {
		return cosmosMath.Int{}, err
	}

	sdkCtx := sdk.UnwrapSDKContext(ctx)
	total := cosmosMath.ZeroInt()
	for _, entry := range due {
		hotkey, netuid := entry.K2(), entry.K3()
		exists, err := k.SubnetExists(ctx, netuid)
		if err != nil {
			return cosmosMath.Int{}, err
		}
		if !exists {
			if err := k.dropDrainSlot(ctx, entry); err != nil {
				return cosmosMath.Int{}, err
			}
			continue
		}
		drained, err := k.DrainHotkeyEmission(ctx, hotkey, netuid, block)
		if err != nil {
			return cosmosMath.Int{}, errorsmod.Wrapf(err, "drain %s on netuid %d", hotkey, netuid)
		}
		if drained.IsPositive() {
			types.EmitHotkeyDrainedEvent(sdkCtx, hotkey, netuid, drained)
			total = total.Add(drained)
		}
	}
	return total, nil
}

func (k *Keeper) dropDrainSlot(ctx context.Context, entry collections.Triple[uint64, AccountKey, Netuid]) error {
	key := collections.Join(entry.K2(), entry.K3())
	if err := k.drainSchedule.Remove(ctx, entry); err != nil {
		return err
	}
	if err := k.hotkeyDrainIndex.Remove(ctx, key); err != nil {
		return err
	}
	return k.lastHotkeyEmissionDrain.Remove(ctx, key)
}

func (k *Keeper) GetLastHotkeyEmissionDrain(ctx context.Context, hotkey AccountKey, netuid Netuid) (BlockHeight, error) {
	return getOrDefault(ctx, k.lastHotkeyEmissionDrain, collections.Join(hotkey, netuid), 0)
}

// GetHotkeyDrainIndex returns the enumeration index of (hotkey, netuid) and
// whether one has been allocated.
func (k *Keeper) GetHotkeyDrainIndex(ctx context.Context, hotkey AccountKey, netuid Netuid) (uint64, bool, error) {
	key := collections.Join(hotkey, netuid)
	has, err := k.hotkeyDrainIndex.Has(ctx, key)
	if err != nil || !has {
		return 0, false, err
	}
	index, err := k.hotkeyDrainIndex.Get(ctx, key)
	return index, err == nil, err
}
