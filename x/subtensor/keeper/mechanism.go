package keeper

import (
	"context"

	"cosmossdk.io/collections"
	errorsmod "cosmossdk.io/errors"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/opentensor/subtensor-sub008/x/subtensor/types"
)

// SetMechanismCount sets the number of sub-subnets of netuid. Shrinking queues
// the erasure of the removed sub-subnets. The emission split resets to even.
func (k *Keeper) SetMechanismCount(ctx context.Context, netuid Netuid, count uint8) error {
	hp, err := k.GetSubnetHyperparams(ctx, netuid)
	if err != nil {
		return err
	}
	params, err := k.GetParams(ctx)
	if err != nil {
		return err
	}
	if count == 0 || count > params.MaxMechanismCount {
		return errorsmod.Wrapf(types.ErrInvalidMechanismCount, "%d outside [1, %d]", count, params.MaxMechanismCount)
	}
	for subId := hp.MechanismCount; subId < count; subId++ {
		erasing, err := k.HasPendingIndexSweep(ctx, types.StorageIndex(netuid, subId))
		if err != nil {
			return err
		}
		if erasing {
			return errorsmod.Wrapf(types.ErrSubnetBeingErased, "sub-subnet %d of netuid %d", subId, netuid)
		}
	}

	for subId := count; subId < hp.MechanismCount; subId++ {
		if err := k.enqueueMechanismSweeps(ctx, netuid, subId); err != nil {
			return err
		}
	}
	if count > hp.MechanismCount {
		if err := k.seedLastUpdate(ctx, netuid, hp.MechanismCount, count); err != nil {
			return err
		}
	}
	hp.MechanismCount = count
	hp.EmissionSplit = nil
	if err := k.subnets.Set(ctx, netuid, hp); err != nil {
		return err
	}
	types.EmitMechanismCountSetEvent(sdk.UnwrapSDKContext(ctx), netuid, count)
	return nil
}

// seedLastUpdate marks every neuron as updated at the current block on the new
// sub-subnets [from, to), so they are not inactive before their first weights.
func (k *Keeper) seedLastUpdate(ctx context.Context, netuid Netuid, from, to uint8) error {
	count, err := k.GetSubnetNeuronCount(ctx, netuid)
	if err != nil {
		return err
	}
	block := sdk.UnwrapSDKContext(ctx).BlockHeight()
	for subId := from; subId < to; subId++ {
		index := types.StorageIndex(netuid, subId)
		for uid := Uid(0); uid < count; uid++ {
			if err := k.lastUpdate.Set(ctx, collections.Join(index, uid), block); err != nil {
				return err
			}
		}
	}
	return nil
}

// SetEmissionSplit sets the per sub-subnet emission shares of netuid. A nil split
// means even.
func (k *Keeper) SetEmissionSplit(ctx context.Context, netuid Netuid, split []uint16) error {
	hp, err := k.GetSubnetHyperparams(ctx, netuid)
	if err != nil {
		return err
	}
	if err := types.ValidateEmissionSplit(split, hp.MechanismCount); err != nil {
		return err
	}
	hp.EmissionSplit = split
	if err := k.subnets.Set(ctx, netuid, hp); err != nil {
		return err
	}
	types.EmitEmissionSplitSetEvent(sdk.UnwrapSDKContext(ctx), netuid, split)
	return nil
}
