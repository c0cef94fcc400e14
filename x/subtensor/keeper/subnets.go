package keeper

import (
	"context"
	"errors"

	"cosmossdk.io/collections"
	errorsmod "cosmossdk.io/errors"
	cosmosMath "cosmossdk.io/math"
	"github.com/opentensor/subtensor-sub008/x/subtensor/types"
)

// AddSubnet creates netuid with the given hyperparameters and no neurons.
func (k *Keeper) AddSubnet(ctx context.Context, netuid Netuid, hp types.SubnetHyperparams) error {
	if netuid >= types.GlobalNetuidStride {
		return errorsmod.Wrapf(types.ErrInvalidHyperparams, "netuid %d out of range", netuid)
	}
	if err := hp.Validate(); err != nil {
		return err
	}
	params, err := k.GetParams(ctx)
	if err != nil {
		return err
	}
	if hp.MechanismCount > params.MaxMechanismCount {
		return errorsmod.Wrapf(types.ErrInvalidMechanismCount, "%d > %d", hp.MechanismCount, params.MaxMechanismCount)
	}
	exists, err := k.subnets.Has(ctx, netuid)
	if err != nil {
		return err
	}
	if exists {
		return errorsmod.Wrapf(types.ErrSubnetExists, "netuid %d", netuid)
	}
	erasing, err := k.HasPendingSweep(ctx, netuid)
	if err != nil {
		return err
	}
	if erasing {
		return errorsmod.Wrapf(types.ErrSubnetBeingErased, "netuid %d", netuid)
	}

	if err := k.subnets.Set(ctx, netuid, hp); err != nil {
		return err
	}
	if err := k.subnetNeuronCount.Set(ctx, netuid, 0); err != nil {
		return err
	}
	if err := k.pendingEmission.Set(ctx, netuid, cosmosMath.ZeroInt()); err != nil {
		return err
	}
	if hp.Tempo == 0 {
		k.Logger(ctx).Warn("subnet added with tempo 0, it will never run an epoch", "netuid", netuid)
	}
	return nil
}

// RemoveSubnet deletes the subnet record and queues the erasure of everything
// stored under it. The per-uid and stake stores are erased by ProcessSweeps.
func (k *Keeper) RemoveSubnet(ctx context.Context, netuid Netuid) error {
	hp, err := k.GetSubnetHyperparams(ctx, netuid)
	if err != nil {
		return err
	}
	if err := k.subnets.Remove(ctx, netuid); err != nil {
		return err
	}
	if err := k.subnetNeuronCount.Remove(ctx, netuid); err != nil {
		return err
	}
	if err := k.pendingEmission.Remove(ctx, netuid); err != nil {
		return err
	}

	for subId := uint8(0); subId < hp.MechanismCount; subId++ {
		if err := k.enqueueMechanismSweeps(ctx, netuid, subId); err != nil {
			return err
		}
	}
	for _, kind := range []types.SweepKind{
		types.SweepKeys,
		types.SweepUids,
		types.SweepNeurons,
		types.SweepStake,
		types.SweepTotalHotkeyStake,
		types.SweepLastAddStakeIncrease,
		types.SweepPendingHotkeyEmission,
		types.SweepChildKeys,
		types.SweepParentKeys,
	} {
		if err := k.EnqueueSweep(ctx, types.SweepJob{Kind: kind, Netuid: netuid}); err != nil {
			return err
		}
	}
	k.Logger(ctx).Info("subnet removed", "netuid", netuid)
	return nil
}

// SetSubnetHyperparams replaces the hyperparameters of netuid. The mechanism
// count and emission split are kept, they change through SetMechanismCount and
// SetEmissionSplit.
func (k *Keeper) SetSubnetHyperparams(ctx context.Context, netuid Netuid, hp types.SubnetHyperparams) error {
	current, err := k.GetSubnetHyperparams(ctx, netuid)
	if err != nil {
		return err
	}
	hp.MechanismCount = current.MechanismCount
	hp.EmissionSplit = current.EmissionSplit
	if err := hp.Validate(); err != nil {
		return err
	}
	count, err := k.GetSubnetNeuronCount(ctx, netuid)
	if err != nil {
		return err
	}
	if hp.MaxAllowedUids < count {
		return errorsmod.Wrapf(types.ErrInvalidHyperparams, "max allowed uids %d below %d registered neurons", hp.MaxAllowedUids, count)
	}
	if hp.Tempo == 0 {
		k.Logger(ctx).Warn("tempo set to 0, subnet will never run an epoch", "netuid", netuid)
	}
	return k.subnets.Set(ctx, netuid, hp)
}

func (k *Keeper) GetSubnetHyperparams(ctx context.Context, netuid Netuid) (types.SubnetHyperparams, error) {
	hp, err := k.subnets.Get(ctx, netuid)
	if err != nil {
		if errors.Is(err, collections.ErrNotFound) {
			return types.SubnetHyperparams{}, errorsmod.Wrapf(types.ErrSubnetNotExists, "netuid %d", netuid)
		}
		return types.SubnetHyperparams{}, err
	}
	return hp, nil
}

func (k *Keeper) SubnetExists(ctx context.Context, netuid Netuid) (bool, error) {
	return k.subnets.Has(ctx, netuid)
}

// GetSubnets returns every existing netuid in ascending order.
func (k *Keeper) GetSubnets(ctx context.Context) ([]Netuid, error) {
	iter, err := k.subnets.Iterate(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer iter.Close()
	return iter.Keys()
}

func (k *Keeper) GetSubnetNeuronCount(ctx context.Context, netuid Netuid) (uint16, error) {
	return getOrDefault(ctx, k.subnetNeuronCount, netuid, 0)
}
