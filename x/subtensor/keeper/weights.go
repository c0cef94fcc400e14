package keeper

import (
	"context"
	"slices"

	"cosmossdk.io/collections"
	errorsmod "cosmossdk.io/errors"
	sdk "github.com/cosmos/cosmos-sdk/types"
	subtensorMath "github.com/opentensor/subtensor-sub008/math"
	"github.com/opentensor/subtensor-sub008/x/subtensor/types"
)

// SetWeights stores the decoded weights row of hotkey on sub-subnet subId of netuid.
// Values are max-upscaled to u16 and zero weights are dropped.
func (k *Keeper) SetWeights(ctx context.Context, netuid Netuid, subId uint8, hotkey AccountKey, uids, values []uint16) error {
	hp, err := k.GetSubnetHyperparams(ctx, netuid)
	if err != nil {
		return err
	}
	if subId >= hp.MechanismCount {
		return errorsmod.Wrapf(types.ErrMechanismNotExists, "sub-subnet %d of netuid %d", subId, netuid)
	}
	uid, err := k.GetUid(ctx, netuid, hotkey)
	if err != nil {
		return err
	}
	if len(uids) != len(values) {
		return errorsmod.Wrapf(types.ErrInvalidWeights, "%d uids, %d values", len(uids), len(values))
	}
	count, err := k.GetSubnetNeuronCount(ctx, netuid)
	if err != nil {
		return err
	}
	seen := make(map[uint16]struct{}, len(uids))
	for _, target := range uids {
		if target >= count {
			return errorsmod.Wrapf(types.ErrUidOutOfRange, "uid %d, subnet has %d neurons", target, count)
		}
		if _, ok := seen[target]; ok {
			return errorsmod.Wrapf(types.ErrInvalidWeights, "duplicate uid %d", target)
		}
		seen[target] = struct{}{}
	}

	upscaled := subtensorMath.MaxUpscaleU16(values)
	row := make(types.SparseRow, 0, len(uids))
	for i, target := range uids {
		if upscaled[i] == 0 {
			continue
		}
		row = append(row, subtensorMath.CompactEntry{Index: target, Value: upscaled[i]})
	}
	slices.SortFunc(row, func(a, b subtensorMath.CompactEntry) int {
		return int(a.Index) - int(b.Index)
	})

	key := collections.Join(types.StorageIndex(netuid, subId), uid)
	if len(row) == 0 {
		if err := k.weights.Remove(ctx, key); err != nil {
			return err
		}
	} else if err := k.weights.Set(ctx, key, row); err != nil {
		return err
	}
	return k.lastUpdate.Set(ctx, key, sdk.UnwrapSDKContext(ctx).BlockHeight())
}

func (k *Keeper) GetWeights(ctx context.Context, netuid Netuid, subId uint8, uid Uid) (types.SparseRow, error) {
	return getOrDefault(ctx, k.weights, collections.Join(types.StorageIndex(netuid, subId), uid), nil)
}

func (k *Keeper) GetBonds(ctx context.Context, netuid Netuid, subId uint8, uid Uid) (types.SparseRow, error) {
	return getOrDefault(ctx, k.bonds, collections.Join(types.StorageIndex(netuid, subId), uid), nil)
}

func (k *Keeper) GetLastUpdate(ctx context.Context, netuid Netuid, subId uint8, uid Uid) (BlockHeight, error) {
	return getOrDefault(ctx, k.lastUpdate, collections.Join(types.StorageIndex(netuid, subId), uid), 0)
}

func (k *Keeper) GetMechanismIncentive(ctx context.Context, netuid Netuid, subId uint8, uid Uid) (uint16, error) {
	return getOrDefault(ctx, k.mechanismIncentive, collections.Join(types.StorageIndex(netuid, subId), uid), 0)
}
