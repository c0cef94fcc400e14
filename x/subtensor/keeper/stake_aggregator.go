package keeper

import (
	"context"

	"cosmossdk.io/collections"
	cosmosMath "cosmossdk.io/math"
	"github.com/opentensor/subtensor-sub008/x/subtensor/types"
)

var maxChildProportion = cosmosMath.NewIntFromUint64(types.MaxChildProportion)

// proportionOf returns floor(amount * proportion / u64::MAX).
func proportionOf(amount cosmosMath.Int, proportion uint64) cosmosMath.Int {
	return amount.Mul(cosmosMath.NewIntFromUint64(proportion)).Quo(maxChildProportion)
}

// GetStakeWithChildrenAndParents is the stake hotkey votes and earns with on
// netuid: its own stake, less what it delegates to its children, plus what its
// parents delegate to it. Every share is truncated.
func (k *Keeper) GetStakeWithChildrenAndParents(ctx context.Context, hotkey AccountKey, netuid Netuid) (cosmosMath.Int, error) {
	own, err := k.GetTotalHotkeyStake(ctx, hotkey, netuid)
	if err != nil {
		return cosmosMath.Int{}, err
	}
	children, err := k.GetChildren(ctx, hotkey, netuid)
	if err != nil {
		return cosmosMath.Int{}, err
	}
	parents, err := k.GetParents(ctx, hotkey, netuid)
	if err != nil {
		return cosmosMath.Int{}, err
	}

	total := own
	for _, child := range children {
		total = total.Sub(proportionOf(own, child.Proportion))
	}
	for _, parent := range parents {
		parentStake, err := k.GetTotalHotkeyStake(ctx, parent.Hotkey, netuid)
		if err != nil {
			return cosmosMath.Int{}, err
		}
		total = total.Add(proportionOf(parentStake, parent.Proportion))
	}
	if total.IsNegative() {
		return cosmosMath.ZeroInt(), nil
	}
	return total, nil
}

func (k *Keeper) GetChildren(ctx context.Context, hotkey AccountKey, netuid Netuid) (types.ChildList, error) {
	return getOrDefault(ctx, k.childKeys, collections.Join(hotkey, netuid), nil)
}

// GetParents returns the (proportion, parent) edges pointing at hotkey.
func (k *Keeper) GetParents(ctx context.Context, hotkey AccountKey, netuid Netuid) (types.ChildList, error) {
	return getOrDefault(ctx, k.parentKeys, collections.Join(hotkey, netuid), nil)
}
