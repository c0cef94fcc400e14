package keeper

import (
	"context"

	"cosmossdk.io/collections"
	cosmosMath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/opentensor/subtensor-sub008/x/subtensor/types"
)

// AccumulateHotkeyEmission credits one epoch's emission of hotkey on netuid to
// pending balances. Parents receive their stake-weighted share of the validator
// emission, one hop only. The hotkey keeps the remainder and the mining emission.
func (k *Keeper) AccumulateHotkeyEmission(
	ctx context.Context,
	hotkey AccountKey,
	netuid Netuid,
	miningEmission cosmosMath.Int,
	validatorEmission cosmosMath.Int,
) error {
	remaining := validatorEmission
	total, err := k.GetStakeWithChildrenAndParents(ctx, hotkey, netuid)
	if err != nil {
		return err
	}
	if total.IsPositive() {
		parents, err := k.GetParents(ctx, hotkey, netuid)
		if err != nil {
			return err
		}
		for _, parent := range parents {
			parentStake, err := k.GetTotalHotkeyStake(ctx, parent.Hotkey, netuid)
			if err != nil {
				return err
			}
			contribution := proportionOf(parentStake, parent.Proportion)
			share := validatorEmission.Mul(contribution).Quo(total)
			if share.GT(remaining) {
				share = remaining
			}
			if !share.IsPositive() {
				continue
			}
			if err := k.creditPendingHotkeyEmission(ctx, parent.Hotkey, netuid, share); err != nil {
				return err
			}
			remaining = remaining.Sub(share)
		}
	}

	if err := k.creditPendingHotkeyEmission(ctx, hotkey, netuid, remaining.Add(miningEmission)); err != nil {
		return err
	}
	types.EmitHotkeyEmissionAccumulatedEvent(sdk.UnwrapSDKContext(ctx), hotkey, netuid, miningEmission, validatorEmission)
	return nil
}

func (k *Keeper) GetPendingHotkeyEmission(ctx context.Context, hotkey AccountKey, netuid Netuid) (cosmosMath.Int, error) {
	return getMapIntOrZero(ctx, k.pendingHotkeyEmission, collections.Join(hotkey, netuid))
}

// creditPendingHotkeyEmission adds amount to the pending balance of (hotkey, netuid)
// and gives the pair a drain slot the first time it is credited.
func (k *Keeper) creditPendingHotkeyEmission(ctx context.Context, hotkey AccountKey, netuid Netuid, amount cosmosMath.Int) error {
	if err := k.ensureDrainSlot(ctx, hotkey, netuid); err != nil {
		return err
	}
	if amount.IsZero() {
		return nil
	}
	current, err := k.GetPendingHotkeyEmission(ctx, hotkey, netuid)
	if err != nil {
		return err
	}
	return k.pendingHotkeyEmission.Set(ctx, collections.Join(hotkey, netuid), current.Add(amount))
}

func (k *Keeper) ensureDrainSlot(ctx context.Context, hotkey AccountKey, netuid Netuid) error {
	key := collections.Join(hotkey, netuid)
	has, err := k.hotkeyDrainIndex.Has(ctx, key)
	if err != nil || has {
		return err
	}
	index, err := k.nextDrainIndex.Next(ctx)
	if err != nil {
		return err
	}
	if err := k.hotkeyDrainIndex.Set(ctx, key, index); err != nil {
		return err
	}
	return k.drainSchedule.Set(ctx, collections.Join3(index%k.config.DrainPeriod, hotkey, netuid))
}
