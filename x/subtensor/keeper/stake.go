package keeper

import (
	"context"
	"errors"

	"cosmossdk.io/collections"
	errorsmod "cosmossdk.io/errors"
	cosmosMath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/opentensor/subtensor-sub008/x/subtensor/types"
)

// GetOwner returns the coldkey owning hotkey and whether one is recorded.
func (k *Keeper) GetOwner(ctx context.Context, hotkey AccountKey) (AccountKey, bool, error) {
	owner, err := k.owner.Get(ctx, hotkey)
	if err != nil {
		if errors.Is(err, collections.ErrNotFound) {
			return AccountKey{}, false, nil
		}
		return AccountKey{}, false, err
	}
	return owner, true, nil
}

// GetOwnerOrSelf returns the owning coldkey of hotkey, or hotkey itself when it
// has none.
func (k *Keeper) GetOwnerOrSelf(ctx context.Context, hotkey AccountKey) (AccountKey, error) {
	owner, found, err := k.GetOwner(ctx, hotkey)
	if err != nil || !found {
		return hotkey, err
	}
	return owner, nil
}

func (k *Keeper) GetStake(ctx context.Context, hotkey, coldkey AccountKey, netuid Netuid) (cosmosMath.Int, error) {
	return getMapIntOrZero(ctx, k.stake, collections.Join3(hotkey, coldkey, netuid))
}

// GetTotalHotkeyStake is the hotkey's own stake on netuid, before any parent or
// child adjustment.
func (k *Keeper) GetTotalHotkeyStake(ctx context.Context, hotkey AccountKey, netuid Netuid) (cosmosMath.Int, error) {
	return getMapIntOrZero(ctx, k.totalHotkeyStake, collections.Join(hotkey, netuid))
}

func (k *Keeper) GetLastAddStakeIncrease(ctx context.Context, hotkey, coldkey AccountKey, netuid Netuid) (BlockHeight, error) {
	return getOrDefault(ctx, k.lastAddStakeIncrease, collections.Join3(hotkey, coldkey, netuid), 0)
}

// AddStake is a manual stake by coldkey on hotkey. It records the block so the
// next drain of hotkey skips coldkey.
func (k *Keeper) AddStake(ctx context.Context, coldkey, hotkey AccountKey, netuid Netuid, amount cosmosMath.Int) error {
	if err := k.checkStakeTarget(ctx, hotkey, netuid, amount); err != nil {
		return err
	}
	if err := k.IncreaseStake(ctx, hotkey, coldkey, netuid, amount); err != nil {
		return err
	}
	block := sdk.UnwrapSDKContext(ctx).BlockHeight()
	return k.lastAddStakeIncrease.Set(ctx, collections.Join3(hotkey, coldkey, netuid), block)
}

// RemoveStake is a manual unstake by coldkey from hotkey. It leaves the add
// marker alone, so the next drain still pays coldkey on its remaining stake.
func (k *Keeper) RemoveStake(ctx context.Context, coldkey, hotkey AccountKey, netuid Netuid, amount cosmosMath.Int) error {
	if err := k.checkStakeTarget(ctx, hotkey, netuid, amount); err != nil {
		return err
	}
	current, err := k.GetStake(ctx, hotkey, coldkey, netuid)
	if err != nil {
		return err
	}
	if current.LT(amount) {
		return errorsmod.Wrapf(types.ErrNotEnoughStake, "%s < %s", current, amount)
	}
	return k.decreaseStake(ctx, hotkey, coldkey, netuid, amount)
}

func (k *Keeper) checkStakeTarget(ctx context.Context, hotkey AccountKey, netuid Netuid, amount cosmosMath.Int) error {
	if amount.IsNil() || !amount.IsPositive() {
		return errorsmod.Wrapf(types.ErrNotEnoughStake, "amount must be positive")
	}
	exists, err := k.SubnetExists(ctx, netuid)
	if err != nil {
		return err
	}
	if !exists {
		return errorsmod.Wrapf(types.ErrSubnetNotExists, "netuid %d", netuid)
	}
	if _, found, err := k.GetOwner(ctx, hotkey); err != nil {
		return err
	} else if !found {
		return errorsmod.Wrapf(types.ErrHotkeyNotRegistered, "%s has no owner", hotkey)
	}
	return nil
}

// IncreaseStake credits amount to (hotkey, coldkey, netuid) without touching the
// manual stake marker. Drains and genesis use it.
func (k *Keeper) IncreaseStake(ctx context.Context, hotkey, coldkey AccountKey, netuid Netuid, amount cosmosMath.Int) error {
	if amount.IsZero() {
		return nil
	}
	current, err := k.GetStake(ctx, hotkey, coldkey, netuid)
	if err != nil {
		return err
	}
	total, err := k.GetTotalHotkeyStake(ctx, hotkey, netuid)
	if err != nil {
		return err
	}
	if err := k.stake.Set(ctx, collections.Join3(hotkey, coldkey, netuid), current.Add(amount)); err != nil {
		return err
	}
	return k.totalHotkeyStake.Set(ctx, collections.Join(hotkey, netuid), total.Add(amount))
}

func (k *Keeper) decreaseStake(ctx context.Context, hotkey, coldkey AccountKey, netuid Netuid, amount cosmosMath.Int) error {
	current, err := k.GetStake(ctx, hotkey, coldkey, netuid)
	if err != nil {
		return err
	}
	total, err := k.GetTotalHotkeyStake(ctx, hotkey, netuid)
	if err != nil {
		return err
	}
	stakeKey := collections.Join3(hotkey, coldkey, netuid)
	if remaining := current.Sub(amount); remaining.IsZero() {
		if err := k.stake.Remove(ctx, stakeKey); err != nil {
			return err
		}
	} else if err := k.stake.Set(ctx, stakeKey, remaining); err != nil {
		return err
	}
	totalKey := collections.Join(hotkey, netuid)
	remaining := total.Sub(amount)
	if remaining.IsZero() {
		return k.totalHotkeyStake.Remove(ctx, totalKey)
	}
	return k.totalHotkeyStake.Set(ctx, totalKey, remaining)
}

type Nominator struct {
	Coldkey AccountKey
	Stake   cosmosMath.Int
}

// GetNominators lists every coldkey with stake on (hotkey, netuid) in coldkey order.
func (k *Keeper) GetNominators(ctx context.Context, hotkey AccountKey, netuid Netuid) ([]Nominator, error) {
	rng := collections.NewPrefixedTripleRange[AccountKey, AccountKey, Netuid](hotkey)
	iter, err := k.stake.Iterate(ctx, rng)
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var out []Nominator
	for ; iter.Valid(); iter.Next() {
		kv, err := iter.KeyValue()
		if err != nil {
			return nil, err
		}
		if kv.Key.K3() != netuid {
			continue
		}
		out = append(out, Nominator{Coldkey: kv.Key.K2(), Stake: kv.Value})
	}
	return out, nil
}

/// DELEGATE TAKE

func (k *Keeper) GetDelegateTake(ctx context.Context, hotkey AccountKey) (uint16, error) {
	take, err := k.delegateTake.Get(ctx, hotkey)
	if err != nil {
		if errors.Is(err, collections.ErrNotFound) {
			params, err := k.GetParams(ctx)
			if err != nil {
				return 0, err
			}
			return params.DefaultDelegateTake, nil
		}
		return 0, err
	}
	return take, nil
}

// SetDelegateTake sets the share of every drain the owner of hotkey keeps before
// nominators are paid.
func (k *Keeper) SetDelegateTake(ctx context.Context, coldkey, hotkey AccountKey, take uint16) error {
	if err := k.checkOwnership(ctx, coldkey, hotkey); err != nil {
		return err
	}
	params, err := k.GetParams(ctx)
	if err != nil {
		return err
	}
	if take > params.MaxDelegateTake {
		return errorsmod.Wrapf(types.ErrDelegateTakeTooHigh, "%d > %d", take, params.MaxDelegateTake)
	}
	return k.delegateTake.Set(ctx, hotkey, take)
}

func (k *Keeper) checkOwnership(ctx context.Context, coldkey, hotkey AccountKey) error {
	owner, found, err := k.GetOwner(ctx, hotkey)
	if err != nil {
		return err
	}
	if !found || owner != coldkey {
		return errorsmod.Wrapf(types.ErrNonAssociatedColdkey, "%s does not own %s", coldkey, hotkey)
	}
	return nil
}
