package keeper

import (
	"context"
	"errors"

	"cosmossdk.io/collections"
	errorsmod "cosmossdk.io/errors"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/opentensor/subtensor-sub008/x/subtensor/types"
)

// SetChildren replaces the child list of hotkey on netuid immediately. Every
// check runs before the first write.
func (k *Keeper) SetChildren(ctx context.Context, coldkey, hotkey AccountKey, netuid Netuid, children types.ChildList) error {
	if err := k.checkOwnership(ctx, coldkey, hotkey); err != nil {
		return err
	}
	if err := k.ValidateChildrenChange(ctx, hotkey, netuid, children); err != nil {
		return err
	}
	return k.commitChildren(ctx, hotkey, netuid, children)
}

// ScheduleChildren stores children for hotkey on netuid to be applied once the
// cooldown elapses. A newer schedule replaces an older one.
func (k *Keeper) ScheduleChildren(ctx context.Context, coldkey, hotkey AccountKey, netuid Netuid, children types.ChildList) error {
	if err := k.checkOwnership(ctx, coldkey, hotkey); err != nil {
		return err
	}
	if err := k.ValidateChildrenChange(ctx, hotkey, netuid, children); err != nil {
		return err
	}
	params, err := k.GetParams(ctx)
	if err != nil {
		return err
	}
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	applyAt := sdkCtx.BlockHeight() + params.PendingChildKeyCooldown

	due, err := k.countPendingChildrenAt(ctx, applyAt)
	if err != nil {
		return err
	}
	if due >= params.MaxPendingChildrenPerBlock {
		return errorsmod.Wrapf(types.ErrTooManyPendingChildren, "%d schedules at block %d", due, applyAt)
	}

	key := collections.Join(hotkey, netuid)
	previous, err := k.pendingChildKeys.Get(ctx, key)
	if err != nil && !errors.Is(err, collections.ErrNotFound) {
		return err
	}
	if err == nil {
		if err := k.pendingChildKeysByBlock.Remove(ctx, collections.Join3(previous.ApplyAt, hotkey, netuid)); err != nil {
			return err
		}
	}
	if err := k.pendingChildKeys.Set(ctx, key, types.PendingChildren{Children: children, ApplyAt: applyAt}); err != nil {
		return err
	}
	if err := k.pendingChildKeysByBlock.Set(ctx, collections.Join3(applyAt, hotkey, netuid)); err != nil {
		return err
	}
	types.EmitChildrenScheduledEvent(sdkCtx, hotkey, netuid, applyAt)
	return nil
}

func (k *Keeper) countPendingChildrenAt(ctx context.Context, block BlockHeight) (uint64, error) {
	iter, err := k.pendingChildKeysByBlock.Iterate(ctx, collections.NewPrefixedTripleRange[BlockHeight, AccountKey, Netuid](block))
	if err != nil {
		return 0, err
	}
	defer iter.Close()
	var n uint64
	for ; iter.Valid(); iter.Next() {
		n++
	}
	return n, nil
}

// ApplyPendingChildren commits up to MaxPendingChildrenPerBlock schedules due at
// or before block. A schedule that no longer validates is dropped.
func (k *Keeper) ApplyPendingChildren(ctx context.Context, block BlockHeight) error {
	params, err := k.GetParams(ctx)
	if err != nil {
		return err
	}
	iter, err := k.pendingChildKeysByBlock.Iterate(ctx, collections.NewPrefixUntilTripleRange[BlockHeight, AccountKey, Netuid](block))
	if err != nil {
		return err
	}
	var due []collections.Triple[BlockHeight, AccountKey, Netuid]
	for ; iter.Valid() && uint64(len(due)) < params.MaxPendingChildrenPerBlock; iter.Next() {
		key, err := iter.Key()
		if err != nil {
			iter.Close()
			return err
		}
		due = append(due, key)
	}
	iter.Close()

	for _, key := range due {
		hotkey, netuid := key.K2(), key.K3()
		pending, found, err := k.GetPendingChildren(ctx, hotkey, netuid)
		if err != nil {
			return err
		}
		if err := k.pendingChildKeysByBlock.Remove(ctx, key); err != nil {
			return err
		}
		if !found || pending.ApplyAt != key.K1() {
			continue
		}
		if err := k.pendingChildKeys.Remove(ctx, collections.Join(hotkey, netuid)); err != nil {
			return err
		}
		if err := k.ValidateChildrenChange(ctx, hotkey, netuid, pending.Children); err != nil {
			k.Logger(ctx).Warn("dropping child schedule that no longer validates",
				"hotkey", hotkey.String(), "netuid", netuid, "error", err)
			continue
		}
		if err := k.commitChildren(ctx, hotkey, netuid, pending.Children); err != nil {
			return err
		}
	}
	return nil
}

func (k *Keeper) GetPendingChildren(ctx context.Context, hotkey AccountKey, netuid Netuid) (types.PendingChildren, bool, error) {
	pending, err := k.pendingChildKeys.Get(ctx, collections.Join(hotkey, netuid))
	if err != nil {
		if errors.Is(err, collections.ErrNotFound) {
			return types.PendingChildren{}, false, nil
		}
		return types.PendingChildren{}, false, err
	}
	return pending, true, nil
}

// ValidateChildrenChange checks that hotkey may take children on netuid without
// touching storage.
func (k *Keeper) ValidateChildrenChange(ctx context.Context, hotkey AccountKey, netuid Netuid, children types.ChildList) error {
	exists, err := k.SubnetExists(ctx, netuid)
	if err != nil {
		return err
	}
	if !exists {
		return errorsmod.Wrapf(types.ErrSubnetNotExists, "netuid %d", netuid)
	}
	params, err := k.GetParams(ctx)
	if err != nil {
		return err
	}
	if err := types.ValidateChildren(hotkey, children, params.MaxChildren); err != nil {
		return err
	}
	if len(children) == 0 {
		return nil
	}
	own, err := k.GetTotalHotkeyStake(ctx, hotkey, netuid)
	if err != nil {
		return err
	}
	if own.LT(params.StakeThreshold) {
		return errorsmod.Wrapf(types.ErrNotEnoughStakeToSetChildkeys, "%s < %s", own, params.StakeThreshold)
	}
	return k.checkNoCycle(ctx, hotkey, netuid, children)
}

// checkNoCycle walks down from every proposed child and fails if hotkey is reachable.
func (k *Keeper) checkNoCycle(ctx context.Context, hotkey AccountKey, netuid Netuid, children types.ChildList) error {
	visited := make(map[AccountKey]struct{})
	stack := make([]AccountKey, 0, len(children))
	for _, c := range children {
		stack = append(stack, c.Hotkey)
	}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if node == hotkey {
			return errorsmod.Wrapf(types.ErrChildCycle, "%s reaches itself on netuid %d", hotkey, netuid)
		}
		if _, ok := visited[node]; ok {
			continue
		}
		visited[node] = struct{}{}
		grandchildren, err := k.GetChildren(ctx, node, netuid)
		if err != nil {
			return err
		}
		for _, gc := range grandchildren {
			stack = append(stack, gc.Hotkey)
		}
	}
	return nil
}

// commitChildren writes the child list and keeps every parent list its mirror.
func (k *Keeper) commitChildren(ctx context.Context, hotkey AccountKey, netuid Netuid, children types.ChildList) error {
	previous, err := k.GetChildren(ctx, hotkey, netuid)
	if err != nil {
		return err
	}
	for _, old := range previous {
		parents, err := k.GetParents(ctx, old.Hotkey, netuid)
		if err != nil {
			return err
		}
		kept := parents[:0]
		for _, p := range parents {
			if p.Hotkey != hotkey {
				kept = append(kept, p)
			}
		}
		if err := k.setEdgeList(ctx, k.parentKeys, old.Hotkey, netuid, kept); err != nil {
			return err
		}
	}

	if err := k.setEdgeList(ctx, k.childKeys, hotkey, netuid, children); err != nil {
		return err
	}
	for _, c := range children {
		parents, err := k.GetParents(ctx, c.Hotkey, netuid)
		if err != nil {
			return err
		}
		parents = append(parents, types.ChildEdge{Proportion: c.Proportion, Hotkey: hotkey})
		if err := k.setEdgeList(ctx, k.parentKeys, c.Hotkey, netuid, parents); err != nil {
			return err
		}
	}
	types.EmitChildrenSetEvent(sdk.UnwrapSDKContext(ctx), hotkey, netuid, children)
	return nil
}

func (k *Keeper) setEdgeList(
	ctx context.Context,
	m collections.Map[collections.Pair[AccountKey, Netuid], types.ChildList],
	hotkey AccountKey,
	netuid Netuid,
	edges types.ChildList,
) error {
	key := collections.Join(hotkey, netuid)
	if len(edges) == 0 {
		return m.Remove(ctx, key)
	}
	return m.Set(ctx, key, edges)
}
