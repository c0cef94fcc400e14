package keeper

import (
	"fmt"

	"cosmossdk.io/collections"
	cosmosMath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/opentensor/subtensor-sub008/x/subtensor/types"
)

// RegisterInvariants registers the subtensor module invariants.
func RegisterInvariants(ir sdk.InvariantRegistry, k *Keeper) {
	ir.RegisterRoute(types.ModuleName, "child-parent-mirror", StakeGraphInvariantChildParentMirror(*k))
	ir.RegisterRoute(types.ModuleName, "total-hotkey-stake", StakingInvariantTotalHotkeyStake(*k))
	ir.RegisterRoute(types.ModuleName, "pending-children-index", StakeGraphInvariantPendingChildrenIndex(*k))
	ir.RegisterRoute(types.ModuleName, "drain-schedule-index", DrainInvariantScheduleMatchesIndex(*k))
}

// AllInvariants is a convenience function to run all invariants in the subtensor module.
func AllInvariants(k Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		for _, inv := range []sdk.Invariant{
			StakeGraphInvariantChildParentMirror(k),
			StakingInvariantTotalHotkeyStake(k),
			StakeGraphInvariantPendingChildrenIndex(k),
			DrainInvariantScheduleMatchesIndex(k),
		} {
			if res, stop := inv(ctx); stop {
				return res, stop
			}
		}
		return "", false
	}
}

// liveSubnets memoizes which netuids still exist. State of removed subnets may
// be half erased by the sweeps.
func liveSubnets(ctx sdk.Context, k Keeper) func(Netuid) bool {
	cache := make(map[Netuid]bool)
	return func(netuid Netuid) bool {
		exists, ok := cache[netuid]
		if !ok {
			var err error
			if exists, err = k.SubnetExists(ctx, netuid); err != nil {
				panic(fmt.Sprintf("failed to read subnet %d: %v", netuid, err))
			}
			cache[netuid] = exists
		}
		return exists
	}
}

type stakeTotalKey struct {
	hotkey AccountKey
	netuid Netuid
}

type edgeKey struct {
	parent AccountKey
	child  AccountKey
	netuid Netuid
}

// StakeGraphInvariantChildParentMirror checks that every child edge of a live
// subnet appears with the same proportion in the child's parent list, and the
// other way round. Subnets still being swept are skipped.
func StakeGraphInvariantChildParentMirror(k Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		live := liveSubnets(ctx, k)
		childEdges := make(map[edgeKey]uint64)
		err := k.childKeys.Walk(ctx, nil, func(key collections.Pair[AccountKey, Netuid], children types.ChildList) (bool, error) {
			if !live(key.K2()) {
				return false, nil
			}
			for _, c := range children {
				childEdges[edgeKey{parent: key.K1(), child: c.Hotkey, netuid: key.K2()}] = c.Proportion
			}
			return false, nil
		})
		if err != nil {
			panic(fmt.Sprintf("failed to walk child keys: %v", err))
		}
		parentEdges := make(map[edgeKey]uint64)
		err = k.parentKeys.Walk(ctx, nil, func(key collections.Pair[AccountKey, Netuid], parents types.ChildList) (bool, error) {
			if !live(key.K2()) {
				return false, nil
			}
			for _, p := range parents {
				parentEdges[edgeKey{parent: p.Hotkey, child: key.K1(), netuid: key.K2()}] = p.Proportion
			}
			return false, nil
		})
		if err != nil {
			panic(fmt.Sprintf("failed to walk parent keys: %v", err))
		}

		broken := len(childEdges) != len(parentEdges)
		var mismatch string
		for edge, prop := range childEdges {
			if parentProp, ok := parentEdges[edge]; !ok || parentProp != prop {
				broken = true
				mismatch = fmt.Sprintf("parent %s -> child %s on netuid %d: %d vs %d",
					edge.parent, edge.child, edge.netuid, prop, parentProp)
				break
			}
		}
		return sdk.FormatInvariant(
			types.ModuleName,
			"child keys mirror parent keys",
			fmt.Sprintf("child edges: %d | parent edges: %d | %s", len(childEdges), len(parentEdges), mismatch),
		), broken
	}
}

// StakingInvariantTotalHotkeyStake checks that the total stake of every
// (hotkey, netuid) of a live subnet equals the sum of its nominator stakes.
func StakingInvariantTotalHotkeyStake(k Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		live := liveSubnets(ctx, k)
		sums := make(map[stakeTotalKey]cosmosMath.Int)
		err := k.stake.Walk(ctx, nil, func(key collections.Triple[AccountKey, AccountKey, Netuid], amount cosmosMath.Int) (bool, error) {
			if !live(key.K3()) {
				return false, nil
			}
			total := stakeTotalKey{hotkey: key.K1(), netuid: key.K3()}
			sum, ok := sums[total]
			if !ok {
				sum = cosmosMath.ZeroInt()
			}
			sums[total] = sum.Add(amount)
			return false, nil
		})
		if err != nil {
			panic(fmt.Sprintf("failed to walk stake: %v", err))
		}

		seen := 0
		var msg string
		broken := false
		err = k.totalHotkeyStake.Walk(ctx, nil, func(key collections.Pair[AccountKey, Netuid], total cosmosMath.Int) (bool, error) {
			if !live(key.K2()) {
				return false, nil
			}
			seen++
			sum, ok := sums[stakeTotalKey{hotkey: key.K1(), netuid: key.K2()}]
			if !ok {
				sum = cosmosMath.ZeroInt()
			}
			if !sum.Equal(total) {
				broken = true
				msg = fmt.Sprintf("%s on netuid %d: total %s, sum %s", key.K1(), key.K2(), total, sum)
				return true, nil
			}
			return false, nil
		})
		if err != nil {
			panic(fmt.Sprintf("failed to walk total hotkey stake: %v", err))
		}
		if !broken && seen != len(sums) {
			broken = true
			msg = fmt.Sprintf("%d totals for %d staked hotkeys", seen, len(sums))
		}
		return sdk.FormatInvariant(types.ModuleName, "total hotkey stake equals sum of stakes", msg), broken
	}
}

// StakeGraphInvariantPendingChildrenIndex checks that every scheduled child
// list is indexed exactly once, at the block it applies at.
func StakeGraphInvariantPendingChildrenIndex(k Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		pending := 0
		var msg string
		broken := false
		err := k.pendingChildKeys.Walk(ctx, nil, func(key collections.Pair[AccountKey, Netuid], p types.PendingChildren) (bool, error) {
			pending++
			has, err := k.pendingChildKeysByBlock.Has(ctx, collections.Join3(p.ApplyAt, key.K1(), key.K2()))
			if err != nil {
				return true, err
			}
			if !has {
				broken = true
				msg = fmt.Sprintf("%s on netuid %d not indexed at block %d", key.K1(), key.K2(), p.ApplyAt)
				return true, nil
			}
			return false, nil
		})
		if err != nil {
			panic(fmt.Sprintf("failed to walk pending child keys: %v", err))
		}
		indexed := 0
		err = k.pendingChildKeysByBlock.Walk(ctx, nil, func(collections.Triple[BlockHeight, AccountKey, Netuid]) (bool, error) {
			indexed++
			return false, nil
		})
		if err != nil {
			panic(fmt.Sprintf("failed to walk pending child index: %v", err))
		}
		if !broken && pending != indexed {
			broken = true
			msg = fmt.Sprintf("%d schedules, %d index entries", pending, indexed)
		}
		return sdk.FormatInvariant(types.ModuleName, "pending children indexed by block", msg), broken
	}
}

// DrainInvariantScheduleMatchesIndex checks that every allocated drain index
// has exactly one slot in the drain schedule.
func DrainInvariantScheduleMatchesIndex(k Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		allocated := 0
		var msg string
		broken := false
		err := k.hotkeyDrainIndex.Walk(ctx, nil, func(key collections.Pair[AccountKey, Netuid], index uint64) (bool, error) {
			allocated++
			slot := collections.Join3(index%k.config.DrainPeriod, key.K1(), key.K2())
			has, err := k.drainSchedule.Has(ctx, slot)
			if err != nil {
				return true, err
			}
			if !has {
				broken = true
				msg = fmt.Sprintf("%s on netuid %d has index %d but no slot", key.K1(), key.K2(), index)
				return true, nil
			}
			return false, nil
		})
		if err != nil {
			panic(fmt.Sprintf("failed to walk drain index: %v", err))
		}
		scheduled := 0
		err = k.drainSchedule.Walk(ctx, nil, func(collections.Triple[uint64, AccountKey, Netuid]) (bool, error) {
			scheduled++
			return false, nil
		})
		if err != nil {
			panic(fmt.Sprintf("failed to walk drain schedule: %v", err))
		}
		if !broken && allocated != scheduled {
			broken = true
			msg = fmt.Sprintf("%d indices, %d slots", allocated, scheduled)
		}
		return sdk.FormatInvariant(types.ModuleName, "drain schedule matches drain index", msg), broken
	}
}
