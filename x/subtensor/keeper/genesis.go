package keeper

import (
	"context"

	"cosmossdk.io/collections"
	errorsmod "cosmossdk.io/errors"
	"github.com/opentensor/subtensor-sub008/x/subtensor/types"
)

// InitGenesis initializes the module state from a genesis state. Entries go
// through the same paths as live transactions, so a genesis that could not be
// reached on chain is rejected.
func (k *Keeper) InitGenesis(ctx context.Context, data *types.GenesisState) error {
	if err := k.SetParams(ctx, data.Params); err != nil {
		return err
	}
	if !data.TotalIssuance.IsNil() {
		if err := k.AddTotalIssuance(ctx, data.TotalIssuance); err != nil {
			return err
		}
	}

	for _, s := range data.Subnets {
		if err := k.AddSubnet(ctx, s.Netuid, s.Hyperparams); err != nil {
			return errorsmod.Wrapf(err, "genesis subnet %d", s.Netuid)
		}
	}
	for _, n := range data.Neurons {
		if _, err := k.RegisterNeuron(ctx, n.Netuid, n.Coldkey, n.Hotkey); err != nil {
			return errorsmod.Wrapf(err, "genesis neuron %s on netuid %d", n.Hotkey, n.Netuid)
		}
	}
	for _, st := range data.Stakes {
		if err := k.IncreaseStake(ctx, st.Hotkey, st.Coldkey, st.Netuid, st.Amount); err != nil {
			return errorsmod.Wrapf(err, "genesis stake of %s", st.Hotkey)
		}
	}
	for _, d := range data.DelegateTakes {
		if err := k.delegateTake.Set(ctx, d.Hotkey, d.Take); err != nil {
			return err
		}
	}
	for _, c := range data.Children {
		if err := k.ValidateChildrenChange(ctx, c.Hotkey, c.Netuid, c.Children); err != nil {
			return errorsmod.Wrapf(err, "genesis children of %s on netuid %d", c.Hotkey, c.Netuid)
		}
		if err := k.commitChildren(ctx, c.Hotkey, c.Netuid, c.Children); err != nil {
			return err
		}
	}
	for _, w := range data.Weights {
		if err := k.SetWeights(ctx, w.Netuid, w.SubId, w.Hotkey, w.Uids, w.Values); err != nil {
			return errorsmod.Wrapf(err, "genesis weights of %s on netuid %d", w.Hotkey, w.Netuid)
		}
	}
	return nil
}

// ExportGenesis exports the module state to a genesis state. Pending emission
// and epoch statistics are not exported, and neither are entries of subnets
// still being swept.
func (k *Keeper) ExportGenesis(ctx context.Context) (*types.GenesisState, error) {
	params, err := k.GetParams(ctx)
	if err != nil {
		return nil, err
	}
	issuance, err := k.GetTotalIssuance(ctx)
	if err != nil {
		return nil, err
	}
	gs := &types.GenesisState{Params: params, TotalIssuance: issuance}

	netuids, err := k.GetSubnets(ctx)
	if err != nil {
		return nil, err
	}
	live := make(map[Netuid]struct{}, len(netuids))
	for _, netuid := range netuids {
		live[netuid] = struct{}{}
		hp, err := k.GetSubnetHyperparams(ctx, netuid)
		if err != nil {
			return nil, err
		}
		gs.Subnets = append(gs.Subnets, types.GenesisSubnet{Netuid: netuid, Hyperparams: hp})

		hotkeys, err := k.GetHotkeys(ctx, netuid)
		if err != nil {
			return nil, err
		}
		for _, hotkey := range hotkeys {
			owner, err := k.GetOwnerOrSelf(ctx, hotkey)
			if err != nil {
				return nil, err
			}
			gs.Neurons = append(gs.Neurons, types.GenesisNeuron{Netuid: netuid, Hotkey: hotkey, Coldkey: owner})
		}
		for subId := uint8(0); subId < hp.MechanismCount; subId++ {
			for uid, hotkey := range hotkeys {
				row, err := k.GetWeights(ctx, netuid, subId, Uid(uid))
				if err != nil {
					return nil, err
				}
				if len(row) == 0 {
					continue
				}
				w := types.GenesisWeights{Netuid: netuid, SubId: subId, Hotkey: hotkey}
				for _, e := range row {
					w.Uids = append(w.Uids, e.Index)
					w.Values = append(w.Values, e.Value)
				}
				gs.Weights = append(gs.Weights, w)
			}
		}
	}

	stakeIter, err := k.stake.Iterate(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer stakeIter.Close()
	for ; stakeIter.Valid(); stakeIter.Next() {
		kv, err := stakeIter.KeyValue()
		if err != nil {
			return nil, err
		}
		if _, ok := live[kv.Key.K3()]; !ok {
			continue
		}
		gs.Stakes = append(gs.Stakes, types.GenesisStake{
			Hotkey:  kv.Key.K1(),
			Coldkey: kv.Key.K2(),
			Netuid:  kv.Key.K3(),
			Amount:  kv.Value,
		})
	}

	err = k.childKeys.Walk(ctx, nil, func(key collections.Pair[AccountKey, Netuid], children types.ChildList) (bool, error) {
		if _, ok := live[key.K2()]; !ok {
			return false, nil
		}
		gs.Children = append(gs.Children, types.GenesisChildren{Hotkey: key.K1(), Netuid: key.K2(), Children: children})
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	err = k.delegateTake.Walk(ctx, nil, func(hotkey AccountKey, take uint16) (bool, error) {
		gs.DelegateTakes = append(gs.DelegateTakes, types.GenesisDelegateTake{Hotkey: hotkey, Take: take})
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	return gs, nil
}
