package keeper

import (
	"context"
	"time"

	"cosmossdk.io/collections"
	errorsmod "cosmossdk.io/errors"
	sdk "github.com/cosmos/cosmos-sdk/types"
	subtensorMath "github.com/opentensor/subtensor-sub008/math"
	"github.com/opentensor/subtensor-sub008/x/subtensor/epoch"
	"github.com/opentensor/subtensor-sub008/x/subtensor/metrics"
	"github.com/opentensor/subtensor-sub008/x/subtensor/types"
)

// RunEpoch distributes the pending emission of netuid through Yuma consensus,
// persists the per-neuron results and credits every hotkey's share to its
// pending balance. What the epoch does not distribute stays pending.
func (k *Keeper) RunEpoch(ctx context.Context, netuid Netuid, block BlockHeight) (epoch.Terms, error) {
	defer metrics.MeasureEpochDuration(time.Now(), netuid)

	hp, err := k.GetSubnetHyperparams(ctx, netuid)
	if err != nil {
		return epoch.Terms{}, err
	}
	pending, err := k.GetPendingEmission(ctx, netuid)
	if err != nil {
		return epoch.Terms{}, err
	}

	inputs, err := k.buildEpochInputs(ctx, netuid, hp, block)
	if err != nil {
		return epoch.Terms{}, errorsmod.Wrapf(err, "epoch inputs of netuid %d", netuid)
	}
	stake, err := k.epochStake(ctx, netuid, inputs[0].Hotkeys)
	if err != nil {
		return epoch.Terms{}, err
	}
	runner := epoch.NewRunner(inputs, hp.EmissionSplit)
	runner.SetStake(stake)
	terms, err := runner.Run(pending)
	if err != nil {
		return epoch.Terms{}, errorsmod.Wrapf(err, "epoch of netuid %d", netuid)
	}

	distributed := terms.TotalEmission()
	if distributed.GT(pending) {
		return epoch.Terms{}, errorsmod.Wrapf(types.ErrEmissionExceedsQuantum,
			"netuid %d distributed %s of %s", netuid, distributed, pending)
	}
	if err := k.persistEpoch(ctx, netuid, terms); err != nil {
		return epoch.Terms{}, err
	}
	for _, nt := range terms.Neurons {
		if err := k.AccumulateHotkeyEmission(ctx, nt.Hotkey, netuid, nt.ServerEmission, nt.ValidatorEmission); err != nil {
			return epoch.Terms{}, err
		}
	}
	if err := k.SetPendingEmission(ctx, netuid, pending.Sub(distributed)); err != nil {
		return epoch.Terms{}, err
	}

	types.EmitEpochCompletedEvent(sdk.UnwrapSDKContext(ctx), netuid, block, distributed, len(terms.Neurons))
	return terms, nil
}

// buildEpochInputs reads one epoch.Input per sub-subnet of netuid.
func (k *Keeper) buildEpochInputs(ctx context.Context, netuid Netuid, hp types.SubnetHyperparams, block BlockHeight) ([]epoch.Input, error) {
	hotkeys, err := k.GetHotkeys(ctx, netuid)
	if err != nil {
		return nil, err
	}
	n := len(hotkeys)
	registeredAt := make([]BlockHeight, n)
	permits := make([]bool, n)
	for uid := 0; uid < n; uid++ {
		info, err := k.GetNeuronInfo(ctx, netuid, Uid(uid))
		if err != nil {
			return nil, err
		}
		registeredAt[uid] = info.RegisteredAt
		permits[uid] = info.ValidatorPermit
	}

	inputs := make([]epoch.Input, hp.MechanismCount)
	for subId := uint8(0); subId < hp.MechanismCount; subId++ {
		index := types.StorageIndex(netuid, subId)
		in := epoch.Input{
			Netuid:               netuid,
			SubId:                subId,
			Block:                block,
			Kappa:                hp.Kappa,
			Rho:                  hp.Rho,
			ActivityCutoff:       hp.ActivityCutoff,
			BondsMovingAverage:   hp.BondsMovingAverage,
			LiquidAlphaEnabled:   hp.LiquidAlphaEnabled,
			AlphaLow:             hp.AlphaLow,
			AlphaHigh:            hp.AlphaHigh,
			MaxAllowedValidators: hp.MaxAllowedValidators,
			Hotkeys:              hotkeys,
			RegisteredAt:         registeredAt,
			ValidatorPermit:      permits,
			LastUpdate:           make([]BlockHeight, n),
			Weights:              make([]types.SparseRow, n),
			Bonds:                make([]types.SparseRow, n),
		}
		for uid := 0; uid < n; uid++ {
			key := collections.Join(index, Uid(uid))
			if in.LastUpdate[uid], err = getOrDefault(ctx, k.lastUpdate, key, 0); err != nil {
				return nil, err
			}
			if in.Weights[uid], err = getOrDefault(ctx, k.weights, key, nil); err != nil {
				return nil, err
			}
			if in.Bonds[uid], err = getOrDefault(ctx, k.bonds, key, nil); err != nil {
				return nil, err
			}
		}
		inputs[subId] = in
	}
	return inputs, nil
}

// epochStake is the stake each uid brings to consensus once children and
// parents are accounted for.
func (k *Keeper) epochStake(ctx context.Context, netuid Netuid, hotkeys []AccountKey) ([]subtensorMath.Dec, error) {
	stake := make([]subtensorMath.Dec, len(hotkeys))
	for uid, hotkey := range hotkeys {
		s, err := k.GetStakeWithChildrenAndParents(ctx, hotkey, netuid)
		if err != nil {
			return nil, err
		}
		if stake[uid], err = subtensorMath.NewDecFromSdkInt(s); err != nil {
			return nil, err
		}
	}
	return stake, nil
}

func (k *Keeper) persistEpoch(ctx context.Context, netuid Netuid, terms epoch.Terms) error {
	for _, nt := range terms.Neurons {
		info, err := k.GetNeuronInfo(ctx, netuid, nt.Uid)
		if err != nil {
			return err
		}
		info = types.NeuronInfo{
			RegisteredAt:    info.RegisteredAt,
			Active:          nt.Active,
			ValidatorPermit: nt.ValidatorPermit,
			Rank:            nt.Rank,
			Trust:           nt.Trust,
			Consensus:       nt.Consensus,
			Incentive:       nt.Incentive,
			Dividends:       nt.Dividends,
			PruningScore:    nt.PruningScore,
			ValidatorTrust:  nt.ValidatorTrust,
			Emission:        nt.ServerEmission.Add(nt.ValidatorEmission),
		}
		if err := k.SetNeuronInfo(ctx, netuid, nt.Uid, info); err != nil {
			return err
		}
	}

	for _, mech := range terms.Mechanisms {
		index := types.StorageIndex(netuid, mech.SubId)
		for uid, permitted := range mech.NewPermits {
			if !permitted {
				continue
			}
			key := collections.Join(index, Uid(uid))
			var row types.SparseRow
			if uid < len(mech.Bonds) {
				row = mech.Bonds[uid]
			}
			if len(row) == 0 {
				if err := k.bonds.Remove(ctx, key); err != nil {
					return err
				}
				continue
			}
			if err := k.bonds.Set(ctx, key, row); err != nil {
				return err
			}
		}
		for _, uid := range mech.ClearBonds {
			if err := k.bonds.Remove(ctx, collections.Join(index, uid)); err != nil {
				return err
			}
		}
		for uid, incentive := range mech.Incentive {
			if err := k.mechanismIncentive.Set(ctx, collections.Join(index, Uid(uid)), incentive); err != nil {
				return err
			}
		}
	}
	return nil
}
