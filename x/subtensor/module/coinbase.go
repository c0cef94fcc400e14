package module

import (
	errorsmod "cosmossdk.io/errors"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/opentensor/subtensor-sub008/x/subtensor/epoch"
	"github.com/opentensor/subtensor-sub008/x/subtensor/keeper"
	"github.com/opentensor/subtensor-sub008/x/subtensor/metrics"
	"github.com/opentensor/subtensor-sub008/x/subtensor/types"
)

// RunCoinbase advances the emission cascade by one block. Each stage runs in
// its own cache context and is only written back on success, so a failing
// stage is skipped without aborting the block.
func RunCoinbase(ctx sdk.Context, k *keeper.Keeper, block int64) error {
	params, err := k.GetParams(ctx)
	if err != nil {
		return err
	}
	netuids, err := k.GetSubnets(ctx)
	if err != nil {
		return err
	}

	for _, netuid := range netuids {
		creditSubnetEmission(ctx, k, netuid)
	}

	for _, netuid := range netuids {
		hp, err := k.GetSubnetHyperparams(ctx, netuid)
		if err != nil {
			k.Logger(ctx).Error("failed to read hyperparams", "netuid", netuid, "error", err)
			continue
		}
		if hp.Tempo == 0 {
			k.Logger(ctx).Warn("tempo is zero, epoch never runs", "netuid", netuid)
			continue
		}
		if !epoch.ShouldRunEpoch(netuid, hp.Tempo, uint64(block)) {
			continue
		}
		err = runCached(ctx, func(cacheCtx sdk.Context) error {
			_, err := k.RunEpoch(cacheCtx, netuid, block)
			return err
		})
		if err != nil {
			k.Logger(ctx).Error("epoch skipped", "netuid", netuid, "block", block, "error", err)
			metrics.IncrEpochSkipped(netuid, "epoch")
		}
	}

	err = runCached(ctx, func(cacheCtx sdk.Context) error {
		return k.ApplyPendingChildren(cacheCtx, block)
	})
	if err != nil {
		k.Logger(ctx).Error("failed to apply pending children", "block", block, "error", err)
	}

	err = runCached(ctx, func(cacheCtx sdk.Context) error {
		drained, err := k.DrainDueHotkeys(cacheCtx, block)
		if err != nil {
			return err
		}
		if err := k.AddTotalIssuance(cacheCtx, drained); err != nil {
			return err
		}
		if amount, err := drained.ToLegacyDec().Float64(); err == nil {
			metrics.SetDrainedAmount(float32(amount))
		}
		return nil
	})
	if err != nil {
		k.Logger(ctx).Error("failed to drain hotkeys", "block", block, "error", err)
	}

	err = runCached(ctx, func(cacheCtx sdk.Context) error {
		_, err := k.ProcessSweeps(cacheCtx, params.SweepBatchSize)
		return err
	})
	if err != nil {
		k.Logger(ctx).Error("failed to advance sweeps", "block", block, "error", err)
	}
	return nil
}

// creditSubnetEmission adds the block quantum of netuid to its pending emission.
// A failing source leaves the pending emission as it was.
func creditSubnetEmission(ctx sdk.Context, k *keeper.Keeper, netuid uint16) {
	quantum, err := k.GetEmissionSource().GetSubnetBlockEmission(ctx, netuid)
	if err != nil {
		k.Logger(ctx).Error("failed to read block emission", "netuid", netuid, "error", err)
		metrics.IncrEpochSkipped(netuid, "emission_source")
		return
	}
	if quantum.IsNil() || !quantum.IsPositive() {
		return
	}
	if err := k.AddPendingEmission(ctx, netuid, quantum); err != nil {
		k.Logger(ctx).Error("failed to credit block emission", "netuid", netuid, "error", err)
	}
}

func runCached(ctx sdk.Context, fn func(sdk.Context) error) (err error) {
	cacheCtx, write := ctx.CacheContext()
	defer func() {
		if r := recover(); r != nil {
			err = errorsmod.Wrapf(types.ErrCoinbaseStagePanicked, "%v", r)
		}
	}()
	if err = fn(cacheCtx); err != nil {
		return err
	}
	write()
	return nil
}
