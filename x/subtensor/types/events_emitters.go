package types

import (
	"strconv"
	"strings"

	cosmosMath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/opentensor/subtensor-sub008/x/subtensor/metrics"
)

func netuidAttr(netuid uint16) sdk.Attribute {
	return sdk.NewAttribute(AttributeKeyNetuid, strconv.FormatUint(uint64(netuid), 10))
}

func EmitEpochCompletedEvent(ctx sdk.Context, netuid uint16, block BlockHeight, emission cosmosMath.Int, neurons int) {
	metrics.IncrProducerEventCount(metrics.EPOCH_COMPLETED_EVENT)
	ctx.EventManager().EmitEvent(sdk.NewEvent(
		EventTypeEpochCompleted,
		netuidAttr(netuid),
		sdk.NewAttribute(AttributeKeyBlock, strconv.FormatInt(block, 10)),
		sdk.NewAttribute(AttributeKeyEmission, emission.String()),
		sdk.NewAttribute(AttributeKeyNeurons, strconv.Itoa(neurons)),
	))
}

func EmitHotkeyEmissionAccumulatedEvent(ctx sdk.Context, hotkey AccountKey, netuid uint16, mining, validator cosmosMath.Int) {
	metrics.IncrProducerEventCount(metrics.EMISSION_ACCUMULATE_EVENT)
	ctx.EventManager().EmitEvent(sdk.NewEvent(
		EventTypeHotkeyEmissionAccumulated,
		sdk.NewAttribute(AttributeKeyHotkey, hotkey.String()),
		netuidAttr(netuid),
		sdk.NewAttribute(AttributeKeyMining, mining.String()),
		sdk.NewAttribute(AttributeKeyValidator, validator.String()),
	))
}

func EmitHotkeyDrainedEvent(ctx sdk.Context, hotkey AccountKey, netuid uint16, amount cosmosMath.Int) {
	metrics.IncrProducerEventCount(metrics.HOTKEY_DRAINED_EVENT)
	ctx.EventManager().EmitEvent(sdk.NewEvent(
		EventTypeHotkeyDrained,
		sdk.NewAttribute(AttributeKeyHotkey, hotkey.String()),
		netuidAttr(netuid),
		sdk.NewAttribute(AttributeKeyAmount, amount.String()),
	))
}

func EmitChildrenSetEvent(ctx sdk.Context, hotkey AccountKey, netuid uint16, children ChildList) {
	metrics.IncrProducerEventCount(metrics.CHILDREN_SET_EVENT)
	ctx.EventManager().EmitEvent(sdk.NewEvent(
		EventTypeChildrenSet,
		sdk.NewAttribute(AttributeKeyHotkey, hotkey.String()),
		netuidAttr(netuid),
		sdk.NewAttribute(AttributeKeyChildren, ChildListValue.Stringify(children)),
	))
}

func EmitChildrenScheduledEvent(ctx sdk.Context, hotkey AccountKey, netuid uint16, applyAt BlockHeight) {
	metrics.IncrProducerEventCount(metrics.CHILDREN_SCHEDULED_EVENT)
	ctx.EventManager().EmitEvent(sdk.NewEvent(
		EventTypeChildrenScheduled,
		sdk.NewAttribute(AttributeKeyHotkey, hotkey.String()),
		netuidAttr(netuid),
		sdk.NewAttribute(AttributeKeyApplyAt, strconv.FormatInt(applyAt, 10)),
	))
}

func EmitMechanismCountSetEvent(ctx sdk.Context, netuid uint16, count uint8) {
	metrics.IncrProducerEventCount(metrics.MECHANISM_COUNT_EVENT)
	ctx.EventManager().EmitEvent(sdk.NewEvent(
		EventTypeMechanismCountSet,
		netuidAttr(netuid),
		sdk.NewAttribute(AttributeKeyCount, strconv.FormatUint(uint64(count), 10)),
	))
}

func EmitEmissionSplitSetEvent(ctx sdk.Context, netuid uint16, split []uint16) {
	metrics.IncrProducerEventCount(metrics.EMISSION_SPLIT_EVENT)
	parts := make([]string, len(split))
	for i, s := range split {
		parts[i] = strconv.FormatUint(uint64(s), 10)
	}
	ctx.EventManager().EmitEvent(sdk.NewEvent(
		EventTypeEmissionSplitSet,
		netuidAttr(netuid),
		sdk.NewAttribute(AttributeKeySplit, strings.Join(parts, ",")),
	))
}

func EmitSweepCompletedEvent(ctx sdk.Context, job SweepJob) {
	metrics.IncrProducerEventCount(metrics.SWEEP_COMPLETED_EVENT)
	ctx.EventManager().EmitEvent(sdk.NewEvent(
		EventTypeSweepCompleted,
		sdk.NewAttribute(AttributeKeySweepKind, job.Kind.String()),
		netuidAttr(job.Netuid),
		sdk.NewAttribute(AttributeKeyStoreIndex, strconv.FormatUint(uint64(job.Index), 10)),
	))
}
