package metrics

import (
	"strconv"
	"time"

	"github.com/cosmos/cosmos-sdk/telemetry"
	metrics "github.com/hashicorp/go-metrics"
)

// Measures the time taken by one subnet epoch
// Metric Names:
//
//	subtensor_epoch_duration_milliseconds
//	subtensor_epoch_duration_milliseconds_count
//	subtensor_epoch_duration_milliseconds_sum
func MeasureEpochDuration(start time.Time, netuid uint16) {
	metrics.MeasureSinceWithLabels(
		[]string{"subtensor", "epoch", "duration", "milliseconds"},
		start.UTC(),
		[]metrics.Label{telemetry.NewLabel("netuid", strconv.FormatUint(uint64(netuid), 10))},
	)
}

// Counts subnet passes that were skipped and rolled back
// Metric Name:
//
//	subtensor_epoch_skipped_count
func IncrEpochSkipped(netuid uint16, reason string) {
	telemetry.IncrCounterWithLabels(
		[]string{"subtensor", "epoch", "skipped", "count"},
		1,
		[]metrics.Label{
			telemetry.NewLabel("netuid", strconv.FormatUint(uint64(netuid), 10)),
			telemetry.NewLabel("reason", reason),
		},
	)
}

// Amount drained from hotkey pending balances in one block
// Metric Name:
//
//	subtensor_drained_amount
func SetDrainedAmount(amount float32) {
	telemetry.SetGauge(
		amount,
		"subtensor", "drained", "amount",
	)
}

// Storage entries erased by the batched sweeps
// Metric Name:
//
//	subtensor_sweep_erased_count
func IncrSweepErased(kind string, n int) {
	telemetry.IncrCounterWithLabels(
		[]string{"subtensor", "sweep", "erased", "count"},
		float32(n),
		[]metrics.Label{telemetry.NewLabel("kind", kind)},
	)
}

// subtensor_sweep_pending_jobs
func SetPendingSweepJobs(n int) {
	metrics.SetGauge(
		[]string{"subtensor", "sweep", "pending", "jobs"},
		float32(n),
	)
}

// IncrProducerEventCount increments the counter for events produced.
// Metric Name:
//
//	subtensor_produce_count
func IncrProducerEventCount(msgType string) {
	telemetry.IncrCounterWithLabels(
		[]string{"subtensor", "produce", "count"},
		1,
		[]metrics.Label{telemetry.NewLabel("msg_type", msgType)},
	)
}
