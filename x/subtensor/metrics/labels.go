package metrics

const (
	EPOCH_COMPLETED_EVENT     = "epoch_completed_event"
	EMISSION_ACCUMULATE_EVENT = "emission_accumulate_event"
	HOTKEY_DRAINED_EVENT      = "hotkey_drained_event"
	CHILDREN_SET_EVENT        = "children_set_event"
	CHILDREN_SCHEDULED_EVENT  = "children_scheduled_event"
	MECHANISM_COUNT_EVENT     = "mechanism_count_event"
	EMISSION_SPLIT_EVENT      = "emission_split_event"
	SWEEP_COMPLETED_EVENT     = "sweep_completed_event"
)
