package types

const (
	EventTypeEpochCompleted            = "epoch_completed"
	EventTypeHotkeyEmissionAccumulated = "hotkey_emission_accumulated"
	EventTypeHotkeyDrained             = "hotkey_drained"
	EventTypeChildrenSet               = "children_set"
	EventTypeChildrenScheduled         = "children_scheduled"
	EventTypeMechanismCountSet         = "mechanism_count_set"
	EventTypeEmissionSplitSet          = "emission_split_set"
	EventTypeSweepCompleted            = "sweep_completed"

	AttributeKeyNetuid     = "netuid"
	AttributeKeyBlock      = "block"
	AttributeKeyEmission   = "emission"
	AttributeKeyNeurons    = "neurons"
	AttributeKeyHotkey     = "hotkey"
	AttributeKeyAmount     = "amount"
	AttributeKeyChildren   = "children"
	AttributeKeyApplyAt    = "apply_at"
	AttributeKeyCount      = "count"
	AttributeKeySplit      = "split"
	AttributeKeySweepKind  = "kind"
	AttributeKeyStoreIndex = "index"
	AttributeKeyMining     = "mining_emission"
	AttributeKeyValidator  = "validator_emission"
)
