package types

import (
	"cosmossdk.io/errors"
	cosmosMath "cosmossdk.io/math"
)

type GenesisSubnet struct {
	Netuid      uint16            `json:"netuid"`
	Hyperparams SubnetHyperparams `json:"hyperparams"`
}

// GenesisNeuron registers Hotkey, owned by Coldkey, on Netuid in uid order.
type GenesisNeuron struct {
	Netuid  uint16     `json:"netuid"`
	Hotkey  AccountKey `json:"hotkey"`
	Coldkey AccountKey `json:"coldkey"`
}

type GenesisStake struct {
	Hotkey  AccountKey     `json:"hotkey"`
	Coldkey AccountKey     `json:"coldkey"`
	Netuid  uint16         `json:"netuid"`
	Amount  cosmosMath.Int `json:"amount"`
}

type GenesisChildren struct {
	Hotkey   AccountKey `json:"hotkey"`
	Netuid   uint16     `json:"netuid"`
	Children ChildList  `json:"children"`
}

type GenesisDelegateTake struct {
	Hotkey AccountKey `json:"hotkey"`
	Take   uint16     `json:"take"`
}

// GenesisWeights is a weights row of Hotkey on sub-subnet SubId of Netuid.
type GenesisWeights struct {
	Netuid uint16     `json:"netuid"`
	SubId  uint8      `json:"sub_id"`
	Hotkey AccountKey `json:"hotkey"`
	Uids   []uint16   `json:"uids"`
	Values []uint16   `json:"values"`
}

type GenesisState struct {
	Params        Params                `json:"params"`
	TotalIssuance cosmosMath.Int        `json:"total_issuance"`
	Subnets       []GenesisSubnet       `json:"subnets"`
	Neurons       []GenesisNeuron       `json:"neurons"`
	Stakes        []GenesisStake        `json:"stakes"`
	Children      []GenesisChildren     `json:"children"`
	DelegateTakes []GenesisDelegateTake `json:"delegate_takes"`
	Weights       []GenesisWeights      `json:"weights"`
}

// DefaultGenesis creates a new genesis state with default values.
func DefaultGenesis() *GenesisState {
	return &GenesisState{
		Params:        DefaultParams(),
		TotalIssuance: cosmosMath.ZeroInt(),
	}
}

// Validate performs basic genesis state validation. Checks that need store
// state, such as cycles and ownership, are left to InitGenesis.
func (gs *GenesisState) Validate() error {
	if err := gs.Params.Validate(); err != nil {
		return err
	}
	if gs.TotalIssuance.IsNil() || gs.TotalIssuance.IsNegative() {
		return errors.Wrap(ErrInvalidGenesis, "total issuance must be non-negative")
	}

	subnets := make(map[uint16]struct{}, len(gs.Subnets))
	for _, s := range gs.Subnets {
		if _, ok := subnets[s.Netuid]; ok {
			return errors.Wrapf(ErrInvalidGenesis, "duplicate subnet %d", s.Netuid)
		}
		if s.Netuid >= GlobalNetuidStride {
			return errors.Wrapf(ErrInvalidGenesis, "netuid %d out of range", s.Netuid)
		}
		if err := s.Hyperparams.Validate(); err != nil {
			return errors.Wrapf(err, "subnet %d", s.Netuid)
		}
		subnets[s.Netuid] = struct{}{}
	}
	requireSubnet := func(netuid uint16) error {
		if _, ok := subnets[netuid]; !ok {
			return errors.Wrapf(ErrSubnetNotExists, "netuid %d", netuid)
		}
		return nil
	}

	for _, n := range gs.Neurons {
		if err := requireSubnet(n.Netuid); err != nil {
			return err
		}
	}
	for _, st := range gs.Stakes {
		if err := requireSubnet(st.Netuid); err != nil {
			return err
		}
		if st.Amount.IsNil() || st.Amount.IsNegative() {
			return errors.Wrapf(ErrInvalidGenesis, "negative stake for %s", st.Hotkey)
		}
	}
	for _, c := range gs.Children {
		if err := requireSubnet(c.Netuid); err != nil {
			return err
		}
		if err := ValidateChildren(c.Hotkey, c.Children, gs.Params.MaxChildren); err != nil {
			return err
		}
	}
	for _, d := range gs.DelegateTakes {
		if d.Take > gs.Params.MaxDelegateTake {
			return errors.Wrapf(ErrDelegateTakeTooHigh, "%s: %d", d.Hotkey, d.Take)
		}
	}
	for _, w := range gs.Weights {
		if err := requireSubnet(w.Netuid); err != nil {
			return err
		}
		if len(w.Uids) != len(w.Values) {
			return errors.Wrapf(ErrInvalidWeights, "%d uids, %d values", len(w.Uids), len(w.Values))
		}
	}
	return nil
}
