package epoch

import (
	cosmosMath "cosmossdk.io/math"
	subtensorMath "github.com/opentensor/subtensor-sub008/math"
	"github.com/opentensor/subtensor-sub008/x/subtensor/types"
)

// Input is everything one sub-subnet epoch reads. Per-uid slices are indexed by uid
// and must all have len(Hotkeys) entries.
type Input struct {
	Netuid               uint16
	SubId                uint8
	Block                types.BlockHeight
	Kappa                uint16
	Rho                  uint16
	ActivityCutoff       types.BlockHeight
	BondsMovingAverage   uint64
	LiquidAlphaEnabled   bool
	AlphaLow             uint16
	AlphaHigh            uint16
	MaxAllowedValidators uint16

	Hotkeys         []types.AccountKey
	LastUpdate      []types.BlockHeight
	RegisteredAt    []types.BlockHeight
	ValidatorPermit []bool
	Weights         []types.SparseRow
	Bonds           []types.SparseRow
}

func (in Input) n() int {
	return len(in.Hotkeys)
}

// NeuronTerms is the per-uid outcome of an epoch.
type NeuronTerms struct {
	Uid               uint16
	Hotkey            types.AccountKey
	Active            bool
	ValidatorPermit   bool
	Rank              uint16
	Trust             uint16
	Consensus         uint16
	Incentive         uint16
	Dividends         uint16
	PruningScore      uint16
	ValidatorTrust    uint16
	ServerEmission    cosmosMath.Int
	ValidatorEmission cosmosMath.Int
}

// MechanismOutput is the state a single sub-subnet persists after its epoch.
type MechanismOutput struct {
	SubId uint8
	// Bonds[uid] is written when NewPermits[uid] holds
	NewPermits []bool
	Bonds      []types.SparseRow
	// uids that held a permit before the epoch and lost it
	ClearBonds []uint16
	Incentive  []uint16
}

type Terms struct {
	Neurons    []NeuronTerms
	Mechanisms []MechanismOutput
}

// TotalEmission sums server and validator emission over every neuron.
func (t Terms) TotalEmission() cosmosMath.Int {
	total := cosmosMath.ZeroInt()
	for _, n := range t.Neurons {
		total = total.Add(n.ServerEmission).Add(n.ValidatorEmission)
	}
	return total
}

// Runner runs the epoch of one subnet, whatever its sub-subnet count.
type Runner interface {
	SetStake(stake []subtensorMath.Dec)
	Run(emission cosmosMath.Int) (Terms, error)
}

// NewRunner returns an Engine for a single sub-subnet and a Splitter otherwise.
func NewRunner(inputs []Input, split []uint16) Runner {
	if len(inputs) == 1 {
		return NewEngine(inputs[0])
	}
	return NewSplitter(inputs, split)
}
