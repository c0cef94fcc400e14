package epoch

import (
	"math"

	errorsmod "cosmossdk.io/errors"
	cosmosMath "cosmossdk.io/math"
	subtensorMath "github.com/opentensor/subtensor-sub008/math"
)

// Splitter runs one Engine per sub-subnet over a share of the emission and
// merges the results per uid.
type Splitter struct {
	engines []*Engine
	split   []uint16
}

func NewSplitter(inputs []Input, split []uint16) *Splitter {
	engines := make([]*Engine, len(inputs))
	for i, in := range inputs {
		engines[i] = NewEngine(in)
	}
	return &Splitter{engines: engines, split: split}
}

func (s *Splitter) SetStake(stake []subtensorMath.Dec) {
	for _, e := range s.engines {
		e.SetStake(stake)
	}
}

// SplitEmission divides total across count sub-subnets, evenly or by u16 shares of
// u16::MAX. Truncation remainders go to sub-subnet 0.
func SplitEmission(total cosmosMath.Int, count int, split []uint16) []cosmosMath.Int {
	if count <= 0 {
		return nil
	}
	parts := make([]cosmosMath.Int, count)
	assigned := cosmosMath.ZeroInt()
	for k := 0; k < count; k++ {
		if len(split) == count {
			parts[k] = total.MulRaw(int64(split[k])).QuoRaw(math.MaxUint16)
		} else {
			parts[k] = total.QuoRaw(int64(count))
		}
		assigned = assigned.Add(parts[k])
	}
	parts[0] = parts[0].Add(total.Sub(assigned))
	return parts
}

func (s *Splitter) Run(emission cosmosMath.Int) (Terms, error) {
	if len(s.engines) == 0 {
		return Terms{}, nil
	}
	parts := SplitEmission(emission, len(s.engines), s.split)
	total, err := subtensorMath.NewDecFromSdkInt(emission)
	if err != nil {
		return Terms{}, err
	}

	var merged Terms
	for k, e := range s.engines {
		res, err := e.Run(parts[k])
		if err != nil {
			return Terms{}, errorsmod.Wrapf(err, "sub-subnet %d", e.in.SubId)
		}
		weight, err := shareWeight(parts[k], total, k)
		if err != nil {
			return Terms{}, err
		}
		if merged.Neurons == nil {
			merged.Neurons = make([]NeuronTerms, len(res.Neurons))
			for i, nt := range res.Neurons {
				merged.Neurons[i] = NeuronTerms{
					Uid:               nt.Uid,
					Hotkey:            nt.Hotkey,
					ServerEmission:    cosmosMath.ZeroInt(),
					ValidatorEmission: cosmosMath.ZeroInt(),
				}
			}
		}
		if err := mergeNeurons(merged.Neurons, res.Neurons, weight); err != nil {
			return Terms{}, errorsmod.Wrapf(err, "merge sub-subnet %d", e.in.SubId)
		}
		merged.Mechanisms = append(merged.Mechanisms, res.Mechanisms...)
	}
	return merged, nil
}

// shareWeight is part/total, or 1 for sub-subnet 0 when nothing is emitted.
func shareWeight(part cosmosMath.Int, total subtensorMath.Dec, k int) (subtensorMath.Dec, error) {
	if total.IsZero() {
		if k == 0 {
			return subtensorMath.OneDec(), nil
		}
		return subtensorMath.ZeroDec(), nil
	}
	p, err := subtensorMath.NewDecFromSdkInt(part)
	if err != nil {
		return subtensorMath.Dec{}, err
	}
	return p.Quo(total)
}

func mergeNeurons(acc, add []NeuronTerms, weight subtensorMath.Dec) error {
	if len(acc) != len(add) {
		return errorsmod.Wrapf(subtensorMath.ErrNotMatchingLength, "%d != %d neurons", len(acc), len(add))
	}
	var err error
	for i := range acc {
		a, b := &acc[i], add[i]
		a.Active = a.Active || b.Active
		a.ValidatorPermit = a.ValidatorPermit || b.ValidatorPermit
		a.ServerEmission = a.ServerEmission.Add(b.ServerEmission)
		a.ValidatorEmission = a.ValidatorEmission.Add(b.ValidatorEmission)
		for _, f := range []struct {
			dst *uint16
			src uint16
		}{
			{&a.Rank, b.Rank},
			{&a.Trust, b.Trust},
			{&a.Consensus, b.Consensus},
			{&a.Incentive, b.Incentive},
			{&a.Dividends, b.Dividends},
			{&a.PruningScore, b.PruningScore},
			{&a.ValidatorTrust, b.ValidatorTrust},
		} {
			if *f.dst, err = subtensorMath.WeightedAccumulateU16(*f.dst, f.src, weight); err != nil {
				return err
			}
		}
	}
	return nil
}
