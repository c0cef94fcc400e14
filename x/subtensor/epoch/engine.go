package epoch

import (
	errorsmod "cosmossdk.io/errors"
	cosmosMath "cosmossdk.io/math"
	subtensorMath "github.com/opentensor/subtensor-sub008/math"
	"github.com/opentensor/subtensor-sub008/x/subtensor/types"
)

var bondsScale = subtensorMath.NewDecFromUint64(types.BondsMovingAverageScale)

// Engine runs Yuma consensus over one sub-subnet.
type Engine struct {
	in    Input
	stake []subtensorMath.Dec
}

func NewEngine(in Input) *Engine {
	return &Engine{in: in}
}

// SetStake sets the raw per-uid stake. Missing entries count as zero.
func (e *Engine) SetStake(stake []subtensorMath.Dec) {
	n := e.in.n()
	e.stake = make([]subtensorMath.Dec, n)
	for i := 0; i < n; i++ {
		if i < len(stake) && stake[i].IsPositive() {
			e.stake[i] = stake[i]
		} else {
			e.stake[i] = subtensorMath.ZeroDec()
		}
	}
}

func (e *Engine) Run(emission cosmosMath.Int) (Terms, error) {
	in := e.in
	n := in.n()
	if n == 0 {
		return Terms{Mechanisms: []MechanismOutput{{SubId: in.SubId}}}, nil
	}
	if len(in.LastUpdate) != n || len(in.RegisteredAt) != n || len(in.ValidatorPermit) != n {
		return Terms{}, errorsmod.Wrapf(subtensorMath.ErrNotMatchingLength, "epoch input for %d neurons", n)
	}
	if e.stake == nil {
		e.SetStake(nil)
	}

	// Active mask.
	inactive := make([]bool, n)
	for i := 0; i < n; i++ {
		inactive[i] = in.LastUpdate[i]+in.ActivityCutoff < in.Block
	}
	// Rows of validators without a permit take no part in consensus.
	forbid := make([]bool, n)
	for i := 0; i < n; i++ {
		forbid[i] = !in.ValidatorPermit[i]
	}

	stake, err := subtensorMath.Normalize(e.stake)
	if err != nil {
		return Terms{}, errorsmod.Wrap(err, "normalize stake")
	}
	activeStake, err := subtensorMath.Normalize(subtensorMath.VecMask(stake, inactive))
	if err != nil {
		return Terms{}, errorsmod.Wrap(err, "normalize active stake")
	}

	weights := subtensorMath.NewSparseMatrixFromCompact(in.Weights, n)
	weights = subtensorMath.MaskRows(forbid, weights)
	weights = subtensorMath.MaskDiag(weights)
	weights = subtensorMath.MaskOutdated(weights, in.LastUpdate, in.RegisteredAt)
	if weights, err = subtensorMath.RowNormalize(weights); err != nil {
		return Terms{}, errorsmod.Wrap(err, "row normalize weights")
	}

	preranks, err := subtensorMath.MatMul(weights, activeStake, n)
	if err != nil {
		return Terms{}, errorsmod.Wrap(err, "preranks")
	}
	kappa := subtensorMath.U16ToDec(in.Kappa)
	consensus, err := subtensorMath.WeightedMedianCol(activeStake, weights, n, kappa)
	if err != nil {
		return Terms{}, errorsmod.Wrap(err, "consensus")
	}
	clipped := subtensorMath.ColClip(weights, consensus)

	ranks, err := subtensorMath.MatMul(clipped, activeStake, n)
	if err != nil {
		return Terms{}, errorsmod.Wrap(err, "ranks")
	}
	trust, err := subtensorMath.VecDiv(ranks, preranks)
	if err != nil {
		return Terms{}, errorsmod.Wrap(err, "trust")
	}

	incentive, err := e.incentive(ranks, trust, kappa)
	if err != nil {
		return Terms{}, err
	}

	emaBonds, dividends, err := e.bonds(clipped, activeStake, incentive, consensus, n)
	if err != nil {
		return Terms{}, err
	}

	serverEmission, validatorEmission, pruning, err := splitEmission(emission, incentive, dividends, activeStake, stake)
	if err != nil {
		return Terms{}, err
	}

	validatorTrust, err := subtensorMath.RowSum(clipped)
	if err != nil {
		return Terms{}, errorsmod.Wrap(err, "validator trust")
	}

	pruningScores, err := subtensorMath.MaxUpscaleToU16(pruning)
	if err != nil {
		return Terms{}, errorsmod.Wrap(err, "pruning scores")
	}
	newPermits := subtensorMath.IsTopK(pruning, int(in.MaxAllowedValidators))

	bondRows, err := subtensorMath.ColMaxUpscaleToU16(emaBonds, n)
	if err != nil {
		return Terms{}, errorsmod.Wrap(err, "upscale bonds")
	}

	out := MechanismOutput{
		SubId:      in.SubId,
		NewPermits: newPermits,
		Bonds:      make([]types.SparseRow, n),
		Incentive:  make([]uint16, n),
	}
	terms := Terms{Neurons: make([]NeuronTerms, n)}
	for i := 0; i < n; i++ {
		if newPermits[i] {
			out.Bonds[i] = bondRows[i]
		} else if in.ValidatorPermit[i] {
			out.ClearBonds = append(out.ClearBonds, uint16(i))
		}
		nt := NeuronTerms{
			Uid:               uint16(i),
			Hotkey:            in.Hotkeys[i],
			Active:            !inactive[i],
			ValidatorPermit:   newPermits[i],
			PruningScore:      pruningScores[i],
			ServerEmission:    serverEmission[i],
			ValidatorEmission: validatorEmission[i],
		}
		for _, f := range []struct {
			dst *uint16
			src subtensorMath.Dec
		}{
			{&nt.Rank, ranks[i]},
			{&nt.Trust, trust[i]},
			{&nt.Consensus, consensus[i]},
			{&nt.Incentive, incentive[i]},
			{&nt.Dividends, dividends[i]},
			{&nt.ValidatorTrust, validatorTrust[i]},
		} {
			if *f.dst, err = subtensorMath.FixedProportionToU16(f.src); err != nil {
				return Terms{}, errorsmod.Wrapf(err, "uid %d stats", i)
			}
		}
		out.Incentive[i] = nt.Incentive
		terms.Neurons[i] = nt
	}
	terms.Mechanisms = []MechanismOutput{out}
	return terms, nil
}

// incentive is normalize(ranks ⊙ sigmoid(trust)).
func (e *Engine) incentive(ranks, trust []subtensorMath.Dec, kappa subtensorMath.Dec) ([]subtensorMath.Dec, error) {
	rho := subtensorMath.NewDecFromUint64(uint64(e.in.Rho))
	curve := make([]subtensorMath.Dec, len(trust))
	for j, t := range trust {
		s, err := subtensorMath.SigmoidSafe(t, rho, kappa)
		if err != nil {
			return nil, errorsmod.Wrapf(err, "trust curve %d", j)
		}
		curve[j] = s
	}
	scaled, err := subtensorMath.VecMul(ranks, curve)
	if err != nil {
		return nil, errorsmod.Wrap(err, "incentive")
	}
	return subtensorMath.Normalize(scaled)
}

// bonds blends this epoch's stake-weighted weights into the stored bonds and
// derives dividends from the result. With liquid alpha each miner column blends
// at its own rate.
func (e *Engine) bonds(
	clipped subtensorMath.SparseMatrix,
	activeStake, incentive, consensus []subtensorMath.Dec,
	n int,
) (subtensorMath.SparseMatrix, []subtensorMath.Dec, error) {
	in := e.in
	prev := subtensorMath.NewSparseMatrixFromCompact(in.Bonds, n)
	prev = subtensorMath.MaskOutdated(prev, in.LastUpdate, in.RegisteredAt)
	prev, err := subtensorMath.ColNormalize(prev, n)
	if err != nil {
		return nil, nil, errorsmod.Wrap(err, "normalize bonds")
	}

	delta, err := subtensorMath.RowHadamard(clipped, activeStake)
	if err != nil {
		return nil, nil, errorsmod.Wrap(err, "bonds delta")
	}
	if delta, err = subtensorMath.ColNormalize(delta, n); err != nil {
		return nil, nil, errorsmod.Wrap(err, "normalize bonds delta")
	}

	ema, err := e.emaBonds(delta, prev, consensus, n)
	if err != nil {
		return nil, nil, errorsmod.Wrap(err, "bonds ema")
	}
	if ema, err = subtensorMath.ColNormalize(ema, n); err != nil {
		return nil, nil, errorsmod.Wrap(err, "normalize ema bonds")
	}

	dividends, err := subtensorMath.MatMulTranspose(ema, incentive)
	if err != nil {
		return nil, nil, errorsmod.Wrap(err, "dividends")
	}
	if dividends, err = subtensorMath.Normalize(dividends); err != nil {
		return nil, nil, errorsmod.Wrap(err, "normalize dividends")
	}
	return ema, dividends, nil
}

func (e *Engine) emaBonds(delta, prev subtensorMath.SparseMatrix, consensus []subtensorMath.Dec, n int) (subtensorMath.SparseMatrix, error) {
	in := e.in
	if in.LiquidAlphaEnabled {
		alpha, ok, err := liquidAlpha(consensus, subtensorMath.U16ToDec(in.AlphaLow), subtensorMath.U16ToDec(in.AlphaHigh))
		if err != nil {
			return nil, errorsmod.Wrap(err, "liquid alpha")
		}
		if ok {
			return subtensorMath.MatEmaColumnAlpha(delta, prev, alpha, n)
		}
	}
	keep, err := subtensorMath.NewDecFromUint64(in.BondsMovingAverage).Quo(bondsScale)
	if err != nil {
		return nil, err
	}
	alpha, err := subtensorMath.OneDec().Sub(keep)
	if err != nil {
		return nil, err
	}
	return subtensorMath.MatEma(delta, prev, alpha, n)
}

// splitEmission scales incentive and dividends, normalized by their joint sum, to the
// emission quantum. With nothing earned the quantum follows stake instead.
// The returned pruning signal is the normalized combined emission.
func splitEmission(
	emission cosmosMath.Int,
	incentive, dividends, activeStake, stake []subtensorMath.Dec,
) (server, validator []cosmosMath.Int, pruning []subtensorMath.Dec, err error) {
	combined, err := subtensorMath.VecAdd(incentive, dividends)
	if err != nil {
		return nil, nil, nil, err
	}
	sum, err := subtensorMath.SumDecSlice(combined)
	if err != nil {
		return nil, nil, nil, err
	}
	normServer, err := subtensorMath.NormalizeWithSum(incentive, sum)
	if err != nil {
		return nil, nil, nil, err
	}
	normValidator, err := subtensorMath.NormalizeWithSum(dividends, sum)
	if err != nil {
		return nil, nil, nil, err
	}
	if pruning, err = subtensorMath.Normalize(combined); err != nil {
		return nil, nil, nil, err
	}
	if sum.IsZero() {
		fallback := activeStake
		if subtensorMath.IsZeroVec(activeStake) {
			fallback = stake
		}
		normValidator = fallback
		pruning = fallback
	}

	quantum, err := subtensorMath.NewDecFromSdkInt(emission)
	if err != nil {
		return nil, nil, nil, err
	}
	if server, err = scaleToInt(normServer, quantum); err != nil {
		return nil, nil, nil, errorsmod.Wrap(err, "server emission")
	}
	if validator, err = scaleToInt(normValidator, quantum); err != nil {
		return nil, nil, nil, errorsmod.Wrap(err, "validator emission")
	}
	return server, validator, pruning, nil
}

func scaleToInt(vec []subtensorMath.Dec, quantum subtensorMath.Dec) ([]cosmosMath.Int, error) {
	out := make([]cosmosMath.Int, len(vec))
	for i, v := range vec {
		scaled, err := v.Mul(quantum)
		if err != nil {
			return nil, err
		}
		if out[i], err = scaled.SdkIntTrim(); err != nil {
			return nil, err
		}
		if out[i].IsNegative() {
			out[i] = cosmosMath.ZeroInt()
		}
	}
	return out, nil
}
