package math

import (
	errorsmod "cosmossdk.io/errors"
)

// SparseEntry is one (neighbor, value) pair of a sparse row.
type SparseEntry struct {
	Index uint16
	Value Dec
}

// SparseMatrix is a row-major adjacency list indexed by the dense neuron position.
// Entries within a row keep their insertion order.
type SparseMatrix [][]SparseEntry

// NewSparseMatrixFromCompact lifts storage rows into decimals. Values are read as
// fractions of u16::MAX. Entries pointing at or beyond columns are discarded.
func NewSparseMatrixFromCompact(rows [][]CompactEntry, columns int) SparseMatrix {
	m := make(SparseMatrix, len(rows))
	for i, row := range rows {
		for _, e := range row {
			if int(e.Index) >= columns {
				continue
			}
			m[i] = append(m[i], SparseEntry{Index: e.Index, Value: U16ToDec(e.Value)})
		}
	}
	return m
}

func (m SparseMatrix) filter(keep func(i int, e SparseEntry) bool) SparseMatrix {
	out := make(SparseMatrix, len(m))
	for i, row := range m {
		for _, e := range row {
			if keep(i, e) {
				out[i] = append(out[i], e)
			}
		}
	}
	return out
}

// MaskDiag drops every self reference.
func MaskDiag(m SparseMatrix) SparseMatrix {
	return m.filter(func(i int, e SparseEntry) bool {
		return int(e.Index) != i
	})
}

// MaskRows empties every row whose mask entry is true.
func MaskRows(mask []bool, m SparseMatrix) SparseMatrix {
	return m.filter(func(i int, _ SparseEntry) bool {
		return i >= len(mask) || !mask[i]
	})
}

// MaskOutdated drops entry (i, j) when row i was last updated at or before the
// registration of the neuron currently occupying column j.
func MaskOutdated(m SparseMatrix, lastUpdate, registeredAt []int64) SparseMatrix {
	return m.filter(func(i int, e SparseEntry) bool {
		j := int(e.Index)
		if i >= len(lastUpdate) || j >= len(registeredAt) {
			return false
		}
		return lastUpdate[i] > registeredAt[j]
	})
}

// RowNormalize scales every row to sum to one. Zero rows stay zero.
func RowNormalize(m SparseMatrix) (SparseMatrix, error) {
	out := make(SparseMatrix, len(m))
	for i, row := range m {
		sum := ZeroDec()
		var err error
		for _, e := range row {
			if sum, err = sum.Add(e.Value); err != nil {
				return nil, err
			}
		}
		out[i] = make([]SparseEntry, len(row))
		for k, e := range row {
			v, err := e.Value.SafeQuo(sum)
			if err != nil {
				return nil, errorsmod.Wrapf(err, "row normalize (%d, %d)", i, e.Index)
			}
			if sum.IsZero() {
				v = e.Value
			}
			out[i][k] = SparseEntry{Index: e.Index, Value: v}
		}
	}
	return out, nil
}

// ColSum returns the column sums over the given number of columns.
func ColSum(m SparseMatrix, columns int) ([]Dec, error) {
	sums := zeroVec(columns)
	var err error
	for _, row := range m {
		for _, e := range row {
			if int(e.Index) >= columns {
				continue
			}
			if sums[e.Index], err = sums[e.Index].Add(e.Value); err != nil {
				return nil, err
			}
		}
	}
	return sums, nil
}

// ColNormalize scales every column to sum to one. Zero columns stay zero.
func ColNormalize(m SparseMatrix, columns int) (SparseMatrix, error) {
	sums, err := ColSum(m, columns)
	if err != nil {
		return nil, err
	}
	out := make(SparseMatrix, len(m))
	for i, row := range m {
		for _, e := range row {
			if int(e.Index) >= columns {
				continue
			}
			v, err := e.Value.SafeQuo(sums[e.Index])
			if err != nil {
				return nil, errorsmod.Wrapf(err, "col normalize (%d, %d)", i, e.Index)
			}
			if sums[e.Index].IsZero() {
				v = e.Value
			}
			out[i] = append(out[i], SparseEntry{Index: e.Index, Value: v})
		}
	}
	return out, nil
}

// MatMul returns out[j] = Σ_i m[i][j]·vec[i].
func MatMul(m SparseMatrix, vec []Dec, columns int) ([]Dec, error) {
	out := zeroVec(columns)
	for i, row := range m {
		if i >= len(vec) {
			break
		}
		for _, e := range row {
			if int(e.Index) >= columns {
				continue
			}
			p, err := e.Value.Mul(vec[i])
			if err != nil {
				return nil, err
			}
			if out[e.Index], err = out[e.Index].Add(p); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

// MatMulTranspose returns out[i] = Σ_j m[i][j]·vec[j].
func MatMulTranspose(m SparseMatrix, vec []Dec) ([]Dec, error) {
	out := zeroVec(len(m))
	for i, row := range m {
		for _, e := range row {
			if int(e.Index) >= len(vec) {
				continue
			}
			p, err := e.Value.Mul(vec[e.Index])
			if err != nil {
				return nil, err
			}
			if out[i], err = out[i].Add(p); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

func RowSum(m SparseMatrix) ([]Dec, error) {
	out := zeroVec(len(m))
	var err error
	for i, row := range m {
		for _, e := range row {
			if out[i], err = out[i].Add(e.Value); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

// RowHadamard multiplies every entry of row i by vec[i].
func RowHadamard(m SparseMatrix, vec []Dec) (SparseMatrix, error) {
	out := make(SparseMatrix, len(m))
	for i, row := range m {
		if i >= len(vec) {
			break
		}
		for _, e := range row {
			v, err := e.Value.Mul(vec[i])
			if err != nil {
				return nil, err
			}
			out[i] = append(out[i], SparseEntry{Index: e.Index, Value: v})
		}
	}
	return out, nil
}

// ColClip caps every entry at its column threshold. Entries of a column with a zero
// threshold that exceed it are removed.
func ColClip(m SparseMatrix, threshold []Dec) SparseMatrix {
	out := make(SparseMatrix, len(m))
	for i, row := range m {
		for _, e := range row {
			if int(e.Index) >= len(threshold) {
				continue
			}
			t := threshold[e.Index]
			if t.Lt(e.Value) {
				if t.IsPositive() {
					out[i] = append(out[i], SparseEntry{Index: e.Index, Value: t})
				}
				continue
			}
			out[i] = append(out[i], e)
		}
	}
	return out
}

// MatEma blends delta into prev entry-wise with CalcEma. Zero results are dropped.
func MatEma(delta, prev SparseMatrix, alpha Dec, columns int) (SparseMatrix, error) {
	return matEma(delta, prev, func(int) Dec { return alpha }, columns)
}

// MatEmaColumnAlpha is MatEma with one rate per column. Columns without a rate
// take zero, which keeps the previous value.
func MatEmaColumnAlpha(delta, prev SparseMatrix, alpha []Dec, columns int) (SparseMatrix, error) {
	return matEma(delta, prev, func(j int) Dec {
		if j < len(alpha) {
			return alpha[j]
		}
		return ZeroDec()
	}, columns)
}

func matEma(delta, prev SparseMatrix, alphaOf func(column int) Dec, columns int) (SparseMatrix, error) {
	rows := len(delta)
	if len(prev) > rows {
		rows = len(prev)
	}
	out := make(SparseMatrix, rows)
	for i := 0; i < rows; i++ {
		current := zeroVec(columns)
		previous := zeroVec(columns)
		touched := make([]bool, columns)
		if i < len(delta) {
			for _, e := range delta[i] {
				if int(e.Index) < columns {
					current[e.Index] = e.Value
					touched[e.Index] = true
				}
			}
		}
		if i < len(prev) {
			for _, e := range prev[i] {
				if int(e.Index) < columns {
					previous[e.Index] = e.Value
					touched[e.Index] = true
				}
			}
		}
		for j := 0; j < columns; j++ {
			if !touched[j] {
				continue
			}
			v, err := CalcEma(alphaOf(j), current[j], previous[j], false)
			if err != nil {
				return nil, errorsmod.Wrapf(err, "ema (%d, %d)", i, j)
			}
			if v.IsPositive() {
				out[i] = append(out[i], SparseEntry{Index: uint16(j), Value: v})
			}
		}
	}
	return out, nil
}

// ColMaxUpscaleToU16 rescales every column so its largest entry maps to u16::MAX.
func ColMaxUpscaleToU16(m SparseMatrix, columns int) ([][]CompactEntry, error) {
	maxes := zeroVec(columns)
	for _, row := range m {
		for _, e := range row {
			if int(e.Index) < columns && e.Value.Gt(maxes[e.Index]) {
				maxes[e.Index] = e.Value
			}
		}
	}
	out := make([][]CompactEntry, len(m))
	for i, row := range m {
		for _, e := range row {
			if int(e.Index) >= columns || maxes[e.Index].IsZero() {
				continue
			}
			frac, err := e.Value.Quo(maxes[e.Index])
			if err != nil {
				return nil, err
			}
			v, err := FixedProportionToU16(frac)
			if err != nil {
				return nil, err
			}
			out[i] = append(out[i], CompactEntry{Index: e.Index, Value: v})
		}
	}
	return out, nil
}

// WeightedMedianCol computes, per column, the stake-weighted median of the scores
// submitted by rows with positive stake. Missing entries count as zero scores.
// majority is the fraction of stake that must sit at or above the median.
func WeightedMedianCol(stake []Dec, m SparseMatrix, columns int, majority Dec) ([]Dec, error) {
	useStake := make([]Dec, 0, len(stake))
	rows := make([]int, 0, len(stake))
	for i, s := range stake {
		if s.IsPositive() {
			useStake = append(useStake, s)
			rows = append(rows, i)
		}
	}
	useStake, err := Normalize(useStake)
	if err != nil {
		return nil, err
	}
	stakeSum, err := SumDecSlice(useStake)
	if err != nil {
		return nil, err
	}
	minority, err := stakeSum.Sub(majority)
	if err != nil {
		return nil, err
	}

	scores := make([][]Dec, columns)
	for c := range scores {
		scores[c] = zeroVec(len(useStake))
	}
	for k, r := range rows {
		if r >= len(m) {
			continue
		}
		for _, e := range m[r] {
			if int(e.Index) < columns {
				scores[e.Index][k] = e.Value
			}
		}
	}

	idx := make([]int, len(useStake))
	for k := range idx {
		idx[k] = k
	}
	median := zeroVec(columns)
	for c := 0; c < columns; c++ {
		if median[c], err = weightedMedian(useStake, scores[c], idx, minority, ZeroDec(), stakeSum); err != nil {
			return nil, errorsmod.Wrapf(err, "weighted median column %d", c)
		}
	}
	return median, nil
}

// weightedMedian partitions around the middle element's score and recurses into the
// side that contains the minority stake boundary.
func weightedMedian(stake, score []Dec, partition []int, minority, lo, hi Dec) (Dec, error) {
	n := len(partition)
	if n == 0 {
		return ZeroDec(), nil
	}
	if n == 1 {
		return score[partition[0]], nil
	}
	pivot := score[partition[n/2]]
	loStake, hiStake := ZeroDec(), ZeroDec()
	var lower, upper []int
	var err error
	for _, idx := range partition {
		switch score[idx].Cmp(pivot) {
		case EqualTo:
			continue
		case LessThan:
			if loStake, err = loStake.Add(stake[idx]); err != nil {
				return Dec{}, err
			}
			lower = append(lower, idx)
		default:
			if hiStake, err = hiStake.Add(stake[idx]); err != nil {
				return Dec{}, err
			}
			upper = append(upper, idx)
		}
	}
	loBound, err := lo.Add(loStake)
	if err != nil {
		return Dec{}, err
	}
	hiBound, err := hi.Sub(hiStake)
	if err != nil {
		return Dec{}, err
	}
	switch {
	case loBound.Lte(minority) && minority.Lt(hiBound):
		return pivot, nil
	case minority.Lt(loBound) && len(lower) > 0:
		return weightedMedian(stake, score, lower, minority, lo, loBound)
	case hiBound.Lte(minority) && len(upper) > 0:
		return weightedMedian(stake, score, upper, minority, hiBound, hi)
	}
	return pivot, nil
}

func zeroVec(n int) []Dec {
	out := make([]Dec, n)
	for i := range out {
		out[i] = ZeroDec()
	}
	return out
}
