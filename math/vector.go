package math

import (
	"sort"

	errorsmod "cosmossdk.io/errors"
)

// Normalize scales vec to sum to one. An all-zero vector is returned unchanged.
func Normalize(vec []Dec) ([]Dec, error) {
	sum, err := SumDecSlice(vec)
	if err != nil {
		return nil, err
	}
	return NormalizeWithSum(vec, sum)
}

// NormalizeWithSum divides every element by sum, or returns a copy when sum is zero.
func NormalizeWithSum(vec []Dec, sum Dec) ([]Dec, error) {
	out := make([]Dec, len(vec))
	if sum.IsZero() {
		copy(out, vec)
		return out, nil
	}
	for i, v := range vec {
		q, err := v.Quo(sum)
		if err != nil {
			return nil, errorsmod.Wrapf(err, "normalize index %d", i)
		}
		out[i] = q
	}
	return out, nil
}

func IsZeroVec(vec []Dec) bool {
	for _, v := range vec {
		if !v.IsZero() {
			return false
		}
	}
	return true
}

// VecDiv is element-wise a/b with zero where b is zero.
func VecDiv(a, b []Dec) ([]Dec, error) {
	if len(a) != len(b) {
		return nil, errorsmod.Wrapf(ErrNotMatchingLength, "%d != %d", len(a), len(b))
	}
	out := make([]Dec, len(a))
	for i := range a {
		q, err := a[i].SafeQuo(b[i])
		if err != nil {
			return nil, err
		}
		out[i] = q
	}
	return out, nil
}

// VecMul is the element-wise product.
func VecMul(a, b []Dec) ([]Dec, error) {
	if len(a) != len(b) {
		return nil, errorsmod.Wrapf(ErrNotMatchingLength, "%d != %d", len(a), len(b))
	}
	out := make([]Dec, len(a))
	for i := range a {
		p, err := a[i].Mul(b[i])
		if err != nil {
			return nil, err
		}
		out[i] = p
	}
	return out, nil
}

func VecAdd(a, b []Dec) ([]Dec, error) {
	if len(a) != len(b) {
		return nil, errorsmod.Wrapf(ErrNotMatchingLength, "%d != %d", len(a), len(b))
	}
	out := make([]Dec, len(a))
	for i := range a {
		s, err := a[i].Add(b[i])
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

// VecMask zeroes every element whose mask entry is true.
func VecMask(vec []Dec, mask []bool) []Dec {
	out := make([]Dec, len(vec))
	for i, v := range vec {
		if i < len(mask) && mask[i] {
			out[i] = ZeroDec()
			continue
		}
		out[i] = v
	}
	return out
}

// IsTopK marks the k largest elements. Ties are broken in favour of the lower index.
// When the vector has no more than k elements every entry is marked.
func IsTopK(vec []Dec, k int) []bool {
	n := len(vec)
	result := make([]bool, n)
	if n <= k {
		for i := range result {
			result[i] = true
		}
		return result
	}
	idxs := make([]int, n)
	for i := range idxs {
		idxs[i] = i
	}
	sort.SliceStable(idxs, func(a, b int) bool {
		return vec[idxs[a]].Gt(vec[idxs[b]])
	})
	for _, idx := range idxs[:k] {
		result[idx] = true
	}
	return result
}
