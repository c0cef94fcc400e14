// This code is forked from Regen Ledger.
// Their code is under the Apache2.0 License
// https://github.com/regen-network/regen-ledger/blob/3d818cf6e01af92eed25de5c17728a79070f56a3/types/math/dec.go

package math

import (
	"encoding/json"
	"math/big"
	"math/bits"
	"strconv"

	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
	"github.com/cockroachdb/apd/v3"
)

// Dec is a wrapper struct around apd.Decimal that does no mutation of apd.Decimal's when performing
// arithmetic, instead creating a new apd.Decimal for every operation ensuring usage is safe.
//
// Using apd.Decimal directly can be unsafe because apd operations mutate the underlying Decimal,
// but when copying the big.Int structure can be shared between Decimal instances causing corruption.
type Dec struct {
	dec   apd.Decimal
	isNaN bool
}

// constants for more convenient intent behind dec.Cmp values.
const (
	GreaterThan = 1
	LessThan    = -1
	EqualTo     = 0
)

const mathCodespace = "math"
const NaNStr = "NaN"

var (
	ErrInvalidDecString  = errorsmod.Register(mathCodespace, 1, "invalid decimal string")
	ErrNonIntegeral      = errorsmod.Register(mathCodespace, 3, "value is non-integral")
	ErrInfiniteString    = errorsmod.Register(mathCodespace, 4, "value is infinite")
	ErrOverflow          = errorsmod.Register(mathCodespace, 5, "overflow")
	ErrNaN               = errorsmod.Register(mathCodespace, 6, "Not a Number (NaN) is not permitted in this context")
	ErrNotMatchingLength = errorsmod.Register(mathCodespace, 7, "slices are not of the same length")
	ErrNegative          = errorsmod.Register(mathCodespace, 8, "value is negative")
)

// The number 0 encoded as Dec
func ZeroDec() Dec {
	return NewDecFromInt64(0)
}

// The number 1 encoded as Dec
func OneDec() Dec {
	return NewDecFromInt64(1)
}

// decimal128 (34 digits) is wide enough to hold every u64 * u64 / u64 product the
// emission cascade performs without losing integral digits.
var dec128Context = apd.Context{
	Precision:   34,
	MaxExponent: apd.MaxExponent,
	MinExponent: apd.MinExponent,
	Traps:       apd.DefaultTraps,
	Rounding:    apd.RoundHalfEven,
}

// create a new Dec that represents NaN
func NewNaN() Dec {
	return Dec{apd.Decimal{}, true}
}

// NewDecFromString returns a new Dec from a given string. It returns an error if the string
// cannot be parsed. The string should be in the format of `123.456`.
func NewDecFromString(s string) (Dec, error) {
	if s == "" {
		s = "0"
	}
	d, _, err := apd.NewFromString(s)
	if err != nil {
		return Dec{}, ErrInvalidDecString.Wrap(err.Error())
	}

	d1 := Dec{*d, false}
	if d1.dec.Form == apd.Infinite {
		return d1, ErrInfiniteString.Wrap(s)
	}

	return d1, nil
}

// MustNewDecFromString returns a new Dec from a given string. It panics if the string
// cannot be parsed.
func MustNewDecFromString(s string) Dec {
	ret, err := NewDecFromString(s)
	if err != nil {
		panic(err)
	}
	return ret
}

// create a new dec from an int64 value
func NewDecFromInt64(x int64) Dec {
	var res Dec
	res.dec.SetInt64(x)
	return res
}

// NewDecFromUint64 is exact for the whole uint64 range.
func NewDecFromUint64(x uint64) Dec {
	var res Dec
	res.dec.Coeff.SetUint64(x)
	return res
}

// NewDecFromSdkInt takes a cosmos `sdkmath.Int` and turns it into a Dec
func NewDecFromSdkInt(x sdkmath.Int) (Dec, error) {
	if x.IsNil() {
		return ZeroDec(), nil
	}
	return NewDecFromString(x.String())
}

// Add returns a new Dec with value `x+y` without mutating any argument and error if
// there is an overflow or resultant NaN.
func (x Dec) Add(y Dec) (Dec, error) {
	var z Dec
	_, err := apd.BaseContext.Add(&z.dec, &x.dec, &y.dec)
	if z.IsNaN() {
		return z, errorsmod.Wrap(ErrNaN, "Add result is NaN")
	}
	return z, errorsmod.Wrap(err, "decimal addition error")
}

// Sub returns a new Dec with value `x-y` without mutating any argument and error if
// there is an overflow.
func (x Dec) Sub(y Dec) (Dec, error) {
	var z Dec
	_, err := apd.BaseContext.Sub(&z.dec, &x.dec, &y.dec)
	if z.IsNaN() {
		return z, errorsmod.Wrap(ErrNaN, "Sub result is NaN")
	}
	return z, errorsmod.Wrap(err, "decimal subtraction error")
}

// Quo returns a new Dec with value `x/y` (formatted as decimal128, 34 digit precision) without mutating any
// argument and error if there is an overflow.
func (x Dec) Quo(y Dec) (Dec, error) {
	var z Dec
	_, err := dec128Context.Quo(&z.dec, &x.dec, &y.dec)
	if z.IsNaN() {
		return z, errorsmod.Wrap(ErrNaN, "Quo result is NaN")
	}
	return z, errorsmod.Wrap(err, "decimal quotient error")
}

// SafeQuo returns `x/y`, or zero when y is zero.
func (x Dec) SafeQuo(y Dec) (Dec, error) {
	if y.IsZero() {
		return ZeroDec(), nil
	}
	return x.Quo(y)
}

// Mul returns a new Dec with value `x*y` (formatted as decimal128, with 34 digit precision) without
// mutating any argument and error if there is an overflow.
func (x Dec) Mul(y Dec) (Dec, error) {
	var z Dec
	_, err := dec128Context.Mul(&z.dec, &x.dec, &y.dec)
	if z.IsNaN() {
		return z, errorsmod.Wrap(ErrNaN, "Mul result is NaN")
	}
	return z, errorsmod.Wrap(err, "decimal multiplication error")
}

// Neg negates the decimal and returns a new Dec with value `-x` without
// mutating any argument and error if there is an overflow.
func (x Dec) Neg() (Dec, error) {
	var z Dec
	_, err := dec128Context.Neg(&z.dec, &x.dec)
	if z.IsNaN() {
		return z, errorsmod.Wrap(ErrNaN, "Neg result is NaN")
	}
	return z, errorsmod.Wrap(err, "decimal negation error")
}

// Ln returns a new Dec with the value of the natural logarithm of x, without mutating x.
func Ln(x Dec) (Dec, error) {
	var z Dec
	_, err := dec128Context.Ln(&z.dec, &x.dec)
	if z.IsNaN() {
		return z, errorsmod.Wrap(ErrNaN, "Ln result is NaN")
	}
	return z, errorsmod.Wrap(err, "decimal natural logarithm error")
}

// Exp returns a new Dec with the value of e^x, without mutating x.
func Exp(x Dec) (Dec, error) {
	var z Dec
	_, err := dec128Context.Exp(&z.dec, &x.dec)
	if z.IsNaN() {
		return z, errorsmod.Wrap(ErrNaN, "Exp result is NaN")
	}
	return z, errorsmod.Wrap(err, "decimal e to the x exponentiation error")
}

// Abs returns a new Dec with the absolute value of x, without mutating x.
func (x Dec) Abs() (Dec, error) {
	if x.IsNaN() {
		return Dec{}, errorsmod.Wrap(ErrNaN, "Cannot abs a NaN")
	}
	var z Dec
	z.dec.Abs(&x.dec)
	return z, nil
}

// Floor returns a new Dec with the value of x rounded down to the nearest integer, without mutating x.
func (x Dec) Floor() (Dec, error) {
	if x.IsNaN() {
		return Dec{}, errorsmod.Wrap(ErrNaN, "Cannot floor a NaN")
	}
	var z Dec
	_, err := dec128Context.Floor(&z.dec, &x.dec)
	return z, errorsmod.Wrap(err, "decimal floor error")
}

// Round returns x rounded to the nearest integer.
func (x Dec) Round() (Dec, error) {
	if x.IsNaN() {
		return Dec{}, errorsmod.Wrap(ErrNaN, "Cannot round a NaN")
	}
	var z Dec
	_, err := dec128Context.RoundToIntegralValue(&z.dec, &x.dec)
	return z, errorsmod.Wrap(err, "decimal rounding error")
}

// Int64 converts x to an int64 or returns an error if x cannot
// fit precisely into an int64.
func (x Dec) Int64() (int64, error) {
	if x.IsNaN() {
		return 0, errorsmod.Wrap(ErrNaN, "Cannot convert NaN to int64")
	}
	return x.dec.Int64()
}

// UInt64 truncates x toward zero and converts it to a uint64. Negative values and
// values beyond the uint64 range are errors.
func (x Dec) UInt64() (uint64, error) {
	if x.IsNaN() {
		return 0, errorsmod.Wrap(ErrNaN, "Cannot convert NaN to uint64")
	}
	if x.IsNegative() {
		return 0, errorsmod.Wrapf(ErrNegative, "cannot convert %s to uint64", x.String())
	}
	r, err := x.Coeff()
	if err != nil {
		return 0, err
	}
	if !r.IsUint64() {
		return 0, errorsmod.Wrapf(ErrOverflow, "%s does not fit in uint64", x.String())
	}
	return r.Uint64(), nil
}

// Coeff copies x into a big int truncating toward zero
func (x Dec) Coeff() (big.Int, error) {
	if x.IsNaN() {
		return big.Int{}, errorsmod.Wrap(ErrNaN, "Cannot convert NaN to big.Int")
	}
	y, _ := x.Reduce()
	var r = y.dec.Coeff
	if y.dec.Exponent != 0 {
		decs := apd.NewBigInt(10)
		if y.dec.Exponent > 0 {
			decs.Exp(decs, apd.NewBigInt(int64(y.dec.Exponent)), nil)
			r.Mul(&y.dec.Coeff, decs)
		} else {
			decs.Exp(decs, apd.NewBigInt(int64(-y.dec.Exponent)), nil)
			r.Quo(&y.dec.Coeff, decs)
		}
	}
	if x.dec.Negative {
		r.Neg(&r)
	}
	return *r.MathBigInt(), nil
}

// MaxBitLen defines the maximum bit length supported bit Int and Uint types.
const MaxBitLen = 256

// maxWordLen defines the maximum word length supported by Int and Uint types.
const maxWordLen = MaxBitLen / bits.UintSize

// check if the big int is greater than the maximum word length
// of a sdk int (256 bits)
func bigIntOverflows(i *big.Int) bool {
	if len(i.Bits()) > maxWordLen {
		return i.BitLen() > MaxBitLen
	}
	return false
}

// SdkIntTrim rounds decimal number to the integer towards zero and converts it to `sdkmath.Int`.
// returns error if the Dec is not representable in an sdkmath.Int
func (x Dec) SdkIntTrim() (sdkmath.Int, error) {
	r, err := x.Coeff()
	if err != nil {
		return sdkmath.Int{}, errorsmod.Wrap(err, "Unable to trim to sdkmath.Int")
	}
	if bigIntOverflows(&r) {
		return sdkmath.Int{}, errorsmod.Wrap(ErrOverflow, "decimal is not representable as an sdkmath.Int")
	}
	return sdkmath.NewIntFromBigInt(&r), nil
}

func (x Dec) String() string {
	if x.IsNaN() {
		return NaNStr
	}
	return x.dec.Text('f')
}

func (x Dec) Marshal() ([]byte, error) {
	if x.IsNaN() {
		return []byte(NaNStr), nil
	}
	return x.dec.MarshalText()
}

func (x *Dec) Unmarshal(data []byte) error {
	if len(data) == 0 {
		return nil
	}

	if string(data) == NaNStr {
		*x = NewNaN()
		return nil
	}

	return x.dec.UnmarshalText(data)
}

// MarshalJSON marshals the decimal
func (x Dec) MarshalJSON() ([]byte, error) {
	return json.Marshal(x.String())
}

// UnmarshalJSON defines custom decoding scheme
func (x *Dec) UnmarshalJSON(bz []byte) error {
	var text string
	err := json.Unmarshal(bz, &text)
	if err != nil {
		return err
	}
	if text == NaNStr {
		*x = NewNaN()
		return nil
	}

	newDec, err := NewDecFromString(text)
	if err != nil {
		return err
	}

	*x = newDec

	return nil
}

// Cmp compares x and y and returns:
// -1 if x <  y
// 0 if x == y
// +1 if x >  y
// undefined if d or x are NaN
func (x Dec) Cmp(y Dec) int {
	return x.dec.Cmp(&y.dec)
}

// is x greater than y
func (x Dec) Gt(y Dec) bool {
	return x.dec.Cmp(&y.dec) == GreaterThan
}

// is x greater than or equal to y
func (x Dec) Gte(y Dec) bool {
	return x.dec.Cmp(&y.dec) != LessThan
}

// is x less than y
func (x Dec) Lt(y Dec) bool {
	return x.dec.Cmp(&y.dec) == LessThan
}

// is x less than or equal to y
func (x Dec) Lte(y Dec) bool {
	return x.dec.Cmp(&y.dec) != GreaterThan
}

// Equal returns true if x and y are equal.
func (x Dec) Equal(y Dec) bool {
	return x.dec.Cmp(&y.dec) == EqualTo
}

// IsNaN returns true if the decimal is not a number.
func (x Dec) IsNaN() bool {
	return x.isNaN
}

// IsZero returns true if the decimal is zero.
func (x Dec) IsZero() bool {
	if x.IsNaN() {
		return false
	}
	return x.dec.IsZero()
}

// IsNegative returns true if the decimal is negative.
func (x Dec) IsNegative() bool {
	if x.IsNaN() {
		return false
	}
	return x.dec.Negative && !x.dec.IsZero()
}

// IsPositive returns true if the decimal is positive.
func (x Dec) IsPositive() bool {
	if x.IsNaN() {
		return false
	}
	return !x.dec.Negative && !x.dec.IsZero()
}

// Reduce returns a copy of x with all trailing zeros removed and the number
// of trailing zeros removed.
func (x Dec) Reduce() (Dec, int) {
	y := Dec{}
	_, n := y.dec.Reduce(&x.dec)
	return y, n
}

// helper function for test suites that want to check
// if some math is within a delta
func InDelta(expected, result Dec, epsilon Dec) (bool, error) {
	if expected.IsNaN() || result.IsNaN() {
		return false, errorsmod.Wrap(ErrNaN, "Cannot compare NaN")
	}
	delta, err := expected.Sub(result)
	if err != nil {
		return false, nil
	}
	deltaAbs, err := delta.Abs()
	if err != nil {
		return false, errorsmod.Wrap(err, "error getting absolute value")
	}
	return deltaAbs.Lte(epsilon), nil
}

// SlicesInDelta compares two slices element-wise within a delta
func SlicesInDelta(a, b []Dec, epsilon Dec) (bool, error) {
	if len(a) != len(b) {
		return false, errorsmod.Wrapf(ErrNotMatchingLength, "%d != %d", len(a), len(b))
	}
	for i := range a {
		ok, err := InDelta(a[i], b[i], epsilon)
		if err != nil {
			return false, errorsmod.Wrapf(err, "index %s", strconv.Itoa(i))
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// Generic Sum function, given an array of values returns its sum
func SumDecSlice(x []Dec) (Dec, error) {
	sum := ZeroDec()
	var err error
	for _, v := range x {
		sum, err = sum.Add(v)
		if err != nil {
			return Dec{}, errorsmod.Wrapf(err, "error adding %v + %v", v, sum)
		}
	}
	return sum, nil
}
