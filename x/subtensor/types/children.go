package types

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math/bits"
	"strings"

	collcodec "cosmossdk.io/collections/codec"
	"cosmossdk.io/errors"
)

// ChildEdge delegates Proportion/MaxChildProportion of a parent's stake to Hotkey.
type ChildEdge struct {
	Proportion uint64     `json:"proportion"`
	Hotkey     AccountKey `json:"hotkey"`
}

type ChildList []ChildEdge

// PendingChildren is a child list waiting for its cooldown to elapse.
type PendingChildren struct {
	Children ChildList   `json:"children"`
	ApplyAt  BlockHeight `json:"apply_at"`
}

// ValidateChildren checks the structural rules of a child list for hotkey.
func ValidateChildren(hotkey AccountKey, children ChildList, maxChildren uint16) error {
	if len(children) > int(maxChildren) {
		return errors.Wrapf(ErrTooManyChildren, "%d > %d", len(children), maxChildren)
	}
	seen := make(map[AccountKey]struct{}, len(children))
	var sum uint64
	for _, c := range children {
		if c.Hotkey == hotkey {
			return errors.Wrap(ErrInvalidChild, hotkey.String())
		}
		if _, ok := seen[c.Hotkey]; ok {
			return errors.Wrap(ErrDuplicateChild, c.Hotkey.String())
		}
		seen[c.Hotkey] = struct{}{}
		var carry uint64
		sum, carry = bits.Add64(sum, c.Proportion, 0)
		if carry != 0 {
			return errors.Wrap(ErrProportionOverflow, hotkey.String())
		}
	}
	return nil
}

const childEdgeSize = 8 + AccountKeyLength

// ChildListValue stores a child list as consecutive (big-endian proportion, hotkey) records.
var ChildListValue collcodec.ValueCodec[ChildList] = childListValueCodec{}

type childListValueCodec struct{}

func (childListValueCodec) Encode(value ChildList) ([]byte, error) {
	buf := make([]byte, len(value)*childEdgeSize)
	for i, e := range value {
		off := i * childEdgeSize
		binary.BigEndian.PutUint64(buf[off:], e.Proportion)
		copy(buf[off+8:off+childEdgeSize], e.Hotkey[:])
	}
	return buf, nil
}

func (childListValueCodec) Decode(b []byte) (ChildList, error) {
	if len(b)%childEdgeSize != 0 {
		return nil, fmt.Errorf("invalid child list length %d", len(b))
	}
	out := make(ChildList, len(b)/childEdgeSize)
	for i := range out {
		off := i * childEdgeSize
		out[i].Proportion = binary.BigEndian.Uint64(b[off:])
		copy(out[i].Hotkey[:], b[off+8:off+childEdgeSize])
	}
	return out, nil
}

func (childListValueCodec) EncodeJSON(value ChildList) ([]byte, error) {
	return json.Marshal(value)
}

func (childListValueCodec) DecodeJSON(b []byte) (ChildList, error) {
	var out ChildList
	err := json.Unmarshal(b, &out)
	return out, err
}

func (childListValueCodec) Stringify(value ChildList) string {
	parts := make([]string, len(value))
	for i, e := range value {
		parts[i] = fmt.Sprintf("%s:%d", e.Hotkey, e.Proportion)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func (childListValueCodec) ValueType() string {
	return "ChildList"
}
