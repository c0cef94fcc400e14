package math

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"strings"

	collcodec "cosmossdk.io/collections/codec"
)

// CompactRowValue stores a sparse u16 row as consecutive big-endian (index, value) pairs.
var CompactRowValue collcodec.ValueCodec[[]CompactEntry] = compactRowValueCodec{}

type compactRowValueCodec struct{}

const compactEntrySize = 4

func (c compactRowValueCodec) Encode(value []CompactEntry) ([]byte, error) {
	buf := make([]byte, len(value)*compactEntrySize)
	for i, e := range value {
		binary.BigEndian.PutUint16(buf[i*compactEntrySize:], e.Index)
		binary.BigEndian.PutUint16(buf[i*compactEntrySize+2:], e.Value)
	}
	return buf, nil
}

func (c compactRowValueCodec) Decode(b []byte) ([]CompactEntry, error) {
	if len(b)%compactEntrySize != 0 {
		return nil, fmt.Errorf("invalid compact row length %d", len(b))
	}
	out := make([]CompactEntry, len(b)/compactEntrySize)
	for i := range out {
		out[i] = CompactEntry{
			Index: binary.BigEndian.Uint16(b[i*compactEntrySize:]),
			Value: binary.BigEndian.Uint16(b[i*compactEntrySize+2:]),
		}
	}
	return out, nil
}

func (c compactRowValueCodec) EncodeJSON(value []CompactEntry) ([]byte, error) {
	pairs := make([][2]uint16, len(value))
	for i, e := range value {
		pairs[i] = [2]uint16{e.Index, e.Value}
	}
	return json.Marshal(pairs)
}

func (c compactRowValueCodec) DecodeJSON(b []byte) ([]CompactEntry, error) {
	var pairs [][2]uint16
	if err := json.Unmarshal(b, &pairs); err != nil {
		return nil, err
	}
	out := make([]CompactEntry, len(pairs))
	for i, p := range pairs {
		out[i] = CompactEntry{Index: p[0], Value: p[1]}
	}
	return out, nil
}

func (c compactRowValueCodec) Stringify(value []CompactEntry) string {
	parts := make([]string, len(value))
	for i, e := range value {
		parts[i] = fmt.Sprintf("%d:%d", e.Index, e.Value)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func (c compactRowValueCodec) ValueType() string {
	return "CompactRow"
}
