package keeper

import (
	"encoding/json"

	collcodec "cosmossdk.io/collections/codec"
)

// JSONValue stores plain Go structs that have no protobuf schema.
func JSONValue[T any](name string) collcodec.ValueCodec[T] {
	return jsonValueCodec[T]{name: name}
}

type jsonValueCodec[T any] struct {
	name string
}

func (c jsonValueCodec[T]) Encode(value T) ([]byte, error) {
	return json.Marshal(value)
}

func (c jsonValueCodec[T]) Decode(b []byte) (T, error) {
	var v T
	err := json.Unmarshal(b, &v)
	return v, err
}

func (c jsonValueCodec[T]) EncodeJSON(value T) ([]byte, error) {
	return c.Encode(value)
}

func (c jsonValueCodec[T]) DecodeJSON(b []byte) (T, error) {
	return c.Decode(b)
}

func (c jsonValueCodec[T]) Stringify(value T) string {
	bz, err := json.Marshal(value)
	if err != nil {
		return "<invalid " + c.name + ">"
	}
	return string(bz)
}

func (c jsonValueCodec[T]) ValueType() string {
	return c.name
}
