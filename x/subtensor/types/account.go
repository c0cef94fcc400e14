package types

import (
	"encoding/json"

	"cosmossdk.io/collections/codec"
	"cosmossdk.io/errors"
	"github.com/mr-tron/base58"
)

const AccountKeyLength = 32

// AccountKey is a hotkey or coldkey identity.
type AccountKey [AccountKeyLength]byte

func AccountKeyFromBytes(bz []byte) (AccountKey, error) {
	var k AccountKey
	if len(bz) != AccountKeyLength {
		return k, errors.Wrapf(ErrInvalidAccountKey, "expected %d bytes, got %d", AccountKeyLength, len(bz))
	}
	copy(k[:], bz)
	return k, nil
}

func AccountKeyFromBase58(s string) (AccountKey, error) {
	bz, err := base58.Decode(s)
	if err != nil {
		return AccountKey{}, errors.Wrapf(ErrInvalidAccountKey, "%s: %s", s, err)
	}
	return AccountKeyFromBytes(bz)
}

func (k AccountKey) String() string {
	return base58.Encode(k[:])
}

func (k AccountKey) IsZero() bool {
	return k == AccountKey{}
}

func (k AccountKey) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

func (k *AccountKey) UnmarshalJSON(bz []byte) error {
	var s string
	if err := json.Unmarshal(bz, &s); err != nil {
		return err
	}
	parsed, err := AccountKeyFromBase58(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// AccountKeyKey is a fixed-width key codec, so it needs no length prefix when
// it is not the last part of a multipart key.
var AccountKeyKey codec.KeyCodec[AccountKey] = accountKeyCodec{}

type accountKeyCodec struct{}

func (accountKeyCodec) Encode(buffer []byte, key AccountKey) (int, error) {
	return copy(buffer, key[:]), nil
}

func (accountKeyCodec) Decode(buffer []byte) (int, AccountKey, error) {
	if len(buffer) < AccountKeyLength {
		return 0, AccountKey{}, errors.Wrapf(ErrInvalidAccountKey, "buffer too short: %d", len(buffer))
	}
	var k AccountKey
	copy(k[:], buffer[:AccountKeyLength])
	return AccountKeyLength, k, nil
}

func (accountKeyCodec) Size(AccountKey) int {
	return AccountKeyLength
}

func (accountKeyCodec) EncodeJSON(value AccountKey) ([]byte, error) {
	return value.MarshalJSON()
}

func (accountKeyCodec) DecodeJSON(b []byte) (AccountKey, error) {
	var k AccountKey
	err := k.UnmarshalJSON(b)
	return k, err
}

func (accountKeyCodec) Stringify(key AccountKey) string {
	return key.String()
}

func (accountKeyCodec) KeyType() string {
	return "AccountKey"
}

func (c accountKeyCodec) EncodeNonTerminal(buffer []byte, key AccountKey) (int, error) {
	return c.Encode(buffer, key)
}

func (c accountKeyCodec) DecodeNonTerminal(buffer []byte) (int, AccountKey, error) {
	return c.Decode(buffer)
}

func (c accountKeyCodec) SizeNonTerminal(key AccountKey) int {
	return c.Size(key)
}

// AccountKeyValue stores an identity as its raw 32 bytes.
var AccountKeyValue codec.ValueCodec[AccountKey] = codec.KeyToValueCodec(AccountKeyKey)
