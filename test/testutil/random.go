package testutil

import (
	cryptorand "crypto/rand"
	"math"
	"math/rand/v2"
	"reflect"
	"testing"

	"github.com/cometbft/cometbft/crypto/ed25519"
	"github.com/opentensor/subtensor-sub008/x/subtensor/types"
)

func MustRandomString(n int) string {
	return string(MustRandomBytes(n))
}

func MustRandomBytes(n int) []byte {
	b := make([]byte, n)
	_, err := cryptorand.Read(b)
	if err != nil {
		panic(err)
	}
	return b
}

// RandomAccountKey returns the public key of a fresh ed25519 key pair.
func RandomAccountKey(t *testing.T) types.AccountKey {
	t.Helper()
	k, err := types.AccountKeyFromBytes(ed25519.GenPrivKey().PubKey().Bytes())
	if err != nil {
		t.Fatalf("failed to build account key: %v", err)
	}
	return k
}

func RandomAccountKeys(t *testing.T, n int) []types.AccountKey {
	t.Helper()
	keys := make([]types.AccountKey, n)
	for i := range keys {
		keys[i] = RandomAccountKey(t)
	}
	return keys
}

func RandomValueOfType[T any](t *testing.T) T {
	t.Helper()

	var result T
	switch any(result).(type) {
	case string:
		return any(MustRandomString(10)).(T) //nolint:forcetypeassert
	case []byte:
		return any(MustRandomBytes(10)).(T) //nolint:forcetypeassert
	case int64:
		return any(rand.Int64()).(T) //nolint:gosec,forcetypeassert
	case uint16:
		return any(uint16(rand.UintN(math.MaxUint16))).(T) //nolint:gosec,forcetypeassert
	case uint64:
		return any(rand.Uint64()).(T) //nolint:gosec,forcetypeassert
	case types.AccountKey:
		return any(RandomAccountKey(t)).(T) //nolint:forcetypeassert
	default:
		t.Fatalf("Unsupported type: %v", reflect.TypeOf(result))
		return result // This line will never be reached, but is needed for compilation
	}
}
