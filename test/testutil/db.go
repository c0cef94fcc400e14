package testutil

import (
	rand "math/rand/v2"
	"testing"

	"cosmossdk.io/collections"
	"cosmossdk.io/core/store"
	storetypes "cosmossdk.io/store/types"
	"github.com/cosmos/cosmos-sdk/runtime"
	cosmostestutil "github.com/cosmos/cosmos-sdk/testutil"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// TestDB is a single-store test database behind randomly named keys.
type TestDB struct {
	StoreKey     *storetypes.KVStoreKey
	TransientKey *storetypes.TransientStoreKey
	StoreService store.KVStoreService
	TestCtx      cosmostestutil.TestContext
	// Ctx is TestCtx.Ctx at block height 1
	Ctx   sdk.Context
	Store storetypes.KVStore
	SB    *collections.SchemaBuilder
}

func NewTestDB(t *testing.T) TestDB {
	t.Helper()

	var testDB TestDB
	testDB.StoreKey = storetypes.NewKVStoreKey(MustRandomString(rand.IntN(30) + 2))             //nolint:gosec
	testDB.TransientKey = storetypes.NewTransientStoreKey(MustRandomString(rand.IntN(30) + 2)) //nolint:gosec
	testDB.StoreService = runtime.NewKVStoreService(testDB.StoreKey)
	testDB.TestCtx = cosmostestutil.DefaultContextWithDB(t, testDB.StoreKey, testDB.TransientKey)
	testDB.Ctx = testDB.TestCtx.Ctx.WithBlockHeight(1)
	testDB.Store = runtime.KVStoreAdapter(testDB.StoreService.OpenKVStore(testDB.Ctx))
	testDB.SB = collections.NewSchemaBuilder(testDB.StoreService)
	return testDB
}
