package keeper_test

import (
	"cosmossdk.io/collections"
	"github.com/cosmos/cosmos-sdk/runtime"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/opentensor/subtensor-sub008/x/subtensor/keeper"
	"github.com/opentensor/subtensor-sub008/x/subtensor/types"
)

func keeperInvariants(s *KeeperTestSuite) (string, bool) {
	return keeper.AllInvariants(s.keeper)(s.ctx)
}

func (s *KeeperTestSuite) TestInvariantsHoldThroughLifecycle() {
	s.addSubnet(1)
	params := types.DefaultParams()
	params.PendingChildKeyCooldown = 5
	s.Require().NoError(s.keeper.SetParams(s.ctx, params))
	cold := accountKey(0)
	for i := byte(1); i <= 3; i++ {
		s.register(1, cold, accountKey(i))
		s.Require().NoError(s.keeper.AddStake(s.ctx, cold, accountKey(i), 1, sdkInt(100)))
	}
	s.Require().NoError(s.keeper.ScheduleChildren(s.ctx, cold, accountKey(1), 1, types.ChildList{{Proportion: 10, Hotkey: accountKey(2)}}))
	msg, broken := keeperInvariants(s)
	s.Require().False(broken, msg)

	s.Require().NoError(s.keeper.ApplyPendingChildren(s.ctx, 6))
	s.Require().NoError(s.keeper.AccumulateHotkeyEmission(s.ctx, accountKey(2), 1, sdkInt(10), sdkInt(90)))
	msg, broken = keeperInvariants(s)
	s.Require().False(broken, msg)

	_, err := s.keeper.DrainDueHotkeys(s.ctx, 0)
	s.Require().NoError(err)
	s.Require().NoError(s.keeper.RemoveStake(s.ctx, cold, accountKey(3), 1, sdkInt(100)))
	msg, broken = keeperInvariants(s)
	s.Require().False(broken, msg)

	// mid-sweep state of a removed subnet is not a violation
	s.Require().NoError(s.keeper.RemoveSubnet(s.ctx, 1))
	_, err = s.keeper.ProcessSweeps(s.ctx, 2)
	s.Require().NoError(err)
	msg, broken = keeperInvariants(s)
	s.Require().False(broken, msg)
}

func (s *KeeperTestSuite) TestTotalHotkeyStakeInvariant() {
	s.addSubnet(1)
	s.addSubnet(2)
	owner := accountKey(0)
	for i := byte(1); i <= 2; i++ {
		s.register(1, owner, accountKey(i))
		s.register(2, owner, accountKey(i))
		s.Require().NoError(s.keeper.AddStake(s.ctx, owner, accountKey(i), 1, sdkInt(100*int64(i))))
		s.Require().NoError(s.keeper.AddStake(s.ctx, accountKey(9), accountKey(i), 1, sdkInt(7)))
		s.Require().NoError(s.keeper.AddStake(s.ctx, owner, accountKey(i), 2, sdkInt(1000)))
	}
	invariant := keeper.StakingInvariantTotalHotkeyStake(s.keeper)
	msg, broken := invariant(s.ctx)
	s.Require().False(broken, msg)

	// a total that disagrees with its nominators is reported
	sb := collections.NewSchemaBuilder(runtime.NewKVStoreService(s.key))
	totals := collections.NewMap(sb, types.TotalHotkeyStakeKey, "total_hotkey_stake",
		collections.PairKeyCodec(types.AccountKeyKey, collections.Uint16Key), sdk.IntValue)
	s.Require().NoError(totals.Set(s.ctx, collections.Join(accountKey(2), uint16(1)), sdkInt(208)))
	msg, broken = invariant(s.ctx)
	s.Require().True(broken)
	s.Require().Contains(msg, "total 208, sum 207")
}
