package keeper_test

import (
	"math"

	"github.com/opentensor/subtensor-sub008/x/subtensor/types"
)

const halfProportion = math.MaxUint64 / 2

/// STAKE TESTS

func (s *KeeperTestSuite) TestAddAndRemoveStake() {
	s.addSubnet(1)
	owner, hotkey, nominator := accountKey(0), accountKey(1), accountKey(2)
	s.register(1, owner, hotkey)

	s.setBlock(5)
	s.Require().NoError(s.keeper.AddStake(s.ctx, nominator, hotkey, 1, sdkInt(100)))
	s.Require().NoError(s.keeper.AddStake(s.ctx, owner, hotkey, 1, sdkInt(50)))

	stake, err := s.keeper.GetStake(s.ctx, hotkey, nominator, 1)
	s.Require().NoError(err)
	s.requireInt(100, stake)
	total, err := s.keeper.GetTotalHotkeyStake(s.ctx, hotkey, 1)
	s.Require().NoError(err)
	s.requireInt(150, total)
	marker, err := s.keeper.GetLastAddStakeIncrease(s.ctx, hotkey, nominator, 1)
	s.Require().NoError(err)
	s.Require().Equal(int64(5), marker)

	nominators, err := s.keeper.GetNominators(s.ctx, hotkey, 1)
	s.Require().NoError(err)
	s.Require().Len(nominators, 2)

	err = s.keeper.RemoveStake(s.ctx, nominator, hotkey, 1, sdkInt(101))
	s.Require().ErrorIs(err, types.ErrNotEnoughStake)

	s.setBlock(6)
	s.Require().NoError(s.keeper.RemoveStake(s.ctx, nominator, hotkey, 1, sdkInt(100)))
	stake, err = s.keeper.GetStake(s.ctx, hotkey, nominator, 1)
	s.Require().NoError(err)
	s.Require().True(stake.IsZero())
	total, err = s.keeper.GetTotalHotkeyStake(s.ctx, hotkey, 1)
	s.Require().NoError(err)
	s.requireInt(50, total)
	nominators, err = s.keeper.GetNominators(s.ctx, hotkey, 1)
	s.Require().NoError(err)
	s.Require().Len(nominators, 1)
	s.Require().Equal(owner, nominators[0].Coldkey)
}

func (s *KeeperTestSuite) TestAddStakeRejections() {
	s.addSubnet(1)
	s.register(1, accountKey(0), accountKey(1))

	err := s.keeper.AddStake(s.ctx, accountKey(0), accountKey(1), 1, sdkInt(0))
	s.Require().ErrorIs(err, types.ErrNotEnoughStake)

	err = s.keeper.AddStake(s.ctx, accountKey(0), accountKey(1), 2, sdkInt(10))
	s.Require().ErrorIs(err, types.ErrSubnetNotExists)

	err = s.keeper.AddStake(s.ctx, accountKey(0), accountKey(8), 1, sdkInt(10))
	s.Require().ErrorIs(err, types.ErrHotkeyNotRegistered)
}

func (s *KeeperTestSuite) TestStakeIsPerSubnet() {
	s.addSubnet(1)
	s.addSubnet(2)
	hotkey := accountKey(1)
	s.register(1, accountKey(0), hotkey)
	s.Require().NoError(s.keeper.IncreaseStake(s.ctx, hotkey, accountKey(0), 1, sdkInt(10)))
	s.Require().NoError(s.keeper.IncreaseStake(s.ctx, hotkey, accountKey(0), 2, sdkInt(30)))

	nominators, err := s.keeper.GetNominators(s.ctx, hotkey, 2)
	s.Require().NoError(err)
	s.Require().Len(nominators, 1)
	s.requireInt(30, nominators[0].Stake)

	total, err := s.keeper.GetTotalHotkeyStake(s.ctx, hotkey, 1)
	s.Require().NoError(err)
	s.requireInt(10, total)
}

func (s *KeeperTestSuite) TestSetDelegateTake() {
	s.addSubnet(1)
	s.register(1, accountKey(0), accountKey(1))

	take, err := s.keeper.GetDelegateTake(s.ctx, accountKey(1))
	s.Require().NoError(err)
	s.Require().Equal(types.DefaultParams().DefaultDelegateTake, take)

	s.Require().NoError(s.keeper.SetDelegateTake(s.ctx, accountKey(0), accountKey(1), 100))
	take, err = s.keeper.GetDelegateTake(s.ctx, accountKey(1))
	s.Require().NoError(err)
	s.Require().Equal(uint16(100), take)

	err = s.keeper.SetDelegateTake(s.ctx, accountKey(9), accountKey(1), 100)
	s.Require().ErrorIs(err, types.ErrNonAssociatedColdkey)
	err = s.keeper.SetDelegateTake(s.ctx, accountKey(0), accountKey(1), types.DefaultParams().MaxDelegateTake+1)
	s.Require().ErrorIs(err, types.ErrDelegateTakeTooHigh)
}

/// STAKE AGGREGATOR TESTS

func (s *KeeperTestSuite) TestStakeWithChildrenAndParents() {
	s.addSubnet(1)
	cold, parent, child := accountKey(0), accountKey(1), accountKey(2)
	s.register(1, cold, parent)
	s.Require().NoError(s.keeper.IncreaseStake(s.ctx, parent, cold, 1, sdkInt(1000)))

	s.Require().NoError(s.keeper.SetChildren(s.ctx, cold, parent, 1, types.ChildList{
		{Proportion: halfProportion, Hotkey: child},
	}))

	parentStake, err := s.keeper.GetStakeWithChildrenAndParents(s.ctx, parent, 1)
	s.Require().NoError(err)
	childStake, err := s.keeper.GetStakeWithChildrenAndParents(s.ctx, child, 1)
	s.Require().NoError(err)

	// floor(1000 * (2^63 - 1) / (2^64 - 1)) = 499
	s.requireInt(499, childStake)
	s.requireInt(501, parentStake)
	s.requireInt(1000, parentStake.Add(childStake))
}

func (s *KeeperTestSuite) TestStakeWithChildrenAndParentsOtherSubnetUnaffected() {
	s.addSubnet(1)
	s.addSubnet(2)
	cold, parent, child := accountKey(0), accountKey(1), accountKey(2)
	s.register(1, cold, parent)
	s.Require().NoError(s.keeper.IncreaseStake(s.ctx, parent, cold, 1, sdkInt(1000)))
	s.Require().NoError(s.keeper.IncreaseStake(s.ctx, parent, cold, 2, sdkInt(1000)))
	s.Require().NoError(s.keeper.SetChildren(s.ctx, cold, parent, 1, types.ChildList{
		{Proportion: math.MaxUint64, Hotkey: child},
	}))

	onOther, err := s.keeper.GetStakeWithChildrenAndParents(s.ctx, parent, 2)
	s.Require().NoError(err)
	s.requireInt(1000, onOther)
	onFirst, err := s.keeper.GetStakeWithChildrenAndParents(s.ctx, parent, 1)
	s.Require().NoError(err)
	s.Require().True(onFirst.IsZero())
}

/// CHILDREN TESTS

func (s *KeeperTestSuite) TestSetChildrenMirrorsParents() {
	s.addSubnet(1)
	cold, parent, b, c := accountKey(0), accountKey(1), accountKey(2), accountKey(3)
	s.register(1, cold, parent)

	s.Require().NoError(s.keeper.SetChildren(s.ctx, cold, parent, 1, types.ChildList{
		{Proportion: 100, Hotkey: b},
		{Proportion: 200, Hotkey: c},
	}))
	parents, err := s.keeper.GetParents(s.ctx, b, 1)
	s.Require().NoError(err)
	s.Require().Equal(types.ChildList{{Proportion: 100, Hotkey: parent}}, parents)

	s.Require().NoError(s.keeper.SetChildren(s.ctx, cold, parent, 1, types.ChildList{
		{Proportion: 300, Hotkey: c},
	}))
	parents, err = s.keeper.GetParents(s.ctx, b, 1)
	s.Require().NoError(err)
	s.Require().Empty(parents)
	parents, err = s.keeper.GetParents(s.ctx, c, 1)
	s.Require().NoError(err)
	s.Require().Equal(types.ChildList{{Proportion: 300, Hotkey: parent}}, parents)

	// an empty list revokes every child
	s.Require().NoError(s.keeper.SetChildren(s.ctx, cold, parent, 1, nil))
	children, err := s.keeper.GetChildren(s.ctx, parent, 1)
	s.Require().NoError(err)
	s.Require().Empty(children)
	parents, err = s.keeper.GetParents(s.ctx, c, 1)
	s.Require().NoError(err)
	s.Require().Empty(parents)

	_, broken := keeperInvariants(s)
	s.Require().False(broken)
}

func (s *KeeperTestSuite) TestSetChildrenRejectionsLeaveStorageUntouched() {
	s.addSubnet(1)
	cold := accountKey(0)
	parent, a, b := accountKey(1), accountKey(2), accountKey(3)
	s.register(1, cold, parent)
	s.register(1, cold, a)
	s.Require().NoError(s.keeper.IncreaseStake(s.ctx, a, cold, 1, sdkInt(10)))
	original := types.ChildList{{Proportion: 100, Hotkey: a}}
	s.Require().NoError(s.keeper.SetChildren(s.ctx, cold, parent, 1, original))

	tooMany := make(types.ChildList, types.DefaultParams().MaxChildren+1)
	for i := range tooMany {
		tooMany[i] = types.ChildEdge{Proportion: 1, Hotkey: accountKey(byte(100 + i))}
	}

	testCases := []struct {
		name     string
		coldkey  types.AccountKey
		hotkey   types.AccountKey
		netuid   uint16
		children types.ChildList
		err      error
	}{
		{"not owner", accountKey(9), parent, 1, types.ChildList{{Proportion: 1, Hotkey: b}}, types.ErrNonAssociatedColdkey},
		{"own child", cold, parent, 1, types.ChildList{{Proportion: 1, Hotkey: parent}}, types.ErrInvalidChild},
		{"duplicate child", cold, parent, 1, types.ChildList{{Proportion: 1, Hotkey: b}, {Proportion: 2, Hotkey: b}}, types.ErrDuplicateChild},
		{"proportion overflow", cold, parent, 1, types.ChildList{{Proportion: math.MaxUint64, Hotkey: a}, {Proportion: 1, Hotkey: b}}, types.ErrProportionOverflow},
		{"too many children", cold, parent, 1, tooMany, types.ErrTooManyChildren},
		{"missing subnet", cold, parent, 9, types.ChildList{{Proportion: 1, Hotkey: b}}, types.ErrSubnetNotExists},
		{"cycle", cold, a, 1, types.ChildList{{Proportion: 1, Hotkey: parent}}, types.ErrChildCycle},
	}
	for _, tc := range testCases {
		s.Run(tc.name, func() {
			err := s.keeper.SetChildren(s.ctx, tc.coldkey, tc.hotkey, tc.netuid, tc.children)
			s.Require().ErrorIs(err, tc.err)

			children, err := s.keeper.GetChildren(s.ctx, parent, 1)
			s.Require().NoError(err)
			s.Require().Equal(original, children)
			children, err = s.keeper.GetChildren(s.ctx, a, 1)
			s.Require().NoError(err)
			s.Require().Empty(children)
			parents, err := s.keeper.GetParents(s.ctx, b, 1)
			s.Require().NoError(err)
			s.Require().Empty(parents)
		})
	}
}

func (s *KeeperTestSuite) TestSetChildrenLongCycleRejected() {
	s.addSubnet(1)
	cold := accountKey(0)
	a, b, c := accountKey(1), accountKey(2), accountKey(3)
	for _, h := range []types.AccountKey{a, b, c} {
		s.register(1, cold, h)
	}
	s.Require().NoError(s.keeper.SetChildren(s.ctx, cold, a, 1, types.ChildList{{Proportion: 1, Hotkey: b}}))
	s.Require().NoError(s.keeper.SetChildren(s.ctx, cold, b, 1, types.ChildList{{Proportion: 1, Hotkey: c}}))

	err := s.keeper.SetChildren(s.ctx, cold, c, 1, types.ChildList{{Proportion: 1, Hotkey: a}})
	s.Require().ErrorIs(err, types.ErrChildCycle)

	// the same edge on another subnet is fine
	s.addSubnet(2)
	s.Require().NoError(s.keeper.SetChildren(s.ctx, cold, c, 2, types.ChildList{{Proportion: 1, Hotkey: a}}))
}

func (s *KeeperTestSuite) TestSetChildrenStakeThreshold() {
	s.addSubnet(1)
	params := types.DefaultParams()
	params.StakeThreshold = sdkInt(500)
	s.Require().NoError(s.keeper.SetParams(s.ctx, params))
	cold, parent := accountKey(0), accountKey(1)
	s.register(1, cold, parent)

	err := s.keeper.SetChildren(s.ctx, cold, parent, 1, types.ChildList{{Proportion: 1, Hotkey: accountKey(2)}})
	s.Require().ErrorIs(err, types.ErrNotEnoughStakeToSetChildkeys)

	// revoking needs no stake
	s.Require().NoError(s.keeper.SetChildren(s.ctx, cold, parent, 1, nil))

	s.Require().NoError(s.keeper.IncreaseStake(s.ctx, parent, cold, 1, sdkInt(500)))
	s.Require().NoError(s.keeper.SetChildren(s.ctx, cold, parent, 1, types.ChildList{{Proportion: 1, Hotkey: accountKey(2)}}))
}

func (s *KeeperTestSuite) TestScheduleChildrenAppliesAfterCooldown() {
	s.addSubnet(1)
	params := types.DefaultParams()
	params.PendingChildKeyCooldown = 10
	s.Require().NoError(s.keeper.SetParams(s.ctx, params))
	cold, parent, child := accountKey(0), accountKey(1), accountKey(2)
	s.register(1, cold, parent)

	s.setBlock(5)
	children := types.ChildList{{Proportion: 7, Hotkey: child}}
	s.Require().NoError(s.keeper.ScheduleChildren(s.ctx, cold, parent, 1, children))

	pending, found, err := s.keeper.GetPendingChildren(s.ctx, parent, 1)
	s.Require().NoError(err)
	s.Require().True(found)
	s.Require().Equal(int64(15), pending.ApplyAt)

	s.Require().NoError(s.keeper.ApplyPendingChildren(s.ctx, 14))
	got, err := s.keeper.GetChildren(s.ctx, parent, 1)
	s.Require().NoError(err)
	s.Require().Empty(got)

	s.Require().NoError(s.keeper.ApplyPendingChildren(s.ctx, 15))
	got, err = s.keeper.GetChildren(s.ctx, parent, 1)
	s.Require().NoError(err)
	s.Require().Equal(children, got)
	_, found, err = s.keeper.GetPendingChildren(s.ctx, parent, 1)
	s.Require().NoError(err)
	s.Require().False(found)
}

func (s *KeeperTestSuite) TestScheduleChildrenReplacesPrevious() {
	s.addSubnet(1)
	params := types.DefaultParams()
	params.PendingChildKeyCooldown = 10
	s.Require().NoError(s.keeper.SetParams(s.ctx, params))
	cold, parent := accountKey(0), accountKey(1)
	s.register(1, cold, parent)

	s.setBlock(5)
	s.Require().NoError(s.keeper.ScheduleChildren(s.ctx, cold, parent, 1, types.ChildList{{Proportion: 1, Hotkey: accountKey(2)}}))
	s.setBlock(7)
	second := types.ChildList{{Proportion: 2, Hotkey: accountKey(3)}}
	s.Require().NoError(s.keeper.ScheduleChildren(s.ctx, cold, parent, 1, second))

	s.Require().NoError(s.keeper.ApplyPendingChildren(s.ctx, 15))
	got, err := s.keeper.GetChildren(s.ctx, parent, 1)
	s.Require().NoError(err)
	s.Require().Empty(got)

	s.Require().NoError(s.keeper.ApplyPendingChildren(s.ctx, 17))
	got, err = s.keeper.GetChildren(s.ctx, parent, 1)
	s.Require().NoError(err)
	s.Require().Equal(second, got)
}

func (s *KeeperTestSuite) TestScheduleChildrenPerBlockLimit() {
	s.addSubnet(1)
	params := types.DefaultParams()
	params.MaxPendingChildrenPerBlock = 1
	s.Require().NoError(s.keeper.SetParams(s.ctx, params))
	cold := accountKey(0)
	s.register(1, cold, accountKey(1))
	s.register(1, cold, accountKey(2))

	s.Require().NoError(s.keeper.ScheduleChildren(s.ctx, cold, accountKey(1), 1, types.ChildList{{Proportion: 1, Hotkey: accountKey(3)}}))
	err := s.keeper.ScheduleChildren(s.ctx, cold, accountKey(2), 1, types.ChildList{{Proportion: 1, Hotkey: accountKey(3)}})
	s.Require().ErrorIs(err, types.ErrTooManyPendingChildren)
}

func (s *KeeperTestSuite) TestApplyPendingChildrenDropsInvalidSchedule() {
	s.addSubnet(1)
	params := types.DefaultParams()
	params.PendingChildKeyCooldown = 10
	s.Require().NoError(s.keeper.SetParams(s.ctx, params))
	cold, a, b := accountKey(0), accountKey(1), accountKey(2)
	s.register(1, cold, a)
	s.register(1, cold, b)

	s.Require().NoError(s.keeper.ScheduleChildren(s.ctx, cold, a, 1, types.ChildList{{Proportion: 1, Hotkey: b}}))
	// b -> a lands first, so a -> b would close a cycle when it applies
	s.Require().NoError(s.keeper.SetChildren(s.ctx, cold, b, 1, types.ChildList{{Proportion: 1, Hotkey: a}}))

	s.Require().NoError(s.keeper.ApplyPendingChildren(s.ctx, 11))
	got, err := s.keeper.GetChildren(s.ctx, a, 1)
	s.Require().NoError(err)
	s.Require().Empty(got)
	_, found, err := s.keeper.GetPendingChildren(s.ctx, a, 1)
	s.Require().NoError(err)
	s.Require().False(found)
}
