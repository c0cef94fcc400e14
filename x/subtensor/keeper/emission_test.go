package keeper_test

import (
	cosmosMath "cosmossdk.io/math"
	"github.com/opentensor/subtensor-sub008/x/subtensor/keeper"
	"github.com/opentensor/subtensor-sub008/x/subtensor/types"
)

/// ACCUMULATOR TESTS

func (s *KeeperTestSuite) TestAccumulateHotkeyEmissionWithoutParents() {
	s.addSubnet(1)
	hotkey := accountKey(1)
	s.register(1, accountKey(0), hotkey)
	s.Require().NoError(s.keeper.IncreaseStake(s.ctx, hotkey, accountKey(0), 1, sdkInt(100)))

	s.Require().NoError(s.keeper.AccumulateHotkeyEmission(s.ctx, hotkey, 1, sdkInt(7), sdkInt(30)))
	s.Require().NoError(s.keeper.AccumulateHotkeyEmission(s.ctx, hotkey, 1, sdkInt(3), sdkInt(0)))

	pending, err := s.keeper.GetPendingHotkeyEmission(s.ctx, hotkey, 1)
	s.Require().NoError(err)
	s.requireInt(40, pending)
}

func (s *KeeperTestSuite) TestAccumulateHotkeyEmissionSharesWithParents() {
	s.addSubnet(1)
	cold, parent, child := accountKey(0), accountKey(1), accountKey(2)
	s.register(1, cold, parent)
	s.register(1, cold, child)
	s.Require().NoError(s.keeper.IncreaseStake(s.ctx, parent, cold, 1, sdkInt(1000)))
	s.Require().NoError(s.keeper.IncreaseStake(s.ctx, child, cold, 1, sdkInt(501)))
	s.Require().NoError(s.keeper.SetChildren(s.ctx, cold, parent, 1, types.ChildList{
		{Proportion: halfProportion, Hotkey: child},
	}))

	// child votes with 501 own + 499 from the parent
	s.Require().NoError(s.keeper.AccumulateHotkeyEmission(s.ctx, child, 1, sdkInt(10), sdkInt(100)))

	parentPending, err := s.keeper.GetPendingHotkeyEmission(s.ctx, parent, 1)
	s.Require().NoError(err)
	childPending, err := s.keeper.GetPendingHotkeyEmission(s.ctx, child, 1)
	s.Require().NoError(err)
	s.requireInt(49, parentPending)
	s.requireInt(61, childPending)
	s.requireInt(110, parentPending.Add(childPending))
}

func (s *KeeperTestSuite) TestAccumulateHotkeyEmissionOneHopOnly() {
	s.addSubnet(1)
	cold, grandparent, parent, child := accountKey(0), accountKey(1), accountKey(2), accountKey(3)
	for _, h := range []types.AccountKey{grandparent, parent, child} {
		s.register(1, cold, h)
		s.Require().NoError(s.keeper.IncreaseStake(s.ctx, h, cold, 1, sdkInt(1000)))
	}
	s.Require().NoError(s.keeper.SetChildren(s.ctx, cold, grandparent, 1, types.ChildList{{Proportion: halfProportion, Hotkey: parent}}))
	s.Require().NoError(s.keeper.SetChildren(s.ctx, cold, parent, 1, types.ChildList{{Proportion: halfProportion, Hotkey: child}}))

	s.Require().NoError(s.keeper.AccumulateHotkeyEmission(s.ctx, child, 1, sdkInt(0), sdkInt(1000)))

	grandparentPending, err := s.keeper.GetPendingHotkeyEmission(s.ctx, grandparent, 1)
	s.Require().NoError(err)
	s.Require().True(grandparentPending.IsZero())

	total := cosmosMath.ZeroInt()
	for _, h := range []types.AccountKey{parent, child} {
		p, err := s.keeper.GetPendingHotkeyEmission(s.ctx, h, 1)
		s.Require().NoError(err)
		s.Require().True(p.IsPositive())
		total = total.Add(p)
	}
	s.requireInt(1000, total)
}

func (s *KeeperTestSuite) TestDrainIndexAllocatedOnce() {
	s.addSubnet(1)
	a, b := accountKey(1), accountKey(2)

	s.Require().NoError(s.keeper.AccumulateHotkeyEmission(s.ctx, a, 1, sdkInt(5), sdkInt(0)))
	s.Require().NoError(s.keeper.AccumulateHotkeyEmission(s.ctx, b, 1, sdkInt(5), sdkInt(0)))
	s.Require().NoError(s.keeper.AccumulateHotkeyEmission(s.ctx, a, 1, sdkInt(5), sdkInt(0)))

	indexA, found, err := s.keeper.GetHotkeyDrainIndex(s.ctx, a, 1)
	s.Require().NoError(err)
	s.Require().True(found)
	indexB, found, err := s.keeper.GetHotkeyDrainIndex(s.ctx, b, 1)
	s.Require().NoError(err)
	s.Require().True(found)
	s.Require().Equal(uint64(0), indexA)
	s.Require().Equal(uint64(1), indexB)
}

/// DRAIN TESTS

// setupDrain registers hotkey owned by owner with nominators staking 300 and 700
// and a pending emission of 1000.
func (s *KeeperTestSuite) setupDrain() (owner, hotkey, n1, n2 types.AccountKey) {
	owner, hotkey, n1, n2 = accountKey(0), accountKey(1), accountKey(2), accountKey(3)
	s.addSubnet(1)
	s.register(1, owner, hotkey)
	s.Require().NoError(s.keeper.SetDelegateTake(s.ctx, owner, hotkey, 6553))
	s.Require().NoError(s.keeper.IncreaseStake(s.ctx, hotkey, n1, 1, sdkInt(300)))
	s.Require().NoError(s.keeper.IncreaseStake(s.ctx, hotkey, n2, 1, sdkInt(700)))
	s.Require().NoError(s.keeper.AccumulateHotkeyEmission(s.ctx, hotkey, 1, sdkInt(1000), sdkInt(0)))
	return owner, hotkey, n1, n2
}

func (s *KeeperTestSuite) TestDrainHotkeyEmission() {
	owner, hotkey, n1, n2 := s.setupDrain()

	drained, err := s.keeper.DrainHotkeyEmission(s.ctx, hotkey, 1, 50)
	s.Require().NoError(err)
	s.requireInt(1000, drained)

	// take = floor(1000 * 6553 / 65535) = 99, 901 left for nominators
	for _, tc := range []struct {
		coldkey  types.AccountKey
		expected int64
	}{
		{n1, 300 + 270},
		{n2, 700 + 630},
		{owner, 100},
	} {
		stake, err := s.keeper.GetStake(s.ctx, hotkey, tc.coldkey, 1)
		s.Require().NoError(err)
		s.requireInt(tc.expected, stake)
	}
	total, err := s.keeper.GetTotalHotkeyStake(s.ctx, hotkey, 1)
	s.Require().NoError(err)
	s.requireInt(2000, total)

	pending, err := s.keeper.GetPendingHotkeyEmission(s.ctx, hotkey, 1)
	s.Require().NoError(err)
	s.Require().True(pending.IsZero())
	lastDrain, err := s.keeper.GetLastHotkeyEmissionDrain(s.ctx, hotkey, 1)
	s.Require().NoError(err)
	s.Require().Equal(int64(50), lastDrain)

	// nothing left to drain
	drained, err = s.keeper.DrainHotkeyEmission(s.ctx, hotkey, 1, 51)
	s.Require().NoError(err)
	s.Require().True(drained.IsZero())
}

func (s *KeeperTestSuite) TestDrainSkipsNominatorsThatAddedStakeSinceLastDrain() {
	owner, hotkey, n1, n2 := s.setupDrain()
	s.setBlock(10)
	s.Require().NoError(s.keeper.AddStake(s.ctx, n2, hotkey, 1, sdkInt(1)))

	drained, err := s.keeper.DrainHotkeyEmission(s.ctx, hotkey, 1, 20)
	s.Require().NoError(err)
	s.requireInt(1000, drained)

	// n1 share = floor(901 * 300 / 1001) = 270
	stake, err := s.keeper.GetStake(s.ctx, hotkey, n1, 1)
	s.Require().NoError(err)
	s.requireInt(570, stake)
	stake, err = s.keeper.GetStake(s.ctx, hotkey, n2, 1)
	s.Require().NoError(err)
	s.requireInt(701, stake)
	stake, err = s.keeper.GetStake(s.ctx, hotkey, owner, 1)
	s.Require().NoError(err)
	s.requireInt(730, stake)
}

func (s *KeeperTestSuite) TestDrainPaysNominatorsThatRemovedStake() {
	owner, hotkey, n1, n2 := s.setupDrain()
	s.setBlock(10)
	s.Require().NoError(s.keeper.RemoveStake(s.ctx, n2, hotkey, 1, sdkInt(100)))
	marker, err := s.keeper.GetLastAddStakeIncrease(s.ctx, hotkey, n2, 1)
	s.Require().NoError(err)
	s.Require().Equal(int64(0), marker)

	drained, err := s.keeper.DrainHotkeyEmission(s.ctx, hotkey, 1, 20)
	s.Require().NoError(err)
	s.requireInt(1000, drained)

	// 901 over 900 staked: n1 floor(300.3), n2 floor(600.6), the dust goes to the owner
	for _, tc := range []struct {
		coldkey  types.AccountKey
		expected int64
	}{
		{n1, 300 + 300},
		{n2, 600 + 600},
		{owner, 100},
	} {
		stake, err := s.keeper.GetStake(s.ctx, hotkey, tc.coldkey, 1)
		s.Require().NoError(err)
		s.requireInt(tc.expected, stake)
	}
}

func (s *KeeperTestSuite) TestDrainDueHotkeys() {
	_, hotkey, _, _ := s.setupDrain()
	other := accountKey(4)
	s.Require().NoError(s.keeper.AccumulateHotkeyEmission(s.ctx, other, 1, sdkInt(10), sdkInt(0)))

	period := int64(keeper.DefaultConfig().DrainPeriod)
	// the first pair got index 0, the second index 1
	total, err := s.keeper.DrainDueHotkeys(s.ctx, period+1)
	s.Require().NoError(err)
	s.requireInt(10, total)
	pending, err := s.keeper.GetPendingHotkeyEmission(s.ctx, hotkey, 1)
	s.Require().NoError(err)
	s.requireInt(1000, pending)

	total, err = s.keeper.DrainDueHotkeys(s.ctx, period)
	s.Require().NoError(err)
	s.requireInt(1000, total)
	pending, err = s.keeper.GetPendingHotkeyEmission(s.ctx, hotkey, 1)
	s.Require().NoError(err)
	s.Require().True(pending.IsZero())

	// a later accumulation keeps the slot
	s.Require().NoError(s.keeper.AccumulateHotkeyEmission(s.ctx, hotkey, 1, sdkInt(3), sdkInt(0)))
	total, err = s.keeper.DrainDueHotkeys(s.ctx, 2*period)
	s.Require().NoError(err)
	s.requireInt(3, total)
}

func (s *KeeperTestSuite) TestDrainDueHotkeysDropsRemovedSubnets() {
	_, hotkey, _, _ := s.setupDrain()
	s.Require().NoError(s.keeper.RemoveSubnet(s.ctx, 1))

	total, err := s.keeper.DrainDueHotkeys(s.ctx, 0)
	s.Require().NoError(err)
	s.Require().True(total.IsZero())

	_, found, err := s.keeper.GetHotkeyDrainIndex(s.ctx, hotkey, 1)
	s.Require().NoError(err)
	s.Require().False(found)
}
