package keeper_test

import (
	"math"

	"github.com/opentensor/subtensor-sub008/x/subtensor/types"
)

// drainSweeps runs ProcessSweeps with quota until the queue is empty and
// returns how many calls it took.
func (s *KeeperTestSuite) drainSweeps(quota uint64) int {
	for calls := 1; calls <= 10_000; calls++ {
		_, err := s.keeper.ProcessSweeps(s.ctx, quota)
		s.Require().NoError(err)
		jobs, err := s.keeper.GetSweepJobs(s.ctx)
		s.Require().NoError(err)
		if len(jobs) == 0 {
			return calls
		}
	}
	s.FailNow("sweeps did not finish")
	return 0
}

/// MECHANISM TESTS

func (s *KeeperTestSuite) TestSetMechanismCount() {
	s.addSubnet(1)
	cold := accountKey(0)
	s.register(1, cold, accountKey(1))
	s.register(1, cold, accountKey(2))

	s.setBlock(4)
	s.Require().NoError(s.keeper.SetMechanismCount(s.ctx, 1, 2))

	hp, err := s.keeper.GetSubnetHyperparams(s.ctx, 1)
	s.Require().NoError(err)
	s.Require().Equal(uint8(2), hp.MechanismCount)
	lastUpdate, err := s.keeper.GetLastUpdate(s.ctx, 1, 1, 1)
	s.Require().NoError(err)
	s.Require().Equal(int64(4), lastUpdate)

	s.setBlock(5)
	s.Require().NoError(s.keeper.SetWeights(s.ctx, 1, 1, accountKey(1), []uint16{1}, []uint16{1}))

	err = s.keeper.SetMechanismCount(s.ctx, 1, 0)
	s.Require().ErrorIs(err, types.ErrInvalidMechanismCount)
	err = s.keeper.SetMechanismCount(s.ctx, 1, types.DefaultParams().MaxMechanismCount+1)
	s.Require().ErrorIs(err, types.ErrInvalidMechanismCount)
	err = s.keeper.SetMechanismCount(s.ctx, 9, 1)
	s.Require().ErrorIs(err, types.ErrSubnetNotExists)
}

func (s *KeeperTestSuite) TestSetEmissionSplit() {
	s.addSubnet(1)
	s.Require().NoError(s.keeper.SetMechanismCount(s.ctx, 1, 2))

	s.Require().NoError(s.keeper.SetEmissionSplit(s.ctx, 1, []uint16{30000, math.MaxUint16 - 30000}))
	hp, err := s.keeper.GetSubnetHyperparams(s.ctx, 1)
	s.Require().NoError(err)
	s.Require().Equal([]uint16{30000, math.MaxUint16 - 30000}, hp.EmissionSplit)

	err = s.keeper.SetEmissionSplit(s.ctx, 1, []uint16{1, 2})
	s.Require().ErrorIs(err, types.ErrInvalidEmissionSplit)
	err = s.keeper.SetEmissionSplit(s.ctx, 1, []uint16{math.MaxUint16})
	s.Require().ErrorIs(err, types.ErrInvalidEmissionSplit)

	// changing the count resets the split to even
	s.Require().NoError(s.keeper.SetMechanismCount(s.ctx, 1, 3))
	hp, err = s.keeper.GetSubnetHyperparams(s.ctx, 1)
	s.Require().NoError(err)
	s.Require().Empty(hp.EmissionSplit)
}

func (s *KeeperTestSuite) TestShrinkMechanismCountSweepsRemovedSubSubnets() {
	s.addSubnet(1)
	cold := accountKey(0)
	s.register(1, cold, accountKey(1))
	s.register(1, cold, accountKey(2))
	s.Require().NoError(s.keeper.SetMechanismCount(s.ctx, 1, 2))
	s.setBlock(2)
	s.Require().NoError(s.keeper.SetWeights(s.ctx, 1, 0, accountKey(1), []uint16{1}, []uint16{1}))
	s.Require().NoError(s.keeper.SetWeights(s.ctx, 1, 1, accountKey(1), []uint16{1}, []uint16{1}))

	s.Require().NoError(s.keeper.SetMechanismCount(s.ctx, 1, 1))
	erasing, err := s.keeper.HasPendingIndexSweep(s.ctx, types.StorageIndex(1, 1))
	s.Require().NoError(err)
	s.Require().True(erasing)

	err = s.keeper.SetMechanismCount(s.ctx, 1, 2)
	s.Require().ErrorIs(err, types.ErrSubnetBeingErased)

	s.drainSweeps(types.DefaultParams().SweepBatchSize)

	row, err := s.keeper.GetWeights(s.ctx, 1, 1, 0)
	s.Require().NoError(err)
	s.Require().Empty(row)
	lastUpdate, err := s.keeper.GetLastUpdate(s.ctx, 1, 1, 0)
	s.Require().NoError(err)
	s.Require().Zero(lastUpdate)

	// sub-subnet 0 is untouched
	row, err = s.keeper.GetWeights(s.ctx, 1, 0, 0)
	s.Require().NoError(err)
	s.Require().Len(row, 1)

	s.Require().NoError(s.keeper.SetMechanismCount(s.ctx, 1, 2))
}

/// SWEEP TESTS

func (s *KeeperTestSuite) TestRemoveSubnetIsSweptInBatches() {
	s.addSubnet(1)
	s.addSubnet(2)
	cold := accountKey(0)
	for i := byte(1); i <= 4; i++ {
		s.register(1, cold, accountKey(i))
		s.Require().NoError(s.keeper.IncreaseStake(s.ctx, accountKey(i), cold, 1, sdkInt(100)))
	}
	s.register(2, cold, accountKey(1))
	s.Require().NoError(s.keeper.IncreaseStake(s.ctx, accountKey(1), cold, 2, sdkInt(55)))
	s.Require().NoError(s.keeper.SetChildren(s.ctx, cold, accountKey(1), 1, types.ChildList{{Proportion: 1, Hotkey: accountKey(2)}}))
	s.setBlock(2)
	s.Require().NoError(s.keeper.SetWeights(s.ctx, 1, 0, accountKey(1), []uint16{1, 2}, []uint16{1, 1}))
	s.Require().NoError(s.keeper.AccumulateHotkeyEmission(s.ctx, accountKey(1), 1, sdkInt(5), sdkInt(0)))

	s.Require().NoError(s.keeper.RemoveSubnet(s.ctx, 1))
	exists, err := s.keeper.SubnetExists(s.ctx, 1)
	s.Require().NoError(err)
	s.Require().False(exists)

	erasing, err := s.keeper.HasPendingSweep(s.ctx, 1)
	s.Require().NoError(err)
	s.Require().True(erasing)
	err = s.keeper.AddSubnet(s.ctx, 1, types.DefaultSubnetHyperparams())
	s.Require().ErrorIs(err, types.ErrSubnetBeingErased)

	// one entry per call takes many calls but terminates
	calls := s.drainSweeps(1)
	s.Require().Greater(calls, 10)

	for i := byte(1); i <= 4; i++ {
		stake, err := s.keeper.GetStake(s.ctx, accountKey(i), cold, 1)
		s.Require().NoError(err)
		s.Require().True(stake.IsZero())
		total, err := s.keeper.GetTotalHotkeyStake(s.ctx, accountKey(i), 1)
		s.Require().NoError(err)
		s.Require().True(total.IsZero())
		_, err = s.keeper.GetUid(s.ctx, 1, accountKey(i))
		s.Require().ErrorIs(err, types.ErrHotkeyNotRegistered)
	}
	row, err := s.keeper.GetWeights(s.ctx, 1, 0, 0)
	s.Require().NoError(err)
	s.Require().Empty(row)
	children, err := s.keeper.GetChildren(s.ctx, accountKey(1), 1)
	s.Require().NoError(err)
	s.Require().Empty(children)
	parents, err := s.keeper.GetParents(s.ctx, accountKey(2), 1)
	s.Require().NoError(err)
	s.Require().Empty(parents)
	pending, err := s.keeper.GetPendingHotkeyEmission(s.ctx, accountKey(1), 1)
	s.Require().NoError(err)
	s.Require().True(pending.IsZero())

	// the other subnet keeps its state
	stake, err := s.keeper.GetStake(s.ctx, accountKey(1), cold, 2)
	s.Require().NoError(err)
	s.requireInt(55, stake)
	uid, err := s.keeper.GetUid(s.ctx, 2, accountKey(1))
	s.Require().NoError(err)
	s.Require().Equal(uint16(0), uid)

	s.Require().NoError(s.keeper.AddSubnet(s.ctx, 1, types.DefaultSubnetHyperparams()))
	count, err := s.keeper.GetSubnetNeuronCount(s.ctx, 1)
	s.Require().NoError(err)
	s.Require().Zero(count)
}

func (s *KeeperTestSuite) TestProcessSweepsRespectsQuota() {
	s.addSubnet(1)
	cold := accountKey(0)
	for i := byte(1); i <= 5; i++ {
		s.register(1, cold, accountKey(i))
	}
	s.Require().NoError(s.keeper.RemoveSubnet(s.ctx, 1))

	visited, err := s.keeper.ProcessSweeps(s.ctx, 3)
	s.Require().NoError(err)
	s.Require().Equal(uint64(3), visited)

	jobs, err := s.keeper.GetSweepJobs(s.ctx)
	s.Require().NoError(err)
	s.Require().NotEmpty(jobs)
	s.Require().True(jobs[0].HasCursor)
}
