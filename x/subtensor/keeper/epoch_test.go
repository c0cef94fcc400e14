package keeper_test

import (
	cosmosMath "cosmossdk.io/math"
	"github.com/opentensor/subtensor-sub008/x/subtensor/types"
)

// setupEpochSubnet registers three neurons with equal stake on netuid 1 at block 1
// and has each of them weigh the other two at block 2.
func (s *KeeperTestSuite) setupEpochSubnet() []types.AccountKey {
	s.addSubnet(1)
	cold := accountKey(0)
	hotkeys := []types.AccountKey{accountKey(1), accountKey(2), accountKey(3)}
	for _, h := range hotkeys {
		s.register(1, cold, h)
		s.Require().NoError(s.keeper.IncreaseStake(s.ctx, h, cold, 1, sdkInt(1000)))
	}
	s.setBlock(2)
	for uid, h := range hotkeys {
		others := make([]uint16, 0, 2)
		for j := range hotkeys {
			if j != uid {
				others = append(others, uint16(j))
			}
		}
		s.Require().NoError(s.keeper.SetWeights(s.ctx, 1, 0, h, others, []uint16{1, 1}))
	}
	return hotkeys
}

func (s *KeeperTestSuite) pendingHotkeyTotal(netuid uint16, hotkeys []types.AccountKey) cosmosMath.Int {
	total := cosmosMath.ZeroInt()
	for _, h := range hotkeys {
		p, err := s.keeper.GetPendingHotkeyEmission(s.ctx, h, netuid)
		s.Require().NoError(err)
		total = total.Add(p)
	}
	return total
}

func (s *KeeperTestSuite) TestRunEpochWithoutPermitsFollowsStake() {
	hotkeys := s.setupEpochSubnet()
	s.Require().NoError(s.keeper.AddPendingEmission(s.ctx, 1, sdkInt(1000)))

	s.setBlock(3)
	terms, err := s.keeper.RunEpoch(s.ctx, 1, 3)
	s.Require().NoError(err)
	s.Require().Len(terms.Neurons, 3)
	s.requireInt(999, terms.TotalEmission())

	// no neuron held a permit, so nobody's weights count and emission follows stake
	for uid, h := range hotkeys {
		info, err := s.keeper.GetNeuronInfo(s.ctx, 1, uint16(uid))
		s.Require().NoError(err)
		s.Require().True(info.ValidatorPermit)
		s.Require().Equal(int64(1), info.RegisteredAt)
		s.requireInt(333, info.Emission)

		pending, err := s.keeper.GetPendingHotkeyEmission(s.ctx, h, 1)
		s.Require().NoError(err)
		s.requireInt(333, pending)
	}

	// truncation dust stays with the subnet
	pending, err := s.keeper.GetPendingEmission(s.ctx, 1)
	s.Require().NoError(err)
	s.requireInt(1, pending)
}

func (s *KeeperTestSuite) TestRunEpochConservesEmission() {
	hotkeys := s.setupEpochSubnet()
	s.Require().NoError(s.keeper.AddPendingEmission(s.ctx, 1, sdkInt(1000)))
	s.setBlock(3)
	first, err := s.keeper.RunEpoch(s.ctx, 1, 3)
	s.Require().NoError(err)

	// permits are held now, so the second epoch runs consensus on the weights
	s.Require().NoError(s.keeper.AddPendingEmission(s.ctx, 1, sdkInt(10_000)))
	s.setBlock(4)
	second, err := s.keeper.RunEpoch(s.ctx, 1, 4)
	s.Require().NoError(err)

	distributed := first.TotalEmission().Add(second.TotalEmission())
	pending, err := s.keeper.GetPendingEmission(s.ctx, 1)
	s.Require().NoError(err)
	s.requireInt(11_000, distributed.Add(pending))
	s.Require().True(distributed.Equal(s.pendingHotkeyTotal(1, hotkeys)))

	for uid := range hotkeys {
		info, err := s.keeper.GetNeuronInfo(s.ctx, 1, uint16(uid))
		s.Require().NoError(err)
		s.Require().True(info.Active)
		s.Require().NotZero(info.Rank)
		s.Require().NotZero(info.Consensus)

		incentive, err := s.keeper.GetMechanismIncentive(s.ctx, 1, 0, uint16(uid))
		s.Require().NoError(err)
		s.Require().Equal(info.Incentive, incentive)
		bonds, err := s.keeper.GetBonds(s.ctx, 1, 0, uint16(uid))
		s.Require().NoError(err)
		s.Require().NotEmpty(bonds)
	}
}

func (s *KeeperTestSuite) TestRunEpochWithSubSubnets() {
	hotkeys := s.setupEpochSubnet()
	s.setBlock(3)
	s.Require().NoError(s.keeper.SetMechanismCount(s.ctx, 1, 2))
	s.Require().NoError(s.keeper.AddPendingEmission(s.ctx, 1, sdkInt(1000)))

	terms, err := s.keeper.RunEpoch(s.ctx, 1, 3)
	s.Require().NoError(err)
	s.Require().Len(terms.Mechanisms, 2)

	pending, err := s.keeper.GetPendingEmission(s.ctx, 1)
	s.Require().NoError(err)
	s.requireInt(1000, terms.TotalEmission().Add(pending))
	s.Require().True(terms.TotalEmission().Equal(s.pendingHotkeyTotal(1, hotkeys)))
}

func (s *KeeperTestSuite) TestRunEpochEmptySubnet() {
	s.addSubnet(1)
	s.Require().NoError(s.keeper.AddPendingEmission(s.ctx, 1, sdkInt(500)))

	terms, err := s.keeper.RunEpoch(s.ctx, 1, 10)
	s.Require().NoError(err)
	s.Require().Empty(terms.Neurons)

	pending, err := s.keeper.GetPendingEmission(s.ctx, 1)
	s.Require().NoError(err)
	s.requireInt(500, pending)
}

func (s *KeeperTestSuite) TestRunEpochMissingSubnet() {
	_, err := s.keeper.RunEpoch(s.ctx, 4, 10)
	s.Require().ErrorIs(err, types.ErrSubnetNotExists)
}
