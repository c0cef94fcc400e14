package keeper_test

import (
	storetypes "cosmossdk.io/store/types"
	"github.com/cosmos/cosmos-sdk/runtime"
	"github.com/cosmos/cosmos-sdk/testutil"
	"github.com/opentensor/subtensor-sub008/x/subtensor/keeper"
	"github.com/opentensor/subtensor-sub008/x/subtensor/types"
)

func (s *KeeperTestSuite) genesisFixture() *types.GenesisState {
	cold := accountKey(0)
	gs := types.DefaultGenesis()
	gs.TotalIssuance = sdkInt(12345)
	gs.Subnets = []types.GenesisSubnet{
		{Netuid: 1, Hyperparams: types.DefaultSubnetHyperparams()},
		{Netuid: 2, Hyperparams: types.DefaultSubnetHyperparams()},
	}
	gs.Neurons = []types.GenesisNeuron{
		{Netuid: 1, Hotkey: accountKey(1), Coldkey: cold},
		{Netuid: 1, Hotkey: accountKey(2), Coldkey: cold},
		{Netuid: 2, Hotkey: accountKey(1), Coldkey: cold},
	}
	gs.Stakes = []types.GenesisStake{
		{Hotkey: accountKey(1), Coldkey: cold, Netuid: 1, Amount: sdkInt(1000)},
		{Hotkey: accountKey(1), Coldkey: accountKey(9), Netuid: 1, Amount: sdkInt(50)},
		{Hotkey: accountKey(2), Coldkey: cold, Netuid: 1, Amount: sdkInt(300)},
	}
	gs.Children = []types.GenesisChildren{
		{Hotkey: accountKey(1), Netuid: 1, Children: types.ChildList{{Proportion: halfProportion, Hotkey: accountKey(2)}}},
	}
	gs.DelegateTakes = []types.GenesisDelegateTake{{Hotkey: accountKey(1), Take: 1000}}
	gs.Weights = []types.GenesisWeights{
		{Netuid: 1, SubId: 0, Hotkey: accountKey(1), Uids: []uint16{1}, Values: []uint16{65535}},
	}
	return gs
}

func (s *KeeperTestSuite) TestInitGenesis() {
	gs := s.genesisFixture()
	s.Require().NoError(gs.Validate())
	s.Require().NoError(s.keeper.InitGenesis(s.ctx, gs))

	issuance, err := s.keeper.GetTotalIssuance(s.ctx)
	s.Require().NoError(err)
	s.requireInt(12345, issuance)

	total, err := s.keeper.GetTotalHotkeyStake(s.ctx, accountKey(1), 1)
	s.Require().NoError(err)
	s.requireInt(1050, total)
	// genesis stake is not a manual stake
	marker, err := s.keeper.GetLastAddStakeIncrease(s.ctx, accountKey(1), accountKey(9), 1)
	s.Require().NoError(err)
	s.Require().Zero(marker)

	parents, err := s.keeper.GetParents(s.ctx, accountKey(2), 1)
	s.Require().NoError(err)
	s.Require().Equal(types.ChildList{{Proportion: halfProportion, Hotkey: accountKey(1)}}, parents)

	take, err := s.keeper.GetDelegateTake(s.ctx, accountKey(1))
	s.Require().NoError(err)
	s.Require().Equal(uint16(1000), take)

	row, err := s.keeper.GetWeights(s.ctx, 1, 0, 0)
	s.Require().NoError(err)
	s.Require().Len(row, 1)

	_, broken := keeperInvariants(s)
	s.Require().False(broken)
}

func (s *KeeperTestSuite) TestInitGenesisRejectsCycle() {
	gs := s.genesisFixture()
	gs.Children = append(gs.Children, types.GenesisChildren{
		Hotkey:   accountKey(2),
		Netuid:   1,
		Children: types.ChildList{{Proportion: 1, Hotkey: accountKey(1)}},
	})
	s.Require().NoError(gs.Validate())
	err := s.keeper.InitGenesis(s.ctx, gs)
	s.Require().ErrorIs(err, types.ErrChildCycle)
}

func (s *KeeperTestSuite) TestExportGenesisRoundTrip() {
	gs := s.genesisFixture()
	s.Require().NoError(s.keeper.InitGenesis(s.ctx, gs))

	exported, err := s.keeper.ExportGenesis(s.ctx)
	s.Require().NoError(err)
	s.Require().NoError(exported.Validate())
	s.Require().Len(exported.Subnets, 2)
	s.Require().Len(exported.Neurons, 3)
	s.Require().Len(exported.Stakes, 3)
	s.Require().Len(exported.Children, 1)
	s.Require().Len(exported.DelegateTakes, 1)
	s.Require().Len(exported.Weights, 1)

	// import into a fresh store and export again
	key := storetypes.NewKVStoreKey(types.StoreKey)
	ctx := testutil.DefaultContextWithDB(s.T(), key, storetypes.NewTransientStoreKey("transient_roundtrip")).Ctx.WithBlockHeight(1)
	fresh := keeper.NewKeeper(runtime.NewKVStoreService(key), s.emissionSource, keeper.DefaultConfig())
	s.Require().NoError(fresh.InitGenesis(ctx, exported))

	again, err := fresh.ExportGenesis(ctx)
	s.Require().NoError(err)
	s.Require().Equal(exported.Subnets, again.Subnets)
	s.Require().Equal(exported.Neurons, again.Neurons)
	s.Require().Equal(exported.Children, again.Children)
	s.Require().Equal(exported.DelegateTakes, again.DelegateTakes)
	s.Require().Equal(exported.Weights, again.Weights)
	s.Require().Equal(len(exported.Stakes), len(again.Stakes))
	for i := range exported.Stakes {
		s.Require().Equal(exported.Stakes[i].Hotkey, again.Stakes[i].Hotkey)
		s.Require().True(exported.Stakes[i].Amount.Equal(again.Stakes[i].Amount))
	}
	s.Require().True(exported.TotalIssuance.Equal(again.TotalIssuance))
}

func (s *KeeperTestSuite) TestExportGenesisSkipsRemovedSubnets() {
	s.Require().NoError(s.keeper.InitGenesis(s.ctx, s.genesisFixture()))
	s.Require().NoError(s.keeper.RemoveSubnet(s.ctx, 1))

	exported, err := s.keeper.ExportGenesis(s.ctx)
	s.Require().NoError(err)
	s.Require().NoError(exported.Validate())
	s.Require().Len(exported.Subnets, 1)
	s.Require().Empty(exported.Stakes)
	s.Require().Empty(exported.Children)
}
