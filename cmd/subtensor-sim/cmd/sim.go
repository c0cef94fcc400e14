package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"cosmossdk.io/errors"
	"cosmossdk.io/log"
	cosmosMath "cosmossdk.io/math"
	"cosmossdk.io/store/metrics"
	"cosmossdk.io/store/rootmulti"
	storetypes "cosmossdk.io/store/types"
	cmtproto "github.com/cometbft/cometbft/proto/tendermint/types"
	dbm "github.com/cosmos/cosmos-db"
	"github.com/cosmos/cosmos-sdk/runtime"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/opentensor/subtensor-sub008/x/subtensor/keeper"
	"github.com/opentensor/subtensor-sub008/x/subtensor/module"
	"github.com/opentensor/subtensor-sub008/x/subtensor/types"
)

var (
	errInvalidFlag     = errors.Register("subtensor-sim", 2, "invalid flag")
	errInvariantBroken = errors.Register("subtensor-sim", 3, "invariant broken")
)

type SimConfig struct {
	genesisPath      string
	blocks           int64
	emissionPerBlock cosmosMath.Int
	logLevel         string
}

// constantEmission credits every subnet the same quantum each block.
type constantEmission struct {
	amount cosmosMath.Int
}

func (c constantEmission) GetSubnetBlockEmission(_ context.Context, _ uint16) (cosmosMath.Int, error) {
	return c.amount, nil
}

// Simulator is a single-module chain over an in-memory multistore.
type Simulator struct {
	cms    *rootmulti.Store
	ctx    sdk.Context
	module module.AppModule
	keeper *keeper.Keeper
}

func NewSimulator(logger log.Logger, source types.EmissionSource) (*Simulator, error) {
	db := dbm.NewMemDB()
	cms := rootmulti.NewStore(db, logger, metrics.NewNoOpMetrics())
	key := storetypes.NewKVStoreKey(types.StoreKey)
	cms.MountStoreWithDB(key, storetypes.StoreTypeIAVL, nil)
	if err := cms.LoadLatestVersion(); err != nil {
		return nil, errors.Wrap(err, "failed to load store")
	}

	am := module.NewAppModule(keeper.NewKeeper(runtime.NewKVStoreService(key), source, keeper.DefaultConfig()))
	ctx := sdk.NewContext(cms, cmtproto.Header{ChainID: "subtensor-sim", Height: 1}, false, logger)
	return &Simulator{
		cms:    cms,
		ctx:    ctx,
		module: am,
		keeper: am.Keeper(),
	}, nil
}

// InitGenesis loads bz, or the default genesis when bz is empty, and commits
// it as the first version.
func (s *Simulator) InitGenesis(bz []byte) error {
	gs := types.DefaultGenesis()
	if len(bz) > 0 {
		if err := json.Unmarshal(bz, gs); err != nil {
			return errors.Wrap(err, "failed to parse genesis")
		}
	}
	if err := gs.Validate(); err != nil {
		return errors.Wrap(err, "invalid genesis")
	}
	if err := s.keeper.InitGenesis(s.ctx, gs); err != nil {
		return err
	}
	s.cms.Commit()
	return nil
}

// Run drives blocks from the current height + 1 up to and including
// the current height + n, committing after each.
func (s *Simulator) Run(n int64) error {
	start := s.ctx.BlockHeight()
	for height := start + 1; height <= start+n; height++ {
		s.ctx = s.ctx.WithBlockHeight(height).WithEventManager(sdk.NewEventManager())
		if err := s.module.BeginBlock(s.ctx); err != nil {
			return errors.Wrapf(err, "block %d", height)
		}
		s.cms.Commit()
	}
	if msg, broken := keeper.AllInvariants(*s.keeper)(s.ctx); broken {
		return errors.Wrapf(errInvariantBroken, "after block %d: %s", s.ctx.BlockHeight(), msg)
	}
	return nil
}

func (s *Simulator) Context() sdk.Context { return s.ctx }

func (s *Simulator) Keeper() *keeper.Keeper { return s.keeper }

// PrintReport writes the issuance and one table per subnet.
func (s *Simulator) PrintReport(out io.Writer) error {
	issuance, err := s.keeper.GetTotalIssuance(s.ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "block %d, total issuance %s\n", s.ctx.BlockHeight(), issuance)

	netuids, err := s.keeper.GetSubnets(s.ctx)
	if err != nil {
		return err
	}
	for _, netuid := range netuids {
		pending, err := s.keeper.GetPendingEmission(s.ctx, netuid)
		if err != nil {
			return err
		}
		count, err := s.keeper.GetSubnetNeuronCount(s.ctx, netuid)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "\nnetuid %d: %d neurons, pending emission %s\n", netuid, count, pending)

		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "UID\tHOTKEY\tSTAKE\tPENDING\tRANK\tTRUST\tCONSENSUS\tINCENTIVE\tDIVIDENDS\tEMISSION\tPERMIT")
		for uid := uint16(0); uid < count; uid++ {
			hotkey, err := s.keeper.GetHotkey(s.ctx, netuid, uid)
			if err != nil {
				return err
			}
			info, err := s.keeper.GetNeuronInfo(s.ctx, netuid, uid)
			if err != nil {
				return err
			}
			stake, err := s.keeper.GetTotalHotkeyStake(s.ctx, hotkey, netuid)
			if err != nil {
				return err
			}
			pendingHotkey, err := s.keeper.GetPendingHotkeyEmission(s.ctx, hotkey, netuid)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%d\t%d\t%d\t%d\t%s\t%t\n",
				uid, hotkey, stake, pendingHotkey,
				info.Rank, info.Trust, info.Consensus, info.Incentive, info.Dividends,
				info.Emission, info.ValidatorPermit)
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}
	return nil
}

// RunSimulation builds a simulator from cfg, runs it and prints the report to out.
func RunSimulation(out io.Writer, logger log.Logger, cfg SimConfig) error {
	var bz []byte
	if cfg.genesisPath != "" {
		var err error
		if bz, err = os.ReadFile(cfg.genesisPath); err != nil {
			return errors.Wrap(err, "failed to read genesis")
		}
	}

	sim, err := NewSimulator(logger, constantEmission{amount: cfg.emissionPerBlock})
	if err != nil {
		return err
	}
	if err := sim.InitGenesis(bz); err != nil {
		return err
	}
	logger.Info("simulation started", "blocks", cfg.blocks, "emission_per_block", cfg.emissionPerBlock.String())
	if err := sim.Run(cfg.blocks); err != nil {
		return err
	}
	return sim.PrintReport(out)
}
