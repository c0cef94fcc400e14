package cmd

import (
	"os"

	"cosmossdk.io/errors"
	"cosmossdk.io/log"
	cosmosMath "cosmossdk.io/math"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
)

const (
	flagGenesis          = "genesis"
	flagBlocks           = "blocks"
	flagEmissionPerBlock = "emission-per-block"
	flagLogLevel         = "log-level"
)

// NewRootCmd returns the subtensor-sim command. It replays a genesis file
// through the block driver on an in-memory store and prints the resulting
// neuron stats.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subtensor-sim",
		Short: "Run the subtensor emission cascade over an in-memory chain",
		Long: `subtensor-sim loads a subtensor genesis file into an in-memory store, credits every subnet
a constant emission per block and runs the block driver for the requested number of blocks.
Epochs, child key schedules, hotkey drains and storage sweeps run exactly as they do on chain.`,
		Example:      "subtensor-sim --genesis genesis.json --blocks 720 --emission-per-block 1000000000",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := getSimConfig(cmd)
			if err != nil {
				return err
			}
			filter, err := log.ParseLogLevel(cfg.logLevel)
			if err != nil {
				return errors.Wrapf(err, "invalid --%s", flagLogLevel)
			}
			logger := log.NewLogger(os.Stderr, log.FilterOption(filter))
			return RunSimulation(cmd.OutOrStdout(), logger, cfg)
		},
	}

	cmd.Flags().String(flagGenesis, "", "Path to a subtensor genesis JSON file; the default genesis is used when empty")
	cmd.Flags().String(flagBlocks, "100", "Number of blocks to simulate")
	cmd.Flags().String(flagEmissionPerBlock, "1000000000", "Emission credited to every subnet per block")
	cmd.Flags().String(flagLogLevel, "info", "Log level, e.g. info or subtensor:debug,*:error")
	return cmd
}

func getSimConfig(cmd *cobra.Command) (SimConfig, error) {
	var cfg SimConfig
	var err error
	if cfg.genesisPath, err = cmd.Flags().GetString(flagGenesis); err != nil {
		return cfg, err
	}
	if cfg.logLevel, err = cmd.Flags().GetString(flagLogLevel); err != nil {
		return cfg, err
	}

	blocks, err := cast.ToInt64E(cmd.Flag(flagBlocks).Value.String())
	if err != nil {
		return cfg, errors.Wrapf(err, "invalid --%s", flagBlocks)
	}
	if blocks <= 0 {
		return cfg, errors.Wrapf(errInvalidFlag, "--%s must be positive, got %d", flagBlocks, blocks)
	}
	cfg.blocks = blocks

	emissionStr := cmd.Flag(flagEmissionPerBlock).Value.String()
	emission, ok := cosmosMath.NewIntFromString(emissionStr)
	if !ok || emission.IsNegative() {
		return cfg, errors.Wrapf(errInvalidFlag, "--%s must be a non-negative integer, got %q", flagEmissionPerBlock, emissionStr)
	}
	cfg.emissionPerBlock = emission
	return cfg, nil
}
