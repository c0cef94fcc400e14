package main

import (
	"fmt"
	"os"

	"github.com/opentensor/subtensor-sub008/cmd/subtensor-sim/cmd"
)

func main() {
	rootCmd := cmd.NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(rootCmd.OutOrStderr(), err)
		os.Exit(1)
	}
}
