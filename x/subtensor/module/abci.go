package module

import (
	"context"
	"fmt"
	"time"

	"cosmossdk.io/errors"
	"github.com/cosmos/cosmos-sdk/telemetry"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/opentensor/subtensor-sub008/x/subtensor/types"
)

func BeginBlocker(ctx context.Context, am AppModule) error {
	defer telemetry.ModuleMeasureSince(types.ModuleName, time.Now(), telemetry.MetricKeyBeginBlocker)

	sdkCtx := sdk.UnwrapSDKContext(ctx)
	blockHeight := sdkCtx.BlockHeight()
	sdkCtx.Logger().Debug(
		fmt.Sprintf("\n ---------------- Subtensor BeginBlock %d ------------------- \n",
			blockHeight))

	if err := RunCoinbase(sdkCtx, &am.keeper, blockHeight); err != nil {
		sdkCtx.Logger().Error("Error running coinbase", "error", err)
		return errors.Wrapf(err, "coinbase error")
	}
	return nil
}
