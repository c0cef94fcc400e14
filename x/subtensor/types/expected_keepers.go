package types // noalias

import (
	context "context"

	"cosmossdk.io/math"
)

// EmissionSource supplies the per-block emission quantum of each subnet.
type EmissionSource interface {
	GetSubnetBlockEmission(ctx context.Context, netuid uint16) (math.Int, error)
}
