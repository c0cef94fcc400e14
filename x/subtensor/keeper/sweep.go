package keeper

import (
	"context"

	"cosmossdk.io/collections"
	errorsmod "cosmossdk.io/errors"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/opentensor/subtensor-sub008/x/subtensor/metrics"
	"github.com/opentensor/subtensor-sub008/x/subtensor/types"
)

// EnqueueSweep appends job to the queue of pending erasures.
func (k *Keeper) EnqueueSweep(ctx context.Context, job types.SweepJob) error {
	id, err := k.nextSweepJobId.Next(ctx)
	if err != nil {
		return err
	}
	job.Cursor, job.HasCursor = nil, false
	return k.sweepJobs.Set(ctx, id, job)
}

func (k *Keeper) enqueueMechanismSweeps(ctx context.Context, netuid Netuid, subId uint8) error {
	index := types.StorageIndex(netuid, subId)
	for _, kind := range []types.SweepKind{
		types.SweepWeights,
		types.SweepBonds,
		types.SweepLastUpdate,
		types.SweepMechanismIncentive,
	} {
		if err := k.EnqueueSweep(ctx, types.SweepJob{Kind: kind, Netuid: netuid, Index: index}); err != nil {
			return err
		}
	}
	return nil
}

// GetSweepJobs returns the pending jobs in the order they will run.
func (k *Keeper) GetSweepJobs(ctx context.Context) ([]types.SweepJob, error) {
	iter, err := k.sweepJobs.Iterate(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer iter.Close()
	return iter.Values()
}

// HasPendingSweep reports whether any erasure of netuid is still queued.
func (k *Keeper) HasPendingSweep(ctx context.Context, netuid Netuid) (bool, error) {
	return k.anySweepJob(ctx, func(job types.SweepJob) bool {
		return job.Netuid == netuid
	})
}

// HasPendingIndexSweep reports whether any erasure of a sub-subnet storage index
// is still queued.
func (k *Keeper) HasPendingIndexSweep(ctx context.Context, index uint16) (bool, error) {
	return k.anySweepJob(ctx, func(job types.SweepJob) bool {
		return isIndexSweep(job.Kind) && job.Index == index
	})
}

func (k *Keeper) anySweepJob(ctx context.Context, match func(types.SweepJob) bool) (bool, error) {
	found := false
	err := k.sweepJobs.Walk(ctx, nil, func(_ uint64, job types.SweepJob) (bool, error) {
		found = match(job)
		return found, nil
	})
	return found, err
}

func isIndexSweep(kind types.SweepKind) bool {
	switch kind {
	case types.SweepWeights, types.SweepBonds, types.SweepLastUpdate, types.SweepMechanismIncentive:
		return true
	}
	return false
}

// ProcessSweeps advances the queued erasures in order, visiting at most quota
// storage entries. It returns the number of entries visited.
func (k *Keeper) ProcessSweeps(ctx context.Context, quota uint64) (uint64, error) {
	iter, err := k.sweepJobs.Iterate(ctx, nil)
	if err != nil {
		return 0, err
	}
	jobs, err := iter.KeyValues()
	iter.Close()
	if err != nil {
		return 0, err
	}

	sdkCtx := sdk.UnwrapSDKContext(ctx)
	remaining := quota
	pending := len(jobs)
	for _, kv := range jobs {
		if remaining == 0 {
			break
		}
		job := kv.Value
		scanned, done, err := k.sweepStep(ctx, &job, remaining)
		if err != nil {
			return quota - remaining, errorsmod.Wrapf(err, "sweep %s of netuid %d", job.Kind, job.Netuid)
		}
		remaining -= scanned
		if !done {
			if err := k.sweepJobs.Set(ctx, kv.Key, job); err != nil {
				return quota - remaining, err
			}
			continue
		}
		if err := k.sweepJobs.Remove(ctx, kv.Key); err != nil {
			return quota - remaining, err
		}
		pending--
		types.EmitSweepCompletedEvent(sdkCtx, job)
	}
	metrics.SetPendingSweepJobs(pending)
	return quota - remaining, nil
}

func (k *Keeper) sweepStep(ctx context.Context, job *types.SweepJob, quota uint64) (uint64, bool, error) {
	netuidMatch := func(key collections.Pair[AccountKey, Netuid]) bool { return key.K2() == job.Netuid }
	switch job.Kind {
	case types.SweepWeights:
		return sweepPrefixed(ctx, k.weights, job.Index, job, quota)
	case types.SweepBonds:
		return sweepPrefixed(ctx, k.bonds, job.Index, job, quota)
	case types.SweepLastUpdate:
		return sweepPrefixed(ctx, k.lastUpdate, job.Index, job, quota)
	case types.SweepMechanismIncentive:
		return sweepPrefixed(ctx, k.mechanismIncentive, job.Index, job, quota)
	case types.SweepKeys:
		return sweepPrefixed(ctx, k.keys, job.Netuid, job, quota)
	case types.SweepUids:
		return sweepPrefixed(ctx, k.uids, job.Netuid, job, quota)
	case types.SweepNeurons:
		return sweepPrefixed(ctx, k.neurons, job.Netuid, job, quota)
	case types.SweepStake:
		return sweepFiltered(ctx, k.stake, job, quota, func(key collections.Triple[AccountKey, AccountKey, Netuid]) bool {
			return key.K3() == job.Netuid
		})
	case types.SweepLastAddStakeIncrease:
		return sweepFiltered(ctx, k.lastAddStakeIncrease, job, quota, func(key collections.Triple[AccountKey, AccountKey, Netuid]) bool {
			return key.K3() == job.Netuid
		})
	case types.SweepTotalHotkeyStake:
		return sweepFiltered(ctx, k.totalHotkeyStake, job, quota, netuidMatch)
	case types.SweepPendingHotkeyEmission:
		return sweepFiltered(ctx, k.pendingHotkeyEmission, job, quota, netuidMatch)
	case types.SweepChildKeys:
		return sweepFiltered(ctx, k.childKeys, job, quota, netuidMatch)
	case types.SweepParentKeys:
		return sweepFiltered(ctx, k.parentKeys, job, quota, netuidMatch)
	}
	k.Logger(ctx).Error("dropping sweep job of unknown kind", "kind", job.Kind)
	return 0, true, nil
}

// sweepPrefixed erases the entries of m whose first key part is prefix.
func sweepPrefixed[K2, V any](
	ctx context.Context,
	m collections.Map[collections.Pair[uint16, K2], V],
	prefix uint16,
	job *types.SweepJob,
	quota uint64,
) (uint64, bool, error) {
	ranger := collections.NewPrefixedPairRange[uint16, K2](prefix)
	if job.HasCursor {
		_, cursor, err := m.KeyCodec().Decode(job.Cursor)
		if err != nil {
			return 0, false, err
		}
		ranger = ranger.StartExclusive(cursor.K2())
	}
	return sweepRange[collections.Pair[uint16, K2], V](ctx, m, ranger, job, quota, nil)
}

// sweepFiltered walks the whole of m from the cursor and erases the keys match accepts.
func sweepFiltered[K, V any](
	ctx context.Context,
	m collections.Map[K, V],
	job *types.SweepJob,
	quota uint64,
	match func(K) bool,
) (uint64, bool, error) {
	var ranger collections.Ranger[K]
	if job.HasCursor {
		_, cursor, err := m.KeyCodec().Decode(job.Cursor)
		if err != nil {
			return 0, false, err
		}
		ranger = new(collections.Range[K]).StartExclusive(cursor)
	}
	return sweepRange(ctx, m, ranger, job, quota, match)
}

// sweepRange visits up to quota keys of ranger, erases the matching ones and
// moves the job cursor to the last key visited. Keys are collected before any
// removal so the iterator never sees its current key deleted.
func sweepRange[K, V any](
	ctx context.Context,
	m collections.Map[K, V],
	ranger collections.Ranger[K],
	job *types.SweepJob,
	quota uint64,
	match func(K) bool,
) (uint64, bool, error) {
	iter, err := m.Iterate(ctx, ranger)
	if err != nil {
		return 0, false, err
	}
	var (
		scanned uint64
		last    K
		erase   []K
	)
	for ; iter.Valid() && scanned < quota; iter.Next() {
		key, err := iter.Key()
		if err != nil {
			iter.Close()
			return scanned, false, err
		}
		scanned++
		last = key
		if match == nil || match(key) {
			erase = append(erase, key)
		}
	}
	done := !iter.Valid()
	iter.Close()

	for _, key := range erase {
		if err := m.Remove(ctx, key); err != nil {
			return scanned, false, err
		}
	}
	if scanned > 0 {
		kc := m.KeyCodec()
		buf := make([]byte, kc.Size(last))
		if _, err := kc.Encode(buf, last); err != nil {
			return scanned, false, err
		}
		job.Cursor, job.HasCursor = buf, true
	}
	if len(erase) > 0 {
		metrics.IncrSweepErased(job.Kind.String(), len(erase))
	}
	return scanned, done, nil
}
