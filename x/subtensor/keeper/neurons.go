package keeper

import (
	"context"
	"errors"

	"cosmossdk.io/collections"
	errorsmod "cosmossdk.io/errors"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/opentensor/subtensor-sub008/x/subtensor/types"
)

// RegisterNeuron gives hotkey a uid on netuid. While the subnet has free slots the
// next uid is appended, afterwards the uid with the lowest pruning score is
// replaced, ties going to the lower uid.
func (k *Keeper) RegisterNeuron(ctx context.Context, netuid Netuid, coldkey, hotkey AccountKey) (Uid, error) {
	hp, err := k.GetSubnetHyperparams(ctx, netuid)
	if err != nil {
		return 0, err
	}
	registered, err := k.uids.Has(ctx, collections.Join(netuid, hotkey))
	if err != nil {
		return 0, err
	}
	if registered {
		return 0, errorsmod.Wrapf(types.ErrHotkeyAlreadyRegistered, "%s on netuid %d", hotkey, netuid)
	}
	owner, found, err := k.GetOwner(ctx, hotkey)
	if err != nil {
		return 0, err
	}
	if found && owner != coldkey {
		return 0, errorsmod.Wrapf(types.ErrNonAssociatedColdkey, "%s is owned by %s", hotkey, owner)
	}

	count, err := k.GetSubnetNeuronCount(ctx, netuid)
	if err != nil {
		return 0, err
	}
	var uid Uid
	if count < hp.MaxAllowedUids {
		uid = count
		if err := k.subnetNeuronCount.Set(ctx, netuid, count+1); err != nil {
			return 0, err
		}
	} else {
		if uid, err = k.lowestPruningScoreUid(ctx, netuid, count); err != nil {
			return 0, err
		}
		if err := k.evictNeuron(ctx, netuid, uid, hp.MechanismCount); err != nil {
			return 0, err
		}
	}

	block := sdk.UnwrapSDKContext(ctx).BlockHeight()
	if !found {
		if err := k.owner.Set(ctx, hotkey, coldkey); err != nil {
			return 0, err
		}
	}
	if err := k.keys.Set(ctx, collections.Join(netuid, uid), hotkey); err != nil {
		return 0, err
	}
	if err := k.uids.Set(ctx, collections.Join(netuid, hotkey), uid); err != nil {
		return 0, err
	}
	if err := k.neurons.Set(ctx, collections.Join(netuid, uid), types.NewNeuronInfo(block)); err != nil {
		return 0, err
	}
	for subId := uint8(0); subId < hp.MechanismCount; subId++ {
		if err := k.lastUpdate.Set(ctx, collections.Join(types.StorageIndex(netuid, subId), uid), block); err != nil {
			return 0, err
		}
	}
	k.Logger(ctx).Debug("neuron registered", "netuid", netuid, "uid", uid, "hotkey", hotkey.String())
	return uid, nil
}

func (k *Keeper) lowestPruningScoreUid(ctx context.Context, netuid Netuid, count uint16) (Uid, error) {
	var (
		lowest Uid
		score  uint32 = 1 << 16
	)
	for uid := Uid(0); uid < count; uid++ {
		info, err := k.GetNeuronInfo(ctx, netuid, uid)
		if err != nil {
			return 0, err
		}
		if uint32(info.PruningScore) < score {
			lowest, score = uid, uint32(info.PruningScore)
		}
	}
	return lowest, nil
}

// evictNeuron clears everything the previous occupant of uid left behind.
func (k *Keeper) evictNeuron(ctx context.Context, netuid Netuid, uid Uid, mechanisms uint8) error {
	old, err := k.keys.Get(ctx, collections.Join(netuid, uid))
	if err != nil && !errors.Is(err, collections.ErrNotFound) {
		return err
	}
	if err == nil {
		if err := k.uids.Remove(ctx, collections.Join(netuid, old)); err != nil {
			return err
		}
		k.Logger(ctx).Debug("neuron replaced", "netuid", netuid, "uid", uid, "hotkey", old.String())
	}
	for subId := uint8(0); subId < mechanisms; subId++ {
		key := collections.Join(types.StorageIndex(netuid, subId), uid)
		if err := k.weights.Remove(ctx, key); err != nil {
			return err
		}
		if err := k.bonds.Remove(ctx, key); err != nil {
			return err
		}
		if err := k.mechanismIncentive.Remove(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

func (k *Keeper) GetNeuronInfo(ctx context.Context, netuid Netuid, uid Uid) (types.NeuronInfo, error) {
	return getOrDefault(ctx, k.neurons, collections.Join(netuid, uid), types.NewNeuronInfo(0))
}

func (k *Keeper) SetNeuronInfo(ctx context.Context, netuid Netuid, uid Uid, info types.NeuronInfo) error {
	return k.neurons.Set(ctx, collections.Join(netuid, uid), info)
}

func (k *Keeper) GetUid(ctx context.Context, netuid Netuid, hotkey AccountKey) (Uid, error) {
	uid, err := k.uids.Get(ctx, collections.Join(netuid, hotkey))
	if err != nil {
		if errors.Is(err, collections.ErrNotFound) {
			return 0, errorsmod.Wrapf(types.ErrHotkeyNotRegistered, "%s on netuid %d", hotkey, netuid)
		}
		return 0, err
	}
	return uid, nil
}

func (k *Keeper) GetHotkey(ctx context.Context, netuid Netuid, uid Uid) (AccountKey, error) {
	hotkey, err := k.keys.Get(ctx, collections.Join(netuid, uid))
	if err != nil {
		if errors.Is(err, collections.ErrNotFound) {
			return AccountKey{}, errorsmod.Wrapf(types.ErrUidOutOfRange, "uid %d on netuid %d", uid, netuid)
		}
		return AccountKey{}, err
	}
	return hotkey, nil
}

// GetHotkeys returns the hotkeys of netuid in uid order.
func (k *Keeper) GetHotkeys(ctx context.Context, netuid Netuid) ([]AccountKey, error) {
	count, err := k.GetSubnetNeuronCount(ctx, netuid)
	if err != nil {
		return nil, err
	}
	out := make([]AccountKey, count)
	for uid := Uid(0); uid < count; uid++ {
		if out[uid], err = k.GetHotkey(ctx, netuid, uid); err != nil {
			return nil, err
		}
	}
	return out, nil
}
