package keeper

type Config struct {
	// DrainPeriod is the number of blocks over which every hotkey is drained once
	DrainPeriod uint64
}

func DefaultConfig() Config {
	return Config{
		DrainPeriod: 7200,
	}
}
