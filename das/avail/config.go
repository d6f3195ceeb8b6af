package avail

import (
	"fmt"
	"time"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/providers/posflag"
	flag "github.com/spf13/pflag"
)

type DAConfig struct {
	Enable         bool                   `koanf:"enable"`
	AvailApiURL    string                 `koanf:"avail-api-url"`
	Seed           string                 `koanf:"seed"`
	AppID          int                    `koanf:"app-id"`
	Timeout        time.Duration          `koanf:"timeout"`
	BlockCacheSize int                    `koanf:"block-cache-size"`
	Fallback       LocalFileStorageConfig `koanf:"fallback"`
}

var DefaultAvailDAConfig = DAConfig{
	Enable:         false,
	AvailApiURL:    "wss://turing-rpc.avail.so/ws",
	Seed:           "",
	AppID:          0,
	Timeout:        100 * time.Second,
	BlockCacheSize: 64,
	Fallback:       DefaultLocalFileStorageConfig,
}

func NewDAConfig(availApiURL string, seed string, appID int, timeout time.Duration) (*DAConfig, error) {
	if appID < 0 {
		return nil, fmt.Errorf("AvailDAError: invalid app-id %d", appID)
	}
	return &DAConfig{
		Enable:         true,
		AvailApiURL:    availApiURL,
		Seed:           seed,
		AppID:          appID,
		Timeout:        timeout,
		BlockCacheSize: DefaultAvailDAConfig.BlockCacheSize,
		Fallback:       DefaultLocalFileStorageConfig,
	}, nil
}

func AvailDAConfigAddOptions(prefix string, f *flag.FlagSet) {
	f.Bool(prefix+".enable", DefaultAvailDAConfig.Enable, "enable AvailDA as Data Availability Layer")
	f.String(prefix+".avail-api-url", DefaultAvailDAConfig.AvailApiURL, "Avail chain API offered over the WS-RPC interface")
	f.String(prefix+".seed", DefaultAvailDAConfig.Seed, "Avail chain wallet seed")
	f.Int(prefix+".app-id", DefaultAvailDAConfig.AppID, "Avail chain account app-id")
	f.Duration(prefix+".timeout", DefaultAvailDAConfig.Timeout, "timeout for blob inclusion on block finalisation over Avail chain")
	f.Int(prefix+".block-cache-size", DefaultAvailDAConfig.BlockCacheSize, "number of fetched Avail blocks kept in memory")
	LocalFileStorageConfigAddOptions(prefix+".fallback", f)
}

// LoadDAConfig reads the options registered under prefix from a parsed flag set.
func LoadDAConfig(prefix string, f *flag.FlagSet) (*DAConfig, error) {
	k := koanf.New(".")
	if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
		return nil, fmt.Errorf("AvailDAError: cannot load flags, %w", err)
	}
	var cfg DAConfig
	if err := k.Unmarshal(prefix, &cfg); err != nil {
		return nil, fmt.Errorf("AvailDAError: cannot decode config, %w", err)
	}
	if cfg.AppID < 0 {
		return nil, fmt.Errorf("AvailDAError: invalid app-id %d", cfg.AppID)
	}
	return &cfg, nil
}
