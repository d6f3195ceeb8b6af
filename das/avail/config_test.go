package avail

import (
	"testing"
	"time"

	flag "github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDAConfigDefaults(t *testing.T) {
	f := flag.NewFlagSet("test", flag.ContinueOnError)
	AvailDAConfigAddOptions("avail", f)
	require.NoError(t, f.Parse(nil))

	cfg, err := LoadDAConfig("avail", f)
	require.NoError(t, err)
	assert.Equal(t, DefaultAvailDAConfig, *cfg)
}

func TestLoadDAConfigFlags(t *testing.T) {
	f := flag.NewFlagSet("test", flag.ContinueOnError)
	AvailDAConfigAddOptions("avail", f)
	require.NoError(t, f.Parse([]string{
		"--avail.enable",
		"--avail.app-id=7",
		"--avail.timeout=30s",
		"--avail.fallback.enable",
		"--avail.fallback.data-dir=/tmp/blobs",
	}))

	cfg, err := LoadDAConfig("avail", f)
	require.NoError(t, err)
	assert.True(t, cfg.Enable)
	assert.Equal(t, 7, cfg.AppID)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, DefaultAvailDAConfig.AvailApiURL, cfg.AvailApiURL)
	assert.True(t, cfg.Fallback.Enable)
	assert.Equal(t, "/tmp/blobs", cfg.Fallback.DataDir)
}

func TestLoadDAConfigInvalidAppID(t *testing.T) {
	f := flag.NewFlagSet("test", flag.ContinueOnError)
	AvailDAConfigAddOptions("avail", f)
	require.NoError(t, f.Parse([]string{"--avail.app-id=-1"}))

	_, err := LoadDAConfig("avail", f)
	assert.Error(t, err)

	_, err = NewDAConfig(DefaultAvailDAConfig.AvailApiURL, "", -1, time.Second)
	assert.Error(t, err)
}
