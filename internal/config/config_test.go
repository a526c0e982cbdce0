package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadDefaultConfig()
	require.NoError(t, err)

	assert.Equal(t, uint32(16), cfg.Aggression.L1Threshold)
	assert.Equal(t, uint32(28), cfg.Aggression.L2Threshold)
	assert.Equal(t, uint32(8), cfg.Aggression.ResendUnfinalizedPeriod)
	assert.Equal(t, 8192, cfg.Batching.MaxNotificationSize)
}

func TestLoadConfigFromFile(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "approvald_config_test")
	require.NoError(t, err)
	defer os.RemoveAll(tempDir)

	configContent := `
[server]
listen_addr = "127.0.0.1:9000"

[aggression]
l1_threshold = 10
l2_threshold = 20
resend_unfinalized_period = 4
`
	path := filepath.Join(tempDir, "approvald.toml")
	require.NoError(t, os.WriteFile(path, []byte(configContent), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.Server.ListenAddr)
	assert.Equal(t, uint32(10), cfg.Aggression.L1Threshold)
	assert.Equal(t, uint32(20), cfg.Aggression.L2Threshold)
}

func TestValidateConfigRejectsBadAggressionOrdering(t *testing.T) {
	cfg, err := LoadDefaultConfig()
	require.NoError(t, err)

	cfg.Aggression.L2Threshold = cfg.Aggression.L1Threshold
	assert.Error(t, ValidateConfig(cfg))
}

func TestValidateConfigRejectsValidatorThresholdOutOfRange(t *testing.T) {
	cfg, err := LoadDefaultConfig()
	require.NoError(t, err)

	cfg.Validators.Validators = []string{"v0", "v1"}
	cfg.Validators.Threshold = 3
	assert.Error(t, ValidateConfig(cfg))
}
