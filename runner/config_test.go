package runner_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zverev/streamrunner/runner"
)

func TestConfigValidateReportsAllMissingFields(t *testing.T) {
	err := runner.Config{}.Validate()
	require.Error(t, err)

	var invalid *runner.InvalidConfigError
	require.ErrorAs(t, err, &invalid)
	assert.Contains(t, invalid.Msg, "bootstrapServers")
	assert.Contains(t, invalid.Msg, "groupId")
	assert.Contains(t, invalid.Msg, "topics")
	assert.Contains(t, invalid.Msg, "keyDeserializer")
	assert.Contains(t, invalid.Msg, "valueDeserializer")
}

func TestConfigValidateAcceptsDefaultConfigWithRequiredFieldsFilled(t *testing.T) {
	cfg := runner.DefaultConfig()
	cfg.BootstrapServers = []string{"localhost:9092"}
	cfg.GroupID = "group"
	cfg.Topics = []string{"orders"}
	cfg.KeyDeserializer = runner.RawBytesDeserializer()
	cfg.ValueDeserializer = runner.RawBytesDeserializer()

	assert.NoError(t, cfg.Validate())
}

func TestDefaultConfigForceExitDefaultsTrue(t *testing.T) {
	cfg := runner.DefaultConfig()
	assert.True(t, cfg.ForceExit, "ForceExit should default to true per the source behavior this config generalizes")
}
