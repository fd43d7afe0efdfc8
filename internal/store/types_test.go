package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasInference(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name string
		bot  BotSettings
		want bool
	}{
		{"active with model", BotSettings{IsActive: true, AIConfig: &AIConfig{DefaultModel: "m"}}, true},
		{"inactive", BotSettings{IsActive: false, AIConfig: &AIConfig{DefaultModel: "m"}}, false},
		{"no config", BotSettings{IsActive: true}, false},
		{"empty model", BotSettings{IsActive: true, AIConfig: &AIConfig{}}, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.bot.HasInference(), tc.name)
	}
}

func TestDecodeAIConfig(t *testing.T) {
	t.Parallel()

	cfg, err := decodeAIConfig([]byte(`{"defaultModel":"m","taskModelMapping":{"technical":"t"},"maxTokens":512}`))
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, "m", cfg.DefaultModel)
	assert.Equal(t, "t", cfg.TaskModelMapping["technical"])
	assert.Equal(t, 512, cfg.MaxTokens)
}

func TestDecodeAIConfigEmptyVariants(t *testing.T) {
	t.Parallel()
	for _, raw := range [][]byte{nil, []byte(""), []byte("null"), []byte("{}")} {
		cfg, err := decodeAIConfig(raw)
		require.NoError(t, err)
		assert.Nil(t, cfg, string(raw))
	}
}

func TestDecodeAIConfigInvalid(t *testing.T) {
	t.Parallel()
	_, err := decodeAIConfig([]byte("not json"))
	assert.Error(t, err)
}
