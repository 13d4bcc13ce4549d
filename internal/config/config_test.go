package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/ceo-sim/internal/economy"
	"github.com/talgya/ceo-sim/internal/llm"
)

func TestFromViper_Defaults(t *testing.T) {
	v := viper.New()
	Init(v)

	c, err := FromViper(v)
	require.NoError(t, err)
	assert.Equal(t, ":8080", c.Addr)
	assert.Equal(t, time.Second, c.TickInterval)
	assert.Equal(t, 1.0, c.Speed)
	assert.Equal(t, llm.ProviderOpenAI, c.LLMProvider)
	assert.Equal(t, 30*time.Second, c.DecisionTimeout)
	assert.Equal(t, "sqlite", c.DBDialect)
	assert.Equal(t, slog.LevelInfo, c.LogLevel)
}

func TestFromViper_Env(t *testing.T) {
	t.Setenv("CEOSIM_LLM_PROVIDER", "anthropic")
	t.Setenv("CEOSIM_TICK_INTERVAL", "250ms")
	t.Setenv("CEOSIM_LOG_LEVEL", "debug")
	t.Setenv("CEOSIM_SEED", "42")

	v := viper.New()
	Init(v)
	c, err := FromViper(v)
	require.NoError(t, err)
	assert.Equal(t, llm.ProviderAnthropic, c.LLMProvider)
	assert.Equal(t, 250*time.Millisecond, c.TickInterval)
	assert.Equal(t, slog.LevelDebug, c.LogLevel)
	assert.Equal(t, int64(42), c.Seed)
}

func TestFromViper_Rejects(t *testing.T) {
	cases := map[string]any{
		KeyLLMProvider:     "skynet",
		KeyTickInterval:    "0s",
		KeySpeed:           -1,
		KeyLogLevel:        "loud",
		KeyDecisionTimeout: "-1s",
	}
	for key, val := range cases {
		t.Run(key, func(t *testing.T) {
			v := viper.New()
			Init(v)
			v.Set(key, val)
			_, err := FromViper(v)
			assert.Error(t, err)
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("CEOSIM_ADMIN_KEY=from-dotenv\n"), 0o600))
	t.Setenv("CEOSIM_ADMIN_KEY", "")
	os.Unsetenv("CEOSIM_ADMIN_KEY")

	LoadDotEnv(path, filepath.Join(t.TempDir(), "missing.env"))

	v := viper.New()
	Init(v)
	c, err := FromViper(v)
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", c.AdminKey)
}

func TestLoadTuning(t *testing.T) {
	tun, err := LoadTuning("")
	require.NoError(t, err)
	assert.Equal(t, economy.DefaultBalance().HireCost, tun.Balance.HireCost)

	path := filepath.Join(t.TempDir(), "balance.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
balance:
  hire_cost: 750
  trait_weights:
    JUNIOR: 0.25
  trait_odds:
    10X_ENGINEER: 0.2
events:
  crisis_chance: 0.5
`), 0o600))

	tun, err = LoadTuning(path)
	require.NoError(t, err)
	assert.Equal(t, 750.0, tun.Balance.HireCost)
	assert.Equal(t, 0.25, tun.Balance.TraitWeights["JUNIOR"])
	assert.Equal(t, 3.0, tun.Balance.TraitWeights["10X_ENGINEER"], "unlisted weights keep defaults")
	assert.Equal(t, 0.2, tun.Balance.TraitOdds["10X_ENGINEER"])
	assert.Equal(t, economy.DefaultJuniorOdds, tun.Balance.TraitOdds["JUNIOR"])
	assert.Equal(t, economy.DefaultSeverance, tun.Balance.Severance)
	assert.Equal(t, 0.5, tun.Events.CrisisChance)
	assert.Equal(t, 0.05, tun.Events.MinorChance)
}

func TestLoadTuning_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "balance.yaml")
	require.NoError(t, os.WriteFile(path, []byte("events:\n  crisis_chance: 2\n"), 0o600))
	_, err := LoadTuning(path)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("balance:\n  trait_odds:\n    TOXIC: 0.7\n    JUNIOR: 0.7\n"), 0o600))
	_, err = LoadTuning(path)
	assert.ErrorContains(t, err, "trait_odds")

	_, err = LoadTuning(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
