// Package config loads runtime settings from flags, CEOSIM_* environment
// variables and an optional .env file, plus balance overrides from YAML.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/talgya/ceo-sim/internal/economy"
	"github.com/talgya/ceo-sim/internal/events"
	"github.com/talgya/ceo-sim/internal/llm"
)

// EnvPrefix is prepended to every environment key.
const EnvPrefix = "CEOSIM"

// Config keys. Environment variables are CEOSIM_<KEY>; flags use dashes.
const (
	KeyAddr            = "addr"
	KeyTickInterval    = "tick_interval"
	KeySpeed           = "speed"
	KeyPersona         = "persona"
	KeySeed            = "seed"
	KeyLLMProvider     = "llm_provider"
	KeyLLMAPIKey       = "llm_api_key"
	KeyLLMModel        = "llm_model"
	KeyLLMMaxPerMin    = "llm_max_per_min"
	KeyDecisionTimeout = "decision_timeout"
	KeyDBDialect       = "db_dialect"
	KeyDBDSN           = "db_dsn"
	KeyBalanceFile     = "balance_file"
	KeyAdminKey        = "admin_key"
	KeyLogLevel        = "log_level"
)

// Config is the resolved runtime configuration.
type Config struct {
	Addr            string
	TickInterval    time.Duration
	Speed           float64
	Persona         string
	Seed            int64 // 0 = crypto randomness
	LLMProvider     llm.Provider
	LLMAPIKey       string
	LLMModel        string
	LLMMaxPerMin    int
	DecisionTimeout time.Duration
	DBDialect       string
	DBDSN           string
	BalanceFile     string
	AdminKey        string
	LogLevel        slog.Level
}

// Init prepares v: defaults, env prefix and key replacer.
func Init(v *viper.Viper) {
	v.SetDefault(KeyAddr, ":8080")
	v.SetDefault(KeyTickInterval, time.Second)
	v.SetDefault(KeySpeed, 1.0)
	v.SetDefault(KeyPersona, "VISIONARY")
	v.SetDefault(KeySeed, 0)
	v.SetDefault(KeyLLMProvider, string(llm.ProviderOpenAI))
	v.SetDefault(KeyLLMMaxPerMin, 20)
	v.SetDefault(KeyDecisionTimeout, 30*time.Second)
	v.SetDefault(KeyDBDialect, "sqlite")
	v.SetDefault(KeyDBDSN, "ceosim.db")
	v.SetDefault(KeyLogLevel, "info")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
}

// LoadDotEnv loads .env files into the process environment. Missing files
// are ignored; existing variables win.
func LoadDotEnv(paths ...string) {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			slog.Warn("could not load env file", "path", p, "error", err)
		}
	}
}

// FromViper resolves and validates a Config.
func FromViper(v *viper.Viper) (*Config, error) {
	c := &Config{
		Addr:            v.GetString(KeyAddr),
		TickInterval:    v.GetDuration(KeyTickInterval),
		Speed:           v.GetFloat64(KeySpeed),
		Persona:         v.GetString(KeyPersona),
		Seed:            v.GetInt64(KeySeed),
		LLMAPIKey:       v.GetString(KeyLLMAPIKey),
		LLMModel:        v.GetString(KeyLLMModel),
		LLMMaxPerMin:    v.GetInt(KeyLLMMaxPerMin),
		DecisionTimeout: v.GetDuration(KeyDecisionTimeout),
		DBDialect:       v.GetString(KeyDBDialect),
		DBDSN:           v.GetString(KeyDBDSN),
		BalanceFile:     v.GetString(KeyBalanceFile),
		AdminKey:        v.GetString(KeyAdminKey),
	}

	provider, ok := llm.ParseProvider(v.GetString(KeyLLMProvider))
	if !ok {
		return nil, fmt.Errorf("%s: unknown provider %q", KeyLLMProvider, v.GetString(KeyLLMProvider))
	}
	c.LLMProvider = provider

	if err := c.LogLevel.UnmarshalText([]byte(v.GetString(KeyLogLevel))); err != nil {
		return nil, fmt.Errorf("%s: %w", KeyLogLevel, err)
	}
	if c.TickInterval <= 0 {
		return nil, fmt.Errorf("%s must be positive, got %s", KeyTickInterval, c.TickInterval)
	}
	if c.Speed < 0 {
		return nil, fmt.Errorf("%s must not be negative, got %g", KeySpeed, c.Speed)
	}
	if c.DecisionTimeout <= 0 {
		return nil, fmt.Errorf("%s must be positive, got %s", KeyDecisionTimeout, c.DecisionTimeout)
	}
	return c, nil
}

// Tuning is the balance file: economy constants and event odds. Fields left
// out of the file keep their defaults.
type Tuning struct {
	Balance economy.Balance `yaml:"balance"`
	Events  events.Odds     `yaml:"events"`
}

// DefaultTuning returns the stock balance and odds.
func DefaultTuning() Tuning {
	return Tuning{Balance: economy.DefaultBalance(), Events: events.DefaultOdds()}
}

// LoadTuning reads a balance file over the defaults. An empty path returns
// the defaults.
func LoadTuning(path string) (Tuning, error) {
	t := DefaultTuning()
	if path == "" {
		return t, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return t, fmt.Errorf("read balance file: %w", err)
	}
	if err := yaml.Unmarshal(data, &t); err != nil {
		return t, fmt.Errorf("invalid balance yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("balance file %s: %w", path, err)
	}
	return t, nil
}

// Validate rejects values the engine cannot run with.
func (t Tuning) Validate() error {
	b := t.Balance
	switch {
	case b.HireCost < 0, b.Severance < 0, b.VetoPenalty < 0:
		return errors.New("hire_cost, severance and veto_penalty must not be negative")
	case b.MoodFloor < 0 || b.MoodFloor > 1:
		return fmt.Errorf("mood_floor must be in [0, 1], got %g", b.MoodFloor)
	case b.DemandAmplitude < 0:
		return fmt.Errorf("demand_amplitude must not be negative, got %g", b.DemandAmplitude)
	}
	total := 0.0
	for trait, p := range b.TraitOdds {
		if p < 0 || p > 1 {
			return fmt.Errorf("trait_odds %s must be in [0, 1], got %g", trait, p)
		}
		total += p
	}
	if total > 1 {
		return fmt.Errorf("trait_odds add up to %g, more than 1", total)
	}
	o := t.Events
	switch {
	case o.MinorChance < 0 || o.MinorChance > 1, o.CrisisChance < 0 || o.CrisisChance > 1:
		return errors.New("event chances must be in [0, 1]")
	case o.MinorMinCost > o.MinorMaxCost:
		return fmt.Errorf("minor_min_cost %d exceeds minor_max_cost %d", o.MinorMinCost, o.MinorMaxCost)
	}
	return nil
}
