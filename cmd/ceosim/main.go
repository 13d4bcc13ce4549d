// Command ceosim runs the startup CEO simulation: as a server with an HTTP
// API and websocket stream, or headless for a fixed number of days.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/talgya/ceo-sim/internal/config"
	"github.com/talgya/ceo-sim/internal/director"
	"github.com/talgya/ceo-sim/internal/economy"
	"github.com/talgya/ceo-sim/internal/entropy"
	"github.com/talgya/ceo-sim/internal/llm"
)

var rootCmd = &cobra.Command{
	Use:   "ceosim",
	Short: "Idle startup simulation with an AI chief executive",
	Long: `ceosim runs a small company one tick at a time. Every in-game day the
AI CEO proposes one strategic move; you can veto it, confirm it early, or
let the deadline apply it.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.FromViper(viper.GetViper())
		if err != nil {
			return err
		}
		setupLogging(cfg.LogLevel)
		return nil
	},
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	rootCmd.AddCommand(serveCmd(), simulateCmd())
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	config.LoadDotEnv()
	config.Init(viper.GetViper())
}

func addPersistentFlags() {
	flags := rootCmd.PersistentFlags()
	flags.String("persona", "VISIONARY", "CEO persona: visionary, bean_counter, growth_hacker, engineer")
	flags.Int64("seed", 0, "random seed (0 = crypto randomness)")
	flags.String("balance-file", "", "YAML file overriding balance constants and event odds")
	flags.String("log-level", "info", "debug, info, warn or error")
	flags.String("llm-provider", "openai", "openai, pollinations, anthropic or offline")
	flags.String("llm-model", "", "model name (provider default if empty)")
	flags.Duration("decision-timeout", 30*time.Second, "how long to wait for the CEO before falling back")

	bind := map[string]string{
		config.KeyPersona:         "persona",
		config.KeySeed:            "seed",
		config.KeyBalanceFile:     "balance-file",
		config.KeyLogLevel:        "log-level",
		config.KeyLLMProvider:     "llm-provider",
		config.KeyLLMModel:        "llm-model",
		config.KeyDecisionTimeout: "decision-timeout",
	}
	for key, flag := range bind {
		_ = viper.BindPFlag(key, flags.Lookup(flag))
	}
}

func setupLogging(level slog.Level) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
}

// randomSource returns a seeded source, or crypto randomness for seed 0.
func randomSource(seed int64) entropy.Source {
	if seed == 0 {
		return entropy.Crypto()
	}
	return entropy.NewSeeded(seed)
}

// llmDirector builds the LLM-backed CEO, or the offline director when no
// usable credential is configured.
func llmDirector(cfg *config.Config, provider llm.Provider, apiKey string, b economy.Balance) director.Service {
	client := llm.NewClient(llm.Options{
		Provider:  provider,
		APIKey:    apiKey,
		Model:     cfg.LLMModel,
		MaxPerMin: cfg.LLMMaxPerMin,
		Timeout:   cfg.DecisionTimeout,
	})
	if client == nil {
		slog.Warn("no decision-service credential, CEO will play safe", "provider", provider)
		return director.Offline{}
	}
	slog.Info("LLM director enabled", "provider", client.Provider())
	return director.FailClosed(director.NewLLM(client, b))
}
