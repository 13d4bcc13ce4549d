// Command autopilot is the board of directors for a running ceosim server.
// It watches the CEO's pending decisions and vetoes the reckless ones.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/talgya/ceo-sim/internal/autopilot"
	"github.com/talgya/ceo-sim/internal/config"
)

var rootCmd = &cobra.Command{
	Use:          "autopilot",
	Short:        "Veto or confirm the CEO's decisions over the ceosim API",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run()
	},
}

func main() {
	cobra.OnInitialize(initConfig)
	addFlags()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	config.LoadDotEnv()
	viper.SetEnvPrefix(config.EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addFlags() {
	flags := rootCmd.Flags()
	flags.String("api-url", "http://localhost:8080", "ceosim API base URL")
	flags.Duration("interval", 2*time.Second, "time between cycles")
	flags.Float64("max-cash-share", autopilot.DefaultRules().MaxCashShare, "veto HIGH risk decisions spending more than this share of cash")
	flags.Float64("mood-floor", autopilot.DefaultRules().MoodFloor, "veto layoffs below this mood")
	flags.Bool("confirm", false, "confirm decisions that pass the rules")
	flags.String("memory", "", "file to remember verdicts across restarts")
	flags.String("log-level", "info", "debug, info, warn or error")
	for _, name := range []string{"api-url", "interval", "max-cash-share", "mood-floor", "confirm", "memory", "log-level"} {
		_ = viper.BindPFlag(name, flags.Lookup(name))
	}
}

func run() error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(viper.GetString("log-level"))); err != nil {
		return fmt.Errorf("log-level: %w", err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	apiURL := strings.TrimRight(viper.GetString("api-url"), "/")
	interval := viper.GetDuration("interval")
	if interval <= 0 {
		return fmt.Errorf("interval must be positive, got %s", interval)
	}
	rules := autopilot.Rules{
		MaxCashShare: viper.GetFloat64("max-cash-share"),
		MoodFloor:    viper.GetFloat64("mood-floor"),
		Confirm:      viper.GetBool("confirm"),
	}
	adminKey := viper.GetString(config.KeyAdminKey)

	slog.Info("autopilot starting",
		"api_url", apiURL,
		"interval", interval,
		"max_cash_share", rules.MaxCashShare,
		"mood_floor", rules.MoodFloor,
		"confirm", rules.Confirm,
		"admin_auth", adminKey != "",
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pilot := autopilot.New(apiURL, adminKey, rules, autopilot.LoadMemory(viper.GetString("memory")))

	slog.Info("waiting for ceosim API...")
	if err := pilot.WaitReady(ctx, 5*time.Minute); err != nil {
		return err
	}

	pilot.Run(ctx, interval)
	fmt.Println("Autopilot stopped.")
	return nil
}
