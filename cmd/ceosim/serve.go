package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/talgya/ceo-sim/internal/api"
	"github.com/talgya/ceo-sim/internal/config"
	"github.com/talgya/ceo-sim/internal/decision"
	"github.com/talgya/ceo-sim/internal/economy"
	"github.com/talgya/ceo-sim/internal/engine"
	"github.com/talgya/ceo-sim/internal/llm"
	"github.com/talgya/ceo-sim/internal/persistence"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the simulation with the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromViper(viper.GetViper())
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
	flags := cmd.Flags()
	flags.String("addr", ":8080", "listen address")
	flags.Duration("tick-interval", time.Second, "wall-clock time per tick at speed 1")
	flags.Float64("speed", 1, "tick speed multiplier (0 holds the clock)")
	flags.String("db-dialect", "sqlite", "sqlite or postgres")
	flags.String("db-dsn", "ceosim.db", "database file (sqlite) or connection string (postgres)")
	_ = viper.BindPFlag(config.KeyAddr, flags.Lookup("addr"))
	_ = viper.BindPFlag(config.KeyTickInterval, flags.Lookup("tick-interval"))
	_ = viper.BindPFlag(config.KeySpeed, flags.Lookup("speed"))
	_ = viper.BindPFlag(config.KeyDBDialect, flags.Lookup("db-dialect"))
	_ = viper.BindPFlag(config.KeyDBDSN, flags.Lookup("db-dsn"))
	return cmd
}

func serve(parent context.Context, cfg *config.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tuning, err := config.LoadTuning(cfg.BalanceFile)
	if err != nil {
		return err
	}

	// ── Session store ─────────────────────────────────────────────────
	dialect, err := persistence.ParseDialect(cfg.DBDialect)
	if err != nil {
		return err
	}
	db, err := persistence.Open(dialect, cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}
	defer db.Close()
	defer func() {
		if err := db.EndSession(context.Background()); err != nil {
			slog.Error("end session failed", "error", err)
		}
	}()

	if cfg.LLMAPIKey != "" {
		if err := db.SetCredential(ctx, cfg.LLMAPIKey); err != nil {
			return err
		}
	}

	// ── Simulation ────────────────────────────────────────────────────
	var demand *economy.DemandCurve
	if tuning.Balance.DemandAmplitude > 0 {
		demandSeed := cfg.Seed
		if demandSeed == 0 {
			demandSeed = time.Now().UnixNano()
		}
		demand = economy.NewDemandCurve(demandSeed, tuning.Balance.DemandAmplitude)
	}
	persona, _ := decision.ParsePersona(cfg.Persona)

	sim := engine.New(engine.Options{
		Balance:         tuning.Balance,
		Odds:            tuning.Events,
		Rand:            randomSource(cfg.Seed),
		Demand:          demand,
		Director:        llmDirector(cfg, cfg.LLMProvider, cfg.LLMAPIKey, tuning.Balance),
		Persona:         persona,
		DecisionTimeout: cfg.DecisionTimeout,
		OnDayEnd: func(r engine.DayReport) {
			if err := db.SaveDayReport(context.Background(), r); err != nil {
				slog.Error("save day report", "day", r.Day, "error", err)
			}
		},
	})

	driver := engine.NewDriver(sim)
	driver.Interval = cfg.TickInterval
	driver.SetSpeed(cfg.Speed)

	// ── HTTP API ──────────────────────────────────────────────────────
	if cfg.AdminKey == "" {
		slog.Warn("CEOSIM_ADMIN_KEY not set, mutating endpoints are open")
	}
	server := &api.Server{
		Sim:      sim,
		Driver:   driver,
		Store:    db,
		AdminKey: cfg.AdminKey,
		OnCredential: func(provider, credential string) error {
			p := cfg.LLMProvider
			if provider != "" {
				var ok bool
				if p, ok = llm.ParseProvider(provider); !ok {
					return fmt.Errorf("unknown provider %q", provider)
				}
			}
			sim.SetDirector(llmDirector(cfg, p, credential, tuning.Balance))
			return nil
		},
	}

	// ── Start ─────────────────────────────────────────────────────────
	go driver.Run(ctx)

	fmt.Printf("\nCompany founded: %s cash, %d employee, persona %s.\n",
		economy.FormatMoney(sim.Snapshot().Cash), sim.Snapshot().Workers, sim.Persona())
	fmt.Printf("API: http://localhost%s%s/state\n", cfg.Addr, api.BasePath)
	fmt.Println("Simulation starts paused. POST /api/v1/pause to begin. (Ctrl+C to stop)")

	err = server.ListenAndServe(ctx, cfg.Addr)
	stop()

	c := sim.Clock()
	slog.Info("simulation stopped", "day", c.Day, "tick", c.Tick, "ticks_driven", driver.Ticks())
	return err
}
