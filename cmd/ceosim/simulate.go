package main

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/talgya/ceo-sim/internal/config"
	"github.com/talgya/ceo-sim/internal/decision"
	"github.com/talgya/ceo-sim/internal/director"
	"github.com/talgya/ceo-sim/internal/economy"
	"github.com/talgya/ceo-sim/internal/engine"
)

type simulateFlags struct {
	Days     int
	Confirm  bool
	Director string
}

func simulateCmd() *cobra.Command {
	var f simulateFlags
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run days headless and print a day-by-day report",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromViper(viper.GetViper())
			if err != nil {
				return err
			}
			reports, final, err := simulate(cfg, f)
			if err != nil {
				return err
			}
			renderReports(reports, final)
			return nil
		},
	}
	cmd.Flags().IntVar(&f.Days, "days", 7, "number of in-game days to run")
	cmd.Flags().BoolVar(&f.Confirm, "confirm", false, "confirm each decision as soon as it is proposed")
	cmd.Flags().StringVar(&f.Director, "director", "policy", "policy, llm or offline")
	return cmd
}

// simulate runs f.Days days with synchronous decision requests. Pending
// decisions are applied at the deadline unless f.Confirm is set.
func simulate(cfg *config.Config, f simulateFlags) ([]engine.DayReport, engine.Snapshot, error) {
	if f.Days <= 0 {
		return nil, engine.Snapshot{}, fmt.Errorf("--days must be positive, got %d", f.Days)
	}
	tuning, err := config.LoadTuning(cfg.BalanceFile)
	if err != nil {
		return nil, engine.Snapshot{}, err
	}

	var svc director.Service
	switch f.Director {
	case "policy":
		policySeed := cfg.Seed
		if policySeed != 0 {
			policySeed++ // keep the CEO's stream apart from the event stream
		}
		svc = director.FailClosed(director.NewPolicy(tuning.Balance, randomSource(policySeed)))
	case "llm":
		svc = llmDirector(cfg, cfg.LLMProvider, cfg.LLMAPIKey, tuning.Balance)
	case "offline":
		svc = director.Offline{}
	default:
		return nil, engine.Snapshot{}, fmt.Errorf("unknown director %q (use policy, llm or offline)", f.Director)
	}

	var demand *economy.DemandCurve
	if tuning.Balance.DemandAmplitude > 0 {
		demand = economy.NewDemandCurve(cfg.Seed, tuning.Balance.DemandAmplitude)
	}
	persona, _ := decision.ParsePersona(cfg.Persona)

	var reports []engine.DayReport
	sim := engine.New(engine.Options{
		Balance:         tuning.Balance,
		Odds:            tuning.Events,
		Rand:            randomSource(cfg.Seed),
		Demand:          demand,
		Director:        svc,
		Persona:         persona,
		Dispatch:        engine.Inline,
		DecisionTimeout: cfg.DecisionTimeout,
		OnDayEnd:        func(r engine.DayReport) { reports = append(reports, r) },
	})
	sim.SetPaused(false)

	// Each day takes at most TicksPerDay+1 calls; the bound only guards
	// against a stuck window.
	limit := f.Days * (economy.TicksPerDay + 2)
	for i := 0; len(reports) < f.Days && i < limit; i++ {
		sim.Advance()
		if f.Confirm && sim.Snapshot().Lifecycle == engine.LifecyclePending {
			_ = sim.Confirm()
		}
	}
	if len(reports) < f.Days {
		return reports, sim.Snapshot(), fmt.Errorf("stopped after %d of %d days", len(reports), f.Days)
	}
	return reports, sim.Snapshot(), nil
}

func renderReports(reports []engine.DayReport, final engine.Snapshot) {
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row{"Day", "Closing Cash", "Revenue", "Costs", "Events", "Staff", "Decision", "Outcome"})
	for _, r := range reports {
		tw.AppendRow(table.Row{
			r.Day,
			economy.FormatMoney(r.ClosingCash),
			economy.FormatMoney(r.Revenue),
			economy.FormatMoney(r.Cost.Add(r.EventCost)),
			r.Events,
			r.Headcount,
			r.Title,
			r.Outcome,
		})
	}
	tw.AppendFooter(table.Row{"", economy.FormatMoney(final.Cash), "", "", "", final.Workers, final.Persona, ""})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
	})
	tw.Render()
}
