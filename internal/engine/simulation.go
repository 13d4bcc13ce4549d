// Package engine runs the company: the tick/phase clock, the economy, the
// daily decision window and the player's commands. All state lives in a
// Simulation and every mutation goes through its methods.
package engine

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/talgya/ceo-sim/internal/decision"
	"github.com/talgya/ceo-sim/internal/director"
	"github.com/talgya/ceo-sim/internal/economy"
	"github.com/talgya/ceo-sim/internal/entropy"
	"github.com/talgya/ceo-sim/internal/events"
	"github.com/talgya/ceo-sim/internal/workforce"
)

// Phase is the part of the day the clock is in.
type Phase string

const (
	PhaseOperating      Phase = "OPERATING"
	PhaseDecisionWindow Phase = "DECISION_WINDOW"
)

// Day schedule.
const (
	WindowOpensAt    = 50                  // first tick of the decision window
	DecisionDeadline = economy.TicksPerDay // pending decision auto-executes here
)

// DefaultDecisionTimeout bounds one decision-service call.
const DefaultDecisionTimeout = 30 * time.Second

// Clock is the in-game time.
type Clock struct {
	Day   int   `json:"day"`
	Tick  int   `json:"tick"`
	Phase Phase `json:"phase"`
}

// Lifecycle tracks the day's decision.
type Lifecycle string

const (
	LifecycleIdle     Lifecycle = "IDLE"
	LifecycleAwaiting Lifecycle = "AWAITING"
	LifecyclePending  Lifecycle = "PENDING"
	LifecycleResolved Lifecycle = "RESOLVED"
)

// Outcome records how the day's decision was resolved.
type Outcome string

const (
	OutcomeNone     Outcome = "NONE"
	OutcomeApplied  Outcome = "APPLIED"
	OutcomeVetoed   Outcome = "VETOED"
	OutcomeRejected Outcome = "REJECTED" // applied but failed validation
)

// Effect is a timed revenue multiplier counted down in operating ticks.
type Effect struct {
	Name       string          `json:"name"`
	Multiplier decimal.Decimal `json:"multiplier"`
	Remaining  int             `json:"remaining_ticks"`
}

// DayReport summarizes a finished day.
type DayReport struct {
	Day         int             `json:"day" db:"day"`
	ClosingCash decimal.Decimal `json:"closing_cash" db:"closing_cash"`
	Revenue     decimal.Decimal `json:"revenue" db:"revenue"`
	Cost        decimal.Decimal `json:"cost" db:"cost"`
	EventCost   decimal.Decimal `json:"event_cost" db:"event_cost"`
	Events      int             `json:"events" db:"events"`
	Headcount   int             `json:"headcount" db:"headcount"`
	Action      decision.Action `json:"action" db:"action"`
	Title       string          `json:"title" db:"title"`
	Outcome     Outcome         `json:"outcome" db:"outcome"`
}

// Dispatcher runs a decision request. It is called without the simulation
// lock held.
type Dispatcher func(job func())

// Go runs each job on its own goroutine.
func Go(job func()) { go job() }

// Inline runs each job on the caller's goroutine.
func Inline(job func()) { job() }

// Options configures a Simulation. Zero values pick defaults.
type Options struct {
	Balance  economy.Balance
	Odds     events.Odds
	Rand     entropy.Source
	Demand   *economy.DemandCurve
	Director director.Service
	Persona  decision.Persona

	Dispatch        Dispatcher
	DecisionTimeout time.Duration

	// OnDayEnd is called after every rollover, outside the lock.
	OnDayEnd func(DayReport)
}

// Simulation is the single state container for one company.
type Simulation struct {
	mu sync.Mutex

	balance  economy.Balance
	odds     events.Odds
	rng      entropy.Source
	demand   *economy.DemandCurve
	director director.Service
	dispatch Dispatcher
	timeout  time.Duration
	onDayEnd func(DayReport)

	gameID       string
	clock        Clock
	paused       bool
	treasury     *economy.Treasury
	workforce    *workforce.Workforce
	ledger       *workforce.Ledger
	mood         float64
	productivity decimal.Decimal
	productLevel int
	officeLevel  int
	inventory    []string
	effects      []Effect
	persona      decision.Persona
	dayDemand    decimal.Decimal

	activeEvents    []events.Event
	dayEvents       []events.Event
	yesterdayEvents []events.Event

	startOfDayCash decimal.Decimal
	dayRevenue     decimal.Decimal
	dayCost        decimal.Decimal
	dayEventCost   decimal.Decimal

	lifecycle  Lifecycle
	windowID   uint64
	pending    *decision.Decision
	proposed   *decision.Decision
	outcome    Outcome
	closeEarly bool

	terminal *TerminalLog
	version  uint64
}

// New creates a simulation in its initial state: day 1, tick 0, paused,
// one developer on staff.
func New(o Options) *Simulation {
	if o.Balance.TraitWeights == nil {
		o.Balance = economy.DefaultBalance()
	}
	if o.Odds == (events.Odds{}) {
		o.Odds = events.DefaultOdds()
	}
	if o.Rand == nil {
		o.Rand = entropy.Crypto()
	}
	if o.Director == nil {
		o.Director = director.Offline{}
	}
	if o.Dispatch == nil {
		o.Dispatch = Go
	}
	if o.DecisionTimeout <= 0 {
		o.DecisionTimeout = DefaultDecisionTimeout
	}
	if _, ok := decision.ParsePersona(string(o.Persona)); !ok {
		o.Persona = decision.PersonaVisionary
	}

	s := &Simulation{
		balance:  o.Balance,
		odds:     o.Odds,
		rng:      o.Rand,
		demand:   o.Demand,
		director: o.Director,
		dispatch: o.Dispatch,
		timeout:  o.DecisionTimeout,
		onDayEnd: o.OnDayEnd,
		persona:  o.Persona,
		terminal: NewTerminalLog(TerminalCapacity),
	}
	s.initLocked()
	return s
}

// initLocked puts the company into its starting position.
func (s *Simulation) initLocked() {
	s.gameID = uuid.NewString()
	s.clock = Clock{Day: 1, Tick: 0, Phase: PhaseOperating}
	s.paused = true
	s.treasury = economy.NewTreasury(decimal.NewFromFloat(s.balance.StartingCash))
	s.workforce = workforce.New(workforce.Employee{
		ID:    uuid.NewString(),
		Role:  workforce.RoleDev,
		Trait: workforce.TraitNormal,
	})
	s.ledger = &workforce.Ledger{
		Balance:   s.balance,
		Workforce: s.workforce,
		Treasury:  s.treasury,
		RollTrait: func() workforce.Trait { return workforce.RollTrait(s.rng, s.balance) },
	}
	s.mood = 100
	s.productivity = decimal.NewFromFloat(s.balance.Productivity)
	s.productLevel = 1
	s.officeLevel = economy.OfficeLevelFor(s.balance, s.workforce.Len())
	s.inventory = nil
	s.effects = nil
	s.dayDemand = s.demand.Factor(1)
	s.activeEvents = nil
	s.dayEvents = nil
	s.yesterdayEvents = nil
	s.startOfDayCash = s.treasury.Cash
	s.resetDayTotals()
	s.lifecycle = LifecycleIdle
	s.pending = nil
	s.proposed = nil
	s.outcome = OutcomeNone
	s.closeEarly = false
	s.terminal.Clear()
	s.terminal.Append("> SYSTEM ONLINE. DAY 1.")
}

func (s *Simulation) resetDayTotals() {
	s.dayRevenue = decimal.Zero
	s.dayCost = decimal.Zero
	s.dayEventCost = decimal.Zero
}

// Reset starts a new game. Any in-flight decision response is discarded.
func (s *Simulation) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.windowID++
	s.initLocked()
	s.version++
	slog.Info("simulation reset")
}

// SetDirector swaps the decision service used from the next window on.
func (s *Simulation) SetDirector(svc director.Service) {
	if svc == nil {
		svc = director.Offline{}
	}
	s.mu.Lock()
	s.director = svc
	s.mu.Unlock()
}

// Balance returns the economy coefficients in use.
func (s *Simulation) Balance() economy.Balance {
	return s.balance
}

// decisionContextLocked builds the snapshot handed to the director.
func (s *Simulation) decisionContextLocked() decision.Context {
	return decision.Context{
		Cash:            s.treasury.Cash,
		FinancialTrend:  s.treasury.Cash.Sub(s.startOfDayCash),
		Workers:         s.workforce.Len(),
		Roster:          s.workforce.Roster(),
		EmployeeTraits:  s.workforce.Traits(),
		Day:             s.clock.Day,
		Tick:            s.clock.Tick,
		Mood:            s.mood,
		Productivity:    s.productivity,
		ProductLevel:    s.productLevel,
		OfficeLevel:     s.officeLevel,
		ActiveEvents:    append([]events.Event(nil), s.activeEvents...),
		YesterdayEvents: append([]events.Event(nil), s.yesterdayEvents...),
		Inventory:       append([]string(nil), s.inventory...),
		Persona:         s.persona,
	}
}

func (s *Simulation) log(line string) {
	s.terminal.Append(line)
}
