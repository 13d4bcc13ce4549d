// Package workforce keeps the employee roster and applies hire/fire
// operations against the treasury.
package workforce

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/talgya/ceo-sim/internal/economy"
	"github.com/talgya/ceo-sim/internal/entropy"
)

// Role is an employee's job function.
type Role string

const (
	RoleDev     Role = "dev"
	RoleSales   Role = "sales"
	RoleSupport Role = "support"
)

// Roles lists every valid role in roster order.
var Roles = []Role{RoleDev, RoleSales, RoleSupport}

// ParseRole normalizes free-form role input. Unrecognized input falls back
// to RoleDev; ok reports whether the input was recognized.
func ParseRole(s string) (role Role, ok bool) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleDev:
		return RoleDev, true
	case RoleSales:
		return RoleSales, true
	case RoleSupport:
		return RoleSupport, true
	}
	return RoleDev, false
}

// Trait modifies how much an employee contributes.
type Trait string

const (
	TraitNormal Trait = "NORMAL"
	Trait10X    Trait = "10X_ENGINEER"
	TraitToxic  Trait = "TOXIC"
	TraitJunior Trait = "JUNIOR"
)

// Traits lists the non-default traits in roll order.
var Traits = []Trait{Trait10X, TraitToxic, TraitJunior}

// ParseTrait normalizes a trait name. "10x" is accepted for 10X_ENGINEER.
func ParseTrait(s string) (Trait, bool) {
	switch t := Trait(strings.ToUpper(strings.TrimSpace(s))); t {
	case TraitNormal, Trait10X, TraitToxic, TraitJunior:
		return t, true
	case "10X":
		return Trait10X, true
	}
	return "", false
}

// RollTrait draws a trait using the balance's trait odds. Whatever the
// odds leave over is NORMAL, at the top of the range.
func RollTrait(rng entropy.Source, b economy.Balance) Trait {
	r := rng.Float64()
	cum := 0.0
	for _, t := range Traits {
		cum += b.TraitOdds[string(t)]
		if r < cum {
			return t
		}
	}
	return TraitNormal
}

// Employee is one person on the payroll.
type Employee struct {
	ID    string `json:"id"`
	Role  Role   `json:"role"`
	Trait Trait  `json:"trait"`
}

// Roster is the per-role head count. It is always derived from the
// employee list, never edited directly.
type Roster struct {
	Dev     int `json:"dev"`
	Sales   int `json:"sales"`
	Support int `json:"support"`
}

// Total returns the sum over all roles.
func (r Roster) Total() int {
	return r.Dev + r.Sales + r.Support
}

// Workforce is the ordered employee list.
type Workforce struct {
	employees []Employee
	newID     func() string
}

// New creates a workforce seeded with the given employees.
func New(initial ...Employee) *Workforce {
	w := &Workforce{newID: uuid.NewString}
	w.employees = append(w.employees, initial...)
	return w
}

// Employees returns a copy of the employee list.
func (w *Workforce) Employees() []Employee {
	out := make([]Employee, len(w.employees))
	copy(out, w.employees)
	return out
}

// Len returns the head count.
func (w *Workforce) Len() int {
	return len(w.employees)
}

// Roster projects the employee list onto per-role counts.
func (w *Workforce) Roster() Roster {
	var r Roster
	for _, e := range w.employees {
		switch e.Role {
		case RoleSales:
			r.Sales++
		case RoleSupport:
			r.Support++
		default:
			r.Dev++
		}
	}
	return r
}

// Traits counts employees per trait.
func (w *Workforce) Traits() map[Trait]int {
	out := make(map[Trait]int)
	for _, e := range w.employees {
		out[e.Trait]++
	}
	return out
}

// Staffing converts the workforce into the economy's view of it.
func (w *Workforce) Staffing(b economy.Balance) economy.Staffing {
	s := economy.Staffing{DevWeight: decimal.Zero, SalesWeight: decimal.Zero}
	for _, e := range w.employees {
		weight := b.TraitWeight(string(e.Trait))
		switch e.Role {
		case RoleSales:
			s.Sales++
			s.SalesWeight = s.SalesWeight.Add(weight)
		case RoleSupport:
			s.Support++
		default:
			s.Dev++
			s.DevWeight = s.DevWeight.Add(weight)
		}
	}
	return s
}

// CountRole returns how many employees hold role.
func (w *Workforce) CountRole(role Role) int {
	n := 0
	for _, e := range w.employees {
		if e.Role == role {
			n++
		}
	}
	return n
}

// Newest returns the most recently hired employee.
func (w *Workforce) Newest() (Employee, bool) {
	if len(w.employees) == 0 {
		return Employee{}, false
	}
	return w.employees[len(w.employees)-1], true
}

func (w *Workforce) add(role Role, traits []Trait) {
	for _, t := range traits {
		w.employees = append(w.employees, Employee{ID: w.newID(), Role: role, Trait: t})
	}
}

// removeRole drops count employees of role, newest first.
func (w *Workforce) removeRole(role Role, count int) {
	removed := 0
	for i := len(w.employees) - 1; i >= 0 && removed < count; i-- {
		if w.employees[i].Role == role {
			w.employees = append(w.employees[:i], w.employees[i+1:]...)
			removed++
		}
	}
}
