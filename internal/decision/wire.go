package decision

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/talgya/ceo-sim/internal/economy"
	"github.com/talgya/ceo-sim/internal/workforce"
)

// ErrInvalidDecision marks a service response that cannot be used.
var ErrInvalidDecision = errors.New("invalid decision")

// wireDecision is the JSON shape exchanged with the decision service.
type wireDecision struct {
	Action     string          `json:"action"`
	Parameters json.RawMessage `json:"parameters,omitempty"`
	Reasoning  string          `json:"reasoning"`
	Risk       string          `json:"risk_assessment"`
	Amount     json.RawMessage `json:"amount,omitempty"`
	Title      string          `json:"decision_title,omitempty"`
}

// Parse decodes a service response. A missing or unknown action is an
// error; missing counts default to 1, unknown roles to dev and unknown
// traits to a rolled one.
func Parse(data []byte, b economy.Balance) (Decision, error) {
	var w wireDecision
	if err := json.Unmarshal(data, &w); err != nil {
		return Decision{}, fmt.Errorf("%w: %v", ErrInvalidDecision, err)
	}

	action := Action(strings.ToUpper(strings.TrimSpace(w.Action)))
	if action == "" {
		return Decision{}, fmt.Errorf("%w: missing action", ErrInvalidDecision)
	}
	if !action.Valid() {
		return Decision{}, fmt.Errorf("%w: unknown action %q", ErrInvalidDecision, w.Action)
	}

	params, err := parseParams(action, w.Parameters)
	if err != nil {
		return Decision{}, fmt.Errorf("%w: %s parameters: %v", ErrInvalidDecision, action, err)
	}

	reasoning := strings.TrimSpace(w.Reasoning)
	if reasoning == "" {
		reasoning = "Analyzing market data."
	}
	return New(params, reasoning, ParseRisk(w.Risk), b), nil
}

// ParseRisk maps the service's label onto LOW/HIGH. Anything above LOW,
// including MEDIUM, is treated as HIGH; a missing label is LOW.
func ParseRisk(s string) Risk {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", string(RiskLow):
		return RiskLow
	default:
		return RiskHigh
	}
}

func parseParams(action Action, raw json.RawMessage) (Params, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		raw = []byte("{}")
	}

	switch action {
	case ActionHire, ActionFire:
		var p struct {
			Role  string   `json:"role"`
			Count *flexInt `json:"count"`
			Trait string   `json:"trait"`
		}
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		role, _ := workforce.ParseRole(p.Role)
		count := 1
		if p.Count != nil {
			count = int(*p.Count)
		}
		if action == ActionHire {
			trait, _ := workforce.ParseTrait(p.Trait)
			return HireParams{Role: role, Count: count, Trait: trait}, nil
		}
		return FireParams{Role: role, Count: count}, nil

	case ActionUpgrade:
		var p struct {
			ItemID string `json:"item_id"`
		}
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return UpgradeParams{ItemID: strings.ToLower(strings.TrimSpace(p.ItemID))}, nil

	case ActionMarketing:
		var p struct {
			Budget  any    `json:"budget"`
			Channel string `json:"channel"`
		}
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		budget := "HIGH"
		if p.Budget != nil {
			budget = fmt.Sprint(p.Budget)
		}
		return MarketingParams{Budget: budget, Channel: p.Channel}, nil

	case ActionPivot:
		var p struct {
			NewSector string `json:"new_sector"`
		}
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return PivotParams{NewSector: p.NewSector}, nil

	default:
		return NoParams{}, nil
	}
}

// flexInt accepts 2, 2.0 and "2".
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if n, err := strconv.Atoi(s); err == nil {
		*f = flexInt(n)
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("count %s is not a number", data)
	}
	*f = flexInt(int(v))
	return nil
}

// MarshalJSON renders the decision in the wire shape, plus amount and title.
func (d Decision) MarshalJSON() ([]byte, error) {
	params := d.Params
	if params == nil {
		params = NoParams{}
	}
	return json.Marshal(struct {
		Action     Action          `json:"action"`
		Parameters Params          `json:"parameters"`
		Amount     decimal.Decimal `json:"amount"`
		Reasoning  string          `json:"reasoning"`
		Risk       Risk            `json:"risk_assessment"`
		Title      string          `json:"decision_title"`
	}{d.Action, params, d.Amount, d.Reasoning, d.Risk, d.Title})
}

// UnmarshalJSON reads the shape written by MarshalJSON. Amount and title
// are taken as given rather than recomputed.
func (d *Decision) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(data, economy.DefaultBalance())
	if err != nil {
		return err
	}
	var w wireDecision
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if raw := strings.Trim(string(w.Amount), `"`); raw != "" && raw != "null" {
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			return fmt.Errorf("%w: amount %s", ErrInvalidDecision, w.Amount)
		}
		parsed.Amount = amount
	}
	if w.Title != "" {
		parsed.Title = w.Title
	}
	*d = parsed
	return nil
}
