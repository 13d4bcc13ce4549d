package decision

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/ceo-sim/internal/economy"
	"github.com/talgya/ceo-sim/internal/workforce"
)

func TestParse_PerActionParams(t *testing.T) {
	b := economy.DefaultBalance()
	tests := []struct {
		name   string
		body   string
		params Params
		amount string
	}{
		{
			name:   "hire",
			body:   `{"action":"HIRE_WORKER","parameters":{"role":"Sales","count":2},"reasoning":"grow","risk_assessment":"LOW"}`,
			params: HireParams{Role: workforce.RoleSales, Count: 2},
			amount: "1000",
		},
		{
			name:   "hire string count and unknown role",
			body:   `{"action":"HIRE_WORKER","parameters":{"role":"wizard","count":"3"}}`,
			params: HireParams{Role: workforce.RoleDev, Count: 3},
			amount: "1500",
		},
		{
			name:   "hire with trait",
			body:   `{"action":"HIRE_WORKER","parameters":{"role":"dev","count":1,"trait":"10x_engineer"}}`,
			params: HireParams{Role: workforce.RoleDev, Count: 1, Trait: workforce.Trait10X},
			amount: "500",
		},
		{
			name:   "hire with unknown trait rolls",
			body:   `{"action":"HIRE_WORKER","parameters":{"role":"dev","trait":"rockstar"}}`,
			params: HireParams{Role: workforce.RoleDev, Count: 1},
			amount: "500",
		},
		{
			name:   "fire default count",
			body:   `{"action":"fire_worker","parameters":{"role":"dev"}}`,
			params: FireParams{Role: workforce.RoleDev, Count: 1},
			amount: "200",
		},
		{
			name:   "upgrade",
			body:   `{"action":"BUY_UPGRADE","parameters":{"item_id":"Coffee_Machine"}}`,
			params: UpgradeParams{ItemID: ItemCoffeeMachine},
			amount: "2000",
		},
		{
			name:   "marketing numeric budget",
			body:   `{"action":"MARKETING_PUSH","parameters":{"budget":5000,"channel":"SOCIAL"}}`,
			params: MarketingParams{Budget: "5000", Channel: "SOCIAL"},
			amount: "5000",
		},
		{
			name:   "pivot",
			body:   `{"action":"PIVOT","parameters":{"new_sector":"AI-SaaS"}}`,
			params: PivotParams{NewSector: "AI-SaaS"},
			amount: "0",
		},
		{
			name:   "none without parameters",
			body:   `{"action":"NONE","parameters":null}`,
			params: NoParams{},
			amount: "0",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d, err := Parse([]byte(tc.body), b)
			require.NoError(t, err)
			assert.Equal(t, tc.params, d.Params)
			assert.True(t, d.Amount.Equal(decimal.RequireFromString(tc.amount)), "amount %s", d.Amount)
			assert.NotEmpty(t, d.Reasoning)
			assert.NotEmpty(t, d.Title)
		})
	}
}

func TestParse_InvalidResponses(t *testing.T) {
	b := economy.DefaultBalance()
	for _, body := range []string{
		`not json`,
		`{}`,
		`{"action":""}`,
		`{"action":"REFACTOR"}`,
		`{"action":"HIRE_WORKER","parameters":{"count":"lots"}}`,
		`{"decision_title":"Verbindungsfehler","action_type":"NONE"}`,
	} {
		_, err := Parse([]byte(body), b)
		assert.ErrorIs(t, err, ErrInvalidDecision, body)
	}
}

func TestParseRisk(t *testing.T) {
	assert.Equal(t, RiskLow, ParseRisk(""))
	assert.Equal(t, RiskLow, ParseRisk("low"))
	assert.Equal(t, RiskHigh, ParseRisk("MEDIUM"))
	assert.Equal(t, RiskHigh, ParseRisk("HIGH"))
}

func TestFallback(t *testing.T) {
	d := Fallback("")
	assert.Equal(t, ActionNone, d.Action)
	assert.Equal(t, RiskLow, d.Risk)
	assert.Equal(t, NoParams{}, d.Params)
	assert.True(t, d.Amount.IsZero())
}

func TestMarshalJSON_WireShape(t *testing.T) {
	d := New(FireParams{Role: workforce.RoleDev, Count: 2}, "cut burn", RiskHigh, economy.DefaultBalance())

	raw, err := json.Marshal(d)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, "FIRE_WORKER", got["action"])
	assert.Equal(t, "HIGH", got["risk_assessment"])
	assert.Equal(t, "400", got["amount"])
	assert.Equal(t, map[string]any{"role": "dev", "count": float64(2)}, got["parameters"])

	// Reparse yields the same decision.
	back, err := Parse(raw, economy.DefaultBalance())
	require.NoError(t, err)
	assert.Equal(t, d.Params, back.Params)
}

func TestUnmarshalJSON_KeepsAmountAndTitle(t *testing.T) {
	d := New(MarketingParams{Budget: "HIGH", Channel: "ads"}, "go big", RiskHigh, economy.DefaultBalance())
	raw, err := json.Marshal(d)
	require.NoError(t, err)

	var back Decision
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, d.Action, back.Action)
	assert.True(t, d.Amount.Equal(back.Amount))
	assert.Equal(t, d.Title, back.Title)
	assert.Equal(t, RiskHigh, back.Risk)

	var snap struct {
		Pending *Decision `json:"pending_decision"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"pending_decision":null}`), &snap))
	assert.Nil(t, snap.Pending)
}

func TestParsePersona(t *testing.T) {
	p, ok := ParsePersona("bean counter")
	assert.True(t, ok)
	assert.Equal(t, PersonaBeanCounter, p)

	p, ok = ParsePersona("growth-hacker")
	assert.True(t, ok)
	assert.Equal(t, PersonaGrowthHacker, p)

	p, ok = ParsePersona("nobody")
	assert.False(t, ok)
	assert.Equal(t, PersonaVisionary, p)

	for _, persona := range Personas() {
		pol := PolicyFor(persona)
		assert.Equal(t, persona, pol.Persona)
		for _, a := range Actions {
			_, has := pol.Weights[a]
			assert.True(t, has, "%s lacks weight for %s", persona, a)
		}
	}
}
