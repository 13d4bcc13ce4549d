package director

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/talgya/ceo-sim/internal/decision"
	"github.com/talgya/ceo-sim/internal/economy"
)

const systemPrompt = `You are the CEO of a small software startup. Your management style: {{PERSONA}}.

Once per day, at the end of business, you review the company and commit to ONE strategic move. The board (the player) may veto it before it executes.

## What you receive

A JSON snapshot: cash, financial_trend (cash change since this morning), workers, roster (dev/sales/support head counts), employee_traits, day, mood (0-100), productivity, product_level, office_level, active_events (crises happening right now), yesterday_events, inventory (upgrades already owned).

## Economics

- Developers produce the product. With no developers there is no revenue.
- Sales staff raise conversion. Support staff improve retention.
- Salaries per day: dev 50, sales 40, support 30. Rent grows with office size (5+ staff, 16+ staff).
- Hiring costs 500 per head. Firing costs 200 severance per head and hurts mood.

## Available actions

- "HIRE_WORKER": parameters {"role": "dev"|"sales"|"support", "count": <int>, "trait": optional "JUNIOR"} (500 each; without a trait each hire may turn out 10X_ENGINEER, TOXIC or JUNIOR, while asking for JUNIOR gets half-output staff with no surprises)
- "FIRE_WORKER": parameters {"role": "dev"|"sales"|"support", "count": <int>}
- "BUY_UPGRADE": parameters {"item_id": "coffee_machine"|"server_rack_v2"|"plants"} (2000 each; coffee_machine boosts productivity, server_rack_v2 prevents outages, plants lift mood)
- "MARKETING_PUSH": parameters {"budget": "HIGH"} (5000, doubles revenue for one day)
- "PIVOT": parameters {"new_sector": "<name>"} (free, halves revenue for two days, hurts mood, advances the product)
- "NONE": parameters {}

## Response format

Respond with ONLY valid JSON (no markdown, no explanation outside the JSON):
{
  "action": "HIRE_WORKER",
  "parameters": {"role": "dev", "count": 1},
  "reasoning": "One or two sentences in character.",
  "risk_assessment": "LOW"
}

## Rules

- "action" must be one of the actions above.
- "risk_assessment" is "LOW" or "HIGH".
- Never propose spending more cash than the company has.
- Do not buy an upgrade listed in inventory.`

// Completer is the subset of llm.Client the director needs.
type Completer interface {
	Complete(ctx context.Context, system, userPrompt string, maxTokens int) (string, error)
}

// LLM asks a chat model for the day's decision.
type LLM struct {
	Client    Completer
	Balance   economy.Balance
	MaxTokens int
}

// NewLLM creates an LLM director.
func NewLLM(client Completer, b economy.Balance) *LLM {
	return &LLM{Client: client, Balance: b, MaxTokens: 512}
}

// Decide sends the snapshot to the model and parses its answer.
func (l *LLM) Decide(ctx context.Context, c decision.Context) (decision.Decision, error) {
	pol := decision.PolicyFor(c.Persona)
	system := strings.Replace(systemPrompt, "{{PERSONA}}", pol.Title+". "+pol.Description, 1)

	prompt, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return decision.Decision{}, fmt.Errorf("marshal context: %w", err)
	}

	slog.Debug("director prompt", "persona", c.Persona, "length", len(prompt))

	resp, err := l.Client.Complete(ctx, system, string(prompt), l.MaxTokens)
	if err != nil {
		return decision.Decision{}, fmt.Errorf("llm call: %w", err)
	}

	raw, err := extractJSON(resp)
	if err != nil {
		return decision.Decision{}, err
	}
	d, err := decision.Parse([]byte(raw), l.Balance)
	if err != nil {
		return decision.Decision{}, fmt.Errorf("parse decision (raw: %s): %w", raw, err)
	}
	return d, nil
}

// extractJSON strips markdown fences and returns the outermost {...} block.
func extractJSON(resp string) (string, error) {
	resp = strings.TrimSpace(resp)
	resp = strings.TrimPrefix(resp, "```json")
	resp = strings.TrimPrefix(resp, "```")
	resp = strings.TrimSuffix(resp, "```")
	resp = strings.TrimSpace(resp)

	start := strings.Index(resp, "{")
	end := strings.LastIndex(resp, "}")
	if start < 0 || end < start {
		return "", ErrEmptyResponse
	}
	return resp[start : end+1], nil
}
