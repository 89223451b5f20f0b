package planner

import (
	"context"
	"testing"

	"fitlife-ai/internal/config"
	"fitlife-ai/internal/llm"
	"fitlife-ai/internal/profile"
)

// TestPlanner_LiveEval performs a real LLM call to check that the configured
// provider answers with a plan that parses.
// Run with: go test -v ./internal/planner -run TestPlanner_LiveEval
func TestPlanner_LiveEval(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping live eval in short mode")
	}

	ctx := context.Background()
	cfg, err := config.NewFromEnv()
	if err != nil || cfg.APIKey() == "" {
		t.Skip("Skipping: No API keys found in environment")
	}

	client, err := llm.NewFromConfig(ctx, cfg)
	if err != nil {
		t.Skipf("Skipping: %v", err)
	}
	defer client.Close()

	plan, meta, err := NewPlanner(client).GeneratePlan(ctx, profile.Default())
	if err != nil {
		t.Fatalf("GeneratePlan failed: %v", err)
	}

	for _, slot := range Slots() {
		m, _ := plan.Meal(slot)
		if m.Calories <= 0 || m.Calories > 1500 {
			t.Errorf("LOGIC FAIL: %s has implausible calories %.0f", slot, m.Calories)
		}
		if len(m.Instructions) == 0 {
			t.Errorf("DATA FAIL: %s has no instructions", slot)
		}
	}
	t.Logf("tokens=%d latency=%s", meta.Usage.TotalTokens, meta.Latency)
}
