// Package app coordinates plan generation and chat for each user session,
// and backs the operator CLI.
package app

import (
	"context"
	"fmt"
	"io"
	"strings"

	"fitlife-ai/internal/metrics"
	"fitlife-ai/internal/planner"
	"fitlife-ai/internal/profile"

	"go.uber.org/zap"
)

// App holds the dependencies of the operator CLI.
type App struct {
	planner      PlanGenerator
	metricsStore *metrics.Store
	logger       *zap.Logger
}

// NewApp creates and initializes a new App instance. metricsStore may be nil.
func NewApp(planner PlanGenerator, metricsStore *metrics.Store, logger *zap.Logger) *App {
	return &App{
		planner:      planner,
		metricsStore: metricsStore,
		logger:       logger,
	}
}

// GenerateMealPlan creates a plan for p and prints it to w.
func (a *App) GenerateMealPlan(ctx context.Context, p profile.Profile, w io.Writer) error {
	if err := p.Validate(); err != nil {
		return err
	}
	a.logger.Info("generating plan",
		zap.Int("age", p.Age),
		zap.String("gender", string(p.Gender)),
		zap.String("activity", string(p.ActivityLevel)),
	)

	plan, meta, err := a.planner.GeneratePlan(ctx, p)
	if a.metricsStore != nil {
		if rerr := a.metricsStore.RecordMeta(ctx, meta, err == nil); rerr != nil {
			a.logger.Warn("failed to record metrics", zap.String("agent", meta.AgentName), zap.Error(rerr))
		}
	}
	if err != nil {
		return fmt.Errorf("failed to generate plan: %w", err)
	}

	PrintPlan(w, plan)
	return nil
}

// PrintPlan writes a plain-text rendering of plan.
func PrintPlan(w io.Writer, plan *planner.DailyPlan) {
	for _, slot := range planner.Slots() {
		m, _ := plan.Meal(slot)
		fmt.Fprintf(w, "\n=== %s ===\n", slot.Title())
		fmt.Fprintf(w, "%s (%.0f kcal)\n", m.Name, m.Calories)
		fmt.Fprintf(w, "%s\n", m.Description)
		if macros := formatMacros(m); macros != "" {
			fmt.Fprintf(w, "%s\n", macros)
		}
		if m.CookingTime != "" {
			fmt.Fprintf(w, "⏱ %s\n", m.CookingTime)
		}
		fmt.Fprintln(w, "\nIngredients:")
		for _, ing := range m.Ingredients {
			fmt.Fprintf(w, "- %s\n", ing)
		}
		fmt.Fprintln(w, "\nSteps:")
		for i, step := range m.Instructions {
			fmt.Fprintf(w, "%d. %s\n", i+1, step)
		}
	}
	fmt.Fprintf(w, "\n💡 %s\n", plan.Tips)
}

func formatMacros(m planner.Meal) string {
	var parts []string
	if m.Protein != "" {
		parts = append(parts, "P "+m.Protein)
	}
	if m.Carbs != "" {
		parts = append(parts, "C "+m.Carbs)
	}
	if m.Fats != "" {
		parts = append(parts, "F "+m.Fats)
	}
	return strings.Join(parts, " · ")
}

// PrintDailyUsage writes the token usage of the last days.
func (a *App) PrintDailyUsage(ctx context.Context, days int, w io.Writer) error {
	if a.metricsStore == nil {
		return fmt.Errorf("metrics store not configured")
	}
	usage, err := a.metricsStore.GetDailyUsage(ctx, days)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "%-12s %10s %12s %6s %8s\n", "DATE", "PROMPT", "COMPLETION", "CALLS", "FAILED")
	for _, u := range usage {
		fmt.Fprintf(w, "%-12s %10d %12d %6d %8d\n", u.Date, u.TotalPrompt, u.TotalCompletion, u.TotalExecution, u.Failures)
	}
	return nil
}

// CleanupMetrics removes execution metrics older than days.
func (a *App) CleanupMetrics(ctx context.Context, days int) (int64, error) {
	if a.metricsStore == nil {
		return 0, fmt.Errorf("metrics store not configured")
	}
	return a.metricsStore.Cleanup(ctx, days)
}
