package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"fitlife-ai/internal/app"
	"fitlife-ai/internal/config"
	"fitlife-ai/internal/database"
	"fitlife-ai/internal/llm"
	"fitlife-ai/internal/logger"
	"fitlife-ai/internal/metrics"
	"fitlife-ai/internal/planner"
	"fitlife-ai/internal/profile"

	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.NewFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Logs go to stderr; the plan itself goes to stdout.
	log := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
		Development: !cfg.IsProduction(),
		Output:      os.Stderr,
	})
	defer log.Sync()

	db, err := database.NewDB(cfg.DatabasePath, log.Named("database"))
	if err != nil {
		log.Fatal("failed to initialize database", zap.Error(err))
	}
	defer db.Close()
	metricsStore := metrics.NewStore(db.SQL)

	switch os.Args[1] {
	case "plan":
		p, err := parseProfileFlags(os.Args[2:])
		if err != nil {
			log.Fatal("invalid profile", zap.Error(err))
		}

		client, err := llm.NewFromConfig(ctx, cfg)
		if err != nil {
			log.Fatal("failed to initialize language model client", zap.Error(err))
		}
		defer client.Close()

		application := app.NewApp(planner.NewPlanner(client), metricsStore, log)
		if err := application.GenerateMealPlan(ctx, p, os.Stdout); err != nil {
			var genErr *planner.GenerationError
			if errors.As(err, &genErr) {
				log.Fatal("plan generation failed", zap.String("stage", string(genErr.Stage)), zap.Error(genErr.Err))
			}
			log.Fatal("plan generation failed", zap.Error(err))
		}
	case "metrics":
		metricsCmd := flag.NewFlagSet("metrics", flag.ExitOnError)
		days := metricsCmd.Int("days", 7, "Show usage for the last N days")
		metricsCmd.Parse(os.Args[2:])

		application := app.NewApp(nil, metricsStore, log)
		if err := application.PrintDailyUsage(ctx, *days, os.Stdout); err != nil {
			log.Fatal("failed to read metrics", zap.Error(err))
		}
	case "metrics-cleanup":
		cleanupCmd := flag.NewFlagSet("metrics-cleanup", flag.ExitOnError)
		days := cleanupCmd.Int("days", 30, "Keep records for the last N days")
		cleanupCmd.Parse(os.Args[2:])

		application := app.NewApp(nil, metricsStore, log)
		affected, err := application.CleanupMetrics(ctx, *days)
		if err != nil {
			log.Fatal("cleanup failed", zap.Error(err))
		}
		fmt.Printf("Successfully removed %d old metric records.\n", affected)
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// parseProfileFlags starts from the form defaults and overrides what is given.
func parseProfileFlags(args []string) (profile.Profile, error) {
	def := profile.Default()

	fs := flag.NewFlagSet("plan", flag.ExitOnError)
	age := fs.Int("age", def.Age, "Age in years")
	height := fs.Float64("height", def.HeightCM, "Height in cm")
	weight := fs.Float64("weight", def.WeightKG, "Weight in kg")
	gender := fs.String("gender", string(def.Gender), "male | female")
	activity := fs.String("activity", string(def.ActivityLevel), "sedentary | light | moderate | active")
	goal := fs.String("goal", def.Goal, "Weight-loss goal")
	prefs := fs.String("preferences", def.Preferences, "Dietary preferences or restrictions")
	if err := fs.Parse(args); err != nil {
		return profile.Profile{}, err
	}

	p := profile.Profile{
		Age:           *age,
		HeightCM:      *height,
		WeightKG:      *weight,
		Gender:        profile.Gender(*gender),
		ActivityLevel: profile.ActivityLevel(*activity),
		Goal:          *goal,
		Preferences:   *prefs,
	}
	return p, p.Validate()
}

func printUsage() {
	fmt.Println("Usage: fitlife <command> [arguments]")
	fmt.Println("\nCommands:")
	fmt.Println("  plan               Generate a one-day meal plan (-age -height -weight -gender -activity -goal -preferences)")
	fmt.Println("  metrics            Show daily token usage (-days)")
	fmt.Println("  metrics-cleanup    Remove old metric records (-days)")
}
