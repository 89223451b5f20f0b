// Package planner turns a profile into a one-day, three-meal fat-loss plan
// with a single structured call to the language model.
package planner

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"strings"
	"text/template"
	"time"

	"fitlife-ai/internal/llm"
	"fitlife-ai/internal/profile"
	"fitlife-ai/internal/shared"
)

//go:embed plan_prompt.md
var planPrompt string

var planTemplate = template.Must(template.New("plan").Parse(planPrompt))

const (
	agentName   = "Planner"
	temperature = 0.7
)

type planPromptData struct {
	Age           int
	Gender        string
	Height        string
	Weight        string
	ActivityLevel string
	Goal          string
	Preferences   string
}

// Stage names the step of a generation that failed.
type Stage string

const (
	StageRequest Stage = "request"
	StageEmpty   Stage = "empty"
	StageParse   Stage = "parse"
)

// GenerationError is returned for every failed plan generation.
type GenerationError struct {
	Stage Stage
	Err   error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("plan generation failed at %s: %v", e.Stage, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Planner generates daily plans.
type Planner struct {
	gen llm.StructuredGenerator
}

// NewPlanner creates a new Planner instance.
func NewPlanner(gen llm.StructuredGenerator) *Planner {
	return &Planner{gen: gen}
}

// BuildPrompt renders the plan request for p.
func BuildPrompt(p profile.Profile) (string, error) {
	var buf bytes.Buffer
	err := planTemplate.Execute(&buf, planPromptData{
		Age:           p.Age,
		Gender:        p.Gender.Label(),
		Height:        profile.FormatMeasure(p.HeightCM),
		Weight:        profile.FormatMeasure(p.WeightKG),
		ActivityLevel: p.ActivityLevel.Label(),
		Goal:          p.Goal,
		Preferences:   p.PreferencesOrNone(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to render plan prompt: %w", err)
	}
	return buf.String(), nil
}

// GeneratePlan issues exactly one structured request and returns the parsed
// plan. There is no retry; a malformed answer never yields a partial plan.
func (p *Planner) GeneratePlan(ctx context.Context, prof profile.Profile) (*DailyPlan, shared.AgentMeta, error) {
	start := time.Now()
	meta := shared.AgentMeta{AgentName: agentName}

	prompt, err := BuildPrompt(prof)
	if err != nil {
		return nil, meta, &GenerationError{Stage: StageRequest, Err: err}
	}

	resp, err := p.gen.GenerateStructured(ctx, llm.StructuredRequest{
		Prompt:      prompt,
		Schema:      DailyPlanSchema(),
		MIMEType:    "application/json",
		Temperature: temperature,
	})
	meta.Latency = time.Since(start)
	meta.Usage = resp.Usage
	if err != nil {
		return nil, meta, &GenerationError{Stage: StageRequest, Err: err}
	}

	if strings.TrimSpace(resp.Content) == "" {
		return nil, meta, &GenerationError{Stage: StageEmpty, Err: llm.ErrNoContent}
	}

	plan, err := ParsePlan(resp.Content)
	if err != nil {
		return nil, meta, &GenerationError{Stage: StageParse, Err: err}
	}
	return plan, meta, nil
}
