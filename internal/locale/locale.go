// Package locale exposes the catalog of user-facing strings.
package locale

import (
	"bytes"
	_ "embed"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed messages.yaml
var messagesYAML []byte

// Messages is the string catalog.
type Messages struct {
	AppName                string `yaml:"app_name"`
	FormTitle              string `yaml:"form_title"`
	FormSubtitle           string `yaml:"form_subtitle"`
	FormSubmit             string `yaml:"form_submit"`
	FormLoading            string `yaml:"form_loading"`
	GoalPlaceholder        string `yaml:"goal_placeholder"`
	PreferencesPlaceholder string `yaml:"preferences_placeholder"`
	PlanBadge              string `yaml:"plan_badge"`
	PlanHeadline           string `yaml:"plan_headline"`
	PlanSubtitle           string `yaml:"plan_subtitle"`
	TipTitle               string `yaml:"tip_title"`
	ViewRecipe             string `yaml:"view_recipe"`
	RecipeBadge            string `yaml:"recipe_badge"`
	IngredientsTitle       string `yaml:"ingredients_title"`
	InstructionsTitle      string `yaml:"instructions_title"`
	Disclaimer             string `yaml:"disclaimer"`
	Reset                  string `yaml:"reset"`
	GenerationFailed       string `yaml:"generation_failed"`
	ChatTitle              string `yaml:"chat_title"`
	ChatPlaceholder        string `yaml:"chat_placeholder"`
	ChatGreeting           string `yaml:"chat_greeting"`
	ChatEmptyReply         string `yaml:"chat_empty_reply"`
	ChatFailed             string `yaml:"chat_failed"`
	Protein                string `yaml:"protein"`
	Carbs                  string `yaml:"carbs"`
	Fats                   string `yaml:"fats"`
}

var (
	once     sync.Once
	defaults Messages
	loadErr  error
)

// Default returns the embedded catalog. It panics if the embedded file is
// malformed, which can only happen at build time.
func Default() Messages {
	once.Do(func() {
		defaults, loadErr = Parse(messagesYAML)
	})
	if loadErr != nil {
		panic(loadErr)
	}
	return defaults
}

// Parse decodes a catalog and rejects unknown keys.
func Parse(data []byte) (Messages, error) {
	var m Messages
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return Messages{}, fmt.Errorf("failed to decode messages catalog: %w", err)
	}
	return m, nil
}

// Subtitle fills the body measurements into PlanSubtitle.
func (m Messages) Subtitle(heightCM, weightKG float64) string {
	r := strings.NewReplacer(
		"{{height}}", trimFloat(heightCM),
		"{{weight}}", trimFloat(weightKG),
	)
	return r.Replace(m.PlanSubtitle)
}

func trimFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
