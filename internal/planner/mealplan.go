package planner

import "fmt"

// MealSlot identifies one of the three meals of a day.
type MealSlot string

const (
	SlotBreakfast MealSlot = "breakfast"
	SlotLunch     MealSlot = "lunch"
	SlotDinner    MealSlot = "dinner"
)

// Slots returns the meal slots in display order.
func Slots() []MealSlot {
	return []MealSlot{SlotBreakfast, SlotLunch, SlotDinner}
}

// ParseSlot validates a slot name.
func ParseSlot(s string) (MealSlot, error) {
	for _, slot := range Slots() {
		if string(slot) == s {
			return slot, nil
		}
	}
	return "", fmt.Errorf("unknown meal slot %q", s)
}

// Title is the heading shown on the meal card.
func (s MealSlot) Title() string {
	switch s {
	case SlotBreakfast:
		return "早餐 Breakfast"
	case SlotLunch:
		return "午餐 Lunch"
	case SlotDinner:
		return "晚餐 Dinner"
	}
	return string(s)
}

// Meal is one recipe of a daily plan. Protein, Carbs, Fats and CookingTime
// are best-effort and may be empty.
type Meal struct {
	Name         string   `json:"name"`
	Calories     float64  `json:"calories"`
	Protein      string   `json:"protein,omitempty"`
	Carbs        string   `json:"carbs,omitempty"`
	Fats         string   `json:"fats,omitempty"`
	Ingredients  []string `json:"ingredients"`
	CookingTime  string   `json:"cookingTime,omitempty"`
	Instructions []string `json:"instructions"`
	Description  string   `json:"description"`
}

// DailyPlan is the result of one generation call. It is never mutated after
// parsing.
type DailyPlan struct {
	Breakfast Meal   `json:"breakfast"`
	Lunch     Meal   `json:"lunch"`
	Dinner    Meal   `json:"dinner"`
	Tips      string `json:"tips"`
}

// Meal returns the meal for slot.
func (p *DailyPlan) Meal(slot MealSlot) (Meal, bool) {
	switch slot {
	case SlotBreakfast:
		return p.Breakfast, true
	case SlotLunch:
		return p.Lunch, true
	case SlotDinner:
		return p.Dinner, true
	}
	return Meal{}, false
}
