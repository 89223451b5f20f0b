package planner

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrMalformedPlan is wrapped by every ParsePlan failure.
var ErrMalformedPlan = errors.New("malformed plan")

// rawMeal mirrors Meal with pointers where absence must be distinguishable
// from a zero value.
type rawMeal struct {
	Name         string   `json:"name" validate:"required"`
	Calories     *float64 `json:"calories" validate:"required,gte=0"`
	Protein      string   `json:"protein"`
	Carbs        string   `json:"carbs"`
	Fats         string   `json:"fats"`
	Ingredients  []string `json:"ingredients" validate:"required"`
	CookingTime  string   `json:"cookingTime"`
	Instructions []string `json:"instructions" validate:"required"`
	Description  string   `json:"description" validate:"required"`
}

type rawPlan struct {
	Breakfast *rawMeal `json:"breakfast" validate:"required"`
	Lunch     *rawMeal `json:"lunch" validate:"required"`
	Dinner    *rawMeal `json:"dinner" validate:"required"`
	Tips      string   `json:"tips" validate:"required"`
}

var validate = validator.New()

// ParsePlan decodes the model's JSON answer. The result is all or nothing:
// any missing required field fails the whole plan.
func ParsePlan(text string) (*DailyPlan, error) {
	var raw rawPlan
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPlan, err)
	}

	if err := validate.Struct(raw); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fe.Namespace())
			}
			return nil, fmt.Errorf("%w: missing %s", ErrMalformedPlan, strings.Join(fields, ", "))
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformedPlan, err)
	}

	return &DailyPlan{
		Breakfast: raw.Breakfast.meal(),
		Lunch:     raw.Lunch.meal(),
		Dinner:    raw.Dinner.meal(),
		Tips:      raw.Tips,
	}, nil
}

func (r *rawMeal) meal() Meal {
	return Meal{
		Name:         r.Name,
		Calories:     *r.Calories,
		Protein:      r.Protein,
		Carbs:        r.Carbs,
		Fats:         r.Fats,
		Ingredients:  r.Ingredients,
		CookingTime:  r.CookingTime,
		Instructions: r.Instructions,
		Description:  r.Description,
	}
}
