// Package profile captures the body metrics and dietary goals a plan is
// generated for.
package profile

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidProfile is returned when a submitted profile violates a form constraint.
var ErrInvalidProfile = errors.New("invalid profile")

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// Label returns the display label used in the UI and in prompts.
func (g Gender) Label() string {
	switch g {
	case GenderMale:
		return "男"
	case GenderFemale:
		return "女"
	}
	return string(g)
}

// Genders lists the selectable genders in form order.
func Genders() []Gender {
	return []Gender{GenderMale, GenderFemale}
}

type ActivityLevel string

const (
	ActivitySedentary ActivityLevel = "sedentary"
	ActivityLight     ActivityLevel = "light"
	ActivityModerate  ActivityLevel = "moderate"
	ActivityActive    ActivityLevel = "active"
)

// Label returns the display label used in the UI and in prompts.
func (a ActivityLevel) Label() string {
	switch a {
	case ActivitySedentary:
		return "久坐不动"
	case ActivityLight:
		return "轻度活动 (每周1-3次运动)"
	case ActivityModerate:
		return "中度活动 (每周3-5次运动)"
	case ActivityActive:
		return "高度活动 (每周6-7次运动)"
	}
	return string(a)
}

// ActivityLevels lists the selectable activity levels in form order.
func ActivityLevels() []ActivityLevel {
	return []ActivityLevel{ActivitySedentary, ActivityLight, ActivityModerate, ActivityActive}
}

// Profile is the user-supplied record a plan and a chat session are built from.
type Profile struct {
	Age           int           `json:"age" validate:"gt=0"`
	HeightCM      float64       `json:"height" validate:"gt=0"`
	WeightKG      float64       `json:"weight" validate:"gt=0"`
	Gender        Gender        `json:"gender" validate:"oneof=male female"`
	ActivityLevel ActivityLevel `json:"activityLevel" validate:"oneof=sedentary light moderate active"`
	Goal          string        `json:"goal"`
	Preferences   string        `json:"preferences"`
}

// Default returns the values the form is pre-filled with.
func Default() Profile {
	return Profile{
		Age:           25,
		HeightCM:      170,
		WeightKG:      70,
		Gender:        GenderFemale,
		ActivityLevel: ActivityLight,
		Goal:          "减脂增肌，变得更健康",
	}
}

var validate = validator.New()

// Validate checks the native form constraints only: positive numbers and
// known enum values. Goal and preferences are free text.
func (p Profile) Validate() error {
	if err := validate.Struct(p); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fe.Field())
			}
			return fmt.Errorf("%w: %s", ErrInvalidProfile, strings.Join(fields, ", "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}
	// ParseFloat accepts "Inf" and "NaN"; a number input never submits them.
	if !isFinite(p.HeightCM) {
		return fmt.Errorf("%w: HeightCM", ErrInvalidProfile)
	}
	if !isFinite(p.WeightKG) {
		return fmt.Errorf("%w: WeightKG", ErrInvalidProfile)
	}
	return nil
}

func isFinite(f float64) bool {
	return !math.IsInf(f, 0) && !math.IsNaN(f)
}

// FromForm builds a Profile from submitted form values.
// Field names follow the original form: age, height, weight, gender,
// activityLevel, goal, preferences.
func FromForm(form url.Values) (Profile, error) {
	age, err := strconv.Atoi(strings.TrimSpace(form.Get("age")))
	if err != nil {
		return Profile{}, fmt.Errorf("%w: age: %v", ErrInvalidProfile, err)
	}
	height, err := strconv.ParseFloat(strings.TrimSpace(form.Get("height")), 64)
	if err != nil {
		return Profile{}, fmt.Errorf("%w: height: %v", ErrInvalidProfile, err)
	}
	weight, err := strconv.ParseFloat(strings.TrimSpace(form.Get("weight")), 64)
	if err != nil {
		return Profile{}, fmt.Errorf("%w: weight: %v", ErrInvalidProfile, err)
	}

	p := Profile{
		Age:           age,
		HeightCM:      height,
		WeightKG:      weight,
		Gender:        Gender(form.Get("gender")),
		ActivityLevel: ActivityLevel(form.Get("activityLevel")),
		Goal:          strings.TrimSpace(form.Get("goal")),
		Preferences:   strings.TrimSpace(form.Get("preferences")),
	}
	if err := p.Validate(); err != nil {
		return Profile{}, err
	}
	return p, nil
}

// PreferencesOrNone returns the preferences, or "无" when none were given.
func (p Profile) PreferencesOrNone() string {
	if p.Preferences == "" {
		return "无"
	}
	return p.Preferences
}

// FormatMeasure renders a height or weight without a trailing ".0".
func FormatMeasure(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
