package telegram

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"fitlife-ai/internal/locale"
	"fitlife-ai/internal/metrics"
	"fitlife-ai/internal/planner"
	"fitlife-ai/internal/profile"
)

const usageText = "用法:\n" +
	"/plan <年龄> <身高cm> <体重kg> <male|female> <sedentary|light|moderate|active> <目标> [| 饮食偏好]\n" +
	"/meal <breakfast|lunch|dinner> 查看做法详情\n" +
	"/reset 重新定制\n" +
	"生成食谱后，直接发消息即可咨询减脂顾问。"

var errPlanUsage = errors.New("usage: /plan <age> <height> <weight> <gender> <activity> <goal> [| preferences]")

// parsePlanArgs reads the arguments of /plan. Everything after the fifth
// field is the goal; an optional "|" separates dietary preferences.
func parsePlanArgs(args string) (profile.Profile, error) {
	head, prefs, _ := strings.Cut(args, "|")
	fields := strings.Fields(head)
	if len(fields) < 6 {
		return profile.Profile{}, errPlanUsage
	}

	age, err := strconv.Atoi(fields[0])
	if err != nil {
		return profile.Profile{}, fmt.Errorf("%w: age: %v", profile.ErrInvalidProfile, err)
	}
	height, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return profile.Profile{}, fmt.Errorf("%w: height: %v", profile.ErrInvalidProfile, err)
	}
	weight, err := strconv.ParseFloat(fields[2], 64)
	if err != nil {
		return profile.Profile{}, fmt.Errorf("%w: weight: %v", profile.ErrInvalidProfile, err)
	}

	p := profile.Profile{
		Age:           age,
		HeightCM:      height,
		WeightKG:      weight,
		Gender:        profile.Gender(strings.ToLower(fields[3])),
		ActivityLevel: profile.ActivityLevel(strings.ToLower(fields[4])),
		Goal:          strings.Join(fields[5:], " "),
		Preferences:   strings.TrimSpace(prefs),
	}
	if err := p.Validate(); err != nil {
		return profile.Profile{}, err
	}
	return p, nil
}

var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")

// esc escapes text for Telegram's legacy Markdown mode.
func esc(s string) string {
	return markdownEscaper.Replace(s)
}

// stripMarkdown turns text produced for Markdown mode back into plain text:
// escapes are resolved and markup characters dropped.
func stripMarkdown(s string) string {
	var sb strings.Builder
	escaped := false
	for _, r := range s {
		switch {
		case escaped:
			sb.WriteRune(r)
			escaped = false
		case r == '\\':
			escaped = true
		case r == '*' || r == '_' || r == '`':
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatPlanMarkdown(m locale.Messages, p profile.Profile, plan *planner.DailyPlan) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🥗 *%s*\n_%s_\n\n", esc(m.PlanBadge), esc(m.Subtitle(p.HeightCM, p.WeightKG)))

	for _, slot := range planner.Slots() {
		meal, _ := plan.Meal(slot)
		fmt.Fprintf(&sb, "*%s*: %s\n", esc(slot.Title()), esc(meal.Name))
		fmt.Fprintf(&sb, "%s kcal", formatNumber(meal.Calories))
		if meal.CookingTime != "" {
			fmt.Fprintf(&sb, " · ⏱ %s", esc(meal.CookingTime))
		}
		sb.WriteString("\n")
		if meal.Description != "" {
			fmt.Fprintf(&sb, "%s\n", esc(meal.Description))
		}
		sb.WriteString("\n")
	}

	fmt.Fprintf(&sb, "%s\n%s\n\n", esc(m.TipTitle), esc(plan.Tips))
	sb.WriteString("/meal breakfast | lunch | dinner → " + esc(m.ViewRecipe))
	return sb.String()
}

func formatMealMarkdown(m locale.Messages, slot planner.MealSlot, meal planner.Meal) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "*%s*: %s\n", esc(slot.Title()), esc(meal.Name))
	fmt.Fprintf(&sb, "%s kcal", formatNumber(meal.Calories))
	if meal.CookingTime != "" {
		fmt.Fprintf(&sb, " · ⏱ %s", esc(meal.CookingTime))
	}
	sb.WriteString("\n")

	var macros []string
	if meal.Protein != "" {
		macros = append(macros, m.Protein+" "+meal.Protein)
	}
	if meal.Carbs != "" {
		macros = append(macros, m.Carbs+" "+meal.Carbs)
	}
	if meal.Fats != "" {
		macros = append(macros, m.Fats+" "+meal.Fats)
	}
	if len(macros) > 0 {
		sb.WriteString(esc(strings.Join(macros, " · ")) + "\n")
	}

	fmt.Fprintf(&sb, "\n*%s*\n", esc(m.IngredientsTitle))
	for _, ing := range meal.Ingredients {
		fmt.Fprintf(&sb, "• %s\n", esc(ing))
	}
	fmt.Fprintf(&sb, "\n*%s*\n", esc(m.InstructionsTitle))
	for i, step := range meal.Instructions {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, esc(step))
	}
	return sb.String()
}

func formatUsageReport(usage []metrics.DailyUsage, health metrics.SysHealth) string {
	var sb strings.Builder
	sb.WriteString("📊 *Usage & Health Report*\n\n")

	sb.WriteString("🗓 *Recent LLM Activity*\n")
	if len(usage) == 0 {
		sb.WriteString("_No data yet_\n")
	}
	for _, d := range usage {
		fmt.Fprintf(&sb, "• *%s*: %d tokens (%d execs, %d failed)\n", d.Date, d.TotalPrompt+d.TotalCompletion, d.TotalExecution, d.Failures)
	}

	sb.WriteString("\n🧠 *System Health*\n")
	fmt.Fprintf(&sb, "• RAM: %dMB (Alloc) / %dMB (Sys)\n", health.AllocMB, health.SysMB)
	fmt.Fprintf(&sb, "• Goroutines: %d\n", health.Goroutines)
	fmt.Fprintf(&sb, "• Sessions: %d\n", health.ActiveSessions)
	fmt.Fprintf(&sb, "• Disk Data: %s\n", health.DataDiskSize)
	return sb.String()
}
