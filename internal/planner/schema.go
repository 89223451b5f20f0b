package planner

import "fitlife-ai/internal/llm"

func mealSchema() *llm.Schema {
	return &llm.Schema{
		Type: llm.TypeObject,
		Properties: map[string]*llm.Schema{
			"name":     {Type: llm.TypeString, Description: "Name of the dish"},
			"calories": {Type: llm.TypeNumber, Description: "Approximate calories"},
			"protein":  {Type: llm.TypeString, Description: "Protein content (e.g., '25g')"},
			"carbs":    {Type: llm.TypeString, Description: "Carbohydrate content"},
			"fats":     {Type: llm.TypeString, Description: "Fat content"},
			"ingredients": {
				Type:        llm.TypeArray,
				Items:       &llm.Schema{Type: llm.TypeString},
				Description: "List of ingredients with quantities",
			},
			"cookingTime": {Type: llm.TypeString, Description: "Time to cook"},
			"instructions": {
				Type:        llm.TypeArray,
				Items:       &llm.Schema{Type: llm.TypeString},
				Description: "Step by step cooking instructions",
			},
			"description": {Type: llm.TypeString, Description: "Short appetizing description"},
		},
		Required: []string{"name", "calories", "ingredients", "instructions", "description"},
	}
}

// DailyPlanSchema declares the output shape requested from the model.
func DailyPlanSchema() *llm.Schema {
	return &llm.Schema{
		Type: llm.TypeObject,
		Properties: map[string]*llm.Schema{
			"breakfast": mealSchema(),
			"lunch":     mealSchema(),
			"dinner":    mealSchema(),
			"tips":      {Type: llm.TypeString, Description: "One specific health tip for this user today"},
		},
		Required: []string{"breakfast", "lunch", "dinner", "tips"},
	}
}
