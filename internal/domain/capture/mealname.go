package capture

import "fmt"

var ordinalMealNames = []string{"Breakfast", "Lunch", "Dinner", "Snack"}

// MealName maps a 1-based meal index to its display name.
func MealName(index int) string {
	if index >= 1 && index <= len(ordinalMealNames) {
		return ordinalMealNames[index-1]
	}
	return fmt.Sprintf("Meal %d", index)
}
