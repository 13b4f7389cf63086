package report

import "fmt"

// NotAvailable is shown when a priority lookup fails.
const NotAvailable = "not available"

// PriorityClass is a named niceness preset offered in the priority menu.
type PriorityClass struct {
	Name string
	Nice int
}

// PriorityClasses lists the presets from highest to lowest priority.
var PriorityClasses = []PriorityClass{
	{Name: "High", Nice: -10},
	{Name: "Above normal", Nice: -5},
	{Name: "Normal", Nice: 0},
	{Name: "Below normal", Nice: 5},
	{Name: "Idle", Nice: 19},
}

// PriorityLabel renders a niceness value, using the preset name when one matches.
func PriorityLabel(nice int) string {
	for _, class := range PriorityClasses {
		if class.Nice == nice {
			return fmt.Sprintf("%s (%d)", class.Name, nice)
		}
	}
	return fmt.Sprintf("nice %d", nice)
}
