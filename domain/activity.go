package domain

import "fmt"

// Activity feed lines. These are transient strings, broadcast once and never
// stored; wording matches what the board UI renders verbatim.

func JoinedActivity(name string) string {
	return name + " joined"
}

func LeftActivity(name string) string {
	return name + " left"
}

func CreatedActivity(name string, task Task) string {
	return fmt.Sprintf("%s created Task #%s: %s", name, task.ID, task.Title)
}

func MovedActivity(name, taskID, from, to string) string {
	return fmt.Sprintf("%s moved Task #%s %s → %s", name, taskID, from, to)
}

func EditedActivity(name, taskID string) string {
	return fmt.Sprintf("%s edited Task #%s", name, taskID)
}

func DeletedActivity(name, taskID string) string {
	return fmt.Sprintf("%s deleted Task #%s", name, taskID)
}
