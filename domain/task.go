package domain

// Task statuses double as board columns.
const (
	StatusTodo       = "todo"
	StatusInProgress = "in_progress"
	StatusDone       = "done"
)

// ValidStatus reports whether s is one of the three board columns.
func ValidStatus(s string) bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// Task is a single card on the board. CreatedBy and CreatedAt are fixed at
// creation; Status changes only through moves.
type Task struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Status      string  `json:"status"`
	CreatedBy   string  `json:"createdBy"`
	AssignedTo  *string `json:"assignedTo"`
	CreatedAt   int64   `json:"createdAt"`
}

// User is a presence entry: one connected, named participant.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}
