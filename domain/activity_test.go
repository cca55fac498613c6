package domain

import "testing"

func TestActivityWording(t *testing.T) {
	task := Task{ID: "abc123", Title: "Write spec"}
	tests := []struct {
		got  string
		want string
	}{
		{JoinedActivity("Alice"), "Alice joined"},
		{LeftActivity("Alice"), "Alice left"},
		{CreatedActivity("Alice", task), "Alice created Task #abc123: Write spec"},
		{MovedActivity("Bob", "abc123", StatusTodo, StatusDone), "Bob moved Task #abc123 todo → done"},
		{EditedActivity("Alice", "abc123"), "Alice edited Task #abc123"},
		{DeletedActivity("Bob", "abc123"), "Bob deleted Task #abc123"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Fatalf("got %q, want %q", tt.got, tt.want)
		}
	}
}
