package domain

import "encoding/json"

// Message types, client to server.
const (
	MsgJoin       = "join"
	MsgAddTask    = "add_task"
	MsgMoveTask   = "move_task"
	MsgEditTask   = "edit_task"
	MsgDeleteTask = "delete_task"
)

// Message types, server to client. MsgAddTask, MsgMoveTask and MsgDeleteTask
// are reused in both directions.
const (
	MsgInitState   = "init_state"
	MsgUsersUpdate = "users_update"
	MsgActivity    = "activity"
	MsgUpdateTask  = "update_task"
)

// Envelope carries the type discriminant of an inbound message. The payload
// is re-parsed per type once the discriminant is known.
type Envelope struct {
	Type string `json:"type"`
}

type JoinPayload struct {
	Username string `json:"username"`
}

type AddTaskPayload struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Status      string  `json:"status"`
	AssignedTo  *string `json:"assignedTo"`
}

type MoveTaskPayload struct {
	TaskID string `json:"taskId"`
	To     string `json:"to"`
}

type EditTaskPayload struct {
	TaskID      string         `json:"taskId"`
	Title       *string        `json:"title"`
	Description *string        `json:"description"`
	AssignedTo  NullableString `json:"assignedTo"`
}

type DeleteTaskPayload struct {
	TaskID string `json:"taskId"`
}

// NullableString distinguishes an absent field from an explicit JSON null:
// Present is false when the field was omitted, true with a nil Value when the
// client sent null to clear it.
type NullableString struct {
	Present bool
	Value   *string
}

func (n *NullableString) UnmarshalJSON(b []byte) error {
	n.Present = true
	if string(b) == "null" {
		n.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	n.Value = &s
	return nil
}

func (n NullableString) MarshalJSON() ([]byte, error) {
	if n.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*n.Value)
}

// InitState is sent once to a joining client with the full board snapshot.
type InitState struct {
	Type     string `json:"type"`
	YourID   string `json:"yourId"`
	Username string `json:"username"`
	Tasks    []Task `json:"tasks"`
	Users    []User `json:"users"`
}

func NewInitState(connID, username string, tasks []Task, users []User) InitState {
	return InitState{Type: MsgInitState, YourID: connID, Username: username, Tasks: tasks, Users: users}
}

type UsersUpdate struct {
	Type  string `json:"type"`
	Users []User `json:"users"`
}

func NewUsersUpdate(users []User) UsersUpdate {
	return UsersUpdate{Type: MsgUsersUpdate, Users: users}
}

type Activity struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func NewActivity(message string) Activity {
	return Activity{Type: MsgActivity, Message: message}
}

type TaskAdded struct {
	Type string `json:"type"`
	Task Task   `json:"task"`
}

func NewTaskAdded(task Task) TaskAdded {
	return TaskAdded{Type: MsgAddTask, Task: task}
}

type TaskUpdated struct {
	Type string `json:"type"`
	Task Task   `json:"task"`
}

func NewTaskUpdated(task Task) TaskUpdated {
	return TaskUpdated{Type: MsgUpdateTask, Task: task}
}

type TaskDeleted struct {
	Type   string `json:"type"`
	TaskID string `json:"taskId"`
}

func NewTaskDeleted(taskID string) TaskDeleted {
	return TaskDeleted{Type: MsgDeleteTask, TaskID: taskID}
}

type TaskMoved struct {
	Type    string `json:"type"`
	TaskID  string `json:"taskId"`
	From    string `json:"from"`
	To      string `json:"to"`
	MovedBy string `json:"movedBy"`
}

func NewTaskMoved(taskID, from, to, movedBy string) TaskMoved {
	return TaskMoved{Type: MsgMoveTask, TaskID: taskID, From: from, To: to, MovedBy: movedBy}
}
