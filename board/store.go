// Package board owns the in-memory board state: the task store and the
// connection registry. Neither knows anything about transports; all mutation
// goes through the api dispatcher.
package board

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"boardsync/domain"
)

// TaskStore is the authoritative task-id to task mapping. Tasks exist only
// for the lifetime of the process.
type TaskStore struct {
	mu    sync.Mutex
	tasks map[string]*domain.Task
	order []string
}

func NewTaskStore() *TaskStore {
	return &TaskStore{tasks: make(map[string]*domain.Task)}
}

// Create adds a task with a fresh id. A title that trims to empty is
// rejected as a silent no-op. An absent or unrecognized status normalizes
// to todo.
func (s *TaskStore) Create(p domain.AddTaskPayload, createdBy string) (domain.Task, bool) {
	title := strings.TrimSpace(p.Title)
	if title == "" {
		return domain.Task{}, false
	}
	status := p.Status
	if !domain.ValidStatus(status) {
		status = domain.StatusTodo
	}
	task := &domain.Task{
		ID:          uuid.NewString(),
		Title:       title,
		Description: p.Description,
		Status:      status,
		CreatedBy:   createdBy,
		AssignedTo:  p.AssignedTo,
		CreatedAt:   time.Now().UnixMilli(),
	}
	s.mu.Lock()
	s.tasks[task.ID] = task
	s.order = append(s.order, task.ID)
	s.mu.Unlock()
	return *task, true
}

func (s *TaskStore) Get(id string) (domain.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[id]
	if !ok {
		return domain.Task{}, false
	}
	return *task, true
}

// Update applies only the fields present in the payload. Last write wins. A
// title edit that trims to empty is ignored so tasks never lose their title.
// Returns the updated task, or false when the id is unknown.
func (s *TaskStore) Update(id string, p domain.EditTaskPayload) (domain.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[id]
	if !ok {
		return domain.Task{}, false
	}
	if p.Title != nil {
		if title := strings.TrimSpace(*p.Title); title != "" {
			task.Title = title
		}
	}
	if p.Description != nil {
		task.Description = *p.Description
	}
	if p.AssignedTo.Present {
		task.AssignedTo = p.AssignedTo.Value
	}
	return *task, true
}

// SetStatus moves a task between columns. Unknown ids, invalid statuses and
// moves to the current column are no-ops; a same-column move is not an event.
// Returns the previous status when the move happened.
func (s *TaskStore) SetStatus(id, to string) (string, bool) {
	if !domain.ValidStatus(to) {
		return "", false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[id]
	if !ok {
		return "", false
	}
	from := task.Status
	if from == to {
		return "", false
	}
	task.Status = to
	return from, true
}

// Delete removes a task and reports whether it existed, so callers can
// suppress broadcasts for deletions of nonexistent tasks.
func (s *TaskStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[id]; !ok {
		return false
	}
	delete(s.tasks, id)
	for i, tid := range s.order {
		if tid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// Put upserts a task that already carries an id, as received from another
// instance. Local creations go through Create.
func (s *TaskStore) Put(task domain.Task) {
	if task.ID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[task.ID]; !ok {
		s.order = append(s.order, task.ID)
	}
	t := task
	s.tasks[task.ID] = &t
}

// List snapshots all tasks in creation order.
func (s *TaskStore) List() []domain.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Task, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.tasks[id])
	}
	return out
}
