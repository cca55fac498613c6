package api

import (
	"strings"

	"github.com/bytedance/sonic"
	log "github.com/sirupsen/logrus"

	"boardsync/board"
	"boardsync/domain"
)

// anonymousName labels task mutations from connections that never joined.
const anonymousName = "Unknown"

// sender abstracts the hub for dispatch, so the protocol logic is testable
// without sockets.
type sender interface {
	Broadcast(v any, exclude *Client)
	SendTo(c *Client, v any)
}

// Dispatcher is the protocol state machine. It parses inbound messages,
// validates them, mutates the task store and registry, and triggers the
// resulting broadcasts. Malformed payloads, unknown message types and
// invalid field values all degrade to silent no-ops; the protocol has no
// error channel.
type Dispatcher struct {
	store    *board.TaskStore
	registry *board.Registry
	send     sender
	logger   *log.Logger
}

func NewDispatcher(store *board.TaskStore, registry *board.Registry, send sender, logger *log.Logger) *Dispatcher {
	return &Dispatcher{store: store, registry: registry, send: send, logger: logger}
}

// HandleConnect records a new connection as anonymous presence.
func (d *Dispatcher) HandleConnect(c *Client) {
	d.registry.Register(c.id)
}

// HandleDisconnect drops the connection from the registry. Only connections
// that had joined are announced; an anonymous connection leaves no trace.
func (d *Dispatcher) HandleDisconnect(c *Client) {
	name, named := d.registry.Remove(c.id)
	if !named {
		return
	}
	d.send.Broadcast(domain.NewUsersUpdate(d.registry.Users()), nil)
	d.send.Broadcast(domain.NewActivity(domain.LeftActivity(name)), nil)
}

// HandleMessage processes one inbound frame to completion.
func (d *Dispatcher) HandleMessage(c *Client, data []byte) {
	m := newMessageMetrics(d.logger, c.id)
	defer m.Log()

	var env domain.Envelope
	if err := sonic.ConfigStd.Unmarshal(data, &env); err != nil {
		m.SetDropped("parse")
		return
	}
	m.SetType(env.Type)

	switch env.Type {
	case domain.MsgJoin:
		d.handleJoin(c, data, m)
	case domain.MsgAddTask:
		d.handleAddTask(c, data, m)
	case domain.MsgMoveTask:
		d.handleMoveTask(c, data, m)
	case domain.MsgEditTask:
		d.handleEditTask(c, data, m)
	case domain.MsgDeleteTask:
		d.handleDeleteTask(c, data, m)
	default:
		m.SetDropped("unknown_type")
	}
}

func (d *Dispatcher) handleJoin(c *Client, data []byte, m *messageMetrics) {
	var p domain.JoinPayload
	if err := sonic.ConfigStd.Unmarshal(data, &p); err != nil {
		m.SetDropped("parse")
		return
	}
	name := strings.TrimSpace(p.Username)
	if name == "" {
		name = fallbackName(c.id)
	}
	d.registry.SetName(c.id, name)

	d.send.SendTo(c, domain.NewInitState(c.id, name, d.store.List(), d.registry.Users()))
	d.send.Broadcast(domain.NewUsersUpdate(d.registry.Users()), c)
	d.send.Broadcast(domain.NewActivity(domain.JoinedActivity(name)), nil)
	m.SetBroadcasts(2)
}

func (d *Dispatcher) handleAddTask(c *Client, data []byte, m *messageMetrics) {
	var p domain.AddTaskPayload
	if err := sonic.ConfigStd.Unmarshal(data, &p); err != nil {
		m.SetDropped("parse")
		return
	}
	task, ok := d.store.Create(p, d.senderName(c))
	if !ok {
		m.SetNoop("empty_title")
		return
	}
	d.send.Broadcast(domain.NewTaskAdded(task), nil)
	d.send.Broadcast(domain.NewActivity(domain.CreatedActivity(task.CreatedBy, task)), nil)
	m.SetBroadcasts(2)
}

func (d *Dispatcher) handleMoveTask(c *Client, data []byte, m *messageMetrics) {
	var p domain.MoveTaskPayload
	if err := sonic.ConfigStd.Unmarshal(data, &p); err != nil {
		m.SetDropped("parse")
		return
	}
	from, ok := d.store.SetStatus(p.TaskID, p.To)
	if !ok {
		m.SetNoop("invalid_move")
		return
	}
	movedBy := d.senderName(c)
	d.send.Broadcast(domain.NewTaskMoved(p.TaskID, from, p.To, movedBy), nil)
	d.send.Broadcast(domain.NewActivity(domain.MovedActivity(movedBy, p.TaskID, from, p.To)), nil)
	m.SetBroadcasts(2)
}

func (d *Dispatcher) handleEditTask(c *Client, data []byte, m *messageMetrics) {
	var p domain.EditTaskPayload
	if err := sonic.ConfigStd.Unmarshal(data, &p); err != nil {
		m.SetDropped("parse")
		return
	}
	task, ok := d.store.Update(p.TaskID, p)
	if !ok {
		m.SetNoop("unknown_task")
		return
	}
	d.send.Broadcast(domain.NewTaskUpdated(task), nil)
	d.send.Broadcast(domain.NewActivity(domain.EditedActivity(d.senderName(c), p.TaskID)), nil)
	m.SetBroadcasts(2)
}

func (d *Dispatcher) handleDeleteTask(c *Client, data []byte, m *messageMetrics) {
	var p domain.DeleteTaskPayload
	if err := sonic.ConfigStd.Unmarshal(data, &p); err != nil {
		m.SetDropped("parse")
		return
	}
	if !d.store.Delete(p.TaskID) {
		m.SetNoop("unknown_task")
		return
	}
	d.send.Broadcast(domain.NewTaskDeleted(p.TaskID), nil)
	d.send.Broadcast(domain.NewActivity(domain.DeletedActivity(d.senderName(c), p.TaskID)), nil)
	m.SetBroadcasts(2)
}

func (d *Dispatcher) senderName(c *Client) string {
	if name, ok := d.registry.Name(c.id); ok {
		return name
	}
	return anonymousName
}

// fallbackName derives a display name for a join with a blank username.
func fallbackName(connID string) string {
	short := connID
	if len(short) > 4 {
		short = short[:4]
	}
	return "User-" + short
}
