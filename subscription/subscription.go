// Package subscription keeps boards served by multiple instances in sync.
// Every locally-originated task or activity event is published to a Redis
// channel; a subscriber loop applies events from other instances to the
// local store and relays them to local clients. Presence never crosses
// instances: each instance owns its own connections.
package subscription

import (
	"context"
	"encoding/json"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"boardsync/domain"
)

const publishTimeout = 5 * time.Second

// BoardEvent is the wire envelope on the Redis channel: the serialized
// server-to-client payload tagged with the originating instance.
type BoardEvent struct {
	Origin  string          `json:"origin"`
	Payload json.RawMessage `json:"payload"`
}

// Store applies remotely-originated events to local board state.
type Store interface {
	Put(task domain.Task)
	SetStatus(id, to string) (string, bool)
	Delete(id string) bool
}

// Relay fans a pre-serialized event out to local connections.
type Relay interface {
	RelayRemote(payload []byte)
}

// Publisher sends locally-originated board events to the shared channel. It
// satisfies the hub's publisher hook.
type Publisher struct {
	rc         *redis.Client
	channel    string
	instanceID string
	logger     *log.Logger
}

func NewPublisher(rc *redis.Client, channel, instanceID string, logger *log.Logger) *Publisher {
	return &Publisher{rc: rc, channel: channel, instanceID: instanceID, logger: logger}
}

func (p *Publisher) Publish(payload []byte) {
	ev := BoardEvent{Origin: p.instanceID, Payload: payload}
	data, err := sonic.ConfigStd.Marshal(ev)
	if err != nil {
		p.logger.Errorf("marshal board event: %v", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := p.rc.Publish(ctx, p.channel, data).Err(); err != nil {
		p.logger.Errorf("publish board event: %v", err)
	}
}

// SubscribeEvents consumes board events published by other instances,
// applies them to the local store and relays them to local clients. It
// reconnects on channel loss and returns when ctx is done.
func SubscribeEvents(
	ctx context.Context,
	logger *log.Logger,
	rc *redis.Client,
	store Store,
	relay Relay,
	channel string,
	instanceID string,
) {
	for {
		sub := rc.Subscribe(ctx, channel)
		ch := sub.Channel()
	recv:
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close()
				return
			case msg, ok := <-ch:
				if !ok {
					break recv
				}
				var ev BoardEvent
				if err := sonic.ConfigStd.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					logger.Errorf("unable to parse board event: %v", err)
					continue
				}
				if ev.Origin == instanceID {
					continue
				}
				applyEvent(logger, store, ev.Payload)
				relay.RelayRemote(ev.Payload)
			}
		}
		_ = sub.Close()
		if ctx.Err() != nil {
			return
		}
		logger.Error("pubsub channel closed, reconnecting")
		time.Sleep(time.Second)
	}
}

// applyEvent folds a remote event into local state so later joiners get a
// consistent snapshot. Application is last-write-wins and best effort: an
// event for a task this instance never saw is relayed but not applied.
func applyEvent(logger *log.Logger, store Store, payload []byte) {
	var env domain.Envelope
	if err := sonic.ConfigStd.Unmarshal(payload, &env); err != nil {
		logger.Errorf("unable to parse relayed payload: %v", err)
		return
	}
	switch env.Type {
	case domain.MsgAddTask:
		var ev domain.TaskAdded
		if err := sonic.ConfigStd.Unmarshal(payload, &ev); err != nil {
			logger.Errorf("unable to parse relayed task: %v", err)
			return
		}
		store.Put(ev.Task)
	case domain.MsgUpdateTask:
		var ev domain.TaskUpdated
		if err := sonic.ConfigStd.Unmarshal(payload, &ev); err != nil {
			logger.Errorf("unable to parse relayed task: %v", err)
			return
		}
		store.Put(ev.Task)
	case domain.MsgMoveTask:
		var ev domain.TaskMoved
		if err := sonic.ConfigStd.Unmarshal(payload, &ev); err != nil {
			logger.Errorf("unable to parse relayed move: %v", err)
			return
		}
		store.SetStatus(ev.TaskID, ev.To)
	case domain.MsgDeleteTask:
		var ev domain.TaskDeleted
		if err := sonic.ConfigStd.Unmarshal(payload, &ev); err != nil {
			logger.Errorf("unable to parse relayed delete: %v", err)
			return
		}
		store.Delete(ev.TaskID)
	}
}
