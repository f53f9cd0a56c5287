package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"tempnote-be/internal/pkg/logger"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

const (
	DefaultTopic      = "notes.changes"
	subscriberBacklog = 256
)

// Relay forwards locally produced events to other instances.
type Relay interface {
	Forward(ctx context.Context, evt ChangeEvent) error
}

// Feed fans change events out to in-process subscribers. Events travel over a
// watermill gochannel topic consumed by a single dispatcher, so every
// subscriber observes them in publish order.
type Feed struct {
	pubSub *gochannel.GoChannel
	topic  string
	origin string
	logger logger.ILogger

	mu     sync.RWMutex
	subs   map[uint64]*Subscription
	nextID uint64
	relay  Relay
}

// NewPubSub builds the in-process transport for a Feed. Publishing blocks
// until the dispatcher acknowledges, which keeps events in publish order.
func NewPubSub(log watermill.LoggerAdapter) *gochannel.GoChannel {
	return gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer:            subscriberBacklog,
		BlockPublishUntilSubscriberAck: true,
	}, log)
}

func NewFeed(pubSub *gochannel.GoChannel, topic, origin string, log logger.ILogger) *Feed {
	return &Feed{
		pubSub: pubSub,
		topic:  topic,
		origin: origin,
		logger: log,
		subs:   make(map[uint64]*Subscription),
	}
}

func (f *Feed) Origin() string {
	return f.origin
}

func (f *Feed) SetRelay(relay Relay) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.relay = relay
}

// Start begins dispatching. It returns once the topic subscription is in
// place; dispatching stops when ctx is cancelled.
func (f *Feed) Start(ctx context.Context) error {
	messages, err := f.pubSub.Subscribe(ctx, f.topic)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", f.topic, err)
	}
	go f.dispatch(messages)
	return nil
}

func (f *Feed) dispatch(messages <-chan *message.Message) {
	for msg := range messages {
		var evt ChangeEvent
		if err := json.Unmarshal(msg.Payload, &evt); err != nil {
			f.logger.Error("Feed", "Dropping undecodable change event", map[string]interface{}{"error": err, "uuid": msg.UUID})
			msg.Ack()
			continue
		}
		msg.Ack()

		f.mu.RLock()
		for _, sub := range f.subs {
			if sub.filter.Matches(evt) {
				sub.enqueue(evt, f.logger)
			}
		}
		f.mu.RUnlock()
	}
}

// Publish stamps the event with this instance's origin, delivers it locally
// and forwards it through the relay when one is configured.
func (f *Feed) Publish(ctx context.Context, evt ChangeEvent) error {
	evt.Origin = f.origin
	if err := f.publishLocal(evt); err != nil {
		return err
	}

	f.mu.RLock()
	relay := f.relay
	f.mu.RUnlock()
	if relay != nil {
		if err := relay.Forward(ctx, evt); err != nil {
			f.logger.Warn("Feed", "Failed to relay change event", map[string]interface{}{"error": err, "note_id": evt.NoteID})
		}
	}
	return nil
}

// Inject delivers an event received from another instance without relaying it again.
func (f *Feed) Inject(evt ChangeEvent) error {
	return f.publishLocal(evt)
}

func (f *Feed) publishLocal(evt ChangeEvent) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal change event: %w", err)
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := f.pubSub.Publish(f.topic, msg); err != nil {
		return fmt.Errorf("publish change event: %w", err)
	}
	return nil
}

// Subscribe registers handler for events matching filter. Handlers of one
// subscription run sequentially on a goroutine owned by the subscription.
func (f *Feed) Subscribe(filter Filter, handler func(ChangeEvent)) *Subscription {
	sub := &Subscription{
		filter:  filter,
		handler: handler,
		events:  make(chan ChangeEvent, subscriberBacklog),
		done:    make(chan struct{}),
	}

	f.mu.Lock()
	f.nextID++
	id := f.nextID
	f.subs[id] = sub
	f.mu.Unlock()

	sub.remove = func() {
		f.mu.Lock()
		delete(f.subs, id)
		f.mu.Unlock()
	}

	go sub.run()
	return sub
}

func (f *Feed) SubscriberCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subs)
}

type Subscription struct {
	filter  Filter
	handler func(ChangeEvent)
	events  chan ChangeEvent
	done    chan struct{}
	remove  func()
	once    sync.Once
}

func (s *Subscription) enqueue(evt ChangeEvent, log logger.ILogger) {
	select {
	case <-s.done:
	case s.events <- evt:
	default:
		log.Warn("Feed", "Subscriber backlog full, dropping change event", map[string]interface{}{"note_id": evt.NoteID, "kind": evt.Kind})
	}
}

func (s *Subscription) run() {
	for {
		select {
		case <-s.done:
			return
		case evt := <-s.events:
			select {
			case <-s.done:
				return
			default:
			}
			s.handler(evt)
		}
	}
}

// Cancel stops delivery. Safe to call more than once.
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		s.remove()
		close(s.done)
	})
}
