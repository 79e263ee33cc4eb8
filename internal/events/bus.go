package events

import (
	"sync"
	"time"

	"appctl/pkg/logging"
)

// Bus renders pipeline events and fans them out to subscribers. Sends never
// block: a subscriber that cannot keep up misses events.
type Bus struct {
	mu          sync.RWMutex
	subscribers []chan Event
	closed      bool
	templates   *MessageTemplateEngine
	now         func() time.Time
}

// NewBus creates a bus with the default message templates.
func NewBus() *Bus {
	return &Bus{
		templates: NewMessageTemplateEngine(),
		now:       time.Now,
	}
}

// Templates returns the engine used to render messages.
func (b *Bus) Templates() *MessageTemplateEngine {
	return b.templates
}

// Subscribe returns a channel receiving every subsequent event. The channel
// is closed by Close.
func (b *Bus) Subscribe(buffer int) <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, buffer)
	if b.closed {
		close(ch)
		return ch
	}
	b.subscribers = append(b.subscribers, ch)
	return ch
}

// Emit renders and publishes an event, returning it. A nil bus is a no-op.
func (b *Bus) Emit(reason EventReason, data EventData) Event {
	if b == nil {
		return Event{Reason: reason, Data: data}
	}
	ev := Event{
		Reason:  reason,
		Type:    getEventType(reason, data),
		Message: b.templates.Render(reason, data),
		Data:    data,
		Time:    b.now(),
	}

	logging.Debug("Events", "Emitting %s (%s): %s", string(reason), string(ev.Type), ev.Message)

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ev
	}
	for _, subscriber := range b.subscribers {
		select {
		case subscriber <- ev:
		default:
			// Don't block if subscriber can't receive immediately
			logging.Debug("Events", "Subscriber blocked, skipping %s event", string(reason))
		}
	}
	return ev
}

// Close closes every subscriber channel. Later emits are not delivered.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, ch := range b.subscribers {
		close(ch)
	}
	b.subscribers = nil
}
