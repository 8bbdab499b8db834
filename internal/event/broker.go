package event

import (
	"image-browser/internal/logging"

	messagebus "github.com/vardius/message-bus"
)

// Broker routes notifications from background workers to presentation
// subscribers. Handlers run on the bus's own goroutines, never on the
// decode workers, so subscribers may safely drive UI-facing state.
type Broker struct {
	bus messagebus.MessageBus
}

// NewBroker creates a broker whose per-subscriber queues hold queueSize
// pending messages.
func NewBroker(queueSize int) *Broker {
	return &Broker{bus: messagebus.New(queueSize)}
}

// Subscribe registers fn for a topic. fn's signature must match the
// arguments published on that topic.
func (b *Broker) Subscribe(topic Topic, fn interface{}) error {
	if err := b.bus.Subscribe(string(topic), fn); err != nil {
		logging.Error("subscribe to %s failed: %v", topic, err)
		return err
	}
	return nil
}

// Unsubscribe removes a previously registered handler.
func (b *Broker) Unsubscribe(topic Topic, fn interface{}) error {
	return b.bus.Unsubscribe(string(topic), fn)
}

// Publish delivers args to every subscriber of topic, asynchronously.
func (b *Broker) Publish(topic Topic, args ...interface{}) {
	b.bus.Publish(string(topic), args...)
}

// Close tears down all subscriptions for a topic.
func (b *Broker) Close(topic Topic) {
	b.bus.Close(string(topic))
}
