// Package events is the in-process publish/subscribe bus for change signals.
package events

import (
	"sync"

	"github.com/aftras/crm/internal/metrics"
	"github.com/aftras/crm/internal/utils"
)

type Topic string

const (
	TopicSettingsChanged    Topic = "settings-changed"
	TopicLogoChanged        Topic = "logo-changed"
	TopicRemoteLeadsChanged Topic = "remote-leads-changed"
)

// Topics lists every topic the bus carries.
var Topics = []Topic{TopicSettingsChanged, TopicLogoChanged, TopicRemoteLeadsChanged}

// Handler receives a topic when it is published.
type Handler func(Topic)

type subscription struct {
	topic Topic
	fn    Handler
}

// Bus dispatches published topics to subscribers synchronously, on the
// publisher's goroutine.
type Bus struct {
	mu   sync.RWMutex
	subs map[Topic][]*subscription
}

func NewBus() *Bus {
	return &Bus{subs: make(map[Topic][]*subscription)}
}

// Subscribe registers fn for topic and returns the function that removes it.
// Calling the returned function more than once is harmless.
func (b *Bus) Subscribe(topic Topic, fn Handler) func() {
	s := &subscription{topic: topic, fn: fn}
	b.mu.Lock()
	b.subs[topic] = append(b.subs[topic], s)
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(s) })
	}
}

func (b *Bus) remove(s *subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	list := b.subs[s.topic]
	for i, cur := range list {
		if cur == s {
			next := make([]*subscription, 0, len(list)-1)
			next = append(next, list[:i]...)
			next = append(next, list[i+1:]...)
			b.subs[s.topic] = next
			return
		}
	}
}

// Publish calls every handler subscribed to topic at the time of the call.
// A panicking handler is logged and does not stop the others.
func (b *Bus) Publish(topic Topic) {
	b.mu.RLock()
	snapshot := b.subs[topic]
	b.mu.RUnlock()

	metrics.EventsPublished.WithLabelValues(string(topic)).Inc()
	for _, s := range snapshot {
		b.dispatch(s, topic)
	}
}

func (b *Bus) dispatch(s *subscription, topic Topic) {
	defer func() {
		if r := recover(); r != nil {
			utils.Logger.WithField("topic", topic).Errorf("event handler panicked: %v", r)
		}
	}()
	s.fn(topic)
}

// Count returns the number of handlers on topic.
func (b *Bus) Count(topic Topic) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[topic])
}
