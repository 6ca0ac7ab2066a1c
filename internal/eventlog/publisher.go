package eventlog

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// Envelope is the outbound wire shape pushed to subscribers.
type Envelope struct {
	BatchNumber string `json:"batchNumber"`
	DayNumber   int    `json:"dayNumber"`
	Date        string `json:"date"`
	Payload     Event  `json:"payload"`
}

// Publisher is the outbound hook. A failing publisher must never block
// domain progress; callers log and move on.
type Publisher interface {
	Publish(topic Topic, env Envelope) error
}

// NopPublisher discards everything. The default when no subscriber is wired.
type NopPublisher struct{}

// Publish implements Publisher.
func (NopPublisher) Publish(Topic, Envelope) error { return nil }

// CollectingPublisher buffers envelopes per topic in memory. Used by tests
// and by the bulk flush path.
type CollectingPublisher struct {
	mu     sync.Mutex
	topics map[Topic][]Envelope
}

// NewCollectingPublisher creates an empty collecting publisher.
func NewCollectingPublisher() *CollectingPublisher {
	return &CollectingPublisher{topics: make(map[Topic][]Envelope)}
}

// Publish implements Publisher.
func (p *CollectingPublisher) Publish(topic Topic, env Envelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics[topic] = append(p.topics[topic], env)
	return nil
}

// Collected returns the envelopes published on a topic.
func (p *CollectingPublisher) Collected(topic Topic) []Envelope {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Envelope, len(p.topics[topic]))
	copy(out, p.topics[topic])
	return out
}

// Emitter is the engine's single door into the event stream: it stamps
// sequence numbers, appends to the store, and pushes publishable topics.
type Emitter struct {
	mu    sync.Mutex
	store *Store
	pub   Publisher
	seq   map[string]int
}

// NewEmitter creates an emitter writing to the store and publisher.
func NewEmitter(store *Store, pub Publisher) *Emitter {
	if pub == nil {
		pub = NopPublisher{}
	}
	return &Emitter{store: store, pub: pub, seq: make(map[string]int)}
}

// Emit stamps the next sequence number on the event, stores it, and pushes
// it to the publisher when its type maps to a topic. Publisher failures are
// logged and swallowed.
func (em *Emitter) Emit(e Event) Event {
	em.mu.Lock()
	em.seq[e.BatchNumber]++
	e.Seq = em.seq[e.BatchNumber]
	em.mu.Unlock()

	em.store.Append(e.BatchNumber, []Event{e})

	if topic, ok := TopicFor(e.Type); ok {
		env := Envelope{BatchNumber: e.BatchNumber, DayNumber: e.Day, Date: e.Date, Payload: e}
		if err := em.pub.Publish(topic, env); err != nil {
			log.Warn().Err(err).Str("batch", e.BatchNumber).Str("topic", string(topic)).
				Msg("Publisher failed, continuing")
		}
	}
	return e
}

// Store exposes the backing store for bulk readers.
func (em *Emitter) Store() *Store {
	return em.store
}
