package eventbus

import (
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

type EventType string

const (
	EventAgentRegistered EventType = "agent.registered"
	EventAgentRevoked    EventType = "agent.revoked"
	EventScoreUpdated    EventType = "score.updated"
	EventScoreFrozen     EventType = "score.frozen"
	EventLoanOpened      EventType = "loan.opened"
	EventLoanRepaid      EventType = "loan.repaid"
	EventLoanDefaulted   EventType = "loan.defaulted"
)

// Event describes one protocol state transition. External monitors (for
// example an overdue-loan scanner) subscribe to these instead of polling
// storage.
type Event struct {
	ID        string
	Type      EventType
	AgentID   string
	LoanID    string
	Amount    int64
	Delta     int32
	CreatedAt time.Time
}

type Bus struct {
	mu          sync.RWMutex
	subscribers map[string]chan *Event
}

func New() *Bus {
	return &Bus{
		subscribers: make(map[string]chan *Event),
	}
}

func (b *Bus) Subscribe(bufSize int) (string, <-chan *Event) {
	id := ulid.Make().String()
	ch := make(chan *Event, bufSize)
	b.mu.Lock()
	b.subscribers[id] = ch
	b.mu.Unlock()
	return id, ch
}

func (b *Bus) Unsubscribe(id string) {
	b.mu.Lock()
	if ch, ok := b.subscribers[id]; ok {
		close(ch)
		delete(b.subscribers, id)
	}
	b.mu.Unlock()
}

func (b *Bus) Publish(event *Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subscribers {
		select {
		case ch <- event:
		default:
			// buffer full, drop event for this subscriber
		}
	}
}

func (b *Bus) PublishNew(eventType EventType, event Event) {
	event.ID = ulid.Make().String()
	event.Type = eventType
	event.CreatedAt = time.Now()
	b.Publish(&event)
}
