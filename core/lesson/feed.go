package lesson

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Change ops
const (
	OpInsert = "insert"
	OpUpdate = "update"
)

type (
	// Event is a row-level change on the lessons table, as pushed by the store.
	Event struct {
		Op     string `json:"op"`
		Lesson Lesson `json:"lesson"`
	}

	// Feed fans table change events out to local subscribers. Slow subscribers
	// lose events rather than block the publisher; consumers reconcile by
	// last-write-by-id.
	Feed struct {
		mu   sync.RWMutex
		subs map[string]*subscriber
	}

	subscriber struct {
		ch chan Event
	}
)

func NewFeed() *Feed {
	return &Feed{subs: map[string]*subscriber{}}
}

// Subscribe returns a channel of change events. The channel is closed and the
// subscription dropped when ctx is cancelled.
func (f *Feed) Subscribe(ctx context.Context) <-chan Event {
	id := uuid.New().String()
	sub := &subscriber{ch: make(chan Event, 64)}

	f.mu.Lock()
	f.subs[id] = sub
	f.mu.Unlock()

	go func() {
		<-ctx.Done()
		f.mu.Lock()
		delete(f.subs, id)
		f.mu.Unlock()
		close(sub.ch)
	}()

	return sub.ch
}

func (f *Feed) SubscriberCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subs)
}

func (f *Feed) Publish(event Event) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, sub := range f.subs {
		select {
		case sub.ch <- event:
		default:
			// Drop if subscriber is slow.
		}
	}
}
