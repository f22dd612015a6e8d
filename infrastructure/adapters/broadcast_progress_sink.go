package adapters

import (
	"sync"

	"github.com/jonghyeuk/auto-mpeg/application/ports/outbound"
)

// BroadcastProgressSink fans stage events out to live subscribers, on top of
// an inner sink that always receives them. Slow subscribers drop events
// rather than stall the pipeline.
type BroadcastProgressSink struct {
	inner       outbound.ProgressSink
	mu          sync.Mutex
	subscribers map[int]chan outbound.ProgressEvent
	nextID      int
}

func NewBroadcastProgressSink(inner outbound.ProgressSink) *BroadcastProgressSink {
	return &BroadcastProgressSink{
		inner:       inner,
		subscribers: make(map[int]chan outbound.ProgressEvent),
	}
}

func (b *BroadcastProgressSink) Publish(event outbound.ProgressEvent) {
	b.inner.Publish(event)

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}

// Subscribe registers a listener. The returned cancel func must be called to
// release the channel.
func (b *BroadcastProgressSink) Subscribe() (<-chan outbound.ProgressEvent, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan outbound.ProgressEvent, 64)
	b.subscribers[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subscribers[id]; ok {
			delete(b.subscribers, id)
			close(sub)
		}
	}
	return ch, cancel
}
