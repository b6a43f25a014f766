package app

import (
	"sync"

	"github.com/ayusman/facecam/internal/session"
)

// subscriberBuffer is the number of stats reports buffered per subscriber.
const subscriberBuffer = 8

// broadcaster fans stats reports out to a callback and subscriber channels.
type broadcaster struct {
	mu       sync.Mutex
	callback func(session.Stats)
	subs     map[int]chan session.Stats
	nextID   int
}

func newBroadcaster() *broadcaster {
	return &broadcaster{subs: make(map[int]chan session.Stats)}
}

func (b *broadcaster) setCallback(fn func(session.Stats)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.callback = fn
}

func (b *broadcaster) subscribe() (<-chan session.Stats, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan session.Stats, subscriberBuffer)
	b.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs, id)
			close(ch)
		})
	}
	return ch, cancel
}

func (b *broadcaster) publish(st session.Stats) {
	b.mu.Lock()
	callback := b.callback
	for _, ch := range b.subs {
		select {
		case ch <- st:
		default:
		}
	}
	b.mu.Unlock()

	if callback != nil {
		callback(st)
	}
}
