// Package notify delivers state snapshots to subscribers in version order.
package notify

import "sync"

// Broadcaster fans snapshots out to subscribers. Owners stamp each snapshot
// with a version taken under their own state lock; a snapshot older than one
// already queued or delivered is dropped, so the last thing every subscriber
// sees is the newest state. Only one goroutine delivers at a time. A Publish
// made while another is delivering, including one made from inside a
// subscriber, is handed to the delivering goroutine.
type Broadcaster[S any] struct {
	mu         sync.Mutex
	subs       map[int]func(S)
	nextID     int
	latest     uint64
	pending    *S
	delivering bool
}

func New[S any]() *Broadcaster[S] {
	return &Broadcaster[S]{subs: map[int]func(S){}}
}

// Subscribe registers fn. The returned func removes it.
func (b *Broadcaster[S]) Subscribe(fn func(S)) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = fn
	b.mu.Unlock()
	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

// Publish delivers snap, stamped with version, unless a newer version has
// already been published.
func (b *Broadcaster[S]) Publish(version uint64, snap S) {
	b.mu.Lock()
	if version <= b.latest {
		b.mu.Unlock()
		return
	}
	b.latest = version
	b.pending = &snap
	if b.delivering {
		b.mu.Unlock()
		return
	}
	b.delivering = true
	for b.pending != nil {
		next := *b.pending
		b.pending = nil
		subs := make([]func(S), 0, len(b.subs))
		for _, fn := range b.subs {
			subs = append(subs, fn)
		}
		b.mu.Unlock()
		for _, fn := range subs {
			fn(next)
		}
		b.mu.Lock()
	}
	b.delivering = false
	b.mu.Unlock()
}
