package activity

import "sync"

// EventKind is a user-input event that counts as activity.
type EventKind int

const (
	PointerDown EventKind = iota + 1
	KeyDown
	TouchStart
	Scroll
)

func (k EventKind) String() string {
	switch k {
	case PointerDown:
		return "pointerdown"
	case KeyDown:
		return "keydown"
	case TouchStart:
		return "touchstart"
	case Scroll:
		return "scroll"
	default:
		return "unknown"
	}
}

// Qualifying reports whether k refreshes the idle timer.
func (k EventKind) Qualifying() bool {
	return k >= PointerDown && k <= Scroll
}

// Source delivers input events to subscribers. The returned function
// detaches the subscriber and may be called more than once.
type Source interface {
	Subscribe(fn func(EventKind)) (unsubscribe func())
}

// Bus is a synchronous in-process Source. Publish calls every subscriber on
// the publishing goroutine.
type Bus struct {
	mu   sync.RWMutex
	next uint64
	subs map[uint64]func(EventKind)
}

func NewBus() *Bus {
	return &Bus{subs: make(map[uint64]func(EventKind))}
}

func (b *Bus) Subscribe(fn func(EventKind)) func() {
	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = fn
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		})
	}
}

func (b *Bus) Publish(kind EventKind) {
	b.mu.RLock()
	fns := make([]func(EventKind), 0, len(b.subs))
	for _, fn := range b.subs {
		fns = append(fns, fn)
	}
	b.mu.RUnlock()

	for _, fn := range fns {
		fn(kind)
	}
}

// Subscribers returns the number of attached subscribers.
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
