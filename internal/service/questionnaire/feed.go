package questionnaire

import (
	"log"
	"sync"

	"github.com/zhouzirui/mindcheck/backend/internal/model/chat"
)

// feed fans transcript entries out to live subscribers. Sends never block:
// a subscriber whose buffer is full misses the entry and can reload the
// transcript instead.
type feed struct {
	mu     sync.Mutex
	subs   map[uint64]chan chat.Message
	next   uint64
	buffer int
	closed bool
}

func newFeed(buffer int) *feed {
	if buffer <= 0 {
		buffer = 32
	}
	return &feed{subs: make(map[uint64]chan chat.Message), buffer: buffer}
}

func (f *feed) subscribe() (<-chan chat.Message, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()

	ch := make(chan chat.Message, f.buffer)
	if f.closed {
		close(ch)
		return ch, func() {}
	}

	id := f.next
	f.next++
	f.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() { f.remove(id) })
	}
}

func (f *feed) remove(id uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ch, ok := f.subs[id]; ok {
		delete(f.subs, id)
		close(ch)
	}
}

func (f *feed) publish(msg chat.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, ch := range f.subs {
		select {
		case ch <- msg:
		default:
			log.Printf("[questionnaire] subscriber %d lagging, dropped message %s", id, msg.ID)
		}
	}
}

// close ends every subscription; later subscribers get a closed channel.
func (f *feed) close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	for id, ch := range f.subs {
		delete(f.subs, id)
		close(ch)
	}
}
