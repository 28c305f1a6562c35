package rcon

import "sync"

// Feed fans server lines out to console watchers. Slow watchers miss lines
// rather than stall the pump.
type Feed struct {
	mu       sync.RWMutex
	watchers map[chan string]struct{}
}

func NewFeed() *Feed {
	return &Feed{watchers: make(map[chan string]struct{})}
}

func (f *Feed) Subscribe() chan string {
	ch := make(chan string, 64)
	f.mu.Lock()
	f.watchers[ch] = struct{}{}
	f.mu.Unlock()
	return ch
}

func (f *Feed) Unsubscribe(ch chan string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.watchers[ch]; ok {
		delete(f.watchers, ch)
		close(ch)
	}
}

func (f *Feed) Publish(line string) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for ch := range f.watchers {
		select {
		case ch <- line:
		default:
		}
	}
}

// Close unsubscribes every watcher.
func (f *Feed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.watchers {
		delete(f.watchers, ch)
		close(ch)
	}
}
