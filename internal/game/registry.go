package game

import (
	"sort"
	"sync"
)

var (
	mu       sync.RWMutex
	adapters = map[string]Adapter{}
)

func Register(adapter Adapter) {
	mu.Lock()
	defer mu.Unlock()
	adapters[adapter.Game()] = adapter
}

// Get returns the adapter for game, or nil if none is registered.
func Get(game string) Adapter {
	mu.RLock()
	defer mu.RUnlock()
	return adapters[game]
}

// Names lists registered games in sorted order.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(adapters))
	for k := range adapters {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Classify runs line through the adapter for game. Unknown games and
// unrecognised lines yield nil.
func Classify(game, line string) *Event {
	a := Get(game)
	if a == nil {
		return nil
	}
	return a.ParseLine(line)
}
