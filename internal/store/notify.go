package store

import (
	"context"
	"strings"
	"sync"
)

// lister is what the notifier needs from its owning store to build
// the snapshot it delivers
type lister interface {
	List(ctx context.Context, prefix string) ([]Keyed, error)
}

type watchEntry struct {
	prefix string
	fn     SnapshotFunc
}

// notifier tracks watch subscriptions and fans out full-snapshot
// callbacks after writes. Shared by the memory and postgres stores.
type notifier struct {
	mu      sync.Mutex
	nextID  int
	entries map[int]watchEntry
}

func newNotifier() *notifier {
	return &notifier{entries: make(map[int]watchEntry)}
}

func (n *notifier) add(prefix string, fn SnapshotFunc) CancelFunc {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.nextID
	n.nextID++
	n.entries[id] = watchEntry{prefix: prefix, fn: fn}

	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.entries, id)
	}
}

// notify delivers fresh snapshots to every watcher whose prefix covers
// one of the touched paths. Delivery is synchronous with the write so
// observers always see the state they were notified about.
func (n *notifier) notify(src lister, touched []string) {
	n.mu.Lock()
	matched := make([]watchEntry, 0, len(n.entries))
	for _, e := range n.entries {
		for _, path := range touched {
			if strings.HasPrefix(path, e.prefix) {
				matched = append(matched, e)
				break
			}
		}
	}
	n.mu.Unlock()

	for _, e := range matched {
		snapshot, err := src.List(context.Background(), e.prefix)
		if err != nil {
			continue
		}
		e.fn(snapshot)
	}
}
