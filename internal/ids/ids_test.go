package ids

import (
	"sync"
	"testing"
)

func TestNewIsUniqueAndSortable(t *testing.T) {
	const n = 1000
	seen := make(map[string]struct{}, n)
	var prev string
	for i := 0; i < n; i++ {
		id := New()
		if len(id) != 26 {
			t.Fatalf("unexpected id length: %q", id)
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id: %q", id)
		}
		seen[id] = struct{}{}
		if id <= prev {
			t.Fatalf("ids not monotonic: %q after %q", id, prev)
		}
		prev = id
	}
}

func TestNewConcurrent(t *testing.T) {
	const workers = 8
	const perWorker = 200

	var mu sync.Mutex
	seen := make(map[string]struct{}, workers*perWorker)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				id := New()
				mu.Lock()
				if _, dup := seen[id]; dup {
					mu.Unlock()
					t.Errorf("duplicate id under concurrency: %q", id)
					return
				}
				seen[id] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
}
