package zoetrope

import (
	"sync"

	"github.com/teranos/zoetrope/jam"
)

// booth is the projection booth's incident ledger: which items have
// burned, whether the scene has collapsed, and the jam handler that
// records it all.
//
// View renders on a value receiver and cannot persist state, so both
// fault boundaries write through this shared pointer. The mutex is
// there because test directors poll View from outside the program
// loop while Update runs inside it.
type booth struct {
	mu      sync.Mutex
	handler *jam.Handler
	failed  map[string]*jam.Jam // item ID -> first render fault, one-way per mount
	scene   *jam.Jam            // non-nil once the scene has collapsed
}

func newBooth(policy *jam.Policy) *booth {
	return &booth{
		handler: jam.NewHandler("carousel", policy),
		failed:  make(map[string]*jam.Jam),
	}
}

// failItem marks one item as burned. Returns true only for the first
// fault per item per mount, so diagnostics fire once.
func (b *booth) failItem(id string, j *jam.Jam) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, done := b.failed[id]; done {
		return false
	}
	b.failed[id] = j
	b.handler.Record(j)
	return true
}

// itemJam reports whether an item has burned this mount.
func (b *booth) itemJam(id string) (*jam.Jam, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	j, failed := b.failed[id]
	return j, failed
}

func (b *booth) failedCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.failed)
}

// snap records a scene collapse. The first collapse wins; later ones
// are redundant by then.
func (b *booth) snap(j *jam.Jam) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.scene != nil {
		return
	}
	b.scene = j
	b.handler.Record(j)
}

func (b *booth) sceneJam() *jam.Jam {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.scene
}

// remountItems clears the burned set, the per-item recovery path when
// the item list changes.
func (b *booth) remountItems() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failed = make(map[string]*jam.Jam)
}

// remountScene is the retry action: the whole subtree starts fresh.
func (b *booth) remountScene() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.scene = nil
	b.failed = make(map[string]*jam.Jam)
}

func (b *booth) incidents() *jam.Handler {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.handler
}
