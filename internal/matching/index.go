package matching

import (
	"hash/fnv"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/vantara-markets/matchcore/internal/order"
)

// location is the (symbol, side, price) hint the index stores for an order
// id, enough to find and remove the resting order in O(log P + k).
type location struct {
	symbol string
	side   order.Side
	price  decimal.Decimal
}

// shardCount controls contention on the engine-wide id index. Point
// insert/remove/lookup are linearizable within a shard; there is no
// ordering guarantee for a bulk scan across shards.
const shardCount = 32

// orderIndex is a sharded, mutex-protected map from order id to its
// current book location, trading one lock for shardCount to cut
// contention under concurrent cancels across symbols.
type orderIndex struct {
	shards [shardCount]indexShard
}

type indexShard struct {
	mu   sync.Mutex
	byID map[string]location
}

func newOrderIndex() *orderIndex {
	idx := &orderIndex{}
	for i := range idx.shards {
		idx.shards[i].byID = make(map[string]location)
	}
	return idx
}

func (idx *orderIndex) shardFor(id string) *indexShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return &idx.shards[h.Sum32()%shardCount]
}

// Insert records id's location. Returns false if id is already present.
func (idx *orderIndex) Insert(id string, loc location) bool {
	s := idx.shardFor(id)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byID[id]; exists {
		return false
	}
	s.byID[id] = loc
	return true
}

// Has reports whether id is currently indexed.
func (idx *orderIndex) Has(id string) bool {
	s := idx.shardFor(id)
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.byID[id]
	return ok
}

// Lookup returns id's recorded location, if indexed.
func (idx *orderIndex) Lookup(id string) (location, bool) {
	s := idx.shardFor(id)
	s.mu.Lock()
	defer s.mu.Unlock()
	loc, ok := s.byID[id]
	return loc, ok
}

// Remove drops id from the index, if present.
func (idx *orderIndex) Remove(id string) {
	s := idx.shardFor(id)
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byID, id)
}

// Len returns the approximate number of indexed orders; it may be stale
// under concurrent mutation.
func (idx *orderIndex) Len() int {
	total := 0
	for i := range idx.shards {
		idx.shards[i].mu.Lock()
		total += len(idx.shards[i].byID)
		idx.shards[i].mu.Unlock()
	}
	return total
}
