package matching

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderIndexInsertLookupRemove(t *testing.T) {
	idx := newOrderIndex()
	loc := location{symbol: "AAPL", side: 0}

	assert.True(t, idx.Insert("a", loc))
	assert.False(t, idx.Insert("a", loc), "duplicate insert must fail")

	got, ok := idx.Lookup("a")
	require.True(t, ok)
	assert.Equal(t, loc, got)

	assert.True(t, idx.Has("a"))
	idx.Remove("a")
	assert.False(t, idx.Has("a"))

	_, ok = idx.Lookup("a")
	assert.False(t, ok)
}

func TestOrderIndexLenUnderConcurrency(t *testing.T) {
	idx := newOrderIndex()
	var wg sync.WaitGroup
	for i := 0; i < 500; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			idx.Insert(fmt.Sprintf("id-%d", i), location{symbol: "AAPL"})
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 500, idx.Len())
}
