package ecs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tag struct{ name string }

func TestEntityPool_ZeroIDIsNeverIssued(t *testing.T) {
	p := NewEntityPool()
	id := p.Create()
	assert.False(t, id.IsZero())
	assert.Equal(t, uint32(1), id.Index())
	assert.False(t, p.Alive(0))
}

func TestEntityPool_DestroyInvalidatesStaleRefs(t *testing.T) {
	p := NewEntityPool()
	a := p.Create()
	require.True(t, p.Destroy(a))
	assert.False(t, p.Alive(a))
	assert.False(t, p.Destroy(a), "second destroy is a no-op")

	b := p.Create()
	assert.Equal(t, a.Index(), b.Index(), "slot is recycled")
	assert.NotEqual(t, a.Generation(), b.Generation())
	assert.True(t, p.Alive(b))
	assert.Equal(t, 1, p.Live())
}

func TestWorld_DestroyClearsRegisteredStores(t *testing.T) {
	w := NewWorld()
	tags := NewStore[tag](w)
	id := w.CreateEntity()
	tags.Set(id, &tag{name: "lever"})

	w.Destroy(id)

	assert.False(t, w.Alive(id))
	assert.False(t, tags.Has(id))
}

func TestWorld_FlushDestroyQueueSkipsDeadEntities(t *testing.T) {
	w := NewWorld()
	tags := NewStore[tag](w)
	a := w.CreateEntity()
	b := w.CreateEntity()
	tags.Set(a, &tag{})
	tags.Set(b, &tag{})

	w.MarkForDestruction(a)
	w.MarkForDestruction(a)
	w.MarkForDestruction(b)
	w.Destroy(b)

	assert.Equal(t, 1, w.FlushDestroyQueue())
	assert.Equal(t, 0, tags.Len())
}

func TestSorted2_VisitsIntersectionInIDOrder(t *testing.T) {
	w := NewWorld()
	names := NewStore[tag](w)
	counts := NewStore[int](w)

	var ids []EntityID
	for i := 0; i < 5; i++ {
		id := w.CreateEntity()
		ids = append(ids, id)
		names.Set(id, &tag{})
		if i%2 == 0 {
			n := i
			counts.Set(id, &n)
		}
	}

	var seen []EntityID
	Sorted2(names, counts, func(id EntityID, _ *tag, _ *int) {
		seen = append(seen, id)
	})
	assert.Equal(t, []EntityID{ids[0], ids[2], ids[4]}, seen)
}
